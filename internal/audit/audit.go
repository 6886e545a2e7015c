// Package audit records every served probe as newline-delimited JSON.
package audit

import (
	"encoding/json"
	"errors"
	"io"
	"sync"
	"time"
)

// ErrNilWriter is returned by Logger.Log when the logger was constructed
// with a nil writer.
var ErrNilWriter = errors.New("audit logger: writer is nil")

// Entry captures a single HTTP request or MCP tool call.
type Entry struct {
	Timestamp time.Time      `json:"timestamp"`
	Source    string         `json:"source"` // "http" or "mcp"
	Name      string         `json:"name"`   // request path or tool name
	Params    map[string]any `json:"params,omitempty"`
	Result    string         `json:"result"`
	Duration  time.Duration  `json:"duration_ns"`
}

// Logger writes Entry records to an io.Writer. It is safe for concurrent use.
type Logger struct {
	mu sync.Mutex
	w  io.Writer
}

// NewLogger returns a Logger that writes to w. If w is nil the returned
// logger is also nil; callers must check for nil before use.
func NewLogger(w io.Writer) *Logger {
	if w == nil {
		return nil
	}
	return &Logger{w: w}
}

// Log serialises entry as a single JSON line.
func (l *Logger) Log(entry Entry) error {
	if l == nil || l.w == nil {
		return ErrNilWriter
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	data = append(data, '\n')

	l.mu.Lock()
	_, err = l.w.Write(data)
	l.mu.Unlock()

	return err
}
