package audit

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"
)

// failingWriter always returns an error from Write.
type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func Test_NewLogger_NilWriter(t *testing.T) {
	if l := NewLogger(nil); l != nil {
		t.Fatalf("NewLogger(nil) = %v, want nil", l)
	}
}

func Test_Log_NilLogger(t *testing.T) {
	var l *Logger
	if err := l.Log(Entry{Name: "/status"}); !errors.Is(err, ErrNilWriter) {
		t.Fatalf("Log() on nil logger error = %v, want ErrNilWriter", err)
	}
}

func Test_Log_WritesOneJSONLine(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(&buf)

	ts := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	err := l.Log(Entry{
		Timestamp: ts,
		Source:    "http",
		Name:      "/disk/root/freep",
		Params:    map[string]any{"mount": "root", "param": "freep"},
		Result:    "200",
		Duration:  1500 * time.Microsecond,
	})
	if err != nil {
		t.Fatalf("Log() unexpected error: %v", err)
	}

	out := buf.String()
	if !strings.HasSuffix(out, "\n") || strings.Count(out, "\n") != 1 {
		t.Fatalf("output %q is not a single newline-terminated line", out)
	}

	var got map[string]any
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if got["name"] != "/disk/root/freep" {
		t.Errorf("name = %v, want /disk/root/freep", got["name"])
	}
	if got["source"] != "http" {
		t.Errorf("source = %v, want http", got["source"])
	}
	if got["duration_ns"] != float64(1500000) {
		t.Errorf("duration_ns = %v, want 1500000", got["duration_ns"])
	}
	params, ok := got["params"].(map[string]any)
	if !ok || params["mount"] != "root" {
		t.Errorf("params = %v, want mount=root", got["params"])
	}
}

func Test_Log_OmitsEmptyParams(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(&buf)
	if err := l.Log(Entry{Source: "http", Name: "/uptime", Result: "200"}); err != nil {
		t.Fatalf("Log() unexpected error: %v", err)
	}
	if strings.Contains(buf.String(), "params") {
		t.Errorf("output %q should omit empty params", buf.String())
	}
}

func Test_Log_WriterError(t *testing.T) {
	l := NewLogger(failingWriter{})
	if err := l.Log(Entry{Name: "/status"}); err == nil {
		t.Fatal("Log() error = nil, want writer error")
	}
}

func Test_Log_Concurrent(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(&buf)

	const n = 50
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = l.Log(Entry{Source: "http", Name: "/cpu", Result: "200"})
		}()
	}
	wg.Wait()

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != n {
		t.Fatalf("got %d lines, want %d", len(lines), n)
	}
	for i, line := range lines {
		if !json.Valid([]byte(line)) {
			t.Errorf("line %d is not valid JSON: %q", i, line)
		}
	}
}
