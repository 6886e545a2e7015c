package tools

import (
	"fmt"
	"time"

	"github.com/AdrianChallinorOsiris/monitor/internal/audit"
	"github.com/mark3labs/mcp-go/mcp"
)

// TextResult returns the probe output as the tool result. Probe output is
// already degraded to text, so tool calls never report an MCP error.
func TextResult(text string) *mcp.CallToolResult {
	return mcp.NewToolResultText(text)
}

// ErrorResult reports a rejected tool call, such as a missing or out of
// range argument.
func ErrorResult(msg string) *mcp.CallToolResult {
	return mcp.NewToolResultText(fmt.Sprintf("error: %s", msg))
}

// LogAudit records a tool invocation, silently ignoring a nil logger.
func LogAudit(logger *audit.Logger, toolName string, params map[string]any, result string, start time.Time) {
	if logger == nil {
		return
	}
	_ = logger.Log(audit.Entry{
		Timestamp: start,
		Source:    "mcp",
		Name:      toolName,
		Params:    params,
		Result:    result,
		Duration:  time.Since(start),
	})
}
