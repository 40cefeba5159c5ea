// Package tools provides shared helper utilities for MCP tool handlers.
package tools

import (
	"fmt"
	"strings"
	"time"

	"github.com/jamesprial/nut-mcp/internal/nut"
	"github.com/jamesprial/nut-mcp/internal/safety"
	"github.com/mark3labs/mcp-go/mcp"
)

// TextResult wraps command output unchanged.
func TextResult(output string) *mcp.CallToolResult {
	return mcp.NewToolResultText(output)
}

// ErrorResult returns an mcp.CallToolResult that describes an error condition.
func ErrorResult(msg string) *mcp.CallToolResult {
	return mcp.NewToolResultText(fmt.Sprintf("error: %s", msg))
}

// Outcome classifies command output for the audit log.
func Outcome(output string) string {
	if strings.HasPrefix(output, nut.ErrorPrefix) {
		return "error: " + strings.TrimSpace(strings.TrimPrefix(output, nut.ErrorPrefix))
	}
	return "ok"
}

// LogAudit logs a tool invocation to the audit logger, silently ignoring a nil logger.
func LogAudit(audit *safety.AuditLogger, device, toolName string, params map[string]any, result string, start time.Time) {
	if audit == nil {
		return
	}
	_ = audit.Log(safety.AuditEntry{
		Timestamp: start,
		Device:    device,
		Tool:      toolName,
		Params:    params,
		Result:    result,
		Duration:  time.Since(start),
	})
}

// ConfirmPrompt issues a confirmation request and returns the prompt result.
func ConfirmPrompt(confirm *safety.ConfirmationTracker, toolName, device, description string) *mcp.CallToolResult {
	token := confirm.RequestConfirmation(toolName)
	return mcp.NewToolResultText(fmt.Sprintf(
		"Confirmation required for %s on UPS %q.\n\n%s\n\nTo proceed, call %s again with confirmation_token=%q.",
		toolName, device, description, toolName, token,
	))
}
