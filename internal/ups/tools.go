package ups

import (
	"context"
	"fmt"
	"time"

	"github.com/jamesprial/nut-mcp/internal/nut"
	"github.com/jamesprial/nut-mcp/internal/safety"
	"github.com/jamesprial/nut-mcp/internal/tools"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

const (
	toolNameUPSStatus       = "ups_status"
	toolNameUPSRead         = "ups_read"
	toolNameUPSMetric       = "ups_metric"
	toolNameUPSVariable     = "ups_variable"
	toolNameUPSListCommands = "ups_list_commands"
)

// UPSTools returns a slice of tool registrations for UPS queries and control.
// Control tools are checked against filter by NUT command name, and those in
// DestructiveTools require a confirmation token from confirm.
func UPSTools(
	mgr UPSManager,
	filter *safety.Filter,
	confirm *safety.ConfirmationTracker,
	audit *safety.AuditLogger,
) []tools.Registration {
	regs := []tools.Registration{
		upsStatus(mgr, audit),
		upsRead(mgr, audit),
		upsMetric(mgr, audit),
		upsVariable(mgr, audit),
		upsListCommands(mgr, audit),
	}
	for _, a := range Actions() {
		regs = append(regs, upsControl(a, mgr, filter, confirm, audit))
	}
	return regs
}

func upsStatus(mgr UPSManager, audit *safety.AuditLogger) tools.Registration {
	tool := mcp.NewTool(toolNameUPSStatus,
		mcp.WithDescription("Return every variable reported by upsc for the UPS."),
	)

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()
		params := map[string]any{}

		out := mgr.Status(ctx)

		tools.LogAudit(audit, mgr.Device().Name, toolNameUPSStatus, params, tools.Outcome(out), start)
		return tools.TextResult(out), nil
	}

	return tools.Registration{Tool: tool, Handler: server.ToolHandlerFunc(handler)}
}

func upsRead(mgr UPSManager, audit *safety.AuditLogger) tools.Registration {
	tool := mcp.NewTool(toolNameUPSRead,
		mcp.WithDescription("Read battery level, battery voltage, input and output voltage, mode and frequency as a JSON object."),
	)

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()
		params := map[string]any{}
		device := mgr.Device().Name

		out, err := mgr.Read(ctx).Render()
		if err != nil {
			tools.LogAudit(audit, device, toolNameUPSRead, params, "error: "+err.Error(), start)
			return tools.ErrorResult(err.Error()), nil
		}

		tools.LogAudit(audit, device, toolNameUPSRead, params, "ok", start)
		return tools.TextResult(out), nil
	}

	return tools.Registration{Tool: tool, Handler: server.ToolHandlerFunc(handler)}
}

func upsMetric(mgr UPSManager, audit *safety.AuditLogger) tools.Registration {
	tool := mcp.NewTool(toolNameUPSMetric,
		mcp.WithDescription("Read a single UPS metric."),
		mcp.WithString("metric",
			mcp.Required(),
			mcp.Description("Metric name"),
			mcp.Enum(nut.MetricNames()...),
		),
	)

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()
		metric := req.GetString("metric", "")
		params := map[string]any{"metric": metric}
		device := mgr.Device().Name

		if _, ok := nut.MetricVariable(metric); !ok {
			tools.LogAudit(audit, device, toolNameUPSMetric, params, "error: unknown metric", start)
			return tools.ErrorResult(fmt.Sprintf("unknown metric %q", metric)), nil
		}

		out := mgr.Metric(ctx, metric)

		tools.LogAudit(audit, device, toolNameUPSMetric, params, tools.Outcome(out), start)
		return tools.TextResult(out), nil
	}

	return tools.Registration{Tool: tool, Handler: server.ToolHandlerFunc(handler)}
}

func upsVariable(mgr UPSManager, audit *safety.AuditLogger) tools.Registration {
	tool := mcp.NewTool(toolNameUPSVariable,
		mcp.WithDescription("Read one NUT variable by name, e.g. battery.charge or ups.load."),
		mcp.WithString("name",
			mcp.Required(),
			mcp.Description("NUT variable name"),
		),
	)

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()
		name := req.GetString("name", "")
		params := map[string]any{"name": name}

		out := mgr.Variable(ctx, name)

		tools.LogAudit(audit, mgr.Device().Name, toolNameUPSVariable, params, tools.Outcome(out), start)
		return tools.TextResult(out), nil
	}

	return tools.Registration{Tool: tool, Handler: server.ToolHandlerFunc(handler)}
}

func upsListCommands(mgr UPSManager, audit *safety.AuditLogger) tools.Registration {
	tool := mcp.NewTool(toolNameUPSListCommands,
		mcp.WithDescription("List the instant commands the UPS driver supports."),
	)

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()
		params := map[string]any{}

		out := mgr.ListCommands(ctx)

		tools.LogAudit(audit, mgr.Device().Name, toolNameUPSListCommands, params, tools.Outcome(out), start)
		return tools.TextResult(out), nil
	}

	return tools.Registration{Tool: tool, Handler: server.ToolHandlerFunc(handler)}
}

// upsControl builds the registration for a control Action.
func upsControl(
	a Action,
	mgr UPSManager,
	filter *safety.Filter,
	confirm *safety.ConfirmationTracker,
	audit *safety.AuditLogger,
) tools.Registration {
	opts := []mcp.ToolOption{}
	if a.Destructive {
		opts = append(opts,
			mcp.WithDescription(a.Description+" Requires confirmation."),
			mcp.WithString("confirmation_token",
				mcp.Description("Confirmation token returned by a prior call to this tool"),
			),
			mcp.WithDestructiveHintAnnotation(true),
		)
	} else {
		opts = append(opts, mcp.WithDescription(a.Description))
	}
	tool := mcp.NewTool(a.Tool, opts...)

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()
		command := a.Command(mgr.Commands())
		params := map[string]any{"command": command}
		device := mgr.Device().Name

		if err := filter.Check(command); err != nil {
			tools.LogAudit(audit, device, a.Tool, params, "denied", start)
			return tools.ErrorResult(err.Error()), nil
		}

		if confirm.NeedsConfirmation(a.Tool) {
			token := req.GetString("confirmation_token", "")
			if !confirm.Confirm(token, a.Tool) {
				return tools.ConfirmPrompt(confirm, a.Tool, device, a.Description), nil
			}
			params["confirmed"] = true
		}

		out := a.Run(ctx, mgr)

		tools.LogAudit(audit, device, a.Tool, params, tools.Outcome(out), start)
		return tools.TextResult(out), nil
	}

	return tools.Registration{Tool: tool, Handler: server.ToolHandlerFunc(handler)}
}
