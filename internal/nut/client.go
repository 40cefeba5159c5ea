package nut

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jamesprial/nut-mcp/internal/config"
)

// ErrorPrefix starts every result produced by a failed command.
const ErrorPrefix = "An error occurred: "

// Client builds NUT tool invocations for a single UPS and runs them through an
// Executor. Every operation returns text: the tool's stdout when it exits
// zero, otherwise ErrorPrefix followed by its stderr. No operation returns a
// Go error and no timeout is applied beyond the caller's context.
type Client struct {
	device config.DeviceConfig
	tools  config.ToolsConfig
	exec   Executor
	logger *slog.Logger
}

// NewClient returns a Client for device. A nil executor selects OSExecutor and
// a nil logger selects slog.Default().
func NewClient(device config.DeviceConfig, tools config.ToolsConfig, executor Executor, logger *slog.Logger) *Client {
	if executor == nil {
		executor = OSExecutor{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		device: device,
		tools:  tools,
		exec:   executor,
		logger: logger,
	}
}

// Device returns the UPS the client talks to.
func (c *Client) Device() config.DeviceConfig {
	return c.device
}

// Commands returns the instant command names sent by the control operations.
func (c *Client) Commands() config.CommandsConfig {
	return c.tools.Commands
}

// Run executes name with args and converts the outcome to text.
func (c *Client) Run(ctx context.Context, name string, args ...string) string {
	c.logger.DebugContext(ctx, "running nut command", "cmd", name, "args", redactArgs(args))

	stdout, stderr, err := c.exec.RunCommand(ctx, name, args...)
	if err == nil {
		return stdout
	}

	c.logger.DebugContext(ctx, "nut command failed", "cmd", name, "err", err)

	msg := stderr
	if msg == "" {
		// Nothing on stderr: a start failure, a silent non-zero exit or a
		// cancelled context.
		msg = err.Error()
	}
	return ErrorPrefix + msg
}

// privileged prefixes name and args with sudo when configured.
func (c *Client) privileged(name string, args ...string) (string, []string) {
	if !c.tools.UseSudo {
		return name, args
	}
	return c.tools.Sudo, append([]string{name}, args...)
}

// target returns the upsc device identifier, e.g. myups@localhost.
func (c *Client) target() string {
	return c.device.Name + "@" + c.device.Host
}

// Status returns every variable the daemon reports for the UPS.
func (c *Client) Status(ctx context.Context) string {
	return c.Run(ctx, c.tools.Upsc, c.target())
}

// Variable returns the value of a single NUT variable such as battery.charge.
func (c *Client) Variable(ctx context.Context, name string) string {
	if !config.ValidVariable(name) {
		return ErrorPrefix + fmt.Sprintf("invalid variable name %q", name)
	}
	return c.Run(ctx, c.tools.Upsc, c.target(), name)
}

// Metric returns the value of a named metric (see MetricNames).
func (c *Client) Metric(ctx context.Context, metric string) string {
	v, ok := MetricVariable(metric)
	if !ok {
		return ErrorPrefix + fmt.Sprintf("unknown metric %q", metric)
	}
	return c.Variable(ctx, v)
}

func (c *Client) InputVoltage(ctx context.Context) string {
	return c.Metric(ctx, MetricInputVoltage)
}

func (c *Client) OutputVoltage(ctx context.Context) string {
	return c.Metric(ctx, MetricOutputVoltage)
}

func (c *Client) Frequency(ctx context.Context) string {
	return c.Metric(ctx, MetricFrequency)
}

func (c *Client) BatteryCharge(ctx context.Context) string {
	return c.Metric(ctx, MetricBatteryCharge)
}

func (c *Client) BatteryVoltage(ctx context.Context) string {
	return c.Metric(ctx, MetricBatteryVoltage)
}

func (c *Client) BatteryRuntime(ctx context.Context) string {
	return c.Metric(ctx, MetricBatteryRuntime)
}

// Mode returns ups.status, e.g. "OL" or "OB DISCHRG".
func (c *Client) Mode(ctx context.Context) string {
	return c.Metric(ctx, MetricMode)
}

// ListCommands returns the instant commands the UPS driver supports.
func (c *Client) ListCommands(ctx context.Context) string {
	return c.Run(ctx, c.tools.Upscmd, "-l", c.device.Name)
}

// Instant sends an instant command with the configured upsd credentials.
func (c *Client) Instant(ctx context.Context, command string) string {
	if !config.ValidVariable(command) {
		return ErrorPrefix + fmt.Sprintf("invalid command name %q", command)
	}
	if c.device.User == "" || c.device.Password == "" {
		return ErrorPrefix + "device.user and device.password are required for instant commands"
	}
	name, args := c.privileged(c.tools.Upscmd,
		"-u", c.device.User,
		"-p", c.device.Password,
		c.device.Name,
		command,
	)
	return c.Run(ctx, name, args...)
}

// ShutdownDelay turns the load off after ups.delay.shutdown seconds and back
// on once mains power returns and ups.delay.start has elapsed.
func (c *Client) ShutdownDelay(ctx context.Context) string {
	return c.Instant(ctx, c.tools.Commands.ShutdownReturn)
}

// ShutdownNow asks the driver to power the UPS down immediately.
func (c *Client) ShutdownNow(ctx context.Context) string {
	name, args := c.privileged(c.tools.Upsdrvctl, "shutdown")
	return c.Run(ctx, name, args...)
}

func (c *Client) LoadOn(ctx context.Context) string {
	return c.Instant(ctx, c.tools.Commands.LoadOn)
}

func (c *Client) LoadOff(ctx context.Context) string {
	return c.Instant(ctx, c.tools.Commands.LoadOff)
}

// Reboot cycles the load: off after the shutdown delay, then on again.
func (c *Client) Reboot(ctx context.Context) string {
	return c.Instant(ctx, c.tools.Commands.Reboot)
}

// StopShutdown cancels a pending shutdown or reboot while it is still inside
// the off delay.
func (c *Client) StopShutdown(ctx context.Context) string {
	return c.Instant(ctx, c.tools.Commands.ShutdownStop)
}

func (c *Client) ToggleBeeper(ctx context.Context) string {
	return c.Instant(ctx, c.tools.Commands.BeeperToggle)
}

func (c *Client) QuickBatteryTest(ctx context.Context) string {
	return c.Instant(ctx, c.tools.Commands.BatteryTest)
}

// RestartServices restarts the configured NUT services in one systemctl call.
func (c *Client) RestartServices(ctx context.Context) string {
	name, args := c.privileged(c.tools.Systemctl, append([]string{"restart"}, c.tools.Services...)...)
	return c.Run(ctx, name, args...)
}

// redactArgs returns a copy of args with the value following -p masked.
func redactArgs(args []string) []string {
	out := make([]string, len(args))
	copy(out, args)
	for i := 0; i < len(out)-1; i++ {
		if out[i] == "-p" {
			out[i+1] = "***"
		}
	}
	return out
}
