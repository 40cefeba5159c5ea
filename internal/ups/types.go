// Package ups exposes a single NUT-managed UPS as MCP tools.
package ups

import (
	"context"

	"github.com/jamesprial/nut-mcp/internal/config"
	"github.com/jamesprial/nut-mcp/internal/nut"
)

// UPSManager defines the queries and control operations available for one
// UPS. Every method returns the text produced by the underlying NUT tool, or
// an "An error occurred: " string when the tool failed.
type UPSManager interface {
	Device() config.DeviceConfig
	Commands() config.CommandsConfig

	Status(ctx context.Context) string
	Variable(ctx context.Context, name string) string
	Metric(ctx context.Context, metric string) string
	Read(ctx context.Context) nut.ReadingSet
	ListCommands(ctx context.Context) string

	ShutdownDelay(ctx context.Context) string
	ShutdownNow(ctx context.Context) string
	LoadOn(ctx context.Context) string
	LoadOff(ctx context.Context) string
	Reboot(ctx context.Context) string
	StopShutdown(ctx context.Context) string
	ToggleBeeper(ctx context.Context) string
	QuickBatteryTest(ctx context.Context) string
	RestartServices(ctx context.Context) string
}

// Action describes a control operation that changes UPS or service state.
// Command returns the name matched against the safety command filter.
type Action struct {
	Tool        string
	CLI         string
	Command     func(cmds config.CommandsConfig) string
	Description string
	Banner      string
	Destructive bool
	Run         func(ctx context.Context, mgr UPSManager) string
}
