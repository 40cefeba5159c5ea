package ups

import (
	"context"

	"github.com/jamesprial/nut-mcp/internal/config"
	"github.com/jamesprial/nut-mcp/internal/nut"
)

// Compile-time interface check.
var _ UPSManager = (*NUTManager)(nil)

// NUTManager implements UPSManager on top of the NUT command-line tools.
type NUTManager struct {
	*nut.Client
	agg *nut.Aggregator
}

// NewNUTManager returns a NUTManager that reads the given metrics through
// client. An empty metrics list selects config.DefaultMetrics.
func NewNUTManager(client *nut.Client, metrics []config.MetricConfig) *NUTManager {
	if client == nil {
		panic("nut client must not be nil")
	}
	return &NUTManager{
		Client: client,
		agg:    nut.NewAggregator(client, metrics),
	}
}

// Read queries every configured metric in order.
func (m *NUTManager) Read(ctx context.Context) nut.ReadingSet {
	return m.agg.Read(ctx)
}

// Actions returns the control operations in a stable order. The Destructive
// entries are exactly DestructiveTools. Instant command names come from the
// manager's CommandsConfig; the driver shutdown and service restart use the
// pseudo names nut.DriverShutdown and nut.ServiceRestart.
func Actions() []Action {
	return []Action{
		{
			Tool:        "ups_shutdown_delay",
			CLI:         "shutdown-delay",
			Command:     func(c config.CommandsConfig) string { return c.ShutdownReturn },
			Description: "Turn the UPS load off after ups.delay.shutdown seconds and back on when mains power returns.",
			Banner:      "Shutting down UPS after the shutdown delay, please wait...",
			Destructive: true,
			Run:         func(ctx context.Context, mgr UPSManager) string { return mgr.ShutdownDelay(ctx) },
		},
		{
			Tool:        "ups_shutdown_now",
			CLI:         "shutdown-now",
			Command:     fixed(nut.DriverShutdown),
			Description: "Power the UPS down immediately through the driver (upsdrvctl shutdown).",
			Banner:      "Shutting down UPS now...",
			Destructive: true,
			Run:         func(ctx context.Context, mgr UPSManager) string { return mgr.ShutdownNow(ctx) },
		},
		{
			Tool:        "ups_load_on",
			CLI:         "load-on",
			Command:     func(c config.CommandsConfig) string { return c.LoadOn },
			Description: "Switch the UPS load on.",
			Banner:      "Powering on the UPS load...",
			Run:         func(ctx context.Context, mgr UPSManager) string { return mgr.LoadOn(ctx) },
		},
		{
			Tool:        "ups_load_off",
			CLI:         "load-off",
			Command:     func(c config.CommandsConfig) string { return c.LoadOff },
			Description: "Switch the UPS load off immediately.",
			Banner:      "Powering off the UPS load...",
			Destructive: true,
			Run:         func(ctx context.Context, mgr UPSManager) string { return mgr.LoadOff(ctx) },
		},
		{
			Tool:        "ups_reboot",
			CLI:         "reboot",
			Command:     func(c config.CommandsConfig) string { return c.Reboot },
			Description: "Cycle the UPS load: off after the shutdown delay, then on again.",
			Banner:      "Rebooting UPS after the shutdown delay, please wait...",
			Destructive: true,
			Run:         func(ctx context.Context, mgr UPSManager) string { return mgr.Reboot(ctx) },
		},
		{
			Tool:        "ups_shutdown_stop",
			CLI:         "reboot-stop",
			Command:     func(c config.CommandsConfig) string { return c.ShutdownStop },
			Description: "Cancel a pending shutdown or reboot.",
			Banner:      "Halting the UPS reboot...",
			Run:         func(ctx context.Context, mgr UPSManager) string { return mgr.StopShutdown(ctx) },
		},
		{
			Tool:        "ups_beeper_toggle",
			CLI:         "beeper",
			Command:     func(c config.CommandsConfig) string { return c.BeeperToggle },
			Description: "Toggle the UPS beeper.",
			Banner:      "Toggling the UPS beeper...",
			Run:         func(ctx context.Context, mgr UPSManager) string { return mgr.ToggleBeeper(ctx) },
		},
		{
			Tool:        "ups_battery_test",
			CLI:         "battery-test",
			Command:     func(c config.CommandsConfig) string { return c.BatteryTest },
			Description: "Start a quick battery test.",
			Banner:      "Testing the UPS battery...",
			Run:         func(ctx context.Context, mgr UPSManager) string { return mgr.QuickBatteryTest(ctx) },
		},
		{
			Tool:        "ups_restart_services",
			CLI:         "restart-services",
			Command:     fixed(nut.ServiceRestart),
			Description: "Restart the NUT server and monitor services.",
			Banner:      "Restarting NUT services...",
			Destructive: true,
			Run:         func(ctx context.Context, mgr UPSManager) string { return mgr.RestartServices(ctx) },
		},
	}
}

// fixed returns a Command func for names that do not depend on configuration.
func fixed(name string) func(config.CommandsConfig) string {
	return func(config.CommandsConfig) string { return name }
}

// DestructiveTools lists the tool names that require confirmation.
var DestructiveTools = []string{
	"ups_shutdown_delay",
	"ups_shutdown_now",
	"ups_load_off",
	"ups_reboot",
	"ups_restart_services",
}
