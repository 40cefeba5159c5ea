package nut

// DriverShutdown is the pseudo command name used for "upsdrvctl shutdown" when
// matching against a command filter.
const DriverShutdown = "driver.shutdown"

// ServiceRestart is the pseudo command name used for the service restart when
// matching against a command filter.
const ServiceRestart = "service.restart"

// Metric names accepted by Client.Metric.
const (
	MetricInputVoltage   = "input_voltage"
	MetricOutputVoltage  = "output_voltage"
	MetricFrequency      = "frequency"
	MetricBatteryCharge  = "battery_charge"
	MetricBatteryVoltage = "battery_voltage"
	MetricBatteryRuntime = "battery_runtime"
	MetricMode           = "mode"
)

// metricVariables maps a metric name to the NUT variable read by upsc.
var metricVariables = map[string]string{
	MetricInputVoltage:   "input.voltage",
	MetricOutputVoltage:  "output.voltage",
	MetricFrequency:      "input.frequency",
	MetricBatteryCharge:  "battery.charge",
	MetricBatteryVoltage: "battery.voltage",
	MetricBatteryRuntime: "battery.runtime",
	MetricMode:           "ups.status",
}

// MetricNames returns the metric names accepted by Client.Metric in a stable
// order.
func MetricNames() []string {
	return []string{
		MetricInputVoltage,
		MetricOutputVoltage,
		MetricFrequency,
		MetricBatteryCharge,
		MetricBatteryVoltage,
		MetricBatteryRuntime,
		MetricMode,
	}
}

// MetricVariable returns the NUT variable behind a metric name.
func MetricVariable(metric string) (string, bool) {
	v, ok := metricVariables[metric]
	return v, ok
}
