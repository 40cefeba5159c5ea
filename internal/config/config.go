// Package config provides configuration loading and defaults for the nut-mcp server
// and the upsctl command-line tool.
package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"regexp"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Transport names accepted in ServerConfig.Transport.
const (
	TransportHTTP  = "http"
	TransportStdio = "stdio"
)

// PathEnv names the environment variable holding the config file path.
const PathEnv = "NUT_MCP_CONFIG_PATH"

// DefaultPath is used when neither a flag nor PathEnv names a config file.
const DefaultPath = "/etc/nut-mcp/config.yaml"

// ResolvePath returns explicit when set, else $NUT_MCP_CONFIG_PATH, else
// DefaultPath.
func ResolvePath(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if p := os.Getenv(PathEnv); p != "" {
		return p
	}
	return DefaultPath
}

// variablePattern matches NUT variable names such as battery.charge or ups.status.
var variablePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9._-]*$`)

// ResourceFilter holds allowlist and denylist entries for a resource category.
type ResourceFilter struct {
	Allowlist []string `yaml:"allowlist"`
	Denylist  []string `yaml:"denylist"`
}

// SafetyConfig groups the filter applied to NUT instant-command names.
type SafetyConfig struct {
	Commands ResourceFilter `yaml:"commands"`
}

// DeviceConfig identifies the UPS and the upsd credentials used for instant commands.
type DeviceConfig struct {
	Name     string `yaml:"name"`
	Host     string `yaml:"host"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
}

// ToolsConfig holds the external NUT tool binaries and how they are invoked.
type ToolsConfig struct {
	Upsc      string `yaml:"upsc"`
	Upscmd    string `yaml:"upscmd"`
	Upsdrvctl string `yaml:"upsdrvctl"`
	Systemctl string `yaml:"systemctl"`
	Sudo      string `yaml:"sudo"`
	// UseSudo prefixes privileged commands (instant commands, driver
	// control, service restart) with the sudo binary.
	UseSudo  bool           `yaml:"use_sudo"`
	Services []string       `yaml:"services"`
	Commands CommandsConfig `yaml:"commands"`
}

// CommandsConfig names the upscmd instant commands sent for each control
// operation. Drivers differ, so every name can be overridden.
type CommandsConfig struct {
	ShutdownReturn string `yaml:"shutdown_return"`
	Reboot         string `yaml:"reboot"`
	ShutdownStop   string `yaml:"shutdown_stop"`
	LoadOn         string `yaml:"load_on"`
	LoadOff        string `yaml:"load_off"`
	BeeperToggle   string `yaml:"beeper_toggle"`
	BatteryTest    string `yaml:"battery_test"`
}

// DefaultCommands returns the instant command names used when the config
// file does not override them.
func DefaultCommands() CommandsConfig {
	return CommandsConfig{
		ShutdownReturn: "shutdown.return",
		Reboot:         "reboot.load",
		ShutdownStop:   "shutdown.stop",
		LoadOn:         "load.on",
		LoadOff:        "load.off",
		BeeperToggle:   "beeper.toggle",
		BatteryTest:    "test.battery.start.quick",
	}
}

// named returns the commands keyed by their YAML field name.
func (c CommandsConfig) named() []struct{ key, value string } {
	return []struct{ key, value string }{
		{"shutdown_return", c.ShutdownReturn},
		{"reboot", c.Reboot},
		{"shutdown_stop", c.ShutdownStop},
		{"load_on", c.LoadOn},
		{"load_off", c.LoadOff},
		{"beeper_toggle", c.BeeperToggle},
		{"battery_test", c.BatteryTest},
	}
}

// MetricConfig describes one entry of the reading set.
type MetricConfig struct {
	Key      string `yaml:"key"`
	Variable string `yaml:"variable"`
	Unit     string `yaml:"unit"`
}

// ReadingConfig lists the metrics gathered by a reading, in output order.
type ReadingConfig struct {
	Metrics []MetricConfig `yaml:"metrics"`
}

// AuditConfig controls audit logging behaviour.
type AuditConfig struct {
	Enabled bool   `yaml:"enabled"`
	LogPath string `yaml:"log_path"`
}

// ServerConfig holds network and authentication settings.
type ServerConfig struct {
	Port      int    `yaml:"port"`
	AuthToken string `yaml:"auth_token"`
	Transport string `yaml:"transport"`
}

// Config is the top-level configuration structure.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Device  DeviceConfig  `yaml:"device"`
	Tools   ToolsConfig   `yaml:"tools"`
	Reading ReadingConfig `yaml:"reading"`
	Safety  SafetyConfig  `yaml:"safety"`
	Audit   AuditConfig   `yaml:"audit"`
}

// LoadConfig reads a YAML configuration file from path. Fields absent from the
// file keep their DefaultConfig values. On error, nil is returned for the
// config pointer.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return cfg, nil
}

// DefaultConfig returns a new Config populated with default values. Each call
// returns a distinct instance.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:      8080,
			Transport: TransportHTTP,
		},
		Device: DeviceConfig{
			Name: "ups",
			Host: "localhost",
		},
		Tools: ToolsConfig{
			Upsc:      "upsc",
			Upscmd:    "upscmd",
			Upsdrvctl: "upsdrvctl",
			Systemctl: "systemctl",
			Sudo:      "sudo",
			UseSudo:   true,
			Services:  []string{"nut-server", "nut-monitor"},
			Commands:  DefaultCommands(),
		},
		Reading: ReadingConfig{
			Metrics: DefaultMetrics(),
		},
		Audit: AuditConfig{
			Enabled: true,
			LogPath: "/var/log/nut-mcp/audit.log",
		},
	}
}

// DefaultMetrics returns the standard reading set layout.
func DefaultMetrics() []MetricConfig {
	return []MetricConfig{
		{Key: "BatL", Variable: "battery.charge", Unit: "%"},
		{Key: "Vbat", Variable: "battery.voltage", Unit: "V"},
		{Key: "Vin", Variable: "input.voltage", Unit: "V"},
		{Key: "Vout", Variable: "output.voltage", Unit: "V"},
		{Key: "Mode", Variable: "ups.status"},
		{Key: "Freq", Variable: "input.frequency", Unit: "Hz"},
	}
}

// LoadDotEnv loads KEY=VALUE pairs from the given .env files into the process
// environment without overwriting variables that are already set. Missing
// files are ignored.
func LoadDotEnv(paths ...string) error {
	for _, p := range paths {
		if _, err := os.Stat(p); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

// ApplyEnvOverrides updates cfg in place with values from environment variables.
// Recognized variables:
//   - NUT_MCP_AUTH_TOKEN overrides cfg.Server.AuthToken
//   - NUT_UPS_NAME overrides cfg.Device.Name
//   - NUT_UPS_HOST overrides cfg.Device.Host
//   - NUT_UPS_USER overrides cfg.Device.User
//   - NUT_UPS_PASSWORD overrides cfg.Device.Password
func ApplyEnvOverrides(cfg *Config) {
	overrides := []struct {
		env    string
		target *string
	}{
		{"NUT_MCP_AUTH_TOKEN", &cfg.Server.AuthToken},
		{"NUT_UPS_NAME", &cfg.Device.Name},
		{"NUT_UPS_HOST", &cfg.Device.Host},
		{"NUT_UPS_USER", &cfg.Device.User},
		{"NUT_UPS_PASSWORD", &cfg.Device.Password},
	}
	for _, o := range overrides {
		if v := os.Getenv(o.env); v != "" {
			*o.target = v
		}
	}
}

// Validate reports every problem found in cfg. The returned error joins one
// error per problem.
func (c *Config) Validate() error {
	var errs []error

	if c.Device.Name == "" {
		errs = append(errs, errors.New("device.name is required"))
	}
	if c.Device.Host == "" {
		errs = append(errs, errors.New("device.host is required"))
	}
	if c.Tools.Upsc == "" || c.Tools.Upscmd == "" || c.Tools.Upsdrvctl == "" || c.Tools.Systemctl == "" {
		errs = append(errs, errors.New("tools: upsc, upscmd, upsdrvctl and systemctl must be set"))
	}
	if c.Tools.UseSudo && c.Tools.Sudo == "" {
		errs = append(errs, errors.New("tools.sudo is required when tools.use_sudo is true"))
	}
	for _, cmd := range c.Tools.Commands.named() {
		if !ValidVariable(cmd.value) {
			errs = append(errs, fmt.Errorf("tools.commands.%s: invalid command name %q", cmd.key, cmd.value))
		}
	}
	if c.Server.Transport != TransportHTTP && c.Server.Transport != TransportStdio {
		errs = append(errs, fmt.Errorf("server.transport %q must be %q or %q", c.Server.Transport, TransportHTTP, TransportStdio))
	}
	if c.Server.Transport == TransportHTTP && (c.Server.Port <= 0 || c.Server.Port > 65535) {
		errs = append(errs, fmt.Errorf("server.port %d out of range", c.Server.Port))
	}
	if len(c.Reading.Metrics) == 0 {
		errs = append(errs, errors.New("reading.metrics must not be empty"))
	}

	seen := make(map[string]bool, len(c.Reading.Metrics))
	for i, m := range c.Reading.Metrics {
		if m.Key == "" {
			errs = append(errs, fmt.Errorf("reading.metrics[%d]: key is required", i))
		} else if seen[m.Key] {
			errs = append(errs, fmt.Errorf("reading.metrics[%d]: duplicate key %q", i, m.Key))
		}
		seen[m.Key] = true
		if !ValidVariable(m.Variable) {
			errs = append(errs, fmt.Errorf("reading.metrics[%d]: invalid variable %q", i, m.Variable))
		}
	}

	return errors.Join(errs...)
}

// ValidVariable reports whether name looks like a NUT variable name. Names
// starting with '-' are rejected so they cannot be read as tool flags.
func ValidVariable(name string) bool {
	return variablePattern.MatchString(name)
}

// EnsureAuthToken generates a random auth token and sets it on cfg if
// cfg.Server.AuthToken is empty. It returns the token (existing or generated)
// and any error encountered during generation.
func EnsureAuthToken(cfg *Config) (string, error) {
	if cfg.Server.AuthToken != "" {
		return cfg.Server.AuthToken, nil
	}
	token, err := GenerateRandomToken()
	if err != nil {
		return "", fmt.Errorf("generate auth token: %w", err)
	}
	cfg.Server.AuthToken = token
	return token, nil
}

// GenerateRandomToken returns a 32-character hex-encoded cryptographically
// random token string.
func GenerateRandomToken() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("rand.Read: %w", err)
	}
	return hex.EncodeToString(b), nil
}
