package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// writeTempFile creates a temporary file with the given content and returns its path.
func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write temp file %s: %v", path, err)
	}
	return path
}

const validYAML = `
server:
  port: 9090
  auth_token: test-secret-token
  transport: stdio
device:
  name: koblenz-7016
  host: 192.168.1.20
  user: admin
  password: admin_password
tools:
  upsc: /usr/bin/upsc
  upscmd: /usr/bin/upscmd
  upsdrvctl: /usr/sbin/upsdrvctl
  systemctl: /bin/systemctl
  sudo: /usr/bin/sudo
  use_sudo: false
  services: [nut-server]
reading:
  metrics:
    - key: BatL
      variable: battery.charge
      unit: " %"
    - key: Load
      variable: ups.load
      unit: "%"
safety:
  commands:
    allowlist: ["load.*", "beeper.toggle"]
    denylist: ["shutdown.stayoff"]
audit:
  enabled: false
  log_path: /tmp/audit.log
`

func Test_LoadConfig_Cases(t *testing.T) {
	tests := []struct {
		name        string
		setupPath   func(t *testing.T) string
		wantErr     bool
		errContains string
		validate    func(t *testing.T, cfg *Config)
	}{
		{
			name: "valid config loads all fields",
			setupPath: func(t *testing.T) string {
				t.Helper()
				return writeTempFile(t, "valid.yaml", validYAML)
			},
			validate: func(t *testing.T, cfg *Config) {
				t.Helper()
				if cfg.Server.Port != 9090 {
					t.Errorf("Server.Port = %d, want 9090", cfg.Server.Port)
				}
				if cfg.Server.AuthToken != "test-secret-token" {
					t.Errorf("Server.AuthToken = %q, want %q", cfg.Server.AuthToken, "test-secret-token")
				}
				if cfg.Server.Transport != TransportStdio {
					t.Errorf("Server.Transport = %q, want %q", cfg.Server.Transport, TransportStdio)
				}
				wantDevice := DeviceConfig{Name: "koblenz-7016", Host: "192.168.1.20", User: "admin", Password: "admin_password"}
				if cfg.Device != wantDevice {
					t.Errorf("Device = %+v, want %+v", cfg.Device, wantDevice)
				}
				if cfg.Tools.Upsdrvctl != "/usr/sbin/upsdrvctl" {
					t.Errorf("Tools.Upsdrvctl = %q", cfg.Tools.Upsdrvctl)
				}
				if cfg.Tools.UseSudo {
					t.Error("Tools.UseSudo = true, want false")
				}
				if len(cfg.Tools.Services) != 1 || cfg.Tools.Services[0] != "nut-server" {
					t.Errorf("Tools.Services = %v, want [nut-server]", cfg.Tools.Services)
				}
				if len(cfg.Reading.Metrics) != 2 {
					t.Fatalf("len(Reading.Metrics) = %d, want 2", len(cfg.Reading.Metrics))
				}
				if cfg.Reading.Metrics[0].Unit != " %" {
					t.Errorf("Metrics[0].Unit = %q, want %q", cfg.Reading.Metrics[0].Unit, " %")
				}
				if cfg.Reading.Metrics[1].Key != "Load" {
					t.Errorf("Metrics[1].Key = %q, want Load", cfg.Reading.Metrics[1].Key)
				}
				if len(cfg.Safety.Commands.Allowlist) != 2 || len(cfg.Safety.Commands.Denylist) != 1 {
					t.Errorf("Safety.Commands = %+v", cfg.Safety.Commands)
				}
				if cfg.Audit.Enabled {
					t.Error("Audit.Enabled = true, want false")
				}
			},
		},
		{
			name: "partial config keeps defaults for missing sections",
			setupPath: func(t *testing.T) string {
				t.Helper()
				return writeTempFile(t, "partial.yaml", "device:\n  name: myups\n")
			},
			validate: func(t *testing.T, cfg *Config) {
				t.Helper()
				if cfg.Device.Name != "myups" {
					t.Errorf("Device.Name = %q, want myups", cfg.Device.Name)
				}
				if cfg.Device.Host != "localhost" {
					t.Errorf("Device.Host = %q, want default localhost", cfg.Device.Host)
				}
				if cfg.Tools.Upsc != "upsc" {
					t.Errorf("Tools.Upsc = %q, want default upsc", cfg.Tools.Upsc)
				}
				if len(cfg.Reading.Metrics) != len(DefaultMetrics()) {
					t.Errorf("len(Reading.Metrics) = %d, want %d", len(cfg.Reading.Metrics), len(DefaultMetrics()))
				}
			},
		},
		{
			name: "partial commands override keeps other defaults",
			setupPath: func(t *testing.T) string {
				t.Helper()
				return writeTempFile(t, "commands.yaml", "tools:\n  commands:\n    reboot: shutdown.reboot\n    battery_test: test.battery.start.deep\n")
			},
			validate: func(t *testing.T, cfg *Config) {
				t.Helper()
				want := DefaultCommands()
				want.Reboot = "shutdown.reboot"
				want.BatteryTest = "test.battery.start.deep"
				if cfg.Tools.Commands != want {
					t.Errorf("Tools.Commands = %+v, want %+v", cfg.Tools.Commands, want)
				}
				if cfg.Tools.Upscmd != "upscmd" {
					t.Errorf("Tools.Upscmd = %q, want default upscmd", cfg.Tools.Upscmd)
				}
			},
		},
		{
			name: "missing file returns error",
			setupPath: func(t *testing.T) string {
				t.Helper()
				return filepath.Join(t.TempDir(), "does-not-exist.yaml")
			},
			wantErr:     true,
			errContains: "failed to read config file",
		},
		{
			name: "invalid yaml returns error",
			setupPath: func(t *testing.T) string {
				t.Helper()
				return writeTempFile(t, "bad.yaml", "server: [unclosed\n")
			},
			wantErr:     true,
			errContains: "failed to unmarshal config",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := LoadConfig(tt.setupPath(t))
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				if cfg != nil {
					t.Errorf("expected nil config on error, got %+v", cfg)
				}
				if tt.errContains != "" && !strings.Contains(err.Error(), tt.errContains) {
					t.Errorf("error = %q, want it to contain %q", err.Error(), tt.errContains)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.validate != nil {
				tt.validate(t, cfg)
			}
		})
	}
}

func Test_DefaultConfig_Values(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Server.Transport != TransportHTTP {
		t.Errorf("Server.Transport = %q, want %q", cfg.Server.Transport, TransportHTTP)
	}
	if cfg.Device.Host != "localhost" {
		t.Errorf("Device.Host = %q, want localhost", cfg.Device.Host)
	}
	if !cfg.Tools.UseSudo {
		t.Error("Tools.UseSudo = false, want true")
	}
	wantServices := []string{"nut-server", "nut-monitor"}
	if strings.Join(cfg.Tools.Services, ",") != strings.Join(wantServices, ",") {
		t.Errorf("Tools.Services = %v, want %v", cfg.Tools.Services, wantServices)
	}

	wantCommands := CommandsConfig{
		ShutdownReturn: "shutdown.return",
		Reboot:         "reboot.load",
		ShutdownStop:   "shutdown.stop",
		LoadOn:         "load.on",
		LoadOff:        "load.off",
		BeeperToggle:   "beeper.toggle",
		BatteryTest:    "test.battery.start.quick",
	}
	if cfg.Tools.Commands != wantCommands {
		t.Errorf("Tools.Commands = %+v, want %+v", cfg.Tools.Commands, wantCommands)
	}

	wantKeys := []string{"BatL", "Vbat", "Vin", "Vout", "Mode", "Freq"}
	if len(cfg.Reading.Metrics) != len(wantKeys) {
		t.Fatalf("len(Reading.Metrics) = %d, want %d", len(cfg.Reading.Metrics), len(wantKeys))
	}
	for i, k := range wantKeys {
		if cfg.Reading.Metrics[i].Key != k {
			t.Errorf("Metrics[%d].Key = %q, want %q", i, cfg.Reading.Metrics[i].Key, k)
		}
	}
	if cfg.Reading.Metrics[4].Unit != "" {
		t.Errorf("Mode unit = %q, want empty", cfg.Reading.Metrics[4].Unit)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("DefaultConfig().Validate() = %v, want nil", err)
	}
}

func Test_DefaultConfig_DistinctInstances(t *testing.T) {
	a := DefaultConfig()
	b := DefaultConfig()
	a.Reading.Metrics[0].Unit = "changed"
	a.Tools.Services[0] = "changed"

	if b.Reading.Metrics[0].Unit == "changed" {
		t.Error("DefaultConfig instances share the metrics slice")
	}
	if b.Tools.Services[0] == "changed" {
		t.Error("DefaultConfig instances share the services slice")
	}
}

func Test_Validate_Cases(t *testing.T) {
	tests := []struct {
		name         string
		mutate       func(c *Config)
		wantContains []string
	}{
		{
			name:   "defaults are valid",
			mutate: func(c *Config) {},
		},
		{
			name:         "missing device name",
			mutate:       func(c *Config) { c.Device.Name = "" },
			wantContains: []string{"device.name"},
		},
		{
			name:         "missing host",
			mutate:       func(c *Config) { c.Device.Host = "" },
			wantContains: []string{"device.host"},
		},
		{
			name:         "empty tool path",
			mutate:       func(c *Config) { c.Tools.Upscmd = "" },
			wantContains: []string{"tools:"},
		},
		{
			name:         "sudo enabled without binary",
			mutate:       func(c *Config) { c.Tools.Sudo = "" },
			wantContains: []string{"tools.sudo"},
		},
		{
			name:   "sudo disabled without binary is fine",
			mutate: func(c *Config) { c.Tools.Sudo = ""; c.Tools.UseSudo = false },
		},
		{
			name:         "unknown transport",
			mutate:       func(c *Config) { c.Server.Transport = "grpc" },
			wantContains: []string{"server.transport"},
		},
		{
			name:         "port out of range for http",
			mutate:       func(c *Config) { c.Server.Port = 70000 },
			wantContains: []string{"server.port"},
		},
		{
			name:   "port ignored for stdio",
			mutate: func(c *Config) { c.Server.Transport = TransportStdio; c.Server.Port = 0 },
		},
		{
			name:         "empty command name",
			mutate:       func(c *Config) { c.Tools.Commands.Reboot = "" },
			wantContains: []string{"tools.commands.reboot"},
		},
		{
			name:         "command name that looks like a flag",
			mutate:       func(c *Config) { c.Tools.Commands.LoadOff = "-u" },
			wantContains: []string{`tools.commands.load_off: invalid command name "-u"`},
		},
		{
			name:         "empty metrics",
			mutate:       func(c *Config) { c.Reading.Metrics = nil },
			wantContains: []string{"reading.metrics must not be empty"},
		},
		{
			name: "duplicate key and bad variable both reported",
			mutate: func(c *Config) {
				c.Reading.Metrics = []MetricConfig{
					{Key: "A", Variable: "battery.charge"},
					{Key: "A", Variable: "-l"},
				}
			},
			wantContains: []string{"duplicate key", "invalid variable"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if len(tt.wantContains) == 0 {
				if err != nil {
					t.Fatalf("Validate() = %v, want nil", err)
				}
				return
			}
			if err == nil {
				t.Fatal("Validate() = nil, want error")
			}
			for _, s := range tt.wantContains {
				if !strings.Contains(err.Error(), s) {
					t.Errorf("error = %q, want it to contain %q", err.Error(), s)
				}
			}
		})
	}
}

func Test_ValidVariable_Cases(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"battery.charge", true},
		{"ups.status", true},
		{"driver.parameter.pollinterval", true},
		{"outlet.1.status", true},
		{"", false},
		{"-l", false},
		{"battery charge", false},
		{"ups.status;reboot", false},
		{"Battery.Charge", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ValidVariable(tt.name); got != tt.want {
				t.Errorf("ValidVariable(%q) = %v, want %v", tt.name, got, tt.want)
			}
		})
	}
}
