// Package cli implements the upsctl command-line tool.
package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/jamesprial/nut-mcp/internal/config"
	"github.com/jamesprial/nut-mcp/internal/nut"
	"github.com/jamesprial/nut-mcp/internal/safety"
	"github.com/jamesprial/nut-mcp/internal/ups"
	"github.com/spf13/cobra"
)

// ErrCommandFailed is returned when a NUT tool reported a failure. The
// failure text has already been written to the command output.
var ErrCommandFailed = errors.New("nut command failed")

// ManagerFactory builds the UPSManager used by subcommands.
type ManagerFactory func(cfg *config.Config, logger *slog.Logger) ups.UPSManager

// DefaultManagerFactory runs the real NUT tools.
func DefaultManagerFactory(cfg *config.Config, logger *slog.Logger) ups.UPSManager {
	client := nut.NewClient(cfg.Device, cfg.Tools, nil, logger)
	return ups.NewNUTManager(client, cfg.Reading.Metrics)
}

type options struct {
	configPath string
	envFile    string
	device     config.DeviceConfig
	quiet      bool
	debug      bool
}

// env holds what PersistentPreRunE resolved for the subcommands.
type env struct {
	mgr    ups.UPSManager
	filter *safety.Filter
	quiet  bool
}

// NewRootCommand returns the upsctl command tree. A nil factory selects
// DefaultManagerFactory.
func NewRootCommand(factory ManagerFactory) *cobra.Command {
	if factory == nil {
		factory = DefaultManagerFactory
	}
	opts := &options{}
	e := &env{}

	root := &cobra.Command{
		Use:           "upsctl",
		Short:         "Query and control a UPS through Network UPS Tools",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}
			e.mgr = factory(cfg, newLogger(cmd.ErrOrStderr(), opts.debug))
			e.filter = safety.NewFilter(cfg.Safety.Commands.Allowlist, cfg.Safety.Commands.Denylist)
			e.quiet = opts.quiet
			return nil
		},
	}

	f := root.PersistentFlags()
	f.StringVarP(&opts.configPath, "config", "c", "", "config file (default $"+config.PathEnv+" or "+config.DefaultPath+")")
	f.StringVar(&opts.envFile, "env-file", ".env", "dotenv file loaded before environment overrides")
	f.StringVar(&opts.device.Name, "ups", "", "UPS name as known to upsd")
	f.StringVar(&opts.device.Host, "host", "", "upsd host")
	f.StringVar(&opts.device.User, "user", "", "upsd user for instant commands")
	f.StringVar(&opts.device.Password, "password", "", "upsd password for instant commands")
	f.BoolVarP(&opts.quiet, "quiet", "q", false, "omit the banner printed before control commands")
	f.BoolVar(&opts.debug, "debug", false, "log each NUT command to stderr")

	root.AddCommand(queryCommands(e)...)
	for _, a := range ups.Actions() {
		root.AddCommand(actionCommand(e, a))
	}
	return root
}

// loadConfig resolves the effective configuration. The dotenv file is loaded
// first so it can name the config file; then come the file (or defaults when
// it cannot be read), the environment and the flags.
func loadConfig(cmd *cobra.Command, opts *options) (*config.Config, error) {
	if err := config.LoadDotEnv(opts.envFile); err != nil {
		return nil, err
	}

	path := config.ResolvePath(opts.configPath)
	cfg, err := config.LoadConfig(path)
	if err != nil {
		if opts.configPath != "" {
			return nil, err
		}
		cfg = config.DefaultConfig()
	}
	config.ApplyEnvOverrides(cfg)

	flags := cmd.Flags()
	for flag, target := range map[string]*string{
		"ups":      &cfg.Device.Name,
		"host":     &cfg.Device.Host,
		"user":     &cfg.Device.User,
		"password": &cfg.Device.Password,
	} {
		if flags.Changed(flag) {
			v, _ := flags.GetString(flag)
			*target = v
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func newLogger(w io.Writer, debug bool) *slog.Logger {
	level := slog.LevelWarn
	if debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// emit writes NUT output followed by a newline and converts failure text to
// ErrCommandFailed.
func emit(w io.Writer, out string) error {
	if !strings.HasSuffix(out, "\n") {
		out += "\n"
	}
	if _, err := io.WriteString(w, out); err != nil {
		return err
	}
	if strings.HasPrefix(out, nut.ErrorPrefix) {
		return ErrCommandFailed
	}
	return nil
}
