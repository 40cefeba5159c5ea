// Package main is the entry point for the nut-mcp server.
package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jamesprial/nut-mcp/internal/auth"
	"github.com/jamesprial/nut-mcp/internal/config"
	"github.com/jamesprial/nut-mcp/internal/nut"
	"github.com/jamesprial/nut-mcp/internal/safety"
	"github.com/jamesprial/nut-mcp/internal/tools"
	"github.com/jamesprial/nut-mcp/internal/ups"
	"github.com/mark3labs/mcp-go/server"
)

func main() {
	if err := config.LoadDotEnv(".env"); err != nil {
		log.Printf("warning: could not load .env: %v", err)
	}

	cfg := loadConfig()
	config.ApplyEnvOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	// Open audit log writer if enabled.
	var auditLogger *safety.AuditLogger
	if cfg.Audit.Enabled {
		f, err := os.OpenFile(cfg.Audit.LogPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			log.Printf("warning: could not open audit log %q: %v; audit logging disabled", cfg.Audit.LogPath, err)
		} else {
			auditLogger = safety.NewAuditLogger(f)
			defer f.Close()
		}
	}

	// slog writes to stderr so stdio transport keeps stdout for protocol frames.
	level := slog.LevelInfo
	if os.Getenv("NUT_MCP_DEBUG") != "" {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	client := nut.NewClient(cfg.Device, cfg.Tools, nut.OSExecutor{}, logger)
	mgr := ups.NewNUTManager(client, cfg.Reading.Metrics)

	filter := safety.NewFilter(cfg.Safety.Commands.Allowlist, cfg.Safety.Commands.Denylist)
	confirm := safety.NewConfirmationTracker(ups.DestructiveTools)

	mcpServer := server.NewMCPServer(
		"nut-mcp",
		"1.0.0",
		server.WithToolCapabilities(false),
	)

	registrations := ups.UPSTools(mgr, filter, confirm, auditLogger)
	tools.RegisterAll(mcpServer, registrations)
	log.Printf("registered %d tools for UPS %s@%s: %s",
		len(registrations), cfg.Device.Name, cfg.Device.Host, strings.Join(tools.Names(registrations), ", "))
	if cfg.Device.User == "" || cfg.Device.Password == "" {
		log.Printf("warning: device.user or device.password is empty; instant commands will be refused")
	}

	if cfg.Server.Transport == config.TransportStdio {
		if err := server.ServeStdio(mcpServer); err != nil {
			log.Fatalf("stdio server error: %v", err)
		}
		return
	}

	serveHTTP(cfg, mcpServer)
}

// serveHTTP runs the Streamable HTTP transport behind bearer-token auth until
// SIGINT or SIGTERM.
func serveHTTP(cfg *config.Config, mcpServer *server.MCPServer) {
	tokenBefore := cfg.Server.AuthToken
	token, err := config.EnsureAuthToken(cfg)
	if err != nil {
		log.Printf("warning: could not generate auth token: %v; running without authentication", err)
	} else if tokenBefore == "" {
		log.Printf("generated auth token (set NUT_MCP_AUTH_TOKEN to persist): %s", token)
	}

	httpHandler := server.NewStreamableHTTPServer(mcpServer)
	wrappedHandler := auth.NewAuthMiddleware(cfg.Server.AuthToken)(httpHandler)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	httpSrv := &http.Server{
		Addr:              addr,
		Handler:           wrappedHandler,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("nut-mcp listening on %s", addr)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP server error: %v", err)
		}
	}()

	<-stop
	log.Println("shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := httpSrv.Shutdown(ctx); err != nil {
		log.Printf("graceful shutdown error: %v", err)
	}
	log.Println("server stopped")
}

// loadConfig reads the config file named by NUT_MCP_CONFIG_PATH or the
// default path, falling back to DefaultConfig when it cannot be read.
func loadConfig() *config.Config {
	path := config.ResolvePath("")

	cfg, err := config.LoadConfig(path)
	if err != nil {
		log.Printf("could not load config from %q (%v), using defaults", path, err)
		return config.DefaultConfig()
	}

	log.Printf("loaded config from %q", path)
	return cfg
}
