package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/AdrianChallinorOsiris/monitor/internal/apt"
	"github.com/AdrianChallinorOsiris/monitor/internal/audit"
	"github.com/AdrianChallinorOsiris/monitor/internal/command"
	"github.com/AdrianChallinorOsiris/monitor/internal/config"
	"github.com/AdrianChallinorOsiris/monitor/internal/filter"
	"github.com/AdrianChallinorOsiris/monitor/internal/logging"
	"github.com/AdrianChallinorOsiris/monitor/internal/netprobe"
	"github.com/AdrianChallinorOsiris/monitor/internal/sensors"
	"github.com/AdrianChallinorOsiris/monitor/internal/server"
	"github.com/AdrianChallinorOsiris/monitor/internal/system"
	"github.com/AdrianChallinorOsiris/monitor/internal/telemetry"
	"github.com/AdrianChallinorOsiris/monitor/internal/tools"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
)

const (
	defaultConfigPath = "/etc/monitor/config.yaml"
	configPathEnv     = "MONITOR_CONFIG_PATH"
	shutdownTimeout   = 15 * time.Second
)

// errSensorsListed ends a --sensors run with a non-zero exit status.
var errSensorsListed = errors.New("sensor listing printed")

type options struct {
	address    string
	port       int
	workers    int
	sensors    bool
	configPath string
	logLevel   string
}

func newRootCmd(version string, opts *options) *cobra.Command {
	defaults := config.DefaultConfig()

	cmd := &cobra.Command{
		Use:   "monitor",
		Short: "Remote monitor server, mainly for conky",
		Long: `monitor serves host telemetry (CPU, memory, disks, uptime, sensors,
OS release, pending updates, reboot flag and local port reachability) as
plaintext HTTP endpoints, one value per URL. The same probes are exposed as
MCP tools at /mcp.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts, version)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.address, "address", "a", defaults.Server.Address, "The IP address to bind to (env: MONITOR_ADDRESS)")
	f.IntVarP(&opts.port, "port", "p", defaults.Server.Port, "The IP port to bind to (env: MONITOR_PORT)")
	f.IntVarP(&opts.workers, "workers", "w", defaults.Server.Workers, "The number of concurrent workers (env: MONITOR_WORKERS)")
	f.BoolVarP(&opts.sensors, "sensors", "s", false, "List available sensors and exit")
	f.StringVar(&opts.configPath, "config", "", "Config file path (env: "+configPathEnv+", default: "+defaultConfigPath+")")
	f.StringVar(&opts.logLevel, "log-level", defaults.Log.Level, "Log level: debug, info, warn, error (env: MONITOR_LOG_LEVEL)")

	cmd.SetVersionTemplate("monitor {{.Version}}\n")
	cmd.AddCommand(newVersionCmd(version))
	return cmd
}

func newVersionCmd(version string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "monitor %s\n", version)
		},
	}
}

func run(cmd *cobra.Command, opts *options, version string) error {
	cfg, err := resolveConfig(cmd, opts)
	if err != nil {
		return err
	}

	logging.Setup(cfg.Log.Level)
	logger := slog.Default()

	svc := buildService(cfg, version, logger)

	if opts.sensors {
		fmt.Fprint(cmd.OutOrStdout(), svc.SensorListing(cmd.Context()))
		return errSensorsListed
	}

	var auditLogger *audit.Logger
	if cfg.Audit.Enabled {
		f, err := os.OpenFile(cfg.Audit.LogPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			logger.Warn("audit logging disabled", "path", cfg.Audit.LogPath, "error", err)
		} else {
			auditLogger = audit.NewLogger(f)
			defer func() { _ = f.Close() }()
		}
	}

	handler := server.NewHandler(svc, server.Options{
		Workers: cfg.Server.Workers,
		MCP:     buildMCPHandler(cfg, svc, auditLogger, version),
		MCPPath: cfg.MCP.Path,
		Audit:   auditLogger,
		Logger:  logger,
	})

	addr := net.JoinHostPort(cfg.Server.Address, strconv.Itoa(cfg.Server.Port))
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return serve(ctx, server.NewHTTPServer(addr, handler), logger)
}

// resolveConfig layers defaults, the config file, environment overrides and
// explicitly set flags, in that order.
func resolveConfig(cmd *cobra.Command, opts *options) (*config.Config, error) {
	path := opts.configPath
	if path == "" {
		path = os.Getenv(configPathEnv)
	}
	explicit := path != ""
	if !explicit {
		path = defaultConfigPath
	}

	cfg, err := config.LoadConfig(path)
	switch {
	case err == nil:
	case explicit:
		return nil, err
	default:
		cfg = config.DefaultConfig()
	}

	config.ApplyEnvOverrides(cfg)
	applyFlags(cmd, opts, cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func applyFlags(cmd *cobra.Command, opts *options, cfg *config.Config) {
	f := cmd.Flags()
	if f.Changed("address") {
		cfg.Server.Address = opts.address
	}
	if f.Changed("port") {
		cfg.Server.Port = opts.port
	}
	if f.Changed("workers") {
		cfg.Server.Workers = opts.workers
	}
	if f.Changed("log-level") {
		cfg.Log.Level = opts.logLevel
	}
}

func buildService(cfg *config.Config, version string, logger *slog.Logger) *telemetry.Service {
	runner := command.NewExecRunner(cfg.Probes.ExecTimeout)
	return telemetry.NewService(telemetry.Deps{
		Host:         system.NewMonitor(cfg.Paths.Proc, cfg.Paths.Sys, cfg.Probes.CPUSample),
		Sensors:      sensors.NewReader(cfg.Paths.SensorsBinary, runner),
		Apt:          apt.NewChecker(cfg.Paths.AptCheckBinary, runner),
		Net:          netprobe.NewProber(cfg.Probes.DialTimeout, cfg.Probes.OutboundTarget),
		OSRelease:    cfg.Paths.OSRelease,
		RebootMarker: cfg.Paths.RebootMarker,
		Version:      version,
		Port:         cfg.Server.Port,
		PortFilter:   filter.New(cfg.Filters.Ports.Allowlist, cfg.Filters.Ports.Denylist),
		MountFilter:  filter.New(cfg.Filters.Mounts.Allowlist, cfg.Filters.Mounts.Denylist),
		Logger:       logger,
	})
}

// buildMCPHandler returns nil when MCP is disabled.
func buildMCPHandler(cfg *config.Config, svc *telemetry.Service, auditLogger *audit.Logger, version string) http.Handler {
	if !cfg.MCP.Enabled {
		return nil
	}
	mcpServer := mcpserver.NewMCPServer(
		"monitor",
		version,
		mcpserver.WithToolCapabilities(false),
	)
	tools.RegisterAll(mcpServer, telemetry.Tools(svc, auditLogger))
	return mcpserver.NewStreamableHTTPServer(mcpServer)
}

// serve runs srv until ctx is done, then shuts it down gracefully.
func serve(ctx context.Context, srv *http.Server, logger *slog.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("monitor listening", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	logger.Info("server stopped")
	return nil
}
