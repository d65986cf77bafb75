package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dhalvorsen/urdash/internal/audit"
	"github.com/dhalvorsen/urdash/internal/config"
	"github.com/dhalvorsen/urdash/internal/connection"
	"github.com/dhalvorsen/urdash/internal/dashboard"
	"github.com/dhalvorsen/urdash/internal/monitor"
	"github.com/dhalvorsen/urdash/internal/version"
)

func main() {
	configPath := flag.String("config", "", "path to config file (optional)")
	host := flag.String("host", "", "robot host (overrides config)")
	port := flag.Int("port", 0, "dashboard port (overrides config)")
	serve := flag.Bool("serve", false, "stay connected and expose the monitor endpoint")
	verbose := flag.Bool("v", false, "enable debug logging")
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	cfg, err := loadConfig(*configPath, *host, *port)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger.Info("starting urdashctl",
		"version", version.Version,
		"robot", cfg.Robot.Host,
		"port", cfg.Robot.Port,
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	conn := connection.NewClient(connection.Config{
		Host:            cfg.Robot.Host,
		Port:            cfg.Robot.Port,
		ReconnectBudget: cfg.Dashboard.ReconnectBudget,
		IOTimeout:       cfg.Dashboard.IOTimeout,
		SettleDelay:     cfg.Dashboard.SettleDelay,
		RetryDelay:      cfg.Dashboard.RetryDelay,
		ReplyTimeout:    cfg.Dashboard.ReplyTimeout,
		ReadBufferSize:  cfg.Dashboard.ReadBufferSize,
	}, logger)

	if err := conn.Start(); err != nil {
		logger.Error("failed to connect to dashboard", "error", err)
		os.Exit(1)
	}
	defer conn.Close()

	// Optional audit trail between catalog and engine.
	var transport dashboard.Conn = conn
	var recorder *audit.Recorder
	if cfg.Audit.Enabled {
		pool, err := audit.Connect(ctx, cfg.Audit.Postgres)
		if err != nil {
			logger.Error("failed to connect audit database", "error", err)
			os.Exit(1)
		}
		defer pool.Close()

		recorder = audit.NewRecorder(audit.RecorderConfig{
			BatchSize:     cfg.Audit.BatchSize,
			FlushInterval: cfg.Audit.FlushInterval,
			BufferSize:    cfg.Audit.BufferSize,
		}, pool, logger)
		if err := recorder.Start(ctx); err != nil {
			logger.Error("failed to start audit recorder", "error", err)
			os.Exit(1)
		}
		defer func() {
			stopCtx, stopCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer stopCancel()
			recorder.Stop(stopCtx)
		}()

		tap := audit.NewTap(conn, recorder)
		transport = tap
		logger.Info("audit trail enabled", "session_id", tap.SessionID())
	}

	d := dashboard.New(transport,
		dashboard.WithLogger(logger),
		dashboard.WithReplyTimeout(cfg.Dashboard.ReplyTimeout),
	)

	if args := flag.Args(); len(args) > 0 {
		reply, err := runCommand(d, args)
		if err != nil {
			logger.Error("command failed", "cmd", args[0], "error", err)
			os.Exit(1)
		}
		fmt.Println(reply)
		if !*serve {
			return
		}
	}

	if !*serve {
		flag.Usage()
		fmt.Fprintf(os.Stderr, "\ncommands: %s\n", strings.Join(commandNames(), ", "))
		os.Exit(2)
	}

	mon := monitor.NewServer(monitor.Config{
		Port:         cfg.Monitor.Port,
		PollInterval: cfg.Monitor.PollInterval,
	}, conn, logger)
	if err := mon.Start(); err != nil {
		logger.Error("failed to start monitor", "error", err)
		os.Exit(1)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		<-gctx.Done()
		stopCtx, stopCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer stopCancel()
		return mon.Stop(stopCtx)
	})
	g.Go(func() error {
		// Surface a dead worker instead of serving a stale monitor forever.
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				if conn.State() == connection.StateError && !conn.IsRunning() {
					logger.Warn("dashboard connection degraded", "state", conn.State())
				}
			}
		}
	})

	logger.Info("serving", "monitor_addr", mon.Addr())
	if err := g.Wait(); err != nil {
		logger.Error("shutdown error", "error", err)
		os.Exit(1)
	}
	logger.Info("shutdown complete")
}

// loadConfig loads the YAML config when given, otherwise builds one from
// flags and defaults. Flag overrides win in both cases.
func loadConfig(path, host string, port int) (*config.Config, error) {
	var cfg *config.Config
	if path != "" {
		loaded, err := config.LoadAndValidate(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	} else {
		cfg = &config.Config{}
	}

	if host != "" {
		cfg.Robot.Host = host
	}
	if port != 0 {
		cfg.Robot.Port = port
	}

	if path == "" {
		if cfg.Robot.Host == "" {
			return nil, fmt.Errorf("robot host required: pass -config or -host")
		}
		// Fill in everything the flags did not cover.
		applyFlagDefaults(cfg)
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

func applyFlagDefaults(cfg *config.Config) {
	if cfg.Robot.Port == 0 {
		cfg.Robot.Port = config.DefaultDashboardPort
	}
	if cfg.Dashboard.ReconnectBudget == 0 {
		cfg.Dashboard.ReconnectBudget = config.DefaultReconnectBudget
	}
	if cfg.Dashboard.IOTimeout == 0 {
		cfg.Dashboard.IOTimeout = config.DefaultIOTimeout
	}
	if cfg.Dashboard.SettleDelay == 0 {
		cfg.Dashboard.SettleDelay = config.DefaultSettleDelay
	}
	if cfg.Dashboard.RetryDelay == 0 {
		cfg.Dashboard.RetryDelay = config.DefaultRetryDelay
	}
	if cfg.Dashboard.ReplyTimeout == 0 {
		cfg.Dashboard.ReplyTimeout = config.DefaultReplyTimeout
	}
	if cfg.Dashboard.ReadBufferSize == 0 {
		cfg.Dashboard.ReadBufferSize = config.DefaultReadBufferSize
	}
	if cfg.Monitor.Port == 0 {
		cfg.Monitor.Port = config.DefaultMonitorPort
	}
	if cfg.Monitor.PollInterval == 0 {
		cfg.Monitor.PollInterval = config.DefaultPollInterval
	}
}
