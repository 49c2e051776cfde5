package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/jpalmerr/cadenceboard"
	"github.com/jpalmerr/cadenceboard/config"
	"github.com/spf13/cobra"
)

const (
	shutdownTimeout = 10 * time.Second
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// newLogger creates a JSON logger for CLI use. When logFile is set the log
// is appended there, so /api/log can serve it; the returned closer releases
// the file.
func newLogger(logFile, level string) (*slog.Logger, io.Closer, error) {
	lvl, err := config.ParseLevel(level)
	if err != nil {
		return nil, nil, err
	}

	var out io.Writer = os.Stderr
	var closer io.Closer = nopCloser{}
	if logFile != "" {
		if err := os.MkdirAll(filepath.Dir(logFile), 0o755); err != nil {
			return nil, nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open log file: %w", err)
		}
		out, closer = f, f
	}

	return slog.New(slog.NewJSONHandler(out, &slog.HandlerOptions{
		Level: lvl,
	})), closer, nil
}

// serveCmd starts the calculator and the dashboard server.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the calculator and dashboard server",
	Long: `Start the CadenceBoard calculator and dashboard server.

The server will:
  - Load configuration from the specified YAML file
  - Restore the ride session saved in data_file, if any
  - Recompute ride metrics every second
  - Serve the dashboard UI on the configured port

The server runs until interrupted (Ctrl+C) or receives SIGTERM.

Example:
  cadenceboard serve -c config.yaml
  cadenceboard serve --config /etc/cadenceboard/config.yaml --simulate`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringP("config", "c", "", "path to config file (required)")
	serveCmd.Flags().Bool("simulate", false, "invent rotations instead of reading a sensor")
	_ = serveCmd.MarkFlagRequired("config")
}

func runServe(cmd *cobra.Command, args []string) error {
	configFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if simulate, _ := cmd.Flags().GetBool("simulate"); simulate {
		cfg.Simulate = true
	}

	logger, closer, err := newLogger(cfg.LogFile, cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = closer.Close() }()

	logger.Info("config loaded",
		"data_file", cfg.DataFile,
		"reset_file", cfg.ResetFile,
		"log_file", cfg.LogFile,
	)
	logger.Info("starting server",
		"port", cfg.Port,
		"loop_interval", cfg.LoopInterval.Duration().String(),
		"simulate", cfg.Simulate,
	)

	b, err := cadenceboard.New(config.BuildOptions(cfg, logger)...)
	if err != nil {
		return fmt.Errorf("failed to create CadenceBoard: %w", err)
	}

	// set up context with signal handling - cancel on SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// start server - blocks until context cancelled
	errChan := make(chan error, 1)
	go func() {
		errChan <- b.Start(ctx)
	}()

	// wait for server to finish
	select {
	case err := <-errChan:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		logger.Info("shutdown complete")
		return nil

	case <-ctx.Done():
		// signal received, wait for graceful shutdown with timeout
		select {
		case err := <-errChan:
			if err != nil {
				return fmt.Errorf("server error: %w", err)
			}
			logger.Info("shutdown complete")
			return nil
		case <-time.After(shutdownTimeout):
			logger.Warn("shutdown timed out",
				"timeout", shutdownTimeout.String(),
				"action", "forcing exit",
			)
			return nil
		}
	}
}
