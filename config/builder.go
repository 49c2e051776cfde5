package config

import (
	"log/slog"

	"github.com/jpalmerr/cadenceboard"
)

// BuildOptions converts parsed configuration into SDK options.
//
// The logger is passed through as is; building it from LogFile and LogLevel
// is left to the caller, which owns the file handle.
func BuildOptions(cfg *Config, logger *slog.Logger) []cadenceboard.Option {
	opts := []cadenceboard.Option{
		cadenceboard.WithPort(cfg.Port),
		cadenceboard.WithDataFile(cfg.DataFile),
		cadenceboard.WithResetFile(cfg.ResetFile),
		cadenceboard.WithLoopInterval(cfg.LoopInterval.Duration()),
		cadenceboard.WithWheelCircumference(cfg.WheelCircumference),
		cadenceboard.WithCalorieFactor(cfg.CalorieFactor),
		cadenceboard.WithSimulation(cfg.Simulate),
	}

	if cfg.Title != "" {
		opts = append(opts, cadenceboard.WithTitle(cfg.Title))
	}
	if cfg.LogFile != "" {
		opts = append(opts, cadenceboard.WithLogFile(cfg.LogFile))
	}
	if cfg.FreshThreshold != 0 {
		opts = append(opts, cadenceboard.WithFreshThreshold(cfg.FreshThreshold.Duration()))
	}
	if cfg.ResetWindow != 0 {
		opts = append(opts, cadenceboard.WithResetWindow(cfg.ResetWindow.Duration()))
	}
	if logger != nil {
		opts = append(opts, cadenceboard.WithLogger(logger))
	}

	return opts
}
