package cadenceboard

import (
	"errors"
	"log/slog"
	"time"

	"github.com/jpalmerr/cadenceboard/internal/calc"
	"github.com/jpalmerr/cadenceboard/telemetry"
)

// boardConfig holds mutable state during Board construction.
type boardConfig struct {
	title             string
	port              int
	dataFile          string
	resetFile         string
	logFile           string
	loopInterval      time.Duration
	freshThreshold    time.Duration
	calc              calc.Config
	logger            *slog.Logger
	snapshotCallbacks []func(telemetry.Payload)
}

// Option is a function that configures a [Board] instance during construction.
//
// Option implements the functional options pattern, allowing optional
// configuration to be passed to [New] in a type-safe, extensible way.
// Options return an error if validation fails.
type Option func(*boardConfig) error

// WithPort sets the HTTP port for the dashboard server.
//
// The dashboard UI and API will be available at http://localhost:<port>.
// Defaults to 5000 if not specified.
//
// Returns an error if the port is outside the valid range (1-65535).
func WithPort(port int) Option {
	return func(cfg *boardConfig) error {
		if port < 1 || port > 65535 {
			return errors.New("port must be between 1 and 65535")
		}
		cfg.port = port
		return nil
	}
}

// WithTitle sets the dashboard title displayed in the browser tab and header.
//
// If not specified, defaults to "CadenceBoard".
func WithTitle(title string) Option {
	return func(cfg *boardConfig) error {
		cfg.title = title
		return nil
	}
}

// WithLogger sets a custom [slog.Logger] for the Board instance.
//
// If not specified, [slog.Default] is used.
//
// Returns an error if the logger is nil.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *boardConfig) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		cfg.logger = logger
		return nil
	}
}

// WithDataFile sets where snapshots are saved. The file survives restarts,
// so a new process continues the previous session.
func WithDataFile(path string) Option {
	return func(cfg *boardConfig) error {
		if path == "" {
			return errors.New("data file cannot be empty")
		}
		cfg.dataFile = path
		return nil
	}
}

// WithInMemoryStore keeps snapshots in memory only. Sessions do not survive
// a restart.
func WithInMemoryStore() Option {
	return func(cfg *boardConfig) error {
		cfg.dataFile = ""
		return nil
	}
}

// WithResetFile sets the reset request flag path.
func WithResetFile(path string) Option {
	return func(cfg *boardConfig) error {
		if path == "" {
			return errors.New("reset file cannot be empty")
		}
		cfg.resetFile = path
		return nil
	}
}

// WithLogFile sets the log file served by /api/log. The Board does not
// write to it; point the logger's handler at the same file.
func WithLogFile(path string) Option {
	return func(cfg *boardConfig) error {
		cfg.logFile = path
		return nil
	}
}

// WithLoopInterval sets how often the calculator checks for a new second
// and pending reset requests. Defaults to 100ms.
//
// Returns an error if the duration is zero or negative.
func WithLoopInterval(d time.Duration) Option {
	return func(cfg *boardConfig) error {
		if d <= 0 {
			return errors.New("loop interval must be positive")
		}
		cfg.loopInterval = d
		return nil
	}
}

// WithFreshThreshold sets the age below which /api/data reports a snapshot
// as fresh. Defaults to 10 seconds.
func WithFreshThreshold(d time.Duration) Option {
	return func(cfg *boardConfig) error {
		if d <= 0 {
			return errors.New("fresh threshold must be positive")
		}
		cfg.freshThreshold = d
		return nil
	}
}

// WithResetWindow sets how long a reset request stays valid. Defaults to
// 5 seconds.
func WithResetWindow(d time.Duration) Option {
	return func(cfg *boardConfig) error {
		if d <= 0 {
			return errors.New("reset window must be positive")
		}
		cfg.calc.ResetWindow = d
		return nil
	}
}

// WithWheelCircumference sets metres travelled per rotation.
func WithWheelCircumference(metres float64) Option {
	return func(cfg *boardConfig) error {
		if metres <= 0 {
			return errors.New("wheel circumference must be positive")
		}
		cfg.calc.WheelCircumference = metres
		return nil
	}
}

// WithCalorieFactor sets kcal burned per rotation.
func WithCalorieFactor(kcal float64) Option {
	return func(cfg *boardConfig) error {
		if kcal < 0 {
			return errors.New("calorie factor cannot be negative")
		}
		cfg.calc.CalorieFactor = kcal
		return nil
	}
}

// WithSimulation makes the calculator invent about two rotations per second,
// for running the dashboard without a sensor.
func WithSimulation(enabled bool) Option {
	return func(cfg *boardConfig) error {
		cfg.calc.Simulate = enabled
		return nil
	}
}

// WithSnapshotCallback registers a function to be called with every saved
// snapshot.
//
// Multiple callbacks may be registered; they execute in registration order
// from a single goroutine. Callbacks must be non-blocking. Panics within
// callbacks are recovered and logged.
//
// Nil callbacks are silently ignored.
func WithSnapshotCallback(cb func(telemetry.Payload)) Option {
	return func(cfg *boardConfig) error {
		if cb == nil {
			return nil
		}
		cfg.snapshotCallbacks = append(cfg.snapshotCallbacks, cb)
		return nil
	}
}
