package widget

import (
	"errors"
	"log/slog"
	"net/http"
	"time"
)

// widgetConfig holds mutable state during Widget construction.
type widgetConfig struct {
	interval   time.Duration
	timeout    time.Duration
	location   *time.Location
	logger     *slog.Logger
	httpClient *http.Client
}

// Option configures a [Widget] during construction.
type Option func(*widgetConfig) error

// WithInterval sets the time between polls. Defaults to one second.
//
// Returns an error if the duration is zero or negative.
func WithInterval(d time.Duration) Option {
	return func(cfg *widgetConfig) error {
		if d <= 0 {
			return errors.New("poll interval must be positive")
		}
		cfg.interval = d
		return nil
	}
}

// WithRequestTimeout bounds every round trip. By default requests have no
// timeout and a hung request simply never completes until the widget stops.
//
// Returns an error if the duration is negative.
func WithRequestTimeout(d time.Duration) Option {
	return func(cfg *widgetConfig) error {
		if d < 0 {
			return errors.New("request timeout cannot be negative")
		}
		cfg.timeout = d
		return nil
	}
}

// WithLocation sets the zone used for the last-update label.
// Defaults to time.Local.
func WithLocation(loc *time.Location) Option {
	return func(cfg *widgetConfig) error {
		if loc == nil {
			return errors.New("location cannot be nil")
		}
		cfg.location = loc
		return nil
	}
}

// WithLogger sets a custom [slog.Logger]. Defaults to [slog.Default].
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *widgetConfig) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		cfg.logger = logger
		return nil
	}
}

// WithHTTPClient makes the widget send requests through hc.
func WithHTTPClient(hc *http.Client) Option {
	return func(cfg *widgetConfig) error {
		if hc == nil {
			return errors.New("http client cannot be nil")
		}
		cfg.httpClient = hc
		return nil
	}
}
