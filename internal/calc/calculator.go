// Package calc turns wheel rotation pulses into ride metrics.
//
// A [Calculator] counts pulses from the cadence sensor, recomputes speed,
// distance, calories, cadence and elapsed time once per wall-clock second,
// and saves the result as a snapshot for the server to serve.
package calc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/jpalmerr/cadenceboard/internal/store"
	"github.com/jpalmerr/cadenceboard/telemetry"
)

const (
	// DefaultWheelCircumference is metres travelled per pedal rotation.
	DefaultWheelCircumference = 4.45

	// DefaultCalorieFactor is kcal burned per pedal rotation.
	DefaultCalorieFactor = 0.065

	// DefaultWindowSize is the number of one-second samples averaged for cadence.
	DefaultWindowSize = 10

	// DefaultLoopInterval is how often Run checks for work.
	DefaultLoopInterval = 100 * time.Millisecond

	// DefaultResetWindow is how long a reset request stays valid.
	DefaultResetWindow = 5 * time.Second
)

// simulated rotations per second
const (
	simulateMin = 1.8
	simulateMax = 2.2
)

// Config holds the physical constants and behaviour of a [Calculator].
type Config struct {
	// WheelCircumference is metres per rotation.
	WheelCircumference float64

	// CalorieFactor is kcal per rotation.
	CalorieFactor float64

	// WindowSize is the number of samples in the cadence rolling window.
	WindowSize int

	// ResetWindow is the maximum age of an honoured reset request.
	ResetWindow time.Duration

	// Simulate adds 1.8-2.2 rotations every second, for running without a sensor.
	Simulate bool
}

// DefaultConfig returns the stock bike constants.
func DefaultConfig() Config {
	return Config{
		WheelCircumference: DefaultWheelCircumference,
		CalorieFactor:      DefaultCalorieFactor,
		WindowSize:         DefaultWindowSize,
		ResetWindow:        DefaultResetWindow,
	}
}

func (c Config) validate() error {
	if c.WheelCircumference <= 0 {
		return errors.New("calc: wheel circumference must be > 0")
	}
	if c.CalorieFactor < 0 {
		return errors.New("calc: calorie factor cannot be negative")
	}
	if c.WindowSize <= 0 {
		return errors.New("calc: window size must be > 0")
	}
	if c.ResetWindow <= 0 {
		return errors.New("calc: reset window must be > 0")
	}
	return nil
}

// Calculator accumulates rotations and derives ride metrics from them.
//
// Pulse may be called from any goroutine (sensor callbacks, HTTP handlers).
// All other state is guarded by the same mutex.
type Calculator struct {
	cfg       Config
	snapshots store.Store
	resetFlag *store.ResetFlag
	logger    *slog.Logger
	now       func() time.Time
	random    func() float64

	mu        sync.Mutex
	num       float64
	lastNum   float64
	startTime time.Time
	lastTime  time.Time
	seconds   *window
	rotations *window
	current   telemetry.Payload
}

// Option configures a [Calculator].
type Option func(*Calculator)

// WithResetFlag makes Run honour reset requests written to flag.
func WithResetFlag(flag *store.ResetFlag) Option {
	return func(c *Calculator) { c.resetFlag = flag }
}

// WithLogger sets the logger. Defaults to [slog.Default].
func WithLogger(logger *slog.Logger) Option {
	return func(c *Calculator) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Calculator) {
		if now != nil {
			c.now = now
		}
	}
}

// WithRandom replaces the uniform [0,1) source used by simulation.
func WithRandom(random func() float64) Option {
	return func(c *Calculator) {
		if random != nil {
			c.random = random
		}
	}
}

// New creates a [Calculator] that saves snapshots to snapshots.
func New(cfg Config, snapshots store.Store, opts ...Option) (*Calculator, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if snapshots == nil {
		return nil, errors.New("calc: snapshot store required")
	}

	c := &Calculator{
		cfg:       cfg,
		snapshots: snapshots,
		logger:    slog.Default(),
		now:       time.Now,
		random:    rand.Float64,
		seconds:   newWindow(cfg.WindowSize),
		rotations: newWindow(cfg.WindowSize),
	}
	for _, opt := range opts {
		opt(c)
	}

	now := c.now()
	c.startTime = now
	c.lastTime = now
	c.current = telemetry.DefaultPayload(now)
	return c, nil
}

// Pulse counts one wheel rotation.
func (c *Calculator) Pulse() {
	c.mu.Lock()
	c.num++
	n := c.num
	c.mu.Unlock()

	c.logger.Debug("rotation", "num", n)
}

// Snapshot returns the most recently computed payload.
func (c *Calculator) Snapshot() telemetry.Payload {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// Restore continues the rotation count of a previously saved session, so a
// restart does not lose distance and calories.
func (c *Calculator) Restore() error {
	if !c.snapshots.Exists() {
		return nil
	}
	p, err := c.snapshots.Load()
	if err != nil {
		return fmt.Errorf("failed to restore session: %w", err)
	}

	c.mu.Lock()
	c.num = p.Num
	c.lastNum = p.Num
	c.mu.Unlock()

	c.logger.Info("existing session restored", "num", p.Num)
	return nil
}

// Reset starts a new session: the rotation count, session clock and rolling
// windows all restart from zero.
func (c *Calculator) Reset() {
	now := c.now()

	c.mu.Lock()
	c.num = 0
	c.lastNum = 0
	c.startTime = now
	c.lastTime = now
	c.seconds.clear()
	c.rotations.clear()
	c.mu.Unlock()

	c.logger.Info("session reset")
}

// CheckResetRequest consumes a pending reset request and resets the session
// if it is still fresh. Returns whether a reset happened.
func (c *Calculator) CheckResetRequest() (bool, error) {
	if c.resetFlag == nil {
		return false, nil
	}
	fresh, err := c.resetFlag.Consume(c.now(), c.cfg.ResetWindow)
	if err != nil {
		return false, err
	}
	if !fresh {
		return false, nil
	}
	c.Reset()
	c.logger.Info("reset request executed", "source", "web")
	return true, nil
}

// Tick recomputes the metrics when the wall-clock second has changed since
// the last computation, and saves the new snapshot. Returns whether a new
// snapshot was produced.
func (c *Calculator) Tick() (bool, error) {
	now := c.now()

	c.mu.Lock()
	if now.Unix() == c.lastTime.Unix() {
		c.mu.Unlock()
		return false, nil
	}

	if c.cfg.Simulate {
		c.num += simulateMin + c.random()*(simulateMax-simulateMin)
	}

	c.seconds.push(now.Sub(c.lastTime).Seconds())
	c.rotations.push(c.num - c.lastNum)

	var cadence float64
	if s := c.seconds.sum(); s > 0 {
		cadence = c.rotations.sum() / s * 60
	}
	speed := cadence * c.cfg.WheelCircumference * 60 / 1000
	distance := c.num * c.cfg.WheelCircumference / 1000
	calories := c.num * c.cfg.CalorieFactor

	p := telemetry.Payload{
		Speed:       round(speed, 1),
		Distance:    round(distance, 2),
		ElapsedTime: telemetry.FormatElapsed(now.Sub(c.startTime)),
		Calories:    round(calories, 1),
		Cadence:     round(cadence, 1),
		Num:         round(c.num, 1),
		LastUpdate:  telemetry.FormatTimestamp(now),
	}
	c.current = p
	c.lastTime = now
	c.lastNum = c.num
	c.mu.Unlock()

	c.logger.Debug("metrics computed",
		"num", p.Num,
		"speed_kmh", p.Speed,
		"distance_km", p.Distance,
		"calories_kcal", p.Calories,
		"cadence_rpm", p.Cadence,
	)

	if err := c.snapshots.Save(p); err != nil {
		return true, fmt.Errorf("failed to save snapshot: %w", err)
	}
	return true, nil
}

// Run checks for reset requests and recomputes metrics every interval until
// ctx is cancelled. Call [Calculator.Restore] first to continue a saved
// session.
//
// Errors inside the loop are logged and do not stop it. Run returns nil
// when ctx is cancelled.
func (c *Calculator) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		return errors.New("calc: loop interval must be > 0")
	}

	c.logger.Info("calculation started",
		"wheel_circumference_m", c.cfg.WheelCircumference,
		"simulate", c.cfg.Simulate,
	)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("calculation stopped")
			return nil
		case <-ticker.C:
			if _, err := c.CheckResetRequest(); err != nil {
				c.logger.Error("reset request check failed", "error", err)
			}
			if _, err := c.Tick(); err != nil {
				c.logger.Error("tick failed", "error", err)
			}
		}
	}
}

// round rounds x to the given number of decimal places.
func round(x float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(x*p) / p
}
