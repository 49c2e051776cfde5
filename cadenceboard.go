package cadenceboard

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jpalmerr/cadenceboard/dashboard"
	"github.com/jpalmerr/cadenceboard/internal/calc"
	"github.com/jpalmerr/cadenceboard/internal/server"
	"github.com/jpalmerr/cadenceboard/internal/store"
	"github.com/jpalmerr/cadenceboard/telemetry"
)

const (
	defaultPort           = 5000
	defaultDataFile       = "log/cycling_data.json"
	defaultResetFile      = "cycling_reset.flag"
	defaultFreshThreshold = 10 * time.Second
)

// Board is the main orchestrator for the ride calculator and the dashboard
// server.
//
// Board counts wheel rotations, recomputes ride metrics every second, saves
// them as snapshots and serves them via HTTP. It is created using [New]
// with functional options and started with [Board.Start].
//
// The typical lifecycle is:
//
//	b, err := cadenceboard.New(cadenceboard.WithPort(5000))
//	if err != nil {
//	    slog.Error("failed to create cadenceboard", "error", err)
//	    os.Exit(1)
//	}
//
//	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
//	defer cancel()
//
//	b.Start(ctx) // blocks until context cancelled
//
// The caller controls the lifecycle via the context. Cancel the context to
// trigger graceful shutdown.
type Board struct {
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

	mu         sync.Mutex
	calculator *calc.Calculator
}

// New creates a new [Board] instance with the given options.
//
// Options have sensible defaults:
//   - Port: 5000
//   - Data file: log/cycling_data.json
//   - Reset file: cycling_reset.flag
//   - Loop interval: 100ms
//   - Fresh threshold: 10 seconds
//   - Wheel circumference 4.45 m, 0.065 kcal per rotation
//
// Returns an error if any option is invalid.
func New(opts ...Option) (*Board, error) {
	cfg := &boardConfig{
		port:           defaultPort,
		dataFile:       defaultDataFile,
		resetFile:      defaultResetFile,
		loopInterval:   calc.DefaultLoopInterval,
		freshThreshold: defaultFreshThreshold,
		calc:           calc.DefaultConfig(),
	}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	// default to slog.Default() if no logger provided
	logger := cfg.logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Board{
		title:             cfg.title,
		port:              cfg.port,
		dataFile:          cfg.dataFile,
		resetFile:         cfg.resetFile,
		logFile:           cfg.logFile,
		loopInterval:      cfg.loopInterval,
		freshThreshold:    cfg.freshThreshold,
		calc:              cfg.calc,
		logger:            logger,
		snapshotCallbacks: cfg.snapshotCallbacks,
	}, nil
}

// Start runs the calculator and serves the dashboard.
//
// Start is a blocking call that runs until the provided context is cancelled.
// During execution:
//
//   - A saved session in the data file is restored
//   - Metrics are recomputed every second and saved to the data file
//   - Reset requests posted to /api/reset are honoured within the reset window
//   - The dashboard is available at http://localhost:<port>
//
// Returns nil on graceful shutdown. Returns an error if the calculator
// cannot be built or the HTTP server fails to start.
func (b *Board) Start(ctx context.Context) error {
	b.logger.Info("cadenceboard starting",
		"data_file", b.dataFile,
		"reset_file", b.resetFile,
		"simulate", b.calc.Simulate,
	)
	b.logger.Info("dashboard available", "url", fmt.Sprintf("http://localhost:%d", b.port))

	// check if context already cancelled
	if ctx.Err() != nil {
		return nil
	}

	var snapshots store.Store = store.NewMemoryStore()
	if b.dataFile != "" {
		snapshots = store.NewFileStore(b.dataFile)
	}
	resetFlag := store.NewResetFlag(b.resetFile)

	calculator, err := calc.New(b.calc, snapshots,
		calc.WithResetFlag(resetFlag),
		calc.WithLogger(b.logger),
	)
	if err != nil {
		return fmt.Errorf("failed to create calculator: %w", err)
	}
	if err := calculator.Restore(); err != nil {
		b.logger.Error("existing data load failed", "error", err)
	}

	b.mu.Lock()
	b.calculator = calculator
	b.mu.Unlock()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	// track background goroutines to ensure clean shutdown
	var wg sync.WaitGroup

	if len(b.snapshotCallbacks) > 0 {
		ch := snapshots.Subscribe()
		wg.Add(1)
		go func() {
			defer wg.Done()
			b.dispatchSnapshots(runCtx, ch)
		}()
		defer snapshots.Unsubscribe(ch)
	}

	httpServer := server.NewServer(snapshots, resetFlag, server.Config{
		Port:           b.port,
		Title:          b.title,
		Assets:         dashboard.Assets,
		LogFile:        b.logFile,
		FreshThreshold: b.freshThreshold,
		Pulse:          calculator.Pulse,
	}, b.logger)
	if err := httpServer.Start(runCtx); err != nil {
		cancel()
		wg.Wait()
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := calculator.Run(runCtx, b.loopInterval); err != nil {
			b.logger.Error("calculator stopped", "error", err)
		}
	}()

	<-ctx.Done()
	cancel()
	wg.Wait()
	b.logger.Info("cadenceboard stopped")
	return nil
}

// dispatchSnapshots hands every saved snapshot to the registered callbacks
// until ctx is cancelled.
func (b *Board) dispatchSnapshots(ctx context.Context, ch <-chan telemetry.Payload) {
	for {
		select {
		case <-ctx.Done():
			return
		case p, ok := <-ch:
			if !ok {
				return
			}
			for _, cb := range b.snapshotCallbacks {
				invokeCallbackSafe(cb, p, b.logger)
			}
		}
	}
}

// Pulse counts one wheel rotation. It is a no-op until [Board.Start] has
// built the calculator.
func (b *Board) Pulse() {
	b.mu.Lock()
	c := b.calculator
	b.mu.Unlock()
	if c != nil {
		c.Pulse()
	}
}

// Port returns the configured HTTP port for the dashboard server.
func (b *Board) Port() int {
	return b.port
}

// LoopInterval returns how often the calculator checks for work.
func (b *Board) LoopInterval() time.Duration {
	return b.loopInterval
}

// CalcConfig returns the bike constants used by the calculator.
func (b *Board) CalcConfig() calc.Config {
	return b.calc
}

// invokeCallbackSafe calls a snapshot callback with panic recovery.
// Panics are logged with a correlation id but do not propagate.
func invokeCallbackSafe(cb func(telemetry.Payload), p telemetry.Payload, logger *slog.Logger) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("snapshot callback panicked",
				"correlation_id", uuid.NewString(),
				"panic", r,
				"last_update", p.LastUpdate,
			)
		}
	}()
	cb(p)
}
