package poller

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Job is the unit of work run on every tick.
type Job func(ctx context.Context)

// Scheduler runs a [Job] immediately on start and then once per interval.
//
// Every tick runs the job in its own goroutine and does not wait for
// earlier ticks to finish: slow jobs overlap rather than queue, and nothing
// is coalesced or cancelled until the scheduler stops. Job panics are
// recovered and logged with a correlation ID.
//
// All lifecycle methods (Start, Stop) are safe for concurrent use.
type Scheduler struct {
	interval time.Duration
	job      Job
	logger   *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	loopWG sync.WaitGroup
	jobWG  sync.WaitGroup

	mu      sync.Mutex
	started bool
	stopped bool
}

// NewScheduler creates a [Scheduler] that runs job every interval.
//
// The scheduler must be started with [Scheduler.Start] and stopped with
// [Scheduler.Stop].
func NewScheduler(interval time.Duration, job Job, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		interval: interval,
		job:      job,
		logger:   logger,
	}
}

// Start begins the tick loop in a background goroutine.
//
// Start is non-blocking. The job runs once immediately, then on every tick
// until [Scheduler.Stop] is called or ctx is cancelled. If ctx is nil,
// context.Background() is used. Start is idempotent; if Stop was called
// before Start, Start is a no-op.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	if s.started || s.stopped {
		s.mu.Unlock()
		return
	}
	s.started = true

	if ctx == nil {
		ctx = context.Background()
	}
	s.ctx, s.cancel = context.WithCancel(ctx)
	tickCtx := s.ctx // capture under lock to avoid race
	s.loopWG.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.loopWG.Done()

		s.fire(tickCtx)

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-tickCtx.Done():
				return
			case <-ticker.C:
				s.fire(tickCtx)
			}
		}
	}()
}

// Stop cancels the tick loop and waits for in-flight jobs to return.
//
// Stop is idempotent and safe to call before Start.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.stopped {
		s.stopped = true
		if s.cancel != nil {
			s.cancel()
		}
	}
	s.mu.Unlock()

	s.loopWG.Wait()
	s.jobWG.Wait()
}

// fire launches one job run without waiting for it.
func (s *Scheduler) fire(ctx context.Context) {
	// Add under the lock so Stop never races a late Add against Wait
	s.mu.Lock()
	if s.stopped || ctx.Err() != nil {
		s.mu.Unlock()
		return
	}
	s.jobWG.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.jobWG.Done()
		s.safeRun(ctx)
	}()
}

// safeRun calls the job with panic recovery. The full stack is logged with
// a correlation ID; the scheduler keeps ticking.
func (s *Scheduler) safeRun(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("scheduled job panic",
				"correlation_id", uuid.NewString(),
				"panic", fmt.Sprintf("%v", r),
				"stack", string(debug.Stack()),
			)
		}
	}()
	s.job(ctx)
}
