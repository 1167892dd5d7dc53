package scheduler

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/nerrad567/ups-monitor/internal/broadcast"
	"github.com/nerrad567/ups-monitor/internal/infrastructure/logging"
	"github.com/nerrad567/ups-monitor/internal/metrics"
	"github.com/nerrad567/ups-monitor/internal/snapshot"
)

// Action names, used in logs and metrics labels.
const (
	ActionLog       = "log"
	ActionBroadcast = "broadcast"
)

const (
	DefaultLogInterval       = 5 * time.Minute
	DefaultBroadcastInterval = 10 * time.Second

	// timeoutShare is the fraction of the shorter interval a tick may use
	// when no explicit timeout is configured.
	timeoutShare = 0.8
)

var (
	// ErrNoBuilder is returned by New when Options.Builder is nil.
	ErrNoBuilder = errors.New("scheduler: snapshot builder is required")

	// ErrAlreadyStarted is returned by a second call to Start.
	ErrAlreadyStarted = errors.New("scheduler: already started")
)

// SnapshotBuilder produces a fresh poll. *snapshot.Builder satisfies it.
type SnapshotBuilder interface {
	Build(ctx context.Context) *snapshot.SystemSnapshot
}

// HistoryRecorder persists a poll. *history.Recorder satisfies it.
type HistoryRecorder interface {
	Record(ctx context.Context, snap *snapshot.SystemSnapshot) (int, error)
}

// Options configures a Scheduler.
type Options struct {
	Builder   SnapshotBuilder
	Recorder  HistoryRecorder
	Publisher broadcast.Publisher
	Logger    *logging.Logger
	Metrics   *metrics.Metrics

	// LogInterval defaults to 5 minutes, BroadcastInterval to 10 seconds.
	LogInterval       time.Duration
	BroadcastInterval time.Duration

	// TickTimeout bounds one tick. Zero, or a value not below an interval,
	// falls back to 80% of the shorter interval.
	TickTimeout time.Duration
}

// Scheduler drives the two periodic actions: the logging tick that writes
// history and emits chart_update, and the broadcast tick that emits
// ups_update.
//
// Each action owns a ticker goroutine and a worker goroutine. The ticker
// hands a tick to the worker only if the worker is idle; otherwise the
// tick is dropped and counted. A slow tick therefore never blocks the
// timer, never runs concurrently with itself, and never queues a backlog.
// The two actions are independent and may overlap each other.
type Scheduler struct {
	builder   SnapshotBuilder
	recorder  HistoryRecorder
	publisher broadcast.Publisher
	logger    *logging.Logger
	metrics   *metrics.Metrics

	logInterval       time.Duration
	broadcastInterval time.Duration
	tickTimeout       time.Duration

	mu       sync.Mutex
	started  bool
	done     chan struct{}
	wg       sync.WaitGroup
	stopOnce sync.Once
}

// New validates opts and returns a stopped Scheduler.
func New(opts Options) (*Scheduler, error) {
	if opts.Builder == nil {
		return nil, ErrNoBuilder
	}
	if opts.LogInterval <= 0 {
		opts.LogInterval = DefaultLogInterval
	}
	if opts.BroadcastInterval <= 0 {
		opts.BroadcastInterval = DefaultBroadcastInterval
	}
	if opts.Publisher == nil {
		opts.Publisher = broadcast.Discard
	}
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}

	return &Scheduler{
		builder:           opts.Builder,
		recorder:          opts.Recorder,
		publisher:         opts.Publisher,
		logger:            opts.Logger.Component("scheduler"),
		metrics:           opts.Metrics,
		logInterval:       opts.LogInterval,
		broadcastInterval: opts.BroadcastInterval,
		tickTimeout:       tickTimeout(opts.TickTimeout, opts.LogInterval, opts.BroadcastInterval),
		done:              make(chan struct{}),
	}, nil
}

func tickTimeout(configured, a, b time.Duration) time.Duration {
	shorter := min(a, b)
	if configured > 0 && configured < shorter {
		return configured
	}
	return time.Duration(float64(shorter) * timeoutShare)
}

// TickTimeout returns the effective per-tick bound.
func (s *Scheduler) TickTimeout() time.Duration {
	return s.tickTimeout
}

// Start launches both actions. A logging tick runs immediately; after
// that each action fires on its own interval until ctx is cancelled or
// Stop is called.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return ErrAlreadyStarted
	}
	s.started = true

	s.run(ctx, ActionLog, s.logInterval, true, s.LogTick)
	s.run(ctx, ActionBroadcast, s.broadcastInterval, false, s.BroadcastTick)

	s.logger.Info("scheduler started",
		"log_interval", s.logInterval.String(),
		"broadcast_interval", s.broadcastInterval.String(),
		"tick_timeout", s.tickTimeout.String(),
	)
	return nil
}

// Stop signals both actions to exit and waits for in-flight ticks.
// Safe to call multiple times, and before Start.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		close(s.done)
		s.wg.Wait()
		s.logger.Info("scheduler stopped")
	})
}

// run starts the ticker and worker goroutines for one action.
func (s *Scheduler) run(ctx context.Context, action string, interval time.Duration, immediate bool, tick func(context.Context) error) {
	work := make(chan struct{})

	s.wg.Add(2)
	go func() {
		defer s.wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case <-s.done:
				return
			case <-work:
				s.execute(ctx, action, tick)
			}
		}
	}()

	go func() {
		defer s.wg.Done()

		// An unbuffered send only succeeds when the worker is idle.
		offer := func() {
			select {
			case work <- struct{}{}:
			default:
				s.metrics.TickSkipped(action)
				s.logger.Warn("tick skipped, previous run still in progress", "action", action)
			}
		}

		if immediate {
			// The worker may not be receiving yet; wait for it rather than skip.
			select {
			case work <- struct{}{}:
			case <-ctx.Done():
				return
			case <-s.done:
				return
			}
		}

		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-s.done:
				return
			case <-ticker.C:
				offer()
			}
		}
	}()
}

// execute runs one tick under the tick timeout and converts panics into errors.
func (s *Scheduler) execute(parent context.Context, action string, tick func(context.Context) error) {
	ctx, cancel := context.WithTimeout(parent, s.tickTimeout)
	defer cancel()

	start := time.Now()
	result := metrics.ResultOK

	err := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				result = metrics.ResultPanic
				err = fmt.Errorf("panic: %v", r)
				s.logger.Error("tick panicked", "action", action, "panic", r, "stack", string(debug.Stack()))
			}
		}()
		return tick(ctx)
	}()

	if err != nil {
		if result == metrics.ResultOK {
			result = metrics.ResultError
		}
		s.logger.Error("tick failed", "action", action, "error", err)
	}
	s.metrics.ObserveTick(action, result, time.Since(start))
}
