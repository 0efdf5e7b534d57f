// Package scheduler fires the daily pipeline and the history purge on cron
// schedules. At most one pipeline execution is in flight per process, and an
// optional lock file extends that to every process sharing the file.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/panjf2000/ants/v2"
	"github.com/robfig/cron/v3"

	"github.com/riskibarqy/topps-now-tracker/internal/domain/jobscheduler"
	"github.com/riskibarqy/topps-now-tracker/internal/platform/logging"
)

const (
	TriggerCron   = "cron"
	TriggerManual = "manual"
)

// ErrBusy is returned when a run is requested while another is in flight.
var ErrBusy = errors.New("a pipeline run is already in progress")

// Runner is the slice of the orchestrator the scheduler drives.
type Runner interface {
	RunDaily(ctx context.Context, trigger string) (jobscheduler.Execution, error)
	RunNamed(ctx context.Context, name, trigger string) (jobscheduler.Execution, error)
	Purge(ctx context.Context, retention time.Duration) (int64, error)
}

// Engine is the cron surface used here; *cron.Cron satisfies it.
type Engine interface {
	AddFunc(spec string, cmd func()) (cron.EntryID, error)
	Start()
	Stop() context.Context
}

type Config struct {
	DailySpec string
	PurgeSpec string
	Location  *time.Location
	Retention time.Duration
	// LockPath enables cross-process exclusion when set.
	LockPath string
	// RunTimeout bounds one execution. Zero means no bound.
	RunTimeout time.Duration
}

type Option func(*Scheduler)

// WithEngine replaces the cron engine, mostly for tests.
func WithEngine(engine Engine) Option {
	return func(s *Scheduler) {
		s.engine = engine
	}
}

type Scheduler struct {
	runner Runner
	cfg    Config
	engine Engine
	pool   *ants.Pool
	lock   *flock.Flock
	logger *logging.Logger

	mu      sync.Mutex
	started bool

	ctxMu   sync.RWMutex
	baseCtx context.Context
	cancel  context.CancelFunc
}

func New(runner Runner, cfg Config, logger *logging.Logger, opts ...Option) (*Scheduler, error) {
	if runner == nil {
		return nil, fmt.Errorf("scheduler runner is required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if strings.TrimSpace(cfg.DailySpec) == "" {
		return nil, fmt.Errorf("daily cron spec is required")
	}

	pool, err := ants.NewPool(1, ants.WithNonblocking(true))
	if err != nil {
		return nil, fmt.Errorf("create run pool: %w", err)
	}

	s := &Scheduler{
		runner: runner,
		cfg:    cfg,
		pool:   pool,
		logger: logger.Named("scheduler"),
	}
	if path := strings.TrimSpace(cfg.LockPath); path != "" {
		s.lock = flock.New(path)
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.engine == nil {
		s.engine = cron.New(cron.WithLocation(cfg.Location))
	}
	return s, nil
}

// Start registers the schedules and starts the engine. Runs use a context
// derived from ctx, so cancelling ctx aborts an in-flight execution.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return fmt.Errorf("scheduler already started")
	}
	if s.lock != nil {
		ok, err := s.lock.TryLock()
		if err != nil {
			return fmt.Errorf("acquire scheduler lock: %w", err)
		}
		if !ok {
			return fmt.Errorf("another scheduler holds %s", s.cfg.LockPath)
		}
	}

	if _, err := s.engine.AddFunc(s.cfg.DailySpec, s.tickDaily); err != nil {
		s.unlock()
		return fmt.Errorf("register daily schedule %q: %w", s.cfg.DailySpec, err)
	}
	if spec := strings.TrimSpace(s.cfg.PurgeSpec); spec != "" && s.cfg.Retention > 0 {
		if _, err := s.engine.AddFunc(spec, s.tickPurge); err != nil {
			s.unlock()
			return fmt.Errorf("register purge schedule %q: %w", spec, err)
		}
	}

	s.ctxMu.Lock()
	s.baseCtx, s.cancel = context.WithCancel(ctx)
	s.ctxMu.Unlock()

	s.engine.Start()
	s.started = true
	s.logger.InfoContext(ctx, "scheduler started",
		"daily", s.cfg.DailySpec,
		"purge", s.cfg.PurgeSpec,
		"timezone", s.cfg.Location.String(),
		"lock", s.cfg.LockPath,
	)
	return nil
}

// Stop halts the engine, cancels an in-flight run and waits for it to
// return, up to the deadline of ctx.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		s.pool.Release()
		return nil
	}
	s.started = false
	s.mu.Unlock()

	stopped := s.engine.Stop()
	s.ctxMu.RLock()
	cancel := s.cancel
	s.ctxMu.RUnlock()
	if cancel != nil {
		cancel()
	}

	var err error
	select {
	case <-stopped.Done():
	case <-ctx.Done():
		err = ctx.Err()
	}

	timeout := time.Second
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
	}
	if timeout > 0 {
		if releaseErr := s.pool.ReleaseTimeout(timeout); releaseErr != nil && err == nil {
			err = fmt.Errorf("wait for in-flight run: %w", releaseErr)
		}
	} else {
		s.pool.Release()
	}

	s.unlock()
	s.logger.Info("scheduler stopped")
	return err
}

func (s *Scheduler) unlock() {
	if s.lock == nil {
		return
	}
	if err := s.lock.Unlock(); err != nil {
		s.logger.Warn("release scheduler lock failed", "error", err)
	}
}

// Dispatch queues a run without waiting for it. An empty step runs the full
// daily list. It returns ErrBusy while another run is in flight.
func (s *Scheduler) Dispatch(step, trigger string) error {
	step = strings.TrimSpace(step)
	if trigger == "" {
		trigger = TriggerManual
	}
	return s.submit(func(ctx context.Context) error {
		var err error
		if step == "" {
			_, err = s.runner.RunDaily(ctx, trigger)
		} else {
			_, err = s.runner.RunNamed(ctx, step, trigger)
		}
		return err
	}, step)
}

func (s *Scheduler) tickDaily() {
	if err := s.submit(func(ctx context.Context) error {
		_, err := s.runner.RunDaily(ctx, TriggerCron)
		return err
	}, ""); err != nil {
		s.logger.Warn("scheduled run skipped", "error", err)
	}
}

func (s *Scheduler) tickPurge() {
	ctx := s.runContext()
	n, err := s.runner.Purge(ctx, s.cfg.Retention)
	if err != nil {
		s.logger.ErrorContext(ctx, "history purge failed", "error", err)
		return
	}
	s.logger.InfoContext(ctx, "history purge finished", "removed", n)
}

func (s *Scheduler) submit(run func(ctx context.Context) error, step string) error {
	err := s.pool.Submit(func() {
		ctx := s.runContext()
		if s.cfg.RunTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, s.cfg.RunTimeout)
			defer cancel()
		}
		if err := run(ctx); err != nil {
			s.logger.ErrorContext(ctx, "pipeline run did not start", "step", step, "error", err)
		}
	})
	switch {
	case errors.Is(err, ants.ErrPoolOverload):
		return ErrBusy
	case errors.Is(err, ants.ErrPoolClosed):
		return fmt.Errorf("scheduler is stopped")
	case err != nil:
		return fmt.Errorf("submit run: %w", err)
	}
	return nil
}

func (s *Scheduler) runContext() context.Context {
	s.ctxMu.RLock()
	defer s.ctxMu.RUnlock()
	if s.baseCtx == nil {
		return context.Background()
	}
	return s.baseCtx
}
