package scheduler

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/riskibarqy/topps-now-tracker/internal/domain/jobscheduler"
)

type fakeEngine struct {
	mu      sync.Mutex
	specs   []string
	funcs   []func()
	started bool
	failOn  string
}

func (e *fakeEngine) AddFunc(spec string, cmd func()) (cron.EntryID, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if spec == e.failOn {
		return 0, errors.New("bad spec")
	}
	e.specs = append(e.specs, spec)
	e.funcs = append(e.funcs, cmd)
	return cron.EntryID(len(e.specs)), nil
}

func (e *fakeEngine) Start() {
	e.mu.Lock()
	e.started = true
	e.mu.Unlock()
}

func (e *fakeEngine) Stop() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	return ctx
}

func (e *fakeEngine) fire(i int) {
	e.mu.Lock()
	fn := e.funcs[i]
	e.mu.Unlock()
	fn()
}

type runnerStub struct {
	mu       sync.Mutex
	daily    []string
	named    []string
	purged   []time.Duration
	release  chan struct{}
	started  chan struct{}
	runError error
}

func newRunnerStub() *runnerStub {
	return &runnerStub{started: make(chan struct{}, 4)}
}

func (r *runnerStub) block() {
	r.started <- struct{}{}
	if r.release != nil {
		<-r.release
	}
}

func (r *runnerStub) RunDaily(_ context.Context, trigger string) (jobscheduler.Execution, error) {
	r.mu.Lock()
	r.daily = append(r.daily, trigger)
	r.mu.Unlock()
	r.block()
	return jobscheduler.Execution{}, r.runError
}

func (r *runnerStub) RunNamed(_ context.Context, name, trigger string) (jobscheduler.Execution, error) {
	r.mu.Lock()
	r.named = append(r.named, name+"/"+trigger)
	r.mu.Unlock()
	r.block()
	return jobscheduler.Execution{}, r.runError
}

func (r *runnerStub) Purge(_ context.Context, retention time.Duration) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.purged = append(r.purged, retention)
	return 3, nil
}

func waitStarted(t *testing.T, r *runnerStub) {
	t.Helper()
	select {
	case <-r.started:
	case <-time.After(2 * time.Second):
		t.Fatalf("run did not start")
	}
}

func newTestScheduler(t *testing.T, runner Runner, cfg Config) (*Scheduler, *fakeEngine) {
	t.Helper()
	engine := &fakeEngine{}
	s, err := New(runner, cfg, nil, WithEngine(engine))
	if err != nil {
		t.Fatalf("new scheduler: %v", err)
	}
	return s, engine
}

func TestStartRegistersDailyAndPurge(t *testing.T) {
	t.Parallel()

	runner := newRunnerStub()
	s, engine := newTestScheduler(t, runner, Config{
		DailySpec: "0 7 * * *",
		PurgeSpec: "0 0 * * 1",
		Retention: 7 * 24 * time.Hour,
	})
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer func() { _ = s.Stop(context.Background()) }()

	if len(engine.specs) != 2 || engine.specs[0] != "0 7 * * *" || engine.specs[1] != "0 0 * * 1" {
		t.Fatalf("unexpected specs: %v", engine.specs)
	}
	if !engine.started {
		t.Fatalf("expected engine to be started")
	}

	engine.fire(0)
	waitStarted(t, runner)

	engine.fire(1)
	runner.mu.Lock()
	defer runner.mu.Unlock()
	if len(runner.daily) != 1 || runner.daily[0] != TriggerCron {
		t.Fatalf("unexpected daily runs: %v", runner.daily)
	}
	if len(runner.purged) != 1 || runner.purged[0] != 7*24*time.Hour {
		t.Fatalf("unexpected purges: %v", runner.purged)
	}
}

func TestPurgeNotRegisteredWithoutRetention(t *testing.T) {
	t.Parallel()

	s, engine := newTestScheduler(t, newRunnerStub(), Config{DailySpec: "@daily", PurgeSpec: "@weekly"})
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer func() { _ = s.Stop(context.Background()) }()

	if len(engine.specs) != 1 {
		t.Fatalf("expected only the daily schedule, got %v", engine.specs)
	}
}

func TestDispatchRejectsOverlappingRuns(t *testing.T) {
	t.Parallel()

	runner := newRunnerStub()
	runner.release = make(chan struct{})
	s, _ := newTestScheduler(t, runner, Config{DailySpec: "@daily"})
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer func() { _ = s.Stop(context.Background()) }()

	if err := s.Dispatch("", ""); err != nil {
		t.Fatalf("first dispatch: %v", err)
	}
	waitStarted(t, runner)

	if err := s.Dispatch("scrape", ""); !errors.Is(err, ErrBusy) {
		t.Fatalf("expected ErrBusy while a run is in flight, got %v", err)
	}

	close(runner.release)
	deadline := time.Now().Add(2 * time.Second)
	for {
		err := s.Dispatch("scrape", "")
		if err == nil {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("dispatch after release: %v", err)
		}
		time.Sleep(10 * time.Millisecond)
	}
	waitStarted(t, runner)

	runner.mu.Lock()
	defer runner.mu.Unlock()
	if len(runner.daily) != 1 || runner.daily[0] != TriggerManual {
		t.Fatalf("unexpected daily runs: %v", runner.daily)
	}
	if len(runner.named) != 1 || runner.named[0] != "scrape/manual" {
		t.Fatalf("unexpected named runs: %v", runner.named)
	}
}

func TestLockExcludesSecondScheduler(t *testing.T) {
	t.Parallel()

	lockPath := filepath.Join(t.TempDir(), "pipeline.lock")
	cfg := Config{DailySpec: "@daily", LockPath: lockPath}

	first, _ := newTestScheduler(t, newRunnerStub(), cfg)
	if err := first.Start(context.Background()); err != nil {
		t.Fatalf("start first: %v", err)
	}

	second, _ := newTestScheduler(t, newRunnerStub(), cfg)
	if err := second.Start(context.Background()); err == nil {
		t.Fatalf("expected second scheduler to fail on held lock")
	}

	if err := first.Stop(context.Background()); err != nil {
		t.Fatalf("stop first: %v", err)
	}
	third, _ := newTestScheduler(t, newRunnerStub(), cfg)
	if err := third.Start(context.Background()); err != nil {
		t.Fatalf("start after release: %v", err)
	}
	_ = third.Stop(context.Background())
}

func TestStartFailsOnInvalidSpec(t *testing.T) {
	t.Parallel()

	s, engine := newTestScheduler(t, newRunnerStub(), Config{DailySpec: "nope"})
	engine.failOn = "nope"
	if err := s.Start(context.Background()); err == nil {
		t.Fatalf("expected invalid spec error")
	}
}

func TestNewRequiresDailySpec(t *testing.T) {
	t.Parallel()

	if _, err := New(newRunnerStub(), Config{}, nil); err == nil {
		t.Fatalf("expected missing spec error")
	}
	if _, err := New(nil, Config{DailySpec: "@daily"}, nil); err == nil {
		t.Fatalf("expected missing runner error")
	}
}

func TestDefaultEngineParsesPipelineSpecs(t *testing.T) {
	t.Parallel()

	s, err := New(newRunnerStub(), Config{
		DailySpec: "0 7 * * *",
		PurgeSpec: "0 0 * * 1",
		Retention: time.Hour,
	}, nil)
	if err != nil {
		t.Fatalf("new scheduler: %v", err)
	}
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("start with cron engine: %v", err)
	}
	if err := s.Stop(context.Background()); err != nil {
		t.Fatalf("stop: %v", err)
	}
}
