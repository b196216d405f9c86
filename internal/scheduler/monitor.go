package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/downtimebench/internal/domain"
	"github.com/hamed0406/downtimebench/internal/probe"
	"github.com/hamed0406/downtimebench/internal/report"
	"github.com/hamed0406/downtimebench/internal/repo"
	"github.com/hamed0406/downtimebench/internal/tracker"
)

type Phase int32

const (
	Idle Phase = iota
	Running
	ShuttingDown
	Stopped
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case ShuttingDown:
		return "shutting_down"
	case Stopped:
		return "stopped"
	default:
		return "unknown"
	}
}

var (
	ErrBaselineRequired = errors.New("monitoring requires a passing baseline check")
	ErrAlreadyStarted   = errors.New("monitor already started")
)

// BaselineError lists the targets that were down during the initial check.
type BaselineError struct {
	Down []domain.Target
}

func (e *BaselineError) Error() string {
	return fmt.Sprintf("%d target(s) failed the initial health check: %s", len(e.Down), report.DownList(e.Down))
}

// RoundHook is called after every monitoring round, once all of the round's
// outcomes have been applied.
type RoundHook func(at time.Time, outcomes []domain.CheckOutcome)

// TargetStatus is the live view of one target.
type TargetStatus struct {
	Target   domain.Target `json:"target"`
	State    string        `json:"state"`
	Failures int           `json:"failures"`
}

type Monitor struct {
	Logger   *zap.Logger
	Checker  probe.Checker
	Results  repo.ResultStore
	Interval time.Duration
	Timeout  time.Duration
	OnRound  RoundHook
	Resolver probe.Resolver // nil uses the system resolver
	Now      func() time.Time

	targets  []domain.Target
	trackers []*tracker.Tracker
	phase    atomic.Int32
	baseline atomic.Bool

	diagCtx context.Context
	diag    sync.WaitGroup
}

// delivery carries one outcome to a target's router; done is called once the
// outcome has been applied.
type delivery struct {
	outcome domain.CheckOutcome
	done    func()
}

// NewMonitor refuses invalid target sets and non-positive durations. results
// may be nil.
func NewMonitor(
	logger *zap.Logger,
	targets []domain.Target,
	checker probe.Checker,
	results repo.ResultStore,
	interval time.Duration,
	timeout time.Duration,
) (*Monitor, error) {
	if err := domain.ValidateTargets(targets); err != nil {
		return nil, fmt.Errorf("invalid targets: %w", err)
	}
	if checker == nil {
		return nil, errors.New("checker is required")
	}
	if interval <= 0 {
		return nil, fmt.Errorf("check interval must be positive, got %s", interval)
	}
	if timeout <= 0 {
		return nil, fmt.Errorf("check timeout must be positive, got %s", timeout)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	trackers := make([]*tracker.Tracker, len(targets))
	for i := range trackers {
		trackers[i] = tracker.New()
	}
	owned := make([]domain.Target, len(targets))
	copy(owned, targets)

	return &Monitor{
		Logger:   logger,
		Checker:  checker,
		Results:  results,
		Interval: interval,
		Timeout:  timeout,
		targets:  owned,
		trackers: trackers,
	}, nil
}

func (m *Monitor) Phase() Phase { return Phase(m.phase.Load()) }

func (m *Monitor) Targets() []domain.Target {
	out := make([]domain.Target, len(m.targets))
	copy(out, m.targets)
	return out
}

// Baseline checks every target once. Any unhealthy target yields a
// *BaselineError and monitoring cannot start.
func (m *Monitor) Baseline(ctx context.Context) ([]domain.CheckOutcome, error) {
	outcomes := m.checkAll(ctx, nil)

	var down []domain.Target
	for _, o := range outcomes {
		m.logOutcome("baseline_checked", o)
		if !o.Healthy {
			down = append(down, o.Target)
		}
	}
	if len(down) > 0 {
		err := &BaselineError{Down: down}
		m.Logger.Error("baseline_failed", zap.Int("down", len(down)), zap.Error(err))
		return outcomes, err
	}
	m.baseline.Store(true)
	m.Logger.Info("baseline_passed", zap.Int("targets", len(m.targets)))
	return outcomes, nil
}

// Run monitors until ctx is cancelled and returns the downtime report.
//
// Rounds are anchored to a fixed period from the start of Run. A round that
// overruns the period is followed immediately by the next one; missed ticks
// are dropped, so at most one round is ever in flight. Cancellation does not
// abort a round in progress: its checks finish (each bounded by Timeout) and
// their outcomes are applied before the report is built.
func (m *Monitor) Run(ctx context.Context) (report.Report, error) {
	if !m.baseline.Load() {
		return report.Report{}, ErrBaselineRequired
	}
	if !m.phase.CompareAndSwap(int32(Idle), int32(Running)) {
		return report.Report{}, ErrAlreadyStarted
	}
	stopWatch := context.AfterFunc(ctx, func() {
		m.phase.CompareAndSwap(int32(Running), int32(ShuttingDown))
	})
	defer stopWatch()

	// checks must outlive the shutdown signal; diagnosis must not
	checkCtx := context.WithoutCancel(ctx)
	diagCtx, cancelDiag := context.WithCancel(checkCtx)
	defer cancelDiag()
	m.diagCtx = diagCtx

	inboxes, routers := m.startRouters()

	m.Logger.Info("monitor_started",
		zap.Int("targets", len(m.targets)),
		zap.Duration("interval", m.Interval),
		zap.Duration("timeout", m.Timeout),
	)

	ticker := time.NewTicker(m.Interval)
	defer ticker.Stop()

	rounds := 0
loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		case <-ticker.C:
		}
		if ctx.Err() != nil {
			break loop
		}
		rounds++
		outcomes := m.runRound(checkCtx, inboxes)
		if m.OnRound != nil {
			m.OnRound(m.now(), outcomes)
		}
	}

	m.phase.Store(int32(ShuttingDown))
	for _, in := range inboxes {
		close(in)
	}
	routers.Wait()
	cancelDiag()
	m.diag.Wait()

	stoppedAt := m.now()
	for i, tr := range m.trackers {
		if tr.CloseIfOpen(stoppedAt) {
			m.Logger.Warn("target_unresolved",
				zap.String("target", m.targets[i].Name),
				zap.Time("closed_at", stoppedAt),
			)
		}
	}
	m.phase.Store(int32(Stopped))

	rep := report.Build(m.inputs(), stoppedAt)
	m.Logger.Info("monitor_stopped",
		zap.Int("rounds", rounds),
		zap.Int("targets_with_downtime", len(rep.Targets)),
		zap.Duration("total_downtime", rep.Total),
	)
	return rep, nil
}

// Snapshot builds a report from the current state; open windows are measured
// up to now.
func (m *Monitor) Snapshot() report.Report {
	return report.Build(m.inputs(), m.now())
}

func (m *Monitor) Statuses() []TargetStatus {
	out := make([]TargetStatus, 0, len(m.targets))
	for i, t := range m.targets {
		out = append(out, TargetStatus{
			Target:   t,
			State:    m.trackers[i].Current().String(),
			Failures: len(m.trackers[i].Windows()),
		})
	}
	return out
}

func (m *Monitor) inputs() []report.Input {
	in := make([]report.Input, 0, len(m.targets))
	for i, t := range m.targets {
		in = append(in, report.Input{Target: t, Windows: m.trackers[i].Windows()})
	}
	return in
}

func (m *Monitor) now() time.Time {
	if m.Now != nil {
		return m.Now()
	}
	return time.Now()
}
