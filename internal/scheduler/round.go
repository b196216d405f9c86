package scheduler

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/hamed0406/downtimebench/internal/domain"
	"github.com/hamed0406/downtimebench/internal/probe"
	"github.com/hamed0406/downtimebench/internal/tracker"
)

// checkAll probes every target concurrently and waits for all of them.
// deliver, when set, is called from the probing goroutine as soon as that
// target's outcome is known.
func (m *Monitor) checkAll(ctx context.Context, deliver func(i int, o domain.CheckOutcome)) []domain.CheckOutcome {
	outcomes := make([]domain.CheckOutcome, len(m.targets))
	var wg sync.WaitGroup

	for i, tgt := range m.targets {
		wg.Add(1)
		go func(i int, tgt domain.Target) {
			defer wg.Done()
			o := m.checkOne(ctx, tgt)
			outcomes[i] = o
			if deliver != nil {
				deliver(i, o)
			}
		}(i, tgt)
	}

	wg.Wait()
	return outcomes
}

func (m *Monitor) checkOne(ctx context.Context, tgt domain.Target) domain.CheckOutcome {
	cctx, cancel := context.WithTimeout(ctx, m.Timeout)
	defer cancel()

	out := m.Checker.Check(cctx, tgt)
	return domain.CheckOutcome{
		Target:     tgt,
		Healthy:    out.Success,
		StatusCode: out.StatusCode,
		LatencyMS:  out.LatencyMS,
		Reason:     out.Message,
		ObservedAt: m.now(),
	}
}

// runRound is one tick: fan out, route each outcome to its target's router,
// and return once every outcome of the round has been applied.
func (m *Monitor) runRound(ctx context.Context, inboxes []chan delivery) []domain.CheckOutcome {
	m.Logger.Debug("round_started", zap.Int("targets", len(m.targets)))

	var applied sync.WaitGroup
	applied.Add(len(m.targets))
	outcomes := m.checkAll(ctx, func(i int, o domain.CheckOutcome) {
		inboxes[i] <- delivery{outcome: o, done: applied.Done}
	})
	applied.Wait()
	return outcomes
}

// startRouters starts one goroutine per target. Each owns the writes to its
// target's tracker, so outcomes for one target are applied strictly in order
// while different targets never wait on each other.
func (m *Monitor) startRouters() ([]chan delivery, *sync.WaitGroup) {
	inboxes := make([]chan delivery, len(m.targets))
	var wg sync.WaitGroup
	for i := range m.targets {
		inboxes[i] = make(chan delivery, 1)
		wg.Add(1)
		go func(i int, in <-chan delivery) {
			defer wg.Done()
			for d := range in {
				m.apply(i, d.outcome)
				d.done()
			}
		}(i, inboxes[i])
	}
	return inboxes, &wg
}

func (m *Monitor) apply(i int, o domain.CheckOutcome) {
	if m.Results != nil {
		if err := m.Results.Append(context.Background(), &o); err != nil {
			m.Logger.Warn("result_append_error", zap.String("target", o.Target.Name), zap.Error(err))
		}
	}

	tr := m.trackers[i]
	switch tr.Observe(o) {
	case tracker.WentDown:
		m.logOutcome("target_down", o)
		m.diagnose(o.Target)
	case tracker.Recovered:
		ws := tr.Windows()
		last := ws[len(ws)-1]
		m.Logger.Info("target_recovered",
			zap.String("target", o.Target.Name),
			zap.Time("down_since", last.StartedAt),
			zap.Duration("downtime", last.Duration(o.ObservedAt)),
		)
	default:
		m.logOutcome("target_checked", o)
	}
}

// diagnose logs the DNS state of a target that just went down. It runs in
// the background and has no effect on health.
func (m *Monitor) diagnose(tgt domain.Target) {
	ctx := m.diagCtx
	if ctx == nil {
		return
	}
	m.diag.Add(1)
	go func() {
		defer m.diag.Done()
		s := probe.Diagnose(ctx, m.Resolver, tgt)
		if s.Class == probe.DNSNotApplicable {
			return
		}
		m.Logger.Info("dns_check",
			zap.String("target", tgt.Name),
			zap.String("domain", s.Domain),
			zap.String("class", s.Class),
			zap.Bool("has_a_or_aaaa", s.HasAOrAAAA),
			zap.Strings("nameservers", s.Nameservers),
			zap.String("cname", s.CNAME),
			zap.String("resolver_error", s.ResolverError),
		)
	}()
}

func (m *Monitor) logOutcome(msg string, o domain.CheckOutcome) {
	level := zap.DebugLevel
	switch {
	case msg == "target_down":
		level = zap.WarnLevel
	case msg == "baseline_checked":
		level = zap.InfoLevel
	}
	m.Logger.Check(level, msg).Write(
		zap.String("target", o.Target.Name),
		zap.String("kind", string(o.Target.Kind)),
		zap.Bool("healthy", o.Healthy),
		zap.Int("status", o.StatusCode),
		zap.Float64("latency_ms", o.LatencyMS),
		zap.String("reason", o.Reason),
	)
}
