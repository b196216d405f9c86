package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/hamed0406/downtimebench/internal/domain"
)

const clock = "15:04:05"

// DisplaySeconds is how a duration is shown: truncated to whole seconds,
// never below 1s.
func DisplaySeconds(d time.Duration) int64 {
	s := int64(d / time.Second)
	if s < 1 {
		return 1
	}
	return s
}

// Render writes the final downtime report.
func Render(w io.Writer, r Report) error {
	p := &printer{w: w}
	p.line("")
	p.line("📊 Downtime Benchmarking Results")
	p.line("═══════════════════════════════")
	p.line("")

	if r.Empty() {
		p.line("✅ No downtime detected! All targets remained healthy.")
		p.line("")
		return p.err
	}

	p.line("🔴 Failures started at: %s", r.FirstFailure.Local().Format(clock))
	p.line("")
	p.line("📋 Details (sorted by time of first failure):")
	p.line("")

	var total int64
	for _, td := range r.Targets {
		var targetTotal int64
		for _, win := range td.Windows {
			targetTotal += DisplaySeconds(win.Duration)
		}
		total += targetTotal

		p.line("  %s %s", td.Target.Kind.Icon(), td.Target.Name)
		p.line("     Total downtime: %ds | %d failure(s)", targetTotal, len(td.Windows))
		for i, win := range td.Windows {
			connector := "├──"
			if i == len(td.Windows)-1 {
				connector = "└──"
			}
			note := ""
			switch {
			case win.Ongoing:
				note = " (ongoing)"
			case win.Incomplete:
				note = " (unresolved at shutdown)"
			}
			p.line("     %s %-3s @ %s%s", connector, fmt.Sprintf("%ds", DisplaySeconds(win.Duration)), win.StartedAt.Local().Format(clock), note)
		}
		p.line("")
	}

	p.line("───────────────────────────────")
	p.line("⏱️  Total downtime: %ds", total)
	p.line("")
	return p.err
}

// WriteBaseline lists the initial check results, one target per line.
func WriteBaseline(w io.Writer, outcomes []domain.CheckOutcome) error {
	p := &printer{w: w}
	for _, o := range outcomes {
		status := "✓ healthy"
		if !o.Healthy {
			status = "✗ FAILED"
		}
		p.line("  %s [%s] %s %s", o.Target.Kind.Icon(), o.Target.Kind, o.Target.Name, status)
	}
	return p.err
}

// WriteRound prints the status block of one monitoring round.
func WriteRound(w io.Writer, at time.Time, outcomes []domain.CheckOutcome) error {
	p := &printer{w: w}
	p.line("─── [%s] ───", at.Local().Format(clock))
	for _, o := range outcomes {
		mark := "✓"
		if !o.Healthy {
			mark = "✗"
		}
		p.line("  %s %s %s", mark, o.Target.Kind.Icon(), o.Target.Name)
	}
	return p.err
}

// DownList formats targets as "name (kind)" for error messages.
func DownList(targets []domain.Target) string {
	parts := make([]string, 0, len(targets))
	for _, t := range targets {
		parts = append(parts, fmt.Sprintf("%s (%s)", t.Name, t.Kind))
	}
	return strings.Join(parts, ", ")
}

type printer struct {
	w   io.Writer
	err error
}

func (p *printer) line(format string, args ...any) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format+"\n", args...)
}
