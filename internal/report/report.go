// Package report aggregates per-target failure windows into a downtime
// report and renders it as text.
package report

import (
	"sort"
	"time"

	"github.com/hamed0406/downtimebench/internal/domain"
)

// Input is the finalized state of one target.
type Input struct {
	Target  domain.Target
	Windows []domain.FailureWindow
}

type Window struct {
	StartedAt  time.Time     `json:"started_at"`
	EndedAt    time.Time     `json:"ended_at"`
	Duration   time.Duration `json:"duration"`
	Incomplete bool          `json:"incomplete,omitempty"`
	Ongoing    bool          `json:"ongoing,omitempty"`
}

type TargetDowntime struct {
	Target  domain.Target `json:"target"`
	Windows []Window      `json:"windows"`
	Total   time.Duration `json:"total"`
}

type Report struct {
	GeneratedAt  time.Time        `json:"generated_at"`
	FirstFailure time.Time        `json:"first_failure"`
	Targets      []TargetDowntime `json:"targets"`
	Total        time.Duration    `json:"total"`
}

// Empty reports whether no failure was observed.
func (r Report) Empty() bool { return len(r.Targets) == 0 }

// Build aggregates the inputs. Windows still open are measured up to asOf and
// flagged as ongoing. Targets are sorted by their first failure, then name.
func Build(inputs []Input, asOf time.Time) Report {
	r := Report{GeneratedAt: asOf, Targets: make([]TargetDowntime, 0)}

	for _, in := range inputs {
		if len(in.Windows) == 0 {
			continue
		}
		td := TargetDowntime{Target: in.Target, Windows: make([]Window, 0, len(in.Windows))}
		for _, w := range in.Windows {
			d := w.Duration(asOf)
			td.Windows = append(td.Windows, Window{
				StartedAt:  w.StartedAt,
				EndedAt:    w.EndedAt,
				Duration:   d,
				Incomplete: w.Incomplete,
				Ongoing:    w.Open(),
			})
			td.Total += d
		}
		r.Targets = append(r.Targets, td)
		r.Total += td.Total
	}

	sort.SliceStable(r.Targets, func(i, j int) bool {
		a, b := r.Targets[i].Windows[0].StartedAt, r.Targets[j].Windows[0].StartedAt
		if !a.Equal(b) {
			return a.Before(b)
		}
		return r.Targets[i].Target.Name < r.Targets[j].Target.Name
	})
	if len(r.Targets) > 0 {
		r.FirstFailure = r.Targets[0].Windows[0].StartedAt
	}
	return r
}
