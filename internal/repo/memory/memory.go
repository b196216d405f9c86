package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/hamed0406/downtimebench/internal/domain"
	"github.com/hamed0406/downtimebench/internal/repo"
)

type entry struct {
	last   domain.CheckOutcome
	checks int
}

type Store struct {
	mu     sync.RWMutex
	latest map[string]*entry
}

func New() *Store {
	return &Store{latest: make(map[string]*entry)}
}

func (m *Store) Append(ctx context.Context, o *domain.CheckOutcome) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e := m.latest[o.Target.Name]
	if e == nil {
		e = &entry{}
		m.latest[o.Target.Name] = e
	}
	e.checks++
	if e.last.ObservedAt.IsZero() || !o.ObservedAt.Before(e.last.ObservedAt) {
		e.last = *o
	}
	return nil
}

// Latest returns one row per target, sorted by target name.
func (m *Store) Latest(ctx context.Context) ([]repo.LatestRow, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]repo.LatestRow, 0, len(m.latest))
	for name, e := range m.latest {
		r := e.last
		var hs *int
		var lat *float64
		if r.StatusCode != 0 {
			v := r.StatusCode
			hs = &v
		}
		if r.LatencyMS != 0 {
			v := r.LatencyMS
			lat = &v
		}
		out = append(out, repo.LatestRow{
			Target:     name,
			Kind:       string(r.Target.Kind),
			Healthy:    r.Healthy,
			HTTPStatus: hs,
			LatencyMS:  lat,
			Reason:     r.Reason,
			CheckedAt:  r.ObservedAt,
			Checks:     e.checks,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Target < out[j].Target })
	return out, nil
}
