package repo

import (
	"context"
	"time"

	"github.com/hamed0406/downtimebench/internal/domain"
)

// LatestRow is the most recent outcome recorded for one target.
type LatestRow struct {
	Target     string    `json:"target"`
	Kind       string    `json:"kind"`
	Healthy    bool      `json:"healthy"`
	HTTPStatus *int      `json:"http_status"` // nil for tcp and transport errors
	LatencyMS  *float64  `json:"latency_ms"`
	Reason     string    `json:"reason"`
	CheckedAt  time.Time `json:"checked_at"`
	Checks     int       `json:"checks"`
}

// ResultStore keeps outcomes for the lifetime of one run. Nothing is
// persisted across runs.
type ResultStore interface {
	Append(ctx context.Context, o *domain.CheckOutcome) error
	Latest(ctx context.Context) ([]LatestRow, error)
}
