package probe

import (
	"context"

	"github.com/hamed0406/downtimebench/internal/domain"
)

// CheckResult is the unified result of a single probe.
//
// Fields:
//   - Success: the only thing the monitor acts on.
//   - StatusCode: HTTP status code when available; 0 for tcp and transport errors.
//   - Message: human readable cause, kept for logs and the status API.
type CheckResult struct {
	Success    bool
	LatencyMS  float64
	Message    string
	StatusCode int
	Name       string
}

// Checker performs a single reachability check against a target. It never
// returns an error: every failure mode is reported as Success=false.
type Checker interface {
	Check(ctx context.Context, target domain.Target) CheckResult
}

// CheckerFunc adapts a plain function to Checker.
type CheckerFunc func(ctx context.Context, target domain.Target) CheckResult

func (f CheckerFunc) Check(ctx context.Context, target domain.Target) CheckResult {
	return f(ctx, target)
}
