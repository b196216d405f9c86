package probe

import (
	"context"
	"fmt"
	"time"

	"github.com/hamed0406/downtimebench/internal/domain"
)

// Dispatcher routes each target to the probe for its kind. Adding a kind
// means adding a field here, a case below and a validation rule in domain.
type Dispatcher struct {
	HTTP Checker
	TCP  Checker
}

func NewDispatcher(timeout time.Duration, userAgent string) *Dispatcher {
	return &Dispatcher{
		HTTP: NewHTTPChecker(timeout, userAgent),
		TCP:  NewTCPChecker(timeout),
	}
}

func (d *Dispatcher) Check(ctx context.Context, target domain.Target) CheckResult {
	var c Checker
	switch target.Kind {
	case domain.KindHTTP:
		c = d.HTTP
	case domain.KindTCP:
		c = d.TCP
	}
	if c == nil {
		return CheckResult{Success: false, Message: fmt.Sprintf("no checker for kind %q", target.Kind)}
	}
	return c.Check(ctx, target)
}
