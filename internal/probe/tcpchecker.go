package probe

import (
	"context"
	"net"
	"time"

	"github.com/hamed0406/downtimebench/internal/domain"
)

type TCPChecker struct {
	Dialer *net.Dialer
}

func NewTCPChecker(timeout time.Duration) *TCPChecker {
	return &TCPChecker{Dialer: &net.Dialer{Timeout: timeout}}
}

// Check opens and immediately closes a connection to host:port. No data is
// exchanged.
func (c *TCPChecker) Check(ctx context.Context, target domain.Target) CheckResult {
	start := time.Now()
	conn, err := c.Dialer.DialContext(ctx, "tcp", target.Address())
	latency := time.Since(start).Seconds() * 1000
	if err != nil {
		return CheckResult{Name: "TCP", Success: false, Message: err.Error(), LatencyMS: latency}
	}
	_ = conn.Close()
	return CheckResult{Name: "TCP", Success: true, Message: "connected", LatencyMS: latency}
}
