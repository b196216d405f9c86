package domain

import (
	"net"
	"strconv"
	"strings"
	"time"
)

// Kind selects the probe used for a target.
type Kind string

const (
	KindHTTP Kind = "http"
	KindTCP  Kind = "tcp"
)

// Kinds lists every supported target kind, in display order.
var Kinds = []Kind{KindHTTP, KindTCP}

func (k Kind) Icon() string {
	switch k {
	case KindHTTP:
		return "🌐"
	case KindTCP:
		return "🔌"
	default:
		return "?"
	}
}

// Target is one monitored endpoint. It is built once from the targets file and
// never modified afterwards.
type Target struct {
	Name string `json:"name"`
	Kind Kind   `json:"kind"`
	URL  string `json:"url,omitempty"`
	Host string `json:"host,omitempty"`
	Port int    `json:"port,omitempty"`
}

func (t Target) String() string { return t.Name }

// Address returns the dialable host:port of a tcp target. Bracketed IPv6
// hosts are accepted as well as bare literals.
func (t Target) Address() string {
	return net.JoinHostPort(BareHost(t.Host), strconv.Itoa(t.Port))
}

// BareHost strips the brackets of an IPv6 literal such as "[::1]".
func BareHost(host string) string {
	if strings.HasPrefix(host, "[") && strings.HasSuffix(host, "]") {
		return host[1 : len(host)-1]
	}
	return host
}

// CheckOutcome is the result of one probe against one target. ObservedAt is
// the completion time of the probe, not the time it was issued.
type CheckOutcome struct {
	Target     Target    `json:"target"`
	Healthy    bool      `json:"healthy"`
	StatusCode int       `json:"status_code,omitempty"`
	LatencyMS  float64   `json:"latency_ms"`
	Reason     string    `json:"reason,omitempty"`
	ObservedAt time.Time `json:"observed_at"`
}

// FailureWindow is one continuous unhealthy period. EndedAt is zero while the
// window is open.
type FailureWindow struct {
	StartedAt  time.Time `json:"started_at"`
	EndedAt    time.Time `json:"ended_at"`
	Incomplete bool      `json:"incomplete,omitempty"`
}

func (w FailureWindow) Open() bool { return w.EndedAt.IsZero() }

// Duration of the window; open windows are measured up to asOf.
func (w FailureWindow) Duration(asOf time.Time) time.Duration {
	end := w.EndedAt
	if w.Open() {
		end = asOf
	}
	if end.Before(w.StartedAt) {
		return 0
	}
	return end.Sub(w.StartedAt)
}
