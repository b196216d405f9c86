package domain

import (
	"strings"
	"testing"
	"time"

	"go.uber.org/multierr"
)

func TestTargetValidate(t *testing.T) {
	cases := []struct {
		name    string
		target  Target
		wantErr string
	}{
		{"http ok", Target{Name: "api", Kind: KindHTTP, URL: "https://example.com/health"}, ""},
		{"tcp ok", Target{Name: "db", Kind: KindTCP, Host: "db.internal", Port: 5432}, ""},
		{"tcp ipv4", Target{Name: "db", Kind: KindTCP, Host: "10.0.0.5", Port: 22}, ""},
		{"tcp ipv6 bare", Target{Name: "db", Kind: KindTCP, Host: "::1", Port: 22}, ""},
		{"tcp ipv6 bracketed", Target{Name: "db", Kind: KindTCP, Host: "[::1]", Port: 22}, ""},
		{"missing name", Target{Kind: KindHTTP, URL: "http://x.test"}, "name"},
		{"unknown kind", Target{Name: "a", Kind: "icmp"}, "kind"},
		{"bad scheme", Target{Name: "a", Kind: KindHTTP, URL: "ftp://x.test"}, "http or https"},
		{"no host", Target{Name: "a", Kind: KindHTTP, URL: "http://"}, "must have a host"},
		{"http with host", Target{Name: "a", Kind: KindHTTP, URL: "http://x.test", Host: "x"}, "host"},
		{"port zero", Target{Name: "a", Kind: KindTCP, Host: "x.test"}, "1-65535"},
		{"port too high", Target{Name: "a", Kind: KindTCP, Host: "x.test", Port: 65536}, "1-65535"},
		{"bracketed ipv4", Target{Name: "a", Kind: KindTCP, Host: "[10.0.0.1]", Port: 80}, "brackets"},
		{"bad host", Target{Name: "a", Kind: KindTCP, Host: "bad host!", Port: 80}, "hostname"},
	}
	for _, c := range cases {
		err := c.target.Validate()
		if c.wantErr == "" {
			if err != nil {
				t.Fatalf("%s: unexpected error %v", c.name, err)
			}
			continue
		}
		if err == nil || !strings.Contains(err.Error(), c.wantErr) {
			t.Fatalf("%s: want error containing %q, got %v", c.name, c.wantErr, err)
		}
	}
}

func TestValidateTargets_ReportsEveryProblem(t *testing.T) {
	err := ValidateTargets([]Target{
		{Name: "a", Kind: KindHTTP, URL: "http://a.test"},
		{Name: "b", Kind: KindTCP, Host: "b.test", Port: 0},
		{Name: "a", Kind: KindHTTP, URL: "http://other.test"},
	})
	errs := multierr.Errors(err)
	if len(errs) != 2 {
		t.Fatalf("want 2 errors, got %d: %v", len(errs), err)
	}
	if !strings.Contains(errs[0].Error(), `target #2 "b"`) {
		t.Fatalf("unexpected first error: %v", errs[0])
	}
	if !strings.Contains(errs[1].Error(), "duplicate name (first used by target #1)") {
		t.Fatalf("unexpected second error: %v", errs[1])
	}
}

func TestValidateTargets_Empty(t *testing.T) {
	if err := ValidateTargets(nil); err == nil {
		t.Fatalf("expected error for empty list")
	}
}

func TestAddress(t *testing.T) {
	cases := map[string]string{
		"db.test":  "db.test:5432",
		"10.0.0.1": "10.0.0.1:5432",
		"::1":      "[::1]:5432",
		"[::1]":    "[::1]:5432",
	}
	for host, want := range cases {
		got := Target{Kind: KindTCP, Host: host, Port: 5432}.Address()
		if got != want {
			t.Fatalf("%s: want %s, got %s", host, want, got)
		}
	}
}

func TestFailureWindowDuration(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	open := FailureWindow{StartedAt: start}
	if !open.Open() || open.Duration(start.Add(3*time.Second)) != 3*time.Second {
		t.Fatalf("open window should be measured up to asOf")
	}
	closed := FailureWindow{StartedAt: start, EndedAt: start.Add(time.Second)}
	if closed.Open() || closed.Duration(start.Add(time.Hour)) != time.Second {
		t.Fatalf("closed window should ignore asOf")
	}
	if open.Duration(start.Add(-time.Second)) != 0 {
		t.Fatalf("duration must never be negative")
	}
}
