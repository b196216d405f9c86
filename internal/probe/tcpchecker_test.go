package probe

import (
	"context"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/hamed0406/downtimebench/internal/domain"
)

func listen(t *testing.T, network, addr string) net.Listener {
	t.Helper()
	ln, err := net.Listen(network, addr)
	if err != nil {
		t.Skipf("listen %s %s: %v", network, addr, err)
	}
	go func() {
		for {
			c, err := ln.Accept()
			if err != nil {
				return
			}
			c.Close()
		}
	}()
	return ln
}

func portOf(t *testing.T, ln net.Listener) int {
	t.Helper()
	_, p, err := net.SplitHostPort(ln.Addr().String())
	if err != nil {
		t.Fatalf("split addr: %v", err)
	}
	n, _ := strconv.Atoi(p)
	return n
}

func TestTCPChecker_IPv4(t *testing.T) {
	ln := listen(t, "tcp4", "127.0.0.1:0")
	defer ln.Close()

	tgt := domain.Target{Name: "db", Kind: domain.KindTCP, Host: "127.0.0.1", Port: portOf(t, ln)}
	out := NewTCPChecker(time.Second).Check(context.Background(), tgt)
	if !out.Success {
		t.Fatalf("want success, got %+v", out)
	}
}

func TestTCPChecker_IPv6BareAndBracketed(t *testing.T) {
	ln := listen(t, "tcp6", "[::1]:0")
	defer ln.Close()
	port := portOf(t, ln)

	for _, host := range []string{"::1", "[::1]"} {
		tgt := domain.Target{Name: "v6", Kind: domain.KindTCP, Host: host, Port: port}
		out := NewTCPChecker(time.Second).Check(context.Background(), tgt)
		if !out.Success {
			t.Fatalf("host %q: want success, got %+v", host, out)
		}
	}
}

func TestTCPChecker_Refused(t *testing.T) {
	ln := listen(t, "tcp4", "127.0.0.1:0")
	port := portOf(t, ln)
	ln.Close()

	tgt := domain.Target{Name: "db", Kind: domain.KindTCP, Host: "127.0.0.1", Port: port}
	out := NewTCPChecker(time.Second).Check(context.Background(), tgt)
	if out.Success {
		t.Fatalf("want failure on closed port, got %+v", out)
	}
	if out.Message == "" {
		t.Fatalf("want error message")
	}
}

func TestTCPChecker_HonoursContextDeadline(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	tgt := domain.Target{Name: "db", Kind: domain.KindTCP, Host: "127.0.0.1", Port: 9}
	out := NewTCPChecker(time.Second).Check(ctx, tgt)
	if out.Success {
		t.Fatalf("want failure with cancelled context, got %+v", out)
	}
}
