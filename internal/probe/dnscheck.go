package probe

import (
	"context"
	"errors"
	"net"
	"net/url"
	"strings"
	"time"

	"github.com/hamed0406/downtimebench/internal/domain"
)

const (
	DNSResolves      = "RESOLVES"
	DNSNXDomain      = "NXDOMAIN"
	DNSNoARecord     = "NO_A_RECORD"
	DNSServfail      = "SERVFAIL_or_TIMEOUT"
	DNSInvalidName   = "INVALID_NAME"
	DNSNotApplicable = "IP_LITERAL"
)

type DNSStatus struct {
	Domain        string
	HasAOrAAAA    bool
	IPs           []net.IP
	CNAME         string
	HasNS         bool
	Nameservers   []string
	Class         string
	ResolverError string
}

var dnsTimeout = 3 * time.Second

// Resolver is the subset of *net.Resolver used for diagnosis.
type Resolver interface {
	LookupIP(ctx context.Context, network, host string) ([]net.IP, error)
	LookupCNAME(ctx context.Context, host string) (string, error)
	LookupNS(ctx context.Context, name string) ([]*net.NS, error)
}

// Diagnose classifies the DNS state of a target's host. It is only used to
// explain a failure in the logs; it never decides health.
func Diagnose(ctx context.Context, r Resolver, target domain.Target) DNSStatus {
	host := TargetHost(target)
	if ip := net.ParseIP(host); ip != nil {
		return DNSStatus{Domain: host, Class: DNSNotApplicable, HasAOrAAAA: true, IPs: []net.IP{ip}}
	}
	return CheckDNS(ctx, r, host)
}

// TargetHost returns the bare hostname a target resolves through.
func TargetHost(target domain.Target) string {
	if target.Kind == domain.KindTCP {
		return domain.BareHost(target.Host)
	}
	u, err := url.Parse(target.URL)
	if err != nil || u.Hostname() == "" {
		return target.URL
	}
	return u.Hostname()
}

func CheckDNS(ctx context.Context, r Resolver, name string) DNSStatus {
	s := DNSStatus{Domain: strings.TrimSpace(name)}
	if s.Domain == "" || strings.Contains(s.Domain, "://") {
		s.Class = DNSInvalidName
		return s
	}
	if r == nil {
		r = net.DefaultResolver
	}

	ctx, cancel := context.WithTimeout(ctx, dnsTimeout)
	defer cancel()

	ips, lookupErr := r.LookupIP(ctx, "ip", s.Domain)
	s.IPs = ips
	s.HasAOrAAAA = len(ips) > 0
	if lookupErr != nil {
		s.ResolverError = lookupErr.Error()
	}
	if cname, err := r.LookupCNAME(ctx, s.Domain); err == nil && !strings.EqualFold(cname, s.Domain+".") {
		s.CNAME = strings.TrimSuffix(cname, ".")
	}
	if ns, err := r.LookupNS(ctx, s.Domain); err == nil {
		for _, n := range ns {
			s.Nameservers = append(s.Nameservers, strings.TrimSuffix(n.Host, "."))
		}
		s.HasNS = len(s.Nameservers) > 0
	}

	s.Class = classifyDNS(s, lookupErr)
	return s
}

// classifyDNS picks one class from the collected lookups, first match wins.
func classifyDNS(s DNSStatus, lookupErr error) string {
	var de *net.DNSError
	isDNSErr := errors.As(lookupErr, &de)

	switch {
	case s.HasAOrAAAA:
		return DNSResolves
	case isDNSErr && (de.IsTemporary || de.Timeout()):
		return DNSServfail
	case s.HasNS:
		return DNSNoARecord
	case lookupErr == nil, isDNSErr && de.IsNotFound:
		return DNSNXDomain
	default:
		return DNSServfail
	}
}
