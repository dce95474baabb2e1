package probe

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"
)

// Resolver looks up host addresses. *net.Resolver satisfies it.
type Resolver interface {
	LookupIP(ctx context.Context, network, host string) ([]net.IP, error)
}

var ErrNoAddresses = errors.New("no A records")

// resolveA returns the IPv4 addresses of domain, waiting at most timeout.
// An empty answer is reported as ErrNoAddresses.
func resolveA(ctx context.Context, r Resolver, timeout time.Duration, domain string) ([]net.IP, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ips, err := r.LookupIP(ctx, "ip4", domain)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", dnsClass(err), err)
	}
	if len(ips) == 0 {
		return nil, ErrNoAddresses
	}
	return ips, nil
}

// dnsClass labels a resolver error: "NXDOMAIN" | "SERVFAIL_or_TIMEOUT" | "RESOLVER_ERROR".
func dnsClass(err error) string {
	var de *net.DNSError
	if errors.As(err, &de) {
		if de.IsNotFound {
			return "NXDOMAIN"
		}
		if de.IsTemporary || de.Timeout() {
			return "SERVFAIL_or_TIMEOUT"
		}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "SERVFAIL_or_TIMEOUT"
	}
	return "RESOLVER_ERROR"
}
