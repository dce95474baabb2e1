package probe

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

// fakeResolver answers every lookup the same way.
type fakeResolver struct {
	ips   []net.IP
	err   error
	calls atomic.Int32
}

func (f *fakeResolver) LookupIP(_ context.Context, _ string, _ string) ([]net.IP, error) {
	f.calls.Add(1)
	return f.ips, f.err
}

func okResolver() *fakeResolver {
	return &fakeResolver{ips: []net.IP{net.IPv4(127, 0, 0, 1)}}
}

// pinnedTransport sends every request to addr regardless of the URL host,
// so handlers can switch on r.Host to play different sites.
func pinnedTransport(t *testing.T, addr string) http.RoundTripper {
	t.Helper()
	tr := &http.Transport{
		DialContext: func(ctx context.Context, network, _ string) (net.Conn, error) {
			var d net.Dialer
			return d.DialContext(ctx, network, addr)
		},
		DisableKeepAlives: true,
	}
	t.Cleanup(tr.CloseIdleConnections)
	return tr
}

func newSite(t *testing.T, h http.HandlerFunc) *httptest.Server {
	t.Helper()
	s := httptest.NewServer(h)
	t.Cleanup(s.Close)
	return s
}

func newTestClassifier(t *testing.T, s *httptest.Server, opts Options) *Classifier {
	t.Helper()
	return NewClassifier(opts, okResolver(), pinnedTransport(t, s.Listener.Addr().String()))
}

// words builds an HTML page with n qualifying words.
func words(n int) string {
	return "<html><body><p>" + strings.TrimSpace(strings.Repeat("lorem ", n)) + "</p></body></html>"
}

func fastOptions() Options {
	o := DefaultOptions()
	o.DNSTimeout = time.Second
	o.FetchTimeout = 2 * time.Second
	return o
}
