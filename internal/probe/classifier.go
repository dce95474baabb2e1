package probe

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"
)

// Options configures a Classifier. Zero fields take the DefaultOptions value.
// A negative MaxRedirects means redirects are never followed: a 3xx answer
// is classified on its own body and counts as landing on the domain.
type Options struct {
	DNSTimeout   time.Duration
	FetchTimeout time.Duration
	MaxRedirects int
	MinWords     int
	MaxBodyBytes int64
	UserAgent    string
}

func DefaultOptions() Options {
	return Options{
		DNSTimeout:   5 * time.Second,
		FetchTimeout: 10 * time.Second,
		MaxRedirects: 5,
		MinWords:     50,
		MaxBodyBytes: 2 << 20,
		UserAgent:    "Mozilla/5.0 (compatible; domainclassifier/1.0)",
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.DNSTimeout <= 0 {
		o.DNSTimeout = d.DNSTimeout
	}
	if o.FetchTimeout <= 0 {
		o.FetchTimeout = d.FetchTimeout
	}
	if o.MaxRedirects == 0 {
		o.MaxRedirects = d.MaxRedirects
	}
	if o.MinWords <= 0 {
		o.MinWords = d.MinWords
	}
	if o.MaxBodyBytes <= 0 {
		o.MaxBodyBytes = d.MaxBodyBytes
	}
	if o.UserAgent == "" {
		o.UserAgent = d.UserAgent
	}
	return o
}

// Classifier sorts a domain into DOWN, REDIRECTED, NO_CONTENT or ACTIVE.
// It holds no per-call state and is safe for concurrent use.
type Classifier struct {
	opts      Options
	resolver  Resolver
	transport http.RoundTripper
}

// NewClassifier builds a Classifier. A nil resolver uses net.DefaultResolver
// and a nil transport uses NewTransport().
func NewClassifier(opts Options, r Resolver, rt http.RoundTripper) *Classifier {
	if r == nil {
		r = net.DefaultResolver
	}
	if rt == nil {
		rt = NewTransport()
	}
	return &Classifier{opts: opts.withDefaults(), resolver: r, transport: rt}
}

func (c *Classifier) Options() Options { return c.opts }

// Classify runs DNS, fetch, landing and content checks against domain and
// always returns a terminal result.
func (c *Classifier) Classify(ctx context.Context, domain string) (res Result) {
	start := time.Now()
	res = Result{Domain: domain, Status: Pending}

	defer func() {
		if p := recover(); p != nil {
			res = Result{Domain: domain}.failed(NoteConnectionError, KindPanic, fmt.Errorf("panic: %v", p))
		}
		if !res.Status.Terminal() {
			res = res.failed(NoteConnectionError, KindTransport, fmt.Errorf("pipeline ended in %s", res.Status))
		}
		res.LatencyMS = float64(time.Since(start).Microseconds()) / 1000
	}()

	if _, err := resolveA(ctx, c.resolver, c.opts.DNSTimeout, domain); err != nil {
		return res.failed(NoteDNSFailed, KindDNS, err)
	}

	pg, kind, err := c.fetch(ctx, domain)
	if err != nil {
		return res.failed(NoteConnectionError, kind, err)
	}
	res.HTTPStatus = pg.StatusCode
	res.Truncated = pg.Truncated

	host, ok := LandsOn(domain, pg.FinalURL.Hostname())
	res.LandingHost = host
	if !ok {
		return res.with(Redirected, "Lands on "+host)
	}

	res.Words = CountWords(pg.Body)
	if res.Words < c.opts.MinWords {
		return res.with(NoContent, fmt.Sprintf("Thin content (%d words)", res.Words))
	}
	return res.with(Active, NoteActive)
}
