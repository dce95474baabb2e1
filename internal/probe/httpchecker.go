package probe

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/html/charset"
)

var ErrTooManyRedirects = errors.New("too many redirects")

// page is what the fetch stage hands to the content stage.
type page struct {
	FinalURL   *url.URL
	StatusCode int
	Body       string
	Truncated  bool
}

// NewTransport returns the RoundTripper used when none is supplied. It keeps
// no idle connections so a batch over many hosts does not accumulate sockets.
func NewTransport() *http.Transport {
	return &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   5 * time.Second,
			KeepAlive: -1,
		}).DialContext,
		DisableKeepAlives:      true,
		TLSHandshakeTimeout:    5 * time.Second,
		ResponseHeaderTimeout:  10 * time.Second,
		MaxResponseHeaderBytes: 64 << 10,
	}
}

// httpClient builds a per-call client. The redirect cap and timeout live in
// this value only, so concurrent calls never share mutable client state.
// With a negative cap the first response is kept as is, 3xx included.
func (c *Classifier) httpClient() *http.Client {
	limit := c.opts.MaxRedirects
	return &http.Client{
		Transport: c.transport,
		Timeout:   c.opts.FetchTimeout,
		CheckRedirect: func(_ *http.Request, via []*http.Request) error {
			if limit < 0 {
				return http.ErrUseLastResponse
			}
			if len(via) > limit {
				return ErrTooManyRedirects
			}
			return nil
		},
	}
}

// fetch GETs http://domain/ and reads the body. Non-2xx statuses are not
// errors. The returned ErrorKind is KindNone on success.
func (c *Classifier) fetch(ctx context.Context, domain string) (*page, ErrorKind, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "http://"+domain+"/", nil)
	if err != nil {
		return nil, KindTransport, err
	}
	if c.opts.UserAgent != "" {
		req.Header.Set("User-Agent", c.opts.UserAgent)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return nil, fetchErrorKind(err), err
	}
	defer resp.Body.Close()

	// charset.NewReader only fails when the first bytes cannot be read
	limited := &io.LimitedReader{R: resp.Body, N: c.opts.MaxBodyBytes}
	text, err := charset.NewReader(limited, resp.Header.Get("Content-Type"))
	if err != nil {
		return nil, bodyErrorKind(err), err
	}
	b, err := io.ReadAll(text)
	if err != nil {
		return nil, bodyErrorKind(err), err
	}

	p := &page{
		FinalURL:   resp.Request.URL,
		StatusCode: resp.StatusCode,
		Body:       string(b),
	}
	if limited.N == 0 {
		p.Truncated = true
	}
	return p, KindNone, nil
}

func fetchErrorKind(err error) ErrorKind {
	switch {
	case errors.Is(err, ErrTooManyRedirects):
		return KindRedirectCap
	case isTimeout(err):
		return KindTimeout
	default:
		return KindTransport
	}
}

func bodyErrorKind(err error) ErrorKind {
	if isTimeout(err) {
		return KindTimeout
	}
	return KindBody
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

// LandsOn reports whether landingHost still belongs to requested. One leading
// "www." is dropped from the landing host, then the requested domain must
// appear in it as a case-insensitive substring. The stripped host is returned
// for use in notes.
func LandsOn(requested, landingHost string) (string, bool) {
	host := strings.TrimPrefix(strings.ToLower(landingHost), "www.")
	return host, strings.Contains(host, strings.ToLower(requested))
}
