package main

import (
	"bufio"
	"context"
	"io"
	"strings"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/hamed0406/domainclassifier/internal/probe"
)

// readDomains returns one domain per non-blank line; lines starting with '#'
// are comments. A leading scheme is dropped.
func readDomains(r io.Reader) ([]string, error) {
	var out []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimPrefix(strings.TrimPrefix(line, "http://"), "https://")
		line = strings.TrimSuffix(line, "/")
		out = append(out, line)
	}
	return out, sc.Err()
}

// classifyAll classifies domains with at most concurrency calls in flight and,
// when lim is non-nil, no faster than lim allows. Results keep input order.
// Domains whose turn comes after ctx ends are reported DOWN without a lookup.
func classifyAll(ctx context.Context, c probe.Checker, domains []string, concurrency int, lim *rate.Limiter, done func(probe.Result)) []probe.Result {
	if concurrency < 1 {
		concurrency = 1
	}
	out := make([]probe.Result, len(domains))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i, d := range domains {
		g.Go(func() error {
			if lim != nil {
				if err := lim.Wait(gctx); err != nil {
					out[i] = cancelled(d, err)
					return nil
				}
			}
			if err := gctx.Err(); err != nil {
				out[i] = cancelled(d, err)
				return nil
			}
			out[i] = c.Classify(gctx, d)
			if done != nil {
				done(out[i])
			}
			return nil
		})
	}
	_ = g.Wait()
	return out
}

func cancelled(d string, err error) probe.Result {
	return probe.Result{
		Domain: d,
		Status: probe.Down,
		Remark: probe.Down.String(),
		Notes:  probe.NoteConnectionError,
		Kind:   probe.KindTimeout,
		Cause:  "not started: " + err.Error(),
	}
}

// tally counts results per status in display order.
func tally(results []probe.Result) map[probe.Status]int {
	m := make(map[probe.Status]int, 4)
	for _, r := range results {
		m[r.Status]++
	}
	return m
}
