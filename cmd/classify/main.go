// cmd/classify/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/fatih/color"
	"go.uber.org/multierr"
	"golang.org/x/time/rate"

	"github.com/hamed0406/domainclassifier/internal/config"
	"github.com/hamed0406/domainclassifier/internal/export"
	"github.com/hamed0406/domainclassifier/internal/probe"
)

func main() {
	var (
		in          = flag.String("in", "-", "file with one domain per line (- for stdin)")
		out         = flag.String("out", "-", "output file (- for stdout)")
		format      = flag.String("format", "jsonl", "output format: jsonl, csv or xlsx")
		concurrency = flag.Int("concurrency", 16, "max classifications in flight")
		rps         = flag.Float64("rps", 0, "max classifications started per second (0 = unlimited)")
		retries     = flag.Int("retries", 1, "attempts per domain while the result is DOWN")
		quiet       = flag.Bool("q", false, "no progress or summary on stderr")
	)
	flag.Parse()

	if err := run(*in, *out, *format, *concurrency, *rps, *retries, *quiet); err != nil {
		color.New(color.FgRed).Fprintln(os.Stderr, "✖", err)
		os.Exit(1)
	}
}

func run(in, out, format string, concurrency int, rps float64, retries int, quiet bool) (err error) {
	if format == "xlsx" && out == "-" {
		return fmt.Errorf("xlsx output needs -out")
	}

	src := io.Reader(os.Stdin)
	if in != "-" {
		f, ferr := os.Open(in)
		if ferr != nil {
			return ferr
		}
		defer f.Close()
		src = f
	}
	domains, err := readDomains(src)
	if err != nil {
		return fmt.Errorf("read domains: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	var checker probe.Checker = probe.NewClassifier(cfg.ProbeOptions(), nil, nil)
	if retries > 1 {
		checker = &probe.RetryClassifier{Inner: checker, Attempts: retries, Backoff: cfg.RetryBackoff}
	}

	var lim *rate.Limiter
	if rps > 0 {
		lim = rate.NewLimiter(rate.Limit(rps), 1)
	}

	start := time.Now()
	var finished atomic.Int64
	progress := func(probe.Result) {
		if n := finished.Add(1); !quiet && (n%100 == 0 || int(n) == len(domains)) {
			fmt.Fprintf(os.Stderr, "\r%d/%d classified", n, len(domains))
		}
	}
	results := classifyAll(ctx, checker, domains, concurrency, lim, progress)
	if !quiet && len(domains) > 0 {
		fmt.Fprintln(os.Stderr)
	}

	dst := io.Writer(os.Stdout)
	if out != "-" {
		f, ferr := os.Create(out)
		if ferr != nil {
			return ferr
		}
		defer func() { err = multierr.Append(err, f.Close()) }()
		dst = f
	}
	if err := export.Write(dst, format, results); err != nil {
		return fmt.Errorf("write %s: %w", format, err)
	}

	if !quiet {
		summary(os.Stderr, results, time.Since(start))
	}
	return nil
}

var statusColor = map[probe.Status]*color.Color{
	probe.Active:     color.New(color.FgGreen),
	probe.NoContent:  color.New(color.FgYellow),
	probe.Redirected: color.New(color.FgCyan),
	probe.Down:       color.New(color.FgRed),
}

func summary(w io.Writer, results []probe.Result, took time.Duration) {
	counts := tally(results)
	for _, s := range []probe.Status{probe.Active, probe.NoContent, probe.Redirected, probe.Down} {
		statusColor[s].Fprintf(w, "%-11s %d\n", s, counts[s])
	}
	color.New(color.FgHiBlack).Fprintf(w, "%d domains in %s\n", len(results), took.Round(time.Millisecond))
}
