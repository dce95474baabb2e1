package probe

import (
	"context"
	"strings"
	"testing"
	"time"
)

// fake checker you can control
type fakeChecker struct {
	results []Result
	i       int
}

func (f *fakeChecker) Classify(ctx context.Context, domain string) Result {
	if f.i >= len(f.results) {
		return Result{Domain: domain}.failed(NoteConnectionError, KindTransport, nil)
	}
	r := f.results[f.i]
	f.i++
	return r
}

func down(cause string) Result {
	r := Result{Domain: "example.com"}.with(Down, NoteConnectionError)
	r.Cause = cause
	return r
}

func TestRetryClassifier_SucceedsAfterRetry(t *testing.T) {
	f := &fakeChecker{
		results: []Result{
			down("first fail"),
			Result{Domain: "example.com"}.with(Active, NoteActive),
		},
	}
	rc := &RetryClassifier{Inner: f, Attempts: 3, Backoff: 10 * time.Millisecond}
	out := rc.Classify(context.Background(), "example.com")
	if out.Status != Active {
		t.Fatalf("expected ACTIVE after retry, got %+v", out)
	}
	if f.i != 2 {
		t.Fatalf("expected 2 attempts, got %d", f.i)
	}
}

func TestRetryClassifier_DoesNotRetryAnswers(t *testing.T) {
	f := &fakeChecker{
		results: []Result{Result{Domain: "example.com"}.with(Redirected, "Lands on other.com")},
	}
	rc := &RetryClassifier{Inner: f, Attempts: 3}
	out := rc.Classify(context.Background(), "example.com")
	if out.Status != Redirected || f.i != 1 {
		t.Fatalf("expected single REDIRECTED attempt, got %+v after %d", out, f.i)
	}
}

func TestRetryClassifier_AllFailAnnotatesCause(t *testing.T) {
	f := &fakeChecker{results: []Result{down("fail1"), down("fail2")}}
	rc := &RetryClassifier{Inner: f, Attempts: 2}
	out := rc.Classify(context.Background(), "example.com")
	if out.Status != Down || out.Notes != NoteConnectionError {
		t.Fatalf("expected DOWN with unchanged notes, got %+v", out)
	}
	if !strings.HasSuffix(out.Cause, "(after retries)") {
		t.Fatalf("expected cause annotation, got %q", out.Cause)
	}
}

func TestRetryClassifier_StopsOnCancel(t *testing.T) {
	f := &fakeChecker{results: []Result{down("a"), down("b"), down("c")}}
	rc := &RetryClassifier{Inner: f, Attempts: 3, Backoff: time.Hour}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	out := rc.Classify(ctx, "example.com")
	if out.Status != Down || f.i != 1 {
		t.Fatalf("expected one attempt then stop, got %d attempts", f.i)
	}
}
