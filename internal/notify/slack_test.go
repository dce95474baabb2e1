package notify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/multierr"
)

func TestSlack_OK(t *testing.T) {
	var got string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]string
		_ = json.NewDecoder(r.Body).Decode(&payload)
		got = payload["text"]
		w.WriteHeader(200)
	}))
	defer ts.Close()

	s := NewSlack(ts.URL)
	if s == nil {
		t.Fatal("expected slack client")
	}
	if err := s.Send(context.Background(), "Title", "Hello"); err != nil {
		t.Fatalf("send err: %v", err)
	}
	if !strings.HasPrefix(got, "*Title*\n") {
		t.Fatalf("payload not as expected: %q", got)
	}
}

func TestSlack_Non2xx(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(500)
	}))
	defer ts.Close()

	if err := NewSlack(ts.URL).Send(context.Background(), "X", "Y"); err == nil {
		t.Fatalf("expected error on non-2xx")
	}
}

func TestSlack_NilIsDisabled(t *testing.T) {
	var s *Slack = NewSlack("")
	if err := s.Send(context.Background(), "X", "Y"); !errors.Is(err, ErrSlackDisabled) {
		t.Fatalf("want ErrSlackDisabled, got %v", err)
	}
}

type countNotifier struct {
	n   int
	err error
}

func (c *countNotifier) Send(context.Context, string, string) error {
	c.n++
	return c.err
}

func TestMulti_SendsToAllAndCombinesErrors(t *testing.T) {
	a := &countNotifier{err: errors.New("a failed")}
	b := &countNotifier{}
	c := &countNotifier{err: errors.New("c failed")}

	err := Multi{a, nil, b, c}.Send(context.Background(), "t", "x")
	if a.n != 1 || b.n != 1 || c.n != 1 {
		t.Fatalf("every notifier should be called once: %d %d %d", a.n, b.n, c.n)
	}
	if len(multierr.Errors(err)) != 2 {
		t.Fatalf("want 2 combined errors, got %v", err)
	}
}
