package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/hamed0406/domainclassifier/internal/probe"
)

func TestTarget_JSONRoundTrip(t *testing.T) {
	want := Target{
		ID:        TargetID("T1"),
		Domain:    "example.com",
		CreatedAt: time.Date(2025, 8, 18, 12, 0, 0, 0, time.UTC),
	}
	b, err := json.Marshal(want)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var got Target
	if err := json.Unmarshal(b, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if got.ID != want.ID || got.Domain != want.Domain || !got.CreatedAt.Equal(want.CreatedAt) {
		t.Fatalf("mismatch after round-trip:\nwant=%+v\ngot =%+v", want, got)
	}
}

func TestNewClassification_CopiesResult(t *testing.T) {
	r := probe.Result{
		Domain:     "example.com",
		Status:     probe.NoContent,
		Remark:     "NO_CONTENT",
		Notes:      "Thin content (7 words)",
		HTTPStatus: 200,
		Words:      7,
		LatencyMS:  12.5,
	}
	at := time.Date(2025, 8, 18, 12, 0, 0, 0, time.FixedZone("X", 3600))
	c := NewClassification("T1", r, at)

	if c.Status != "NO_CONTENT" || c.Remark != "NO_CONTENT" || c.Notes != r.Notes {
		t.Fatalf("status fields not copied: %+v", c)
	}
	if c.Words != 7 || c.HTTPStatus != 200 || c.TargetID != "T1" {
		t.Fatalf("diagnostics not copied: %+v", c)
	}
	if c.CheckedAt.Location() != time.UTC || !c.CheckedAt.Equal(at) {
		t.Fatalf("checked_at should be UTC of input, got %v", c.CheckedAt)
	}
	if c.Active() {
		t.Fatalf("NO_CONTENT is not active")
	}
}
