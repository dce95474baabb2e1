package probe

import (
	"context"
	"fmt"
	"strings"
)

// Status is the web-presence state of a domain.
type Status int

const (
	Pending Status = iota // initial value, never returned by Classify
	Down
	Redirected
	NoContent
	Active
)

var statusNames = [...]string{
	Pending:    "PENDING",
	Down:       "DOWN",
	Redirected: "REDIRECTED",
	NoContent:  "NO_CONTENT",
	Active:     "ACTIVE",
}

func (s Status) String() string {
	if s < 0 || int(s) >= len(statusNames) {
		return fmt.Sprintf("Status(%d)", int(s))
	}
	return statusNames[s]
}

// Terminal reports whether s may appear in a finished result.
func (s Status) Terminal() bool {
	return s >= Down && s <= Active
}

// ParseStatus is the inverse of Status.String. It is case-insensitive.
func ParseStatus(v string) (Status, error) {
	for i, n := range statusNames {
		if strings.EqualFold(n, strings.TrimSpace(v)) {
			return Status(i), nil
		}
	}
	return Pending, fmt.Errorf("unknown status %q", v)
}

func (s Status) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *Status) UnmarshalText(b []byte) error {
	v, err := ParseStatus(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// ErrorKind records which stage produced a failed result. It is diagnostic
// only; the public contract is Status and Notes.
type ErrorKind int

const (
	KindNone ErrorKind = iota
	KindDNS
	KindTransport
	KindTimeout
	KindRedirectCap
	KindBody
	KindPanic
)

var kindNames = [...]string{
	KindNone:        "",
	KindDNS:         "dns",
	KindTransport:   "transport",
	KindTimeout:     "timeout",
	KindRedirectCap: "redirect_cap",
	KindBody:        "body",
	KindPanic:       "panic",
}

func (k ErrorKind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("ErrorKind(%d)", int(k))
	}
	return kindNames[k]
}

func (k ErrorKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

func (k *ErrorKind) UnmarshalText(b []byte) error {
	for i, n := range kindNames {
		if n == string(b) {
			*k = ErrorKind(i)
			return nil
		}
	}
	return fmt.Errorf("unknown error kind %q", b)
}

// Fixed notes for terminal outcomes.
const (
	NoteDNSFailed       = "DNS Resolve Failed"
	NoteConnectionError = "Connection Error"
	NoteActive          = "Valid site with content"
)

// Result is the outcome of classifying one domain.
//
// Domain, Status, Remark and Notes are the public record. Remark always
// equals Status.String(). The remaining fields are diagnostics filled in
// when the pipeline got far enough to know them.
type Result struct {
	Domain string `json:"domain"`
	Status Status `json:"status"`
	Remark string `json:"remark"`
	Notes  string `json:"notes"`

	Kind        ErrorKind `json:"kind,omitempty"`
	Cause       string    `json:"cause,omitempty"`
	LandingHost string    `json:"landing_host,omitempty"`
	HTTPStatus  int       `json:"http_status,omitempty"`
	Words       int       `json:"words,omitempty"`
	Truncated   bool      `json:"truncated,omitempty"` // body hit MaxBodyBytes
	LatencyMS   float64   `json:"latency_ms"`
}

// with returns a copy of r carrying a terminal status and its notes.
func (r Result) with(s Status, notes string) Result {
	r.Status = s
	r.Remark = s.String()
	r.Notes = notes
	return r
}

// failed returns a DOWN copy of r annotated with the failing stage.
func (r Result) failed(notes string, kind ErrorKind, err error) Result {
	r = r.with(Down, notes)
	r.Kind = kind
	if err != nil {
		r.Cause = err.Error()
	}
	return r
}

// Checker classifies a single domain. Implementations never fail; every
// problem is reported through the returned Result.
type Checker interface {
	Classify(ctx context.Context, domain string) Result
}
