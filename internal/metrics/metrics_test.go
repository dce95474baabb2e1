package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/hamed0406/domainclassifier/internal/probe"
)

func TestObserve_CountsByStatus(t *testing.T) {
	before := testutil.ToFloat64(Classifications.WithLabelValues("REDIRECTED", ""))
	Observe(probe.Result{Status: probe.Redirected, LatencyMS: 12})
	after := testutil.ToFloat64(Classifications.WithLabelValues("REDIRECTED", ""))
	if after-before != 1 {
		t.Fatalf("want counter +1, got %v -> %v", before, after)
	}
}

func TestHandler_ExposesMetrics(t *testing.T) {
	Observe(probe.Result{Status: probe.Active, LatencyMS: 5})
	rr := httptest.NewRecorder()
	Handler().ServeHTTP(rr, httptest.NewRequest("GET", "/metrics", nil))
	if rr.Code != 200 {
		t.Fatalf("want 200, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "domainclassifier_classifications_total") {
		t.Fatalf("metric family missing from output")
	}
}
