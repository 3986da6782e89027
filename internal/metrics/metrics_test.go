package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
)

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	if err != nil {
		t.Fatalf("read exposition: %v", err)
	}
	return string(body)
}

func TestCountersAreExposed(t *testing.T) {
	m := New()
	m.Checkouts.Inc()
	m.SaleRecords.WithLabelValues("sale").Add(2)

	body := scrape(t, m)
	if !strings.Contains(body, "tabbook_checkouts_total 1") {
		t.Fatalf("checkout counter missing from exposition:\n%s", body)
	}
	if !strings.Contains(body, `tabbook_sale_records_total{type="sale"} 2`) {
		t.Fatalf("sale record counter missing from exposition:\n%s", body)
	}
}

func TestInstancesAreIndependent(t *testing.T) {
	a := New()
	b := New()
	a.BatchesFinished.Inc()

	if body := scrape(t, b); !strings.Contains(body, "tabbook_batches_finished_total 0") {
		t.Fatalf("metrics leaked between instances:\n%s", body)
	}
}
