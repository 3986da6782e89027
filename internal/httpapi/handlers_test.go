package httpapi

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"tabbook/backend/internal/domain"
	"tabbook/backend/internal/logging"
	"tabbook/backend/internal/metrics"
	"tabbook/backend/internal/service"
	"tabbook/backend/internal/store/memory"
)

var fixedNow = time.Date(2026, time.March, 14, 19, 30, 0, 0, time.UTC)

// newTestAPI builds a full API over an in-memory store so handler tests
// exercise the complete request path.
func newTestAPI(t *testing.T) *API {
	t.Helper()

	m := metrics.New()
	svc := service.New(memory.New(),
		service.WithClock(func() time.Time { return fixedNow }),
		service.WithLocation(time.UTC),
		service.WithLogger(logging.New(io.Discard, slog.LevelError)),
		service.WithMetrics(m),
	)
	api := New(svc, m, "*")
	api.logger = logging.New(io.Discard, slog.LevelError)
	return api
}

func doJSON(t *testing.T, handler http.Handler, method string, path string, body string) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, dest any) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(dest); err != nil {
		t.Fatalf("decode body: %v", err)
	}
}

func createItem(t *testing.T, handler http.Handler, body string) domain.InventoryItem {
	t.Helper()
	rec := doJSON(t, handler, http.MethodPost, "/api/v1/inventory", body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create item: expected 201, got %d body=%s", rec.Code, rec.Body.String())
	}
	var item domain.InventoryItem
	decodeBody(t, rec, &item)
	return item
}

func openTab(t *testing.T, handler http.Handler, name string) domain.Guest {
	t.Helper()
	rec := doJSON(t, handler, http.MethodPost, "/api/v1/tabs", `{"name":"`+name+`","type":"guest"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("open tab: expected 201, got %d body=%s", rec.Code, rec.Body.String())
	}
	var guest domain.Guest
	decodeBody(t, rec, &guest)
	return guest
}

func TestHandleHealth(t *testing.T) {
	handler := newTestAPI(t).Handler()

	rec := doJSON(t, handler, http.MethodGet, "/healthz", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var body map[string]any
	decodeBody(t, rec, &body)
	if body["ok"] != true {
		t.Fatalf("expected ok:true, got %v", body["ok"])
	}
	if _, ok := body["at"].(string); !ok {
		t.Fatalf("expected at timestamp, got %v", body["at"])
	}
}

func TestSecurityAndCORSHeaders(t *testing.T) {
	handler := newTestAPI(t).Handler()

	rec := doJSON(t, handler, http.MethodOptions, "/api/v1/tabs", "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204 for preflight, got %d", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("unexpected allow-origin %q", got)
	}
	if got := rec.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Fatalf("unexpected nosniff header %q", got)
	}
}

func TestTabCheckoutFlow(t *testing.T) {
	handler := newTestAPI(t).Handler()

	wine := createItem(t, handler, `{"name":"Wine","cost":40,"price":100,"stock":2}`)
	tab := openTab(t, handler, "Dana")

	linesPath := "/api/v1/tabs/" + tab.ID + "/lines"
	for i := 0; i < 2; i++ {
		rec := doJSON(t, handler, http.MethodPost, linesPath, `{"item_id":"`+wine.ID+`"}`)
		if rec.Code != http.StatusCreated {
			t.Fatalf("add line %d: expected 201, got %d body=%s", i, rec.Code, rec.Body.String())
		}
	}

	rec := doJSON(t, handler, http.MethodPost, linesPath, `{"item_id":"`+wine.ID+`"}`)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 when out of stock, got %d", rec.Code)
	}

	rec = doJSON(t, handler, http.MethodPut, "/api/v1/tabs/"+tab.ID+"/discount", `{"discount":"50"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("set discount: expected 200, got %d body=%s", rec.Code, rec.Body.String())
	}
	var totals domain.TabTotals
	decodeBody(t, rec, &totals)
	if !totals.Total.Equal(decimal.NewFromInt(150)) {
		t.Fatalf("expected total 150, got %s", totals.Total)
	}

	rec = doJSON(t, handler, http.MethodPost, "/api/v1/tabs/"+tab.ID+"/checkout", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("checkout: expected 200, got %d body=%s", rec.Code, rec.Body.String())
	}
	var receipt domain.CheckoutReceipt
	decodeBody(t, rec, &receipt)
	// The discount record rides along with the two sale lines.
	if len(receipt.Records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(receipt.Records))
	}
	if !receipt.Total.Equal(decimal.NewFromInt(150)) {
		t.Fatalf("expected receipt total 150, got %s", receipt.Total)
	}

	rec = doJSON(t, handler, http.MethodGet, "/api/v1/tabs/"+tab.ID, "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("closed tab should be gone, got %d", rec.Code)
	}

	rec = doJSON(t, handler, http.MethodGet, "/api/v1/reports/daily", "")
	var daily struct {
		Dates []domain.DateGroup `json:"dates"`
	}
	decodeBody(t, rec, &daily)
	if len(daily.Dates) != 1 || daily.Dates[0].Date != "2026-03-14" {
		t.Fatalf("unexpected daily grouping: %+v", daily.Dates)
	}
	if len(daily.Dates[0].Transactions) != 1 {
		t.Fatalf("expected one transaction, got %d", len(daily.Dates[0].Transactions))
	}
}

func TestLineMutationOnMissingLineIsNoop(t *testing.T) {
	handler := newTestAPI(t).Handler()
	tab := openTab(t, handler, "Mika")

	paths := []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/api/v1/tabs/" + tab.ID + "/lines/missing/toggle-treat"},
		{http.MethodPost, "/api/v1/tabs/" + tab.ID + "/lines/missing/toggle-tasting"},
		{http.MethodPost, "/api/v1/tabs/" + tab.ID + "/lines/missing/toggle-served"},
		{http.MethodDelete, "/api/v1/tabs/" + tab.ID + "/lines/missing"},
		{http.MethodDelete, "/api/v1/tabs/no-such-tab/lines/missing"},
	}
	for _, tc := range paths {
		rec := doJSON(t, handler, tc.method, tc.path, "")
		if rec.Code != http.StatusOK {
			t.Fatalf("%s %s: expected 200, got %d", tc.method, tc.path, rec.Code)
		}
		var body map[string]any
		decodeBody(t, rec, &body)
		if body["applied"] != false {
			t.Fatalf("%s %s: expected applied=false, got %v", tc.method, tc.path, body["applied"])
		}
	}
}

func TestToggleTreatReturnsLine(t *testing.T) {
	handler := newTestAPI(t).Handler()
	beer := createItem(t, handler, `{"name":"Stout","cost":"2.5","price":"6","stock":5}`)
	tab := openTab(t, handler, "Ari")

	rec := doJSON(t, handler, http.MethodPost, "/api/v1/tabs/"+tab.ID+"/lines", `{"item_id":"`+beer.ID+`"}`)
	var line domain.OrderLine
	decodeBody(t, rec, &line)

	rec = doJSON(t, handler, http.MethodPost, "/api/v1/tabs/"+tab.ID+"/lines/"+line.OrderID+"/toggle-treat", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body struct {
		Applied bool             `json:"applied"`
		Line    domain.OrderLine `json:"line"`
	}
	decodeBody(t, rec, &body)
	if !body.Applied || body.Line.Type != domain.LineTreat {
		t.Fatalf("expected applied treat line, got %+v", body)
	}
}

func TestCreateItemValidation(t *testing.T) {
	handler := newTestAPI(t).Handler()

	rec := doJSON(t, handler, http.MethodPost, "/api/v1/inventory", `{"name":"Wine","colour":"red"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unknown field: expected 400, got %d", rec.Code)
	}

	rec = doJSON(t, handler, http.MethodPost, "/api/v1/inventory", `{"name":"  ","price":5}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("blank name: expected 400, got %d", rec.Code)
	}
}

func TestUnknownItemIsNotFound(t *testing.T) {
	handler := newTestAPI(t).Handler()

	rec := doJSON(t, handler, http.MethodPost, "/api/v1/inventory/nope/finish", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestExportSalesCSV(t *testing.T) {
	handler := newTestAPI(t).Handler()
	wine := createItem(t, handler, `{"name":"Wine","cost":40,"price":100,"stock":2}`)
	tab := openTab(t, handler, "Dana")
	doJSON(t, handler, http.MethodPost, "/api/v1/tabs/"+tab.ID+"/lines", `{"item_id":"`+wine.ID+`"}`)
	doJSON(t, handler, http.MethodPost, "/api/v1/tabs/"+tab.ID+"/checkout", "")

	rec := doJSON(t, handler, http.MethodGet, "/api/v1/export/sales?clear=true", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got := rec.Header().Get("Content-Type"); got != "text/csv; charset=utf-8" {
		t.Fatalf("unexpected content type %q", got)
	}
	if got := rec.Header().Get("Content-Disposition"); !strings.Contains(got, "attachment") || !strings.Contains(got, ".csv") {
		t.Fatalf("unexpected disposition %q", got)
	}
	if !strings.Contains(rec.Body.String(), `"Wine"`) {
		t.Fatalf("expected quoted item name in export: %s", rec.Body.String())
	}

	// A GET never clears the log.
	rec = doJSON(t, handler, http.MethodGet, "/api/v1/sales", "")
	var sales struct {
		Records []domain.SaleRecord `json:"records"`
	}
	decodeBody(t, rec, &sales)
	if len(sales.Records) != 1 {
		t.Fatalf("expected sales log intact, got %d records", len(sales.Records))
	}

	doJSON(t, handler, http.MethodPost, "/api/v1/export/sales?clear=true", "")
	rec = doJSON(t, handler, http.MethodGet, "/api/v1/sales", "")
	decodeBody(t, rec, &sales)
	if len(sales.Records) != 0 {
		t.Fatalf("expected cleared sales log, got %d records", len(sales.Records))
	}
}

func TestMonthlyReportLimit(t *testing.T) {
	handler := newTestAPI(t).Handler()
	for _, month := range []string{"2026-01", "2026-02", "2026-03"} {
		rec := doJSON(t, handler, http.MethodPost, "/api/v1/manual-entries", `{"month":"`+month+`","profit":10}`)
		if rec.Code != http.StatusCreated {
			t.Fatalf("manual entry %s: expected 201, got %d body=%s", month, rec.Code, rec.Body.String())
		}
	}

	rec := doJSON(t, handler, http.MethodGet, "/api/v1/reports/monthly?limit=2", "")
	var body struct {
		Months []domain.MonthBucket `json:"months"`
	}
	decodeBody(t, rec, &body)
	if len(body.Months) != 2 || body.Months[0].Month != "2026-02" || body.Months[1].Month != "2026-03" {
		t.Fatalf("unexpected months: %+v", body.Months)
	}
}

func TestActiveViewRoundTrip(t *testing.T) {
	handler := newTestAPI(t).Handler()

	rec := doJSON(t, handler, http.MethodPut, "/api/v1/ui/active-view", `{"view":"reports"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rec.Code, rec.Body.String())
	}
	rec = doJSON(t, handler, http.MethodGet, "/api/v1/ui/active-view", "")
	var body map[string]string
	decodeBody(t, rec, &body)
	if body["view"] != "reports" {
		t.Fatalf("expected view reports, got %q", body["view"])
	}
}

func TestMetricsEndpoint(t *testing.T) {
	handler := newTestAPI(t).Handler()

	rec := doJSON(t, handler, http.MethodGet, "/metrics", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "tabbook_") {
		t.Fatalf("expected tabbook metrics in scrape output")
	}
}

func TestParsePositiveLimit(t *testing.T) {
	cases := []struct {
		raw  string
		want int
	}{
		{"", 12},
		{"abc", 12},
		{"-3", 12},
		{"5", 5},
		{"500", 120},
	}
	for _, tc := range cases {
		if got := parsePositiveLimit(tc.raw, 12, 120); got != tc.want {
			t.Fatalf("parsePositiveLimit(%q) = %d, want %d", tc.raw, got, tc.want)
		}
	}
}
