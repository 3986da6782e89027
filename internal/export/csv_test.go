package export

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"tabbook/backend/internal/domain"
)

func TestCSVQuotingAndBOM(t *testing.T) {
	rows := []domain.ExpenseRecord{
		{
			ID:        "exp-1",
			Category:  `Ice "premium"`,
			Amount:    decimal.RequireFromString("12.50"),
			Date:      "2026-03-01",
			Note:      "bags, two",
			CreatedAt: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
		},
	}

	out, err := CSV(rows)
	if err != nil {
		t.Fatalf("csv: %v", err)
	}
	text := string(out)

	if !strings.HasPrefix(text, "\uFEFF") {
		t.Fatalf("missing BOM")
	}
	lines := strings.Split(strings.TrimPrefix(text, "\uFEFF"), "\r\n")
	if len(lines) != 3 || lines[2] != "" {
		t.Fatalf("expected header, one row and trailing CRLF, got %q", lines)
	}
	if lines[0] != `"id","category","amount","date","note","created_at"` {
		t.Fatalf("unexpected header %q", lines[0])
	}
	want := `"exp-1","Ice ""premium""","12.5","2026-03-01","bags, two","2026-03-01T10:00:00Z"`
	if lines[1] != want {
		t.Fatalf("row = %q\nwant  %q", lines[1], want)
	}
}

func TestCSVEmptyRowsStillHasHeader(t *testing.T) {
	out, err := CSV([]domain.SaleRecord{})
	if err != nil {
		t.Fatalf("csv: %v", err)
	}
	if !strings.Contains(string(out), `"transaction_id","item_id"`) {
		t.Fatalf("header missing: %q", out)
	}
}

func TestCSVRejectsNonStructs(t *testing.T) {
	if _, err := CSV([]string{"a"}); err != ErrNotStruct {
		t.Fatalf("expected ErrNotStruct, got %v", err)
	}
}

func TestFilename(t *testing.T) {
	got := Filename("sales", time.Date(2026, 3, 9, 23, 0, 0, 0, time.UTC))
	if got != "sales_2026-03-09.csv" {
		t.Fatalf("unexpected filename %q", got)
	}
}
