package service

import (
	"context"

	"tabbook/backend/internal/domain"
	"tabbook/backend/internal/export"
	"tabbook/backend/internal/ledger"
	"tabbook/backend/internal/store"
)

func (s *Service) ListSales() []domain.SaleRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.SaleRecord, len(s.st.sales))
	copy(out, s.st.sales)
	return out
}

func (s *Service) SalesByDate() []domain.DateGroup {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ledger.GroupByDate(s.st.sales)
}

func (s *Service) MonthlyReport(limit int) []domain.MonthBucket {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ledger.MonthlyRollup(s.st.sales, s.st.expenses, s.st.manual, limit)
}

// DailyReport breaks month (YYYY-MM, default current month) down by day.
func (s *Service) DailyReport(month string) []domain.DayBucket {
	s.mu.Lock()
	defer s.mu.Unlock()

	month = defaultString(trim(month), s.now().In(s.loc).Format(monthLayout))
	return ledger.DailyBreakdown(s.st.sales, s.st.expenses, month)
}

func (s *Service) Totals() domain.Totals {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ledger.ComputeTotals(s.st.inventory, s.st.sales, s.st.expenses)
}

// Export is a rendered CSV file.
type Export struct {
	Filename string
	Body     []byte
}

// ExportSales renders the sales log. With clearLog set the log is emptied once
// the file has been rendered; this is the only way records are removed.
func (s *Service) ExportSales(ctx context.Context, clearLog bool) (Export, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	body, err := export.CSV(s.st.sales)
	if err != nil {
		return Export{}, err
	}
	if clearLog && len(s.st.sales) > 0 {
		s.logger.Info("sales log cleared after export", "records", len(s.st.sales))
		s.st.sales = []domain.SaleRecord{}
		s.persist(ctx, store.CollectionSales)
	}
	return Export{Filename: export.Filename("sales", s.now().In(s.loc)), Body: body}, nil
}

func (s *Service) ExportExpenses() (Export, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	body, err := export.CSV(s.st.expenses)
	if err != nil {
		return Export{}, err
	}
	return Export{Filename: export.Filename("expenses", s.now().In(s.loc)), Body: body}, nil
}

func (s *Service) ExportInventory() (Export, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	body, err := export.CSV(s.st.inventory)
	if err != nil {
		return Export{}, err
	}
	return Export{Filename: export.Filename("inventory", s.now().In(s.loc)), Body: body}, nil
}
