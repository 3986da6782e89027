package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"tabbook/backend/internal/domain"
	"tabbook/backend/internal/store"
	"tabbook/backend/internal/xid"
)

func (s *Service) AddExpense(ctx context.Context, req domain.ExpenseCreateRequest) (domain.ExpenseRecord, error) {
	req.Category = trim(req.Category)
	req.Note = trim(req.Note)
	req.Date = trim(req.Date)

	if req.Category == "" {
		return domain.ExpenseRecord{}, fmt.Errorf("%w: category is required", store.ErrValidation)
	}
	if !req.Amount.IsPositive() {
		return domain.ExpenseRecord{}, fmt.Errorf("%w: amount must be positive", store.ErrValidation)
	}
	if req.Date != "" {
		if _, err := time.Parse(dateLayout, req.Date); err != nil {
			return domain.ExpenseRecord{}, fmt.Errorf("%w: date must be YYYY-MM-DD", store.ErrValidation)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	expense := domain.ExpenseRecord{
		ID:        xid.New("exp"),
		Category:  req.Category,
		Amount:    req.Amount,
		Date:      defaultString(req.Date, s.today()),
		Note:      req.Note,
		CreatedAt: s.now().UTC(),
	}
	s.st.expenses = append(s.st.expenses, expense)
	s.persist(ctx, store.CollectionExpenses)
	return expense, nil
}

func (s *Service) DeleteExpense(ctx context.Context, expenseID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, expense := range s.st.expenses {
		if expense.ID == expenseID {
			s.st.expenses = append(s.st.expenses[:i:i], s.st.expenses[i+1:]...)
			s.persist(ctx, store.CollectionExpenses)
			return nil
		}
	}
	return store.ErrNotFound
}

// ListExpenses returns expenses newest date first.
func (s *Service) ListExpenses() []domain.ExpenseRecord {
	s.mu.Lock()
	out := make([]domain.ExpenseRecord, len(s.st.expenses))
	copy(out, s.st.expenses)
	s.mu.Unlock()

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date > out[j].Date
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

func (s *Service) AddManualEntry(ctx context.Context, req domain.ManualEntryCreateRequest) (domain.ManualMonthlyEntry, error) {
	month, err := time.Parse(monthLayout, trim(req.Month))
	if err != nil {
		return domain.ManualMonthlyEntry{}, fmt.Errorf("%w: month must be YYYY-MM", store.ErrValidation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entry := domain.ManualMonthlyEntry{
		ID:     xid.New("manual"),
		Month:  month.Format(monthLayout),
		Profit: req.Profit,
	}
	s.st.manual = append(s.st.manual, entry)
	s.persist(ctx, store.CollectionManualMonthly)
	return entry, nil
}

func (s *Service) DeleteManualEntry(ctx context.Context, entryID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, entry := range s.st.manual {
		if entry.ID == entryID {
			s.st.manual = append(s.st.manual[:i:i], s.st.manual[i+1:]...)
			s.persist(ctx, store.CollectionManualMonthly)
			return nil
		}
	}
	return store.ErrNotFound
}

func (s *Service) ListManualEntries() []domain.ManualMonthlyEntry {
	s.mu.Lock()
	out := make([]domain.ManualMonthlyEntry, len(s.st.manual))
	copy(out, s.st.manual)
	s.mu.Unlock()

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Month < out[j].Month
	})
	return out
}
