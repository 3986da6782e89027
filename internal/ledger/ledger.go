// Package ledger projects the sales log, expenses and manual entries into
// reports. Every function is pure and order independent in its sums.
package ledger

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"tabbook/backend/internal/domain"
)

const (
	DateLayout  = "2006-01-02"
	MonthLayout = "2006-01"

	DefaultMonthLimit = 12
)

func GroupByDate(records []domain.SaleRecord) []domain.DateGroup {
	byDate := make(map[string]map[string]*domain.TransactionSummary)
	for _, record := range records {
		txs, ok := byDate[record.Date]
		if !ok {
			txs = make(map[string]*domain.TransactionSummary)
			byDate[record.Date] = txs
		}
		summary, ok := txs[record.TransactionID]
		if !ok {
			summary = &domain.TransactionSummary{
				TransactionID: record.TransactionID,
				CustomerName:  record.CustomerName,
				Total:         decimal.Zero,
				Profit:        decimal.Zero,
			}
			txs[record.TransactionID] = summary
		}
		summary.Total = summary.Total.Add(record.Price)
		summary.Profit = summary.Profit.Add(record.Profit)
		summary.Records = append(summary.Records, record)
	}

	dates := make([]string, 0, len(byDate))
	for date := range byDate {
		dates = append(dates, date)
	}
	sort.Slice(dates, func(i, j int) bool {
		return dateAfter(dates[i], dates[j])
	})

	groups := make([]domain.DateGroup, 0, len(dates))
	for _, date := range dates {
		txs := byDate[date]
		group := domain.DateGroup{Date: date, Transactions: make([]domain.TransactionSummary, 0, len(txs))}
		for _, summary := range txs {
			group.Transactions = append(group.Transactions, *summary)
		}
		sort.Slice(group.Transactions, func(i, j int) bool {
			return group.Transactions[i].TransactionID > group.Transactions[j].TransactionID
		})
		groups = append(groups, group)
	}
	return groups
}

// dateAfter orders parseable dates newest first and pushes anything that
// does not parse to the end.
func dateAfter(a, b string) bool {
	ta, errA := time.Parse(DateLayout, a)
	tb, errB := time.Parse(DateLayout, b)
	switch {
	case errA != nil && errB != nil:
		return a < b
	case errA != nil:
		return false
	case errB != nil:
		return true
	default:
		return ta.After(tb)
	}
}

// MonthlyRollup returns the most recent limit months in ascending order. A
// month gets a bucket if it has sales, expenses or a manual entry.
func MonthlyRollup(records []domain.SaleRecord, expenses []domain.ExpenseRecord, manual []domain.ManualMonthlyEntry, limit int) []domain.MonthBucket {
	if limit <= 0 {
		limit = DefaultMonthLimit
	}

	buckets := make(map[string]*domain.MonthBucket)
	bucket := func(month, source string) *domain.MonthBucket {
		b, ok := buckets[month]
		if !ok {
			b = &domain.MonthBucket{
				Month:    month,
				Revenue:  decimal.Zero,
				Profit:   decimal.Zero,
				Expenses: decimal.Zero,
				Manual:   decimal.Zero,
				Source:   source,
			}
			buckets[month] = b
		}
		return b
	}

	for _, record := range records {
		b := bucket(recordMonth(record), domain.BucketSourceSystem)
		b.Source = domain.BucketSourceSystem
		b.Revenue = b.Revenue.Add(record.Price)
		b.Profit = b.Profit.Add(record.Profit)
	}

	for _, entry := range manual {
		month, ok := normalizeMonth(entry.Month)
		if !ok {
			continue
		}
		b := bucket(month, domain.BucketSourceManual)
		b.Manual = b.Manual.Add(entry.Profit)
		b.Profit = b.Profit.Add(entry.Profit)
	}

	for _, expense := range expenses {
		month, ok := expenseMonth(expense)
		if !ok {
			continue
		}
		b := bucket(month, domain.BucketSourceExpenses)
		b.Expenses = b.Expenses.Add(expense.Amount)
		b.Profit = b.Profit.Sub(expense.Amount)
	}

	months := make([]string, 0, len(buckets))
	for month := range buckets {
		months = append(months, month)
	}
	sort.Strings(months)
	if len(months) > limit {
		months = months[len(months)-limit:]
	}

	out := make([]domain.MonthBucket, 0, len(months))
	for _, month := range months {
		out = append(out, *buckets[month])
	}
	return out
}

// DailyBreakdown reports each day of month (YYYY-MM) that had sales or
// expenses, ascending.
func DailyBreakdown(records []domain.SaleRecord, expenses []domain.ExpenseRecord, month string) []domain.DayBucket {
	month, ok := normalizeMonth(month)
	if !ok {
		return []domain.DayBucket{}
	}

	days := make(map[string]*domain.DayBucket)
	txSeen := make(map[string]map[string]struct{})
	day := func(date string) *domain.DayBucket {
		d, ok := days[date]
		if !ok {
			d = &domain.DayBucket{Date: date, Revenue: decimal.Zero, Profit: decimal.Zero, Expenses: decimal.Zero}
			days[date] = d
			txSeen[date] = make(map[string]struct{})
		}
		return d
	}

	for _, record := range records {
		if recordMonth(record) != month {
			continue
		}
		d := day(record.Date)
		d.Revenue = d.Revenue.Add(record.Price)
		d.Profit = d.Profit.Add(record.Profit)
		if _, seen := txSeen[record.Date][record.TransactionID]; !seen {
			txSeen[record.Date][record.TransactionID] = struct{}{}
			d.Count++
		}
	}

	for _, expense := range expenses {
		expMonth, ok := expenseMonth(expense)
		if !ok || expMonth != month {
			continue
		}
		d := day(expense.Date)
		d.Expenses = d.Expenses.Add(expense.Amount)
		d.Profit = d.Profit.Sub(expense.Amount)
	}

	dates := make([]string, 0, len(days))
	for date := range days {
		dates = append(dates, date)
	}
	sort.Strings(dates)

	out := make([]domain.DayBucket, 0, len(dates))
	for _, date := range dates {
		out = append(out, *days[date])
	}
	return out
}

// ComputeTotals values unit stock at unit cost. Batch spend is reported on
// its own line since a batch's stock is only an availability flag.
func ComputeTotals(inventory []domain.InventoryItem, records []domain.SaleRecord, expenses []domain.ExpenseRecord) domain.Totals {
	totals := domain.Totals{
		TotalInventoryValue:  decimal.Zero,
		BatchCostOutstanding: decimal.Zero,
		TotalRevenue:         decimal.Zero,
		TotalExpenses:        decimal.Zero,
		TotalRealizedProfit:  decimal.Zero,
	}

	for _, item := range inventory {
		costing := item.Costing()
		if unitCost, ok := costing.UnitCost(); ok {
			totals.TotalInventoryValue = totals.TotalInventoryValue.Add(unitCost.Mul(decimal.NewFromInt(int64(item.Stock))))
			continue
		}
		if batchCost, ok := costing.BatchCost(); ok {
			totals.BatchCostOutstanding = totals.BatchCostOutstanding.Add(batchCost)
		}
	}

	profit := decimal.Zero
	for _, record := range records {
		totals.TotalRevenue = totals.TotalRevenue.Add(record.Price)
		profit = profit.Add(record.Profit)
	}
	for _, expense := range expenses {
		totals.TotalExpenses = totals.TotalExpenses.Add(expense.Amount)
	}
	totals.TotalRealizedProfit = profit.Sub(totals.TotalExpenses)
	return totals
}

// recordMonth prefers the settlement date stamped on the record, which is
// already in the shop's local time.
func recordMonth(record domain.SaleRecord) string {
	if parsed, err := time.Parse(DateLayout, record.Date); err == nil {
		return parsed.Format(MonthLayout)
	}
	return record.Timestamp.UTC().Format(MonthLayout)
}

func expenseMonth(expense domain.ExpenseRecord) (string, bool) {
	parsed, err := time.Parse(DateLayout, expense.Date)
	if err != nil {
		return "", false
	}
	return parsed.Format(MonthLayout), true
}

func normalizeMonth(month string) (string, bool) {
	parsed, err := time.Parse(MonthLayout, month)
	if err != nil {
		return "", false
	}
	return parsed.Format(MonthLayout), true
}
