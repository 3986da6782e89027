package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"tabbook/backend/internal/domain"
	"tabbook/backend/internal/pricing"
	"tabbook/backend/internal/store"
	"tabbook/backend/internal/xid"
)

type batchDelta struct {
	revenue  decimal.Decimal
	servings int
}

// Checkout settles a tab. Records, batch counters and the tab removal are
// computed on copies and committed together; unit stock was already taken
// when the lines were added.
func (s *Service) Checkout(ctx context.Context, tabID string) (domain.CheckoutReceipt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.guestIndex(tabID)
	if idx < 0 {
		return domain.CheckoutReceipt{}, store.ErrNotFound
	}
	guest := s.st.guests[idx]
	remainingGuests := append(s.st.guests[:idx:idx], s.st.guests[idx+1:]...)

	if len(guest.Items) == 0 {
		s.st.guests = remainingGuests
		s.metrics.OpenTabs.Set(float64(len(s.st.guests)))
		s.persist(ctx, store.CollectionGuests)
		return domain.CheckoutReceipt{
			GuestID:      guest.ID,
			CustomerName: guest.Name,
			Subtotal:     decimal.Zero,
			Discount:     guest.Discount,
			Total:        decimal.Zero,
			Records:      []domain.SaleRecord{},
		}, nil
	}

	now := s.now()
	txID := xid.New("tx")
	date := now.In(s.loc).Format(dateLayout)
	stamp := now.UTC()

	records := make([]domain.SaleRecord, 0, len(guest.Items)+1)
	deltas := make(map[string]batchDelta)
	for _, line := range guest.Items {
		result := pricing.Line(line)
		records = append(records, domain.SaleRecord{
			TransactionID: txID,
			ItemID:        line.ItemID,
			Name:          displayName(line),
			CustomerName:  guest.Name,
			Type:          domain.RecordType(line.Type),
			Profit:        result.Profit,
			Price:         result.Revenue,
			Date:          date,
			Timestamp:     stamp,
		})
		if result.BatchServing {
			delta := deltas[line.ItemID]
			delta.revenue = delta.revenue.Add(result.BatchRevenue)
			delta.servings++
			deltas[line.ItemID] = delta
		}
	}

	totals := pricing.Totals(guest)
	if guest.Discount.IsPositive() {
		records = append(records, domain.SaleRecord{
			TransactionID: txID,
			ItemID:        domain.DiscountItemID,
			Name:          "Discount",
			CustomerName:  guest.Name,
			Type:          domain.RecordDiscount,
			Profit:        guest.Discount.Neg(),
			Price:         guest.Discount.Neg(),
			Date:          date,
			Timestamp:     stamp,
		})
	}

	inventory, touched := applyBatchDeltas(s.st.inventory, deltas)
	sales := make([]domain.SaleRecord, 0, len(s.st.sales)+len(records))
	sales = append(sales, s.st.sales...)
	sales = append(sales, records...)

	s.st.inventory = inventory
	s.st.sales = sales
	s.st.guests = remainingGuests

	collections := []store.Collection{store.CollectionSales, store.CollectionGuests}
	if len(touched) > 0 {
		collections = append(collections, store.CollectionInventory)
	}
	s.persist(ctx, collections...)
	for _, item := range touched {
		s.pushMirror(ctx, mirrorUpdate, item)
	}

	s.metrics.Checkouts.Inc()
	s.metrics.OpenTabs.Set(float64(len(s.st.guests)))
	for _, record := range records {
		s.metrics.SaleRecords.WithLabelValues(string(record.Type)).Inc()
	}
	s.logger.Info("tab checked out", "tab", guest.ID, "transaction", txID, "total", totals.Total.String())

	out := make([]domain.SaleRecord, len(records))
	copy(out, records)
	return domain.CheckoutReceipt{
		TransactionID: txID,
		GuestID:       guest.ID,
		CustomerName:  guest.Name,
		Subtotal:      totals.Subtotal,
		Discount:      totals.Discount,
		Total:         totals.Total,
		Records:       out,
	}, nil
}

// applyBatchDeltas is the only writer of KegRevenue and GlassesSold. It
// returns a new inventory slice plus the items it changed; deltas for items
// that are no longer stocked are dropped.
func applyBatchDeltas(inventory []domain.InventoryItem, deltas map[string]batchDelta) ([]domain.InventoryItem, []domain.InventoryItem) {
	out := make([]domain.InventoryItem, len(inventory))
	copy(out, inventory)
	if len(deltas) == 0 {
		return out, nil
	}

	var touched []domain.InventoryItem
	for i := range out {
		delta, ok := deltas[out[i].ID]
		if !ok {
			continue
		}
		if _, isBatch := out[i].Costing().BatchCost(); !isBatch {
			continue
		}
		out[i].KegRevenue = out[i].KegRevenue.Add(delta.revenue)
		out[i].GlassesSold += delta.servings
		touched = append(touched, out[i])
	}
	return out, touched
}

// FinishBatch closes a keg or food batch: its accumulated revenue minus its
// total cost goes to the ledger and the item leaves the inventory. The
// product history entry stays for restocking.
func (s *Service) FinishBatch(ctx context.Context, itemID string) (domain.SaleRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.itemIndex(itemID)
	if idx < 0 {
		return domain.SaleRecord{}, store.ErrNotFound
	}
	item := s.st.inventory[idx]
	profit, ok := pricing.BatchProfit(item)
	if !ok {
		return domain.SaleRecord{}, fmt.Errorf("%w: only batch items can be finished", store.ErrValidation)
	}

	now := s.now()
	record := domain.SaleRecord{
		TransactionID: xid.New("tx"),
		ItemID:        item.ID,
		Name:          item.Name,
		CustomerName:  domain.SystemSettlementName,
		Type:          domain.RecordKegCost,
		Profit:        profit,
		Price:         decimal.Zero,
		Date:          now.In(s.loc).Format(dateLayout),
		Timestamp:     now.UTC(),
	}

	s.st.sales = append(s.st.sales, record)
	s.st.inventory = append(s.st.inventory[:idx:idx], s.st.inventory[idx+1:]...)
	collections := []store.Collection{store.CollectionSales, store.CollectionInventory}
	if s.registerHistory(item) {
		collections = append(collections, store.CollectionProductHistory)
	}
	s.persist(ctx, collections...)
	s.pushMirror(ctx, mirrorRemove, item)

	s.metrics.BatchesFinished.Inc()
	s.metrics.SaleRecords.WithLabelValues(string(record.Type)).Inc()
	s.logger.Info("batch finished", "item", item.ID, "name", item.Name, "profit", profit.String(), "servings", item.GlassesSold)
	return record, nil
}

// AddCost adds spend to an open batch. It creates no ledger entry; the
// spend is realized when the batch is finished.
func (s *Service) AddCost(ctx context.Context, itemID string, amount decimal.Decimal) (domain.InventoryItem, error) {
	if !amount.IsPositive() {
		return domain.InventoryItem{}, fmt.Errorf("%w: amount must be positive", store.ErrValidation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.itemIndex(itemID)
	if idx < 0 {
		return domain.InventoryItem{}, store.ErrNotFound
	}
	item := &s.st.inventory[idx]
	batchCost, ok := item.Costing().BatchCost()
	if !ok {
		return domain.InventoryItem{}, fmt.Errorf("%w: cost can only be added to batch items", store.ErrValidation)
	}
	item.Cost = batchCost.Add(amount)
	updated := cloneItem(*item)

	s.persist(ctx, store.CollectionInventory)
	s.pushMirror(ctx, mirrorUpdate, updated)
	return updated, nil
}

// displayName appends the line's addons, e.g. "Burger (+Cheese, Bacon)".
func displayName(line domain.OrderLine) string {
	if len(line.SelectedAddons) == 0 {
		return line.Name
	}
	names := make([]string, 0, len(line.SelectedAddons))
	for _, addon := range line.SelectedAddons {
		names = append(names, addon.Name)
	}
	return fmt.Sprintf("%s (+%s)", line.Name, strings.Join(names, ", "))
}
