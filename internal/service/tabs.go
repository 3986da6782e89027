package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"

	"tabbook/backend/internal/domain"
	"tabbook/backend/internal/pricing"
	"tabbook/backend/internal/store"
	"tabbook/backend/internal/xid"
)

const (
	defaultTastingName = "Tasting"
	startTimeLayout    = "15:04"
)

func (s *Service) OpenTab(ctx context.Context, req domain.TabOpenRequest) (domain.Guest, error) {
	guestType := req.Type
	if guestType != domain.GuestTasting {
		guestType = domain.GuestRegular
	}
	name := trim(req.Name)
	if name == "" && guestType == domain.GuestTasting {
		name = defaultTastingName
	}
	if name == "" {
		return domain.Guest{}, fmt.Errorf("%w: tab name is required", store.ErrValidation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	guest := domain.Guest{
		ID:        xid.New("tab"),
		Name:      name,
		Type:      guestType,
		Items:     []domain.OrderLine{},
		Discount:  decimal.Zero,
		StartTime: now.In(s.loc).Format(startTimeLayout),
		CreatedAt: now.UTC(),
	}
	s.st.guests = append(s.st.guests, guest)
	s.metrics.OpenTabs.Set(float64(len(s.st.guests)))
	s.persist(ctx, store.CollectionGuests)
	return cloneGuest(guest), nil
}

func (s *Service) ListTabs() []domain.Guest {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.Guest, 0, len(s.st.guests))
	for _, guest := range s.st.guests {
		out = append(out, cloneGuest(guest))
	}
	return out
}

func (s *Service) GetTab(tabID string) (domain.Guest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.guestIndex(tabID)
	if idx < 0 {
		return domain.Guest{}, store.ErrNotFound
	}
	return cloneGuest(s.st.guests[idx]), nil
}

func (s *Service) TabTotals(tabID string) (domain.TabTotals, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.guestIndex(tabID)
	if idx < 0 {
		return domain.TabTotals{}, store.ErrNotFound
	}
	return pricing.Totals(s.st.guests[idx]), nil
}

// AddLine puts one serving of an item on a tab. Unit items lose one from
// stock immediately; batch items are only settled at checkout.
func (s *Service) AddLine(ctx context.Context, tabID string, req domain.AddLineRequest) (domain.OrderLine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	guestIdx := s.guestIndex(tabID)
	if guestIdx < 0 {
		return domain.OrderLine{}, store.ErrNotFound
	}
	itemIdx := s.itemIndex(trim(req.ItemID))
	if itemIdx < 0 {
		return domain.OrderLine{}, store.ErrNotFound
	}
	item := s.st.inventory[itemIdx]

	addonIDs := normalizeIDs(req.AddonIDs)
	if len(addonIDs) > 0 && item.Category != domain.CategoryFood {
		return domain.OrderLine{}, fmt.Errorf("%w: addons are only available for food", store.ErrValidation)
	}
	addons := make([]domain.Addon, 0, len(addonIDs))
	price := item.Price
	for _, addonID := range addonIDs {
		addon, ok := s.addonByID(addonID)
		if !ok {
			return domain.OrderLine{}, fmt.Errorf("%w: unknown addon %q", store.ErrValidation, addonID)
		}
		addons = append(addons, addon)
		price = price.Add(addon.Price)
	}

	if item.Kind() == domain.KindUnit && item.Stock <= 0 {
		return domain.OrderLine{}, store.ErrOutOfStock
	}

	guest := &s.st.guests[guestIdx]
	line := domain.OrderLine{
		OrderID:  xid.New("line"),
		ItemID:   item.ID,
		Name:     item.Name,
		Brand:    item.Brand,
		Style:    item.Style,
		Cost:     item.Cost,
		Price:    price,
		IsKeg:    item.IsKeg,
		Category: item.Category,
		Type:     guest.DefaultLineType(),
	}
	if len(addons) > 0 {
		line.SelectedAddons = addons
	}
	guest.Items = append(guest.Items, line)
	s.metrics.LinesAdded.WithLabelValues(string(line.Type)).Inc()

	if item.Kind() == domain.KindUnit {
		s.st.inventory[itemIdx].Stock--
		s.persist(ctx, store.CollectionGuests, store.CollectionInventory)
		s.pushMirror(ctx, mirrorUpdate, s.st.inventory[itemIdx])
	} else {
		s.persist(ctx, store.CollectionGuests)
	}
	return cloneLine(line), nil
}

// RemoveLine takes one line off a tab and returns its unit back to stock.
func (s *Service) RemoveLine(ctx context.Context, tabID string, orderID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	guestIdx, lineIdx := s.lineIndex(tabID, orderID)
	if lineIdx < 0 {
		return store.ErrNotFound
	}
	guest := &s.st.guests[guestIdx]
	line := guest.Items[lineIdx]
	guest.Items = append(guest.Items[:lineIdx:lineIdx], guest.Items[lineIdx+1:]...)

	restored := s.restoreUnitStock(map[string]int{line.ItemID: 1}, []domain.OrderLine{line})
	if len(restored) > 0 {
		s.persist(ctx, store.CollectionGuests, store.CollectionInventory)
		for _, item := range restored {
			s.pushMirror(ctx, mirrorUpdate, item)
		}
	} else {
		s.persist(ctx, store.CollectionGuests)
	}
	return nil
}

// ToggleSaleTasting switches a line between sale and tasting. Treat lines
// are left as they are.
func (s *Service) ToggleSaleTasting(ctx context.Context, tabID string, orderID string) (domain.OrderLine, error) {
	return s.mutateLine(ctx, tabID, orderID, func(_ domain.Guest, line *domain.OrderLine) bool {
		switch line.Type {
		case domain.LineSale:
			line.Type = domain.LineTasting
		case domain.LineTasting:
			line.Type = domain.LineSale
		default:
			return false
		}
		return true
	})
}

// ToggleTreat flags a line as a treat, or clears the flag back to the
// default type of the tab's guest type.
func (s *Service) ToggleTreat(ctx context.Context, tabID string, orderID string) (domain.OrderLine, error) {
	return s.mutateLine(ctx, tabID, orderID, func(guest domain.Guest, line *domain.OrderLine) bool {
		if line.Type == domain.LineTreat {
			line.Type = guest.DefaultLineType()
		} else {
			line.Type = domain.LineTreat
		}
		return true
	})
}

// ToggleServed flips the served flag of a food line; other lines are left
// untouched without error.
func (s *Service) ToggleServed(ctx context.Context, tabID string, orderID string) (domain.OrderLine, error) {
	return s.mutateLine(ctx, tabID, orderID, func(_ domain.Guest, line *domain.OrderLine) bool {
		if !line.IsFood() {
			return false
		}
		line.Served = !line.Served
		return true
	})
}

func (s *Service) mutateLine(ctx context.Context, tabID string, orderID string, mutate func(domain.Guest, *domain.OrderLine) bool) (domain.OrderLine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	guestIdx, lineIdx := s.lineIndex(tabID, orderID)
	if lineIdx < 0 {
		return domain.OrderLine{}, store.ErrNotFound
	}
	guest := &s.st.guests[guestIdx]
	line := &guest.Items[lineIdx]
	if mutate(*guest, line) {
		s.persist(ctx, store.CollectionGuests)
	}
	return cloneLine(*line), nil
}

// SetDiscount stores a flat discount. Anything that is not a non-negative
// number becomes zero; the amount is not capped at the subtotal.
func (s *Service) SetDiscount(ctx context.Context, tabID string, raw json.RawMessage) (domain.TabTotals, error) {
	discount := domain.CoerceAmount(raw)

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.guestIndex(tabID)
	if idx < 0 {
		return domain.TabTotals{}, store.ErrNotFound
	}
	s.st.guests[idx].Discount = discount
	s.persist(ctx, store.CollectionGuests)
	return pricing.Totals(s.st.guests[idx]), nil
}

// CancelTab closes a tab without a sale, returning every unit line to stock.
func (s *Service) CancelTab(ctx context.Context, tabID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.guestIndex(tabID)
	if idx < 0 {
		return store.ErrNotFound
	}
	guest := s.st.guests[idx]

	counts := make(map[string]int)
	for _, line := range guest.Items {
		counts[line.ItemID]++
	}
	restored := s.restoreUnitStock(counts, guest.Items)

	s.st.guests = append(s.st.guests[:idx:idx], s.st.guests[idx+1:]...)
	s.metrics.OpenTabs.Set(float64(len(s.st.guests)))

	if len(restored) > 0 {
		s.persist(ctx, store.CollectionGuests, store.CollectionInventory)
		for _, item := range restored {
			s.pushMirror(ctx, mirrorUpdate, item)
		}
	} else {
		s.persist(ctx, store.CollectionGuests)
	}
	s.logger.Info("tab cancelled", "tab", guest.ID, "lines", len(guest.Items))
	return nil
}

// restoreUnitStock adds counts back onto unit items in one pass over the
// inventory. Lines for batch items and for items no longer stocked are
// skipped. It returns the items it changed.
func (s *Service) restoreUnitStock(counts map[string]int, lines []domain.OrderLine) []domain.InventoryItem {
	unitLines := make(map[string]bool, len(counts))
	for _, line := range lines {
		if line.Kind() == domain.KindUnit {
			unitLines[line.ItemID] = true
		}
	}

	var restored []domain.InventoryItem
	for i := range s.st.inventory {
		item := &s.st.inventory[i]
		count, ok := counts[item.ID]
		if !ok || !unitLines[item.ID] || item.Kind() != domain.KindUnit {
			continue
		}
		item.Stock += count
		restored = append(restored, *item)
	}
	return restored
}

func (s *Service) guestIndex(tabID string) int {
	for i := range s.st.guests {
		if s.st.guests[i].ID == tabID {
			return i
		}
	}
	return -1
}

func (s *Service) lineIndex(tabID string, orderID string) (int, int) {
	guestIdx := s.guestIndex(tabID)
	if guestIdx < 0 {
		return -1, -1
	}
	for i, line := range s.st.guests[guestIdx].Items {
		if line.OrderID == orderID {
			return guestIdx, i
		}
	}
	return guestIdx, -1
}
