package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"tabbook/backend/internal/domain"
	"tabbook/backend/internal/store"
	"tabbook/backend/internal/xid"
)

func (s *Service) ListInventory() []domain.InventoryItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneItems(s.st.inventory)
}

func (s *Service) GetItem(itemID string) (domain.InventoryItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.itemIndex(itemID)
	if idx < 0 {
		return domain.InventoryItem{}, store.ErrNotFound
	}
	return cloneItem(s.st.inventory[idx]), nil
}

func (s *Service) AddItem(ctx context.Context, req domain.ItemCreateRequest) (domain.InventoryItem, error) {
	req.Name = trim(req.Name)
	req.Brand = trim(req.Brand)
	req.Style = trim(req.Style)
	req.Category = domain.Category(strings.ToLower(trim(string(req.Category))))

	if req.Name == "" {
		return domain.InventoryItem{}, fmt.Errorf("%w: name is required", store.ErrValidation)
	}
	if req.Cost.IsNegative() || req.Price.IsNegative() {
		return domain.InventoryItem{}, fmt.Errorf("%w: cost and price must not be negative", store.ErrValidation)
	}
	switch req.Category {
	case "":
		req.Category = domain.CategoryDrink
	case domain.CategoryDrink, domain.CategoryFood:
	default:
		return domain.InventoryItem{}, fmt.Errorf("%w: unknown category %q", store.ErrValidation, req.Category)
	}
	if !req.IsKeg && req.Stock < 0 {
		return domain.InventoryItem{}, fmt.Errorf("%w: stock must not be negative", store.ErrValidation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	item := domain.InventoryItem{
		ID:         xid.New("item"),
		Name:       req.Name,
		Brand:      req.Brand,
		Style:      req.Style,
		Cost:       req.Cost,
		Price:      req.Price,
		Stock:      req.Stock,
		IsKeg:      req.IsKeg,
		Category:   req.Category,
		KegRevenue: decimal.Zero,
		CreatedAt:  now,
	}
	if item.IsKeg {
		item.Stock = 1
		opened := now
		item.OpenedAt = &opened
	}

	s.st.inventory = append(s.st.inventory, item)
	collections := []store.Collection{store.CollectionInventory}
	if s.registerHistory(item) {
		collections = append(collections, store.CollectionProductHistory)
	}
	s.persist(ctx, collections...)
	s.pushMirror(ctx, mirrorAdd, item)

	s.logger.Info("item added", "item", item.ID, "name", item.Name, "kind", item.Kind().String())
	return cloneItem(item), nil
}

// RemoveItem drops an item without touching the ledger. Open lines that
// reference it keep their snapshot.
func (s *Service) RemoveItem(ctx context.Context, itemID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.itemIndex(itemID)
	if idx < 0 {
		return store.ErrNotFound
	}
	removed := s.st.inventory[idx]
	s.st.inventory = append(s.st.inventory[:idx:idx], s.st.inventory[idx+1:]...)

	s.persist(ctx, store.CollectionInventory)
	s.pushMirror(ctx, mirrorRemove, removed)
	return nil
}

// AdjustStock corrects the count of a unit item by delta, never below zero.
func (s *Service) AdjustStock(ctx context.Context, itemID string, delta int) (domain.InventoryItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.itemIndex(itemID)
	if idx < 0 {
		return domain.InventoryItem{}, store.ErrNotFound
	}
	item := &s.st.inventory[idx]
	if item.Kind() != domain.KindUnit {
		return domain.InventoryItem{}, fmt.Errorf("%w: stock of batch items cannot be adjusted", store.ErrValidation)
	}

	item.Stock = max(0, item.Stock+delta)
	updated := cloneItem(*item)

	s.persist(ctx, store.CollectionInventory)
	s.pushMirror(ctx, mirrorUpdate, updated)
	return updated, nil
}

func (s *Service) ListHistory() []domain.ProductHistoryEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.ProductHistoryEntry, len(s.st.history))
	copy(out, s.st.history)
	return out
}

// FindHistory looks up a past product by name for restock prefill.
func (s *Service) FindHistory(name string) (domain.ProductHistoryEntry, error) {
	key := historyKey(name)
	if key == "" {
		return domain.ProductHistoryEntry{}, store.ErrNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, entry := range s.st.history {
		if historyKey(entry.Name) == key {
			return entry, nil
		}
	}
	return domain.ProductHistoryEntry{}, store.ErrNotFound
}

// registerHistory appends a history entry when no entry shares the item's
// name. It reports whether the history changed.
func (s *Service) registerHistory(item domain.InventoryItem) bool {
	key := historyKey(item.Name)
	for _, entry := range s.st.history {
		if historyKey(entry.Name) == key {
			return false
		}
	}
	s.st.history = append(s.st.history, domain.ProductHistoryEntry{
		ID:       xid.New("hist"),
		Name:     item.Name,
		Brand:    item.Brand,
		Style:    item.Style,
		IsKeg:    item.IsKeg,
		Category: item.Category,
	})
	return true
}

func historyKey(name string) string {
	return strings.ToLower(trim(name))
}

func (s *Service) ListAddons() []domain.Addon {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.Addon, len(s.st.addons))
	copy(out, s.st.addons)
	return out
}

func (s *Service) AddAddon(ctx context.Context, req domain.AddonCreateRequest) (domain.Addon, error) {
	req.Name = trim(req.Name)
	if req.Name == "" {
		return domain.Addon{}, fmt.Errorf("%w: addon name is required", store.ErrValidation)
	}
	if req.Price.IsNegative() {
		return domain.Addon{}, fmt.Errorf("%w: addon price must not be negative", store.ErrValidation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	addon := domain.Addon{ID: xid.New("addon"), Name: req.Name, Price: req.Price}
	s.st.addons = append(s.st.addons, addon)
	s.persist(ctx, store.CollectionAddons)
	return addon, nil
}

// RemoveAddon only affects future lines; lines already on a tab keep the
// addons they were sold with.
func (s *Service) RemoveAddon(ctx context.Context, addonID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, addon := range s.st.addons {
		if addon.ID == addonID {
			s.st.addons = append(s.st.addons[:i:i], s.st.addons[i+1:]...)
			s.persist(ctx, store.CollectionAddons)
			return nil
		}
	}
	return store.ErrNotFound
}

func (s *Service) itemIndex(itemID string) int {
	for i := range s.st.inventory {
		if s.st.inventory[i].ID == itemID {
			return i
		}
	}
	return -1
}

func (s *Service) addonByID(addonID string) (domain.Addon, bool) {
	for _, addon := range s.st.addons {
		if addon.ID == addonID {
			return addon, true
		}
	}
	return domain.Addon{}, false
}
