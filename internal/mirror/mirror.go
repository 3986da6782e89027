// Package mirror keeps a remote copy of the inventory collection and reports
// changes made by other writers.
package mirror

import (
	"context"
	"sort"

	"tabbook/backend/internal/domain"
)

type Mirror interface {
	Add(ctx context.Context, item domain.InventoryItem) error
	Update(ctx context.Context, item domain.InventoryItem) error
	Remove(ctx context.Context, item domain.InventoryItem) error
	// Snapshot returns the full remote inventory.
	Snapshot(ctx context.Context) ([]domain.InventoryItem, error)
	// Sync replaces the remote inventory with items.
	Sync(ctx context.Context, items []domain.InventoryItem) error
	// Subscribe blocks until ctx is done, calling onChange with the full
	// remote inventory whenever another writer changes it.
	Subscribe(ctx context.Context, onChange func([]domain.InventoryItem)) error
}

type Noop struct{}

func (Noop) Add(context.Context, domain.InventoryItem) error    { return nil }
func (Noop) Update(context.Context, domain.InventoryItem) error { return nil }
func (Noop) Remove(context.Context, domain.InventoryItem) error { return nil }

func (Noop) Snapshot(context.Context) ([]domain.InventoryItem, error) {
	return nil, nil
}

func (Noop) Sync(context.Context, []domain.InventoryItem) error {
	return nil
}

func (Noop) Subscribe(ctx context.Context, _ func([]domain.InventoryItem)) error {
	<-ctx.Done()
	return nil
}

// sortItems gives snapshots a stable order: oldest first, then by id.
func sortItems(items []domain.InventoryItem) {
	sort.SliceStable(items, func(i, j int) bool {
		if !items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].CreatedAt.Before(items[j].CreatedAt)
		}
		return items[i].ID < items[j].ID
	})
}
