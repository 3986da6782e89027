package store

import (
	"context"
	"errors"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrOutOfStock = errors.New("out of stock")
	ErrValidation = errors.New("validation failed")
)

// Collection names one persisted document. Every collection is loaded in
// full at startup and rewritten in full on change.
type Collection string

const (
	CollectionInventory      Collection = "inventory"
	CollectionProductHistory Collection = "product_history"
	CollectionSales          Collection = "sales"
	CollectionGuests         Collection = "guests"
	CollectionExpenses       Collection = "expenses"
	CollectionManualMonthly  Collection = "manual_monthly"
	CollectionAddons         Collection = "addons"
	CollectionActiveView     Collection = "active_view"
)

var Collections = []Collection{
	CollectionInventory,
	CollectionProductHistory,
	CollectionSales,
	CollectionGuests,
	CollectionExpenses,
	CollectionManualMonthly,
	CollectionAddons,
	CollectionActiveView,
}

func (c Collection) Valid() bool {
	for _, known := range Collections {
		if c == known {
			return true
		}
	}
	return false
}

type Repository interface {
	// Load decodes the stored document into dest. found is false when the
	// collection has never been saved; dest is left untouched in that case.
	Load(ctx context.Context, collection Collection, dest any) (found bool, err error)
	Save(ctx context.Context, collection Collection, value any) error
	// SaveAll writes every document or none of them.
	SaveAll(ctx context.Context, docs map[Collection]any) error
	Close() error
}
