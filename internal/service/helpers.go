package service

import (
	"strings"

	"tabbook/backend/internal/domain"
	"tabbook/backend/internal/ledger"
)

const (
	dateLayout  = ledger.DateLayout
	monthLayout = ledger.MonthLayout
)

func trim(value string) string {
	return strings.TrimSpace(value)
}

func defaultString(value string, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}

func normalizeIDs(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = trim(id)
		if id == "" {
			continue
		}
		out = append(out, id)
	}
	return out
}

func cloneItem(item domain.InventoryItem) domain.InventoryItem {
	if item.OpenedAt != nil {
		opened := *item.OpenedAt
		item.OpenedAt = &opened
	}
	return item
}

func cloneItems(items []domain.InventoryItem) []domain.InventoryItem {
	out := make([]domain.InventoryItem, len(items))
	for i, item := range items {
		out[i] = cloneItem(item)
	}
	return out
}

func cloneLine(line domain.OrderLine) domain.OrderLine {
	if line.SelectedAddons != nil {
		addons := make([]domain.Addon, len(line.SelectedAddons))
		copy(addons, line.SelectedAddons)
		line.SelectedAddons = addons
	}
	return line
}

func cloneGuest(guest domain.Guest) domain.Guest {
	items := make([]domain.OrderLine, len(guest.Items))
	for i, line := range guest.Items {
		items[i] = cloneLine(line)
	}
	guest.Items = items
	return guest
}
