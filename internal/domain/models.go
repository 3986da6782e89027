package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Category string

const (
	CategoryDrink Category = "drink"
	CategoryFood  Category = "food"
)

type GuestType string

const (
	GuestRegular GuestType = "guest"
	GuestTasting GuestType = "tasting"
)

type LineType string

const (
	LineSale    LineType = "sale"
	LineTasting LineType = "tasting"
	LineTreat   LineType = "treat"
)

type RecordType string

const (
	RecordSale     RecordType = "sale"
	RecordTasting  RecordType = "tasting"
	RecordTreat    RecordType = "treat"
	RecordDiscount RecordType = "discount"
	RecordKegCost  RecordType = "keg_cost"
)

const (
	DiscountItemID       = "discount"
	SystemSettlementName = "System settlement"
)

type InventoryItem struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Brand       string          `json:"brand,omitempty"`
	Style       string          `json:"style,omitempty"`
	Cost        decimal.Decimal `json:"cost"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
	IsKeg       bool            `json:"is_keg"`
	Category    Category        `json:"category"`
	KegRevenue  decimal.Decimal `json:"keg_revenue"`
	GlassesSold int             `json:"glasses_sold"`
	CreatedAt   time.Time       `json:"created_at"`
	OpenedAt    *time.Time      `json:"opened_at,omitempty"`
}

func (i InventoryItem) Kind() ItemKind {
	return kindOf(i.IsKeg)
}

func (i InventoryItem) Costing() Costing {
	return Costing{Kind: i.Kind(), Amount: i.Cost}
}

// Available reports whether a line can be added for this item right now.
func (i InventoryItem) Available() bool {
	return i.Stock > 0
}

type ProductHistoryEntry struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Brand    string   `json:"brand"`
	Style    string   `json:"style"`
	IsKeg    bool     `json:"is_keg"`
	Category Category `json:"category"`
}

type Addon struct {
	ID    string          `json:"id"`
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
}

// OrderLine is one entry on a tab. The item fields are a snapshot taken when
// the line was added; later inventory edits do not reach open lines.
type OrderLine struct {
	OrderID        string          `json:"order_id"`
	ItemID         string          `json:"item_id"`
	Name           string          `json:"name"`
	Brand          string          `json:"brand,omitempty"`
	Style          string          `json:"style,omitempty"`
	Cost           decimal.Decimal `json:"cost"`
	Price          decimal.Decimal `json:"price"`
	IsKeg          bool            `json:"is_keg"`
	Category       Category        `json:"category"`
	Type           LineType        `json:"type"`
	Served         bool            `json:"served"`
	SelectedAddons []Addon         `json:"selected_addons,omitempty"`
}

func (l OrderLine) Kind() ItemKind {
	return kindOf(l.IsKeg)
}

func (l OrderLine) Costing() Costing {
	return Costing{Kind: l.Kind(), Amount: l.Cost}
}

func (l OrderLine) IsFood() bool {
	return l.Category == CategoryFood
}

type Guest struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Type      GuestType       `json:"type"`
	Items     []OrderLine     `json:"items"`
	Discount  decimal.Decimal `json:"discount"`
	StartTime string          `json:"start_time"`
	CreatedAt time.Time       `json:"created_at"`
}

// DefaultLineType is the type new lines start with, and the type a line
// returns to when its treat flag is cleared.
func (g Guest) DefaultLineType() LineType {
	if g.Type == GuestTasting {
		return LineTasting
	}
	return LineSale
}

type SaleRecord struct {
	TransactionID string          `json:"transaction_id"`
	ItemID        string          `json:"item_id"`
	Name          string          `json:"name"`
	CustomerName  string          `json:"customer_name"`
	Type          RecordType      `json:"type"`
	Profit        decimal.Decimal `json:"profit"`
	Price         decimal.Decimal `json:"price"`
	Date          string          `json:"date"`
	Timestamp     time.Time       `json:"timestamp"`
}

type ExpenseRecord struct {
	ID        string          `json:"id"`
	Category  string          `json:"category"`
	Amount    decimal.Decimal `json:"amount"`
	Date      string          `json:"date"`
	Note      string          `json:"note"`
	CreatedAt time.Time       `json:"created_at"`
}

type ManualMonthlyEntry struct {
	ID     string          `json:"id"`
	Month  string          `json:"month"`
	Profit decimal.Decimal `json:"profit"`
}

type ItemCreateRequest struct {
	Name     string          `json:"name"`
	Brand    string          `json:"brand"`
	Style    string          `json:"style"`
	Cost     decimal.Decimal `json:"cost"`
	Price    decimal.Decimal `json:"price"`
	Stock    int             `json:"stock"`
	IsKeg    bool            `json:"is_keg"`
	Category Category        `json:"category"`
}

type TabOpenRequest struct {
	Name string    `json:"name"`
	Type GuestType `json:"type"`
}

type AddLineRequest struct {
	ItemID   string   `json:"item_id"`
	AddonIDs []string `json:"addon_ids,omitempty"`
}

type AmountRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

type StockAdjustRequest struct {
	Delta int `json:"delta"`
}

type AddonCreateRequest struct {
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
}

type ExpenseCreateRequest struct {
	Category string          `json:"category"`
	Amount   decimal.Decimal `json:"amount"`
	Date     string          `json:"date"`
	Note     string          `json:"note"`
}

type ManualEntryCreateRequest struct {
	Month  string          `json:"month"`
	Profit decimal.Decimal `json:"profit"`
}

type TabTotals struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Discount decimal.Decimal `json:"discount"`
	Total    decimal.Decimal `json:"total"`
}

type CheckoutReceipt struct {
	TransactionID string          `json:"transaction_id,omitempty"`
	GuestID       string          `json:"guest_id"`
	CustomerName  string          `json:"customer_name"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	Discount      decimal.Decimal `json:"discount"`
	Total         decimal.Decimal `json:"total"`
	Records       []SaleRecord    `json:"records"`
}

type TransactionSummary struct {
	TransactionID string          `json:"transaction_id"`
	CustomerName  string          `json:"customer_name"`
	Total         decimal.Decimal `json:"total"`
	Profit        decimal.Decimal `json:"profit"`
	Records       []SaleRecord    `json:"records"`
}

type DateGroup struct {
	Date         string               `json:"date"`
	Transactions []TransactionSummary `json:"transactions"`
}

const (
	BucketSourceSystem   = "system"
	BucketSourceManual   = "manual"
	BucketSourceExpenses = "expenses"
)

type MonthBucket struct {
	Month    string          `json:"month"`
	Revenue  decimal.Decimal `json:"revenue"`
	Profit   decimal.Decimal `json:"profit"`
	Expenses decimal.Decimal `json:"expenses"`
	Manual   decimal.Decimal `json:"manual"`
	Source   string          `json:"source"`
}

type DayBucket struct {
	Date     string          `json:"date"`
	Revenue  decimal.Decimal `json:"revenue"`
	Profit   decimal.Decimal `json:"profit"`
	Expenses decimal.Decimal `json:"expenses"`
	Count    int             `json:"count"`
}

type Totals struct {
	TotalInventoryValue  decimal.Decimal `json:"total_inventory_value"`
	BatchCostOutstanding decimal.Decimal `json:"batch_cost_outstanding"`
	TotalRevenue         decimal.Decimal `json:"total_revenue"`
	TotalExpenses        decimal.Decimal `json:"total_expenses"`
	TotalRealizedProfit  decimal.Decimal `json:"total_realized_profit"`
}
