package core

import (
	"time"

	"github.com/shopspring/decimal"
)

type ItemKind string

const (
	ItemKindRaw      ItemKind = "RAW"
	ItemKindAssembly ItemKind = "ASSEMBLY"
	ItemKindProduct  ItemKind = "PRODUCT"
)

type LocationKind string

const (
	LocationStandard LocationKind = "STANDARD"
	LocationVirtual  LocationKind = "VIRTUAL"
)

// Item is a stock-keeping unit. AggregateQty is the cached total-stock tier.
type Item struct {
	ID           int
	SKU          string
	Name         string
	Kind         ItemKind
	AggregateQty decimal.Decimal
	MinStock     decimal.Decimal
	UnitCost     decimal.Decimal
	UnitPrice    decimal.Decimal
	IsSerialized bool
	CreatedAt    time.Time
}

// Location is a warehouse or other stock-holding place.
type Location struct {
	ID        int
	Code      string
	Name      string
	Kind      LocationKind
	IsDefault bool
	CreatedAt time.Time
}

// StockDetail is the per-location quantity of one item: the source-of-truth tier.
type StockDetail struct {
	ItemID       int
	LocationID   int
	LocationCode string
	Quantity     decimal.Decimal
	UpdatedAt    time.Time
}

// StockChange is the post-image of one ledger primitive. LocationID is nil for
// aggregate-only changes.
type StockChange struct {
	ItemID     int
	SKU        string
	LocationID *int
	Detail     decimal.Decimal
	Aggregate  decimal.Decimal
}

// StockMutation is a tagged stock movement: location-scoped when LocationID is set,
// aggregate-only otherwise. Delta may be negative.
type StockMutation struct {
	ItemID     int
	LocationID *int
	Delta      decimal.Decimal
}

// AggregateOnly reports whether m bypasses the detail tier.
func (m StockMutation) AggregateOnly() bool { return m.LocationID == nil }

// ItemInput holds the fields required to create a catalog item.
type ItemInput struct {
	SKU          string
	Name         string
	Kind         ItemKind
	MinStock     decimal.Decimal
	UnitCost     decimal.Decimal
	UnitPrice    decimal.Decimal
	IsSerialized bool
}

// ── Presentation projections ─────────────────────────────────────────────────
// Adapters receive plain numbers, never decimal or pgtype values.

// ItemView is the read projection of an Item.
type ItemView struct {
	ID           int     `json:"id"`
	SKU          string  `json:"sku"`
	Name         string  `json:"name"`
	Kind         string  `json:"kind"`
	Aggregate    float64 `json:"aggregate"`
	MinStock     float64 `json:"min_stock"`
	UnitCost     float64 `json:"unit_cost"`
	UnitPrice    float64 `json:"unit_price"`
	IsSerialized bool    `json:"is_serialized"`
	BelowMinimum bool    `json:"below_minimum"`
}

// View projects the item for presentation.
func (i Item) View() ItemView {
	return ItemView{
		ID:           i.ID,
		SKU:          i.SKU,
		Name:         i.Name,
		Kind:         string(i.Kind),
		Aggregate:    i.AggregateQty.InexactFloat64(),
		MinStock:     i.MinStock.InexactFloat64(),
		UnitCost:     i.UnitCost.InexactFloat64(),
		UnitPrice:    i.UnitPrice.InexactFloat64(),
		IsSerialized: i.IsSerialized,
		BelowMinimum: i.AggregateQty.LessThan(i.MinStock),
	}
}

// StockLevelView is one (item, location) row for presentation.
type StockLevelView struct {
	SKU          string  `json:"sku"`
	ItemName     string  `json:"item_name"`
	LocationCode string  `json:"location_code"`
	Quantity     float64 `json:"quantity"`
	Aggregate    float64 `json:"aggregate"`
}
