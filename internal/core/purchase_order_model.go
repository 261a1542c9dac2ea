package core

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderOpen      OrderStatus = "OPEN"
	OrderPartial   OrderStatus = "PARTIAL"
	OrderCompleted OrderStatus = "COMPLETED"
)

// PurchaseOrder represents a purchase order header.
type PurchaseOrder struct {
	ID         int
	Reference  string
	Supplier   string
	Status     OrderStatus
	Notes      *string
	CreatedBy  int
	CreatedAt  time.Time
	ReceivedAt *time.Time
	Lines      []PurchaseOrderLine
}

// PurchaseOrderLine represents a single line on a purchase order.
type PurchaseOrderLine struct {
	ID          int
	OrderID     int
	LineNumber  int
	ItemID      int
	SKU         string
	OrderedQty  decimal.Decimal
	ReceivedQty decimal.Decimal
	UnitCost    decimal.Decimal
}

// Outstanding returns the quantity still expected on the line, never negative.
func (l PurchaseOrderLine) Outstanding() decimal.Decimal {
	rem := l.OrderedQty.Sub(l.ReceivedQty)
	if rem.IsNegative() {
		return decimal.Zero
	}
	return rem
}

// PurchaseOrderLineInput holds the fields required to create a purchase order line.
type PurchaseOrderLineInput struct {
	ItemID   int
	Quantity decimal.Decimal
	UnitCost decimal.Decimal
}

// ReceiptLine is one PO line being received on this call.
type ReceiptLine struct {
	POLineID int
	Qty      decimal.Decimal
}

// orderStatusFor derives the order status after a receipt: COMPLETED when every
// line has received at least its ordered quantity, PARTIAL otherwise.
func orderStatusFor(lines []PurchaseOrderLine) OrderStatus {
	if len(lines) == 0 {
		return OrderOpen
	}
	for _, l := range lines {
		if l.ReceivedQty.LessThan(l.OrderedQty) {
			return OrderPartial
		}
	}
	return OrderCompleted
}
