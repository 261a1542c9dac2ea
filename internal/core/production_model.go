package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// BOMLine states that one unit of the parent consumes Ratio units of the child.
type BOMLine struct {
	ID           int
	ParentItemID int
	ChildItemID  int
	ChildSKU     string
	Ratio        decimal.Decimal
}

// BOMLineInput is one child entry submitted to SetBOM. Duplicate children are merged.
type BOMLineInput struct {
	ChildItemID int
	Ratio       decimal.Decimal
}

type RunStatus string

const (
	RunStatusCompleted RunStatus = "COMPLETED"
)

// ProductionRun records one assembly execution. Only Quantity changes after creation.
type ProductionRun struct {
	ID         int
	ItemID     int
	SKU        string
	LocationID *int
	Quantity   decimal.Decimal
	Status     RunStatus
	CreatedBy  int
	CreatedAt  time.Time
	UpdatedAt  time.Time
	Serials    []string
}

// ProductionRequest is the input to AssemblyEngine.RunProduction.
// LocationID is optional; without it stock moves on the aggregate tier only.
type ProductionRequest struct {
	ItemID     int
	Quantity   decimal.Decimal
	Serials    []string
	LocationID *int
}

type SerialStatus string

const (
	SerialInStock  SerialStatus = "IN_STOCK"
	SerialShipped  SerialStatus = "SHIPPED"
	SerialConsumed SerialStatus = "CONSUMED"
)

// SerializedUnit is one physical unit of a serialized item.
type SerializedUnit struct {
	ID              int
	Serial          string
	ItemID          int
	Status          SerialStatus
	ProductionRunID *int
	CreatedAt       time.Time
}
