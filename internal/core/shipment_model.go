package core

import (
	"time"

	"github.com/shopspring/decimal"
)

type ShipmentKind string

const (
	ShipmentTransfer ShipmentKind = "TRANSFER"
	ShipmentOutbound ShipmentKind = "OUTBOUND"
)

type ShipmentStatus string

const (
	ShipmentDraft     ShipmentStatus = "DRAFT"
	ShipmentCompleted ShipmentStatus = "COMPLETED"
)

// Shipment is the root of a Shipment → Packages → PackageItems tree.
type Shipment struct {
	ID                    int
	Kind                  ShipmentKind
	Status                ShipmentStatus
	SourceLocationID      *int
	DestinationLocationID *int
	Notes                 *string
	ReceivedAt            *time.Time
	CreatedBy             int
	CreatedAt             time.Time
	Packages              []Package
}

type Package struct {
	ID         int
	ShipmentID int
	Label      string
	Items      []PackageItem
}

type PackageItem struct {
	ID               int
	PackageID        int
	ItemID           int
	SKU              string
	Quantity         decimal.Decimal
	SerializedUnitID *int
}

// TransferRequest is the input to TransferEngine.CreateTransfer.
type TransferRequest struct {
	SourceLocationID      int
	DestinationLocationID int
	Notes                 string
	Packages              []PackageInput
}

type PackageInput struct {
	Label string
	Items []PackageItemInput
}

type PackageItemInput struct {
	ItemID           int
	Quantity         decimal.Decimal
	SerializedUnitID *int
}
