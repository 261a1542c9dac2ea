package core

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// mergeBOMLines validates a submitted BOM and folds duplicate children into one line
// with summed ratios, keeping first-seen order.
func mergeBOMLines(parentID int, lines []BOMLineInput) ([]BOMLineInput, error) {
	merged := make([]BOMLineInput, 0, len(lines))
	index := make(map[int]int, len(lines))
	for i, l := range lines {
		if l.ChildItemID == parentID {
			return nil, &ValidationError{Message: fmt.Sprintf("BOM line %d: item cannot be a component of itself", i+1)}
		}
		if !l.Ratio.IsPositive() {
			return nil, &ValidationError{Message: fmt.Sprintf("BOM line %d: ratio must be positive, got %s", i+1, l.Ratio)}
		}
		if at, ok := index[l.ChildItemID]; ok {
			merged[at].Ratio = merged[at].Ratio.Add(l.Ratio)
			continue
		}
		index[l.ChildItemID] = len(merged)
		merged = append(merged, l)
	}
	return merged, nil
}

// componentRequirement is the stock one BOM line needs for a given parent quantity.
type componentRequirement struct {
	ItemID   int
	SKU      string
	Required decimal.Decimal
}

// requirementsFor expands a single-level BOM for qty units of the parent.
func requirementsFor(bom []BOMLine, qty decimal.Decimal) []componentRequirement {
	reqs := make([]componentRequirement, 0, len(bom))
	index := make(map[int]int, len(bom))
	for _, line := range bom {
		need := line.Ratio.Mul(qty)
		if at, ok := index[line.ChildItemID]; ok {
			reqs[at].Required = reqs[at].Required.Add(need)
			continue
		}
		index[line.ChildItemID] = len(reqs)
		reqs = append(reqs, componentRequirement{ItemID: line.ChildItemID, SKU: line.ChildSKU, Required: need})
	}
	return reqs
}

// checkAvailability fails on the first component whose aggregate cannot cover its requirement.
// Nothing is partially fulfilled.
func checkAvailability(reqs []componentRequirement, items map[int]*Item) error {
	for _, r := range reqs {
		it, ok := items[r.ItemID]
		if !ok {
			return &NotFoundError{Entity: "component item", Key: fmt.Sprint(r.ItemID)}
		}
		if it.AggregateQty.LessThan(r.Required) {
			return &InsufficientStockError{SKU: it.SKU, Required: r.Required, Available: it.AggregateQty}
		}
	}
	return nil
}

// validateSerials enforces the serialized-item rules for producing qty units.
func validateSerials(item *Item, qty decimal.Decimal, serials []string) error {
	if !item.IsSerialized {
		if len(serials) > 0 {
			return &ValidationError{Message: fmt.Sprintf("item %s is not serialized; serial numbers are not accepted", item.SKU)}
		}
		return nil
	}
	if !IsWholeUnit(qty) {
		return &ValidationError{Message: "serialized items must be produced in whole units"}
	}
	if !decimal.NewFromInt(int64(len(serials))).Equal(qty) {
		return &ValidationError{Message: fmt.Sprintf("serial count mismatch: %d serials supplied for quantity %s", len(serials), qty)}
	}
	seen := make(map[string]bool, len(serials))
	for _, s := range serials {
		s = strings.TrimSpace(s)
		if s == "" {
			return &ValidationError{Message: "serial numbers cannot be blank"}
		}
		if seen[s] {
			return &ConflictError{Message: fmt.Sprintf("serial already exists: %s", s)}
		}
		seen[s] = true
	}
	return nil
}
