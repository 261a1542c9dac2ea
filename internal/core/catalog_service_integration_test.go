package core_test

import (
	"errors"
	"testing"

	"inventory-ledger/internal/core"
)

func TestCatalog_CreateItemValidation(t *testing.T) {
	f := newFixture(t)

	cases := []struct {
		name  string
		input core.ItemInput
	}{
		{"blank sku", core.ItemInput{SKU: "  ", Name: "Bolt", Kind: core.ItemKindRaw}},
		{"blank name", core.ItemInput{SKU: "BOLT", Kind: core.ItemKindRaw}},
		{"unknown kind", core.ItemInput{SKU: "BOLT", Name: "Bolt", Kind: "WIDGET"}},
		{"negative cost", core.ItemInput{SKU: "BOLT", Name: "Bolt", Kind: core.ItemKindRaw, UnitCost: d("-1")}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.catalog.CreateItem(f.ctx, operator, tc.input)
			var ve *core.ValidationError
			if !errors.As(err, &ve) {
				t.Errorf("Expected ValidationError, got %v", err)
			}
		})
	}

	items, err := f.catalog.ListItems(f.ctx)
	if err != nil {
		t.Fatalf("ListItems failed: %v", err)
	}
	if len(items) != 0 {
		t.Errorf("Expected no items after rejected inputs, got %d", len(items))
	}
}

func TestCatalog_CreateItemStartsAtZero(t *testing.T) {
	f := newFixture(t)
	it, err := f.catalog.CreateItem(f.ctx, operator, core.ItemInput{
		SKU: " BOLT ", Name: "Bolt", Kind: core.ItemKindRaw, UnitCost: d("0.25"),
	})
	if err != nil {
		t.Fatalf("CreateItem failed: %v", err)
	}
	if it.SKU != "BOLT" {
		t.Errorf("Expected trimmed SKU BOLT, got %q", it.SKU)
	}
	expectEqual(t, "aggregate", "0", it.AggregateQty)

	got, err := f.catalog.GetItemBySKU(f.ctx, "BOLT")
	if err != nil {
		t.Fatalf("GetItemBySKU failed: %v", err)
	}
	if got.ID != it.ID {
		t.Errorf("Expected item %d, got %d", it.ID, got.ID)
	}
}

func TestCatalog_DuplicateSKUConflicts(t *testing.T) {
	f := newFixture(t)
	f.item(t, "BOLT", core.ItemKindRaw, false)

	_, err := f.catalog.CreateItem(f.ctx, operator, core.ItemInput{SKU: "BOLT", Name: "Other", Kind: core.ItemKindRaw})
	var ce *core.ConflictError
	if !errors.As(err, &ce) {
		t.Fatalf("Expected ConflictError, got %v", err)
	}
}

func TestCatalog_ViewerCannotCreateItem(t *testing.T) {
	f := newFixture(t)
	_, err := f.catalog.CreateItem(f.ctx, viewer, core.ItemInput{SKU: "BOLT", Name: "Bolt", Kind: core.ItemKindRaw})
	if core.ErrorCode(err) != core.CodeUnauthorized {
		t.Fatalf("Expected %s, got %v", core.CodeUnauthorized, err)
	}
}

func TestCatalog_SetBOMMergesDuplicates(t *testing.T) {
	f := newFixture(t)
	frame := f.item(t, "FRAME", core.ItemKindAssembly, false)
	bolt := f.item(t, "BOLT", core.ItemKindRaw, false)
	plate := f.item(t, "PLATE", core.ItemKindRaw, false)

	lines, err := f.catalog.SetBOM(f.ctx, operator, frame.ID, []core.BOMLineInput{
		{ChildItemID: bolt.ID, Ratio: d("2")},
		{ChildItemID: plate.ID, Ratio: d("1")},
		{ChildItemID: bolt.ID, Ratio: d("1.5")},
	})
	if err != nil {
		t.Fatalf("SetBOM failed: %v", err)
	}
	if len(lines) != 2 {
		t.Fatalf("Expected 2 BOM lines, got %d", len(lines))
	}
	for _, l := range lines {
		switch l.ChildSKU {
		case "BOLT":
			expectEqual(t, "BOLT ratio", "3.5", l.Ratio)
		case "PLATE":
			expectEqual(t, "PLATE ratio", "1", l.Ratio)
		default:
			t.Errorf("Unexpected BOM child %s", l.ChildSKU)
		}
	}

	// A second SetBOM replaces the first.
	lines, err = f.catalog.SetBOM(f.ctx, operator, frame.ID, []core.BOMLineInput{{ChildItemID: plate.ID, Ratio: d("4")}})
	if err != nil {
		t.Fatalf("SetBOM (replace) failed: %v", err)
	}
	if len(lines) != 1 || lines[0].ChildItemID != plate.ID {
		t.Fatalf("Expected only PLATE after replace, got %+v", lines)
	}
}

func TestCatalog_SetBOMRejectsBadLines(t *testing.T) {
	f := newFixture(t)
	frame := f.item(t, "FRAME", core.ItemKindAssembly, false)
	bolt := f.item(t, "BOLT", core.ItemKindRaw, false)

	_, err := f.catalog.SetBOM(f.ctx, operator, frame.ID, []core.BOMLineInput{{ChildItemID: frame.ID, Ratio: d("1")}})
	if core.ErrorCode(err) != core.CodeValidation {
		t.Errorf("Expected %s for self-reference, got %v", core.CodeValidation, err)
	}

	_, err = f.catalog.SetBOM(f.ctx, operator, frame.ID, []core.BOMLineInput{{ChildItemID: bolt.ID, Ratio: d("0")}})
	if core.ErrorCode(err) != core.CodeValidation {
		t.Errorf("Expected %s for zero ratio, got %v", core.CodeValidation, err)
	}

	_, err = f.catalog.SetBOM(f.ctx, operator, 9999, []core.BOMLineInput{{ChildItemID: bolt.ID, Ratio: d("1")}})
	if core.ErrorCode(err) != core.CodeNotFound {
		t.Errorf("Expected %s for unknown parent, got %v", core.CodeNotFound, err)
	}
}

func TestCatalog_DefaultLocation(t *testing.T) {
	f := newFixture(t)
	f.location(t, "WH-A", false)

	def, err := f.catalog.GetDefaultLocation(f.ctx)
	if err != nil {
		t.Fatalf("GetDefaultLocation failed: %v", err)
	}
	if def.Code != "MAIN" {
		t.Errorf("Expected default MAIN, got %s", def.Code)
	}

	// Only one location may be the default.
	_, err = f.catalog.CreateLocation(f.ctx, admin, "WH-B", "WH-B", core.LocationStandard, true)
	if core.ErrorCode(err) != core.CodeConflict {
		t.Errorf("Expected %s for a second default, got %v", core.CodeConflict, err)
	}

	_, err = f.catalog.CreateLocation(f.ctx, operator, "WH-C", "WH-C", core.LocationStandard, false)
	if core.ErrorCode(err) != core.CodeUnauthorized {
		t.Errorf("Expected %s for operator, got %v", core.CodeUnauthorized, err)
	}

	if _, err := f.catalog.GetLocationByCode(f.ctx, "NOPE"); core.ErrorCode(err) != core.CodeNotFound {
		t.Errorf("Expected %s for unknown code, got %v", core.CodeNotFound, err)
	}
}

func TestCatalog_DeleteItem(t *testing.T) {
	f := newFixture(t)
	frame := f.item(t, "FRAME", core.ItemKindAssembly, false)
	bolt := f.item(t, "BOLT", core.ItemKindRaw, false)
	if _, err := f.catalog.SetBOM(f.ctx, operator, frame.ID, []core.BOMLineInput{{ChildItemID: bolt.ID, Ratio: d("2")}}); err != nil {
		t.Fatalf("SetBOM failed: %v", err)
	}

	if err := f.catalog.DeleteItem(f.ctx, operator, frame.ID); core.ErrorCode(err) != core.CodeUnauthorized {
		t.Errorf("Expected %s for operator, got %v", core.CodeUnauthorized, err)
	}

	// BOLT is a component of FRAME.
	if err := f.catalog.DeleteItem(f.ctx, admin, bolt.ID); core.ErrorCode(err) != core.CodeConflict {
		t.Errorf("Expected %s deleting a referenced component, got %v", core.CodeConflict, err)
	}

	if err := f.catalog.DeleteItem(f.ctx, admin, frame.ID); err != nil {
		t.Fatalf("DeleteItem failed: %v", err)
	}
	if _, err := f.catalog.GetItem(f.ctx, frame.ID); core.ErrorCode(err) != core.CodeNotFound {
		t.Errorf("Expected deleted item to be gone, got %v", err)
	}
	if err := f.catalog.DeleteItem(f.ctx, admin, frame.ID); core.ErrorCode(err) != core.CodeNotFound {
		t.Errorf("Expected %s on second delete, got %v", core.CodeNotFound, err)
	}
}
