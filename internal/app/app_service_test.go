package app

import (
	"context"
	"errors"
	"testing"

	"inventory-ledger/internal/core"

	"github.com/shopspring/decimal"
)

type fakeCatalog struct {
	core.CatalogService
	items   map[string]*core.Item
	lookups int
	deleted []int
	// onLookup runs after the row is read, before it is returned.
	onLookup func(sku string)
}

func (f *fakeCatalog) GetItemBySKU(_ context.Context, sku string) (*core.Item, error) {
	f.lookups++
	it, ok := f.items[sku]
	if ok && f.onLookup != nil {
		snapshot := *it
		f.onLookup(sku)
		return &snapshot, nil
	}
	if !ok {
		return nil, &core.NotFoundError{Entity: "item", Key: sku}
	}
	return it, nil
}

func (f *fakeCatalog) DeleteItem(_ context.Context, _ core.Actor, itemID int) error {
	f.deleted = append(f.deleted, itemID)
	return nil
}

type fakeCache struct {
	values    map[string]decimal.Decimal
	readErr   error
	published []string
	warmed    []string
	forgotten []string
}

func (c *fakeCache) PublishStock(_ context.Context, sku string, qty decimal.Decimal) error {
	c.published = append(c.published, sku)
	c.values[sku] = qty
	return nil
}

func (c *fakeCache) Warm(_ context.Context, sku string, qty decimal.Decimal) (bool, error) {
	if _, ok := c.values[sku]; ok {
		return false, nil
	}
	c.warmed = append(c.warmed, sku)
	c.values[sku] = qty
	return true, nil
}

func (c *fakeCache) Stock(_ context.Context, sku string) (decimal.Decimal, bool, error) {
	if c.readErr != nil {
		return decimal.Zero, false, c.readErr
	}
	v, ok := c.values[sku]
	return v, ok, nil
}

func (c *fakeCache) Forget(_ context.Context, sku string) error {
	c.forgotten = append(c.forgotten, sku)
	delete(c.values, sku)
	return nil
}

func newFakes() (*fakeCatalog, *fakeCache) {
	catalog := &fakeCatalog{items: map[string]*core.Item{
		"SCREW": {ID: 1, SKU: "SCREW", AggregateQty: decimal.NewFromInt(40)},
	}}
	return catalog, &fakeCache{values: map[string]decimal.Decimal{}}
}

func TestGetStock_MissWarmsCache(t *testing.T) {
	catalog, cache := newFakes()
	svc := NewAppService(Services{Catalog: catalog}, cache)

	res, err := svc.GetStock(context.Background(), "SCREW")
	if err != nil {
		t.Fatalf("GetStock: %v", err)
	}
	if res.Cached || res.Aggregate != 40 {
		t.Fatalf("Expected uncached 40, got %+v", res)
	}
	if len(cache.warmed) != 1 || len(cache.published) != 0 {
		t.Fatalf("Expected the cache to be warmed once, got warmed=%v published=%v", cache.warmed, cache.published)
	}

	res, err = svc.GetStock(context.Background(), "SCREW")
	if err != nil {
		t.Fatalf("GetStock: %v", err)
	}
	if !res.Cached || res.Aggregate != 40 {
		t.Fatalf("Expected cached 40, got %+v", res)
	}
	if catalog.lookups != 1 {
		t.Errorf("Expected one database lookup, got %d", catalog.lookups)
	}
}

func TestGetStock_CacheErrorFallsBack(t *testing.T) {
	catalog, cache := newFakes()
	cache.readErr = errors.New("redis: connection refused")
	svc := NewAppService(Services{Catalog: catalog}, cache)

	res, err := svc.GetStock(context.Background(), "SCREW")
	if err != nil {
		t.Fatalf("GetStock: %v", err)
	}
	if res.Cached || res.Aggregate != 40 {
		t.Fatalf("Expected database value, got %+v", res)
	}
}

func TestGetStock_NoCache(t *testing.T) {
	catalog, _ := newFakes()
	svc := NewAppService(Services{Catalog: catalog}, nil)

	if _, err := svc.GetStock(context.Background(), "NOPE"); core.ErrorCode(err) != core.CodeNotFound {
		t.Fatalf("Expected NOT_FOUND, got %v", err)
	}
	res, err := svc.GetStock(context.Background(), "SCREW")
	if err != nil || res.Aggregate != 40 {
		t.Fatalf("Expected 40, got %+v, %v", res, err)
	}
}

func TestDeleteItem_ForgetsCachedAggregate(t *testing.T) {
	catalog, cache := newFakes()
	cache.values["SCREW"] = decimal.NewFromInt(40)
	svc := NewAppService(Services{Catalog: catalog}, cache)

	if err := svc.DeleteItem(context.Background(), core.Actor{UserID: 1, Role: core.RoleAdmin}, "SCREW"); err != nil {
		t.Fatalf("DeleteItem: %v", err)
	}
	if len(catalog.deleted) != 1 || catalog.deleted[0] != 1 {
		t.Errorf("Expected item 1 deleted, got %v", catalog.deleted)
	}
	if _, ok := cache.values["SCREW"]; ok {
		t.Error("Expected cached aggregate to be forgotten")
	}
}

func TestAdjustStock_RejectsBadInput(t *testing.T) {
	catalog, _ := newFakes()
	svc := NewAppService(Services{Catalog: catalog}, nil)
	actor := core.Actor{UserID: 2, Role: core.RoleOperator}

	tests := []struct {
		name string
		req  AdjustStockRequest
	}{
		{"unknown mode", AdjustStockRequest{SKU: "SCREW", Mode: "teleport", Quantity: decimal.NewFromInt(1)}},
		{"location required", AdjustStockRequest{SKU: "SCREW", Mode: AdjustIncrement, Quantity: decimal.NewFromInt(1)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.AdjustStock(context.Background(), actor, tt.req)
			if core.ErrorCode(err) != core.CodeValidation {
				t.Fatalf("Expected VALIDATION_ERROR, got %v", err)
			}
		})
	}
}

func TestListPurchaseOrders_UnknownStatus(t *testing.T) {
	svc := NewAppService(Services{}, nil)
	if _, err := svc.ListPurchaseOrders(context.Background(), "shipped"); core.ErrorCode(err) != core.CodeValidation {
		t.Fatalf("Expected VALIDATION_ERROR, got %v", err)
	}
}

func TestGetReconciliationReport_InvalidRunID(t *testing.T) {
	svc := NewAppService(Services{}, nil)
	if _, err := svc.GetReconciliationReport(context.Background(), "not-a-uuid"); core.ErrorCode(err) != core.CodeValidation {
		t.Fatalf("Expected VALIDATION_ERROR, got %v", err)
	}
}

func TestCreateUser_UnknownRole(t *testing.T) {
	svc := NewAppService(Services{}, nil)
	_, err := svc.CreateUser(context.Background(), core.Actor{UserID: 1, Role: core.RoleAdmin},
		CreateUserRequest{Username: "bob", Password: "longenough", Role: "root"})
	if core.ErrorCode(err) != core.CodeValidation {
		t.Fatalf("Expected VALIDATION_ERROR, got %v", err)
	}
}

func TestGetStock_WarmDoesNotOverwriteConcurrentPublish(t *testing.T) {
	catalog, cache := newFakes()
	// A writer commits 40 -> 30 and publishes while the miss lookup still holds 40.
	catalog.onLookup = func(sku string) {
		catalog.items[sku].AggregateQty = decimal.NewFromInt(30)
		cache.PublishStock(context.Background(), sku, decimal.NewFromInt(30))
	}
	svc := NewAppService(Services{Catalog: catalog}, cache)

	res, err := svc.GetStock(context.Background(), "SCREW")
	if err != nil {
		t.Fatalf("GetStock: %v", err)
	}
	if res.Cached || res.Aggregate != 40 {
		t.Fatalf("Expected the uncached lookup value 40, got %+v", res)
	}

	catalog.onLookup = nil
	res, err = svc.GetStock(context.Background(), "SCREW")
	if err != nil {
		t.Fatalf("GetStock: %v", err)
	}
	if !res.Cached || res.Aggregate != 30 {
		t.Fatalf("Expected cached committed value 30, got %+v", res)
	}
	if len(cache.warmed) != 0 {
		t.Errorf("Expected no warm over a published value, got %v", cache.warmed)
	}
}

func TestMutations_AuthorizeBeforeLookup(t *testing.T) {
	catalog, _ := newFakes()
	svc := NewAppService(Services{Catalog: catalog}, nil)
	ctx := context.Background()
	viewer := core.Actor{UserID: 3, Role: core.RoleViewer}
	operator := core.Actor{UserID: 2, Role: core.RoleOperator}
	qty := decimal.NewFromInt(1)

	tests := []struct {
		name string
		call func() error
	}{
		{"adjust", func() error {
			_, err := svc.AdjustStock(ctx, viewer, AdjustStockRequest{SKU: "NOPE", LocationCode: "MAIN", Mode: AdjustIncrement, Quantity: qty})
			return err
		}},
		{"aggregate needs admin", func() error {
			_, err := svc.AdjustStock(ctx, operator, AdjustStockRequest{SKU: "NOPE", Mode: AdjustAggregate, Quantity: qty})
			return err
		}},
		{"reconcile mode needs admin", func() error {
			_, err := svc.AdjustStock(ctx, operator, AdjustStockRequest{SKU: "NOPE", Mode: AdjustReconcile})
			return err
		}},
		{"delete", func() error { return svc.DeleteItem(ctx, operator, "NOPE") }},
		{"bom", func() error {
			_, err := svc.SetBOM(ctx, viewer, SetBOMRequest{SKU: "NOPE"})
			return err
		}},
		{"production", func() error {
			_, err := svc.RunProduction(ctx, viewer, RunProductionRequest{SKU: "NOPE", Quantity: qty})
			return err
		}},
		{"transfer", func() error {
			_, err := svc.CreateTransfer(ctx, viewer, CreateTransferRequest{FromLocation: "A", ToLocation: "B"})
			return err
		}},
		{"purchase order", func() error {
			_, err := svc.CreatePurchaseOrder(ctx, viewer, CreatePurchaseOrderRequest{Lines: []POLineInput{{SKU: "NOPE", Quantity: qty}}})
			return err
		}},
		{"receive", func() error {
			_, err := svc.ReceivePurchaseOrder(ctx, viewer, ReceivePORequest{OrderID: 1, LocationCode: "MAIN"})
			return err
		}},
		{"reconcile item", func() error {
			_, err := svc.ReconcileItem(ctx, operator, "NOPE")
			return err
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.call(); core.ErrorCode(err) != core.CodeUnauthorized {
				t.Fatalf("Expected UNAUTHORIZED, got %v", err)
			}
		})
	}
	if catalog.lookups != 0 {
		t.Errorf("Expected no catalog lookups before the role check, got %d", catalog.lookups)
	}
}
