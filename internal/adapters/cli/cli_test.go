package cli

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"inventory-ledger/internal/app"
	"inventory-ledger/internal/core"

	"github.com/shopspring/decimal"
)

type fakeService struct {
	app.ApplicationService

	adjust  app.AdjustStockRequest
	produce app.RunProductionRequest
}

func (f *fakeService) GetStockLevels(context.Context) (*app.StockLevelsResult, error) {
	return &app.StockLevelsResult{Levels: []core.StockLevelView{
		{SKU: "SCREW", ItemName: "Screw M3", LocationCode: "MAIN", Quantity: 40, Aggregate: 40},
	}}, nil
}

func (f *fakeService) AdjustStock(_ context.Context, _ core.Actor, req app.AdjustStockRequest) (*app.StockChangeResult, error) {
	f.adjust = req
	return &app.StockChangeResult{SKU: req.SKU, LocationCode: req.LocationCode, Detail: 3, Aggregate: 3}, nil
}

func (f *fakeService) RunProduction(_ context.Context, _ core.Actor, req app.RunProductionRequest) (*app.ProductionRunResult, error) {
	f.produce = req
	return &app.ProductionRunResult{ID: 1, SKU: req.SKU, Quantity: req.Quantity.InexactFloat64(), Status: "COMPLETED", Serials: req.Serials}, nil
}

func (f *fakeService) ReconcileItem(_ context.Context, _ core.Actor, sku string) (*app.ReconcileItemResult, error) {
	return &app.ReconcileItemResult{SKU: sku}, nil
}

func (f *fakeService) CompleteTransfer(_ context.Context, _ core.Actor, id int) (*app.ShipmentResult, error) {
	return nil, &core.ConflictError{Message: "transfer 5 is already completed"}
}

var operator = core.Actor{UserID: 2, Role: core.RoleOperator}

func TestDispatch_Levels(t *testing.T) {
	var out bytes.Buffer
	if err := Dispatch(context.Background(), &fakeService{}, operator, &out, []string{"levels"}); err != nil {
		t.Fatalf("levels: %v", err)
	}
	if !strings.Contains(out.String(), "SCREW") || !strings.Contains(out.String(), "40.000") {
		t.Errorf("Unexpected output:\n%s", out.String())
	}
}

func TestDispatch_AdjustParsesArguments(t *testing.T) {
	svc := &fakeService{}
	var out bytes.Buffer

	if err := Dispatch(context.Background(), svc, operator, &out, []string{"adjust", "screw", "increment", "main", "3"}); err != nil {
		t.Fatalf("adjust: %v", err)
	}
	if svc.adjust.SKU != "SCREW" || svc.adjust.LocationCode != "MAIN" || svc.adjust.Mode != "increment" {
		t.Errorf("Unexpected request %+v", svc.adjust)
	}
	if !svc.adjust.Quantity.Equal(decimal.NewFromInt(3)) {
		t.Errorf("Expected quantity 3, got %s", svc.adjust.Quantity)
	}

	if err := Dispatch(context.Background(), svc, operator, &out, []string{"adjust", "SCREW", "aggregate", "12.5"}); err != nil {
		t.Fatalf("adjust aggregate: %v", err)
	}
	if svc.adjust.LocationCode != "" || !svc.adjust.Quantity.Equal(decimal.RequireFromString("12.5")) {
		t.Errorf("Unexpected aggregate request %+v", svc.adjust)
	}

	err := Dispatch(context.Background(), svc, operator, &out, []string{"adjust", "SCREW", "set", "MAIN", "-1"})
	if core.ErrorCode(err) != core.CodeValidation {
		t.Errorf("Expected VALIDATION_ERROR for a negative quantity, got %v", err)
	}
}

func TestDispatch_ProduceWithSerials(t *testing.T) {
	svc := &fakeService{}
	var out bytes.Buffer

	args := []string{"produce", "widget", "2", "-", "W-1", "W-2"}
	if err := Dispatch(context.Background(), svc, operator, &out, args); err != nil {
		t.Fatalf("produce: %v", err)
	}
	if svc.produce.LocationCode != "" {
		t.Errorf("Expected no location for '-', got %q", svc.produce.LocationCode)
	}
	if len(svc.produce.Serials) != 2 || svc.produce.Serials[1] != "W-2" {
		t.Errorf("Unexpected serials %v", svc.produce.Serials)
	}
	if !strings.Contains(out.String(), "aggregate only") || !strings.Contains(out.String(), "W-1, W-2") {
		t.Errorf("Unexpected output:\n%s", out.String())
	}
}

func TestDispatch_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want func(error) bool
	}{
		{"no command", nil, func(err error) bool { return errors.Is(err, ErrUsage) }},
		{"unknown command", []string{"teleport"}, func(err error) bool { return errors.Is(err, ErrUsage) }},
		{"missing sku", []string{"stock"}, func(err error) bool { return errors.Is(err, ErrUsage) }},
		{"bad shipment id", []string{"tc", "abc"}, func(err error) bool { return core.ErrorCode(err) == core.CodeValidation }},
		{"service error passes through", []string{"tc", "5"}, func(err error) bool { return core.ErrorCode(err) == core.CodeConflict }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			err := Dispatch(context.Background(), &fakeService{}, operator, &out, tt.args)
			if !tt.want(err) {
				t.Fatalf("Unexpected error %v", err)
			}
		})
	}
}

func TestDispatch_ReconcileItemWithoutDrift(t *testing.T) {
	var out bytes.Buffer
	if err := Dispatch(context.Background(), &fakeService{}, core.SystemActor, &out, []string{"reconcile", "screw"}); err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if got := strings.TrimSpace(out.String()); got != "SCREW: no drift." {
		t.Errorf("Unexpected output %q", got)
	}
}
