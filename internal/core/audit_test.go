package core

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

type fakeAudit struct {
	entries []AuditEntry
	err     error
}

func (f *fakeAudit) Record(_ context.Context, e AuditEntry) error {
	f.entries = append(f.entries, e)
	return f.err
}

type published struct {
	sku string
	qty decimal.Decimal
}

type fakePublisher struct {
	calls []published
	err   error
}

func (f *fakePublisher) PublishStock(_ context.Context, sku string, qty decimal.Decimal) error {
	f.calls = append(f.calls, published{sku, qty})
	return f.err
}

func TestObservers_PublishesFinalAggregatePerSKU(t *testing.T) {
	audit := &fakeAudit{}
	pub := &fakePublisher{}
	obs := observers{audit: audit, stock: pub}

	obs.committed(context.Background(), AuditEntry{ActorID: 4, Action: "transfer.complete", EntityID: "shipment:1"},
		StockChange{SKU: "BOLT", Aggregate: dec("10")},
		StockChange{SKU: "NUT", Aggregate: dec("3")},
		StockChange{SKU: "BOLT", Aggregate: dec("10")},
		StockChange{SKU: "BOLT", Aggregate: dec("8")},
	)

	if len(audit.entries) != 1 || audit.entries[0].Action != "transfer.complete" {
		t.Fatalf("Expected one audit entry, got %+v", audit.entries)
	}
	if len(pub.calls) != 2 {
		t.Fatalf("Expected 2 publishes, got %d", len(pub.calls))
	}
	if pub.calls[0].sku != "BOLT" || !pub.calls[0].qty.Equal(dec("8")) {
		t.Errorf("Expected BOLT=8 first, got %+v", pub.calls[0])
	}
	if pub.calls[1].sku != "NUT" || !pub.calls[1].qty.Equal(dec("3")) {
		t.Errorf("Expected NUT=3 second, got %+v", pub.calls[1])
	}
}

func TestObservers_FailuresDoNotPropagate(t *testing.T) {
	audit := &fakeAudit{err: errors.New("audit down")}
	pub := &fakePublisher{err: errors.New("redis down")}
	obs := observers{audit: audit, stock: pub}

	// Must not panic; errors are only logged.
	obs.committed(context.Background(), AuditEntry{Action: "stock.set_detail"}, StockChange{SKU: "BOLT", Aggregate: dec("1")})

	if len(audit.entries) != 1 || len(pub.calls) != 1 {
		t.Errorf("Expected both collaborators to be called once, got audit=%d publish=%d", len(audit.entries), len(pub.calls))
	}
}

func TestObservers_NilCollaborators(t *testing.T) {
	observers{}.committed(context.Background(), AuditEntry{Action: "noop"}, StockChange{SKU: "X"})
}

func TestObservers_PublishesCommittedAggregate(t *testing.T) {
	pub := &fakePublisher{}
	var asked []string
	obs := observers{stock: pub, current: func(_ context.Context, skus []string) (map[string]decimal.Decimal, error) {
		asked = skus
		// Another writer committed after this transaction; its value wins.
		return map[string]decimal.Decimal{"BOLT": dec("4")}, nil
	}}

	obs.committed(context.Background(), AuditEntry{Action: "stock.adjust"},
		StockChange{SKU: "BOLT", Aggregate: dec("6")},
		StockChange{SKU: "NUT", Aggregate: dec("2")},
	)

	if len(asked) != 2 || asked[0] != "BOLT" || asked[1] != "NUT" {
		t.Fatalf("Expected read-back of BOLT and NUT, got %v", asked)
	}
	if len(pub.calls) != 2 {
		t.Fatalf("Expected 2 publishes, got %d", len(pub.calls))
	}
	if !pub.calls[0].qty.Equal(dec("4")) {
		t.Errorf("Expected committed BOLT=4, got %s", pub.calls[0].qty)
	}
	// NUT missing from the read-back falls back to the transaction value.
	if !pub.calls[1].qty.Equal(dec("2")) {
		t.Errorf("Expected NUT=2, got %s", pub.calls[1].qty)
	}
}

func TestObservers_ReadBackFailureFallsBack(t *testing.T) {
	pub := &fakePublisher{}
	obs := observers{stock: pub, current: func(context.Context, []string) (map[string]decimal.Decimal, error) {
		return nil, errors.New("pool closed")
	}}

	obs.committed(context.Background(), AuditEntry{Action: "stock.adjust"}, StockChange{SKU: "BOLT", Aggregate: dec("6")})

	if len(pub.calls) != 1 || !pub.calls[0].qty.Equal(dec("6")) {
		t.Errorf("Expected transaction value BOLT=6, got %+v", pub.calls)
	}
}

func TestNewObservers_NoReadBackWithoutPublisher(t *testing.T) {
	if obs := newObservers(nil, nil, nil); obs.current != nil {
		t.Error("Expected no aggregate reader without a publisher")
	}
	if obs := newObservers(nil, nil, &fakePublisher{}); obs.current != nil {
		t.Error("Expected no aggregate reader without a pool")
	}
}
