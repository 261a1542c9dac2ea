package repl

import (
	"bufio"
	"bytes"
	"context"
	"strings"
	"testing"

	"inventory-ledger/internal/app"
	"inventory-ledger/internal/core"
)

type fakeService struct {
	app.ApplicationService
	calls int
}

func (f *fakeService) GetStockLevels(context.Context) (*app.StockLevelsResult, error) {
	f.calls++
	return &app.StockLevelsResult{}, nil
}

func (f *fakeService) GetStockDetails(_ context.Context, sku string) (*app.StockDetailResult, error) {
	return nil, &core.NotFoundError{Entity: "item", Key: sku}
}

func TestRun_DispatchesUntilExit(t *testing.T) {
	svc := &fakeService{}
	in := bufio.NewReader(strings.NewReader("levels\n/levels\nstock NOPE\nbogus\nexit\nlevels\n"))
	var out bytes.Buffer

	Run(context.Background(), svc, core.SystemActor, in, &out)

	if svc.calls != 2 {
		t.Errorf("Expected 2 level queries before exit, got %d", svc.calls)
	}
	text := out.String()
	for _, want := range []string{"No stock recorded.", "Error [NOT_FOUND]", `unknown command "bogus"`, "Goodbye!"} {
		if !strings.Contains(text, want) {
			t.Errorf("Expected output to contain %q:\n%s", want, text)
		}
	}
}

func TestRun_StopsAtEOF(t *testing.T) {
	svc := &fakeService{}
	in := bufio.NewReader(strings.NewReader("levels"))
	var out bytes.Buffer

	Run(context.Background(), svc, core.SystemActor, in, &out)

	if svc.calls != 1 {
		t.Errorf("Expected the final unterminated line to run, got %d calls", svc.calls)
	}
}
