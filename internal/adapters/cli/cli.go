package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"

	"inventory-ledger/internal/app"
	"inventory-ledger/internal/core"
)

// ErrUsage is returned when a command is missing arguments or unknown.
var ErrUsage = errors.New("usage")

// Run executes a one-shot CLI command and exits.
// args is os.Args[1:]; the first element is the subcommand name.
func Run(ctx context.Context, svc app.ApplicationService, actor core.Actor, args []string) {
	if err := Dispatch(ctx, svc, actor, os.Stdout, args); err != nil {
		if errors.Is(err, ErrUsage) {
			PrintHelp(os.Stderr)
			os.Exit(2)
		}
		log.Fatalf("%s: %v", args[0], err)
	}
}

// Dispatch runs one command and writes its output to out.
func Dispatch(ctx context.Context, svc app.ApplicationService, actor core.Actor, out io.Writer, args []string) error {
	if len(args) == 0 {
		return ErrUsage
	}
	cmd, args := strings.ToLower(args[0]), args[1:]

	switch cmd {
	case "items":
		result, err := svc.ListItems(ctx)
		if err != nil {
			return err
		}
		printItems(out, result)

	case "locations", "locs":
		result, err := svc.ListLocations(ctx)
		if err != nil {
			return err
		}
		printLocations(out, result)

	case "stock":
		if len(args) < 1 {
			return fmt.Errorf("%w: stock <sku>", ErrUsage)
		}
		result, err := svc.GetStockDetails(ctx, strings.ToUpper(args[0]))
		if err != nil {
			return err
		}
		printStockDetails(out, result)

	case "levels":
		result, err := svc.GetStockLevels(ctx)
		if err != nil {
			return err
		}
		printStockLevels(out, result)

	case "adjust":
		// adjust <sku> <set|increment|decrement> <location> <qty>
		// adjust <sku> aggregate <qty>
		if len(args) < 3 {
			return fmt.Errorf("%w: adjust <sku> <mode> [location] <qty>", ErrUsage)
		}
		req := app.AdjustStockRequest{SKU: strings.ToUpper(args[0]), Mode: strings.ToLower(args[1])}
		qtyArg := args[2]
		if req.Mode != app.AdjustAggregate {
			if len(args) < 4 {
				return fmt.Errorf("%w: adjust <sku> %s <location> <qty>", ErrUsage, req.Mode)
			}
			req.LocationCode = strings.ToUpper(args[2])
			qtyArg = args[3]
		}
		qty, err := core.ParseQuantity(qtyArg)
		if err != nil {
			return err
		}
		req.Quantity = qty
		result, err := svc.AdjustStock(ctx, actor, req)
		if err != nil {
			return err
		}
		printStockChange(out, result)

	case "produce":
		// produce <sku> <qty> [location] [serial...]
		if len(args) < 2 {
			return fmt.Errorf("%w: produce <sku> <qty> [location] [serial...]", ErrUsage)
		}
		qty, err := core.ParseQuantity(args[1])
		if err != nil {
			return err
		}
		req := app.RunProductionRequest{SKU: strings.ToUpper(args[0]), Quantity: qty}
		if len(args) > 2 && args[2] != "-" {
			req.LocationCode = strings.ToUpper(args[2])
		}
		if len(args) > 3 {
			req.Serials = args[3:]
		}
		result, err := svc.RunProduction(ctx, actor, req)
		if err != nil {
			return err
		}
		printProductionRun(out, result)

	case "transfer-complete", "tc":
		if len(args) < 1 {
			return fmt.Errorf("%w: transfer-complete <shipment-id>", ErrUsage)
		}
		id, err := strconv.Atoi(args[0])
		if err != nil {
			return &core.ValidationError{Message: fmt.Sprintf("invalid shipment id %q", args[0])}
		}
		result, err := svc.CompleteTransfer(ctx, actor, id)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Transfer %d %s: %s -> %s, %d package(s).\n",
			result.ID, result.Status, result.FromLocation, result.ToLocation, len(result.Packages))

	case "pos", "purchase-orders":
		status := ""
		if len(args) > 0 {
			status = args[0]
		}
		result, err := svc.ListPurchaseOrders(ctx, status)
		if err != nil {
			return err
		}
		printPurchaseOrders(out, result)

	case "reconcile", "rec":
		if len(args) > 0 {
			result, err := svc.ReconcileItem(ctx, actor, strings.ToUpper(args[0]))
			if err != nil {
				return err
			}
			if !result.Drifted {
				fmt.Fprintf(out, "%s: no drift.\n", result.SKU)
				return nil
			}
			printReconciliation(out, &app.ReconciliationResult{
				RunID:    "-",
				Checked:  1,
				Repaired: onlyOutcome(result.Outcome, string(core.OutcomeRepaired)),
				Failed:   onlyOutcome(result.Outcome, string(core.OutcomeFailed)),
			})
			return nil
		}
		result, err := svc.RunReconciliation(ctx, actor)
		if err != nil {
			return err
		}
		printReconciliation(out, result)

	case "report":
		if len(args) < 1 {
			return fmt.Errorf("%w: report <run-id>", ErrUsage)
		}
		result, err := svc.GetReconciliationReport(ctx, args[0])
		if err != nil {
			return err
		}
		printReconciliation(out, result)

	case "adduser":
		if len(args) < 3 {
			return fmt.Errorf("%w: adduser <username> <password> <role>", ErrUsage)
		}
		result, err := svc.CreateUser(ctx, actor, app.CreateUserRequest{Username: args[0], Password: args[1], Role: args[2]})
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "User %s created with role %s (id %d).\n", result.Username, result.Role, result.ID)

	case "help", "h":
		PrintHelp(out)

	default:
		return fmt.Errorf("%w: unknown command %q", ErrUsage, cmd)
	}
	return nil
}

func onlyOutcome(v *app.ReconciliationView, outcome string) []app.ReconciliationView {
	if v == nil || v.Outcome != outcome {
		return nil
	}
	return []app.ReconciliationView{*v}
}
