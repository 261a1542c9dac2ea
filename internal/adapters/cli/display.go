package cli

import (
	"fmt"
	"io"
	"strings"

	"inventory-ledger/internal/app"
)

// PrintHelp lists the available commands.
func PrintHelp(out io.Writer) {
	fmt.Fprintln(out, "Commands:")
	fmt.Fprintln(out, "  items                                  list catalog items")
	fmt.Fprintln(out, "  locations                              list locations")
	fmt.Fprintln(out, "  stock <sku>                            per-location stock of one item")
	fmt.Fprintln(out, "  levels                                 every (item, location) row")
	fmt.Fprintln(out, "  adjust <sku> <mode> [location] <qty>   set|increment|decrement|aggregate")
	fmt.Fprintln(out, "  produce <sku> <qty> [location|-] [serial...]")
	fmt.Fprintln(out, "  transfer-complete <shipment-id>")
	fmt.Fprintln(out, "  pos [OPEN|PARTIAL|COMPLETED]           list purchase orders")
	fmt.Fprintln(out, "  reconcile [sku]                        realign detail rows with aggregates")
	fmt.Fprintln(out, "  report <run-id>                        show a past reconciliation run")
	fmt.Fprintln(out, "  adduser <username> <password> <role>")
}

func rule(out io.Writer, c string, n int) {
	fmt.Fprintln(out, strings.Repeat(c, n))
}

func printItems(out io.Writer, result *app.ItemListResult) {
	fmt.Fprintln(out)
	rule(out, "=", 72)
	fmt.Fprintf(out, "  %-14s %-28s %-9s %12s  %s\n", "SKU", "NAME", "KIND", "ON HAND", "")
	rule(out, "-", 72)
	if len(result.Items) == 0 {
		fmt.Fprintln(out, "  No items found.")
	}
	for _, it := range result.Items {
		flag := ""
		if it.BelowMinimum {
			flag = "LOW"
		}
		fmt.Fprintf(out, "  %-14s %-28s %-9s %12.3f  %s\n", it.SKU, truncate(it.Name, 28), it.Kind, it.Aggregate, flag)
	}
	rule(out, "=", 72)
}

func printLocations(out io.Writer, result *app.LocationListResult) {
	fmt.Fprintln(out)
	fmt.Fprintf(out, "  %-10s %-30s %-9s %s\n", "CODE", "NAME", "KIND", "DEFAULT")
	rule(out, "-", 62)
	for _, l := range result.Locations {
		def := ""
		if l.IsDefault {
			def = "*"
		}
		fmt.Fprintf(out, "  %-10s %-30s %-9s %s\n", l.Code, truncate(l.Name, 30), l.Kind, def)
	}
}

func printStockDetails(out io.Writer, result *app.StockDetailResult) {
	fmt.Fprintln(out)
	fmt.Fprintf(out, "  %s  aggregate %.3f\n", result.SKU, result.Aggregate)
	rule(out, "-", 40)
	var sum float64
	for _, d := range result.Locations {
		fmt.Fprintf(out, "  %-20s %15.3f\n", d.LocationCode, d.Quantity)
		sum += d.Quantity
	}
	rule(out, "-", 40)
	fmt.Fprintf(out, "  %-20s %15.3f\n", "SUM", sum)
}

func printStockLevels(out io.Writer, result *app.StockLevelsResult) {
	fmt.Fprintln(out)
	rule(out, "=", 72)
	fmt.Fprintf(out, "  %-14s %-24s %-10s %9s %9s\n", "SKU", "NAME", "LOCATION", "QTY", "TOTAL")
	rule(out, "-", 72)
	if len(result.Levels) == 0 {
		fmt.Fprintln(out, "  No stock recorded.")
	}
	for _, l := range result.Levels {
		fmt.Fprintf(out, "  %-14s %-24s %-10s %9.3f %9.3f\n",
			l.SKU, truncate(l.ItemName, 24), l.LocationCode, l.Quantity, l.Aggregate)
	}
	rule(out, "=", 72)
}

func printStockChange(out io.Writer, result *app.StockChangeResult) {
	if result.LocationCode == "" {
		fmt.Fprintf(out, "%s: aggregate now %.3f\n", result.SKU, result.Aggregate)
		return
	}
	fmt.Fprintf(out, "%s @ %s: %.3f (aggregate %.3f)\n", result.SKU, result.LocationCode, result.Detail, result.Aggregate)
}

func printProductionRun(out io.Writer, result *app.ProductionRunResult) {
	where := result.LocationCode
	if where == "" {
		where = "aggregate only"
	}
	fmt.Fprintf(out, "Production run %d: %.3f x %s (%s) %s\n", result.ID, result.Quantity, result.SKU, where, result.Status)
	if len(result.Serials) > 0 {
		fmt.Fprintf(out, "  serials: %s\n", strings.Join(result.Serials, ", "))
	}
}

func printPurchaseOrders(out io.Writer, result *app.PurchaseOrderListResult) {
	fmt.Fprintln(out)
	fmt.Fprintf(out, "  %-6s %-16s %-24s %-10s\n", "ID", "REFERENCE", "SUPPLIER", "STATUS")
	rule(out, "-", 62)
	if len(result.Orders) == 0 {
		fmt.Fprintln(out, "  No purchase orders found.")
	}
	for _, po := range result.Orders {
		fmt.Fprintf(out, "  %-6d %-16s %-24s %-10s\n", po.ID, po.Reference, truncate(po.Supplier, 24), po.Status)
	}
}

func printReconciliation(out io.Writer, result *app.ReconciliationResult) {
	fmt.Fprintln(out)
	rule(out, "=", 72)
	fmt.Fprintf(out, "  RECONCILIATION %s\n", result.RunID)
	if result.Checked > 0 {
		fmt.Fprintf(out, "  checked %d, repaired %d, failed %d\n", result.Checked, len(result.Repaired), len(result.Failed))
	}
	rule(out, "-", 72)
	for _, v := range append(append([]app.ReconciliationView{}, result.Repaired...), result.Failed...) {
		fmt.Fprintf(out, "  %-9s %-14s aggregate %10.3f  details %10.3f  %+10.3f\n",
			v.Outcome, v.SKU, v.Aggregate, v.DetailSum, v.Adjustment)
		if v.Outcome != "REPAIRED" {
			fmt.Fprintf(out, "            %s\n", v.Details)
		}
	}
	if len(result.Repaired)+len(result.Failed) == 0 {
		fmt.Fprintln(out, "  No drift found.")
	}
	rule(out, "=", 72)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-1] + "~"
}
