package web

import (
	"net/http"

	"inventory-ledger/internal/app"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

// apiCreateTransfer handles POST /api/transfers.
// Body: { from_location, to_location, notes, packages: [{ label, lines: [{ sku, quantity }] }] }
func (h *Handler) apiCreateTransfer(w http.ResponseWriter, r *http.Request) {
	var body struct {
		FromLocation string `json:"from_location"`
		ToLocation   string `json:"to_location"`
		Notes        string `json:"notes"`
		Packages     []struct {
			Label string `json:"label"`
			Lines []struct {
				SKU      string          `json:"sku"`
				Quantity decimal.Decimal `json:"quantity"`
			} `json:"lines"`
		} `json:"packages"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}

	req := app.CreateTransferRequest{
		FromLocation: body.FromLocation,
		ToLocation:   body.ToLocation,
		Notes:        body.Notes,
	}
	for _, p := range body.Packages {
		pkg := app.TransferPackageInput{Label: p.Label}
		for _, l := range p.Lines {
			pkg.Lines = append(pkg.Lines, app.TransferLineInput{SKU: l.SKU, Quantity: l.Quantity})
		}
		req.Packages = append(req.Packages, pkg)
	}

	result, err := h.svc.CreateTransfer(r.Context(), actor(r), req)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeCreated(w, result)
}

// apiGetTransfer handles GET /api/transfers/{id}.
func (h *Handler) apiGetTransfer(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	result, err := h.svc.GetShipment(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// apiCompleteTransfer handles POST /api/transfers/{id}/complete.
func (h *Handler) apiCompleteTransfer(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	result, err := h.svc.CompleteTransfer(r.Context(), actor(r), id)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// apiListPurchaseOrders handles GET /api/purchase-orders?status=OPEN|PARTIAL|COMPLETED.
func (h *Handler) apiListPurchaseOrders(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.ListPurchaseOrders(r.Context(), r.URL.Query().Get("status"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// apiCreatePurchaseOrder handles POST /api/purchase-orders.
// Body: { reference, supplier, notes, lines: [{ sku, quantity, unit_cost }] }
func (h *Handler) apiCreatePurchaseOrder(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Reference string `json:"reference"`
		Supplier  string `json:"supplier"`
		Notes     string `json:"notes"`
		Lines     []struct {
			SKU      string          `json:"sku"`
			Quantity decimal.Decimal `json:"quantity"`
			UnitCost decimal.Decimal `json:"unit_cost"`
		} `json:"lines"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}

	req := app.CreatePurchaseOrderRequest{
		Reference: body.Reference,
		Supplier:  body.Supplier,
		Notes:     body.Notes,
	}
	for _, l := range body.Lines {
		req.Lines = append(req.Lines, app.POLineInput{SKU: l.SKU, Quantity: l.Quantity, UnitCost: l.UnitCost})
	}

	result, err := h.svc.CreatePurchaseOrder(r.Context(), actor(r), req)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeCreated(w, result)
}

// apiGetPurchaseOrder handles GET /api/purchase-orders/{id}.
func (h *Handler) apiGetPurchaseOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	result, err := h.svc.GetPurchaseOrder(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// apiReceivePO handles POST /api/purchase-orders/{id}/receive.
// Body: { location_code, lines: [{ po_line_id, qty_received }] }
func (h *Handler) apiReceivePO(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var body struct {
		LocationCode string `json:"location_code"`
		Lines        []struct {
			POLineID    int             `json:"po_line_id"`
			QtyReceived decimal.Decimal `json:"qty_received"`
		} `json:"lines"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}

	req := app.ReceivePORequest{OrderID: id, LocationCode: body.LocationCode}
	for _, l := range body.Lines {
		req.Lines = append(req.Lines, app.ReceivedLineInput{POLineID: l.POLineID, QtyReceived: l.QtyReceived})
	}

	result, err := h.svc.ReceivePurchaseOrder(r.Context(), actor(r), req)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// apiRunReconciliation handles POST /api/reconciliation/runs.
func (h *Handler) apiRunReconciliation(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.RunReconciliation(r.Context(), actor(r))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeCreated(w, result)
}

// apiGetReconciliationReport handles GET /api/reconciliation/runs/{runID}.
func (h *Handler) apiGetReconciliationReport(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.GetReconciliationReport(r.Context(), chi.URLParam(r, "runID"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, result)
}
