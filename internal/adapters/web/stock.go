package web

import (
	"net/http"

	"inventory-ledger/internal/app"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

// apiStockLevels handles GET /api/stock.
func (h *Handler) apiStockLevels(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.GetStockLevels(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// apiGetStock handles GET /api/items/{sku}/stock.
func (h *Handler) apiGetStock(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.GetStock(r.Context(), chi.URLParam(r, "sku"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// apiGetStockDetails handles GET /api/items/{sku}/stock/details.
func (h *Handler) apiGetStockDetails(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.GetStockDetails(r.Context(), chi.URLParam(r, "sku"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// apiAdjustStock handles POST /api/items/{sku}/stock.
// Body: { mode: set|increment|decrement|aggregate|reconcile, location_code, quantity }
func (h *Handler) apiAdjustStock(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Mode         string          `json:"mode"`
		LocationCode string          `json:"location_code"`
		Quantity     decimal.Decimal `json:"quantity"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	result, err := h.svc.AdjustStock(r.Context(), actor(r), app.AdjustStockRequest{
		SKU:          chi.URLParam(r, "sku"),
		LocationCode: body.LocationCode,
		Mode:         body.Mode,
		Quantity:     body.Quantity,
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// apiReconcileItem handles POST /api/items/{sku}/reconcile.
func (h *Handler) apiReconcileItem(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.ReconcileItem(r.Context(), actor(r), chi.URLParam(r, "sku"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// apiRunProduction handles POST /api/production-runs.
// Body: { sku, quantity, serials, location_code }
func (h *Handler) apiRunProduction(w http.ResponseWriter, r *http.Request) {
	var body struct {
		SKU          string          `json:"sku"`
		Quantity     decimal.Decimal `json:"quantity"`
		Serials      []string        `json:"serials"`
		LocationCode string          `json:"location_code"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	result, err := h.svc.RunProduction(r.Context(), actor(r), app.RunProductionRequest{
		SKU:          body.SKU,
		Quantity:     body.Quantity,
		Serials:      body.Serials,
		LocationCode: body.LocationCode,
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeCreated(w, result)
}

// apiGetProductionRun handles GET /api/production-runs/{id}.
func (h *Handler) apiGetProductionRun(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	result, err := h.svc.GetProductionRun(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// apiUpdateProductionRun handles PUT /api/production-runs/{id}.
// Body: { quantity }
func (h *Handler) apiUpdateProductionRun(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var body struct {
		Quantity decimal.Decimal `json:"quantity"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	result, err := h.svc.UpdateProductionRun(r.Context(), actor(r), app.UpdateProductionRunRequest{
		RunID:    id,
		Quantity: body.Quantity,
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// apiListProductionRuns handles GET /api/items/{sku}/production-runs.
func (h *Handler) apiListProductionRuns(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.ListProductionRuns(r.Context(), chi.URLParam(r, "sku"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, result)
}
