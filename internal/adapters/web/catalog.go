package web

import (
	"net/http"

	"inventory-ledger/internal/app"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

// apiCreateUser handles POST /api/users.
// Body: { username, password, role }
func (h *Handler) apiCreateUser(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Username string `json:"username"`
		Password string `json:"password"`
		Role     string `json:"role"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	result, err := h.svc.CreateUser(r.Context(), actor(r), app.CreateUserRequest{
		Username: body.Username,
		Password: body.Password,
		Role:     body.Role,
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeCreated(w, result)
}

// apiListItems handles GET /api/items.
func (h *Handler) apiListItems(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.ListItems(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// apiCreateItem handles POST /api/items.
// Body: { sku, name, kind, min_stock, unit_cost, unit_price, is_serialized }
func (h *Handler) apiCreateItem(w http.ResponseWriter, r *http.Request) {
	var body struct {
		SKU          string          `json:"sku"`
		Name         string          `json:"name"`
		Kind         string          `json:"kind"`
		MinStock     decimal.Decimal `json:"min_stock"`
		UnitCost     decimal.Decimal `json:"unit_cost"`
		UnitPrice    decimal.Decimal `json:"unit_price"`
		IsSerialized bool            `json:"is_serialized"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	result, err := h.svc.CreateItem(r.Context(), actor(r), app.CreateItemRequest{
		SKU:          body.SKU,
		Name:         body.Name,
		Kind:         body.Kind,
		MinStock:     body.MinStock,
		UnitCost:     body.UnitCost,
		UnitPrice:    body.UnitPrice,
		IsSerialized: body.IsSerialized,
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeCreated(w, result)
}

// apiGetItem handles GET /api/items/{sku}.
func (h *Handler) apiGetItem(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.GetItem(r.Context(), chi.URLParam(r, "sku"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// apiDeleteItem handles DELETE /api/items/{sku}.
func (h *Handler) apiDeleteItem(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteItem(r.Context(), actor(r), chi.URLParam(r, "sku")); err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// apiGetBOM handles GET /api/items/{sku}/bom.
func (h *Handler) apiGetBOM(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.GetBOM(r.Context(), chi.URLParam(r, "sku"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// apiSetBOM handles PUT /api/items/{sku}/bom.
// Body: { components: [{ sku, ratio }] }
func (h *Handler) apiSetBOM(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Components []struct {
			SKU   string          `json:"sku"`
			Ratio decimal.Decimal `json:"ratio"`
		} `json:"components"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	req := app.SetBOMRequest{SKU: chi.URLParam(r, "sku")}
	for _, c := range body.Components {
		req.Components = append(req.Components, app.BOMComponentInput{SKU: c.SKU, Ratio: c.Ratio})
	}
	result, err := h.svc.SetBOM(r.Context(), actor(r), req)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// apiListLocations handles GET /api/locations.
func (h *Handler) apiListLocations(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.ListLocations(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// apiCreateLocation handles POST /api/locations.
// Body: { code, name, kind, is_default }
func (h *Handler) apiCreateLocation(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Code      string `json:"code"`
		Name      string `json:"name"`
		Kind      string `json:"kind"`
		IsDefault bool   `json:"is_default"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	result, err := h.svc.CreateLocation(r.Context(), actor(r), app.CreateLocationRequest{
		Code:      body.Code,
		Name:      body.Name,
		Kind:      body.Kind,
		IsDefault: body.IsDefault,
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeCreated(w, result)
}
