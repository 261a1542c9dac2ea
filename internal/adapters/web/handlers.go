package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"inventory-ledger/internal/app"
	"inventory-ledger/internal/core"

	"github.com/go-chi/chi/v5"
)

// Handler holds the ApplicationService, the chi router and token settings.
type Handler struct {
	svc       app.ApplicationService
	router    chi.Router
	jwtSecret string
	tokenTTL  time.Duration
}

// NewHandler creates and wires the chi router with all routes.
func NewHandler(svc app.ApplicationService, allowedOrigins, jwtSecret string, tokenTTL time.Duration) http.Handler {
	if tokenTTL <= 0 {
		tokenTTL = time.Hour
	}
	h := &Handler{svc: svc, jwtSecret: jwtSecret, tokenTTL: tokenTTL}

	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(Logger)
	r.Use(Recoverer)
	r.Use(CORS(allowedOrigins))

	// ── Public ────────────────────────────────────────────────────────────────
	r.Get("/api/health", h.health)
	r.Group(func(r chi.Router) {
		r.Use(RequestBodyLimit(1 << 16))
		r.Post("/api/auth/login", h.login)
		r.Post("/api/auth/logout", h.logout)
	})

	// ── Protected API routes (401 JSON if unauthenticated) ───────────────────
	r.Group(func(r chi.Router) {
		r.Use(h.RequireAuth)
		r.Use(RequestBodyLimit(1 << 20)) // 1 MB

		r.Get("/api/auth/me", h.me)
		r.Post("/api/users", h.apiCreateUser)

		// Catalog
		r.Get("/api/items", h.apiListItems)
		r.Post("/api/items", h.apiCreateItem)
		r.Get("/api/items/{sku}", h.apiGetItem)
		r.Delete("/api/items/{sku}", h.apiDeleteItem)
		r.Get("/api/items/{sku}/bom", h.apiGetBOM)
		r.Put("/api/items/{sku}/bom", h.apiSetBOM)
		r.Get("/api/locations", h.apiListLocations)
		r.Post("/api/locations", h.apiCreateLocation)

		// Stock
		r.Get("/api/stock", h.apiStockLevels)
		r.Get("/api/items/{sku}/stock", h.apiGetStock)
		r.Get("/api/items/{sku}/stock/details", h.apiGetStockDetails)
		r.Post("/api/items/{sku}/stock", h.apiAdjustStock)
		r.Post("/api/items/{sku}/reconcile", h.apiReconcileItem)

		// Production
		r.Post("/api/production-runs", h.apiRunProduction)
		r.Get("/api/production-runs/{id}", h.apiGetProductionRun)
		r.Put("/api/production-runs/{id}", h.apiUpdateProductionRun)
		r.Get("/api/items/{sku}/production-runs", h.apiListProductionRuns)

		// Transfers
		r.Post("/api/transfers", h.apiCreateTransfer)
		r.Get("/api/transfers/{id}", h.apiGetTransfer)
		r.Post("/api/transfers/{id}/complete", h.apiCompleteTransfer)

		// Purchasing
		r.Get("/api/purchase-orders", h.apiListPurchaseOrders)
		r.Post("/api/purchase-orders", h.apiCreatePurchaseOrder)
		r.Get("/api/purchase-orders/{id}", h.apiGetPurchaseOrder)
		r.Post("/api/purchase-orders/{id}/receive", h.apiReceivePO)

		// Reconciliation
		r.Post("/api/reconciliation/runs", h.apiRunReconciliation)
		r.Get("/api/reconciliation/runs/{runID}", h.apiGetReconciliationReport)
	})

	h.router = r
	return r
}

// health reports process liveness.
func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"})
}

// actor returns the authenticated actor. Routes behind RequireAuth always have one;
// anywhere else the zero Actor fails every authorization check.
func actor(r *http.Request) core.Actor {
	a, _ := actorFromContext(r.Context())
	return a
}

// pathID parses the integer URL parameter name, writing a 400 on failure.
func pathID(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, name))
	if err != nil || id <= 0 {
		writeError(w, r, "invalid "+name, "BAD_REQUEST", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

// decodeJSON decodes the request body into v and returns false + writes an appropriate
// error response on failure. Returns HTTP 413 when the body exceeds the size limit set
// by RequestBodyLimit middleware; HTTP 400 for all other decode errors.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			writeError(w, r, "request body too large", "REQUEST_TOO_LARGE", http.StatusRequestEntityTooLarge)
			return false
		}
		writeError(w, r, "invalid JSON body: "+err.Error(), "BAD_REQUEST", http.StatusBadRequest)
		return false
	}
	return true
}
