package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"inventory-ledger/internal/app"
	"inventory-ledger/internal/core"

	"github.com/shopspring/decimal"
)

const testSecret = "test-secret"

// fakeService implements only the methods a test exercises; the rest panic through
// the nil embedded interface.
type fakeService struct {
	app.ApplicationService

	lastActor  core.Actor
	lastAdjust app.AdjustStockRequest
	adjustErr  error
	receiveReq app.ReceivePORequest
}

func (f *fakeService) AuthenticateUser(_ context.Context, username, password string) (*app.UserSession, error) {
	if username == "alice" && password == "correct horse" {
		return &app.UserSession{UserID: 7, Username: "alice", Role: "operator"}, nil
	}
	return nil, &core.UnauthorizedError{Action: "log in"}
}

func (f *fakeService) GetUser(_ context.Context, userID int) (*app.UserResult, error) {
	if userID != 7 {
		return nil, &core.NotFoundError{Entity: "user", Key: "unknown"}
	}
	return &app.UserResult{ID: 7, Username: "alice", Role: "operator", IsActive: true}, nil
}

func (f *fakeService) AdjustStock(_ context.Context, actor core.Actor, req app.AdjustStockRequest) (*app.StockChangeResult, error) {
	f.lastActor = actor
	f.lastAdjust = req
	if err := actor.Authorize("adjust stock", core.RoleOperator); err != nil {
		return nil, err
	}
	if f.adjustErr != nil {
		return nil, f.adjustErr
	}
	return &app.StockChangeResult{SKU: req.SKU, LocationCode: req.LocationCode, Detail: 5, Aggregate: 9}, nil
}

func (f *fakeService) GetProductionRun(_ context.Context, runID int) (*app.ProductionRunResult, error) {
	return nil, &core.NotFoundError{Entity: "production run", Key: "42"}
}

func (f *fakeService) ReceivePurchaseOrder(_ context.Context, actor core.Actor, req app.ReceivePORequest) (*app.PurchaseOrderResult, error) {
	f.lastActor = actor
	f.receiveReq = req
	return &app.PurchaseOrderResult{ID: req.OrderID, Status: "PARTIAL"}, nil
}

func (f *fakeService) ListItems(context.Context) (*app.ItemListResult, error) {
	return nil, errors.New("connection reset by peer")
}

func newTestServer(t *testing.T, svc app.ApplicationService) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(NewHandler(svc, "", testSecret, time.Hour))
	t.Cleanup(srv.Close)
	return srv
}

func tokenFor(t *testing.T, userID int, role string) string {
	t.Helper()
	h := &Handler{jwtSecret: testSecret}
	tok, err := h.issueToken(userID, role, time.Hour)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return tok
}

func do(t *testing.T, srv *httptest.Server, method, path, token, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, srv.URL+path, strings.NewReader(body))
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := srv.Client().Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeError(t *testing.T, resp *http.Response) errorResponse {
	t.Helper()
	var e errorResponse
	if err := json.NewDecoder(resp.Body).Decode(&e); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return e
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t, &fakeService{})
	resp := do(t, srv, http.MethodGet, "/api/health", "", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}
	if resp.Header.Get("X-Request-ID") == "" {
		t.Error("Expected an X-Request-ID response header")
	}
}

func TestProtectedRoute_RequiresToken(t *testing.T) {
	srv := newTestServer(t, &fakeService{})

	resp := do(t, srv, http.MethodGet, "/api/auth/me", "", "")
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("Expected 401 without a token, got %d", resp.StatusCode)
	}

	resp = do(t, srv, http.MethodGet, "/api/auth/me", "not-a-jwt", "")
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("Expected 401 for a malformed token, got %d", resp.StatusCode)
	}

	resp = do(t, srv, http.MethodGet, "/api/auth/me", tokenFor(t, 7, "superuser"), "")
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("Expected 401 for an unknown role, got %d", resp.StatusCode)
	}
}

func TestLogin(t *testing.T) {
	srv := newTestServer(t, &fakeService{})

	resp := do(t, srv, http.MethodPost, "/api/auth/login", "", `{"username":"alice","password":"wrong"}`)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("Expected 401 for bad credentials, got %d", resp.StatusCode)
	}

	resp = do(t, srv, http.MethodPost, "/api/auth/login", "", `{"username":"alice","password":"correct horse"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}
	var body struct {
		Token string `json:"token"`
		Role  string `json:"role"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode login response: %v", err)
	}
	if body.Token == "" || body.Role != "operator" {
		t.Fatalf("Unexpected login response: %+v", body)
	}
	var cookie *http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == authCookie {
			cookie = c
		}
	}
	if cookie == nil || !cookie.HttpOnly {
		t.Fatalf("Expected an HttpOnly %s cookie, got %+v", authCookie, cookie)
	}

	// The issued token authenticates follow-up requests.
	resp = do(t, srv, http.MethodGet, "/api/auth/me", body.Token, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200 from /me with the issued token, got %d", resp.StatusCode)
	}
}

func TestAdjustStock_PassesActorAndBody(t *testing.T) {
	svc := &fakeService{}
	srv := newTestServer(t, svc)

	resp := do(t, srv, http.MethodPost, "/api/items/SCREW/stock", tokenFor(t, 7, "operator"),
		`{"mode":"increment","location_code":"MAIN","quantity":"2.5"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}
	if svc.lastActor != (core.Actor{UserID: 7, Role: core.RoleOperator}) {
		t.Errorf("Unexpected actor %+v", svc.lastActor)
	}
	if svc.lastAdjust.SKU != "SCREW" || svc.lastAdjust.Mode != "increment" || svc.lastAdjust.LocationCode != "MAIN" {
		t.Errorf("Unexpected request %+v", svc.lastAdjust)
	}
	if !svc.lastAdjust.Quantity.Equal(decimal.RequireFromString("2.5")) {
		t.Errorf("Expected quantity 2.5, got %s", svc.lastAdjust.Quantity)
	}

	var result app.StockChangeResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if result.Aggregate != 9 {
		t.Errorf("Expected aggregate 9, got %v", result.Aggregate)
	}
}

func TestDomainErrorStatus(t *testing.T) {
	tests := []struct {
		name       string
		role       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"viewer is forbidden", "viewer", nil, http.StatusForbidden, core.CodeUnauthorized},
		{"validation", "operator", &core.ValidationError{Message: "quantity must be positive"}, http.StatusBadRequest, core.CodeValidation},
		{"insufficient stock", "operator", &core.InsufficientStockError{
			SKU: "SCREW", Location: "MAIN", Required: decimal.NewFromInt(10), Available: decimal.NewFromInt(3),
		}, http.StatusConflict, core.CodeInsufficientStock},
		{"not found", "operator", &core.NotFoundError{Entity: "location", Key: "NOPE"}, http.StatusNotFound, core.CodeNotFound},
		{"conflict", "operator", &core.ConflictError{Message: "serial reused"}, http.StatusConflict, core.CodeConflict},
		{"internal", "operator", errors.New("pool closed"), http.StatusInternalServerError, core.CodeInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t, &fakeService{adjustErr: tt.err})
			resp := do(t, srv, http.MethodPost, "/api/items/SCREW/stock", tokenFor(t, 7, tt.role),
				`{"mode":"decrement","location_code":"MAIN","quantity":10}`)
			if resp.StatusCode != tt.wantStatus {
				t.Fatalf("Expected %d, got %d", tt.wantStatus, resp.StatusCode)
			}
			e := decodeError(t, resp)
			if e.Code != tt.wantCode {
				t.Errorf("Expected code %s, got %s", tt.wantCode, e.Code)
			}
			if e.RequestID == "" {
				t.Error("Expected request_id in error body")
			}
			if tt.wantStatus == http.StatusInternalServerError && strings.Contains(e.Error, "pool closed") {
				t.Error("Internal error text must not reach the client")
			}
		})
	}
}

func TestInternalErrorOnRead(t *testing.T) {
	srv := newTestServer(t, &fakeService{})
	resp := do(t, srv, http.MethodGet, "/api/items", tokenFor(t, 7, "viewer"), "")
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("Expected 500, got %d", resp.StatusCode)
	}
}

func TestPathIDValidation(t *testing.T) {
	srv := newTestServer(t, &fakeService{})
	tok := tokenFor(t, 7, "viewer")

	resp := do(t, srv, http.MethodGet, "/api/production-runs/abc", tok, "")
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("Expected 400 for a non-numeric id, got %d", resp.StatusCode)
	}
	resp = do(t, srv, http.MethodGet, "/api/production-runs/42", tok, "")
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("Expected 404, got %d", resp.StatusCode)
	}
}

func TestReceivePO_DecodesLines(t *testing.T) {
	svc := &fakeService{}
	srv := newTestServer(t, svc)

	resp := do(t, srv, http.MethodPost, "/api/purchase-orders/12/receive", tokenFor(t, 7, "operator"),
		`{"location_code":"MAIN","lines":[{"po_line_id":3,"qty_received":"4"},{"po_line_id":4,"qty_received":0}]}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}
	if svc.receiveReq.OrderID != 12 || svc.receiveReq.LocationCode != "MAIN" || len(svc.receiveReq.Lines) != 2 {
		t.Fatalf("Unexpected request %+v", svc.receiveReq)
	}
	if !svc.receiveReq.Lines[0].QtyReceived.Equal(decimal.NewFromInt(4)) || !svc.receiveReq.Lines[1].QtyReceived.IsZero() {
		t.Errorf("Unexpected quantities %+v", svc.receiveReq.Lines)
	}
}

func TestBadJSONAndBodyLimit(t *testing.T) {
	srv := newTestServer(t, &fakeService{})
	tok := tokenFor(t, 7, "operator")

	resp := do(t, srv, http.MethodPost, "/api/items/SCREW/stock", tok, `{"mode":`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("Expected 400 for malformed JSON, got %d", resp.StatusCode)
	}

	big := `{"mode":"set","location_code":"` + strings.Repeat("x", 1<<20) + `"}`
	resp = do(t, srv, http.MethodPost, "/api/items/SCREW/stock", tok, big)
	if resp.StatusCode != http.StatusRequestEntityTooLarge {
		t.Fatalf("Expected 413 for an oversized body, got %d", resp.StatusCode)
	}
}

func TestRequestID_KeepsSafeCallerValue(t *testing.T) {
	srv := newTestServer(t, &fakeService{})

	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/api/health", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	resp, err := srv.Client().Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if got := resp.Header.Get("X-Request-ID"); got != "abc-123" {
		t.Errorf("Expected caller request id to be kept, got %q", got)
	}

	req, _ = http.NewRequest(http.MethodGet, srv.URL+"/api/health", nil)
	req.Header.Set("X-Request-ID", "has spaces; and <tags>")
	resp, err = srv.Client().Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if got := resp.Header.Get("X-Request-ID"); got == "has spaces; and <tags>" || got == "" {
		t.Errorf("Expected a generated request id, got %q", got)
	}
}
