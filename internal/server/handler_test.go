package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/HaidarGhanem/management-crud/internal/config"
	"github.com/HaidarGhanem/management-crud/internal/inventory"
	"github.com/HaidarGhanem/management-crud/internal/ledger"
	"github.com/HaidarGhanem/management-crud/internal/storage"
)

func newTestRouter(t *testing.T) *chi.Mux {
	t.Helper()
	driver := storage.NewMemory()
	items := inventory.NewStore(driver)
	lg := ledger.New(driver)
	take := inventory.NewProcessor(items, lg)
	cfg := config.Config{AppURL: "http://127.0.0.1:8080"}
	return NewRouter(cfg, items, lg, take, driver)
}

func doJSON(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), dst); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
}

func TestItemsAndTakeItemRoundTrip(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t)

	// Create.
	rec := doJSON(t, router, http.MethodPost, "/items", map[string]any{"name": "Widget", "amount": 10})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d body=%s", rec.Code, rec.Body.String())
	}
	var created inventory.Item
	decodeBody(t, rec, &created)
	if created.ID == "" || created.Name != "Widget" || created.Amount != 10 {
		t.Fatalf("created = %+v", created)
	}

	// Take 3 as Alice.
	rec = doJSON(t, router, http.MethodPost, "/take-item", map[string]any{
		"personName": "Alice", "itemName": "Widget", "amount": 3,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("take status = %d body=%s", rec.Code, rec.Body.String())
	}
	var result inventory.TakeResult
	decodeBody(t, rec, &result)
	if result.Message != "Alice took 3 Widget(s)" || result.Remaining != 7 {
		t.Fatalf("take result = %+v", result)
	}

	// Ledger has the entry.
	rec = doJSON(t, router, http.MethodGet, "/transactions", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("transactions status = %d", rec.Code)
	}
	var txs []ledger.Transaction
	decodeBody(t, rec, &txs)
	if len(txs) != 1 || txs[0].PersonName != "Alice" || txs[0].ItemName != "Widget" || txs[0].Amount != 3 {
		t.Fatalf("transactions = %+v", txs)
	}

	// Over-take fails and changes nothing.
	rec = doJSON(t, router, http.MethodPost, "/take-item", map[string]any{"itemName": "Widget", "amount": 100})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("over-take status = %d body=%s", rec.Code, rec.Body.String())
	}
	var errBody struct {
		Error string `json:"error"`
	}
	decodeBody(t, rec, &errBody)
	if errBody.Error != "Insufficient amount" {
		t.Fatalf("over-take error = %q", errBody.Error)
	}
	var items []inventory.Item
	rec = doJSON(t, router, http.MethodGet, "/items", nil)
	decodeBody(t, rec, &items)
	if len(items) != 1 || items[0].Amount != 7 {
		t.Fatalf("items after failed take = %+v", items)
	}

	// Take the rest.
	rec = doJSON(t, router, http.MethodPost, "/take-item", map[string]any{"itemName": "Widget", "amount": 7})
	if rec.Code != http.StatusOK {
		t.Fatalf("final take status = %d body=%s", rec.Code, rec.Body.String())
	}
	decodeBody(t, rec, &result)
	if result.Message != "System took 7 Widget(s) - Widget is now out of stock" || result.Remaining != 0 {
		t.Fatalf("final take result = %+v", result)
	}
	rec = doJSON(t, router, http.MethodGet, "/items", nil)
	decodeBody(t, rec, &items)
	if len(items) != 1 || items[0].Amount != 0 {
		t.Fatalf("zero-stock item must persist: %+v", items)
	}

	// Delete and confirm gone.
	rec = doJSON(t, router, http.MethodDelete, "/items/Widget", nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", rec.Code)
	}
	rec = doJSON(t, router, http.MethodGet, "/items", nil)
	decodeBody(t, rec, &items)
	if len(items) != 0 {
		t.Fatalf("items after delete = %+v", items)
	}
}

func TestTakeItemValidationResponses(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t)
	doJSON(t, router, http.MethodPost, "/items", map[string]any{"name": "Widget", "amount": 5})

	cases := []struct {
		name    string
		body    map[string]any
		status  int
		message string
	}{
		{"missing fields", map[string]any{"personName": "Alice"}, http.StatusBadRequest, "missing required fields"},
		{"non-numeric amount", map[string]any{"itemName": "Widget", "amount": "three"}, http.StatusBadRequest, "invalid amount"},
		{"zero amount", map[string]any{"itemName": "Widget", "amount": 0}, http.StatusBadRequest, "invalid amount"},
		{"unknown item", map[string]any{"itemName": "Gizmo", "amount": 1}, http.StatusNotFound, "Item not found"},
	}
	for _, tc := range cases {
		rec := doJSON(t, router, http.MethodPost, "/take-item", tc.body)
		if rec.Code != tc.status {
			t.Fatalf("%s: status = %d, want %d (body=%s)", tc.name, rec.Code, tc.status, rec.Body.String())
		}
		var errBody struct {
			Error string `json:"error"`
		}
		decodeBody(t, rec, &errBody)
		if errBody.Error != tc.message {
			t.Fatalf("%s: error = %q, want %q", tc.name, errBody.Error, tc.message)
		}
	}
}

func TestTakeItemAcceptsStringAmount(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t)
	doJSON(t, router, http.MethodPost, "/items", map[string]any{"name": "Widget", "amount": 5})

	rec := doJSON(t, router, http.MethodPost, "/take-item", map[string]any{"itemName": "Widget", "amount": "2"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
	}
	var result inventory.TakeResult
	decodeBody(t, rec, &result)
	if result.Remaining != 3 {
		t.Fatalf("remaining = %d, want 3", result.Remaining)
	}
}

func TestUpdateItem(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t)
	doJSON(t, router, http.MethodPost, "/items", map[string]any{"name": "Widget", "amount": 5})

	rec := doJSON(t, router, http.MethodPut, "/items/Widget", map[string]any{"amount": 12})
	if rec.Code != http.StatusOK {
		t.Fatalf("update status = %d body=%s", rec.Code, rec.Body.String())
	}
	var updated inventory.Item
	decodeBody(t, rec, &updated)
	if updated.Amount != 12 || updated.Name != "Widget" {
		t.Fatalf("updated = %+v", updated)
	}

	rec = doJSON(t, router, http.MethodPut, "/items/Gizmo", map[string]any{"amount": 1})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unknown item update status = %d", rec.Code)
	}
}

func TestDeleteItemIsIdempotent(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t)

	for i := 0; i < 2; i++ {
		rec := doJSON(t, router, http.MethodDelete, "/items/Nothing", nil)
		if rec.Code != http.StatusNoContent {
			t.Fatalf("delete #%d status = %d", i+1, rec.Code)
		}
	}
}

func TestTransactionCorrections(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t)
	doJSON(t, router, http.MethodPost, "/items", map[string]any{"name": "Widget", "amount": 10})
	doJSON(t, router, http.MethodPost, "/take-item", map[string]any{"personName": "Alice", "itemName": "Widget", "amount": 2})
	doJSON(t, router, http.MethodPost, "/take-item", map[string]any{"personName": "Bob", "itemName": "Widget", "amount": 3})

	rec := doJSON(t, router, http.MethodPut, "/transactions/1", map[string]any{"personName": "Robert"})
	if rec.Code != http.StatusOK {
		t.Fatalf("update status = %d body=%s", rec.Code, rec.Body.String())
	}
	var tx ledger.Transaction
	decodeBody(t, rec, &tx)
	if tx.PersonName != "Robert" || tx.Amount != 3 {
		t.Fatalf("updated transaction = %+v", tx)
	}

	rec = doJSON(t, router, http.MethodDelete, "/transactions/0", nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", rec.Code)
	}

	for _, path := range []string{"/transactions/5", "/transactions/-1", "/transactions/abc"} {
		rec = doJSON(t, router, http.MethodDelete, path, nil)
		if rec.Code != http.StatusNotFound {
			t.Fatalf("delete %s status = %d, want 404", path, rec.Code)
		}
	}
}

func TestCreateItemRejectsBadInput(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/items", map[string]any{"name": "", "amount": 1})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("empty name status = %d", rec.Code)
	}
	rec = doJSON(t, router, http.MethodPost, "/items", map[string]any{"name": "Widget", "amount": -3})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("negative amount status = %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodPost, "/items", bytes.NewBufferString("{not json"))
	rec2 := httptest.NewRecorder()
	router.ServeHTTP(rec2, req)
	if rec2.Code != http.StatusBadRequest {
		t.Fatalf("malformed json status = %d", rec2.Code)
	}
}

func TestHealthz(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t)
	rec := doJSON(t, router, http.MethodGet, "/healthz", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("healthz status = %d", rec.Code)
	}
	var payload map[string]any
	decodeBody(t, rec, &payload)
	if payload["status"] != "ok" {
		t.Fatalf("healthz payload = %+v", payload)
	}
}
