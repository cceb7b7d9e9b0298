package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/HaidarGhanem/management-crud/internal/inventory"
	"github.com/HaidarGhanem/management-crud/internal/ledger"
	"github.com/HaidarGhanem/management-crud/internal/storage"
)

type handler struct {
	items  *inventory.Store
	ledger *ledger.Ledger
	take   *inventory.Processor
	probe  storage.Driver
}

func newHandler(items *inventory.Store, lg *ledger.Ledger, take *inventory.Processor, probe storage.Driver) handler {
	return handler{items: items, ledger: lg, take: take, probe: probe}
}

type createItemRequest struct {
	Name   string `json:"name"`
	Amount *int   `json:"amount"`
}

func (h handler) listItems(w http.ResponseWriter, r *http.Request) {
	items, err := h.items.List(r.Context())
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (h handler) createItem(w http.ResponseWriter, r *http.Request) {
	var req createItemRequest
	if err := decodeJSONWithLimit(w, r, &req, defaultRequestBodyLimitBytes); err != nil {
		writeDecodeError(w, err)
		return
	}
	amount := 0
	if req.Amount != nil {
		amount = *req.Amount
	}
	item, err := h.items.Create(r.Context(), req.Name, amount)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

func (h handler) updateItem(w http.ResponseWriter, r *http.Request) {
	var patch inventory.ItemPatch
	if err := decodeJSONWithLimit(w, r, &patch, defaultRequestBodyLimitBytes); err != nil {
		writeDecodeError(w, err)
		return
	}
	item, err := h.items.Update(r.Context(), chi.URLParam(r, "name"), patch)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (h handler) deleteItem(w http.ResponseWriter, r *http.Request) {
	if err := h.items.Delete(r.Context(), chi.URLParam(r, "name")); err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type takeItemRequest struct {
	PersonName string          `json:"personName"`
	ItemName   string          `json:"itemName"`
	Amount     json.RawMessage `json:"amount"`
	Date       string          `json:"date"`
}

func (h handler) takeItem(w http.ResponseWriter, r *http.Request) {
	var req takeItemRequest
	if err := decodeJSONWithLimit(w, r, &req, defaultRequestBodyLimitBytes); err != nil {
		writeDecodeError(w, err)
		return
	}
	result, err := h.take.Take(r.Context(), inventory.TakeRequest{
		PersonName: req.PersonName,
		ItemName:   req.ItemName,
		Amount:     rawScalarString(req.Amount),
		Date:       req.Date,
	})
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h handler) listTransactions(w http.ResponseWriter, r *http.Request) {
	txs, err := h.ledger.List(r.Context())
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, txs)
}

func (h handler) updateTransaction(w http.ResponseWriter, r *http.Request) {
	index, err := parseIndex(chi.URLParam(r, "index"))
	if err != nil {
		writeErrorJSON(w, http.StatusNotFound, "Transaction not found")
		return
	}
	var patch ledger.Patch
	if err := decodeJSONWithLimit(w, r, &patch, defaultRequestBodyLimitBytes); err != nil {
		writeDecodeError(w, err)
		return
	}
	tx, err := h.ledger.Update(r.Context(), index, patch)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tx)
}

func (h handler) deleteTransaction(w http.ResponseWriter, r *http.Request) {
	index, err := parseIndex(chi.URLParam(r, "index"))
	if err != nil {
		writeErrorJSON(w, http.StatusNotFound, "Transaction not found")
		return
	}
	if err := h.ledger.Delete(r.Context(), index); err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h handler) healthz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	payload := map[string]any{"status": "ok", "storage": "up"}
	status := http.StatusOK

	if _, err := h.probe.Load(ctx, storage.ItemsCollection); err != nil {
		payload["status"] = "degraded"
		payload["storage"] = "down"
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, payload)
}

// writeDomainError maps domain errors onto the HTTP taxonomy: validation and
// insufficient stock are 400, missing records 404, everything else a generic
// 500 with the cause logged but not exposed.
func (h handler) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *inventory.ValidationError
	switch {
	case errors.As(err, &verr):
		writeErrorJSON(w, http.StatusBadRequest, verr.Reason)
	case errors.Is(err, inventory.ErrInsufficientStock):
		writeErrorJSON(w, http.StatusBadRequest, "Insufficient amount")
	case errors.Is(err, inventory.ErrNotFound):
		writeErrorJSON(w, http.StatusNotFound, "Item not found")
	case errors.Is(err, ledger.ErrNotFound):
		writeErrorJSON(w, http.StatusNotFound, "Transaction not found")
	default:
		slog.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		writeErrorJSON(w, http.StatusInternalServerError, "internal server error")
	}
}

func writeDecodeError(w http.ResponseWriter, err error) {
	if isRequestBodyTooLarge(err) {
		writeErrorJSON(w, http.StatusRequestEntityTooLarge, "request body too large")
		return
	}
	writeErrorJSON(w, http.StatusBadRequest, "invalid json")
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func writeErrorJSON(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"error": strings.TrimSpace(message)})
}
