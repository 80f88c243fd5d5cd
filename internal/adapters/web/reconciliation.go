package web

import (
	"net/http"
	"strconv"

	"pnl-engine/internal/app"

	"github.com/go-chi/chi/v5"
)

// apiSuggestions handles GET /api/reconciliation/suggestions?brand=&min_confidence=.
func (h *Handler) apiSuggestions(w http.ResponseWriter, r *http.Request) {
	req := app.SuggestRequest{Brand: r.URL.Query().Get("brand")}
	if raw := r.URL.Query().Get("min_confidence"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			writeError(w, r, "min_confidence must be a number", "INVALID_INPUT", http.StatusBadRequest)
			return
		}
		req.MinConfidence = &v
	}

	result, err := h.svc.SuggestMatches(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, result)
}

type linkRequest struct {
	OrderID   string `json:"order_id"`
	InvoiceID string `json:"invoice_id"`
}

// apiLink handles POST /api/reconciliation/links.
func (h *Handler) apiLink(w http.ResponseWriter, r *http.Request) {
	var req linkRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	result, err := h.svc.LinkMatch(r.Context(), req.OrderID, req.InvoiceID)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, result)
}

// apiUnlink handles DELETE /api/reconciliation/links/{orderID}.
func (h *Handler) apiUnlink(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.UnlinkMatch(r.Context(), chi.URLParam(r, "orderID"))
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, result)
}

// apiExcludeOrder handles POST /api/orders/{id}/exclude.
func (h *Handler) apiExcludeOrder(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.ExcludeOrder(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, result)
}

// apiIncludeOrder handles POST /api/orders/{id}/include.
func (h *Handler) apiIncludeOrder(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.IncludeOrder(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, result)
}

// apiTransitionInvoice handles POST /api/invoices/{id}/{action}.
func (h *Handler) apiTransitionInvoice(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.TransitionInvoice(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "action"))
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, result)
}
