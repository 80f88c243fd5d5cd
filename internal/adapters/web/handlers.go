package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"pnl-engine/internal/app"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
)

// Handler holds the ApplicationService and the chi router.
type Handler struct {
	svc    app.ApplicationService
	logger logrus.FieldLogger
	router chi.Router
}

// NewHandler creates and wires the chi router with all routes.
func NewHandler(svc app.ApplicationService, allowedOrigins string, logger logrus.FieldLogger) http.Handler {
	h := &Handler{svc: svc, logger: logger}

	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(Logger(logger))
	r.Use(Recoverer(logger))
	r.Use(CORS(allowedOrigins))
	r.Use(RequestBodyLimit(1 << 20)) // 1 MB

	r.Get("/api/health", h.health)

	// ── Reconciliation ────────────────────────────────────────────────────────
	r.Get("/api/reconciliation/suggestions", h.apiSuggestions)
	r.Post("/api/reconciliation/links", h.apiLink)
	r.Delete("/api/reconciliation/links/{orderID}", h.apiUnlink)
	r.Post("/api/orders/{id}/exclude", h.apiExcludeOrder)
	r.Post("/api/orders/{id}/include", h.apiIncludeOrder)
	r.Post("/api/invoices/{id}/{action}", h.apiTransitionInvoice)

	// ── Cash ──────────────────────────────────────────────────────────────────
	r.Get("/api/cash/position", h.apiCashPosition)
	r.Get("/api/cash/forecast", h.apiForecast)

	h.router = r
	return r
}

// health returns service status.
func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	type response struct {
		Status string `json:"status"`
	}
	writeJSON(w, response{Status: "ok"})
}

// decodeJSON decodes the request body into v and returns false + writes an appropriate
// error response on failure. Returns HTTP 413 when the body exceeds the size limit set
// by RequestBodyLimit middleware; HTTP 400 for all other decode errors.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			writeError(w, r, "request body too large", "REQUEST_TOO_LARGE", http.StatusRequestEntityTooLarge)
			return false
		}
		writeError(w, r, "invalid JSON body: "+err.Error(), "INVALID_INPUT", http.StatusBadRequest)
		return false
	}
	return true
}
