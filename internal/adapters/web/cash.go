package web

import (
	"net/http"
	"strconv"

	"pnl-engine/internal/app"
)

// apiCashPosition handles GET /api/cash/position?brand=.
func (h *Handler) apiCashPosition(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.GetCashPosition(r.Context(), r.URL.Query().Get("brand"))
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, result)
}

// apiForecast handles GET /api/cash/forecast?brand=&horizon_days=.
func (h *Handler) apiForecast(w http.ResponseWriter, r *http.Request) {
	req := app.ForecastRequest{Brand: r.URL.Query().Get("brand")}
	if raw := r.URL.Query().Get("horizon_days"); raw != "" {
		days, err := strconv.Atoi(raw)
		if err != nil || days <= 0 {
			writeError(w, r, "horizon_days must be a positive integer", "INVALID_INPUT", http.StatusBadRequest)
			return
		}
		req.HorizonDays = days
	}

	result, err := h.svc.GetForecast(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, result)
}
