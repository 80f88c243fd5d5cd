package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"pnl-engine/internal/app"
	"pnl-engine/internal/core"
	"pnl-engine/internal/logging"

	"github.com/sirupsen/logrus"
)

type errorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	RequestID string `json:"request_id,omitempty"`
}

// writeError writes a structured JSON error response.
func writeError(w http.ResponseWriter, r *http.Request, message, code string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	resp := errorResponse{
		Error:     message,
		Code:      code,
		RequestID: requestIDFromContext(r.Context()),
	}
	_ = json.NewEncoder(w).Encode(resp)
}

// errorMapping pairs a service sentinel with its API code and HTTP status.
var errorMapping = []struct {
	err    error
	code   string
	status int
}{
	{core.ErrNotFound, "NOT_FOUND", http.StatusNotFound},
	{core.ErrAlreadyLinked, "ALREADY_LINKED", http.StatusConflict},
	{core.ErrNotLinked, "NOT_LINKED", http.StatusConflict},
	{core.ErrInvalidTransition, "INVALID_TRANSITION", http.StatusConflict},
	{core.ErrInvalidInput, "INVALID_INPUT", http.StatusBadRequest},
	{app.ErrReconciliationBusy, "RECONCILIATION_BUSY", http.StatusConflict},
}

// writeServiceError maps an ApplicationService error onto the API error contract.
// Unrecognised errors are logged and reported as INTERNAL_ERROR without detail.
func writeServiceError(w http.ResponseWriter, r *http.Request, logger logrus.FieldLogger, err error) {
	for _, m := range errorMapping {
		if errors.Is(err, m.err) {
			writeError(w, r, err.Error(), m.code, m.status)
			return
		}
	}
	logging.LogError(logger.WithField("request_id", requestIDFromContext(r.Context())),
		"web", r.Method+" "+r.URL.Path, "unhandled service error", nil, err)
	writeError(w, r, "internal server error", "INTERNAL_ERROR", http.StatusInternalServerError)
}

// writeJSON writes a JSON response with status 200.
func writeJSON(w http.ResponseWriter, v any) {
	writeJSONStatus(w, http.StatusOK, v)
}

func writeJSONStatus(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
