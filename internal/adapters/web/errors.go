package web

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"photo-agency/internal/core"

	"github.com/rs/zerolog/log"
)

type errorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	Field     string `json:"field,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// writeError writes a structured JSON error response.
func writeError(w http.ResponseWriter, r *http.Request, message, code string, status int) {
	writeErrorResponse(w, r, errorResponse{Error: message, Code: code}, status)
}

func writeErrorResponse(w http.ResponseWriter, r *http.Request, resp errorResponse, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	resp.RequestID = requestIDFromContext(r.Context())
	_ = json.NewEncoder(w).Encode(resp)
}

// writeServiceError maps a service error onto an HTTP status by its kind.
// Internal errors are logged and never echoed to the client.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var ce *core.Error
	errors.As(err, &ce)

	switch core.KindOf(err) {
	case core.KindValidation:
		writeErrorResponse(w, r, errorResponse{Error: err.Error(), Code: "VALIDATION_ERROR", Field: ce.Field}, http.StatusBadRequest)
	case core.KindNotFound:
		writeError(w, r, err.Error(), "NOT_FOUND", http.StatusNotFound)
	case core.KindConflict:
		writeError(w, r, err.Error(), "CONFLICT", http.StatusConflict)
	default:
		log.Error().Err(err).
			Str("request_id", requestIDFromContext(r.Context())).
			Str("path", r.URL.Path).
			Msg("request failed")
		writeError(w, r, "internal server error", "INTERNAL_ERROR", http.StatusInternalServerError)
	}
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

// writeCSV buffers the export so a failure is still reported as a JSON error.
func writeCSV(w http.ResponseWriter, r *http.Request, filename string, export func(io.Writer) error) {
	var buf bytes.Buffer
	if err := export(&buf); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", "attachment; filename="+filename)
	_, _ = buf.WriteTo(w)
}
