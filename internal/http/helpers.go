package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"finsheets/internal/api"
	"finsheets/internal/core"
	"finsheets/internal/log"
)

const internalErrorMessage = "Internal server error"

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, api.ErrorResponse{Error: message})
}

// respondError maps err onto a status code: validation failures are 400,
// unknown ids 404, and everything else 500 with the collaborator's
// message passed through.
func respondError(w http.ResponseWriter, r *http.Request, op string, err error) {
	status, message := classify(err)

	logger := log.FromContext(r.Context())
	fields := log.NewFields().WithOperation(op).WithError(err)
	if status >= 500 {
		logger.ErrorContext(r.Context(), "Request failed", fields.ToSlice()...)
	} else {
		logger.DebugContext(r.Context(), "Request rejected", fields.ToSlice()...)
	}

	writeError(w, status, message)
}

func classify(err error) (int, string) {
	var (
		ve *core.ValidationError
		ce *core.CollaboratorError
	)
	switch {
	case errors.As(err, &ve):
		return http.StatusBadRequest, ve.Message
	case errors.As(err, &ce):
		return http.StatusInternalServerError, ce.Error()
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound, err.Error()
	case err != nil:
		return http.StatusInternalServerError, internalErrorMessage
	default:
		return http.StatusOK, ""
	}
}

// decodeJSON reads a single JSON object from the request body.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			return core.NewValidationError("body", "Request body too large")
		case errors.Is(err, io.EOF):
			return core.NewValidationError("body", "Request body is empty")
		default:
			return core.NewValidationError("body", fmt.Sprintf("Invalid JSON body: %v", err))
		}
	}
	return nil
}
