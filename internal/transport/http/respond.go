package transporthttp

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"reviewguard/internal/detector"
)

const (
	codeValidation       = "VALIDATION_ERROR"
	codeBatchTooLarge    = "BATCH_TOO_LARGE"
	codeInvalidJSON      = "INVALID_JSON"
	codePayloadTooLarge  = "PAYLOAD_TOO_LARGE"
	codeNotFound         = "NOT_FOUND"
	codeMethodNotAllowed = "METHOD_NOT_ALLOWED"
	codeInternal         = "INTERNAL_ERROR"
)

type errorBody struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	writeJSON(w, status, map[string]errorBody{
		"error": {Code: code, Message: message, RequestID: requestIDFromContext(r.Context())},
	})
}

func mapError(err error) (int, string, string) {
	var maxBytes *http.MaxBytesError
	switch {
	case errors.As(err, &maxBytes):
		return http.StatusRequestEntityTooLarge, codePayloadTooLarge, err.Error()
	case errors.Is(err, detector.ErrBatchTooLarge):
		return http.StatusRequestEntityTooLarge, codeBatchTooLarge, err.Error()
	case errors.Is(err, detector.ErrValidation):
		return http.StatusBadRequest, codeValidation, err.Error()
	case errors.Is(err, detector.ErrMalformed):
		return http.StatusBadRequest, codeInvalidJSON, err.Error()
	default:
		return http.StatusInternalServerError, codeInternal, "internal server error"
	}
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, code, message := mapError(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", zap.Error(err), zap.String("request_id", requestIDFromContext(r.Context())))
	}
	writeError(w, r, status, code, message)
}
