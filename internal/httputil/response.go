package httputil

import (
	"encoding/json"
	"net/http"

	"aorify/internal/model"
)

// APIVersion is reported in every error body.
const APIVersion = "1.5.7"

// ErrorResponse is the platform's error body.
type ErrorResponse struct {
	Message string `json:"message"`
	Code    int    `json:"code"`
	Type    string `json:"type"`
	Version string `json:"version"`
}

// WriteJSON writes a JSON response with the given status code
func WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// WriteNoContent writes an empty 204 response.
func WriteNoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// WriteError writes {"message", "code", "type", "version"}.
func WriteError(w http.ResponseWriter, status int, errType, message string) {
	WriteJSON(w, status, ErrorResponse{
		Message: message,
		Code:    status,
		Type:    errType,
		Version: APIVersion,
	})
}

// WriteBadRequest writes a 400 with the generic invalid-argument type
func WriteBadRequest(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusBadRequest, model.TypeArgumentInvalid, message)
}

// WriteUnauthorized writes a 401 Unauthorized error
func WriteUnauthorized(w http.ResponseWriter, errType, message string) {
	WriteError(w, http.StatusUnauthorized, errType, message)
}

// WriteNotFound writes a 404 Not Found error
func WriteNotFound(w http.ResponseWriter, errType, message string) {
	WriteError(w, http.StatusNotFound, errType, message)
}

// WriteConflict writes a 409 Conflict error
func WriteConflict(w http.ResponseWriter, errType, message string) {
	WriteError(w, http.StatusConflict, errType, message)
}

// WriteRateLimited writes a 429 with the platform's rate limit message
func WriteRateLimited(w http.ResponseWriter) {
	WriteError(w, http.StatusTooManyRequests, model.TypeRateLimitExceeded, model.MsgRateLimit)
}

// WriteInternalError writes a 500 Internal Server Error
func WriteInternalError(w http.ResponseWriter) {
	WriteError(w, http.StatusInternalServerError, model.TypeGeneralUnknown, "Server Error")
}
