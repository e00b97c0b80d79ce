// Package handlers implements the HTTP surface's request handlers: blob,
// user, metadata, token and health endpoints, per spec section 4.6.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/dreamware/csync/internal/apperr"
)

// envelope is the JSON shape every non-binary response uses.
type envelope struct {
	Code    int    `json:"code"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// listData is the data payload for every paginated list endpoint.
type listData[T any] struct {
	Items []T    `json:"items"`
	Total uint64 `json:"total"`
}

func writeJSON(w http.ResponseWriter, status int, body envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeOK(w http.ResponseWriter) {
	writeJSON(w, http.StatusOK, envelope{Code: http.StatusOK})
}

func writeData(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusOK, envelope{Code: http.StatusOK, Data: data})
}

// writeError maps an apperr.Kind to its HTTP status and renders the
// envelope. Unrecognized errors are treated as internal errors.
func writeError(w http.ResponseWriter, err error) {
	appErr, ok := apperr.As(err)
	if !ok {
		appErr = apperr.Internal(err)
	}

	status := statusForKind(appErr.Kind)
	writeJSON(w, status, envelope{Code: status, Message: appErr.Message})
}

// WriteError is the exported form of writeError, used by internal/httpserver
// to render auth-pipeline and routing failures with the same envelope.
func WriteError(w http.ResponseWriter, err error) {
	writeError(w, err)
}

func statusForKind(kind apperr.Kind) int {
	switch kind {
	case apperr.KindValidation:
		return http.StatusBadRequest
	case apperr.KindAuth:
		return http.StatusUnauthorized
	case apperr.KindPermission:
		return http.StatusForbidden
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindDatabase, apperr.KindInternal:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
