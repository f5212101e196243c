package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/me/gobank/internal/store"
	"github.com/me/gobank/pkg/model"
)

// requestID generates a unique request identifier.
func requestID() string {
	return "req_" + uuid.New().String()[:8]
}

// respondOK writes a 200 JSON response.
func respondOK(w http.ResponseWriter, data any) {
	respondJSON(w, http.StatusOK, data)
}

// respondMessage writes {"message": msg} with the given status.
func respondMessage(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, model.MessageResponse{Message: msg})
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// decodeJSON reads the request body into v and answers 400 on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		respondMessage(w, http.StatusBadRequest, "Invalid JSON body: "+err.Error())
		return false
	}
	return true
}

// respondStoreError maps ledger errors to status codes. Unknown errors are
// logged and reported as 500.
func respondStoreError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	switch {
	case errors.Is(err, store.ErrGroupInactive):
		respondMessage(w, http.StatusNotFound, "Group not found")
	case errors.Is(err, store.ErrInsufficientFunds),
		errors.Is(err, store.ErrAccountInactive),
		errors.Is(err, store.ErrUnknownRecipient),
		errors.Is(err, store.ErrAlreadyMember),
		errors.Is(err, store.ErrNotMember),
		errors.Is(err, store.ErrSelfTransfer),
		errors.Is(err, store.ErrUsernameTaken):
		respondMessage(w, http.StatusBadRequest, capitalize(err.Error()))
	default:
		logger.Error("store failure", "path", r.URL.Path, "error", err, "request_id", RequestIDFromContext(r.Context()))
		respondMessage(w, http.StatusInternalServerError, "internal error")
	}
}

func capitalize(s string) string {
	if s == "" || s[0] < 'a' || s[0] > 'z' {
		return s
	}
	return string(s[0]-'a'+'A') + s[1:]
}
