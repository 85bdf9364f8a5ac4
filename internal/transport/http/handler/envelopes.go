package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-signup-api/internal/domain"
)

// MessageEnvelope is the generic response wrapper.
type MessageEnvelope struct {
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// RegisterEnvelope wraps registration responses. OTP is populated only when
// the debug exposure flag is on.
type RegisterEnvelope struct {
	Message string `json:"message"`
	Email   string `json:"email"`
	OTP     string `json:"otp,omitempty"`
}

// VerifyEnvelope wraps email verification responses.
type VerifyEnvelope struct {
	Message    string `json:"message"`
	IsVerified bool   `json:"isVerified"`
}

// LoginEnvelope wraps login responses.
type LoginEnvelope struct {
	Message              string `json:"message"`
	RequiresVerification bool   `json:"requiresVerification,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, MessageEnvelope{Error: msg})
}

// httpError maps domain sentinel errors to HTTP status codes. Anything
// unrecognised is a downstream failure and comes back as a generic 500 so
// store internals never reach the client.
func httpError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrBadRequest):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, domain.ErrForbidden):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrConflict):
		writeError(w, http.StatusConflict, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}
