package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-signup-api/internal/application/registration"
	"github.com/go-signup-api/internal/domain"
	"github.com/go-signup-api/internal/pkg/validate"
)

// AuthHandler handles registration, email verification and login.
type AuthHandler struct {
	svc       registration.Service
	exposeOTP bool
}

func NewAuthHandler(svc registration.Service, exposeOTP bool) *AuthHandler {
	return &AuthHandler{svc: svc, exposeOTP: exposeOTP}
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req domain.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	result, err := h.svc.Register(r.Context(), req)
	if err != nil {
		httpError(w, err)
		return
	}
	resp := RegisterEnvelope{
		Message: "Registration successful! Verification OTP sent to your email.",
		Email:   result.Email,
	}
	if h.exposeOTP {
		resp.OTP = result.OTP
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (h *AuthHandler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	var req domain.VerifyEmailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	u, err := h.svc.VerifyEmail(r.Context(), req)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, VerifyEnvelope{
		Message:    "Email successfully verified. You can now log in.",
		IsVerified: u.IsVerified,
	})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req domain.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	u, err := h.svc.Login(r.Context(), req)
	if err != nil {
		if errors.Is(err, domain.ErrForbidden) {
			writeJSON(w, http.StatusForbidden, LoginEnvelope{
				Message:              "Account not verified. Please check your email for the verification OTP.",
				RequiresVerification: true,
			})
			return
		}
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, LoginEnvelope{
		Message: fmt.Sprintf("Login successful. Welcome, %s!", u.Username),
	})
}
