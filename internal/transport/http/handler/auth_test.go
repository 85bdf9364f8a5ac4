package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-signup-api/internal/application/registration"
	"github.com/go-signup-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// --- mock ---

type mockRegistrationSvc struct{ mock.Mock }

func (m *mockRegistrationSvc) Register(ctx context.Context, req domain.RegisterRequest) (*registration.RegistrationResult, error) {
	args := m.Called(ctx, req)
	if r, _ := args.Get(0).(*registration.RegistrationResult); r != nil {
		return r, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockRegistrationSvc) VerifyEmail(ctx context.Context, req domain.VerifyEmailRequest) (*domain.User, error) {
	args := m.Called(ctx, req)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockRegistrationSvc) Login(ctx context.Context, req domain.LoginRequest) (*domain.User, error) {
	args := m.Called(ctx, req)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}

// --- helpers ---

func doJSON(t *testing.T, h http.HandlerFunc, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	b, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

// --- Register ---

func TestRegister_Success_WithDebugOTP(t *testing.T) {
	svc := &mockRegistrationSvc{}
	svc.On("Register", mock.Anything, mock.Anything).Return(&registration.RegistrationResult{
		Email: "a@x.com", OTP: "123456",
	}, nil)

	h := NewAuthHandler(svc, true)
	rec := doJSON(t, h.Register, domain.RegisterRequest{
		Username: "alice", Email: "a@x.com", Password: "pw123",
	})

	assert.Equal(t, http.StatusCreated, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "a@x.com", body["email"])
	assert.Equal(t, "123456", body["otp"])
	assert.Contains(t, body["message"], "Registration successful")
}

func TestRegister_Success_OTPHiddenByDefault(t *testing.T) {
	svc := &mockRegistrationSvc{}
	svc.On("Register", mock.Anything, mock.Anything).Return(&registration.RegistrationResult{
		Email: "a@x.com", OTP: "123456",
	}, nil)

	h := NewAuthHandler(svc, false)
	rec := doJSON(t, h.Register, domain.RegisterRequest{
		Username: "alice", Email: "a@x.com", Password: "pw123",
	})

	assert.Equal(t, http.StatusCreated, rec.Code)
	body := decodeBody(t, rec)
	_, present := body["otp"]
	assert.False(t, present)
}

func TestRegister_MissingFields_BadRequest(t *testing.T) {
	svc := &mockRegistrationSvc{}
	h := NewAuthHandler(svc, false)
	rec := doJSON(t, h.Register, domain.RegisterRequest{Username: "alice"})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	svc.AssertNotCalled(t, "Register", mock.Anything, mock.Anything)
}

func TestRegister_InvalidJSON_BadRequest(t *testing.T) {
	h := NewAuthHandler(&mockRegistrationSvc{}, false)
	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader([]byte("{not-json")))
	rec := httptest.NewRecorder()
	h.Register(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRegister_Conflict(t *testing.T) {
	svc := &mockRegistrationSvc{}
	svc.On("Register", mock.Anything, mock.Anything).Return(nil,
		fmt.Errorf("account already registered and verified: %w", domain.ErrConflict))

	h := NewAuthHandler(svc, false)
	rec := doJSON(t, h.Register, domain.RegisterRequest{
		Username: "alice", Email: "a@x.com", Password: "pw123",
	})

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestRegister_UnexpectedError_Generic500(t *testing.T) {
	svc := &mockRegistrationSvc{}
	svc.On("Register", mock.Anything, mock.Anything).Return(nil, errors.New("dynamo exploded"))

	h := NewAuthHandler(svc, false)
	rec := doJSON(t, h.Register, domain.RegisterRequest{
		Username: "alice", Email: "a@x.com", Password: "pw123",
	})

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "internal server error", body["error"])
	assert.NotContains(t, rec.Body.String(), "dynamo")
}

// --- VerifyEmail ---

func TestVerifyEmail_Success(t *testing.T) {
	svc := &mockRegistrationSvc{}
	svc.On("VerifyEmail", mock.Anything, mock.Anything).Return(&domain.User{
		Email: "a@x.com", IsVerified: true,
	}, nil)

	h := NewAuthHandler(svc, false)
	rec := doJSON(t, h.VerifyEmail, domain.VerifyEmailRequest{
		Email: "a@x.com", OTP: "123456",
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, true, body["isVerified"])
}

func TestVerifyEmail_InvalidOTP_BadRequest(t *testing.T) {
	svc := &mockRegistrationSvc{}
	svc.On("VerifyEmail", mock.Anything, mock.Anything).Return(nil,
		fmt.Errorf("invalid or expired OTP: %w", domain.ErrBadRequest))

	h := NewAuthHandler(svc, false)
	rec := doJSON(t, h.VerifyEmail, domain.VerifyEmailRequest{
		Email: "a@x.com", OTP: "000000",
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestVerifyEmail_UserMissing_NotFound(t *testing.T) {
	svc := &mockRegistrationSvc{}
	svc.On("VerifyEmail", mock.Anything, mock.Anything).Return(nil,
		fmt.Errorf("user not found: %w", domain.ErrNotFound))

	h := NewAuthHandler(svc, false)
	rec := doJSON(t, h.VerifyEmail, domain.VerifyEmailRequest{
		Email: "a@x.com", OTP: "123456",
	})

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestVerifyEmail_MissingFields_BadRequest(t *testing.T) {
	svc := &mockRegistrationSvc{}
	h := NewAuthHandler(svc, false)
	rec := doJSON(t, h.VerifyEmail, domain.VerifyEmailRequest{Email: "a@x.com"})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	svc.AssertNotCalled(t, "VerifyEmail", mock.Anything, mock.Anything)
}

// --- Login ---

func TestLogin_Success(t *testing.T) {
	svc := &mockRegistrationSvc{}
	svc.On("Login", mock.Anything, mock.Anything).Return(&domain.User{
		Username: "alice", Email: "a@x.com", IsVerified: true,
	}, nil)

	h := NewAuthHandler(svc, false)
	rec := doJSON(t, h.Login, domain.LoginRequest{Email: "a@x.com", Password: "pw123"})

	assert.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Contains(t, body["message"], "alice")
	_, present := body["requiresVerification"]
	assert.False(t, present)
}

func TestLogin_InvalidCredentials_Unauthorized(t *testing.T) {
	svc := &mockRegistrationSvc{}
	svc.On("Login", mock.Anything, mock.Anything).Return(nil,
		fmt.Errorf("invalid credentials: %w", domain.ErrUnauthorized))

	h := NewAuthHandler(svc, false)
	rec := doJSON(t, h.Login, domain.LoginRequest{Email: "a@x.com", Password: "wrong"})

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLogin_NotVerified_ForbiddenWithFlag(t *testing.T) {
	svc := &mockRegistrationSvc{}
	svc.On("Login", mock.Anything, mock.Anything).Return(nil,
		fmt.Errorf("account not verified: %w", domain.ErrForbidden))

	h := NewAuthHandler(svc, false)
	rec := doJSON(t, h.Login, domain.LoginRequest{Email: "a@x.com", Password: "pw123"})

	assert.Equal(t, http.StatusForbidden, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, true, body["requiresVerification"])
}

func TestLogin_MissingFields_BadRequest(t *testing.T) {
	svc := &mockRegistrationSvc{}
	h := NewAuthHandler(svc, false)
	rec := doJSON(t, h.Login, domain.LoginRequest{Email: "a@x.com"})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	svc.AssertNotCalled(t, "Login", mock.Anything, mock.Anything)
}
