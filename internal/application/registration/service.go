package registration

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/go-signup-api/internal/domain"
	"github.com/go-signup-api/internal/pkg/id"
	"github.com/go-signup-api/internal/pkg/otp"
	"golang.org/x/crypto/bcrypt"
)

// DynamoDB attribute names used in partial update maps.
const (
	fieldUsername     = "username"
	fieldPasswordHash = "password_hash"
)

const emailSubject = "Secure Registration: Email Verification OTP"

// RegistrationResult reports the outcome of a registration attempt. OTP is
// the plaintext code; handlers expose it only when the debug affordance is
// enabled.
type RegistrationResult struct {
	Email string
	OTP   string
}

type Service interface {
	Register(ctx context.Context, req domain.RegisterRequest) (*RegistrationResult, error)
	VerifyEmail(ctx context.Context, req domain.VerifyEmailRequest) (*domain.User, error)
	Login(ctx context.Context, req domain.LoginRequest) (*domain.User, error)
}

type userStore interface {
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	Create(ctx context.Context, u *domain.User) error
	Update(ctx context.Context, userID string, updates map[string]interface{}) error
	SetVerified(ctx context.Context, email string) (*domain.User, error)
}

type otpStore interface {
	Upsert(ctx context.Context, rec *domain.OtpRecord) error
	GetByEmailAndCode(ctx context.Context, email, code string) (*domain.OtpRecord, error)
	Delete(ctx context.Context, email string) error
}

type mailSender interface {
	SendEmail(to, subject, htmlBody string) error
}

type service struct {
	users     userStore
	otps      otpStore
	mailer    mailSender
	otpExpiry time.Duration

	// emailLocks serializes Register/VerifyEmail per normalized email.
	// DynamoDB cannot reject a duplicate email at write time (the table key
	// is user_id), so without this two concurrent Registers for a brand-new
	// address would both pass the GetByEmail pre-check and both insert.
	emailLocks sync.Map // email -> *sync.Mutex
}

type ServiceDeps struct {
	UserRepo  userStore
	OtpRepo   otpStore
	Mailer    mailSender
	OTPExpiry time.Duration
}

func NewService(deps ServiceDeps) Service {
	return &service{
		users:     deps.UserRepo,
		otps:      deps.OtpRepo,
		mailer:    deps.Mailer,
		otpExpiry: deps.OTPExpiry,
	}
}

// Register creates an unverified account (or refreshes an existing
// unverified one) and issues a fresh verification code. Re-registering an
// unverified email overwrites username and password instead of failing;
// a verified account is a conflict.
func (s *service) Register(ctx context.Context, req domain.RegisterRequest) (*RegistrationResult, error) {
	email := normalizeEmail(req.Email)
	defer s.lockEmail(email)()

	existing, err := s.users.GetByEmail(ctx, email)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	if existing != nil && existing.IsVerified {
		return nil, fmt.Errorf("account already registered and verified: %w", domain.ErrConflict)
	}

	// The requested username must not belong to any other account. This
	// guards the re-registration overwrite as much as the initial create;
	// only the account being re-registered may already own it.
	if existing == nil || req.Username != existing.Username {
		if other, uErr := s.users.GetByUsername(ctx, req.Username); uErr == nil {
			if existing == nil || other.UserID != existing.UserID {
				return nil, fmt.Errorf("username already taken: %w", domain.ErrConflict)
			}
		} else if !errors.Is(uErr, domain.ErrNotFound) {
			return nil, uErr
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	if existing != nil {
		// Unverified re-registration: overwrite credentials, keep the record.
		err = s.users.Update(ctx, existing.UserID, map[string]interface{}{
			fieldUsername:     req.Username,
			fieldPasswordHash: string(hash),
		})
		if err != nil {
			return nil, err
		}
	} else {
		now := time.Now().UTC()
		u := &domain.User{
			UserID:       id.New(),
			Username:     req.Username,
			Email:        email,
			PasswordHash: string(hash),
			IsVerified:   false,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if err := s.users.Create(ctx, u); err != nil {
			return nil, err
		}
	}

	code, err := otp.Generate()
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	rec := &domain.OtpRecord{
		Email:     email,
		Code:      code,
		CreatedAt: now,
		ExpiresAt: now.Add(s.otpExpiry).Unix(),
	}
	if err := s.otps.Upsert(ctx, rec); err != nil {
		return nil, err
	}

	// The user/OTP writes are already committed; a delivery failure must not
	// roll them back or leak mailer internals to the client.
	if err := s.mailer.SendEmail(email, emailSubject, verificationBody(code, s.otpExpiry)); err != nil {
		slog.Error("failed to send verification email", "email", email, "err", err)
	}

	return &RegistrationResult{Email: email, OTP: code}, nil
}

// VerifyEmail consumes a live code and flips the account to verified.
func (s *service) VerifyEmail(ctx context.Context, req domain.VerifyEmailRequest) (*domain.User, error) {
	email := normalizeEmail(req.Email)
	defer s.lockEmail(email)()

	if _, err := s.otps.GetByEmailAndCode(ctx, email, req.OTP); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("invalid or expired OTP: %w", domain.ErrBadRequest)
		}
		return nil, err
	}

	u, err := s.users.SetVerified(ctx, email)
	if err != nil {
		return nil, err
	}

	// Single use: the code must not validate a second time.
	if err := s.otps.Delete(ctx, email); err != nil {
		slog.Warn("failed to delete consumed OTP", "email", email, "err", err)
	}
	return u, nil
}

// Login checks credentials and verification status. An unknown email and a
// wrong password are indistinguishable to the caller; an unverified account
// with correct credentials is reported separately so the client can resume
// verification.
func (s *service) Login(ctx context.Context, req domain.LoginRequest) (*domain.User, error) {
	email := normalizeEmail(req.Email)

	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("invalid credentials: %w", domain.ErrUnauthorized)
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)); err != nil {
		return nil, fmt.Errorf("invalid credentials: %w", domain.ErrUnauthorized)
	}
	if !u.IsVerified {
		return nil, fmt.Errorf("account not verified: %w", domain.ErrForbidden)
	}
	return u, nil
}

// lockEmail acquires the mutex for the given email and returns its unlock.
func (s *service) lockEmail(email string) func() {
	v, _ := s.emailLocks.LoadOrStore(email, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func verificationBody(code string, validity time.Duration) string {
	return fmt.Sprintf(`<h2>Email Verification</h2>
<p>Thank you for registering. Please use the following One-Time Password (OTP) to verify your email address:</p>
<h1>%s</h1>
<p>This OTP is valid for %d minutes.</p>
<p>If you did not request this, please ignore this email.</p>`, code, int(validity.Minutes()))
}
