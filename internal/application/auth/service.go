package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/water-delivery-api/internal/domain"
	"github.com/water-delivery-api/internal/pkg/id"
	pkgtoken "github.com/water-delivery-api/internal/pkg/token"
	"github.com/water-delivery-api/internal/pkg/validate"
	"golang.org/x/crypto/bcrypt"
)

// DynamoDB attribute names used in partial update maps.
const (
	fieldPasswordHash    = "password_hash"
	fieldEmailVerifiedAt = "email_verified_at"
)

const msgEmailTaken = "The email has already been taken."

type RegisterRequest struct {
	FirstName            string  `json:"firstname" validate:"required,max=50"`
	LastName             string  `json:"lastname" validate:"required,max=50"`
	Email                string  `json:"email" validate:"required,email,max=100"`
	ContactNo            *string `json:"contact_no" validate:"omitempty,max=20"`
	Password             string  `json:"password" validate:"required,min=6"`
	PasswordConfirmation string  `json:"password_confirmation" validate:"eqfield=Password"`
}

type EmailRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type VerifyOTPRequest struct {
	Email string `json:"email" validate:"required,email"`
	OTP   string `json:"otp" validate:"required,otp"`
}

type OTPRequest struct {
	OTP string `json:"otp" validate:"required,otp"`
}

type ResetPasswordRequest struct {
	ResetToken           string `json:"reset_token" validate:"required"`
	Password             string `json:"password" validate:"required,min=6"`
	PasswordConfirmation string `json:"password_confirmation" validate:"eqfield=Password"`
}

type ChangePasswordRequest struct {
	CurrentPassword      string `json:"current_password" validate:"required"`
	Password             string `json:"password" validate:"required,min=6"`
	PasswordConfirmation string `json:"password_confirmation" validate:"eqfield=Password"`
	KeepLoggedIn         bool   `json:"keep_logged_in"`
}

type Service interface {
	// Register creates an unverified customer and mails the first code.
	// On ErrDelivery the returned customer has still been created.
	Register(ctx context.Context, req RegisterRequest) (*domain.Customer, error)
	VerifyEmail(ctx context.Context, req VerifyOTPRequest) error
	ResendVerification(ctx context.Context, req EmailRequest) error

	ForgotPassword(ctx context.Context, req EmailRequest) error
	VerifyForgotPassword(ctx context.Context, req VerifyOTPRequest) (resetToken string, err error)
	ResetPassword(ctx context.Context, req ResetPasswordRequest) error

	ChangePasswordSendOTP(ctx context.Context, c *domain.Customer, req EmailRequest) error
	ChangePasswordVerifyOTP(ctx context.Context, c *domain.Customer, req OTPRequest) error
	// ChangePasswordUpdate sets the new password. When keep_logged_in is
	// false the session token is forgotten and loggedOut is true.
	ChangePasswordUpdate(ctx context.Context, c *domain.Customer, sessionToken string, req ChangePasswordRequest) (loggedOut bool, err error)
}

type customerStore interface {
	Create(ctx context.Context, c *domain.Customer) error
	GetByEmail(ctx context.Context, email string) (*domain.Customer, error)
	Update(ctx context.Context, customerID string, updates map[string]interface{}) error
}

type otpIssuer interface {
	Issue(ctx context.Context, c *domain.Customer, purpose string) error
	Verify(ctx context.Context, c *domain.Customer, code string, extra map[string]interface{}) error
}

type service struct {
	customers customerStore
	cache     domain.Cache
	otp       otpIssuer
	logger    *logrus.Logger
	conceal   bool
	now       func() time.Time
}

type ServiceDeps struct {
	CustomerRepo customerStore
	Cache        domain.Cache
	OTP          otpIssuer
	Logger       *logrus.Logger
	// ConcealAccountExistence answers forgot-password for unknown emails
	// as if a code had been sent.
	ConcealAccountExistence bool
}

func NewService(deps ServiceDeps) Service {
	return &service{
		customers: deps.CustomerRepo,
		cache:     deps.Cache,
		otp:       deps.OTP,
		logger:    deps.Logger,
		conceal:   deps.ConcealAccountExistence,
		now:       time.Now,
	}
}

func (s *service) Register(ctx context.Context, req RegisterRequest) (*domain.Customer, error) {
	req.Email = strings.TrimSpace(req.Email)
	if err := validate.Struct(req); err != nil {
		return nil, err
	}
	email := domain.NormalizeEmail(req.Email)
	if _, err := s.customers.GetByEmail(ctx, email); err == nil {
		return nil, domain.FieldErrors{"email": msgEmailTaken}
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	c := &domain.Customer{
		CustomerID:   id.New(),
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
		Email:        email,
		ContactNo:    trimmedOrNil(req.ContactNo),
		PasswordHash: string(hash),
		Image:        domain.DefaultCustomerImage,
		Status:       domain.CustomerStatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.customers.Create(ctx, c); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return nil, domain.FieldErrors{"email": msgEmailTaken}
		}
		return nil, err
	}
	if err := s.otp.Issue(ctx, c, domain.OTPPurposeRegistration); err != nil {
		return c, err
	}
	return c, nil
}

func (s *service) VerifyEmail(ctx context.Context, req VerifyOTPRequest) error {
	if err := validate.Struct(req); err != nil {
		return err
	}
	c, err := s.customers.GetByEmail(ctx, req.Email)
	if err != nil {
		return err
	}
	return s.otp.Verify(ctx, c, req.OTP, map[string]interface{}{
		fieldEmailVerifiedAt: s.now().UTC(),
	})
}

func (s *service) ResendVerification(ctx context.Context, req EmailRequest) error {
	if err := validate.Struct(req); err != nil {
		return err
	}
	c, err := s.customers.GetByEmail(ctx, req.Email)
	if err != nil {
		return err
	}
	return s.otp.Issue(ctx, c, domain.OTPPurposeRegistration)
}

func (s *service) ForgotPassword(ctx context.Context, req EmailRequest) error {
	if err := validate.Struct(req); err != nil {
		return err
	}
	c, err := s.customers.GetByEmail(ctx, req.Email)
	if errors.Is(err, domain.ErrNotFound) && s.conceal {
		s.logger.WithField("email", domain.NormalizeEmail(req.Email)).Info("forgot-password for unknown email")
		return nil
	}
	if err != nil {
		return err
	}
	return s.otp.Issue(ctx, c, domain.OTPPurposePasswordReset)
}

func (s *service) VerifyForgotPassword(ctx context.Context, req VerifyOTPRequest) (string, error) {
	if err := validate.Struct(req); err != nil {
		return "", err
	}
	c, err := s.customers.GetByEmail(ctx, req.Email)
	if err != nil {
		return "", err
	}
	if err := s.otp.Verify(ctx, c, req.OTP, nil); err != nil {
		return "", err
	}
	resetToken, err := pkgtoken.New()
	if err != nil {
		return "", err
	}
	if err := s.cache.Put(ctx, domain.PasswordResetKey(resetToken), c.Email, domain.PasswordResetTTL); err != nil {
		return "", fmt.Errorf("store reset token: %w", err)
	}
	return resetToken, nil
}

func (s *service) ResetPassword(ctx context.Context, req ResetPasswordRequest) error {
	if err := validate.Struct(req); err != nil {
		return err
	}
	key := domain.PasswordResetKey(req.ResetToken)
	email, err := s.cache.Get(ctx, key)
	if errors.Is(err, domain.ErrCacheMiss) {
		return domain.ErrInvalidResetToken
	}
	if err != nil {
		return fmt.Errorf("read reset token: %w", err)
	}

	c, err := s.customers.GetByEmail(ctx, email)
	if errors.Is(err, domain.ErrNotFound) {
		s.forget(ctx, key)
		return err
	}
	if err != nil {
		return err
	}
	if err := s.setPassword(ctx, c, req.Password); err != nil {
		return err
	}
	s.forget(ctx, key)
	return nil
}

func (s *service) ChangePasswordSendOTP(ctx context.Context, c *domain.Customer, req EmailRequest) error {
	if err := validate.Struct(req); err != nil {
		return err
	}
	if !strings.EqualFold(c.Email, strings.TrimSpace(req.Email)) {
		return domain.ErrEmailMismatch
	}
	return s.otp.Issue(ctx, c, domain.OTPPurposeChangePassword)
}

func (s *service) ChangePasswordVerifyOTP(ctx context.Context, c *domain.Customer, req OTPRequest) error {
	if err := validate.Struct(req); err != nil {
		return err
	}
	if err := s.otp.Verify(ctx, c, req.OTP, nil); err != nil {
		return err
	}
	if err := s.cache.Put(ctx, domain.ChangePasswordVerifiedKey(c.CustomerID), "1", domain.ChangePasswordVerifiedTTL); err != nil {
		return fmt.Errorf("store change-password flag: %w", err)
	}
	return nil
}

func (s *service) ChangePasswordUpdate(ctx context.Context, c *domain.Customer, sessionToken string, req ChangePasswordRequest) (bool, error) {
	flagKey := domain.ChangePasswordVerifiedKey(c.CustomerID)
	if _, err := s.cache.Get(ctx, flagKey); errors.Is(err, domain.ErrCacheMiss) {
		return false, domain.ErrNotVerified
	} else if err != nil {
		return false, fmt.Errorf("read change-password flag: %w", err)
	}
	if err := validate.Struct(req); err != nil {
		return false, err
	}
	if bcrypt.CompareHashAndPassword([]byte(c.PasswordHash), []byte(req.CurrentPassword)) != nil {
		return false, domain.ErrWrongPassword
	}
	if err := s.setPassword(ctx, c, req.Password); err != nil {
		return false, err
	}
	s.forget(ctx, flagKey)

	if req.KeepLoggedIn {
		return false, nil
	}
	if sessionToken != "" {
		s.forget(ctx, domain.SessionKey(sessionToken))
	}
	return true, nil
}

func (s *service) setPassword(ctx context.Context, c *domain.Customer, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	if err := s.customers.Update(ctx, c.CustomerID, map[string]interface{}{fieldPasswordHash: string(hash)}); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	c.PasswordHash = string(hash)
	return nil
}

// forget evicts a cache key, logging instead of failing: the key expires on its own.
func (s *service) forget(ctx context.Context, key string) {
	if err := s.cache.Forget(ctx, key); err != nil {
		s.logger.WithError(err).WithField("key_prefix", key[:strings.Index(key, ":")+1]).Warn("cache forget failed")
	}
}

func trimmedOrNil(p *string) *string {
	if p == nil {
		return nil
	}
	v := strings.TrimSpace(*p)
	if v == "" {
		return nil
	}
	return &v
}
