// Package otp issues and checks the 4-digit email codes used by
// registration, password reset and change-password.
package otp

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/water-delivery-api/internal/domain"
	"github.com/water-delivery-api/internal/infrastructure/smtp"
)

// DynamoDB attribute names written by the issuer.
const (
	fieldOTP          = "otp"
	fieldOTPExpiresAt = "otp_expires_at"
)

type customerStore interface {
	Update(ctx context.Context, customerID string, updates map[string]interface{}) error
}

// Issuer persists a code on the customer record and mails it.
type Issuer struct {
	customers customerStore
	mailer    smtp.Mailer
	logger    *logrus.Logger
	now       func() time.Time
	generate  func() (string, error)
}

func NewIssuer(customers customerStore, mailer smtp.Mailer, logger *logrus.Logger) *Issuer {
	return &Issuer{
		customers: customers,
		mailer:    mailer,
		logger:    logger,
		now:       time.Now,
		generate:  generateCode,
	}
}

// Issue replaces any active challenge on c with a fresh code and mails it.
// The code is stored before the mail goes out, so a delivery failure still
// leaves a valid challenge behind.
func (i *Issuer) Issue(ctx context.Context, c *domain.Customer, purpose string) error {
	code, err := i.generate()
	if err != nil {
		return err
	}
	expires := i.now().UTC().Add(domain.OTPTTL)
	if err := i.customers.Update(ctx, c.CustomerID, map[string]interface{}{
		fieldOTP:          code,
		fieldOTPExpiresAt: expires,
	}); err != nil {
		return fmt.Errorf("store otp: %w", err)
	}
	c.OTP, c.OTPExpiresAt = &code, &expires

	subject, body := composeMail(purpose, code)
	if err := i.mailer.SendEmail(c.Email, subject, body); err != nil {
		i.logger.WithError(err).WithFields(logrus.Fields{
			"customer_id": c.CustomerID,
			"purpose":     purpose,
		}).Error("otp mail failed")
		return fmt.Errorf("%w: %w", domain.ErrDelivery, err)
	}
	return nil
}

// Verify checks code against the active challenge. On success the challenge
// is cleared together with any extra updates (e.g. email_verified_at).
func (i *Issuer) Verify(ctx context.Context, c *domain.Customer, code string, extra map[string]interface{}) error {
	if c.OTP == nil || *c.OTP != code {
		return domain.ErrInvalidCode
	}
	if c.OTPExpiresAt != nil && c.OTPExpiresAt.Before(i.now()) {
		return domain.ErrCodeExpired
	}
	updates := map[string]interface{}{
		fieldOTP:          nil,
		fieldOTPExpiresAt: nil,
	}
	for k, v := range extra {
		updates[k] = v
	}
	if err := i.customers.Update(ctx, c.CustomerID, updates); err != nil {
		return fmt.Errorf("clear otp: %w", err)
	}
	c.OTP, c.OTPExpiresAt = nil, nil
	return nil
}

// generateCode returns a uniform value in [0, 9999] as four digits.
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(10000))
	if err != nil {
		return "", fmt.Errorf("generate otp: %w", err)
	}
	return fmt.Sprintf("%04d", n.Int64()), nil
}

func composeMail(purpose, code string) (subject, body string) {
	switch purpose {
	case domain.OTPPurposePasswordReset:
		subject = "Reset your password"
	case domain.OTPPurposeChangePassword:
		subject = "Confirm your password change"
	default:
		subject = "Verify your email"
	}
	body = fmt.Sprintf("Your verification code is %s.\n\nIt expires in %d minutes. If you did not request it, you can ignore this email.\n",
		code, int(domain.OTPTTL/time.Minute))
	return subject, body
}
