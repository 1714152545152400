package handler

import (
	"errors"
	"net/http"

	"github.com/sirupsen/logrus"
	"github.com/water-delivery-api/internal/application/auth"
	"github.com/water-delivery-api/internal/application/customer"
	"github.com/water-delivery-api/internal/application/session"
	"github.com/water-delivery-api/internal/domain"
	"github.com/water-delivery-api/internal/transport/http/middleware"
)

const (
	msgNoAccount       = "No account found with this email address."
	msgAccountNotFound = "Account not found."
)

// AuthHandler handles the public login, registration and password recovery endpoints.
type AuthHandler struct {
	auth      auth.Service
	sessions  session.Service
	customers customer.Service
	logger    *logrus.Logger
}

func NewAuthHandler(authSvc auth.Service, sessions session.Service, customers customer.Service, logger *logrus.Logger) *AuthHandler {
	return &AuthHandler{auth: authSvc, sessions: sessions, customers: customers, logger: logger}
}

// registeredCustomer is the subset of the profile returned right after sign-up.
type registeredCustomer struct {
	ID        string  `json:"id"`
	FirstName string  `json:"firstname"`
	LastName  string  `json:"lastname"`
	Email     string  `json:"email"`
	ContactNo *string `json:"contact_no"`
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req session.LoginRequest
	if !decode(w, r, &req) {
		return
	}
	c, token, err := h.sessions.Login(r.Context(), req)
	if errors.Is(err, domain.ErrUnverified) && c != nil {
		writeJSON(w, http.StatusForbidden, Envelope{
			Message: "Please verify your email with the 4-digit OTP first.",
			Email:   c.Email,
		})
		return
	}
	if err != nil {
		httpError(w, r, h.logger, err, nil)
		return
	}
	writeOK(w, Envelope{
		Message:  "Logged in successfully.",
		Customer: h.customers.Profile(r.Context(), c),
		Token:    token,
	})
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req auth.RegisterRequest
	if !decode(w, r, &req) {
		return
	}
	c, err := h.auth.Register(r.Context(), req)
	if err != nil {
		httpError(w, r, h.logger, err, messages{
			domain.ErrDelivery: "Account created but we could not send the verification email.",
		})
		return
	}
	writeJSON(w, http.StatusCreated, Envelope{
		Success: true,
		Message: "Account created. A 4-digit code was sent to your email. Verify with POST /api/v1/verify-otp.",
		Email:   c.Email,
		Customer: registeredCustomer{
			ID:        c.CustomerID,
			FirstName: c.FirstName,
			LastName:  c.LastName,
			Email:     c.Email,
			ContactNo: c.ContactNo,
		},
	})
}

func (h *AuthHandler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req auth.VerifyOTPRequest
	if !decode(w, r, &req) {
		return
	}
	if err := h.auth.VerifyEmail(r.Context(), req); err != nil {
		httpError(w, r, h.logger, err, messages{
			domain.ErrNotFound:    msgAccountNotFound,
			domain.ErrCodeExpired: "This code has expired. Request a new one with POST /api/v1/resend-otp.",
		})
		return
	}
	writeOK(w, Envelope{Message: "Email verified. You can now log in.", Email: domain.NormalizeEmail(req.Email)})
}

func (h *AuthHandler) ResendOTP(w http.ResponseWriter, r *http.Request) {
	var req auth.EmailRequest
	if !decode(w, r, &req) {
		return
	}
	if err := h.auth.ResendVerification(r.Context(), req); err != nil {
		httpError(w, r, h.logger, err, messages{
			domain.ErrNotFound: msgAccountNotFound,
			domain.ErrDelivery: "Could not send the new code. Please try again later.",
		})
		return
	}
	writeOK(w, Envelope{Message: "A new 4-digit code has been sent to your email.", Email: domain.NormalizeEmail(req.Email)})
}

func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req auth.EmailRequest
	if !decode(w, r, &req) {
		return
	}
	if err := h.auth.ForgotPassword(r.Context(), req); err != nil {
		httpError(w, r, h.logger, err, messages{
			domain.ErrNotFound: msgNoAccount,
			domain.ErrDelivery: "Could not send the verification code. Please try again later.",
		})
		return
	}
	writeOK(w, Envelope{
		Message: "A 4-digit code has been sent to your email. Use POST /api/v1/forgot-password/verify-otp with email and otp.",
		Email:   domain.NormalizeEmail(req.Email),
	})
}

func (h *AuthHandler) ForgotPasswordResendOTP(w http.ResponseWriter, r *http.Request) {
	var req auth.EmailRequest
	if !decode(w, r, &req) {
		return
	}
	if err := h.auth.ForgotPassword(r.Context(), req); err != nil {
		httpError(w, r, h.logger, err, messages{
			domain.ErrNotFound: msgNoAccount,
			domain.ErrDelivery: "Could not send the new code. Please try again later.",
		})
		return
	}
	writeOK(w, Envelope{Message: "A new 4-digit code has been sent to your email.", Email: domain.NormalizeEmail(req.Email)})
}

func (h *AuthHandler) ForgotPasswordVerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req auth.VerifyOTPRequest
	if !decode(w, r, &req) {
		return
	}
	resetToken, err := h.auth.VerifyForgotPassword(r.Context(), req)
	if err != nil {
		httpError(w, r, h.logger, err, messages{
			domain.ErrNotFound:    msgAccountNotFound,
			domain.ErrCodeExpired: "This code has expired. Request a new one with POST /api/v1/forgot-password/resend-otp.",
		})
		return
	}
	writeOK(w, Envelope{
		Message:          "Code verified. Use the reset_token in POST /api/v1/forgot-password/reset-password to set your new password.",
		ResetToken:       resetToken,
		ExpiresInMinutes: int(domain.PasswordResetTTL.Minutes()),
	})
}

func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req auth.ResetPasswordRequest
	if !decode(w, r, &req) {
		return
	}
	if err := h.auth.ResetPassword(r.Context(), req); err != nil {
		httpError(w, r, h.logger, err, messages{domain.ErrNotFound: msgAccountNotFound})
		return
	}
	writeOK(w, Envelope{Message: "Your password has been updated. You can now log in."})
}

// Logout forgets whatever session token the request carries. It always succeeds.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Logout(r.Context(), middleware.TokenFromRequest(r)); err != nil {
		requestLog(h.logger, r).WithError(err).Warn("could not forget session token")
	}
	writeOK(w, Envelope{Message: "Logged out."})
}
