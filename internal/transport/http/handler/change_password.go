package handler

import (
	"net/http"

	"github.com/sirupsen/logrus"
	"github.com/water-delivery-api/internal/application/auth"
	"github.com/water-delivery-api/internal/application/customer"
	"github.com/water-delivery-api/internal/domain"
	"github.com/water-delivery-api/internal/transport/http/middleware"
)

// ChangePasswordHandler runs the OTP-gated password change of a signed-in customer.
type ChangePasswordHandler struct {
	auth      auth.Service
	customers customer.Service
	logger    *logrus.Logger
}

func NewChangePasswordHandler(authSvc auth.Service, customers customer.Service, logger *logrus.Logger) *ChangePasswordHandler {
	return &ChangePasswordHandler{auth: authSvc, customers: customers, logger: logger}
}

func (h *ChangePasswordHandler) SendOTP(w http.ResponseWriter, r *http.Request, id middleware.Identity) {
	h.sendOTP(w, r, id,
		"A 4-digit code has been sent to your email. Use POST /api/v1/change-password/verify-otp with otp.",
		"Could not send the verification code. Please try again later.")
}

func (h *ChangePasswordHandler) ResendOTP(w http.ResponseWriter, r *http.Request, id middleware.Identity) {
	h.sendOTP(w, r, id,
		"A new 4-digit code has been sent to your email.",
		"Could not send the new code. Please try again later.")
}

func (h *ChangePasswordHandler) sendOTP(w http.ResponseWriter, r *http.Request, id middleware.Identity, success, deliveryFailed string) {
	var req auth.EmailRequest
	if !decode(w, r, &req) {
		return
	}
	if err := h.auth.ChangePasswordSendOTP(r.Context(), id.Customer, req); err != nil {
		httpError(w, r, h.logger, err, messages{domain.ErrDelivery: deliveryFailed})
		return
	}
	writeOK(w, Envelope{Message: success, Email: id.Customer.Email})
}

func (h *ChangePasswordHandler) VerifyOTP(w http.ResponseWriter, r *http.Request, id middleware.Identity) {
	var req auth.OTPRequest
	if !decode(w, r, &req) {
		return
	}
	if err := h.auth.ChangePasswordVerifyOTP(r.Context(), id.Customer, req); err != nil {
		httpError(w, r, h.logger, err, messages{
			domain.ErrCodeExpired: "This code has expired. Request a new one with POST /api/v1/change-password/send-otp.",
		})
		return
	}
	writeOK(w, Envelope{
		Message:          "Code verified. Use POST /api/v1/change-password/update with current_password, password, password_confirmation, and keep_logged_in.",
		ExpiresInMinutes: int(domain.ChangePasswordVerifiedTTL.Minutes()),
	})
}

func (h *ChangePasswordHandler) Update(w http.ResponseWriter, r *http.Request, id middleware.Identity) {
	var req auth.ChangePasswordRequest
	if !decode(w, r, &req) {
		return
	}
	loggedOut, err := h.auth.ChangePasswordUpdate(r.Context(), id.Customer, id.Token, req)
	if err != nil {
		httpError(w, r, h.logger, err, nil)
		return
	}
	if loggedOut {
		writeOK(w, Envelope{Message: "Your password has been updated. Please log in again.", LoggedOut: boolPtr(true)})
		return
	}
	writeOK(w, Envelope{
		Message:   "Your password has been updated. You are still logged in.",
		Customer:  h.customers.Profile(r.Context(), id.Customer),
		Token:     id.Token,
		LoggedOut: boolPtr(false),
	})
}
