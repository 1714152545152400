package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
	"github.com/water-delivery-api/internal/domain"
	"github.com/water-delivery-api/internal/pkg/page"
	"github.com/water-delivery-api/internal/transport/http/middleware"
)

const (
	msgBadBody          = "Invalid request body."
	msgNotAuthenticated = "Not authenticated."
	msgInternal         = "Something went wrong. Please try again later."
)

// Envelope is the response wrapper shared by every endpoint. Only the fields
// an endpoint sets are serialized.
type Envelope struct {
	Success          bool               `json:"success"`
	Message          string             `json:"message,omitempty"`
	Errors           domain.FieldErrors `json:"errors,omitempty"`
	Email            string             `json:"email,omitempty"`
	Customer         interface{}        `json:"customer,omitempty"`
	Account          interface{}        `json:"account,omitempty"`
	Token            string             `json:"token,omitempty"`
	LoggedOut        *bool              `json:"logged_out,omitempty"`
	ResetToken       string             `json:"reset_token,omitempty"`
	ExpiresInMinutes int                `json:"expires_in_minutes,omitempty"`
	Data             interface{}        `json:"data,omitempty"`
	Meta             *page.Meta         `json:"meta,omitempty"`
	UnreadCount      *int               `json:"unread_count,omitempty"`
	Count            *int               `json:"count,omitempty"`
	Status           string             `json:"status,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, Envelope{Message: msg})
}

func writeOK(w http.ResponseWriter, env Envelope) {
	env.Success = true
	writeJSON(w, http.StatusOK, env)
}

// messages overrides the default response text of an error for one endpoint.
type messages map[error]string

var errorStatus = []struct {
	err    error
	status int
	msg    string
}{
	{domain.ErrUnauthenticated, http.StatusUnauthorized, msgNotAuthenticated},
	{domain.ErrInvalidCredentials, http.StatusUnauthorized, "The provided credentials are incorrect."},
	{domain.ErrUnverified, http.StatusForbidden, "Please verify your email with the 4-digit OTP first."},
	{domain.ErrForbidden, http.StatusForbidden, "Forbidden."},
	{domain.ErrNotFound, http.StatusNotFound, "Not found."},
	{domain.ErrInvalidCode, http.StatusUnprocessableEntity, "Invalid or expired code. Please try again."},
	{domain.ErrCodeExpired, http.StatusUnprocessableEntity, "This code has expired. Please request a new one."},
	{domain.ErrEmailMismatch, http.StatusUnprocessableEntity, "This email does not match your account."},
	{domain.ErrNotVerified, http.StatusUnprocessableEntity, "Please verify the OTP first. Use POST /api/v1/change-password/send-otp then verify-otp."},
	{domain.ErrWrongPassword, http.StatusUnprocessableEntity, "Current password is incorrect."},
	{domain.ErrInvalidResetToken, http.StatusUnprocessableEntity, "Invalid or expired reset token. Please start the forgot-password flow again."},
	{domain.ErrConflict, http.StatusUnprocessableEntity, "The resource already exists."},
	{domain.ErrBadRequest, http.StatusUnprocessableEntity, "The request could not be processed."},
	{domain.ErrDelivery, http.StatusInternalServerError, "We could not send the email. Please try again later."},
}

// httpError maps a service error to its status and envelope. Field errors
// carry their per-field messages; unknown errors are logged and hidden.
func httpError(w http.ResponseWriter, r *http.Request, logger *logrus.Logger, err error, overrides messages) {
	var fe domain.FieldErrors
	if errors.As(err, &fe) {
		writeJSON(w, http.StatusUnprocessableEntity, Envelope{Message: fe.First(), Errors: fe})
		return
	}
	for _, e := range errorStatus {
		if !errors.Is(err, e.err) {
			continue
		}
		msg := e.msg
		if o, ok := overrides[e.err]; ok {
			msg = o
		}
		env := Envelope{Message: msg}
		if e.err == domain.ErrInvalidCredentials {
			env.Errors = domain.FieldErrors{"email": msg}
		}
		if e.status >= http.StatusInternalServerError {
			requestLog(logger, r).WithError(err).Error("delivery failed")
		}
		writeJSON(w, e.status, env)
		return
	}
	requestLog(logger, r).WithError(err).Error("unhandled error")
	writeError(w, http.StatusInternalServerError, msgInternal)
}

func requestLog(logger *logrus.Logger, r *http.Request) *logrus.Entry {
	return logger.WithFields(logrus.Fields{
		"path":       r.URL.Path,
		"request_id": chimiddleware.GetReqID(r.Context()),
	})
}

func decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, msgBadBody)
		return false
	}
	return true
}

// IdentityHandler serves a route behind the session middleware. The
// signed-in customer arrives as an explicit parameter.
type IdentityHandler func(w http.ResponseWriter, r *http.Request, id middleware.Identity)

// Authed adapts h for the router. Requests without a session identity get 401.
func Authed(h IdentityHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := middleware.IdentityFromContext(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, msgNotAuthenticated)
			return
		}
		h(w, r, id)
	}
}

func parsePagination(r *http.Request) page.Params {
	p, _ := strconv.Atoi(r.URL.Query().Get("page"))
	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))
	return page.Params{Page: p, PerPage: perPage}
}

func intPtr(n int) *int    { return &n }
func boolPtr(b bool) *bool { return &b }
