package domain

import (
	"errors"
	"sort"
	"strings"
)

// Sentinel errors for domain-level error discrimination.
// Services wrap these so handlers can map to HTTP status codes without leaking infrastructure details.
var (
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
	ErrUnauthenticated = errors.New("not authenticated")
	ErrForbidden       = errors.New("forbidden")
	ErrBadRequest      = errors.New("bad request")
	ErrValidation      = errors.New("validation failed")

	ErrInvalidCredentials = errors.New("the provided credentials are incorrect")
	ErrUnverified         = errors.New("email not verified")
	ErrInvalidCode        = errors.New("invalid or expired code")
	ErrCodeExpired        = errors.New("code expired")
	ErrEmailMismatch      = errors.New("email does not match account")
	ErrNotVerified        = errors.New("otp not verified")
	ErrWrongPassword      = errors.New("current password is incorrect")
	ErrInvalidResetToken  = errors.New("invalid or expired reset token")
	ErrDelivery           = errors.New("delivery failed")
)

// FieldErrors maps a request field name to a human-readable message.
// It unwraps to ErrValidation.
type FieldErrors map[string]string

func (fe FieldErrors) Error() string {
	keys := make([]string, 0, len(fe))
	for k := range fe {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	msgs := make([]string, 0, len(keys))
	for _, k := range keys {
		msgs = append(msgs, k+": "+fe[k])
	}
	return strings.Join(msgs, "; ")
}

func (fe FieldErrors) Unwrap() error { return ErrValidation }

// First returns the message of the alphabetically first field, used as the
// envelope message for validation failures.
func (fe FieldErrors) First() string {
	first := ""
	for k := range fe {
		if first == "" || k < first {
			first = k
		}
	}
	return fe[first]
}
