package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/water-delivery-api/internal/domain"
)

// SessionTokenHeader is the fallback header for clients that cannot set Authorization.
const SessionTokenHeader = "X-Session-Token"

// Identity is the authenticated customer of a request and the token they used.
type Identity struct {
	Customer *domain.Customer
	Token    string
}

// Authenticator resolves a session token to its customer.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*domain.Customer, error)
}

// TokenFromRequest reads the session token from "Authorization: Bearer" or,
// failing that, the X-Session-Token header.
func TokenFromRequest(r *http.Request) string {
	if t := bearerToken(r); t != "" {
		return t
	}
	return strings.TrimSpace(r.Header.Get(SessionTokenHeader))
}

// Session returns middleware that requires a live customer session.
func Session(auth Authenticator, logger *logrus.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := TokenFromRequest(r)
			c, err := auth.Authenticate(r.Context(), token)
			if errors.Is(err, domain.ErrUnauthenticated) {
				writeJSONError(w, http.StatusUnauthorized, "Not authenticated.")
				return
			}
			if err != nil {
				logger.WithError(err).WithField("path", r.URL.Path).Error("session lookup failed")
				writeJSONError(w, http.StatusInternalServerError, "Something went wrong. Please try again later.")
				return
			}
			ctx := WithIdentity(r.Context(), Identity{Customer: c, Token: token})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// IdentityFromContext returns the identity stored by Session.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey).(Identity)
	return id, ok && id.Customer != nil
}
