package domain

import "time"

// Cache key prefixes and lifetimes for the ephemeral token cache.
const (
	SessionTokenPrefix           = "api_customer_token:"
	PasswordResetPrefix          = "password_reset:"
	ChangePasswordVerifiedPrefix = "change_password_verified:"

	SessionTTL                = 7 * 24 * time.Hour
	PasswordResetTTL          = 15 * time.Minute
	ChangePasswordVerifiedTTL = 10 * time.Minute
)

// SessionKey returns the cache key for a customer session token.
func SessionKey(token string) string { return SessionTokenPrefix + token }

// PasswordResetKey returns the cache key for a password reset token.
func PasswordResetKey(token string) string { return PasswordResetPrefix + token }

// ChangePasswordVerifiedKey returns the cache key for a customer's change-password flag.
func ChangePasswordVerifiedKey(customerID string) string {
	return ChangePasswordVerifiedPrefix + customerID
}
