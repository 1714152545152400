package domain

import "time"

// OTPTTL is how long an issued one-time code stays valid.
const OTPTTL = 10 * time.Minute

// Purposes an OTP is issued for. They select the mail wording only; a
// customer still has a single active challenge.
const (
	OTPPurposeRegistration   = "registration"
	OTPPurposePasswordReset  = "password_reset"
	OTPPurposeChangePassword = "change_password"
)
