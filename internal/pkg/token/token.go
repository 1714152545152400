package token

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"math/big"
)

const transactionAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// New generates a cryptographically random 64-character hex token. It is
// used for session and password-reset tokens.
func New() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// NewTransactionID returns 10 random upper-case alphanumerics.
func NewTransactionID() (string, error) {
	out := make([]byte, 10)
	max := big.NewInt(int64(len(transactionAlphabet)))
	for i := range out {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("generate transaction id: %w", err)
		}
		out[i] = transactionAlphabet[n.Int64()]
	}
	return string(out), nil
}
