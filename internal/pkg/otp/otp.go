package otp

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// Generate returns a uniformly distributed 6-digit verification code in the
// range 100000–999999, so the string form never starts with a zero.
func Generate() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", fmt.Errorf("generate otp: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}
