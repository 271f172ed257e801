package utils

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// GenerateSecret returns n random bytes hex-encoded
func GenerateSecret(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// JWTSecrets is a fresh pair of signing secrets for .env files
type JWTSecrets struct {
	Access  string
	Refresh string
}

// GenerateJWTSecrets generates two distinct 256-bit secrets
func GenerateJWTSecrets() (JWTSecrets, error) {
	access, err := GenerateSecret(32)
	if err != nil {
		return JWTSecrets{}, fmt.Errorf("failed to generate access secret: %w", err)
	}

	refresh, err := GenerateSecret(32)
	if err != nil {
		return JWTSecrets{}, fmt.Errorf("failed to generate refresh secret: %w", err)
	}

	return JWTSecrets{Access: access, Refresh: refresh}, nil
}
