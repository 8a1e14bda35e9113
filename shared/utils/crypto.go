package utils

import (
	"crypto/sha256"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

// Key purposes for DeriveKey. Each purpose yields an independent key from the
// same configured secret.
const (
	PurposeSession = "blogfront session v1"
	PurposeCSRF    = "blogfront csrf v1"
)

// DeriveKey expands secret into a 32-byte key bound to purpose.
func DeriveKey(secret, purpose string) ([]byte, error) {
	if secret == "" {
		return nil, fmt.Errorf("derive %q key: empty secret", purpose)
	}
	key := make([]byte, 32)
	r := hkdf.New(sha256.New, []byte(secret), nil, []byte(purpose))
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, fmt.Errorf("derive %q key: %w", purpose, err)
	}
	return key, nil
}
