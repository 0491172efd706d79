package utils

import (
	"crypto/rand"
	"encoding/base64"
	"io"

	"github.com/google/uuid"
)

// GenerateSecureToken creates a cryptographically secure random token of
// length random bytes, URL-safe base64 encoded.
func GenerateSecureToken(length int) (string, error) {
	bytes := make([]byte, length)
	if _, err := io.ReadFull(rand.Reader, bytes); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(bytes), nil
}

// NewRunID returns the identifier of a survey run.
func NewRunID() string {
	return uuid.NewString()
}
