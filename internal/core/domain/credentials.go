package domain

import (
	"fmt"
	"strings"
)

// APIKeyPrefix is the prefix every accepted provider key starts with.
const APIKeyPrefix = "sk-"

// ValidateAPIKey checks that key is present and has the provider prefix.
// Failures wrap ErrAuthorization.
func ValidateAPIKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return fmt.Errorf("%w: API key is required", ErrAuthorization)
	}
	if !strings.HasPrefix(key, APIKeyPrefix) {
		return fmt.Errorf("%w: invalid API key format, must start with '%s'", ErrAuthorization, APIKeyPrefix)
	}
	return nil
}

// MaskAPIKey hides all but the first and last four characters of key.
func MaskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
