package utils

import (
	"github.com/google/uuid"
)

// GenerateID generates a new UUID for record and preference rows
func GenerateID() string {
	return uuid.New().String()
}

// GenerateConsentID generates a unique consent ID for a consent record
func GenerateConsentID() string {
	return "CONSENT-" + uuid.New().String()
}

// GenerateVisitorID generates a pseudonymous visitor identifier (UUIDv4, 122 random bits)
func GenerateVisitorID() string {
	return uuid.New().String()
}
