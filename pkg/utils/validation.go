package utils

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// maxIDLength bounds widget, visitor and activity identifiers
const maxIDLength = 255

// ValidateWidgetID validates widget ID format
func ValidateWidgetID(widgetID string) error {
	return validateID("widget ID", widgetID)
}

// ValidateVisitorID validates visitor ID format
func ValidateVisitorID(visitorID string) error {
	return validateID("visitor ID", visitorID)
}

// ValidateActivityID validates processing activity ID format
func ValidateActivityID(activityID string) error {
	return validateID("activity ID", activityID)
}

func validateID(fieldName, value string) error {
	if err := ValidateRequired(fieldName, value); err != nil {
		return err
	}
	return ValidateMaxLength(fieldName, value, maxIDLength)
}

// ValidateEmail validates email format
func ValidateEmail(email string) error {
	if email == "" {
		return fmt.Errorf("email cannot be empty")
	}

	if !emailRegex.MatchString(email) {
		return fmt.Errorf("invalid email format")
	}

	return nil
}

// SanitizeString removes dangerous characters from user input
func SanitizeString(input string) string {
	// Remove null bytes
	input = strings.ReplaceAll(input, "\x00", "")
	// Trim whitespace
	input = strings.TrimSpace(input)
	return input
}

// ValidateLimit validates pagination limit
func ValidateLimit(limit int) int {
	if limit <= 0 {
		return 20 // Default limit
	}
	if limit > 100 {
		return 100 // Max limit
	}
	return limit
}

// ValidateOffset validates pagination offset
func ValidateOffset(offset int) int {
	if offset < 0 {
		return 0
	}
	return offset
}

// ValidateRequired validates that a field is not empty
func ValidateRequired(fieldName, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%s is required", fieldName)
	}
	return nil
}

// ValidateMaxLength validates maximum string length in characters
func ValidateMaxLength(fieldName, value string, maxLength int) error {
	if utf8.RuneCountInString(value) > maxLength {
		return fmt.Errorf("%s exceeds maximum length of %d characters", fieldName, maxLength)
	}
	return nil
}

// ClampDuration bounds a consent duration in days to [1, maxDays], using fallback when unset
func ClampDuration(days, fallback, maxDays int) int {
	if days <= 0 {
		days = fallback
	}
	if days < 1 {
		days = 1
	}
	if maxDays > 0 && days > maxDays {
		days = maxDays
	}
	return days
}
