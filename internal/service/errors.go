package service

import (
	"errors"
	"fmt"

	"github.com/consently/consent-management-api/internal/models"
)

// ErrorType separates caller mistakes from server faults
type ErrorType string

const (
	ClientErrorType ErrorType = "client_error"
	ServerErrorType ErrorType = "server_error"
)

// ServiceError is returned by the services for every failure a handler must map to a response.
// Code is one of the models.ErrCode* values.
type ServiceError struct {
	Code    string
	Type    ErrorType
	Message string
	Details string
	Err     error
}

func (e *ServiceError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s", e.Message, e.Details)
	}
	return e.Message
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

// NewValidationError reports a request that failed validation before anything was written
func NewValidationError(details string) *ServiceError {
	return &ServiceError{
		Code:    models.ErrCodeValidationError,
		Type:    ClientErrorType,
		Message: "Validation failed",
		Details: details,
	}
}

// NewInvalidStatusError reports an unknown consent status
func NewInvalidStatusError(details string) *ServiceError {
	return &ServiceError{
		Code:    models.ErrCodeInvalidStatus,
		Type:    ClientErrorType,
		Message: "Invalid consent status",
		Details: details,
	}
}

// NewWidgetNotFoundError reports an unknown or inactive widget
func NewWidgetNotFoundError(widgetID string) *ServiceError {
	return &ServiceError{
		Code:    models.ErrCodeWidgetNotFound,
		Type:    ClientErrorType,
		Message: "Widget not found",
		Details: fmt.Sprintf("widget '%s' does not exist or is inactive", widgetID),
	}
}

// NewDatabaseError wraps a storage failure
func NewDatabaseError(message string, err error) *ServiceError {
	return &ServiceError{
		Code:    models.ErrCodeDatabaseError,
		Type:    ServerErrorType,
		Message: message,
		Err:     err,
	}
}

// AsServiceError extracts a ServiceError from err, wrapping unknown errors as internal errors
func AsServiceError(err error) *ServiceError {
	var svcErr *ServiceError
	if errors.As(err, &svcErr) {
		return svcErr
	}
	return &ServiceError{
		Code:    models.ErrCodeInternalError,
		Type:    ServerErrorType,
		Message: "An unexpected error occurred",
		Err:     err,
	}
}
