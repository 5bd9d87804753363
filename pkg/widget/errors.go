package widget

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownActivity is returned when a decision references an activity the widget does not list
	ErrUnknownActivity = errors.New("unknown activity")
	// ErrNoDecisions is returned when a selection is submitted with every activity unset
	ErrNoDecisions = errors.New("no activity decisions to submit")
	// ErrSubmissionInFlight is returned when a second submission starts before the first completes
	ErrSubmissionInFlight = errors.New("consent submission already in progress")
	// ErrNotLoaded is returned when an action needs the widget config and Load has not succeeded
	ErrNotLoaded = errors.New("widget config not loaded")
)

// ConfigFetchError reports a failure to load the widget configuration.
// The widget must not be shown when this happens.
type ConfigFetchError struct {
	WidgetID   string
	StatusCode int
	Err        error
}

func (e *ConfigFetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch config for widget %s: status %d: %v", e.WidgetID, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("fetch config for widget %s: %v", e.WidgetID, e.Err)
}

func (e *ConfigFetchError) Unwrap() error { return e.Err }

// RecordSubmissionError reports a failure to persist a consent decision remotely.
// It is recoverable: the prompt stays open and the decisions are kept.
type RecordSubmissionError struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *RecordSubmissionError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.StatusCode != 0 {
		return fmt.Sprintf("submit consent record: status %d: %s", e.StatusCode, msg)
	}
	return fmt.Sprintf("submit consent record: %s", msg)
}

func (e *RecordSubmissionError) Unwrap() error { return e.Err }

// StorageError wraps a failure of the local storage backend.
// Storage swallows these after logging; callers only see them from a Backend directly.
type StorageError struct {
	Op  string
	Key string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s %q: %v", e.Op, e.Key, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }
