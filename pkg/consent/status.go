// Package consent holds the consent vocabulary shared by the server and the widget:
// overall statuses, per-activity decisions and the rules that derive one from the other.
package consent

import (
	"fmt"
	"strings"
)

// Status is the overall status of a consent submission or record
type Status string

const (
	StatusAccepted Status = "accepted"
	StatusRejected Status = "rejected"
	StatusPartial  Status = "partial"
	StatusRevoked  Status = "revoked"
)

// IsValid reports whether s is a known overall status
func (s Status) IsValid() bool {
	switch s {
	case StatusAccepted, StatusRejected, StatusPartial, StatusRevoked:
		return true
	}
	return false
}

// ParseStatus parses an overall status, case-insensitively
func ParseStatus(value string) (Status, error) {
	s := Status(strings.ToLower(strings.TrimSpace(value)))
	if !s.IsValid() {
		return "", fmt.Errorf("invalid consent status: %q", value)
	}
	return s, nil
}

// PreferenceStatus is the stored status of a single activity for a visitor
type PreferenceStatus string

const (
	PreferenceAccepted  PreferenceStatus = "accepted"
	PreferenceRejected  PreferenceStatus = "rejected"
	PreferenceWithdrawn PreferenceStatus = "withdrawn"
	// PreferenceNotSet is only reported for activities that have no stored row
	PreferenceNotSet PreferenceStatus = "not_set"
)

// IsStorable reports whether the status may be written to a preference row
func (p PreferenceStatus) IsStorable() bool {
	switch p {
	case PreferenceAccepted, PreferenceRejected, PreferenceWithdrawn:
		return true
	}
	return false
}

// ParsePreferenceStatus parses a storable preference status, case-insensitively
func ParsePreferenceStatus(value string) (PreferenceStatus, error) {
	p := PreferenceStatus(strings.ToLower(strings.TrimSpace(value)))
	if !p.IsStorable() {
		return "", fmt.Errorf("invalid preference status: %q", value)
	}
	return p, nil
}

// Decision is the in-session tri-state for one activity
type Decision string

const (
	DecisionUnset    Decision = "unset"
	DecisionAccepted Decision = "accepted"
	DecisionRejected Decision = "rejected"
)

// DeriveSubmissionStatus returns the overall status of a widget submission.
// Unset activities are ignored; callers must reject a submission with no decisions.
func DeriveSubmissionStatus(acceptedCount, rejectedCount int) Status {
	switch {
	case acceptedCount > 0 && rejectedCount > 0:
		return StatusPartial
	case acceptedCount > 0:
		return StatusAccepted
	default:
		return StatusRejected
	}
}

// PreferenceSummary splits a batch of preference statuses into the arrays of a consent record
type PreferenceSummary struct {
	Status             Status
	AcceptedActivities []string
	RejectedActivities []string
	WithdrawnCount     int
}

// SummarizePreferences derives the consolidated record for a batch of preference updates.
//
//   - revoked:  every activity is withdrawn
//   - accepted: at least one accepted, nothing rejected or withdrawn
//   - rejected: nothing accepted, at least one rejected or withdrawn
//   - partial:  anything else
//
// Withdrawn activities are folded into RejectedActivities. The input order is preserved.
func SummarizePreferences(activityIDs []string, statuses map[string]PreferenceStatus) PreferenceSummary {
	summary := PreferenceSummary{
		AcceptedActivities: []string{},
		RejectedActivities: []string{},
	}

	rejected := 0
	for _, id := range activityIDs {
		switch statuses[id] {
		case PreferenceAccepted:
			summary.AcceptedActivities = append(summary.AcceptedActivities, id)
		case PreferenceRejected:
			rejected++
			summary.RejectedActivities = append(summary.RejectedActivities, id)
		case PreferenceWithdrawn:
			summary.WithdrawnCount++
			summary.RejectedActivities = append(summary.RejectedActivities, id)
		}
	}

	accepted := len(summary.AcceptedActivities)
	switch {
	case summary.WithdrawnCount > 0 && accepted == 0 && rejected == 0:
		summary.Status = StatusRevoked
	case accepted > 0 && rejected == 0 && summary.WithdrawnCount == 0:
		summary.Status = StatusAccepted
	case accepted == 0 && (rejected > 0 || summary.WithdrawnCount > 0):
		summary.Status = StatusRejected
	default:
		summary.Status = StatusPartial
	}
	return summary
}

// Device types recorded with a decision
const (
	DeviceDesktop = "Desktop"
	DeviceMobile  = "Mobile"
	DeviceTablet  = "Tablet"
	DeviceUnknown = "Unknown"
)

// IsValidDeviceType reports whether d is a known device type. Empty means unspecified and is allowed.
func IsValidDeviceType(d string) bool {
	switch d {
	case "", DeviceDesktop, DeviceMobile, DeviceTablet, DeviceUnknown:
		return true
	}
	return false
}
