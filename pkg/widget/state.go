package widget

import (
	"github.com/consently/consent-management-api/pkg/consent"
)

// State is a step of the widget lifecycle
type State int

const (
	StateUninitialized State = iota
	StateConfigLoading
	// StateConfigFailed is terminal: the widget never appears for this load
	StateConfigFailed
	// StateSuppressed is terminal: Do-Not-Track is honoured, nothing is rendered or sent
	StateSuppressed
	// StateConsentValid means an unexpired local decision was applied without prompting
	StateConsentValid
	StateAwaitingDecision
	StatePersisting
	StatePersisted
	// StatePersistFailed keeps the prompt open with the decisions intact for a retry
	StatePersistFailed
)

var stateNames = map[State]string{
	StateUninitialized:    "uninitialized",
	StateConfigLoading:    "config_loading",
	StateConfigFailed:     "config_failed",
	StateSuppressed:       "suppressed",
	StateConsentValid:     "consent_valid",
	StateAwaitingDecision: "awaiting_decision",
	StatePersisting:       "persisting",
	StatePersisted:        "persisted",
	StatePersistFailed:    "persist_failed",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "unknown"
}

// View is everything a renderer needs to draw the prompt
type View struct {
	State     State
	Config    Config
	Decisions map[string]consent.Decision
	Email     string
}

// Renderer draws the prompt. The controller calls it outside its lock, so a renderer
// may call back into the controller.
type Renderer interface {
	Render(view View)
	Hide()
	ShowError(message string)
}

// NopRenderer renders nothing; it is the default for headless use
type NopRenderer struct{}

func (NopRenderer) Render(View)      {}
func (NopRenderer) Hide()            {}
func (NopRenderer) ShowError(string) {}

// Environment carries the browser signals the controller consults
type Environment struct {
	DoNotTrack bool
	UserAgent  string
	Language   string
}
