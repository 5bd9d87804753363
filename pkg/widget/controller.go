// Package widget is the headless consent widget: it loads a widget's configuration,
// decides whether to prompt, collects per-activity decisions and persists them remotely
// and locally. Rendering is delegated to a Renderer so the state machine has no UI dependency.
package widget

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/consently/consent-management-api/pkg/consent"
	"github.com/consently/consent-management-api/pkg/utils"
)

// Options wires a Controller to its collaborators. WidgetID, Storage, ConfigFetcher and
// Recorder are required.
type Options struct {
	WidgetID      string
	VisitorEmail  string
	Storage       *Storage
	ConfigFetcher ConfigFetcher
	Recorder      Recorder
	Renderer      Renderer
	Environment   Environment
	// Schedule runs fn after d; defaults to time.AfterFunc
	Schedule func(d time.Duration, fn func())
	Logger   logrus.FieldLogger
	Now      func() time.Time
}

// Controller is the consent state machine of one widget instance
type Controller struct {
	widgetID string
	storage  *Storage
	identity *VisitorIdentity
	fetcher  ConfigFetcher
	recorder Recorder
	renderer Renderer
	env      Environment
	schedule func(time.Duration, func())
	logger   logrus.FieldLogger
	now      func() time.Time

	mu         sync.Mutex
	state      State
	config     *Config
	decisions  map[string]ActivityConsent
	email      string
	submitting bool
	// withdrawing marks the prompt reopened by Withdraw until a submission succeeds
	withdrawing bool

	listenersMu    sync.RWMutex
	applied        []func(AppliedConsent)
	stateListeners []func(from, to State)
}

// NewController creates a controller in StateUninitialized
func NewController(opts Options) (*Controller, error) {
	if strings.TrimSpace(opts.WidgetID) == "" {
		return nil, errors.New("widget id is required")
	}
	if opts.Storage == nil || opts.ConfigFetcher == nil || opts.Recorder == nil {
		return nil, errors.New("storage, config fetcher and recorder are required")
	}

	c := &Controller{
		widgetID:  opts.WidgetID,
		storage:   opts.Storage,
		identity:  NewVisitorIdentity(opts.Storage),
		fetcher:   opts.ConfigFetcher,
		recorder:  opts.Recorder,
		renderer:  opts.Renderer,
		env:       opts.Environment,
		schedule:  opts.Schedule,
		logger:    opts.Logger,
		now:       opts.Now,
		decisions: make(map[string]ActivityConsent),
		email:     strings.TrimSpace(opts.VisitorEmail),
	}
	if c.renderer == nil {
		c.renderer = NopRenderer{}
	}
	if c.schedule == nil {
		c.schedule = func(d time.Duration, fn func()) { time.AfterFunc(d, fn) }
	}
	if c.logger == nil {
		c.logger = nopLogger()
	}
	c.logger = c.logger.WithField("widgetId", opts.WidgetID)
	if c.now == nil {
		c.now = time.Now
	}
	return c, nil
}

// OnConsentApplied registers a listener for applied consent, the equivalent of
// subscribing to the EventName browser event
func (c *Controller) OnConsentApplied(fn func(AppliedConsent)) {
	c.listenersMu.Lock()
	defer c.listenersMu.Unlock()
	c.applied = append(c.applied, fn)
}

// OnStateChange registers a listener for state transitions
func (c *Controller) OnStateChange(fn func(from, to State)) {
	c.listenersMu.Lock()
	defer c.listenersMu.Unlock()
	c.stateListeners = append(c.stateListeners, fn)
}

// State returns the current state
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Config returns a copy of the loaded config, or nil before a successful Load
func (c *Controller) Config() *Config {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.config == nil {
		return nil
	}
	cfg := *c.config
	return &cfg
}

// Decisions returns the in-session decision of every activity
func (c *Controller) Decisions() map[string]consent.Decision {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.decisionViewLocked()
}

// VisitorID returns the visitor identifier, creating it when absent
func (c *Controller) VisitorID() string {
	return c.identity.GetOrCreate()
}

// Load fetches the config and decides whether to prompt:
// a failed fetch hides the widget for good, an active Do-Not-Track signal suppresses it
// when the widget respects DNT, an unexpired local decision is applied without prompting,
// and otherwise the prompt is scheduled when auto-show is on.
func (c *Controller) Load(ctx context.Context) error {
	c.mu.Lock()
	from := c.setStateLocked(StateConfigLoading)
	c.mu.Unlock()
	c.notifyState(from, StateConfigLoading)

	cfg, err := c.fetcher.FetchConfig(ctx, c.widgetID)
	if err != nil {
		c.logger.WithError(err).Warn("Widget config unavailable, widget will not be shown")
		c.transition(StateConfigFailed)
		return err
	}

	c.mu.Lock()
	c.config = cfg
	c.mu.Unlock()

	if cfg.RespectDNT && c.env.DoNotTrack {
		c.logger.Info("Do-Not-Track is active, consent prompt suppressed")
		c.transition(StateSuppressed)
		return nil
	}

	if stored, ok := c.GetConsent(); ok {
		c.mu.Lock()
		c.decisions = copyConsents(stored.ActivityConsents)
		c.mu.Unlock()
		c.transition(StateConsentValid)
		c.emitApplied(appliedFrom(stored))
		return nil
	}

	c.mu.Lock()
	c.resetDecisionsLocked()
	c.mu.Unlock()
	c.transition(StateAwaitingDecision)

	if cfg.AutoShow {
		c.schedule(cfg.ShowDelay(), func() {
			if err := c.showIfAwaiting(); err != nil {
				c.logger.WithError(err).Debug("Scheduled show skipped")
			}
		})
	}
	return nil
}

// showIfAwaiting renders the prompt unless something already moved the widget on
func (c *Controller) showIfAwaiting() error {
	if c.State() != StateAwaitingDecision {
		return nil
	}
	return c.Show()
}

// Show force-renders the prompt
func (c *Controller) Show() error {
	c.mu.Lock()
	if c.config == nil {
		c.mu.Unlock()
		return ErrNotLoaded
	}
	if c.submitting {
		c.mu.Unlock()
		return ErrSubmissionInFlight
	}
	if len(c.decisions) == 0 {
		c.resetDecisionsLocked()
	}
	from := c.setStateLocked(StateAwaitingDecision)
	view := c.viewLocked()
	c.mu.Unlock()

	c.notifyState(from, StateAwaitingDecision)
	c.renderer.Render(view)
	return nil
}

// SetDecision records the decision for one activity
func (c *Controller) SetDecision(activityID string, decision consent.Decision) error {
	c.mu.Lock()
	if c.config == nil {
		c.mu.Unlock()
		return ErrNotLoaded
	}
	if c.submitting {
		c.mu.Unlock()
		return ErrSubmissionInFlight
	}
	if !c.hasActivityLocked(activityID) {
		c.mu.Unlock()
		return ErrUnknownActivity
	}
	entry := ActivityConsent{Status: decision}
	if decision != consent.DecisionUnset {
		entry.DecidedAt = c.now().UnixMilli()
	}
	c.decisions[activityID] = entry
	from := c.setStateLocked(StateAwaitingDecision)
	view := c.viewLocked()
	c.mu.Unlock()

	c.notifyState(from, StateAwaitingDecision)
	c.renderer.Render(view)
	return nil
}

// AcceptAll accepts every activity and submits
func (c *Controller) AcceptAll(ctx context.Context) error {
	return c.decideAllAndSubmit(ctx, consent.DecisionAccepted)
}

// RejectAll rejects every activity and submits
func (c *Controller) RejectAll(ctx context.Context) error {
	return c.decideAllAndSubmit(ctx, consent.DecisionRejected)
}

// SubmitSelection submits the current mixed selection; unset activities are left out
func (c *Controller) SubmitSelection(ctx context.Context) error {
	return c.submit(ctx, nil)
}

func (c *Controller) decideAllAndSubmit(ctx context.Context, decision consent.Decision) error {
	return c.submit(ctx, func() {
		ts := c.now().UnixMilli()
		for _, a := range c.config.Activities {
			c.decisions[a.ID] = ActivityConsent{Status: decision, DecidedAt: ts}
		}
	})
}

// submit runs one persistence attempt. prepare, when set, adjusts the decisions under the
// lock after the in-flight check so a rejected second click changes nothing.
func (c *Controller) submit(ctx context.Context, prepare func()) error {
	c.mu.Lock()
	if c.config == nil {
		c.mu.Unlock()
		return ErrNotLoaded
	}
	if c.submitting {
		c.mu.Unlock()
		return ErrSubmissionInFlight
	}
	if prepare != nil {
		prepare()
	}

	submission, err := c.buildSubmissionLocked()
	if err != nil {
		c.mu.Unlock()
		return err
	}
	c.submitting = true
	from := c.setStateLocked(StatePersisting)
	c.mu.Unlock()
	c.notifyState(from, StatePersisting)

	result, err := c.recorder.Submit(ctx, submission)

	c.mu.Lock()
	c.submitting = false
	if err != nil {
		from = c.setStateLocked(StatePersistFailed)
		c.mu.Unlock()
		c.logger.WithError(err).Warn("Consent submission failed, keeping prompt open")
		c.notifyState(from, StatePersistFailed)
		c.renderer.ShowError("We could not save your choices. Please try again.")
		return err
	}

	// A revocation is remembered locally as the rejection it carries so the prompt
	// stays closed until expiry.
	persisted := PersistedConsent{
		ConsentID:          result.ConsentID,
		Status:             consent.DeriveSubmissionStatus(len(submission.AcceptedActivities), len(submission.RejectedActivities)),
		AcceptedActivities: submission.AcceptedActivities,
		RejectedActivities: submission.RejectedActivities,
		ActivityConsents:   copyConsents(submission.ActivityConsents),
		Timestamp:          c.now().UnixMilli(),
		ExpiresAt:          result.ExpiresAt.UnixMilli(),
	}
	c.storage.SetUntil(ConsentKey(c.widgetID), persisted, result.ExpiresAt)
	c.withdrawing = false
	from = c.setStateLocked(StatePersisted)
	c.mu.Unlock()

	c.logger.WithFields(logrus.Fields{
		"consentId": result.ConsentID,
		"status":    submission.ConsentStatus,
	}).Info("Consent persisted")
	c.notifyState(from, StatePersisted)
	c.renderer.Hide()
	c.emitApplied(appliedFrom(&persisted))
	return nil
}

func (c *Controller) buildSubmissionLocked() (*ConsentSubmission, error) {
	accepted := []string{}
	rejected := []string{}
	consents := make(map[string]ActivityConsent)
	for _, a := range c.config.Activities {
		entry := c.decisions[a.ID]
		switch entry.Status {
		case consent.DecisionAccepted:
			accepted = append(accepted, a.ID)
		case consent.DecisionRejected:
			rejected = append(rejected, a.ID)
		default:
			continue
		}
		consents[a.ID] = entry
	}
	if len(accepted) == 0 && len(rejected) == 0 {
		return nil, ErrNoDecisions
	}

	status := consent.DeriveSubmissionStatus(len(accepted), len(rejected))
	if c.withdrawing && len(accepted) == 0 {
		status = consent.StatusRevoked
	}

	return &ConsentSubmission{
		WidgetID:           c.widgetID,
		VisitorID:          c.identity.GetOrCreate(),
		VisitorEmail:       c.email,
		ConsentStatus:      status,
		AcceptedActivities: accepted,
		RejectedActivities: rejected,
		ActivityConsents:   consents,
		Metadata:           DetectMetadata(c.env.UserAgent, c.env.Language),
		ConsentDuration:    c.config.ConsentDuration,
	}, nil
}

// GetConsent returns the unexpired local decision for this widget
func (c *Controller) GetConsent() (*PersistedConsent, bool) {
	var stored PersistedConsent
	if !c.storage.Get(ConsentKey(c.widgetID), &stored) {
		return nil, false
	}
	if !stored.Status.IsValid() || stored.Status == consent.StatusRevoked {
		c.storage.Delete(ConsentKey(c.widgetID))
		return nil, false
	}
	return &stored, true
}

// ClearConsent deletes the local decision only; the server is not told
func (c *Controller) ClearConsent() {
	c.storage.Delete(ConsentKey(c.widgetID))

	c.mu.Lock()
	if c.config == nil || c.submitting {
		c.mu.Unlock()
		return
	}
	c.resetDecisionsLocked()
	from := c.setStateLocked(StateAwaitingDecision)
	c.mu.Unlock()
	c.notifyState(from, StateAwaitingDecision)
}

// Withdraw clears the local decision and reopens the prompt. The next submission that
// accepts nothing is sent as a revocation, which is what records the withdrawal remotely.
func (c *Controller) Withdraw() error {
	c.ClearConsent()
	if err := c.Show(); err != nil {
		return err
	}
	c.mu.Lock()
	c.withdrawing = true
	c.mu.Unlock()
	return nil
}

// SetUserEmail sets the email sent with submissions; an empty value clears it
func (c *Controller) SetUserEmail(email string) error {
	email = strings.TrimSpace(email)
	if email != "" {
		if err := utils.ValidateEmail(email); err != nil {
			return err
		}
	}
	c.mu.Lock()
	c.email = email
	c.mu.Unlock()
	return nil
}

func (c *Controller) transition(to State) {
	c.mu.Lock()
	from := c.setStateLocked(to)
	c.mu.Unlock()
	c.notifyState(from, to)
	if to == StateConfigFailed || to == StateSuppressed {
		c.renderer.Hide()
	}
}

func (c *Controller) setStateLocked(to State) State {
	from := c.state
	c.state = to
	return from
}

func (c *Controller) notifyState(from, to State) {
	if from == to {
		return
	}
	c.logger.WithFields(logrus.Fields{"from": from.String(), "to": to.String()}).Debug("Widget state changed")

	c.listenersMu.RLock()
	listeners := append([]func(State, State){}, c.stateListeners...)
	c.listenersMu.RUnlock()
	for _, fn := range listeners {
		fn(from, to)
	}
}

func (c *Controller) emitApplied(event AppliedConsent) {
	c.listenersMu.RLock()
	listeners := append([]func(AppliedConsent){}, c.applied...)
	c.listenersMu.RUnlock()
	for _, fn := range listeners {
		fn(event)
	}
}

func (c *Controller) resetDecisionsLocked() {
	c.decisions = make(map[string]ActivityConsent, len(c.config.Activities))
	for _, a := range c.config.Activities {
		c.decisions[a.ID] = ActivityConsent{Status: consent.DecisionUnset}
	}
}

func (c *Controller) hasActivityLocked(activityID string) bool {
	for _, a := range c.config.Activities {
		if a.ID == activityID {
			return true
		}
	}
	return false
}

func (c *Controller) decisionViewLocked() map[string]consent.Decision {
	view := make(map[string]consent.Decision, len(c.decisions))
	for id, entry := range c.decisions {
		status := entry.Status
		if status == "" {
			status = consent.DecisionUnset
		}
		view[id] = status
	}
	return view
}

func (c *Controller) viewLocked() View {
	return View{
		State:     c.state,
		Config:    *c.config,
		Decisions: c.decisionViewLocked(),
		Email:     c.email,
	}
}

func appliedFrom(p *PersistedConsent) AppliedConsent {
	return AppliedConsent{
		Status:             p.Status,
		AcceptedActivities: p.AcceptedActivities,
		RejectedActivities: p.RejectedActivities,
		ActivityConsents:   copyConsents(p.ActivityConsents),
		Timestamp:          p.Timestamp,
	}
}

func copyConsents(in map[string]ActivityConsent) map[string]ActivityConsent {
	out := make(map[string]ActivityConsent, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
