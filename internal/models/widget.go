package models

// WidgetConfig represents the DPDPA_WIDGET_CONFIG table
type WidgetConfig struct {
	WidgetID               string `db:"WIDGET_ID" json:"widgetId"`
	Name                   string `db:"NAME" json:"name"`
	Domain                 string `db:"DOMAIN" json:"domain"`
	Title                  string `db:"TITLE" json:"title"`
	Message                string `db:"MESSAGE" json:"message"`
	AcceptLabel            string `db:"ACCEPT_LABEL" json:"-"`
	RejectLabel            string `db:"REJECT_LABEL" json:"-"`
	CustomizeLabel         string `db:"CUSTOMIZE_LABEL" json:"-"`
	Theme                  JSON   `db:"THEME" json:"theme"`
	AutoShow               bool   `db:"AUTO_SHOW" json:"autoShow"`
	ShowAfterDelay         int    `db:"SHOW_AFTER_DELAY" json:"showAfterDelay"`
	RespectDNT             bool   `db:"RESPECT_DNT" json:"respectDNT"`
	ConsentDuration        int    `db:"CONSENT_DURATION" json:"consentDuration"`
	ShowDataSubjectsRights bool   `db:"SHOW_DATA_SUBJECTS_RIGHTS" json:"showDataSubjectsRights"`
	IsActive               bool   `db:"IS_ACTIVE" json:"-"`
	CreatedTime            int64  `db:"CREATED_TIME" json:"-"`
	UpdatedTime            int64  `db:"UPDATED_TIME" json:"-"`
}

// ProcessingActivity represents the PROCESSING_ACTIVITY table joined with the
// widget's display order
type ProcessingActivity struct {
	ID              string     `db:"ID" json:"id"`
	Name            string     `db:"NAME" json:"activityName"`
	Industry        string     `db:"INDUSTRY" json:"industry"`
	Purpose         string     `db:"PURPOSE" json:"purpose"`
	DataAttributes  StringList `db:"DATA_ATTRIBUTES" json:"dataAttributes"`
	RetentionPeriod string     `db:"RETENTION_PERIOD" json:"retentionPeriod"`
	DisplayOrder    int        `db:"DISPLAY_ORDER" json:"-"`
}

// ButtonLabels are the texts of the widget buttons
type ButtonLabels struct {
	Accept    string `json:"accept"`
	Reject    string `json:"reject"`
	Customize string `json:"customize,omitempty"`
}

// PublicWidgetConfig is the widget configuration served to the embeddable widget
type PublicWidgetConfig struct {
	WidgetID               string               `json:"widgetId"`
	Name                   string               `json:"name"`
	Domain                 string               `json:"domain"`
	Title                  string               `json:"title"`
	Message                string               `json:"message"`
	ButtonLabels           ButtonLabels         `json:"buttonLabels"`
	Theme                  JSON                 `json:"theme"`
	AutoShow               bool                 `json:"autoShow"`
	ShowAfterDelay         int                  `json:"showAfterDelay"`
	RespectDNT             bool                 `json:"respectDNT"`
	ConsentDuration        int                  `json:"consentDuration"`
	ShowDataSubjectsRights bool                 `json:"showDataSubjectsRights"`
	Activities             []ProcessingActivity `json:"activities"`
}

// NewPublicWidgetConfig combines a widget row with its ordered activities
func NewPublicWidgetConfig(w *WidgetConfig, activities []ProcessingActivity) *PublicWidgetConfig {
	if activities == nil {
		activities = []ProcessingActivity{}
	}
	theme := w.Theme
	if len(theme) == 0 {
		theme = JSON("{}")
	}
	return &PublicWidgetConfig{
		WidgetID: w.WidgetID,
		Name:     w.Name,
		Domain:   w.Domain,
		Title:    w.Title,
		Message:  w.Message,
		ButtonLabels: ButtonLabels{
			Accept:    w.AcceptLabel,
			Reject:    w.RejectLabel,
			Customize: w.CustomizeLabel,
		},
		Theme:                  theme,
		AutoShow:               w.AutoShow,
		ShowAfterDelay:         w.ShowAfterDelay,
		RespectDNT:             w.RespectDNT,
		ConsentDuration:        w.ConsentDuration,
		ShowDataSubjectsRights: w.ShowDataSubjectsRights,
		Activities:             activities,
	}
}

// ActivityIDs returns the ids of the config's activities in display order
func (p *PublicWidgetConfig) ActivityIDs() []string {
	ids := make([]string, 0, len(p.Activities))
	for _, a := range p.Activities {
		ids = append(ids, a.ID)
	}
	return ids
}
