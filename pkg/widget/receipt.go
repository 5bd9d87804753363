package widget

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/consently/consent-management-api/pkg/consent"
	"github.com/consently/consent-management-api/pkg/utils"
)

// ErrNoConsent is returned when a receipt is requested without a stored decision
var ErrNoConsent = errors.New("no stored consent for this widget")

// Receipt is the downloadable record of the visitor's current decision
type Receipt struct {
	WidgetID           string                     `json:"widgetId"`
	VisitorID          string                     `json:"visitorId"`
	ConsentID          string                     `json:"consentId,omitempty"`
	Status             consent.Status             `json:"status"`
	AcceptedActivities []ReceiptActivity          `json:"acceptedActivities"`
	RejectedActivities []ReceiptActivity          `json:"rejectedActivities"`
	ActivityConsents   map[string]ActivityConsent `json:"activityConsents"`
	ConsentedAt        string                     `json:"consentedAt"`
	ExpiresAt          string                     `json:"expiresAt"`
	GeneratedAt        string                     `json:"generatedAt"`
}

// ReceiptActivity names an activity in a receipt
type ReceiptActivity struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

// BuildReceipt assembles a receipt from the stored decision
func (c *Controller) BuildReceipt() (*Receipt, error) {
	stored, ok := c.GetConsent()
	if !ok {
		return nil, ErrNoConsent
	}

	names := make(map[string]string)
	if cfg := c.Config(); cfg != nil {
		for _, a := range cfg.Activities {
			names[a.ID] = a.Name
		}
	}
	named := func(ids []string) []ReceiptActivity {
		out := make([]ReceiptActivity, 0, len(ids))
		for _, id := range ids {
			out = append(out, ReceiptActivity{ID: id, Name: names[id]})
		}
		return out
	}

	return &Receipt{
		WidgetID:           c.widgetID,
		VisitorID:          c.identity.GetOrCreate(),
		ConsentID:          stored.ConsentID,
		Status:             stored.Status,
		AcceptedActivities: named(stored.AcceptedActivities),
		RejectedActivities: named(stored.RejectedActivities),
		ActivityConsents:   stored.ActivityConsents,
		ConsentedAt:        utils.FormatMillis(stored.Timestamp),
		ExpiresAt:          utils.FormatMillis(stored.ExpiresAt),
		GeneratedAt:        utils.FormatTime(c.now()),
	}, nil
}

// DownloadReceipt writes the receipt as indented JSON
func (c *Controller) DownloadReceipt(w io.Writer) error {
	receipt, err := c.BuildReceipt()
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(receipt); err != nil {
		return fmt.Errorf("failed to write receipt: %w", err)
	}
	return nil
}

// ReceiptFilename is the suggested file name for DownloadReceipt output
func (c *Controller) ReceiptFilename() string {
	return fmt.Sprintf("consent-receipt-%s-%s.json", c.widgetID, c.now().UTC().Format("20060102"))
}
