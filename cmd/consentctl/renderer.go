package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/consently/consent-management-api/pkg/consent"
	"github.com/consently/consent-management-api/pkg/widget"
)

// textRenderer draws the consent prompt as plain text
type textRenderer struct {
	out io.Writer
}

func newTextRenderer(out io.Writer) *textRenderer {
	return &textRenderer{out: out}
}

func (r *textRenderer) Render(view widget.View) {
	cfg := view.Config
	fmt.Fprintf(r.out, "%s\n", cfg.Title)
	if cfg.Message != "" {
		fmt.Fprintf(r.out, "%s\n", cfg.Message)
	}
	fmt.Fprintln(r.out)
	for _, a := range cfg.Activities {
		fmt.Fprintf(r.out, "  %s %s (%s)\n", decisionMark(view.Decisions[a.ID]), a.Name, a.ID)
		if a.Purpose != "" {
			fmt.Fprintf(r.out, "      purpose: %s\n", a.Purpose)
		}
		if len(a.DataAttributes) > 0 {
			fmt.Fprintf(r.out, "      data: %s\n", strings.Join(a.DataAttributes, ", "))
		}
		if a.RetentionPeriod != "" {
			fmt.Fprintf(r.out, "      retention: %s\n", a.RetentionPeriod)
		}
	}
	if view.Email != "" {
		fmt.Fprintf(r.out, "\nSubmitting as %s\n", view.Email)
	}
	fmt.Fprintf(r.out, "\n[%s] [%s]\n", labelOr(cfg.ButtonLabels.Accept, "Accept all"), labelOr(cfg.ButtonLabels.Reject, "Reject all"))
}

func (r *textRenderer) Hide() {}

func (r *textRenderer) ShowError(message string) {
	fmt.Fprintf(r.out, "! %s\n", message)
}

func decisionMark(d consent.Decision) string {
	switch d {
	case consent.DecisionAccepted:
		return "[x]"
	case consent.DecisionRejected:
		return "[-]"
	default:
		return "[ ]"
	}
}

func labelOr(label, fallback string) string {
	if label == "" {
		return fallback
	}
	return label
}
