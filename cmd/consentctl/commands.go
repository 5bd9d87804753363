package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/consently/consent-management-api/pkg/consent"
	"github.com/consently/consent-management-api/pkg/utils"
	"github.com/consently/consent-management-api/pkg/widget"
)

func newShowCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the consent prompt with the current decisions",
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := opts.openSession(cmd)
			if err != nil {
				return err
			}
			if s.controller.State() == widget.StateSuppressed {
				fmt.Fprintln(opts.stdout, "Do-Not-Track is active; the prompt is suppressed for this widget.")
			}
			return s.controller.Show()
		},
	}
}

func newAcceptAllCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "accept-all",
		Short: "Accept every processing activity and record the decision",
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := opts.openSession(cmd)
			if err != nil {
				return err
			}
			if err := s.controller.AcceptAll(cmd.Context()); err != nil {
				return err
			}
			return printRecorded(opts, s.controller)
		},
	}
}

func newRejectAllCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "reject-all",
		Short: "Reject every processing activity and record the decision",
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := opts.openSession(cmd)
			if err != nil {
				return err
			}
			if err := s.controller.RejectAll(cmd.Context()); err != nil {
				return err
			}
			return printRecorded(opts, s.controller)
		},
	}
}

func newDecideCommand(opts *options) *cobra.Command {
	var accept, reject []string
	cmd := &cobra.Command{
		Use:   "decide",
		Short: "Record a mixed selection of accepted and rejected activities",
		Example: "  consentctl decide --widget w1 --accept act1 --reject act2,act3",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if len(accept) == 0 && len(reject) == 0 {
				return errors.New("at least one of --accept or --reject is required")
			}
			s, err := opts.openSession(cmd)
			if err != nil {
				return err
			}
			if err := applyDecisions(s.controller, accept, consent.DecisionAccepted); err != nil {
				return err
			}
			if err := applyDecisions(s.controller, reject, consent.DecisionRejected); err != nil {
				return err
			}
			if err := s.controller.SubmitSelection(cmd.Context()); err != nil {
				return err
			}
			return printRecorded(opts, s.controller)
		},
	}
	cmd.Flags().StringSliceVar(&accept, "accept", nil, "activity ids to accept")
	cmd.Flags().StringSliceVar(&reject, "reject", nil, "activity ids to reject")
	return cmd
}

func applyDecisions(c *widget.Controller, ids []string, decision consent.Decision) error {
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if err := c.SetDecision(id, decision); err != nil {
			return fmt.Errorf("activity %s: %w", id, err)
		}
	}
	return nil
}

// statusReport is the machine-readable output of the status command
type statusReport struct {
	WidgetID   string                    `json:"widgetId" yaml:"widgetId"`
	VisitorID  string                    `json:"visitorId" yaml:"visitorId"`
	State      string                    `json:"state" yaml:"state"`
	Status     string                    `json:"status,omitempty" yaml:"status,omitempty"`
	ConsentID  string                    `json:"consentId,omitempty" yaml:"consentId,omitempty"`
	ExpiresAt  string                    `json:"expiresAt,omitempty" yaml:"expiresAt,omitempty"`
	Activities []statusReportActivityRow `json:"activities" yaml:"activities"`
}

type statusReportActivityRow struct {
	ID       string `json:"id" yaml:"id"`
	Name     string `json:"name" yaml:"name"`
	Decision string `json:"decision" yaml:"decision"`
}

func newStatusCommand(opts *options) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the stored consent for the widget",
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := opts.openSession(cmd)
			if err != nil {
				return err
			}
			report := buildStatusReport(opts.widgetID, s.controller)
			switch output {
			case "json":
				enc := json.NewEncoder(opts.stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(report)
			case "yaml":
				enc := yaml.NewEncoder(opts.stdout)
				defer enc.Close()
				return enc.Encode(report)
			case "text", "":
				printStatusText(opts, report)
				return nil
			default:
				return fmt.Errorf("unsupported output format %q (text, json, yaml)", output)
			}
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "text", "output format: text, json or yaml")
	return cmd
}

func buildStatusReport(widgetID string, c *widget.Controller) statusReport {
	report := statusReport{
		WidgetID:   widgetID,
		VisitorID:  c.VisitorID(),
		State:      c.State().String(),
		Activities: []statusReportActivityRow{},
	}
	if stored, ok := c.GetConsent(); ok {
		report.Status = string(stored.Status)
		report.ConsentID = stored.ConsentID
		report.ExpiresAt = utils.FormatMillis(stored.ExpiresAt)
	}
	decisions := c.Decisions()
	if cfg := c.Config(); cfg != nil {
		for _, a := range cfg.Activities {
			decision := decisions[a.ID]
			if decision == "" {
				decision = consent.DecisionUnset
			}
			report.Activities = append(report.Activities, statusReportActivityRow{
				ID:       a.ID,
				Name:     a.Name,
				Decision: string(decision),
			})
		}
	}
	return report
}

func printStatusText(opts *options, report statusReport) {
	fmt.Fprintf(opts.stdout, "Widget:   %s\n", report.WidgetID)
	fmt.Fprintf(opts.stdout, "Visitor:  %s\n", report.VisitorID)
	fmt.Fprintf(opts.stdout, "State:    %s\n", report.State)
	if report.Status == "" {
		fmt.Fprintln(opts.stdout, "Consent:  none stored")
	} else {
		fmt.Fprintf(opts.stdout, "Consent:  %s (expires %s)\n", report.Status, report.ExpiresAt)
	}
	for _, a := range report.Activities {
		fmt.Fprintf(opts.stdout, "  %-10s %s (%s)\n", a.Decision, a.Name, a.ID)
	}
}

func newClearCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Forget the locally stored decision without telling the server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := opts.openSession(cmd)
			if err != nil {
				return err
			}
			s.controller.ClearConsent()
			fmt.Fprintln(opts.stdout, "Local consent cleared.")
			return nil
		},
	}
}

func newWithdrawCommand(opts *options) *cobra.Command {
	var submitReject bool
	cmd := &cobra.Command{
		Use:   "withdraw",
		Short: "Withdraw consent and reopen the prompt",
		Long: "Withdraw clears the local decision and reopens the prompt. The withdrawal is only " +
			"recorded by the server once a rejection is submitted; pass --reject to do that now.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := opts.openSession(cmd)
			if err != nil {
				return err
			}
			if err := s.controller.Withdraw(); err != nil {
				return err
			}
			if !submitReject {
				return nil
			}
			if err := s.controller.RejectAll(cmd.Context()); err != nil {
				return err
			}
			return printRecorded(opts, s.controller)
		},
	}
	cmd.Flags().BoolVar(&submitReject, "reject", false, "submit a rejection of every activity after withdrawing")
	return cmd
}

func newReceiptCommand(opts *options) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "receipt",
		Short: "Write a receipt of the stored consent",
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := opts.openSession(cmd)
			if err != nil {
				return err
			}
			if out == "-" {
				return s.controller.DownloadReceipt(opts.stdout)
			}
			if out == "" {
				out = s.controller.ReceiptFilename()
			}
			f, err := os.Create(out)
			if err != nil {
				return fmt.Errorf("failed to create receipt file: %w", err)
			}
			if err := s.controller.DownloadReceipt(f); err != nil {
				f.Close()
				os.Remove(out)
				return err
			}
			if err := f.Close(); err != nil {
				return fmt.Errorf("failed to write receipt file: %w", err)
			}
			fmt.Fprintf(opts.stdout, "Receipt written to %s\n", out)
			return nil
		},
	}
	cmd.Flags().StringVar(&out, "out", "", "receipt file path, - for stdout (default consent-receipt-<widget>-<date>.json)")
	return cmd
}

func printRecorded(opts *options, c *widget.Controller) error {
	stored, ok := c.GetConsent()
	if !ok {
		return errors.New("consent was recorded but could not be stored locally")
	}
	fmt.Fprintf(opts.stdout, "Consent %s recorded (%s), expires %s\n",
		stored.ConsentID, stored.Status, utils.FormatMillis(stored.ExpiresAt))
	return nil
}
