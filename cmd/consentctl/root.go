package main

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/consently/consent-management-api/pkg/widget"
)

var version = "dev"

type options struct {
	apiBase   string
	widgetID  string
	profile   string
	email     string
	dnt       bool
	timeout   time.Duration
	verbose   bool
	stdout    io.Writer
	stderr    io.Writer
	now       func() time.Time
	newClient func(timeout time.Duration) *http.Client
}

func newRootCommand(stdout, stderr io.Writer) *cobra.Command {
	opts := &options{
		stdout: stdout,
		stderr: stderr,
		now:    time.Now,
		newClient: func(timeout time.Duration) *http.Client {
			return &http.Client{Timeout: timeout}
		},
	}

	cmd := &cobra.Command{
		Use:           "consentctl",
		Short:         "Manage a visitor's consent for a Consently widget",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.apiBase, "api", envOr("CONSENTLY_API", "http://localhost:9446"), "consent API base URL")
	flags.StringVar(&opts.widgetID, "widget", os.Getenv("CONSENTLY_WIDGET"), "widget id")
	flags.StringVar(&opts.profile, "profile", defaultProfilePath(), "local profile file holding the visitor id and decisions")
	flags.StringVar(&opts.email, "email", "", "visitor email sent with submissions")
	flags.BoolVar(&opts.dnt, "dnt", false, "send a Do-Not-Track signal")
	flags.DurationVar(&opts.timeout, "timeout", widget.DefaultTimeout, "API request timeout")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "log widget internals to stderr")

	cmd.AddCommand(
		newShowCommand(opts),
		newAcceptAllCommand(opts),
		newRejectAllCommand(opts),
		newDecideCommand(opts),
		newStatusCommand(opts),
		newClearCommand(opts),
		newWithdrawCommand(opts),
		newReceiptCommand(opts),
	)

	return cmd
}

// session is a loaded widget controller
type session struct {
	controller *widget.Controller
}

// openSession builds the controller against the API and the local profile, then loads it
func (o *options) openSession(cmd *cobra.Command) (*session, error) {
	if o.widgetID == "" {
		return nil, errors.New("--widget is required")
	}

	logger := logrus.New()
	logger.SetOutput(o.stderr)
	logger.SetLevel(logrus.WarnLevel)
	if o.verbose {
		logger.SetLevel(logrus.DebugLevel)
	}

	storage := widget.NewStorage(widget.NewFileBackend(o.profile), logger)

	client := o.newClient(o.timeout)
	controller, err := widget.NewController(widget.Options{
		WidgetID:      o.widgetID,
		VisitorEmail:  o.email,
		Storage:       storage,
		ConfigFetcher: widget.NewConfigClient(o.apiBase, client, logger),
		Recorder:      widget.NewConsentRecorder(o.apiBase, client, logger),
		Renderer:      newTextRenderer(o.stdout),
		Environment: widget.Environment{
			DoNotTrack: o.dnt,
			UserAgent:  fmt.Sprintf("consentctl/%s (%s; %s)", version, runtime.GOOS, runtime.GOARCH),
			Language:   envOr("LANG", "en"),
		},
		// Prompts are only drawn on request
		Schedule: func(time.Duration, func()) {},
		Logger:   logger,
		Now:      o.now,
	})
	if err != nil {
		return nil, err
	}

	if err := controller.Load(cmd.Context()); err != nil {
		return nil, fmt.Errorf("widget %s could not be loaded: %w", o.widgetID, err)
	}
	return &session{controller: controller}, nil
}

func defaultProfilePath() string {
	if path := os.Getenv("CONSENTLY_PROFILE"); path != "" {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "consently-profile.json"
	}
	return filepath.Join(home, ".consently", "profile.json")
}

func envOr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
