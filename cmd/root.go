package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"movie-booking-cli/config"
	"movie-booking-cli/logging"
	"movie-booking-cli/service"
	"movie-booking-cli/tui"
)

// app holds what every command needs once flags are parsed.
type app struct {
	cfg      config.Config
	logger   *logrus.Logger
	client   *service.Client
	closeLog func() error
}

func (a *app) setup(baseURL string, stderr io.Writer) error {
	a.cfg = config.Load()
	if baseURL = strings.TrimSpace(baseURL); baseURL != "" {
		a.cfg.BaseURL = strings.TrimRight(baseURL, "/")
	}

	logger, closeLog, err := logging.New(a.cfg)
	if err != nil {
		fmt.Fprintf(stderr, "warning: logging disabled: %v\n", err)
		logger = logging.Discard()
		closeLog = nil
	}
	for _, w := range a.cfg.Warnings {
		logger.Warn(w)
	}
	a.logger = logger
	a.closeLog = closeLog
	a.client = service.NewFromConfig(a.cfg, logger)
	return nil
}

func (a *app) close() error {
	if a.closeLog == nil {
		return nil
	}
	err := a.closeLog()
	a.closeLog = nil
	return err
}

// fail logs err and returns the message a user should see.
func (a *app) fail(err error, fallback string) error {
	if err == nil {
		return nil
	}
	if a.logger != nil {
		a.logger.WithField("error", err).Error(fallback)
	}
	return errors.New(service.UserMessage(err, fallback))
}

func NewRootCmd(version string, commit string) *cobra.Command {
	a := &app{}
	var baseURL string

	root := &cobra.Command{
		Use:           config.AppName,
		Short:         "Browse movies and book cinema seats",
		Long:          `Browse movies and showtimes, pick seats and book tickets from the terminal. Run without arguments for the interactive app.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(baseURL, cmd.ErrOrStderr())
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.close()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			defer a.close()
			_, err := tea.NewProgram(tui.New(a.cfg, a.client, a.logger), tea.WithAltScreen()).Run()
			return err
		},
	}
	root.PersistentFlags().StringVar(&baseURL, "base-url", "", "API base URL (overrides MOVIEBOOK_BASE_URL)")

	root.AddCommand(
		newMoviesCmd(a),
		newShowtimesCmd(a),
		newSeatsCmd(a),
		newBookCmd(a),
		newBookingsCmd(a),
		newVersionCmd(version, commit),
	)
	return root
}

func newVersionCmd(version string, commit string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s %s", config.AppName, version)
			if commit != "none" && commit != "" {
				fmt.Fprintf(out, " (%s)", commit)
			}
			fmt.Fprintln(out)
		},
	}
}

func Execute(version string, commit string) {
	root := NewRootCmd(version, commit)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
