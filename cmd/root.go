// Package cmd is the buskport command line: the TUI launcher and the
// scriptable subcommands sharing its config, session and API client.
package cmd

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"buskport-cli/calendar"
	"buskport-cli/config"
	"buskport-cli/logging"
	"buskport-cli/service"
	"buskport-cli/session"
	"buskport-cli/tui"
)

const appName = "buskport"

type rootOptions struct {
	configPath string
	apiBase    string
	logLevel   string

	view string
	date string

	version string
	commit  string
	now     func() time.Time
}

// env is everything a command needs to talk to the API.
type env struct {
	cfg     *config.Config
	loc     *time.Location
	logger  *zap.Logger
	session *session.Context
	client  *service.Client
	now     func() time.Time
}

// NewRootCmd builds the command tree.
func NewRootCmd(version, commit string) *cobra.Command {
	opts := &rootOptions{version: version, commit: commit, now: time.Now}

	root := &cobra.Command{
		Use:           appName,
		Short:         "BuskPort busking schedule and booking in your terminal",
		Long:          `Browse street performance schedules, book a slot at a venue and talk to other buskers, all from the terminal.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd, opts)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "config file (default ~/.config/buskport/config.yaml)")
	flags.StringVar(&opts.apiBase, "api", "", "BuskPort API base URL")
	flags.StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn, error")

	root.Flags().StringVar(&opts.view, "view", "", "initial view: month, week or day")
	root.Flags().StringVar(&opts.date, "date", "", "initial date (YYYY-MM-DD)")

	root.AddCommand(
		newScheduleCmd(opts),
		newCalendarCmd(opts),
		newVenuesCmd(opts),
		newPostsCmd(opts),
		newReserveCmd(opts),
		newLoginCmd(opts),
		newLogoutCmd(opts),
		newSignupCmd(opts),
		newExportCmd(opts),
		newVersionCmd(opts),
	)
	return root
}

// Execute runs the command line.
func Execute(version, commit string) error {
	return NewRootCmd(version, commit).Execute()
}

func newVersionCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number of buskport",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			line := fmt.Sprintf("%s %s", appName, opts.version)
			if opts.commit != "none" && opts.commit != "" {
				line += fmt.Sprintf(" (%s)", opts.commit)
			}
			fmt.Fprintln(cmd.OutOrStdout(), line)
		},
	}
}

// setup loads the config and wires logger, session and client. The TUI logs to
// a file since it owns the terminal.
func setup(opts *rootOptions, fileLog bool) (*env, error) {
	path := opts.configPath
	if path == "" {
		p, err := config.DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}
	cfg, cfgErr := config.Load(path)
	if cfg == nil {
		return nil, fmt.Errorf("load config: %w", cfgErr)
	}
	cfg.ApplyEnv()
	if opts.apiBase != "" {
		cfg.APIBase = opts.apiBase
	}
	if opts.logLevel != "" {
		cfg.LogLevel = opts.logLevel
	}
	cfg.Normalize()

	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	var logger *zap.Logger
	if fileLog {
		logPath, pathErr := logging.DefaultFile()
		if pathErr != nil {
			return nil, pathErr
		}
		logger, err = logging.NewFile(cfg.LogLevel, logPath)
	} else {
		logger, err = logging.New(cfg.LogLevel)
	}
	if err != nil {
		return nil, err
	}
	if cfgErr != nil {
		logger.Warn("could not write default config", zap.String("path", path), zap.Error(cfgErr))
	}

	httpClient := &http.Client{Timeout: cfg.Timeout}
	sess, err := session.Load(cfg.APIBase, logger)
	if err != nil {
		logger.Warn("session unavailable", zap.Error(err))
		sess = nil
	} else {
		httpClient.Jar = sess.Jar()
	}

	client := service.NewClient(httpClient,
		service.WithBaseURL(cfg.APIBase),
		service.WithMaxAttempts(cfg.RetryAttempts),
		service.WithLogger(logger),
	)

	now := opts.now
	if now == nil {
		now = time.Now
	}
	return &env{cfg: cfg, loc: loc, logger: logger, session: sess, client: client, now: now}, nil
}

func runTUI(cmd *cobra.Command, opts *rootOptions) error {
	e, err := setup(opts, true)
	if err != nil {
		return err
	}
	defer func() { _ = e.logger.Sync() }()

	viewName := opts.view
	if viewName == "" {
		viewName = e.cfg.DefaultView
	}
	mode, err := calendar.ParseMode(viewName)
	if err != nil {
		return err
	}
	var date calendar.Date
	if strings.TrimSpace(opts.date) != "" {
		date, err = calendar.ParseDate(opts.date)
		if err != nil {
			return fmt.Errorf("invalid --date: %w", err)
		}
	}

	e.logger.Info("starting tui", zap.String("api", e.cfg.APIBase), zap.String("view", mode.String()))
	model := tui.New(tui.Options{
		Client:   e.client,
		Session:  e.session,
		Locator:  service.NewLocator(nil, e.logger),
		Logger:   e.logger,
		Location: e.loc,
		Now:      e.now,
		View:     mode,
		Date:     date,
		VenueTTL: e.cfg.Cache.Venues,
		MonthTTL: e.cfg.Cache.Performances,
		MapURL:   e.cfg.MapURL,
	})
	_, err = tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(cmd.Context())).Run()
	return err
}
