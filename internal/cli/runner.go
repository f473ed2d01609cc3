package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/idilsaglam/cards/internal/config"
	"github.com/idilsaglam/cards/internal/feed"
	"github.com/idilsaglam/cards/internal/logging"
	"github.com/idilsaglam/cards/internal/roster"
	"github.com/idilsaglam/cards/internal/settings"
	"github.com/idilsaglam/cards/internal/store/jsonstore"
	"github.com/idilsaglam/cards/internal/store/kv"
	"github.com/idilsaglam/cards/internal/ui"
)

// Options tune output behavior from root flags.
type Options struct {
	ConfigPath string
	Verbose    bool
	NoColor    bool
}

// exitError carries an exit code out of a command (1 error, 2 usage).
type exitError struct {
	code int
	msg  string
}

func (e *exitError) Error() string { return e.msg }

func usage(format string, args ...any) error {
	return &exitError{code: 2, msg: fmt.Sprintf(format, args...)}
}

// app is everything a command needs, built once per invocation.
type app struct {
	cfg     *config.Config
	cfgPath string
	log     *zap.Logger
	ctrl    *roster.Controller
	source  settings.Source
}

func (a *app) close() {
	if a.ctrl != nil {
		a.ctrl.Close()
	}
	if a.log != nil {
		a.log.Debug("shutting down")
		_ = a.log.Sync()
	}
}

func newApp(opt Options) (*app, error) {
	path := opt.ConfigPath
	if path == "" {
		path = config.DefaultPath()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	ui.SetTheme(cfg.Theme)
	if opt.NoColor {
		ui.SetColorForcing(false, true)
	}

	log, err := logging.New(cfg.LogPath(), cfg.LogLevel, opt.Verbose)
	if err != nil {
		return nil, err
	}

	store := kv.Open(cfg.DataDir)
	prefs, err := settings.Load(store)
	if err != nil {
		// unreadable setting: start in local mode rather than refusing to run
		log.Warn("feed url unreadable, using local mode", zap.Error(err))
	}

	fetcher := feed.NewFetcher(feed.WithTimeout(cfg.FetchTimeout), feed.WithLogger(log))
	ctrl := roster.New(jsonstore.New(store, log), fetcher, prefs, roster.WithLogger(log))
	return &app{cfg: cfg, cfgPath: path, log: log, ctrl: ctrl, source: prefs.Source()}, nil
}

// Run builds the command tree, executes args and returns an exit code
// (0 ok, 1 error, 2 usage).
func Run(ctx context.Context, args []string, opt Options) int {
	root, closeApp := newRootCmd(&opt)
	root.SetArgs(args)
	err := root.ExecuteContext(ctx)
	// cobra skips post-run hooks after a failed command
	closeApp()
	if err == nil {
		return 0
	}
	var ee *exitError
	if errors.As(err, &ee) {
		ui.Fail(ee.msg)
		return ee.code
	}
	ui.Fail(err.Error())
	return 1
}

func newRootCmd(opt *Options) (*cobra.Command, func()) {
	var a *app
	root := &cobra.Command{
		Use:   "cards",
		Short: "cards - digital business cards for your team",
		Long: `cards keeps a roster of employee business cards.

Cards live in local storage (manual mode) or come read-only from a
published Google Sheet CSV (live mode). Switch with "cards source".

Run without arguments to open the interactive browser.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			a, err = newApp(*opt)
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(a)
		},
	}
	root.PersistentFlags().StringVar(&opt.ConfigPath, "config", opt.ConfigPath, "config file (default ~/.cards/config.yaml)")
	root.PersistentFlags().BoolVarP(&opt.Verbose, "verbose", "v", opt.Verbose, "debug logging")
	root.PersistentFlags().BoolVar(&opt.NoColor, "no-color", opt.NoColor, "disable colors")

	// commands get the app lazily; it exists once PersistentPreRunE ran
	get := func() *app { return a }
	root.AddCommand(
		newListCmd(get),
		newShowCmd(get),
		newAddCmd(get),
		newEditCmd(get),
		newRemoveCmd(get),
		newSyncCmd(get),
		newSourceCmd(get),
		newConfigCmd(get),
		newTUICmd(get),
	)
	return root, func() {
		if a != nil {
			a.close()
		}
	}
}

// load populates the controller and prints the feed diagnostic, if any.
func load(ctx context.Context, a *app) roster.Snapshot {
	start := time.Now()
	snap := a.ctrl.Load(ctx)
	a.log.Debug("roster loaded",
		zap.Bool("remote", snap.IsSheetMode),
		zap.Int("cards", len(snap.Employees)),
		zap.Duration("took", time.Since(start)))
	if snap.Error != "" {
		ui.Warn(snap.Error)
	}
	return snap
}
