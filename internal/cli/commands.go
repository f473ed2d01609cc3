package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/idilsaglam/cards/internal/model"
	"github.com/idilsaglam/cards/internal/settings"
	"github.com/idilsaglam/cards/internal/tui"
	"github.com/idilsaglam/cards/internal/ui"
)

const readOnlyHint = "live mode is read-only: edit the Google Sheet, then run `cards sync`"

// -------------- read commands ----------------

func newListCmd(get func() *app) *cobra.Command {
	return &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List cards",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			snap := load(cmd.Context(), get())
			lines := []string{
				fmt.Sprintf("%s  %s  %s %d",
					ui.C(ui.Current().Title, "Business Cards"),
					ui.ModeBadge(snap.IsSheetMode),
					ui.C(ui.Current().Accent, "Total"), len(snap.Employees)),
				"",
			}
			lines = append(lines, ui.RosterLines(snap.Employees)...)
			lines = append(lines, "")
			lines = append(lines, ui.C(ui.Current().Muted, "Tip: open a card with `cards show <id>`"))
			ui.Panel(lines)
			return nil
		},
	}
}

func newShowCmd(get func() *app) *cobra.Command {
	var noQR bool
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one card, its public share link and QR code",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := get()
			load(cmd.Context(), a)
			c, ok := a.ctrl.Lookup(args[0])
			if !ok {
				return &exitError{code: 1, msg: "card not found: " + args[0]}
			}
			link := ui.ShareURL(a.cfg.ShareBaseURL, c.ID)
			lines := ui.CardLines(c)
			lines = append(lines, "", ui.C(ui.Current().Muted, "share: ")+link)
			ui.Panel(lines)
			if noQR {
				return nil
			}
			code, err := ui.QR(link)
			if err != nil {
				a.log.Warn("render qr code", zap.Error(err))
				return nil
			}
			fmt.Fprint(ui.Stdout, code)
			return nil
		},
	}
	cmd.Flags().BoolVar(&noQR, "no-qr", false, "omit the QR code")
	return cmd
}

// -------------- mutations ----------------

// cardFlags binds one flag per editable field.
func cardFlags(cmd *cobra.Command) map[string]*string {
	vals := map[string]*string{}
	for _, f := range model.FieldNames[1:] {
		vals[f] = cmd.Flags().String(f, "", f)
	}
	return vals
}

func newAddCmd(get func() *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a card (manual mode)",
		Example: `  cards add --name "Dana Scully" --title "Special Agent" \
    --companyName FBI --email dana@fbi.gov --phone +1-202-555-0100`,
		Args: cobra.NoArgs,
	}
	vals := cardFlags(cmd)
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		a := get()
		if snap := load(cmd.Context(), a); snap.IsSheetMode {
			return usage("%s", readOnlyHint)
		}
		var c model.Card
		for f, v := range vals {
			c.Set(f, strings.TrimSpace(*v))
		}
		if missing := c.Missing(); len(missing) > 0 {
			return usage("add: missing required --%s", strings.Join(missing, ", --"))
		}
		id := a.ctrl.Add(c)
		ui.OK("added " + id)
		return nil
	}
	return cmd
}

func newEditCmd(get func() *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change fields of a card (manual mode)",
		Args:  cobra.ExactArgs(1),
	}
	vals := cardFlags(cmd)
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		a := get()
		if snap := load(cmd.Context(), a); snap.IsSheetMode {
			return usage("%s", readOnlyHint)
		}
		c, ok := a.ctrl.Lookup(args[0])
		if !ok {
			return &exitError{code: 1, msg: "card not found: " + args[0]}
		}
		changed := 0
		for f, v := range vals {
			if cmd.Flags().Changed(f) {
				c.Set(f, strings.TrimSpace(*v))
				changed++
			}
		}
		if changed == 0 {
			return usage("edit: nothing to change, pass at least one field flag")
		}
		if missing := c.Missing(); len(missing) > 0 {
			return usage("edit: required fields cannot be blank: %s", strings.Join(missing, ", "))
		}
		a.ctrl.Update(c)
		ui.OK("updated " + c.ID)
		return nil
	}
	return cmd
}

func newRemoveCmd(get func() *app) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"delete"},
		Short:   "Delete a card (manual mode)",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := get()
			if snap := load(cmd.Context(), a); snap.IsSheetMode {
				return usage("%s", readOnlyHint)
			}
			if _, ok := a.ctrl.Lookup(args[0]); !ok {
				return &exitError{code: 1, msg: "card not found: " + args[0]}
			}
			a.ctrl.Delete(args[0])
			ui.OK("removed " + args[0])
			return nil
		},
	}
}

// -------------- data source ----------------

func newSyncCmd(get func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Re-read the Google Sheet (live mode)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := get()
			if !a.ctrl.Snapshot().IsSheetMode {
				ui.OK("manual mode: nothing to sync")
				return nil
			}
			snap := a.ctrl.Sync(cmd.Context())
			if snap.Error != "" {
				return &exitError{code: 1, msg: snap.Error}
			}
			ui.OK(fmt.Sprintf("synced %d cards", len(snap.Employees)))
			return nil
		},
	}
}

func newSourceCmd(get func() *app) *cobra.Command {
	var local bool
	cmd := &cobra.Command{
		Use:   "source [sheet-csv-url]",
		Short: "Show or change the data source",
		Long: `Without arguments, prints the active data source.

Live mode: connect a Google Sheet as the single source of truth. In Google
Sheets use File > Share > Publish to web, publish as CSV, and pass the URL.
All edits are then made in the sheet and pulled in with "cards sync".

Manual mode (--local): cards are stored locally and edited with this tool.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := get()
			switch {
			case local && len(args) > 0:
				return usage("source: pass a URL or --local, not both")
			case local:
				a.ctrl.SetFeedURL(cmd.Context(), "")
				ui.OK("switched to manual mode")
				if a.source == settings.SourceEnv {
					ui.Warn(settings.EnvURL + " is set and selects live mode again on the next run; unset it to stay in manual mode")
				}
				return nil
			case len(args) == 1:
				url := strings.TrimSpace(args[0])
				if url == "" {
					return usage("source: empty URL")
				}
				snap := a.ctrl.SetFeedURL(cmd.Context(), url)
				if snap.Error != "" {
					ui.Warn(snap.Error)
					return &exitError{code: 1, msg: "sheet connected but not readable"}
				}
				ui.OK(fmt.Sprintf("connected sheet, %d cards", len(snap.Employees)))
				return nil
			}

			snap := a.ctrl.Snapshot()
			lines := []string{ui.ModeBadge(snap.IsSheetMode)}
			if snap.IsSheetMode {
				lines = append(lines, snap.SheetURL)
				if a.source == settings.SourceEnv {
					lines = append(lines, ui.C(ui.Current().Muted, "(from "+settings.EnvURL+")"))
				}
			}
			ui.Panel(lines)
			return nil
		},
	}
	cmd.Flags().BoolVar(&local, "local", false, "switch to manual mode (local storage)")
	return cmd
}

// -------------- config ----------------

func newConfigCmd(get func() *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := get()
			timeout := "none"
			if a.cfg.FetchTimeout > 0 {
				timeout = a.cfg.FetchTimeout.String()
			}
			muted := func(s string) string { return ui.C(ui.Current().Muted, s) }
			ui.Panel([]string{
				muted("file        ") + a.cfgPath,
				muted("data dir    ") + a.cfg.DataDir,
				muted("share base  ") + a.cfg.ShareBaseURL,
				muted("theme       ") + a.cfg.Theme,
				muted("timeout     ") + timeout,
				muted("log level   ") + a.cfg.LogLevel,
			})
			return nil
		},
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Write the effective configuration to the config file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := get()
			if _, err := os.Stat(a.cfgPath); err == nil {
				return &exitError{code: 1, msg: "config already exists: " + a.cfgPath}
			}
			if err := a.cfg.Save(a.cfgPath); err != nil {
				return err
			}
			ui.OK("wrote " + a.cfgPath)
			return nil
		},
	})
	return cmd
}

func newTUICmd(get func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Open the interactive card browser",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(get())
		},
	}
}

func runTUI(a *app) error {
	return tui.Run(a.ctrl, tui.Options{ShareBaseURL: a.cfg.ShareBaseURL})
}
