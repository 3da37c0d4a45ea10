// Package cli provides the command-line interface for the helper.
package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/treykane/auth-helper/internal/appconfig"
	"github.com/treykane/auth-helper/internal/directory"
	"github.com/treykane/auth-helper/internal/doctor"
	"github.com/treykane/auth-helper/internal/events"
	"github.com/treykane/auth-helper/internal/launch"
	"github.com/treykane/auth-helper/internal/logging"
	"github.com/treykane/auth-helper/internal/model"
	"github.com/treykane/auth-helper/internal/picker"
	"github.com/treykane/auth-helper/internal/present"
	"github.com/treykane/auth-helper/internal/resolve"
	"github.com/treykane/auth-helper/internal/security"
	"github.com/treykane/auth-helper/internal/util"
)

// Swapped out in tests.
var (
	pickerAvailable = picker.Available
	runPicker       = picker.Run
	runInteractive  = func(ctx context.Context, wrapper string, d model.ConnectionDescriptor) error {
		return launch.New(wrapper).RunInteractive(ctx, d)
	}
)

// NewRootCommand creates the root cobra command.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "helper",
		Short:         "Resolve hosts from the auth directory and hand them to the ssh wrapper",
		Version:       util.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newActionCmd(model.ActionSearch, "s",
		"Search hosts by project, name, id or ip",
		"search <project> | <project> <query> | <query...>"))
	root.AddCommand(newActionCmd(model.ActionGo, "g",
		"Resolve one host and connect to it",
		"go <server_id|project|ip|fqdn> | <project> <server_id|ip|fqdn|name>"))
	root.AddCommand(newJournalCmd())
	root.AddCommand(newDoctorCmd())
	return root
}

// ExitCode maps a command error to the process exit status.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, resolve.ErrInvalidInput):
		return 2
	default:
		return 1
	}
}

func newActionCmd(action model.Action, alias, short, use string) *cobra.Command {
	return &cobra.Command{
		Use:                use,
		Aliases:            []string{alias},
		Short:              short,
		Long:               short + ".\n\nUnknown flags and everything after -- are passed to the ssh wrapper.\nHelper switches: --helper-debug, --helper-exec, --helper-pick.",
		DisableFlagParsing: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			inv := splitArgs(args)
			if inv.help {
				return cmd.Help()
			}
			cfg, err := appconfig.Load()
			if err != nil {
				return err
			}
			cfg.Debug = cfg.Debug || inv.debug
			cfg.Exec = cfg.Exec || inv.exec
			cfg.UI.Pick = cfg.UI.Pick || inv.pick
			logging.Init(logging.Config{Debug: cfg.Debug, Out: cmd.ErrOrStderr()})

			r := &runner{cfg: cfg, out: cmd.OutOrStdout(), id: uuid.NewString()}
			return r.run(cmd.Context(), action, inv)
		},
	}
}

// runner executes one search/go invocation.
type runner struct {
	cfg appconfig.Config
	out io.Writer
	id  string
}

func (r *runner) run(ctx context.Context, action model.Action, inv invocation) error {
	if ctx == nil {
		ctx = context.Background()
	}
	logger := log.With().Str("invocation", r.id).Logger()
	start := time.Now()
	req := resolve.Request{Action: action, Tokens: inv.tokens, ExtraArgs: inv.extra}

	d, ok := resolve.CheckShape(req)
	if ok {
		dir, err := directory.LoadConfig(ctx, r.cfg.Directory)
		if err != nil {
			logger.Debug().Err(err).Msg("directory load failed")
			return security.Classify("host directory unavailable: "+security.RedactMessage(err.Error()), err)
		}
		for _, w := range dir.Warnings() {
			logger.Debug().Str("warning", w).Msg("directory")
		}
		d = resolve.New(dir, resolve.Options{Blind: r.cfg.Blind}).Resolve(req)
	}

	defer func() {
		took := time.Since(start)
		logger.Debug().Dur("run_time", took).Msg("done")
		// Invalid input has no side effects.
		if d.Kind != model.DecisionInvalidInput {
			r.journal(logger, events.FromDecision(r.id, action, inv.tokens, d, took))
		}
	}()

	switch d.Kind {
	case model.DecisionInvalidInput:
		return resolve.Err(d)
	case model.DecisionConnect:
		return r.connect(ctx, logger, *d.Target, inv.extra)
	}

	printer := present.New(r.out, r.cfg.UI)
	if action == model.ActionGo && r.cfg.UI.Pick && len(d.Matches) > 1 && pickerAvailable() {
		choice, picked, err := runPicker(ctx, d.Matches, func(m model.MatchResult) string {
			return printer.Line(m, nil)
		})
		if err != nil {
			return err
		}
		if !picked {
			return nil
		}
		rec := choice.Record
		d = model.Decision{
			Kind:   model.DecisionConnect,
			Rule:   d.Rule + "+pick",
			Target: &model.ConnectTarget{By: model.ConnectByServerID, Project: rec.ProjectName, Record: &rec},
		}
		return r.connect(ctx, logger, *d.Target, inv.extra)
	}

	printer.PrintDecision(d, inv.tokens)
	return nil
}

// connect hands the resolved target to the wrapper. Without a session file
// or exec mode the command line is printed for the caller to run.
func (r *runner) connect(ctx context.Context, logger zerolog.Logger, target model.ConnectTarget, extra []string) error {
	desc := launch.Build(target, extra)
	cmdline := launch.CommandLine(r.cfg.Wrapper, desc)
	logger.Debug().
		Str("host", desc.Host).
		Str("server_id", desc.ServerID).
		Str("project", desc.Project).
		Str("cmd", cmdline).
		Msg("connect")

	if r.cfg.SessionFile != "" {
		if err := launch.WriteSession(r.cfg.SessionFile, cmdline, desc); err != nil {
			return err
		}
	}
	if r.cfg.Exec {
		return runInteractive(ctx, r.cfg.Wrapper, desc)
	}
	if r.cfg.SessionFile == "" {
		_, err := fmt.Fprintln(r.out, cmdline)
		return err
	}
	return nil
}

func (r *runner) journal(logger zerolog.Logger, evt events.Event) {
	if !r.cfg.Journal {
		return
	}
	store, err := events.NewStore()
	if err != nil {
		logger.Warn().Err(err).Msg("journal unavailable")
		return
	}
	if err := store.Append(evt); err != nil {
		logger.Warn().Err(err).Str("path", store.Path()).Msg("journal append failed")
	}
}

func newJournalCmd() *cobra.Command {
	var (
		limit   int
		action  string
		kind    string
		since   time.Duration
		jsonOut bool
	)
	cmd := &cobra.Command{
		Use:   "journal",
		Short: "Show recent resolution decisions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := events.NewStore()
			if err != nil {
				return err
			}
			q := events.Query{
				Action: model.Action(strings.TrimSpace(action)),
				Kind:   model.DecisionKind(strings.TrimSpace(kind)),
				Limit:  limit,
			}
			if since > 0 {
				q.Since = time.Now().Add(-since)
			}
			evts, err := store.Read(q)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if jsonOut {
				if evts == nil {
					evts = []events.Event{}
				}
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(evts)
			}
			fmt.Fprintf(out, "%-20s %-7s %-10s %-22s %-20s %s\n", "TIME", "ACTION", "KIND", "RULE", "HOST", "QUERY")
			for _, e := range evts {
				fmt.Fprintf(out, "%-20s %-7s %-10s %-22s %-20s %s\n",
					e.Timestamp.Local().Format("2006-01-02 15:04:05"),
					e.Action, e.Kind, util.EmptyDash(e.Rule), util.EmptyDash(e.Host), strings.Join(e.Tokens, " "))
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "show at most N most recent entries (0 = all)")
	cmd.Flags().StringVar(&action, "action", "", "filter by action (search|go)")
	cmd.Flags().StringVar(&kind, "kind", "", "filter by decision kind (connect|ambiguous|invalid)")
	cmd.Flags().DurationVar(&since, "since", 0, "only entries newer than this, e.g. 24h")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "output JSON")
	return cmd
}

func newDoctorCmd() *cobra.Command {
	var jsonOut bool
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check wrapper, directory and file permissions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := appconfig.Load()
			if err != nil {
				return err
			}
			logging.Init(logging.Config{Debug: cfg.Debug, Out: cmd.ErrOrStderr()})

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()

			report := doctor.Run(ctx, cfg)
			out := cmd.OutOrStdout()
			if jsonOut {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				if err := enc.Encode(report); err != nil {
					return err
				}
			} else {
				fmt.Fprintf(out, "directory: %s, %d records in %d projects\n", cfg.Directory.Backend, report.Records, report.Projects)
				if len(report.Issues) == 0 {
					fmt.Fprintln(out, "no issues found")
				}
				for _, i := range report.Issues {
					fmt.Fprintf(out, "[%s] %s %s: %s\n", strings.ToUpper(string(i.Severity)), i.Check, i.Target, security.RedactMessage(i.Message))
					fmt.Fprintf(out, "    -> %s\n", i.Recommendation)
				}
			}
			if report.HasHigh() {
				return errors.New("doctor found high severity issues")
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "output JSON")
	return cmd
}
