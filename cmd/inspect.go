package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/okian/signingday/internal/adapters/savestate"
	"github.com/okian/signingday/internal/config"
	"github.com/okian/signingday/internal/domain/ledger"
	"github.com/okian/signingday/internal/domain/model"
)

var (
	green  = color.New(color.FgGreen)
	yellow = color.New(color.FgYellow)
	red    = color.New(color.FgRed, color.Bold)
)

type inspectOptions struct {
	Format string // "text" | "json"
}

type teamReport struct {
	TeamID   string         `json:"team_id"`
	Name     string         `json:"name"`
	Summary  ledger.Summary `json:"summary"`
	Counters model.Counters `json:"counters"`
}

func newInspectCommand(_ *rootOptions) *cobra.Command {
	opts := &inspectOptions{}
	cmd := &cobra.Command{
		Use:   "inspect <file>",
		Short: "Print each team's scholarship ledger from a save-state",
		Long: `Decode a save-state file (.json, .yaml) and print each team's
ledger summary. Legacy saves are migrated in memory; the file is not changed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.Format != "text" && opts.Format != "json" {
				return fmt.Errorf("invalid format %q: must be text or json", opts.Format)
			}
			return runInspect(cmd, args[0], opts)
		},
	}
	cmd.Flags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	return cmd
}

func runInspect(cmd *cobra.Command, path string, opts *inspectOptions) error {
	ctx := cmd.Context()
	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}
	th := model.LevelThresholds{FullPct: cfg.LevelFullPct, HalfPct: cfg.LevelHalfPct, QuarterPct: cfg.LevelQuarterPct}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open save-state: %w", err)
	}
	defer f.Close()

	st, err := savestate.NewCodec(savestate.WithThresholds(th)).Decode(ctx, f, savestate.FormatFromPath(path))
	if err != nil {
		return err
	}

	reports := make([]teamReport, 0, len(st.Teams))
	for _, t := range st.Teams {
		reports = append(reports, teamReport{
			TeamID:   t.Team.ID,
			Name:     t.Team.Name,
			Summary:  ledger.Summarize(t.Team.Pool, t.Roster, th),
			Counters: t.Counters,
		})
	}

	out := cmd.OutOrStdout()
	if opts.Format == "json" {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(reports)
	}
	printReports(out, reports)
	return nil
}

func printReports(w io.Writer, reports []teamReport) {
	for _, r := range reports {
		s := r.Summary
		c := green
		switch {
		case s.OverCommitted:
			c = red
		case s.BelowMinimum:
			c = yellow
		}
		_, _ = c.Fprintf(w, "%s (%s)\n", r.TeamID, r.Name)
		fmt.Fprintf(w, "  grants   %.2f / %.2f used, %.2f available\n", s.Used, s.Total, s.Available)
		fmt.Fprintf(w, "  roster   %d [%d-%d]\n", s.RosterSize, s.RosterMin, s.RosterMax)
		fmt.Fprintf(w, "  levels   full=%d half=%d quarter=%d minimal=%d\n",
			s.Levels[model.LevelFull], s.Levels[model.LevelHalf], s.Levels[model.LevelQuarter], s.Levels[model.LevelMinimal])
		if s.LegacyEntries > 0 {
			fmt.Fprintf(w, "  legacy   %d entries counted as full grants\n", s.LegacyEntries)
		}
		if r.Counters.ScholarshipsUsed != s.Used || r.Counters.RosterSize != s.RosterSize {
			_, _ = yellow.Fprintf(w, "  drift    cached counters %.2f / %d\n", r.Counters.ScholarshipsUsed, r.Counters.RosterSize)
		}
		if s.OverCommitted {
			_, _ = red.Fprintln(w, "  OVER-COMMITTED")
		}
	}
}
