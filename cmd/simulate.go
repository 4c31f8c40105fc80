package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/okian/signingday/internal/adapters/savestate"
	"github.com/okian/signingday/internal/config"
	"github.com/okian/signingday/internal/domain/model"
	"github.com/okian/signingday/internal/simulate"
	"github.com/okian/signingday/pkg/logger"
)

const filePermission = 0o600

type generateOptions struct {
	Out      string
	Teams    int
	Recruits int
	Coaches  int
	Seed     uint64
}

func newGenerateCommand(_ *rootOptions) *cobra.Command {
	opts := &generateOptions{}
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Write a fresh recruiting class as a save-state",
		Long: `Generate teams with empty rosters and an available pool of recruits
and coaches. The first team is human-managed; the others are AI opponents.
The grant pool comes from configuration.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runGenerate(cmd, opts)
		},
	}
	cmd.Flags().StringVarP(&opts.Out, "out", "o", "", "output file (.json, .yaml)")
	cmd.Flags().IntVar(&opts.Teams, "teams", 4, "number of teams")
	cmd.Flags().IntVar(&opts.Recruits, "recruits", 60, "number of recruits")
	cmd.Flags().IntVar(&opts.Coaches, "coaches", 6, "number of coaches")
	cmd.Flags().Uint64Var(&opts.Seed, "seed", 1, "generator seed")
	_ = cmd.MarkFlagRequired("out")
	return cmd
}

func runGenerate(cmd *cobra.Command, opts *generateOptions) error {
	cfg, err := config.Load(cmd.Context())
	if err != nil {
		return err
	}
	st, err := simulate.GenerateClass(simulate.ClassConfig{
		Teams:    opts.Teams,
		Recruits: opts.Recruits,
		Coaches:  opts.Coaches,
		Seed:     opts.Seed,
		Pool: model.GrantPool{
			TotalGrantUnits: cfg.TotalGrantUnits,
			RosterSizeMin:   cfg.RosterSizeMin,
			RosterSizeMax:   cfg.RosterSizeMax,
		},
	})
	if err != nil {
		return err
	}
	data, err := savestate.NewCodec().Marshal(st, savestate.FormatFromPath(opts.Out))
	if err != nil {
		return err
	}
	if err := os.WriteFile(opts.Out, data, filePermission); err != nil {
		return fmt.Errorf("write %s: %w", opts.Out, err)
	}
	_, _ = green.Fprintf(cmd.OutOrStdout(), "wrote %d teams and %d recruits to %s\n", len(st.Teams), len(st.Market.Recruits), opts.Out)
	return nil
}

type simulateOptions struct {
	URL     string
	TeamID  string
	Offers  int
	Share   float64
	Workers int
	Timeout time.Duration
}

func newSimulateCommand(_ *rootOptions) *cobra.Command {
	opts := &simulateOptions{}
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Race concurrent signings against a running service",
		Long: `Offer the same share to the top prospects concurrently, accept every
offer, then check that the team's ledger stayed within its grant pool and
that a consistency pass finds nothing to repair.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := logger.Init(); err != nil {
				return err
			}
			stats, err := simulate.Run(cmd.Context(), simulate.Config{
				BaseURL: opts.URL,
				TeamID:  opts.TeamID,
				Offers:  opts.Offers,
				Share:   opts.Share,
				Workers: opts.Workers,
				Timeout: opts.Timeout,
			})
			if stats != nil {
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "offered %d: signed %d, over capacity %d, conflicts %d, gone %d, failed %d\n",
					stats.Offered, stats.Signed, stats.Insufficient, stats.Conflicts, stats.Gone, stats.Failed)
				fmt.Fprintf(out, "ledger %.2f / %.2f used in %s\n", stats.UsedShare, stats.TotalShare, stats.Duration.Round(time.Millisecond))
			}
			if err != nil {
				_, _ = red.Fprintln(cmd.ErrOrStderr(), err)
				return err
			}
			_, _ = green.Fprintln(cmd.OutOrStdout(), "ledger verified")
			return nil
		},
	}
	cmd.Flags().StringVar(&opts.URL, "url", "http://localhost:9080", "base URL of the service")
	cmd.Flags().StringVar(&opts.TeamID, "team", "team-1", "team making the offers")
	cmd.Flags().IntVar(&opts.Offers, "offers", 20, "number of prospects to pursue")
	cmd.Flags().Float64Var(&opts.Share, "share", 0.5, "scholarship share per offer")
	cmd.Flags().IntVar(&opts.Workers, "workers", 8, "number of concurrent workers")
	cmd.Flags().DurationVar(&opts.Timeout, "timeout", 10*time.Second, "HTTP request timeout")
	return cmd
}
