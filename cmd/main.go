package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// rootOptions holds global flags for all commands.
type rootOptions struct {
	ConfigPath string
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// newRootCommand creates the signingday command tree. Without a subcommand
// it serves the API.
func newRootCommand() *cobra.Command {
	opts := &rootOptions{}
	serve := newServeCommand(opts)

	cmd := &cobra.Command{
		Use:           "signingday",
		Short:         "Scholarship ledger and recruiting negotiations",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			if opts.ConfigPath != "" {
				return os.Setenv("SIGNINGDAY_CONFIG", opts.ConfigPath)
			}
			return nil
		},
		RunE: serve.RunE,
	}
	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "YAML config file (overrides SIGNINGDAY_CONFIG)")
	cmd.Flags().AddFlagSet(serve.Flags())

	cmd.AddCommand(serve)
	cmd.AddCommand(newInspectCommand(opts))
	cmd.AddCommand(newGenerateCommand(opts))
	cmd.AddCommand(newSimulateCommand(opts))
	return cmd
}
