// Package commands implements the marketdev subcommands.
package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/steven3002/datamarket-go/internal/devcli"
)

// Version is set at build time.
var Version = "0.1.0"

// NewRootCmd creates the marketdev command tree.
func NewRootCmd() *cobra.Command {
	var cfgFile string

	root := &cobra.Command{
		Use:   "marketdev",
		Short: "Developer CLI for the data marketplace API",
		Long: `marketdev browses the data marketplace catalogue, resolves filter
selections the way the marketplace UI does, and previews sample tables.

Settings come from defaults, ./marketdev.yaml (or --config), MARKET_*
environment variables and flags, in increasing priority.`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "__complete" {
				return nil
			}
			cfg, used, err := devcli.LoadConfig(cfgFile, cmd.Root().PersistentFlags())
			if err != nil {
				return err
			}
			log := devcli.NewLogger(cmd.ErrOrStderr(), cfg.Verbose)
			if used != "" {
				log.Debug("using config file", "path", used)
			}
			env := &devcli.Env{
				Config:  cfg,
				Logger:  log,
				Client:  devcli.NewClient(cfg, log),
				Printer: devcli.NewPrinter(cmd.OutOrStdout(), cfg.Output),
			}
			cmd.SetContext(devcli.WithEnv(cmd.Context(), env))
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default: ./marketdev.yaml)")
	pf.String("base-url", "", "API base URL including /api")
	pf.Duration("timeout", 0, "per-request timeout")
	pf.Int("retries", 0, "transport retries on 429/5xx")
	pf.Duration("backoff-init", 0, "initial transport backoff")
	pf.Duration("backoff-max", 0, "maximum transport backoff")
	pf.BoolP("verbose", "v", false, "debug logs, including requests")
	pf.StringP("output", "o", "", "output format (table|json)")
	pf.Duration("debounce", 0, "search debounce for explore")
	pf.Duration("preview-retry-delay", 0, "delay before the automatic preview retry")
	pf.Int("preview-max-retries", 0, "automatic preview retry budget (0 disables)")

	_ = root.RegisterFlagCompletionFunc("output", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return []string{devcli.OutputTable, devcli.OutputJSON}, cobra.ShellCompDirectiveNoFileComp
	})

	root.AddCommand(NewDatasetsCommand())
	root.AddCommand(NewBrowseCommand())
	root.AddCommand(NewExploreCommand())
	root.AddCommand(NewPreviewCommand())
	root.AddCommand(NewStatusCommand())
	return root
}

// Execute runs the root command and reports the error on stderr.
func Execute() error {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return err
	}
	return nil
}

func env(cmd *cobra.Command) *devcli.Env {
	return devcli.EnvFrom(cmd.Context())
}
