// Command switchrecon reconciles mutual fund switch transactions against
// distributor rate categories, payouts and commission sheets.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"switchrecon/internal/config"
	apperrors "switchrecon/internal/errors"
	"switchrecon/internal/infrastructure"
	"switchrecon/pkg/contracts"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// cli carries what PersistentPreRunE resolved for the subcommands
type cli struct {
	cfg    *config.Config
	logger *slog.Logger
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	root := &cobra.Command{
		Use:   config.AppName,
		Short: "Switch transaction reconciliation",
		Long: `switchrecon joins a switch transaction export with distributor rate
categories, payout summaries and brokerage commission sheets, looks up the
trail rate of every switched fund and flags suspicious switches.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if path, _ := cmd.Flags().GetString("config"); path != "" {
				if err := os.Setenv(config.EnvPrefix+"_CONFIG", path); err != nil {
					return err
				}
			}
			cfg, err := config.Load()
			if err != nil {
				return apperrors.NewConfigError("failed to load config", err)
			}
			if level, _ := cmd.Flags().GetString("log-level"); level != "" {
				cfg.Logging.Level = level
			}
			c.cfg = cfg

			// Logs go to stderr; stdout is reserved for command output
			c.logger, err = infrastructure.InitializeLoggerTo(cfg.Logging, cmd.ErrOrStderr())
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = infrastructure.CloseLogFile()
		},
	}

	root.PersistentFlags().String("config", "", "config file path (default: ./switchrecon.yaml)")
	root.PersistentFlags().String("log-level", "", "log level override (debug, info, warn, error)")

	root.AddCommand(newRunCmd(c), newServeCmd(c), newVersionCmd())
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Long:  "Print version information. Build metadata is set with -ldflags -X switchrecon/pkg/contracts.GitCommit=...",
		// Version needs no config or logger
		PersistentPreRun: func(cmd *cobra.Command, args []string) {},
		Run: func(cmd *cobra.Command, args []string) {
			printVersion(cmd.OutOrStdout())
		},
	}
}

func printVersion(w io.Writer) {
	fmt.Fprintln(w, contracts.GetFullVersionString())
}
