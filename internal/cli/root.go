package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const version = "1.0.0"

// RootConfig carries the persistent flag values shared by every command.
// Empty strings mean the flag was not given; the config loader's own
// precedence (env over file over defaults) then decides.
type RootConfig struct {
	ConfigPath string
	DBPath     string
	LogLevel   string
	LogFormat  string
}

func NewRootCmd() *cobra.Command {
	rc := &RootConfig{}

	cmd := &cobra.Command{
		Use:           "tradeledger",
		Short:         "Durable ledger of closed trades with audited amendments",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global / persistent flags
	cmd.PersistentFlags().StringVar(&rc.ConfigPath, "config", "", "Path to YAML config file (optional)")
	cmd.PersistentFlags().StringVar(&rc.DBPath, "db", "", "SQLite ledger database (default ./data/tradeledger.db)")
	cmd.PersistentFlags().StringVar(&rc.LogLevel, "log-level", "", "Log level: debug|info|warn|error")
	cmd.PersistentFlags().StringVar(&rc.LogFormat, "log-format", "", "Log format: text|json")

	// Subcommands
	cmd.AddCommand(
		newRecordCmd(rc),
		newAmendCmd(rc),
		newShowCmd(rc),
		newListCmd(rc),
		newReportCmd(rc),
		newImportCmd(rc),
		newMigrateCmd(rc),
	)

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("tradeledger " + version)
		},
	})

	return cmd
}

// Execute runs the root command and exits non-zero on error.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
