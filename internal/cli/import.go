package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"tradeledger/internal/adapters/binancefeed"
	"tradeledger/internal/app"
)

func newImportCmd(rc *RootConfig) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Replay a raw event capture into the ledger",
		Long: `Import reads newline-delimited JSON payloads, one exchange event per line,
archives each payload and records the closes they describe. Pass '-' to
read from stdin. Replaying the same capture again is safe: closes that
are already recorded count as duplicates and change nothing.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime(rc)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			defer rt.close(ctx)

			var in io.Reader = os.Stdin
			if args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return fmt.Errorf("failed to open capture: %w", err)
				}
				defer f.Close()
				in = f
			}

			importer, err := app.NewEventImporter(rt.logger, rt.ledger, rt.repo, rt.repo, binancefeed.NewDecoder(rt.logger))
			if err != nil {
				return err
			}
			stats, err := importer.ImportJSONL(ctx, in)
			if stats != nil {
				fmt.Printf("Events: %d  Closes: %d  Duplicates: %d  Position updates: %d  Skipped: %d  Malformed: %d\n",
					stats.Events, stats.Closes, stats.Duplicates, stats.PositionUpdates, stats.Skipped, stats.Malformed)
			}
			return err
		},
	}
	return cmd
}
