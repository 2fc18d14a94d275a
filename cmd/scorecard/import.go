package main

import (
	"fmt"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/oakmont-ai/scorecard/internal/cli"
	"github.com/oakmont-ai/scorecard/internal/dataset"
)

func importCmd() *cobra.Command {
	var (
		outcomeColumn string
		batchSize     int
	)

	cmd := &cobra.Command{
		Use:   "import <file.csv>",
		Short: "Bulk import labeled historical records",
		Long: `Import tabular records into the prediction store. The outcome column
is auto-detected (loan_status, default, target, label, outcome) unless
named explicitly. Unknown columns are accepted and become part of the
dynamic schema. Records are committed in batches; a failed batch rolls
back fully while earlier batches stay intact.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, cleanup, err := newApp(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer cleanup()

			bar := progressbar.Default(-1, "reading "+args[0])
			records, err := dataset.ReadCSVFile(args[0], outcomeColumn)
			_ = bar.Finish()
			if err != nil {
				return err
			}
			if len(records) == 0 {
				fmt.Println(cli.WarningStyle.Render("No records found in input"))
				return nil
			}

			stats, err := app.storage.BulkImport(cmd.Context(), records, batchSize)
			if err != nil {
				if stats.Imported > 0 {
					fmt.Println(cli.WarningStyle.Render(fmt.Sprintf(
						"Partial import: %d records in %d batches committed before failure",
						stats.Imported, stats.Batches)))
				}
				return err
			}

			fmt.Println(cli.SuccessStyle.Render(fmt.Sprintf(
				"Imported %d records (%d with outcomes) in %d batches",
				stats.Imported, stats.WithOutcomes, stats.Batches)))
			if len(stats.NewColumns) > 0 {
				fmt.Printf("Registered new schema columns: %v\n", stats.NewColumns)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&outcomeColumn, "outcome-column", "", "name of the outcome column (auto-detected if empty)")
	cmd.Flags().IntVar(&batchSize, "batch-size", 200, "records per transaction batch")

	return cmd
}
