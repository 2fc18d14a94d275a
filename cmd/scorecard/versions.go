package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/oakmont-ai/scorecard/internal/cli"
)

func versionsCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "versions",
		Short: "List model versions from the artifact manifest",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, cleanup, err := newApp(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer cleanup()

			entries, err := app.versions.All()
			if err != nil {
				return err
			}
			if asJSON {
				return printJSON(entries)
			}
			if len(entries) == 0 {
				fmt.Println(cli.SubtleStyle.Render("No model versions yet; run an initial retrain."))
				return nil
			}

			for i, entry := range entries {
				marker := " "
				if i == len(entries)-1 {
					marker = "*" // current
				}
				fmt.Printf("%s %-22s %s  acc=%.3f auc=%.3f  %s\n",
					marker, entry.Version,
					entry.CreatedAt.Format("2006-01-02 15:04:05"),
					entry.Metrics.Accuracy, entry.Metrics.AUC,
					cli.SubtleStyle.Render(entry.Provenance))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "emit raw JSON output")
	return cmd
}
