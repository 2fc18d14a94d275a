package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/oakmont-ai/scorecard/internal/cli"
)

func exportCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export feedback-labeled records as a training-data CSV",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, cleanup, err := newApp(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer cleanup()

			if output == "" {
				output = fmt.Sprintf("training_data_%s.csv", time.Now().Format("20060102_150405"))
			}

			n, err := app.retrainer().ExportTrainingData(cmd.Context(), output)
			if err != nil {
				return err
			}

			fmt.Println(cli.SuccessStyle.Render(fmt.Sprintf("Exported %d labeled records to %s", n, output)))
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file path")
	return cmd
}
