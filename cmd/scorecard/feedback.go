package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/oakmont-ai/scorecard/internal/cli"
)

func feedbackCmd() *cobra.Command {
	var outcome int

	cmd := &cobra.Command{
		Use:   "feedback <record-id>",
		Short: "Attach an actual outcome to a scored prediction",
		Long: `Record whether a scored application actually defaulted (1) or was
repaid (0). Feedback drives the retraining cycle; re-attaching feedback
overwrites the prior outcome.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, cleanup, err := newApp(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer cleanup()

			if err := app.storage.AttachFeedback(cmd.Context(), args[0], outcome); err != nil {
				return err
			}

			fmt.Println(cli.SuccessStyle.Render(fmt.Sprintf(
				"Recorded outcome %d for prediction %s", outcome, args[0])))
			return nil
		},
	}

	cmd.Flags().IntVar(&outcome, "outcome", 0, "actual outcome: 1 = defaulted, 0 = repaid")
	_ = cmd.MarkFlagRequired("outcome")

	return cmd
}
