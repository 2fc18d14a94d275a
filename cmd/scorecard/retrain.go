package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/oakmont-ai/scorecard/internal/cli"
)

func retrainCmd() *cobra.Command {
	var (
		checkOnly        bool
		referenceCSV     string
		minSamples       int
		minFeedbackRatio float64
		testFraction     float64
	)

	cmd := &cobra.Command{
		Use:   "retrain",
		Short: "Retrain the model from accumulated outcome feedback",
		Long: `Run one retraining cycle: check the readiness gate, re-derive the
feature matrix from feedback-labeled records, fit and evaluate a fresh
model, and append a new version to the artifact manifest. The live
bundle is never touched; promote the new version with a reload.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, cleanup, err := newApp(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer cleanup()

			retrainer := app.retrainer()

			// Config supplies the thresholds; flags override when set.
			opts := retrainDefaults()
			if cmd.Flags().Changed("min-samples") {
				opts.MinSamples = minSamples
			}
			if cmd.Flags().Changed("min-feedback-ratio") {
				opts.MinFeedbackRatio = minFeedbackRatio
			}
			if cmd.Flags().Changed("test-fraction") {
				opts.TestFraction = testFraction
			}

			if checkOnly {
				readiness, err := retrainer.Readiness(cmd.Context(), opts.MinSamples, opts.MinFeedbackRatio)
				if err != nil {
					return err
				}
				printReadiness(readiness.Ready, readiness.TotalRecords, readiness.FeedbackCount,
					readiness.SamplesNeeded, readiness.FeedbackNeeded)
				return nil
			}

			opts.ReferenceCSV = referenceCSV
			opts.ShowProgress = true
			result, err := retrainer.Run(cmd.Context(), opts)
			if err != nil {
				return err
			}

			if result.Status != "success" {
				printReadiness(false, result.Readiness.TotalRecords, result.Readiness.FeedbackCount,
					result.Readiness.SamplesNeeded, result.Readiness.FeedbackNeeded)
				return nil
			}

			m := result.Metrics
			fmt.Println(cli.SuccessStyle.Render("Retraining complete: " + result.Version))
			fmt.Printf("  accuracy=%.3f precision=%.3f recall=%.3f f1=%.3f auc=%.3f\n",
				m.Accuracy, m.Precision, m.Recall, m.F1, m.AUC)
			fmt.Printf("  %d features, %d train / %d test samples\n",
				result.FeatureCount, m.TrainSamples, m.TestSamples)
			fmt.Println(cli.SubtleStyle.Render("Run a reload (or restart) to promote the new version."))
			return nil
		},
	}

	cmd.Flags().BoolVar(&checkOnly, "check", false, "only report retraining readiness")
	cmd.Flags().IntVar(&minSamples, "min-samples", 100, "minimum total record count")
	cmd.Flags().Float64Var(&minFeedbackRatio, "min-feedback-ratio", 0.1, "minimum share of records with feedback")
	cmd.Flags().Float64Var(&testFraction, "test-fraction", 0.2, "held-out evaluation fraction")
	cmd.Flags().StringVar(&referenceCSV, "reference", "", "reference corpus CSV to union with feedback records")

	return cmd
}

func printReadiness(ready bool, total, feedback, samplesNeeded, feedbackNeeded int) {
	if ready {
		fmt.Println(cli.SuccessStyle.Render("Ready to retrain"))
	} else {
		fmt.Println(cli.WarningStyle.Render("Not ready to retrain"))
	}
	fmt.Printf("  %d records, %d with feedback\n", total, feedback)
	if samplesNeeded > 0 {
		fmt.Printf("  need %d more records\n", samplesNeeded)
	}
	if feedbackNeeded > 0 {
		fmt.Printf("  need %d more feedback entries\n", feedbackNeeded)
	}
}
