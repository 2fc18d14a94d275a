package main

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/oakmont-ai/scorecard/internal/cli"
	"github.com/oakmont-ai/scorecard/internal/dataset"
	"github.com/oakmont-ai/scorecard/internal/engine"
	"github.com/oakmont-ai/scorecard/internal/model"
)

func scoreCmd() *cobra.Command {
	var (
		inputPath string
		csvPath   string
		fields    []string
		asJSON    bool
	)

	cmd := &cobra.Command{
		Use:   "score",
		Short: "Score loan applications for default risk",
		Long: `Score one application from a JSON file or --field flags, or a batch
of applications from a CSV file. Partial input is accepted; missing
fields are imputed and the trace is included in the output.`,
		Example: `  scorecard score --field person_income=80000 --field loan_amnt=20000
  scorecard score --input application.json
  scorecard score --csv applications.csv --json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, cleanup, err := newApp(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer cleanup()

			if csvPath != "" {
				return runScoreBatch(cmd, app, csvPath, asJSON)
			}

			application, err := buildApplication(inputPath, fields)
			if err != nil {
				return err
			}

			result, err := app.engine.ScoreApplication(cmd.Context(), application)
			if err != nil {
				return err
			}

			if asJSON {
				return printJSON(result)
			}
			printResult(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&inputPath, "input", "", "JSON file with application fields")
	cmd.Flags().StringVar(&csvPath, "csv", "", "CSV file with one application per row")
	cmd.Flags().StringArrayVar(&fields, "field", nil, "application field as name=value (repeatable)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "emit raw JSON output")

	return cmd
}

func runScoreBatch(cmd *cobra.Command, app *app, csvPath string, asJSON bool) error {
	records, err := dataset.ReadCSVFile(csvPath, "")
	if err != nil {
		return err
	}

	apps := make([]model.Application, len(records))
	for i := range records {
		application := model.Application{}
		for field, val := range records[i].Features.Numeric {
			application[field] = val
		}
		for field, val := range records[i].Features.Categorical {
			application[field] = val
		}
		apps[i] = application
	}

	items := app.engine.ScoreBatch(cmd.Context(), apps)
	if asJSON {
		return printJSON(items)
	}

	for i, item := range items {
		if item.Error != "" {
			fmt.Printf("%3d  %s\n", i+1, cli.ErrorStyle.Render("error: "+item.Error))
			continue
		}
		fmt.Printf("%3d  %s  %6.2f%%  decision=%d\n",
			i+1, cli.RenderRisk(item.Result.Category), item.Result.ProbabilityPercent, item.Result.Decision)
	}
	return nil
}

func buildApplication(inputPath string, fields []string) (model.Application, error) {
	application := model.Application{}

	if inputPath != "" {
		data, err := os.ReadFile(inputPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", inputPath, err)
		}
		if err := json.Unmarshal(data, &application); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", inputPath, err)
		}
	}

	for _, f := range fields {
		name, value, found := strings.Cut(f, "=")
		if !found {
			return nil, fmt.Errorf("invalid --field %q, want name=value", f)
		}
		application[strings.TrimSpace(name)] = strings.TrimSpace(value)
	}

	return application, nil
}

func printResult(result *engine.ScoreResult) {
	fmt.Println(cli.TitleStyle.Render("Credit Risk Assessment"))
	fmt.Printf("Risk category: %s\n", cli.RenderRisk(result.Category))
	fmt.Printf("Default probability: %.2f%%\n", result.ProbabilityPercent)
	fmt.Printf("Decision: %d\n", result.Decision)
	fmt.Printf("Model version: %s\n", result.ModelVersion)
	fmt.Printf("Record ID: %s\n", result.RecordID)

	if len(result.ImputationTrace) > 0 {
		fmt.Println(cli.SubtleStyle.Render("\nImputed fields:"))
		for _, entry := range result.ImputationTrace {
			fmt.Println(cli.SubtleStyle.Render("  " + entry))
		}
	}

	for _, w := range result.ValidationWarnings {
		fmt.Println(cli.WarningStyle.Render("warning: " + w))
	}
	for _, w := range result.DriftWarnings {
		fmt.Println(cli.WarningStyle.Render("drift: " + w.Message))
	}

	if len(result.Attribution) > 0 {
		fmt.Println("\nTop factors:")
		type factor struct {
			name  string
			value float64
		}
		factors := make([]factor, 0, len(result.Attribution))
		for name, value := range result.Attribution {
			factors = append(factors, factor{name, value})
		}
		sort.Slice(factors, func(a, b int) bool {
			av, bv := factors[a].value, factors[b].value
			if av < 0 {
				av = -av
			}
			if bv < 0 {
				bv = -bv
			}
			return av > bv
		})
		if len(factors) > 5 {
			factors = factors[:5]
		}
		for _, f := range factors {
			fmt.Printf("  %-40s %+.4f\n", f.name, f.value)
		}
	}

	if result.Explanation != "" {
		fmt.Printf("\n%s\n", result.Explanation)
	}
}

func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}
