// Package dataset reads and writes tabular prediction records as CSV for
// bulk import, reference corpora and training-data export.
package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/oakmont-ai/scorecard/internal/model"
)

// outcomeCandidates are the column names recognized as the outcome label
// when none is named explicitly, in preference order.
var outcomeCandidates = []string{"loan_status", "loan_status_num", "default", "target", "label", "outcome"}

// ReadCSV parses tabular records. outcomeColumn may be empty, in which
// case it is auto-detected from the header. Unknown columns are accepted
// and become part of the dynamic schema: numeric-looking values land in
// the numeric map, everything else becomes an upper-cased categorical.
func ReadCSV(r io.Reader, outcomeColumn string) ([]model.PredictionRecord, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	outcomeIdx := -1
	if outcomeColumn != "" {
		for i, name := range header {
			if strings.EqualFold(name, outcomeColumn) {
				outcomeIdx = i
				break
			}
		}
		if outcomeIdx == -1 {
			return nil, fmt.Errorf("outcome column %q not found in header", outcomeColumn)
		}
	} else {
		for _, candidate := range outcomeCandidates {
			for i, name := range header {
				if strings.EqualFold(name, candidate) {
					outcomeIdx = i
					break
				}
			}
			if outcomeIdx != -1 {
				break
			}
		}
	}

	var records []model.PredictionRecord
	now := time.Now().UTC()
	line := 1

	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV line %d: %w", line, err)
		}

		record := model.PredictionRecord{
			ID:        uuid.NewString(),
			CreatedAt: now,
			Features:  model.NewFeatureVector(),
		}

		for i, raw := range row {
			if i >= len(header) {
				break
			}
			raw = strings.TrimSpace(raw)
			if raw == "" {
				continue
			}

			if i == outcomeIdx {
				outcome, err := parseOutcome(raw)
				if err != nil {
					return nil, fmt.Errorf("line %d: %w", line, err)
				}
				record.ActualOutcome = &outcome
				record.FeedbackAt = &now
				continue
			}

			if val, err := strconv.ParseFloat(raw, 64); err == nil {
				record.Features.Numeric[header[i]] = val
				continue
			}
			record.Features.Categorical[header[i]] = strings.ToUpper(raw)
		}

		records = append(records, record)
	}

	return records, nil
}

// ReadCSVFile is ReadCSV over a file path.
func ReadCSVFile(path, outcomeColumn string) ([]model.PredictionRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()
	return ReadCSV(f, outcomeColumn)
}

// WriteCSV exports labeled records as a training-data table: the union
// of numeric and categorical fields as columns, plus a loan_status
// outcome column. Records without an outcome are skipped.
func WriteCSV(w io.Writer, records []model.PredictionRecord) error {
	numSet := make(map[string]bool)
	catSet := make(map[string]bool)
	for i := range records {
		if records[i].ActualOutcome == nil {
			continue
		}
		for field := range records[i].Features.Numeric {
			numSet[field] = true
		}
		for field := range records[i].Features.Categorical {
			catSet[field] = true
		}
	}

	numeric := sortedKeys(numSet)
	categorical := sortedKeys(catSet)

	header := make([]string, 0, len(numeric)+len(categorical)+1)
	header = append(header, numeric...)
	header = append(header, categorical...)
	header = append(header, "loan_status")

	writer := csv.NewWriter(w)
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for i := range records {
		if records[i].ActualOutcome == nil {
			continue
		}
		row := make([]string, 0, len(header))
		for _, field := range numeric {
			if val, ok := records[i].Features.Numeric[field]; ok {
				row = append(row, strconv.FormatFloat(val, 'g', -1, 64))
			} else {
				row = append(row, "")
			}
		}
		for _, field := range categorical {
			row = append(row, records[i].Features.Categorical[field])
		}
		row = append(row, strconv.Itoa(*records[i].ActualOutcome))
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	writer.Flush()
	return writer.Error()
}

// WriteCSVFile is WriteCSV to a file path.
func WriteCSVFile(path string, records []model.PredictionRecord) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := WriteCSV(f, records); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func parseOutcome(raw string) (int, error) {
	switch strings.ToUpper(raw) {
	case "1", "Y", "YES", "TRUE", "DEFAULT":
		return 1, nil
	case "0", "N", "NO", "FALSE":
		return 0, nil
	}
	if val, err := strconv.ParseFloat(raw, 64); err == nil {
		if val == 1 {
			return 1, nil
		}
		if val == 0 {
			return 0, nil
		}
	}
	return 0, fmt.Errorf("unrecognized outcome value %q", raw)
}

func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
