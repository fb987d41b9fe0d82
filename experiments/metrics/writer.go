package metrics

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Writer dumps voyage and step records as CSV files under a timestamped
// subfolder, one run per folder.
type Writer struct {
	baseDir string
}

func NewWriter(resultsDir string) (*Writer, error) {
	timestamp := time.Now().UTC().Format(time.RFC3339)
	baseDir := filepath.Join(resultsDir, timestamp)
	err := os.MkdirAll(baseDir, 0755)
	if err != nil {
		return nil, fmt.Errorf("failed to create results directory: %w", err)
	}

	return &Writer{baseDir: baseDir}, nil
}

// Dir returns the folder this writer creates files in.
func (w *Writer) Dir() string {
	return w.baseDir
}

func (w *Writer) WriteVoyage(record VoyageMetric) error {
	path := filepath.Join(w.baseDir, "voyage.csv")
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create voyage file: %w", err)
	}
	defer f.Close()

	writer := csv.NewWriter(f)
	defer writer.Flush()

	header := []string{"session", "start_time", "end_time", "duration", "steps", "simulated_hours", "distance_nm", "reached_goal"}
	err = writer.Write(header)
	if err != nil {
		return fmt.Errorf("failed to write voyage header: %w", err)
	}

	row := []string{
		record.Session,
		record.StartTime.Format(time.RFC3339),
		record.EndTime.Format(time.RFC3339),
		record.Duration.String(),
		strconv.Itoa(record.Steps),
		strconv.FormatFloat(record.SimulatedHours, 'f', 2, 64),
		strconv.FormatFloat(record.Distance, 'f', 2, 64),
		strconv.FormatBool(record.ReachedGoal),
	}
	err = writer.Write(row)
	if err != nil {
		return fmt.Errorf("failed to write voyage row: %w", err)
	}

	return nil
}

func (w *Writer) WriteSteps(records []StepMetric) error {
	path := filepath.Join(w.baseDir, "steps.csv")
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create steps file: %w", err)
	}
	defer f.Close()

	writer := csv.NewWriter(f)
	defer writer.Flush()

	header := []string{"step", "scenarios", "dropped", "iterations", "heading", "duration", "tree_reused"}
	err = writer.Write(header)
	if err != nil {
		return fmt.Errorf("failed to write steps header: %w", err)
	}

	for _, record := range records {
		row := []string{
			strconv.Itoa(record.Step),
			strconv.Itoa(record.Scenarios),
			strconv.Itoa(record.Dropped),
			strconv.Itoa(record.Iterations),
			strconv.FormatFloat(record.Heading, 'f', 1, 64),
			record.Duration.String(),
			strconv.FormatBool(record.TreeReused),
		}
		err = writer.Write(row)
		if err != nil {
			return fmt.Errorf("failed to write step row: %w", err)
		}
	}

	return nil
}
