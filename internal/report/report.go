// Package report serializes a graded batch into the two run artifacts: a
// CSV table and a paginated plain-text report.
package report

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/jonathan/rubric-grader/internal/grading"
)

// Artifact filenames inside a session results directory.
const (
	CSVName  = "grading_report.csv"
	TextName = "grading_reports.txt"
)

// csvHeader is the fixed first line of the tabular artifact.
const csvHeader = "identifier,total_score,comments"

// WriteCSV writes the tabular report: the fixed header, then one data line
// per result in batch order. Failures render as an empty score with the
// error message, commas replaced so the row stays three fields.
func WriteCSV(w io.Writer, batch []grading.GradedResult) error {
	lines := make([]string, 0, len(batch)+1)
	lines = append(lines, csvHeader)
	for _, r := range batch {
		if r.Failed() {
			msg := strings.ReplaceAll(r.Err, ",", ";")
			lines = append(lines, fmt.Sprintf("%s,,Error: %s", r.Name, msg))
			continue
		}
		lines = append(lines, fmt.Sprintf("%s,%d,%s", r.Name, r.Score, r.Comment))
	}
	_, err := io.WriteString(w, strings.Join(lines, "\n")+"\n")
	return err
}

// WriteText writes the paginated report: one page per result, labeled with
// its 1-based sequence number and identifier, separated by form feeds.
func WriteText(w io.Writer, batch []grading.GradedResult) error {
	for i, r := range batch {
		body := r.Feedback
		if r.Failed() {
			body = fmt.Sprintf("Error grading %s: %s", r.Name, r.Err)
		}
		page := fmt.Sprintf("Grading Report %d - %s\n\n%s\n", i+1, r.Name, body)
		if i > 0 {
			page = "\f" + page
		}
		if _, err := io.WriteString(w, page); err != nil {
			return err
		}
	}
	return nil
}

// WriteReports writes both artifacts into dir and returns their paths.
func WriteReports(dir string, batch []grading.GradedResult) (csvPath, textPath string, err error) {
	csvPath = filepath.Join(dir, CSVName)
	if err = writeFile(csvPath, func(w io.Writer) error { return WriteCSV(w, batch) }); err != nil {
		return "", "", fmt.Errorf("failed to write CSV report: %w", err)
	}

	textPath = filepath.Join(dir, TextName)
	if err = writeFile(textPath, func(w io.Writer) error { return WriteText(w, batch) }); err != nil {
		return "", "", fmt.Errorf("failed to write text report: %w", err)
	}

	return csvPath, textPath, nil
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
