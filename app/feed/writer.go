package feed

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/bookwell/bookbridge/app/enrich"
)

// Writer produces the timestamped matched/unmatched CSV artifacts. Column
// order is sorted for determinism and every row is written with every
// column present, empty string for absent values.
type Writer struct {
	outputDir string
}

func NewWriter(outputDir string) *Writer {
	return &Writer{outputDir: outputDir}
}

// Run writes both partitions and returns the paths of the files written.
// A partition with no records produces no file and an empty path.
func (w *Writer) Run(matched, unmatched []MergedRecord, feedColumns map[string]bool) (matchedPath, unmatchedPath string, err error) {
	if err := os.MkdirAll(w.outputDir, 0755); err != nil {
		return "", "", fmt.Errorf("failed to create output directory: %w", err)
	}

	timestamp := time.Now().Format("20060102_150405")

	if len(matched) > 0 {
		matchedPath = filepath.Join(w.outputDir, fmt.Sprintf("matched_%s.csv", timestamp))
		if err := w.writeFile(matchedPath, MatchedColumns(feedColumns, matched), matched); err != nil {
			return "", "", err
		}
	}

	if len(unmatched) > 0 {
		unmatchedPath = filepath.Join(w.outputDir, fmt.Sprintf("unmatched_%s.csv", timestamp))
		if err := w.writeFile(unmatchedPath, UnmatchedColumns(feedColumns), unmatched); err != nil {
			return "", "", err
		}
	}

	slog.Info("Output artifacts written",
		"matched", matchedPath,
		"unmatched", unmatchedPath)

	return matchedPath, unmatchedPath, nil
}

func (w *Writer) writeFile(path string, columns []string, records []MergedRecord) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer f.Close()

	writer := csv.NewWriter(f)
	defer writer.Flush()

	if err := writer.Write(columns); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	row := make([]string, len(columns))
	for _, record := range records {
		for i, column := range columns {
			row[i] = record.Fields[column]
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("failed to flush output file: %w", err)
	}

	return nil
}

// MatchedColumns returns the sorted union of observed feed columns, the
// fixed enrichment field set, and any extra fields attached to records
// after the merge (such as the computed price).
func MatchedColumns(feedColumns map[string]bool, records []MergedRecord) []string {
	set := make(map[string]bool, len(feedColumns))
	for column := range feedColumns {
		set[column] = true
	}
	for _, column := range enrich.Fields() {
		set[column] = true
	}
	for _, record := range records {
		for column := range record.Fields {
			set[column] = true
		}
	}

	return sortedColumns(set)
}

// UnmatchedColumns returns the sorted observed feed columns.
func UnmatchedColumns(feedColumns map[string]bool) []string {
	return sortedColumns(feedColumns)
}

func sortedColumns(set map[string]bool) []string {
	columns := make([]string, 0, len(set))
	for column := range set {
		columns = append(columns, column)
	}
	sort.Strings(columns)
	return columns
}
