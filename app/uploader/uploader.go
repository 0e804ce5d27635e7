package uploader

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bookwell/bookbridge/app/database"
	"github.com/bookwell/bookbridge/app/feed"
	"github.com/bookwell/bookbridge/app/retry"
)

// Report summarizes one catalog upload.
type Report struct {
	Total         int
	Upserted      int
	FailedBatches int
	FailureFile   string
}

// Uploader synchronizes the catalog table schema with the merged column
// set and performs the batched, idempotent upsert. A batch that exhausts
// its retries is sidelined to a JSON artifact instead of aborting the run.
type Uploader struct {
	store      database.CatalogStore
	policy     retry.Policy
	batchSize  int
	failureDir string
}

func NewUploader(store database.CatalogStore, policy retry.Policy, batchSize int, failureDir string) *Uploader {
	return &Uploader{
		store:      store,
		policy:     policy,
		batchSize:  batchSize,
		failureDir: failureDir,
	}
}

// EnsureSchema creates the catalog table when absent, or adds any missing
// columns. Alterations are additive only.
func (u *Uploader) EnsureSchema(ctx context.Context, columns []string) error {
	exists, err := u.store.TableExists(ctx)
	if err != nil {
		return fmt.Errorf("failed to check catalog table: %w", err)
	}

	if !exists {
		slog.Info("Creating catalog table", "columns", len(columns))
		if err := u.store.CreateTable(ctx, columns); err != nil {
			return fmt.Errorf("failed to create catalog table: %w", err)
		}
		return nil
	}

	existing, err := u.store.GetColumns(ctx)
	if err != nil {
		return fmt.Errorf("failed to read catalog columns: %w", err)
	}

	present := make(map[string]bool, len(existing))
	for _, column := range existing {
		present[column] = true
	}

	for _, column := range columns {
		sanitized := database.SanitizeColumn(column)
		if present[sanitized] {
			continue
		}
		slog.Info("Adding catalog column", "column", sanitized)
		if err := u.store.AddColumn(ctx, sanitized); err != nil {
			return fmt.Errorf("failed to add column %s: %w", sanitized, err)
		}
		present[sanitized] = true
	}

	return nil
}

// Run ensures the schema and upserts all rows in batches. Batch failures
// are isolated; later batches still run in input order.
func (u *Uploader) Run(ctx context.Context, columns []string, rows []map[string]string) (*Report, error) {
	report := &Report{Total: len(rows)}

	if len(rows) == 0 {
		return report, nil
	}

	if err := u.EnsureSchema(ctx, columns); err != nil {
		return nil, err
	}

	var failed [][]map[string]string

	batchNum := 0
	for start := 0; start < len(rows); start += u.batchSize {
		end := start + u.batchSize
		if end > len(rows) {
			end = len(rows)
		}
		batch := rows[start:end]
		batchNum++

		err := u.policy.Do(ctx, func() error {
			if err := u.store.UpsertBatch(ctx, columns, batch); err != nil {
				return retry.Transient(err)
			}
			return nil
		})
		if err != nil {
			slog.Error("Batch failed after retries", "batch", batchNum, "size", len(batch), "error", err)
			failed = append(failed, batch)
			continue
		}

		report.Upserted += len(batch)
		slog.Info("Batch upserted", "batch", batchNum, "progress", fmt.Sprintf("%d/%d", report.Upserted, report.Total))
	}

	report.FailedBatches = len(failed)
	if len(failed) > 0 {
		path, err := writeFailures(u.failureDir, failed)
		if err != nil {
			slog.Error("Failed to persist failed batches", "error", err)
		} else {
			report.FailureFile = path
			slog.Error("Failed batches sidelined for reprocessing", "count", len(failed), "file", path)
		}
	}

	slog.Info("Upload completed",
		"upserted", report.Upserted,
		"total", report.Total,
		"failed_batches", report.FailedBatches)

	return report, nil
}

// BuildRows converts merged records into upsert rows keyed by sanitized
// column names, and returns the sanitized column list alongside.
func BuildRows(records []feed.MergedRecord, columns []string) ([]string, []map[string]string) {
	sanitized := make([]string, 0, len(columns))
	seen := make(map[string]bool, len(columns))
	for _, column := range columns {
		s := database.SanitizeColumn(column)
		if seen[s] {
			continue
		}
		seen[s] = true
		sanitized = append(sanitized, s)
	}

	rows := make([]map[string]string, 0, len(records))
	for _, record := range records {
		row := make(map[string]string, len(sanitized))
		for _, column := range columns {
			row[database.SanitizeColumn(column)] = record.Fields[column]
		}
		rows = append(rows, row)
	}

	return sanitized, rows
}
