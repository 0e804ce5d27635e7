package tasks

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bookwell/bookbridge/app/config"
	"github.com/bookwell/bookbridge/app/enrich"
	"github.com/bookwell/bookbridge/app/feed"
	"github.com/bookwell/bookbridge/app/pricing"
	"github.com/bookwell/bookbridge/app/retriever"
	"github.com/bookwell/bookbridge/app/uploader"
)

// SyncCatalogTask runs the full pipeline for one supplier profile:
// retrieve feed files, parse and filter rows, enrich identifiers, merge,
// price, write CSV artifacts and upsert matched rows into the catalog.
type SyncCatalogTask struct {
	Task
	Profile    *config.Profile
	retriever  *retriever.Retriever
	enricher   *enrich.Client
	merger     *feed.Merger
	writer     *feed.Writer
	calculator *pricing.Calculator
	uploader   *uploader.Uploader
}

func NewSyncCatalogTask(profile *config.Profile, ret *retriever.Retriever, enricher *enrich.Client,
	merger *feed.Merger, writer *feed.Writer, calculator *pricing.Calculator, up *uploader.Uploader) *SyncCatalogTask {
	return &SyncCatalogTask{
		Task:       NewTask(TaskTypeSyncCatalog, profile.Name),
		Profile:    profile,
		retriever:  ret,
		enricher:   enricher,
		merger:     merger,
		writer:     writer,
		calculator: calculator,
		uploader:   up,
	}
}

func (t *SyncCatalogTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if !t.Profile.Settings.Enabled {
		slog.Debug("Supplier disabled, skipping", "supplier", t.SupplierName)
		return nil
	}

	files, err := t.retriever.Run(t.Profile.Source.RemoteDir, t.Profile.Source.Extension)
	if err != nil {
		return fmt.Errorf("failed to retrieve feed files: %w", err)
	}
	if len(files) == 0 {
		slog.Info("No feed files to process", "supplier", t.SupplierName)
		return nil
	}

	parser := feed.NewParser(t.Profile.Settings.StockThreshold, t.Profile.Source.Encoding)
	result := parser.Run(files)
	if len(result.Records) == 0 {
		slog.Info("No records passed filtering", "supplier", t.SupplierName)
		return nil
	}

	enrichment := t.enricher.FetchBulk(ctx, result.Identifiers)

	matched, unmatched := t.merger.Run(result.Records, enrichment)

	priced := 0
	for i := range matched {
		if price, ok := t.calculator.InclusivePrice(matched[i].Fields); ok {
			matched[i].Fields["price"] = pricing.Format(price)
			priced++
		}
	}

	matchedPath, unmatchedPath, err := t.writer.Run(matched, unmatched, result.Columns)
	if err != nil {
		return fmt.Errorf("failed to write output artifacts: %w", err)
	}

	columns, rows := uploader.BuildRows(matched, feed.MatchedColumns(result.Columns, matched))
	report, err := t.uploader.Run(ctx, columns, rows)
	if err != nil {
		return fmt.Errorf("failed to upload catalog: %w", err)
	}

	slog.Info("Task completed",
		"type", "SyncCatalog",
		"supplier", t.SupplierName,
		"duration", t.GetDuration(),
		"records", len(result.Records),
		"matched", len(matched),
		"unmatched", len(unmatched),
		"priced", priced,
		"upserted", report.Upserted,
		"failed_batches", report.FailedBatches,
		"matched_file", matchedPath,
		"unmatched_file", unmatchedPath)

	return nil
}
