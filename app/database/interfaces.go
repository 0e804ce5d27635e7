package database

import (
	"context"
	"time"
)

// CatalogStore is the catalog table surface the uploader depends on.
type CatalogStore interface {
	TableExists(ctx context.Context) (bool, error)
	GetColumns(ctx context.Context) ([]string, error)
	CreateTable(ctx context.Context, columns []string) error
	AddColumn(ctx context.Context, column string) error
	UpsertBatch(ctx context.Context, columns []string, rows []map[string]string) error
}

// ListingStore is the surface used by the downstream marketplace lister to
// tag rows out-of-band.
type ListingStore interface {
	MarkListed(ctx context.Context, identifier string, listedAt time.Time) error
	GetUnlisted(ctx context.Context, limit int) ([]string, error)
}
