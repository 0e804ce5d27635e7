package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
)

const (
	// KeyColumn is the unique identifier column the upsert conflicts on.
	KeyColumn = "ean"

	maxColumnNameLength = 63
)

var _ CatalogStore = (*CatalogRepository)(nil)
var _ ListingStore = (*CatalogRepository)(nil)

// CatalogRepository handles database operations for the merged catalog
// table. Feed columns vary between runs, so the schema is synchronized
// additively; existing columns are never dropped or altered.
type CatalogRepository struct {
	db    *DB
	table string
}

func NewCatalogRepository(db *DB, table string) *CatalogRepository {
	return &CatalogRepository{db: db, table: table}
}

// TableExists reports whether the catalog table is present.
func (r *CatalogRepository) TableExists(ctx context.Context) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM information_schema.tables
			WHERE table_schema = current_schema() AND table_name = $1
		)
	`, r.table).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check table existence: %w", err)
	}
	return exists, nil
}

// GetColumns returns the current column set of the catalog table.
func (r *CatalogRepository) GetColumns(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT column_name FROM information_schema.columns
		WHERE table_schema = current_schema() AND table_name = $1
		ORDER BY ordinal_position
	`, r.table)
	if err != nil {
		return nil, fmt.Errorf("failed to get columns: %w", err)
	}
	defer rows.Close()

	var columns []string
	for rows.Next() {
		var column string
		if err := rows.Scan(&column); err != nil {
			return nil, fmt.Errorf("failed to scan column name: %w", err)
		}
		columns = append(columns, column)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating columns: %w", err)
	}

	return columns, nil
}

// CreateTable creates the catalog table with the given columns, keying on
// the identifier column.
func (r *CatalogRepository) CreateTable(ctx context.Context, columns []string) error {
	_, err := r.db.ExecContext(ctx, buildCreateTableQuery(r.table, columns))
	if err != nil {
		return fmt.Errorf("failed to create table: %w", err)
	}
	return nil
}

// AddColumn issues one additive, nullable text-typed alteration.
func (r *CatalogRepository) AddColumn(ctx context.Context, column string) error {
	query := fmt.Sprintf("ALTER TABLE %s ADD COLUMN IF NOT EXISTS %s TEXT",
		pq.QuoteIdentifier(r.table), pq.QuoteIdentifier(SanitizeColumn(column)))

	if _, err := r.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to add column %s: %w", column, err)
	}
	return nil
}

// UpsertBatch inserts all rows in one statement, updating on identifier
// conflict so repeated runs stay idempotent.
func (r *CatalogRepository) UpsertBatch(ctx context.Context, columns []string, rows []map[string]string) error {
	if len(rows) == 0 {
		return nil
	}

	query, ordered := buildUpsertQuery(r.table, columns, len(rows))

	args := make([]interface{}, 0, len(rows)*len(ordered))
	for _, row := range rows {
		for _, column := range ordered {
			args = append(args, row[column])
		}
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to upsert batch: %w", err)
	}
	return nil
}

// MarkListed tags a catalog row as published to the marketplace. Owned by
// the downstream lister, not the sync pipeline.
func (r *CatalogRepository) MarkListed(ctx context.Context, identifier string, listedAt time.Time) error {
	query := fmt.Sprintf("UPDATE %s SET listed_at = $1 WHERE %s = $2",
		pq.QuoteIdentifier(r.table), pq.QuoteIdentifier(KeyColumn))

	result, err := r.db.ExecContext(ctx, query, listedAt, identifier)
	if err != nil {
		return fmt.Errorf("failed to mark listed: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}

	return nil
}

// GetUnlisted returns identifiers not yet published to the marketplace.
func (r *CatalogRepository) GetUnlisted(ctx context.Context, limit int) ([]string, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE listed_at IS NULL ORDER BY %s LIMIT $1",
		pq.QuoteIdentifier(KeyColumn), pq.QuoteIdentifier(r.table), pq.QuoteIdentifier(KeyColumn))

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get unlisted rows: %w", err)
	}
	defer rows.Close()

	var identifiers []string
	for rows.Next() {
		var identifier string
		if err := rows.Scan(&identifier); err != nil {
			return nil, fmt.Errorf("failed to scan identifier: %w", err)
		}
		identifiers = append(identifiers, identifier)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating unlisted rows: %w", err)
	}

	return identifiers, nil
}

func buildCreateTableQuery(table string, columns []string) string {
	var defs []string
	defs = append(defs, fmt.Sprintf("%s TEXT PRIMARY KEY", pq.QuoteIdentifier(KeyColumn)))

	reserved := map[string]bool{
		KeyColumn: true, "listed_at": true, "created_at": true, "updated_at": true,
	}
	for _, column := range columns {
		sanitized := SanitizeColumn(column)
		if reserved[sanitized] {
			continue
		}
		defs = append(defs, fmt.Sprintf("%s TEXT", pq.QuoteIdentifier(sanitized)))
	}

	defs = append(defs,
		"listed_at TIMESTAMPTZ",
		"created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()",
		"updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()")

	return fmt.Sprintf("CREATE TABLE %s (%s)", pq.QuoteIdentifier(table), strings.Join(defs, ", "))
}

func buildUpsertQuery(table string, columns []string, rowCount int) (string, []string) {
	ordered := make([]string, 0, len(columns))
	seen := make(map[string]bool, len(columns))
	hasKey := false
	for _, column := range columns {
		sanitized := SanitizeColumn(column)
		if seen[sanitized] {
			continue
		}
		seen[sanitized] = true
		ordered = append(ordered, sanitized)
		if sanitized == KeyColumn {
			hasKey = true
		}
	}

	quoted := make([]string, len(ordered))
	for i, column := range ordered {
		quoted[i] = pq.QuoteIdentifier(column)
	}

	placeholders := make([]string, rowCount)
	arg := 1
	for i := 0; i < rowCount; i++ {
		row := make([]string, len(ordered))
		for j := range ordered {
			row[j] = fmt.Sprintf("$%d", arg)
			arg++
		}
		placeholders[i] = "(" + strings.Join(row, ", ") + ")"
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES %s",
		pq.QuoteIdentifier(table), strings.Join(quoted, ", "), strings.Join(placeholders, ", "))

	if !hasKey {
		// No identifier column to conflict on; plain insert.
		return query, ordered
	}

	var updates []string
	for _, column := range ordered {
		if column == KeyColumn {
			continue
		}
		updates = append(updates, fmt.Sprintf("%s = EXCLUDED.%s",
			pq.QuoteIdentifier(column), pq.QuoteIdentifier(column)))
	}
	updates = append(updates, "updated_at = NOW()")

	query += fmt.Sprintf(" ON CONFLICT (%s) DO UPDATE SET %s",
		pq.QuoteIdentifier(KeyColumn), strings.Join(updates, ", "))

	return query, ordered
}

// SanitizeColumn converts a feed column name into a safe Postgres
// identifier: lowercased, spaces to underscores, anything non-alphanumeric
// replaced, truncated to the identifier length limit.
func SanitizeColumn(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	name = strings.ReplaceAll(name, " ", "_")

	var b strings.Builder
	for _, c := range name {
		if (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') || c == '_' {
			b.WriteRune(c)
		} else {
			b.WriteRune('_')
		}
	}

	sanitized := b.String()
	if sanitized == "" {
		return "unknown_column"
	}
	if len(sanitized) > maxColumnNameLength {
		sanitized = sanitized[:maxColumnNameLength]
	}
	return sanitized
}
