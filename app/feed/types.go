package feed

// Feed processing types

// Record is one retained row from a supplier feed file. Fields maps
// normalized (trimmed, lowercased) column names to trimmed cell values.
// Records are built once during parsing and never mutated afterwards.
type Record struct {
	Identifier string // EAN / ISBN-13
	Stock      int
	Fields     map[string]string
}

// ParseResult aggregates the output of parsing every staged feed file.
// Columns is the union of headers observed across all files. Records holds
// exactly one row per identifier, in first-seen order; a repeated identifier
// keeps its first row and counts the rest as DuplicateRows. Identifiers
// mirrors Records.
type ParseResult struct {
	Records     []Record
	Identifiers []string
	Columns     map[string]bool

	SkippedRows   int
	DuplicateRows int
	SkippedFiles  int
}

// MergedRecord is a feed row after reconciliation against the enrichment
// results. Matched rows carry enrichment fields overlaid onto the feed
// fields; unmatched rows carry feed fields only.
type MergedRecord struct {
	Identifier string
	Matched    bool
	Fields     map[string]string
}
