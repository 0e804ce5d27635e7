package feed

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

const (
	identifierColumn = "ean"
	stockColumn      = "stock"
)

// Parser reads supplier feed files: a banner line, a header row, then one
// row per stock-keeping unit. Rows below the stock threshold, rows with an
// unparsable quantity, and rows missing the identifier are discarded; a
// repeated identifier keeps its first row only.
type Parser struct {
	threshold int
	encoding  string
}

func NewParser(threshold int, encoding string) *Parser {
	return &Parser{
		threshold: threshold,
		encoding:  encoding,
	}
}

// Run parses every file, skipping files whose header lacks the stock or
// identifier column. File-level failures are logged and do not abort the
// run; row-level failures are counted and discarded.
func (p *Parser) Run(paths []string) *ParseResult {
	result := &ParseResult{
		Columns: make(map[string]bool),
	}
	seen := make(map[string]bool)

	for _, path := range paths {
		count, err := p.parseFile(path, result, seen)
		if err != nil {
			slog.Error("Skipping feed file", "file", path, "error", err)
			result.SkippedFiles++
			continue
		}
		slog.Info("Parsed feed file", "file", path, "records", count)
	}

	slog.Info("Feed parsing completed",
		"files", len(paths),
		"records", len(result.Records),
		"identifiers", len(result.Identifiers),
		"skipped_rows", result.SkippedRows,
		"duplicate_rows", result.DuplicateRows,
		"skipped_files", result.SkippedFiles)

	return result
}

func (p *Parser) parseFile(path string, result *ParseResult, seen map[string]bool) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(p.decode(f))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	// First line is a banner, by file-format convention.
	if _, err := reader.Read(); err != nil {
		return 0, fmt.Errorf("failed to read banner line: %w", err)
	}

	rawHeaders, err := reader.Read()
	if err != nil {
		return 0, fmt.Errorf("failed to read header row: %w", err)
	}

	headers := make([]string, len(rawHeaders))
	stockIdx := -1
	identifierIdx := -1
	for i, h := range rawHeaders {
		headers[i] = normalizeColumnName(h)
		switch headers[i] {
		case stockColumn:
			stockIdx = i
		case identifierColumn:
			identifierIdx = i
		}
	}

	if stockIdx == -1 {
		return 0, fmt.Errorf("required column %q missing", stockColumn)
	}
	if identifierIdx == -1 {
		return 0, fmt.Errorf("required column %q missing", identifierColumn)
	}

	for _, h := range headers {
		result.Columns[h] = true
	}

	count := 0
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			result.SkippedRows++
			continue
		}

		record, ok := p.buildRecord(headers, stockIdx, identifierIdx, row)
		if !ok {
			result.SkippedRows++
			continue
		}

		// One row per identifier: a later duplicate, in the same file or a
		// subsequent one, would make the batched upsert touch the same
		// catalog row twice in one statement.
		if seen[record.Identifier] {
			result.DuplicateRows++
			continue
		}
		seen[record.Identifier] = true

		result.Records = append(result.Records, record)
		result.Identifiers = append(result.Identifiers, record.Identifier)
		count++
	}

	return count, nil
}

func (p *Parser) buildRecord(headers []string, stockIdx, identifierIdx int, row []string) (Record, bool) {
	if len(row) <= stockIdx || len(row) <= identifierIdx {
		return Record{}, false
	}

	stock, err := strconv.Atoi(strings.TrimSpace(row[stockIdx]))
	if err != nil || stock <= p.threshold {
		return Record{}, false
	}

	identifier := strings.TrimSpace(row[identifierIdx])
	if identifier == "" {
		return Record{}, false
	}

	fields := make(map[string]string, len(headers))
	for i, value := range row {
		if i >= len(headers) {
			break
		}
		fields[headers[i]] = strings.TrimSpace(value)
	}

	return Record{
		Identifier: identifier,
		Stock:      stock,
		Fields:     fields,
	}, true
}

func (p *Parser) decode(r io.Reader) io.Reader {
	if strings.EqualFold(p.encoding, "latin-1") {
		return transform.NewReader(r, charmap.ISO8859_1.NewDecoder())
	}
	return r
}

func normalizeColumnName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
