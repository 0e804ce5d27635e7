package feed

import (
	"log/slog"

	"github.com/bookwell/bookbridge/app/enrich"
)

// Merger partitions feed records into matched and unmatched sets based on
// enrichment coverage. Every record lands in exactly one partition.
type Merger struct{}

func NewMerger() *Merger {
	return &Merger{}
}

func (m *Merger) Run(records []Record, enrichment map[string]enrich.Record) (matched, unmatched []MergedRecord) {
	for _, record := range records {
		data, ok := enrichment[record.Identifier]
		if !ok {
			unmatched = append(unmatched, MergedRecord{
				Identifier: record.Identifier,
				Matched:    false,
				Fields:     copyFields(record.Fields),
			})
			continue
		}

		matched = append(matched, MergedRecord{
			Identifier: record.Identifier,
			Matched:    true,
			Fields:     m.overlay(record.Fields, data),
		})
	}

	slog.Info("Merge completed",
		"records", len(records),
		"matched", len(matched),
		"unmatched", len(unmatched))

	return matched, unmatched
}

// overlay starts from the feed fields and applies enrichment values on top.
// An enrichment value wins only when it is non-empty and not the exact
// lowercase literal "null"; otherwise the feed's original value is kept.
// The service occasionally serializes missing values as that literal.
func (m *Merger) overlay(feedFields map[string]string, data enrich.Record) map[string]string {
	merged := copyFields(feedFields)

	for key, value := range data.FieldMap() {
		if usable(value) {
			merged[key] = value
		}
	}

	return merged
}

func usable(value string) bool {
	return value != "" && value != "null"
}

func copyFields(fields map[string]string) map[string]string {
	copied := make(map[string]string, len(fields))
	for k, v := range fields {
		copied[k] = v
	}
	return copied
}
