package enrich

// Record is the canonical bibliographic metadata for one identifier. All
// fields are optional; an empty string means the service had no data.
type Record struct {
	Title           string
	Description     string
	CoverImage      string
	Author          string
	Publisher       string
	PublicationYear string
	Language        string
	ISBN10          string
	ISBN13          string
	Pages           string
	Binding         string
}

// fieldNames is the fixed enrichment column set, in output order before
// sorting. Keep in sync with Record and FieldMap.
var fieldNames = []string{
	"title",
	"description",
	"cover_image",
	"author",
	"publisher",
	"publication_year",
	"language",
	"isbn10",
	"isbn13",
	"pages",
	"binding",
}

// Fields returns the fixed enrichment column set.
func Fields() []string {
	columns := make([]string, len(fieldNames))
	copy(columns, fieldNames)
	return columns
}

// FieldMap returns the record as a column-to-value mapping for the merge.
func (r Record) FieldMap() map[string]string {
	return map[string]string{
		"title":            r.Title,
		"description":      r.Description,
		"cover_image":      r.CoverImage,
		"author":           r.Author,
		"publisher":        r.Publisher,
		"publication_year": r.PublicationYear,
		"language":         r.Language,
		"isbn10":           r.ISBN10,
		"isbn13":           r.ISBN13,
		"pages":            r.Pages,
		"binding":          r.Binding,
	}
}
