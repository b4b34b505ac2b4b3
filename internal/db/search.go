package db

import "strings"

// TextQuery is the input for lexical full-text search. The score of each
// entry is the index's ranking function value (unbounded, >= 0).
type TextQuery struct {
	IndexName    string
	Field        string // TEXT field to match against
	Query        string // raw user query; escaped before hitting the index
	Filter       string // optional pre-filter built with TagFilter
	TopK         int
	ReturnFields []string
}

// VectorQuery is the input for cosine-distance range search. Entries whose
// cosine distance to Vector is at most Radius are returned; the score of
// each entry is the similarity (1 - distance), clamped to [0, 1].
type VectorQuery struct {
	IndexName    string
	Field        string // VECTOR field name
	Vector       []float32
	Radius       float64 // maximum cosine distance
	Filter       string  // optional pre-filter built with TagFilter
	TopK         int
	ReturnFields []string
}

// ListQuery is the input for filtered, optionally sorted listing.
type ListQuery struct {
	IndexName    string
	Filter       string // empty means match-all
	SortBy       string // optional SORTABLE field
	SortDesc     bool
	Offset       int
	Limit        int
	ReturnFields []string
}

// SearchResult is the output of a search operation.
type SearchResult struct {
	Total   int
	Entries []SearchEntry
}

// SearchEntry is a single document hit.
type SearchEntry struct {
	Key    string
	Score  float64
	Fields map[string]string
}

// TagFilter renders an escaped tag equality pre-filter for FT queries.
// It is the only supported filter shape; callers never concatenate raw
// query strings.
func TagFilter(field, value string) string {
	return "@" + field + ":{" + tagEscaper.Replace(value) + "}"
}

var tagEscaper = strings.NewReplacer(
	",", "\\,", ".", "\\.", "<", "\\<", ">", "\\>",
	"{", "\\{", "}", "\\}", "\"", "\\\"", "'", "\\'",
	":", "\\:", ";", "\\;", "!", "\\!", "@", "\\@",
	"#", "\\#", "$", "\\$", "%", "\\%", "^", "\\^",
	"&", "\\&", "*", "\\*", "(", "\\(", ")", "\\)",
	"-", "\\-", "+", "\\+", "=", "\\=", "~", "\\~",
	" ", "\\ ",
)
