package cranfield

import (
	"cmp"
	"strconv"
	"strings"
)

// Document is one record of a Cranfield document file.
// Section text is kept as written, one "\n" after every line.
type Document struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	Authors      string `json:"authors"`
	Bibliography string `json:"bibliography"`
	Abstract     string `json:"abstract"`
}

// Empty reports whether the document carries no section text at all.
func (d Document) Empty() bool {
	return d.Title == "" && d.Authors == "" && d.Bibliography == "" && d.Abstract == ""
}

// Query is one record of a Cranfield query file.
type Query struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// Number returns the numeric value of an all-digit query id ("001" is 1).
func (q Query) Number() (int, bool) {
	return parseNumber(q.ID)
}

// Blank reports whether the query has no searchable text.
func (q Query) Blank() bool {
	return strings.TrimSpace(q.Text) == ""
}

// CanonicalID returns id without leading zeros when it is all digits, and
// id unchanged otherwise.
func CanonicalID(id string) string {
	if n, ok := parseNumber(id); ok {
		return strconv.Itoa(n)
	}
	return id
}

// CompareIDs orders record ids. Numeric ids sort numerically and come
// before all other ids, which sort lexicographically.
func CompareIDs(a, b string) int {
	na, okA := parseNumber(a)
	nb, okB := parseNumber(b)
	switch {
	case okA && okB:
		return cmp.Compare(na, nb)
	case okA:
		return -1
	case okB:
		return 1
	default:
		return strings.Compare(a, b)
	}
}

func parseNumber(id string) (int, bool) {
	if id == "" {
		return 0, false
	}
	for i := 0; i < len(id); i++ {
		if id[i] < '0' || id[i] > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(id)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Mode selects which record shape a file is parsed into.
type Mode string

const (
	ModeDocument Mode = "document"
	ModeQuery    Mode = "query"
)

// ParseMode resolves a mode name. "doc", "docs" and "queries" are accepted
// as shorthands.
func ParseMode(name string) (Mode, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "document", "documents", "doc", "docs":
		return ModeDocument, true
	case "query", "queries":
		return ModeQuery, true
	default:
		return "", false
	}
}
