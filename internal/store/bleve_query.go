package store

import (
	"strings"
	"unicode"

	"github.com/blevesearch/bleve/v2/search/query"
)

// bleveSpecialChars are the operator characters of bleve's query-string
// syntax, plus the escape character itself.
const bleveSpecialChars = `+-=&|><!(){}[]^"~*?:\/`

// BleveQueryParser builds bleve match queries from free text.
type BleveQueryParser struct{}

// Escape implements QueryParser. Every operator character is prefixed with
// a backslash. Parse uses it only for the printable form of a query.
func (BleveQueryParser) Escape(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		if strings.ContainsRune(bleveSpecialChars, r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Parse implements QueryParser. Each whitespace-separated term becomes a
// match query on every field, and the clauses are OR-ed. Terms made only of
// punctuation are dropped. No input character acts as query syntax.
func (p BleveQueryParser) Parse(text string, fields []string) (ParsedQuery, error) {
	if len(fields) == 0 {
		fields = []string{DefaultSearchField}
	}
	if err := ValidateSearchFields(fields); err != nil {
		return nil, err
	}

	var terms []string
	for _, term := range strings.Fields(text) {
		if strings.IndexFunc(term, isWordRune) >= 0 {
			terms = append(terms, term)
		}
	}
	if len(terms) == 0 {
		return nil, ErrEmptyQuery
	}

	clauses := make([]query.Query, 0, len(terms)*len(fields))
	display := make([]string, 0, cap(clauses))
	for _, term := range terms {
		for _, field := range fields {
			mq := query.NewMatchQuery(term)
			mq.SetField(field)
			clauses = append(clauses, mq)
			display = append(display, field+":"+p.Escape(term))
		}
	}

	return &bleveQuery{raw: strings.Join(display, " "), query: query.NewDisjunctionQuery(clauses)}, nil
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

type bleveQuery struct {
	raw   string
	query query.Query
}

func (q *bleveQuery) String() string {
	return q.raw
}

var _ QueryParser = BleveQueryParser{}
