package store

import "strings"

// SQLiteQueryParser builds FTS5 MATCH expressions from free text.
// Terms go through the same tokenizer as indexed text, and each one is
// quoted as an FTS5 string so no query-syntax character survives.
type SQLiteQueryParser struct {
	stopWords map[string]struct{}
}

// NewSQLiteQueryParser returns a parser applying the named analyzer's stop set.
func NewSQLiteQueryParser(analyzer string) SQLiteQueryParser {
	return SQLiteQueryParser{stopWords: stopWordsFor(analyzer)}
}

// quoteFTS returns term as an FTS5 string literal.
func quoteFTS(term string) string {
	return `"` + strings.ReplaceAll(term, `"`, `""`) + `"`
}

// Escape implements QueryParser.
func (p SQLiteQueryParser) Escape(text string) string {
	terms := analyze(text, p.stopWords)
	quoted := make([]string, len(terms))
	for i, t := range terms {
		quoted[i] = quoteFTS(t)
	}
	return strings.Join(quoted, " ")
}

// Parse implements QueryParser. The result has the form
// {title content} : ("t1" OR "t2"), duplicates removed.
func (p SQLiteQueryParser) Parse(text string, fields []string) (ParsedQuery, error) {
	if len(fields) == 0 {
		fields = []string{DefaultSearchField}
	}
	if err := ValidateSearchFields(fields); err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var terms []string
	for _, t := range analyze(text, p.stopWords) {
		if !seen[t] {
			seen[t] = true
			terms = append(terms, quoteFTS(t))
		}
	}
	if len(terms) == 0 {
		return nil, ErrEmptyQuery
	}

	match := "{" + strings.Join(fields, " ") + "} : (" + strings.Join(terms, " OR ") + ")"
	return &sqliteQuery{match: match}, nil
}

type sqliteQuery struct {
	match string
}

func (q *sqliteQuery) String() string {
	return q.match
}

var _ QueryParser = SQLiteQueryParser{}
