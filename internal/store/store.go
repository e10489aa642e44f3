// Package store binds cranir to its full-text engines.
//
// Two backends implement the same contracts: bleve (scorch indexes on disk,
// one per scoring model) and sqlite (an FTS5 table through modernc.org/sqlite).
// Both build their layout from Schema, so a document has the same fields
// whichever engine holds it.
package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/Aman-CERP/cranir/internal/ranking"
)

// Field names of an indexed document.
const (
	FieldDocNo        = "docno"
	FieldTitle        = "title"
	FieldAuthors      = "authors"
	FieldBibliography = "bib"
	FieldAbstract     = "abstract"
	FieldContent      = "content"
)

// DefaultSearchField is the aggregate field queried when no fields are given.
const DefaultSearchField = FieldContent

// FieldOptions declares how one document field is indexed.
type FieldOptions struct {
	Name string
	// Tokenized fields go through the analyzer; others match exactly.
	Tokenized bool
	// Stored fields can be read back with StoredField.
	Stored bool
}

// Schema is the document layout shared by every backend.
var Schema = []FieldOptions{
	{Name: FieldDocNo, Tokenized: false, Stored: true},
	{Name: FieldTitle, Tokenized: true, Stored: true},
	{Name: FieldAuthors, Tokenized: true, Stored: false},
	{Name: FieldBibliography, Tokenized: true, Stored: false},
	{Name: FieldAbstract, Tokenized: true, Stored: true},
	{Name: FieldContent, Tokenized: true, Stored: false},
}

// LookupField returns the schema entry for name.
func LookupField(name string) (FieldOptions, bool) {
	for _, f := range Schema {
		if f.Name == name {
			return f, true
		}
	}
	return FieldOptions{}, false
}

// TokenizedFields returns the names of all analyzed fields, in schema order.
func TokenizedFields() []string {
	var names []string
	for _, f := range Schema {
		if f.Tokenized {
			names = append(names, f.Name)
		}
	}
	return names
}

// ValidateSearchFields checks that every name is an analyzed schema field.
func ValidateSearchFields(fields []string) error {
	if len(fields) == 0 {
		return fmt.Errorf("%w: no search fields given", ErrUnknownField)
	}
	for _, name := range fields {
		f, ok := LookupField(name)
		if !ok {
			return fmt.Errorf("%w: %q (valid: %s)", ErrUnknownField, name, strings.Join(TokenizedFields(), ", "))
		}
		if !f.Tokenized {
			return fmt.Errorf("%w: %q is not a text field", ErrUnknownField, name)
		}
	}
	return nil
}

// Document is the backend-agnostic form of one indexed record.
type Document struct {
	// Seq is the 1-based input position; backends use it as internal id.
	Seq int

	DocNo        string
	Title        string
	Authors      string
	Bibliography string
	Abstract     string
	Content      string
}

// InternalID returns the backend id of the document.
func (d *Document) InternalID() string {
	return strconv.Itoa(d.Seq)
}

// Field returns the value of a schema field.
func (d *Document) Field(name string) string {
	switch name {
	case FieldDocNo:
		return d.DocNo
	case FieldTitle:
		return d.Title
	case FieldAuthors:
		return d.Authors
	case FieldBibliography:
		return d.Bibliography
	case FieldAbstract:
		return d.Abstract
	case FieldContent:
		return d.Content
	default:
		return ""
	}
}

// Validate checks the invariants every backend relies on.
func (d *Document) Validate() error {
	if d.Seq <= 0 {
		return fmt.Errorf("document sequence must be positive, got %d", d.Seq)
	}
	if d.DocNo == "" {
		return fmt.Errorf("document %d has no %s", d.Seq, FieldDocNo)
	}
	return nil
}

// Hit is one ranked match as returned by an engine.
// Hits are ordered by score descending, ties by internal id ascending.
type Hit struct {
	InternalID string
	// DocNo is the stored identifier when the engine returns it with the
	// hit. bleve hits carry only the internal id; resolve those with
	// IndexReader.StoredField.
	DocNo string
	Score float64
}

// FallbackDocNo is the docno used for a document stored without an
// identifier. The "seq-" prefix keeps it apart from any real .I id.
func FallbackDocNo(internalID string) string {
	return "seq-" + internalID
}

// Seq returns the numeric internal id, or 0 if it is not numeric.
func (h Hit) Seq() int {
	n, err := strconv.Atoi(h.InternalID)
	if err != nil {
		return 0
	}
	return n
}

// Sentinel errors shared by the backends.
var (
	ErrNoIndex      = errors.New("no index found")
	ErrCorruptIndex = errors.New("index is corrupt")
	ErrIndexLocked  = errors.New("index in use by another process")
	ErrWrongBackend = errors.New("index was built by a different backend")
	ErrClosed       = errors.New("index is closed")
	ErrEmptyQuery   = errors.New("query has no searchable terms")
	ErrUnknownField = errors.New("unknown search field")
	ErrForeignQuery = errors.New("query was parsed by a different backend")
)

// ParsedQuery is an engine-specific executable query.
type ParsedQuery interface {
	// String returns the query in the engine's own syntax.
	String() string
}

// QueryParser turns free text into an executable query.
type QueryParser interface {
	// Escape neutralizes every character the engine's query syntax treats
	// as an operator, so the result only contains plain terms.
	Escape(text string) string

	// Parse escapes text and builds a query over the given fields.
	Parse(text string, fields []string) (ParsedQuery, error)
}

// IndexingBackend builds indexes.
type IndexingBackend interface {
	Name() string

	// OpenForWrite prepares dir for a fresh index, removing the artifacts
	// of any previous one.
	OpenForWrite(ctx context.Context, dir string) (IndexWriter, error)
}

// IndexWriter accepts documents for one index build.
type IndexWriter interface {
	Add(ctx context.Context, doc *Document) error

	// Commit makes every added document durable and marks the index
	// complete. The writer is unusable afterwards.
	Commit() error

	// Abort discards the build. The directory is left without a manifest.
	Abort() error
}

// SearchBackend opens indexes for querying.
type SearchBackend interface {
	Name() string
	OpenForRead(ctx context.Context, dir string) (IndexReader, error)
}

// IndexReader queries one opened index.
type IndexReader interface {
	Parser() QueryParser

	// Supports reports whether the index can score with model.
	Supports(model ranking.Model) bool
	Models() []ranking.Model

	Search(ctx context.Context, q ParsedQuery, model ranking.Model, maxHits int) ([]Hit, error)

	// StoredField reads a stored field of a document by internal id.
	// The bool is false when the document or the field does not exist.
	StoredField(ctx context.Context, internalID, field string) (string, bool, error)

	DocCount() (int, error)
	Manifest() *Manifest
	Close() error
}

// Backend is an engine that can both build and open indexes.
type Backend interface {
	IndexingBackend
	SearchBackend
}

// SortHits orders hits by score descending, ties by internal id ascending.
func SortHits(hits []Hit) {
	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].Seq() < hits[j].Seq()
	})
}
