package cranfield

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// maxLineSize bounds a single input line.
const maxLineSize = 1024 * 1024

const bom = "\ufeff"

type section int

const (
	sectionNone section = iota
	sectionTitle
	sectionAuthors
	sectionBibliography
	sectionBody
	sectionSkipped
)

// marker returns the marker letter of a marker line, or 0.
// A marker line starts with '.', one of I T A B W, and then ends or
// continues with whitespace, so ".In" or ".Table" are ordinary text.
func marker(line string) byte {
	if len(line) < 2 || line[0] != '.' {
		return 0
	}
	switch line[1] {
	case 'I', 'T', 'A', 'B', 'W':
	default:
		return 0
	}
	if len(line) > 2 && line[2] != ' ' && line[2] != '\t' {
		return 0
	}
	return line[1]
}

// recordScanner holds the state shared by both reader kinds.
type recordScanner struct {
	scanner *bufio.Scanner
	mode    Mode
	line    int

	pending bool
	id      string
	active  section
	text    [sectionSkipped]strings.Builder
	done    bool
}

func newRecordScanner(r io.Reader, mode Mode) *recordScanner {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	return &recordScanner{scanner: sc, mode: mode}
}

// record is a finalized record: its id and the text of each section.
type record struct {
	id   string
	text [sectionSkipped]string
}

// next advances to the next finalized record.
func (s *recordScanner) next() (record, error) {
	if s.done {
		return record{}, io.EOF
	}

	for s.scanner.Scan() {
		s.line++
		line := strings.TrimSuffix(s.scanner.Text(), "\r")
		if s.line == 1 {
			line = strings.TrimPrefix(line, bom)
		}

		switch marker(line) {
		case 'I':
			id := strings.TrimSpace(line[2:])
			if s.pending {
				rec := s.flush()
				s.start(id)
				return rec, nil
			}
			s.start(id)
		case 'T':
			s.switchTo(sectionTitle)
		case 'A':
			s.switchTo(sectionAuthors)
		case 'B':
			s.switchTo(sectionBibliography)
		case 'W':
			s.switchTo(sectionBody)
		default:
			s.appendLine(line)
		}
	}

	s.done = true
	if err := s.scanner.Err(); err != nil {
		return record{}, fmt.Errorf("line %d: %w", s.line+1, err)
	}
	if s.pending {
		return s.flush(), nil
	}
	return record{}, io.EOF
}

func (s *recordScanner) start(id string) {
	s.pending = true
	s.id = id
	s.active = sectionNone
}

func (s *recordScanner) switchTo(sec section) {
	if !s.pending {
		s.active = sectionNone
		return
	}
	if s.mode == ModeQuery && sec != sectionBody {
		sec = sectionSkipped
	}
	s.active = sec
}

func (s *recordScanner) appendLine(line string) {
	if !s.pending || s.active == sectionNone || s.active == sectionSkipped {
		return
	}
	b := &s.text[s.active]
	b.WriteString(line)
	b.WriteByte('\n')
}

func (s *recordScanner) flush() record {
	rec := record{id: s.id}
	for i := range s.text {
		rec.text[i] = s.text[i].String()
		s.text[i].Reset()
	}
	s.pending = false
	s.id = ""
	s.active = sectionNone
	return rec
}

// DocumentReader streams documents from a Cranfield document file.
type DocumentReader struct {
	s *recordScanner
}

// NewDocumentReader returns a reader that parses r in document mode.
func NewDocumentReader(r io.Reader) *DocumentReader {
	return &DocumentReader{s: newRecordScanner(r, ModeDocument)}
}

// Next returns the next document, or io.EOF after the last one.
func (r *DocumentReader) Next() (Document, error) {
	rec, err := r.s.next()
	if err != nil {
		return Document{}, err
	}
	return Document{
		ID:           rec.id,
		Title:        rec.text[sectionTitle],
		Authors:      rec.text[sectionAuthors],
		Bibliography: rec.text[sectionBibliography],
		Abstract:     rec.text[sectionBody],
	}, nil
}

// Line returns the number of input lines consumed so far.
func (r *DocumentReader) Line() int {
	return r.s.line
}

// QueryReader streams queries from a Cranfield query file.
type QueryReader struct {
	s *recordScanner
}

// NewQueryReader returns a reader that parses r in query mode.
func NewQueryReader(r io.Reader) *QueryReader {
	return &QueryReader{s: newRecordScanner(r, ModeQuery)}
}

// Next returns the next query, or io.EOF after the last one.
func (r *QueryReader) Next() (Query, error) {
	rec, err := r.s.next()
	if err != nil {
		return Query{}, err
	}
	return Query{ID: rec.id, Text: rec.text[sectionBody]}, nil
}

// Line returns the number of input lines consumed so far.
func (r *QueryReader) Line() int {
	return r.s.line
}

// ReadDocuments parses every document in r.
func ReadDocuments(r io.Reader) ([]Document, error) {
	reader := NewDocumentReader(r)
	var docs []Document
	for {
		doc, err := reader.Next()
		if err == io.EOF {
			return docs, nil
		}
		if err != nil {
			return docs, err
		}
		docs = append(docs, doc)
	}
}

// ReadQueries parses every query in r.
func ReadQueries(r io.Reader) ([]Query, error) {
	reader := NewQueryReader(r)
	var queries []Query
	for {
		q, err := reader.Next()
		if err == io.EOF {
			return queries, nil
		}
		if err != nil {
			return queries, err
		}
		queries = append(queries, q)
	}
}

// ReadDocumentsFile parses the document file at path.
// Each call opens a fresh stream.
func ReadDocumentsFile(path string) ([]Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	docs, err := ReadDocuments(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return docs, nil
}

// ReadQueriesFile parses the query file at path.
// Each call opens a fresh stream.
func ReadQueriesFile(path string) ([]Query, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	queries, err := ReadQueries(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return queries, nil
}

// CountRecords returns the number of ".I" marker lines in r.
func CountRecords(r io.Reader) (int, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	count, line := 0, 0
	for sc.Scan() {
		line++
		text := sc.Text()
		if line == 1 {
			text = strings.TrimPrefix(text, bom)
		}
		if marker(text) == 'I' {
			count++
		}
	}
	if err := sc.Err(); err != nil {
		return count, fmt.Errorf("line %d: %w", line+1, err)
	}
	return count, nil
}

// CountRecordsFile counts the records of the file at path.
func CountRecordsFile(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer func() { _ = f.Close() }()
	return CountRecords(f)
}
