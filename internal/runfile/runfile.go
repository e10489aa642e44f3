// Package runfile reads and writes TREC run files.
//
// A run file has one line per retrieved document:
//
//	<query-id> Q0 <docno> <rank> <score> <run-tag>
//
// Fields are separated by single spaces. Ranks start at 1 within each
// query and scores do not increase as rank grows.
package runfile

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

// DefaultPrecision is the number of fractional score digits written.
const DefaultPrecision = 4

// iteration is the constant second column of a run line.
const iteration = "Q0"

// ErrInvalidLine is returned for a line that cannot be written or parsed.
var ErrInvalidLine = errors.New("invalid run line")

// Line is one run-file entry.
type Line struct {
	QueryID string
	DocNo   string
	Rank    int
	Score   float64
	RunTag  string
}

// String formats the line with DefaultPrecision, without a newline.
func (l Line) String() string {
	return l.format(DefaultPrecision)
}

func (l Line) format(precision int) string {
	return l.QueryID + " " + iteration + " " + l.DocNo + " " + strconv.Itoa(l.Rank) + " " +
		strconv.FormatFloat(l.Score, 'f', precision, 64) + " " + l.RunTag
}

// validToken reports whether s can appear as one run-file column.
func validToken(s string) bool {
	return s != "" && !strings.ContainsAny(s, " \t\r\n\v\f")
}

func (l Line) validate() error {
	switch {
	case !validToken(l.QueryID):
		return fmt.Errorf("%w: query id %q", ErrInvalidLine, l.QueryID)
	case !validToken(l.DocNo):
		return fmt.Errorf("%w: docno %q for query %s", ErrInvalidLine, l.DocNo, l.QueryID)
	case !validToken(l.RunTag):
		return fmt.Errorf("%w: run tag %q", ErrInvalidLine, l.RunTag)
	case l.Rank < 1:
		return fmt.Errorf("%w: rank %d for query %s", ErrInvalidLine, l.Rank, l.QueryID)
	case math.IsNaN(l.Score) || math.IsInf(l.Score, 0):
		return fmt.Errorf("%w: score %v for query %s", ErrInvalidLine, l.Score, l.QueryID)
	}
	return nil
}

// RunTag builds the run identifier "<prefix>-<model>".
func RunTag(prefix, model string) string {
	prefix = strings.TrimSpace(prefix)
	model = strings.TrimSpace(model)
	if prefix == "" {
		return model
	}
	return prefix + "-" + model
}

// Option configures a Writer.
type Option func(*Writer)

// WithPrecision sets the number of fractional score digits.
// Negative values are ignored.
func WithPrecision(digits int) Option {
	return func(w *Writer) {
		if digits >= 0 {
			w.precision = digits
		}
	}
}

// Writer writes run lines to a buffered stream.
type Writer struct {
	out       *bufio.Writer
	tag       string
	precision int
	lines     int
}

// NewWriter returns a Writer stamping every line with runTag.
func NewWriter(w io.Writer, runTag string, opts ...Option) *Writer {
	rw := &Writer{
		out:       bufio.NewWriter(w),
		tag:       runTag,
		precision: DefaultPrecision,
	}
	for _, opt := range opts {
		opt(rw)
	}
	return rw
}

// RunTag returns the tag the writer stamps on lines without one.
func (w *Writer) RunTag() string {
	return w.tag
}

// WriteLine writes one line. The writer's tag is used when l has none.
func (w *Writer) WriteLine(l Line) error {
	if l.RunTag == "" {
		l.RunTag = w.tag
	}
	if err := l.validate(); err != nil {
		return err
	}
	if _, err := w.out.WriteString(l.format(w.precision) + "\n"); err != nil {
		return fmt.Errorf("failed to write run line: %w", err)
	}
	w.lines++
	return nil
}

// WriteQuery writes the ranked lines of one query, stamping queryID on each.
// Ranks must run 1, 2, 3... with non-increasing scores; otherwise nothing
// is written for the query.
func (w *Writer) WriteQuery(queryID string, hits []Line) error {
	for i, h := range hits {
		if h.Rank != i+1 {
			return fmt.Errorf("%w: query %s has rank %d at position %d", ErrInvalidLine, queryID, h.Rank, i+1)
		}
		if i > 0 && h.Score > hits[i-1].Score {
			return fmt.Errorf("%w: query %s score rises at rank %d", ErrInvalidLine, queryID, h.Rank)
		}
	}
	for _, h := range hits {
		h.QueryID = queryID
		if err := w.WriteLine(h); err != nil {
			return err
		}
	}
	return nil
}

// Flush writes buffered lines to the underlying stream.
func (w *Writer) Flush() error {
	if err := w.out.Flush(); err != nil {
		return fmt.Errorf("failed to flush run file: %w", err)
	}
	return nil
}

// Lines returns the number of lines written so far.
func (w *Writer) Lines() int {
	return w.lines
}
