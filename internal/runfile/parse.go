package runfile

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/Aman-CERP/cranir/internal/cranfield"
)

// Parse reads run lines. Blank lines are skipped; any other line must have
// six fields with "Q0" second, an integer rank and a float score.
func Parse(r io.Reader) ([]Line, error) {
	var lines []Line
	sc := bufio.NewScanner(r)
	n := 0
	for sc.Scan() {
		n++
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}
		l, err := parseLine(text)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", n, err)
		}
		lines = append(lines, l)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("line %d: %w", n+1, err)
	}
	return lines, nil
}

func parseLine(text string) (Line, error) {
	fields := strings.Fields(text)
	if len(fields) != 6 {
		return Line{}, fmt.Errorf("%w: want 6 fields, got %d", ErrInvalidLine, len(fields))
	}
	if fields[1] != iteration {
		return Line{}, fmt.Errorf("%w: second field %q, want %s", ErrInvalidLine, fields[1], iteration)
	}
	rank, err := strconv.Atoi(fields[3])
	if err != nil {
		return Line{}, fmt.Errorf("%w: rank %q", ErrInvalidLine, fields[3])
	}
	score, err := strconv.ParseFloat(fields[4], 64)
	if err != nil {
		return Line{}, fmt.Errorf("%w: score %q", ErrInvalidLine, fields[4])
	}
	return Line{
		QueryID: fields[0],
		DocNo:   fields[2],
		Rank:    rank,
		Score:   score,
		RunTag:  fields[5],
	}, nil
}

// Validate checks run-level ordering: the lines of a query are contiguous,
// queries appear in ascending id order, ranks run 1, 2, 3 and so on, and
// scores do not increase within a query.
func Validate(lines []Line) error {
	seen := make(map[string]bool)
	for i, l := range lines {
		if err := l.validate(); err != nil {
			return fmt.Errorf("entry %d: %w", i+1, err)
		}

		if i == 0 || lines[i-1].QueryID != l.QueryID {
			if seen[l.QueryID] {
				return fmt.Errorf("entry %d: %w: query %s is not contiguous", i+1, ErrInvalidLine, l.QueryID)
			}
			if i > 0 && cranfield.CompareIDs(lines[i-1].QueryID, l.QueryID) > 0 {
				return fmt.Errorf("entry %d: %w: query %s follows %s", i+1, ErrInvalidLine, l.QueryID, lines[i-1].QueryID)
			}
			seen[l.QueryID] = true
			if l.Rank != 1 {
				return fmt.Errorf("entry %d: %w: query %s starts at rank %d", i+1, ErrInvalidLine, l.QueryID, l.Rank)
			}
			continue
		}

		prev := lines[i-1]
		if l.Rank != prev.Rank+1 {
			return fmt.Errorf("entry %d: %w: query %s rank %d follows %d", i+1, ErrInvalidLine, l.QueryID, l.Rank, prev.Rank)
		}
		if l.Score > prev.Score {
			return fmt.Errorf("entry %d: %w: query %s score increases at rank %d", i+1, ErrInvalidLine, l.QueryID, l.Rank)
		}
	}
	return nil
}

// Summary describes a parsed run.
type Summary struct {
	Lines   int      `json:"lines"`
	Queries int      `json:"queries"`
	Tags    []string `json:"tags"`
}

// Summarize counts the lines, queries and distinct run tags of a run.
func Summarize(lines []Line) Summary {
	s := Summary{Lines: len(lines)}
	tags := make(map[string]bool)
	for i, l := range lines {
		if i == 0 || lines[i-1].QueryID != l.QueryID {
			s.Queries++
		}
		if !tags[l.RunTag] {
			tags[l.RunTag] = true
			s.Tags = append(s.Tags, l.RunTag)
		}
	}
	return s
}
