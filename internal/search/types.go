// Package search runs Cranfield query batches against an opened index.
package search

import (
	"time"

	"github.com/Aman-CERP/cranir/internal/ranking"
	"github.com/Aman-CERP/cranir/internal/runfile"
)

// Config configures a query batch.
type Config struct {
	// Model is the requested ranking model name. Unknown or unavailable
	// models fall back to bm25.
	Model string

	// MaxHits is the number of hits retrieved per query. Must be positive.
	MaxHits int

	// Fields are the index fields every query term is matched against
	// (default: content).
	Fields []string

	// Renumber replaces every query id with its 1-based position in the
	// query file, the numbering the Cranfield relevance judgments use.
	Renumber bool
}

// RankedHit is one retrieved document of a query.
type RankedHit struct {
	Rank       int
	DocNo      string
	Score      float64
	InternalID string
}

// QueryResult holds the ranked hits of one executed query.
type QueryResult struct {
	// QueryID is the id written to the run file.
	QueryID string

	// SourceID is the id as written in the query file.
	SourceID string

	// Position is the 1-based position of the query record.
	Position int

	Hits []RankedHit
}

// Lines converts the hits to run lines for QueryID.
func (r QueryResult) Lines() []runfile.Line {
	lines := make([]runfile.Line, len(r.Hits))
	for i, h := range r.Hits {
		lines[i] = runfile.Line{
			QueryID: r.QueryID,
			DocNo:   h.DocNo,
			Rank:    h.Rank,
			Score:   h.Score,
		}
	}
	return lines
}

// Summary describes a finished batch.
type Summary struct {
	// Queries is the number of query records read.
	Queries int

	// Searched is the number of queries executed.
	Searched int

	// Empty counts queries skipped because no searchable text was left.
	Empty int

	// Failed counts queries skipped because parsing or searching failed.
	Failed int

	// Hits is the total number of hits over all executed queries.
	Hits int

	// Model is the model the batch ranked with.
	Model ranking.Model

	// Fallback is set when Model differs from the requested model.
	Fallback bool

	// Skipped carries one error per skipped query.
	Skipped []error

	Duration time.Duration
}
