package store

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testDocs is a small corpus with distinct docno and seq values.
func testDocs() []*Document {
	docs := []*Document{
		{Seq: 1, DocNo: "d1", Title: "experimental investigation of the aerodynamics of a wing in a slipstream",
			Authors: "brenckman,m.", Abstract: "the slipstream of a propeller changes the lift of a wing"},
		{Seq: 2, DocNo: "d2", Title: "simple shear flow past a flat plate",
			Authors: "ting-yili", Abstract: "viscous flow past a flat plate in an incompressible fluid"},
		{Seq: 3, DocNo: "d3", Title: "the boundary layer in simple shear flow past a flat plate",
			Authors: "m. b. glauert", Abstract: "the boundary layer equations are solved for shear flow"},
		{Seq: 4, DocNo: "d4", Title: "approximate solutions of the incompressible laminar boundary layer equations",
			Authors: "g. m. lilley", Abstract: "heat transfer in the laminar boundary layer of a plate"},
	}
	for _, d := range docs {
		d.Content = d.Title + "\n" + d.Authors + "\n" + d.Bibliography + "\n" + d.Abstract
	}
	return docs
}

func TestSchema_DocNoIsExactAndStored(t *testing.T) {
	f, ok := LookupField(FieldDocNo)

	require.True(t, ok)
	assert.False(t, f.Tokenized)
	assert.True(t, f.Stored)
}

func TestSchema_FieldOptions(t *testing.T) {
	tests := []struct {
		name      string
		tokenized bool
		stored    bool
	}{
		{FieldTitle, true, true},
		{FieldAuthors, true, false},
		{FieldBibliography, true, false},
		{FieldAbstract, true, true},
		{FieldContent, true, false},
	}

	for _, tt := range tests {
		f, ok := LookupField(tt.name)
		require.True(t, ok, tt.name)
		assert.Equal(t, tt.tokenized, f.Tokenized, tt.name)
		assert.Equal(t, tt.stored, f.Stored, tt.name)
	}
}

func TestTokenizedFields(t *testing.T) {
	assert.Equal(t, []string{"title", "authors", "bib", "abstract", "content"}, TokenizedFields())
}

func TestValidateSearchFields(t *testing.T) {
	assert.NoError(t, ValidateSearchFields([]string{"title", "abstract", "content"}))

	err := ValidateSearchFields([]string{"body"})
	assert.True(t, errors.Is(err, ErrUnknownField))

	err = ValidateSearchFields([]string{"docno"})
	assert.True(t, errors.Is(err, ErrUnknownField))

	err = ValidateSearchFields(nil)
	assert.True(t, errors.Is(err, ErrUnknownField))
}

func TestDocument_FieldAndID(t *testing.T) {
	doc := testDocs()[1]

	assert.Equal(t, "2", doc.InternalID())
	assert.Equal(t, "d2", doc.Field(FieldDocNo))
	assert.Equal(t, "ting-yili", doc.Field(FieldAuthors))
	assert.Equal(t, "", doc.Field("unknown"))
}

func TestDocument_Validate(t *testing.T) {
	assert.NoError(t, (&Document{Seq: 1, DocNo: "1"}).Validate())
	assert.Error(t, (&Document{Seq: 0, DocNo: "1"}).Validate())
	assert.Error(t, (&Document{Seq: 3}).Validate())
}

func TestSortHits_ScoreThenSeq(t *testing.T) {
	// Given: hits with tied scores and ids that sort differently as text
	hits := []Hit{
		{InternalID: "10", Score: 1.0},
		{InternalID: "9", Score: 1.0},
		{InternalID: "3", Score: 2.5},
	}

	// When: sorting
	SortHits(hits)

	// Then: score descending, ties by numeric id
	assert.Equal(t, "3", hits[0].InternalID)
	assert.Equal(t, "9", hits[1].InternalID)
	assert.Equal(t, "10", hits[2].InternalID)
}

func TestHit_Seq(t *testing.T) {
	assert.Equal(t, 42, Hit{InternalID: "42"}.Seq())
	assert.Equal(t, 0, Hit{InternalID: "x"}.Seq())
}
