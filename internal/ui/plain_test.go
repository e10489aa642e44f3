package ui

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPlainRenderer_UpdateProgress_OutputFormat(t *testing.T) {
	// Given: a plain renderer
	buf := &bytes.Buffer{}
	r := NewPlainRenderer(NewConfig(buf))

	// When: updating progress
	r.UpdateProgress(ProgressEvent{Stage: StageIndexing, Current: 50, Total: 1400, Item: "50"})

	// Then: output is correctly formatted
	assert.Equal(t, "[INDEX] 50/1400 - 50\n", buf.String())
}

func TestPlainRenderer_UpdateProgress_Variants(t *testing.T) {
	tests := []struct {
		name  string
		event ProgressEvent
		want  string
	}{
		{"count only", ProgressEvent{Stage: StageSearching, Current: 3, Total: 225}, "[SEARCH] 3/225\n"},
		{"message only", ProgressEvent{Stage: StageCommitting, Message: "flushing"}, "[COMMIT] flushing\n"},
		{"unknown total", ProgressEvent{Stage: StageIndexing, Current: 100}, "[INDEX] 100 documents\n"},
		{"nothing to say", ProgressEvent{Stage: StageIndexing}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			NewPlainRenderer(NewConfig(buf)).UpdateProgress(tt.event)
			assert.Equal(t, tt.want, buf.String())
		})
	}
}

func TestPlainRenderer_UpdateProgress_NoANSICodes(t *testing.T) {
	buf := &bytes.Buffer{}
	r := NewPlainRenderer(NewConfig(buf))

	for _, stage := range []Stage{StageIndexing, StageCommitting, StageSearching, StageWriting, StageComplete} {
		r.UpdateProgress(ProgressEvent{Stage: stage, Current: 50, Total: 100, Message: "working"})
	}

	assert.NotContains(t, buf.String(), "\x1b[")
}

func TestPlainRenderer_AddError(t *testing.T) {
	// Given: a plain renderer
	buf := &bytes.Buffer{}
	r := NewPlainRenderer(NewConfig(buf))

	// When: adding a warning for an item and an error without one
	r.AddError(ErrorEvent{Item: "query 12", Err: errors.New("cannot parse"), IsWarn: true})
	r.AddError(ErrorEvent{Err: errors.New("disk full")})

	// Then: both are formatted with their prefix
	assert.Equal(t, "WARN: query 12: cannot parse\nERROR: disk full\n", buf.String())
}

func TestPlainRenderer_Complete_Indexing(t *testing.T) {
	buf := &bytes.Buffer{}
	r := NewPlainRenderer(NewConfig(buf))

	r.Complete(CompletionStats{Title: "Indexing complete", Documents: 1400, Duration: 2 * time.Second})

	assert.Equal(t, "Indexing complete: 1400 documents in 2s\n", buf.String())
}

func TestPlainRenderer_Complete_SearchWithWarnings(t *testing.T) {
	buf := &bytes.Buffer{}
	r := NewPlainRenderer(NewConfig(buf))

	r.Complete(CompletionStats{
		Title:    "Search complete",
		Queries:  225,
		Hits:     22500,
		Skipped:  1,
		Duration: 1500 * time.Millisecond,
		Warnings: 2,
	})

	assert.Equal(t, "Search complete: 225 queries, 22500 hits, 1 skipped in 1.5s (0 errors, 2 warnings)\n", buf.String())
}
