package search

import (
	"fmt"
	"strings"

	cranerrors "github.com/Aman-CERP/cranir/internal/errors"
	"github.com/Aman-CERP/cranir/internal/ranking"
	"github.com/Aman-CERP/cranir/internal/store"
)

// ResolveModel picks the ranking model for a batch. An empty name selects
// the default. An unrecognized name, or a model the index cannot serve,
// resolves to bm25 and returns a recoverable ConfigError describing the
// fallback. If the index has no bm25 scoring either, its first model is used.
func ResolveModel(name string, reader store.IndexReader) (ranking.Model, *cranerrors.CranError) {
	fallback := fallbackModel(reader)

	if strings.TrimSpace(name) == "" {
		if fallback != ranking.Default {
			return fallback, modelUnavailable(ranking.Default, fallback)
		}
		return fallback, nil
	}

	m, ok := ranking.Parse(name)
	if !ok {
		return fallback, cranerrors.New(cranerrors.ErrCodeUnknownModel,
			fmt.Sprintf("unknown ranking model %q, using %s", name, fallback), nil).
			WithDetail("requested", name).
			WithDetail("model", fallback.String()).
			WithSuggestion("Known models: classic, bm25, lm-dirichlet, dfr")
	}
	if !reader.Supports(m) {
		return fallback, modelUnavailable(m, fallback)
	}
	return m, nil
}

func fallbackModel(reader store.IndexReader) ranking.Model {
	if reader.Supports(ranking.Default) {
		return ranking.Default
	}
	if models := reader.Models(); len(models) > 0 {
		return models[0]
	}
	return ranking.Default
}

func modelUnavailable(requested, fallback ranking.Model) *cranerrors.CranError {
	return cranerrors.New(cranerrors.ErrCodeModelFallback,
		fmt.Sprintf("ranking model %s is not available in this index, using %s", requested, fallback), nil).
		WithDetail("requested", requested.String()).
		WithDetail("model", fallback.String()).
		WithSuggestion("Rebuild the index with --models " + requested.String() + " if the engine supports it")
}
