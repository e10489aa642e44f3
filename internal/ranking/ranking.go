// Package ranking names the similarity models a search can ask for.
// The scoring itself is done by the index engine.
package ranking

import "strings"

// Model identifies a ranking model.
type Model string

const (
	// Classic is the vector-space TF-IDF model.
	Classic Model = "classic"
	// BM25 is Okapi BM25.
	BM25 Model = "bm25"
	// LMDirichlet is a language model with Dirichlet smoothing.
	LMDirichlet Model = "lm-dirichlet"
	// DFR is divergence from randomness.
	DFR Model = "dfr"
)

// Default is used when a requested model is unknown or unavailable.
const Default = BM25

var aliases = map[string]Model{
	"classic":                    Classic,
	"tfidf":                      Classic,
	"tf-idf":                     Classic,
	"vsm":                        Classic,
	"vector":                     Classic,
	"bm25":                       BM25,
	"okapi":                      BM25,
	"okapi-bm25":                 BM25,
	"lm-dirichlet":               LMDirichlet,
	"lmdirichlet":                LMDirichlet,
	"dirichlet":                  LMDirichlet,
	"language-model-dirichlet":   LMDirichlet,
	"dfr":                        DFR,
	"divergence-from-randomness": DFR,
}

// Parse resolves a model name or alias, case-insensitively.
// Underscores and spaces are treated as dashes.
func Parse(name string) (Model, bool) {
	key := strings.ToLower(strings.TrimSpace(name))
	key = strings.NewReplacer("_", "-", " ", "-").Replace(key)
	m, ok := aliases[key]
	return m, ok
}

// All returns every known model in a stable order.
func All() []Model {
	return []Model{Classic, BM25, LMDirichlet, DFR}
}

// String implements fmt.Stringer.
func (m Model) String() string {
	return string(m)
}

// Description returns a one-line description of the model.
func (m Model) Description() string {
	switch m {
	case Classic:
		return "vector-space TF-IDF (cosine-style) scoring"
	case BM25:
		return "Okapi BM25 probabilistic scoring"
	case LMDirichlet:
		return "language model with Dirichlet smoothing"
	case DFR:
		return "divergence from randomness"
	default:
		return "unknown model"
	}
}

// ParseList resolves a comma separated list of names, dropping duplicates.
// Unknown names are returned separately.
func ParseList(names []string) (models []Model, unknown []string) {
	seen := make(map[Model]bool)
	for _, raw := range names {
		for _, name := range strings.Split(raw, ",") {
			if strings.TrimSpace(name) == "" {
				continue
			}
			m, ok := Parse(name)
			if !ok {
				unknown = append(unknown, strings.TrimSpace(name))
				continue
			}
			if !seen[m] {
				seen[m] = true
				models = append(models, m)
			}
		}
	}
	return models, unknown
}
