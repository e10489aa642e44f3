package store

import (
	"regexp"
	"strings"
)

// Analyzer names accepted by both backends.
const (
	AnalyzerEnglish  = "en"
	AnalyzerStandard = "standard"
)

// tokenRegex matches runs of letters and digits.
var tokenRegex = regexp.MustCompile(`[\p{L}\p{N}]+`)

// EnglishStopWords is the stop set of Lucene's EnglishAnalyzer, which the
// Cranfield experiments were originally run with.
var EnglishStopWords = []string{
	"a", "an", "and", "are", "as", "at", "be", "but", "by",
	"for", "if", "in", "into", "is", "it",
	"no", "not", "of", "on", "or", "such",
	"that", "the", "their", "then", "there", "these",
	"they", "this", "to", "was", "will", "with",
}

// ValidAnalyzer reports whether name is a supported analyzer.
func ValidAnalyzer(name string) bool {
	return name == AnalyzerEnglish || name == AnalyzerStandard
}

// Tokenize splits text into lowercased letter/digit runs.
func Tokenize(text string) []string {
	words := tokenRegex.FindAllString(text, -1)
	tokens := make([]string, 0, len(words))
	for _, w := range words {
		tokens = append(tokens, strings.ToLower(w))
	}
	return tokens
}

// FilterStopWords removes stop words from a token list.
func FilterStopWords(tokens []string, stopWords map[string]struct{}) []string {
	if len(stopWords) == 0 {
		return tokens
	}
	result := make([]string, 0, len(tokens))
	for _, token := range tokens {
		if _, isStop := stopWords[token]; !isStop {
			result = append(result, token)
		}
	}
	return result
}

// BuildStopWordMap converts a slice of stop words to a map for efficient lookup.
func BuildStopWordMap(stopWords []string) map[string]struct{} {
	m := make(map[string]struct{}, len(stopWords))
	for _, word := range stopWords {
		m[strings.ToLower(word)] = struct{}{}
	}
	return m
}

// stopWordsFor returns the stop set applied by the named analyzer.
func stopWordsFor(analyzer string) map[string]struct{} {
	if analyzer == AnalyzerEnglish {
		return BuildStopWordMap(EnglishStopWords)
	}
	return nil
}

// analyze tokenizes text and drops stop words.
func analyze(text string, stopWords map[string]struct{}) []string {
	return FilterStopWords(Tokenize(text), stopWords)
}
