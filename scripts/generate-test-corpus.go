//go:build ignore

// Package main generates a synthetic Cranfield-format corpus and query file
// for benchmarking the index and search pipelines at sizes beyond the real
// 1400-document collection.
//
// Usage: go run scripts/generate-test-corpus.go -docs 50000 -queries 225 -output testdata/bench
package main

import (
	"bufio"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
)

var (
	numDocs    = flag.Int("docs", 10000, "Number of documents to generate")
	numQueries = flag.Int("queries", 225, "Number of queries to generate")
	outputDir  = flag.String("output", "testdata/bench", "Output directory")
	seed       = flag.Int64("seed", 42, "Random seed for reproducibility")
)

// vocabulary approximates the aerodynamics terms of the Cranfield abstracts.
var vocabulary = strings.Fields(`
aerodynamic airfoil angle attack axial blade body boundary buckling compressible
cone cylinder delta density drag dynamic edge effect equations experimental flat
flow fluid flutter free heat hypersonic incompressible inviscid jet laminar layer
leading lift load mach method model nozzle number numerical panel plate pressure
propeller ratio reynolds separation shear shell shock skin slender slipstream
solution speed stability stagnation steady subsonic supersonic surface swept
temperature theory thickness thin transfer transition turbulent unsteady velocity
viscous vortex wake wall wave wing yawed`)

var authors = []string{
	"brenckman,m.", "ting-yili", "m. b. glauert", "sparrow,e.m. and gregg,j.l.",
	"lilley,g.m.", "mirels,h.", "young,a.d.", "hayes,w.d.", "lighthill,m.j.",
}

func main() {
	flag.Parse()
	rng := rand.New(rand.NewSource(*seed))

	if err := os.MkdirAll(*outputDir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "failed to create output directory: %v\n", err)
		os.Exit(1)
	}

	corpus := filepath.Join(*outputDir, "cran.all")
	if err := writeFile(corpus, func(w *bufio.Writer) { writeDocuments(w, rng, *numDocs) }); err != nil {
		fmt.Fprintf(os.Stderr, "failed to write corpus: %v\n", err)
		os.Exit(1)
	}

	queries := filepath.Join(*outputDir, "cran.qry")
	if err := writeFile(queries, func(w *bufio.Writer) { writeQueries(w, rng, *numQueries) }); err != nil {
		fmt.Fprintf(os.Stderr, "failed to write queries: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Generated %d documents in %s\n", *numDocs, corpus)
	fmt.Printf("Generated %d queries in %s\n", *numQueries, queries)
}

func writeFile(path string, fill func(w *bufio.Writer)) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(f)
	fill(w)
	if err := w.Flush(); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func writeDocuments(w *bufio.Writer, rng *rand.Rand, n int) {
	for i := 1; i <= n; i++ {
		fmt.Fprintf(w, ".I %d\n", i)
		fmt.Fprintf(w, ".T\n%s\n", sentence(rng, 6+rng.Intn(10)))
		fmt.Fprintf(w, ".A\n%s\n", authors[rng.Intn(len(authors))])
		fmt.Fprintf(w, ".B\nj. ae. scs. %d, %d, %d.\n", 10+rng.Intn(20), 1940+rng.Intn(30), 1+rng.Intn(900))
		w.WriteString(".W\n")
		// Abstracts wrap at a few words per line like the original file.
		words := 40 + rng.Intn(160)
		for words > 0 {
			line := 8 + rng.Intn(6)
			if line > words {
				line = words
			}
			fmt.Fprintln(w, sentence(rng, line))
			words -= line
		}
	}
}

func writeQueries(w *bufio.Writer, rng *rand.Rand, n int) {
	for i := 1; i <= n; i++ {
		fmt.Fprintf(w, ".I %03d\n.W\n%s ?\n", i, sentence(rng, 5+rng.Intn(15)))
	}
}

func sentence(rng *rand.Rand, words int) string {
	parts := make([]string, words)
	for i := range parts {
		parts[i] = vocabulary[rng.Intn(len(vocabulary))]
	}
	return strings.Join(parts, " ")
}
