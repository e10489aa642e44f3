// Package preflight validates the environment before an indexing or search
// run starts.
//
// The package validates:
//   - Corpus and query files exist, are readable and hold Cranfield records
//   - The index directory is writable
//   - Disk space availability (minimum 100MB)
//   - File descriptor limits (minimum 1024)
//   - An existing index has a valid manifest
//
// Use the Checker type to run all validations:
//
//	checker := preflight.New()
//	results := checker.RunAll(ctx, preflight.Targets{Corpus: "cran.all.1400", IndexDir: "index"})
//	if checker.HasCriticalFailures(results) {
//	    // Handle failures
//	}
package preflight
