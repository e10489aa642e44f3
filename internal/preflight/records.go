package preflight

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/Aman-CERP/cranir/internal/cranfield"
	"github.com/Aman-CERP/cranir/internal/store"
)

// CheckRecords checks that path is a readable Cranfield file holding at
// least one record. name labels the result ("corpus" or "queries").
func (c *Checker) CheckRecords(ctx context.Context, name, path string, mode cranfield.Mode) CheckResult {
	result := CheckResult{
		Name:     name,
		Required: true,
	}

	info, err := os.Stat(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		result.Status = StatusFail
		result.Message = fmt.Sprintf("%s not found", path)
		return result
	case err != nil:
		result.Status = StatusFail
		result.Message = fmt.Sprintf("cannot access %s: %v", path, err)
		return result
	case info.IsDir():
		result.Status = StatusFail
		result.Message = fmt.Sprintf("%s is a directory", path)
		return result
	}

	if err := ctx.Err(); err != nil {
		result.Status = StatusFail
		result.Message = err.Error()
		return result
	}

	count, err := cranfield.CountRecordsFile(path)
	if err != nil {
		result.Status = StatusFail
		result.Message = fmt.Sprintf("cannot read %s: %v", path, err)
		return result
	}

	unit := "documents"
	if mode == cranfield.ModeQuery {
		unit = "queries"
	}
	if count == 0 {
		result.Status = StatusWarn
		result.Message = fmt.Sprintf("%s holds no .I records", path)
		result.Details = "Cranfield files start every record with a line '.I <id>'"
		return result
	}

	result.Status = StatusPass
	result.Message = fmt.Sprintf("%d %s in %s", count, unit, path)
	return result
}

// CheckIndex inspects the index manifest in dir. When required is false a
// missing index passes, since a build will create it.
func (c *Checker) CheckIndex(dir string, required bool) CheckResult {
	result := CheckResult{
		Name:     "index",
		Required: required,
	}

	m, err := store.ReadManifest(dir)
	switch {
	case errors.Is(err, store.ErrNoIndex):
		if backend, _ := store.DetectBackend(dir); backend != "" {
			result.Status = StatusWarn
			result.Message = fmt.Sprintf("incomplete %s index in %s", backend, dir)
			result.Details = "A previous build did not finish. Run 'cranir index' again"
			if required {
				result.Status = StatusFail
			}
			return result
		}
		if required {
			result.Status = StatusFail
			result.Message = fmt.Sprintf("no index in %s", dir)
			result.Details = "Build one with 'cranir index --corpus <file> --index " + dir + "'"
			return result
		}
		result.Status = StatusPass
		result.Message = "no index yet"
		return result
	case err != nil:
		result.Status = StatusFail
		result.Message = err.Error()
		result.Details = "Rebuild the index with 'cranir index'"
		return result
	}

	result.Status = StatusPass
	result.Message = fmt.Sprintf("%s index, %d documents, models %v", m.Backend, m.Documents, m.Models)
	return result
}
