package cmd

import (
	"encoding/json"
	"io/fs"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/cranir/internal/output"
	"github.com/Aman-CERP/cranir/internal/profiling"
)

// indexInfo is the JSON shape of 'cranir index info --json'.
type indexInfo struct {
	Path          string    `json:"path"`
	Backend       string    `json:"backend"`
	Models        []string  `json:"models"`
	Analyzer      string    `json:"analyzer"`
	Documents     int       `json:"documents"`
	LiveDocuments int       `json:"live_documents"`
	SizeBytes     int64     `json:"size_bytes"`
	CreatedAt     time.Time `json:"created_at"`
	ToolVersion   string    `json:"tool_version"`
}

func newIndexInfoCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "info <index-dir>",
		Short: "Show index configuration and statistics",
		Long: `Display the manifest of a committed index: the backend that built it,
its scoring models and analyzer, and the document count recorded at commit
time next to the count the engine reports now.`,
		Args: exactArgs(1, "cranir index info <index-dir> [--json]"),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIndexInfo(cmd, args[0], jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")

	return cmd
}

func runIndexInfo(cmd *cobra.Command, dir string, jsonOutput bool) error {
	reader, err := openIndex(cmd.Context(), dir, 1)
	if err != nil {
		return err
	}
	defer func() { _ = reader.Close() }()

	live, err := reader.DocCount()
	if err != nil {
		return classifyReadError(dir, err)
	}

	m := reader.Manifest()
	info := indexInfo{
		Path:          dir,
		Backend:       m.Backend,
		Models:        make([]string, len(m.Models)),
		Analyzer:      m.Analyzer,
		Documents:     m.Documents,
		LiveDocuments: live,
		SizeBytes:     dirSize(dir),
		CreatedAt:     m.CreatedAt,
		ToolVersion:   m.ToolVersion,
	}
	for i, model := range m.Models {
		info.Models[i] = model.String()
	}

	if jsonOutput {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(info)
	}

	out := output.New(cmd.OutOrStdout())
	out.Statusf("📁", "Index: %s", dir)
	out.KeyValue("Backend", info.Backend)
	out.KeyValue("Models", joinModels(m.Models))
	out.KeyValue("Analyzer", info.Analyzer)
	out.KeyValue("Documents", info.Documents)
	out.KeyValue("Live documents", info.LiveDocuments)
	out.KeyValue("Size", profiling.FormatBytes(uint64(info.SizeBytes)))
	out.KeyValue("Created", info.CreatedAt.Format(time.RFC3339))
	out.KeyValue("Built by", info.ToolVersion)
	if info.LiveDocuments != info.Documents {
		out.Warningf("engine reports %d documents, manifest recorded %d", info.LiveDocuments, info.Documents)
	}
	return nil
}

// dirSize sums the sizes of the regular files under dir.
func dirSize(dir string) int64 {
	var total int64
	_ = filepath.WalkDir(dir, func(_ string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if info, err := d.Info(); err == nil {
			total += info.Size()
		}
		return nil
	})
	return total
}
