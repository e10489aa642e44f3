package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/analysis/lang/en"
	"github.com/blevesearch/bleve/v2/mapping"
	index "github.com/blevesearch/bleve_index_api"

	"github.com/Aman-CERP/cranir/internal/ranking"
)

const (
	// BackendBleve is the name of the bleve backend.
	BackendBleve = "bleve"

	// bleveExt is the suffix of per-model sub-index directories.
	bleveExt = ".bleve"

	// DefaultBatchSize is the number of documents per engine batch.
	DefaultBatchSize = 100
)

// bleveModels are the scoring models bleve can bind to a mapping.
var bleveModels = []ranking.Model{ranking.Classic, ranking.BM25}

// BleveConfig configures the bleve backend.
type BleveConfig struct {
	// Models are materialized as one sub-index each.
	Models    []ranking.Model
	Analyzer  string
	BatchSize int
}

// DefaultBleveConfig returns the default bleve configuration.
func DefaultBleveConfig() BleveConfig {
	return BleveConfig{
		Models:    []ranking.Model{ranking.Classic, ranking.BM25},
		Analyzer:  AnalyzerEnglish,
		BatchSize: DefaultBatchSize,
	}
}

// BleveBackend stores indexes with bleve v2.
// bleve fixes the scoring model in the index mapping, so every requested
// model gets its own sub-index (<dir>/<model>.bleve) over the same documents.
type BleveBackend struct {
	cfg BleveConfig
}

// NewBleveBackend creates a bleve backend. Models bleve cannot score with
// are dropped with a warning; with none left, BM25 is used.
func NewBleveBackend(cfg BleveConfig) *BleveBackend {
	if cfg.Analyzer == "" {
		cfg.Analyzer = AnalyzerEnglish
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}

	var models []ranking.Model
	for _, m := range cfg.Models {
		if !containsModel(bleveModels, m) {
			slog.Warn("bleve_model_unavailable",
				slog.String("model", m.String()),
				slog.String("fallback", ranking.Default.String()))
			continue
		}
		if !containsModel(models, m) {
			models = append(models, m)
		}
	}
	if len(models) == 0 {
		models = []ranking.Model{ranking.Default}
	}
	cfg.Models = models

	return &BleveBackend{cfg: cfg}
}

// Name implements IndexingBackend and SearchBackend.
func (b *BleveBackend) Name() string {
	return BackendBleve
}

// Config returns the effective configuration.
func (b *BleveBackend) Config() BleveConfig {
	return b.cfg
}

func bleveIndexPath(dir string, model ranking.Model) string {
	return filepath.Join(dir, string(model)+bleveExt)
}

// buildBleveMapping creates a static mapping from Schema with the scoring
// model bound to it.
func buildBleveMapping(model ranking.Model, analyzer string) (*mapping.IndexMappingImpl, error) {
	analyzerName := en.AnalyzerName
	if analyzer == AnalyzerStandard {
		analyzerName = standard.Name
	}

	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultAnalyzer = analyzerName
	indexMapping.StoreDynamic = false
	indexMapping.IndexDynamic = false
	indexMapping.DocValuesDynamic = false
	if model == ranking.BM25 {
		indexMapping.ScoringModel = index.BM25Scoring
	}

	docMapping := bleve.NewDocumentStaticMapping()
	for _, f := range Schema {
		var fm *mapping.FieldMapping
		if f.Tokenized {
			fm = bleve.NewTextFieldMapping()
			fm.Analyzer = analyzerName
		} else {
			fm = bleve.NewKeywordFieldMapping()
			fm.Analyzer = keyword.Name
		}
		fm.Store = f.Stored
		fm.IncludeInAll = false
		fm.IncludeTermVectors = false
		fm.DocValues = false
		docMapping.AddFieldMappingsAt(f.Name, fm)
	}
	indexMapping.DefaultMapping = docMapping

	if err := indexMapping.Validate(); err != nil {
		return nil, fmt.Errorf("invalid index mapping: %w", err)
	}
	return indexMapping, nil
}

// bleveFields converts a document to the field map bleve indexes.
func bleveFields(doc *Document) map[string]interface{} {
	fields := make(map[string]interface{}, len(Schema))
	for _, f := range Schema {
		fields[f.Name] = doc.Field(f.Name)
	}
	return fields
}

// OpenForWrite implements IndexingBackend.
func (b *BleveBackend) OpenForWrite(ctx context.Context, dir string) (IndexWriter, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create index directory %s: %w", dir, err)
	}

	lock := NewDirLock(dir)
	if err := lock.TryLock(); err != nil {
		return nil, err
	}

	if err := RemoveArtifacts(dir); err != nil {
		_ = lock.Unlock()
		return nil, err
	}

	w := &bleveWriter{dir: dir, cfg: b.cfg, lock: lock}
	for _, model := range b.cfg.Models {
		indexMapping, err := buildBleveMapping(model, b.cfg.Analyzer)
		if err != nil {
			_ = w.Abort()
			return nil, err
		}

		path := bleveIndexPath(dir, model)
		idx, err := bleve.New(path, indexMapping)
		if err != nil {
			_ = w.Abort()
			return nil, fmt.Errorf("failed to create index %s: %w", path, err)
		}
		w.subs = append(w.subs, &bleveSubIndex{model: model, path: path, index: idx, batch: idx.NewBatch()})

		slog.Debug("bleve_index_created",
			slog.String("path", path),
			slog.String("model", model.String()))
	}

	return w, nil
}

type bleveSubIndex struct {
	model ranking.Model
	path  string
	index bleve.Index
	batch *bleve.Batch
}

func (s *bleveSubIndex) flush() error {
	if s.batch.Size() == 0 {
		return nil
	}
	if err := s.index.Batch(s.batch); err != nil {
		return fmt.Errorf("failed to execute batch on %s: %w", s.path, err)
	}
	s.batch.Reset()
	return nil
}

// bleveWriter adds each document to every sub-index.
type bleveWriter struct {
	mu       sync.Mutex
	dir      string
	cfg      BleveConfig
	lock     *DirLock
	subs     []*bleveSubIndex
	count    int
	finished bool
}

// Add implements IndexWriter.
func (w *bleveWriter) Add(ctx context.Context, doc *Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := doc.Validate(); err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.finished {
		return ErrClosed
	}

	fields := bleveFields(doc)
	for _, sub := range w.subs {
		if err := sub.batch.Index(doc.InternalID(), fields); err != nil {
			return fmt.Errorf("failed to index document %s: %w", doc.DocNo, err)
		}
		if sub.batch.Size() >= w.cfg.BatchSize {
			if err := sub.flush(); err != nil {
				return err
			}
		}
	}
	w.count++
	return nil
}

// Commit implements IndexWriter.
func (w *bleveWriter) Commit() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.finished {
		return ErrClosed
	}

	for _, sub := range w.subs {
		if err := sub.flush(); err != nil {
			return err
		}
	}
	for _, sub := range w.subs {
		if err := sub.index.Close(); err != nil {
			return fmt.Errorf("failed to close index %s: %w", sub.path, err)
		}
	}

	manifest := &Manifest{
		Backend:   BackendBleve,
		Models:    w.cfg.Models,
		Analyzer:  w.cfg.Analyzer,
		Documents: w.count,
	}
	if err := writeManifest(w.dir, manifest); err != nil {
		return err
	}

	w.finished = true
	slog.Info("bleve_index_committed",
		slog.String("dir", w.dir),
		slog.Int("documents", w.count))
	return w.lock.Unlock()
}

// Abort implements IndexWriter.
func (w *bleveWriter) Abort() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.finished {
		return nil
	}
	w.finished = true

	for _, sub := range w.subs {
		_ = sub.index.Close()
	}
	err := RemoveArtifacts(w.dir)
	if unlockErr := w.lock.Unlock(); err == nil {
		err = unlockErr
	}

	slog.Warn("bleve_index_aborted",
		slog.String("dir", w.dir),
		slog.Int("documents", w.count))
	return err
}

// OpenForRead implements SearchBackend.
func (b *BleveBackend) OpenForRead(ctx context.Context, dir string) (IndexReader, error) {
	manifest, err := ReadManifest(dir)
	if err != nil {
		return nil, err
	}
	if manifest.Backend != BackendBleve {
		return nil, fmt.Errorf("%w: %s holds a %s index", ErrWrongBackend, dir, manifest.Backend)
	}

	lock, err := acquireShared(dir)
	if err != nil {
		return nil, err
	}

	r := &bleveReader{
		dir:      dir,
		manifest: manifest,
		lock:     lock,
		indexes:  make(map[ranking.Model]bleve.Index, len(manifest.Models)),
	}
	for _, model := range manifest.Models {
		path := bleveIndexPath(dir, model)
		idx, err := bleve.Open(path)
		if err != nil {
			_ = r.Close()
			if errors.Is(err, bleve.ErrorIndexPathDoesNotExist) {
				return nil, fmt.Errorf("%w: sub-index %s missing", ErrCorruptIndex, path)
			}
			return nil, fmt.Errorf("%w: %s: %v", ErrCorruptIndex, path, err)
		}
		r.indexes[model] = idx
		r.order = append(r.order, model)
	}

	return r, nil
}

// acquireShared takes the shared lock on dir. A directory the process may
// not write to is opened unlocked.
func acquireShared(dir string) (*DirLock, error) {
	lock := NewDirLock(dir)
	err := lock.TryRLock()
	if err != nil && errors.Is(err, os.ErrPermission) {
		slog.Debug("index_lock_skipped",
			slog.String("dir", dir),
			slog.String("reason", "read-only directory"))
		return lock, nil
	}
	if err != nil {
		return nil, err
	}
	return lock, nil
}

// bleveReader queries the sub-indexes of one directory.
type bleveReader struct {
	mu       sync.RWMutex
	dir      string
	manifest *Manifest
	lock     *DirLock
	indexes  map[ranking.Model]bleve.Index
	order    []ranking.Model
	closed   bool
}

// Parser implements IndexReader.
func (r *bleveReader) Parser() QueryParser {
	return BleveQueryParser{}
}

// Supports implements IndexReader.
func (r *bleveReader) Supports(model ranking.Model) bool {
	_, ok := r.indexes[model]
	return ok
}

// Models implements IndexReader.
func (r *bleveReader) Models() []ranking.Model {
	return append([]ranking.Model(nil), r.order...)
}

// Manifest implements IndexReader.
func (r *bleveReader) Manifest() *Manifest {
	return r.manifest
}

// Search implements IndexReader.
func (r *bleveReader) Search(ctx context.Context, q ParsedQuery, model ranking.Model, maxHits int) ([]Hit, error) {
	bq, ok := q.(*bleveQuery)
	if !ok {
		return nil, ErrForeignQuery
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return nil, ErrClosed
	}
	idx, ok := r.indexes[model]
	if !ok {
		return nil, fmt.Errorf("model %s is not materialized in %s", model, r.dir)
	}

	req := bleve.NewSearchRequestOptions(bq.query, maxHits, 0, false)
	req.SortBy([]string{"-_score", "_id"})

	result, err := idx.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}

	hits := make([]Hit, 0, len(result.Hits))
	for _, h := range result.Hits {
		hits = append(hits, Hit{InternalID: h.ID, Score: h.Score})
	}
	SortHits(hits)
	return hits, nil
}

// StoredField implements IndexReader.
func (r *bleveReader) StoredField(ctx context.Context, internalID, field string) (string, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return "", false, ErrClosed
	}
	if len(r.order) == 0 {
		return "", false, nil
	}

	doc, err := r.indexes[r.order[0]].Document(internalID)
	if err != nil {
		return "", false, fmt.Errorf("failed to load document %s: %w", internalID, err)
	}
	if doc == nil {
		return "", false, nil
	}

	var value string
	var found bool
	doc.VisitFields(func(f index.Field) {
		if !found && f.Name() == field {
			value = string(f.Value())
			found = true
		}
	})
	return value, found, nil
}

// DocCount implements IndexReader.
func (r *bleveReader) DocCount() (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return 0, ErrClosed
	}
	if len(r.order) == 0 {
		return 0, nil
	}
	n, err := r.indexes[r.order[0]].DocCount()
	if err != nil {
		return 0, fmt.Errorf("failed to count documents: %w", err)
	}
	return int(n), nil
}

// Close implements IndexReader.
func (r *bleveReader) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}
	r.closed = true

	var firstErr error
	for _, model := range r.order {
		if err := r.indexes[model].Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if err := r.lock.Unlock(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

func containsModel(models []ranking.Model, m ranking.Model) bool {
	for _, x := range models {
		if x == m {
			return true
		}
	}
	return false
}

var (
	_ Backend     = (*BleveBackend)(nil)
	_ IndexWriter = (*bleveWriter)(nil)
	_ IndexReader = (*bleveReader)(nil)
)
