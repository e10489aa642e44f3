package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	"github.com/Aman-CERP/cranir/internal/ranking"
)

const (
	// BackendSQLite is the name of the SQLite FTS5 backend.
	BackendSQLite = "sqlite"

	sqliteFileName = "fts.db"
)

// sqliteModels are the models FTS5 can rank with.
var sqliteModels = []ranking.Model{ranking.BM25}

// SQLiteConfig configures the SQLite backend.
type SQLiteConfig struct {
	Analyzer  string
	BatchSize int
}

// SQLiteBackend stores indexes in a single SQLite database using FTS5.
// Text is tokenized in Go before it reaches FTS5, the same way for
// documents and queries; FTS5 then applies the porter stemmer.
type SQLiteBackend struct {
	cfg SQLiteConfig
}

// NewSQLiteBackend creates a SQLite backend.
func NewSQLiteBackend(cfg SQLiteConfig) *SQLiteBackend {
	if cfg.Analyzer == "" {
		cfg.Analyzer = AnalyzerEnglish
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	return &SQLiteBackend{cfg: cfg}
}

// Name implements IndexingBackend and SearchBackend.
func (b *SQLiteBackend) Name() string {
	return BackendSQLite
}

func sqlitePath(dir string) string {
	return filepath.Join(dir, sqliteFileName)
}

func ftsTokenizer(analyzer string) string {
	if analyzer == AnalyzerEnglish {
		return "porter unicode61"
	}
	return "unicode61"
}

// sqliteSchema returns the DDL for a fresh index.
func sqliteSchema(analyzer string) string {
	return `
	CREATE TABLE documents (
		seq      INTEGER PRIMARY KEY,
		docno    TEXT NOT NULL,
		title    TEXT NOT NULL,
		abstract TEXT NOT NULL
	);

	CREATE VIRTUAL TABLE fts USING fts5(
		` + strings.Join(TokenizedFields(), ",\n\t\t") + `,
		tokenize='` + ftsTokenizer(analyzer) + `'
	);
	`
}

// validateSQLiteIntegrity checks that db is intact and holds the cranir tables.
func validateSQLiteIntegrity(db *sql.DB) error {
	var result string
	if err := db.QueryRow("PRAGMA integrity_check").Scan(&result); err != nil {
		return fmt.Errorf("integrity check failed: %w", err)
	}
	if result != "ok" {
		return fmt.Errorf("database corrupted: %s", result)
	}

	var count int
	err := db.QueryRow(`SELECT COUNT(*) FROM sqlite_master
                       WHERE type='table' AND name IN ('documents', 'fts')`).Scan(&count)
	if err != nil {
		return fmt.Errorf("cannot query schema: %w", err)
	}
	if count != 2 {
		return fmt.Errorf("tables 'documents' and 'fts' missing")
	}
	return nil
}

func openSQLite(dsn string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Single connection: one writer, sequential readers.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)
	return db, nil
}

// OpenForWrite implements IndexingBackend.
func (b *SQLiteBackend) OpenForWrite(ctx context.Context, dir string) (IndexWriter, error) {
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

	path := sqlitePath(dir)
	db, err := openSQLite(path)
	if err != nil {
		_ = lock.Unlock()
		return nil, err
	}

	w := &sqliteWriter{
		dir:       dir,
		path:      path,
		cfg:       b.cfg,
		db:        db,
		lock:      lock,
		stopWords: stopWordsFor(b.cfg.Analyzer),
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA cache_size = -65536",
		"PRAGMA temp_store = MEMORY",
	}
	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = w.Abort()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}
	if _, err := db.ExecContext(ctx, sqliteSchema(b.cfg.Analyzer)); err != nil {
		_ = w.Abort()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	slog.Debug("sqlite_index_created", slog.String("path", path))
	return w, nil
}

// sqliteWriter inserts documents in transactions of BatchSize rows.
type sqliteWriter struct {
	mu        sync.Mutex
	dir       string
	path      string
	cfg       SQLiteConfig
	db        *sql.DB
	lock      *DirLock
	stopWords map[string]struct{}

	tx       *sql.Tx
	docStmt  *sql.Stmt
	ftsStmt  *sql.Stmt
	inTx     int
	count    int
	finished bool
}

func (w *sqliteWriter) begin(ctx context.Context) error {
	tx, err := w.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	docStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO documents(seq, docno, title, abstract) VALUES (?, ?, ?, ?)`)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("failed to prepare document statement: %w", err)
	}

	columns := TokenizedFields()
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(columns)+1), ", ")
	ftsStmt, err := tx.PrepareContext(ctx, fmt.Sprintf(
		`INSERT INTO fts(rowid, %s) VALUES (%s)`, strings.Join(columns, ", "), placeholders))
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("failed to prepare FTS statement: %w", err)
	}

	w.tx, w.docStmt, w.ftsStmt, w.inTx = tx, docStmt, ftsStmt, 0
	return nil
}

func (w *sqliteWriter) commitTx() error {
	if w.tx == nil {
		return nil
	}
	_ = w.docStmt.Close()
	_ = w.ftsStmt.Close()
	err := w.tx.Commit()
	w.tx, w.docStmt, w.ftsStmt = nil, nil, nil
	if err != nil {
		return fmt.Errorf("failed to commit batch: %w", err)
	}
	return nil
}

// Add implements IndexWriter.
func (w *sqliteWriter) Add(ctx context.Context, doc *Document) error {
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
	if w.tx == nil {
		if err := w.begin(ctx); err != nil {
			return err
		}
	}

	if _, err := w.docStmt.ExecContext(ctx, doc.Seq, doc.DocNo, doc.Title, doc.Abstract); err != nil {
		return fmt.Errorf("failed to store document %s: %w", doc.DocNo, err)
	}

	args := []any{doc.Seq}
	for _, field := range TokenizedFields() {
		args = append(args, strings.Join(analyze(doc.Field(field), w.stopWords), " "))
	}
	if _, err := w.ftsStmt.ExecContext(ctx, args...); err != nil {
		return fmt.Errorf("failed to index document %s: %w", doc.DocNo, err)
	}

	w.count++
	w.inTx++
	if w.inTx >= w.cfg.BatchSize {
		return w.commitTx()
	}
	return nil
}

// Commit implements IndexWriter.
func (w *sqliteWriter) Commit() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.finished {
		return ErrClosed
	}
	if err := w.commitTx(); err != nil {
		return err
	}

	finalize := []string{
		"INSERT INTO fts(fts) VALUES ('optimize')",
		"PRAGMA wal_checkpoint(TRUNCATE)",
		"PRAGMA journal_mode = DELETE",
	}
	for _, stmt := range finalize {
		if _, err := w.db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to finalize index: %w", err)
		}
	}
	if err := w.db.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}

	manifest := &Manifest{
		Backend:   BackendSQLite,
		Models:    sqliteModels,
		Analyzer:  w.cfg.Analyzer,
		Documents: w.count,
	}
	if err := writeManifest(w.dir, manifest); err != nil {
		return err
	}

	w.finished = true
	slog.Info("sqlite_index_committed",
		slog.String("path", w.path),
		slog.Int("documents", w.count))
	return w.lock.Unlock()
}

// Abort implements IndexWriter.
func (w *sqliteWriter) Abort() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.finished {
		return nil
	}
	w.finished = true

	if w.tx != nil {
		_ = w.docStmt.Close()
		_ = w.ftsStmt.Close()
		_ = w.tx.Rollback()
		w.tx = nil
	}
	_ = w.db.Close()

	err := RemoveArtifacts(w.dir)
	if unlockErr := w.lock.Unlock(); err == nil {
		err = unlockErr
	}

	slog.Warn("sqlite_index_aborted",
		slog.String("path", w.path),
		slog.Int("documents", w.count))
	return err
}

// OpenForRead implements SearchBackend.
func (b *SQLiteBackend) OpenForRead(ctx context.Context, dir string) (IndexReader, error) {
	manifest, err := ReadManifest(dir)
	if err != nil {
		return nil, err
	}
	if manifest.Backend != BackendSQLite {
		return nil, fmt.Errorf("%w: %s holds a %s index", ErrWrongBackend, dir, manifest.Backend)
	}

	path := sqlitePath(dir)
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%w: %s missing", ErrCorruptIndex, path)
	}

	lock, err := acquireShared(dir)
	if err != nil {
		return nil, err
	}

	db, err := openSQLite("file:" + path + "?mode=ro")
	if err != nil {
		_ = lock.Unlock()
		return nil, err
	}
	if err := validateSQLiteIntegrity(db); err != nil {
		_ = db.Close()
		_ = lock.Unlock()
		return nil, fmt.Errorf("%w: %s: %v", ErrCorruptIndex, path, err)
	}

	return &sqliteReader{
		dir:       dir,
		db:        db,
		manifest:  manifest,
		lock:      lock,
		stopWords: stopWordsFor(manifest.Analyzer),
	}, nil
}

// sqliteReader queries an FTS5 index.
type sqliteReader struct {
	mu        sync.RWMutex
	dir       string
	db        *sql.DB
	manifest  *Manifest
	lock      *DirLock
	stopWords map[string]struct{}
	closed    bool
}

// Parser implements IndexReader.
func (r *sqliteReader) Parser() QueryParser {
	return SQLiteQueryParser{stopWords: r.stopWords}
}

// Supports implements IndexReader.
func (r *sqliteReader) Supports(model ranking.Model) bool {
	return containsModel(sqliteModels, model)
}

// Models implements IndexReader.
func (r *sqliteReader) Models() []ranking.Model {
	return append([]ranking.Model(nil), sqliteModels...)
}

// Manifest implements IndexReader.
func (r *sqliteReader) Manifest() *Manifest {
	return r.manifest
}

// Search implements IndexReader.
// FTS5 bm25() returns negative values where lower is better; scores are
// negated so higher is better, consistent with bleve.
func (r *sqliteReader) Search(ctx context.Context, q ParsedQuery, model ranking.Model, maxHits int) ([]Hit, error) {
	sq, ok := q.(*sqliteQuery)
	if !ok {
		return nil, ErrForeignQuery
	}
	if !r.Supports(model) {
		return nil, fmt.Errorf("model %s is not available in sqlite indexes", model)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return nil, ErrClosed
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT fts.rowid, d.docno, -bm25(fts) AS score
		FROM fts JOIN documents d ON d.seq = fts.rowid
		WHERE fts MATCH ?
		ORDER BY score DESC, fts.rowid
		LIMIT ?`, sq.match, maxHits)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}
	defer rows.Close()

	var hits []Hit
	for rows.Next() {
		var seq int64
		var docNo string
		var score float64
		if err := rows.Scan(&seq, &docNo, &score); err != nil {
			return nil, fmt.Errorf("failed to scan result: %w", err)
		}
		hits = append(hits, Hit{
			InternalID: strconv.FormatInt(seq, 10),
			DocNo:      docNo,
			Score:      score,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}

	SortHits(hits)
	return hits, nil
}

// sqliteStoredColumns maps stored schema fields to columns of documents.
var sqliteStoredColumns = map[string]string{
	FieldDocNo:    "docno",
	FieldTitle:    "title",
	FieldAbstract: "abstract",
}

// StoredField implements IndexReader.
func (r *sqliteReader) StoredField(ctx context.Context, internalID, field string) (string, bool, error) {
	column, ok := sqliteStoredColumns[field]
	if !ok {
		return "", false, nil
	}
	seq, err := strconv.ParseInt(internalID, 10, 64)
	if err != nil {
		return "", false, nil
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return "", false, ErrClosed
	}

	var value string
	err = r.db.QueryRowContext(ctx, "SELECT "+column+" FROM documents WHERE seq = ?", seq).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to load document %s: %w", internalID, err)
	}
	return value, true, nil
}

// DocCount implements IndexReader.
func (r *sqliteReader) DocCount() (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return 0, ErrClosed
	}

	var count int
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM documents`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count documents: %w", err)
	}
	return count, nil
}

// Close implements IndexReader.
func (r *sqliteReader) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}
	r.closed = true

	err := r.db.Close()
	if unlockErr := r.lock.Unlock(); err == nil {
		err = unlockErr
	}
	return err
}

var (
	_ Backend     = (*SQLiteBackend)(nil)
	_ IndexWriter = (*sqliteWriter)(nil)
	_ IndexReader = (*sqliteReader)(nil)
)
