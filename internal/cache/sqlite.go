package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"

	"github.com/cppindex/cppindex/internal/symbol"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS symbols (
	usr TEXT,
	identity_key TEXT NOT NULL,
	name TEXT NOT NULL,
	qualified_name TEXT NOT NULL,
	kind TEXT NOT NULL,
	file TEXT NOT NULL,
	is_definition INTEGER NOT NULL,
	is_project INTEGER NOT NULL,
	payload TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_symbols_name ON symbols(name);
CREATE INDEX IF NOT EXISTS idx_symbols_qualified_name ON symbols(qualified_name);
CREATE INDEX IF NOT EXISTS idx_symbols_file ON symbols(file);
CREATE INDEX IF NOT EXISTS idx_symbols_usr ON symbols(usr);

CREATE TABLE IF NOT EXISTS file_metadata (
	file_path TEXT PRIMARY KEY,
	file_hash TEXT NOT NULL,
	compile_args_hash TEXT NOT NULL,
	indexed_at TEXT NOT NULL,
	symbol_count INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS file_dependencies (
	source_file TEXT NOT NULL,
	included_file TEXT NOT NULL,
	is_direct INTEGER NOT NULL DEFAULT 1,
	include_depth INTEGER NOT NULL DEFAULT 1,
	detected_at TEXT NOT NULL,
	UNIQUE(source_file, included_file)
);
CREATE INDEX IF NOT EXISTS idx_deps_source ON file_dependencies(source_file);
CREATE INDEX IF NOT EXISTS idx_deps_included ON file_dependencies(included_file);

CREATE TABLE IF NOT EXISTS header_tracker (
	header_path TEXT PRIMARY KEY,
	content_hash TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS meta (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
`

// SQLiteBackend is the relational/embedded store. It is the only backend
// that supports FindTransitiveDependents at full performance, via a
// recursive common table expression.
type SQLiteBackend struct {
	db *sql.DB
}

// OpenSQLite opens (creating if absent) a SQLite-backed cache at path.
func OpenSQLite(path string) (*SQLiteBackend, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, errors.Wrapf(err, "creating cache directory %q", dir)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening sqlite cache %q", path)
	}
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{
		"PRAGMA busy_timeout = 5000",
		"PRAGMA journal_mode = WAL",
		"PRAGMA foreign_keys = ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, errors.Wrapf(err, "applying %q", pragma)
		}
	}

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "creating sqlite schema")
	}

	return &SQLiteBackend{db: db}, nil
}

func (b *SQLiteBackend) SupportsTransitiveDependents() bool { return true }

func (b *SQLiteBackend) Close() error { return b.db.Close() }

type symbolPayload struct {
	Line          int                         `json:"line"`
	Column        int                         `json:"column"`
	StartLine     int                         `json:"start_line"`
	EndLine       int                         `json:"end_line"`
	Namespace     string                      `json:"namespace"`
	Signature     *symbol.Signature           `json:"signature,omitempty"`
	ParentClass   string                      `json:"parent_class,omitempty"`
	Access        symbol.Access               `json:"access,omitempty"`
	Bases         []string                    `json:"bases,omitempty"`
	IsVirtual     bool                        `json:"is_virtual,omitempty"`
	IsPureVirtual bool                        `json:"is_pure_virtual,omitempty"`
	IsStatic      bool                        `json:"is_static,omitempty"`
	IsConst       bool                        `json:"is_const,omitempty"`
	IsTemplate        bool                              `json:"is_template,omitempty"`
	TemplateKind      symbol.TemplateKind               `json:"template_kind,omitempty"`
	TemplateParameters []symbol.TemplateParameter       `json:"template_parameters,omitempty"`
	PrimaryTemplateUSR string                           `json:"primary_template_usr,omitempty"`
	DocBrief          string                            `json:"doc_brief,omitempty"`
	DocFull           string                            `json:"doc_full,omitempty"`
}

func toPayload(s symbol.Symbol) symbolPayload {
	return symbolPayload{
		Line: s.Line, Column: s.Column, StartLine: s.StartLine, EndLine: s.EndLine,
		Namespace: s.Namespace, Signature: s.Signature, ParentClass: s.ParentClass,
		Access: s.Access, Bases: s.Bases, IsVirtual: s.IsVirtual, IsPureVirtual: s.IsPureVirtual,
		IsStatic: s.IsStatic, IsConst: s.IsConst, IsTemplate: s.IsTemplate,
		TemplateKind: s.TemplateKind, TemplateParameters: s.TemplateParameters,
		PrimaryTemplateUSR: s.PrimaryTemplateUSR, DocBrief: s.DocBrief, DocFull: s.DocFull,
	}
}

func fromRow(usr, name, qualifiedName, kind, file string, isDefinition, isProject bool, payloadJSON string) (symbol.Symbol, error) {
	var p symbolPayload
	if err := json.Unmarshal([]byte(payloadJSON), &p); err != nil {
		return symbol.Symbol{}, errors.Wrap(err, "decoding symbol payload")
	}
	return symbol.Symbol{
		USR: usr, Name: name, QualifiedName: qualifiedName, Namespace: p.Namespace,
		Kind: symbol.Kind(kind), File: file, Line: p.Line, Column: p.Column,
		StartLine: p.StartLine, EndLine: p.EndLine, Signature: p.Signature,
		ParentClass: p.ParentClass, Access: p.Access, Bases: p.Bases,
		IsVirtual: p.IsVirtual, IsPureVirtual: p.IsPureVirtual, IsStatic: p.IsStatic, IsConst: p.IsConst,
		IsDefinition: isDefinition, IsProject: isProject, IsTemplate: p.IsTemplate,
		TemplateKind: p.TemplateKind, TemplateParameters: p.TemplateParameters,
		PrimaryTemplateUSR: p.PrimaryTemplateUSR, DocBrief: p.DocBrief, DocFull: p.DocFull,
	}, nil
}

// WriteFileSymbols atomically replaces everything rooted at meta.FilePath.
func (b *SQLiteBackend) WriteFileSymbols(ctx context.Context, meta FileMetadata, symbols []symbol.Symbol, edges []DependencyEdge) error {
	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "beginning transaction")
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM symbols WHERE file = ?`, meta.FilePath); err != nil {
		return errors.Wrap(err, "clearing existing symbols")
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM file_dependencies WHERE source_file = ?`, meta.FilePath); err != nil {
		return errors.Wrap(err, "clearing existing dependency edges")
	}

	insertSym, err := tx.PrepareContext(ctx, `INSERT INTO symbols
		(usr, identity_key, name, qualified_name, kind, file, is_definition, is_project, payload)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return errors.Wrap(err, "preparing symbol insert")
	}
	defer insertSym.Close()

	for _, s := range symbols {
		payload, err := json.Marshal(toPayload(s))
		if err != nil {
			return errors.Wrap(err, "encoding symbol payload")
		}
		if _, err := insertSym.ExecContext(ctx, s.USR, s.Key(), s.Name, s.QualifiedName,
			string(s.Kind), s.File, boolToInt(s.IsDefinition), boolToInt(s.IsProject), string(payload)); err != nil {
			return errors.Wrap(err, "inserting symbol")
		}
	}

	insertEdge, err := tx.PrepareContext(ctx, `INSERT OR IGNORE INTO file_dependencies
		(source_file, included_file, is_direct, include_depth, detected_at) VALUES (?, ?, 1, 1, ?)`)
	if err != nil {
		return errors.Wrap(err, "preparing edge insert")
	}
	defer insertEdge.Close()

	for _, e := range edges {
		detectedAt := e.DetectedAt
		if detectedAt.IsZero() {
			detectedAt = meta.IndexedAt
		}
		if _, err := insertEdge.ExecContext(ctx, e.SourceFile, e.IncludedFile, detectedAt.Format(time.RFC3339Nano)); err != nil {
			return errors.Wrap(err, "inserting dependency edge")
		}
	}

	if _, err := tx.ExecContext(ctx, `INSERT INTO file_metadata (file_path, file_hash, compile_args_hash, indexed_at, symbol_count)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(file_path) DO UPDATE SET file_hash=excluded.file_hash, compile_args_hash=excluded.compile_args_hash,
		indexed_at=excluded.indexed_at, symbol_count=excluded.symbol_count`,
		meta.FilePath, meta.FileHash, meta.CompileArgsHash, meta.IndexedAt.Format(time.RFC3339Nano), meta.SymbolCount); err != nil {
		return errors.Wrap(err, "upserting file metadata")
	}

	return errors.Wrap(tx.Commit(), "committing file write")
}

// DeleteFile atomically removes a file's metadata, symbols, and every
// dependency edge where it appears as either endpoint.
func (b *SQLiteBackend) DeleteFile(ctx context.Context, path string) error {
	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "beginning transaction")
	}
	defer tx.Rollback()

	stmts := []string{
		`DELETE FROM symbols WHERE file = ?`,
		`DELETE FROM file_metadata WHERE file_path = ?`,
		`DELETE FROM file_dependencies WHERE source_file = ? OR included_file = ?`,
		`DELETE FROM header_tracker WHERE header_path = ?`,
	}
	for i, stmt := range stmts {
		var err error
		if i == 2 {
			_, err = tx.ExecContext(ctx, stmt, path, path)
		} else {
			_, err = tx.ExecContext(ctx, stmt, path)
		}
		if err != nil {
			return errors.Wrapf(err, "running %q", stmt)
		}
	}
	return errors.Wrap(tx.Commit(), "committing file deletion")
}

func (b *SQLiteBackend) FileMetadata(ctx context.Context, path string) (FileMetadata, bool, error) {
	row := b.db.QueryRowContext(ctx, `SELECT file_path, file_hash, compile_args_hash, indexed_at, symbol_count
		FROM file_metadata WHERE file_path = ?`, path)
	var m FileMetadata
	var indexedAt string
	if err := row.Scan(&m.FilePath, &m.FileHash, &m.CompileArgsHash, &indexedAt, &m.SymbolCount); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return FileMetadata{}, false, nil
		}
		return FileMetadata{}, false, errors.Wrap(err, "querying file metadata")
	}
	m.IndexedAt, _ = time.Parse(time.RFC3339Nano, indexedAt)
	return m, true, nil
}

func (b *SQLiteBackend) AllFileMetadata(ctx context.Context) (map[string]FileMetadata, error) {
	rows, err := b.db.QueryContext(ctx, `SELECT file_path, file_hash, compile_args_hash, indexed_at, symbol_count FROM file_metadata`)
	if err != nil {
		return nil, errors.Wrap(err, "querying all file metadata")
	}
	defer rows.Close()

	out := make(map[string]FileMetadata)
	for rows.Next() {
		var m FileMetadata
		var indexedAt string
		if err := rows.Scan(&m.FilePath, &m.FileHash, &m.CompileArgsHash, &indexedAt, &m.SymbolCount); err != nil {
			return nil, errors.Wrap(err, "scanning file metadata row")
		}
		m.IndexedAt, _ = time.Parse(time.RFC3339Nano, indexedAt)
		out[m.FilePath] = m
	}
	return out, errors.Wrap(rows.Err(), "reading file metadata rows")
}

func (b *SQLiteBackend) SymbolsByFile(ctx context.Context, path string) ([]symbol.Symbol, error) {
	rows, err := b.db.QueryContext(ctx, `SELECT usr, name, qualified_name, kind, file, is_definition, is_project, payload
		FROM symbols WHERE file = ?`, path)
	if err != nil {
		return nil, errors.Wrap(err, "querying symbols by file")
	}
	defer rows.Close()
	return scanSymbolRows(rows)
}

func (b *SQLiteBackend) SymbolByUSR(ctx context.Context, usr string) (symbol.Symbol, bool, error) {
	row := b.db.QueryRowContext(ctx, `SELECT usr, name, qualified_name, kind, file, is_definition, is_project, payload
		FROM symbols WHERE usr = ? AND is_definition = 1 LIMIT 1`, usr)
	var s, name, qn, kind, file string
	var isDef, isProj int
	var payload string
	if err := row.Scan(&s, &name, &qn, &kind, &file, &isDef, &isProj, &payload); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return symbol.Symbol{}, false, nil
		}
		return symbol.Symbol{}, false, errors.Wrap(err, "querying symbol by usr")
	}
	sym, err := fromRow(s, name, qn, kind, file, isDef != 0, isProj != 0, payload)
	return sym, err == nil, err
}

func scanSymbolRows(rows *sql.Rows) ([]symbol.Symbol, error) {
	var out []symbol.Symbol
	for rows.Next() {
		var usr, name, qn, kind, file, payload string
		var isDef, isProj int
		if err := rows.Scan(&usr, &name, &qn, &kind, &file, &isDef, &isProj, &payload); err != nil {
			return nil, errors.Wrap(err, "scanning symbol row")
		}
		sym, err := fromRow(usr, name, qn, kind, file, isDef != 0, isProj != 0, payload)
		if err != nil {
			return nil, err
		}
		out = append(out, sym)
	}
	return out, errors.Wrap(rows.Err(), "reading symbol rows")
}

// UpdateDependencies deletes all edges rooted at source then inserts
// edges, in one transaction. Symbol and metadata rows for
// source are untouched.
func (b *SQLiteBackend) UpdateDependencies(ctx context.Context, source string, edges []DependencyEdge) error {
	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "beginning transaction")
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM file_dependencies WHERE source_file = ?`, source); err != nil {
		return errors.Wrap(err, "clearing existing dependency edges")
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT OR IGNORE INTO file_dependencies
		(source_file, included_file, is_direct, include_depth, detected_at) VALUES (?, ?, 1, 1, ?)`)
	if err != nil {
		return errors.Wrap(err, "preparing edge insert")
	}
	defer stmt.Close()

	now := time.Now().Format(time.RFC3339Nano)
	for _, e := range edges {
		detectedAt := now
		if !e.DetectedAt.IsZero() {
			detectedAt = e.DetectedAt.Format(time.RFC3339Nano)
		}
		if _, err := stmt.ExecContext(ctx, e.SourceFile, e.IncludedFile, detectedAt); err != nil {
			return errors.Wrap(err, "inserting dependency edge")
		}
	}

	return errors.Wrap(tx.Commit(), "committing dependency update")
}

func (b *SQLiteBackend) FindDependents(ctx context.Context, header string) ([]string, error) {
	rows, err := b.db.QueryContext(ctx, `SELECT DISTINCT source_file FROM file_dependencies WHERE included_file = ?`, header)
	if err != nil {
		return nil, errors.Wrap(err, "querying direct dependents")
	}
	defer rows.Close()
	return scanStrings(rows)
}

// FindTransitiveDependents uses a recursive CTE to walk the reverse
// include graph, bounding work by the CTE's implicit per-row dedup so
// header-guard cycles terminate.
func (b *SQLiteBackend) FindTransitiveDependents(ctx context.Context, header string) ([]string, error) {
	const query = `
	WITH RECURSIVE reverse_deps(file) AS (
		SELECT source_file FROM file_dependencies WHERE included_file = ?
		UNION
		SELECT fd.source_file FROM file_dependencies fd
		JOIN reverse_deps rd ON fd.included_file = rd.file
	)
	SELECT DISTINCT file FROM reverse_deps`
	rows, err := b.db.QueryContext(ctx, query, header)
	if err != nil {
		return nil, errors.Wrap(err, "querying transitive dependents")
	}
	defer rows.Close()
	return scanStrings(rows)
}

func scanStrings(rows *sql.Rows) ([]string, error) {
	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, errors.Wrap(err, "scanning string row")
		}
		out = append(out, s)
	}
	return out, errors.Wrap(rows.Err(), "reading string rows")
}

func (b *SQLiteBackend) DependencyStats(ctx context.Context) (DependencyStats, error) {
	var stats DependencyStats
	row := b.db.QueryRowContext(ctx, `SELECT COUNT(*), COUNT(DISTINCT source_file), COUNT(DISTINCT included_file) FROM file_dependencies`)
	if err := row.Scan(&stats.EdgeCount, &stats.SourceFileCount, &stats.IncludedFileCount); err != nil {
		return DependencyStats{}, errors.Wrap(err, "querying dependency stats")
	}
	return stats, nil
}

func (b *SQLiteBackend) ClearAllDependencies(ctx context.Context) error {
	_, err := b.db.ExecContext(ctx, `DELETE FROM file_dependencies`)
	return errors.Wrap(err, "clearing dependency edges")
}

func (b *SQLiteBackend) SaveHeaderSnapshot(ctx context.Context, snapshot HeaderSnapshot) error {
	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "beginning transaction")
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM header_tracker`); err != nil {
		return errors.Wrap(err, "clearing header tracker")
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO header_tracker (header_path, content_hash) VALUES (?, ?)`)
	if err != nil {
		return errors.Wrap(err, "preparing header tracker insert")
	}
	defer stmt.Close()
	for path, hash := range snapshot {
		if _, err := stmt.ExecContext(ctx, path, hash); err != nil {
			return errors.Wrap(err, "inserting header tracker row")
		}
	}
	return errors.Wrap(tx.Commit(), "committing header snapshot")
}

func (b *SQLiteBackend) LoadHeaderSnapshot(ctx context.Context) (HeaderSnapshot, error) {
	rows, err := b.db.QueryContext(ctx, `SELECT header_path, content_hash FROM header_tracker`)
	if err != nil {
		return nil, errors.Wrap(err, "querying header tracker")
	}
	defer rows.Close()
	snapshot := make(HeaderSnapshot)
	for rows.Next() {
		var path, hash string
		if err := rows.Scan(&path, &hash); err != nil {
			return nil, errors.Wrap(err, "scanning header tracker row")
		}
		snapshot[path] = hash
	}
	return snapshot, errors.Wrap(rows.Err(), "reading header tracker rows")
}

func (b *SQLiteBackend) SaveCompileCommandsHash(ctx context.Context, hash string) error {
	_, err := b.db.ExecContext(ctx, `INSERT INTO meta (key, value) VALUES ('compile_commands_hash', ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`, hash)
	return errors.Wrap(err, "saving compile commands hash")
}

func (b *SQLiteBackend) LoadCompileCommandsHash(ctx context.Context) (string, error) {
	row := b.db.QueryRowContext(ctx, `SELECT value FROM meta WHERE key = 'compile_commands_hash'`)
	var hash string
	if err := row.Scan(&hash); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", errors.Wrap(err, "loading compile commands hash")
	}
	return hash, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
