// Package store persists the declarations of a project's source files in
// SQLite so that analysis of one file can see the symbols of the others.
package store

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/jward/ksema/internal/index"
)

// Store is the SQLite data access layer for the project index.
type Store struct {
	db *sql.DB
}

var _ index.FileSource = (*Store)(nil)

// NewStore opens a SQLite database at dbPath with WAL mode enabled. The
// path ":memory:" opens a private in-memory database.
func NewStore(dbPath string) (*Store, error) {
	dsn := dbPath + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=30000"
	if dbPath == ":memory:" {
		dsn = ":memory:?_foreign_keys=ON"
	}
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("store: open database: %w", err)
	}
	if dbPath == ":memory:" {
		// Every connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: ping database: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Migrate creates all tables and indexes. Idempotent.
func (s *Store) Migrate() error {
	if _, err := s.db.Exec(schemaDDL); err != nil {
		return fmt.Errorf("store: migrate: %w", err)
	}
	return nil
}

const schemaDDL = `
CREATE TABLE IF NOT EXISTS files (
  id              INTEGER PRIMARY KEY,
  path            TEXT NOT NULL UNIQUE,
  language        TEXT NOT NULL,
  hash            TEXT,
  last_indexed    TIMESTAMP
);

CREATE TABLE IF NOT EXISTS symbols (
  id               INTEGER PRIMARY KEY,
  file_id          INTEGER NOT NULL REFERENCES files(id),
  name             TEXT NOT NULL,
  fq_name          TEXT NOT NULL,
  kind             TEXT NOT NULL,
  package          TEXT NOT NULL DEFAULT '',
  containing_class TEXT NOT NULL DEFAULT '',
  visibility       TEXT,
  type_parameters  TEXT,
  return_type      TEXT NOT NULL DEFAULT '',
  receiver_type    TEXT NOT NULL DEFAULT '',
  receiver_simple  TEXT NOT NULL DEFAULT '',
  start_line       INTEGER,
  start_col        INTEGER,
  end_line         INTEGER,
  end_col          INTEGER,
  deprecated       BOOLEAN DEFAULT FALSE,
  deprecation_msg  TEXT,
  is_abstract      BOOLEAN DEFAULT FALSE,
  is_sealed        BOOLEAN DEFAULT FALSE,
  is_var           BOOLEAN DEFAULT FALSE,
  signature_hash   TEXT
);

CREATE TABLE IF NOT EXISTS symbol_parameters (
  id              INTEGER PRIMARY KEY,
  symbol_id       INTEGER NOT NULL REFERENCES symbols(id),
  ordinal         INTEGER NOT NULL,
  name            TEXT,
  type_expr       TEXT,
  has_default     BOOLEAN DEFAULT FALSE,
  is_vararg       BOOLEAN DEFAULT FALSE
);

CREATE TABLE IF NOT EXISTS symbol_supertypes (
  id              INTEGER PRIMARY KEY,
  symbol_id       INTEGER NOT NULL REFERENCES symbols(id),
  ordinal         INTEGER NOT NULL,
  type_expr       TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS metadata (
  key             TEXT PRIMARY KEY,
  value           TEXT
);

CREATE INDEX IF NOT EXISTS idx_symbols_file ON symbols(file_id);
CREATE INDEX IF NOT EXISTS idx_symbols_name ON symbols(name);
CREATE INDEX IF NOT EXISTS idx_symbols_fq_name ON symbols(fq_name);
CREATE INDEX IF NOT EXISTS idx_symbols_package ON symbols(package);
CREATE INDEX IF NOT EXISTS idx_symbols_container ON symbols(containing_class);
CREATE INDEX IF NOT EXISTS idx_symbols_receiver ON symbols(receiver_simple);
CREATE INDEX IF NOT EXISTS idx_symbols_hash ON symbols(signature_hash);
CREATE INDEX IF NOT EXISTS idx_symbol_parameters_symbol ON symbol_parameters(symbol_id);
CREATE INDEX IF NOT EXISTS idx_symbol_supertypes_symbol ON symbol_supertypes(symbol_id);
`

// DeleteFileData transactionally removes the symbols of a file. The file
// row itself is kept.
func (s *Store) DeleteFileData(fileID int64) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("store: begin transaction: %w", err)
	}
	defer tx.Rollback()
	if err := deleteFileDataTx(tx, fileID); err != nil {
		return err
	}
	return tx.Commit()
}

// deleteFileDataTx deletes in reverse-dependency order to respect FK
// constraints.
func deleteFileDataTx(tx *sql.Tx, fileID int64) error {
	for _, q := range []string{
		"DELETE FROM symbol_parameters WHERE symbol_id IN (SELECT id FROM symbols WHERE file_id = ?)",
		"DELETE FROM symbol_supertypes WHERE symbol_id IN (SELECT id FROM symbols WHERE file_id = ?)",
		"DELETE FROM symbols WHERE file_id = ?",
	} {
		if _, err := tx.Exec(q, fileID); err != nil {
			return fmt.Errorf("store: delete file data: %w", err)
		}
	}
	return nil
}

// GetMetadata returns the value stored under key, or "" when absent.
func (s *Store) GetMetadata(key string) (string, error) {
	var v sql.NullString
	err := s.db.QueryRow("SELECT value FROM metadata WHERE key = ?", key).Scan(&v)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("store: get metadata %q: %w", key, err)
	}
	return v.String, nil
}

func (s *Store) SetMetadata(key, value string) error {
	_, err := s.db.Exec(
		"INSERT INTO metadata (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		key, value,
	)
	if err != nil {
		return fmt.Errorf("store: set metadata %q: %w", key, err)
	}
	return nil
}
