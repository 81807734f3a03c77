package store

import (
	"database/sql"
	"fmt"
)

type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

type queryRower interface {
	QueryRow(query string, args ...any) *sql.Row
}

func (s *Store) InsertFile(f *File) (int64, error) {
	return insertFile(s.db, f)
}

func insertFile(db execer, f *File) (int64, error) {
	res, err := db.Exec(
		"INSERT INTO files (path, language, hash, last_indexed) VALUES (?, ?, ?, ?)",
		f.Path, f.Language, f.Hash, f.LastIndexed,
	)
	if err != nil {
		return 0, fmt.Errorf("store: insert file: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("store: last insert id: %w", err)
	}
	f.ID = id
	return id, nil
}

// upsertFile inserts f or refreshes the stored row with the same path.
func upsertFile(tx *sql.Tx, f *File) (int64, error) {
	existing, err := fileByPath(tx, f.Path)
	if err != nil {
		return 0, err
	}
	if existing == nil {
		return insertFile(tx, f)
	}
	_, err = tx.Exec(
		"UPDATE files SET language = ?, hash = ?, last_indexed = ? WHERE id = ?",
		f.Language, f.Hash, f.LastIndexed, existing.ID,
	)
	if err != nil {
		return 0, fmt.Errorf("store: update file: %w", err)
	}
	f.ID = existing.ID
	return f.ID, nil
}

// FileByPath returns the stored file, or nil when the path is unknown.
func (s *Store) FileByPath(path string) (*File, error) {
	return fileByPath(s.db, path)
}

func fileByPath(db queryRower, path string) (*File, error) {
	f := &File{}
	var hash sql.NullString
	var indexed sql.NullTime
	err := db.QueryRow(
		"SELECT id, path, language, hash, last_indexed FROM files WHERE path = ?", path,
	).Scan(&f.ID, &f.Path, &f.Language, &hash, &indexed)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: file by path: %w", err)
	}
	f.Hash, f.LastIndexed = hash.String, indexed.Time
	return f, nil
}

// Files returns every indexed file ordered by path.
func (s *Store) Files() ([]*File, error) {
	rows, err := s.db.Query("SELECT id, path, language, hash, last_indexed FROM files ORDER BY path")
	if err != nil {
		return nil, fmt.Errorf("store: files: %w", err)
	}
	defer rows.Close()
	var files []*File
	for rows.Next() {
		f := &File{}
		var hash sql.NullString
		var indexed sql.NullTime
		if err := rows.Scan(&f.ID, &f.Path, &f.Language, &hash, &indexed); err != nil {
			return nil, fmt.Errorf("store: scan file: %w", err)
		}
		f.Hash, f.LastIndexed = hash.String, indexed.Time
		files = append(files, f)
	}
	return files, rows.Err()
}

// RemoveFile deletes a file and its symbols. Unknown paths are ignored.
func (s *Store) RemoveFile(path string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("store: begin transaction: %w", err)
	}
	defer tx.Rollback()
	f, err := fileByPath(tx, path)
	if err != nil || f == nil {
		return err
	}
	if err := deleteFileDataTx(tx, f.ID); err != nil {
		return err
	}
	if _, err := tx.Exec("DELETE FROM files WHERE id = ?", f.ID); err != nil {
		return fmt.Errorf("store: delete file: %w", err)
	}
	return tx.Commit()
}
