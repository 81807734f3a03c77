package store

import (
	"fmt"

	"github.com/jward/ksema/internal/index"
)

// CommitBatch writes batches within a single transaction. Each batch
// replaces whatever was stored for its file: the file row is inserted or
// refreshed, its old symbols are deleted, and the buffered ones inserted.
func (s *Store) CommitBatch(batches ...*Batch) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("store: commit batch: begin: %w", err)
	}
	defer tx.Rollback()

	for _, b := range batches {
		fileID, err := upsertFile(tx, b.File)
		if err != nil {
			return fmt.Errorf("store: commit batch: file %q: %w", b.File.Path, err)
		}
		if err := deleteFileDataTx(tx, fileID); err != nil {
			return err
		}
		for _, sym := range b.Symbols() {
			if _, err := insertSymbol(tx, fileID, sym); err != nil {
				return fmt.Errorf("store: commit batch: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("store: commit batch: %w", err)
	}
	return nil
}

// ReplaceFileSymbols transactionally replaces the stored declarations of f.
func (s *Store) ReplaceFileSymbols(f *File, syms []index.Symbol) error {
	b := NewBatch(f)
	b.Add(syms...)
	return s.CommitBatch(b)
}
