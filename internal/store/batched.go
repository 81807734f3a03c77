package store

import (
	"sync"

	"github.com/jward/ksema/internal/index"
)

// Batch buffers the declarations of one file so that parsing and symbol
// building can run off the goroutine that owns the database. CommitBatch
// writes it.
//
// Thread safety: the mutex protects the symbol slice.
type Batch struct {
	File *File

	mu      sync.Mutex
	symbols []index.Symbol
}

func NewBatch(f *File) *Batch {
	return &Batch{File: f}
}

// Add appends declarations to the batch.
func (b *Batch) Add(syms ...index.Symbol) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.symbols = append(b.symbols, syms...)
}

func (b *Batch) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.symbols)
}

// Symbols returns a copy of the buffered declarations.
func (b *Batch) Symbols() []index.Symbol {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]index.Symbol, len(b.symbols))
	copy(out, b.symbols)
	return out
}
