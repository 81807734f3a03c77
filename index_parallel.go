package ksema

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"github.com/jward/ksema/internal/store"
)

// workItem holds everything a parallel indexing worker needs.
type workItem struct {
	path    string
	content []byte
	batch   *store.Batch
}

// indexFilesParallel indexes files using a three-phase pipeline:
//
//	Phase A (serial):   Read, hash check, prepare file records.
//	Phase B (parallel): Parse and build symbol tables on a worker pool.
//	Phase C (serial):   Commit batches to SQLite.
func (e *Engine) indexFilesParallel(ctx context.Context, paths []string) error {
	// ---- Phase A: Serial file preparation ----
	var errs []error
	var items []workItem
	for _, path := range paths {
		item, skip, err := e.prepareFile(path)
		if err != nil {
			errs = append(errs, fmt.Errorf("prepare %s: %w", path, err))
			continue
		}
		if skip {
			continue
		}
		items = append(items, item)
	}

	// ---- Phase B: Parallel parsing ----
	type result struct {
		item workItem
		err  error
	}
	resultCh := make(chan result, len(items))
	if len(items) > 0 {
		workCh := make(chan workItem, len(items))
		for _, item := range items {
			workCh <- item
		}
		close(workCh)

		var wg sync.WaitGroup
		for range max(1, min(runtime.NumCPU(), len(items))) {
			wg.Add(1)
			go func() {
				defer wg.Done()
				// Each worker parses with its own tree-sitter parser; the
				// Batch per item isolates writes.
				for item := range workCh {
					err := ctx.Err()
					if err == nil {
						err = buildFile(ctx, item, e.logger)
					}
					resultCh <- result{item: item, err: err}
				}
			}()
		}
		go func() {
			wg.Wait()
			close(resultCh)
		}()
	} else {
		close(resultCh)
	}

	// ---- Phase C: Serial commit ----
	for res := range resultCh {
		if res.err != nil {
			errs = append(errs, fmt.Errorf("build %s: %w", res.item.path, res.err))
			continue
		}
		if err := e.commit(res.item); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", res.item.path, err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("parallel indexing had %d error(s): %w", len(errs), errs[0])
	}
	return nil
}
