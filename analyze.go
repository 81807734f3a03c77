package ksema

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jward/ksema/internal/rules"
	"github.com/jward/ksema/internal/semantic"
	"github.com/jward/ksema/internal/symbol"
	"github.com/jward/ksema/internal/syntax"
)

// AnalyzeSource analyzes src as the contents of path. The file need not
// exist on disk or be indexed; if it is, its stored declarations are hidden
// from the project so the file does not see itself twice.
func (e *Engine) AnalyzeSource(ctx context.Context, path string, src []byte) (*Analysis, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("ksema: analyze %s: %w", path, err)
	}
	start := time.Now()
	id := uuid.New()
	log := e.logger.With("file", path, "analysis", id.String())

	tree, err := syntax.Parse(ctx, src)
	if err != nil {
		return nil, fmt.Errorf("ksema: analyze %s: %w", path, err)
	}
	defer tree.Close()

	table := symbol.Build(tree, path, symbol.WithLogger(log))
	res := semantic.AnalyzeFile(tree, table,
		semantic.WithProject(e.project),
		semantic.WithLogger(log),
	)
	if res.Err != nil {
		return nil, fmt.Errorf("ksema: analyze %s: %w", path, res.Err)
	}

	diags := res.Diagnostics
	if e.rules.Len() > 0 {
		reported, err := e.rules.Run(ctx, rules.Input{
			FilePath:    path,
			Source:      src,
			Table:       table,
			Diagnostics: res.Diagnostics,
		})
		if err != nil {
			return nil, fmt.Errorf("ksema: analyze %s: %w", path, err)
		}
		diags = slices.Concat(diags, reported)
	}

	a := &Analysis{
		ID:          id,
		Path:        path,
		Duration:    time.Since(start),
		src:         src,
		lines:       lineStarts(src),
		table:       table,
		result:      res,
		diagnostics: diags,
		project:     e.project,
	}
	log.Debug("analysis finished",
		"symbols", len(table.Symbols()),
		"diagnostics", len(diags),
		"duration", a.Duration)
	return a, nil
}

// AnalyzeFile reads path and analyzes it.
func (e *Engine) AnalyzeFile(ctx context.Context, path string) (*Analysis, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("ksema: analyze %s: %w", path, err)
	}
	return e.AnalyzeSource(ctx, path, src)
}

// AnalyzeFiles analyzes paths, concurrently when WithParallel is enabled.
// Every file gets its own symbol table and analysis context; only the
// project indexes are shared. Results are in input order with failed files
// omitted, and the returned error summarizes the failures.
func (e *Engine) AnalyzeFiles(ctx context.Context, paths []string) ([]*Analysis, error) {
	results := make([]*Analysis, len(paths))
	errs := make([]error, len(paths))

	workers := 1
	if e.useParallel {
		workers = max(1, min(runtime.NumCPU(), len(paths)))
	}
	work := make(chan int, len(paths))
	for i := range paths {
		work <- i
	}
	close(work)

	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range work {
				results[i], errs[i] = e.AnalyzeFile(ctx, paths[i])
			}
		}()
	}
	wg.Wait()

	var (
		out    []*Analysis
		failed []error
	)
	for i, a := range results {
		if errs[i] != nil {
			failed = append(failed, errs[i])
			continue
		}
		out = append(out, a)
	}
	if len(failed) > 0 {
		return out, fmt.Errorf("analysis had %d error(s): %w", len(failed), failed[0])
	}
	return out, nil
}
