package ksema

import (
	"bytes"
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/jward/ksema/internal/index"
	"github.com/jward/ksema/internal/store"
	"github.com/jward/ksema/internal/symbol"
	"github.com/jward/ksema/internal/syntax"
)

const language = "kotlin"

// IndexFiles records the declarations of the given Kotlin files in the
// project database so analyses of other files can resolve against them.
// When WithParallel is enabled (default), parsing runs on a worker pool with
// batched SQLite writes. Otherwise files are indexed one at a time.
//
// For each file:
//  1. Skip non-Kotlin paths
//  2. Skip unchanged files (same content hash)
//  3. Parse and build the file's symbol table
//  4. Replace the file's stored declarations
//
// Errors on individual files are collected; processing continues.
func (e *Engine) IndexFiles(ctx context.Context, paths []string) error {
	start := time.Now()
	var err error
	if e.useParallel {
		err = e.indexFilesParallel(ctx, paths)
	} else {
		err = e.indexFilesSerial(ctx, paths)
	}
	if err != nil {
		return err
	}
	if e.stale {
		if err := e.store.SetMetadata("index_version", IndexVersion); err != nil {
			return fmt.Errorf("ksema: %w", err)
		}
		e.stale = false
	}
	e.logger.Info("indexed files", "files", len(paths), "duration", time.Since(start))
	return nil
}

func (e *Engine) indexFilesSerial(ctx context.Context, paths []string) error {
	var errs []error
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := e.indexFile(ctx, path); err != nil {
			errs = append(errs, fmt.Errorf("index %s: %w", path, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("indexing had %d error(s): %w", len(errs), errs[0])
	}
	return nil
}

func (e *Engine) indexFile(ctx context.Context, path string) error {
	item, skip, err := e.prepareFile(path)
	if err != nil || skip {
		return err
	}
	if err := buildFile(ctx, item, e.logger); err != nil {
		return err
	}
	return e.commit(item)
}

// prepareFile reads a file and decides whether it needs indexing. skip is
// true for non-Kotlin paths and for files whose content hash is unchanged.
func (e *Engine) prepareFile(path string) (workItem, bool, error) {
	if !syntax.IsKotlinFile(path) {
		return workItem{}, true, nil
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return workItem{}, false, fmt.Errorf("read file: %w", err)
	}
	hash := store.HashContent(content)

	existing, err := e.store.FileByPath(path)
	if err != nil {
		return workItem{}, false, fmt.Errorf("lookup file: %w", err)
	}
	if existing != nil && existing.Hash == hash && !e.stale {
		return workItem{}, true, nil
	}

	return workItem{
		path:    path,
		content: content,
		batch: store.NewBatch(&store.File{
			Path:        path,
			Language:    language,
			Hash:        hash,
			LastIndexed: time.Now(),
		}),
	}, false, nil
}

// buildFile parses one file and buffers its declarations. It touches no
// shared state and is safe to run on any goroutine.
func buildFile(ctx context.Context, item workItem, logger *slog.Logger) error {
	tree, err := syntax.Parse(ctx, item.content)
	if err != nil {
		return fmt.Errorf("parse: %w", err)
	}
	defer tree.Close()
	table := symbol.Build(tree, item.path, symbol.WithLogger(logger))
	item.batch.Add(index.FromTable(table)...)
	return nil
}

func (e *Engine) commit(item workItem) error {
	if err := e.store.CommitBatch(item.batch); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	e.logger.Debug("indexed file", "file", item.path, "symbols", item.batch.Len())
	return nil
}

// skipDir reports whether a directory is excluded from indexing: hidden
// directories and the names configured through WithExclude.
func (e *Engine) skipDir(name string) bool {
	return strings.HasPrefix(name, ".") || e.exclude[name]
}

// IndexDirectory walks root and indexes all .kt and .kts files. If root is
// inside a git repository, git ls-files is used to respect .gitignore;
// otherwise the filesystem is walked, skipping hidden and excluded
// directories. Files indexed earlier under root that no longer exist are
// removed from the database.
func (e *Engine) IndexDirectory(ctx context.Context, root string) error {
	paths, err := e.ListFiles(root)
	if err != nil {
		return err
	}
	if err := e.IndexFiles(ctx, paths); err != nil {
		return err
	}
	return e.prune(root, paths)
}

// ListFiles returns the Kotlin sources under root that IndexDirectory
// would index.
func (e *Engine) ListFiles(root string) ([]string, error) {
	paths, err := e.gitListFiles(root)
	if err != nil {
		// Not a git repo or git not available, fall back to walk.
		e.logger.Debug("git ls-files unavailable, walking", "root", root, "error", err)
		return e.walkListFiles(root)
	}
	return paths, nil
}

// gitListFiles uses git ls-files to discover tracked and untracked (but not
// ignored) Kotlin files under root.
func (e *Engine) gitListFiles(root string) ([]string, error) {
	cmd := exec.Command("git", "ls-files", "--cached", "--others", "--exclude-standard")
	cmd.Dir = root
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("git ls-files: %w: %s", err, strings.TrimSpace(stderr.String()))
	}

	var paths []string
	for _, line := range strings.Split(stdout.String(), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || !syntax.IsKotlinFile(line) || e.excludedPath(line) {
			continue
		}
		paths = append(paths, filepath.Join(root, line))
	}
	return paths, nil
}

func (e *Engine) excludedPath(rel string) bool {
	dirs := strings.Split(filepath.ToSlash(filepath.Dir(rel)), "/")
	for _, d := range dirs {
		if d != "." && e.skipDir(d) {
			return true
		}
	}
	return false
}

// walkListFiles discovers files by walking the filesystem.
func (e *Engine) walkListFiles(root string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != root && e.skipDir(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if syntax.IsKotlinFile(path) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("ksema: walk directory: %w", err)
	}
	return paths, nil
}

// prune removes database entries for files under root that are not in
// present.
func (e *Engine) prune(root string, present []string) error {
	keep := make(map[string]bool, len(present))
	for _, p := range present {
		keep[p] = true
	}
	files, err := e.store.Files()
	if err != nil {
		return fmt.Errorf("ksema: prune: %w", err)
	}
	for _, f := range files {
		if keep[f.Path] || !under(root, f.Path) {
			continue
		}
		if err := e.store.RemoveFile(f.Path); err != nil {
			return fmt.Errorf("ksema: prune: %w", err)
		}
		e.logger.Debug("removed deleted file", "file", f.Path)
	}
	return nil
}

func under(root, path string) bool {
	root = filepath.Clean(root)
	if root == "." {
		return !filepath.IsAbs(path)
	}
	return strings.HasPrefix(path, root+string(filepath.Separator))
}
