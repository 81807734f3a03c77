package ksema

import (
	"fmt"
	"log/slog"

	"github.com/jward/ksema/internal/index"
	"github.com/jward/ksema/internal/rules"
	"github.com/jward/ksema/internal/store"
)

// IndexVersion identifies the layout of the declarations written to the
// project database. A database written with a different version is
// re-indexed in full.
const IndexVersion = "1"

// Engine orchestrates the ksema pipeline: file discovery, change detection,
// declaration indexing into SQLite, and per-file semantic analysis against
// the project, stdlib and classpath indexes.
type Engine struct {
	store   *store.Store
	project *index.Project
	rules   *rules.Engine
	logger  *slog.Logger

	dbPath         string
	stdlib         *index.Memory
	stdlibFile     string
	classpath      *index.Memory
	classpathFiles []string
	rulesDir       string
	exclude        map[string]bool

	// stale is set when the database was written by another IndexVersion;
	// the next IndexFiles ignores stored hashes.
	stale bool

	// useParallel enables the parallel indexing pipeline.
	useParallel bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithDatabase stores the project index in a SQLite database at path. The
// default ":memory:" keeps it for the lifetime of the Engine only.
func WithDatabase(path string) Option {
	return func(e *Engine) { e.dbPath = path }
}

// WithStdlib sets the standard-library index. Without it the built-in
// minimal index is used.
func WithStdlib(m *index.Memory) Option {
	return func(e *Engine) { e.stdlib = m }
}

// WithStdlibFile loads the standard-library index from an index document
// (.json, .yaml, optionally .zst compressed). It takes precedence over
// WithStdlib.
func WithStdlibFile(path string) Option {
	return func(e *Engine) { e.stdlibFile = path }
}

func WithClasspath(m *index.Memory) Option {
	return func(e *Engine) { e.classpath = m }
}

// WithClasspathFiles loads classpath index documents and merges them with
// any index passed to WithClasspath.
func WithClasspathFiles(paths ...string) Option {
	return func(e *Engine) { e.classpathFiles = append(e.classpathFiles, paths...) }
}

func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithRules loads Risor rule scripts from dir. Every analysis runs them
// after the built-in checks.
func WithRules(dir string) Option {
	return func(e *Engine) { e.rulesDir = dir }
}

// WithParallel controls parallel indexing and analysis. When true (default),
// files are parsed on a worker pool while a single goroutine commits to
// SQLite. Set to false for serial mode.
func WithParallel(parallel bool) Option {
	return func(e *Engine) { e.useParallel = parallel }
}

// WithExclude adds directory names skipped by IndexDirectory, on top of
// the built-in build, out, vendor and node_modules.
func WithExclude(names ...string) Option {
	return func(e *Engine) {
		for _, n := range names {
			e.exclude[n] = true
		}
	}
}

var defaultExclude = []string{"build", "out", "vendor", "node_modules"}

// New creates an Engine. Index documents and rule scripts named by options
// are loaded here, so a bad path fails fast.
func New(opts ...Option) (*Engine, error) {
	e := &Engine{
		dbPath:      ":memory:",
		logger:      slog.Default(),
		exclude:     make(map[string]bool),
		useParallel: true,
	}
	for _, n := range defaultExclude {
		e.exclude[n] = true
	}
	for _, opt := range opts {
		opt(e)
	}

	if err := e.loadIndexes(); err != nil {
		return nil, err
	}
	if e.rulesDir != "" {
		r, err := rules.Load(e.rulesDir, rules.WithLogger(e.logger))
		if err != nil {
			return nil, fmt.Errorf("ksema: %w", err)
		}
		e.rules = r
		e.logger.Debug("rules loaded", "dir", e.rulesDir, "scripts", r.Len())
	}

	s, err := store.NewStore(e.dbPath)
	if err != nil {
		return nil, fmt.Errorf("ksema: create store: %w", err)
	}
	if err := s.Migrate(); err != nil {
		s.Close()
		return nil, fmt.Errorf("ksema: migrate: %w", err)
	}
	e.store = s

	version, err := s.GetMetadata("index_version")
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("ksema: read index version: %w", err)
	}
	e.stale = version != IndexVersion

	e.project = index.NewProject(
		index.WithStdlib(e.stdlib),
		index.WithClasspath(e.classpath),
		index.WithFiles(s),
		index.WithLogger(e.logger),
	)
	return e, nil
}

func (e *Engine) loadIndexes() error {
	if e.stdlibFile != "" {
		m, err := index.LoadFile(e.stdlibFile)
		if err != nil {
			return fmt.Errorf("ksema: stdlib: %w", err)
		}
		e.stdlib = m
	}
	if e.stdlib == nil {
		e.stdlib = index.Minimal()
	}
	e.logger.Debug("stdlib index loaded", "symbols", e.stdlib.Len())

	if len(e.classpathFiles) == 0 {
		return nil
	}
	merged := index.NewMemory()
	if e.classpath != nil {
		merged.AddAll(e.classpath.Symbols())
	}
	for _, path := range e.classpathFiles {
		m, err := index.LoadFile(path)
		if err != nil {
			return fmt.Errorf("ksema: classpath: %w", err)
		}
		merged.AddAll(m.Symbols())
		e.logger.Debug("classpath index loaded", "file", path, "symbols", m.Len())
	}
	e.classpath = merged
	return nil
}

// Close releases the Engine's database resources.
func (e *Engine) Close() error {
	return e.store.Close()
}

// Project returns the composed index analyses resolve against.
func (e *Engine) Project() *index.Project {
	return e.project
}

// IndexedFiles lists the paths currently held in the project database.
func (e *Engine) IndexedFiles() ([]string, error) {
	files, err := e.store.Files()
	if err != nil {
		return nil, fmt.Errorf("ksema: list files: %w", err)
	}
	paths := make([]string, len(files))
	for i, f := range files {
		paths[i] = f.Path
	}
	return paths, nil
}
