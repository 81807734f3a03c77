// Package rules runs user-defined checks written in Risor against an
// analyzed Kotlin file. Each script sees the file's symbols, imports and
// diagnostics as globals and reports findings through host functions.
package rules

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/risor-io/risor"
	"github.com/risor-io/risor/importer"
	"github.com/risor-io/risor/object"

	"github.com/jward/ksema/internal/diagnostic"
	"github.com/jward/ksema/internal/symbol"
)

const scriptExt = ".risor"

// Script is one loaded rule.
type Script struct {
	Name   string
	Source string
}

// Input is what a rule run sees of one analyzed file.
type Input struct {
	FilePath    string
	Source      []byte
	Table       *symbol.Table
	Diagnostics []diagnostic.Diagnostic
}

// Engine holds a set of loaded rule scripts.
type Engine struct {
	fsys    fs.FS
	scripts []Script
	logger  *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// Load reads every *.risor file directly under dir. Files whose name starts
// with an underscore are helper modules: they can be imported by rules but
// are not run themselves.
func Load(dir string, opts ...Option) (*Engine, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("rules: load %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("rules: load %s: not a directory", dir)
	}
	return LoadFS(os.DirFS(dir), opts...)
}

// LoadFS is Load over an fs.FS, such as an embedded rule set.
func LoadFS(fsys fs.FS, opts ...Option) (*Engine, error) {
	e := &Engine{fsys: fsys, logger: slog.Default()}
	for _, opt := range opts {
		opt(e)
	}
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("rules: read scripts: %w", err)
	}
	for _, ent := range entries {
		name := ent.Name()
		if ent.IsDir() || path.Ext(name) != scriptExt || strings.HasPrefix(name, "_") {
			continue
		}
		data, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, fmt.Errorf("rules: loading script %s: %w", name, err)
		}
		e.scripts = append(e.scripts, Script{Name: strings.TrimSuffix(name, scriptExt), Source: string(data)})
	}
	sort.Slice(e.scripts, func(i, j int) bool { return e.scripts[i].Name < e.scripts[j].Name })
	e.logger.Debug("rules loaded", "count", len(e.scripts))
	return e, nil
}

// New builds an engine from in-memory scripts. Imports are resolved
// against fsys when it is non-nil.
func New(fsys fs.FS, scripts []Script, opts ...Option) *Engine {
	e := &Engine{fsys: fsys, scripts: scripts, logger: slog.Default()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) Scripts() []Script { return e.scripts }

func (e *Engine) Len() int {
	if e == nil {
		return 0
	}
	return len(e.scripts)
}

// Run executes every script once against in and returns the diagnostics they
// reported. A failing script stops the run; diagnostics reported before the
// failure are returned alongside the error.
func (e *Engine) Run(ctx context.Context, in Input) ([]diagnostic.Diagnostic, error) {
	if e == nil {
		return nil, nil
	}
	var out []diagnostic.Diagnostic
	for _, s := range e.scripts {
		diags, err := e.runScript(ctx, s, in)
		out = append(out, diags...)
		if err != nil {
			return out, err
		}
	}
	return out, nil
}

func (e *Engine) runScript(ctx context.Context, s Script, in Input) ([]diagnostic.Diagnostic, error) {
	start := time.Now()
	rep := &reporter{script: s.Name, file: in.FilePath}
	globals := e.buildGlobals(s.Name, in, rep)

	opts := make([]risor.Option, 0, len(globals)+1)
	for name, val := range globals {
		opts = append(opts, risor.WithGlobal(name, val))
	}
	if imp := e.buildImporter(globals); imp != nil {
		opts = append(opts, risor.WithImporter(imp))
	}

	if _, err := risor.Eval(ctx, s.Source, opts...); err != nil {
		e.logger.Warn("rule failed", "rule", s.Name, "file", in.FilePath, "error", err)
		return rep.diags, fmt.Errorf("rules: script %s: %w", s.Name, err)
	}
	e.logger.Debug("rule finished",
		"rule", s.Name,
		"file", in.FilePath,
		"reported", len(rep.diags),
		"duration", time.Since(start))
	return rep.diags, nil
}

// buildImporter lets scripts import helper modules from the rule set.
func (e *Engine) buildImporter(globals map[string]any) importer.Importer {
	if e.fsys == nil {
		return nil
	}
	names := make([]string, 0, len(globals))
	for name := range globals {
		names = append(names, name)
	}
	return importer.NewFSImporter(importer.FSImporterOptions{
		GlobalNames: names,
		SourceFS:    e.fsys,
		Extensions:  []string{scriptExt},
	})
}

func (e *Engine) buildGlobals(script string, in Input, rep *reporter) map[string]any {
	pkg := ""
	if in.Table != nil {
		pkg = in.Table.PackageName
	}
	return map[string]any{
		"file_path":    object.NewString(in.FilePath),
		"package_name": object.NewString(pkg),
		"symbols":      symbolList(in.Table),
		"imports":      importList(in.Table),
		"diagnostics":  diagnosticList(in.Diagnostics),
		"report":       makeReportFn(rep),
		"node_text":    makeNodeTextFn(in.Source),
		"log":          makeLogModule(e.logger.With("rule", script, "file", in.FilePath)),
	}
}
