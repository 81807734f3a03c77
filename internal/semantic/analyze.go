package semantic

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/jward/ksema/internal/diagnostic"
	"github.com/jward/ksema/internal/index"
	"github.com/jward/ksema/internal/symbol"
	"github.com/jward/ksema/internal/syntax"
	"github.com/jward/ksema/internal/types"
)

// Result is the outcome of analyzing one file.
type Result struct {
	Table       *symbol.Table
	Diagnostics []diagnostic.Diagnostic
	// Types maps every inferred expression node to its type.
	Types map[syntax.Key]types.Type
	// References maps identifier nodes to the symbols they resolved to.
	References map[syntax.Key]symbol.Symbol
	SmartCasts []ScopedCast
	Duration   time.Duration
	// Err is set when analysis aborted. Diagnostics gathered before the
	// failure are kept.
	Err error
}

// TypeOf returns the type inferred for n.
func (r *Result) TypeOf(n *syntax.Node) (types.Type, bool) {
	if n == nil {
		return nil, false
	}
	t, ok := r.Types[n.Key()]
	return t, ok
}

// ReferenceOf returns the symbol identifier n resolved to.
func (r *Result) ReferenceOf(n *syntax.Node) symbol.Symbol {
	if n == nil {
		return nil
	}
	return r.References[n.Key()]
}

// SmartCastAt returns the narrowing of sym in effect at pos.
func (r *Result) SmartCastAt(sym symbol.Symbol, pos syntax.Position) (SmartCast, bool) {
	return smartCastAt(r.SmartCasts, sym, pos)
}

func (r *Result) Errors() []diagnostic.Diagnostic {
	return r.bySeverity(diagnostic.SeverityError)
}

func (r *Result) Warnings() []diagnostic.Diagnostic {
	return r.bySeverity(diagnostic.SeverityWarning)
}

func (r *Result) bySeverity(sev diagnostic.Severity) []diagnostic.Diagnostic {
	var out []diagnostic.Diagnostic
	for _, d := range r.Diagnostics {
		if d.Severity == sev {
			out = append(out, d)
		}
	}
	return out
}

// ByCode returns the diagnostics reported with code.
func (r *Result) ByCode(code diagnostic.Code) []diagnostic.Diagnostic {
	var out []diagnostic.Diagnostic
	for _, d := range r.Diagnostics {
		if d.Code == code {
			out = append(out, d)
		}
	}
	return out
}

// Option configures AnalyzeFile.
type Option func(*options)

type options struct {
	project *index.Project
	logger  *slog.Logger
}

// WithProject resolves names against p in addition to the file itself.
func WithProject(p *index.Project) Option {
	return func(o *options) { o.project = p }
}

func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// AnalyzeFile runs semantic analysis over one parsed file and its symbol
// table. The file's own records are excluded from the project so local
// declarations are not seen twice.
func AnalyzeFile(tree *syntax.Tree, table *symbol.Table, opts ...Option) (res *Result) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	project := o.project
	if project != nil && table != nil {
		project = project.Without(table.FilePath)
	}
	ctx := NewContext(tree, table, project, o.logger)
	file := ctx.FilePath()
	ctx.Logger.Debug("analyze file", "file", file)

	defer func() {
		if r := recover(); r != nil {
			res = ctx.Result()
			res.Err = fmt.Errorf("semantic: analyze %s: panic: %v", file, r)
			ctx.Logger.Error("analysis aborted", "file", file, "error", res.Err)
		}
	}()

	Analyze(ctx)
	res = ctx.Result()
	ctx.Logger.Debug("analyzed file",
		"file", file,
		"errors", len(res.Errors()),
		"warnings", len(res.Warnings()),
		"duration", res.Duration)
	return res
}
