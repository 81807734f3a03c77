// Package semantic resolves names, infers expression types and reports
// semantic diagnostics over one parsed Kotlin file.
package semantic

import (
	"log/slog"
	"time"

	"github.com/jward/ksema/internal/diagnostic"
	"github.com/jward/ksema/internal/index"
	"github.com/jward/ksema/internal/symbol"
	"github.com/jward/ksema/internal/syntax"
	"github.com/jward/ksema/internal/types"
)

// SmartCast records a narrowed type for a stable value.
type SmartCast struct {
	Original  types.Type
	Cast      types.Type
	Condition *syntax.Node
}

// ScopedCast is a smart cast together with the source range it holds in.
type ScopedCast struct {
	Symbol symbol.Symbol
	Cast   SmartCast
	Range  syntax.Range
}

// Context is the per-file analysis state shared by the resolver, the
// inferrer and the analyzer. It is not safe for concurrent use.
type Context struct {
	Tree      *syntax.Tree
	Table     *symbol.Table
	Project   *index.Project
	Collector *diagnostic.Collector
	Types     *types.Resolver
	Checker   *types.Checker
	Logger    *slog.Logger

	shared *shared
	start  time.Time
}

// shared holds the caches a child context keeps in common with its parent.
type shared struct {
	nodeTypes map[syntax.Key]types.Type
	nodeRefs  map[syntax.Key]symbol.Symbol
	nodeCasts map[syntax.Key]SmartCast
	symTypes  map[symbol.Symbol]types.Type
	computing map[symbol.Symbol]bool

	active map[symbol.Symbol][]SmartCast
	scoped []ScopedCast

	errorRanges []syntax.Range

	// external maps symbols materialized from the index back to their records.
	external   map[symbol.Symbol]index.Symbol
	converted  map[string]symbol.Symbol
	signatures map[*symbol.Function]*Signature
	typeParams map[symbol.Symbol]map[string]*types.TypeParam

	localClasses map[string]*symbol.Class
	// receivers holds the receiver type of lambdas passed where a function
	// type with receiver is expected, keyed by the lambda's scope.
	receivers map[symbol.ScopeID]types.Type
}

// NewContext prepares a context for table. A nil project falls back to the
// bundled minimal standard library.
func NewContext(tree *syntax.Tree, table *symbol.Table, project *index.Project, logger *slog.Logger) *Context {
	if project == nil {
		project = index.NewProject(index.WithStdlib(index.Minimal()))
	}
	if logger == nil {
		logger = slog.Default()
	}
	file := symbol.DefaultFilePath
	if table != nil && table.FilePath != "" {
		file = table.FilePath
	}
	resolver := types.NewResolver(table, project, nil)
	ctx := &Context{
		Tree:      tree,
		Table:     table,
		Project:   project,
		Collector: diagnostic.NewCollector(file),
		Types:     resolver,
		Checker:   types.NewChecker(resolver.Hierarchy()),
		Logger:    logger,
		start:     time.Now(),
		shared: &shared{
			nodeTypes:    make(map[syntax.Key]types.Type),
			nodeRefs:     make(map[syntax.Key]symbol.Symbol),
			nodeCasts:    make(map[syntax.Key]SmartCast),
			symTypes:     make(map[symbol.Symbol]types.Type),
			computing:    make(map[symbol.Symbol]bool),
			active:       make(map[symbol.Symbol][]SmartCast),
			external:     make(map[symbol.Symbol]index.Symbol),
			converted:    make(map[string]symbol.Symbol),
			signatures:   make(map[*symbol.Function]*Signature),
			typeParams:   make(map[symbol.Symbol]map[string]*types.TypeParam),
			localClasses: make(map[string]*symbol.Class),
			receivers:    make(map[symbol.ScopeID]types.Type),
		},
	}
	if table != nil {
		for _, c := range table.AllClasses() {
			ctx.shared.localClasses[c.FullName()] = c
		}
	}
	return ctx
}

// FilePath is the path diagnostics are reported against.
func (c *Context) FilePath() string { return c.Collector.FilePath() }

// TypeOf returns the memoized type of n.
func (c *Context) TypeOf(n *syntax.Node) (types.Type, bool) {
	t, ok := c.shared.nodeTypes[n.Key()]
	return t, ok
}

func (c *Context) RecordType(n *syntax.Node, t types.Type) {
	if n == nil {
		return
	}
	c.shared.nodeTypes[n.Key()] = t
}

// ReferenceOf returns the symbol n was resolved to.
func (c *Context) ReferenceOf(n *syntax.Node) symbol.Symbol {
	if n == nil {
		return nil
	}
	return c.shared.nodeRefs[n.Key()]
}

// RecordReference remembers that n refers to sym and adds the reference to
// the symbol table.
func (c *Context) RecordReference(n *syntax.Node, sym symbol.Symbol, kind symbol.ReferenceKind) {
	if n == nil || sym == nil {
		return
	}
	key := n.Key()
	if _, seen := c.shared.nodeRefs[key]; seen {
		return
	}
	c.shared.nodeRefs[key] = sym
	if c.Table != nil {
		c.Table.RegisterReference(symbol.Reference{
			Range:  n.Range(),
			Name:   symbol.Name(sym),
			Symbol: sym,
			Kind:   kind,
		})
	}
}

// SmartCastOf returns the smart cast applied at n, if any.
func (c *Context) SmartCastOf(n *syntax.Node) (SmartCast, bool) {
	sc, ok := c.shared.nodeCasts[n.Key()]
	return sc, ok
}

func (c *Context) recordCast(n *syntax.Node, sc SmartCast) {
	c.shared.nodeCasts[n.Key()] = sc
}

// SymbolType returns the cached declared type of sym.
func (c *Context) SymbolType(sym symbol.Symbol) (types.Type, bool) {
	t, ok := c.shared.symTypes[sym]
	return t, ok
}

func (c *Context) RecordSymbolType(sym symbol.Symbol, t types.Type) {
	if sym == nil || t == nil {
		return
	}
	c.shared.symTypes[sym] = t
}

// StartComputing marks sym as having its type computed. It returns false
// when sym is already being computed, which means a dependency cycle.
func (c *Context) StartComputing(sym symbol.Symbol) bool {
	if c.shared.computing[sym] {
		return false
	}
	c.shared.computing[sym] = true
	return true
}

func (c *Context) FinishComputing(sym symbol.Symbol) {
	delete(c.shared.computing, sym)
}

func (c *Context) IsComputing(sym symbol.Symbol) bool {
	return c.shared.computing[sym]
}

// PushSmartCast narrows sym to sc.Cast until the matching PopSmartCast. r is
// the source range the narrowing holds in, kept for position queries.
func (c *Context) PushSmartCast(sym symbol.Symbol, sc SmartCast, r syntax.Range) {
	c.shared.active[sym] = append(c.shared.active[sym], sc)
	c.shared.scoped = append(c.shared.scoped, ScopedCast{Symbol: sym, Cast: sc, Range: r})
}

func (c *Context) PopSmartCast(sym symbol.Symbol) {
	stack := c.shared.active[sym]
	if len(stack) == 0 {
		return
	}
	if len(stack) == 1 {
		delete(c.shared.active, sym)
		return
	}
	c.shared.active[sym] = stack[:len(stack)-1]
}

// ActiveSmartCast returns the innermost smart cast currently applied to sym.
func (c *Context) ActiveSmartCast(sym symbol.Symbol) (SmartCast, bool) {
	stack := c.shared.active[sym]
	if len(stack) == 0 {
		return SmartCast{}, false
	}
	return stack[len(stack)-1], true
}

// SmartCastAt returns the narrowest smart cast of sym holding at pos.
func (c *Context) SmartCastAt(sym symbol.Symbol, pos syntax.Position) (SmartCast, bool) {
	return smartCastAt(c.shared.scoped, sym, pos)
}

func smartCastAt(scoped []ScopedCast, sym symbol.Symbol, pos syntax.Position) (SmartCast, bool) {
	var best *ScopedCast
	for i := range scoped {
		sc := &scoped[i]
		if sc.Symbol != sym || !sc.Range.Contains(pos) {
			continue
		}
		if best == nil || sc.Range.Size() <= best.Range.Size() {
			best = sc
		}
	}
	if best == nil {
		return SmartCast{}, false
	}
	return best.Cast, true
}

// AddSyntaxErrorRange marks r as covered by a parse error; semantic errors
// inside it are suppressed.
func (c *Context) AddSyntaxErrorRange(r syntax.Range) {
	c.shared.errorRanges = append(c.shared.errorRanges, r)
}

// LocalClass returns the class declared in this file under fq.
func (c *Context) LocalClass(fq string) *symbol.Class {
	return c.shared.localClasses[fq]
}

// External returns the index record a materialized symbol came from.
func (c *Context) External(sym symbol.Symbol) (index.Symbol, bool) {
	rec, ok := c.shared.external[sym]
	return rec, ok
}

// Child returns a context sharing all caches with c but collecting
// diagnostics separately, for speculative work.
func (c *Context) Child() *Context {
	cp := *c
	cp.Collector = diagnostic.NewCollector(c.FilePath())
	return &cp
}

// MergeChild adopts the diagnostics collected by child.
func (c *Context) MergeChild(child *Context) {
	if child == nil || child.Collector == c.Collector {
		return
	}
	c.Collector.Merge(child.Collector)
}

// Result snapshots the analysis outcome.
func (c *Context) Result() *Result {
	scoped := make([]ScopedCast, len(c.shared.scoped))
	copy(scoped, c.shared.scoped)
	return &Result{
		Table:       c.Table,
		Diagnostics: c.Collector.All(),
		Types:       c.shared.nodeTypes,
		References:  c.shared.nodeRefs,
		SmartCasts:  scoped,
		Duration:    time.Since(c.start),
	}
}
