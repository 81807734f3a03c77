package semantic

import (
	"strings"

	"github.com/jward/ksema/internal/diagnostic"
	"github.com/jward/ksema/internal/index"
	"github.com/jward/ksema/internal/symbol"
	"github.com/jward/ksema/internal/syntax"
	"github.com/jward/ksema/internal/types"
)

// Analyzer walks the declarations of one file, drives the inferrer over
// every body and reports the checks that need more than an expression's
// type: imports, assignments, loops, exhaustiveness and abstract members.
type Analyzer struct {
	ctx *Context
	res *Resolver
	in  *Inferrer

	// checked holds when expressions and object literals already analyzed.
	checked   map[syntax.Key]bool
	abstracts map[*symbol.Class]bool
}

func NewAnalyzer(ctx *Context) *Analyzer {
	res := NewResolver(ctx)
	a := &Analyzer{
		ctx:       ctx,
		res:       res,
		in:        NewInferrer(ctx, res),
		checked:   make(map[syntax.Key]bool),
		abstracts: make(map[*symbol.Class]bool),
	}
	a.in.SetObserver(a)
	return a
}

// Inferrer returns the inferrer the analyzer drives, for position queries
// after the run.
func (a *Analyzer) Inferrer() *Inferrer { return a.in }

// Analyze runs the full analysis of ctx's file. Results are read from ctx.
func Analyze(ctx *Context) {
	NewAnalyzer(ctx).Run()
}

// Run reports parse errors, validates imports and then visits every
// declaration of the file.
func (a *Analyzer) Run() {
	if a.ctx.Tree == nil || a.ctx.Table == nil {
		return
	}
	root := a.ctx.Tree.Root()
	a.syntaxErrors(root)
	a.ctx.Types.RegisterClasses()
	a.imports(root)
	a.declarations(root, a.ctx.Table.Root())
}

// syntaxErrors reports each ERROR and missing node once and records its
// range, so semantic errors inside it are dropped.
func (a *Analyzer) syntaxErrors(root *syntax.Node) {
	if !root.HasError() {
		return
	}
	root.Walk(func(n *syntax.Node) bool {
		switch {
		case n.IsError():
			a.ctx.AddSyntaxErrorRange(n.Range())
			a.ctx.Collector.Error(diagnostic.SyntaxError, n.Range(), "unexpected '"+snippet(n.Text())+"'")
			return false
		case n.IsMissing():
			a.ctx.AddSyntaxErrorRange(n.Range())
			a.ctx.Collector.Error(diagnostic.SyntaxError, n.Range(), "missing "+n.Kind())
			return false
		}
		return n.HasError()
	})
}

func snippet(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if len(s) > 40 {
		return s[:40] + "..."
	}
	return s
}

// imports checks that explicit imports name something and that star
// imports name a known package or class.
func (a *Analyzer) imports(root *syntax.Node) {
	headers := make(map[int]*syntax.Node)
	for _, c := range root.Children() {
		switch c.Kind() {
		case syntax.KindImportHeader:
			headers[c.Range().StartByte] = c
		case syntax.KindImportList:
			for _, h := range c.FindChildren(syntax.KindImportHeader) {
				headers[h.Range().StartByte] = h
			}
		}
	}
	for _, imp := range a.ctx.Table.Imports {
		n := headers[imp.Range.StartByte]
		if imp.Star {
			if !a.packageKnown(imp.FQName) {
				a.reportImport(diagnostic.SeverityWarning, n, imp, imp.FQName+".*")
			}
			continue
		}
		if !a.importResolves(imp.FQName) {
			a.reportImport(diagnostic.SeverityError, n, imp, imp.FQName)
		}
	}
}

func (a *Analyzer) reportImport(sev diagnostic.Severity, n *syntax.Node, imp symbol.Import, name string) {
	r := imp.Range
	if n != nil {
		if id := n.FindChild(syntax.KindIdentifier); id != nil {
			r = id.Range()
		}
	}
	switch {
	case sev == diagnostic.SeverityWarning:
		a.ctx.Collector.Warning(diagnostic.UnresolvedReference, r, name)
	case n != nil:
		a.ctx.ReportErrorAt(diagnostic.UnresolvedReference, n, r, name)
	default:
		a.ctx.Collector.Error(diagnostic.UnresolvedReference, r, name)
	}
}

// importResolves reports whether fq names an indexed symbol, a member of an
// indexed class, a builtin type or a declaration of this file.
func (a *Analyzer) importResolves(fq string) bool {
	p := a.ctx.Project
	if len(p.FindByFQName(fq)) > 0 {
		return true
	}
	pkg, name := index.PackageOf(fq), index.SimpleName(fq)
	if pkg != "" {
		for _, m := range p.FindMembers(pkg) {
			if m.Name == name {
				return true
			}
		}
	}
	if b, ok := types.BuiltinFQName(name); ok && b == fq {
		return true
	}
	for _, s := range a.ctx.Table.Symbols() {
		if symbol.IsSynthetic(s) {
			continue
		}
		if symbol.QualifiedName(s) == fq {
			return true
		}
	}
	own := name
	if a.ctx.Table.PackageName != "" {
		own = a.ctx.Table.PackageName + "." + name
	}
	if own != fq {
		return false
	}
	for _, s := range a.ctx.Table.TopLevelSymbols() {
		if symbol.Name(s) == name {
			return true
		}
	}
	return false
}

// packageKnown reports whether a star import target is a package or class
// anything is known about.
func (a *Analyzer) packageKnown(fq string) bool {
	p := a.ctx.Project
	if len(p.FindByPackage(fq)) > 0 || len(p.FindByFQName(fq)) > 0 {
		return true
	}
	if fq == a.ctx.Table.PackageName || a.ctx.LocalClass(fq) != nil {
		return true
	}
	for _, pkg := range types.DefaultImports {
		if pkg == fq {
			return true
		}
	}
	return false
}

func (a *Analyzer) declarations(n *syntax.Node, scope *symbol.Scope) {
	for _, c := range n.Children() {
		if c.IsNamed() {
			a.declaration(c, scope)
		}
	}
}

func (a *Analyzer) declaration(n *syntax.Node, scope *symbol.Scope) {
	switch n.Kind() {
	case syntax.KindClassDeclaration, syntax.KindObjectDeclaration, syntax.KindCompanionObject:
		a.class(n, scope)
	case syntax.KindFunctionDeclaration:
		a.function(n, scope)
	case syntax.KindPropertyDeclaration:
		a.property(n, scope)
	case syntax.KindSecondaryConstructor:
		a.secondaryConstructor(n, scope)
	case syntax.KindAnonymousInitializer:
		a.initBlock(n, scope)
	case syntax.KindTypeAlias:
		a.typeAlias(n, scope)
	case syntax.KindPackageHeader, syntax.KindImportList, syntax.KindImportHeader,
		syntax.KindShebangLine, syntax.KindFileAnnotation, syntax.KindModifiers:
	case syntax.KindGetter, syntax.KindSetter:
		// Analyzed with the property they follow.
	case syntax.KindError, syntax.KindStatements:
		a.declarations(n, scope)
	default:
		if syntax.IsComment(n.Kind()) {
			return
		}
		if p := n.Parent(); p != nil && p.Kind() == syntax.KindSourceFile && isExpression(n) {
			// Script files allow statements at top level.
			a.in.Infer(n, scope, nil)
		}
	}
}

// Statement implements Observer for declarations and statements met inside
// bodies.
func (a *Analyzer) Statement(n *syntax.Node, scope *symbol.Scope) (types.Type, bool) {
	switch n.Kind() {
	case syntax.KindAssignment:
		a.assignment(n, scope)
	case syntax.KindForStatement:
		a.forLoop(n, scope)
	case syntax.KindWhileStatement:
		a.whileLoop(n, scope)
	case syntax.KindDoWhileStatement:
		a.doWhileLoop(n, scope)
	case syntax.KindPropertyDeclaration:
		a.property(n, scope)
	case syntax.KindFunctionDeclaration:
		a.function(n, scope)
	case syntax.KindClassDeclaration, syntax.KindObjectDeclaration:
		a.class(n, scope)
	case syntax.KindTypeAlias:
		a.typeAlias(n, scope)
	default:
		return nil, false
	}
	return types.UnitType, true
}

// ValueUsed implements Observer. A when whose value is consumed must be
// exhaustive.
func (a *Analyzer) ValueUsed(n *syntax.Node, scope *symbol.Scope) {
	n = trimTrivia(n)
	if n == nil || n.Kind() != syntax.KindWhenExpression {
		return
	}
	if a.checked[n.Key()] {
		return
	}
	a.checked[n.Key()] = true
	a.checkExhaustive(n, scope)
}

// ObjectLiteral implements Observer: object expressions are analyzed like
// class declarations.
func (a *Analyzer) ObjectLiteral(n *syntax.Node, cls *symbol.Class) {
	if a.checked[n.Key()] {
		return
	}
	a.checked[n.Key()] = true
	members := a.ctx.Table.Scope(cls.Members)
	if members == nil {
		return
	}
	for _, c := range n.Children() {
		switch c.Kind() {
		case syntax.KindDelegationSpecifier, "delegation_specifiers":
			a.delegation(c, members)
		case syntax.KindClassBody:
			a.classBody(c, members)
		}
	}
	nameNode := n
	for _, c := range n.Children() {
		if c.Kind() == "object" {
			nameNode = c
			break
		}
	}
	a.checkAbstractMembers(cls, nameNode)
}
