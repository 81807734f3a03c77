package symbol

import (
	"log/slog"
	"strings"
	"time"

	"github.com/jward/ksema/internal/syntax"
)

// DefaultFilePath names sources built without a path. Symbols need a
// non-empty path to count as declared in source.
const DefaultFilePath = "<source>"

// BuildOption configures Build.
type BuildOption func(*builder)

// WithLogger sets the logger Build traces to. The default is slog.Default().
func WithLogger(l *slog.Logger) BuildOption {
	return func(b *builder) {
		if l != nil {
			b.logger = l
		}
	}
}

// Build populates a Table from a parsed file: declarations, their scopes,
// imports and the package header. The walk recurses over the syntax tree and
// assumes nesting depth stays within what the parser itself produces.
func Build(tree *syntax.Tree, filePath string, opts ...BuildOption) *Table {
	if filePath == "" {
		filePath = DefaultFilePath
	}
	start := time.Now()
	root := tree.Root()
	t := NewTable(filePath, root.Range())
	b := &builder{table: t, file: filePath, src: tree.Source(), logger: slog.Default()}
	for _, opt := range opts {
		opt(b)
	}
	b.logger.Debug("building symbols", "file", filePath)
	b.visitFile(root)
	b.logger.Debug("symbols built",
		"file", filePath,
		"package", t.PackageName,
		"symbols", len(t.Symbols()),
		"duration", time.Since(start))
	return t
}

type builder struct {
	table  *Table
	file   string
	src    []byte
	logger *slog.Logger
}

// declContext carries naming information down the walk.
type declContext struct {
	// prefix is the qualified name of the enclosing package or class.
	prefix string
	// class is the class whose members are being declared, if any.
	class *Class
	// local is set inside callable bodies; locals get no qualified name.
	local bool
}

func (dc declContext) qualify(name string) string {
	switch {
	case dc.local:
		return ""
	case dc.prefix == "":
		return name
	}
	return dc.prefix + "." + name
}

func (dc declContext) member(c *Class) declContext {
	return declContext{prefix: c.QualifiedName, class: c, local: dc.local}
}

func (dc declContext) container() string {
	if dc.class == nil {
		return ""
	}
	return dc.class.FullName()
}

var localContext = declContext{local: true}

func (b *builder) visitFile(root *syntax.Node) {
	for _, c := range root.Children() {
		switch c.Kind() {
		case syntax.KindPackageHeader:
			b.packageHeader(c)
		case syntax.KindImportList:
			for _, h := range c.FindChildren(syntax.KindImportHeader) {
				b.importHeader(h)
			}
		case syntax.KindImportHeader:
			b.importHeader(c)
		}
	}
	scope := b.table.Root()
	dc := declContext{prefix: b.table.PackageName}
	for _, c := range root.Children() {
		switch c.Kind() {
		case syntax.KindPackageHeader, syntax.KindImportList, syntax.KindImportHeader:
			continue
		}
		if c.IsNamed() {
			b.visit(c, scope, dc)
		}
	}
}

func (b *builder) packageHeader(n *syntax.Node) {
	text := n.Text()
	if id := n.FindChild(syntax.KindIdentifier); id != nil {
		text = id.Text()
	} else {
		text = strings.TrimPrefix(strings.TrimSpace(text), "package")
	}
	b.table.PackageName = compact(strings.TrimSuffix(strings.TrimSpace(text), ";"))
	b.table.PackageRange = n.Range()
}

func (b *builder) importHeader(n *syntax.Node) {
	text := strings.TrimSpace(n.Text())
	text = strings.TrimSpace(strings.TrimSuffix(text, ";"))
	text = strings.TrimSpace(strings.TrimPrefix(text, "import"))
	imp := Import{Range: n.Range()}
	if i := strings.Index(text, " as "); i >= 0 {
		imp.Alias = strings.TrimSpace(text[i+len(" as "):])
		text = text[:i]
	}
	text = compact(text)
	if strings.HasSuffix(text, ".*") || n.FindChild(syntax.KindWildcard) != nil {
		imp.Star = true
		text = strings.TrimSuffix(text, ".*")
	}
	imp.FQName = text
	if imp.FQName != "" {
		b.table.Imports = append(b.table.Imports, imp)
	}
}

// compact removes all whitespace, joining dotted names split across lines.
func compact(s string) string {
	return strings.Join(strings.Fields(s), "")
}

func (b *builder) visit(n *syntax.Node, scope *Scope, dc declContext) {
	switch n.Kind() {
	case syntax.KindClassDeclaration:
		b.classDeclaration(n, scope, dc)
	case syntax.KindObjectDeclaration:
		b.objectDeclaration(n, scope, dc)
	case syntax.KindCompanionObject:
		b.companionObject(n, scope, dc)
	case syntax.KindFunctionDeclaration:
		b.functionDeclaration(n, scope, dc)
	case syntax.KindPropertyDeclaration:
		b.propertyDeclaration(n, scope, dc)
	case syntax.KindTypeAlias:
		b.typeAlias(n, scope, dc)
	case syntax.KindSecondaryConstructor:
		b.secondaryConstructor(n, scope, dc)
	case syntax.KindAnonymousInitializer:
		b.initBlock(n, scope)
	case syntax.KindLambdaLiteral:
		b.lambda(n, scope)
	case syntax.KindAnonymousFunction:
		b.anonymousFunction(n, scope)
	case syntax.KindForStatement:
		b.forStatement(n, scope)
	case syntax.KindCatchBlock:
		b.catchBlock(n, scope)
	case syntax.KindWhenExpression:
		b.whenExpression(n, scope)
	case syntax.KindObjectLiteral:
		b.objectLiteral(n, scope)
	case syntax.KindStatements:
		b.block(n, scope)
	case syntax.KindGetter, syntax.KindSetter:
		// Accessors split from their property are built with it.
		if accessorOwner(n) == nil {
			b.visitChildren(n, scope, localContext)
		}
	case syntax.KindError:
		b.visitError(n, scope, dc)
	default:
		if syntax.IsComment(n.Kind()) {
			return
		}
		b.visitChildren(n, scope, dc)
	}
}

func (b *builder) visitChildren(n *syntax.Node, scope *Scope, dc declContext) {
	for _, c := range n.Children() {
		if c.IsNamed() {
			b.visit(c, scope, dc)
		}
	}
}

// bindBody binds n and the statements directly beneath it to s, so the body
// does not open a second scope.
func (b *builder) bindBody(n *syntax.Node, s *Scope) {
	b.table.BindScope(n, s.ID)
	if st := n.FindChild(syntax.KindStatements); st != nil {
		b.table.BindScope(st, s.ID)
	}
}

func (b *builder) block(n *syntax.Node, scope *Scope) {
	s := b.table.ScopeOf(n)
	if s == nil {
		s = scope.CreateChild(ScopeBlock, nil, n.Range())
		b.bindBody(n, s)
	}
	b.visitChildren(n, s, localContext)
}

func (b *builder) declaration(n *syntax.Node, nameRange syntax.Range, name string, mods Modifiers, dc declContext) Declaration {
	return Declaration{
		Name:          name,
		QualifiedName: dc.qualify(name),
		Location:      Location{FilePath: b.file, Range: n.Range(), NameRange: nameRange},
		Modifiers:     mods,
		Node:          n,
	}
}

func (b *builder) modifiers(n *syntax.Node) Modifiers {
	var m Modifiers
	applyModifiers(&m, n.FindChild(syntax.KindModifiers))
	return m
}

func applyModifiers(m *Modifiers, mods *syntax.Node) {
	for _, c := range mods.Children() {
		if c.Kind() == syntax.KindAnnotation {
			m.Apply(c.Text())
			continue
		}
		for _, word := range strings.Fields(c.Text()) {
			m.Apply(word)
		}
	}
}

func identifierName(n *syntax.Node) string {
	return strings.Trim(n.Text(), "`")
}

// nameNode returns the first identifier child of a declaration.
func nameNode(n *syntax.Node) *syntax.Node {
	if id := n.FindChild(syntax.KindTypeIdentifier); id != nil {
		return id
	}
	return n.FindChild(syntax.KindSimpleIdentifier)
}

// typeAfter returns the first type node following the given token.
func typeAfter(n *syntax.Node, token string) *syntax.Node {
	seen := false
	for _, c := range n.Children() {
		if !c.IsNamed() && c.Kind() == token {
			seen = true
			continue
		}
		if seen && IsTypeNode(c) {
			return c
		}
	}
	return nil
}

// expressionAfter returns the first expression following the given token.
func expressionAfter(n *syntax.Node, token string) *syntax.Node {
	seen := false
	for _, c := range n.Children() {
		if !c.IsNamed() && c.Kind() == token {
			seen = true
			continue
		}
		if seen && !syntax.IsComment(c.Kind()) && (c.IsNamed() || c.Kind() == syntax.KindNullLiteral) {
			return c
		}
	}
	return nil
}
