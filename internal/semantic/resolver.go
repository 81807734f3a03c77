package semantic

import (
	"strings"

	"github.com/jward/ksema/internal/index"
	"github.com/jward/ksema/internal/symbol"
	"github.com/jward/ksema/internal/syntax"
	"github.com/jward/ksema/internal/types"
)

// Resolution is the outcome of a name lookup: Resolved, Unresolved or
// Ambiguous.
type Resolution interface {
	isResolution()
}

// Resolved holds one symbol, or several when all of them are functions.
type Resolved struct {
	Symbols []symbol.Symbol
}

type Unresolved struct {
	Name string
}

// Ambiguous holds several non-function symbols matching one name.
type Ambiguous struct {
	Candidates []symbol.Symbol
}

func (Resolved) isResolution()   {}
func (Unresolved) isResolution() {}
func (Ambiguous) isResolution()  {}

// SymbolsOf returns the symbols of a Resolved result and nil otherwise.
func SymbolsOf(r Resolution) []symbol.Symbol {
	if res, ok := r.(Resolved); ok {
		return res.Symbols
	}
	return nil
}

func resolution(name string, syms []symbol.Symbol) Resolution {
	if len(syms) == 0 {
		return Unresolved{Name: name}
	}
	values := 0
	for _, s := range syms {
		if _, fn := s.(*symbol.Function); !fn {
			values++
		}
	}
	if values > 1 {
		return Ambiguous{Candidates: syms}
	}
	return Resolved{Symbols: syms}
}

// Resolver answers name, member and receiver lookups for one file, falling
// back from the file's scopes to the project and library indexes.
type Resolver struct {
	ctx *Context
}

func NewResolver(ctx *Context) *Resolver {
	return &Resolver{ctx: ctx}
}

func (r *Resolver) root() *symbol.Scope {
	if r.ctx.Table == nil {
		return nil
	}
	return r.ctx.Table.Root()
}

// ResolveSimpleName looks name up through the scope chain, the file's
// imports, the default imports, the project and the libraries, in that
// order.
func (r *Resolver) ResolveSimpleName(name string, scope *symbol.Scope) Resolution {
	if name == "" {
		return Unresolved{}
	}
	if scope == nil {
		scope = r.root()
	}
	if found := scope.Resolve(name); len(found) > 0 {
		return resolution(name, found)
	}
	steps := []func(string) []index.Symbol{
		r.explicitImport,
		r.starImports,
		r.defaultImports,
		r.samePackage,
		r.libraryByName(r.ctx.Project.Stdlib()),
		r.libraryByName(r.ctx.Project.Classpath()),
	}
	for _, step := range steps {
		if recs := step(name); len(recs) > 0 {
			return resolution(name, r.materializeAll(recs))
		}
	}
	return Unresolved{Name: name}
}

func (r *Resolver) explicitImport(name string) []index.Symbol {
	if r.ctx.Table == nil {
		return nil
	}
	imp, ok := r.ctx.Table.ExplicitImport(name)
	if !ok {
		return nil
	}
	if recs := visible(r.ctx.Project.FindByFQName(imp.FQName)); len(recs) > 0 {
		return recs
	}
	// import pkg.Object.member
	owner, member := index.PackageOf(imp.FQName), index.SimpleName(imp.FQName)
	return named(r.ctx.Project.FindMembers(owner), member)
}

func (r *Resolver) starImports(name string) []index.Symbol {
	if r.ctx.Table == nil {
		return nil
	}
	for _, pkg := range r.ctx.Table.StarImports() {
		if recs := visible(r.ctx.Project.FindByFQName(pkg + "." + name)); len(recs) > 0 {
			return recs
		}
		if recs := named(r.ctx.Project.FindMembers(pkg), name); len(recs) > 0 {
			return recs
		}
	}
	return nil
}

func (r *Resolver) defaultImports(name string) []index.Symbol {
	for _, pkg := range types.DefaultImports {
		if recs := visible(r.ctx.Project.FindByFQName(pkg + "." + name)); len(recs) > 0 {
			return recs
		}
	}
	return nil
}

func (r *Resolver) samePackage(name string) []index.Symbol {
	fq := name
	if r.ctx.Table != nil && r.ctx.Table.PackageName != "" {
		fq = r.ctx.Table.PackageName + "." + name
	}
	return visible(r.ctx.Project.FindByFQName(fq))
}

func (r *Resolver) libraryByName(m *index.Memory) func(string) []index.Symbol {
	return func(name string) []index.Symbol {
		if m == nil {
			return nil
		}
		return visible(m.FindBySimpleName(name))
	}
}

// visible keeps the records a bare name can refer to: classes and top-level
// non-extension declarations.
func visible(recs []index.Symbol) []index.Symbol {
	var out []index.Symbol
	for _, s := range recs {
		switch {
		case s.Kind.IsClass():
			out = append(out, s)
		case s.Kind == index.KindConstructor || s.IsExtension() || s.IsMember():
		default:
			out = append(out, s)
		}
	}
	return out
}

func named(recs []index.Symbol, name string) []index.Symbol {
	var out []index.Symbol
	for _, s := range recs {
		if s.Name == name && s.Kind != index.KindConstructor {
			out = append(out, s)
		}
	}
	return out
}

func recordKey(s index.Symbol) string {
	var b strings.Builder
	b.WriteString(string(s.Kind))
	b.WriteByte('|')
	b.WriteString(s.FQName)
	b.WriteByte('|')
	b.WriteString(s.ContainingClass)
	b.WriteByte('|')
	b.WriteString(s.ReceiverType)
	for _, p := range s.Parameters {
		b.WriteByte('|')
		b.WriteString(p.Type)
	}
	return b.String()
}

// materialize turns an index record into a symbol. The same record always
// yields the same symbol within one context.
func (r *Resolver) materialize(rec index.Symbol) symbol.Symbol {
	key := recordKey(rec)
	if sym, ok := r.ctx.shared.converted[key]; ok {
		return sym
	}
	sym := rec.ToSymbol()
	if local := r.ctx.LocalClass(rec.FQName); local != nil && rec.Kind.IsClass() {
		sym = local
	}
	r.ctx.shared.converted[key] = sym
	r.ctx.shared.external[sym] = rec
	return sym
}

func (r *Resolver) materializeAll(recs []index.Symbol) []symbol.Symbol {
	seen := make(map[string]bool, len(recs))
	out := make([]symbol.Symbol, 0, len(recs))
	for _, rec := range recs {
		key := recordKey(rec)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, r.materialize(rec))
	}
	return out
}

// ResolveQualifiedName resolves a dotted name: the longest known class
// prefix first, then nested classes, enum entries and companion members.
func (r *Resolver) ResolveQualifiedName(name string, scope *symbol.Scope) Resolution {
	segs := strings.Split(name, ".")
	if len(segs) == 1 {
		return r.ResolveSimpleName(name, scope)
	}
	var cur []symbol.Symbol
	rest := segs[1:]
	switch head := r.ResolveSimpleName(segs[0], scope).(type) {
	case Resolved:
		cur = head.Symbols
	default:
		for i := len(segs); i > 0; i-- {
			fq := strings.Join(segs[:i], ".")
			if c := r.ctx.LocalClass(fq); c != nil {
				cur, rest = []symbol.Symbol{c}, segs[i:]
				break
			}
			if recs := visible(r.ctx.Project.FindByFQName(fq)); len(recs) > 0 {
				cur, rest = r.materializeAll(recs), segs[i:]
				break
			}
		}
	}
	if len(cur) == 0 {
		return Unresolved{Name: name}
	}
	for _, seg := range rest {
		cls, ok := cur[0].(*symbol.Class)
		if !ok {
			return Unresolved{Name: name}
		}
		cur = r.staticMembers(cls, seg)
		if len(cur) == 0 {
			return Unresolved{Name: name}
		}
	}
	return resolution(name, cur)
}

// staticMembers finds what `Class.name` denotes when Class is a type name:
// nested classes, enum entries and companion members.
func (r *Resolver) staticMembers(cls *symbol.Class, name string) []symbol.Symbol {
	var out []symbol.Symbol
	if cls.Members != symbol.NoScope && r.ctx.Table != nil {
		for _, s := range r.ctx.Table.Scope(cls.Members).ResolveLocal(name) {
			if _, ok := s.(*symbol.Class); ok || cls.IsObject() {
				out = append(out, s)
			}
		}
		if len(out) == 0 && cls.Companion != nil {
			if cls.Companion.Name == name {
				out = append(out, cls.Companion)
			} else {
				out = append(out, r.ctx.Table.Scope(cls.Companion.Members).ResolveLocal(name)...)
			}
		}
		if len(out) > 0 || !symbol.IsSynthetic(cls) {
			return out
		}
	}
	fq := cls.FullName()
	for _, rec := range named(r.ctx.Project.FindMembers(fq), name) {
		if rec.Kind.IsClass() || cls.IsObject() {
			out = append(out, r.materialize(rec))
		}
	}
	if len(out) == 0 {
		out = r.materializeAll(named(r.ctx.Project.FindMembers(fq+".Companion"), name))
	}
	return out
}

// ResolveType resolves a type name as written at scope.
func (r *Resolver) ResolveType(name string, scope *symbol.Scope) types.Type {
	return r.ctx.Types.Resolve(symbol.ParseTypeReference(name), scope)
}

// IsExternalType reports whether t names a class known from a library index
// rather than from this file.
func (r *Resolver) IsExternalType(t types.Type) bool {
	fq := types.FQNameOf(types.NonNull(t))
	if fq == "" || r.ctx.LocalClass(fq) != nil {
		return false
	}
	if strings.HasPrefix(fq, "kotlin.") {
		return true
	}
	return r.ctx.Project.IsExternal(fq)
}

// trustedSupertypes are library classes whose members are always indexed,
// so an unresolved member of a local class extending them is still an error.
var trustedSupertypes = map[string]bool{
	types.FQAny:        true,
	types.FQComparable: true,
	"kotlin.Enum":      true,
}

// isLocalType reports whether every member of t is known: t is declared in
// this file and so is each of its supertypes, apart from trusted ones.
func (r *Resolver) isLocalType(t types.Type) bool {
	c, ok := types.NonNull(t).(*types.Class)
	if !ok || r.ctx.LocalClass(c.FQName) == nil {
		return false
	}
	for _, st := range r.ctx.Checker.Hierarchy().AllSupertypes(c) {
		if r.ctx.LocalClass(st.FQName) == nil && !trustedSupertypes[st.FQName] {
			return false
		}
	}
	return true
}

// ResolveReference returns the symbol an identifier, navigation or call
// node refers to, as recorded during inference or looked up afresh.
func (r *Resolver) ResolveReference(n *syntax.Node, scope *symbol.Scope) symbol.Symbol {
	if n == nil {
		return nil
	}
	if sym := r.ctx.ReferenceOf(n); sym != nil {
		return sym
	}
	switch n.Kind() {
	case syntax.KindSimpleIdentifier, syntax.KindTypeIdentifier:
		if scope == nil {
			scope = r.ctx.Table.ScopeForNode(n)
		}
		if syms := SymbolsOf(r.ResolveSimpleName(strings.Trim(n.Text(), "`"), scope)); len(syms) > 0 {
			return syms[0]
		}
	case syntax.KindNavigationExpression:
		if suffix := n.FindChild(syntax.KindNavigationSuffix); suffix != nil {
			return r.ctx.ReferenceOf(suffix.FindChild(syntax.KindSimpleIdentifier))
		}
	case syntax.KindCallExpression:
		return r.ResolveReference(calleeNameNode(n.NamedChild(0)), scope)
	case syntax.KindUserType:
		return r.ResolveReference(n.FindChild(syntax.KindTypeIdentifier), scope)
	}
	return nil
}

// calleeNameNode returns the identifier naming the function of a callee
// expression.
func calleeNameNode(callee *syntax.Node) *syntax.Node {
	switch callee.Kind() {
	case syntax.KindSimpleIdentifier:
		return callee
	case syntax.KindNavigationExpression:
		return callee.FindChild(syntax.KindNavigationSuffix).FindChild(syntax.KindSimpleIdentifier)
	}
	return nil
}
