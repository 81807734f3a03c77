package types

import (
	"strings"

	"github.com/jward/ksema/internal/index"
	"github.com/jward/ksema/internal/symbol"
)

// Resolver turns written type references into types in the context of one
// file: its scopes, imports and package, then the index.
type Resolver struct {
	table     *symbol.Table
	lookup    index.Lookup
	hierarchy *Hierarchy

	params  map[*symbol.TypeParameter]*TypeParam
	aliases map[*symbol.TypeAlias]bool
}

// NewResolver returns a resolver for table. lookup and h may be nil.
func NewResolver(table *symbol.Table, lookup index.Lookup, h *Hierarchy) *Resolver {
	if h == nil {
		h = NewHierarchy(lookup)
	}
	return &Resolver{
		table:     table,
		lookup:    lookup,
		hierarchy: h,
		params:    make(map[*symbol.TypeParameter]*TypeParam),
		aliases:   make(map[*symbol.TypeAlias]bool),
	}
}

func (r *Resolver) Hierarchy() *Hierarchy { return r.hierarchy }
func (r *Resolver) Lookup() index.Lookup  { return r.lookup }

// Resolve resolves ref as seen from scope; a nil scope means the file scope.
// A nil ref yields nil.
func (r *Resolver) Resolve(ref *symbol.TypeReference, scope *symbol.Scope) Type {
	if ref == nil {
		return nil
	}
	if ref.Star {
		return AnyNullable
	}
	if scope == nil && r.table != nil {
		scope = r.table.Root()
	}
	if ref.Function != nil {
		return r.function(ref, func(x *symbol.TypeReference) Type { return r.Resolve(x, scope) })
	}

	var t Type
	if target := r.scopeSymbol(ref.Name, scope); target != nil {
		t = r.fromSymbol(target, ref, scope)
	} else {
		t = r.named(ref.Name)
	}
	if c, ok := t.(*Class); ok && len(ref.Arguments) > 0 {
		cp := *c
		cp.Arguments = r.arguments(ref.Arguments, func(x *symbol.TypeReference) Type { return r.Resolve(x, scope) })
		t = &cp
	}
	if ref.Nullable {
		t = t.WithNullable(true)
	}
	return t
}

// ResolveName resolves a bare type name with no arguments.
func (r *Resolver) ResolveName(name string, scope *symbol.Scope) Type {
	return r.Resolve(symbol.NewTypeRef(name), scope)
}

func (r *Resolver) function(ref *symbol.TypeReference, res func(*symbol.TypeReference) Type) Type {
	fs := ref.Function
	f := &Function{Suspend: fs.Suspend, Nullable: ref.Nullable}
	for _, p := range fs.Parameters {
		f.Parameters = append(f.Parameters, orAny(res(p)))
	}
	if fs.Return != nil {
		f.Return = res(fs.Return)
	} else {
		f.Return = UnitType
	}
	if fs.Receiver != nil {
		f.Receiver = res(fs.Receiver)
	}
	return f
}

func (r *Resolver) arguments(refs []*symbol.TypeReference, res func(*symbol.TypeReference) Type) []Argument {
	out := make([]Argument, 0, len(refs))
	for _, a := range refs {
		if a.Star {
			out = append(out, Star)
			continue
		}
		out = append(out, Argument{Type: orAny(res(a)), Variance: ParseVariance(a.Variance)})
	}
	return out
}

func orAny(t Type) Type {
	if t == nil {
		return AnyNullable
	}
	return t
}

// scopeSymbol finds a type parameter, class or type alias named by the
// first segment of name in the scope chain. Dotted names then descend into
// nested classes.
func (r *Resolver) scopeSymbol(name string, scope *symbol.Scope) symbol.Symbol {
	if scope == nil || name == "" {
		return nil
	}
	head, rest, dotted := strings.Cut(name, ".")
	var found symbol.Symbol
	for _, s := range scope.Resolve(head) {
		switch s.(type) {
		case *symbol.TypeParameter, *symbol.Class, *symbol.TypeAlias:
			found = s
		}
		if found != nil {
			break
		}
	}
	if found == nil || !dotted {
		return found
	}
	for _, seg := range strings.Split(rest, ".") {
		cls, ok := found.(*symbol.Class)
		if !ok || r.table == nil {
			return nil
		}
		found = nil
		for _, s := range r.table.Scope(cls.Members).ResolveLocal(seg) {
			if c, ok := s.(*symbol.Class); ok {
				found = c
				break
			}
		}
		if found == nil && cls.Companion != nil && cls.Companion.Name == seg {
			found = cls.Companion
		}
		if found == nil {
			return nil
		}
	}
	return found
}

func (r *Resolver) fromSymbol(target symbol.Symbol, ref *symbol.TypeReference, scope *symbol.Scope) Type {
	switch s := target.(type) {
	case *symbol.TypeParameter:
		return r.TypeParam(s, scope)
	case *symbol.Class:
		if s.ClassKind == symbol.ClassKindEnumEntry {
			if owner := r.enumOf(s); owner != nil {
				return r.ClassType(owner, false)
			}
		}
		return &Class{FQName: s.FullName(), Symbol: s}
	case *symbol.TypeAlias:
		return r.expandAlias(s, ref, scope)
	}
	return Unresolved(ref.Name)
}

// TypeParam converts a declared type parameter, resolving its bounds once.
func (r *Resolver) TypeParam(s *symbol.TypeParameter, scope *symbol.Scope) *TypeParam {
	if p, ok := r.params[s]; ok {
		return p
	}
	p := &TypeParam{Name: s.Name, Variance: ParseVariance(s.Variance), Symbol: s}
	r.params[s] = p
	if r.table != nil && s.Scope != symbol.NoScope {
		scope = r.table.Scope(s.Scope)
	}
	for _, b := range s.Bounds {
		if bt := r.Resolve(b, scope); bt != nil && !bt.HasError() {
			p.Bounds = append(p.Bounds, bt)
		}
	}
	return p
}

func (r *Resolver) expandAlias(a *symbol.TypeAlias, ref *symbol.TypeReference, scope *symbol.Scope) Type {
	if r.aliases[a] {
		return Circular(a.Name)
	}
	r.aliases[a] = true
	defer delete(r.aliases, a)

	aliasScope := scope
	if r.table != nil && a.Scope != symbol.NoScope {
		aliasScope = r.table.Scope(a.Scope)
	}
	local := make(map[string]*TypeParam, len(a.TypeParameters))
	for _, p := range a.TypeParameters {
		local[p.Name] = &TypeParam{Name: p.Name, Variance: ParseVariance(p.Variance), Symbol: p}
	}
	underlying := r.resolveWith(a.Underlying, aliasScope, local)
	if underlying == nil {
		return Unresolved(a.Name)
	}
	if len(a.TypeParameters) == 0 || len(ref.Arguments) == 0 {
		return underlying
	}
	subst := make(Substitution, len(a.TypeParameters))
	for i, p := range a.TypeParameters {
		if i < len(ref.Arguments) {
			subst[p.Name] = orAny(r.Resolve(ref.Arguments[i], scope))
		}
	}
	return underlying.Substitute(subst)
}

// resolveWith resolves ref with extra type parameters in front of scope.
func (r *Resolver) resolveWith(ref *symbol.TypeReference, scope *symbol.Scope, local map[string]*TypeParam) Type {
	if ref == nil {
		return nil
	}
	if len(local) == 0 {
		return r.Resolve(ref, scope)
	}
	if p, ok := local[ref.Name]; ok && ref.Function == nil && len(ref.Arguments) == 0 {
		if ref.Nullable {
			return p.WithNullable(true)
		}
		return p
	}
	res := func(x *symbol.TypeReference) Type { return r.resolveWith(x, scope, local) }
	if ref.Function != nil {
		return r.function(ref, res)
	}
	t := r.Resolve(&symbol.TypeReference{Name: ref.Name, Nullable: ref.Nullable}, scope)
	if c, ok := t.(*Class); ok && len(ref.Arguments) > 0 {
		cp := *c
		cp.Arguments = r.arguments(ref.Arguments, res)
		t = &cp
	}
	return t
}

// named resolves a name that is not declared in any enclosing scope.
func (r *Resolver) named(name string) Type {
	if p, ok := PrimitiveNamed(name); ok {
		return p
	}
	if strings.HasPrefix(name, "kotlin.") {
		return &Class{FQName: name}
	}
	if !strings.Contains(name, ".") {
		if fq, ok := BuiltinFQName(name); ok {
			return &Class{FQName: fq}
		}
	}
	return r.imported(name, r.packageName(), r.imports())
}

func (r *Resolver) packageName() string {
	if r.table == nil {
		return ""
	}
	return r.table.PackageName
}

func (r *Resolver) imports() []symbol.Import {
	if r.table == nil {
		return nil
	}
	return r.table.Imports
}

// imported resolves name through the index: dotted names as written, then
// explicit imports, default imports, star imports and the same package.
func (r *Resolver) imported(name, pkg string, imports []symbol.Import) Type {
	if strings.Contains(name, ".") {
		if r.lookup == nil {
			return &Class{FQName: name}
		}
		if t, ok := r.indexedType(name); ok {
			return t
		}
		if pkg != "" {
			if t, ok := r.indexedType(pkg + "." + name); ok {
				return t
			}
		}
		return Unresolved(name)
	}

	for _, imp := range imports {
		if imp.Star || imp.SimpleName() != name {
			continue
		}
		if r.lookup == nil {
			return &Class{FQName: imp.FQName}
		}
		if t, ok := r.indexedType(imp.FQName); ok {
			return t
		}
	}
	if r.lookup != nil {
		for _, p := range DefaultImports {
			if t, ok := r.indexedType(p + "." + name); ok {
				return t
			}
		}
	}
	for _, imp := range imports {
		if !imp.Star {
			continue
		}
		if r.lookup == nil {
			return &Class{FQName: imp.FQName + "." + name}
		}
		if t, ok := r.indexedType(imp.FQName + "." + name); ok {
			return t
		}
	}
	if r.lookup == nil {
		return &Class{FQName: "kotlin." + name}
	}
	if pkg != "" {
		if t, ok := r.indexedType(pkg + "." + name); ok {
			return t
		}
	} else if t, ok := r.indexedType(name); ok {
		return t
	}
	return Unresolved(name)
}

// indexedType looks fq up in the index; type aliases are expanded.
func (r *Resolver) indexedType(fq string) (Type, bool) {
	for _, s := range r.lookup.FindByFQName(fq) {
		switch {
		case s.Kind.IsClass():
			return &Class{FQName: s.FQName}, true
		case s.Kind == index.KindTypeAlias:
			ref := symbol.ParseTypeReference(s.ReturnType)
			if ref == nil || index.BaseName(s.ReturnType) == s.Name {
				return &Class{FQName: s.FQName}, true
			}
			return r.ResolveExternal(ref, s.Package, nil), true
		}
	}
	return nil, false
}

// ResolveExternal resolves a type written in an indexed declaration, free
// of any file: params names the declaration's type parameters and pkg its
// package.
func (r *Resolver) ResolveExternal(ref *symbol.TypeReference, pkg string, params map[string]*TypeParam) Type {
	if ref == nil {
		return nil
	}
	if ref.Star {
		return AnyNullable
	}
	res := func(x *symbol.TypeReference) Type { return r.ResolveExternal(x, pkg, params) }
	if ref.Function != nil {
		return r.function(ref, res)
	}
	var t Type
	if p, ok := params[ref.Name]; ok {
		t = p
	} else if p, ok := PrimitiveNamed(ref.Name); ok {
		t = p
	} else if fq, ok := BuiltinFQName(ref.Name); ok {
		t = &Class{FQName: fq}
	} else if r.lookup == nil {
		if strings.Contains(ref.Name, ".") {
			t = &Class{FQName: ref.Name}
		} else {
			t = &Class{FQName: "kotlin." + ref.Name}
		}
	} else {
		t = r.imported(ref.Name, pkg, nil)
		if IsError(t) {
			// Unknown library types stay usable by name.
			t = &Class{FQName: ref.Name}
		}
	}
	if c, ok := t.(*Class); ok && len(ref.Arguments) > 0 {
		cp := *c
		cp.Arguments = r.arguments(ref.Arguments, res)
		t = &cp
	}
	if ref.Nullable {
		t = t.WithNullable(true)
	}
	return t
}

// ClassType returns the type of instances of c. With own set, c's type
// parameters are used as its arguments, as for `this`.
func (r *Resolver) ClassType(c *symbol.Class, own bool) *Class {
	t := &Class{FQName: c.FullName(), Symbol: c}
	if own {
		for _, p := range c.TypeParameters {
			t.Arguments = append(t.Arguments, Argument{Type: r.TypeParam(p, nil)})
		}
	}
	return t
}

func (r *Resolver) enumOf(entry *symbol.Class) *symbol.Class {
	if r.table == nil {
		return nil
	}
	s := r.table.Scope(entry.Scope)
	for ; s != nil; s = s.ParentScope() {
		if c, ok := s.Owner.(*symbol.Class); ok && c.IsEnum() {
			return c
		}
	}
	return nil
}

// RegisterClasses records every class of the table in the hierarchy with
// its resolved supertypes.
func (r *Resolver) RegisterClasses() {
	if r.table == nil {
		return
	}
	for _, c := range r.table.AllClasses() {
		r.RegisterClass(c)
	}
}

// RegisterClass records one class declaration in the hierarchy.
func (r *Resolver) RegisterClass(c *symbol.Class) {
	if r.table == nil || c == nil {
		return
	}
	scope := r.table.Scope(c.Members)
	if scope == nil {
		scope = r.table.Scope(c.Scope)
	}
	var ps []TypeParamInfo
	for _, p := range c.TypeParameters {
		ps = append(ps, TypeParamInfo{Name: p.Name, Variance: ParseVariance(p.Variance)})
	}
	var supers []*Class
	for _, ref := range c.SuperTypes {
		if st, ok := r.Resolve(ref, scope).(*Class); ok && st.FQName != c.FullName() {
			supers = append(supers, st)
		}
	}
	if c.IsEnum() {
		supers = append(supers, NewClass("kotlin.Enum", r.ClassType(c, false)))
	}
	if len(supers) == 0 {
		supers = []*Class{AnyType}
	}
	r.hierarchy.AddClass(c.FullName(), ps, supers)
}
