package semantic

import (
	"strconv"

	"github.com/jward/ksema/internal/index"
	"github.com/jward/ksema/internal/symbol"
	"github.com/jward/ksema/internal/types"
)

// ResolveMemberAccess finds name on a value of type receiver. Members of the
// receiver's class and its supertypes win over extensions wherever the
// extensions are declared.
func (r *Resolver) ResolveMemberAccess(receiver types.Type, name string, scope *symbol.Scope) Resolution {
	if types.IsError(receiver) || name == "" {
		return Unresolved{Name: name}
	}
	if found := r.members(types.NonNull(receiver), name); len(found) > 0 {
		return resolution(name, found)
	}
	if found := r.extensions(receiver, name, scope); len(found) > 0 {
		return resolution(name, found)
	}
	if receiver.IsNullable() {
		if found := r.extensions(types.NonNull(receiver), name, scope); len(found) > 0 {
			return resolution(name, found)
		}
	}
	return Unresolved{Name: name}
}

func (r *Resolver) members(t types.Type, name string) []symbol.Symbol {
	switch v := t.(type) {
	case *types.Primitive:
		return r.classMembers(v.Boxed(), name)
	case *types.Class:
		return r.classMembers(v, name)
	case *types.TypeParam:
		for _, b := range v.Bounds {
			if found := r.members(types.NonNull(b), name); len(found) > 0 {
				return found
			}
		}
		return r.classMembers(types.AnyType, name)
	case *types.Function:
		if name == "invoke" {
			return []symbol.Symbol{r.invoker(v)}
		}
		return r.classMembers(types.AnyType, name)
	}
	return nil
}

// classMembers walks c and its supertypes, most derived first.
func (r *Resolver) classMembers(c *types.Class, name string) []symbol.Symbol {
	chain := r.ctx.Checker.Hierarchy().AllSupertypes(c)
	if chain[len(chain)-1].FQName != types.FQAny {
		chain = append(chain, types.AnyType)
	}
	for _, st := range chain {
		if found := r.declaredMembers(st.FQName, name); len(found) > 0 {
			return found
		}
	}
	return nil
}

func (r *Resolver) declaredMembers(fq, name string) []symbol.Symbol {
	if local := r.ctx.LocalClass(fq); local != nil && r.ctx.Table != nil {
		var out []symbol.Symbol
		for _, s := range r.ctx.Table.Scope(local.Members).ResolveLocal(name) {
			switch s.(type) {
			case *symbol.Function, *symbol.Property:
				out = append(out, s)
			}
		}
		return out
	}
	var recs []index.Symbol
	for _, rec := range named(r.ctx.Project.FindMembers(fq), name) {
		if rec.Kind.IsCallable() || rec.Kind == index.KindProperty {
			recs = append(recs, rec)
		}
	}
	return r.materializeAll(recs)
}

// invoker synthesizes the invoke operator of a function type.
func (r *Resolver) invoker(fn *types.Function) *symbol.Function {
	params := fn.Parameters
	if fn.Receiver != nil {
		params = append([]types.Type{fn.Receiver}, params...)
	}
	f := &symbol.Function{
		Declaration: symbol.Declaration{
			Name:      "invoke",
			Modifiers: symbol.Modifiers{}.With(symbol.FlagOperator),
		},
		BodyPresent: true,
	}
	for i := range params {
		f.Parameters = append(f.Parameters, &symbol.Parameter{
			Declaration: symbol.Declaration{Name: "p" + strconv.Itoa(i+1)},
		})
	}
	ret := fn.Return
	if ret == nil {
		ret = types.UnitType
	}
	r.ctx.shared.signatures[f] = &Signature{Parameters: params, Return: ret}
	return f
}

// extensions collects the extensions named name applicable to receiver:
// those in enclosing scopes, then imported ones, then library ones.
func (r *Resolver) extensions(receiver types.Type, name string, scope *symbol.Scope) []symbol.Symbol {
	var out []symbol.Symbol
	for s := scope; s != nil; s = s.ParentScope() {
		for _, sym := range s.ResolveLocal(name) {
			if r.extensionApplies(sym, receiver) {
				out = append(out, sym)
			}
		}
	}
	if len(out) > 0 {
		return out
	}
	if t := r.ctx.Table; t != nil {
		if imp, ok := t.ExplicitImport(name); ok {
			out = append(out, r.applicable(r.ctx.Project.FindByFQName(imp.FQName), name, receiver)...)
		}
		for _, pkg := range t.StarImports() {
			out = append(out, r.applicable(r.ctx.Project.FindByFQName(pkg+"."+name), name, receiver)...)
		}
		if t.PackageName != "" {
			out = append(out, r.applicable(r.ctx.Project.FindByFQName(t.PackageName+"."+name), name, receiver)...)
		}
		if len(out) > 0 {
			return out
		}
	}
	if out = r.applicable(r.ctx.Project.FindExtensions(receiverName(receiver)), name, receiver); len(out) > 0 {
		return out
	}
	return r.applicable(r.ctx.Project.FindExtensionsByName(name), name, receiver)
}

func (r *Resolver) applicable(recs []index.Symbol, name string, receiver types.Type) []symbol.Symbol {
	var keep []index.Symbol
	for _, rec := range recs {
		if rec.Name == name && rec.IsExtension() {
			keep = append(keep, rec)
		}
	}
	var out []symbol.Symbol
	for _, sym := range r.materializeAll(keep) {
		if r.extensionApplies(sym, receiver) {
			out = append(out, sym)
		}
	}
	return out
}

// extensionApplies reports whether sym is an extension whose declared
// receiver accepts receiver.
func (r *Resolver) extensionApplies(sym symbol.Symbol, receiver types.Type) bool {
	declared := r.ExtensionReceiver(sym)
	if declared == nil {
		return false
	}
	return r.ctx.Checker.IsSubtype(receiver, declared)
}

// ExtensionReceiver returns the declared receiver type of an extension
// function or property, or nil for other symbols.
func (r *Resolver) ExtensionReceiver(sym symbol.Symbol) types.Type {
	switch s := sym.(type) {
	case *symbol.Function:
		if s.ReceiverType == nil {
			return nil
		}
		return r.Signature(s).Receiver
	case *symbol.Property:
		if s.ReceiverType == nil {
			return nil
		}
		if rec, ok := r.ctx.External(s); ok {
			return r.ctx.Types.ResolveExternal(s.ReceiverType, rec.Package, r.externalParams(s, rec))
		}
		return r.ctx.Types.Resolve(s.ReceiverType, r.scopeOf(s))
	}
	return nil
}

func receiverName(t types.Type) string {
	switch v := types.NonNull(t).(type) {
	case *types.TypeParam:
		return receiverName(v.Bound())
	case *types.Function:
		return "kotlin.Function"
	}
	if fq := types.FQNameOf(types.NonNull(t)); fq != "" {
		return fq
	}
	return types.FQAny
}

// implicitReceivers lists the types `this` may denote at scope, innermost
// first: lambda receivers, extension receivers and enclosing classes.
func (r *Resolver) implicitReceivers(scope *symbol.Scope) []types.Type {
	var out []types.Type
	seen := make(map[*symbol.Class]bool)
	for s := scope; s != nil; s = s.ParentScope() {
		switch {
		case s.Kind == symbol.ScopeLambda:
			if t, ok := r.ctx.shared.receivers[s.ID]; ok {
				out = append(out, t)
			}
		case s.Kind.IsCallableScope():
			if fn, ok := s.Owner.(*symbol.Function); ok && fn.ReceiverType != nil {
				out = append(out, r.ctx.Types.Resolve(fn.ReceiverType, s))
			}
		case s.Kind.IsClassScope():
			if cls, ok := s.Owner.(*symbol.Class); ok && !seen[cls] {
				seen[cls] = true
				out = append(out, r.thisType(cls, s))
			}
		}
	}
	return out
}

// ResolveThis returns the type of `this` or `this@label` at scope, or nil
// when there is no such receiver.
func (r *Resolver) ResolveThis(scope *symbol.Scope, label string) types.Type {
	for s := scope; s != nil; s = s.ParentScope() {
		switch {
		case s.Kind == symbol.ScopeLambda:
			if t, ok := r.ctx.shared.receivers[s.ID]; ok && label == "" {
				return t
			}
		case s.Kind.IsCallableScope():
			if fn, ok := s.Owner.(*symbol.Function); ok && fn.ReceiverType != nil && (label == "" || label == fn.Name) {
				return r.ctx.Types.Resolve(fn.ReceiverType, s)
			}
		case s.Kind.IsClassScope():
			if cls, ok := s.Owner.(*symbol.Class); ok && (label == "" || label == cls.Name) {
				return r.thisType(cls, s)
			}
		}
	}
	return nil
}

func (r *Resolver) thisType(cls *symbol.Class, s *symbol.Scope) types.Type {
	switch {
	case cls.ClassKind == symbol.ClassKindEnumEntry:
		return r.ctx.Types.ResolveName(cls.Name, r.scopeOf(cls))
	case cls.Name == "<anonymous>":
		if supers := r.supertypesOf(cls, s); len(supers) > 0 {
			return supers[0]
		}
		return types.AnyType
	}
	return r.ctx.Types.ClassType(cls, true)
}

// ResolveSuper returns the type `super` denotes at scope. label selects
// either an enclosing class (`super@Outer`) or one of the supertypes
// (`super<Base>`).
func (r *Resolver) ResolveSuper(scope *symbol.Scope, label string) types.Type {
	for s := scope; s != nil; s = s.ParentScope() {
		if !s.Kind.IsClassScope() {
			continue
		}
		cls, ok := s.Owner.(*symbol.Class)
		if !ok {
			continue
		}
		supers := r.supertypesOf(cls, s)
		if label != "" && label != cls.Name {
			for _, st := range supers {
				if st.SimpleName() == label {
					return st
				}
			}
			continue
		}
		return r.primarySuper(supers)
	}
	return nil
}

func (r *Resolver) supertypesOf(cls *symbol.Class, s *symbol.Scope) []*types.Class {
	var out []*types.Class
	for _, ref := range cls.SuperTypes {
		if c, ok := r.ctx.Types.Resolve(ref, s).(*types.Class); ok {
			out = append(out, c)
		}
	}
	return out
}

// primarySuper picks the first non-interface supertype, then the first one,
// then Any.
func (r *Resolver) primarySuper(supers []*types.Class) types.Type {
	for _, st := range supers {
		if !r.isInterface(st) {
			return st
		}
	}
	if len(supers) > 0 {
		return supers[0]
	}
	return types.AnyType
}

func (r *Resolver) isInterface(c *types.Class) bool {
	if c.Symbol != nil {
		return c.Symbol.IsInterface()
	}
	if local := r.ctx.LocalClass(c.FQName); local != nil {
		return local.IsInterface()
	}
	for _, rec := range r.ctx.Project.FindByFQName(c.FQName) {
		if rec.Kind.IsClass() {
			return rec.Kind == index.KindInterface
		}
	}
	return false
}

// scopeOf returns the scope a symbol is declared in.
func (r *Resolver) scopeOf(sym symbol.Symbol) *symbol.Scope {
	if r.ctx.Table == nil || sym == nil {
		return nil
	}
	if s := r.ctx.Table.Scope(sym.Decl().Scope); s != nil {
		return s
	}
	return r.ctx.Table.Root()
}
