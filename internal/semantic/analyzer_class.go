package semantic

import (
	"github.com/jward/ksema/internal/diagnostic"
	"github.com/jward/ksema/internal/index"
	"github.com/jward/ksema/internal/symbol"
	"github.com/jward/ksema/internal/syntax"
	"github.com/jward/ksema/internal/types"
)

func (a *Analyzer) class(n *syntax.Node, scope *symbol.Scope) {
	members := a.ctx.Table.ScopeOf(n)
	if members == nil {
		return
	}
	cls, _ := members.Owner.(*symbol.Class)
	if cls == nil {
		return
	}
	for _, c := range n.Children() {
		switch c.Kind() {
		case syntax.KindPrimaryConstructor:
			if cls.PrimaryConstructor != nil {
				ps := a.ctx.Table.ScopeOf(c)
				if ps == nil {
					ps = members
				}
				a.parameters(cls.PrimaryConstructor.Parameters, ps)
			}
		case syntax.KindDelegationSpecifier, "delegation_specifiers":
			a.delegation(c, members)
		case syntax.KindClassBody, syntax.KindEnumClassBody:
			a.classBody(c, members)
		}
	}
	at := n
	for _, c := range n.Children() {
		if c.Kind() == syntax.KindTypeIdentifier || c.Kind() == syntax.KindSimpleIdentifier {
			at = c
			break
		}
	}
	a.checkAbstractMembers(cls, at)
}

// delegation checks a supertype list: the types it names, supertype
// constructor arguments and `by` delegates.
func (a *Analyzer) delegation(n *syntax.Node, members *symbol.Scope) {
	if n.Kind() != syntax.KindDelegationSpecifier {
		for _, c := range n.FindChildren(syntax.KindDelegationSpecifier) {
			a.delegation(c, members)
		}
		return
	}
	for _, c := range n.NamedChildren() {
		switch {
		case c.Kind() == syntax.KindConstructorInvoc:
			if typ := symbol.FirstTypeChild(c); typ != nil {
				a.in.TypeNode(typ, members)
			}
			a.valueArguments(c.FindChild(syntax.KindValueArguments), members, nil)
		case c.Kind() == syntax.KindExplicitDelegation:
			if typ := symbol.FirstTypeChild(c); typ != nil {
				a.in.TypeNode(typ, members)
			}
			if e := lastOperand(c); e != nil && !symbol.IsTypeNode(e) {
				a.in.Infer(e, members, nil)
			}
		case symbol.IsTypeNode(c):
			a.in.TypeNode(c, members)
		}
	}
}

func (a *Analyzer) classBody(body *syntax.Node, members *symbol.Scope) {
	for _, c := range body.Children() {
		switch {
		case c.Kind() == syntax.KindEnumEntry:
			a.enumEntry(c, members)
		case c.IsNamed():
			a.declaration(c, members)
		}
	}
}

// enumEntry checks an entry's constructor arguments against the enum's
// primary constructor and analyzes its body.
func (a *Analyzer) enumEntry(n *syntax.Node, members *symbol.Scope) {
	var want []types.Type
	if enum, ok := members.Owner.(*symbol.Class); ok && enum.PrimaryConstructor != nil {
		for _, p := range enum.PrimaryConstructor.Parameters {
			want = append(want, a.in.SymbolType(p))
		}
	}
	a.valueArguments(n.FindChild(syntax.KindValueArguments), members, want)
	if body := n.FindChild(syntax.KindClassBody); body != nil {
		es := a.ctx.Table.ScopeOf(n)
		if es == nil {
			es = members
		}
		a.classBody(body, es)
	}
}

// memberKey identifies a member for override matching: properties by name,
// functions by name and arity.
type memberKey struct {
	name  string
	arity int
	fun   bool
}

type abstractMember struct {
	key   memberKey
	desc  string
	iface bool
}

// supertypeWalk collects the abstract and concrete members reachable
// through a class's supertypes.
type supertypeWalk struct {
	a        *Analyzer
	visited  map[string]bool
	abstract []abstractMember
	concrete map[memberKey]bool
}

// checkAbstractMembers reports every abstract member a concrete class
// inherits without implementing, once per member, at the class name.
func (a *Analyzer) checkAbstractMembers(cls *symbol.Class, at *syntax.Node) {
	if cls.IsAbstract() || cls.IsEnum() {
		return
	}
	switch cls.ClassKind {
	case symbol.ClassKindEnumEntry, symbol.ClassKindAnnotation:
		return
	}
	if a.abstracts[cls] {
		return
	}
	a.abstracts[cls] = true

	w := &supertypeWalk{a: a, visited: make(map[string]bool), concrete: make(map[memberKey]bool)}
	for _, m := range a.ctx.Table.Members(cls) {
		if k, abstract, ok := localMember(m, false); ok && !abstract {
			w.concrete[k] = true
		}
	}
	w.supertypes(cls)

	reported := make(map[memberKey]bool)
	for _, m := range w.abstract {
		if w.concrete[m.key] || reported[m.key] {
			continue
		}
		reported[m.key] = true
		code := diagnostic.AbstractClassMemberNotImpl
		if m.iface {
			code = diagnostic.AbstractMemberNotImpl
		}
		a.ctx.ReportError(code, at, cls.Name, m.desc)
	}
}

func (w *supertypeWalk) supertypes(c *symbol.Class) {
	scope := w.a.ctx.Table.Scope(c.Members)
	if scope == nil {
		scope = w.a.res.scopeOf(c)
	}
	for _, ref := range c.SuperTypes {
		t, ok := w.a.ctx.Types.Resolve(ref, scope).(*types.Class)
		if !ok || t.FQName == types.FQAny {
			continue
		}
		w.visit(t.FQName)
	}
}

func (w *supertypeWalk) visit(fq string) {
	if w.visited[fq] {
		return
	}
	w.visited[fq] = true
	if local := w.a.ctx.LocalClass(fq); local != nil {
		w.local(local)
		return
	}
	for _, rec := range w.a.ctx.Project.FindByFQName(fq) {
		if rec.Kind.IsClass() {
			w.external(rec)
			return
		}
	}
}

func (w *supertypeWalk) local(c *symbol.Class) {
	iface := c.IsInterface()
	for _, m := range w.a.ctx.Table.Members(c) {
		k, abstract, ok := localMember(m, iface)
		switch {
		case !ok:
		case abstract:
			w.abstract = append(w.abstract, abstractMember{key: k, desc: describe(k, m), iface: iface})
		default:
			w.concrete[k] = true
		}
	}
	w.supertypes(c)
}

func (w *supertypeWalk) external(rec index.Symbol) {
	iface := rec.Kind == index.KindInterface
	for _, m := range w.a.ctx.Project.FindMembers(rec.FQName) {
		var k memberKey
		switch m.Kind {
		case index.KindFunction:
			k = memberKey{name: m.Name, arity: len(m.Parameters), fun: true}
		case index.KindProperty:
			k = memberKey{name: m.Name}
		default:
			continue
		}
		if m.IsAbstract {
			desc := "val " + m.Name
			switch {
			case k.fun:
				desc = funDesc(k)
			case m.IsVar:
				desc = "var " + m.Name
			}
			w.abstract = append(w.abstract, abstractMember{key: k, desc: desc, iface: iface})
		} else {
			w.concrete[k] = true
		}
	}
	for _, st := range rec.SuperTypes {
		if fq := index.BaseName(st); fq != types.FQAny {
			w.visit(fq)
		}
	}
}

// localMember classifies a declared member. Interface members without a
// body are abstract even without the modifier.
func localMember(m symbol.Symbol, iface bool) (k memberKey, abstract, ok bool) {
	switch v := m.(type) {
	case *symbol.Function:
		if v.IsConstructor {
			return k, false, false
		}
		k = memberKey{name: v.Name, arity: len(v.Parameters), fun: true}
		return k, v.IsAbstract() || (iface && !v.BodyPresent), true
	case *symbol.Property:
		k = memberKey{name: v.Name}
		return k, v.IsAbstract() || (iface && !v.HasImplementation()), true
	}
	return k, false, false
}

func describe(k memberKey, m symbol.Symbol) string {
	if k.fun {
		return funDesc(k)
	}
	if p, ok := m.(*symbol.Property); ok && p.IsVar {
		return "var " + k.name
	}
	return "val " + k.name
}

func funDesc(k memberKey) string {
	if k.arity == 0 {
		return "fun " + k.name + "()"
	}
	return "fun " + k.name + "(...)"
}
