package semantic

import (
	"github.com/jward/ksema/internal/diagnostic"
	"github.com/jward/ksema/internal/symbol"
	"github.com/jward/ksema/internal/syntax"
	"github.com/jward/ksema/internal/types"
)

func (a *Analyzer) assignment(n *syntax.Node, scope *symbol.Scope) {
	target := n.FindChild(syntax.KindDirectlyAssignable)
	ops := operands(n)
	if target == nil || len(ops) < 2 {
		a.in.malformed(n, "expected an assignment")
		return
	}
	value := ops[len(ops)-1]
	op := between(n, target, value)

	if trimTrivia(value).Kind() == syntax.KindJumpExpression {
		a.ctx.ReportWarning(diagnostic.UnreachableCode, n)
	}
	lt := a.in.Infer(target, scope, nil)
	var want types.Type
	if op == "=" {
		want = lt
	}
	rt := a.in.Infer(value, scope, want)
	a.ValueUsed(value, scope)

	if op != "=" && a.mutableCollection(lt) {
		// `list += x` on a read-only reference mutates the collection.
		return
	}
	a.in.CheckWritable(target)
	if op != "=" || lt.HasError() || rt.HasError() || types.IsError(lt) || types.IsError(rt) {
		return
	}
	if !a.ctx.Checker.IsAssignable(rt, lt) {
		a.ctx.ReportError(diagnostic.TypeMismatch, value, lt.Render(false), rt.Render(false))
	}
}

func (a *Analyzer) mutableCollection(t types.Type) bool {
	c, ok := types.NonNull(t).(*types.Class)
	if !ok {
		return false
	}
	h := a.ctx.Checker.Hierarchy()
	return h.Supertype(c, "kotlin.collections.MutableCollection") != nil ||
		h.Supertype(c, types.FQMutableMap) != nil
}

func (a *Analyzer) forLoop(n *syntax.Node, scope *symbol.Scope) {
	inner := a.ctx.Table.ScopeOf(n)
	if inner == nil {
		inner = scope
	}
	sawIn := false
	for _, c := range n.Children() {
		switch {
		case !c.IsNamed() && c.Kind() == "in":
			sawIn = true
		case c.Kind() == syntax.KindVariableDeclaration:
			a.typeOf(c, inner)
		case c.Kind() == syntax.KindMultiVariableDecl:
			for _, v := range c.FindChildren(syntax.KindVariableDeclaration) {
				a.typeOf(v, inner)
			}
		case c.Kind() == syntax.KindControlStructureBody:
			a.in.Infer(c, inner, nil)
		case sawIn && isExpression(c):
			if _, done := a.ctx.TypeOf(c); !done {
				a.in.Infer(c, scope, nil)
			}
			sawIn = false
		}
	}
}

// typeOf resolves the declared type of a variable declaration, if any.
func (a *Analyzer) typeOf(v *syntax.Node, scope *symbol.Scope) types.Type {
	typ := symbol.FirstTypeChild(v)
	if typ == nil {
		return nil
	}
	return a.in.TypeNode(typ, scope)
}

// loopParts returns the condition and body of a while or do-while loop.
func loopParts(n *syntax.Node) (cond, body *syntax.Node) {
	for _, c := range n.Children() {
		switch {
		case c.Kind() == syntax.KindControlStructureBody:
			body = c
		case cond == nil && isExpression(c):
			cond = c
		}
	}
	return cond, body
}

func (a *Analyzer) whileLoop(n *syntax.Node, scope *symbol.Scope) {
	cond, body := loopParts(n)
	if cond == nil {
		a.in.malformed(n, "expected a condition")
		return
	}
	a.condition(cond, scope)
	if body == nil {
		return
	}
	casts := a.in.conditionCasts(cond, false, scope)
	a.in.pushCasts(casts, body.Range())
	a.in.Infer(body, scope, nil)
	a.in.popCasts(casts)
}

func (a *Analyzer) doWhileLoop(n *syntax.Node, scope *symbol.Scope) {
	cond, body := loopParts(n)
	if body != nil {
		a.in.Infer(body, scope, nil)
	}
	if cond == nil {
		a.in.malformed(n, "expected a condition")
		return
	}
	a.condition(cond, scope)
}

func (a *Analyzer) condition(cond *syntax.Node, scope *symbol.Scope) {
	a.in.CheckCondition(cond, a.in.Infer(cond, scope, types.BooleanType))
}

func (a *Analyzer) function(n *syntax.Node, scope *symbol.Scope) {
	fs := a.ctx.Table.ScopeOf(n)
	if fs == nil {
		return
	}
	fn, _ := fs.Owner.(*symbol.Function)
	if fn == nil {
		return
	}
	var params *syntax.Node
	for _, c := range n.Children() {
		switch {
		case c.Kind() == syntax.KindFunctionValueParameters:
			params = c
		case c.Kind() == syntax.KindReceiverType:
			if typ := symbol.FirstTypeChild(c); typ != nil {
				a.in.TypeNode(typ, fs)
			}
		case symbol.IsTypeNode(c):
			// Before the parameters a bare type is the receiver, after them
			// it is the return type.
			a.in.TypeNode(c, fs)
		}
	}
	if params != nil {
		a.parameters(fn.Parameters, fs)
	}

	if e := expressionBody(n); e != nil {
		a.expressionBody(fn, e, fs)
		return
	}
	if st := n.FindChild(syntax.KindFunctionBody).Statements(); st != nil {
		a.in.Infer(st, fs, nil)
	}
}

// parameters checks the declared types and default values of a parameter
// list.
func (a *Analyzer) parameters(ps []*symbol.Parameter, scope *symbol.Scope) {
	for _, p := range ps {
		if p.Node != nil {
			if typ := symbol.FirstTypeChild(p.Node); typ != nil {
				a.in.TypeNode(typ, scope)
			}
		}
		if p.Default == nil {
			continue
		}
		pt := a.in.SymbolType(p)
		dt := a.in.Infer(p.Default, scope, pt)
		a.ValueUsed(p.Default, scope)
		a.mismatch(p.Default, pt, dt)
	}
}

func (a *Analyzer) expressionBody(fn *symbol.Function, e *syntax.Node, fs *symbol.Scope) {
	if fn.ReturnType == nil {
		a.in.inferredReturn(fn)
		a.ValueUsed(e, fs)
		return
	}
	want := a.ctx.Types.Resolve(fn.ReturnType, fs)
	t := a.in.Infer(e, fs, want)
	a.ValueUsed(e, fs)
	if want == nil || want.HasError() || t.HasError() || types.IsUnit(want) {
		return
	}
	if !a.ctx.Checker.IsSubtype(t, want) {
		a.ctx.ReportError(diagnostic.ReturnTypeMismatch, e, want.Render(false), t.Render(false))
	}
}

// mismatch reports a value of type got where want is required. Error types
// on either side suppress the report.
func (a *Analyzer) mismatch(n *syntax.Node, want, got types.Type) {
	if want == nil || got == nil || want.HasError() || got.HasError() {
		return
	}
	if !a.ctx.Checker.IsAssignable(got, want) {
		a.ctx.ReportError(diagnostic.TypeMismatch, n, want.Render(false), got.Render(false))
	}
}

// declaredProperties returns the properties n declares.
func (a *Analyzer) declaredProperties(n *syntax.Node, scope *symbol.Scope) []*symbol.Property {
	find := func(s *symbol.Scope) []*symbol.Property {
		var out []*symbol.Property
		if s == nil {
			return nil
		}
		for _, sym := range s.Symbols() {
			if p, ok := sym.(*symbol.Property); ok && p.Node.Same(n) {
				out = append(out, p)
			}
		}
		return out
	}
	if props := find(scope); len(props) > 0 {
		return props
	}
	return find(a.ctx.Table.ScopeForNode(n))
}

func (a *Analyzer) property(n *syntax.Node, scope *symbol.Scope) {
	props := a.declaredProperties(n, scope)
	vd := n.FindChild(syntax.KindVariableDeclaration)

	var declared types.Type
	var delegate *syntax.Node
	for _, c := range n.Children() {
		switch {
		case c.Kind() == syntax.KindReceiverType:
			if typ := symbol.FirstTypeChild(c); typ != nil {
				a.in.TypeNode(typ, scope)
			}
		case c.Kind() == syntax.KindPropertyDelegate:
			delegate = c
		case c.Kind() == syntax.KindVariableDeclaration:
			declared = a.typeOf(c, scope)
		case c.Kind() == syntax.KindMultiVariableDecl:
			for _, v := range c.FindChildren(syntax.KindVariableDeclaration) {
				a.typeOf(v, scope)
			}
		case symbol.IsTypeNode(c) && vd != nil && c.Range().StartByte < vd.Range().StartByte:
			a.in.TypeNode(c, scope)
		}
	}
	if len(props) == 0 {
		return
	}
	p := props[0]
	if len(props) == 1 && declared == nil && p.Initializer == nil && delegate == nil && p.Getter == nil &&
		!p.IsAbstract() && !p.Modifiers.Has(symbol.FlagLateinit) {
		at := n
		if vd != nil {
			if id := vd.FindChild(syntax.KindSimpleIdentifier); id != nil {
				at = id
			}
		}
		a.ctx.ReportError(diagnostic.NoTypeNoInitializer, at)
	}

	if init := p.Initializer; init != nil {
		t := a.in.Infer(init, scope, declared)
		a.ValueUsed(init, scope)
		if len(props) == 1 {
			a.mismatch(init, declared, t)
		}
	}
	if delegate != nil {
		if e := firstOperand(delegate); e != nil {
			a.in.Infer(e, scope, nil)
		}
	}
	for _, acc := range []*symbol.Function{p.Getter, p.Setter} {
		if acc != nil && acc.Node != nil {
			a.accessor(p, acc, scope)
		}
	}
}

func (a *Analyzer) accessor(p *symbol.Property, acc *symbol.Function, scope *symbol.Scope) {
	as := a.ctx.Table.ScopeOf(acc.Node)
	if as == nil {
		as = scope
	}
	if typ := symbol.FirstTypeChild(acc.Node); typ != nil {
		a.in.TypeNode(typ, as)
	}
	if e := expressionBody(acc.Node); e != nil {
		var want types.Type
		if acc == p.Getter && p.Type != nil && !p.TypeInferred {
			want = a.in.SymbolType(p)
		}
		t := a.in.Infer(e, as, want)
		a.ValueUsed(e, as)
		if want != nil && !want.HasError() && !t.HasError() && !a.ctx.Checker.IsSubtype(t, want) {
			a.ctx.ReportError(diagnostic.ReturnTypeMismatch, e, want.Render(false), t.Render(false))
		}
		return
	}
	if st := acc.Node.FindChild(syntax.KindFunctionBody).Statements(); st != nil {
		a.in.Infer(st, as, nil)
	}
}

func (a *Analyzer) secondaryConstructor(n *syntax.Node, scope *symbol.Scope) {
	cs := a.ctx.Table.ScopeOf(n)
	if cs == nil {
		cs = scope
	}
	if fn, ok := cs.Owner.(*symbol.Function); ok {
		a.parameters(fn.Parameters, cs)
	}
	if del := n.FindChild(syntax.KindConstructorDelegCall); del != nil {
		a.valueArguments(del.FindDescendant(syntax.KindValueArguments), cs, nil)
	}
	if st := n.Statements(); st != nil {
		a.in.Infer(st, cs, nil)
	}
}

// valueArguments infers the arguments of a constructor delegation or
// supertype call. want, when set, gives expected types by position.
func (a *Analyzer) valueArguments(args *syntax.Node, scope *symbol.Scope, want []types.Type) {
	if args == nil {
		return
	}
	for i, arg := range args.FindChildren(syntax.KindValueArgument) {
		e := lastOperand(arg)
		if e == nil {
			continue
		}
		var w types.Type
		if i < len(want) && arg.FindChild(syntax.KindSimpleIdentifier) == nil {
			w = want[i]
		}
		a.in.Infer(e, scope, w)
		a.ValueUsed(e, scope)
	}
}

func lastOperand(n *syntax.Node) *syntax.Node {
	ops := operands(n)
	if len(ops) == 0 {
		return nil
	}
	return ops[len(ops)-1]
}

func (a *Analyzer) initBlock(n *syntax.Node, scope *symbol.Scope) {
	s := a.ctx.Table.ScopeOf(n)
	if s == nil {
		s = scope
	}
	if st := n.Statements(); st != nil {
		a.in.Infer(st, s, nil)
	}
}

func (a *Analyzer) typeAlias(n *syntax.Node, scope *symbol.Scope) {
	s := scope
	if own := a.ctx.Table.ScopeOf(n); own != nil {
		s = own
	}
	sawEq := false
	for _, c := range n.Children() {
		if !c.IsNamed() && c.Kind() == "=" {
			sawEq = true
		} else if sawEq && symbol.IsTypeNode(c) {
			a.in.TypeNode(c, s)
			return
		}
	}
}
