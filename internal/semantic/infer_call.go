package semantic

import (
	"strings"

	"github.com/jward/ksema/internal/diagnostic"
	"github.com/jward/ksema/internal/index"
	"github.com/jward/ksema/internal/symbol"
	"github.com/jward/ksema/internal/syntax"
	"github.com/jward/ksema/internal/types"
)

// callArg is a call argument together with its expression node.
type callArg struct {
	CallArgument
	expr *syntax.Node
}

// callArguments collects the value arguments of a call suffix followed by
// its trailing lambda, if any.
func callArguments(suffix *syntax.Node) []callArg {
	var out []callArg
	if va := suffix.FindChild(syntax.KindValueArguments); va != nil {
		for _, a := range va.FindChildren(syntax.KindValueArgument) {
			out = append(out, valueArgument(a))
		}
	}
	if al := suffix.FindChild(syntax.KindAnnotatedLambda); al != nil {
		lam := al.FindChild(syntax.KindLambdaLiteral)
		if lam == nil {
			lam = al
		}
		out = append(out, callArg{
			CallArgument: CallArgument{Lambda: true, Arity: lambdaArity(lam), Node: lam},
			expr:         lam,
		})
	}
	return out
}

// valueArgument reads `[name =] [*] expr`.
func valueArgument(a *syntax.Node) callArg {
	children := a.Children()
	var arg callArg
	start := 0
	for i, c := range children {
		if !c.IsNamed() && c.Kind() == "=" {
			for _, p := range children[:i] {
				if p.Kind() == syntax.KindSimpleIdentifier {
					arg.Name = identText(p)
				}
			}
			start = i + 1
			break
		}
	}
	for _, c := range children[start:] {
		if !c.IsNamed() && c.Kind() == "*" {
			arg.Spread = true
			continue
		}
		if isExpression(c) {
			arg.expr = c
			break
		}
	}
	arg.Node = arg.expr
	if e := trimTrivia(arg.expr); e != nil {
		switch e.Kind() {
		case syntax.KindLambdaLiteral:
			arg.Lambda, arg.Arity = true, lambdaArity(e)
		case syntax.KindAnnotatedLambda:
			arg.Lambda, arg.Arity = true, lambdaArity(e.FindChild(syntax.KindLambdaLiteral))
		}
	}
	return arg
}

// lambdaArity counts declared lambda parameters; -1 means the lambda
// declares none and may use `it`.
func lambdaArity(lam *syntax.Node) int {
	lp := lam.FindChild(syntax.KindLambdaParameters)
	if lp == nil {
		return -1
	}
	n := 0
	for _, c := range lp.NamedChildren() {
		if c.Is(syntax.KindVariableDeclaration, syntax.KindMultiVariableDecl) {
			n++
		}
	}
	return n
}

func plain(args []callArg) []CallArgument {
	out := make([]CallArgument, len(args))
	for i, a := range args {
		out[i] = a.CallArgument
	}
	return out
}

// typeArguments resolves the explicit `<...>` arguments of a call.
func (in *Inferrer) typeArguments(suffix *syntax.Node, scope *symbol.Scope) []types.Type {
	ta := suffix.FindChild(syntax.KindTypeArguments)
	if ta == nil {
		return nil
	}
	var out []types.Type
	for _, p := range ta.FindChildren(syntax.KindTypeProjection) {
		ref := symbol.TypeRefFromNode(symbol.FirstTypeChild(p))
		out = append(out, orAnyNullable(in.ctx.Types.Resolve(ref, scope)))
	}
	return out
}

// candidates is one group of functions a call may select from. Groups are
// tried in priority order and the first with an applicable function wins.
type candidates struct {
	fns []*symbol.Function
	// recv is the implicit receiver the functions are members of.
	recv types.Type
	// value is a variable called through its invoke operator.
	value symbol.Symbol
}

func (in *Inferrer) callExpression(n *syntax.Node, scope *symbol.Scope, expected types.Type) types.Type {
	callee := firstOperand(n)
	suffix := n.FindChild(syntax.KindCallSuffix)
	if callee == nil || suffix == nil || callee.Same(suffix) {
		return in.malformed(n, "malformed call")
	}
	args := callArguments(suffix)
	explicit := in.typeArguments(suffix, scope)
	if inner, innerSuffix := splitTrailingLambda(callee, suffix); inner != nil {
		// `f(a) { ... }` nests the call with arguments inside the lambda call.
		args = append(callArguments(innerSuffix), args...)
		explicit = in.typeArguments(innerSuffix, scope)
		t := in.call(n, inner, args, explicit, scope, expected)
		in.ctx.RecordType(callee, t)
		return t
	}
	return in.call(n, callee, args, explicit, scope, expected)
}

// splitTrailingLambda returns the callee and argument suffix of the inner
// call when n is `f(args)` and suffix is the lambda that follows it.
func splitTrailingLambda(n, suffix *syntax.Node) (*syntax.Node, *syntax.Node) {
	if n.Kind() != syntax.KindCallExpression || suffix.FindChild(syntax.KindValueArguments) != nil ||
		suffix.FindChild(syntax.KindAnnotatedLambda) == nil {
		return nil, nil
	}
	innerSuffix := n.FindChild(syntax.KindCallSuffix)
	if innerSuffix == nil || innerSuffix.FindChild(syntax.KindAnnotatedLambda) != nil {
		return nil, nil
	}
	inner := firstOperand(n)
	if inner == nil || inner.Same(innerSuffix) {
		return nil, nil
	}
	return inner, innerSuffix
}

func (in *Inferrer) call(n, callee *syntax.Node, args []callArg, explicit []types.Type, scope *symbol.Scope, expected types.Type) types.Type {
	switch callee.Kind() {
	case syntax.KindSimpleIdentifier:
		return in.callNamed(n, callee, args, explicit, scope, expected)
	case syntax.KindNavigationExpression:
		return in.callMember(n, callee, args, explicit, scope, expected)
	}
	t := in.Infer(callee, scope, nil)
	return in.invokeValue(n, callee, t, args, scope, expected)
}

func (in *Inferrer) callNamed(n, callee *syntax.Node, args []callArg, explicit []types.Type, scope *symbol.Scope, expected types.Type) types.Type {
	name := identText(callee)
	groups := in.namedCandidates(name, scope)
	if len(groups) == 0 {
		in.inferArguments(args, scope, nil)
		in.inferLambdas(args, scope, nil)
		in.ctx.ReportError(diagnostic.UnresolvedReference, callee, name)
		return types.Unresolved(name)
	}
	if g := groups[0]; g.value != nil && len(g.fns) == 0 {
		return in.invokeValue(n, callee, in.Infer(callee, scope, nil), args, scope, expected)
	}
	in.inferArguments(args, scope, single(groups[0].fns))
	var failed OverloadResult
	for _, g := range groups {
		if len(g.fns) == 0 {
			continue
		}
		res := in.over.Resolve(g.fns, plain(args), expected, scope)
		if s, ok := res.(Success); ok {
			return in.complete(callee, s, args, g.recv, explicit, scope, expected)
		}
		if failed == nil {
			failed = res
		}
	}
	if failed == nil {
		return in.invokeValue(n, callee, in.Infer(callee, scope, nil), args, scope, expected)
	}
	return in.callFailed(callee, failed, args, scope)
}

// namedCandidates gathers what a call of a bare name may refer to: local
// and member declarations in the lexical scope, then members and extensions
// of the implicit receivers, then top-level, imported and library ones.
func (in *Inferrer) namedCandidates(name string, scope *symbol.Scope) []candidates {
	var out []candidates
	add := func(c candidates) {
		if len(c.fns) > 0 || c.value != nil {
			out = append(out, c)
		}
	}
	if lexical := scope.Resolve(name); len(lexical) > 0 && !in.topLevel(lexical[0]) {
		add(in.fromSymbols(lexical))
	}
	for _, recv := range in.res.implicitReceivers(scope) {
		add(candidates{fns: functionsOf(SymbolsOf(in.res.ResolveMemberAccess(recv, name, scope))), recv: recv})
	}
	add(in.fromSymbols(in.resolveName(name, scope)))
	return out
}

func (in *Inferrer) topLevel(sym symbol.Symbol) bool {
	s := in.res.scopeOf(sym)
	return s == nil || s.Kind == symbol.ScopeFile || s.Kind == symbol.ScopePackage
}

// fromSymbols turns resolved symbols into call candidates: functions, the
// constructors of classes, or a callable value.
func (in *Inferrer) fromSymbols(syms []symbol.Symbol) candidates {
	var c candidates
	for _, s := range syms {
		switch v := s.(type) {
		case *symbol.Function:
			c.fns = append(c.fns, v)
		case *symbol.Class:
			c.fns = append(c.fns, in.constructors(v)...)
		case *symbol.Property, *symbol.Parameter:
			if c.value == nil {
				c.value = s
			}
		}
	}
	if len(c.fns) > 0 {
		c.value = nil
	}
	return c
}

// constructors returns the constructors of c. Local classes declaring none
// get an implicit no-argument one.
func (in *Inferrer) constructors(c *symbol.Class) []*symbol.Function {
	if c.ClassKind == symbol.ClassKindEnumEntry || c.IsObject() {
		return nil
	}
	if _, ext := in.ctx.External(c); !ext && !symbol.IsSynthetic(c) {
		var out []*symbol.Function
		if c.PrimaryConstructor != nil {
			out = append(out, c.PrimaryConstructor)
		}
		out = append(out, c.Constructors...)
		if len(out) == 0 {
			out = append(out, in.implicitConstructor(c))
		}
		return out
	}
	var recs []index.Symbol
	for _, rec := range in.ctx.Project.FindMembers(c.FullName()) {
		if rec.Kind == index.KindConstructor {
			if rec.ContainingClass == "" {
				rec.ContainingClass = c.FullName()
			}
			recs = append(recs, rec)
		}
	}
	fns := functionsOf(in.res.materializeAll(recs))
	if len(fns) == 0 {
		fns = append(fns, in.implicitConstructor(c))
	}
	return fns
}

func (in *Inferrer) implicitConstructor(c *symbol.Class) *symbol.Function {
	if fn, ok := in.ctors[c]; ok {
		return fn
	}
	fn := &symbol.Function{
		Declaration:   symbol.Declaration{Name: c.Name, Scope: c.Members},
		IsConstructor: true,
		IsPrimary:     true,
		BodyPresent:   true,
		Container:     c.FullName(),
	}
	if _, ext := in.ctx.External(c); ext || in.ctx.LocalClass(c.FullName()) == nil {
		in.ctx.shared.signatures[fn] = &Signature{Return: in.externalClassType(c)}
	}
	in.ctors[c] = fn
	return fn
}

// externalClassType is the type of instances of an indexed class, its type
// parameters left unbound.
func (in *Inferrer) externalClassType(c *symbol.Class) *types.Class {
	out := &types.Class{FQName: c.FullName()}
	for _, name := range in.res.classParams(c.FullName()) {
		out.Arguments = append(out.Arguments, types.Argument{Type: &types.TypeParam{Name: name}})
	}
	return out
}

func single(fns []*symbol.Function) *symbol.Function {
	if len(fns) == 1 {
		return fns[0]
	}
	return nil
}

// inferArguments types the non-lambda arguments. With a single candidate
// its parameter types serve as expected types.
func (in *Inferrer) inferArguments(args []callArg, scope *symbol.Scope, fn *symbol.Function) {
	var sig *Signature
	if fn != nil {
		sig = in.res.Signature(fn)
	}
	for i := range args {
		a := &args[i]
		if a.Lambda {
			continue
		}
		if a.expr == nil {
			a.Type = types.ErrorOf("missing argument")
			continue
		}
		var want types.Type
		if sig != nil {
			if pi := guessParameter(fn, args, i); pi >= 0 {
				want = paramType(sig, pi)
				if a.Spread {
					want = varargArray(want)
				}
			}
		}
		a.Type = in.Infer(a.expr, scope, want)
		if in.observer != nil {
			in.observer.ValueUsed(a.expr, scope)
		}
	}
}

// guessParameter maps argument i onto fn's parameters the way apply does,
// without checking types. It returns -1 when there is no such parameter.
func guessParameter(fn *symbol.Function, args []callArg, i int) int {
	if args[i].Name != "" {
		return parameterNamed(fn.Parameters, args[i].Name)
	}
	if trailingLambda(plain(args), i) && len(fn.Parameters) > 0 {
		return len(fn.Parameters) - 1
	}
	pos := 0
	for j := 0; j < i; j++ {
		if args[j].Name == "" {
			pos++
		}
	}
	for k, p := range fn.Parameters {
		if p.IsVararg && k <= pos {
			return k
		}
	}
	if pos < len(fn.Parameters) {
		return pos
	}
	return -1
}

// inferLambdas types lambda arguments of a call that was not resolved, so
// their bodies are still checked.
func (in *Inferrer) inferLambdas(args []callArg, scope *symbol.Scope, fn *symbol.Function) {
	for i, a := range args {
		if !a.Lambda || a.expr == nil {
			continue
		}
		var want types.Type
		if fn != nil {
			if pi := guessParameter(fn, args, i); pi >= 0 {
				want = paramType(in.res.Signature(fn), pi)
			}
		}
		in.Infer(a.expr, scope, want)
	}
}

// complete finishes a resolved call: it records the reference, binds the
// type parameters from the receiver, the arguments and the expected type,
// types the lambdas and returns the substituted return type.
func (in *Inferrer) complete(callee *syntax.Node, s Success, args []callArg, recv types.Type, explicit []types.Type, scope *symbol.Scope, expected types.Type) types.Type {
	fn := s.Selected
	in.ctx.RecordReference(callee, fn, symbol.RefCall)
	in.checkDeprecated(callee, fn)
	sig := in.res.Signature(fn)

	var recvSubst types.Substitution
	if recv != nil && !fn.IsExtension() {
		recvSubst = in.memberSubstitution(recv, fn)
	}
	sub := func(t types.Type) types.Type {
		if t == nil || len(recvSubst) == 0 {
			return t
		}
		return t.Substitute(recvSubst)
	}

	bind := make(types.Substitution)
	targets := make(map[string]bool, len(sig.TypeParams))
	for i, tp := range sig.TypeParams {
		targets[tp.Name] = true
		if i < len(explicit) {
			bind[tp.Name] = explicit[i]
		}
	}
	if fn.IsExtension() && recv != nil && sig.Receiver != nil {
		in.unify(sig.Receiver, recv, bind, targets)
	}
	for i, a := range args {
		pi, ok := s.Mapping.ParameterFor(i, a.CallArgument)
		if a.Lambda || !ok {
			continue
		}
		want := sub(paramType(sig, pi))
		if a.Spread {
			want = varargArray(want)
		}
		in.unify(want, a.Type, bind, targets)
	}
	for i, a := range args {
		pi, ok := s.Mapping.ParameterFor(i, a.CallArgument)
		if !a.Lambda || !ok {
			continue
		}
		want := sub(paramType(sig, pi))
		t := in.Infer(a.expr, scope, want.Substitute(bind))
		in.unify(want, t, bind, targets)
	}

	ret := sig.Return
	if ret == nil {
		ret = in.inferredReturn(fn)
	}
	ret = sub(ret)
	if expected != nil {
		in.unify(ret, expected, bind, targets)
	}
	for name := range targets {
		if _, ok := bind[name]; !ok {
			bind[name] = types.ErrorOf("Cannot infer type parameter " + name)
		}
	}
	return ret.Substitute(bind)
}

// unify matches a parameter type against an argument type and records the
// bindings of the target type parameters it finds. Earlier bindings are
// widened to the common supertype.
func (in *Inferrer) unify(p, a types.Type, out types.Substitution, targets map[string]bool) {
	if p == nil || a == nil || types.IsError(a) {
		return
	}
	switch pv := p.(type) {
	case *types.TypeParam:
		if !targets[pv.Name] {
			return
		}
		v := a
		if pv.Nullable {
			v = types.NonNull(a)
		}
		if prev, ok := out[pv.Name]; ok {
			if !types.IsError(prev) {
				out[pv.Name] = in.ctx.Checker.CommonSupertype(prev, v)
			}
			return
		}
		out[pv.Name] = v
	case *types.Class:
		var ac *types.Class
		switch av := types.NonNull(a).(type) {
		case *types.Class:
			ac = av
		case *types.Primitive:
			ac = av.Boxed()
		}
		if ac == nil {
			return
		}
		if ac.FQName != pv.FQName {
			if ac = in.ctx.Checker.Hierarchy().Supertype(ac, pv.FQName); ac == nil {
				return
			}
		}
		for i, arg := range pv.Arguments {
			if i < len(ac.Arguments) {
				in.unify(arg.Type, ac.Arguments[i].Type, out, targets)
			}
		}
	case *types.Function:
		af, ok := types.NonNull(a).(*types.Function)
		if !ok {
			return
		}
		if pv.Receiver != nil && af.Receiver != nil {
			in.unify(pv.Receiver, af.Receiver, out, targets)
		}
		for i, param := range pv.Parameters {
			if i < len(af.Parameters) {
				in.unify(param, af.Parameters[i], out, targets)
			}
		}
		in.unify(pv.Return, af.Return, out, targets)
	}
}

// callFailed reports why no candidate of a call applied. Calls to library
// functions are not reported: their signatures may be incomplete.
func (in *Inferrer) callFailed(callee *syntax.Node, res OverloadResult, args []callArg, scope *symbol.Scope) types.Type {
	name := identText(callNameNode(callee))
	var fns []*symbol.Function
	switch r := res.(type) {
	case NoApplicable:
		fns = r.Candidates
	case Ambiguity:
		fns = r.Candidates
	}
	only := single(fns)
	in.inferLambdas(args, scope, only)
	if in.allLocal(fns) && !argumentsHaveErrors(args) {
		switch r := res.(type) {
		case NoApplicable:
			if len(r.Failures) == 1 {
				in.reportFailure(callee, r.Failures[0], args)
			} else {
				in.ctx.ReportError(diagnostic.NoneApplicable, callNameNode(callee), signatures(r.Candidates))
			}
		case Ambiguity:
			in.ctx.ReportError(diagnostic.OverloadAmbiguity, callNameNode(callee), signatures(r.Candidates))
		}
	}
	if only != nil {
		in.ctx.RecordReference(callNameNode(callee), only, symbol.RefCall)
		sig := in.res.Signature(only)
		ret := sig.Return
		if ret == nil {
			ret = in.inferredReturn(only)
		}
		unbound := make(types.Substitution, len(sig.TypeParams))
		for _, tp := range sig.TypeParams {
			unbound[tp.Name] = types.ErrorOf("Cannot infer type parameter " + tp.Name)
		}
		return ret.Substitute(unbound)
	}
	return types.ErrorOf("no applicable candidate for " + name)
}

func (in *Inferrer) reportFailure(callee *syntax.Node, f Failure, args []callArg) {
	at := func(i int) *syntax.Node {
		if i >= 0 && i < len(args) && args[i].expr != nil {
			return args[i].expr
		}
		return callNameNode(callee)
	}
	switch r := f.Reason.(type) {
	case TooFewArguments:
		in.ctx.ReportError(diagnostic.NoValueForParameter, callNameNode(callee), r.Missing)
	case TooManyArguments:
		in.ctx.ReportError(diagnostic.TooManyArguments, at(r.Max), f.Candidate.Signature())
	case TypeMismatch:
		in.ctx.ReportError(diagnostic.ArgumentTypeMismatch, at(r.Arg), types.Render(r.Expected), types.Render(r.Actual))
	case NamedParameterNotFound:
		n := callNameNode(callee)
		for _, a := range args {
			if a.Name == r.Name && a.expr != nil {
				n = a.expr.Parent()
			}
		}
		in.ctx.ReportError(diagnostic.NamedParameterNotFound, n, r.Name)
	case PositionalAfterNamed:
		in.ctx.ReportError(diagnostic.MixingNamedAndPositioned, at(r.Arg))
	default:
		in.ctx.ReportError(diagnostic.NoneApplicable, callNameNode(callee), f.Candidate.Signature()+": "+f.Reason.String())
	}
}

// allLocal reports whether every candidate is declared in this file, so
// its signature is known exactly.
func (in *Inferrer) allLocal(fns []*symbol.Function) bool {
	for _, fn := range fns {
		if _, ext := in.ctx.External(fn); ext {
			return false
		}
		if symbol.IsSynthetic(fn) && (!fn.IsConstructor || in.ctx.LocalClass(fn.Container) == nil) {
			return false
		}
	}
	return len(fns) > 0
}

func argumentsHaveErrors(args []callArg) bool {
	for _, a := range args {
		if !a.Lambda && a.Type != nil && a.Type.HasError() {
			return true
		}
	}
	return false
}

func signatures(fns []*symbol.Function) string {
	parts := make([]string, len(fns))
	for i, fn := range fns {
		parts[i] = fn.Signature()
	}
	return strings.Join(parts, ", ")
}

// callNameNode returns the identifier naming the called function, or n itself.
func callNameNode(n *syntax.Node) *syntax.Node {
	if id := calleeNameNode(n); id != nil {
		return id
	}
	return n
}

// invokeValue calls a value through its invoke operator.
func (in *Inferrer) invokeValue(n, callee *syntax.Node, t types.Type, args []callArg, scope *symbol.Scope, expected types.Type) types.Type {
	if types.IsError(t) {
		in.inferArguments(args, scope, nil)
		in.inferLambdas(args, scope, nil)
		return t
	}
	if t.IsNullable() && !types.IsNothing(t) {
		in.ctx.ReportError(diagnostic.UnsafeImplicitInvoke, callee, t.Render(false))
	}
	recv := types.NonNull(t)
	fns := functionsOf(SymbolsOf(in.res.ResolveMemberAccess(recv, "invoke", scope)))
	in.inferArguments(args, scope, single(fns))
	if len(fns) == 0 {
		in.inferLambdas(args, scope, nil)
		return types.ErrorOf("expression of type " + t.Render(false) + " cannot be invoked")
	}
	res := in.over.Resolve(fns, plain(args), expected, scope)
	if s, ok := res.(Success); ok {
		return in.complete(nil, s, args, recv, nil, scope, expected)
	}
	return in.callFailed(n, res, args, scope)
}

func (in *Inferrer) checkDeprecated(n *syntax.Node, sym symbol.Symbol) {
	if n == nil || sym == nil {
		return
	}
	if rec, ok := in.ctx.External(sym); ok {
		if rec.Deprecated {
			in.ctx.ReportWarning(diagnostic.Deprecation, n, symbol.Name(sym), rec.DeprecationMsg)
		}
		return
	}
	if sym.Decl().Modifiers.HasAnnotation("Deprecated") {
		in.ctx.ReportWarning(diagnostic.Deprecation, n, symbol.Name(sym), deprecationMessage(sym))
	}
}

// deprecationMessage returns the message argument of a @Deprecated
// annotation on sym's declaration.
func deprecationMessage(sym symbol.Symbol) string {
	decl := sym.Decl().Node
	if decl == nil {
		return ""
	}
	mods := decl.FindChild(syntax.KindModifiers)
	for _, a := range mods.FindChildren(syntax.KindAnnotation) {
		if !strings.Contains(a.Text(), "Deprecated") {
			continue
		}
		if s := a.FindDescendant(syntax.KindStringLiteral); s != nil {
			return strings.Trim(s.Text(), `"`)
		}
	}
	return ""
}

// isSafeCall reports whether a navigation suffix uses `?.`.
func isSafeCall(suffix *syntax.Node) bool {
	return strings.HasPrefix(strings.TrimSpace(suffix.Text()), "?.")
}

// isDottedName reports whether n is a plain `a.b.c` name chain.
func isDottedName(n *syntax.Node) bool {
	switch n.Kind() {
	case syntax.KindSimpleIdentifier:
		return true
	case syntax.KindNavigationExpression:
		suffix := n.FindChild(syntax.KindNavigationSuffix)
		return suffix != nil && !isSafeCall(suffix) && suffix.FindChild(syntax.KindSimpleIdentifier) != nil &&
			isDottedName(n.NamedChild(0))
	}
	return false
}

// qualifier resolves the receiver of a navigation when it names a class
// rather than a value.
func (in *Inferrer) qualifier(recv *syntax.Node, scope *symbol.Scope) *symbol.Class {
	if !isDottedName(recv) {
		return nil
	}
	if recv.Kind() == syntax.KindSimpleIdentifier {
		cls, _ := valueSymbol(in.resolveName(identText(recv), scope)).(*symbol.Class)
		if cls == nil || cls.ClassKind == symbol.ClassKindEnumEntry {
			return nil
		}
		in.ctx.RecordReference(recv, cls, symbol.RefType)
		in.ctx.RecordType(recv, in.classValue(cls))
		return cls
	}
	head := recv
	for head.Kind() == syntax.KindNavigationExpression {
		head = head.NamedChild(0)
	}
	if sym := valueSymbol(in.resolveName(identText(head), scope)); sym != nil {
		if _, isClass := sym.(*symbol.Class); !isClass {
			return nil
		}
	}
	name := strings.Join(strings.Fields(strings.ReplaceAll(recv.Text(), "`", "")), "")
	if cls, ok := valueSymbol(SymbolsOf(in.res.ResolveQualifiedName(name, scope))).(*symbol.Class); ok && cls.ClassKind != symbol.ClassKindEnumEntry {
		in.ctx.RecordType(recv, in.classValue(cls))
		return cls
	}
	return nil
}

// packagePrefix reports whether recv spells a package name such as
// `kotlin.math`: a dotted chain whose head resolves to nothing.
func (in *Inferrer) packagePrefix(recv *syntax.Node, scope *symbol.Scope) (string, bool) {
	if !isDottedName(recv) {
		return "", false
	}
	head := recv
	for head.Kind() == syntax.KindNavigationExpression {
		head = head.NamedChild(0)
	}
	name := identText(head)
	if name == "" || name[0] < 'a' || name[0] > 'z' || len(in.resolveName(name, scope)) > 0 {
		return "", false
	}
	return strings.Join(strings.Fields(strings.ReplaceAll(recv.Text(), "`", "")), ""), true
}

// callMember handles `recv.name(args)` and `recv?.name(args)`.
func (in *Inferrer) callMember(n, nav *syntax.Node, args []callArg, explicit []types.Type, scope *symbol.Scope, expected types.Type) types.Type {
	recvNode := nav.NamedChild(0)
	suffix := nav.FindChild(syntax.KindNavigationSuffix)
	nameNode := suffix.FindChild(syntax.KindSimpleIdentifier)
	if recvNode == nil || nameNode == nil {
		in.inferArguments(args, scope, nil)
		return in.malformed(nav, "expected a member name")
	}
	name := identText(nameNode)
	safe := isSafeCall(suffix)

	if pkg, ok := in.packagePrefix(recvNode, scope); ok {
		fns := functionsOf(in.res.materializeAll(visible(in.ctx.Project.FindByFQName(pkg + "." + name))))
		return in.resolveCall(n, nameNode, candidates{fns: fns}, args, explicit, scope, expected, false)
	}
	if cls := in.qualifier(recvNode, scope); cls != nil {
		c := in.fromSymbols(in.res.staticMembers(cls, name))
		switch {
		case cls.IsObject():
			c.recv = in.ctx.Types.ClassType(cls, false)
		case cls.Companion != nil:
			c.recv = in.ctx.Types.ClassType(cls.Companion, false)
		}
		if len(c.fns) == 0 && c.recv != nil {
			c.fns = functionsOf(SymbolsOf(in.res.ResolveMemberAccess(c.recv, name, scope)))
		}
		if t := in.resolveCall(n, nameNode, c, args, explicit, scope, expected, in.ctx.LocalClass(cls.FullName()) != nil); t != nil {
			return t
		}
	}

	rt := in.Infer(recvNode, scope, nil)
	if types.IsError(rt) {
		in.inferArguments(args, scope, nil)
		in.inferLambdas(args, scope, nil)
		return types.ErrorOf("unknown receiver")
	}
	lookup := rt
	if safe {
		lookup = types.NonNull(rt)
	}
	nullable := rt.IsNullable() && !types.IsNothing(rt)
	var c candidates
	if nullable && !safe {
		// Extensions declared on a nullable receiver apply as they are.
		c.fns = functionsOf(in.res.extensions(rt, name, scope))
	}
	unsafe := false
	if len(c.fns) == 0 {
		syms := SymbolsOf(in.res.ResolveMemberAccess(types.NonNull(lookup), name, scope))
		c = in.fromSymbols(syms)
		unsafe = nullable && !safe
	}
	c.recv = types.NonNull(lookup)
	if len(c.fns) == 0 && c.value != nil {
		in.ctx.RecordReference(nameNode, c.value, symbol.RefRead)
		vt := in.valueType(c.value).Substitute(in.memberSubstitution(c.recv, c.value))
		return in.nullableResult(in.invokeValue(n, nameNode, vt, args, scope, expected), rt, safe)
	}
	if len(c.fns) == 0 {
		in.inferArguments(args, scope, nil)
		in.inferLambdas(args, scope, nil)
		if in.res.isLocalType(lookup) {
			in.ctx.ReportError(diagnostic.UnresolvedReference, nameNode, name)
			return types.Unresolved(name)
		}
		return types.ErrorOf("unknown member " + name)
	}
	if unsafe {
		in.ctx.ReportErrorAt(diagnostic.UnsafeCall, nav, suffix.Range(), rt.Render(false))
	}
	t := in.resolveCall(n, nameNode, c, args, explicit, scope, expected, in.res.isLocalType(lookup))
	return in.nullableResult(t, rt, safe)
}

// resolveCall selects among one candidate group. It returns nil when the
// group is empty and report is false, leaving the caller to fall back.
func (in *Inferrer) resolveCall(n, nameNode *syntax.Node, c candidates, args []callArg, explicit []types.Type, scope *symbol.Scope, expected types.Type, report bool) types.Type {
	if len(c.fns) == 0 {
		if c.value != nil {
			in.ctx.RecordReference(nameNode, c.value, symbol.RefRead)
			return in.invokeValue(n, nameNode, in.valueType(c.value), args, scope, expected)
		}
		if !report {
			return nil
		}
		in.inferArguments(args, scope, nil)
		in.inferLambdas(args, scope, nil)
		in.ctx.ReportError(diagnostic.UnresolvedReference, nameNode, identText(nameNode))
		return types.Unresolved(identText(nameNode))
	}
	in.inferArguments(args, scope, single(c.fns))
	res := in.over.Resolve(c.fns, plain(args), expected, scope)
	if s, ok := res.(Success); ok {
		return in.complete(nameNode, s, args, c.recv, explicit, scope, expected)
	}
	return in.callFailed(nameNode, res, args, scope)
}

func (in *Inferrer) nullableResult(t, recv types.Type, safe bool) types.Type {
	if safe && recv.IsNullable() && t != nil {
		return t.WithNullable(true)
	}
	return t
}

// navigation types `recv.name` and `recv?.name` used as values.
func (in *Inferrer) navigation(n *syntax.Node, scope *symbol.Scope) types.Type {
	recvNode := n.NamedChild(0)
	suffix := n.FindChild(syntax.KindNavigationSuffix)
	if recvNode == nil || suffix == nil {
		return in.malformed(n, "malformed member access")
	}
	kind := symbol.RefRead
	if isWriteTarget(n) {
		kind = symbol.RefWrite
	}
	return in.memberValue(n, recvNode, suffix, kind, scope)
}

// memberValue types the property or nested name selected by a navigation
// suffix on recvNode.
func (in *Inferrer) memberValue(n, recvNode, suffix *syntax.Node, kind symbol.ReferenceKind, scope *symbol.Scope) types.Type {
	nameNode := suffix.FindChild(syntax.KindSimpleIdentifier)
	if nameNode == nil {
		in.Infer(recvNode, scope, nil)
		return types.ErrorOf("unsupported member access")
	}
	name := identText(nameNode)
	safe := isSafeCall(suffix)

	if pkg, ok := in.packagePrefix(recvNode, scope); ok {
		if cls, ok := valueSymbol(SymbolsOf(in.res.ResolveQualifiedName(pkg+"."+name, scope))).(*symbol.Class); ok {
			return in.classValue(cls)
		}
		if sym := valueSymbol(in.res.materializeAll(visible(in.ctx.Project.FindByFQName(pkg + "." + name)))); sym != nil {
			in.ctx.RecordReference(nameNode, sym, kind)
			return in.valueType(sym)
		}
		return types.ErrorOf("unknown package member " + pkg + "." + name)
	}
	if cls := in.qualifier(recvNode, scope); cls != nil {
		if sym := valueSymbol(in.res.staticMembers(cls, name)); sym != nil {
			in.ctx.RecordReference(nameNode, sym, kind)
			in.checkDeprecated(nameNode, sym)
			if nested, ok := sym.(*symbol.Class); ok && !nested.IsObject() && nested.ClassKind != symbol.ClassKindEnumEntry {
				return in.ctx.Types.ClassType(nested, false)
			}
			return in.valueType(sym)
		}
		if cls.Companion == nil && !cls.IsObject() {
			if in.ctx.LocalClass(cls.FullName()) != nil {
				in.ctx.ReportError(diagnostic.UnresolvedReference, nameNode, name)
				return types.Unresolved(name)
			}
			return types.ErrorOf("unknown member " + name)
		}
	}

	rt := in.Infer(recvNode, scope, nil)
	if types.IsError(rt) {
		return types.ErrorOf("unknown receiver")
	}
	lookup := types.NonNull(rt)
	sym := valueSymbol(SymbolsOf(in.res.ResolveMemberAccess(lookup, name, scope)))
	if rt.IsNullable() && !safe {
		if ext := valueSymbol(in.res.extensions(rt, name, scope)); ext != nil {
			sym = ext
		} else if sym != nil && !types.IsNothing(rt) {
			in.ctx.ReportErrorAt(diagnostic.UnsafeCall, n, suffix.Range(), rt.Render(false))
		}
	}
	if sym == nil {
		if in.res.isLocalType(lookup) {
			in.ctx.ReportError(diagnostic.UnresolvedReference, nameNode, name)
			return types.Unresolved(name)
		}
		return types.ErrorOf("unknown member " + name)
	}
	in.ctx.RecordReference(nameNode, sym, kind)
	in.checkDeprecated(nameNode, sym)
	if kind == symbol.RefRead {
		if sc, ok := in.ctx.ActiveSmartCast(sym); ok && isThisReceiver(recvNode) {
			in.ctx.recordCast(nameNode, sc)
			return sc.Cast
		}
	}
	t := in.valueType(sym).Substitute(in.memberSubstitution(lookup, sym))
	return in.nullableResult(t, rt, safe)
}

func isThisReceiver(n *syntax.Node) bool {
	return n.Kind() == syntax.KindThisExpression && !strings.Contains(n.Text(), "@")
}
