package semantic

import (
	"math"
	"strconv"
	"strings"

	"github.com/jward/ksema/internal/diagnostic"
	"github.com/jward/ksema/internal/index"
	"github.com/jward/ksema/internal/symbol"
	"github.com/jward/ksema/internal/syntax"
	"github.com/jward/ksema/internal/types"
)

// Observer is told about the nodes the inferrer meets but does not check
// itself. The analyzer implements it.
type Observer interface {
	// Statement handles assignments, loops and local declarations found in
	// blocks. ok is false when the node is left to the inferrer.
	Statement(n *syntax.Node, scope *symbol.Scope) (t types.Type, ok bool)
	// ValueUsed is called for expressions whose value is consumed: returned
	// values and call arguments.
	ValueUsed(n *syntax.Node, scope *symbol.Scope)
	// ObjectLiteral is called for every object expression with its class.
	ObjectLiteral(n *syntax.Node, cls *symbol.Class)
}

// Inferrer computes expression types. Results are memoized per node in the
// context, so inferring a node twice returns the same type value.
type Inferrer struct {
	ctx      *Context
	res      *Resolver
	over     *OverloadResolver
	observer Observer

	// ctors holds the implicit no-argument constructors of local classes
	// declaring none.
	ctors map[*symbol.Class]*symbol.Function
}

func NewInferrer(ctx *Context, res *Resolver) *Inferrer {
	return &Inferrer{
		ctx:   ctx,
		res:   res,
		over:  NewOverloadResolver(res),
		ctors: make(map[*symbol.Class]*symbol.Function),
	}
}

func (in *Inferrer) SetObserver(o Observer) { in.observer = o }

// Infer returns the type of n evaluated in scope. expected, when non-nil,
// guides literal, lambda and generic inference.
func (in *Inferrer) Infer(n *syntax.Node, scope *symbol.Scope, expected types.Type) types.Type {
	if n == nil {
		return types.ErrorOf("missing expression")
	}
	if t, ok := in.ctx.TypeOf(n); ok {
		return t
	}
	if in.ctx.Table != nil {
		if s := in.ctx.Table.ScopeOf(n); s != nil {
			scope = s
		} else if scope == nil {
			scope = in.ctx.Table.ScopeForNode(n)
		}
	}
	t := in.infer(n, scope, expected)
	if t == nil {
		t = types.ErrorOf("cannot infer type of " + n.Kind())
	}
	if prev, ok := in.ctx.TypeOf(n); ok {
		return prev
	}
	in.ctx.RecordType(n, t)
	return t
}

func (in *Inferrer) infer(n *syntax.Node, scope *symbol.Scope, expected types.Type) types.Type {
	if n.IsError() || n.IsMissing() {
		return types.ErrorOf("syntax error")
	}
	switch n.Kind() {
	case syntax.KindIntegerLiteral, syntax.KindHexLiteral, syntax.KindBinLiteral:
		return integerLiteral(n, expected)
	case syntax.KindLongLiteral:
		return types.LongType
	case syntax.KindUnsignedLiteral:
		if strings.HasSuffix(strings.ToUpper(n.Text()), "L") {
			return &types.Class{FQName: "kotlin.ULong"}
		}
		return &types.Class{FQName: "kotlin.UInt"}
	case syntax.KindRealLiteral:
		return realLiteral(n, expected)
	case syntax.KindBooleanLiteral:
		return types.BooleanType
	case syntax.KindCharacterLiteral:
		return types.CharType
	case syntax.KindNullLiteral:
		if expected != nil && !types.IsError(expected) {
			return expected.WithNullable(true)
		}
		return types.NullType
	case syntax.KindStringLiteral, syntax.KindLineStringLiteral, syntax.KindMultiLineStringLiteral:
		return in.stringLiteral(n, scope)
	case syntax.KindSimpleIdentifier, syntax.KindInterpolatedIdentifier:
		return in.identifier(n, scope)
	case syntax.KindDirectlyAssignable:
		return in.assignable(n, scope)
	case syntax.KindParenthesizedExpression, syntax.KindSpreadExpression,
		syntax.KindAnnotatedLambda:
		inner := firstOperand(n)
		if inner == nil {
			return in.malformed(n, "expected an expression")
		}
		return in.Infer(inner, scope, expected)
	case syntax.KindStatements, syntax.KindControlStructureBody:
		return in.blockType(n, scope, expected)
	case syntax.KindCallExpression:
		return in.callExpression(n, scope, expected)
	case syntax.KindNavigationExpression:
		return in.navigation(n, scope)
	case syntax.KindIndexingExpression:
		return in.indexing(n, scope)
	case syntax.KindPrefixExpression:
		return in.prefix(n, scope, expected)
	case syntax.KindPostfixExpression:
		return in.postfix(n, scope)
	case syntax.KindAdditiveExpression, syntax.KindMultiplicativeExpression:
		return in.arithmetic(n, scope)
	case syntax.KindComparisonExpression, syntax.KindEqualityExpression:
		return in.comparison(n, scope)
	case syntax.KindConjunctionExpression, syntax.KindDisjunctionExpression:
		return in.logical(n, scope)
	case syntax.KindCheckExpression:
		return in.check(n, scope)
	case syntax.KindRangeExpression:
		return in.rangeExpression(n, scope)
	case syntax.KindInfixExpression:
		return in.infix(n, scope, expected)
	case syntax.KindElvisExpression:
		return in.elvis(n, scope, expected)
	case syntax.KindAsExpression:
		return in.cast(n, scope)
	case syntax.KindIfExpression:
		return in.ifExpression(n, scope, expected)
	case syntax.KindWhenExpression:
		return in.whenExpression(n, scope, expected)
	case syntax.KindTryExpression:
		return in.tryExpression(n, scope, expected)
	case syntax.KindLambdaLiteral:
		return in.lambda(n, scope, expected)
	case syntax.KindAnonymousFunction:
		return in.anonymousFunction(n, expected)
	case syntax.KindObjectLiteral:
		return in.objectLiteral(n)
	case syntax.KindThisExpression:
		return in.this(n, scope)
	case syntax.KindSuperExpression:
		return in.super(n, scope)
	case syntax.KindJumpExpression:
		return in.jump(n, scope)
	case syntax.KindCollectionLiteral:
		return in.collectionLiteral(n, scope, expected)
	case syntax.KindCallableReference:
		return in.callableReference(n, scope)
	case syntax.KindAssignment, syntax.KindForStatement, syntax.KindWhileStatement,
		syntax.KindDoWhileStatement, syntax.KindPropertyDeclaration,
		syntax.KindFunctionDeclaration, syntax.KindClassDeclaration,
		syntax.KindObjectDeclaration, syntax.KindTypeAlias:
		if in.observer != nil {
			if t, ok := in.observer.Statement(n, scope); ok {
				return t
			}
		}
		return types.UnitType
	}
	if ops := operands(n); len(ops) == 1 {
		return in.Infer(ops[0], scope, expected)
	}
	return types.ErrorOf("unsupported expression " + n.Kind())
}

// malformed reports a syntax error for an expression node the parser
// accepted with parts missing.
func (in *Inferrer) malformed(n *syntax.Node, msg string) types.Type {
	in.ctx.ReportError(diagnostic.SyntaxError, n, msg)
	return types.ErrorOf(msg)
}

func integerLiteral(n *syntax.Node, expected types.Type) types.Type {
	if expected != nil {
		if p, ok := types.NonNull(expected).(*types.Primitive); ok {
			switch p.Kind {
			case types.Long, types.Byte, types.Short:
				return &types.Primitive{Kind: p.Kind}
			}
		}
	}
	text := strings.ToLower(strings.ReplaceAll(n.Text(), "_", ""))
	base := 10
	switch {
	case strings.HasPrefix(text, "0x"):
		base, text = 16, text[2:]
	case strings.HasPrefix(text, "0b"):
		base, text = 2, text[2:]
	}
	if v, err := strconv.ParseUint(text, base, 64); err == nil && v > math.MaxInt32 {
		return types.LongType
	}
	return types.IntType
}

func realLiteral(n *syntax.Node, expected types.Type) types.Type {
	if strings.HasSuffix(strings.ToLower(n.Text()), "f") {
		return types.FloatType
	}
	if p, ok := types.NonNull(expected).(*types.Primitive); ok && p.Kind == types.Float {
		return types.FloatType
	}
	return types.DoubleType
}

// stringLiteral visits the templates of a string so their references are
// resolved and checked.
func (in *Inferrer) stringLiteral(n *syntax.Node, scope *symbol.Scope) types.Type {
	n.Walk(func(d *syntax.Node) bool {
		switch d.Kind() {
		case syntax.KindInterpolatedExpression:
			if e := firstOperand(d); e != nil {
				in.Infer(e, scope, nil)
			}
			return false
		case syntax.KindInterpolatedIdentifier:
			in.Infer(d, scope, nil)
			return false
		}
		return true
	})
	return types.StringType
}

func (in *Inferrer) identifier(n *syntax.Node, scope *symbol.Scope) types.Type {
	name := strings.TrimPrefix(identText(n), "$")
	sym, recv := in.lookupValue(name, n, scope)
	if sym == nil {
		in.ctx.ReportError(diagnostic.UnresolvedReference, n, name)
		return types.Unresolved(name)
	}
	write := isWriteTarget(n)
	kind := symbol.RefRead
	if write {
		kind = symbol.RefWrite
	}
	in.ctx.RecordReference(n, sym, kind)
	if in.selfReference(sym, n) {
		in.ctx.ReportError(diagnostic.UninitializedVariable, n, name)
		return types.Circular(name)
	}
	if !write {
		if sc, ok := in.ctx.ActiveSmartCast(sym); ok {
			in.ctx.recordCast(n, sc)
			return sc.Cast
		}
	}
	t := in.valueType(sym)
	if recv != nil {
		t = t.Substitute(in.memberSubstitution(recv, sym))
	}
	return t
}

// lookupValue finds the symbol a bare name denotes as a value. Names not in
// scope are looked up as members of the implicit receivers, whose type is
// then returned as well.
func (in *Inferrer) lookupValue(name string, n *syntax.Node, scope *symbol.Scope) (symbol.Symbol, types.Type) {
	sym := valueSymbol(in.resolveName(name, scope))
	if sym != nil && in.selfReference(sym, n) && in.isLocal(sym) {
		// A local is not in scope within its own initializer.
		if outer := in.res.scopeOf(sym).ParentScope(); outer != nil {
			if other := valueSymbol(in.resolveName(name, outer)); other != nil && other != sym {
				return other, nil
			}
		}
	}
	if sym != nil {
		return sym, nil
	}
	for _, recv := range in.res.implicitReceivers(scope) {
		if s := valueSymbol(SymbolsOf(in.res.ResolveMemberAccess(recv, name, scope))); s != nil {
			return s, recv
		}
	}
	return nil, nil
}

func (in *Inferrer) resolveName(name string, scope *symbol.Scope) []symbol.Symbol {
	switch r := in.res.ResolveSimpleName(name, scope).(type) {
	case Resolved:
		return r.Symbols
	case Ambiguous:
		return r.Candidates
	}
	return nil
}

// valueSymbol picks the symbol a name denotes in value position: a
// variable or parameter first, then a class or object, then a function.
func valueSymbol(syms []symbol.Symbol) symbol.Symbol {
	var cls, fn symbol.Symbol
	for _, s := range syms {
		switch s.(type) {
		case *symbol.Property, *symbol.Parameter:
			return s
		case *symbol.Class:
			if cls == nil {
				cls = s
			}
		case *symbol.Function:
			if fn == nil {
				fn = s
			}
		}
	}
	if cls != nil {
		return cls
	}
	return fn
}

// isLocal reports whether sym is declared inside a body rather than at top
// level or as a member.
func (in *Inferrer) isLocal(sym symbol.Symbol) bool {
	s := in.res.scopeOf(sym)
	return s != nil && s.Kind != symbol.ScopeFile && s.Kind != symbol.ScopePackage && !s.Kind.IsClassScope()
}

// selfReference reports whether n reads sym inside sym's own initializer,
// outside of any lambda or object that would defer the read.
func (in *Inferrer) selfReference(sym symbol.Symbol, n *syntax.Node) bool {
	p, ok := sym.(*symbol.Property)
	if !ok || p.Initializer == nil || !contains(p.Initializer, n) {
		return false
	}
	for cur := n.Parent(); cur != nil; cur = cur.Parent() {
		switch cur.Kind() {
		case syntax.KindLambdaLiteral, syntax.KindAnonymousFunction, syntax.KindObjectLiteral:
			return false
		}
		if cur.Same(p.Initializer) {
			break
		}
	}
	return true
}

// memberSubstitution binds the type parameters of the class declaring sym
// to the arguments recv supplies for it.
func (in *Inferrer) memberSubstitution(recv types.Type, sym symbol.Symbol) types.Substitution {
	container := containerOf(sym)
	c, ok := types.NonNull(recv).(*types.Class)
	if !ok || container == "" {
		return nil
	}
	h := in.ctx.Checker.Hierarchy()
	if st := h.Supertype(c, container); st != nil {
		return h.Bind(st)
	}
	return nil
}

func containerOf(sym symbol.Symbol) string {
	switch s := sym.(type) {
	case *symbol.Function:
		return s.Container
	case *symbol.Property:
		return s.Container
	}
	return ""
}

// valueType is the type of sym used as a value.
func (in *Inferrer) valueType(sym symbol.Symbol) types.Type {
	switch s := sym.(type) {
	case *symbol.Property, *symbol.Parameter:
		return in.SymbolType(sym)
	case *symbol.Class:
		return in.classValue(s)
	case *symbol.Function:
		sig := in.res.Signature(s)
		ret := sig.Return
		if ret == nil {
			ret = in.inferredReturn(s)
		}
		return &types.Function{Parameters: sig.Parameters, Return: ret, Receiver: sig.Receiver}
	}
	return types.ErrorOf(symbol.Name(sym) + " is not a value")
}

// classValue types a class name used as an expression: objects stand for
// themselves, enum entries for their enum, classes for their companion.
func (in *Inferrer) classValue(c *symbol.Class) types.Type {
	if rec, ok := in.ctx.External(c); ok && rec.Kind == index.KindEnumEntry {
		return &types.Class{FQName: rec.ContainingClass}
	}
	switch {
	case c.ClassKind == symbol.ClassKindEnumEntry:
		if enum := in.enumOf(c); enum != nil {
			return in.ctx.Types.ClassType(enum, false)
		}
		return types.ErrorOf("enum entry " + c.Name)
	case c.IsObject():
		return in.ctx.Types.ClassType(c, false)
	case c.Companion != nil:
		return in.ctx.Types.ClassType(c.Companion, false)
	}
	return types.ErrorOf("classifier " + c.Name + " has no companion object")
}

func (in *Inferrer) enumOf(entry *symbol.Class) *symbol.Class {
	for s := in.res.scopeOf(entry); s != nil; s = s.ParentScope() {
		if c, ok := s.Owner.(*symbol.Class); ok && c.IsEnum() {
			return c
		}
	}
	if fq := index.PackageOf(entry.FullName()); fq != "" {
		if c := in.ctx.LocalClass(fq); c != nil && c.IsEnum() {
			return c
		}
	}
	return nil
}

// SymbolType returns the type of a property or parameter, computing it once.
// A property whose type depends on itself gets a circular error type.
func (in *Inferrer) SymbolType(sym symbol.Symbol) types.Type {
	if t, ok := in.ctx.SymbolType(sym); ok {
		return t
	}
	switch sym.(type) {
	case *symbol.Property, *symbol.Parameter:
	default:
		return in.valueType(sym)
	}
	if !in.ctx.StartComputing(sym) {
		return types.Circular(symbol.Name(sym))
	}
	var t types.Type
	switch s := sym.(type) {
	case *symbol.Property:
		t = in.propertyType(s)
	case *symbol.Parameter:
		t = in.parameterType(s)
	}
	in.ctx.FinishComputing(sym)
	if t == nil {
		t = types.ErrorOf("cannot infer type of " + symbol.Name(sym))
	}
	if !types.IsCircular(t) {
		in.ctx.RecordSymbolType(sym, t)
	}
	return t
}

func (in *Inferrer) propertyType(p *symbol.Property) types.Type {
	if rec, ok := in.ctx.External(p); ok {
		if t := in.ctx.Types.ResolveExternal(p.Type, rec.Package, in.res.externalParams(p, rec)); t != nil {
			return t
		}
		return types.ErrorOf("unknown type of " + p.Name)
	}
	scope := in.res.scopeOf(p)
	switch {
	case p.Type != nil && !p.TypeInferred:
		return in.ctx.Types.Resolve(p.Type, scope)
	case p.LoopSource != nil:
		elem := in.iterationElement(in.loopSource(p.LoopSource))
		if p.Component > 0 {
			return in.component(elem, p.Component, scope)
		}
		return elem
	case p.IsDelegated:
		return in.delegatedType(p)
	case p.Initializer != nil:
		t := in.Infer(p.Initializer, in.ctx.Table.ScopeForNode(p.Initializer), nil)
		if p.Component > 0 {
			return in.component(t, p.Component, scope)
		}
		return t
	case p.Getter != nil && p.Getter.Node != nil:
		if e := expressionBody(p.Getter.Node); e != nil {
			return in.Infer(e, in.ctx.Table.ScopeOf(p.Getter.Node), nil)
		}
	case p.Type != nil:
		return in.ctx.Types.Resolve(p.Type, scope)
	}
	return nil
}

// loopSource types the iterated expression of a for loop in the scope
// enclosing the loop.
func (in *Inferrer) loopSource(src *syntax.Node) types.Type {
	scope := in.ctx.Table.ScopeForNode(src)
	if scope != nil && scope.Kind == symbol.ScopeFor {
		scope = scope.ParentScope()
	}
	return in.Infer(src, scope, nil)
}

// iterationElement is the type a for loop over t yields.
func (in *Inferrer) iterationElement(t types.Type) types.Type {
	if types.IsError(t) {
		return t
	}
	t = types.NonNull(t)
	if tp, ok := t.(*types.TypeParam); ok {
		t = types.NonNull(tp.Bound())
	}
	if e := types.ElementType(t); e != nil {
		return e
	}
	c, ok := t.(*types.Class)
	if !ok {
		return types.ErrorOf("cannot iterate over " + types.Render(t))
	}
	h := in.ctx.Checker.Hierarchy()
	if m := h.Supertype(c, types.FQMap); m != nil {
		return mapEntry(m.Arg(0), m.Arg(1))
	}
	for _, fq := range []string{types.FQIterable, types.FQSequence, "kotlin.collections.Iterator"} {
		if st := h.Supertype(c, fq); st != nil {
			return orAnyNullable(st.Arg(0))
		}
	}
	if it := in.memberReturn(c, "iterator"); it != nil {
		if next := in.memberReturn(it, "next"); next != nil {
			return next
		}
	}
	return types.ErrorOf("cannot iterate over " + types.Render(t))
}

func mapEntry(k, v types.Type) *types.Class {
	return types.NewClass("kotlin.collections.Map.Entry", orAnyNullable(k), orAnyNullable(v))
}

// memberReturn returns the return type of calling the no-argument member
// function name on t, or nil.
func (in *Inferrer) memberReturn(t types.Type, name string) types.Type {
	for _, fn := range functionsOf(SymbolsOf(in.res.ResolveMemberAccess(t, name, nil))) {
		if len(fn.Parameters) > 0 {
			continue
		}
		ret := in.res.Signature(fn).Return
		if ret == nil {
			ret = in.inferredReturn(fn)
		}
		return ret.Substitute(in.memberSubstitution(t, fn))
	}
	return nil
}

// component types the k-th destructured component of t.
func (in *Inferrer) component(t types.Type, k int, scope *symbol.Scope) types.Type {
	if types.IsError(t) {
		return t
	}
	c, ok := types.NonNull(t).(*types.Class)
	if !ok {
		return types.ErrorOf("cannot destructure " + types.Render(t))
	}
	switch c.FQName {
	case types.FQPair, types.FQTriple, "kotlin.collections.Map.Entry":
		if k <= len(c.Arguments) {
			return orAnyNullable(c.Arg(k - 1))
		}
	}
	if e := types.ElementType(c); e != nil {
		return e
	}
	if cls := in.ctx.LocalClass(c.FQName); cls != nil && cls.PrimaryConstructor != nil && cls.ClassKind == symbol.ClassKindData {
		sig := in.res.Signature(cls.PrimaryConstructor)
		if k <= len(sig.Parameters) {
			return sig.Parameters[k-1].Substitute(in.ctx.Checker.Hierarchy().Bind(c))
		}
	}
	if ret := in.memberReturn(c, "component"+strconv.Itoa(k)); ret != nil {
		return ret
	}
	return types.ErrorOf("no component" + strconv.Itoa(k) + " in " + types.Render(t))
}

// delegatedType types `by` properties: lazy delegates yield their argument,
// others the return type of their getValue operator.
func (in *Inferrer) delegatedType(p *symbol.Property) types.Type {
	if p.Node == nil {
		return types.ErrorOf("delegated property " + p.Name)
	}
	d := p.Node.FindChild(syntax.KindPropertyDelegate)
	e := firstOperand(d)
	if e == nil {
		return types.ErrorOf("delegated property " + p.Name)
	}
	t := in.Infer(e, in.ctx.Table.ScopeForNode(d), nil)
	if c, ok := types.NonNull(t).(*types.Class); ok {
		if c.FQName == "kotlin.Lazy" && len(c.Arguments) == 1 {
			return orAnyNullable(c.Arg(0))
		}
		for _, fn := range functionsOf(SymbolsOf(in.res.ResolveMemberAccess(c, "getValue", nil))) {
			if ret := in.res.Signature(fn).Return; ret != nil {
				return ret.Substitute(in.memberSubstitution(c, fn))
			}
		}
	}
	return types.ErrorOf("delegated property " + p.Name)
}

func (in *Inferrer) parameterType(p *symbol.Parameter) types.Type {
	if p.Type == nil {
		// Lambda parameters are typed by lambda(); without an expected
		// function type they fall back to Any.
		return types.AnyType
	}
	t := in.ctx.Types.Resolve(p.Type, in.res.scopeOf(p))
	if t == nil {
		return types.ErrorOf("unknown type of " + p.Name)
	}
	if p.IsVararg {
		return varargArray(t)
	}
	return t
}

// expressionBody returns the expression of an `= expr` function body
// beneath n, or nil for block bodies.
func expressionBody(n *syntax.Node) *syntax.Node {
	body := n
	if n.Kind() != syntax.KindFunctionBody {
		body = n.FindChild(syntax.KindFunctionBody)
	}
	if body == nil || !body.HasToken("=") {
		return nil
	}
	for _, c := range body.Children() {
		if isExpression(c) {
			return c
		}
	}
	return nil
}

// inferredReturn types a function declared without a return type from its
// expression body.
func (in *Inferrer) inferredReturn(fn *symbol.Function) types.Type {
	if t, ok := in.ctx.SymbolType(fn); ok {
		return t
	}
	if fn.Node == nil {
		return types.UnitType
	}
	e := expressionBody(fn.Node)
	if e == nil {
		return types.UnitType
	}
	if !in.ctx.StartComputing(fn) {
		return types.Circular(fn.Name)
	}
	t := in.Infer(e, in.ctx.Table.Scope(fn.Body), nil)
	in.ctx.FinishComputing(fn)
	if !types.IsCircular(t) {
		in.ctx.RecordSymbolType(fn, t)
	}
	return t
}

func (in *Inferrer) lambda(n *syntax.Node, scope *symbol.Scope, expected types.Type) types.Type {
	want, _ := types.NonNull(expected).(*types.Function)
	out := &types.Function{}
	for i, p := range lambdaParameters(scope) {
		var t types.Type
		switch {
		case p.Type != nil:
			t = in.ctx.Types.Resolve(p.Type, scope)
		case want != nil && i < len(want.Parameters):
			t = want.Parameters[i]
		default:
			t = types.AnyType
		}
		in.ctx.RecordSymbolType(p, t)
		if !p.Implicit || (want != nil && len(want.Parameters) == 1) {
			out.Parameters = append(out.Parameters, t)
		}
	}
	var wantRet types.Type
	if want != nil {
		wantRet = want.Return
		if want.Receiver != nil && scope != nil {
			in.ctx.shared.receivers[scope.ID] = want.Receiver
			out.Receiver = want.Receiver
		}
	}
	out.Return = types.UnitType
	if st := n.FindChild(syntax.KindStatements); st != nil {
		out.Return = in.Infer(st, scope, wantRet)
	}
	if wantRet != nil && types.IsUnit(wantRet) {
		out.Return = types.UnitType
	}
	return out
}

// lambdaParameters lists the parameters a lambda's scope declares, the
// implicit `it` included.
func lambdaParameters(ls *symbol.Scope) []*symbol.Parameter {
	if ls == nil || ls.Kind != symbol.ScopeLambda {
		return nil
	}
	var out []*symbol.Parameter
	for _, s := range ls.Symbols() {
		if p, ok := s.(*symbol.Parameter); ok {
			out = append(out, p)
		}
	}
	return out
}

func (in *Inferrer) anonymousFunction(n *syntax.Node, expected types.Type) types.Type {
	fs := in.ctx.Table.ScopeOf(n)
	if fs == nil {
		return types.ErrorOf("anonymous function")
	}
	fn, ok := fs.Owner.(*symbol.Function)
	if !ok {
		return types.ErrorOf("anonymous function")
	}
	want, _ := types.NonNull(expected).(*types.Function)
	out := &types.Function{}
	for i, p := range fn.Parameters {
		t := in.SymbolType(p)
		if p.Type == nil && want != nil && i < len(want.Parameters) {
			t = want.Parameters[i]
			in.ctx.RecordSymbolType(p, t)
		}
		out.Parameters = append(out.Parameters, t)
	}
	switch {
	case fn.ReturnType != nil:
		out.Return = in.ctx.Types.Resolve(fn.ReturnType, fs)
	case expressionBody(n) != nil:
		out.Return = in.Infer(expressionBody(n), fs, nil)
	default:
		out.Return = types.UnitType
		if st := n.FindChild(syntax.KindFunctionBody).Statements(); st != nil {
			in.Infer(st, fs, nil)
		}
	}
	return out
}

func (in *Inferrer) objectLiteral(n *syntax.Node) types.Type {
	cls := in.ctx.Table.AnonymousClass(n)
	if cls == nil {
		return types.AnyType
	}
	if in.observer != nil {
		in.observer.ObjectLiteral(n, cls)
	}
	return in.res.thisType(cls, in.ctx.Table.Scope(cls.Members))
}

func (in *Inferrer) this(n *syntax.Node, scope *symbol.Scope) types.Type {
	if t := in.res.ResolveThis(scope, labelAfter(n, "this")); t != nil {
		return t
	}
	in.ctx.ReportError(diagnostic.ThisNotAvailable, n)
	return types.ErrorOf("this is not available")
}

func (in *Inferrer) super(n *syntax.Node, scope *symbol.Scope) types.Type {
	p := n.Parent()
	if p == nil || p.Kind() != syntax.KindNavigationExpression || !p.NamedChild(0).Same(n) {
		in.ctx.ReportError(diagnostic.SuperNotAvailable, n)
		return types.ErrorOf("super is not an expression")
	}
	label := labelAfter(n, "super")
	if typ := symbol.FirstTypeChild(n); typ != nil {
		if ref := symbol.TypeRefFromNode(typ); ref != nil {
			label = ref.SimpleName()
		}
	}
	if t := in.res.ResolveSuper(scope, label); t != nil {
		return t
	}
	in.ctx.ReportError(diagnostic.SuperNotAvailable, n)
	return types.ErrorOf("super is not available")
}

func (in *Inferrer) jump(n *syntax.Node, scope *symbol.Scope) types.Type {
	text := strings.TrimSpace(n.Text())
	switch {
	case strings.HasPrefix(text, "throw"):
		if e := firstOperand(n); e != nil {
			in.Infer(e, scope, types.Throwable)
		}
	case strings.HasPrefix(text, "return"):
		label := labelAfter(n, "return")
		in.returnValue(n, returnOperand(n, label), label, scope)
	}
	return types.NothingType
}

// returnOperand returns the value of a return expression, skipping the
// label of `return@label value`.
func returnOperand(n *syntax.Node, label string) *syntax.Node {
	skip := n.Range().StartByte + len("return")
	if label != "" {
		skip += 1 + len(label)
	}
	for _, c := range operands(n) {
		if c.Range().EndByte > skip {
			return c
		}
	}
	return nil
}

// returnValue checks a returned value against the declared return type of
// the function it returns from. Labeled returns leave a lambda and are not
// checked.
func (in *Inferrer) returnValue(n, value *syntax.Node, label string, scope *symbol.Scope) {
	var want types.Type
	if label == "" {
		if fn := returnTarget(scope); fn != nil && fn.ReturnType != nil {
			want = in.ctx.Types.Resolve(fn.ReturnType, in.ctx.Table.Scope(fn.Body))
		}
	}
	if value == nil {
		if want != nil && !types.IsError(want) && !types.IsUnit(want) && !types.IsNothing(want) {
			in.ctx.ReportError(diagnostic.ReturnTypeMismatch, n, want.Render(false), types.UnitType.Render(false))
		}
		return
	}
	t := in.Infer(value, scope, want)
	if in.observer != nil {
		in.observer.ValueUsed(value, scope)
	}
	if want == nil || t.HasError() || want.HasError() {
		return
	}
	if !in.ctx.Checker.IsSubtype(t, want) {
		in.ctx.ReportError(diagnostic.ReturnTypeMismatch, value, want.Render(false), t.Render(false))
	}
}

// returnTarget finds the function an unlabeled return leaves: the nearest
// enclosing function, accessor or anonymous function. Lambdas are skipped.
func returnTarget(scope *symbol.Scope) *symbol.Function {
	for s := scope; s != nil; s = s.ParentScope() {
		switch s.Kind {
		case symbol.ScopeFunction, symbol.ScopeAccessor, symbol.ScopeConstructor:
			fn, _ := s.Owner.(*symbol.Function)
			return fn
		case symbol.ScopeClass, symbol.ScopeEnum, symbol.ScopeCompanion, symbol.ScopeFile:
			return nil
		}
	}
	return nil
}

func (in *Inferrer) collectionLiteral(n *syntax.Node, scope *symbol.Scope, expected types.Type) types.Type {
	var elem types.Type
	if exp := types.ElementType(types.NonNull(expected)); exp != nil {
		elem = exp
	}
	var found []types.Type
	for _, e := range operands(n) {
		found = append(found, in.Infer(e, scope, elem))
	}
	if elem == nil {
		elem = in.ctx.Checker.CommonSupertypeOf(found)
		if len(found) == 0 {
			elem = types.AnyNullable
		}
	}
	if c, ok := types.NonNull(expected).(*types.Class); ok && c.FQName == types.FQArray {
		return types.ArrayOf(elem)
	}
	return types.ListOf(elem)
}

// callableReference types `X::class`; other references stay untyped.
func (in *Inferrer) callableReference(n *syntax.Node, scope *symbol.Scope) types.Type {
	text := strings.TrimSpace(n.Text())
	if strings.HasSuffix(text, "::class") {
		recv := strings.TrimSpace(strings.TrimSuffix(text, "::class"))
		var t types.Type = types.AnyType
		if recv != "" {
			t = in.res.ResolveType(recv, scope)
		}
		return types.NewClass("kotlin.reflect.KClass", types.NonNull(t))
	}
	if id := n.FindChild(syntax.KindSimpleIdentifier); id != nil && !strings.Contains(text, ".") && strings.HasPrefix(text, "::") {
		if fn := functionsOf(in.resolveName(identText(id), scope)); len(fn) == 1 {
			in.ctx.RecordReference(id, fn[0], symbol.RefRead)
			return in.valueType(fn[0])
		}
	}
	return types.ErrorOf("callable reference " + text)
}
