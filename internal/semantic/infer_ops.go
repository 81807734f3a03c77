package semantic

import (
	"strings"

	"github.com/jward/ksema/internal/diagnostic"
	"github.com/jward/ksema/internal/symbol"
	"github.com/jward/ksema/internal/syntax"
	"github.com/jward/ksema/internal/types"
)

// operatorFunctions maps binary operators to the member functions they
// desugar to.
var operatorFunctions = map[string]string{
	"+": "plus",
	"-": "minus",
	"*": "times",
	"/": "div",
	"%": "rem",
}

// TypeNode resolves a written type. Names that resolve nowhere are reported.
func (in *Inferrer) TypeNode(n *syntax.Node, scope *symbol.Scope) types.Type {
	ref := symbol.TypeRefFromNode(n)
	if ref == nil {
		return types.ErrorOf("missing type")
	}
	t := in.ctx.Types.Resolve(ref, scope)
	if t == nil {
		return types.ErrorOf("missing type")
	}
	if e, ok := t.(*types.Error); ok {
		if name, found := strings.CutPrefix(e.Message, "Unresolved type: "); found {
			in.ctx.ReportError(diagnostic.UnresolvedType, n, name)
		}
	}
	return t
}

func (in *Inferrer) arithmetic(n *syntax.Node, scope *symbol.Scope) types.Type {
	ops := operands(n)
	op := operator(n)
	if len(ops) < 2 || op == "" {
		return in.malformed(n, "expected an operand")
	}
	l := in.Infer(ops[0], scope, nil)
	r := in.Infer(ops[1], scope, nil)
	if types.IsError(l) {
		return l
	}
	if op == "+" && types.FQNameOf(types.NonNull(l)) == types.FQString {
		return types.StringType
	}
	lp, lok := types.NonNull(l).(*types.Primitive)
	rp, rok := types.NonNull(r).(*types.Primitive)
	if lok && rok {
		switch {
		case lp.Kind.IsNumeric() && rp.Kind.IsNumeric():
			return numericResult(lp.Kind, rp.Kind)
		case lp.Kind == types.Char && rp.Kind == types.Char && op == "-":
			return types.IntType
		case lp.Kind == types.Char && rp.Kind.IsIntegral():
			return types.CharType
		}
	}
	if name, ok := operatorFunctions[op]; ok {
		for _, fn := range functionsOf(SymbolsOf(in.res.ResolveMemberAccess(types.NonNull(l), name, scope))) {
			if len(fn.Parameters) != 1 {
				continue
			}
			ret := in.res.Signature(fn).Return
			if ret == nil {
				ret = in.inferredReturn(fn)
			}
			return ret.Substitute(in.memberSubstitution(types.NonNull(l), fn))
		}
	}
	return l
}

// numericResult is the type of a binary arithmetic operation: the wider of
// the operands, at least Int.
func numericResult(a, b types.PrimitiveKind) types.Type {
	switch {
	case a == types.Double || b == types.Double:
		return types.DoubleType
	case a == types.Float || b == types.Float:
		return types.FloatType
	case a == types.Long || b == types.Long:
		return types.LongType
	}
	return types.IntType
}

func (in *Inferrer) comparison(n *syntax.Node, scope *symbol.Scope) types.Type {
	ops := operands(n)
	if len(ops) < 2 {
		return in.malformed(n, "expected an operand")
	}
	l := in.Infer(ops[0], scope, nil)
	var want types.Type
	if !types.IsError(l) && n.Kind() == syntax.KindEqualityExpression {
		want = l.WithNullable(true)
	}
	in.Infer(ops[1], scope, want)
	return types.BooleanType
}

// logical types && and ||. The right operand sees the casts the left one
// establishes: positive ones for &&, negated ones for ||.
func (in *Inferrer) logical(n *syntax.Node, scope *symbol.Scope) types.Type {
	ops := operands(n)
	if len(ops) < 2 {
		return in.malformed(n, "expected an operand")
	}
	in.Infer(ops[0], scope, types.BooleanType)
	casts := in.conditionCasts(ops[0], n.Kind() == syntax.KindDisjunctionExpression, scope)
	in.pushCasts(casts, ops[1].Range())
	in.Infer(ops[1], scope, types.BooleanType)
	in.popCasts(casts)
	return types.BooleanType
}

// check types `x is T`, `x !is T`, `x in c` and `x !in c`.
func (in *Inferrer) check(n *syntax.Node, scope *symbol.Scope) types.Type {
	left := firstOperand(n)
	if left == nil {
		return in.malformed(n, "expected an operand")
	}
	in.Infer(left, scope, nil)
	if typ := symbol.FirstTypeChild(n); typ != nil {
		in.TypeNode(typ, scope)
		return types.BooleanType
	}
	if ops := operands(n); len(ops) > 1 {
		in.Infer(ops[1], scope, nil)
	}
	return types.BooleanType
}

func (in *Inferrer) rangeExpression(n *syntax.Node, scope *symbol.Scope) types.Type {
	ops := operands(n)
	if len(ops) < 2 {
		return in.malformed(n, "expected a range bound")
	}
	l := in.Infer(ops[0], scope, nil)
	r := in.Infer(ops[1], scope, l)
	return rangeOf(l, r)
}

func rangeOf(l, r types.Type) types.Type {
	if types.IsError(l) {
		return l
	}
	lp, lok := types.NonNull(l).(*types.Primitive)
	rp, rok := types.NonNull(r).(*types.Primitive)
	switch {
	case lok && lp.Kind == types.Char:
		return types.CharRange
	case lok && rok && (lp.Kind == types.Long || rp.Kind == types.Long):
		return types.LongRange
	case lok && lp.Kind.IsIntegral():
		return types.IntRange
	}
	return types.ClosedRangeOf(types.NonNull(l))
}

// infix types `a name b` as a call of the infix function name.
func (in *Inferrer) infix(n *syntax.Node, scope *symbol.Scope, expected types.Type) types.Type {
	ops := operands(n)
	if len(ops) < 3 || ops[1].Kind() != syntax.KindSimpleIdentifier {
		return in.malformed(n, "malformed infix call")
	}
	nameNode := ops[1]
	name := identText(nameNode)
	l := in.Infer(ops[0], scope, nil)
	args := []callArg{{CallArgument: CallArgument{Node: ops[2]}, expr: ops[2]}}
	if types.IsError(l) {
		in.inferArguments(args, scope, nil)
		return l
	}
	recv := types.NonNull(l)
	c := candidates{fns: functionsOf(SymbolsOf(in.res.ResolveMemberAccess(recv, name, scope))), recv: recv}
	if len(c.fns) > 0 {
		return in.resolveCall(n, nameNode, c, args, nil, scope, expected, false)
	}
	in.inferArguments(args, scope, nil)
	r := args[0].Type
	switch name {
	case "to":
		return types.PairOf(l, r)
	case "until", "rangeUntil":
		return rangeOf(l, r)
	case "downTo", "step":
		switch types.FQNameOf(rangeOf(l, r)) {
		case types.FQIntRange:
			return &types.Class{FQName: "kotlin.ranges.IntProgression"}
		case types.FQLongRange:
			return &types.Class{FQName: "kotlin.ranges.LongProgression"}
		case types.FQCharRange:
			return &types.Class{FQName: "kotlin.ranges.CharProgression"}
		}
		return l
	case "and", "or", "xor", "shl", "shr", "ushr":
		return recv
	}
	if in.res.isLocalType(recv) {
		in.ctx.ReportError(diagnostic.UnresolvedReference, nameNode, name)
		return types.Unresolved(name)
	}
	return types.ErrorOf("unknown infix function " + name)
}

// elvis types `a ?: b`: the non-null left side joined with the right.
func (in *Inferrer) elvis(n *syntax.Node, scope *symbol.Scope, expected types.Type) types.Type {
	ops := operands(n)
	if len(ops) < 2 {
		return in.malformed(n, "expected an operand")
	}
	var want types.Type
	if expected != nil {
		want = expected.WithNullable(true)
	}
	l := in.Infer(ops[0], scope, want)
	r := in.Infer(ops[1], scope, expected)
	return in.merge(types.NonNull(l), r)
}

// merge joins the types of alternative branches. Error types win so that a
// broken branch does not cause follow-up mismatches.
func (in *Inferrer) merge(a, b types.Type) types.Type {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	case types.IsError(a):
		return a
	case types.IsError(b):
		return b
	}
	return in.ctx.Checker.CommonSupertype(a, b)
}

// cast types `x as T` and `x as? T`.
func (in *Inferrer) cast(n *syntax.Node, scope *symbol.Scope) types.Type {
	left := firstOperand(n)
	typ := symbol.FirstTypeChild(n)
	if left == nil || typ == nil {
		return in.malformed(n, "malformed cast")
	}
	src := in.Infer(left, scope, nil)
	target := in.TypeNode(typ, scope)
	safe := strings.HasPrefix(between(n, left, typ), "as?")
	if !safe && !types.IsError(src) && !types.IsError(target) && !target.HasError() &&
		in.ctx.Checker.AreEquivalent(src, target) {
		in.ctx.ReportWarning(diagnostic.UselessCast, n)
	}
	if safe {
		return target.WithNullable(true)
	}
	return target
}

func (in *Inferrer) indexing(n *syntax.Node, scope *symbol.Scope) types.Type {
	recv := firstOperand(n)
	suffix := n.FindChild(syntax.KindIndexingSuffix)
	if recv == nil || suffix == nil || recv.Same(suffix) {
		return in.malformed(n, "malformed indexing expression")
	}
	return in.indexed(recv, suffix, scope)
}

// indexed types `recv[indices]` through the built-in element rules, then
// the receiver's get operator.
func (in *Inferrer) indexed(recvNode, suffix *syntax.Node, scope *symbol.Scope) types.Type {
	rt := in.Infer(recvNode, scope, nil)
	indices := operands(suffix)
	for _, i := range indices {
		in.Infer(i, scope, nil)
	}
	if types.IsError(rt) {
		return rt
	}
	c, ok := types.NonNull(rt).(*types.Class)
	if ok {
		switch c.FQName {
		case types.FQMap, types.FQMutableMap, "kotlin.collections.HashMap", "kotlin.collections.LinkedHashMap":
			if len(c.Arguments) == 2 {
				return orAnyNullable(c.Arg(1)).WithNullable(true)
			}
		case types.FQArray, types.FQList, types.FQMutableList, "kotlin.collections.ArrayList",
			types.FQString, types.FQCharSequence:
			if e := types.ElementType(c); e != nil {
				return e
			}
		}
		if strings.HasSuffix(c.FQName, "Array") && strings.HasPrefix(c.FQName, "kotlin.") {
			if e := types.ElementType(c); e != nil {
				return e
			}
		}
	}
	for _, fn := range functionsOf(SymbolsOf(in.res.ResolveMemberAccess(types.NonNull(rt), "get", scope))) {
		if len(fn.Parameters) != len(indices) {
			continue
		}
		ret := in.res.Signature(fn).Return
		if ret == nil {
			ret = in.inferredReturn(fn)
		}
		return ret.Substitute(in.memberSubstitution(types.NonNull(rt), fn))
	}
	return types.ErrorOf("no get operator on " + rt.Render(false))
}

// assignable types the left-hand side of an assignment. The grammar keeps
// member and index targets flat: a receiver followed by a suffix.
func (in *Inferrer) assignable(n *syntax.Node, scope *symbol.Scope) types.Type {
	recv := firstOperand(n)
	if recv == nil {
		return in.malformed(n, "expected an assignment target")
	}
	if suffix := n.FindChild(syntax.KindNavigationSuffix); suffix != nil && !recv.Same(suffix) {
		return in.memberValue(n, recv, suffix, symbol.RefWrite, scope)
	}
	if suffix := n.FindChild(syntax.KindIndexingSuffix); suffix != nil && !recv.Same(suffix) {
		return in.indexed(recv, suffix, scope)
	}
	return in.Infer(recv, scope, nil)
}

// TargetSymbol returns the variable an assignment or increment writes, or
// nil for index targets and unresolved names.
func (in *Inferrer) TargetSymbol(n *syntax.Node) symbol.Symbol {
	n = trimTrivia(n)
	switch n.Kind() {
	case syntax.KindSimpleIdentifier:
		return in.ctx.ReferenceOf(n)
	case syntax.KindDirectlyAssignable, syntax.KindNavigationExpression:
		if n.FindChild(syntax.KindIndexingSuffix) != nil {
			return nil
		}
		if suffix := n.FindChild(syntax.KindNavigationSuffix); suffix != nil {
			return in.ctx.ReferenceOf(suffix.FindChild(syntax.KindSimpleIdentifier))
		}
		if inner := firstOperand(n); inner != nil {
			return in.TargetSymbol(inner)
		}
	}
	return nil
}

// CheckWritable reports a write to a read-only variable. Vals declared
// without an initializer may be assigned once, which is not tracked.
func (in *Inferrer) CheckWritable(target *syntax.Node) {
	switch v := in.TargetSymbol(target).(type) {
	case *symbol.Property:
		if v.IsVar || symbol.IsSynthetic(v) {
			return
		}
		if _, ext := in.ctx.External(v); ext {
			return
		}
		if v.HasInitializer || v.IsDelegated || v.Getter != nil || v.Component > 0 || v.LoopSource != nil {
			in.ctx.ReportError(diagnostic.ValReassignment, target)
		}
	case *symbol.Parameter:
		in.ctx.ReportError(diagnostic.ValReassignment, target)
	}
}

func (in *Inferrer) prefix(n *syntax.Node, scope *symbol.Scope, expected types.Type) types.Type {
	operand := firstOperand(n)
	if operand == nil {
		return in.malformed(n, "expected an operand")
	}
	switch operator(n) {
	case "!":
		in.Infer(operand, scope, types.BooleanType)
		return types.BooleanType
	case "++", "--":
		t := in.Infer(operand, scope, nil)
		in.CheckWritable(operand)
		return t
	case "-", "+":
		return in.Infer(operand, scope, expected)
	}
	return in.Infer(operand, scope, expected)
}

func (in *Inferrer) postfix(n *syntax.Node, scope *symbol.Scope) types.Type {
	operand := firstOperand(n)
	if operand == nil {
		return in.malformed(n, "expected an operand")
	}
	t := in.Infer(operand, scope, nil)
	switch operator(n) {
	case "!!", "!":
		if types.IsError(t) {
			return t
		}
		if !t.IsNullable() {
			in.ctx.ReportWarning(diagnostic.UselessNullableCheck, n, t.Render(false))
		}
		return types.NonNull(t)
	case "++", "--":
		in.CheckWritable(operand)
	}
	return t
}
