package semantic

import (
	"strings"

	"github.com/jward/ksema/internal/diagnostic"
	"github.com/jward/ksema/internal/symbol"
	"github.com/jward/ksema/internal/syntax"
	"github.com/jward/ksema/internal/types"
)

// blockType infers the statements of a block in order. The block's type is
// that of its last statement, Unit when it is empty.
func (in *Inferrer) blockType(n *syntax.Node, scope *symbol.Scope, expected types.Type) types.Type {
	if n.Kind() == syntax.KindControlStructureBody && n.IsBraced() {
		// Braced bodies own a scope bound to their statements.
		if st := n.Statements(); st != nil {
			return in.Infer(st, scope, expected)
		}
		return types.UnitType
	}
	stmts := statementNodes(n)
	if len(stmts) == 0 {
		return types.UnitType
	}
	var narrowed []pushedCast
	defer func() { in.popCasts(narrowed) }()

	var last types.Type = types.UnitType
	unreachable := false
	for i, stmt := range stmts {
		if unreachable {
			in.ctx.ReportWarning(diagnostic.UnreachableCode, stmt)
			unreachable = false
		}
		var want types.Type
		if i == len(stmts)-1 {
			want = expected
		}
		last = in.Infer(stmt, scope, want)
		if i < len(stmts)-1 && types.IsNothing(last) && !last.IsNullable() {
			unreachable = true
		}
		if casts := in.earlyExit(stmt, scope); len(casts) > 0 {
			in.pushCasts(casts, rangeBetween(stmt, n))
			narrowed = append(narrowed, casts...)
		}
	}
	return last
}

// earlyExit returns the casts holding after `if (cond) <jump>` without an
// else branch: the rest of the block only runs when cond is false.
func (in *Inferrer) earlyExit(stmt *syntax.Node, scope *symbol.Scope) []pushedCast {
	if stmt.Kind() != syntax.KindIfExpression {
		return nil
	}
	cond, then, otherwise := ifParts(stmt)
	if cond == nil || then == nil || otherwise != nil {
		return nil
	}
	if t, ok := in.ctx.TypeOf(then); !ok || !types.IsNothing(t) || t.IsNullable() {
		return nil
	}
	return in.conditionCasts(cond, true, scope)
}

// ifParts splits an if expression into its condition and branches. The
// branches are told apart by the else keyword between them.
func ifParts(n *syntax.Node) (cond, then, otherwise *syntax.Node) {
	seenElse := false
	for _, c := range n.Children() {
		switch {
		case !c.IsNamed() && c.Kind() == "else":
			seenElse = true
		case c.Kind() == syntax.KindControlStructureBody:
			if seenElse {
				otherwise = c
			} else {
				then = c
			}
		case cond == nil && !seenElse && then == nil && isExpression(c):
			cond = c
		}
	}
	return cond, then, otherwise
}

// CheckCondition reports a condition that is not a Boolean.
func (in *Inferrer) CheckCondition(cond *syntax.Node, t types.Type) {
	if types.IsError(t) || t.HasError() || types.IsNothing(t) {
		return
	}
	if types.IsBoolean(t) && !t.IsNullable() {
		return
	}
	in.ctx.ReportError(diagnostic.ConditionTypeMismatch, cond, t.Render(false))
}

func (in *Inferrer) ifExpression(n *syntax.Node, scope *symbol.Scope, expected types.Type) types.Type {
	cond, then, otherwise := ifParts(n)
	if cond == nil {
		return in.malformed(n, "expected a condition")
	}
	in.CheckCondition(cond, in.Infer(cond, scope, types.BooleanType))

	var tt types.Type = types.UnitType
	if then != nil {
		casts := in.conditionCasts(cond, false, scope)
		in.pushCasts(casts, then.Range())
		tt = in.Infer(then, scope, expected)
		in.popCasts(casts)
	}
	if otherwise == nil {
		return types.UnitType
	}
	casts := in.conditionCasts(cond, true, scope)
	in.pushCasts(casts, otherwise.Range())
	et := in.Infer(otherwise, scope, expected)
	in.popCasts(casts)
	return in.merge(tt, et)
}

// WhenSubject returns the subject expression of a when and, for
// `when (val x = e)`, the variable it declares.
func (in *Inferrer) WhenSubject(n *syntax.Node) (*syntax.Node, *symbol.Property) {
	subj := n.FindChild(syntax.KindWhenSubject)
	if subj == nil {
		return nil, nil
	}
	var expr *syntax.Node
	for _, c := range subj.Children() {
		if isExpression(c) && c.Kind() != syntax.KindVariableDeclaration {
			expr = c
		}
	}
	if subj.BindingKeyword() == "" {
		return expr, nil
	}
	if ws := in.ctx.Table.ScopeOf(n); ws != nil {
		for _, s := range ws.Symbols() {
			if p, ok := s.(*symbol.Property); ok && p.Node.Same(subj) {
				return expr, p
			}
		}
	}
	return expr, nil
}

func (in *Inferrer) whenExpression(n *syntax.Node, scope *symbol.Scope, expected types.Type) types.Type {
	hasSubject := n.FindChild(syntax.KindWhenSubject) != nil
	expr, prop := in.WhenSubject(n)
	var subj types.Type
	var subjSym symbol.Symbol
	if expr != nil {
		outer := scope
		if prop != nil {
			outer = scope.ParentScope()
		}
		subj = in.Infer(expr, outer, nil)
		if prop != nil {
			subjSym = prop
			subj = in.SymbolType(prop)
		} else {
			subjSym = in.stableSymbol(expr)
		}
	}

	var result types.Type
	hasElse := false
	var carried []pushedCast
	for _, entry := range n.FindChildren(syntax.KindWhenEntry) {
		conds := entry.FindChildren(syntax.KindWhenCondition)
		if len(conds) == 0 && entry.HasToken("else") {
			hasElse = true
		}
		for _, c := range conds {
			in.whenCondition(c, subj, hasSubject, scope)
		}
		var casts []pushedCast
		if len(conds) == 1 {
			if hasSubject {
				casts = in.subjectCast(conds[0], subjSym, subj, scope)
			} else {
				casts = in.conditionCasts(firstOperand(conds[0]), false, scope)
			}
		}
		body := entry.FindChild(syntax.KindControlStructureBody)
		var bt types.Type = types.UnitType
		if body != nil {
			in.pushCasts(casts, body.Range())
			bt = in.Infer(body, scope, expected)
			in.popCasts(casts)
		}
		if result == nil {
			result = bt
		} else {
			result = in.merge(result, bt)
		}
		if !hasSubject && len(conds) == 1 {
			// Later entries only run when this condition failed.
			neg := in.conditionCasts(firstOperand(conds[0]), true, scope)
			in.pushCasts(neg, rangeBetween(entry, n))
			carried = append(carried, neg...)
		}
	}
	in.popCasts(carried)
	if result == nil || (!hasSubject && !hasElse) {
		return types.UnitType
	}
	return result
}

func (in *Inferrer) whenCondition(c *syntax.Node, subj types.Type, hasSubject bool, scope *symbol.Scope) {
	inner := firstOperand(c)
	if inner == nil {
		return
	}
	switch inner.Kind() {
	case syntax.KindTypeTest:
		if typ := symbol.FirstTypeChild(inner); typ != nil {
			in.TypeNode(typ, scope)
		}
	case syntax.KindRangeTest:
		if e := firstOperand(inner); e != nil {
			in.Infer(e, scope, nil)
		}
	default:
		if hasSubject {
			var want types.Type
			if subj != nil && !types.IsError(subj) {
				want = subj.WithNullable(true)
			}
			in.Infer(inner, scope, want)
			return
		}
		in.CheckCondition(inner, in.Infer(inner, scope, types.BooleanType))
	}
}

// subjectCast narrows the subject of a when inside an `is T ->` entry.
func (in *Inferrer) subjectCast(cond *syntax.Node, sym symbol.Symbol, subj types.Type, scope *symbol.Scope) []pushedCast {
	test := firstOperand(cond)
	if sym == nil || test == nil || test.Kind() != syntax.KindTypeTest || isNegatedTest(test) {
		return nil
	}
	target := in.quietType(symbol.FirstTypeChild(test), scope)
	if target == nil || types.IsError(target) {
		return nil
	}
	return []pushedCast{{sym: sym, cast: SmartCast{Original: subj, Cast: target, Condition: test}}}
}

func isNegatedTest(n *syntax.Node) bool {
	return strings.HasPrefix(strings.TrimSpace(n.Text()), "!")
}

// quietType resolves a type node without reporting; the node is reported
// where it is first visited.
func (in *Inferrer) quietType(n *syntax.Node, scope *symbol.Scope) types.Type {
	if n == nil {
		return nil
	}
	return in.ctx.Types.Resolve(symbol.TypeRefFromNode(n), scope)
}

func (in *Inferrer) tryExpression(n *syntax.Node, scope *symbol.Scope, expected types.Type) types.Type {
	if !n.IsBraced() {
		return in.malformed(n, "expected a try block")
	}
	var t types.Type = types.UnitType
	if st := n.Statements(); st != nil {
		t = in.Infer(st, scope, expected)
	}
	for _, c := range n.FindChildren(syntax.KindCatchBlock) {
		cscope := scope
		if s := in.ctx.Table.ScopeOf(c); s != nil {
			cscope = s
		}
		if typ := symbol.FirstTypeChild(c); typ != nil {
			in.TypeNode(typ, cscope)
		}
		if st := c.Statements(); st != nil {
			t = in.merge(t, in.Infer(st, cscope, expected))
		} else {
			t = in.merge(t, types.UnitType)
		}
	}
	if f := n.FindChild(syntax.KindFinallyBlock); f != nil {
		if st := f.Statements(); st != nil {
			in.Infer(st, scope, nil)
		}
	}
	return t
}

// pushedCast is one narrowing a condition establishes.
type pushedCast struct {
	sym  symbol.Symbol
	cast SmartCast
}

func (in *Inferrer) pushCasts(casts []pushedCast, r syntax.Range) {
	for _, c := range casts {
		in.ctx.PushSmartCast(c.sym, c.cast, r)
	}
}

func (in *Inferrer) popCasts(casts []pushedCast) {
	for _, c := range casts {
		in.ctx.PopSmartCast(c.sym)
	}
}

// conditionCasts returns the narrowings that hold where cond evaluated to
// true, or to false when negate is set. It understands is checks, null
// comparisons, negation, and && and || chains. cond must already be
// inferred.
func (in *Inferrer) conditionCasts(cond *syntax.Node, negate bool, scope *symbol.Scope) []pushedCast {
	cond = trimTrivia(cond)
	if cond == nil {
		return nil
	}
	switch cond.Kind() {
	case syntax.KindPrefixExpression:
		if operator(cond) == "!" {
			return in.conditionCasts(firstOperand(cond), !negate, scope)
		}
	case syntax.KindCheckExpression:
		left := firstOperand(cond)
		typ := symbol.FirstTypeChild(cond)
		if left == nil || typ == nil {
			return nil
		}
		if strings.HasPrefix(between(cond, left, typ), "!") != negate {
			return nil
		}
		sym := in.stableSymbol(left)
		target := in.quietType(typ, scope)
		if sym == nil || target == nil || types.IsError(target) {
			return nil
		}
		return []pushedCast{{sym: sym, cast: SmartCast{Original: in.Infer(left, scope, nil), Cast: target, Condition: cond}}}
	case syntax.KindEqualityExpression:
		ops := operands(cond)
		if len(ops) != 2 {
			return nil
		}
		value := ops[0]
		switch {
		case isNull(ops[1]):
		case isNull(ops[0]):
			value = ops[1]
		default:
			return nil
		}
		op := between(cond, ops[0], ops[1])
		if strings.HasPrefix(op, "!=") == negate {
			return nil
		}
		sym := in.stableSymbol(value)
		orig := in.Infer(value, scope, nil)
		if sym == nil || types.IsError(orig) || !orig.IsNullable() {
			return nil
		}
		return []pushedCast{{sym: sym, cast: SmartCast{Original: orig, Cast: types.NonNull(orig), Condition: cond}}}
	case syntax.KindConjunctionExpression, syntax.KindDisjunctionExpression:
		// a && b is true only when both are; a || b is false only when both are.
		if (cond.Kind() == syntax.KindConjunctionExpression) == negate {
			return nil
		}
		var out []pushedCast
		for _, op := range operands(cond) {
			out = append(out, in.conditionCasts(op, negate, scope)...)
		}
		return out
	}
	return nil
}

func isNull(n *syntax.Node) bool {
	n = trimTrivia(n)
	return n != nil && (n.Kind() == syntax.KindNullLiteral || strings.TrimSpace(n.Text()) == "null")
}

// stableSymbol returns the variable n names when its value cannot change
// between a check and a later use: parameters, vals without custom getters
// or delegates, and local vars.
func (in *Inferrer) stableSymbol(n *syntax.Node) symbol.Symbol {
	n = trimTrivia(n)
	if n == nil || n.Kind() != syntax.KindSimpleIdentifier {
		return nil
	}
	switch v := in.ctx.ReferenceOf(n).(type) {
	case *symbol.Parameter:
		return v
	case *symbol.Property:
		if v.IsDelegated || v.Getter != nil {
			return nil
		}
		if v.IsVar && !in.isLocal(v) {
			return nil
		}
		return v
	}
	return nil
}
