package semantic

import (
	"strings"

	"github.com/jward/ksema/internal/syntax"
)

// isExpression reports whether c can be an operand: a named node other than
// comments, labels and annotations, or a bare `null` token.
func isExpression(c *syntax.Node) bool {
	if c == nil {
		return false
	}
	if !c.IsNamed() {
		return c.Kind() == syntax.KindNullLiteral
	}
	switch c.Kind() {
	case syntax.KindLabel, syntax.KindAnnotation, syntax.KindModifiers,
		syntax.KindTypeArguments, syntax.KindLineComment, syntax.KindMultilineComment:
		return false
	}
	return true
}

// operands returns the expression children of n in source order.
func operands(n *syntax.Node) []*syntax.Node {
	var out []*syntax.Node
	for _, c := range n.Children() {
		if isExpression(c) {
			out = append(out, c)
		}
	}
	return out
}

func firstOperand(n *syntax.Node) *syntax.Node {
	for _, c := range n.Children() {
		if isExpression(c) {
			return c
		}
	}
	return nil
}

// operator returns the first anonymous token of n that is not punctuation.
func operator(n *syntax.Node) string {
	for _, c := range n.Children() {
		if c.IsNamed() {
			continue
		}
		switch k := c.Kind(); k {
		case syntax.KindNullLiteral, "(", ")", "{", "}", ",", ";":
		default:
			return k
		}
	}
	return ""
}

// statementNodes returns the statements of a statements,
// control_structure_body or function_body node, skipping labels and annotations.
func statementNodes(n *syntax.Node) []*syntax.Node {
	if n == nil {
		return nil
	}
	switch n.Kind() {
	case syntax.KindStatements:
		return operands(n)
	case syntax.KindControlStructureBody, syntax.KindFunctionBody:
		if n.IsBraced() {
			return operands(n.Statements())
		}
		return operands(n)
	}
	return []*syntax.Node{n}
}

// identText returns the name an identifier node spells, without backticks.
func identText(n *syntax.Node) string {
	if n == nil {
		return ""
	}
	return strings.Trim(n.Text(), "`")
}

// trimTrivia drops wrapping parentheses and labels around an expression.
func trimTrivia(n *syntax.Node) *syntax.Node {
	for n != nil && n.Kind() == syntax.KindParenthesizedExpression {
		inner := firstOperand(n)
		if inner == nil {
			return n
		}
		n = inner
	}
	return n
}

// labelAfter returns the label of `this@L`, `super@L` or `return@L`.
func labelAfter(n *syntax.Node, keyword string) string {
	text := strings.TrimSpace(n.Text())
	if !strings.HasPrefix(text, keyword+"@") {
		return ""
	}
	rest := text[len(keyword)+1:]
	end := 0
	for end < len(rest) && isIdentByte(rest[end]) {
		end++
	}
	return rest[:end]
}

func isIdentByte(b byte) bool {
	return b == '_' || b >= '0' && b <= '9' || b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z' || b >= 0x80
}

// contains reports whether inner lies within outer's span.
func contains(outer, inner *syntax.Node) bool {
	if outer == nil || inner == nil {
		return false
	}
	o, i := outer.Range(), inner.Range()
	return o.StartByte <= i.StartByte && i.EndByte <= o.EndByte
}

// rangeBetween spans from the end of from to the end of to.
func rangeBetween(from, to *syntax.Node) syntax.Range {
	a, b := from.Range(), to.Range()
	return syntax.Range{Start: a.End, End: b.End, StartByte: a.EndByte, EndByte: b.EndByte}
}

// isWriteTarget reports whether n is the whole left-hand side of an
// assignment.
func isWriteTarget(n *syntax.Node) bool {
	p := n.Parent()
	return p != nil && p.Kind() == syntax.KindDirectlyAssignable &&
		p.FindChild(syntax.KindNavigationSuffix) == nil && p.FindChild(syntax.KindIndexingSuffix) == nil
}

// between returns the source text of n lying between its children a and b,
// trimmed. It is used to read operators the grammar keeps anonymous.
func between(n, a, b *syntax.Node) string {
	text := n.Text()
	base := n.Range().StartByte
	from, to := a.Range().EndByte-base, len(text)
	if b != nil {
		to = b.Range().StartByte - base
	}
	if from < 0 || to > len(text) || from > to {
		return ""
	}
	return strings.TrimSpace(text[from:to])
}
