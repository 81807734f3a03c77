package semantic

import (
	"github.com/jward/ksema/internal/diagnostic"
	"github.com/jward/ksema/internal/syntax"
)

// statementKinds are the nodes whose own parse errors decide whether a
// semantic error beneath them is reported.
var statementKinds = map[string]bool{
	syntax.KindCallExpression:       true,
	syntax.KindPropertyDeclaration:  true,
	syntax.KindAssignment:           true,
	syntax.KindJumpExpression:       true,
	syntax.KindIfExpression:         true,
	syntax.KindWhenExpression:       true,
	syntax.KindForStatement:         true,
	syntax.KindWhileStatement:       true,
	syntax.KindDoWhileStatement:     true,
	syntax.KindTryExpression:        true,
	syntax.KindNavigationExpression: true,
}

// boundaryKinds end the ancestor walk: errors elsewhere in an enclosing body
// do not hide diagnostics on well-formed code.
var boundaryKinds = map[string]bool{
	syntax.KindFunctionBody:        true,
	syntax.KindClassBody:           true,
	syntax.KindFunctionDeclaration: true,
	syntax.KindClassDeclaration:    true,
	syntax.KindObjectDeclaration:   true,
	syntax.KindSourceFile:          true,
}

// suppressed reports whether an error at n would only restate a parse error.
func (c *Context) suppressed(n *syntax.Node) bool {
	if n == nil {
		return false
	}
	r := n.Range()
	for _, er := range c.shared.errorRanges {
		if er.ContainsRange(r) {
			return true
		}
	}
	for cur := n; cur != nil; cur = cur.Parent() {
		switch {
		case cur.IsError():
			return true
		case statementKinds[cur.Kind()]:
			return cur.HasError()
		case boundaryKinds[cur.Kind()]:
			return false
		}
	}
	return false
}

// ReportError records an error at n unless n sits in broken syntax.
func (c *Context) ReportError(code diagnostic.Code, n *syntax.Node, args ...string) {
	c.ReportErrorAt(code, n, n.Range(), args...)
}

// ReportErrorAt is ReportError with an explicit range; n still decides
// suppression.
func (c *Context) ReportErrorAt(code diagnostic.Code, n *syntax.Node, r syntax.Range, args ...string) {
	if c.suppressed(n) {
		return
	}
	c.Collector.Error(code, r, args...)
}

// ReportWarning records a warning at n. Warnings are never suppressed.
func (c *Context) ReportWarning(code diagnostic.Code, n *syntax.Node, args ...string) {
	c.Collector.Warning(code, n.Range(), args...)
}
