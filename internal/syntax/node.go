package syntax

import (
	sitter "github.com/smacker/go-tree-sitter"
)

// Key identifies a node across wrapper instances. tree-sitter hands out a
// fresh *sitter.Node for every traversal, so caches key on span and kind.
type Key struct {
	Start uint32
	End   uint32
	Kind  string
}

// Node wraps a tree-sitter node together with the source it was parsed from.
// Every method is nil-safe: a nil *Node behaves like an empty node with no
// children, which lets callers chain lookups on partial trees.
type Node struct {
	n   *sitter.Node
	src []byte
}

func wrap(n *sitter.Node, src []byte) *Node {
	if n == nil {
		return nil
	}
	return &Node{n: n, src: src}
}

// Kind returns the grammar type of the node, e.g. "class_declaration".
func (n *Node) Kind() string {
	if n == nil {
		return ""
	}
	return n.n.Type()
}

// Is reports whether the node has any of the given kinds.
func (n *Node) Is(kinds ...string) bool {
	k := n.Kind()
	for _, want := range kinds {
		if k == want {
			return true
		}
	}
	return false
}

func (n *Node) IsNamed() bool {
	return n != nil && n.n.IsNamed()
}

// IsError reports whether this node is itself a parser ERROR node.
func (n *Node) IsError() bool {
	return n.Kind() == KindError
}

func (n *Node) IsMissing() bool {
	return n != nil && n.n.IsMissing()
}

// HasError reports whether the node or any descendant is an error or missing node.
func (n *Node) HasError() bool {
	return n != nil && (n.n.HasError() || n.n.IsMissing())
}

func (n *Node) Key() Key {
	if n == nil {
		return Key{}
	}
	return Key{Start: n.n.StartByte(), End: n.n.EndByte(), Kind: n.n.Type()}
}

func (n *Node) Text() string {
	if n == nil {
		return ""
	}
	return n.n.Content(n.src)
}

func (n *Node) Range() Range {
	if n == nil {
		return Range{}
	}
	sp, ep := n.n.StartPoint(), n.n.EndPoint()
	return Range{
		Start:     Position{Line: int(sp.Row), Column: int(sp.Column)},
		End:       Position{Line: int(ep.Row), Column: int(ep.Column)},
		StartByte: int(n.n.StartByte()),
		EndByte:   int(n.n.EndByte()),
	}
}

func (n *Node) Parent() *Node {
	if n == nil {
		return nil
	}
	return wrap(n.n.Parent(), n.src)
}

// Same reports whether n and other denote the same syntax node.
func (n *Node) Same(other *Node) bool {
	if n == nil || other == nil {
		return n == nil && other == nil
	}
	return n.Key() == other.Key()
}

func (n *Node) ChildCount() int {
	if n == nil {
		return 0
	}
	return int(n.n.ChildCount())
}

func (n *Node) Child(i int) *Node {
	if n == nil || i < 0 || i >= int(n.n.ChildCount()) {
		return nil
	}
	return wrap(n.n.Child(i), n.src)
}

// Children returns all children, anonymous tokens included.
func (n *Node) Children() []*Node {
	if n == nil {
		return nil
	}
	count := int(n.n.ChildCount())
	out := make([]*Node, 0, count)
	for i := range count {
		if c := wrap(n.n.Child(i), n.src); c != nil {
			out = append(out, c)
		}
	}
	return out
}

func (n *Node) NamedChildren() []*Node {
	if n == nil {
		return nil
	}
	count := int(n.n.NamedChildCount())
	out := make([]*Node, 0, count)
	for i := range count {
		if c := wrap(n.n.NamedChild(i), n.src); c != nil {
			out = append(out, c)
		}
	}
	return out
}

func (n *Node) NamedChild(i int) *Node {
	if n == nil || i < 0 || i >= int(n.n.NamedChildCount()) {
		return nil
	}
	return wrap(n.n.NamedChild(i), n.src)
}

func (n *Node) ChildByFieldName(name string) *Node {
	if n == nil {
		return nil
	}
	return wrap(n.n.ChildByFieldName(name), n.src)
}

// FindChild returns the first direct child of the given kind.
func (n *Node) FindChild(kind string) *Node {
	for _, c := range n.Children() {
		if c.Kind() == kind {
			return c
		}
	}
	return nil
}

// FindChildren returns every direct child of the given kind.
func (n *Node) FindChildren(kind string) []*Node {
	var out []*Node
	for _, c := range n.Children() {
		if c.Kind() == kind {
			out = append(out, c)
		}
	}
	return out
}

// HasToken reports whether an anonymous child token with the given text exists.
func (n *Node) HasToken(text string) bool {
	for _, c := range n.Children() {
		if !c.IsNamed() && c.Kind() == text {
			return true
		}
	}
	return false
}

// Statements returns the statements of a braced body: the statements child
// of a function_body, control_structure_body, init block, try, catch or
// finally node. Empty braces and unbraced bodies yield nil.
func (n *Node) Statements() *Node {
	if n.Kind() == KindStatements {
		return n
	}
	if !n.HasToken("{") {
		return nil
	}
	return n.FindChild(KindStatements)
}

// IsBraced reports whether n carries its own braces.
func (n *Node) IsBraced() bool {
	return n.HasToken("{")
}

// BindingKeyword returns "val" or "var" for property declarations, class
// parameters and when subjects, "" when neither is present. The keyword is
// either a direct token or wrapped in binding_pattern_kind.
func (n *Node) BindingKeyword() string {
	for _, c := range n.Children() {
		switch {
		case !c.IsNamed() && (c.Kind() == "val" || c.Kind() == "var"):
			return c.Kind()
		case c.Kind() == KindBindingPatternKind:
			if c.HasToken("var") {
				return "var"
			}
			return "val"
		}
	}
	return ""
}

// NextSibling returns the next sibling, anonymous tokens included.
func (n *Node) NextSibling() *Node {
	if n == nil {
		return nil
	}
	return wrap(n.n.NextSibling(), n.src)
}

// PrevSibling returns the previous sibling, anonymous tokens included.
func (n *Node) PrevSibling() *Node {
	if n == nil {
		return nil
	}
	return wrap(n.n.PrevSibling(), n.src)
}

// FindDescendant returns the first node of the given kind in a pre-order walk
// of n's subtree, n excluded.
func (n *Node) FindDescendant(kind string) *Node {
	var found *Node
	n.Walk(func(d *Node) bool {
		if found != nil {
			return false
		}
		if d.Kind() == kind && !d.Same(n) {
			found = d
			return false
		}
		return true
	})
	return found
}

// Walk performs an iterative pre-order traversal. Returning false from fn
// skips the node's children.
func (n *Node) Walk(fn func(*Node) bool) {
	if n == nil {
		return
	}
	stack := []*Node{n}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if !fn(cur) {
			continue
		}
		children := cur.Children()
		for i := len(children) - 1; i >= 0; i-- {
			stack = append(stack, children[i])
		}
	}
}

// NodeAt returns the smallest named descendant of n containing pos.
func (n *Node) NodeAt(pos Position) *Node {
	if n == nil || !n.Range().Contains(pos) {
		return nil
	}
	cur := n
	for {
		var next *Node
		for _, c := range cur.NamedChildren() {
			if c.Range().Contains(pos) {
				next = c
				break
			}
		}
		if next == nil {
			return cur
		}
		cur = next
	}
}

// Ancestor returns the nearest ancestor whose kind is one of kinds.
func (n *Node) Ancestor(kinds ...string) *Node {
	for p := n.Parent(); p != nil; p = p.Parent() {
		if p.Is(kinds...) {
			return p
		}
	}
	return nil
}

func (n *Node) String() string {
	if n == nil {
		return "<nil>"
	}
	return n.Kind() + "@" + n.Range().String()
}
