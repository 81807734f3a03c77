package syntax

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseString(t *testing.T, src string) *Tree {
	t.Helper()
	tree, err := ParseString(context.Background(), src)
	require.NoError(t, err)
	t.Cleanup(tree.Close)
	return tree
}

// kinds lists the kinds of n's children, anonymous tokens included.
func kinds(n *Node) []string {
	var out []string
	for _, c := range n.Children() {
		out = append(out, c.Kind())
	}
	return out
}

func TestParse_FunctionBodyHoldsStatements(t *testing.T) {
	t.Parallel()
	tree := parseString(t, "fun main() { val x = 1; x = 2 }\n")
	root := tree.Root()
	assert.False(t, root.HasError())

	body := root.FindDescendant(KindFunctionBody)
	require.NotNil(t, body)
	assert.Equal(t, []string{"{", KindStatements, "}"}, kinds(body))
	assert.Nil(t, root.FindDescendant("block"), "the grammar has no block node")

	st := body.Statements()
	require.NotNil(t, st)
	assert.Equal(t, []string{KindPropertyDeclaration, KindAssignment}, kinds(st))
	assert.True(t, body.IsBraced())
	assert.Same(t, st, st.Statements())
}

func TestParse_BodiesWithoutStatements(t *testing.T) {
	t.Parallel()
	tree := parseString(t, "fun empty() {}\nfun one() = 1\n")
	bodies := []*Node{}
	tree.Root().Walk(func(n *Node) bool {
		if n.Kind() == KindFunctionBody {
			bodies = append(bodies, n)
		}
		return true
	})
	require.Len(t, bodies, 2)

	assert.Equal(t, []string{"{", "}"}, kinds(bodies[0]))
	assert.Nil(t, bodies[0].Statements())

	assert.Equal(t, []string{"=", KindIntegerLiteral}, kinds(bodies[1]))
	assert.False(t, bodies[1].IsBraced())
	assert.Nil(t, bodies[1].Statements())
}

func TestParse_ControlStructureBodies(t *testing.T) {
	t.Parallel()
	tree := parseString(t, "fun f(b: Boolean) {\n    if (b) { println(1) } else println(2)\n}\n")
	ifExpr := tree.Root().FindDescendant(KindIfExpression)
	require.NotNil(t, ifExpr)

	bodies := ifExpr.FindChildren(KindControlStructureBody)
	require.Len(t, bodies, 2)
	assert.Equal(t, []string{"{", KindStatements, "}"}, kinds(bodies[0]))
	assert.Equal(t, []string{KindCallExpression}, kinds(bodies[1]))
	assert.Nil(t, bodies[1].Statements())
}

func TestParse_BindingKeywords(t *testing.T) {
	t.Parallel()
	tree := parseString(t, "class P(val name: String, id: Int)\nvar top = 1\nfun f(x: Any) = when (val y = x) { else -> y }\n")
	root := tree.Root()

	params := root.FindDescendant(KindPrimaryConstructor).FindChildren(KindClassParameter)
	require.Len(t, params, 2)
	assert.Equal(t, []string{KindBindingPatternKind, KindSimpleIdentifier, ":", KindUserType}, kinds(params[0]))
	assert.Equal(t, "val", params[0].BindingKeyword())
	assert.Equal(t, "", params[1].BindingKeyword())

	prop := root.FindChild(KindPropertyDeclaration)
	require.NotNil(t, prop)
	assert.Equal(t, KindBindingPatternKind, prop.Child(0).Kind())
	assert.Equal(t, "var", prop.BindingKeyword())

	subject := root.FindDescendant(KindWhenSubject)
	require.NotNil(t, subject)
	assert.Equal(t, "val", subject.BindingKeyword())
}

func TestParse_SplitAccessorIsSibling(t *testing.T) {
	t.Parallel()
	tree := parseString(t, "class C {\n    val v: Int\n        get() = 1\n    val w get() = 2\n}\n")
	body := tree.Root().FindDescendant(KindClassBody)
	require.NotNil(t, body)
	assert.Equal(t, []string{"{", KindPropertyDeclaration, KindGetter, KindPropertyDeclaration, "}"}, kinds(body))

	first := body.FindChild(KindPropertyDeclaration)
	getter := first.NextSibling()
	assert.Equal(t, KindGetter, getter.Kind())
	assert.True(t, getter.PrevSibling().Same(first))
	assert.Nil(t, first.FindChild(KindGetter))

	inline := getter.NextSibling()
	assert.NotNil(t, inline.FindChild(KindGetter), "an accessor on the same line stays a child")
}

func TestNode_SiblingsOfRoot(t *testing.T) {
	t.Parallel()
	tree := parseString(t, "val a = 1\n")
	assert.Nil(t, tree.Root().NextSibling())
	assert.Nil(t, tree.Root().PrevSibling())

	var nilNode *Node
	assert.Nil(t, nilNode.NextSibling())
	assert.Nil(t, nilNode.Statements())
	assert.Equal(t, "", nilNode.BindingKeyword())
}
