package symbol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/ksema/internal/syntax"
)

func span(startLine, endLine int) syntax.Range {
	return syntax.Range{
		Start: syntax.Position{Line: startLine},
		End:   syntax.Position{Line: endLine, Column: 80},
	}
}

func prop(name string) *Property {
	return &Property{Declaration: Declaration{Name: name, Location: Location{FilePath: "a.kt"}}}
}

func fun(name string) *Function {
	return &Function{Declaration: Declaration{Name: name, Location: Location{FilePath: "a.kt"}}}
}

func TestScope_DefineFirstWriterWins(t *testing.T) {
	t.Parallel()
	tree := NewScopeTree()
	root := tree.NewRoot(ScopeFile, span(0, 10))

	first := prop("x")
	require.True(t, root.Define(first))
	assert.False(t, root.Define(prop("x")), "second property with the same name is rejected")
	assert.False(t, root.Define(fun("x")), "function cannot join a property binding")
	assert.Equal(t, []Symbol{first}, root.ResolveLocal("x"))
	assert.Equal(t, root.ID, first.Scope)
}

func TestScope_OverloadsAccumulate(t *testing.T) {
	t.Parallel()
	tree := NewScopeTree()
	root := tree.NewRoot(ScopeFile, span(0, 10))

	a, b := fun("f"), fun("f")
	require.True(t, root.Define(a))
	require.True(t, root.Define(b))
	assert.Equal(t, []Symbol{a, b}, root.Resolve("f"))
	assert.False(t, root.Define(prop("f")))
}

func TestScope_ResolveWalksOutward(t *testing.T) {
	t.Parallel()
	tree := NewScopeTree()
	root := tree.NewRoot(ScopeFile, span(0, 20))
	fn := root.CreateChild(ScopeFunction, nil, span(2, 10))
	block := fn.CreateChild(ScopeBlock, nil, span(3, 5))

	outer := prop("x")
	inner := prop("x")
	root.Define(outer)
	block.Define(inner)
	fn.Define(prop("y"))

	assert.Equal(t, inner, block.ResolveFirst("x"))
	assert.Equal(t, outer, fn.ResolveFirst("x"))
	assert.NotNil(t, block.ResolveFirst("y"))
	assert.Nil(t, root.ResolveFirst("y"))
	assert.Nil(t, block.ResolveFirst("missing"))
}

func TestScope_ResolveConsultsCompanion(t *testing.T) {
	t.Parallel()
	tree := NewScopeTree()
	root := tree.NewRoot(ScopeFile, span(0, 20))

	cls := &Class{Declaration: Declaration{Name: "Foo", Location: Location{FilePath: "a.kt"}}}
	members := root.CreateChild(ScopeClass, cls, span(1, 10))
	cls.Members = members.ID

	companion := &Class{Declaration: Declaration{Name: "Companion", Location: Location{FilePath: "a.kt"}}, ClassKind: ClassKindCompanion}
	cm := members.CreateChild(ScopeCompanion, companion, span(2, 4))
	companion.Members = cm.ID
	cls.Companion = companion
	create := fun("create")
	cm.Define(create)

	method := members.CreateChild(ScopeFunction, nil, span(5, 6))
	assert.Equal(t, create, method.ResolveFirst("create"))
}

func TestScope_CollectAllShadows(t *testing.T) {
	t.Parallel()
	tree := NewScopeTree()
	root := tree.NewRoot(ScopeFile, span(0, 20))
	child := root.CreateChild(ScopeBlock, nil, span(1, 2))

	root.Define(prop("a"))
	root.Define(prop("b"))
	shadow := prop("a")
	child.Define(shadow)

	all := child.CollectAll()
	require.Len(t, all, 2)
	assert.Equal(t, shadow, all[0])
	assert.Equal(t, "b", all[1].Decl().Name)
}

func TestScope_Enclosing(t *testing.T) {
	t.Parallel()
	tree := NewScopeTree()
	root := tree.NewRoot(ScopeFile, span(0, 20))
	cls := &Class{Declaration: Declaration{Name: "C"}}
	members := root.CreateChild(ScopeClass, cls, span(1, 19))
	f := fun("m")
	body := members.CreateChild(ScopeFunction, f, span(2, 10))
	lambda := body.CreateChild(ScopeLambda, nil, span(3, 4))

	assert.Equal(t, lambda, lambda.FindEnclosingCallable())
	assert.Equal(t, f, lambda.EnclosingFunctionSymbol())
	assert.Equal(t, cls, lambda.EnclosingClassSymbol())
	assert.Equal(t, root, lambda.Root())
	assert.Len(t, lambda.Ancestors(), 3)
	assert.Nil(t, tree.Get(NoScope))
	assert.Equal(t, 4, tree.Len())
}

func TestScope_Undefine(t *testing.T) {
	t.Parallel()
	tree := NewScopeTree()
	root := tree.NewRoot(ScopeFile, span(0, 1))
	a, b := fun("f"), fun("f")
	root.Define(a)
	root.Define(b)

	assert.True(t, root.Undefine(a))
	assert.False(t, root.Undefine(a))
	assert.Equal(t, []Symbol{b}, root.ResolveLocal("f"))
	assert.Equal(t, []Symbol{b}, root.Symbols())
}
