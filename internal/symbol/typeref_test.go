package symbol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTypeReference_Render(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in   string
		want string
	}{
		{"Int", "Int"},
		{"String?", "String?"},
		{"List<Int>", "List<Int>"},
		{"Map<String, List<Int?>>", "Map<String, List<Int?>>"},
		{"Array<out Number>", "Array<out Number>"},
		{"Comparable<in T>", "Comparable<in T>"},
		{"List<*>", "List<*>"},
		{"kotlin.collections.List<String>", "kotlin.collections.List<String>"},
		{"(Int) -> String", "(Int) -> String"},
		{"() -> Unit", "() -> Unit"},
		{"(Int, String) -> Boolean", "(Int, String) -> Boolean"},
		{"String.(Int) -> Unit", "String.(Int) -> Unit"},
		{"((Int) -> Unit)?", "((Int) -> Unit)?"},
		{"suspend () -> Unit", "suspend () -> Unit"},
		{"(name: String) -> Int", "(String) -> Int"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			ref := ParseTypeReference(tt.in)
			require.NotNil(t, ref)
			assert.Equal(t, tt.want, ref.Render())
		})
	}
}

func TestParseTypeReference_FunctionReturn(t *testing.T) {
	t.Parallel()
	ref := ParseTypeReference("(Int) -> String")
	require.True(t, ref.IsFunction())
	require.Len(t, ref.Function.Parameters, 1)
	assert.Equal(t, "String", ref.Function.Return.Name)

	nullable := ParseTypeReference("((Int) -> Unit)?")
	require.True(t, nullable.IsFunction())
	assert.True(t, nullable.Nullable)
	assert.Equal(t, "Unit", nullable.Function.Return.Name)

	curried := ParseTypeReference("(T) -> (R) -> Boolean")
	require.True(t, curried.IsFunction())
	require.True(t, curried.Function.Return.IsFunction())
	assert.Equal(t, "Boolean", curried.Function.Return.Function.Return.Name)
	assert.Equal(t, "(T) -> (R) -> Boolean", curried.Render())
}

func TestTypeRefFromNode_FunctionTypes(t *testing.T) {
	t.Parallel()
	table := buildSource(t, `val a: ((Int) -> Unit)? = null
val b: String.(Int) -> Boolean = { true }
fun c(block: suspend () -> String) {}
`)
	props := table.TopLevelProperties()
	require.Len(t, props, 2)
	assert.Equal(t, "((Int) -> Unit)?", props[0].Type.Render())
	assert.Equal(t, "String.(Int) -> Boolean", props[1].Type.Render())

	fns := table.TopLevelFunctions()
	require.Len(t, fns, 1)
	require.Len(t, fns[0].Parameters, 1)
	assert.Equal(t, "suspend () -> String", fns[0].Parameters[0].Type.Render())
}

func TestParseTypeReference_Empty(t *testing.T) {
	t.Parallel()
	assert.Nil(t, ParseTypeReference(""))
	assert.Nil(t, ParseTypeReference("   "))
}

func TestTypeReference_FunctionShape(t *testing.T) {
	t.Parallel()
	ref := ParseTypeReference("String.(Int, Long) -> Boolean")
	require.NotNil(t, ref)
	require.True(t, ref.IsFunction())
	assert.Equal(t, "String", ref.Function.Receiver.Name)
	require.Len(t, ref.Function.Parameters, 2)
	assert.Equal(t, "Long", ref.Function.Parameters[1].Name)
	assert.Equal(t, "Boolean", ref.Function.Return.Name)
}

func TestTypeReference_SimpleNameAndNullable(t *testing.T) {
	t.Parallel()
	ref := NewTypeRef("kotlin.String")
	assert.Equal(t, "String", ref.SimpleName())

	n := ref.WithNullable(true)
	assert.True(t, n.Nullable)
	assert.False(t, ref.Nullable, "WithNullable must not mutate the receiver")

	var nilRef *TypeReference
	assert.Equal(t, "", nilRef.SimpleName())
	assert.Equal(t, "", nilRef.Render())
}

func TestVarargArrayType(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "IntArray", VarargArrayType(NewTypeRef("Int")).Render())
	assert.Equal(t, "CharArray", VarargArrayType(NewTypeRef("kotlin.Char")).Render())
	assert.Equal(t, "Array<String>", VarargArrayType(NewTypeRef("String")).Render())
	assert.Equal(t, "Array<Int?>", VarargArrayType(NewTypeRef("Int").WithNullable(true)).Render())
	assert.Equal(t, "Array<Any?>", VarargArrayType(nil).Render())
}

func TestModifiers_Parse(t *testing.T) {
	t.Parallel()
	m := ParseModifiers("private", "abstract", "suspend", "@Deprecated(\"x\")", "@kotlin.jvm.JvmStatic")
	assert.True(t, m.IsPrivate())
	assert.True(t, m.IsAbstract())
	assert.True(t, m.Has(FlagSuspend))
	assert.False(t, m.Has(FlagInline))
	assert.True(t, m.HasAnnotation("Deprecated"))
	assert.True(t, m.HasAnnotation("JvmStatic"))
	assert.Equal(t, []string{"abstract", "private", "suspend"}, m.Keywords())
}

func TestFunction_IDAndSignature(t *testing.T) {
	t.Parallel()
	fn := &Function{
		Declaration: Declaration{Name: "format"},
		Parameters: []*Parameter{
			{Declaration: Declaration{Name: "pattern"}, Type: NewTypeRef("String")},
			{Declaration: Declaration{Name: "args"}, Type: NewTypeRef("Any").WithNullable(true), IsVararg: true},
			{Declaration: Declaration{Name: "loose"}},
		},
		ReturnType:   NewTypeRef("String"),
		ReceiverType: NewTypeRef("Locale"),
	}
	assert.Equal(t, "format(String,Any...,_)", fn.ID())
	assert.Equal(t, "fun Locale.format(pattern: String, vararg args: Any?, loose): String", fn.Signature())
	assert.Equal(t, 2, fn.RequiredParameterCount())
	assert.True(t, fn.IsExtension())
}
