package semantic

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/ksema/internal/diagnostic"
	"github.com/jward/ksema/internal/symbol"
	"github.com/jward/ksema/internal/syntax"
	"github.com/jward/ksema/internal/types"
)

func parse(t *testing.T, src string) (*syntax.Tree, *symbol.Table) {
	t.Helper()
	tree, err := syntax.ParseString(context.Background(), src)
	require.NoError(t, err)
	t.Cleanup(tree.Close)
	return tree, symbol.Build(tree, "Test.kt")
}

func analyzeSource(t *testing.T, src string) *Result {
	t.Helper()
	tree, table := parse(t, src)
	res := AnalyzeFile(tree, table)
	require.NoError(t, res.Err)
	return res
}

func codesOf(ds []diagnostic.Diagnostic) []diagnostic.Code {
	out := make([]diagnostic.Code, 0, len(ds))
	for _, d := range ds {
		out = append(out, d.Code)
	}
	return out
}

func TestAnalyze_Diagnostics(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		src  string
		want diagnostic.Code
	}{
		{
			name: "unresolved reference",
			src:  "fun main() {\n    println(undeclaredName)\n}\n",
			want: diagnostic.UnresolvedReference,
		},
		{
			name: "val reassignment",
			src:  "fun main() {\n    val x = 1\n    x = 2\n}\n",
			want: diagnostic.ValReassignment,
		},
		{
			name: "assignment type mismatch",
			src:  "fun main() {\n    var x = 1\n    x = \"a\"\n}\n",
			want: diagnostic.TypeMismatch,
		},
		{
			name: "initializer type mismatch",
			src:  "val s: String = 1\n",
			want: diagnostic.TypeMismatch,
		},
		{
			name: "self reference in initializer",
			src:  "fun main() {\n    val x = x + 1\n}\n",
			want: diagnostic.UninitializedVariable,
		},
		{
			name: "if condition not boolean",
			src:  "fun main() {\n    if (1) {\n        println()\n    }\n}\n",
			want: diagnostic.ConditionTypeMismatch,
		},
		{
			name: "while condition not boolean",
			src:  "fun main() {\n    while (\"s\") {\n    }\n}\n",
			want: diagnostic.ConditionTypeMismatch,
		},
		{
			name: "unsafe call on nullable",
			src:  "fun len(s: String?): Int = s.length\n",
			want: diagnostic.UnsafeCall,
		},
		{
			name: "return type mismatch",
			src:  "fun f(): Int = \"text\"\n",
			want: diagnostic.ReturnTypeMismatch,
		},
		{
			name: "unresolved import",
			src:  "import com.missing.Thing\n\nfun main() {}\n",
			want: diagnostic.UnresolvedReference,
		},
		{
			name: "unresolved parameter type",
			src:  "fun f(x: Missing) {}\n",
			want: diagnostic.UnresolvedType,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			res := analyzeSource(t, tt.src)
			assert.Len(t, res.ByCode(tt.want), 1, "diagnostics: %v", res.Diagnostics)
		})
	}
}

// findNode returns the first node of the given kind spelling text.
func findNode(t *testing.T, root *syntax.Node, kind, text string) *syntax.Node {
	t.Helper()
	var found *syntax.Node
	root.Walk(func(n *syntax.Node) bool {
		if found == nil && n.Kind() == kind && n.Text() == text {
			found = n
		}
		return found == nil
	})
	require.NotNil(t, found, "no %s %q", kind, text)
	return found
}

func TestAnalyze_UnresolvedReferenceDetails(t *testing.T) {
	t.Parallel()
	tree, table := parse(t, "fun main() {\n    println(undeclaredName)\n}\n")
	res := AnalyzeFile(tree, table)
	require.NoError(t, res.Err)

	require.Len(t, res.Errors(), 1, "diagnostics: %v", res.Diagnostics)
	ds := res.ByCode(diagnostic.UnresolvedReference)
	require.Len(t, ds, 1)
	assert.Equal(t, "Unresolved reference: undeclaredName", ds[0].Message)

	ref := findNode(t, tree.Root(), syntax.KindSimpleIdentifier, "undeclaredName")
	assert.Equal(t, ref.Range(), ds[0].Range)
	typ, ok := res.TypeOf(ref)
	require.True(t, ok)
	assert.True(t, types.IsError(typ), "got %s", typ)
}

func TestAnalyze_ValReassignmentDetails(t *testing.T) {
	t.Parallel()
	tree, table := parse(t, "fun main() {\n    val x = 1\n    x = 2\n}\n")
	res := AnalyzeFile(tree, table)
	require.NoError(t, res.Err)

	require.Len(t, res.Errors(), 1, "diagnostics: %v", res.Diagnostics)
	ds := res.ByCode(diagnostic.ValReassignment)
	require.Len(t, ds, 1)
	lhs := tree.Root().FindDescendant(syntax.KindDirectlyAssignable)
	require.NotNil(t, lhs)
	assert.Equal(t, lhs.Range(), ds[0].Range)
	assert.Equal(t, 2, ds[0].Range.Start.Line)
	assert.Equal(t, 4, ds[0].Range.Start.Column)
}

func TestAnalyze_VarReassignmentOutsideBody(t *testing.T) {
	t.Parallel()
	res := analyzeSource(t, `var top = 1
var counter = 0

class Counter {
    var count = 0
    fun bump() {
        count = count + 1
        top = 2
    }
}

fun reset() {
    top = 0
}

fun f() = listOf(1).forEach { counter = 2 }
`)
	assert.Empty(t, res.ByCode(diagnostic.ValReassignment))
	assert.Empty(t, res.Errors(), "diagnostics: %v", res.Diagnostics)
}

func TestAnalyze_CleanSources(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		src  string
	}{
		{
			name: "var reassignment",
			src:  "fun main() {\n    var x = 1\n    x = 2\n}\n",
		},
		{
			name: "safe call",
			src:  "fun len(s: String?): Int? = s?.length\n",
		},
		{
			name: "smart cast after null check",
			src: `fun len(s: String?): Int {
    if (s != null) {
        return s.length
    }
    return 0
}
`,
		},
		{
			name: "smart cast after early return",
			src: `fun len(s: String?): Int {
    if (s == null) return 0
    return s.length
}
`,
		},
		{
			name: "known imports",
			src:  "import kotlin.collections.List\nimport kotlin.collections.*\n\nfun f(xs: List<Int>) {}\n",
		},
		{
			name: "for loop over range",
			src: `fun sum(): Int {
    var total = 0
    for (i in 1..10) {
        total += i
    }
    return total
}
`,
		},
		{
			name: "compound assignment on read-only list",
			src: `fun fill() {
    val xs = mutableListOf<Int>()
    xs += 1
}
`,
		},
		{
			name: "statement when need not be exhaustive",
			src: `enum class Color { RED, GREEN }

fun show(c: Color) {
    when (c) {
        Color.RED -> println("red")
    }
}
`,
		},
		{
			name: "lateinit without initializer",
			src:  "class Holder {\n    lateinit var name: String\n}\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			res := analyzeSource(t, tt.src)
			assert.Empty(t, res.Errors())
		})
	}
}

func TestAnalyze_NoTypeNoInitializer(t *testing.T) {
	t.Parallel()
	res := analyzeSource(t, "val x\n")
	ds := res.ByCode(diagnostic.NoTypeNoInitializer)
	require.Len(t, ds, 1)
	assert.Equal(t, 0, ds[0].Range.Start.Line)
	assert.Equal(t, 4, ds[0].Range.Start.Column)
}

func TestAnalyze_WhenExhaustiveness(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		src     string
		missing string
	}{
		{
			name: "enum",
			src: `enum class Color { RED, GREEN, BLUE }

fun name(c: Color): String = when (c) {
    Color.RED -> "r"
    Color.GREEN -> "g"
}
`,
			missing: "'BLUE'",
		},
		{
			name: "sealed",
			src: `sealed class Shape
class Circle : Shape()
class Square : Shape()

fun sides(s: Shape): Int = when (s) {
    is Circle -> 0
}
`,
			missing: "'Square'",
		},
		{
			name: "boolean",
			src: `fun bit(b: Boolean): Int = when (b) {
    true -> 1
}
`,
			missing: "'false'",
		},
		{
			name: "returned value",
			src: `enum class Dir { UP, DOWN }

fun flip(d: Dir): Dir {
    return when (d) {
        Dir.UP -> Dir.DOWN
    }
}
`,
			missing: "'DOWN'",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			res := analyzeSource(t, tt.src)
			ds := res.ByCode(diagnostic.MissingWhenBranch)
			require.Len(t, ds, 1)
			assert.Contains(t, ds[0].Message, tt.missing)
		})
	}
}

func TestAnalyze_WhenExhaustiveCovered(t *testing.T) {
	t.Parallel()
	sources := []string{
		`enum class Color { RED, GREEN }

fun name(c: Color): String = when (c) {
    Color.RED -> "r"
    Color.GREEN -> "g"
}
`,
		`sealed class Shape
class Circle : Shape()
class Square : Shape()

fun sides(s: Shape): Int = when (s) {
    is Circle -> 0
    is Square -> 4
}
`,
		`fun bit(b: Boolean): Int = when (b) {
    true -> 1
    false -> 0
}
`,
		`enum class Color { RED, GREEN }

fun name(c: Color): String = when (c) {
    Color.RED -> "r"
    else -> "other"
}
`,
	}
	for _, src := range sources {
		res := analyzeSource(t, src)
		assert.Empty(t, res.ByCode(diagnostic.MissingWhenBranch), src)
	}
}

func TestAnalyze_AbstractMembers(t *testing.T) {
	t.Parallel()

	res := analyzeSource(t, `interface Greeter {
    fun greet(): String
    val name: String
}

class Impl : Greeter
`)
	ds := res.ByCode(diagnostic.AbstractMemberNotImpl)
	require.Len(t, ds, 2)
	assert.Equal(t, "Class 'Impl' is not abstract and does not implement abstract member 'fun greet()'", ds[0].Message)
	assert.Equal(t, 5, ds[0].Range.Start.Line)
	assert.Equal(t, 6, ds[0].Range.Start.Column)

	res = analyzeSource(t, `abstract class Base {
    abstract val label: String
}

class Derived : Base()
`)
	ds = res.ByCode(diagnostic.AbstractClassMemberNotImpl)
	require.Len(t, ds, 1)
	assert.Contains(t, ds[0].Message, "val label")

	res = analyzeSource(t, `interface Greeter {
    fun greet(): String
    fun wave() {}
}

abstract class Partial : Greeter

class Full : Partial() {
    override fun greet(): String = "hi"
}
`)
	assert.Empty(t, res.ByCode(diagnostic.AbstractMemberNotImpl))
	assert.Empty(t, res.ByCode(diagnostic.AbstractClassMemberNotImpl))
}

func TestAnalyze_ImportStarWarning(t *testing.T) {
	t.Parallel()
	res := analyzeSource(t, "import nowhere.at.all.*\n\nfun main() {}\n")
	assert.Contains(t, codesOf(res.Warnings()), diagnostic.UnresolvedReference)
	assert.Empty(t, res.Errors())
}

func TestAnalyze_UnreachableAssignment(t *testing.T) {
	t.Parallel()
	res := analyzeSource(t, `fun f(): Int {
    var x = 0
    x = return 1
}
`)
	assert.Contains(t, codesOf(res.Warnings()), diagnostic.UnreachableCode)
}

func TestAnalyze_SyntaxErrors(t *testing.T) {
	t.Parallel()
	res := analyzeSource(t, "fun main( {\n    val x = \n}\n")
	syn := res.ByCode(diagnostic.SyntaxError)
	require.NotEmpty(t, syn)
	for _, d := range syn {
		assert.True(t, strings.HasPrefix(d.Message, "Syntax error: "), d.Message)
	}
}

func TestAnalyze_NestedBodies(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		src  string
	}{
		{"lambda", "fun main() {\n    listOf(1).forEach { println(missing1) }\n}\n"},
		{"init block", "class A {\n    init {\n        println(missing1)\n    }\n}\n"},
		{"secondary constructor", "class A {\n    constructor(x: Int) {\n        println(missing1)\n    }\n}\n"},
		{"getter", "class A {\n    val v: Int\n        get() = missing1\n}\n"},
		{"object literal", "val o = object {\n    fun f() = missing1\n}\n"},
		{"enum entry body", "enum class E {\n    A {\n        fun f() = missing1\n    }\n}\n"},
		{"companion", "class A {\n    companion object {\n        val v = missing1\n    }\n}\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			res := analyzeSource(t, tt.src)
			var found bool
			for _, d := range res.ByCode(diagnostic.UnresolvedReference) {
				found = found || strings.Contains(d.Message, "missing1")
			}
			assert.True(t, found, "diagnostics: %v", res.Diagnostics)
		})
	}
}

func TestAnalyze_OverloadSelection(t *testing.T) {
	t.Parallel()
	tree, table := parse(t, `fun f(x: Any): Any = x
fun f(x: String): String = x

val a = f("a")
val b = f(1)
`)
	ctx := NewContext(tree, table, nil, nil)
	an := NewAnalyzer(ctx)
	an.Run()

	got := make(map[string]string)
	for _, p := range table.TopLevelProperties() {
		got[p.Name] = an.Inferrer().SymbolType(p).Render(false)
	}
	assert.Equal(t, map[string]string{"a": "String", "b": "Any"}, got)
	assert.Empty(t, ctx.Collector.Errors())
}

func TestAnalyze_OverloadDeclarationOrder(t *testing.T) {
	t.Parallel()
	decls := []string{
		"fun f(x: Any): Int = 1",
		"fun f(x: CharSequence): Long = 2L",
		"fun f(x: String): String = x",
	}
	orders := [][]int{{0, 1, 2}, {0, 2, 1}, {1, 0, 2}, {1, 2, 0}, {2, 0, 1}, {2, 1, 0}}
	for _, order := range orders {
		var src strings.Builder
		for _, i := range order {
			src.WriteString(decls[i] + "\n")
		}
		src.WriteString("val picked = f(\"a\")\n")

		tree, table := parse(t, src.String())
		ctx := NewContext(tree, table, nil, nil)
		an := NewAnalyzer(ctx)
		an.Run()

		props := table.TopLevelProperties()
		require.Len(t, props, 1)
		assert.Equal(t, "String", an.Inferrer().SymbolType(props[0]).Render(false), "order %v", order)
		assert.Empty(t, ctx.Collector.Errors(), "order %v", order)
	}
}

func TestAnalyze_OverloadAmbiguity(t *testing.T) {
	t.Parallel()
	res := analyzeSource(t, `fun g(a: Int, b: Any) {}
fun g(a: Any, b: Int) {}

fun main() {
    g(1, 1)
}
`)
	ds := res.ByCode(diagnostic.OverloadAmbiguity)
	require.Len(t, ds, 1, "diagnostics: %v", res.Diagnostics)
	assert.Equal(t, 4, ds[0].Range.Start.Line)
}

func TestAnalyze_SmartCastPositions(t *testing.T) {
	t.Parallel()
	src := `fun f(s: String?) {
    if (s != null) {
        println(s)
    }
    println(s)
}
`
	tree, table := parse(t, src)
	res := AnalyzeFile(tree, table)
	require.NoError(t, res.Err)

	var param symbol.Symbol
	for _, fn := range table.TopLevelFunctions() {
		if len(fn.Parameters) == 1 {
			param = fn.Parameters[0]
		}
	}
	require.NotNil(t, param)

	sc, ok := res.SmartCastAt(param, syntax.Position{Line: 2, Column: 16})
	require.True(t, ok)
	assert.Equal(t, "String", sc.Cast.Render(false))

	_, ok = res.SmartCastAt(param, syntax.Position{Line: 4, Column: 12})
	assert.False(t, ok)
}

func TestInfer_Idempotent(t *testing.T) {
	t.Parallel()
	tree, table := parse(t, "val xs = listOf(1, 2, 3)\n")
	ctx := NewContext(tree, table, nil, nil)
	an := NewAnalyzer(ctx)

	props := table.TopLevelProperties()
	require.Len(t, props, 1)
	init := props[0].Initializer
	require.NotNil(t, init)

	first := an.Inferrer().Infer(init, table.Root(), nil)
	second := an.Inferrer().Infer(init, table.Root(), nil)
	assert.Same(t, first, second)
	assert.Equal(t, "List<Int>", first.Render(false))
}

func TestInfer_FunctionTypedParameters(t *testing.T) {
	t.Parallel()
	tree, table := parse(t, `val n = "a".let { it.length }
val strs = listOf(1).map { "s" }
val sum = listOf(1, 2).fold(0) { acc, x -> acc + x }
`)
	ctx := NewContext(tree, table, nil, nil)
	an := NewAnalyzer(ctx)
	an.Run()

	got := make(map[string]string)
	for _, p := range table.TopLevelProperties() {
		got[p.Name] = an.Inferrer().SymbolType(p).Render(false)
	}
	assert.Equal(t, map[string]string{"n": "Int", "strs": "List<String>", "sum": "Int"}, got)
	assert.Empty(t, ctx.Collector.Errors())
}

func TestContext_ChildDiagnostics(t *testing.T) {
	t.Parallel()
	tree, table := parse(t, "fun main() {}\n")
	ctx := NewContext(tree, table, nil, nil)

	child := ctx.Child()
	child.Collector.Error(diagnostic.UnresolvedReference, syntax.Range{}, "x")
	assert.Equal(t, 0, ctx.Collector.Len())

	ctx.MergeChild(child)
	assert.Equal(t, 1, ctx.Collector.Len())

	ctx.MergeChild(ctx)
	assert.Equal(t, 1, ctx.Collector.Len())
}

func TestContext_SuppressedUnderSyntaxError(t *testing.T) {
	t.Parallel()
	tree, table := parse(t, "fun main() {\n    println(missing1)\n}\n")
	ctx := NewContext(tree, table, nil, nil)
	ctx.AddSyntaxErrorRange(tree.Root().Range())

	ctx.ReportError(diagnostic.UnresolvedReference, tree.Root(), "missing1")
	ctx.ReportWarning(diagnostic.UnreachableCode, tree.Root())
	assert.Empty(t, ctx.Collector.Errors())
	assert.Len(t, ctx.Collector.Warnings(), 1)
}
