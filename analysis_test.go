package ksema

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-test/deep"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/ksema/internal/diagnostic"
	"github.com/jward/ksema/internal/symbol"
)

const greeterSource = `package demo

class Greeter {
    val prefix = "Hi"
    fun greet(): String = "Hi"
}

fun main() {
    val g = Greeter()
    val h = g
}
`

func codes(ds []diagnostic.Diagnostic) []diagnostic.Code {
	out := make([]diagnostic.Code, 0, len(ds))
	for _, d := range ds {
		out = append(out, d.Code)
	}
	return out
}

func TestAnalyzeSource(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t)
	a, err := e.AnalyzeSource(context.Background(), "Greeter.kt", []byte(greeterSource))
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, a.ID)
	assert.Equal(t, "Greeter.kt", a.FilePath())
	assert.Empty(t, a.Diagnostics())
	assert.False(t, a.HasErrors())
	assert.Equal(t, "Greeter.kt", a.Table().FilePath)

	var names []string
	for _, sym := range a.Symbols() {
		assert.False(t, symbol.IsSynthetic(sym))
		names = append(names, sym.Decl().Name)
	}
	assert.Subset(t, names, []string{"Greeter", "prefix", "greet", "main", "g", "h"})
}

func TestAnalyzeSource_Diagnostics(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t)
	src := "fun main() {\n    val x = 1\n    x = 2\n    println(undeclaredName)\n}\n"
	a, err := e.AnalyzeSource(context.Background(), "Bad.kt", []byte(src))
	require.NoError(t, err)

	got := codes(a.Diagnostics())
	assert.Contains(t, got, diagnostic.ValReassignment)
	assert.Contains(t, got, diagnostic.UnresolvedReference)
	assert.True(t, a.HasErrors())
	for _, d := range a.Diagnostics() {
		assert.Equal(t, "Bad.kt", d.FilePath)
	}
}

func TestAnalyzeSource_CanceledContext(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := e.AnalyzeSource(ctx, "A.kt", []byte("fun a() = 1\n"))
	require.ErrorIs(t, err, context.Canceled)
	assert.Contains(t, err.Error(), "ksema: analyze A.kt")
}

type outlineShape struct {
	Name     string
	Kind     symbol.OutlineKind
	Children []outlineShape
}

func shapeOf(items []symbol.OutlineSymbol) []outlineShape {
	var out []outlineShape
	for _, it := range items {
		out = append(out, outlineShape{Name: it.Name, Kind: it.Kind, Children: shapeOf(it.Children)})
	}
	return out
}

func TestAnalysis_Outline(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t)
	a, err := e.AnalyzeSource(context.Background(), "Greeter.kt", []byte(greeterSource))
	require.NoError(t, err)

	want := []outlineShape{
		{Name: "Greeter", Kind: symbol.OutlineClass, Children: []outlineShape{
			{Name: "prefix", Kind: symbol.OutlineField},
			{Name: "greet", Kind: symbol.OutlineMethod},
		}},
		{Name: "main", Kind: symbol.OutlineFunction},
	}
	if diff := deep.Equal(shapeOf(a.Outline()), want); diff != nil {
		t.Error(diff)
	}
}

func TestAnalysis_DefinitionAndReferences(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t)
	a, err := e.AnalyzeSource(context.Background(), "Greeter.kt", []byte(greeterSource))
	require.NoError(t, err)

	// `g` in "val h = g" resolves to the local declared on the line above.
	defs, err := a.DefinitionAt(9, 12)
	require.NoError(t, err)
	require.Len(t, defs, 1)
	assert.Equal(t, Location{File: "Greeter.kt", StartLine: 8, StartCol: 8, EndLine: 8, EndCol: 9}, defs[0])

	refs := a.ReferencesAt(8, 8)
	require.Len(t, refs, 1)
	assert.Equal(t, 9, refs[0].StartLine)
	assert.Equal(t, 12, refs[0].StartCol)
	assert.Equal(t, refs, a.ReferencesAt(9, 12), "querying the use finds the same references")

	nothing, err := a.DefinitionAt(1, 0)
	require.NoError(t, err)
	assert.Nil(t, nothing)
	assert.Nil(t, a.ReferencesAt(40, 0))
}

func TestAnalysis_TypeAt(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t)
	a, err := e.AnalyzeSource(context.Background(), "Greeter.kt", []byte(greeterSource))
	require.NoError(t, err)

	// The string literal in `val prefix = "Hi"`.
	typ, ok := a.TypeAt(3, 18)
	require.True(t, ok)
	assert.Equal(t, "String", typ.String())

	_, ok = a.TypeAt(100, 0)
	assert.False(t, ok)
	_, ok = a.TypeAt(0, -1)
	assert.False(t, ok)
}

func TestAnalyzeFile_ResolvesAgainstIndexedFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	util := writeFile(t, dir, "Util.kt", utilSource)
	mainPath := writeFile(t, dir, "Main.kt", `package demo

fun main() {
    val x = helper()
    val s: String = Box().open()
}
`)
	e := newTestEngine(t)
	ctx := context.Background()

	before, err := e.AnalyzeFile(ctx, mainPath)
	require.NoError(t, err)
	assert.Contains(t, codes(before.Diagnostics()), diagnostic.UnresolvedReference)

	require.NoError(t, e.IndexFiles(ctx, []string{util, mainPath}))
	after, err := e.AnalyzeFile(ctx, mainPath)
	require.NoError(t, err)
	assert.NotContains(t, codes(after.Diagnostics()), diagnostic.UnresolvedReference)

	defs, err := after.DefinitionAt(3, 12)
	require.NoError(t, err)
	require.Len(t, defs, 1)
	assert.Equal(t, util, defs[0].File)
	assert.Equal(t, 2, defs[0].StartLine)
}

func TestAnalyzeFile_Missing(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t)
	_, err := e.AnalyzeFile(context.Background(), filepath.Join(t.TempDir(), "Nope.kt"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestAnalyzeFiles(t *testing.T) {
	t.Parallel()

	for _, parallel := range []bool{true, false} {
		dir := t.TempDir()
		e := newTestEngine(t, WithParallel(parallel))
		paths := []string{
			writeFile(t, dir, "A.kt", "fun a() = 1\n"),
			filepath.Join(dir, "Missing.kt"),
			writeFile(t, dir, "B.kt", "fun b() {\n    val x = 1\n    x = 2\n}\n"),
		}

		got, err := e.AnalyzeFiles(context.Background(), paths)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "analysis had 1 error(s)")
		require.Len(t, got, 2)
		assert.Equal(t, paths[0], got[0].Path)
		assert.Equal(t, paths[2], got[1].Path)
		assert.NotEqual(t, got[0].ID, got[1].ID)
		assert.Empty(t, got[0].Diagnostics())
		assert.Contains(t, codes(got[1].Diagnostics()), diagnostic.ValReassignment)
	}
}

func TestAnalyzeSource_Rules(t *testing.T) {
	t.Parallel()

	rulesDir := t.TempDir()
	writeFile(t, rulesDir, "no_main.risor", `
for _, s := range symbols {
	if s["kind"] == "function" && s["name"] == "main" {
		report({"code": "NO_MAIN", "message": "entry point in library", "severity": "info", "line": s["line"], "col": s["col"]})
	}
}
`)
	e := newTestEngine(t, WithRules(rulesDir))
	a, err := e.AnalyzeSource(context.Background(), "Greeter.kt", []byte(greeterSource))
	require.NoError(t, err)

	diags := a.Diagnostics()
	require.Len(t, diags, 1)
	assert.Equal(t, diagnostic.RuleViolation, diags[0].Code)
	assert.Equal(t, diagnostic.SeverityInfo, diags[0].Severity)
	assert.Equal(t, "entry point in library", diags[0].Message)
	assert.Equal(t, 7, diags[0].Range.Start.Line)
	require.Len(t, diags[0].Related, 1)
	assert.Equal(t, "rule no_main: NO_MAIN", diags[0].Related[0].Message)
}

func TestAnalyzeSource_RuleError(t *testing.T) {
	t.Parallel()

	rulesDir := t.TempDir()
	writeFile(t, rulesDir, "broken.risor", `x := not_defined + 1`)
	e := newTestEngine(t, WithRules(rulesDir))

	_, err := e.AnalyzeSource(context.Background(), "Greeter.kt", []byte(greeterSource))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ksema: analyze Greeter.kt")
	assert.Contains(t, err.Error(), "rules: script broken")
}
