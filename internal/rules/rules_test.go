package rules

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/ksema/internal/diagnostic"
	"github.com/jward/ksema/internal/slogutil"
	"github.com/jward/ksema/internal/symbol"
	"github.com/jward/ksema/internal/syntax"
)

const kotlinSource = `package demo.util

import kotlin.collections.List

class Greeter {
    fun greet(name: String): String = "Hello " + name
    private val prefix = ">"
}

fun helper() = 1
`

func input(t *testing.T, src string) Input {
	t.Helper()
	tree, err := syntax.ParseString(context.Background(), src)
	require.NoError(t, err)
	t.Cleanup(tree.Close)
	return Input{
		FilePath: "Demo.kt",
		Source:   []byte(src),
		Table:    symbol.Build(tree, "Demo.kt"),
	}
}

func run(t *testing.T, name, script string, in Input) ([]diagnostic.Diagnostic, error) {
	t.Helper()
	e := New(nil, []Script{{Name: name, Source: script}}, WithLogger(slogutil.Discard()))
	return e.Run(context.Background(), in)
}

func TestRun_Report(t *testing.T) {
	t.Parallel()

	diags, err := run(t, "no_helpers", `
report({"code": "R1", "message": "top-level helper", "severity": "error", "line": 9, "col": 4, "end_line": 9, "end_col": 10})
`, input(t, kotlinSource))
	require.NoError(t, err)
	require.Len(t, diags, 1)

	d := diags[0]
	assert.Equal(t, diagnostic.RuleViolation, d.Code)
	assert.Equal(t, "top-level helper", d.Message)
	assert.Equal(t, diagnostic.SeverityError, d.Severity)
	assert.Equal(t, "Demo.kt", d.FilePath)
	assert.Equal(t, syntax.Position{Line: 9, Column: 4}, d.Range.Start)
	assert.Equal(t, syntax.Position{Line: 9, Column: 10}, d.Range.End)
	require.Len(t, d.Related, 1)
	assert.Equal(t, "rule no_helpers: R1", d.Related[0].Message)
}

func TestRun_ReportDefaults(t *testing.T) {
	t.Parallel()

	diags, err := run(t, "defaults", `report({"message": "m", "line": 2, "col": 3})`, input(t, kotlinSource))
	require.NoError(t, err)
	require.Len(t, diags, 1)
	assert.Equal(t, diagnostic.SeverityWarning, diags[0].Severity)
	assert.Equal(t, diags[0].Range.Start, diags[0].Range.End)
	assert.Equal(t, "rule defaults", diags[0].Related[0].Message)
}

func TestRun_SymbolsGlobal(t *testing.T) {
	t.Parallel()

	script := `
for _, s := range symbols {
	if s["kind"] == "function" && s["container"] == "" {
		report({"message": "top-level function " + s["name"], "line": s["line"], "col": s["col"]})
	}
	if s["visibility"] == "private" {
		report({"message": "private " + s["qualified_name"] + " in " + s["container"], "line": s["line"], "col": s["col"]})
	}
}
assert(package_name == "demo.util", "package " + package_name)
assert(file_path == "Demo.kt", "file " + file_path)
`
	diags, err := run(t, "symbols", script, input(t, kotlinSource))
	require.NoError(t, err)

	var msgs []string
	for _, d := range diags {
		msgs = append(msgs, d.Message)
	}
	assert.Contains(t, msgs, "top-level function helper")
	assert.Contains(t, msgs, "private demo.util.Greeter.prefix in Greeter")
	for _, d := range diags {
		if d.Message == "top-level function helper" {
			assert.Equal(t, syntax.Position{Line: 9, Column: 4}, d.Range.Start)
		}
	}
}

func TestRun_ImportsAndDiagnosticsGlobals(t *testing.T) {
	t.Parallel()

	in := input(t, kotlinSource)
	in.Diagnostics = []diagnostic.Diagnostic{
		diagnostic.New(diagnostic.UnresolvedReference, syntax.Range{}, "Demo.kt", "x"),
	}
	script := `
assert(len(imports) == 1, "imports")
assert(imports[0]["fq_name"] == "kotlin.collections.List", imports[0]["fq_name"])
assert(imports[0]["name"] == "List", imports[0]["name"])
assert(len(diagnostics) == 1, "diagnostics")
assert(diagnostics[0]["code"] == "UNRESOLVED_REFERENCE", diagnostics[0]["code"])
`
	_, err := run(t, "globals", script, in)
	require.NoError(t, err)
}

func TestRun_NodeText(t *testing.T) {
	t.Parallel()

	script := `
for _, s := range symbols {
	if s["name"] == "Greeter" {
		report({"message": node_text(s["line"], s["col"], s["end_line"], s["end_col"]), "line": s["line"], "col": s["col"]})
	}
}
report({"message": node_text(0, 0, 0, 7), "line": 0, "col": 0})
report({"message": "[" + node_text(100, 0, 200, 0) + "]", "line": 0, "col": 0})
`
	diags, err := run(t, "text", script, input(t, kotlinSource))
	require.NoError(t, err)
	require.Len(t, diags, 3)
	assert.Equal(t, "Greeter", diags[0].Message)
	assert.Equal(t, "package", diags[1].Message)
	assert.Equal(t, "[]", diags[2].Message)
}

func TestRun_Log(t *testing.T) {
	t.Parallel()

	_, err := run(t, "logging", `
log.info("checking " + file_path)
log.warn("careful")
log.error("bad")
`, input(t, kotlinSource))
	require.NoError(t, err)
}

func TestRun_ScriptErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		script string
	}{
		{"undefined", `x := not_defined + 1`},
		{"missing_message", `report({"line": 1, "col": 1})`},
		{"not_a_map", `report("oops")`},
		{"bad_range", `report({"message": "m", "line": 4, "col": 0, "end_line": 2, "end_col": 0})`},
		{"node_text_args", `node_text(1, 2)`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := run(t, tt.name, tt.script, input(t, kotlinSource))
			require.Error(t, err)
			assert.Contains(t, err.Error(), "rules: script "+tt.name)
		})
	}
}

func TestRun_KeepsDiagnosticsBeforeFailure(t *testing.T) {
	t.Parallel()

	e := New(nil, []Script{
		{Name: "a", Source: `report({"message": "first", "line": 0, "col": 0})`},
		{Name: "b", Source: `report({"message": "second", "line": 0, "col": 0})
fail_here()`},
		{Name: "c", Source: `report({"message": "never", "line": 0, "col": 0})`},
	}, WithLogger(slogutil.Discard()))

	diags, err := e.Run(context.Background(), input(t, kotlinSource))
	require.Error(t, err)
	require.Len(t, diags, 2)
	assert.Equal(t, "first", diags[0].Message)
	assert.Equal(t, "second", diags[1].Message)
}

func TestRun_NilEngine(t *testing.T) {
	t.Parallel()

	var e *Engine
	diags, err := e.Run(context.Background(), Input{})
	require.NoError(t, err)
	assert.Empty(t, diags)
	assert.Zero(t, e.Len())
}

func TestLoadFS(t *testing.T) {
	t.Parallel()

	fsys := fstest.MapFS{
		"b_rule.risor": &fstest.MapFile{Data: []byte(`import _helpers
report({"message": _helpers.label("b", file_path), "line": 0, "col": 0})
`)},
		"a_rule.risor": &fstest.MapFile{Data: []byte(`x := 1`)},
		"_helpers.risor": &fstest.MapFile{Data: []byte(`
func label(name, file) {
	return "rule " + name + " in " + file
}
`)},
		"README.md":      &fstest.MapFile{Data: []byte("docs")},
		"nested/c.risor": &fstest.MapFile{Data: []byte(`x := 2`)},
	}

	e, err := LoadFS(fsys, WithLogger(slogutil.Discard()))
	require.NoError(t, err)
	require.Equal(t, 2, e.Len())
	assert.Equal(t, "a_rule", e.Scripts()[0].Name)
	assert.Equal(t, "b_rule", e.Scripts()[1].Name)

	diags, err := e.Run(context.Background(), input(t, kotlinSource))
	require.NoError(t, err)
	require.Len(t, diags, 1)
	assert.Equal(t, "rule b in Demo.kt", diags[0].Message)
}

func TestLoad_Dir(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "one.risor"), []byte(`x := 1`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte(`ignored`), 0o644))

	e, err := Load(dir)
	require.NoError(t, err)
	require.Equal(t, 1, e.Len())
	assert.Equal(t, "one", e.Scripts()[0].Name)
}

func TestLoad_Errors(t *testing.T) {
	t.Parallel()

	_, err := Load(filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rules: load")

	file := filepath.Join(t.TempDir(), "file.risor")
	require.NoError(t, os.WriteFile(file, []byte(`x := 1`), 0o644))
	_, err = Load(file)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a directory")
}

func TestOffset(t *testing.T) {
	t.Parallel()

	src := []byte("ab\ncde\n")
	lines := lineStarts(src)
	assert.Equal(t, []int{0, 3, 7}, lines)

	assert.Equal(t, 0, offset(lines, len(src), -1, 5))
	assert.Equal(t, 4, offset(lines, len(src), 1, 1))
	assert.Equal(t, 7, offset(lines, len(src), 1, 99))
	assert.Equal(t, len(src), offset(lines, len(src), 9, 0))
}
