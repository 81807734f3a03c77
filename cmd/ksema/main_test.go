package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/ksema/internal/scipexport"
)

const (
	goodSource = `package demo

class Box {
    fun open(): String = "o"
}

fun helper(): Int = 1
`
	badSource = `package demo

fun main() {
    val x = 1
    x = 2
}
`
)

// execute runs the CLI in-process and returns stdout, stderr and the error
// Execute returned.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	root := newRootCmd()
	var out, errb bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errb)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), errb.String(), err
}

func writeProject(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, src := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(src), 0o644))
	}
	return dir
}

func decode[T any](t *testing.T, out string) (CLIResult, T) {
	t.Helper()
	var env struct {
		Command string          `json:"command"`
		Results json.RawMessage `json:"results"`
		Error   string          `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &env), "output: %s", out)
	var results T
	if len(env.Results) > 0 && string(env.Results) != "null" {
		require.NoError(t, json.Unmarshal(env.Results, &results))
	}
	return CLIResult{Command: env.Command, Error: env.Error}, results
}

func TestFindRepoRoot_DirectGitDir(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, ".git"), 0o755))

	assert.Equal(t, root, findRepoRoot(root))
}

func TestFindRepoRoot_NestedSubdirectory(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, ".git"), 0o755))
	nested := filepath.Join(root, "sub", "deep")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	assert.Equal(t, root, findRepoRoot(nested))
}

func TestFindRepoRoot_NoGitAncestor(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	assert.Equal(t, dir, findRepoRoot(dir))
}

func TestCheck_JSON(t *testing.T) {
	dir := writeProject(t, map[string]string{
		"src/Box.kt":  goodSource,
		"src/Main.kt": "package demo\n\nfun main() {\n    val b = Box()\n    val n = helper()\n}\n",
	})

	out, _, err := execute(t, "check", "--format", "json", dir)
	require.NoError(t, err)

	env, reports := decode[[]CLIFileReport](t, out)
	assert.Equal(t, "check", env.Command)
	assert.Empty(t, env.Error)
	require.Len(t, reports, 2)
	for _, r := range reports {
		assert.Zero(t, r.Errors, "diagnostics in %s: %+v", r.File, r.Diagnostics)
		assert.NotEmpty(t, r.AnalysisID)
	}
	assert.Equal(t, filepath.Join(dir, "src", "Box.kt"), reports[0].File)
}

func TestCheck_ErrorsFailTheRun(t *testing.T) {
	dir := writeProject(t, map[string]string{"Bad.kt": badSource})

	out, _, err := execute(t, "check", "--format", "json", filepath.Join(dir, "Bad.kt"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, errReported))

	_, reports := decode[[]CLIFileReport](t, out)
	require.Len(t, reports, 1)
	assert.Equal(t, 1, reports[0].Errors)
	d := reports[0].Diagnostics[0]
	assert.Equal(t, "VAL_REASSIGNMENT", d.Code)
	assert.Equal(t, "error", d.Severity)
	assert.Equal(t, 5, d.Line)
	assert.Equal(t, 5, d.Col)
}

func TestCheck_Text(t *testing.T) {
	dir := writeProject(t, map[string]string{"Bad.kt": badSource})

	out, _, err := execute(t, "check", "--format", "text", dir)
	require.ErrorIs(t, err, errReported)

	assert.Contains(t, out, "Bad.kt:5:5: error:")
	assert.Contains(t, out, "[VAL_REASSIGNMENT]")
	assert.Contains(t, out, "1 file(s) checked: 1 error(s), 0 warning(s)")
}

func TestCheck_NotKotlin(t *testing.T) {
	dir := writeProject(t, map[string]string{"notes.txt": "hello"})

	out, _, err := execute(t, "check", "--format", "json", filepath.Join(dir, "notes.txt"))
	require.ErrorIs(t, err, errReported)

	env, _ := decode[[]CLIFileReport](t, out)
	assert.Contains(t, env.Error, "not a Kotlin file")
}

func TestOutline(t *testing.T) {
	dir := writeProject(t, map[string]string{"Box.kt": goodSource})

	out, _, err := execute(t, "outline", "--format", "json", filepath.Join(dir, "Box.kt"))
	require.NoError(t, err)

	env, outline := decode[CLIOutline](t, out)
	assert.Equal(t, "outline", env.Command)
	require.Len(t, outline.Symbols, 2)
	assert.Equal(t, "Box", outline.Symbols[0].Name)
	require.Len(t, outline.Symbols[0].Children, 1)
	assert.Equal(t, "open", outline.Symbols[0].Children[0].Name)
	assert.Equal(t, "helper", outline.Symbols[1].Name)
}

func TestOutline_Text(t *testing.T) {
	dir := writeProject(t, map[string]string{"Box.kt": goodSource})

	out, _, err := execute(t, "outline", "--format", "text", filepath.Join(dir, "Box.kt"))
	require.NoError(t, err)

	assert.Contains(t, out, "NAME")
	assert.Contains(t, out, "  open")
}

func TestIndex_CreatesDefaultDatabase(t *testing.T) {
	dir := writeProject(t, map[string]string{
		"a/Box.kt":        goodSource,
		"build/Gen.kt":    goodSource,
		".hidden/Skip.kt": goodSource,
	})

	out, stderr, err := execute(t, "index", "--format", "json", dir)
	require.NoError(t, err)

	assert.FileExists(t, filepath.Join(dir, ".ksema", "index.db"))
	assert.Contains(t, stderr, "Indexed")
	_, summary := decode[CLIIndexSummary](t, out)
	assert.Equal(t, []string{filepath.Join(dir, "a", "Box.kt")}, summary.Files)
}

func TestIndex_Force(t *testing.T) {
	dir := writeProject(t, map[string]string{"Box.kt": goodSource})
	db := filepath.Join(t.TempDir(), "custom.db")

	_, _, err := execute(t, "index", "--db", db, dir)
	require.NoError(t, err)
	require.FileExists(t, db)

	out, _, err := execute(t, "index", "--db", db, "--force", "--format", "json", dir)
	require.NoError(t, err)
	_, summary := decode[CLIIndexSummary](t, out)
	assert.Equal(t, db, summary.Database)
	assert.Len(t, summary.Files, 1)
}

func TestIndex_MissingDirectory(t *testing.T) {
	_, stderr, err := execute(t, "index", "--format", "text", filepath.Join(t.TempDir(), "nope"))
	require.ErrorIs(t, err, errReported)
	assert.Contains(t, stderr, "directory not found")
}

func TestExport(t *testing.T) {
	dir := writeProject(t, map[string]string{
		"Box.kt": goodSource,
		"Bad.kt": badSource,
	})
	dest := filepath.Join(t.TempDir(), "out.scip")

	out, _, err := execute(t, "export", "--format", "json", "-o", dest, dir)
	require.NoError(t, err)
	_, summary := decode[CLIIndexSummary](t, out)
	assert.Equal(t, dest, summary.Output)

	f, err := os.Open(dest)
	require.NoError(t, err)
	defer f.Close()
	idx, err := scipexport.Read(f)
	require.NoError(t, err)

	require.Len(t, idx.Documents, 2)
	assert.Equal(t, "Bad.kt", idx.Documents[0].RelativePath)
	assert.Equal(t, "Box.kt", idx.Documents[1].RelativePath)
	assert.NotEmpty(t, idx.Documents[1].Symbols)
}

func TestInvalidFormat(t *testing.T) {
	_, _, err := execute(t, "check", "--format", "xml", t.TempDir())
	require.Error(t, err)
	assert.False(t, errors.Is(err, errReported))
}
