package scipexport

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sourcegraph/scip/bindings/go/scip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/proto"

	"github.com/jward/ksema/internal/diagnostic"
	"github.com/jward/ksema/internal/semantic"
	"github.com/jward/ksema/internal/symbol"
	"github.com/jward/ksema/internal/syntax"
)

const greeterSource = `package demo

class Greeter {
    fun greet(): String = "Hi"
}

fun main() {
    val g = Greeter()
    val h = g
}
`

type testSource struct {
	path  string
	table *symbol.Table
	diags []diagnostic.Diagnostic
}

func (s *testSource) FilePath() string                     { return s.path }
func (s *testSource) Table() *symbol.Table                 { return s.table }
func (s *testSource) Diagnostics() []diagnostic.Diagnostic { return s.diags }

func analyze(t *testing.T, path, src string) *testSource {
	t.Helper()
	tree, err := syntax.ParseString(context.Background(), src)
	require.NoError(t, err)
	t.Cleanup(tree.Close)
	table := symbol.Build(tree, path)
	res := semantic.AnalyzeFile(tree, table)
	require.NoError(t, res.Err)
	return &testSource{path: path, table: table, diags: res.Diagnostics}
}

func symbolInfo(doc *scip.Document, name string) *scip.SymbolInformation {
	for _, s := range doc.Symbols {
		if s.Symbol == name {
			return s
		}
	}
	return nil
}

func occurrences(doc *scip.Document, sym string, def bool) []*scip.Occurrence {
	var out []*scip.Occurrence
	for _, occ := range doc.Occurrences {
		if occ.Symbol != sym {
			continue
		}
		if isDef := occ.SymbolRoles&int32(scip.SymbolRole_Definition) != 0; isDef == def {
			out = append(out, occ)
		}
	}
	return out
}

func TestDocument_Definitions(t *testing.T) {
	t.Parallel()

	doc := Document(analyze(t, "Greeter.kt", greeterSource), "src/Greeter.kt")
	assert.Equal(t, "src/Greeter.kt", doc.RelativePath)
	assert.Equal(t, "kotlin", doc.Language)

	greeter := symbolInfo(doc, "scip-kotlin maven . . demo/Greeter#")
	require.NotNil(t, greeter)
	assert.Equal(t, scip.SymbolInformation_Class, greeter.Kind)
	assert.Equal(t, "Greeter", greeter.DisplayName)
	defs := occurrences(doc, greeter.Symbol, true)
	require.Len(t, defs, 1)
	assert.Equal(t, []int32{2, 6, 13}, defs[0].Range)

	greet := symbolInfo(doc, "scip-kotlin maven . . demo/Greeter#greet().")
	require.NotNil(t, greet)
	assert.Equal(t, scip.SymbolInformation_Method, greet.Kind)
	assert.Equal(t, greeter.Symbol, greet.EnclosingSymbol)

	mainFn := symbolInfo(doc, "scip-kotlin maven . . demo/main().")
	require.NotNil(t, mainFn)
	assert.Equal(t, scip.SymbolInformation_Function, mainFn.Kind)
}

func TestDocument_LocalsAndReferences(t *testing.T) {
	t.Parallel()

	doc := Document(analyze(t, "Greeter.kt", greeterSource), "Greeter.kt")

	var local *scip.SymbolInformation
	for _, s := range doc.Symbols {
		if s.DisplayName == "g" {
			local = s
		}
	}
	require.NotNil(t, local)
	assert.True(t, strings.HasPrefix(local.Symbol, "local "), local.Symbol)
	assert.Equal(t, scip.SymbolInformation_Variable, local.Kind)

	refs := occurrences(doc, local.Symbol, false)
	require.NotEmpty(t, refs, "read of g is a reference occurrence")
	assert.Equal(t, []int32{8, 12, 13}, refs[0].Range)
	assert.Equal(t, int32(scip.SymbolRole_ReadAccess), refs[0].SymbolRoles)

	for i := 1; i < len(doc.Occurrences); i++ {
		assert.False(t, rangeLess(doc.Occurrences[i].Range, doc.Occurrences[i-1].Range), "occurrences are sorted")
	}
}

func TestDocument_Diagnostics(t *testing.T) {
	t.Parallel()

	src := analyze(t, "Greeter.kt", greeterSource)
	src.diags = []diagnostic.Diagnostic{
		diagnostic.New(diagnostic.RuleViolation, syntax.Range{
			Start: syntax.Position{Line: 3, Column: 8},
			End:   syntax.Position{Line: 3, Column: 13},
		}, "Greeter.kt", "no greetings"),
		diagnostic.New(diagnostic.UnresolvedReference, syntax.Range{
			Start: syntax.Position{Line: 40, Column: 0},
			End:   syntax.Position{Line: 40, Column: 2},
		}, "Greeter.kt", "zz"),
	}
	doc := Document(src, "Greeter.kt")

	defs := occurrences(doc, "scip-kotlin maven . . demo/Greeter#greet().", true)
	require.Len(t, defs, 1)
	require.Len(t, defs[0].Diagnostics, 1)
	d := defs[0].Diagnostics[0]
	assert.Equal(t, "RULE_VIOLATION", d.Code)
	assert.Equal(t, "no greetings", d.Message)
	assert.Equal(t, scip.Severity_Warning, d.Severity)
	assert.Equal(t, ToolName, d.Source)

	var far int
	for _, occ := range doc.Occurrences {
		for _, d := range occ.Diagnostics {
			if d.Code == "UNRESOLVED_REFERENCE" {
				far++
				assert.Equal(t, scip.Severity_Error, d.Severity)
			}
		}
	}
	assert.Equal(t, 1, far, "diagnostics past the last occurrence attach to the closest one")
}

func TestDocument_DiagnosticsWithoutOccurrences(t *testing.T) {
	t.Parallel()

	src := analyze(t, "Empty.kt", "\n")
	src.diags = []diagnostic.Diagnostic{
		diagnostic.New(diagnostic.SyntaxError, syntax.Range{}, "Empty.kt", "x"),
	}
	doc := Document(src, "Empty.kt")
	require.Len(t, doc.Occurrences, 1)
	assert.Empty(t, doc.Occurrences[0].Symbol)
	require.Len(t, doc.Occurrences[0].Diagnostics, 1)
}

func TestIndex_AndRoundTrip(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	b := analyze(t, filepath.Join(root, "pkg", "B.kt"), "package demo\n\nfun b() = 2\n")
	a := analyze(t, filepath.Join(root, "A.kt"), "package demo\n\nfun a() = 1\n")

	idx, err := Index(root, []Source{b, a})
	require.NoError(t, err)
	require.Len(t, idx.Documents, 2)
	assert.Equal(t, "A.kt", idx.Documents[0].RelativePath)
	assert.Equal(t, "pkg/B.kt", idx.Documents[1].RelativePath)
	assert.Equal(t, ToolName, idx.Metadata.ToolInfo.Name)
	assert.True(t, strings.HasPrefix(idx.Metadata.ProjectRoot, "file://"))
	assert.Equal(t, scip.TextEncoding_UTF8, idx.Metadata.TextDocumentEncoding)

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, idx))
	got, err := Read(&buf)
	require.NoError(t, err)
	assert.True(t, proto.Equal(idx, got))

	_, err = Read(strings.NewReader("\xff\xff\xff"))
	require.Error(t, err)
}

func TestDescriptor_Synthetic(t *testing.T) {
	t.Parallel()

	n := newNamer(nil)
	list := &symbol.Class{Declaration: symbol.Declaration{Name: "List"}, FQName: "kotlin.collections.List"}
	assert.Equal(t, "scip-kotlin maven . . kotlin/collections/List#", n.Symbol(list))

	entry := &symbol.Class{Declaration: symbol.Declaration{Name: "Entry"}, FQName: "kotlin.collections.Map.Entry"}
	assert.Equal(t, "scip-kotlin maven . . kotlin/collections/Map#Entry#", n.Symbol(entry))

	fn := &symbol.Function{Declaration: symbol.Declaration{Name: "println", QualifiedName: "kotlin.io.println"}}
	assert.Equal(t, "scip-kotlin maven . . kotlin/io/println().", n.Symbol(fn))

	ctor := &symbol.Function{Declaration: symbol.Declaration{Name: "<init>", QualifiedName: "demo.Box.<init>"}, IsConstructor: true}
	assert.Equal(t, "scip-kotlin maven . . demo/Box#`<init>`().", n.Symbol(ctor))
}

func TestEscape(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "plain_Name1", escape("plain_Name1"))
	assert.Equal(t, "`<init>`", escape("<init>"))
	assert.Equal(t, "`a b`", escape("a b"))
	assert.Equal(t, "``", escape(""))
}
