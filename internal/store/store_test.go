package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/ksema/internal/index"
	"github.com/jward/ksema/internal/symbol"
	"github.com/jward/ksema/internal/syntax"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	s, err := NewStore(dbPath)
	require.NoError(t, err)
	require.NoError(t, s.Migrate())
	t.Cleanup(func() { s.Close() })
	return s
}

// insertTestFile is a helper that inserts a file and returns it with ID set.
func insertTestFile(t *testing.T, s *Store, path string) *File {
	t.Helper()
	f := &File{Path: path, Language: "kotlin", Hash: "abc123", LastIndexed: time.Now().Truncate(time.Second)}
	id, err := s.InsertFile(f)
	require.NoError(t, err)
	require.Positive(t, id)
	return f
}

func names(syms []index.Symbol) []string {
	out := make([]string, len(syms))
	for i, s := range syms {
		out[i] = s.Name
	}
	return out
}

const shapesSource = `package com.acme

interface Drawable

open class Shape<out T>(val name: String) : Drawable {
    fun area(scale: Int = 1): Double = 0.0
    class Corner
}

class Square : Shape<Int>("square")

fun String.shout(): String = uppercase()
fun Drawable.outline(): String = ""
fun <T> T.describe(): String = toString()

fun makeShape(vararg names: String): Shape<String> = Shape(names[0])
`

func buildRecords(t *testing.T, path, src string) []index.Symbol {
	t.Helper()
	tree, err := syntax.ParseString(context.Background(), src)
	require.NoError(t, err)
	defer tree.Close()
	return index.FromTable(symbol.Build(tree, path))
}

func storeShapes(t *testing.T, s *Store) {
	t.Helper()
	f := &File{Path: "Shapes.kt", Language: "kotlin", Hash: HashContent([]byte(shapesSource))}
	require.NoError(t, s.ReplaceFileSymbols(f, buildRecords(t, "Shapes.kt", shapesSource)))
	require.Positive(t, f.ID)
}

// =============================================================================
// Schema
// =============================================================================

func TestMigrate_AllTablesExist(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	for _, table := range []string{"files", "symbols", "symbol_parameters", "symbol_supertypes", "metadata"} {
		var name string
		err := s.db.QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?", table,
		).Scan(&name)
		require.NoError(t, err, "table %s should exist", table)
		assert.Equal(t, table, name)
	}
}

func TestMigrate_Idempotent(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	require.NoError(t, s.Migrate())
}

func TestMigrate_WALMode(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	var mode string
	err := s.db.QueryRow("PRAGMA journal_mode").Scan(&mode)
	require.NoError(t, err)
	assert.Equal(t, "wal", mode)
}

func TestNewStore_InMemory(t *testing.T) {
	t.Parallel()
	s, err := NewStore(":memory:")
	require.NoError(t, err)
	defer s.Close()
	require.NoError(t, s.Migrate())

	storeShapes(t, s)
	got, err := s.SymbolsByFQName("com.acme.Shape")
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

// =============================================================================
// Files
// =============================================================================

func TestFile_InsertAndRetrieve(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	f := insertTestFile(t, s, "/src/Main.kt")

	got, err := s.FileByPath("/src/Main.kt")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, f.ID, got.ID)
	assert.Equal(t, "kotlin", got.Language)
	assert.Equal(t, "abc123", got.Hash)
	assert.True(t, f.LastIndexed.Equal(got.LastIndexed))
}

func TestFile_ByPathNotFound(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	got, err := s.FileByPath("/nonexistent")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestFile_DuplicatePathRejected(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	insertTestFile(t, s, "/src/Main.kt")
	_, err := s.InsertFile(&File{Path: "/src/Main.kt", Language: "kotlin"})
	require.Error(t, err)
}

func TestRemoveFile(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	storeShapes(t, s)

	require.NoError(t, s.RemoveFile("Shapes.kt"))
	require.NoError(t, s.RemoveFile("Unknown.kt"))

	got, err := s.FileByPath("Shapes.kt")
	require.NoError(t, err)
	assert.Nil(t, got)
	classes, err := s.Classes()
	require.NoError(t, err)
	assert.Empty(t, classes)
}

// =============================================================================
// Symbols
// =============================================================================

func TestInsertSymbol_RoundTrip(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	f := insertTestFile(t, s, "/src/Util.kt")

	in := index.Symbol{
		Name:           "pick",
		FQName:         "com.acme.pick",
		Kind:           index.KindFunction,
		Visibility:     "internal",
		TypeParameters: []string{"T : Comparable<T>"},
		Parameters: []index.Param{
			{Name: "items", Type: "T", Vararg: true},
			{Name: "default", Type: "T?", HasDefault: true},
		},
		ReturnType:     "T",
		StartLine:      3,
		StartCol:       0,
		EndLine:        5,
		EndCol:         1,
		Deprecated:     true,
		DeprecationMsg: "use choose",
	}
	id, err := s.InsertSymbol(f.ID, in)
	require.NoError(t, err)
	require.Positive(t, id)

	got, err := s.SymbolsByFQName("com.acme.pick")
	require.NoError(t, err)
	require.Len(t, got, 1)
	want := in
	want.Package = "com.acme"
	want.FilePath = "/src/Util.kt"
	assert.Equal(t, want, got[0])
}

func TestQueries_FromSourceTable(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	storeShapes(t, s)

	shape, err := s.SymbolsByFQName("com.acme.Shape")
	require.NoError(t, err)
	require.Len(t, shape, 1)
	assert.Equal(t, index.KindClass, shape[0].Kind)
	assert.Equal(t, []string{"out T"}, shape[0].TypeParameters)
	assert.Equal(t, []string{"Drawable"}, shape[0].SuperTypes)
	assert.Equal(t, "Shapes.kt", shape[0].FilePath)

	byName, err := s.SymbolsByName("Corner")
	require.NoError(t, err)
	assert.Equal(t, []string{"Corner"}, names(byName), "nested classes are found by simple name")

	byName, err = s.SymbolsByName("area")
	require.NoError(t, err)
	assert.Empty(t, byName, "members are not top-level names")

	pkg, err := s.SymbolsByPackage("com.acme")
	require.NoError(t, err)
	assert.Equal(t, []string{"Drawable", "Shape", "Square", "makeShape"}, names(pkg))

	members, err := s.MembersOf("com.acme.Shape")
	require.NoError(t, err)
	assert.Contains(t, names(members), "area")
	assert.Contains(t, names(members), "name")
	assert.Contains(t, names(members), "Corner")

	factory, err := s.SymbolsByName("makeShape")
	require.NoError(t, err)
	require.Len(t, factory, 1)
	require.Len(t, factory[0].Parameters, 1)
	assert.True(t, factory[0].Parameters[0].Vararg)
	assert.Equal(t, "Shape<String>", factory[0].ReturnType)

	classes, err := s.Classes()
	require.NoError(t, err)
	assert.Equal(t, []string{"Drawable", "Shape", "Corner", "Square"}, names(classes))
}

func TestExtensionsFor_WalksProjectSupertypes(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	storeShapes(t, s)

	ext, err := s.ExtensionsFor("com.acme.Square")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"outline", "describe"}, names(ext))

	ext, err = s.ExtensionsFor("kotlin.String")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"shout", "describe"}, names(ext))

	named, err := s.ExtensionsNamed("shout")
	require.NoError(t, err)
	require.Len(t, named, 1)
	assert.Equal(t, "String", named[0].ReceiverType)
}

func TestReplaceFileSymbols_ReplacesOldData(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	storeShapes(t, s)
	first, err := s.FileByPath("Shapes.kt")
	require.NoError(t, err)

	f := &File{Path: "Shapes.kt", Language: "kotlin", Hash: "v2"}
	require.NoError(t, s.ReplaceFileSymbols(f, buildRecords(t, "Shapes.kt", "package com.acme\n\nclass Circle\n")))
	assert.Equal(t, first.ID, f.ID, "the file row is reused")

	classes, err := s.Classes()
	require.NoError(t, err)
	assert.Equal(t, []string{"Circle"}, names(classes))

	var params int
	require.NoError(t, s.db.QueryRow("SELECT COUNT(*) FROM symbol_parameters").Scan(&params))
	assert.Zero(t, params)

	got, err := s.FileByPath("Shapes.kt")
	require.NoError(t, err)
	assert.Equal(t, "v2", got.Hash)
}

func TestCommitBatch_MultipleFiles(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	a := NewBatch(&File{Path: "A.kt", Language: "kotlin"})
	a.Add(buildRecords(t, "A.kt", "package p\n\nclass A\n")...)
	b := NewBatch(&File{Path: "B.kt", Language: "kotlin"})
	b.Add(buildRecords(t, "B.kt", "package p\n\nfun b() = 1\n")...)
	assert.Equal(t, 1, b.Len())

	require.NoError(t, s.CommitBatch(a, b))

	files, err := s.Files()
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "A.kt", files[0].Path)

	pkg, err := s.SymbolsByPackage("p")
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "b"}, names(pkg))

	inB, err := s.SymbolsByFile("B.kt")
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, names(inB))
}

func TestDeleteFileData(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	storeShapes(t, s)
	f, err := s.FileByPath("Shapes.kt")
	require.NoError(t, err)

	require.NoError(t, s.DeleteFileData(f.ID))

	syms, err := s.SymbolsByFile("Shapes.kt")
	require.NoError(t, err)
	assert.Empty(t, syms)
	for _, table := range []string{"symbol_parameters", "symbol_supertypes"} {
		var n int
		require.NoError(t, s.db.QueryRow("SELECT COUNT(*) FROM "+table).Scan(&n))
		assert.Zero(t, n, table)
	}
	still, err := s.FileByPath("Shapes.kt")
	require.NoError(t, err)
	assert.NotNil(t, still)
}

func TestStore_ServesProjectLookups(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	storeShapes(t, s)

	p := index.NewProject(index.WithFiles(s), index.WithStdlib(index.Minimal()))
	assert.Equal(t, []string{"Shape"}, names(p.FindByFQName("com.acme.Shape")))
	assert.Empty(t, p.Without("Shapes.kt").FindByFQName("com.acme.Shape"))
	assert.NotEmpty(t, p.FindByFQName("kotlin.collections.List"))
}

// =============================================================================
// Metadata
// =============================================================================

func TestMetadata(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	v, err := s.GetMetadata("stdlib_hash")
	require.NoError(t, err)
	assert.Empty(t, v)

	require.NoError(t, s.SetMetadata("stdlib_hash", "one"))
	require.NoError(t, s.SetMetadata("stdlib_hash", "two"))
	v, err = s.GetMetadata("stdlib_hash")
	require.NoError(t, err)
	assert.Equal(t, "two", v)
}

// =============================================================================
// Signature Hash
// =============================================================================

func TestSignatureHash(t *testing.T) {
	t.Parallel()
	base := index.Symbol{
		Name:       "area",
		FQName:     "com.acme.Shape.area",
		Kind:       index.KindFunction,
		Visibility: "public",
		Parameters: []index.Param{{Name: "scale", Type: "Int", HasDefault: true}},
		ReturnType: "Double",
		StartLine:  4,
	}
	h := ComputeSignatureHash(base)
	assert.Len(t, h, 64)
	assert.Equal(t, h, ComputeSignatureHash(base))

	moved := base
	moved.StartLine, moved.EndLine = 40, 42
	assert.Equal(t, h, ComputeSignatureHash(moved), "location does not affect the hash")

	changes := map[string]func(*index.Symbol){
		"name":       func(s *index.Symbol) { s.FQName = "com.acme.Shape.size" },
		"visibility": func(s *index.Symbol) { s.Visibility = "private" },
		"modifier":   func(s *index.Symbol) { s.IsAbstract = true },
		"param type": func(s *index.Symbol) { s.Parameters = []index.Param{{Name: "scale", Type: "Long", HasDefault: true}} },
		"return":     func(s *index.Symbol) { s.ReturnType = "Float" },
		"supertype":  func(s *index.Symbol) { s.SuperTypes = []string{"Any"} },
	}
	for name, change := range changes {
		t.Run(name, func(t *testing.T) {
			changed := base
			change(&changed)
			assert.NotEqual(t, h, ComputeSignatureHash(changed))
		})
	}
}

func TestHashContent(t *testing.T) {
	t.Parallel()
	assert.Equal(t, HashContent([]byte("fun main() {}")), HashContent([]byte("fun main() {}")))
	assert.NotEqual(t, HashContent([]byte("a")), HashContent([]byte("b")))
}
