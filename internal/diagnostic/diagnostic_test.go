package diagnostic

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/ksema/internal/syntax"
)

func rangeAt(line, col, endCol int) syntax.Range {
	return syntax.Range{
		Start:     syntax.Position{Line: line, Column: col},
		End:       syntax.Position{Line: line, Column: endCol},
		StartByte: line*100 + col,
		EndByte:   line*100 + endCol,
	}
}

func TestFormatTemplate(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		tmpl string
		args []string
		want string
	}{
		{"single", "Unresolved reference: {0}", []string{"foo"}, "Unresolved reference: foo"},
		{"two", "expected {0}, found {1}", []string{"Int", "String"}, "expected Int, found String"},
		{"reordered", "{1} then {0}", []string{"a", "b"}, "b then a"},
		{"missing arg", "x={0} y={1}", []string{"1"}, "x=1 y="},
		{"no placeholders", "Val cannot be reassigned", nil, "Val cannot be reassigned"},
		{"non numeric braces", "map {key}", nil, "map {key}"},
		{"unterminated", "open {0", []string{"x"}, "open {0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, FormatTemplate(tt.tmpl, tt.args...))
		})
	}
}

func TestCodeDefaults(t *testing.T) {
	t.Parallel()
	assert.Equal(t, SeverityError, UnresolvedReference.DefaultSeverity())
	assert.Equal(t, SeverityWarning, UnusedVariable.DefaultSeverity())
	assert.Equal(t, SeverityWarning, ExtensionShadowed.DefaultSeverity())
	assert.Equal(t, SeverityError, Code("NOT_A_CODE").DefaultSeverity())
	assert.Equal(t, "'when' expression must be exhaustive, add necessary 'B' branches",
		MissingWhenBranch.Format("'B'"))
}

func TestCollectorOrderingAndQueries(t *testing.T) {
	t.Parallel()
	c := NewCollector("Main.kt")
	c.Add(UnresolvedReference, rangeAt(0, 4, 7), "foo")
	c.Warning(UnusedVariable, rangeAt(1, 0, 3), "x")
	c.Error(ValReassignment, rangeAt(2, 2, 3))
	c.Hint(NameShadowing, rangeAt(2, 8, 9), "y")

	all := c.All()
	require.Len(t, all, 4)
	assert.Equal(t, UnresolvedReference, all[0].Code)
	assert.Equal(t, "Main.kt", all[0].FilePath)
	assert.Equal(t, "Unresolved reference: foo", all[0].Message)
	assert.Equal(t, NameShadowing, all[3].Code)

	assert.True(t, c.HasErrors())
	assert.Len(t, c.Errors(), 2)
	assert.Len(t, c.Warnings(), 1)
	assert.Len(t, c.AtLine(2), 2)
	assert.Len(t, c.ByCode(ValReassignment), 1)
	assert.Len(t, c.InRange(syntax.Range{StartByte: 200, EndByte: 210}), 2)

	// All returns a copy.
	all[0].Message = "changed"
	assert.Equal(t, "Unresolved reference: foo", c.All()[0].Message)

	c.Clear()
	assert.Equal(t, 0, c.Len())
	assert.False(t, c.HasErrors())
}

func TestCollectorMerge(t *testing.T) {
	t.Parallel()
	parent := NewCollector("A.kt")
	parent.Add(SyntaxError, rangeAt(0, 0, 1), "x")
	child := NewCollector("A.kt")
	child.Add(TypeMismatch, rangeAt(1, 0, 1), "Int", "String")

	parent.Merge(child)
	parent.Merge(nil)
	require.Equal(t, 2, parent.Len())
	assert.Equal(t, TypeMismatch, parent.All()[1].Code)
}

func TestDiagnosticString(t *testing.T) {
	t.Parallel()
	d := New(UnresolvedReference, rangeAt(3, 5, 8), "Main.kt", "bar")
	assert.Equal(t, "error: Unresolved reference: bar [UNRESOLVED_REFERENCE] at Main.kt:4:6", d.String())
	assert.True(t, d.IsError())
}

func TestParseSeverity(t *testing.T) {
	t.Parallel()
	assert.Equal(t, SeverityWarning, ParseSeverity("WARN"))
	assert.Equal(t, SeverityInfo, ParseSeverity("info"))
	assert.Equal(t, SeverityHint, ParseSeverity("hint"))
	assert.Equal(t, SeverityError, ParseSeverity("bogus"))
}
