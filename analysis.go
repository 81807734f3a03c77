package ksema

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/jward/ksema/internal/diagnostic"
	"github.com/jward/ksema/internal/index"
	"github.com/jward/ksema/internal/semantic"
	"github.com/jward/ksema/internal/symbol"
	"github.com/jward/ksema/internal/syntax"
	"github.com/jward/ksema/internal/types"
)

// Location is a source span. Lines and columns are zero-based; columns
// count bytes.
type Location struct {
	File      string `json:"file"`
	StartLine int    `json:"start_line"`
	StartCol  int    `json:"start_col"`
	EndLine   int    `json:"end_line"`
	EndCol    int    `json:"end_col"`
}

func locationOf(file string, r syntax.Range) Location {
	return Location{
		File:      file,
		StartLine: r.Start.Line,
		StartCol:  r.Start.Column,
		EndLine:   r.End.Line,
		EndCol:    r.End.Column,
	}
}

// Analysis is the result of analyzing one file. It holds no parser
// resources and may be kept and queried after the Engine that produced it
// is closed, except for DefinitionAt on symbols declared in other files.
type Analysis struct {
	// ID identifies this analysis run, e.g. to correlate log lines.
	ID       uuid.UUID
	Path     string
	Duration time.Duration

	src         []byte
	lines       []int
	table       *symbol.Table
	result      *semantic.Result
	diagnostics []diagnostic.Diagnostic
	project     *index.Project
}

func (a *Analysis) FilePath() string { return a.Path }

// Table returns the file's symbol table.
func (a *Analysis) Table() *symbol.Table { return a.table }

// Diagnostics returns the analyzer's diagnostics followed by those reported
// by rule scripts.
func (a *Analysis) Diagnostics() []diagnostic.Diagnostic {
	out := make([]diagnostic.Diagnostic, len(a.diagnostics))
	copy(out, a.diagnostics)
	return out
}

// HasErrors reports whether any diagnostic has error severity.
func (a *Analysis) HasErrors() bool {
	for _, d := range a.diagnostics {
		if d.Severity == diagnostic.SeverityError {
			return true
		}
	}
	return false
}

// Outline returns the document outline: top-level declarations with their
// members nested.
func (a *Analysis) Outline() []symbol.OutlineSymbol {
	return a.table.Outline()
}

// Symbols returns the symbols declared in the file in declaration order.
func (a *Analysis) Symbols() []symbol.Symbol {
	var out []symbol.Symbol
	for _, sym := range a.table.Symbols() {
		if !symbol.IsSynthetic(sym) {
			out = append(out, sym)
		}
	}
	return out
}

// symbolAt returns the symbol a reference at pos resolved to, or the
// declaration whose name covers pos.
func (a *Analysis) symbolAt(pos syntax.Position) symbol.Symbol {
	if ref, ok := a.table.ReferenceAt(pos); ok && ref.Symbol != nil {
		return ref.Symbol
	}
	if sym := a.table.SymbolAt(pos); sym != nil {
		if nr := sym.Decl().Location.NameRange; nr.Contains(pos) {
			return sym
		}
	}
	return nil
}

// DefinitionAt returns where the symbol at (line, col) is declared. Symbols
// from other project files are looked up in the project database; symbols
// from the stdlib or classpath have no location and yield nil, as does a
// position with nothing resolved.
func (a *Analysis) DefinitionAt(line, col int) ([]Location, error) {
	sym := a.symbolAt(syntax.Position{Line: line, Column: col})
	if sym == nil {
		return nil, nil
	}
	loc := sym.Decl().Location
	if !loc.IsSynthetic() {
		return []Location{locationOf(loc.FilePath, declRange(loc))}, nil
	}
	if a.project == nil || a.project.Files() == nil {
		return nil, nil
	}
	fq := symbol.QualifiedName(sym)
	if fq == "" {
		return nil, nil
	}
	recs, err := a.project.Files().SymbolsByFQName(fq)
	if err != nil {
		return nil, err
	}
	var out []Location
	for _, rec := range recs {
		if rec.FilePath == "" || rec.FilePath == a.Path {
			continue
		}
		out = append(out, Location{
			File:      rec.FilePath,
			StartLine: rec.StartLine,
			StartCol:  rec.StartCol,
			EndLine:   rec.EndLine,
			EndCol:    rec.EndCol,
		})
	}
	return out, nil
}

func declRange(loc symbol.Location) syntax.Range {
	if !loc.NameRange.IsEmpty() {
		return loc.NameRange
	}
	return loc.Range
}

// ReferencesAt returns every reference in the file to the symbol at
// (line, col), ordered by position.
func (a *Analysis) ReferencesAt(line, col int) []Location {
	sym := a.symbolAt(syntax.Position{Line: line, Column: col})
	if sym == nil {
		return nil
	}
	refs := a.table.ReferencesTo(sym)
	if len(refs) == 0 && symbol.IsSynthetic(sym) {
		// Synthetic symbols are materialized per lookup; match by name.
		fq := symbol.QualifiedName(sym)
		for _, ref := range a.table.References() {
			if ref.Symbol != nil && fq != "" && symbol.QualifiedName(ref.Symbol) == fq {
				refs = append(refs, ref)
			}
		}
	}
	out := make([]Location, 0, len(refs))
	for _, ref := range refs {
		out = append(out, locationOf(a.Path, ref.Range))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].StartLine != out[j].StartLine {
			return out[i].StartLine < out[j].StartLine
		}
		return out[i].StartCol < out[j].StartCol
	})
	return out
}

// TypeAt returns the type inferred for the innermost expression covering
// (line, col).
func (a *Analysis) TypeAt(line, col int) (types.Type, bool) {
	off, ok := a.offset(line, col)
	if !ok {
		return nil, false
	}
	var (
		best    types.Type
		bestKey syntax.Key
		found   bool
	)
	for key, t := range a.result.Types {
		if off < int(key.Start) || off > int(key.End) {
			continue
		}
		// Nodes sharing a span are ordered by kind so the answer is stable.
		size, bestSize := key.End-key.Start, bestKey.End-bestKey.Start
		if !found || size < bestSize || size == bestSize && key.Kind < bestKey.Kind {
			best, bestKey, found = t, key, true
		}
	}
	return best, found
}

// offset converts a zero-based line and byte column to a byte offset.
func (a *Analysis) offset(line, col int) (int, bool) {
	if line < 0 || line >= len(a.lines) || col < 0 {
		return 0, false
	}
	off := a.lines[line] + col
	if off > len(a.src) {
		return 0, false
	}
	return off, true
}

func lineStarts(src []byte) []int {
	starts := []int{0}
	for i, b := range src {
		if b == '\n' {
			starts = append(starts, i+1)
		}
	}
	return starts
}
