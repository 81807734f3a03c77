// Package scipexport converts analyses into SCIP indexes so other
// code-intelligence tools can consume ksema's symbols, references and
// diagnostics.
package scipexport

import (
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sourcegraph/scip/bindings/go/scip"
	"google.golang.org/protobuf/proto"

	"github.com/jward/ksema/internal/diagnostic"
	"github.com/jward/ksema/internal/symbol"
	"github.com/jward/ksema/internal/syntax"
)

const (
	ToolName    = "ksema"
	ToolVersion = "0.1.0"
	language    = "kotlin"
)

// Source is the part of an analysis the exporter reads.
type Source interface {
	FilePath() string
	Table() *symbol.Table
	Diagnostics() []diagnostic.Diagnostic
}

// Document converts one analysis into a SCIP document named relPath.
func Document(a Source, relPath string) *scip.Document {
	doc := &scip.Document{
		Language:         language,
		RelativePath:     filepath.ToSlash(relPath),
		PositionEncoding: scip.PositionEncoding_UTF8CodeUnitOffsetFromLineStart,
	}
	table := a.Table()
	if table == nil {
		return doc
	}
	names := newNamer(table)

	for _, sym := range table.Symbols() {
		if symbol.IsSynthetic(sym) {
			continue
		}
		d := sym.Decl()
		name := names.Symbol(sym)
		r := d.Location.NameRange
		if r.IsEmpty() {
			r = d.Location.Range
		}
		doc.Occurrences = append(doc.Occurrences, &scip.Occurrence{
			Range:          scipRange(r),
			Symbol:         name,
			SymbolRoles:    int32(scip.SymbolRole_Definition),
			EnclosingRange: scipRange(d.Location.Range),
		})
		info := &scip.SymbolInformation{
			Symbol:      name,
			DisplayName: d.Name,
			Kind:        kindOf(sym),
		}
		if owner := names.owner(d); owner != nil {
			if enc := names.Symbol(owner); !isLocal(enc) {
				info.EnclosingSymbol = enc
			}
		}
		doc.Symbols = append(doc.Symbols, info)
	}

	for _, ref := range table.References() {
		if ref.Symbol == nil {
			continue
		}
		occ := &scip.Occurrence{
			Range:  scipRange(ref.Range),
			Symbol: names.Symbol(ref.Symbol),
		}
		switch ref.Kind {
		case symbol.RefWrite:
			occ.SymbolRoles = int32(scip.SymbolRole_WriteAccess)
		case symbol.RefImport:
			occ.SymbolRoles = int32(scip.SymbolRole_Import)
		default:
			occ.SymbolRoles = int32(scip.SymbolRole_ReadAccess)
		}
		doc.Occurrences = append(doc.Occurrences, occ)
	}

	sort.SliceStable(doc.Occurrences, func(i, j int) bool {
		return rangeLess(doc.Occurrences[i].Range, doc.Occurrences[j].Range)
	})
	attachDiagnostics(doc, a.Diagnostics())
	return doc
}

// Index assembles documents for analyses rooted at root. Paths are made
// relative to root; documents are ordered by path.
func Index(root string, analyses []Source) (*scip.Index, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("scipexport: resolve root %s: %w", root, err)
	}
	idx := &scip.Index{
		Metadata: &scip.Metadata{
			Version:              scip.ProtocolVersion_UnspecifiedProtocolVersion,
			ToolInfo:             &scip.ToolInfo{Name: ToolName, Version: ToolVersion},
			ProjectRoot:          "file://" + filepath.ToSlash(abs),
			TextDocumentEncoding: scip.TextEncoding_UTF8,
		},
	}
	for _, a := range analyses {
		rel, err := relativePath(abs, a.FilePath())
		if err != nil {
			return nil, err
		}
		idx.Documents = append(idx.Documents, Document(a, rel))
	}
	sort.Slice(idx.Documents, func(i, j int) bool {
		return idx.Documents[i].RelativePath < idx.Documents[j].RelativePath
	})
	return idx, nil
}

func relativePath(root, path string) (string, error) {
	if !filepath.IsAbs(path) {
		return filepath.ToSlash(filepath.Clean(path)), nil
	}
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return "", fmt.Errorf("scipexport: relative path of %s: %w", path, err)
	}
	return filepath.ToSlash(rel), nil
}

// Write marshals idx in the SCIP protobuf wire format.
func Write(w io.Writer, idx *scip.Index) error {
	data, err := proto.Marshal(idx)
	if err != nil {
		return fmt.Errorf("scipexport: marshal: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("scipexport: write: %w", err)
	}
	return nil
}

// Read parses an index written by Write.
func Read(r io.Reader) (*scip.Index, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("scipexport: read: %w", err)
	}
	var idx scip.Index
	if err := proto.Unmarshal(data, &idx); err != nil {
		return nil, fmt.Errorf("scipexport: unmarshal: %w", err)
	}
	return &idx, nil
}

// scipRange encodes r as [line, char, endChar] on one line or
// [line, char, endLine, endChar].
func scipRange(r syntax.Range) []int32 {
	if r.Start.Line == r.End.Line {
		return []int32{int32(r.Start.Line), int32(r.Start.Column), int32(r.End.Column)}
	}
	return []int32{int32(r.Start.Line), int32(r.Start.Column), int32(r.End.Line), int32(r.End.Column)}
}

func toRange(rs []int32) syntax.Range {
	switch len(rs) {
	case 3:
		return syntax.Range{
			Start: syntax.Position{Line: int(rs[0]), Column: int(rs[1])},
			End:   syntax.Position{Line: int(rs[0]), Column: int(rs[2])},
		}
	case 4:
		return syntax.Range{
			Start: syntax.Position{Line: int(rs[0]), Column: int(rs[1])},
			End:   syntax.Position{Line: int(rs[2]), Column: int(rs[3])},
		}
	}
	return syntax.Range{}
}

func rangeLess(a, b []int32) bool {
	ra, rb := toRange(a), toRange(b)
	if ra.Start != rb.Start {
		return ra.Start.Before(rb.Start)
	}
	return ra.End.Before(rb.End)
}

func isLocal(sym string) bool {
	return strings.HasPrefix(sym, "local ")
}
