package scipexport

import (
	"github.com/sourcegraph/scip/bindings/go/scip"

	"github.com/jward/ksema/internal/diagnostic"
	"github.com/jward/ksema/internal/syntax"
)

// attachDiagnostics hangs each diagnostic on the occurrence nearest its
// range: the smallest occurrence containing its start, otherwise the closest
// one by position. Diagnostics in a document without occurrences get an
// occurrence of their own.
func attachDiagnostics(doc *scip.Document, diags []diagnostic.Diagnostic) {
	for _, d := range diags {
		sd := &scip.Diagnostic{
			Severity: severity(d.Severity),
			Code:     string(d.Code),
			Message:  d.Message,
			Source:   ToolName,
		}
		if occ := nearest(doc.Occurrences, d.Range); occ != nil {
			occ.Diagnostics = append(occ.Diagnostics, sd)
			continue
		}
		doc.Occurrences = append(doc.Occurrences, &scip.Occurrence{
			Range:       scipRange(d.Range),
			Diagnostics: []*scip.Diagnostic{sd},
		})
	}
}

func nearest(occs []*scip.Occurrence, r syntax.Range) *scip.Occurrence {
	var best *scip.Occurrence
	bestSize := -1
	for _, occ := range occs {
		or := toRange(occ.Range)
		if !or.Contains(r.Start) {
			continue
		}
		if size := span(or); bestSize < 0 || size < bestSize {
			best, bestSize = occ, size
		}
	}
	if best != nil {
		return best
	}
	bestDist := -1
	for _, occ := range occs {
		if dist := distance(toRange(occ.Range).Start, r.Start); bestDist < 0 || dist < bestDist {
			best, bestDist = occ, dist
		}
	}
	return best
}

// span approximates a range's size without byte offsets.
func span(r syntax.Range) int {
	return (r.End.Line-r.Start.Line)*1_000_000 + (r.End.Column - r.Start.Column)
}

func distance(a, b syntax.Position) int {
	lines := a.Line - b.Line
	if lines < 0 {
		lines = -lines
	}
	cols := a.Column - b.Column
	if cols < 0 {
		cols = -cols
	}
	return lines*1_000_000 + cols
}

func severity(s diagnostic.Severity) scip.Severity {
	switch s {
	case diagnostic.SeverityError:
		return scip.Severity_Error
	case diagnostic.SeverityWarning:
		return scip.Severity_Warning
	case diagnostic.SeverityInfo:
		return scip.Severity_Information
	}
	return scip.Severity_Hint
}
