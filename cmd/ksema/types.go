package main

import (
	"github.com/jward/ksema"
	"github.com/jward/ksema/internal/diagnostic"
	"github.com/jward/ksema/internal/symbol"
)

// CLIResult is the top-level JSON envelope for all commands.
type CLIResult struct {
	Command string `json:"command"`
	Results any    `json:"results"`
	Error   string `json:"error,omitempty"`
}

// CLIDiagnostic is a JSON-friendly diagnostic. Lines and columns are
// one-based, as editors display them.
type CLIDiagnostic struct {
	File     string `json:"file"`
	Line     int    `json:"line"`
	Col      int    `json:"col"`
	EndLine  int    `json:"end_line"`
	EndCol   int    `json:"end_col"`
	Severity string `json:"severity"`
	Code     string `json:"code"`
	Message  string `json:"message"`
}

// CLIFileReport groups the diagnostics of one analyzed file.
type CLIFileReport struct {
	File        string          `json:"file"`
	AnalysisID  string          `json:"analysis_id"`
	Errors      int             `json:"errors"`
	Warnings    int             `json:"warnings"`
	Diagnostics []CLIDiagnostic `json:"diagnostics"`
}

// CLIOutline is the outline of one file.
type CLIOutline struct {
	File    string                 `json:"file"`
	Symbols []symbol.OutlineSymbol `json:"symbols"`
}

// CLIIndexSummary reports an index or export run.
type CLIIndexSummary struct {
	Root     string   `json:"root"`
	Database string   `json:"database,omitempty"`
	Output   string   `json:"output,omitempty"`
	Files    []string `json:"files"`
}

func toCLIReport(a *ksema.Analysis) CLIFileReport {
	r := CLIFileReport{
		File:        a.Path,
		AnalysisID:  a.ID.String(),
		Diagnostics: make([]CLIDiagnostic, 0),
	}
	for _, d := range a.Diagnostics() {
		switch d.Severity {
		case diagnostic.SeverityError:
			r.Errors++
		case diagnostic.SeverityWarning:
			r.Warnings++
		}
		r.Diagnostics = append(r.Diagnostics, toCLIDiagnostic(a.Path, d))
	}
	return r
}

func toCLIDiagnostic(file string, d diagnostic.Diagnostic) CLIDiagnostic {
	if d.FilePath != "" {
		file = d.FilePath
	}
	return CLIDiagnostic{
		File:     file,
		Line:     d.Range.Start.Line + 1,
		Col:      d.Range.Start.Column + 1,
		EndLine:  d.Range.End.Line + 1,
		EndCol:   d.Range.End.Column + 1,
		Severity: d.Severity.String(),
		Code:     string(d.Code),
		Message:  d.Message,
	}
}
