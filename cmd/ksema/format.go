package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/jward/ksema/internal/config"
	"github.com/jward/ksema/internal/symbol"
)

// formatReportsText prints diagnostics compiler-style, one per line, then a
// summary line.
func formatReportsText(w io.Writer, reports []CLIFileReport) {
	var errs, warns int
	for _, r := range reports {
		for _, d := range r.Diagnostics {
			fmt.Fprintf(w, "%s:%d:%d: %s: %s [%s]\n", d.File, d.Line, d.Col, d.Severity, d.Message, d.Code)
		}
		errs += r.Errors
		warns += r.Warnings
	}
	fmt.Fprintf(w, "%d file(s) checked: %d error(s), %d warning(s)\n", len(reports), errs, warns)
}

// formatOutlineText prints the outline as aligned columns, members indented
// under their class.
func formatOutlineText(w io.Writer, o CLIOutline) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tKIND\tDETAIL\tLINE")
	var walk func(items []symbol.OutlineSymbol, depth int)
	walk = func(items []symbol.OutlineSymbol, depth int) {
		for _, it := range items {
			fmt.Fprintf(tw, "%s%s\t%s\t%s\t%d\n",
				strings.Repeat("  ", depth), it.Name, it.Kind, it.Detail, it.Range.Start.Line+1)
			walk(it.Children, depth+1)
		}
	}
	walk(o.Symbols, 0)
	tw.Flush()
}

// formatSummaryText formats an index or export run as readable text.
func formatSummaryText(w io.Writer, s CLIIndexSummary) {
	fmt.Fprintf(w, "Root: %s\n", s.Root)
	if s.Database != "" {
		fmt.Fprintf(w, "Database: %s\n", s.Database)
	}
	if s.Output != "" {
		fmt.Fprintf(w, "Output: %s\n", s.Output)
	}
	fmt.Fprintf(w, "Files: %d\n", len(s.Files))
	for _, f := range s.Files {
		fmt.Fprintf(w, "  %s\n", f)
	}
}

// outputResultText dispatches to the appropriate text formatter based on the
// result type.
func outputResultText(w io.Writer, result CLIResult) error {
	switch v := result.Results.(type) {
	case []CLIFileReport:
		formatReportsText(w, v)
	case CLIOutline:
		formatOutlineText(w, v)
	case CLIIndexSummary:
		formatSummaryText(w, v)
	case nil:
	default:
		return fmt.Errorf("unsupported result type for text format: %T", v)
	}
	return nil
}

func (a *app) outputResult(w io.Writer, result CLIResult) error {
	if a.cfg.Format == config.FormatText {
		return outputResultText(w, result)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

// outputError writes an error in the selected format and returns errReported
// wrapping it so main() does not print it again. In JSON mode the error is
// written to w as a CLIResult envelope. In text mode it goes to errw.
func (a *app) outputError(w, errw io.Writer, command string, err error) error {
	if a.cfg == nil || a.cfg.Format == config.FormatText {
		fmt.Fprintf(errw, "Error: %s\n", err)
		return fmt.Errorf("%w: %w", errReported, err)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(CLIResult{Command: command, Error: err.Error()})
	return fmt.Errorf("%w: %w", errReported, err)
}
