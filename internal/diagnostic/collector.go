package diagnostic

import "github.com/jward/ksema/internal/syntax"

// Collector accumulates diagnostics in report order. It is owned by a single
// analysis pass and is not safe for concurrent use.
type Collector struct {
	file  string
	items []Diagnostic
}

func NewCollector(file string) *Collector {
	return &Collector{file: file}
}

func (c *Collector) FilePath() string { return c.file }

// Report appends d, filling in the collector's file path when d has none.
func (c *Collector) Report(d Diagnostic) {
	if d.FilePath == "" {
		d.FilePath = c.file
	}
	c.items = append(c.items, d)
}

// Add renders code's template at r with the code's default severity.
func (c *Collector) Add(code Code, r syntax.Range, args ...string) {
	c.Report(New(code, r, c.file, args...))
}

func (c *Collector) Error(code Code, r syntax.Range, args ...string) {
	c.report(code, SeverityError, r, args)
}

func (c *Collector) Warning(code Code, r syntax.Range, args ...string) {
	c.report(code, SeverityWarning, r, args)
}

func (c *Collector) Info(code Code, r syntax.Range, args ...string) {
	c.report(code, SeverityInfo, r, args)
}

func (c *Collector) Hint(code Code, r syntax.Range, args ...string) {
	c.report(code, SeverityHint, r, args)
}

func (c *Collector) report(code Code, sev Severity, r syntax.Range, args []string) {
	d := New(code, r, c.file, args...)
	d.Severity = sev
	c.items = append(c.items, d)
}

// All returns a copy of every diagnostic in report order.
func (c *Collector) All() []Diagnostic {
	out := make([]Diagnostic, len(c.items))
	copy(out, c.items)
	return out
}

func (c *Collector) Errors() []Diagnostic   { return c.bySeverity(SeverityError) }
func (c *Collector) Warnings() []Diagnostic { return c.bySeverity(SeverityWarning) }

func (c *Collector) bySeverity(sev Severity) []Diagnostic {
	var out []Diagnostic
	for _, d := range c.items {
		if d.Severity == sev {
			out = append(out, d)
		}
	}
	return out
}

// ByCode returns diagnostics carrying the given code.
func (c *Collector) ByCode(code Code) []Diagnostic {
	var out []Diagnostic
	for _, d := range c.items {
		if d.Code == code {
			out = append(out, d)
		}
	}
	return out
}

func (c *Collector) HasErrors() bool {
	for _, d := range c.items {
		if d.Severity == SeverityError {
			return true
		}
	}
	return false
}

func (c *Collector) Len() int { return len(c.items) }

// Clear drops every collected diagnostic.
func (c *Collector) Clear() { c.items = nil }

// Merge appends other's diagnostics after c's own.
func (c *Collector) Merge(other *Collector) {
	if other == nil {
		return
	}
	c.items = append(c.items, other.items...)
}

// InRange returns diagnostics whose range lies within r.
func (c *Collector) InRange(r syntax.Range) []Diagnostic {
	var out []Diagnostic
	for _, d := range c.items {
		if r.ContainsRange(d.Range) {
			out = append(out, d)
		}
	}
	return out
}

// AtLine returns diagnostics starting on the given zero-based line.
func (c *Collector) AtLine(line int) []Diagnostic {
	var out []Diagnostic
	for _, d := range c.items {
		if d.Range.Start.Line == line {
			out = append(out, d)
		}
	}
	return out
}
