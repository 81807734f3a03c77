package diagnostic

import (
	"fmt"

	"github.com/jward/ksema/internal/syntax"
)

// RelatedInfo points at a secondary location that explains a diagnostic.
type RelatedInfo struct {
	FilePath string       `json:"file"`
	Range    syntax.Range `json:"range"`
	Message  string       `json:"message"`
}

// Diagnostic is a single reported problem. Values are never mutated after
// they are reported.
type Diagnostic struct {
	Code     Code          `json:"code"`
	Message  string        `json:"message"`
	Severity Severity      `json:"severity"`
	Range    syntax.Range  `json:"range"`
	FilePath string        `json:"file"`
	Related  []RelatedInfo `json:"related,omitempty"`
}

// New builds a diagnostic with the code's default severity and rendered template.
func New(code Code, r syntax.Range, file string, args ...string) Diagnostic {
	return Diagnostic{
		Code:     code,
		Message:  code.Format(args...),
		Severity: code.DefaultSeverity(),
		Range:    r,
		FilePath: file,
	}
}

func (d Diagnostic) IsError() bool {
	return d.Severity == SeverityError
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s: %s [%s] at %s:%d:%d",
		d.Severity, d.Message, d.Code, d.FilePath, d.Range.Start.Line+1, d.Range.Start.Column+1)
}
