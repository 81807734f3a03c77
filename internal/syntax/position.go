package syntax

import "fmt"

// Position is a zero-based line and byte column within a source file.
type Position struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

// Before reports whether p sorts strictly before other.
func (p Position) Before(other Position) bool {
	if p.Line != other.Line {
		return p.Line < other.Line
	}
	return p.Column < other.Column
}

// String renders the position one-based, as editors display it.
func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line+1, p.Column+1)
}

// Range is a half-open source span. StartByte and EndByte are kept alongside
// the line/column form so ranges can be compared without re-deriving offsets.
type Range struct {
	Start     Position `json:"start"`
	End       Position `json:"end"`
	StartByte int      `json:"-"`
	EndByte   int      `json:"-"`
}

// Contains reports whether pos lies within r. The end position is inclusive
// so a cursor placed just after the last character still hits the node.
func (r Range) Contains(pos Position) bool {
	if pos.Before(r.Start) {
		return false
	}
	return !r.End.Before(pos)
}

// ContainsRange reports whether other lies entirely within r.
func (r Range) ContainsRange(other Range) bool {
	if r.EndByte > r.StartByte || other.EndByte > other.StartByte {
		return r.StartByte <= other.StartByte && other.EndByte <= r.EndByte
	}
	return r.Contains(other.Start) && r.Contains(other.End)
}

// IsEmpty reports whether the range covers no source.
func (r Range) IsEmpty() bool {
	return r.Start == r.End
}

// Size is the length of the range in bytes.
func (r Range) Size() int {
	return r.EndByte - r.StartByte
}

func (r Range) String() string {
	return fmt.Sprintf("%s-%s", r.Start, r.End)
}
