package symbol

import (
	"regexp"
	"strings"

	"github.com/jward/ksema/internal/syntax"
)

// headerPattern matches a class-like header in the raw text of an ERROR node:
// optional modifiers, the keyword, the name, optional type parameters, an
// optional primary constructor and an optional supertype list.
var headerPattern = regexp.MustCompile(`(?m)^\s*((?:\w+\s+)*)(class|interface|object)\s+([A-Za-z_]\w*)(?:\s*<[^>]*>)?(?:\s*\([^)]*\))?(?:\s*:\s*([^{]+))?`)

// recoveredHeader is a class header read from text the parser rejected.
type recoveredHeader struct {
	keyword    string
	name       string
	modifiers  []string
	superTypes []string
	// offsets are absolute byte offsets into the file
	start, nameStart, nameEnd, end int
}

// matchHeader scans text, which starts at file offset base, for the first
// class-like header.
func matchHeader(text string, base int) (recoveredHeader, bool) {
	m := headerPattern.FindStringSubmatchIndex(text)
	if m == nil {
		return recoveredHeader{}, false
	}
	h := recoveredHeader{
		keyword:   text[m[4]:m[5]],
		name:      text[m[6]:m[7]],
		nameStart: base + m[6],
		nameEnd:   base + m[7],
		start:     base + m[4],
		end:       base + m[1],
	}
	if m[2] >= 0 {
		h.modifiers = strings.Fields(text[m[2]:m[3]])
		if len(h.modifiers) > 0 {
			h.start = base + m[2] + strings.Index(text[m[2]:m[3]], h.modifiers[0])
		}
	}
	if m[8] >= 0 {
		h.superTypes = splitSuperTypes(text[m[8]:m[9]])
	}
	return h, true
}

// splitSuperTypes splits a supertype list on top-level commas and strips
// constructor arguments, so `Base(1, 2), Iface<A, B>` yields Base and Iface<A, B>.
func splitSuperTypes(list string) []string {
	var out []string
	depthAngle, depthParen := 0, 0
	var cur strings.Builder
	flush := func() {
		s := strings.TrimSpace(cur.String())
		if s != "" {
			out = append(out, s)
		}
		cur.Reset()
	}
	for _, r := range list {
		switch r {
		case '<':
			depthAngle++
		case '>':
			depthAngle--
		case '(':
			depthParen++
			continue
		case ')':
			depthParen--
			continue
		case ',':
			if depthAngle == 0 && depthParen == 0 {
				flush()
				continue
			}
		}
		if depthParen == 0 {
			cur.WriteRune(r)
		}
	}
	flush()
	return out
}

// positionAt converts a byte offset of src into a Position.
func positionAt(src []byte, offset int) syntax.Position {
	if offset > len(src) {
		offset = len(src)
	}
	line, col := 0, 0
	for i := 0; i < offset; i++ {
		if src[i] == '\n' {
			line++
			col = 0
			continue
		}
		col++
	}
	return syntax.Position{Line: line, Column: col}
}

func rangeAt(src []byte, start, end int) syntax.Range {
	return syntax.Range{
		Start:     positionAt(src, start),
		End:       positionAt(src, end),
		StartByte: start,
		EndByte:   end,
	}
}

// coveredByDeclaration reports whether a well-formed declaration node inside
// n spans offset. Such text is built by the regular visitors.
func coveredByDeclaration(n *syntax.Node, offset int) bool {
	covered := false
	n.Walk(func(d *syntax.Node) bool {
		if covered {
			return false
		}
		r := d.Range()
		if offset < r.StartByte || offset >= r.EndByte {
			return false
		}
		if !d.Same(n) && syntax.IsDeclaration(d.Kind()) {
			covered = true
			return false
		}
		return true
	})
	return covered
}
