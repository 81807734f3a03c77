package symbol

import (
	"strings"

	"github.com/jward/ksema/internal/syntax"
)

// TypeReference is a type as written in source, before resolution.
type TypeReference struct {
	Name      string
	Arguments []*TypeReference
	Nullable  bool
	Star      bool
	Variance  string
	Function  *FunctionShape
	Range     syntax.Range
}

// FunctionShape is the parameter and return structure of a function type.
type FunctionShape struct {
	Receiver   *TypeReference
	Parameters []*TypeReference
	Return     *TypeReference
	Suspend    bool
}

// NewTypeRef builds a plain named reference.
func NewTypeRef(name string, args ...*TypeReference) *TypeReference {
	return &TypeReference{Name: name, Arguments: args}
}

// StarRef is the `*` projection.
func StarRef() *TypeReference {
	return &TypeReference{Name: "*", Star: true}
}

// SimpleName returns the last dotted segment of the name.
func (t *TypeReference) SimpleName() string {
	if t == nil {
		return ""
	}
	if i := strings.LastIndexByte(t.Name, '.'); i >= 0 {
		return t.Name[i+1:]
	}
	return t.Name
}

func (t *TypeReference) IsFunction() bool {
	return t != nil && t.Function != nil
}

// WithNullable returns a shallow copy with the nullability replaced.
func (t *TypeReference) WithNullable(nullable bool) *TypeReference {
	if t == nil {
		return nil
	}
	c := *t
	c.Nullable = nullable
	return &c
}

// Render prints the reference in source form, e.g. `Map<String, List<Int>>?`
// or `Int.(String) -> Unit`.
func (t *TypeReference) Render() string {
	if t == nil {
		return ""
	}
	var b strings.Builder
	t.render(&b)
	return b.String()
}

func (t *TypeReference) String() string { return t.Render() }

func (t *TypeReference) render(b *strings.Builder) {
	if t.Star {
		b.WriteString("*")
		return
	}
	if t.Variance != "" {
		b.WriteString(t.Variance)
		b.WriteByte(' ')
	}
	if f := t.Function; f != nil {
		if t.Nullable {
			b.WriteByte('(')
		}
		if f.Suspend {
			b.WriteString("suspend ")
		}
		if f.Receiver != nil {
			f.Receiver.render(b)
			b.WriteByte('.')
		}
		b.WriteByte('(')
		for i, p := range f.Parameters {
			if i > 0 {
				b.WriteString(", ")
			}
			p.render(b)
		}
		b.WriteString(") -> ")
		if f.Return != nil {
			f.Return.render(b)
		} else {
			b.WriteString("Unit")
		}
		if t.Nullable {
			b.WriteString(")?")
		}
		return
	}
	b.WriteString(t.Name)
	if len(t.Arguments) > 0 {
		b.WriteByte('<')
		for i, a := range t.Arguments {
			if i > 0 {
				b.WriteString(", ")
			}
			a.render(b)
		}
		b.WriteByte('>')
	}
	if t.Nullable {
		b.WriteByte('?')
	}
}

// ParseTypeReference parses a textual type such as those stored in symbol
// indexes. It never fails: malformed input yields a best-effort reference,
// and an empty string yields nil.
func ParseTypeReference(s string) *TypeReference {
	p := &typeParser{src: strings.TrimSpace(s)}
	if p.src == "" {
		return nil
	}
	return p.parseType()
}

type typeParser struct {
	src string
	pos int
}

func (p *typeParser) skipSpace() {
	for p.pos < len(p.src) && (p.src[p.pos] == ' ' || p.src[p.pos] == '\t' || p.src[p.pos] == '\n') {
		p.pos++
	}
}

func (p *typeParser) peek() byte {
	p.skipSpace()
	if p.pos >= len(p.src) {
		return 0
	}
	return p.src[p.pos]
}

func (p *typeParser) consume(s string) bool {
	p.skipSpace()
	if strings.HasPrefix(p.src[p.pos:], s) {
		p.pos += len(s)
		return true
	}
	return false
}

// lookingAt reports whether s comes next without consuming it.
func (p *typeParser) lookingAt(s string) bool {
	p.skipSpace()
	return strings.HasPrefix(p.src[p.pos:], s)
}

func (p *typeParser) ident() string {
	p.skipSpace()
	start := p.pos
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		if c == '_' || c == '.' || c == '`' || c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= 0x80 {
			// stop before ".(" so receiver function types split correctly
			if c == '.' && p.pos+1 < len(p.src) && p.src[p.pos+1] == '(' {
				break
			}
			p.pos++
			continue
		}
		break
	}
	return strings.Trim(p.src[start:p.pos], "`")
}

func (p *typeParser) parseType() *TypeReference {
	suspend := false
	if p.consume("suspend ") {
		suspend = true
	}
	var t *TypeReference
	switch p.peek() {
	case '*':
		p.pos++
		return StarRef()
	case '(':
		t = p.parseParenthesized()
	default:
		t = p.parseNamed()
	}
	// Receiver function type: `T.(A) -> R`.
	if t != nil && t.Function == nil && p.consume(".(") {
		p.pos--
		params := p.parseParamList()
		t = p.finishFunction(t, params)
	}
	for p.consume("?") {
		if t != nil {
			t.Nullable = true
		}
	}
	if t != nil && t.Function != nil {
		t.Function.Suspend = t.Function.Suspend || suspend
	}
	return t
}

// parseParenthesized handles `(A, B) -> R` and `(T)?`.
func (p *typeParser) parseParenthesized() *TypeReference {
	params := p.parseParamList()
	if p.lookingAt("->") {
		return p.finishFunction(nil, params)
	}
	if len(params) == 1 && params[0] != nil {
		inner := *params[0]
		return &inner
	}
	return &TypeReference{Name: "Unit"}
}

func (p *typeParser) parseParamList() []*TypeReference {
	var params []*TypeReference
	if !p.consume("(") {
		return nil
	}
	for p.peek() != ')' && p.peek() != 0 {
		// Named function-type parameters: `(name: Type)`.
		save := p.pos
		name := p.ident()
		if name != "" && p.consume(":") {
			// discard the parameter name
		} else {
			p.pos = save
		}
		if t := p.parseType(); t != nil {
			params = append(params, t)
		} else {
			break
		}
		if !p.consume(",") {
			break
		}
	}
	p.consume(")")
	return params
}

func (p *typeParser) finishFunction(receiver *TypeReference, params []*TypeReference) *TypeReference {
	if params == nil {
		params = []*TypeReference{}
	}
	shape := &FunctionShape{Receiver: receiver, Parameters: params}
	if p.consume("->") {
		shape.Return = p.parseType()
	}
	if shape.Return == nil {
		shape.Return = &TypeReference{Name: "Unit"}
	}
	return &TypeReference{Name: "Function", Function: shape}
}

func (p *typeParser) parseNamed() *TypeReference {
	variance := ""
	for _, v := range []string{"out ", "in "} {
		if p.consume(v) {
			variance = strings.TrimSpace(v)
		}
	}
	name := p.ident()
	if name == "" {
		return nil
	}
	t := &TypeReference{Name: name, Variance: variance}
	if p.consume("<") {
		for p.peek() != '>' && p.peek() != 0 {
			arg := p.parseType()
			if arg == nil {
				break
			}
			t.Arguments = append(t.Arguments, arg)
			if !p.consume(",") {
				break
			}
		}
		p.consume(">")
	}
	return t
}
