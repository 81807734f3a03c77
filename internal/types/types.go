// Package types is the resolved type model used by inference and checking:
// class, primitive, function and type-parameter types plus an error type
// that absorbs failures without cascading diagnostics.
package types

import (
	"strings"

	"github.com/jward/ksema/internal/symbol"
)

// Type is a resolved Kotlin type. The set of implementations is closed.
type Type interface {
	// Render prints the type; qualified selects fully qualified class names.
	Render(qualified bool) string
	String() string
	IsNullable() bool
	// HasError reports whether the type or any component is an error type.
	HasError() bool
	WithNullable(nullable bool) Type
	Substitute(s Substitution) Type
	isType()
}

// Variance of a type argument or type parameter.
type Variance uint8

const (
	Invariant Variance = iota
	Out
	In
)

func (v Variance) String() string {
	switch v {
	case Out:
		return "out"
	case In:
		return "in"
	}
	return ""
}

// ParseVariance maps the `in`/`out` keywords; anything else is invariant.
func ParseVariance(s string) Variance {
	switch s {
	case "out":
		return Out
	case "in":
		return In
	}
	return Invariant
}

// Argument is one type argument. A nil Type is the star projection.
type Argument struct {
	Type     Type
	Variance Variance
}

// Star is the `*` projection.
var Star = Argument{}

func (a Argument) IsStar() bool { return a.Type == nil }

func (a Argument) Render(qualified bool) string {
	if a.Type == nil {
		return "*"
	}
	if a.Variance != Invariant {
		return a.Variance.String() + " " + a.Type.Render(qualified)
	}
	return a.Type.Render(qualified)
}

// Substitution maps type parameter names to replacement types.
type Substitution map[string]Type

// Class is a class, interface or object type, possibly generic.
type Class struct {
	FQName    string
	Arguments []Argument
	Nullable  bool
	// Symbol is the declaring class when it is known locally.
	Symbol *symbol.Class
}

// NewClass builds a non-null class type with invariant arguments.
func NewClass(fq string, args ...Type) *Class {
	c := &Class{FQName: fq}
	for _, a := range args {
		c.Arguments = append(c.Arguments, Argument{Type: a})
	}
	return c
}

func (*Class) isType() {}

func (c *Class) SimpleName() string {
	if i := strings.LastIndexByte(c.FQName, '.'); i >= 0 {
		return c.FQName[i+1:]
	}
	return c.FQName
}

func (c *Class) IsNullable() bool { return c.Nullable }

func (c *Class) HasError() bool {
	for _, a := range c.Arguments {
		if a.Type != nil && a.Type.HasError() {
			return true
		}
	}
	return false
}

func (c *Class) WithNullable(nullable bool) Type {
	if c.Nullable == nullable {
		return c
	}
	cp := *c
	cp.Nullable = nullable
	return &cp
}

func (c *Class) Substitute(s Substitution) Type {
	if len(c.Arguments) == 0 || len(s) == 0 {
		return c
	}
	cp := *c
	cp.Arguments = make([]Argument, len(c.Arguments))
	for i, a := range c.Arguments {
		if a.Type != nil {
			a.Type = a.Type.Substitute(s)
		}
		cp.Arguments[i] = a
	}
	return &cp
}

// Arg returns the i-th argument type, or nil when absent or a star.
func (c *Class) Arg(i int) Type {
	if i < 0 || i >= len(c.Arguments) {
		return nil
	}
	return c.Arguments[i].Type
}

func (c *Class) Render(qualified bool) string {
	var b strings.Builder
	if qualified {
		b.WriteString(c.FQName)
	} else {
		b.WriteString(c.SimpleName())
	}
	if len(c.Arguments) > 0 {
		b.WriteByte('<')
		for i, a := range c.Arguments {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(a.Render(qualified))
		}
		b.WriteByte('>')
	}
	if c.Nullable {
		b.WriteByte('?')
	}
	return b.String()
}

func (c *Class) String() string { return c.Render(false) }

// PrimitiveKind enumerates the primitive types.
type PrimitiveKind uint8

const (
	Byte PrimitiveKind = iota
	Short
	Int
	Long
	Float
	Double
	Boolean
	Char
)

var primitiveNames = [...]string{"Byte", "Short", "Int", "Long", "Float", "Double", "Boolean", "Char"}

func (k PrimitiveKind) String() string { return primitiveNames[k] }

func (k PrimitiveKind) IsNumeric() bool       { return k != Boolean && k != Char }
func (k PrimitiveKind) IsIntegral() bool      { return k <= Long }
func (k PrimitiveKind) IsFloatingPoint() bool { return k == Float || k == Double }

// BitWidth is the storage width used by numeric widening.
func (k PrimitiveKind) BitWidth() int {
	switch k {
	case Byte:
		return 8
	case Short, Char:
		return 16
	case Int, Float:
		return 32
	case Long, Double:
		return 64
	}
	return 1
}

// Primitive is one of the eight primitive types.
type Primitive struct {
	Kind     PrimitiveKind
	Nullable bool
}

func (*Primitive) isType() {}

// FQName is the boxed class name, e.g. kotlin.Int.
func (p *Primitive) FQName() string { return "kotlin." + p.Kind.String() }

func (p *Primitive) IsNullable() bool           { return p.Nullable }
func (p *Primitive) HasError() bool             { return false }
func (p *Primitive) Substitute(Substitution) Type { return p }

func (p *Primitive) WithNullable(nullable bool) Type {
	if p.Nullable == nullable {
		return p
	}
	return &Primitive{Kind: p.Kind, Nullable: nullable}
}

func (p *Primitive) Render(bool) string {
	if p.Nullable {
		return p.Kind.String() + "?"
	}
	return p.Kind.String()
}

func (p *Primitive) String() string { return p.Render(false) }

// Boxed returns the class form of p.
func (p *Primitive) Boxed() *Class {
	return &Class{FQName: p.FQName(), Nullable: p.Nullable}
}

// Function is a function type such as `Int.(String) -> Unit`.
type Function struct {
	Parameters []Type
	Return     Type
	Receiver   Type
	Suspend    bool
	Nullable   bool
}

func (*Function) isType() {}

func (f *Function) Arity() int           { return len(f.Parameters) }
func (f *Function) IsExtension() bool    { return f.Receiver != nil }
func (f *Function) IsNullable() bool     { return f.Nullable }

func (f *Function) HasError() bool {
	if f.Return != nil && f.Return.HasError() {
		return true
	}
	if f.Receiver != nil && f.Receiver.HasError() {
		return true
	}
	for _, p := range f.Parameters {
		if p.HasError() {
			return true
		}
	}
	return false
}

func (f *Function) WithNullable(nullable bool) Type {
	if f.Nullable == nullable {
		return f
	}
	cp := *f
	cp.Nullable = nullable
	return &cp
}

func (f *Function) Substitute(s Substitution) Type {
	if len(s) == 0 {
		return f
	}
	cp := *f
	cp.Parameters = make([]Type, len(f.Parameters))
	for i, p := range f.Parameters {
		cp.Parameters[i] = p.Substitute(s)
	}
	if f.Return != nil {
		cp.Return = f.Return.Substitute(s)
	}
	if f.Receiver != nil {
		cp.Receiver = f.Receiver.Substitute(s)
	}
	return &cp
}

func (f *Function) Render(qualified bool) string {
	var b strings.Builder
	if f.Nullable {
		b.WriteByte('(')
	}
	if f.Suspend {
		b.WriteString("suspend ")
	}
	if f.Receiver != nil {
		b.WriteString(f.Receiver.Render(qualified))
		b.WriteByte('.')
	}
	b.WriteByte('(')
	for i, p := range f.Parameters {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(p.Render(qualified))
	}
	b.WriteString(") -> ")
	if f.Return != nil {
		b.WriteString(f.Return.Render(qualified))
	} else {
		b.WriteString("Unit")
	}
	if f.Nullable {
		b.WriteString(")?")
	}
	return b.String()
}

func (f *Function) String() string { return f.Render(false) }

// TypeParam is an unsubstituted type variable.
type TypeParam struct {
	Name     string
	Bounds   []Type
	Variance Variance
	Nullable bool
	Symbol   *symbol.TypeParameter
}

func (*TypeParam) isType() {}

// Bound is the first declared bound, or Any? when there is none.
func (t *TypeParam) Bound() Type {
	if len(t.Bounds) > 0 {
		return t.Bounds[0]
	}
	return AnyNullable
}

func (t *TypeParam) IsNullable() bool { return t.Nullable }
func (t *TypeParam) HasError() bool   { return false }

func (t *TypeParam) WithNullable(nullable bool) Type {
	if t.Nullable == nullable {
		return t
	}
	cp := *t
	cp.Nullable = nullable
	return &cp
}

func (t *TypeParam) Substitute(s Substitution) Type {
	r, ok := s[t.Name]
	if !ok || r == nil {
		return t
	}
	if t.Nullable {
		return r.WithNullable(true)
	}
	return r
}

func (t *TypeParam) Render(bool) string {
	if t.Nullable {
		return t.Name + "?"
	}
	return t.Name
}

func (t *TypeParam) String() string { return t.Render(false) }

// Error stands in for a type that could not be determined. It is
// compatible with every type.
type Error struct {
	Message  string
	Nullable bool
}

// circularPrefix marks error types produced while a declaration's type was
// already being computed.
const circularPrefix = "Circular:"

// ErrorOf returns an error type carrying msg.
func ErrorOf(msg string) *Error { return &Error{Message: msg} }

// Unresolved is the error type for a name that did not resolve.
func Unresolved(name string) *Error { return &Error{Message: "Unresolved type: " + name} }

// Circular is the error type for a self-referential declaration.
func Circular(name string) *Error { return &Error{Message: circularPrefix + " " + name} }

// IsCircular reports whether t is the error type of a dependency cycle.
func IsCircular(t Type) bool {
	e, ok := t.(*Error)
	return ok && strings.HasPrefix(e.Message, circularPrefix)
}

func (*Error) isType() {}

func (e *Error) IsNullable() bool             { return e.Nullable }
func (e *Error) HasError() bool               { return true }
func (e *Error) Substitute(Substitution) Type { return e }

func (e *Error) WithNullable(nullable bool) Type {
	if e.Nullable == nullable {
		return e
	}
	return &Error{Message: e.Message, Nullable: nullable}
}

func (e *Error) Render(bool) string { return "<ERROR: " + e.Message + ">" }
func (e *Error) String() string     { return e.Render(false) }

// IsError reports whether t is nil or an error type.
func IsError(t Type) bool {
	if t == nil {
		return true
	}
	_, ok := t.(*Error)
	return ok
}

// FQNameOf returns the class name of a class or primitive type, "" otherwise.
func FQNameOf(t Type) string {
	switch v := t.(type) {
	case *Class:
		return v.FQName
	case *Primitive:
		return v.FQName()
	}
	return ""
}

func IsNothing(t Type) bool { return FQNameOf(t) == FQNothing }
func IsUnit(t Type) bool    { return FQNameOf(t) == FQUnit }
func IsAny(t Type) bool     { return FQNameOf(t) == FQAny }

// IsBoolean accepts both the primitive and its boxed class.
func IsBoolean(t Type) bool { return FQNameOf(t) == "kotlin.Boolean" }

// NonNull drops nullability; nil stays nil.
func NonNull(t Type) Type {
	if t == nil {
		return nil
	}
	return t.WithNullable(false)
}

// Render prints t, or "<unknown>" for nil.
func Render(t Type) string {
	if t == nil {
		return "<unknown>"
	}
	return t.Render(false)
}
