// Package symbol holds the declaration model of a Kotlin file: symbols,
// modifiers, type references, the lexical scope tree, the per-file symbol
// table, and the builder that populates them from a syntax tree.
package symbol

import (
	"strings"

	"github.com/jward/ksema/internal/syntax"
)

// Kind classifies a Symbol.
type Kind uint8

const (
	KindClass Kind = iota
	KindFunction
	KindProperty
	KindParameter
	KindTypeParameter
	KindTypeAlias
	KindPackage
)

func (k Kind) String() string {
	switch k {
	case KindClass:
		return "class"
	case KindFunction:
		return "function"
	case KindProperty:
		return "property"
	case KindParameter:
		return "parameter"
	case KindTypeParameter:
		return "type_parameter"
	case KindTypeAlias:
		return "type_alias"
	case KindPackage:
		return "package"
	}
	return "unknown"
}

// Location is where a symbol is declared. An empty FilePath marks a
// synthetic symbol produced from an index or by the analyzer itself.
type Location struct {
	FilePath  string
	Range     syntax.Range
	NameRange syntax.Range
}

func (l Location) IsSynthetic() bool { return l.FilePath == "" }

// Declaration is the data shared by every symbol variant.
type Declaration struct {
	Name          string
	QualifiedName string
	Location      Location
	Modifiers     Modifiers
	// Scope is the scope the symbol is defined in. It is a handle, not an
	// owning reference.
	Scope ScopeID
	// Node is the declaring syntax node; nil for synthetic symbols.
	Node *syntax.Node
}

func (d *Declaration) Decl() *Declaration { return d }

// Symbol is implemented by *Class, *Function, *Property, *Parameter,
// *TypeParameter, *TypeAlias and *Package.
type Symbol interface {
	Decl() *Declaration
	Kind() Kind
	isSymbol()
}

// Class models classes, interfaces, objects, enums and their entries.
type Class struct {
	Declaration
	ClassKind          ClassKind
	TypeParameters     []*TypeParameter
	SuperTypes         []*TypeReference
	Members            ScopeID
	PrimaryConstructor *Function
	Constructors       []*Function
	Companion          *Class
	// FQName is set for classes materialized from an index.
	FQName string
}

func (*Class) Kind() Kind { return KindClass }
func (*Class) isSymbol()  {}

func (c *Class) IsInterface() bool { return c.ClassKind == ClassKindInterface }
func (c *Class) IsEnum() bool      { return c.ClassKind == ClassKindEnumClass }
func (c *Class) IsObject() bool    { return c.ClassKind.IsObject() }

// IsAbstract reports whether instances cannot be created directly.
func (c *Class) IsAbstract() bool {
	return c.Modifiers.IsAbstract() || c.Modifiers.IsSealed() || c.IsInterface()
}

// FullName returns the fully qualified name, falling back to the simple name.
func (c *Class) FullName() string {
	if c.FQName != "" {
		return c.FQName
	}
	if c.QualifiedName != "" {
		return c.QualifiedName
	}
	return c.Name
}

// Function models functions, constructors and property accessors.
type Function struct {
	Declaration
	Parameters     []*Parameter
	TypeParameters []*TypeParameter
	ReturnType     *TypeReference
	ReceiverType   *TypeReference
	Body           ScopeID
	IsConstructor  bool
	IsPrimary      bool
	// BodyPresent records whether a block or expression body was written.
	BodyPresent bool
	// Container is the fully qualified name of the declaring class, if any.
	Container string
}

func (*Function) Kind() Kind { return KindFunction }
func (*Function) isSymbol()  {}

func (f *Function) HasBody() bool     { return f.BodyPresent }
func (f *Function) IsExtension() bool { return f.ReceiverType != nil }
func (f *Function) IsAbstract() bool  { return f.Modifiers.IsAbstract() }

// ID identifies an overload: name plus erased parameter types.
func (f *Function) ID() string {
	var b strings.Builder
	b.WriteString(f.Name)
	b.WriteByte('(')
	for i, p := range f.Parameters {
		if i > 0 {
			b.WriteByte(',')
		}
		if p.Type == nil {
			b.WriteByte('_')
			continue
		}
		b.WriteString(p.Type.SimpleName())
		if p.IsVararg {
			b.WriteString("...")
		}
	}
	b.WriteByte(')')
	return b.String()
}

// RequiredParameterCount counts parameters without defaults, varargs excluded.
func (f *Function) RequiredParameterCount() int {
	n := 0
	for _, p := range f.Parameters {
		if !p.HasDefault && !p.IsVararg {
			n++
		}
	}
	return n
}

// Signature renders the function for messages, e.g. `fun foo(x: Int): String`.
func (f *Function) Signature() string {
	var b strings.Builder
	b.WriteString("fun ")
	if f.ReceiverType != nil {
		b.WriteString(f.ReceiverType.Render())
		b.WriteByte('.')
	}
	b.WriteString(f.Name)
	b.WriteByte('(')
	for i, p := range f.Parameters {
		if i > 0 {
			b.WriteString(", ")
		}
		if p.IsVararg {
			b.WriteString("vararg ")
		}
		b.WriteString(p.Name)
		if p.Type != nil {
			b.WriteString(": ")
			b.WriteString(p.Type.Render())
		}
	}
	b.WriteByte(')')
	if f.ReturnType != nil {
		b.WriteString(": ")
		b.WriteString(f.ReturnType.Render())
	}
	return b.String()
}

// Property models val/var declarations, including locals and constructor properties.
type Property struct {
	Declaration
	Type           *TypeReference
	TypeInferred   bool
	ReceiverType   *TypeReference
	Getter         *Function
	Setter         *Function
	IsVar          bool
	HasInitializer bool
	IsDelegated    bool
	// Initializer is the initializer expression; nil when absent or synthetic.
	Initializer *syntax.Node
	// Component is the 1-based position inside a destructuring declaration,
	// zero otherwise. Initializer then holds the destructured expression.
	Component int
	// LoopSource is the iterated expression of a for-loop variable.
	LoopSource *syntax.Node
	Container  string
}

func (*Property) Kind() Kind { return KindProperty }
func (*Property) isSymbol()  {}

func (p *Property) IsAbstract() bool { return p.Modifiers.IsAbstract() }

// HasImplementation reports whether the property provides a value in some form.
func (p *Property) HasImplementation() bool {
	return p.HasInitializer || p.IsDelegated || (p.Getter != nil && p.Getter.BodyPresent)
}

// Parameter models function, constructor, lambda and catch parameters.
type Parameter struct {
	Declaration
	// Type is the declared type; for varargs it is the element type.
	Type          *TypeReference
	HasDefault    bool
	IsVararg      bool
	IsCrossinline bool
	IsNoinline    bool
	Default       *syntax.Node
	// Implicit marks the synthesized `it` of a lambda.
	Implicit bool
}

func (*Parameter) Kind() Kind { return KindParameter }
func (*Parameter) isSymbol()  {}

var primitiveArrays = map[string]string{
	"Int":     "IntArray",
	"Long":    "LongArray",
	"Short":   "ShortArray",
	"Byte":    "ByteArray",
	"Float":   "FloatArray",
	"Double":  "DoubleArray",
	"Char":    "CharArray",
	"Boolean": "BooleanArray",
}

// ArrayType returns the caller-visible type of a vararg parameter.
func (p *Parameter) ArrayType() *TypeReference {
	return VarargArrayType(p.Type)
}

// VarargArrayType derives IntArray-style types for primitive elements and
// Array<T> otherwise.
func VarargArrayType(elem *TypeReference) *TypeReference {
	if elem == nil {
		return NewTypeRef("Array", NewTypeRef("Any").WithNullable(true))
	}
	if !elem.Nullable && elem.Function == nil && len(elem.Arguments) == 0 {
		name := strings.TrimPrefix(elem.Name, "kotlin.")
		if arr, ok := primitiveArrays[name]; ok {
			return NewTypeRef(arr)
		}
	}
	return NewTypeRef("Array", elem)
}

// TypeParameter models a generic parameter of a class or function.
type TypeParameter struct {
	Declaration
	Bounds    []*TypeReference
	Variance  string
	IsReified bool
}

func (*TypeParameter) Kind() Kind { return KindTypeParameter }
func (*TypeParameter) isSymbol()  {}

// TypeAlias models `typealias Name<T> = Underlying`.
type TypeAlias struct {
	Declaration
	TypeParameters []*TypeParameter
	Underlying     *TypeReference
}

func (*TypeAlias) Kind() Kind { return KindTypeAlias }
func (*TypeAlias) isSymbol()  {}

// Package models a package referenced by name.
type Package struct {
	Declaration
}

func (*Package) Kind() Kind { return KindPackage }
func (*Package) isSymbol()  {}

// Name returns a symbol's simple name; nil-safe.
func Name(s Symbol) string {
	if s == nil {
		return ""
	}
	return s.Decl().Name
}

// QualifiedName returns the symbol's fully qualified name when one is known.
func QualifiedName(s Symbol) string {
	if s == nil {
		return ""
	}
	if c, ok := s.(*Class); ok && c.FQName != "" {
		return c.FQName
	}
	if q := s.Decl().QualifiedName; q != "" {
		return q
	}
	return s.Decl().Name
}

// IsSynthetic reports whether s has no source declaration.
func IsSynthetic(s Symbol) bool {
	return s == nil || s.Decl().Location.IsSynthetic()
}

// AllFunctions reports whether every symbol in syms is a *Function.
func AllFunctions(syms []Symbol) bool {
	for _, s := range syms {
		if _, ok := s.(*Function); !ok {
			return false
		}
	}
	return len(syms) > 0
}
