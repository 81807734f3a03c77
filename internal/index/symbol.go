// Package index holds the symbol indexes consulted for names declared outside
// the file under analysis: the Kotlin standard library, classpath
// dependencies, and the other files of the project.
package index

import (
	"strings"

	"github.com/jward/ksema/internal/symbol"
)

// Kind classifies an indexed symbol.
type Kind string

const (
	KindClass           Kind = "class"
	KindInterface       Kind = "interface"
	KindObject          Kind = "object"
	KindEnumClass       Kind = "enum_class"
	KindAnnotationClass Kind = "annotation_class"
	KindDataClass       Kind = "data_class"
	KindValueClass      Kind = "value_class"
	KindFunction        Kind = "function"
	KindProperty        Kind = "property"
	KindTypeAlias       Kind = "type_alias"
	KindConstructor     Kind = "constructor"
	KindEnumEntry       Kind = "enum_entry"
)

// IsClass reports whether k names a class-like declaration.
func (k Kind) IsClass() bool {
	switch k {
	case KindClass, KindInterface, KindObject, KindEnumClass,
		KindAnnotationClass, KindDataClass, KindValueClass, KindEnumEntry:
		return true
	}
	return false
}

func (k Kind) IsCallable() bool {
	return k == KindFunction || k == KindConstructor
}

// ParseKind accepts both the snake_case names above and the upper-case
// names used by generated stdlib indexes. Unknown names map to KindClass.
func ParseKind(s string) Kind {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	switch k {
	case KindClass, KindInterface, KindObject, KindEnumClass, KindAnnotationClass,
		KindDataClass, KindValueClass, KindFunction, KindProperty, KindTypeAlias,
		KindConstructor, KindEnumEntry:
		return k
	case "enum":
		return KindEnumClass
	case "typealias":
		return KindTypeAlias
	case "fun":
		return KindFunction
	}
	return KindClass
}

// KindOf maps a symbol's kind onto the index vocabulary.
func KindOf(sym symbol.Symbol) Kind {
	switch s := sym.(type) {
	case *symbol.Class:
		switch s.ClassKind {
		case symbol.ClassKindInterface:
			return KindInterface
		case symbol.ClassKindObject, symbol.ClassKindCompanion:
			return KindObject
		case symbol.ClassKindEnumClass:
			return KindEnumClass
		case symbol.ClassKindEnumEntry:
			return KindEnumEntry
		case symbol.ClassKindAnnotation:
			return KindAnnotationClass
		case symbol.ClassKindData:
			return KindDataClass
		case symbol.ClassKindValue:
			return KindValueClass
		}
		return KindClass
	case *symbol.Function:
		if s.IsConstructor {
			return KindConstructor
		}
		return KindFunction
	case *symbol.Property:
		return KindProperty
	case *symbol.TypeAlias:
		return KindTypeAlias
	}
	return ""
}

// Param is an indexed function parameter.
type Param struct {
	Name       string `json:"name" yaml:"name"`
	Type       string `json:"type" yaml:"type"`
	HasDefault bool   `json:"default,omitempty" yaml:"default,omitempty"`
	Vararg     bool   `json:"vararg,omitempty" yaml:"vararg,omitempty"`
}

// Symbol is a lightweight record of a declaration known to an index. Type
// fields hold source text, e.g. "List<T>" or "(T) -> R".
type Symbol struct {
	Name            string
	FQName          string
	Kind            Kind
	Package         string
	ContainingClass string
	Visibility      string
	TypeParameters  []string
	Parameters      []Param
	ReturnType      string
	ReceiverType    string
	SuperTypes      []string
	FilePath        string
	StartLine       int
	StartCol        int
	EndLine         int
	EndCol          int
	Deprecated      bool
	DeprecationMsg  string
	IsAbstract      bool
	IsSealed        bool
	IsVar           bool
}

func (s Symbol) IsExtension() bool { return s.ReceiverType != "" }
func (s Symbol) IsMember() bool    { return s.ContainingClass != "" }
func (s Symbol) IsTopLevel() bool  { return s.ContainingClass == "" }

// ToSymbol converts the record into a synthetic symbol. Classes carry their
// fully qualified name in FQName; no member scope is attached, members are
// looked up through the index.
func (s Symbol) ToSymbol() symbol.Symbol {
	mods := symbol.Modifiers{Visibility: symbol.ParseVisibility(s.Visibility)}
	switch {
	case s.IsAbstract:
		mods.Modality = symbol.ModalityAbstract
	case s.IsSealed:
		mods.Modality = symbol.ModalitySealed
	}
	if s.Deprecated {
		mods.Annotations = append(mods.Annotations, "Deprecated")
	}
	decl := symbol.Declaration{Name: s.Name, QualifiedName: s.FQName, Modifiers: mods}

	switch {
	case s.Kind.IsClass():
		c := &symbol.Class{Declaration: decl, FQName: s.FQName, ClassKind: classKind(s.Kind)}
		c.TypeParameters = typeParams(s.TypeParameters)
		for _, st := range s.SuperTypes {
			if ref := symbol.ParseTypeReference(st); ref != nil {
				c.SuperTypes = append(c.SuperTypes, ref)
			}
		}
		return c
	case s.Kind.IsCallable():
		f := &symbol.Function{
			Declaration:    decl,
			TypeParameters: typeParams(s.TypeParameters),
			ReturnType:     symbol.ParseTypeReference(s.ReturnType),
			ReceiverType:   symbol.ParseTypeReference(s.ReceiverType),
			IsConstructor:  s.Kind == KindConstructor,
			BodyPresent:    !s.IsAbstract,
			Container:      s.ContainingClass,
		}
		for _, p := range s.Parameters {
			f.Parameters = append(f.Parameters, &symbol.Parameter{
				Declaration: symbol.Declaration{Name: p.Name},
				Type:        symbol.ParseTypeReference(p.Type),
				HasDefault:  p.HasDefault,
				IsVararg:    p.Vararg,
			})
		}
		return f
	case s.Kind == KindProperty:
		return &symbol.Property{
			Declaration:    decl,
			Type:           symbol.ParseTypeReference(s.ReturnType),
			ReceiverType:   symbol.ParseTypeReference(s.ReceiverType),
			IsVar:          s.IsVar,
			HasInitializer: !s.IsAbstract,
			Container:      s.ContainingClass,
		}
	case s.Kind == KindTypeAlias:
		return &symbol.TypeAlias{
			Declaration:    decl,
			TypeParameters: typeParams(s.TypeParameters),
			Underlying:     symbol.ParseTypeReference(s.ReturnType),
		}
	}
	return &symbol.Class{Declaration: decl, FQName: s.FQName}
}

func classKind(k Kind) symbol.ClassKind {
	switch k {
	case KindInterface:
		return symbol.ClassKindInterface
	case KindObject:
		return symbol.ClassKindObject
	case KindEnumClass:
		return symbol.ClassKindEnumClass
	case KindEnumEntry:
		return symbol.ClassKindEnumEntry
	case KindAnnotationClass:
		return symbol.ClassKindAnnotation
	case KindDataClass:
		return symbol.ClassKindData
	case KindValueClass:
		return symbol.ClassKindValue
	}
	return symbol.ClassKindClass
}

// ParseTypeParameter splits a declaration such as "reified out T : Bound"
// into its name, variance keyword and bound text.
func ParseTypeParameter(decl string) (name, variance, bound string, reified bool) {
	name, bound, _ = cutBound(decl)
	head := strings.Fields(decl)
	for _, w := range head {
		switch w {
		case "out", "in":
			if variance == "" {
				variance = w
			}
		case "reified":
			reified = true
		}
		if w == name || strings.HasPrefix(w, ":") {
			break
		}
	}
	return name, variance, bound, reified
}

// typeParams builds synthetic type parameters from "T" or "out T : Bound" text.
func typeParams(decls []string) []*symbol.TypeParameter {
	var out []*symbol.TypeParameter
	for _, d := range decls {
		name, variance, bound, reified := ParseTypeParameter(d)
		tp := &symbol.TypeParameter{
			Declaration: symbol.Declaration{Name: name},
			Variance:    variance,
			IsReified:   reified,
		}
		if ref := symbol.ParseTypeReference(bound); ref != nil {
			tp.Bounds = []*symbol.TypeReference{ref}
		}
		out = append(out, tp)
	}
	return out
}

// FromSymbol records a declaration of a source file in index form. The
// second result is false for symbols the index does not hold.
func FromSymbol(sym symbol.Symbol, pkg, filePath string) (Symbol, bool) {
	kind := KindOf(sym)
	if kind == "" {
		return Symbol{}, false
	}
	d := sym.Decl()
	out := Symbol{
		Name:       d.Name,
		FQName:     symbol.QualifiedName(sym),
		Kind:       kind,
		Package:    pkg,
		Visibility: d.Modifiers.Visibility.String(),
		FilePath:   filePath,
		StartLine:  d.Location.Range.Start.Line,
		StartCol:   d.Location.Range.Start.Column,
		EndLine:    d.Location.Range.End.Line,
		EndCol:     d.Location.Range.End.Column,
		Deprecated: d.Modifiers.HasAnnotation("Deprecated"),
		IsAbstract: d.Modifiers.IsAbstract(),
		IsSealed:   d.Modifiers.IsSealed(),
	}
	switch s := sym.(type) {
	case *symbol.Class:
		out.IsAbstract = out.IsAbstract || s.IsInterface()
		out.TypeParameters = typeParamNames(s.TypeParameters)
		for _, st := range s.SuperTypes {
			out.SuperTypes = append(out.SuperTypes, st.Render())
		}
		out.ContainingClass = enclosingName(out.FQName, d.Name)
	case *symbol.Function:
		out.ContainingClass = s.Container
		out.TypeParameters = typeParamNames(s.TypeParameters)
		out.ReturnType = s.ReturnType.Render()
		out.ReceiverType = s.ReceiverType.Render()
		for _, p := range s.Parameters {
			out.Parameters = append(out.Parameters, Param{
				Name:       p.Name,
				Type:       p.Type.Render(),
				HasDefault: p.HasDefault,
				Vararg:     p.IsVararg,
			})
		}
	case *symbol.Property:
		out.ContainingClass = s.Container
		out.ReturnType = s.Type.Render()
		out.ReceiverType = s.ReceiverType.Render()
		out.IsVar = s.IsVar
	case *symbol.TypeAlias:
		out.TypeParameters = typeParamNames(s.TypeParameters)
		out.ReturnType = s.Underlying.Render()
	}
	return out, true
}

// FromTable records every non-local declaration of a file.
func FromTable(t *symbol.Table) []Symbol {
	var out []Symbol
	for _, sym := range t.Symbols() {
		if sym.Decl().QualifiedName == "" {
			continue
		}
		if rec, ok := FromSymbol(sym, t.PackageName, t.FilePath); ok {
			out = append(out, rec)
		}
	}
	return out
}

// enclosingName returns the qualified name of the class enclosing a nested
// class, or "" for top-level ones. Package prefixes are lowercase by
// convention, which is what separates them from enclosing classes.
func enclosingName(fq, name string) string {
	outer := strings.TrimSuffix(strings.TrimSuffix(fq, name), ".")
	if outer == "" {
		return ""
	}
	last := outer
	if i := strings.LastIndexByte(outer, '.'); i >= 0 {
		last = outer[i+1:]
	}
	if last == "" || last[0] < 'A' || last[0] > 'Z' {
		return ""
	}
	return outer
}

func typeParamNames(tps []*symbol.TypeParameter) []string {
	var out []string
	for _, tp := range tps {
		name := tp.Name
		if tp.Variance != "" {
			name = tp.Variance + " " + name
		}
		if len(tp.Bounds) > 0 {
			name += " : " + tp.Bounds[0].Render()
		}
		out = append(out, name)
	}
	return out
}

// BaseName strips generic arguments and nullability from a type string:
// "List<T>?" becomes "List".
func BaseName(t string) string {
	t = strings.TrimSpace(t)
	if i := strings.IndexByte(t, '<'); i >= 0 {
		t = t[:i]
	}
	return strings.TrimSuffix(strings.TrimSpace(t), "?")
}

// SimpleName returns the last dotted segment of a qualified name.
func SimpleName(fq string) string {
	if i := strings.LastIndexByte(fq, '.'); i >= 0 {
		return fq[i+1:]
	}
	return fq
}

// PackageOf returns the dotted prefix of fq, or "" when it has none.
func PackageOf(fq string) string {
	if i := strings.LastIndexByte(fq, '.'); i >= 0 {
		return fq[:i]
	}
	return ""
}
