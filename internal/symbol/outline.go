package symbol

import "github.com/jward/ksema/internal/syntax"

// OutlineKind mirrors the document-symbol kinds editors display.
type OutlineKind string

const (
	OutlineClass         OutlineKind = "class"
	OutlineInterface     OutlineKind = "interface"
	OutlineEnum          OutlineKind = "enum"
	OutlineEnumMember    OutlineKind = "enum_member"
	OutlineObject        OutlineKind = "object"
	OutlineStruct        OutlineKind = "struct"
	OutlineFunction      OutlineKind = "function"
	OutlineMethod        OutlineKind = "method"
	OutlineConstructor   OutlineKind = "constructor"
	OutlineProperty      OutlineKind = "property"
	OutlineField         OutlineKind = "field"
	OutlineVariable      OutlineKind = "variable"
	OutlineTypeParameter OutlineKind = "type_parameter"
)

// OutlineSymbol is one node of the hierarchical document outline.
type OutlineSymbol struct {
	Name           string          `json:"name"`
	Kind           OutlineKind     `json:"kind"`
	Detail         string          `json:"detail,omitempty"`
	Range          syntax.Range    `json:"range"`
	SelectionRange syntax.Range    `json:"selectionRange"`
	Children       []OutlineSymbol `json:"children,omitempty"`
}

// Outline derives the document outline from the file's top-level symbols.
func (t *Table) Outline() []OutlineSymbol {
	var out []OutlineSymbol
	for _, sym := range t.TopLevelSymbols() {
		if item, ok := t.outlineItem(sym, false); ok {
			out = append(out, item)
		}
	}
	return out
}

func (t *Table) outlineItem(sym Symbol, member bool) (OutlineSymbol, bool) {
	if IsSynthetic(sym) {
		return OutlineSymbol{}, false
	}
	d := sym.Decl()
	item := OutlineSymbol{
		Name:           d.Name,
		Range:          d.Location.Range,
		SelectionRange: d.Location.NameRange,
	}
	switch s := sym.(type) {
	case *Class:
		item.Kind = classOutlineKind(s)
		item.Detail = s.ClassKind.String()
		for _, m := range t.Members(s) {
			if child, ok := t.outlineItem(m, true); ok {
				item.Children = append(item.Children, child)
			}
		}
		if s.Companion != nil && !IsSynthetic(s.Companion) && !t.isMember(s, s.Companion) {
			if child, ok := t.outlineItem(s.Companion, true); ok {
				item.Children = append(item.Children, child)
			}
		}
	case *Function:
		switch {
		case s.IsConstructor:
			item.Kind = OutlineConstructor
		case member:
			item.Kind = OutlineMethod
		default:
			item.Kind = OutlineFunction
		}
		item.Detail = s.Signature()
	case *Property:
		switch {
		case member:
			item.Kind = OutlineField
		case s.Modifiers.Has(FlagConst) || !s.IsVar:
			item.Kind = OutlineProperty
		default:
			item.Kind = OutlineVariable
		}
		if s.Type != nil {
			item.Detail = s.Type.Render()
		}
	case *TypeAlias:
		item.Kind = OutlineClass
		if s.Underlying != nil {
			item.Detail = s.Underlying.Render()
		}
	case *TypeParameter:
		item.Kind = OutlineTypeParameter
	case *Parameter, *Package:
		return OutlineSymbol{}, false
	}
	return item, true
}

func (t *Table) isMember(c *Class, sym Symbol) bool {
	for _, m := range t.Members(c) {
		if m == sym {
			return true
		}
	}
	return false
}

func classOutlineKind(c *Class) OutlineKind {
	switch c.ClassKind {
	case ClassKindInterface:
		return OutlineInterface
	case ClassKindEnumClass:
		return OutlineEnum
	case ClassKindEnumEntry:
		return OutlineEnumMember
	case ClassKindObject, ClassKindCompanion:
		return OutlineObject
	case ClassKindData:
		return OutlineStruct
	}
	return OutlineClass
}
