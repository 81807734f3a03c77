package symbol

import (
	"sort"
	"strings"
)

type Visibility uint8

const (
	VisibilityDefault Visibility = iota
	VisibilityPublic
	VisibilityPrivate
	VisibilityProtected
	VisibilityInternal
)

func (v Visibility) String() string {
	switch v {
	case VisibilityPublic:
		return "public"
	case VisibilityPrivate:
		return "private"
	case VisibilityProtected:
		return "protected"
	case VisibilityInternal:
		return "internal"
	}
	return "public"
}

// ParseVisibility maps a keyword to a Visibility; unknown keywords are default.
func ParseVisibility(s string) Visibility {
	switch s {
	case "public":
		return VisibilityPublic
	case "private":
		return VisibilityPrivate
	case "protected":
		return VisibilityProtected
	case "internal":
		return VisibilityInternal
	}
	return VisibilityDefault
}

type Modality uint8

const (
	ModalityDefault Modality = iota
	ModalityFinal
	ModalityOpen
	ModalityAbstract
	ModalitySealed
)

func (m Modality) String() string {
	switch m {
	case ModalityOpen:
		return "open"
	case ModalityAbstract:
		return "abstract"
	case ModalitySealed:
		return "sealed"
	}
	return "final"
}

// Flag is a bitset of the remaining declaration modifiers.
type Flag uint32

const (
	FlagInline Flag = 1 << iota
	FlagSuspend
	FlagTailrec
	FlagOperator
	FlagInfix
	FlagExternal
	FlagConst
	FlagLateinit
	FlagData
	FlagValue
	FlagInner
	FlagCompanion
	FlagAnnotation
	FlagEnum
	FlagFunInterface
	FlagVararg
	FlagCrossinline
	FlagNoinline
	FlagReified
	FlagOverride
	FlagExpect
	FlagActual
)

var flagNames = map[string]Flag{
	"inline":      FlagInline,
	"suspend":     FlagSuspend,
	"tailrec":     FlagTailrec,
	"operator":    FlagOperator,
	"infix":       FlagInfix,
	"external":    FlagExternal,
	"const":       FlagConst,
	"lateinit":    FlagLateinit,
	"data":        FlagData,
	"value":       FlagValue,
	"inner":       FlagInner,
	"companion":   FlagCompanion,
	"annotation":  FlagAnnotation,
	"enum":        FlagEnum,
	"vararg":      FlagVararg,
	"crossinline": FlagCrossinline,
	"noinline":    FlagNoinline,
	"reified":     FlagReified,
	"override":    FlagOverride,
	"expect":      FlagExpect,
	"actual":      FlagActual,
}

// Modifiers is the parsed modifier list of a declaration.
type Modifiers struct {
	Visibility  Visibility
	Modality    Modality
	Flags       Flag
	Annotations []string
}

func (m Modifiers) Has(f Flag) bool { return m.Flags&f != 0 }

func (m Modifiers) IsAbstract() bool { return m.Modality == ModalityAbstract }
func (m Modifiers) IsOpen() bool     { return m.Modality == ModalityOpen }
func (m Modifiers) IsSealed() bool   { return m.Modality == ModalitySealed }
func (m Modifiers) IsPrivate() bool  { return m.Visibility == VisibilityPrivate }

// HasAnnotation reports whether an annotation with the given simple name is present.
func (m Modifiers) HasAnnotation(name string) bool {
	for _, a := range m.Annotations {
		if a == name {
			return true
		}
	}
	return false
}

// With returns a copy of m with f set.
func (m Modifiers) With(f Flag) Modifiers {
	m.Flags |= f
	return m
}

// Apply records a single modifier keyword. Annotations are passed with their
// leading '@'.
func (m *Modifiers) Apply(keyword string) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return
	}
	if strings.HasPrefix(keyword, "@") {
		m.Annotations = append(m.Annotations, annotationName(keyword))
		return
	}
	switch keyword {
	case "public", "private", "protected", "internal":
		m.Visibility = ParseVisibility(keyword)
	case "final":
		m.Modality = ModalityFinal
	case "open":
		m.Modality = ModalityOpen
	case "abstract":
		m.Modality = ModalityAbstract
	case "sealed":
		m.Modality = ModalitySealed
	case "in", "out":
		// variance is tracked on type parameters, not as a modifier
	default:
		if f, ok := flagNames[keyword]; ok {
			m.Flags |= f
		}
	}
}

// ParseModifiers builds Modifiers from a keyword list.
func ParseModifiers(keywords ...string) Modifiers {
	var m Modifiers
	for _, k := range keywords {
		m.Apply(k)
	}
	return m
}

func annotationName(text string) string {
	name := strings.TrimPrefix(text, "@")
	if i := strings.IndexAny(name, "(< \t\n"); i >= 0 {
		name = name[:i]
	}
	if i := strings.LastIndexByte(name, ':'); i >= 0 {
		name = name[i+1:]
	}
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		name = name[i+1:]
	}
	return name
}

// Keywords renders m back to a sorted keyword list, used for storage and scripts.
func (m Modifiers) Keywords() []string {
	var out []string
	if m.Visibility != VisibilityDefault {
		out = append(out, m.Visibility.String())
	}
	if m.Modality != ModalityDefault {
		out = append(out, m.Modality.String())
	}
	for name, f := range flagNames {
		if m.Has(f) {
			out = append(out, name)
		}
	}
	if m.Has(FlagFunInterface) {
		out = append(out, "fun")
	}
	sort.Strings(out)
	return out
}

// ClassKind distinguishes the flavours of class-like declarations.
type ClassKind uint8

const (
	ClassKindClass ClassKind = iota
	ClassKindInterface
	ClassKindObject
	ClassKindEnumClass
	ClassKindEnumEntry
	ClassKindAnnotation
	ClassKindData
	ClassKindValue
	ClassKindCompanion
)

func (k ClassKind) String() string {
	switch k {
	case ClassKindInterface:
		return "interface"
	case ClassKindObject:
		return "object"
	case ClassKindEnumClass:
		return "enum class"
	case ClassKindEnumEntry:
		return "enum entry"
	case ClassKindAnnotation:
		return "annotation class"
	case ClassKindData:
		return "data class"
	case ClassKindValue:
		return "value class"
	case ClassKindCompanion:
		return "companion object"
	}
	return "class"
}

// IsObject reports whether the kind declares a singleton instance.
func (k ClassKind) IsObject() bool {
	return k == ClassKindObject || k == ClassKindCompanion || k == ClassKindEnumEntry
}
