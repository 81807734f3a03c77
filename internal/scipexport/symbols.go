package scipexport

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/sourcegraph/scip/bindings/go/scip"

	"github.com/jward/ksema/internal/symbol"
)

// schemePrefix is prepended to every global symbol: scheme, manager, and
// blank package name and version.
const schemePrefix = "scip-kotlin maven . . "

// namer assigns SCIP symbols within one document. Locals are numbered in
// the order they are first seen.
type namer struct {
	table  *symbol.Table
	locals map[symbol.Symbol]int
}

func newNamer(t *symbol.Table) *namer {
	return &namer{table: t, locals: make(map[symbol.Symbol]int)}
}

// Symbol returns the SCIP symbol for sym.
func (n *namer) Symbol(sym symbol.Symbol) string {
	if sym == nil {
		return ""
	}
	if desc := n.descriptor(sym); desc != "" {
		return schemePrefix + desc
	}
	id, ok := n.locals[sym]
	if !ok {
		id = len(n.locals)
		n.locals[sym] = id
	}
	return fmt.Sprintf("local %d", id)
}

// descriptor builds the descriptor chain, empty for symbols with no global
// name such as local variables and lambda parameters.
func (n *namer) descriptor(sym symbol.Symbol) string {
	d := sym.Decl()
	switch s := sym.(type) {
	case *symbol.Parameter:
		owner := n.owner(d)
		if owner == nil {
			return ""
		}
		if od := n.descriptor(owner); od != "" {
			return od + "(" + escape(d.Name) + ")"
		}
		return ""
	case *symbol.TypeParameter:
		owner := n.owner(d)
		if owner == nil {
			return ""
		}
		if od := n.descriptor(owner); od != "" {
			return od + "[" + escape(d.Name) + "]"
		}
		return ""
	case *symbol.Package:
		return packagePath(symbol.QualifiedName(s))
	}

	if !symbol.IsSynthetic(sym) && d.QualifiedName == "" {
		return ""
	}
	fq := symbol.QualifiedName(sym)
	if fq == "" {
		return ""
	}
	pkg, rest := n.split(sym, fq)
	segs := strings.Split(rest, ".")
	var b strings.Builder
	b.WriteString(packagePath(pkg))
	for _, seg := range segs[:len(segs)-1] {
		b.WriteString(escape(seg))
		b.WriteByte('#')
	}
	last := segs[len(segs)-1]
	switch s := sym.(type) {
	case *symbol.Class, *symbol.TypeAlias:
		b.WriteString(escape(last))
		b.WriteByte('#')
	case *symbol.Function:
		if s.IsConstructor {
			last = "<init>"
		}
		b.WriteString(escape(last))
		b.WriteString("().")
	default:
		b.WriteString(escape(last))
		b.WriteByte('.')
	}
	return b.String()
}

// split separates a qualified name into its package and the declaration
// path inside it. Source symbols use the file's package; index symbols fall
// back to treating the leading lowercase segments as the package.
func (n *namer) split(sym symbol.Symbol, fq string) (pkg, rest string) {
	if !symbol.IsSynthetic(sym) && n.table != nil {
		p := n.table.PackageName
		if p == "" {
			return "", fq
		}
		if strings.HasPrefix(fq, p+".") {
			return p, fq[len(p)+1:]
		}
	}
	segs := strings.Split(fq, ".")
	i := 0
	for i < len(segs)-1 && !startsUpper(segs[i]) {
		i++
	}
	return strings.Join(segs[:i], "."), strings.Join(segs[i:], ".")
}

// owner is the declaration whose scope contains d.
func (n *namer) owner(d *symbol.Declaration) symbol.Symbol {
	if n.table == nil {
		return nil
	}
	for s := n.table.Scope(d.Scope); s != nil; s = s.ParentScope() {
		if s.Owner != nil && s.Owner.Decl() != d {
			return s.Owner
		}
	}
	return nil
}

func packagePath(pkg string) string {
	if pkg == "" {
		return ""
	}
	var b strings.Builder
	for _, seg := range strings.Split(pkg, ".") {
		b.WriteString(escape(seg))
		b.WriteByte('/')
	}
	return b.String()
}

// escape wraps names that are not plain identifiers in backticks.
func escape(name string) string {
	simple := name != ""
	for _, r := range name {
		if !(r == '_' || r == '+' || r == '-' || r == '$' || unicode.IsLetter(r) || unicode.IsDigit(r)) {
			simple = false
			break
		}
	}
	if simple {
		return name
	}
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

func startsUpper(s string) bool {
	for _, r := range s {
		return unicode.IsUpper(r)
	}
	return false
}

func kindOf(sym symbol.Symbol) scip.SymbolInformation_Kind {
	switch s := sym.(type) {
	case *symbol.Class:
		switch s.ClassKind {
		case symbol.ClassKindInterface:
			return scip.SymbolInformation_Interface
		case symbol.ClassKindObject, symbol.ClassKindCompanion:
			return scip.SymbolInformation_Object
		case symbol.ClassKindEnumClass:
			return scip.SymbolInformation_Enum
		case symbol.ClassKindEnumEntry:
			return scip.SymbolInformation_EnumMember
		}
		return scip.SymbolInformation_Class
	case *symbol.Function:
		switch {
		case s.IsConstructor:
			return scip.SymbolInformation_Constructor
		case s.Container != "":
			return scip.SymbolInformation_Method
		}
		return scip.SymbolInformation_Function
	case *symbol.Property:
		if s.Container == "" && s.QualifiedName == "" {
			return scip.SymbolInformation_Variable
		}
		return scip.SymbolInformation_Property
	case *symbol.Parameter:
		return scip.SymbolInformation_Parameter
	case *symbol.TypeParameter:
		return scip.SymbolInformation_TypeParameter
	case *symbol.TypeAlias:
		return scip.SymbolInformation_TypeAlias
	case *symbol.Package:
		return scip.SymbolInformation_Package
	}
	return scip.SymbolInformation_UnspecifiedKind
}
