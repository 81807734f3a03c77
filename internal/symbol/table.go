package symbol

import (
	"sort"
	"strings"

	"github.com/jward/ksema/internal/syntax"
)

// Import is one import directive of a file.
type Import struct {
	FQName string
	Alias  string
	Star   bool
	Range  syntax.Range
}

// SimpleName is the name the import binds in the file: the alias if present,
// otherwise the last segment. Star imports bind no single name.
func (i Import) SimpleName() string {
	if i.Alias != "" {
		return i.Alias
	}
	if i.Star {
		return ""
	}
	if idx := strings.LastIndexByte(i.FQName, '.'); idx >= 0 {
		return i.FQName[idx+1:]
	}
	return i.FQName
}

// ReferenceKind describes how a name is used at a reference site.
type ReferenceKind uint8

const (
	RefRead ReferenceKind = iota
	RefWrite
	RefCall
	RefType
	RefImport
)

func (k ReferenceKind) String() string {
	switch k {
	case RefWrite:
		return "write"
	case RefCall:
		return "call"
	case RefType:
		return "type"
	case RefImport:
		return "import"
	}
	return "read"
}

// Reference records a resolved use of a symbol.
type Reference struct {
	Range  syntax.Range
	Name   string
	Symbol Symbol
	Kind   ReferenceKind
}

// Table is the per-file result of symbol building.
type Table struct {
	FilePath     string
	PackageName  string
	PackageRange syntax.Range
	Tree         *ScopeTree
	FileScope    ScopeID
	Imports      []Import

	symbols    []Symbol
	references []Reference
	nodeScopes map[syntax.Key]ScopeID
	anonymous  map[syntax.Key]*Class
}

// NewTable creates an empty table with a file scope spanning r.
func NewTable(filePath string, r syntax.Range) *Table {
	tree := NewScopeTree()
	root := tree.NewRoot(ScopeFile, r)
	return &Table{
		FilePath:   filePath,
		Tree:       tree,
		FileScope:  root.ID,
		nodeScopes: make(map[syntax.Key]ScopeID),
		anonymous:  make(map[syntax.Key]*Class),
	}
}

func (t *Table) Root() *Scope { return t.Tree.Get(t.FileScope) }

func (t *Table) Scope(id ScopeID) *Scope { return t.Tree.Get(id) }

// Register adds sym to the position indexes. Synthetic symbols are ignored.
func (t *Table) Register(sym Symbol) {
	if sym == nil || IsSynthetic(sym) {
		return
	}
	t.symbols = append(t.symbols, sym)
}

// BindScope associates a syntax node with the scope created for it.
func (t *Table) BindScope(n *syntax.Node, id ScopeID) {
	if n != nil && id != NoScope {
		t.nodeScopes[n.Key()] = id
	}
}

// ScopeOf returns the scope created for exactly this node, if any.
func (t *Table) ScopeOf(n *syntax.Node) *Scope {
	if n == nil {
		return nil
	}
	if id, ok := t.nodeScopes[n.Key()]; ok {
		return t.Tree.Get(id)
	}
	return nil
}

// BindAnonymous records the synthetic class of an object literal.
func (t *Table) BindAnonymous(n *syntax.Node, c *Class) {
	if n != nil && c != nil {
		t.anonymous[n.Key()] = c
	}
}

func (t *Table) AnonymousClass(n *syntax.Node) *Class {
	if n == nil {
		return nil
	}
	return t.anonymous[n.Key()]
}

// RegisterReference records a resolved reference.
func (t *Table) RegisterReference(ref Reference) {
	t.references = append(t.references, ref)
}

// Symbols returns every registered symbol in registration order.
func (t *Table) Symbols() []Symbol {
	out := make([]Symbol, len(t.symbols))
	copy(out, t.symbols)
	return out
}

func (t *Table) References() []Reference {
	out := make([]Reference, len(t.references))
	copy(out, t.references)
	return out
}

// SymbolAt returns the declaration whose name covers pos, or failing that the
// innermost declaration whose full range covers pos.
func (t *Table) SymbolAt(pos syntax.Position) Symbol {
	var best Symbol
	bestSize := -1
	for _, sym := range t.symbols {
		loc := sym.Decl().Location
		if !loc.NameRange.IsEmpty() && loc.NameRange.Contains(pos) {
			return sym
		}
		if loc.Range.Contains(pos) {
			if size := loc.Range.Size(); bestSize < 0 || size < bestSize {
				best, bestSize = sym, size
			}
		}
	}
	return best
}

// SymbolNameAt returns the name of the symbol at pos, or "".
func (t *Table) SymbolNameAt(pos syntax.Position) string {
	return Name(t.SymbolAt(pos))
}

// ReferenceAt returns the innermost recorded reference covering pos.
func (t *Table) ReferenceAt(pos syntax.Position) (Reference, bool) {
	var best Reference
	found := false
	for _, ref := range t.references {
		if !ref.Range.Contains(pos) {
			continue
		}
		if !found || ref.Range.Size() < best.Range.Size() {
			best, found = ref, true
		}
	}
	return best, found
}

// SymbolsInRange returns declarations whose range lies within r.
func (t *Table) SymbolsInRange(r syntax.Range) []Symbol {
	var out []Symbol
	for _, sym := range t.symbols {
		if r.ContainsRange(sym.Decl().Location.Range) {
			out = append(out, sym)
		}
	}
	return out
}

// ScopeAt returns the deepest scope whose range contains pos.
func (t *Table) ScopeAt(pos syntax.Position) *Scope {
	cur := t.Root()
	if cur == nil {
		return nil
	}
	for {
		var next *Scope
		for _, id := range cur.Children {
			child := t.Tree.Get(id)
			if child == nil || !child.Contains(pos) {
				continue
			}
			// Prefer the tightest child when sibling ranges overlap.
			if next == nil || child.Range.Size() < next.Range.Size() {
				next = child
			}
		}
		if next == nil {
			return cur
		}
		cur = next
	}
}

// ScopeForNode returns the scope bound to n or its nearest ancestor that has
// one, falling back to the position lookup.
func (t *Table) ScopeForNode(n *syntax.Node) *Scope {
	for cur := n; cur != nil; cur = cur.Parent() {
		if s := t.ScopeOf(cur); s != nil {
			return s
		}
	}
	if n != nil {
		return t.ScopeAt(n.Range().Start)
	}
	return t.Root()
}

// Resolve resolves name from the scope at pos.
func (t *Table) Resolve(name string, pos syntax.Position) []Symbol {
	return t.ScopeAt(pos).Resolve(name)
}

// AllVisibleSymbols lists every symbol visible at pos, inner first.
func (t *Table) AllVisibleSymbols(pos syntax.Position) []Symbol {
	return t.ScopeAt(pos).CollectAll()
}

// ReferencesTo returns every recorded reference to sym.
func (t *Table) ReferencesTo(sym Symbol) []Reference {
	var out []Reference
	for _, ref := range t.references {
		if ref.Symbol == sym {
			out = append(out, ref)
		}
	}
	return out
}

// TopLevelSymbols returns the file scope's symbols in declaration order.
func (t *Table) TopLevelSymbols() []Symbol {
	return t.Root().Symbols()
}

func (t *Table) TopLevelClasses() []*Class {
	var out []*Class
	for _, s := range t.TopLevelSymbols() {
		if c, ok := s.(*Class); ok {
			out = append(out, c)
		}
	}
	return out
}

func (t *Table) TopLevelFunctions() []*Function {
	var out []*Function
	for _, s := range t.TopLevelSymbols() {
		if f, ok := s.(*Function); ok {
			out = append(out, f)
		}
	}
	return out
}

func (t *Table) TopLevelProperties() []*Property {
	var out []*Property
	for _, s := range t.TopLevelSymbols() {
		if p, ok := s.(*Property); ok {
			out = append(out, p)
		}
	}
	return out
}

func (t *Table) TopLevelTypeAliases() []*TypeAlias {
	var out []*TypeAlias
	for _, s := range t.TopLevelSymbols() {
		if a, ok := s.(*TypeAlias); ok {
			out = append(out, a)
		}
	}
	return out
}

// AllClasses returns every class declared in the file, nested ones included,
// ordered by position.
func (t *Table) AllClasses() []*Class {
	var out []*Class
	for _, s := range t.symbols {
		if c, ok := s.(*Class); ok {
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Location.Range.StartByte < out[j].Location.Range.StartByte
	})
	return out
}

// Members returns a class's member symbols in declaration order.
func (t *Table) Members(c *Class) []Symbol {
	if c == nil {
		return nil
	}
	return t.Tree.Get(c.Members).Symbols()
}

// EnumEntries returns the entry names of an enum class in declaration order.
func (t *Table) EnumEntries(c *Class) []string {
	var out []string
	for _, m := range t.Members(c) {
		if e, ok := m.(*Class); ok && e.ClassKind == ClassKindEnumEntry {
			out = append(out, e.Name)
		}
	}
	return out
}

// ExplicitImport returns the non-star import binding name, if any.
func (t *Table) ExplicitImport(name string) (Import, bool) {
	for _, imp := range t.Imports {
		if !imp.Star && imp.SimpleName() == name {
			return imp, true
		}
	}
	return Import{}, false
}

// StarImports returns the package or class prefixes of star imports.
func (t *Table) StarImports() []string {
	var out []string
	for _, imp := range t.Imports {
		if imp.Star {
			out = append(out, imp.FQName)
		}
	}
	return out
}
