package symbol

import "github.com/jward/ksema/internal/syntax"

// ScopeID addresses a Scope inside its ScopeTree. The zero value is NoScope.
type ScopeID int32

const NoScope ScopeID = 0

type ScopeKind uint8

const (
	ScopeFile ScopeKind = iota
	ScopePackage
	ScopeClass
	ScopeEnum
	ScopeCompanion
	ScopeFunction
	ScopeConstructor
	ScopeAccessor
	ScopeLambda
	ScopeBlock
	ScopeCatch
	ScopeFor
	ScopeWhenEntry
	ScopeTypeParameter
)

func (k ScopeKind) String() string {
	switch k {
	case ScopeFile:
		return "file"
	case ScopePackage:
		return "package"
	case ScopeClass:
		return "class"
	case ScopeEnum:
		return "enum"
	case ScopeCompanion:
		return "companion"
	case ScopeFunction:
		return "function"
	case ScopeConstructor:
		return "constructor"
	case ScopeAccessor:
		return "accessor"
	case ScopeLambda:
		return "lambda"
	case ScopeBlock:
		return "block"
	case ScopeCatch:
		return "catch"
	case ScopeFor:
		return "for"
	case ScopeWhenEntry:
		return "when_entry"
	case ScopeTypeParameter:
		return "type_parameter"
	}
	return "unknown"
}

// IsClassScope reports whether the scope holds the members of a class-like declaration.
func (k ScopeKind) IsClassScope() bool {
	return k == ScopeClass || k == ScopeEnum || k == ScopeCompanion
}

// IsCallableScope reports whether the scope is the body of something invocable.
func (k ScopeKind) IsCallableScope() bool {
	switch k {
	case ScopeFunction, ScopeLambda, ScopeConstructor, ScopeAccessor:
		return true
	}
	return false
}

// ScopeTree is an arena of scopes. Scopes refer to each other and to the
// tree through ScopeID handles, so no scope owns another by pointer.
type ScopeTree struct {
	scopes []*Scope
}

func NewScopeTree() *ScopeTree {
	// index 0 is reserved for NoScope
	return &ScopeTree{scopes: []*Scope{nil}}
}

// NewRoot allocates a parentless scope.
func (t *ScopeTree) NewRoot(kind ScopeKind, r syntax.Range) *Scope {
	return t.alloc(kind, NoScope, nil, r)
}

func (t *ScopeTree) alloc(kind ScopeKind, parent ScopeID, owner Symbol, r syntax.Range) *Scope {
	s := &Scope{
		ID:      ScopeID(len(t.scopes)),
		Kind:    kind,
		Parent:  parent,
		Owner:   owner,
		Range:   r,
		tree:    t,
		entries: make(map[string][]Symbol),
	}
	t.scopes = append(t.scopes, s)
	return s
}

// Get returns the scope for id, or nil for NoScope and unknown ids.
func (t *ScopeTree) Get(id ScopeID) *Scope {
	if t == nil || id <= NoScope || int(id) >= len(t.scopes) {
		return nil
	}
	return t.scopes[id]
}

// Len is the number of allocated scopes.
func (t *ScopeTree) Len() int { return len(t.scopes) - 1 }

// Scope is a lexical container of symbols.
type Scope struct {
	ID       ScopeID
	Kind     ScopeKind
	Parent   ScopeID
	Children []ScopeID
	// Owner is the declaration that introduced the scope, if any.
	Owner Symbol
	Range syntax.Range

	tree    *ScopeTree
	entries map[string][]Symbol
	order   []Symbol
}

func (s *Scope) Tree() *ScopeTree { return s.tree }

func (s *Scope) ParentScope() *Scope {
	if s == nil {
		return nil
	}
	return s.tree.Get(s.Parent)
}

// CreateChild allocates a nested scope.
func (s *Scope) CreateChild(kind ScopeKind, owner Symbol, r syntax.Range) *Scope {
	child := s.tree.alloc(kind, s.ID, owner, r)
	s.Children = append(s.Children, child.ID)
	return child
}

// Define adds sym to the scope. It returns false, leaving the scope
// unchanged, when a symbol of the same name exists and the two are not
// both functions.
func (s *Scope) Define(sym Symbol) bool {
	if s == nil || sym == nil {
		return false
	}
	name := sym.Decl().Name
	if existing := s.entries[name]; len(existing) > 0 {
		if _, ok := sym.(*Function); !ok || !AllFunctions(existing) {
			return false
		}
	}
	s.entries[name] = append(s.entries[name], sym)
	s.order = append(s.order, sym)
	if sym.Decl().Scope == NoScope {
		sym.Decl().Scope = s.ID
	}
	return true
}

// Undefine removes sym. It reports whether sym was present.
func (s *Scope) Undefine(sym Symbol) bool {
	if s == nil || sym == nil {
		return false
	}
	name := sym.Decl().Name
	list := s.entries[name]
	for i, existing := range list {
		if existing != sym {
			continue
		}
		list = append(list[:i:i], list[i+1:]...)
		if len(list) == 0 {
			delete(s.entries, name)
		} else {
			s.entries[name] = list
		}
		for j, o := range s.order {
			if o == sym {
				s.order = append(s.order[:j:j], s.order[j+1:]...)
				break
			}
		}
		return true
	}
	return false
}

// ResolveLocal returns the symbols named name in this scope only, in
// declaration order.
func (s *Scope) ResolveLocal(name string) []Symbol {
	if s == nil {
		return nil
	}
	list := s.entries[name]
	if len(list) == 0 {
		return nil
	}
	out := make([]Symbol, len(list))
	copy(out, list)
	return out
}

// Resolve walks outward from s. For class-like scopes the owning class's
// member scope and its companion's members are consulted before moving on
// to the parent.
func (s *Scope) Resolve(name string) []Symbol {
	for cur := s; cur != nil; cur = cur.ParentScope() {
		if found := cur.ResolveLocal(name); len(found) > 0 {
			return found
		}
		if !cur.Kind.IsClassScope() {
			continue
		}
		cls, ok := cur.Owner.(*Class)
		if !ok {
			continue
		}
		if cls.Members != NoScope && cls.Members != cur.ID {
			if found := cur.tree.Get(cls.Members).ResolveLocal(name); len(found) > 0 {
				return found
			}
		}
		if cls.Companion != nil {
			if found := cur.tree.Get(cls.Companion.Members).ResolveLocal(name); len(found) > 0 {
				return found
			}
		}
	}
	return nil
}

// ResolveFirst returns the first symbol Resolve finds, or nil.
func (s *Scope) ResolveFirst(name string) Symbol {
	if found := s.Resolve(name); len(found) > 0 {
		return found[0]
	}
	return nil
}

// Symbols returns the scope's own symbols in declaration order.
func (s *Scope) Symbols() []Symbol {
	if s == nil {
		return nil
	}
	out := make([]Symbol, len(s.order))
	copy(out, s.order)
	return out
}

// Ancestors returns the parent chain, nearest first, s excluded.
func (s *Scope) Ancestors() []*Scope {
	var out []*Scope
	for p := s.ParentScope(); p != nil; p = p.ParentScope() {
		out = append(out, p)
	}
	return out
}

func (s *Scope) Root() *Scope {
	cur := s
	for cur != nil && cur.Parent != NoScope {
		cur = cur.ParentScope()
	}
	return cur
}

// FindEnclosing returns s or its nearest ancestor of the given kind.
func (s *Scope) FindEnclosing(kind ScopeKind) *Scope {
	for cur := s; cur != nil; cur = cur.ParentScope() {
		if cur.Kind == kind {
			return cur
		}
	}
	return nil
}

// FindEnclosingClass returns s or its nearest class-like ancestor.
func (s *Scope) FindEnclosingClass() *Scope {
	for cur := s; cur != nil; cur = cur.ParentScope() {
		if cur.Kind.IsClassScope() {
			return cur
		}
	}
	return nil
}

// FindEnclosingCallable returns s or its nearest callable ancestor.
func (s *Scope) FindEnclosingCallable() *Scope {
	for cur := s; cur != nil; cur = cur.ParentScope() {
		if cur.Kind.IsCallableScope() {
			return cur
		}
	}
	return nil
}

// EnclosingClassSymbol returns the class owning the nearest class scope.
func (s *Scope) EnclosingClassSymbol() *Class {
	for cur := s.FindEnclosingClass(); cur != nil; cur = cur.ParentScope().FindEnclosingClass() {
		if c, ok := cur.Owner.(*Class); ok {
			return c
		}
	}
	return nil
}

// EnclosingFunctionSymbol returns the function owning the nearest callable scope.
func (s *Scope) EnclosingFunctionSymbol() *Function {
	for cur := s.FindEnclosingCallable(); cur != nil; cur = cur.ParentScope().FindEnclosingCallable() {
		if f, ok := cur.Owner.(*Function); ok {
			return f
		}
	}
	return nil
}

// CollectAll returns every symbol visible from s, inner scopes first. A name
// bound in an inner scope hides outer bindings of the same name.
func (s *Scope) CollectAll() []Symbol {
	seen := make(map[string]bool)
	var out []Symbol
	for cur := s; cur != nil; cur = cur.ParentScope() {
		local := make(map[string]bool)
		for _, sym := range cur.order {
			name := sym.Decl().Name
			if seen[name] {
				continue
			}
			local[name] = true
			out = append(out, sym)
		}
		for name := range local {
			seen[name] = true
		}
	}
	return out
}

// Contains reports whether pos lies within the scope's range.
func (s *Scope) Contains(pos syntax.Position) bool {
	return s != nil && s.Range.Contains(pos)
}
