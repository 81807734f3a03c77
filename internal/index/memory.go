package index

import (
	"sort"
	"strings"
	"sync"
)

// Lookup is the read side of every index the analyzer consults.
// Implementations are safe for concurrent readers.
type Lookup interface {
	FindByFQName(fq string) []Symbol
	FindBySimpleName(name string) []Symbol
	FindByPackage(pkg string) []Symbol
	// FindMembers returns the declared members of a class, inherited ones
	// excluded.
	FindMembers(classFQ string) []Symbol
	// FindExtensions returns extensions declared on the receiver type, its
	// known supertypes, and on unconstrained type parameters.
	FindExtensions(receiverFQ string) []Symbol
	FindExtensionsByName(name string) []Symbol
	AllClasses() []Symbol
}

// universalReceiver keys extensions declared on a bare type parameter, such
// as `fun <T> T.let(...)`.
const universalReceiver = "*"

// Memory is a map-backed Lookup used for the stdlib and classpath indexes.
// Writers hold the lock exclusively; after loading it is read-only in
// practice.
type Memory struct {
	mu         sync.RWMutex
	byFQ       map[string][]Symbol
	byName     map[string][]Symbol
	byPkg      map[string][]Symbol
	members    map[string][]Symbol
	extensions map[string][]Symbol
	extByName  map[string][]Symbol
	classes    []Symbol
	count      int
}

var _ Lookup = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{
		byFQ:       make(map[string][]Symbol),
		byName:     make(map[string][]Symbol),
		byPkg:      make(map[string][]Symbol),
		members:    make(map[string][]Symbol),
		extensions: make(map[string][]Symbol),
		extByName:  make(map[string][]Symbol),
	}
}

// Add indexes one symbol. Members are reachable through FindMembers and
// FindByFQName, extensions through the extension lookups only.
func (m *Memory) Add(s Symbol) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.add(s)
}

func (m *Memory) AddAll(syms []Symbol) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range syms {
		m.add(s)
	}
}

func (m *Memory) add(s Symbol) {
	if s.Package == "" && s.ContainingClass == "" {
		s.Package = PackageOf(s.FQName)
	}
	m.count++
	if s.FQName != "" {
		m.byFQ[s.FQName] = append(m.byFQ[s.FQName], s)
	}
	switch {
	case s.IsExtension():
		for _, key := range receiverKeys(s) {
			m.extensions[key] = append(m.extensions[key], s)
		}
		m.extByName[s.Name] = append(m.extByName[s.Name], s)
	case s.IsMember():
		m.members[s.ContainingClass] = append(m.members[s.ContainingClass], s)
	default:
		m.byName[s.Name] = append(m.byName[s.Name], s)
		m.byPkg[s.Package] = append(m.byPkg[s.Package], s)
	}
	if s.Kind.IsClass() {
		m.classes = append(m.classes, s)
		if s.IsMember() {
			// nested classes are also reachable by their simple name
			m.byName[s.Name] = append(m.byName[s.Name], s)
		}
	}
}

// receiverKeys returns the extension keys of s: the receiver's base name
// and its simple form, or the universal key for type-parameter receivers.
func receiverKeys(s Symbol) []string {
	base := BaseName(s.ReceiverType)
	for _, tp := range s.TypeParameters {
		if name, _, _ := cutBound(tp); name == base {
			return []string{universalReceiver}
		}
	}
	simple := SimpleName(base)
	if simple == base {
		return []string{base}
	}
	return []string{base, simple}
}

func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.count
}

func (m *Memory) FindByFQName(fq string) []Symbol {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return clone(m.byFQ[fq])
}

func (m *Memory) FindBySimpleName(name string) []Symbol {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return clone(m.byName[name])
}

func (m *Memory) FindByPackage(pkg string) []Symbol {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return clone(m.byPkg[pkg])
}

func (m *Memory) FindMembers(classFQ string) []Symbol {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if ms, ok := m.members[classFQ]; ok {
		return clone(ms)
	}
	if c, ok := m.classNamed(classFQ); ok {
		return clone(m.members[c.FQName])
	}
	return nil
}

func (m *Memory) FindExtensions(receiverFQ string) []Symbol {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Symbol
	seen := make(map[string]bool)
	collect := func(key string) {
		for _, s := range m.extensions[key] {
			id := s.FQName + "|" + s.ReceiverType + "|" + paramSignature(s)
			if !seen[id] {
				seen[id] = true
				out = append(out, s)
			}
		}
	}
	for _, t := range m.supertypeClosure(BaseName(receiverFQ)) {
		collect(t)
		collect(SimpleName(t))
	}
	collect(universalReceiver)
	return out
}

func (m *Memory) FindExtensionsByName(name string) []Symbol {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return clone(m.extByName[name])
}

// AllClasses returns every class-like symbol sorted by qualified name.
func (m *Memory) AllClasses() []Symbol {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := clone(m.classes)
	sort.Slice(out, func(i, j int) bool { return out[i].FQName < out[j].FQName })
	return out
}

// Symbols returns every indexed symbol, ordered by qualified name.
func (m *Memory) Symbols() []Symbol {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Symbol, 0, m.count)
	for _, list := range m.byFQ {
		out = append(out, list...)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].FQName < out[j].FQName })
	return out
}

// classNamed finds a class by qualified name, falling back to a unique
// simple-name match.
func (m *Memory) classNamed(name string) (Symbol, bool) {
	for _, s := range m.byFQ[name] {
		if s.Kind.IsClass() {
			return s, true
		}
	}
	for _, s := range m.byName[SimpleName(name)] {
		if s.Kind.IsClass() {
			return s, true
		}
	}
	return Symbol{}, false
}

// supertypeClosure returns name followed by every transitively declared
// supertype base name, breadth first.
func (m *Memory) supertypeClosure(name string) []string {
	out := []string{name}
	seen := map[string]bool{name: true}
	for i := 0; i < len(out); i++ {
		c, ok := m.classNamed(out[i])
		if !ok {
			continue
		}
		if c.FQName != out[i] && !seen[c.FQName] {
			seen[c.FQName] = true
			out = append(out, c.FQName)
		}
		for _, st := range c.SuperTypes {
			base := BaseName(st)
			if !seen[base] {
				seen[base] = true
				out = append(out, base)
			}
		}
	}
	return out
}

func paramSignature(s Symbol) string {
	var b strings.Builder
	for _, p := range s.Parameters {
		b.WriteString(p.Type)
		b.WriteByte(',')
	}
	return b.String()
}

func cutBound(tp string) (name, bound string, ok bool) {
	name, bound, ok = strings.Cut(tp, ":")
	name = strings.TrimSpace(name)
	for _, p := range []string{"reified ", "out ", "in "} {
		name = strings.TrimSpace(strings.TrimPrefix(name, p))
	}
	return name, strings.TrimSpace(bound), ok
}

func clone(in []Symbol) []Symbol {
	if len(in) == 0 {
		return nil
	}
	out := make([]Symbol, len(in))
	copy(out, in)
	return out
}
