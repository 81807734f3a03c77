package types

import (
	"sync"

	"github.com/jward/ksema/internal/index"
	"github.com/jward/ksema/internal/symbol"
)

// TypeParamInfo is a declared type parameter of a class.
type TypeParamInfo struct {
	Name     string
	Variance Variance
}

type classInfo struct {
	params []TypeParamInfo
	// supers are written in terms of the class's own type parameters.
	supers []*Class
	known  bool
}

// Hierarchy records the direct supertypes of classes. It is seeded with the
// builtin types, grows with local declarations through AddClass, and falls
// back to the index for classes it has not seen.
type Hierarchy struct {
	mu      sync.RWMutex
	classes map[string]*classInfo
	lookup  index.Lookup
}

// NewHierarchy returns a hierarchy seeded with builtins. lookup may be nil.
func NewHierarchy(lookup index.Lookup) *Hierarchy {
	h := &Hierarchy{classes: make(map[string]*classInfo), lookup: lookup}
	h.seed()
	return h
}

func tp(name string) *TypeParam { return &TypeParam{Name: name} }

func params(decls ...string) []TypeParamInfo {
	out := make([]TypeParamInfo, 0, len(decls))
	for _, d := range decls {
		switch {
		case len(d) > 4 && d[:4] == "out ":
			out = append(out, TypeParamInfo{Name: d[4:], Variance: Out})
		case len(d) > 3 && d[:3] == "in ":
			out = append(out, TypeParamInfo{Name: d[3:], Variance: In})
		default:
			out = append(out, TypeParamInfo{Name: d})
		}
	}
	return out
}

func (h *Hierarchy) seed() {
	reg := func(fq string, ps []TypeParamInfo, supers ...*Class) {
		h.classes[fq] = &classInfo{params: ps, supers: supers, known: true}
	}
	reg(FQAny, nil)
	reg(FQNothing, nil)
	reg(FQUnit, nil, AnyType)
	reg(FQComparable, params("in T"), AnyType)
	reg(FQCharSequence, nil, AnyType)
	reg(FQString, nil, ComparableOf(StringType), CharSequence)
	reg(FQNumber, nil, AnyType)
	for _, p := range []*Primitive{ByteType, ShortType, IntType, LongType, FloatType, DoubleType} {
		reg(p.FQName(), nil, ComparableOf(p), NumberType)
	}
	reg("kotlin.Char", nil, ComparableOf(CharType))
	reg("kotlin.Boolean", nil, ComparableOf(BooleanType))
	reg(FQArray, params("T"), AnyType)
	for _, arr := range []string{"Int", "Long", "Short", "Byte", "Float", "Double", "Char", "Boolean"} {
		reg("kotlin."+arr+"Array", nil, AnyType)
	}
	reg("kotlin.Enum", params("E"), ComparableOf(tp("E")))
	reg(FQPair, params("out A", "out B"), AnyType)
	reg(FQTriple, params("out A", "out B", "out C"), AnyType)
	reg("kotlin.Lazy", params("out T"), AnyType)
	reg("kotlin.Function", params("out R"), AnyType)

	reg(FQIterable, params("out T"), AnyType)
	reg("kotlin.collections.MutableIterable", params("out T"), NewClass(FQIterable, tp("T")))
	reg(FQCollection, params("out E"), NewClass(FQIterable, tp("E")))
	reg("kotlin.collections.MutableCollection", params("E"),
		NewClass(FQCollection, tp("E")), NewClass("kotlin.collections.MutableIterable", tp("E")))
	reg(FQList, params("out E"), NewClass(FQCollection, tp("E")))
	reg(FQMutableList, params("E"), ListOf(tp("E")), NewClass("kotlin.collections.MutableCollection", tp("E")))
	reg("kotlin.collections.ArrayList", params("E"), MutableListOf(tp("E")))
	reg(FQSet, params("out E"), NewClass(FQCollection, tp("E")))
	reg(FQMutableSet, params("E"), SetOf(tp("E")), NewClass("kotlin.collections.MutableCollection", tp("E")))
	reg("kotlin.collections.HashSet", params("E"), MutableSetOf(tp("E")))
	reg(FQMap, params("K", "out V"), AnyType)
	reg(FQMutableMap, params("K", "V"), MapOf(tp("K"), tp("V")))
	reg("kotlin.collections.HashMap", params("K", "V"), MutableMapOf(tp("K"), tp("V")))
	reg(FQSequence, params("out T"), AnyType)

	reg(FQClosedRange, params("T"), AnyType)
	reg(FQIntRange, nil, ClosedRangeOf(IntType), NewClass(FQIterable, IntType))
	reg(FQLongRange, nil, ClosedRangeOf(LongType), NewClass(FQIterable, LongType))
	reg(FQCharRange, nil, ClosedRangeOf(CharType), NewClass(FQIterable, CharType))

	reg(FQThrowable, nil, AnyType)
	reg(FQException, nil, Throwable)
	reg("kotlin.Error", nil, Throwable)
	reg("kotlin.RuntimeException", nil, Exception)
	runtime := &Class{FQName: "kotlin.RuntimeException"}
	for _, e := range []string{
		"IllegalArgumentException", "IllegalStateException", "NullPointerException",
		"IndexOutOfBoundsException", "UnsupportedOperationException",
		"ClassCastException", "ArithmeticException", "NoSuchElementException",
	} {
		reg("kotlin."+e, nil, runtime)
	}
}

// AddClass records a class with its type parameters and resolved direct
// supertypes. A later call for the same name replaces the entry.
func (h *Hierarchy) AddClass(fq string, typeParams []TypeParamInfo, supers []*Class) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.classes[fq] = &classInfo{params: typeParams, supers: supers, known: true}
}

// Known reports whether the hierarchy has any information about fq.
func (h *Hierarchy) Known(fq string) bool {
	return h.info(fq).known
}

// TypeParams returns the declared type parameters of fq.
func (h *Hierarchy) TypeParams(fq string) []TypeParamInfo {
	return h.info(fq).params
}

// DeclaredVariance is the declaration-site variance of fq's i-th parameter.
func (h *Hierarchy) DeclaredVariance(fq string, i int) Variance {
	ps := h.info(fq).params
	if i < 0 || i >= len(ps) {
		return Invariant
	}
	return ps[i].Variance
}

// Supertypes returns the direct supertypes of c with c's type arguments
// substituted for the declared parameters.
func (h *Hierarchy) Supertypes(c *Class) []*Class {
	info := h.info(c.FQName)
	if len(info.supers) == 0 {
		return nil
	}
	subst := bindArguments(info.params, c.Arguments)
	out := make([]*Class, 0, len(info.supers))
	for _, s := range info.supers {
		if st, ok := s.Substitute(subst).(*Class); ok {
			out = append(out, st)
		}
	}
	return out
}

// AllSupertypes returns c followed by its transitive supertypes, breadth
// first, each class name once.
func (h *Hierarchy) AllSupertypes(c *Class) []*Class {
	out := []*Class{c}
	seen := map[string]bool{c.FQName: true}
	for i := 0; i < len(out); i++ {
		for _, st := range h.Supertypes(out[i]) {
			if seen[st.FQName] {
				continue
			}
			seen[st.FQName] = true
			out = append(out, st)
		}
	}
	return out
}

// Supertype finds the supertype of c named fq, substituted, or nil.
func (h *Hierarchy) Supertype(c *Class, fq string) *Class {
	for _, st := range h.AllSupertypes(c) {
		if st.FQName == fq {
			return st
		}
	}
	return nil
}

// Bind maps c's declared type parameters to its arguments.
func (h *Hierarchy) Bind(c *Class) Substitution {
	return bindArguments(h.info(c.FQName).params, c.Arguments)
}

func bindArguments(ps []TypeParamInfo, args []Argument) Substitution {
	if len(ps) == 0 || len(args) == 0 {
		return nil
	}
	s := make(Substitution, len(ps))
	for i, p := range ps {
		if i >= len(args) {
			break
		}
		if args[i].Type == nil {
			s[p.Name] = AnyNullable
			continue
		}
		s[p.Name] = args[i].Type
	}
	return s
}

func (h *Hierarchy) info(fq string) *classInfo {
	h.mu.RLock()
	info, ok := h.classes[fq]
	h.mu.RUnlock()
	if ok {
		return info
	}
	info = h.fromIndex(fq)
	h.mu.Lock()
	defer h.mu.Unlock()
	if existing, ok := h.classes[fq]; ok {
		return existing
	}
	h.classes[fq] = info
	return info
}

// fromIndex builds the entry of an indexed class. Misses are cached as
// unknown entries.
func (h *Hierarchy) fromIndex(fq string) *classInfo {
	if h.lookup == nil || fq == "" {
		return &classInfo{}
	}
	var rec *index.Symbol
	for _, s := range h.lookup.FindByFQName(fq) {
		if s.Kind.IsClass() {
			s := s
			rec = &s
			break
		}
	}
	if rec == nil {
		return &classInfo{}
	}
	ext := &Resolver{lookup: h.lookup}
	info := &classInfo{known: true}
	scope := make(map[string]*TypeParam, len(rec.TypeParameters))
	for _, decl := range rec.TypeParameters {
		p := typeParamFromDecl(decl)
		info.params = append(info.params, TypeParamInfo{Name: p.Name, Variance: p.Variance})
		scope[p.Name] = p
	}
	for _, st := range rec.SuperTypes {
		ref := symbol.ParseTypeReference(st)
		if ref == nil {
			continue
		}
		if c, ok := ext.ResolveExternal(ref, rec.Package, scope).(*Class); ok && c.FQName != fq {
			info.supers = append(info.supers, c)
		}
	}
	if len(info.supers) == 0 && fq != FQAny {
		info.supers = []*Class{AnyType}
	}
	return info
}

// typeParamFromDecl parses "out T" and "T : Bound" forms; the bound is left
// unresolved.
func typeParamFromDecl(decl string) *TypeParam {
	name, variance, _, _ := index.ParseTypeParameter(decl)
	return &TypeParam{Name: name, Variance: ParseVariance(variance)}
}
