package types

import "strings"

// Checker answers subtyping and compatibility questions.
type Checker struct {
	h *Hierarchy
}

// NewChecker returns a checker over h; a nil h means the builtin hierarchy.
func NewChecker(h *Hierarchy) *Checker {
	if h == nil {
		h = NewHierarchy(nil)
	}
	return &Checker{h: h}
}

func (c *Checker) Hierarchy() *Hierarchy { return c.h }

// Equal compares two types structurally.
func Equal(a, b Type) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Render(true) == b.Render(true)
}

// IsSubtype reports whether sub <: sup. Error and unknown (nil) types are
// compatible with everything so that one failure does not cascade.
func (c *Checker) IsSubtype(sub, sup Type) bool {
	if sub == nil || sup == nil || sub.HasError() || sup.HasError() {
		return true
	}
	if Equal(sub, sup) {
		return true
	}
	if IsNothing(sub) {
		return !sub.IsNullable() || sup.IsNullable() || c.acceptsNull(sup)
	}
	if IsAny(sup) {
		return sup.IsNullable() || !sub.IsNullable()
	}
	if tp, ok := sup.(*TypeParam); ok {
		return c.subtypeOfParam(sub, tp)
	}
	if sub.IsNullable() && !sup.IsNullable() {
		return false
	}
	sub, sup = NonNull(sub), NonNull(sup)

	switch s := sub.(type) {
	case *Class:
		switch t := sup.(type) {
		case *Class:
			if p, ok := PrimitiveNamed(s.FQName); ok && len(s.Arguments) == 0 {
				return c.IsSubtype(p, t)
			}
			return c.classSubtype(s, t)
		case *Primitive:
			if p, ok := PrimitiveNamed(s.FQName); ok {
				return c.IsSubtype(p, t)
			}
		}
	case *Primitive:
		switch t := sup.(type) {
		case *Primitive:
			return primitiveWidens(s.Kind, t.Kind)
		case *Class:
			return c.primitiveToClass(s, t)
		}
	case *Function:
		switch t := sup.(type) {
		case *Function:
			return c.functionSubtype(s, t)
		case *Class:
			return strings.HasPrefix(t.FQName, "kotlin.Function")
		}
	case *TypeParam:
		for _, b := range s.Bounds {
			if c.IsSubtype(b, sup) {
				return true
			}
		}
		return false
	}
	return false
}

// IsAssignable reports whether a value of type src can be stored in dst.
func (c *Checker) IsAssignable(src, dst Type) bool { return c.IsSubtype(src, dst) }

// AreEquivalent reports mutual subtyping.
func (c *Checker) AreEquivalent(a, b Type) bool {
	return c.IsSubtype(a, b) && c.IsSubtype(b, a)
}

// acceptsNull reports whether null is a valid value of t.
func (c *Checker) acceptsNull(t Type) bool {
	if t.IsNullable() {
		return true
	}
	if tp, ok := t.(*TypeParam); ok {
		return tp.Bound().IsNullable()
	}
	return false
}

func (c *Checker) subtypeOfParam(sub Type, sup *TypeParam) bool {
	if other, ok := sub.(*TypeParam); ok {
		if other.Name == sup.Name {
			return !other.Nullable || c.acceptsNull(sup)
		}
		for _, b := range other.Bounds {
			if bp, ok := b.(*TypeParam); ok && c.subtypeOfParam(bp, sup) {
				return true
			}
		}
	}
	if sub.IsNullable() && !c.acceptsNull(sup) {
		return false
	}
	for _, b := range sup.Bounds {
		if !c.IsSubtype(NonNull(sub), NonNull(b)) {
			return false
		}
	}
	return true
}

// primitiveWidens applies Byte < Short < Int < Long < Float < Double.
func primitiveWidens(from, to PrimitiveKind) bool {
	if from == to {
		return true
	}
	if !from.IsNumeric() || !to.IsNumeric() {
		return false
	}
	return from < to
}

func (c *Checker) primitiveToClass(p *Primitive, t *Class) bool {
	switch t.FQName {
	case p.FQName(), FQAny:
		return true
	case FQNumber:
		return p.Kind.IsNumeric()
	}
	if q, ok := PrimitiveNamed(t.FQName); ok && len(t.Arguments) == 0 {
		return primitiveWidens(p.Kind, q.Kind)
	}
	return c.classSubtype(p.Boxed(), t)
}

func (c *Checker) classSubtype(sub, sup *Class) bool {
	if sub.FQName == sup.FQName {
		return c.argumentsConform(sup.FQName, sub.Arguments, sup.Arguments)
	}
	if !c.h.Known(sub.FQName) {
		// Nothing is known about the class; do not report a mismatch.
		return true
	}
	if st := c.h.Supertype(sub, sup.FQName); st != nil {
		return c.argumentsConform(sup.FQName, st.Arguments, sup.Arguments)
	}
	return false
}

func (c *Checker) argumentsConform(fq string, sub, sup []Argument) bool {
	if len(sub) == 0 || len(sup) == 0 {
		// Raw use of a generic class.
		return true
	}
	if len(sub) != len(sup) {
		return false
	}
	for i := range sup {
		if !c.argumentConforms(c.h.DeclaredVariance(fq, i), sub[i], sup[i]) {
			return false
		}
	}
	return true
}

func (c *Checker) argumentConforms(declared Variance, sub, sup Argument) bool {
	if sup.IsStar() {
		return true
	}
	if sub.IsStar() {
		return sup.Variance == Out && IsAny(sup.Type) && sup.Type.IsNullable()
	}
	v := sup.Variance
	if v == Invariant {
		v = declared
	}
	switch v {
	case Out:
		if sub.Variance == In {
			return false
		}
		return c.IsSubtype(sub.Type, sup.Type)
	case In:
		if sub.Variance == Out {
			return false
		}
		return c.IsSubtype(sup.Type, sub.Type)
	}
	return sub.Variance == Invariant && c.AreEquivalent(sub.Type, sup.Type)
}

func (c *Checker) functionSubtype(sub, sup *Function) bool {
	if sub.Suspend && !sup.Suspend {
		return false
	}
	subParams, supParams := sub.Parameters, sup.Parameters
	switch {
	case sub.Receiver != nil && sup.Receiver != nil:
		if !c.IsSubtype(sup.Receiver, sub.Receiver) {
			return false
		}
	case sub.Receiver != nil:
		subParams = append([]Type{sub.Receiver}, subParams...)
	case sup.Receiver != nil:
		supParams = append([]Type{sup.Receiver}, supParams...)
	}
	if len(subParams) != len(supParams) {
		return false
	}
	for i := range subParams {
		if !c.IsSubtype(supParams[i], subParams[i]) {
			return false
		}
	}
	return c.IsSubtype(returnOf(sub), returnOf(sup))
}

func returnOf(f *Function) Type {
	if f.Return == nil {
		return UnitType
	}
	return f.Return
}

// CommonSupertype returns the least common supertype of a and b as used for
// the result of if, when and elvis expressions.
func (c *Checker) CommonSupertype(a, b Type) Type {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	nullable := a.IsNullable() || b.IsNullable()
	if IsNothing(a) {
		return b.WithNullable(nullable)
	}
	if IsNothing(b) {
		return a.WithNullable(nullable)
	}
	if c.IsSubtype(a, b) {
		return b
	}
	if c.IsSubtype(b, a) {
		return a
	}
	na, nb := NonNull(a), NonNull(b)
	if c.IsSubtype(na, nb) {
		return nb.WithNullable(true)
	}
	if c.IsSubtype(nb, na) {
		return na.WithNullable(true)
	}

	var common Type = AnyType
	pa, aPrim := na.(*Primitive)
	pb, bPrim := nb.(*Primitive)
	if aPrim && bPrim {
		if p := commonPrimitive(pa.Kind, pb.Kind); p != nil {
			return p.WithNullable(nullable)
		}
	}
	ca, okA := classOf(na)
	cb, okB := classOf(nb)
	if okA && okB {
		common = c.commonClass(ca, cb)
	}
	return common.WithNullable(nullable)
}

// CommonSupertypeOf folds CommonSupertype over ts; an empty list is Nothing.
func (c *Checker) CommonSupertypeOf(ts []Type) Type {
	var out Type
	for _, t := range ts {
		if out == nil {
			out = t
			continue
		}
		out = c.CommonSupertype(out, t)
	}
	if out == nil {
		return NothingType
	}
	return out
}

func classOf(t Type) (*Class, bool) {
	switch v := t.(type) {
	case *Class:
		return v, true
	case *Primitive:
		return v.Boxed(), true
	}
	return nil, false
}

func (c *Checker) commonClass(a, b *Class) Type {
	bs := make(map[string]*Class)
	for _, st := range c.h.AllSupertypes(b) {
		bs[st.FQName] = st
	}
	for _, st := range c.h.AllSupertypes(a)[1:] {
		other, ok := bs[st.FQName]
		if !ok || st.FQName == FQAny {
			continue
		}
		if len(st.Arguments) == 0 || Equal(st, other) {
			return st
		}
		// Arguments disagree: project them away.
		proj := &Class{FQName: st.FQName, Arguments: make([]Argument, len(st.Arguments))}
		for i := range proj.Arguments {
			proj.Arguments[i] = Star
		}
		return proj
	}
	return AnyType
}

func commonPrimitive(a, b PrimitiveKind) *Primitive {
	if a == b {
		return &Primitive{Kind: a}
	}
	if !a.IsNumeric() || !b.IsNumeric() {
		return nil
	}
	wider := a
	if b.BitWidth() > a.BitWidth() || b.BitWidth() == a.BitWidth() && b > a {
		wider = b
	}
	if a.IsFloatingPoint() || b.IsFloatingPoint() {
		if wider.BitWidth() <= 32 {
			return FloatType
		}
		return DoubleType
	}
	return &Primitive{Kind: wider}
}
