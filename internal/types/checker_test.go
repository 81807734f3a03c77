package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRender(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name      string
		typ       Type
		short     string
		qualified string
	}{
		{"primitive", IntType, "Int", "Int"},
		{"nullable class", StringType.WithNullable(true), "String?", "kotlin.String?"},
		{"generic", MapOf(StringType, ListOf(IntType)), "Map<String, List<Int>>", "kotlin.collections.Map<kotlin.String, kotlin.collections.List<Int>>"},
		{"star", &Class{FQName: FQList, Arguments: []Argument{Star}}, "List<*>", "kotlin.collections.List<*>"},
		{"projection", &Class{FQName: FQList, Arguments: []Argument{{Type: NumberType, Variance: Out}}}, "List<out Number>", "kotlin.collections.List<out kotlin.Number>"},
		{"function", &Function{Parameters: []Type{IntType, StringType}, Return: BooleanType}, "(Int, String) -> Boolean", "(Int, kotlin.String) -> Boolean"},
		{"nullable function", &Function{Parameters: []Type{IntType}, Return: UnitType, Nullable: true}, "((Int) -> Unit)?", "((Int) -> kotlin.Unit)?"},
		{"extension function", &Function{Receiver: StringType, Return: IntType}, "String.() -> Int", "kotlin.String.() -> Int"},
		{"type param", &TypeParam{Name: "T", Nullable: true}, "T?", "T?"},
		{"error", Unresolved("Foo"), "<ERROR: Unresolved type: Foo>", "<ERROR: Unresolved type: Foo>"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.short, tt.typ.Render(false))
			assert.Equal(t, tt.qualified, tt.typ.Render(true))
		})
	}
}

func TestSubstitute(t *testing.T) {
	t.Parallel()
	T := &TypeParam{Name: "T"}
	subst := Substitution{"T": StringType}

	assert.Equal(t, "List<String>", ListOf(T).Substitute(subst).String())
	assert.Equal(t, "String?", T.WithNullable(true).Substitute(subst).String())
	assert.Equal(t, "(String) -> String", (&Function{Parameters: []Type{T}, Return: T}).Substitute(subst).String())
	assert.Same(t, IntType, IntType.Substitute(subst))
	assert.Equal(t, "T", ListOf(T).Substitute(nil).(*Class).Arg(0).String())
}

func TestErrorTypes(t *testing.T) {
	t.Parallel()
	assert.True(t, IsCircular(Circular("x")))
	assert.False(t, IsCircular(Unresolved("x")))
	assert.False(t, IsCircular(StringType))
	assert.True(t, ListOf(ErrorOf("boom")).HasError())
	assert.True(t, IsError(nil))
	assert.False(t, IsError(IntType))
}

func TestIsSubtype(t *testing.T) {
	t.Parallel()
	c := NewChecker(nil)
	T := &TypeParam{Name: "T", Bounds: []Type{CharSequence}}
	tests := []struct {
		name     string
		sub, sup Type
		want     bool
	}{
		{"same", StringType, StringType, true},
		{"nothing to anything", NothingType, StringType, true},
		{"null to non-null", NullType, StringType, false},
		{"null to nullable", NullType, StringType.WithNullable(true), true},
		{"string to any", StringType, AnyType, true},
		{"nullable to any", StringType.WithNullable(true), AnyType, false},
		{"nullable to any?", StringType.WithNullable(true), AnyNullable, true},
		{"non-null to nullable", StringType, StringType.WithNullable(true), true},
		{"nullable to non-null", StringType.WithNullable(true), StringType, false},
		{"string to char sequence", StringType, CharSequence, true},
		{"string to comparable", StringType, ComparableOf(StringType), true},
		{"char sequence to string", CharSequence, StringType, false},
		{"int widens to long", IntType, LongType, true},
		{"long narrows to int", LongType, IntType, false},
		{"int to double", IntType, DoubleType, true},
		{"boolean to int", BooleanType, IntType, false},
		{"int to number", IntType, NumberType, true},
		{"boolean to number", BooleanType, NumberType, false},
		{"int to comparable", IntType, ComparableOf(IntType), true},
		{"int to boxed", IntType, &Class{FQName: "kotlin.Int"}, true},
		{"covariant list", ListOf(StringType), ListOf(AnyType), true},
		{"invariant mutable list", MutableListOf(StringType), MutableListOf(AnyType), false},
		{"mutable list to list", MutableListOf(StringType), ListOf(CharSequence), true},
		{"mutable list to collection", MutableListOf(StringType), NewClass(FQCollection, AnyType), true},
		{"list to mutable list", ListOf(StringType), MutableListOf(StringType), false},
		{"star projection", ListOf(StringType), &Class{FQName: FQList, Arguments: []Argument{Star}}, true},
		{"contravariant comparable", ComparableOf(AnyType), ComparableOf(StringType), true},
		{"contravariant wrong way", ComparableOf(StringType), ComparableOf(AnyType), false},
		{"map value covariant", MapOf(StringType, IntType), MapOf(StringType, NumberType), true},
		{"map key invariant", MapOf(StringType, IntType), MapOf(AnyType, IntType), false},
		{"exception chain", &Class{FQName: "kotlin.IllegalStateException"}, Throwable, true},
		{"function variance", &Function{Parameters: []Type{AnyType}, Return: StringType}, &Function{Parameters: []Type{StringType}, Return: AnyType}, true},
		{"function variance wrong way", &Function{Parameters: []Type{StringType}, Return: AnyType}, &Function{Parameters: []Type{AnyType}, Return: StringType}, false},
		{"function arity", &Function{Return: UnitType}, &Function{Parameters: []Type{IntType}, Return: UnitType}, false},
		{"receiver as parameter", &Function{Receiver: StringType, Return: UnitType}, &Function{Parameters: []Type{StringType}, Return: UnitType}, true},
		{"type param through bound", T, CharSequence, true},
		{"type param not string", T, StringType, false},
		{"string into bounded param", StringType, T, true},
		{"int into bounded param", IntType, T, false},
		{"error left", ErrorOf("x"), IntType, true},
		{"error right", StringType, ErrorOf("x"), true},
		{"unknown class is lenient", &Class{FQName: "com.acme.Unknown"}, StringType, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.IsSubtype(tt.sub, tt.sup), "%s <: %s", tt.sub, tt.sup)
		})
	}
}

func TestIsSubtype_RegisteredClasses(t *testing.T) {
	t.Parallel()
	h := NewHierarchy(nil)
	h.AddClass("a.Animal", nil, []*Class{AnyType})
	h.AddClass("a.Dog", nil, []*Class{{FQName: "a.Animal"}})
	h.AddClass("a.Box", []TypeParamInfo{{Name: "T", Variance: Out}}, []*Class{AnyType})
	h.AddClass("a.StringBox", nil, []*Class{NewClass("a.Box", StringType)})
	c := NewChecker(h)

	dog, animal := &Class{FQName: "a.Dog"}, &Class{FQName: "a.Animal"}
	assert.True(t, c.IsSubtype(dog, animal))
	assert.False(t, c.IsSubtype(animal, dog))
	assert.False(t, c.IsSubtype(dog, StringType))
	assert.True(t, c.IsSubtype(NewClass("a.Box", dog), NewClass("a.Box", animal)))
	assert.True(t, c.IsSubtype(&Class{FQName: "a.StringBox"}, NewClass("a.Box", CharSequence)))
	assert.False(t, c.IsSubtype(&Class{FQName: "a.StringBox"}, NewClass("a.Box", IntType)))
	assert.True(t, c.AreEquivalent(dog, &Class{FQName: "a.Dog"}))
	assert.Equal(t, "Animal", c.CommonSupertype(dog, animal).String())
}

func TestCommonSupertype(t *testing.T) {
	t.Parallel()
	c := NewChecker(nil)
	tests := []struct {
		name string
		a, b Type
		want string
	}{
		{"same", StringType, StringType, "String"},
		{"int long", IntType, LongType, "Long"},
		{"int double", IntType, DoubleType, "Double"},
		{"byte short", ByteType, ShortType, "Short"},
		{"null absorbed", StringType, NullType, "String?"},
		{"nothing absorbed", NothingType, IntType, "Int"},
		{"nullable kept", StringType.WithNullable(true), StringType, "String?"},
		{"string int", StringType, IntType, "Comparable<*>"},
		{"list set", ListOf(StringType), SetOf(StringType), "Collection<String>"},
		{"boolean int", BooleanType, IntType, "Comparable<*>"},
		{"function and class", &Function{Return: UnitType}, StringType, "Any"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.CommonSupertype(tt.a, tt.b).String())
		})
	}

	assert.Equal(t, "Nothing", c.CommonSupertypeOf(nil).String())
	assert.Equal(t, "Long?", c.CommonSupertypeOf([]Type{IntType, NullType, LongType}).String())
}

func TestElementType(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "String", ElementType(ListOf(StringType)).String())
	assert.Equal(t, "Int", ElementType(IntRange).String())
	assert.Equal(t, "Char", ElementType(StringType).String())
	assert.Equal(t, "Int", ElementType(&Class{FQName: "kotlin.IntArray"}).String())
	assert.Equal(t, "Entry<String, Int>", ElementType(MapOf(StringType, IntType)).String())
	assert.Nil(t, ElementType(IntType))
}
