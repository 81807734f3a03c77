package types

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/ksema/internal/index"
	"github.com/jward/ksema/internal/symbol"
	"github.com/jward/ksema/internal/syntax"
)

const resolverSource = `package com.acme

import java.util.UUID
import com.other.Thing as Alias
import org.lib.*

typealias Names = List<String>
typealias Handler<T> = (T) -> Unit

open class Animal
interface Named
class Dog : Animal(), Named

class Box<T : Comparable<T>>(val item: T) {
    class Inner
}

enum class Color { RED, GREEN }
`

func buildTable(t *testing.T, src string) *symbol.Table {
	t.Helper()
	tree, err := syntax.ParseString(context.Background(), src)
	require.NoError(t, err)
	t.Cleanup(tree.Close)
	return symbol.Build(tree, "Test.kt")
}

func classNamed(t *testing.T, table *symbol.Table, name string) *symbol.Class {
	t.Helper()
	for _, c := range table.AllClasses() {
		if c.Name == name {
			return c
		}
	}
	require.Failf(t, "class not found", "%s", name)
	return nil
}

func resolve(r *Resolver, text string) Type {
	return r.Resolve(symbol.ParseTypeReference(text), nil)
}

func TestResolver_WithoutIndex(t *testing.T) {
	t.Parallel()
	r := NewResolver(buildTable(t, resolverSource), nil, nil)

	tests := []struct {
		ref  string
		want string
	}{
		{"Int", "Int"},
		{"kotlin.Long?", "Long?"},
		{"String?", "kotlin.String?"},
		{"List<String>", "kotlin.collections.List<kotlin.String>"},
		{"kotlin.collections.List<*>", "kotlin.collections.List<*>"},
		{"(Int, String) -> Boolean", "(Int, kotlin.String) -> Boolean"},
		{"Names", "kotlin.collections.List<kotlin.String>"},
		{"Handler<Int>", "(Int) -> kotlin.Unit"},
		{"Animal", "com.acme.Animal"},
		{"Box.Inner", "com.acme.Box.Inner"},
		{"Color", "com.acme.Color"},
		{"UUID", "java.util.UUID"},
		{"Alias", "com.other.Thing"},
		{"Widget", "org.lib.Widget"},
		{"com.zeta.Thing", "com.zeta.Thing"},
	}
	for _, tt := range tests {
		t.Run(tt.ref, func(t *testing.T) {
			assert.Equal(t, tt.want, resolve(r, tt.ref).Render(true))
		})
	}
}

func TestResolver_LocalClassesCarrySymbols(t *testing.T) {
	t.Parallel()
	table := buildTable(t, resolverSource)
	r := NewResolver(table, nil, nil)

	animal, ok := resolve(r, "Animal").(*Class)
	require.True(t, ok)
	assert.Same(t, classNamed(t, table, "Animal"), animal.Symbol)

	box := classNamed(t, table, "Box")
	param, ok := r.Resolve(symbol.NewTypeRef("T"), table.Scope(box.Members)).(*TypeParam)
	require.True(t, ok)
	assert.Equal(t, "T", param.Name)
	assert.Equal(t, "Comparable<T>", param.Bound().String())

	self := r.ClassType(box, true)
	assert.Equal(t, "Box<T>", self.String())
}

func TestResolver_RegisterClasses(t *testing.T) {
	t.Parallel()
	table := buildTable(t, resolverSource)
	r := NewResolver(table, nil, nil)
	r.RegisterClasses()
	c := NewChecker(r.Hierarchy())

	dog, animal, named := resolve(r, "Dog"), resolve(r, "Animal"), resolve(r, "Named")
	assert.True(t, c.IsSubtype(dog, animal))
	assert.True(t, c.IsSubtype(dog, named))
	assert.False(t, c.IsSubtype(animal, named))
	assert.False(t, c.IsSubtype(animal, StringType))

	color := resolve(r, "Color")
	assert.True(t, c.IsSubtype(color, ComparableOf(color)))
	assert.Equal(t, "Animal", c.CommonSupertype(dog, animal).String())
}

func TestResolver_WithIndex(t *testing.T) {
	t.Parallel()
	lib := index.Minimal()
	lib.AddAll([]index.Symbol{
		{Name: "Widget", FQName: "org.lib.Widget", Kind: index.KindClass, SuperTypes: []string{"Base<String>"}},
		{Name: "Base", FQName: "org.lib.Base", Kind: index.KindInterface, TypeParameters: []string{"T"}},
	})
	r := NewResolver(buildTable(t, resolverSource), lib, nil)

	assert.Equal(t, "org.lib.Widget", resolve(r, "Widget").Render(true))
	assert.Equal(t, "kotlin.text.StringBuilder", resolve(r, "StringBuilder").Render(true))
	assert.Equal(t, "kotlin.sequences.Sequence<Int>", resolve(r, "Sequence<Int>").Render(true))

	missing := resolve(r, "Gadget")
	assert.True(t, IsError(missing))
	assert.Equal(t, "<ERROR: Unresolved type: Gadget>", missing.String())
	assert.True(t, IsError(resolve(r, "UUID")), "explicit imports are checked against the index")

	c := NewChecker(r.Hierarchy())
	widget := resolve(r, "Widget")
	assert.True(t, c.IsSubtype(widget, resolve(r, "Base<String>")))
	assert.False(t, c.IsSubtype(widget, resolve(r, "Base<Int>")))
	assert.True(t, c.IsSubtype(resolve(r, "ArrayList<String>"), resolve(r, "List<String>")))
}

func TestResolveExternal(t *testing.T) {
	t.Parallel()
	r := NewResolver(nil, index.Minimal(), nil)
	T := &TypeParam{Name: "T"}
	params := map[string]*TypeParam{"T": T}

	got := r.ResolveExternal(symbol.ParseTypeReference("(T) -> List<T>?"), "kotlin.collections", params)
	fn, ok := got.(*Function)
	require.True(t, ok)
	assert.Same(t, T, fn.Parameters[0])
	assert.Equal(t, "kotlin.collections.List<T>?", fn.Return.Render(true))

	assert.Equal(t, "kotlin.ranges.IntRange", r.ResolveExternal(symbol.ParseTypeReference("IntRange"), "kotlin", nil).Render(true))
	assert.Equal(t, "java.io.File", r.ResolveExternal(symbol.ParseTypeReference("java.io.File"), "kotlin.io", nil).Render(true))
}
