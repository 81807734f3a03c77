package symbol

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/ksema/internal/slogutil"
	"github.com/jward/ksema/internal/syntax"
)

func buildSource(t *testing.T, src string) *Table {
	t.Helper()
	tree, err := syntax.ParseString(context.Background(), src)
	require.NoError(t, err)
	t.Cleanup(tree.Close)
	return Build(tree, "Test.kt")
}

func findClass(t *testing.T, table *Table, name string) *Class {
	t.Helper()
	for _, c := range table.AllClasses() {
		if c.Name == name {
			return c
		}
	}
	require.Failf(t, "class not found", "%s", name)
	return nil
}

func memberNamed(table *Table, c *Class, name string) Symbol {
	for _, m := range table.Members(c) {
		if m.Decl().Name == name {
			return m
		}
	}
	return nil
}

func TestBuild_PackageAndImports(t *testing.T) {
	t.Parallel()
	table := buildSource(t, `package com.example.app

import kotlin.math.max
import java.util.*
import com.example.util.Helper as H

fun main() {}
`)
	assert.Equal(t, "com.example.app", table.PackageName)
	require.Len(t, table.Imports, 3)
	assert.Equal(t, Import{FQName: "kotlin.math.max", Range: table.Imports[0].Range}, table.Imports[0])
	assert.True(t, table.Imports[1].Star)
	assert.Equal(t, "java.util", table.Imports[1].FQName)
	assert.Equal(t, "H", table.Imports[2].SimpleName())

	imp, ok := table.ExplicitImport("max")
	require.True(t, ok)
	assert.Equal(t, "kotlin.math.max", imp.FQName)
	assert.Equal(t, []string{"java.util"}, table.StarImports())

	fns := table.TopLevelFunctions()
	require.Len(t, fns, 1)
	assert.Equal(t, "com.example.app.main", fns[0].QualifiedName)
}

func TestBuild_ClassWithPrimaryConstructor(t *testing.T) {
	t.Parallel()
	table := buildSource(t, `
open class Person(val name: String, var age: Int = 0, nickname: String) : Comparable<Person> {
    fun greet(other: Person): String = "hi"
    override fun compareTo(other: Person): Int = age - other.age
}
`)
	person := findClass(t, table, "Person")
	assert.Equal(t, ClassKindClass, person.ClassKind)
	assert.True(t, person.Modifiers.IsOpen())
	require.Len(t, person.SuperTypes, 1)
	assert.Equal(t, "Comparable<Person>", person.SuperTypes[0].Render())

	ctor := person.PrimaryConstructor
	require.NotNil(t, ctor)
	require.Len(t, ctor.Parameters, 3)
	assert.True(t, ctor.Parameters[1].HasDefault)
	assert.Equal(t, 2, ctor.RequiredParameterCount())

	name, ok := memberNamed(table, person, "name").(*Property)
	require.True(t, ok, "val parameter becomes a member property")
	assert.False(t, name.IsVar)
	assert.Equal(t, "String", name.Type.Render())

	age, ok := memberNamed(table, person, "age").(*Property)
	require.True(t, ok)
	assert.True(t, age.IsVar)

	assert.Nil(t, memberNamed(table, person, "nickname"), "plain parameters are not members")

	greet, ok := memberNamed(table, person, "greet").(*Function)
	require.True(t, ok)
	assert.Equal(t, "Person", greet.Container)
	assert.Nil(t, greet.ReturnType.Function)
	assert.Equal(t, "String", greet.ReturnType.Render())
	assert.True(t, greet.HasBody())

	cmp, ok := memberNamed(table, person, "compareTo").(*Function)
	require.True(t, ok)
	assert.True(t, cmp.Modifiers.Has(FlagOverride))
	assert.Equal(t, "compareTo(Person)", cmp.ID())
}

func TestBuild_BindingKeywords(t *testing.T) {
	t.Parallel()
	table := buildSource(t, "class P(val name: String)\nvar top = 1\nval fixed = 2\n")

	p := findClass(t, table, "P")
	name, ok := memberNamed(table, p, "name").(*Property)
	require.True(t, ok, "val parameter becomes a member property")
	assert.False(t, name.IsVar)

	vars := make(map[string]bool)
	for _, prop := range table.TopLevelProperties() {
		vars[prop.Name] = prop.IsVar
	}
	assert.Equal(t, map[string]bool{"top": true, "fixed": false}, vars)
}

func TestBuild_InterfaceEnumObject(t *testing.T) {
	t.Parallel()
	table := buildSource(t, `
interface Shape {
    fun area(): Double
}

enum class Color { RED, GREEN, BLUE }

object Registry {
    val shapes = mutableListOf<Shape>()
}

sealed class Result
data class Ok(val value: Int) : Result()
`)
	shape := findClass(t, table, "Shape")
	assert.True(t, shape.IsInterface())
	area, ok := memberNamed(table, shape, "area").(*Function)
	require.True(t, ok)
	assert.False(t, area.HasBody())
	assert.Equal(t, "Double", area.ReturnType.Render())

	color := findClass(t, table, "Color")
	assert.True(t, color.IsEnum())
	assert.Equal(t, []string{"RED", "GREEN", "BLUE"}, table.EnumEntries(color))

	registry := findClass(t, table, "Registry")
	assert.True(t, registry.IsObject())
	shapes, ok := memberNamed(table, registry, "shapes").(*Property)
	require.True(t, ok)
	assert.True(t, shapes.TypeInferred)
	assert.Equal(t, "MutableList<Shape>", shapes.Type.Render())

	result := findClass(t, table, "Result")
	assert.True(t, result.Modifiers.IsSealed())
	okCls := findClass(t, table, "Ok")
	assert.Equal(t, ClassKindData, okCls.ClassKind)
	require.Len(t, okCls.SuperTypes, 1)
	assert.Equal(t, "Result", okCls.SuperTypes[0].Name)
}

func TestBuild_CompanionObject(t *testing.T) {
	t.Parallel()
	table := buildSource(t, `
class Factory {
    companion object {
        fun create(): Factory = Factory()
    }
}
`)
	factory := findClass(t, table, "Factory")
	require.NotNil(t, factory.Companion)
	assert.Equal(t, "Companion", factory.Companion.Name)
	assert.Equal(t, ClassKindCompanion, factory.Companion.ClassKind)
	assert.NotNil(t, memberNamed(table, factory.Companion, "create"))
}

func TestBuild_FunctionsAndExtensions(t *testing.T) {
	t.Parallel()
	table := buildSource(t, `
fun <T : Comparable<T>> maxOf2(a: T, b: T): T = if (a > b) a else b

fun String.shout(times: Int = 1, vararg suffix: String): String {
    return this
}

suspend inline fun run2(crossinline block: () -> Unit) {}
`)
	fns := table.TopLevelFunctions()
	require.Len(t, fns, 3)

	maxFn := fns[0]
	require.Len(t, maxFn.TypeParameters, 1)
	assert.Equal(t, "T", maxFn.TypeParameters[0].Name)
	require.Len(t, maxFn.TypeParameters[0].Bounds, 1)
	assert.Equal(t, "Comparable<T>", maxFn.TypeParameters[0].Bounds[0].Render())
	assert.Equal(t, "T", maxFn.ReturnType.Render())

	shout := fns[1]
	require.True(t, shout.IsExtension())
	assert.Equal(t, "String", shout.ReceiverType.Render())
	require.Len(t, shout.Parameters, 2)
	assert.True(t, shout.Parameters[0].HasDefault)
	assert.True(t, shout.Parameters[1].IsVararg)
	assert.Equal(t, "Array<String>", shout.Parameters[1].ArrayType().Render())

	run2 := fns[2]
	assert.True(t, run2.Modifiers.Has(FlagSuspend))
	assert.True(t, run2.Modifiers.Has(FlagInline))
	require.Len(t, run2.Parameters, 1)
	assert.True(t, run2.Parameters[0].IsCrossinline)
	assert.True(t, run2.Parameters[0].Type.IsFunction())
	assert.Equal(t, "Unit", run2.ReturnType.Render())
}

func TestBuild_LocalScopes(t *testing.T) {
	t.Parallel()
	src := `fun process(items: List<String>) {
    val count = 0
    for (item in items) {
        println(item)
    }
    items.forEach {
        println(it)
    }
    try {
        println(count)
    } catch (e: Exception) {
        println(e)
    }
}
`
	table := buildSource(t, src)

	// inside the for body: line 3
	sym := table.ScopeAt(syntax.Position{Line: 3, Column: 10}).ResolveFirst("item")
	require.NotNil(t, sym)
	loopVar, ok := sym.(*Property)
	require.True(t, ok)
	assert.NotNil(t, loopVar.LoopSource)

	it := table.ScopeAt(syntax.Position{Line: 6, Column: 16}).ResolveFirst("it")
	require.NotNil(t, it)
	assert.True(t, it.(*Parameter).Implicit)

	e := table.ScopeAt(syntax.Position{Line: 11, Column: 16}).ResolveFirst("e")
	require.NotNil(t, e)
	assert.Equal(t, "Exception", e.(*Parameter).Type.Render())

	// the loop variable is not visible after the loop
	assert.Nil(t, table.ScopeAt(syntax.Position{Line: 9, Column: 8}).ResolveFirst("item"))

	count := table.ScopeAt(syntax.Position{Line: 9, Column: 8}).ResolveFirst("count")
	require.NotNil(t, count)
	assert.Equal(t, "Int", count.(*Property).Type.Render())
	assert.Empty(t, count.Decl().QualifiedName, "locals have no qualified name")
}

func TestBuild_PropertyAccessorsAndDestructuring(t *testing.T) {
	t.Parallel()
	table := buildSource(t, `
class Temperature {
    var celsius: Double = 0.0
        set(value) {
            field = value
        }
    val fahrenheit: Double
        get() = celsius * 1.8 + 32
}

fun split() {
    val (first, second) = Pair(1, "two")
}
`)
	temp := findClass(t, table, "Temperature")
	celsius := memberNamed(table, temp, "celsius").(*Property)
	require.NotNil(t, celsius.Setter)
	require.Len(t, celsius.Setter.Parameters, 1)
	assert.Equal(t, "Double", celsius.Setter.Parameters[0].Type.Render())

	fahrenheit := memberNamed(table, temp, "fahrenheit").(*Property)
	require.NotNil(t, fahrenheit.Getter)
	assert.True(t, fahrenheit.HasImplementation())
	assert.False(t, fahrenheit.HasInitializer)

	fn := table.TopLevelFunctions()[0]
	body := table.Scope(fn.Body)
	second, ok := body.ResolveFirst("second").(*Property)
	require.True(t, ok)
	assert.Equal(t, 2, second.Component)
	assert.NotNil(t, second.Initializer)
}

func TestBuild_SplitAccessorsAtTopLevel(t *testing.T) {
	t.Parallel()
	table := buildSource(t, `var counter: Int = 0
    private set

val doubled: Int
    get() = counter * 2

val plain = 1
`)
	props := make(map[string]*Property)
	for _, p := range table.TopLevelProperties() {
		props[p.Name] = p
	}
	require.Len(t, props, 3)

	counter := props["counter"]
	require.NotNil(t, counter.Setter)
	assert.Equal(t, VisibilityPrivate, counter.Setter.Modifiers.Visibility)
	assert.Nil(t, counter.Getter)

	doubled := props["doubled"]
	require.NotNil(t, doubled.Getter)
	assert.Nil(t, doubled.Setter)
	assert.Equal(t, "Int", doubled.Getter.ReturnType.Render())

	assert.Nil(t, props["plain"].Getter, "an accessor belongs to the property right before it")
}

func TestBuild_Logging(t *testing.T) {
	t.Parallel()
	tree, err := syntax.ParseString(context.Background(), "package demo\n\nfun main() {}\n")
	require.NoError(t, err)
	t.Cleanup(tree.Close)

	var buf bytes.Buffer
	Build(tree, "Main.kt", WithLogger(slogutil.NewLogger(&buf, slog.LevelDebug)))

	out := buf.String()
	assert.Contains(t, out, "[debug] building symbols | file=Main.kt")
	assert.Contains(t, out, "[debug] symbols built | file=Main.kt package=demo symbols=1")
}

func TestBuild_ObjectLiteralGetsAnonymousClass(t *testing.T) {
	t.Parallel()
	table := buildSource(t, `
interface Listener { fun fire() }

val l = object : Listener {
    override fun fire() {}
}
`)
	var found *Class
	for id := ScopeID(1); int(id) <= table.Tree.Len(); id++ {
		s := table.Tree.Get(id)
		if c, ok := s.Owner.(*Class); ok && c.Name == "<anonymous>" {
			found = c
		}
	}
	require.NotNil(t, found)
	require.Len(t, found.SuperTypes, 1)
	assert.Equal(t, "Listener", found.SuperTypes[0].Name)
	assert.NotNil(t, memberNamed(table, found, "fire"))
}

func TestBuild_SymbolAtAndOutline(t *testing.T) {
	t.Parallel()
	table := buildSource(t, `class Box {
    val size = 3
    fun open() {}
}
`)
	sym := table.SymbolAt(syntax.Position{Line: 0, Column: 7})
	require.NotNil(t, sym)
	assert.Equal(t, "Box", sym.Decl().Name)

	outline := table.Outline()
	require.Len(t, outline, 1)
	assert.Equal(t, OutlineClass, outline[0].Kind)
	require.Len(t, outline[0].Children, 2)
	assert.Equal(t, OutlineField, outline[0].Children[0].Kind)
	assert.Equal(t, OutlineMethod, outline[0].Children[1].Kind)
	assert.Equal(t, "fun open(): Unit", outline[0].Children[1].Detail)
}

func TestMatchHeader(t *testing.T) {
	t.Parallel()
	text := "  private data class Point<T>(val x: Int) : Base(1, 2), Shape<A, B> {\n"
	h, ok := matchHeader(text, 100)
	require.True(t, ok)
	assert.Equal(t, "class", h.keyword)
	assert.Equal(t, "Point", h.name)
	assert.Equal(t, []string{"private", "data"}, h.modifiers)
	assert.Equal(t, []string{"Base", "Shape<A, B>"}, h.superTypes)
	assert.Equal(t, 100+len("  private data class "), h.nameStart)
	assert.Equal(t, 102, h.start)

	_, ok = matchHeader("val x = 1", 0)
	assert.False(t, ok)
}

func TestSplitSuperTypes(t *testing.T) {
	t.Parallel()
	assert.Equal(t, []string{"A", "B<C, D>", "E"}, splitSuperTypes("A(x, y), B<C, D>, E()"))
	assert.Empty(t, splitSuperTypes("  "))
}

func TestInferInitializerType_Literals(t *testing.T) {
	t.Parallel()
	table := buildSource(t, `
val a = 1
val b = 2L
val c = 1.5
val d = 1.5f
val e = "s"
val f = 'c'
val g = true
val h = listOf(1, 2)
val i = mapOf("k" to 1)
val j = emptyList<String>()
val k = null
val m = Regex("x")
val n = intArrayOf(1)
val o = !g
`)
	want := map[string]string{
		"a": "Int", "b": "Long", "c": "Double", "d": "Float", "e": "String",
		"f": "Char", "g": "Boolean", "h": "List<Int>", "i": "Map<String, Int>",
		"j": "List<String>", "k": "Any?", "m": "Regex", "n": "IntArray", "o": "Boolean",
	}
	got := make(map[string]string)
	for _, p := range table.TopLevelProperties() {
		if p.Type != nil {
			got[p.Name] = p.Type.Render()
		}
	}
	assert.Equal(t, want, got)
}
