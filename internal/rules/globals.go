package rules

import (
	"github.com/risor-io/risor/object"

	"github.com/jward/ksema/internal/diagnostic"
	"github.com/jward/ksema/internal/symbol"
	"github.com/jward/ksema/internal/syntax"
)

// symbolList converts the table's declared symbols to Risor maps. Synthetic
// symbols are skipped.
func symbolList(t *symbol.Table) *object.List {
	items := []object.Object{}
	if t == nil {
		return object.NewList(items)
	}
	for _, sym := range t.Symbols() {
		if symbol.IsSynthetic(sym) {
			continue
		}
		d := sym.Decl()
		m := map[string]object.Object{
			"name":           object.NewString(d.Name),
			"kind":           object.NewString(sym.Kind().String()),
			"qualified_name": object.NewString(d.QualifiedName),
			"visibility":     object.NewString(d.Modifiers.Visibility.String()),
			"modifiers":      stringList(d.Modifiers.Keywords()),
			"container":      object.NewString(containerName(t, d)),
		}
		if c, ok := sym.(*symbol.Class); ok {
			m["class_kind"] = object.NewString(c.ClassKind.String())
		}
		putRange(m, d.Location.NameRange)
		items = append(items, object.NewMap(m))
	}
	return object.NewList(items)
}

// containerName is the name of the declaration owning d's scope, empty for
// top-level symbols.
func containerName(t *symbol.Table, d *symbol.Declaration) string {
	for s := t.Scope(d.Scope); s != nil; s = s.ParentScope() {
		if s.Owner != nil && s.Owner.Decl() != d {
			return s.Owner.Decl().Name
		}
	}
	return ""
}

func importList(t *symbol.Table) *object.List {
	items := []object.Object{}
	if t == nil {
		return object.NewList(items)
	}
	for _, imp := range t.Imports {
		m := map[string]object.Object{
			"fq_name": object.NewString(imp.FQName),
			"alias":   object.NewString(imp.Alias),
			"star":    object.NewBool(imp.Star),
			"name":    object.NewString(imp.SimpleName()),
		}
		putRange(m, imp.Range)
		items = append(items, object.NewMap(m))
	}
	return object.NewList(items)
}

func diagnosticList(diags []diagnostic.Diagnostic) *object.List {
	items := make([]object.Object, 0, len(diags))
	for _, d := range diags {
		m := map[string]object.Object{
			"code":     object.NewString(string(d.Code)),
			"message":  object.NewString(d.Message),
			"severity": object.NewString(d.Severity.String()),
		}
		putRange(m, d.Range)
		items = append(items, object.NewMap(m))
	}
	return object.NewList(items)
}

func putRange(m map[string]object.Object, r syntax.Range) {
	m["line"] = object.NewInt(int64(r.Start.Line))
	m["col"] = object.NewInt(int64(r.Start.Column))
	m["end_line"] = object.NewInt(int64(r.End.Line))
	m["end_col"] = object.NewInt(int64(r.End.Column))
}

func stringList(ss []string) *object.List {
	items := make([]object.Object, len(ss))
	for i, s := range ss {
		items[i] = object.NewString(s)
	}
	return object.NewList(items)
}
