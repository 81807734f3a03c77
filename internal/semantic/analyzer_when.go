package semantic

import (
	"strings"

	"github.com/jward/ksema/internal/diagnostic"
	"github.com/jward/ksema/internal/index"
	"github.com/jward/ksema/internal/symbol"
	"github.com/jward/ksema/internal/syntax"
	"github.com/jward/ksema/internal/types"
)

// checkExhaustive reports a when used as a value that covers neither every
// case of its subject's closed type nor has an else branch. Only enum,
// sealed and Boolean subjects have a closed set of cases.
func (a *Analyzer) checkExhaustive(n *syntax.Node, scope *symbol.Scope) {
	if n.FindChild(syntax.KindWhenSubject) == nil {
		return
	}
	entries := n.FindChildren(syntax.KindWhenEntry)
	for _, e := range entries {
		if e.FindChild(syntax.KindWhenCondition) == nil && e.HasToken("else") {
			return
		}
	}
	expr, prop := a.in.WhenSubject(n)
	var subj types.Type
	switch {
	case prop != nil:
		subj = a.in.SymbolType(prop)
	case expr != nil:
		subj = a.in.Infer(expr, scope, nil)
	}
	if subj == nil || types.IsError(subj) || subj.HasError() {
		return
	}
	required := a.requiredCases(subj)
	if len(required) == 0 {
		return
	}
	covered := make(map[string]bool)
	for _, e := range entries {
		for _, c := range e.FindChildren(syntax.KindWhenCondition) {
			if name := coveredCase(c); name != "" {
				covered[name] = true
			}
		}
	}
	var missing []string
	for _, name := range required {
		if !covered[name] {
			missing = append(missing, "'"+name+"'")
		}
	}
	if len(missing) == 0 {
		return
	}
	r := n.Range()
	for _, c := range n.Children() {
		if !c.IsNamed() && c.Kind() == "when" {
			r = c.Range()
			break
		}
	}
	a.ctx.ReportErrorAt(diagnostic.MissingWhenBranch, n, r, strings.Join(missing, ", "))
}

// coveredCase returns the case a single when condition names: a type for
// `is T`, an entry for `E.A` or `A`, a Boolean literal or null.
func coveredCase(c *syntax.Node) string {
	inner := firstOperand(c)
	if inner == nil {
		return ""
	}
	inner = trimTrivia(inner)
	switch inner.Kind() {
	case syntax.KindTypeTest:
		if isNegatedTest(inner) {
			return ""
		}
		if ref := symbol.TypeRefFromNode(symbol.FirstTypeChild(inner)); ref != nil {
			return index.SimpleName(ref.Name)
		}
	case syntax.KindSimpleIdentifier:
		return identText(inner)
	case syntax.KindNavigationExpression:
		suffixes := inner.FindChildren(syntax.KindNavigationSuffix)
		if len(suffixes) == 0 {
			return ""
		}
		return identText(suffixes[len(suffixes)-1].FindChild(syntax.KindSimpleIdentifier))
	case syntax.KindBooleanLiteral:
		return strings.TrimSpace(inner.Text())
	case syntax.KindNullLiteral:
		return "null"
	}
	return ""
}

// requiredCases lists the cases a when over t must cover, nil when t has no
// closed set of cases.
func (a *Analyzer) requiredCases(t types.Type) []string {
	var out []string
	nn := types.NonNull(t)
	switch {
	case types.IsBoolean(nn):
		out = []string{"true", "false"}
	default:
		c, ok := nn.(*types.Class)
		if !ok {
			return nil
		}
		if local := a.ctx.LocalClass(c.FQName); local != nil {
			out = a.localCases(local, c.FQName)
		} else {
			out = a.externalCases(c.FQName)
		}
	}
	if len(out) > 0 && t.IsNullable() {
		out = append(out, "null")
	}
	return out
}

func (a *Analyzer) localCases(c *symbol.Class, fq string) []string {
	switch {
	case c.IsEnum():
		return a.ctx.Table.EnumEntries(c)
	case c.Modifiers.IsSealed():
		seen := make(map[string]bool)
		var out []string
		add := func(name string) {
			if !seen[name] {
				seen[name] = true
				out = append(out, name)
			}
		}
		for _, sub := range a.ctx.Table.AllClasses() {
			if sub == c || sub.ClassKind == symbol.ClassKindEnumEntry {
				continue
			}
			for _, st := range sub.SuperTypes {
				if namesClass(st.Name, c, fq) {
					add(sub.Name)
					break
				}
			}
		}
		for _, name := range a.indexedSubclasses(fq) {
			add(name)
		}
		return out
	}
	return nil
}

// namesClass reports whether a supertype reference written in source names
// c, whose fully qualified name is fq.
func namesClass(ref string, c *symbol.Class, fq string) bool {
	ref = index.BaseName(ref)
	return ref == c.Name || ref == c.FullName() || ref == fq || strings.HasSuffix(fq, "."+ref)
}

func (a *Analyzer) externalCases(fq string) []string {
	for _, rec := range a.ctx.Project.FindByFQName(fq) {
		switch {
		case rec.Kind == index.KindEnumClass:
			var out []string
			for _, m := range a.ctx.Project.FindMembers(fq) {
				if m.Kind == index.KindEnumEntry {
					out = append(out, m.Name)
				}
			}
			return out
		case rec.IsSealed:
			return a.indexedSubclasses(fq)
		}
	}
	return nil
}

func (a *Analyzer) indexedSubclasses(fq string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, rec := range a.ctx.Project.AllClasses() {
		for _, st := range rec.SuperTypes {
			if index.BaseName(st) == fq && !seen[rec.FQName] {
				seen[rec.FQName] = true
				out = append(out, rec.Name)
			}
		}
	}
	return out
}
