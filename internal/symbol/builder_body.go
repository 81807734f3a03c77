package symbol

import (
	"github.com/jward/ksema/internal/syntax"
)

func (b *builder) lambda(n *syntax.Node, scope *Scope) {
	ls := scope.CreateChild(ScopeLambda, nil, n.Range())
	b.table.BindScope(n, ls.ID)
	if lp := n.FindChild(syntax.KindLambdaParameters); lp != nil {
		for _, c := range lp.NamedChildren() {
			switch c.Kind() {
			case syntax.KindVariableDeclaration:
				b.lambdaParameter(c, ls)
			case syntax.KindMultiVariableDecl:
				for _, v := range c.FindChildren(syntax.KindVariableDeclaration) {
					b.lambdaParameter(v, ls)
				}
			}
		}
	} else {
		ls.Define(&Parameter{
			Declaration: Declaration{Name: "it", Node: n},
			Implicit:    true,
		})
	}
	if st := n.FindChild(syntax.KindStatements); st != nil {
		b.table.BindScope(st, ls.ID)
	}
	for _, c := range n.Children() {
		if c.IsNamed() && c.Kind() != syntax.KindLambdaParameters {
			b.visit(c, ls, localContext)
		}
	}
}

func (b *builder) lambdaParameter(v *syntax.Node, ls *Scope) {
	id := v.FindChild(syntax.KindSimpleIdentifier)
	if id == nil || id.Text() == "_" {
		return
	}
	p := &Parameter{
		Declaration: b.declaration(v, id.Range(), identifierName(id), Modifiers{}, localContext),
		Type:        TypeRefFromNode(FirstTypeChild(v)),
	}
	ls.Define(p)
	b.table.Register(p)
}

// forStatement declares the loop variables in a scope covering the loop. The
// iterated expression is walked in the enclosing scope.
func (b *builder) forStatement(n *syntax.Node, scope *Scope) {
	fs := scope.CreateChild(ScopeFor, nil, n.Range())
	b.table.BindScope(n, fs.ID)
	source := expressionAfter(n, "in")

	declare := func(v *syntax.Node, component int) {
		id := v.FindChild(syntax.KindSimpleIdentifier)
		if id == nil || id.Text() == "_" {
			return
		}
		prop := &Property{
			Declaration:    b.declaration(v, id.Range(), identifierName(id), Modifiers{}, localContext),
			Type:           TypeRefFromNode(FirstTypeChild(v)),
			HasInitializer: true,
			LoopSource:     source,
			Component:      component,
		}
		fs.Define(prop)
		b.table.Register(prop)
	}
	for _, c := range n.Children() {
		switch {
		case c.Kind() == syntax.KindVariableDeclaration:
			declare(c, 0)
		case c.Kind() == syntax.KindMultiVariableDecl:
			for i, v := range c.FindChildren(syntax.KindVariableDeclaration) {
				declare(v, i+1)
			}
		case source != nil && c.Same(source):
			b.visit(c, scope, localContext)
		case c.IsNamed():
			b.visit(c, fs, localContext)
		}
	}
}

func (b *builder) catchBlock(n *syntax.Node, scope *Scope) {
	cs := scope.CreateChild(ScopeCatch, nil, n.Range())
	b.bindBody(n, cs)
	if id := n.FindChild(syntax.KindSimpleIdentifier); id != nil {
		p := &Parameter{
			Declaration: b.declaration(n, id.Range(), identifierName(id), Modifiers{}, localContext),
			Type:        TypeRefFromNode(FirstTypeChild(n)),
		}
		cs.Define(p)
		b.table.Register(p)
	}
	b.visitChildren(n, cs, localContext)
}

// whenExpression opens a scope for `when (val x = ...)` subjects.
func (b *builder) whenExpression(n *syntax.Node, scope *Scope) {
	subject := n.FindChild(syntax.KindWhenSubject)
	if subject == nil || subject.BindingKeyword() == "" {
		b.visitChildren(n, scope, localContext)
		return
	}
	ws := scope.CreateChild(ScopeBlock, nil, n.Range())
	b.table.BindScope(n, ws.ID)
	init := expressionAfter(subject, "=")
	if vd := subject.FindChild(syntax.KindVariableDeclaration); vd != nil {
		if id := vd.FindChild(syntax.KindSimpleIdentifier); id != nil {
			prop := &Property{
				Declaration:    b.declaration(subject, id.Range(), identifierName(id), Modifiers{}, localContext),
				Type:           TypeRefFromNode(FirstTypeChild(vd)),
				HasInitializer: init != nil,
				Initializer:    init,
			}
			if prop.Type == nil {
				if t := InferInitializerType(init); t != nil {
					prop.Type, prop.TypeInferred = t, true
				}
			}
			ws.Define(prop)
			b.table.Register(prop)
		}
	}
	if init != nil {
		b.visit(init, scope, localContext)
	}
	for _, c := range n.Children() {
		if c.IsNamed() && !c.Same(subject) {
			b.visit(c, ws, localContext)
		}
	}
}

// objectLiteral gives `object : T { ... }` expressions a synthetic class so
// member lookups and `this` work inside the body.
func (b *builder) objectLiteral(n *syntax.Node, scope *Scope) {
	anon := &Class{
		Declaration: Declaration{Name: "<anonymous>", Node: n},
		ClassKind:   ClassKindObject,
		SuperTypes:  superTypes(n),
	}
	s := scope.CreateChild(ScopeClass, anon, n.Range())
	anon.Members = s.ID
	b.table.BindAnonymous(n, anon)
	mdc := declContext{class: anon, local: true}
	b.classContents(n, anon, s, mdc)
}

// visitError salvages declarations from an ERROR node. A class header is
// looked for among the node's children first and in its raw text second; the
// remaining children are then walked inside the recovered class until its
// braces close.
func (b *builder) visitError(n *syntax.Node, scope *Scope, dc declContext) {
	children := n.Children()
	cls, bodyStart := b.structuralHeader(children, scope, dc)
	if cls == nil {
		cls, bodyStart = b.textualHeader(n, scope, dc)
	}
	if cls == nil {
		b.visitChildren(n, scope, dc)
		return
	}
	members := b.table.Scope(cls.Members)
	mdc := dc.member(cls)
	depth, opened := 0, false
	for _, c := range children {
		if c.Range().EndByte <= bodyStart {
			continue
		}
		if opened && depth == 0 {
			if c.IsNamed() {
				b.visit(c, scope, dc)
			}
			continue
		}
		switch {
		case c.Kind() == "{":
			depth++
			opened = true
		case c.Kind() == "}":
			depth--
		case c.Kind() == syntax.KindClassBody || c.Kind() == syntax.KindEnumClassBody:
			b.classBody(c, cls, members, mdc)
		case c.IsNamed():
			b.visit(c, members, mdc)
		}
	}
}

// structuralHeader looks for a `class|interface|object` token followed by an
// identifier among the children of an ERROR node. It returns the class and
// the byte offset where the header ends.
func (b *builder) structuralHeader(children []*syntax.Node, scope *Scope, dc declContext) (*Class, int) {
	for i, c := range children {
		if c.IsNamed() || !c.Is("class", "interface", "object") {
			continue
		}
		var id *syntax.Node
		for _, d := range children[i+1:] {
			if d.Is(syntax.KindTypeIdentifier, syntax.KindSimpleIdentifier) {
				id = d
			}
			if d.IsNamed() {
				break
			}
		}
		if id == nil {
			continue
		}
		var mods Modifiers
		start := c.Range()
		for _, p := range children[:i] {
			switch {
			case p.Kind() == syntax.KindModifiers:
				applyModifiers(&mods, p)
				start = p.Range()
			case !p.IsNamed():
				if _, ok := flagNames[p.Kind()]; ok {
					mods.Apply(p.Kind())
				}
			}
		}
		headerEnd := id.Range().EndByte
		var supers []*TypeReference
		afterColon := false
		for _, d := range children[i+1:] {
			if d.Range().StartByte < headerEnd {
				continue
			}
			if d.Kind() == "{" || d.Kind() == syntax.KindClassBody {
				break
			}
			switch {
			case d.Kind() == ":":
				afterColon = true
			case afterColon && d.Kind() == syntax.KindDelegationSpecifier:
				supers = append(supers, delegationType(d))
			case afterColon && d.Kind() == syntax.KindConstructorInvoc:
				supers = append(supers, TypeRefFromNode(FirstTypeChild(d)))
			case afterColon && IsTypeNode(d):
				supers = append(supers, TypeRefFromNode(d))
			default:
				continue
			}
			headerEnd = d.Range().EndByte
		}
		last := children[len(children)-1]
		rng := syntax.Range{
			Start:     start.Start,
			End:       last.Range().End,
			StartByte: start.StartByte,
			EndByte:   last.Range().EndByte,
		}
		cls, _ := b.newClass(classSpec{
			rng:        rng,
			nameRange:  id.Range(),
			name:       identifierName(id),
			kind:       classKindOf(c.Kind(), mods),
			mods:       mods,
			superTypes: compactRefs(supers),
		}, scope, dc)
		return cls, headerEnd
	}
	return nil, 0
}

// textualHeader runs the header pattern over the ERROR node's text. Text
// already covered by a well-formed declaration inside the node is ignored.
func (b *builder) textualHeader(n *syntax.Node, scope *Scope, dc declContext) (*Class, int) {
	r := n.Range()
	h, ok := matchHeader(n.Text(), r.StartByte)
	if !ok || coveredByDeclaration(n, h.nameStart) {
		return nil, 0
	}
	mods := ParseModifiers(h.modifiers...)
	var supers []*TypeReference
	for _, s := range h.superTypes {
		supers = append(supers, ParseTypeReference(s))
	}
	cls, _ := b.newClass(classSpec{
		rng:        rangeAt(b.src, h.start, r.EndByte),
		nameRange:  rangeAt(b.src, h.nameStart, h.nameEnd),
		name:       h.name,
		kind:       classKindOf(h.keyword, mods),
		mods:       mods,
		superTypes: compactRefs(supers),
	}, scope, dc)
	return cls, h.end
}

func compactRefs(refs []*TypeReference) []*TypeReference {
	var out []*TypeReference
	for _, r := range refs {
		if r != nil && r.Name != "" {
			out = append(out, r)
		}
	}
	return out
}
