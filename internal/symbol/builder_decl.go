package symbol

import (
	"strings"

	"github.com/jward/ksema/internal/syntax"
)

// classSpec describes a class-like declaration independent of where it was
// read from: a well-formed declaration node or a recovered header.
type classSpec struct {
	node       *syntax.Node
	rng        syntax.Range
	nameRange  syntax.Range
	name       string
	kind       ClassKind
	mods       Modifiers
	superTypes []*TypeReference
}

func classKindOf(keyword string, mods Modifiers) ClassKind {
	switch keyword {
	case "interface":
		return ClassKindInterface
	case "object":
		return ClassKindObject
	}
	switch {
	case mods.Has(FlagEnum):
		return ClassKindEnumClass
	case mods.Has(FlagAnnotation):
		return ClassKindAnnotation
	case mods.Has(FlagData):
		return ClassKindData
	case mods.Has(FlagValue):
		return ClassKindValue
	}
	return ClassKindClass
}

func memberScopeKind(kind ClassKind) ScopeKind {
	switch kind {
	case ClassKindEnumClass:
		return ScopeEnum
	case ClassKindCompanion:
		return ScopeCompanion
	}
	return ScopeClass
}

// mergeTarget returns a class of the same name already defined in scope.
// Recovered headers and later well-formed fragments of the same class then
// share one member scope.
func mergeTarget(scope *Scope, name string) *Class {
	for _, s := range scope.ResolveLocal(name) {
		if c, ok := s.(*Class); ok {
			return c
		}
	}
	return nil
}

// newClass defines the class and allocates its scopes. Scope nesting is
// enclosing -> type parameters -> primary constructor -> members, so
// constructor parameters are visible to initializers.
func (b *builder) newClass(spec classSpec, scope *Scope, dc declContext) (*Class, *Scope) {
	if existing := mergeTarget(scope, spec.name); existing != nil {
		if len(existing.SuperTypes) == 0 {
			existing.SuperTypes = spec.superTypes
		}
		return existing, b.table.Scope(existing.Members)
	}
	cls := &Class{
		Declaration: Declaration{
			Name:          spec.name,
			QualifiedName: dc.qualify(spec.name),
			Location:      Location{FilePath: b.file, Range: spec.rng, NameRange: spec.nameRange},
			Modifiers:     spec.mods,
			Node:          spec.node,
		},
		ClassKind:  spec.kind,
		SuperTypes: spec.superTypes,
	}
	scope.Define(cls)
	b.table.Register(cls)

	parent := scope
	if tp := spec.node.FindChild(syntax.KindTypeParameters); tp != nil {
		tps := parent.CreateChild(ScopeTypeParameter, cls, spec.rng)
		cls.TypeParameters = b.typeParameters(tp, spec.node, tps)
		parent = tps
	}
	pc := spec.node.FindChild(syntax.KindPrimaryConstructor)
	var ctorScope *Scope
	if pc != nil {
		ctorScope = parent.CreateChild(ScopeConstructor, nil, spec.rng)
		parent = ctorScope
	}
	members := parent.CreateChild(memberScopeKind(spec.kind), cls, spec.rng)
	cls.Members = members.ID
	if pc != nil {
		b.primaryConstructor(pc, cls, ctorScope, members, dc.member(cls))
	}
	return cls, members
}

func (b *builder) classDeclaration(n *syntax.Node, scope *Scope, dc declContext) {
	id := nameNode(n)
	if id == nil {
		b.visitChildren(n, scope, dc)
		return
	}
	mods := b.modifiers(n)
	if n.HasToken("enum") {
		mods = mods.With(FlagEnum)
	}
	if n.HasToken("fun") {
		mods = mods.With(FlagFunInterface)
	}
	keyword := "class"
	if n.HasToken("interface") {
		keyword = "interface"
	}
	cls, members := b.newClass(classSpec{
		node:       n,
		rng:        n.Range(),
		nameRange:  id.Range(),
		name:       identifierName(id),
		kind:       classKindOf(keyword, mods),
		mods:       mods,
		superTypes: superTypes(n),
	}, scope, dc)
	b.classContents(n, cls, members, dc.member(cls))
}

func (b *builder) objectDeclaration(n *syntax.Node, scope *Scope, dc declContext) {
	id := nameNode(n)
	if id == nil {
		b.visitChildren(n, scope, dc)
		return
	}
	mods := b.modifiers(n)
	cls, members := b.newClass(classSpec{
		node:       n,
		rng:        n.Range(),
		nameRange:  id.Range(),
		name:       identifierName(id),
		kind:       ClassKindObject,
		mods:       mods,
		superTypes: superTypes(n),
	}, scope, dc)
	b.classContents(n, cls, members, dc.member(cls))
}

func (b *builder) companionObject(n *syntax.Node, scope *Scope, dc declContext) {
	name, nameRange := "Companion", n.Range()
	if id := nameNode(n); id != nil {
		name, nameRange = identifierName(id), id.Range()
	} else {
		for _, c := range n.Children() {
			if c.Kind() == "companion" {
				nameRange = c.Range()
				break
			}
		}
	}
	mods := b.modifiers(n).With(FlagCompanion)
	cls, members := b.newClass(classSpec{
		node:       n,
		rng:        n.Range(),
		nameRange:  nameRange,
		name:       name,
		kind:       ClassKindCompanion,
		mods:       mods,
		superTypes: superTypes(n),
	}, scope, dc)
	if dc.class != nil {
		dc.class.Companion = cls
	}
	b.classContents(n, cls, members, dc.member(cls))
}

// classContents walks the body and the delegation arguments of a class-like
// declaration.
func (b *builder) classContents(n *syntax.Node, cls *Class, members *Scope, mdc declContext) {
	b.table.BindScope(n, members.ID)
	for _, c := range n.Children() {
		switch c.Kind() {
		case syntax.KindClassBody, syntax.KindEnumClassBody:
			b.classBody(c, cls, members, mdc)
		case syntax.KindDelegationSpecifier, "delegation_specifiers":
			b.visitChildren(c, members, mdc)
		}
	}
}

func (b *builder) classBody(body *syntax.Node, cls *Class, members *Scope, mdc declContext) {
	b.table.BindScope(body, members.ID)
	for _, c := range body.Children() {
		switch {
		case c.Kind() == syntax.KindEnumEntry:
			b.enumEntry(c, cls, members, mdc)
		case c.IsNamed():
			b.visit(c, members, mdc)
		}
	}
}

func (b *builder) enumEntry(n *syntax.Node, enum *Class, members *Scope, dc declContext) {
	id := n.FindChild(syntax.KindSimpleIdentifier)
	if id == nil {
		b.visitChildren(n, members, dc)
		return
	}
	entry := &Class{
		Declaration: b.declaration(n, id.Range(), identifierName(id), b.modifiers(n), dc),
		ClassKind:   ClassKindEnumEntry,
		SuperTypes:  []*TypeReference{NewTypeRef(enum.Name)},
	}
	es := members.CreateChild(ScopeClass, entry, n.Range())
	entry.Members = es.ID
	b.table.BindScope(n, es.ID)
	members.Define(entry)
	b.table.Register(entry)
	for _, c := range n.Children() {
		switch c.Kind() {
		case syntax.KindValueArguments:
			b.visitChildren(c, members, dc)
		case syntax.KindClassBody:
			b.classBody(c, entry, es, dc.member(entry))
		}
	}
}

func superTypes(n *syntax.Node) []*TypeReference {
	var out []*TypeReference
	for _, c := range n.Children() {
		switch c.Kind() {
		case "delegation_specifiers":
			out = append(out, superTypes(c)...)
		case syntax.KindDelegationSpecifier:
			if r := delegationType(c); r != nil {
				out = append(out, r)
			}
		}
	}
	return out
}

func delegationType(n *syntax.Node) *TypeReference {
	for _, c := range n.NamedChildren() {
		switch {
		case c.Kind() == syntax.KindConstructorInvoc, c.Kind() == syntax.KindExplicitDelegation:
			return TypeRefFromNode(FirstTypeChild(c))
		case IsTypeNode(c):
			return TypeRefFromNode(c)
		}
	}
	return nil
}

func (b *builder) primaryConstructor(pc *syntax.Node, cls *Class, ctorScope, members *Scope, dc declContext) {
	ctor := &Function{
		Declaration:   b.declaration(pc, pc.Range(), cls.Name, b.modifiers(pc), dc),
		IsConstructor: true,
		IsPrimary:     true,
		BodyPresent:   true,
		ReturnType:    NewTypeRef(cls.Name),
		Container:     cls.FullName(),
		Body:          ctorScope.ID,
	}
	ctor.QualifiedName = constructorName(cls)
	ctorScope.Owner = ctor
	cls.PrimaryConstructor = ctor
	b.table.BindScope(pc, ctorScope.ID)
	b.table.Register(ctor)

	for _, cp := range pc.FindChildren(syntax.KindClassParameter) {
		id := cp.FindChild(syntax.KindSimpleIdentifier)
		if id == nil {
			continue
		}
		mods := b.modifiers(cp)
		name := identifierName(id)
		typ := TypeRefFromNode(FirstTypeChild(cp))
		def := expressionAfter(cp, "=")
		param := &Parameter{
			Declaration: b.declaration(cp, id.Range(), name, mods, localContext),
			Type:        typ,
			HasDefault:  def != nil,
			IsVararg:    mods.Has(FlagVararg),
			Default:     def,
		}
		ctor.Parameters = append(ctor.Parameters, param)
		ctorScope.Define(param)
		if kw := cp.BindingKeyword(); kw != "" {
			prop := &Property{
				Declaration:    b.declaration(cp, id.Range(), name, mods, dc),
				Type:           typ,
				IsVar:          kw == "var",
				HasInitializer: true,
				Container:      cls.FullName(),
			}
			if param.IsVararg {
				prop.Type = VarargArrayType(typ)
			}
			members.Define(prop)
			b.table.Register(prop)
		} else {
			b.table.Register(param)
		}
		if def != nil {
			b.visit(def, ctorScope, localContext)
		}
	}
}

func constructorName(cls *Class) string {
	if cls.QualifiedName == "" {
		return ""
	}
	return cls.QualifiedName + ".<init>"
}

func (b *builder) secondaryConstructor(n *syntax.Node, scope *Scope, dc declContext) {
	cls := dc.class
	if cls == nil {
		b.visitChildren(n, scope, localContext)
		return
	}
	nameRange := n.Range()
	for _, c := range n.Children() {
		if c.Kind() == "constructor" {
			nameRange = c.Range()
			break
		}
	}
	hasBody := n.IsBraced()
	ctor := &Function{
		Declaration:   b.declaration(n, nameRange, cls.Name, b.modifiers(n), dc),
		IsConstructor: true,
		BodyPresent:   hasBody,
		ReturnType:    NewTypeRef(cls.Name),
		Container:     cls.FullName(),
	}
	ctor.QualifiedName = constructorName(cls)
	cs := scope.CreateChild(ScopeConstructor, ctor, n.Range())
	ctor.Body = cs.ID
	b.bindBody(n, cs)
	ctor.Parameters = b.valueParameters(n.FindChild(syntax.KindFunctionValueParameters), cs)
	cls.Constructors = append(cls.Constructors, ctor)
	b.table.Register(ctor)
	for _, c := range n.Children() {
		switch c.Kind() {
		case syntax.KindFunctionValueParameters, syntax.KindModifiers:
			continue
		}
		if c.IsNamed() {
			b.visit(c, cs, localContext)
		}
	}
}

func (b *builder) initBlock(n *syntax.Node, scope *Scope) {
	s := scope.CreateChild(ScopeBlock, nil, n.Range())
	b.bindBody(n, s)
	b.visitChildren(n, s, localContext)
}

func (b *builder) functionDeclaration(n *syntax.Node, scope *Scope, dc declContext) {
	id := n.FindChild(syntax.KindSimpleIdentifier)
	if id == nil {
		b.visitChildren(n, scope, dc)
		return
	}
	var receiver, ret *syntax.Node
	seenParams := false
	for _, c := range n.Children() {
		switch {
		case c.Kind() == syntax.KindFunctionValueParameters:
			seenParams = true
		case !seenParams && c.Range().StartByte < id.Range().StartByte && (IsTypeNode(c) || c.Kind() == syntax.KindReceiverType):
			receiver = c
		case seenParams && ret == nil && IsTypeNode(c):
			ret = c
		}
	}
	if receiver != nil && receiver.Kind() == syntax.KindReceiverType {
		if inner := FirstTypeChild(receiver); inner != nil {
			receiver = inner
		}
	}

	body := n.FindChild(syntax.KindFunctionBody)
	fn := &Function{
		Declaration:  b.declaration(n, id.Range(), identifierName(id), b.modifiers(n), dc),
		ReceiverType: TypeRefFromNode(receiver),
		ReturnType:   TypeRefFromNode(ret),
		BodyPresent:  body != nil,
		Container:    dc.container(),
	}
	if fn.ReturnType == nil && (body == nil || !body.HasToken("=")) {
		fn.ReturnType = NewTypeRef("Unit")
	}
	scope.Define(fn)
	b.table.Register(fn)

	fs := scope.CreateChild(ScopeFunction, fn, n.Range())
	fn.Body = fs.ID
	b.table.BindScope(n, fs.ID)
	if tp := n.FindChild(syntax.KindTypeParameters); tp != nil {
		fn.TypeParameters = b.typeParameters(tp, n, fs)
	}
	fn.Parameters = b.valueParameters(n.FindChild(syntax.KindFunctionValueParameters), fs)
	if body != nil {
		b.bindBody(body, fs)
		b.visitChildren(body, fs, localContext)
	}
}

// anonymousFunction handles `fun(x: Int): Int { ... }` expressions. The
// owning function is synthetic so it stays out of the symbol indexes.
func (b *builder) anonymousFunction(n *syntax.Node, scope *Scope) {
	var ret *syntax.Node
	seenParams := false
	for _, c := range n.Children() {
		switch {
		case c.Kind() == syntax.KindFunctionValueParameters:
			seenParams = true
		case seenParams && ret == nil && IsTypeNode(c):
			ret = c
		}
	}
	body := n.FindChild(syntax.KindFunctionBody)
	fn := &Function{
		Declaration: Declaration{Name: "<anonymous>", Node: n},
		ReturnType:  TypeRefFromNode(ret),
		BodyPresent: body != nil,
	}
	fs := scope.CreateChild(ScopeFunction, fn, n.Range())
	fn.Body = fs.ID
	b.table.BindScope(n, fs.ID)
	fn.Parameters = b.valueParameters(n.FindChild(syntax.KindFunctionValueParameters), fs)
	if body != nil {
		b.bindBody(body, fs)
		b.visitChildren(body, fs, localContext)
	}
}

// valueParameters reads a function_value_parameters node. Parameter
// modifiers and default values are siblings of the parameter they belong to.
func (b *builder) valueParameters(fvp *syntax.Node, s *Scope) []*Parameter {
	var out []*Parameter
	var pending Modifiers
	var last *Parameter
	afterEq := false
	for _, c := range fvp.Children() {
		switch c.Kind() {
		case syntax.KindParameterModifiers:
			applyModifiers(&pending, c)
		case syntax.KindParameter:
			p := b.parameter(c, pending)
			pending = Modifiers{}
			afterEq = false
			if p == nil {
				continue
			}
			out = append(out, p)
			s.Define(p)
			b.table.Register(p)
			last = p
		case "=":
			if last != nil {
				last.HasDefault = true
				afterEq = true
			}
		case ",", "(", ")":
			afterEq = false
		default:
			if afterEq && last != nil && last.Default == nil && c.IsNamed() && !syntax.IsComment(c.Kind()) {
				last.Default = c
				b.visit(c, s, localContext)
			}
		}
	}
	return out
}

func (b *builder) parameter(n *syntax.Node, mods Modifiers) *Parameter {
	id := n.FindChild(syntax.KindSimpleIdentifier)
	if id == nil {
		return nil
	}
	applyModifiers(&mods, n.FindChild(syntax.KindParameterModifiers))
	return &Parameter{
		Declaration:   b.declaration(n, id.Range(), identifierName(id), mods, localContext),
		Type:          TypeRefFromNode(FirstTypeChild(n)),
		IsVararg:      mods.Has(FlagVararg),
		IsCrossinline: mods.Has(FlagCrossinline),
		IsNoinline:    mods.Has(FlagNoinline),
	}
}

func (b *builder) typeParameters(n, decl *syntax.Node, s *Scope) []*TypeParameter {
	var out []*TypeParameter
	byName := make(map[string]*TypeParameter)
	for _, tp := range n.FindChildren(syntax.KindTypeParameter) {
		id := nameNode(tp)
		if id == nil {
			continue
		}
		param := &TypeParameter{
			Declaration: b.declaration(tp, id.Range(), identifierName(id), Modifiers{}, localContext),
		}
		if mods := tp.FindChild(syntax.KindTypeParamModifiers); mods != nil {
			for _, word := range strings.Fields(mods.Text()) {
				switch word {
				case "reified":
					param.IsReified = true
					param.Modifiers = param.Modifiers.With(FlagReified)
				case "in", "out":
					param.Variance = word
				}
			}
		}
		if bound := typeAfter(tp, ":"); bound != nil {
			param.Bounds = append(param.Bounds, TypeRefFromNode(bound))
		}
		s.Define(param)
		b.table.Register(param)
		byName[param.Name] = param
		out = append(out, param)
	}
	// where-clauses add bounds to already declared parameters
	for _, tc := range decl.FindChildren(syntax.KindTypeConstraint) {
		for _, c := range tc.FindChildren("type_constraint") {
			id := nameNode(c)
			bound := typeAfter(c, ":")
			if id == nil || bound == nil {
				continue
			}
			if param := byName[identifierName(id)]; param != nil {
				param.Bounds = append(param.Bounds, TypeRefFromNode(bound))
			}
		}
	}
	return out
}

func (b *builder) typeAlias(n *syntax.Node, scope *Scope, dc declContext) {
	id := nameNode(n)
	if id == nil {
		return
	}
	alias := &TypeAlias{
		Declaration: b.declaration(n, id.Range(), identifierName(id), b.modifiers(n), dc),
		Underlying:  TypeRefFromNode(typeAfter(n, "=")),
	}
	scope.Define(alias)
	b.table.Register(alias)
	if tp := n.FindChild(syntax.KindTypeParameters); tp != nil {
		tps := scope.CreateChild(ScopeTypeParameter, alias, n.Range())
		b.table.BindScope(n, tps.ID)
		alias.TypeParameters = b.typeParameters(tp, n, tps)
	}
}

func (b *builder) propertyDeclaration(n *syntax.Node, scope *Scope, dc declContext) {
	mods := b.modifiers(n)
	isVar := n.BindingKeyword() == "var"
	vd := n.FindChild(syntax.KindVariableDeclaration)
	mvd := n.FindChild(syntax.KindMultiVariableDecl)
	declStart := n.Range().EndByte
	if vd != nil {
		declStart = vd.Range().StartByte
	} else if mvd != nil {
		declStart = mvd.Range().StartByte
	}
	var receiver, delegate, getter, setter *syntax.Node
	for _, c := range n.Children() {
		switch {
		case c.Range().StartByte < declStart && (IsTypeNode(c) || c.Kind() == syntax.KindReceiverType):
			receiver = c
		case c.Kind() == syntax.KindPropertyDelegate:
			delegate = c
		case c.Kind() == syntax.KindGetter:
			getter = c
		case c.Kind() == syntax.KindSetter:
			setter = c
		}
	}
	for _, acc := range splitAccessors(n) {
		if acc.Kind() == syntax.KindGetter && getter == nil {
			getter = acc
		} else if acc.Kind() == syntax.KindSetter && setter == nil {
			setter = acc
		}
	}
	init := expressionAfter(n, "=")
	if init != nil && (init.Kind() == syntax.KindGetter || init.Kind() == syntax.KindSetter) {
		init = nil
	}

	if mvd != nil {
		for i, v := range mvd.FindChildren(syntax.KindVariableDeclaration) {
			id := v.FindChild(syntax.KindSimpleIdentifier)
			if id == nil || id.Text() == "_" {
				continue
			}
			prop := &Property{
				Declaration:    b.declaration(n, id.Range(), identifierName(id), mods, dc),
				Type:           TypeRefFromNode(FirstTypeChild(v)),
				IsVar:          isVar,
				HasInitializer: init != nil,
				Initializer:    init,
				Component:      i + 1,
				Container:      dc.container(),
			}
			scope.Define(prop)
			b.table.Register(prop)
		}
	} else if id := vd.FindChild(syntax.KindSimpleIdentifier); id != nil {
		prop := &Property{
			Declaration:    b.declaration(n, id.Range(), identifierName(id), mods, dc),
			Type:           TypeRefFromNode(FirstTypeChild(vd)),
			IsVar:          isVar,
			HasInitializer: init != nil,
			Initializer:    init,
			IsDelegated:    delegate != nil,
			Container:      dc.container(),
		}
		if receiver != nil {
			if receiver.Kind() == syntax.KindReceiverType {
				receiver = FirstTypeChild(receiver)
			}
			prop.ReceiverType = TypeRefFromNode(receiver)
		}
		if prop.Type == nil && getter != nil {
			prop.Type = TypeRefFromNode(FirstTypeChild(getter))
		}
		if prop.Type == nil && init != nil {
			if t := InferInitializerType(init); t != nil {
				prop.Type, prop.TypeInferred = t, true
			}
		}
		scope.Define(prop)
		b.table.Register(prop)
		if getter != nil {
			prop.Getter = b.accessor(getter, prop, scope, false)
		}
		if setter != nil {
			prop.Setter = b.accessor(setter, prop, scope, true)
		}
	}

	if init != nil {
		b.visit(init, scope, localContext)
	}
	if delegate != nil {
		b.visitChildren(delegate, scope, localContext)
	}
}

// splitAccessors returns the getter and setter written on their own lines
// after a property. The grammar parses those as siblings of the property.
func splitAccessors(n *syntax.Node) []*syntax.Node {
	var out []*syntax.Node
	for s := n.NextSibling(); s != nil; s = s.NextSibling() {
		switch {
		case s.Kind() == syntax.KindGetter, s.Kind() == syntax.KindSetter:
			out = append(out, s)
		case syntax.IsComment(s.Kind()):
		default:
			return out
		}
	}
	return out
}

// accessorOwner returns the property a getter or setter belongs to, or nil
// when it stands alone, as in a parse error.
func accessorOwner(n *syntax.Node) *syntax.Node {
	if p := n.Parent(); p != nil && p.Kind() == syntax.KindPropertyDeclaration {
		return p
	}
	for s := n.PrevSibling(); s != nil; s = s.PrevSibling() {
		switch {
		case s.Kind() == syntax.KindPropertyDeclaration:
			return s
		case s.Kind() == syntax.KindGetter, s.Kind() == syntax.KindSetter, syntax.IsComment(s.Kind()):
		default:
			return nil
		}
	}
	return nil
}

// accessor builds a getter or setter. Accessors get their own scope holding
// the backing `field` and, for setters, the value parameter.
func (b *builder) accessor(n *syntax.Node, prop *Property, scope *Scope, isSetter bool) *Function {
	name := "get"
	if isSetter {
		name = "set"
	}
	nameRange := n.Range()
	if first := n.Child(0); first != nil {
		nameRange = first.Range()
	}
	body := n.FindChild(syntax.KindFunctionBody)
	fn := &Function{
		Declaration: Declaration{
			Name:      name,
			Location:  Location{FilePath: b.file, Range: n.Range(), NameRange: nameRange},
			Modifiers: b.modifiers(n),
			Node:      n,
		},
		BodyPresent: body != nil,
		Container:   prop.Container,
	}
	as := scope.CreateChild(ScopeAccessor, fn, n.Range())
	fn.Body = as.ID
	b.table.BindScope(n, as.ID)
	as.Define(&Property{
		Declaration:    Declaration{Name: "field"},
		Type:           prop.Type,
		IsVar:          prop.IsVar,
		HasInitializer: true,
	})
	if isSetter {
		fn.ReturnType = NewTypeRef("Unit")
		pn := n.FindChild("parameter_with_optional_type")
		if pn == nil {
			pn = n.FindChild(syntax.KindParameter)
		}
		id := pn.FindChild(syntax.KindSimpleIdentifier)
		if id == nil {
			pn, id = n, n.FindChild(syntax.KindSimpleIdentifier)
		}
		if id != nil {
			typ := TypeRefFromNode(FirstTypeChild(pn))
			if typ == nil {
				typ = prop.Type
			}
			p := &Parameter{
				Declaration: b.declaration(pn, id.Range(), identifierName(id), Modifiers{}, localContext),
				Type:        typ,
			}
			fn.Parameters = []*Parameter{p}
			as.Define(p)
		}
	} else {
		fn.ReturnType = TypeRefFromNode(FirstTypeChild(n))
		if fn.ReturnType == nil {
			fn.ReturnType = prop.Type
		}
	}
	if body != nil {
		b.bindBody(body, as)
		b.visitChildren(body, as, localContext)
	}
	return fn
}
