package symbol

import (
	"strings"

	"github.com/jward/ksema/internal/syntax"
)

// IsTypeNode reports whether n is one of the grammar's type productions.
func IsTypeNode(n *syntax.Node) bool {
	switch n.Kind() {
	case syntax.KindUserType, syntax.KindNullableType, syntax.KindFunctionType,
		syntax.KindParenthesizedType, syntax.KindNonNullableType,
		syntax.KindDefinitelyNonNull, syntax.KindTypeIdentifier,
		syntax.KindSimpleUserType, "dynamic":
		return true
	}
	return false
}

// FirstTypeChild returns the first direct child of n that is a type node.
func FirstTypeChild(n *syntax.Node) *syntax.Node {
	for _, c := range n.Children() {
		if IsTypeNode(c) {
			return c
		}
	}
	return nil
}

// TypeRefFromNode converts a type node into a TypeReference. Unknown shapes
// fall back to parsing the node's text.
func TypeRefFromNode(n *syntax.Node) *TypeReference {
	if n == nil {
		return nil
	}
	var ref *TypeReference
	switch n.Kind() {
	case syntax.KindUserType:
		ref = userTypeRef(n)
	case syntax.KindSimpleUserType:
		ref = simpleUserTypeRef(n)
	case syntax.KindTypeIdentifier, syntax.KindSimpleIdentifier:
		ref = NewTypeRef(n.Text())
	case syntax.KindNullableType:
		inner := firstTypeOrNamed(n)
		ref = TypeRefFromNode(inner)
		if ref != nil {
			ref = ref.WithNullable(true)
		}
	case syntax.KindParenthesizedType, syntax.KindNonNullableType, syntax.KindDefinitelyNonNull:
		ref = TypeRefFromNode(firstTypeOrNamed(n))
		if ref != nil && n.Kind() != syntax.KindParenthesizedType {
			ref = ref.WithNullable(false)
		}
	case syntax.KindFunctionType:
		ref = functionTypeRef(n)
	case syntax.KindTypeProjection:
		ref = projectionRef(n)
	case "dynamic":
		ref = NewTypeRef("Any").WithNullable(true)
	}
	if ref == nil {
		ref = ParseTypeReference(n.Text())
	}
	if ref != nil {
		ref.Range = n.Range()
	}
	return ref
}

func firstTypeOrNamed(n *syntax.Node) *syntax.Node {
	if t := FirstTypeChild(n); t != nil {
		return t
	}
	for _, c := range n.NamedChildren() {
		if c.Kind() != syntax.KindTypeModifiers {
			return c
		}
	}
	return nil
}

func userTypeRef(n *syntax.Node) *TypeReference {
	var segments []string
	var args []*TypeReference
	for _, c := range n.Children() {
		switch c.Kind() {
		case syntax.KindTypeIdentifier, syntax.KindSimpleIdentifier:
			segments = append(segments, strings.Trim(c.Text(), "`"))
			args = nil
		case syntax.KindSimpleUserType:
			s := simpleUserTypeRef(c)
			if s != nil {
				segments = append(segments, s.Name)
				args = s.Arguments
			}
		case syntax.KindTypeArguments:
			args = typeArguments(c)
		}
	}
	if len(segments) == 0 {
		return nil
	}
	return &TypeReference{Name: strings.Join(segments, "."), Arguments: args}
}

func simpleUserTypeRef(n *syntax.Node) *TypeReference {
	name := n.FindChild(syntax.KindTypeIdentifier)
	if name == nil {
		name = n.FindChild(syntax.KindSimpleIdentifier)
	}
	if name == nil {
		return nil
	}
	return &TypeReference{Name: strings.Trim(name.Text(), "`"), Arguments: typeArguments(n.FindChild(syntax.KindTypeArguments))}
}

func typeArguments(n *syntax.Node) []*TypeReference {
	if n == nil {
		return nil
	}
	var out []*TypeReference
	for _, c := range n.NamedChildren() {
		switch {
		case c.Kind() == syntax.KindTypeProjection:
			if r := projectionRef(c); r != nil {
				out = append(out, r)
			}
		case IsTypeNode(c):
			if r := TypeRefFromNode(c); r != nil {
				out = append(out, r)
			}
		}
	}
	return out
}

func projectionRef(n *syntax.Node) *TypeReference {
	if strings.TrimSpace(n.Text()) == "*" {
		return StarRef()
	}
	inner := FirstTypeChild(n)
	if inner == nil {
		return ParseTypeReference(n.Text())
	}
	ref := TypeRefFromNode(inner)
	if ref == nil {
		return nil
	}
	if mods := n.FindChild(syntax.KindTypeProjectionMods); mods != nil {
		text := mods.Text()
		switch {
		case strings.Contains(text, "out"):
			ref.Variance = "out"
		case strings.Contains(text, "in"):
			ref.Variance = "in"
		}
	}
	return ref
}

func functionTypeRef(n *syntax.Node) *TypeReference {
	shape := &FunctionShape{}
	children := n.Children()
	paramsIdx := -1
	for i, c := range children {
		if c.Kind() == syntax.KindFunctionTypeParams {
			paramsIdx = i
			break
		}
	}
	if paramsIdx < 0 {
		return nil
	}
	// receiver: type segments before the parameter list
	var receiverParts []*syntax.Node
	for _, c := range children[:paramsIdx] {
		if IsTypeNode(c) {
			receiverParts = append(receiverParts, c)
		}
	}
	if len(receiverParts) == 1 {
		shape.Receiver = TypeRefFromNode(receiverParts[0])
	} else if len(receiverParts) > 1 {
		var names []string
		for _, p := range receiverParts {
			names = append(names, p.Text())
		}
		shape.Receiver = ParseTypeReference(strings.Join(names, "."))
	}
	shape.Parameters = []*TypeReference{}
	for _, c := range children[paramsIdx].NamedChildren() {
		switch {
		case c.Kind() == syntax.KindParameter:
			if t := FirstTypeChild(c); t != nil {
				shape.Parameters = append(shape.Parameters, TypeRefFromNode(t))
			}
		case IsTypeNode(c):
			shape.Parameters = append(shape.Parameters, TypeRefFromNode(c))
		}
	}
	for _, c := range children[paramsIdx+1:] {
		if IsTypeNode(c) {
			shape.Return = TypeRefFromNode(c)
		}
	}
	if shape.Return == nil {
		shape.Return = NewTypeRef("Unit")
	}
	if mods := n.Parent().FindChild(syntax.KindTypeModifiers); mods != nil && strings.Contains(mods.Text(), "suspend") {
		shape.Suspend = true
	}
	return &TypeReference{Name: "Function", Function: shape}
}
