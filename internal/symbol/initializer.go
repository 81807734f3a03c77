package symbol

import (
	"strings"
	"unicode"

	"github.com/jward/ksema/internal/syntax"
)

var collectionFactories = map[string]string{
	"listOf":        "List",
	"listOfNotNull": "List",
	"emptyList":     "List",
	"mutableListOf": "MutableList",
	"arrayListOf":   "MutableList",
	"setOf":         "Set",
	"emptySet":      "Set",
	"mutableSetOf":  "MutableSet",
	"hashSetOf":     "MutableSet",
	"sequenceOf":    "Sequence",
	"arrayOf":       "Array",
	"emptyArray":    "Array",
}

var mapFactories = map[string]string{
	"mapOf":        "Map",
	"emptyMap":     "Map",
	"mutableMapOf": "MutableMap",
	"hashMapOf":    "MutableMap",
}

var primitiveArrayFactories = map[string]string{
	"intArrayOf":     "IntArray",
	"longArrayOf":    "LongArray",
	"shortArrayOf":   "ShortArray",
	"byteArrayOf":    "ByteArray",
	"floatArrayOf":   "FloatArray",
	"doubleArrayOf":  "DoubleArray",
	"charArrayOf":    "CharArray",
	"booleanArrayOf": "BooleanArray",
}

// InferInitializerType derives a declared type from an initializer expression
// without any name resolution. It recognizes literals, collection factories
// and capitalized constructor calls; anything else yields nil and is left to
// the type inferrer.
func InferInitializerType(n *syntax.Node) *TypeReference {
	if n == nil {
		return nil
	}
	switch n.Kind() {
	case syntax.KindIntegerLiteral, syntax.KindHexLiteral, syntax.KindBinLiteral:
		return NewTypeRef("Int")
	case syntax.KindLongLiteral:
		return NewTypeRef("Long")
	case syntax.KindUnsignedLiteral:
		if strings.HasSuffix(strings.ToUpper(n.Text()), "L") {
			return NewTypeRef("ULong")
		}
		return NewTypeRef("UInt")
	case syntax.KindRealLiteral:
		if strings.HasSuffix(strings.ToLower(n.Text()), "f") {
			return NewTypeRef("Float")
		}
		return NewTypeRef("Double")
	case syntax.KindBooleanLiteral:
		return NewTypeRef("Boolean")
	case syntax.KindCharacterLiteral:
		return NewTypeRef("Char")
	case syntax.KindStringLiteral, syntax.KindLineStringLiteral, syntax.KindMultiLineStringLiteral:
		return NewTypeRef("String")
	case syntax.KindNullLiteral:
		return NewTypeRef("Any").WithNullable(true)
	case syntax.KindParenthesizedExpression:
		return InferInitializerType(firstNamed(n))
	case syntax.KindCheckExpression, syntax.KindComparisonExpression, syntax.KindEqualityExpression,
		syntax.KindConjunctionExpression, syntax.KindDisjunctionExpression:
		return NewTypeRef("Boolean")
	case syntax.KindPrefixExpression:
		if n.HasToken("!") {
			return NewTypeRef("Boolean")
		}
		return InferInitializerType(lastNamed(n))
	case syntax.KindAdditiveExpression, syntax.KindMultiplicativeExpression:
		named := n.NamedChildren()
		if len(named) < 2 {
			return nil
		}
		left, right := InferInitializerType(named[0]), InferInitializerType(named[len(named)-1])
		if left != nil && left.Name == "String" {
			return left
		}
		if left != nil && right != nil && left.Render() == right.Render() {
			return left
		}
		return nil
	case syntax.KindAsExpression:
		t := FirstTypeChild(n)
		if t == nil {
			return nil
		}
		ref := TypeRefFromNode(t)
		if ref != nil && n.HasToken("as?") {
			ref = ref.WithNullable(true)
		}
		return ref
	case syntax.KindCollectionLiteral:
		if first := firstNamed(n); first != nil {
			if elem := InferInitializerType(first); elem != nil {
				return NewTypeRef("List", elem)
			}
		}
		return nil
	case syntax.KindIfExpression:
		for _, c := range n.Children() {
			if c.Kind() == syntax.KindControlStructureBody {
				return InferInitializerType(lastExpression(c))
			}
		}
		return nil
	case syntax.KindCallExpression:
		return inferCall(n)
	}
	return nil
}

func inferCall(n *syntax.Node) *TypeReference {
	callee := n.NamedChild(0)
	suffix := n.FindChild(syntax.KindCallSuffix)
	if callee == nil || suffix == nil {
		return nil
	}
	explicit := typeArguments(suffix.FindChild(syntax.KindTypeArguments))
	args := callArguments(suffix)
	var name string
	switch callee.Kind() {
	case syntax.KindSimpleIdentifier:
		name = callee.Text()
	case syntax.KindNavigationExpression:
		// Qualified constructor call such as `java.io.File(path)`.
		text := strings.ReplaceAll(callee.Text(), " ", "")
		last := text[strings.LastIndexByte(text, '.')+1:]
		if isCapitalized(last) && !strings.ContainsAny(text, "()?") {
			return &TypeReference{Name: text, Arguments: explicit}
		}
		return nil
	default:
		return nil
	}

	if arr, ok := primitiveArrayFactories[name]; ok {
		return NewTypeRef(arr)
	}
	if coll, ok := collectionFactories[name]; ok {
		if len(explicit) == 1 {
			return NewTypeRef(coll, explicit[0])
		}
		if len(args) > 0 {
			if elem := InferInitializerType(args[0]); elem != nil {
				return NewTypeRef(coll, elem)
			}
		}
		if strings.HasPrefix(name, "empty") {
			return NewTypeRef(coll, NewTypeRef("Nothing"))
		}
		return nil
	}
	if m, ok := mapFactories[name]; ok {
		if len(explicit) == 2 {
			return NewTypeRef(m, explicit[0], explicit[1])
		}
		if len(args) > 0 {
			if k, v := pairTypes(args[0]); k != nil && v != nil {
				return NewTypeRef(m, k, v)
			}
		}
		if strings.HasPrefix(name, "empty") {
			return NewTypeRef(m, NewTypeRef("Nothing"), NewTypeRef("Nothing"))
		}
		return nil
	}
	if name == "Pair" && len(args) == 2 {
		a, b := InferInitializerType(args[0]), InferInitializerType(args[1])
		if a != nil && b != nil {
			return NewTypeRef("Pair", a, b)
		}
	}
	if isCapitalized(name) {
		return &TypeReference{Name: name, Arguments: explicit}
	}
	return nil
}

// pairTypes reads `a to b` into the types of a and b.
func pairTypes(n *syntax.Node) (*TypeReference, *TypeReference) {
	if n.Kind() != syntax.KindInfixExpression {
		return nil, nil
	}
	named := n.NamedChildren()
	if len(named) != 3 || named[1].Text() != "to" {
		return nil, nil
	}
	return InferInitializerType(named[0]), InferInitializerType(named[2])
}

// callArguments returns the argument expressions of a call suffix.
func callArguments(suffix *syntax.Node) []*syntax.Node {
	va := suffix.FindChild(syntax.KindValueArguments)
	var out []*syntax.Node
	for _, arg := range va.FindChildren(syntax.KindValueArgument) {
		if e := lastNamed(arg); e != nil {
			out = append(out, e)
		}
	}
	return out
}

// lastExpression returns the value-producing expression of a body: the last
// statement of a braced block or the body itself.
func lastExpression(body *syntax.Node) *syntax.Node {
	if body == nil {
		return nil
	}
	if body.IsBraced() {
		return lastNamed(body.Statements())
	}
	if body.Kind() == syntax.KindControlStructureBody {
		return lastNamed(body)
	}
	return body
}

func firstNamed(n *syntax.Node) *syntax.Node {
	for _, c := range n.NamedChildren() {
		if !syntax.IsComment(c.Kind()) {
			return c
		}
	}
	return nil
}

func lastNamed(n *syntax.Node) *syntax.Node {
	named := n.NamedChildren()
	for i := len(named) - 1; i >= 0; i-- {
		if !syntax.IsComment(named[i].Kind()) {
			return named[i]
		}
	}
	return nil
}

func isCapitalized(s string) bool {
	for _, r := range s {
		return unicode.IsUpper(r)
	}
	return false
}
