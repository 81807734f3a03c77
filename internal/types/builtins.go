package types

const (
	FQAny          = "kotlin.Any"
	FQUnit         = "kotlin.Unit"
	FQNothing      = "kotlin.Nothing"
	FQString       = "kotlin.String"
	FQCharSequence = "kotlin.CharSequence"
	FQComparable   = "kotlin.Comparable"
	FQNumber       = "kotlin.Number"
	FQThrowable    = "kotlin.Throwable"
	FQException    = "kotlin.Exception"
	FQArray        = "kotlin.Array"
	FQPair         = "kotlin.Pair"
	FQTriple       = "kotlin.Triple"
	FQIterable     = "kotlin.collections.Iterable"
	FQCollection   = "kotlin.collections.Collection"
	FQList         = "kotlin.collections.List"
	FQMutableList  = "kotlin.collections.MutableList"
	FQSet          = "kotlin.collections.Set"
	FQMutableSet   = "kotlin.collections.MutableSet"
	FQMap          = "kotlin.collections.Map"
	FQMutableMap   = "kotlin.collections.MutableMap"
	FQSequence     = "kotlin.sequences.Sequence"
	FQIntRange     = "kotlin.ranges.IntRange"
	FQLongRange    = "kotlin.ranges.LongRange"
	FQCharRange    = "kotlin.ranges.CharRange"
	FQClosedRange  = "kotlin.ranges.ClosedRange"
)

var (
	AnyType      = &Class{FQName: FQAny}
	AnyNullable  = &Class{FQName: FQAny, Nullable: true}
	UnitType     = &Class{FQName: FQUnit}
	NothingType  = &Class{FQName: FQNothing}
	NullType     = &Class{FQName: FQNothing, Nullable: true}
	StringType   = &Class{FQName: FQString}
	CharSequence = &Class{FQName: FQCharSequence}
	NumberType   = &Class{FQName: FQNumber}
	Throwable    = &Class{FQName: FQThrowable}
	Exception    = &Class{FQName: FQException}

	ByteType    = &Primitive{Kind: Byte}
	ShortType   = &Primitive{Kind: Short}
	IntType     = &Primitive{Kind: Int}
	LongType    = &Primitive{Kind: Long}
	FloatType   = &Primitive{Kind: Float}
	DoubleType  = &Primitive{Kind: Double}
	BooleanType = &Primitive{Kind: Boolean}
	CharType    = &Primitive{Kind: Char}

	IntRange  = &Class{FQName: FQIntRange}
	LongRange = &Class{FQName: FQLongRange}
	CharRange = &Class{FQName: FQCharRange}
)

var primitivesByName = map[string]*Primitive{
	"Byte":    ByteType,
	"Short":   ShortType,
	"Int":     IntType,
	"Long":    LongType,
	"Float":   FloatType,
	"Double":  DoubleType,
	"Boolean": BooleanType,
	"Char":    CharType,
}

// PrimitiveNamed returns the primitive with the given simple or kotlin.
// qualified name.
func PrimitiveNamed(name string) (*Primitive, bool) {
	if len(name) > 7 && name[:7] == "kotlin." {
		name = name[7:]
	}
	p, ok := primitivesByName[name]
	return p, ok
}

// builtinNames maps the simple names that are always visible to their
// qualified form.
var builtinNames = map[string]string{
	"Any":               FQAny,
	"Unit":              FQUnit,
	"Nothing":           FQNothing,
	"String":            FQString,
	"CharSequence":      FQCharSequence,
	"Number":            FQNumber,
	"Comparable":        FQComparable,
	"Throwable":         FQThrowable,
	"Exception":         FQException,
	"Array":             FQArray,
	"IntArray":          "kotlin.IntArray",
	"LongArray":         "kotlin.LongArray",
	"ShortArray":        "kotlin.ShortArray",
	"ByteArray":         "kotlin.ByteArray",
	"FloatArray":        "kotlin.FloatArray",
	"DoubleArray":       "kotlin.DoubleArray",
	"BooleanArray":      "kotlin.BooleanArray",
	"CharArray":         "kotlin.CharArray",
	"Iterable":          FQIterable,
	"MutableIterable":   "kotlin.collections.MutableIterable",
	"Collection":        FQCollection,
	"MutableCollection": "kotlin.collections.MutableCollection",
	"List":              FQList,
	"MutableList":       FQMutableList,
	"ArrayList":         "kotlin.collections.ArrayList",
	"Set":               FQSet,
	"MutableSet":        FQMutableSet,
	"HashSet":           "kotlin.collections.HashSet",
	"Map":               FQMap,
	"MutableMap":        FQMutableMap,
	"HashMap":           "kotlin.collections.HashMap",
	"Sequence":          FQSequence,
	"Pair":              FQPair,
	"Triple":            FQTriple,
	"Lazy":              "kotlin.Lazy",
	"Result":            "kotlin.Result",
	"IntRange":          FQIntRange,
	"LongRange":         FQLongRange,
	"CharRange":         FQCharRange,
	"ClosedRange":       FQClosedRange,
}

// BuiltinFQName returns the qualified name of an always-visible type.
func BuiltinFQName(simple string) (string, bool) {
	fq, ok := builtinNames[simple]
	return fq, ok
}

// DefaultImports are the packages every Kotlin file imports implicitly.
var DefaultImports = []string{
	"kotlin",
	"kotlin.collections",
	"kotlin.sequences",
	"kotlin.ranges",
	"kotlin.text",
	"kotlin.io",
	"kotlin.annotation",
	"kotlin.comparisons",
}

func ListOf(elem Type) *Class        { return NewClass(FQList, elem) }
func MutableListOf(elem Type) *Class { return NewClass(FQMutableList, elem) }
func SetOf(elem Type) *Class         { return NewClass(FQSet, elem) }
func MutableSetOf(elem Type) *Class  { return NewClass(FQMutableSet, elem) }
func MapOf(k, v Type) *Class         { return NewClass(FQMap, k, v) }
func MutableMapOf(k, v Type) *Class  { return NewClass(FQMutableMap, k, v) }
func ArrayOf(elem Type) *Class       { return NewClass(FQArray, elem) }
func PairOf(a, b Type) *Class        { return NewClass(FQPair, a, b) }
func ComparableOf(t Type) *Class     { return NewClass(FQComparable, t) }
func ClosedRangeOf(t Type) *Class    { return NewClass(FQClosedRange, t) }

// ElementType returns the element type of an iterable-like type: the
// argument of Array, List, Set, Sequence and friends, the boxed element of
// primitive arrays and ranges, Char for strings, and nil otherwise.
func ElementType(t Type) Type {
	c, ok := t.(*Class)
	if !ok {
		return nil
	}
	switch c.FQName {
	case "kotlin.IntArray", FQIntRange:
		return IntType
	case "kotlin.LongArray", FQLongRange:
		return LongType
	case "kotlin.ShortArray":
		return ShortType
	case "kotlin.ByteArray":
		return ByteType
	case "kotlin.FloatArray":
		return FloatType
	case "kotlin.DoubleArray":
		return DoubleType
	case "kotlin.BooleanArray":
		return BooleanType
	case "kotlin.CharArray", FQCharRange, FQString, FQCharSequence:
		return CharType
	case FQMap, FQMutableMap, "kotlin.collections.HashMap":
		if len(c.Arguments) == 2 {
			return NewClass("kotlin.collections.Map.Entry", c.Arg(0), c.Arg(1))
		}
		return nil
	}
	if len(c.Arguments) == 1 {
		if a := c.Arg(0); a != nil {
			return a
		}
		return AnyNullable
	}
	return nil
}
