// Package diagnostic defines the coded errors and warnings reported by the
// analyzer and an append-only collector for them.
package diagnostic

import (
	"strconv"
	"strings"
)

// Severity orders diagnostics from most to least severe.
type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
	SeverityInfo
	SeverityHint
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	case SeverityInfo:
		return "info"
	case SeverityHint:
		return "hint"
	}
	return "unknown"
}

// ParseSeverity accepts the names produced by String. Unknown names map to
// SeverityError.
func ParseSeverity(s string) Severity {
	switch strings.ToLower(s) {
	case "warning", "warn":
		return SeverityWarning
	case "info", "information":
		return SeverityInfo
	case "hint":
		return SeverityHint
	}
	return SeverityError
}

// Code is a stable diagnostic identifier.
type Code string

const (
	UnresolvedReference        Code = "UNRESOLVED_REFERENCE"
	UnresolvedType             Code = "UNRESOLVED_TYPE"
	TypeMismatch               Code = "TYPE_MISMATCH"
	WrongNumberOfArguments     Code = "WRONG_NUMBER_OF_ARGUMENTS"
	NoValueForParameter        Code = "NO_VALUE_PASSED_FOR_PARAMETER"
	ArgumentTypeMismatch       Code = "ARGUMENT_TYPE_MISMATCH"
	NoneApplicable             Code = "NONE_APPLICABLE"
	OverloadAmbiguity          Code = "OVERLOAD_RESOLUTION_AMBIGUITY"
	ReturnTypeMismatch         Code = "RETURN_TYPE_MISMATCH"
	ReturnNotAllowed           Code = "RETURN_NOT_ALLOWED"
	NoTypeNoInitializer        Code = "VARIABLE_WITH_NO_TYPE_NO_INITIALIZER"
	ValReassignment            Code = "VAL_REASSIGNMENT"
	VarInitializationRequired  Code = "VAR_INITIALIZATION_REQUIRED"
	UninitializedVariable      Code = "UNINITIALIZED_VARIABLE"
	NullableTypeMismatch       Code = "NULLABLE_TYPE_MISMATCH"
	UnsafeCall                 Code = "UNSAFE_CALL"
	UnsafeImplicitInvoke       Code = "UNSAFE_IMPLICIT_INVOKE_CALL"
	AbstractMemberNotImpl      Code = "ABSTRACT_MEMBER_NOT_IMPLEMENTED"
	AbstractClassMemberNotImpl Code = "ABSTRACT_CLASS_MEMBER_NOT_IMPLEMENTED"
	CannotOverrideInvisible    Code = "CANNOT_OVERRIDE_INVISIBLE_MEMBER"
	NothingToOverride          Code = "NOTHING_TO_OVERRIDE"
	MustBeInitialized          Code = "MUST_BE_INITIALIZED_OR_BE_ABSTRACT"
	ConflictingOverloads       Code = "CONFLICTING_OVERLOADS"
	Redeclaration              Code = "REDECLARATION"
	MissingWhenBranch          Code = "MISSING_WHEN_BRANCH"
	ConditionTypeMismatch      Code = "CONDITION_TYPE_MISMATCH"
	IncompatibleTypes          Code = "INCOMPATIBLE_TYPES"
	OperatorModifierRequired   Code = "OPERATOR_MODIFIER_REQUIRED"
	InfixModifierRequired      Code = "INFIX_MODIFIER_REQUIRED"
	TooManyArguments           Code = "TOO_MANY_ARGUMENTS"
	NamedParameterNotFound     Code = "NAMED_PARAMETER_NOT_FOUND"
	MixingNamedAndPositioned   Code = "MIXING_NAMED_AND_POSITIONED_ARGUMENTS"
	SuperNotAvailable          Code = "SUPER_NOT_AVAILABLE"
	ThisNotAvailable           Code = "THIS_NOT_AVAILABLE"
	SyntaxError                Code = "SYNTAX_ERROR"
	RuleViolation              Code = "RULE_VIOLATION"

	UnreachableCode       Code = "UNREACHABLE_CODE"
	UselessNullableCheck  Code = "USELESS_NULLABLE_CHECK"
	SenselessNullInWhen   Code = "SENSELESS_NULL_IN_WHEN"
	NameShadowing         Code = "NAME_SHADOWING"
	UnusedVariable        Code = "UNUSED_VARIABLE"
	UnusedParameter       Code = "UNUSED_PARAMETER"
	UnusedExpression      Code = "UNUSED_EXPRESSION"
	UselessCast           Code = "USELESS_CAST"
	UncheckedCast         Code = "UNCHECKED_CAST"
	Deprecation           Code = "DEPRECATION"
	UnreachableWhenBranch Code = "UNREACHABLE_WHEN_BRANCH"
	ExtensionShadowed     Code = "EXTENSION_FUNCTION_SHADOWED_BY_MEMBER"
)

type codeInfo struct {
	template string
	severity Severity
}

var codes = map[Code]codeInfo{
	UnresolvedReference:        {"Unresolved reference: {0}", SeverityError},
	UnresolvedType:             {"Unresolved type: {0}", SeverityError},
	TypeMismatch:               {"Type mismatch: expected {0}, found {1}", SeverityError},
	WrongNumberOfArguments:     {"Wrong number of arguments: expected {0}, found {1}", SeverityError},
	NoValueForParameter:        {"No value passed for parameter '{0}'", SeverityError},
	ArgumentTypeMismatch:       {"Argument type mismatch: expected {0}, found {1}", SeverityError},
	NoneApplicable:             {"None of the following candidates is applicable: {0}", SeverityError},
	OverloadAmbiguity:          {"Overload resolution ambiguity: {0}", SeverityError},
	ReturnTypeMismatch:         {"Return type mismatch: expected {0}, found {1}", SeverityError},
	ReturnNotAllowed:           {"'return' is not allowed here", SeverityError},
	NoTypeNoInitializer:        {"This variable must either have a type annotation or be initialized", SeverityError},
	ValReassignment:            {"Val cannot be reassigned", SeverityError},
	VarInitializationRequired:  {"Property must be initialized", SeverityError},
	UninitializedVariable:      {"Variable '{0}' must be initialized", SeverityError},
	NullableTypeMismatch:       {"Type mismatch: inferred type is {0} but {1} was expected", SeverityError},
	UnsafeCall:                 {"Only safe (?.) or non-null asserted (!!.) calls are allowed on a nullable receiver of type {0}", SeverityError},
	UnsafeImplicitInvoke:       {"Reference has a nullable type '{0}', use explicit '?.invoke()' to make a function-like call instead", SeverityError},
	AbstractMemberNotImpl:      {"Class '{0}' is not abstract and does not implement abstract member '{1}'", SeverityError},
	AbstractClassMemberNotImpl: {"Class '{0}' is not abstract and does not implement abstract base class member '{1}'", SeverityError},
	CannotOverrideInvisible:    {"Cannot override invisible member '{0}'", SeverityError},
	NothingToOverride:          {"'{0}' overrides nothing", SeverityError},
	MustBeInitialized:          {"Property must be initialized or be abstract", SeverityError},
	ConflictingOverloads:       {"Conflicting overloads: {0}", SeverityError},
	Redeclaration:              {"Redeclaration: {0}", SeverityError},
	MissingWhenBranch:          {"'when' expression must be exhaustive, add necessary {0} branches", SeverityError},
	ConditionTypeMismatch:      {"Condition must be of type Boolean, but is {0}", SeverityError},
	IncompatibleTypes:          {"Incompatible types: {0} and {1}", SeverityError},
	OperatorModifierRequired:   {"'operator' modifier is required on '{0}'", SeverityError},
	InfixModifierRequired:      {"'infix' modifier is required on '{0}'", SeverityError},
	TooManyArguments:           {"Too many arguments for {0}", SeverityError},
	NamedParameterNotFound:     {"Cannot find a parameter with this name: {0}", SeverityError},
	MixingNamedAndPositioned:   {"Mixing named and positioned arguments is not allowed", SeverityError},
	SuperNotAvailable:          {"'super' is not an expression, it can only be used on the left-hand side of a dot ('.')", SeverityError},
	ThisNotAvailable:           {"'this' is not defined in this context", SeverityError},
	SyntaxError:                {"Syntax error: {0}", SeverityError},
	RuleViolation:              {"{0}", SeverityWarning},

	UnreachableCode:       {"Unreachable code", SeverityWarning},
	UselessNullableCheck:  {"Unnecessary non-null assertion (!!) on a non-null receiver of type {0}", SeverityWarning},
	SenselessNullInWhen:   {"Expression under 'when' is never equal to null", SeverityWarning},
	NameShadowing:         {"Name shadowed: {0}", SeverityWarning},
	UnusedVariable:        {"Variable '{0}' is never used", SeverityWarning},
	UnusedParameter:       {"Parameter '{0}' is never used", SeverityWarning},
	UnusedExpression:      {"The expression is unused", SeverityWarning},
	UselessCast:           {"No cast needed", SeverityWarning},
	UncheckedCast:         {"Unchecked cast: {0} to {1}", SeverityWarning},
	Deprecation:           {"'{0}' is deprecated. {1}", SeverityWarning},
	UnreachableWhenBranch: {"Unreachable 'when' branch", SeverityWarning},
	ExtensionShadowed:     {"Extension is shadowed by a member: {0}", SeverityWarning},
}

// Template returns the message template for c, or "{0}" for unknown codes.
func (c Code) Template() string {
	if info, ok := codes[c]; ok {
		return info.template
	}
	return "{0}"
}

// DefaultSeverity returns the severity c is reported with when the caller
// does not override it.
func (c Code) DefaultSeverity() Severity {
	if info, ok := codes[c]; ok {
		return info.severity
	}
	return SeverityError
}

// Format substitutes {n} placeholders in c's template. Placeholders without a
// matching argument render empty.
func (c Code) Format(args ...string) string {
	return FormatTemplate(c.Template(), args...)
}

// FormatTemplate substitutes {n} placeholders in tmpl with args[n].
func FormatTemplate(tmpl string, args ...string) string {
	var b strings.Builder
	b.Grow(len(tmpl))
	for i := 0; i < len(tmpl); i++ {
		if tmpl[i] != '{' {
			b.WriteByte(tmpl[i])
			continue
		}
		end := strings.IndexByte(tmpl[i:], '}')
		if end < 0 {
			b.WriteString(tmpl[i:])
			break
		}
		idx, err := strconv.Atoi(tmpl[i+1 : i+end])
		if err != nil {
			b.WriteByte(tmpl[i])
			continue
		}
		if idx >= 0 && idx < len(args) {
			b.WriteString(args[idx])
		}
		i += end
	}
	return b.String()
}

// Codes returns every registered code.
func Codes() []Code {
	out := make([]Code, 0, len(codes))
	for c := range codes {
		out = append(out, c)
	}
	return out
}
