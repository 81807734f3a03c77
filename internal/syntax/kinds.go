package syntax

// Node kinds of the tree-sitter Kotlin grammar that the analyzer dispatches on.
const (
	KindError      = "ERROR"
	KindSourceFile = "source_file"

	KindPackageHeader = "package_header"
	KindImportList    = "import_list"
	KindImportHeader  = "import_header"
	KindImportAlias   = "import_alias"
	KindWildcard      = "wildcard_import"

	KindClassDeclaration     = "class_declaration"
	KindObjectDeclaration    = "object_declaration"
	KindCompanionObject      = "companion_object"
	KindFunctionDeclaration  = "function_declaration"
	KindPropertyDeclaration  = "property_declaration"
	KindTypeAlias            = "type_alias"
	KindSecondaryConstructor = "secondary_constructor"
	KindAnonymousInitializer = "anonymous_initializer"
	KindPrimaryConstructor   = "primary_constructor"
	KindClassParameter       = "class_parameter"
	KindClassBody            = "class_body"
	KindEnumClassBody        = "enum_class_body"
	KindEnumEntry            = "enum_entry"
	KindDelegationSpecifier  = "delegation_specifier"
	KindConstructorInvoc     = "constructor_invocation"
	KindExplicitDelegation   = "explicit_delegation"
	KindConstructorDelegCall = "constructor_delegation_call"

	KindModifiers          = "modifiers"
	KindParameterModifiers = "parameter_modifiers"
	KindAnnotation         = "annotation"

	KindTypeParameters = "type_parameters"
	KindTypeParameter  = "type_parameter"
	KindTypeArguments  = "type_arguments"
	KindTypeProjection = "type_projection"
	KindTypeConstraint = "type_constraints"

	KindFunctionValueParameters = "function_value_parameters"
	KindParameter               = "parameter"
	KindFunctionBody            = "function_body"
	KindGetter                  = "getter"
	KindSetter                  = "setter"
	KindPropertyDelegate        = "property_delegate"
	KindVariableDeclaration     = "variable_declaration"
	KindMultiVariableDecl       = "multi_variable_declaration"

	KindUserType            = "user_type"
	KindSimpleUserType      = "simple_user_type"
	KindNullableType        = "nullable_type"
	KindFunctionType        = "function_type"
	KindFunctionTypeParams  = "function_type_parameters"
	KindParenthesizedType   = "parenthesized_type"
	KindTypeIdentifier      = "type_identifier"
	KindTypeModifiers       = "type_modifiers"
	KindReceiverType        = "receiver_type"
	KindNonNullableType     = "non_nullable_type"
	KindDefinitelyNonNull   = "definitely_non_nullable_type"
	KindTypeProjectionMods  = "type_projection_modifiers"
	KindVarianceModifier    = "variance_modifier"
	KindTypeParamModifiers  = "type_parameter_modifiers"
	KindReificationModifier = "reification_modifier"

	KindStatements                = "statements"
	KindBindingPatternKind        = "binding_pattern_kind"
	KindControlStructureBody      = "control_structure_body"
	KindAssignment                = "assignment"
	KindDirectlyAssignable        = "directly_assignable_expression"
	KindForStatement              = "for_statement"
	KindWhileStatement            = "while_statement"
	KindDoWhileStatement          = "do_while_statement"
	KindIfExpression              = "if_expression"
	KindWhenExpression            = "when_expression"
	KindWhenSubject               = "when_subject"
	KindWhenEntry                 = "when_entry"
	KindWhenCondition             = "when_condition"
	KindRangeTest                 = "range_test"
	KindTypeTest                  = "type_test"
	KindTryExpression             = "try_expression"
	KindCatchBlock                = "catch_block"
	KindFinallyBlock              = "finally_block"
	KindJumpExpression            = "jump_expression"
	KindLambdaLiteral             = "lambda_literal"
	KindLambdaParameters          = "lambda_parameters"
	KindAnnotatedLambda           = "annotated_lambda"
	KindAnonymousFunction         = "anonymous_function"
	KindObjectLiteral             = "object_literal"
	KindCallableReference         = "callable_reference"
	KindLabel                     = "label"
	KindParenthesizedExpression   = "parenthesized_expression"
	KindCollectionLiteral         = "collection_literal"
	KindThisExpression            = "this_expression"
	KindSuperExpression           = "super_expression"
	KindCallExpression            = "call_expression"
	KindCallSuffix                = "call_suffix"
	KindValueArguments            = "value_arguments"
	KindValueArgument             = "value_argument"
	KindNavigationExpression      = "navigation_expression"
	KindNavigationSuffix          = "navigation_suffix"
	KindIndexingExpression        = "indexing_expression"
	KindIndexingSuffix            = "indexing_suffix"
	KindPrefixExpression          = "prefix_expression"
	KindPostfixExpression         = "postfix_expression"
	KindAsExpression              = "as_expression"
	KindSpreadExpression          = "spread_expression"
	KindMultiplicativeExpression  = "multiplicative_expression"
	KindAdditiveExpression        = "additive_expression"
	KindRangeExpression           = "range_expression"
	KindInfixExpression           = "infix_expression"
	KindElvisExpression           = "elvis_expression"
	KindCheckExpression           = "check_expression"
	KindComparisonExpression      = "comparison_expression"
	KindEqualityExpression        = "equality_expression"
	KindConjunctionExpression     = "conjunction_expression"
	KindDisjunctionExpression     = "disjunction_expression"
	KindSimpleIdentifier          = "simple_identifier"
	KindIdentifier                = "identifier"
	KindStringLiteral             = "string_literal"
	KindLineStringLiteral         = "line_string_literal"
	KindMultiLineStringLiteral    = "multi_line_string_literal"
	KindStringContent             = "string_content"
	KindInterpolatedExpression    = "interpolated_expression"
	KindInterpolatedIdentifier    = "interpolated_identifier"
	KindIntegerLiteral            = "integer_literal"
	KindHexLiteral                = "hex_literal"
	KindBinLiteral                = "bin_literal"
	KindLongLiteral               = "long_literal"
	KindUnsignedLiteral           = "unsigned_literal"
	KindRealLiteral               = "real_literal"
	KindBooleanLiteral            = "boolean_literal"
	KindCharacterLiteral          = "character_literal"
	KindNullLiteral               = "null"
	KindLineComment               = "line_comment"
	KindMultilineComment          = "multiline_comment"
	KindShebangLine               = "shebang_line"
	KindFileAnnotation            = "file_annotation"
)

// IsDeclaration reports whether kind introduces a named declaration.
func IsDeclaration(kind string) bool {
	switch kind {
	case KindClassDeclaration, KindObjectDeclaration, KindCompanionObject,
		KindFunctionDeclaration, KindPropertyDeclaration, KindTypeAlias,
		KindSecondaryConstructor:
		return true
	}
	return false
}

// IsComment reports whether kind is trivia the analyzer skips.
func IsComment(kind string) bool {
	return kind == KindLineComment || kind == KindMultilineComment || kind == KindShebangLine
}
