package semantic

import (
	"fmt"
	"strings"

	"github.com/jward/ksema/internal/symbol"
	"github.com/jward/ksema/internal/syntax"
	"github.com/jward/ksema/internal/types"
)

// CallArgument is one argument of a call as the overload resolver sees it.
type CallArgument struct {
	Type   types.Type
	Name   string
	Spread bool
	// Lambda marks a lambda literal, typed only after a candidate is chosen.
	Lambda bool
	// Arity is a lambda's declared parameter count; -1 means it uses `it`.
	Arity int
	Node  *syntax.Node
}

// ParameterMapping records how the arguments of a successful call map onto
// the selected function's parameters. All indices are zero-based.
type ParameterMapping struct {
	// Positional maps argument index to parameter index.
	Positional map[int]int
	// Named maps argument name to parameter index.
	Named map[string]int
	// DefaultsUsed lists parameters left to their default value.
	DefaultsUsed []int
	// VarargElements lists the arguments collected by a vararg parameter.
	VarargElements []int
}

// ParameterFor returns the parameter index argument i was bound to.
func (m ParameterMapping) ParameterFor(i int, arg CallArgument) (int, bool) {
	if arg.Name != "" {
		p, ok := m.Named[arg.Name]
		return p, ok
	}
	p, ok := m.Positional[i]
	return p, ok
}

// OverloadResult is Success, Ambiguity or NoApplicable.
type OverloadResult interface {
	isOverloadResult()
}

type Success struct {
	Selected *symbol.Function
	Mapping  ParameterMapping
}

type Ambiguity struct {
	Candidates []*symbol.Function
}

type NoApplicable struct {
	Candidates []*symbol.Function
	Failures   []Failure
}

func (Success) isOverloadResult()      {}
func (Ambiguity) isOverloadResult()    {}
func (NoApplicable) isOverloadResult() {}

// Failure explains why one candidate cannot accept the arguments.
type Failure struct {
	Candidate *symbol.Function
	Reason    FailureReason
}

// FailureReason is one of the applicability failures below.
type FailureReason interface {
	fmt.Stringer
	isFailureReason()
}

type TooFewArguments struct {
	Required, Provided int
	// Missing names the first parameter without a value.
	Missing string
}

type TooManyArguments struct {
	Max, Provided int
}

type TypeMismatch struct {
	Param            int
	Expected, Actual types.Type
	// Arg is the index of the offending argument.
	Arg int
}

type NamedParameterNotFound struct {
	Name string
}

type DuplicateNamedArgument struct {
	Name string
}

type PositionalAfterNamed struct {
	Arg int
}

func (TooFewArguments) isFailureReason()        {}
func (TooManyArguments) isFailureReason()       {}
func (TypeMismatch) isFailureReason()           {}
func (NamedParameterNotFound) isFailureReason() {}
func (DuplicateNamedArgument) isFailureReason() {}
func (PositionalAfterNamed) isFailureReason()   {}

func (r TooFewArguments) String() string {
	return fmt.Sprintf("Too few arguments: expected %d, got %d", r.Required, r.Provided)
}

func (r TooManyArguments) String() string {
	return fmt.Sprintf("Too many arguments: expected at most %d, got %d", r.Max, r.Provided)
}

func (r TypeMismatch) String() string {
	return fmt.Sprintf("Type mismatch at parameter %d: expected %s, got %s", r.Param, types.Render(r.Expected), types.Render(r.Actual))
}

func (r NamedParameterNotFound) String() string {
	return fmt.Sprintf("No parameter named '%s'", r.Name)
}

func (r DuplicateNamedArgument) String() string {
	return fmt.Sprintf("Duplicate named argument '%s'", r.Name)
}

func (r PositionalAfterNamed) String() string {
	return fmt.Sprintf("Positional argument at index %d after named arguments", r.Arg)
}

// FormatResult renders an overload result for messages and logs.
func FormatResult(res OverloadResult) string {
	switch r := res.(type) {
	case Success:
		return "Resolution successful"
	case Ambiguity:
		var b strings.Builder
		b.WriteString("Overload resolution ambiguity between:")
		for _, c := range r.Candidates {
			b.WriteString("\n  ")
			b.WriteString(c.Signature())
		}
		return b.String()
	case NoApplicable:
		if len(r.Failures) == 0 {
			return "No applicable candidates found"
		}
		var b strings.Builder
		b.WriteString("None of the following candidates are applicable:")
		for _, f := range r.Failures {
			fmt.Fprintf(&b, "\n  %s: %s", f.Candidate.Signature(), f.Reason)
		}
		return b.String()
	}
	return ""
}

// OverloadResolver picks one function among same-named candidates.
type OverloadResolver struct {
	res *Resolver
}

func NewOverloadResolver(r *Resolver) *OverloadResolver {
	return &OverloadResolver{res: r}
}

type applied struct {
	fn      *symbol.Function
	sig     *Signature
	mapping ParameterMapping
}

// Resolve checks every candidate against args and ranks the applicable ones.
// expected, when non-nil, breaks ties in favour of a matching return type.
func (o *OverloadResolver) Resolve(candidates []*symbol.Function, args []CallArgument, expected types.Type, scope *symbol.Scope) OverloadResult {
	var ok []*applied
	var failures []Failure
	for _, c := range candidates {
		a, reason := o.apply(c, args)
		if reason != nil {
			failures = append(failures, Failure{Candidate: c, Reason: reason})
			continue
		}
		ok = append(ok, a)
	}
	switch len(ok) {
	case 0:
		return NoApplicable{Candidates: candidates, Failures: failures}
	case 1:
		return Success{Selected: ok[0].fn, Mapping: ok[0].mapping}
	}

	// prefer is only a partial order: the scan finds a candidate, which then
	// has to beat every other one.
	top := ok[0]
	for _, a := range ok[1:] {
		if o.prefer(a, top, expected) > 0 {
			top = a
		}
	}
	dominates := true
	for _, other := range ok {
		if other != top && o.prefer(top, other, expected) <= 0 {
			dominates = false
			break
		}
	}
	if dominates {
		return Success{Selected: top.fn, Mapping: top.mapping}
	}
	var tied []*symbol.Function
	for _, a := range ok {
		beaten := false
		for _, b := range ok {
			if a != b && o.prefer(b, a, expected) > 0 {
				beaten = true
				break
			}
		}
		if !beaten {
			tied = append(tied, a.fn)
		}
	}
	return Ambiguity{Candidates: tied}
}

// apply matches args against fn's parameters left to right.
func (o *OverloadResolver) apply(fn *symbol.Function, args []CallArgument) (*applied, FailureReason) {
	sig := o.res.Signature(fn)
	params := fn.Parameters
	m := ParameterMapping{Positional: make(map[int]int), Named: make(map[string]int)}
	filled := make([]bool, len(params))
	varargAt := -1
	for i, p := range params {
		if p.IsVararg {
			varargAt = i
			break
		}
	}

	next, named := 0, false
	for i, arg := range args {
		var pi int
		switch {
		case arg.Name != "":
			named = true
			pi = parameterNamed(params, arg.Name)
			if pi < 0 {
				return nil, NamedParameterNotFound{Name: arg.Name}
			}
			if filled[pi] {
				return nil, DuplicateNamedArgument{Name: arg.Name}
			}
			m.Named[arg.Name] = pi
		case named:
			return nil, PositionalAfterNamed{Arg: i}
		default:
			for next < len(params) && filled[next] && next != varargAt {
				next++
			}
			if next >= len(params) {
				return nil, TooManyArguments{Max: len(params), Provided: len(args)}
			}
			pi = next
			// A trailing lambda skips a vararg that is not the last parameter.
			if pi == varargAt && varargAt != len(params)-1 && trailingLambda(args, i) {
				pi = len(params) - 1
			}
			m.Positional[i] = pi
		}

		want := paramType(sig, pi)
		if pi == varargAt {
			m.VarargElements = append(m.VarargElements, i)
			if arg.Spread {
				want = varargArray(want)
			}
		} else if arg.Spread {
			return nil, TypeMismatch{Param: pi, Expected: want, Actual: arg.Type, Arg: i}
		}
		if !o.fits(arg, want) {
			return nil, TypeMismatch{Param: pi, Expected: want, Actual: arg.Type, Arg: i}
		}
		filled[pi] = true
		if pi != varargAt && arg.Name == "" {
			next = pi + 1
		}
	}

	for i, p := range params {
		if filled[i] || p.IsVararg {
			continue
		}
		if !p.HasDefault {
			return nil, TooFewArguments{Required: fn.RequiredParameterCount(), Provided: len(args), Missing: p.Name}
		}
		m.DefaultsUsed = append(m.DefaultsUsed, i)
	}
	return &applied{fn: fn, sig: sig, mapping: m}, nil
}

// trailingLambda reports whether args[i] is a lambda passed last.
func trailingLambda(args []CallArgument, i int) bool {
	return i == len(args)-1 && args[i].Lambda
}

func parameterNamed(params []*symbol.Parameter, name string) int {
	for i, p := range params {
		if p.Name == name {
			return i
		}
	}
	return -1
}

func paramType(sig *Signature, i int) types.Type {
	if i < len(sig.Parameters) && sig.Parameters[i] != nil {
		return sig.Parameters[i]
	}
	return types.AnyNullable
}

// fits reports whether arg can be passed where want is expected.
func (o *OverloadResolver) fits(arg CallArgument, want types.Type) bool {
	if arg.Lambda {
		return lambdaFits(arg.Arity, want)
	}
	if isIntegerLiteral(arg.Node) {
		if p, ok := types.NonNull(want).(*types.Primitive); ok && p.Kind.IsIntegral() {
			return true
		}
	}
	return o.res.ctx.Checker.IsSubtype(arg.Type, want)
}

// isIntegerLiteral reports whether n is a decimal, hex or binary literal,
// possibly negated. Such literals take the integral type they are passed as.
func isIntegerLiteral(n *syntax.Node) bool {
	if n == nil {
		return false
	}
	if n.Kind() == syntax.KindPrefixExpression && n.HasToken("-") {
		return isIntegerLiteral(n.NamedChild(0))
	}
	return n.Is(syntax.KindIntegerLiteral, syntax.KindHexLiteral, syntax.KindBinLiteral)
}

func lambdaFits(arity int, want types.Type) bool {
	switch p := types.NonNull(want).(type) {
	case *types.Function:
		n := p.Arity()
		if arity < 0 {
			return n <= 1
		}
		return arity == n || (p.Receiver != nil && arity == n+1)
	case *types.TypeParam:
		return true
	case *types.Class:
		return p.FQName == types.FQAny || strings.HasPrefix(p.FQName, "kotlin.Function")
	}
	return types.IsError(want)
}

// prefer compares two applicable candidates: positive when a is the better
// choice, negative when b is, zero when neither wins.
func (o *OverloadResolver) prefer(a, b *applied, expected types.Type) int {
	if s := o.specificity(a.sig, b.sig); s != 0 {
		return s
	}
	if da, db := len(a.mapping.DefaultsUsed), len(b.mapping.DefaultsUsed); da != db {
		if da < db {
			return 1
		}
		return -1
	}
	if expected != nil && !types.IsError(expected) {
		ma, mb := o.returns(a.sig, expected), o.returns(b.sig, expected)
		if ma != mb {
			if ma {
				return 1
			}
			return -1
		}
	}
	if ea, eb := a.fn.IsExtension(), b.fn.IsExtension(); ea != eb {
		if !ea {
			return 1
		}
		return -1
	}
	return 0
}

// specificity sums, over shared parameter positions, +1 where a's parameter
// is strictly narrower than b's and -1 where it is strictly wider.
func (o *OverloadResolver) specificity(a, b *Signature) int {
	n := min(len(a.Parameters), len(b.Parameters))
	score := 0
	for i := 0; i < n; i++ {
		pa, pb := a.Parameters[i], b.Parameters[i]
		ab := o.res.ctx.Checker.IsSubtype(pa, pb)
		ba := o.res.ctx.Checker.IsSubtype(pb, pa)
		switch {
		case ab && !ba:
			score++
		case ba && !ab:
			score--
		}
	}
	switch {
	case score > 0:
		return 1
	case score < 0:
		return -1
	}
	return 0
}

func (o *OverloadResolver) returns(sig *Signature, expected types.Type) bool {
	return sig.Return != nil && o.res.ctx.Checker.IsSubtype(sig.Return, expected)
}

// ResolveFunctionCall looks name up as a function, as a member of receiver
// when one is given, and runs overload resolution over the functions found.
func (r *Resolver) ResolveFunctionCall(name string, receiver types.Type, args []CallArgument, expected types.Type, scope *symbol.Scope) OverloadResult {
	var found Resolution
	if receiver != nil {
		found = r.ResolveMemberAccess(receiver, name, scope)
	} else {
		found = r.ResolveSimpleName(name, scope)
	}
	fns := functionsOf(SymbolsOf(found))
	return NewOverloadResolver(r).Resolve(fns, args, expected, scope)
}

func functionsOf(syms []symbol.Symbol) []*symbol.Function {
	var out []*symbol.Function
	for _, s := range syms {
		if f, ok := s.(*symbol.Function); ok {
			out = append(out, f)
		}
	}
	return out
}
