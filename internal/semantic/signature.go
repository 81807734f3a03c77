package semantic

import (
	"github.com/jward/ksema/internal/index"
	"github.com/jward/ksema/internal/symbol"
	"github.com/jward/ksema/internal/types"
)

// Signature is a function's declared types resolved where it was declared.
type Signature struct {
	// Parameters holds one type per parameter; varargs carry the element type.
	Parameters []types.Type
	// Return is nil when the return type must be inferred from the body.
	Return   types.Type
	Receiver types.Type
	// TypeParams are the parameters a call may bind: the function's own, or
	// the class's for constructors.
	TypeParams []*types.TypeParam
}

// Signature resolves fn's declared types once per context.
func (r *Resolver) Signature(fn *symbol.Function) *Signature {
	if sig, ok := r.ctx.shared.signatures[fn]; ok {
		return sig
	}
	var sig *Signature
	if rec, ok := r.ctx.External(fn); ok {
		sig = r.externalSignature(fn, rec)
	} else {
		sig = r.localSignature(fn)
	}
	r.ctx.shared.signatures[fn] = sig
	return sig
}

func (r *Resolver) localSignature(fn *symbol.Function) *Signature {
	scope := r.ctx.Table.Scope(fn.Body)
	if scope == nil {
		scope = r.scopeOf(fn)
	}
	sig := &Signature{}
	for _, p := range fn.Parameters {
		sig.Parameters = append(sig.Parameters, orAnyNullable(r.ctx.Types.Resolve(p.Type, scope)))
	}
	sig.Receiver = r.ctx.Types.Resolve(fn.ReceiverType, scope)
	sig.Return = r.ctx.Types.Resolve(fn.ReturnType, scope)
	for _, tp := range fn.TypeParameters {
		sig.TypeParams = append(sig.TypeParams, r.ctx.Types.TypeParam(tp, scope))
	}
	if fn.IsConstructor {
		if cls := r.ctx.LocalClass(fn.Container); cls != nil {
			own := r.ctx.Types.ClassType(cls, true)
			sig.Return = own
			for _, a := range own.Arguments {
				if tp, ok := a.Type.(*types.TypeParam); ok {
					sig.TypeParams = append(sig.TypeParams, tp)
				}
			}
		}
	}
	return sig
}

func (r *Resolver) externalSignature(fn *symbol.Function, rec index.Symbol) *Signature {
	params := r.externalParams(fn, rec)
	res := func(ref *symbol.TypeReference) types.Type {
		return r.ctx.Types.ResolveExternal(ref, rec.Package, params)
	}
	sig := &Signature{}
	for _, p := range fn.Parameters {
		sig.Parameters = append(sig.Parameters, orAnyNullable(res(p.Type)))
	}
	sig.Receiver = res(fn.ReceiverType)
	sig.Return = res(fn.ReturnType)
	for _, tp := range fn.TypeParameters {
		if p, ok := params[tp.Name]; ok {
			sig.TypeParams = append(sig.TypeParams, p)
		}
	}
	if fn.IsConstructor {
		owner := r.classParams(rec.ContainingClass)
		if sig.Return == nil {
			sig.Return = &types.Class{FQName: rec.ContainingClass}
		}
		if c, ok := sig.Return.(*types.Class); ok && len(c.Arguments) == 0 && len(owner) > 0 {
			cp := *c
			for _, name := range owner {
				cp.Arguments = append(cp.Arguments, types.Argument{Type: params[name]})
				sig.TypeParams = append(sig.TypeParams, params[name])
			}
			sig.Return = &cp
		}
	}
	if sig.Return == nil {
		sig.Return = types.UnitType
	}
	return sig
}

// externalParams builds the type parameters visible in an indexed
// declaration: its own and those of its containing class.
func (r *Resolver) externalParams(sym symbol.Symbol, rec index.Symbol) map[string]*types.TypeParam {
	if ps, ok := r.ctx.shared.typeParams[sym]; ok {
		return ps
	}
	ps := make(map[string]*types.TypeParam)
	r.ctx.shared.typeParams[sym] = ps
	bounds := make(map[string]string)
	add := func(decls []string) {
		for _, decl := range decls {
			name, variance, bound, _ := index.ParseTypeParameter(decl)
			if name == "" {
				continue
			}
			if _, dup := ps[name]; dup {
				continue
			}
			ps[name] = &types.TypeParam{Name: name, Variance: types.ParseVariance(variance)}
			if bound != "" {
				bounds[name] = bound
			}
		}
	}
	add(rec.TypeParameters)
	if rec.ContainingClass != "" {
		for _, owner := range r.ctx.Project.FindByFQName(rec.ContainingClass) {
			if owner.Kind.IsClass() {
				add(owner.TypeParameters)
				break
			}
		}
	}
	for name, bound := range bounds {
		if bt := r.ctx.Types.ResolveExternal(symbol.ParseTypeReference(bound), rec.Package, ps); bt != nil && !bt.HasError() {
			ps[name].Bounds = []types.Type{bt}
		}
	}
	return ps
}

// classParams lists the type parameter names of an indexed class.
func (r *Resolver) classParams(fq string) []string {
	for _, rec := range r.ctx.Project.FindByFQName(fq) {
		if !rec.Kind.IsClass() {
			continue
		}
		out := make([]string, 0, len(rec.TypeParameters))
		for _, decl := range rec.TypeParameters {
			if name, _, _, _ := index.ParseTypeParameter(decl); name != "" {
				out = append(out, name)
			}
		}
		return out
	}
	return nil
}

func orAnyNullable(t types.Type) types.Type {
	if t == nil {
		return types.AnyNullable
	}
	return t
}

// varargArray is the array type a spread argument must have for a vararg
// parameter of element type elem.
func varargArray(elem types.Type) types.Type {
	if p, ok := types.NonNull(elem).(*types.Primitive); ok && !elem.IsNullable() {
		return &types.Class{FQName: "kotlin." + p.Kind.String() + "Array"}
	}
	return types.ArrayOf(elem)
}
