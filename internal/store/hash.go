package store

import (
	"crypto/sha256"
	"fmt"
	"strings"

	"github.com/jward/ksema/internal/index"
)

// ComputeSignatureHash computes a deterministic hash from a symbol's semantic
// identity: name, kind, visibility, modifiers, type parameters, parameters,
// return and receiver types, and supertypes. Location changes do NOT affect
// the hash.
func ComputeSignatureHash(sym index.Symbol) string {
	h := sha256.New()

	fmt.Fprintf(h, "name:%s\n", sym.FQName)
	fmt.Fprintf(h, "kind:%s\n", sym.Kind)
	fmt.Fprintf(h, "visibility:%s\n", sym.Visibility)
	fmt.Fprintf(h, "modifiers:%v:%v:%v:%v\n", sym.IsAbstract, sym.IsSealed, sym.IsVar, sym.Deprecated)

	// Declaration order is significant for both lists.
	fmt.Fprintf(h, "typeparams:%s\n", strings.Join(sym.TypeParameters, ","))
	for i, p := range sym.Parameters {
		fmt.Fprintf(h, "param:%d:%s:%s:%v:%v\n", i, p.Name, p.Type, p.HasDefault, p.Vararg)
	}
	fmt.Fprintf(h, "returns:%s\n", sym.ReturnType)
	fmt.Fprintf(h, "receiver:%s\n", sym.ReceiverType)
	fmt.Fprintf(h, "supertypes:%s\n", strings.Join(sym.SuperTypes, ","))

	return fmt.Sprintf("%x", h.Sum(nil))
}

// HashContent returns the hex SHA-256 of a file's contents, used to skip
// re-indexing unchanged files.
func HashContent(content []byte) string {
	return fmt.Sprintf("%x", sha256.Sum256(content))
}
