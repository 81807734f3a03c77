package store

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/jward/ksema/internal/index"
)

// maxBatchParams bounds the placeholders of a single IN clause.
const maxBatchParams = 500

var classKindList = func() string {
	kinds := []index.Kind{
		index.KindClass, index.KindInterface, index.KindObject, index.KindEnumClass,
		index.KindAnnotationClass, index.KindDataClass, index.KindValueClass, index.KindEnumEntry,
	}
	quoted := make([]string, len(kinds))
	for i, k := range kinds {
		quoted[i] = "'" + string(k) + "'"
	}
	return strings.Join(quoted, ",")
}()

// InsertSymbol stores one declaration of the file with its parameters and
// supertypes, and returns the new row ID.
func (s *Store) InsertSymbol(fileID int64, sym index.Symbol) (int64, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("store: begin transaction: %w", err)
	}
	defer tx.Rollback()
	id, err := insertSymbol(tx, fileID, sym)
	if err != nil {
		return 0, err
	}
	return id, tx.Commit()
}

func insertSymbol(db execer, fileID int64, sym index.Symbol) (int64, error) {
	if sym.Package == "" && sym.ContainingClass == "" {
		sym.Package = index.PackageOf(sym.FQName)
	}
	res, err := db.Exec(
		`INSERT INTO symbols (file_id, name, fq_name, kind, package, containing_class, visibility,
			type_parameters, return_type, receiver_type, receiver_simple,
			start_line, start_col, end_line, end_col,
			deprecated, deprecation_msg, is_abstract, is_sealed, is_var, signature_hash)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		fileID, sym.Name, sym.FQName, string(sym.Kind), sym.Package, sym.ContainingClass, sym.Visibility,
		marshalStrings(sym.TypeParameters), sym.ReturnType, sym.ReceiverType, receiverKey(sym),
		sym.StartLine, sym.StartCol, sym.EndLine, sym.EndCol,
		sym.Deprecated, sym.DeprecationMsg, sym.IsAbstract, sym.IsSealed, sym.IsVar,
		ComputeSignatureHash(sym),
	)
	if err != nil {
		return 0, fmt.Errorf("store: insert symbol %q: %w", sym.FQName, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("store: last insert id: %w", err)
	}
	for i, p := range sym.Parameters {
		if _, err := db.Exec(
			"INSERT INTO symbol_parameters (symbol_id, ordinal, name, type_expr, has_default, is_vararg) VALUES (?, ?, ?, ?, ?, ?)",
			id, i, p.Name, p.Type, p.HasDefault, p.Vararg,
		); err != nil {
			return 0, fmt.Errorf("store: insert parameter: %w", err)
		}
	}
	for i, st := range sym.SuperTypes {
		if _, err := db.Exec(
			"INSERT INTO symbol_supertypes (symbol_id, ordinal, type_expr) VALUES (?, ?, ?)",
			id, i, st,
		); err != nil {
			return 0, fmt.Errorf("store: insert supertype: %w", err)
		}
	}
	return id, nil
}

// receiverKey is the simple name of an extension's receiver, or "*" when
// the receiver is one of the symbol's own type parameters.
func receiverKey(sym index.Symbol) string {
	if sym.ReceiverType == "" {
		return ""
	}
	base := index.BaseName(sym.ReceiverType)
	for _, tp := range sym.TypeParameters {
		if name, _, _, _ := index.ParseTypeParameter(tp); name == base {
			return "*"
		}
	}
	return index.SimpleName(base)
}

const symbolColumns = `s.id, s.name, s.fq_name, s.kind, s.package, s.containing_class, s.visibility,
	s.type_parameters, s.return_type, s.receiver_type, s.start_line, s.start_col, s.end_line, s.end_col,
	s.deprecated, s.deprecation_msg, s.is_abstract, s.is_sealed, s.is_var, f.path`

func scanSymbol(scanner interface{ Scan(...any) error }) (int64, index.Symbol, error) {
	var (
		id                  int64
		sym                 index.Symbol
		kind                string
		vis, tps, deprecMsg sql.NullString
	)
	err := scanner.Scan(
		&id, &sym.Name, &sym.FQName, &kind, &sym.Package, &sym.ContainingClass, &vis,
		&tps, &sym.ReturnType, &sym.ReceiverType, &sym.StartLine, &sym.StartCol, &sym.EndLine, &sym.EndCol,
		&sym.Deprecated, &deprecMsg, &sym.IsAbstract, &sym.IsSealed, &sym.IsVar, &sym.FilePath,
	)
	if err != nil {
		return 0, sym, err
	}
	sym.Kind = index.Kind(kind)
	sym.Visibility = vis.String
	sym.TypeParameters = unmarshalStrings(tps.String)
	sym.DeprecationMsg = deprecMsg.String
	return id, sym, nil
}

// querySymbols runs a filtered select and attaches parameters and
// supertypes. Rows are drained before the detail queries run so that a
// single-connection database does not deadlock.
func (s *Store) querySymbols(where string, args ...any) ([]index.Symbol, error) {
	rows, err := s.db.Query(
		"SELECT "+symbolColumns+" FROM symbols s JOIN files f ON f.id = s.file_id WHERE "+where+" ORDER BY s.fq_name, s.id",
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("store: query symbols: %w", err)
	}
	var (
		ids []int64
		out []index.Symbol
	)
	for rows.Next() {
		id, sym, err := scanSymbol(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("store: scan symbol: %w", err)
		}
		ids = append(ids, id)
		out = append(out, sym)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: query symbols: %w", err)
	}
	if err := s.attachDetails(ids, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) attachDetails(ids []int64, syms []index.Symbol) error {
	pos := make(map[int64]int, len(ids))
	for i, id := range ids {
		pos[id] = i
	}
	for start := 0; start < len(ids); start += maxBatchParams {
		chunk := ids[start:min(start+maxBatchParams, len(ids))]
		in := placeholderList(len(chunk))
		args := int64sToArgs(chunk)

		rows, err := s.db.Query(
			"SELECT symbol_id, name, type_expr, has_default, is_vararg FROM symbol_parameters WHERE symbol_id IN ("+in+") ORDER BY symbol_id, ordinal",
			args...,
		)
		if err != nil {
			return fmt.Errorf("store: query parameters: %w", err)
		}
		for rows.Next() {
			var id int64
			var p index.Param
			var name, typ sql.NullString
			if err := rows.Scan(&id, &name, &typ, &p.HasDefault, &p.Vararg); err != nil {
				rows.Close()
				return fmt.Errorf("store: scan parameter: %w", err)
			}
			p.Name, p.Type = name.String, typ.String
			syms[pos[id]].Parameters = append(syms[pos[id]].Parameters, p)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return fmt.Errorf("store: query parameters: %w", err)
		}

		rows, err = s.db.Query(
			"SELECT symbol_id, type_expr FROM symbol_supertypes WHERE symbol_id IN ("+in+") ORDER BY symbol_id, ordinal",
			args...,
		)
		if err != nil {
			return fmt.Errorf("store: query supertypes: %w", err)
		}
		for rows.Next() {
			var id int64
			var st string
			if err := rows.Scan(&id, &st); err != nil {
				rows.Close()
				return fmt.Errorf("store: scan supertype: %w", err)
			}
			syms[pos[id]].SuperTypes = append(syms[pos[id]].SuperTypes, st)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return fmt.Errorf("store: query supertypes: %w", err)
		}
	}
	return nil
}

func (s *Store) SymbolsByFQName(fq string) ([]index.Symbol, error) {
	return s.querySymbols("s.fq_name = ?", fq)
}

// SymbolsByName returns top-level declarations and nested classes named
// name. Members and extensions are reached through MembersOf and the
// extension queries.
func (s *Store) SymbolsByName(name string) ([]index.Symbol, error) {
	return s.querySymbols(
		"s.name = ? AND s.receiver_type = '' AND (s.containing_class = '' OR s.kind IN ("+classKindList+"))",
		name,
	)
}

func (s *Store) SymbolsByPackage(pkg string) ([]index.Symbol, error) {
	return s.querySymbols("s.package = ? AND s.containing_class = '' AND s.receiver_type = ''", pkg)
}

func (s *Store) SymbolsByFile(path string) ([]index.Symbol, error) {
	return s.querySymbols("f.path = ?", path)
}

func (s *Store) MembersOf(classFQ string) ([]index.Symbol, error) {
	return s.querySymbols("s.containing_class = ? AND s.receiver_type = ''", classFQ)
}

// ExtensionsFor returns extensions whose receiver names receiver or one of
// its project-declared supertypes, plus extensions on bare type parameters.
func (s *Store) ExtensionsFor(receiver string) ([]index.Symbol, error) {
	names, err := s.supertypeClosure(index.BaseName(receiver))
	if err != nil {
		return nil, err
	}
	keys := []any{"*"}
	seen := map[string]bool{"*": true}
	for _, n := range names {
		if k := index.SimpleName(n); !seen[k] {
			seen[k] = true
			keys = append(keys, k)
		}
	}
	return s.querySymbols("s.receiver_type != '' AND s.receiver_simple IN ("+placeholderList(len(keys))+")", keys...)
}

func (s *Store) ExtensionsNamed(name string) ([]index.Symbol, error) {
	return s.querySymbols("s.name = ? AND s.receiver_type != ''", name)
}

// Classes returns every class-like declaration ordered by qualified name.
func (s *Store) Classes() ([]index.Symbol, error) {
	return s.querySymbols("s.kind IN (" + classKindList + ")")
}

// supertypeClosure returns name followed by the base names of every
// supertype declared by project classes, breadth first.
func (s *Store) supertypeClosure(name string) ([]string, error) {
	out := []string{name}
	seen := map[string]bool{name: true}
	for i := 0; i < len(out); i++ {
		supers, err := s.declaredSupertypes(out[i])
		if err != nil {
			return nil, err
		}
		for _, st := range supers {
			base := index.BaseName(st)
			if !seen[base] {
				seen[base] = true
				out = append(out, base)
			}
		}
	}
	return out, nil
}

func (s *Store) declaredSupertypes(class string) ([]string, error) {
	rows, err := s.db.Query(
		`SELECT st.type_expr FROM symbol_supertypes st JOIN symbols s ON s.id = st.symbol_id
		 WHERE s.kind IN (`+classKindList+`) AND (s.fq_name = ? OR s.name = ?)
		 ORDER BY st.symbol_id, st.ordinal`,
		class, index.SimpleName(class),
	)
	if err != nil {
		return nil, fmt.Errorf("store: declared supertypes: %w", err)
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var st string
		if err := rows.Scan(&st); err != nil {
			return nil, fmt.Errorf("store: scan supertype: %w", err)
		}
		out = append(out, st)
	}
	return out, rows.Err()
}
