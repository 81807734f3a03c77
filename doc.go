// Package ksema provides scope-aware semantic analysis of Kotlin sources
// built on tree-sitter. For each file it builds a symbol table and lexical
// scope tree, resolves every name reference, infers expression types,
// resolves overloaded calls, tracks smart casts and checks when
// exhaustiveness, reporting the problems it finds as diagnostics. Broken or
// partial input is tolerated: errors inside syntax-error regions are
// suppressed rather than cascaded.
//
// # Pipeline
//
// An Engine works in two phases:
//
//  1. Index: [Engine.IndexFiles] and [Engine.IndexDirectory] parse project
//     files and store their declarations in SQLite, skipping files whose
//     content hash is unchanged.
//
//  2. Analyze: [Engine.AnalyzeFile] runs the full analysis over one file,
//     resolving names against the file itself, then the project database,
//     then the stdlib and classpath indexes.
//
// # Usage
//
//	e, err := ksema.New(ksema.WithDatabase("ksema.db"))
//	if err != nil { ... }
//	defer e.Close()
//
//	ctx := context.Background()
//	err = e.IndexDirectory(ctx, "path/to/project")
//
//	a, err := e.AnalyzeFile(ctx, "path/to/project/Main.kt")
//	for _, d := range a.Diagnostics() { ... }
//	locs, err := a.DefinitionAt(10, 5)
//
// # Queries
//
// An [Analysis] answers position queries over the analyzed file:
//
//   - [Analysis.DefinitionAt]: where the symbol under the cursor is declared.
//   - [Analysis.ReferencesAt]: every use of that symbol in the file.
//   - [Analysis.TypeAt]: the inferred type of the innermost expression.
//   - [Analysis.Outline]: the document outline.
//
// # Rules
//
// [WithRules] loads Risor scripts that run after the built-in checks and
// can report their own diagnostics. See internal/rules for the globals
// exposed to scripts.
package ksema
