package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jward/ksema/internal/symbol"
	"github.com/jward/ksema/internal/syntax"
)

func newOutlineCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "outline <file>",
		Short: "Print the declarations of a Kotlin file",
		Args:  cobra.ExactArgs(1),
		RunE:  a.runOutline,
	}
}

func (a *app) runOutline(cmd *cobra.Command, args []string) error {
	out, errw := cmd.OutOrStdout(), cmd.ErrOrStderr()

	path, err := filepath.Abs(args[0])
	if err != nil {
		return a.outputError(out, errw, "outline", err)
	}
	if !syntax.IsKotlinFile(path) {
		return a.outputError(out, errw, "outline", fmt.Errorf("not a Kotlin file: %s", path))
	}
	engine, err := a.newEngine(":memory:")
	if err != nil {
		return a.outputError(out, errw, "outline", err)
	}
	defer engine.Close()

	analysis, err := engine.AnalyzeFile(cmd.Context(), path)
	if err != nil {
		return a.outputError(out, errw, "outline", err)
	}
	symbols := analysis.Outline()
	if symbols == nil {
		symbols = []symbol.OutlineSymbol{}
	}
	return a.outputResult(out, CLIResult{
		Command: "outline",
		Results: CLIOutline{File: analysis.Path, Symbols: symbols},
	})
}
