package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"github.com/jward/ksema"
	"github.com/jward/ksema/internal/syntax"
)

func newCheckCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "check [paths...]",
		Short: "Analyze Kotlin files and print their diagnostics",
		Long: "Analyzes the given files and directories (default: the working directory) " +
			"and prints every diagnostic. Exits with status 1 when an error is reported.",
		RunE: a.runCheck,
	}
}

func (a *app) runCheck(cmd *cobra.Command, args []string) error {
	out, errw := cmd.OutOrStdout(), cmd.ErrOrStderr()
	if len(args) == 0 {
		args = []string{"."}
	}

	start, err := startDir(args[0])
	if err != nil {
		return a.outputError(out, errw, "check", err)
	}
	dbPath, err := a.dbPath(findRepoRoot(start), false)
	if err != nil {
		return a.outputError(out, errw, "check", err)
	}
	engine, err := a.newEngine(dbPath)
	if err != nil {
		return a.outputError(out, errw, "check", err)
	}
	defer engine.Close()

	files, err := collectFiles(engine, args)
	if err != nil {
		return a.outputError(out, errw, "check", err)
	}

	ctx := cmd.Context()
	// Index first so the checked files resolve against each other.
	if err := engine.IndexFiles(ctx, files); err != nil {
		return a.outputError(out, errw, "check", fmt.Errorf("indexing: %w", err))
	}
	analyses, err := engine.AnalyzeFiles(ctx, files)
	if err != nil {
		return a.outputError(out, errw, "check", err)
	}

	reports := make([]CLIFileReport, 0, len(analyses))
	failed := false
	for _, an := range analyses {
		r := toCLIReport(an)
		failed = failed || r.Errors > 0
		reports = append(reports, r)
	}
	if err := a.outputResult(out, CLIResult{Command: "check", Results: reports}); err != nil {
		return err
	}
	if failed {
		return errReported
	}
	return nil
}

// collectFiles expands directories into their Kotlin sources and returns
// absolute, de-duplicated paths in sorted order.
func collectFiles(e *ksema.Engine, args []string) ([]string, error) {
	seen := make(map[string]bool)
	var files []string
	add := func(p string) {
		if !seen[p] {
			seen[p] = true
			files = append(files, p)
		}
	}
	for _, arg := range args {
		abs, err := filepath.Abs(arg)
		if err != nil {
			return nil, fmt.Errorf("resolving path %q: %w", arg, err)
		}
		info, err := os.Stat(abs)
		if err != nil {
			return nil, fmt.Errorf("path not found: %s", abs)
		}
		if !info.IsDir() {
			if !syntax.IsKotlinFile(abs) {
				return nil, fmt.Errorf("not a Kotlin file: %s", abs)
			}
			add(abs)
			continue
		}
		found, err := e.ListFiles(abs)
		if err != nil {
			return nil, err
		}
		for _, f := range found {
			add(f)
		}
	}
	sort.Strings(files)
	return files, nil
}

// startDir is the directory a path argument is resolved from: the path
// itself for directories, its parent for files.
func startDir(arg string) (string, error) {
	abs, err := filepath.Abs(arg)
	if err != nil {
		return "", fmt.Errorf("resolving path %q: %w", arg, err)
	}
	if info, err := os.Stat(abs); err == nil && !info.IsDir() {
		return filepath.Dir(abs), nil
	}
	return abs, nil
}
