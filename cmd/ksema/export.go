package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jward/ksema/internal/scipexport"
)

func newExportCmd(a *app) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "export [dir]",
		Short: "Write a SCIP index of the Kotlin files under a directory",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runExport(cmd, args, output)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "index.scip", "SCIP output file")
	return cmd
}

func (a *app) runExport(cmd *cobra.Command, args []string, output string) error {
	out, errw := cmd.OutOrStdout(), cmd.ErrOrStderr()
	ctx := cmd.Context()

	root, err := resolveTargetDir(args)
	if err != nil {
		return a.outputError(out, errw, "export", err)
	}
	dbPath, err := a.dbPath(findRepoRoot(root), false)
	if err != nil {
		return a.outputError(out, errw, "export", err)
	}
	engine, err := a.newEngine(dbPath)
	if err != nil {
		return a.outputError(out, errw, "export", err)
	}
	defer engine.Close()

	if err := engine.IndexDirectory(ctx, root); err != nil {
		return a.outputError(out, errw, "export", fmt.Errorf("indexing: %w", err))
	}
	files, err := engine.ListFiles(root)
	if err != nil {
		return a.outputError(out, errw, "export", err)
	}
	analyses, err := engine.AnalyzeFiles(ctx, files)
	if err != nil {
		return a.outputError(out, errw, "export", err)
	}

	sources := make([]scipexport.Source, len(analyses))
	for i, an := range analyses {
		sources[i] = an
	}
	idx, err := scipexport.Index(root, sources)
	if err != nil {
		return a.outputError(out, errw, "export", err)
	}

	dest, err := filepath.Abs(output)
	if err != nil {
		return a.outputError(out, errw, "export", err)
	}
	f, err := os.Create(dest)
	if err != nil {
		return a.outputError(out, errw, "export", fmt.Errorf("creating output: %w", err))
	}
	if err := scipexport.Write(f, idx); err != nil {
		f.Close()
		return a.outputError(out, errw, "export", err)
	}
	if err := f.Close(); err != nil {
		return a.outputError(out, errw, "export", err)
	}
	a.logger.Info("exported SCIP index", "root", root, "output", dest, "documents", len(idx.Documents))

	return a.outputResult(out, CLIResult{
		Command: "export",
		Results: CLIIndexSummary{Root: root, Output: dest, Files: orEmpty(files)},
	})
}
