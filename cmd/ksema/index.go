package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

func newIndexCmd(a *app) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "index [dir]",
		Short: "Index the Kotlin files under a directory",
		Long: "Walks dir (default: the working directory), records the declarations of every " +
			"changed Kotlin file in the database and drops files that no longer exist.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runIndex(cmd, args, force)
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "delete the database and reindex from scratch")
	return cmd
}

func (a *app) runIndex(cmd *cobra.Command, args []string, force bool) error {
	out, errw := cmd.OutOrStdout(), cmd.ErrOrStderr()

	root, err := resolveTargetDir(args)
	if err != nil {
		return a.outputError(out, errw, "index", err)
	}
	dbPath, err := a.dbPath(findRepoRoot(root), true)
	if err != nil {
		return a.outputError(out, errw, "index", err)
	}
	if force && dbPath != ":memory:" {
		if err := os.Remove(dbPath); err != nil && !os.IsNotExist(err) {
			return a.outputError(out, errw, "index", fmt.Errorf("removing database for --force: %w", err))
		}
	}

	engine, err := a.newEngine(dbPath)
	if err != nil {
		return a.outputError(out, errw, "index", err)
	}
	defer engine.Close()

	start := time.Now()
	if err := engine.IndexDirectory(cmd.Context(), root); err != nil {
		return a.outputError(out, errw, "index", fmt.Errorf("indexing: %w", err))
	}
	files, err := engine.IndexedFiles()
	if err != nil {
		return a.outputError(out, errw, "index", err)
	}
	fmt.Fprintf(errw, "Indexed %s in %s\n", root, time.Since(start).Round(time.Millisecond))

	return a.outputResult(out, CLIResult{
		Command: "index",
		Results: CLIIndexSummary{Root: root, Database: dbPath, Files: orEmpty(files)},
	})
}

func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
