package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jward/ksema"
	"github.com/jward/ksema/internal/config"
	"github.com/jward/ksema/internal/slogutil"
)

// errReported is returned when the command already wrote its failure, such
// as check finding error diagnostics, so main() exits without printing.
var errReported = errors.New("reported")

func main() {
	if err := newRootCmd().Execute(); err != nil {
		if !errors.Is(err, errReported) {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		}
		os.Exit(1)
	}
}

// app carries the resolved settings shared by every subcommand.
type app struct {
	configPath string
	db         string
	format     string
	logLevel   string

	cfg    *config.Config
	logger *slog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "ksema",
		Short:         "Semantic analysis for Kotlin sources",
		Long:          "ksema resolves names, infers types and reports diagnostics for Kotlin files, using a SQLite index of the project's declarations.",
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load(cmd)
		},
		// No Run, prints help by default.
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "config file (default: ksema.yaml in the working directory)")
	root.PersistentFlags().StringVar(&a.db, "db", "", "database path (default: .ksema/index.db relative to repo root)")
	root.PersistentFlags().StringVar(&a.format, "format", "", "output format: json|text")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level: debug|info|warn|error")

	root.AddCommand(newCheckCmd(a), newOutlineCmd(a), newIndexCmd(a), newExportCmd(a))
	return root
}

// load merges the config file, environment and flags, flags winning.
func (a *app) load(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.format != "" {
		cfg.Format = a.format
	}
	if a.logLevel != "" {
		cfg.LogLevel = a.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = slogutil.NewLogger(cmd.ErrOrStderr(), slogutil.ParseLevel(cfg.LogLevel))
	if cfg.File != "" {
		a.logger.Debug("config loaded", "file", cfg.File)
	}
	return nil
}

// newEngine opens an Engine backed by dbPath with the configured indexes
// and rules.
func (a *app) newEngine(dbPath string) (*ksema.Engine, error) {
	opts := []ksema.Option{
		ksema.WithDatabase(dbPath),
		ksema.WithLogger(a.logger),
		ksema.WithParallel(a.cfg.Parallel),
		ksema.WithExclude(a.cfg.Exclude...),
	}
	if a.cfg.StdlibIndex != "" {
		opts = append(opts, ksema.WithStdlibFile(a.cfg.StdlibIndex))
	}
	if len(a.cfg.ClasspathIndex) > 0 {
		opts = append(opts, ksema.WithClasspathFiles(a.cfg.ClasspathIndex...))
	}
	if a.cfg.RulesDir != "" {
		opts = append(opts, ksema.WithRules(a.cfg.RulesDir))
	}
	e, err := ksema.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("creating engine: %w", err)
	}
	return e, nil
}

// dbPath returns the database for a command run under repoRoot: the --db
// flag, then a database named in config, then .ksema/index.db under the repo
// root. With create false the default is only used when it already exists,
// otherwise an in-memory database is used.
func (a *app) dbPath(repoRoot string, create bool) (string, error) {
	db := a.db
	if db == "" && a.cfg.Database != config.Default().Database {
		db = a.cfg.Database
	}
	if db != "" {
		if db == ":memory:" || filepath.IsAbs(db) {
			return db, nil
		}
		return filepath.Join(repoRoot, db), nil
	}

	def := filepath.Join(repoRoot, ".ksema", "index.db")
	if !create {
		if _, err := os.Stat(def); err != nil {
			return ":memory:", nil
		}
		return def, nil
	}
	if err := os.MkdirAll(filepath.Dir(def), 0o755); err != nil {
		return "", fmt.Errorf("creating %s: %w", filepath.Dir(def), err)
	}
	return def, nil
}

// resolveTargetDir returns the absolute path of the directory to process.
func resolveTargetDir(args []string) (string, error) {
	dir := "."
	if len(args) > 0 {
		dir = args[0]
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolving path %q: %w", dir, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("directory not found: %s", abs)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("not a directory: %s", abs)
	}
	return abs, nil
}

// findRepoRoot walks up from startDir looking for a .git directory.
// Returns the directory containing .git, or startDir if not found.
func findRepoRoot(startDir string) string {
	dir := startDir
	for {
		if info, err := os.Stat(filepath.Join(dir, ".git")); err == nil && info.IsDir() {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return startDir
		}
		dir = parent
	}
}
