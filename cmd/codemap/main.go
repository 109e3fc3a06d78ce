package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/jward/codemap"
	"github.com/jward/codemap/internal/config"
	"github.com/spf13/cobra"
)

var (
	flagSnapshot string
	flagFormat   string
	flagConfig   string
	flagVerbose  bool
)

// errorHandled is set by outputError so main() doesn't double-print.
var errorHandled bool

func main() {
	if err := rootCmd.Execute(); err != nil {
		if !errorHandled {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		}
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "codemap",
	Short:         "Build and query a graph of code entities and relations",
	Long:          "Codemap parses Python, JavaScript, TypeScript and Go with tree-sitter into a graph of entities (files, functions, classes, methods, ...) and relations (contains, calls, imports, inherits, implements).",
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return validateFormat(flagFormat)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagSnapshot, "snapshot", "", "snapshot directory (default: snapshot_dir from config, relative to repo root)")
	rootCmd.PersistentFlags().StringVar(&flagFormat, "format", "json", "output format: json|text")
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "config file (default: "+config.FileName+" at repo root)")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "log progress to stderr")

	rootCmd.AddCommand(indexCmd)
	rootCmd.AddCommand(queryCmd)
	rootCmd.AddCommand(resolveCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(scriptCmd)
}

var (
	flagLanguages []string
	flagExclude   []string
	flagParallel  bool
	flagWorkers   int
	flagResolve   bool
	flagForce     bool
)

var indexCmd = &cobra.Command{
	Use:   "index [path]",
	Short: "Index a directory into a graph snapshot and archive",
	Long:  "Discovers supported files (git ls-files when available), extracts entities and relations, and writes the graph snapshot plus a SQLite archive that also keeps deferred calls.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runIndex,
}

func init() {
	indexCmd.Flags().StringSliceVar(&flagLanguages, "languages", nil, "comma-separated language filter (e.g. go,python)")
	indexCmd.Flags().StringSliceVar(&flagExclude, "exclude", nil, "glob patterns of paths to skip, relative to the indexed directory")
	indexCmd.Flags().BoolVar(&flagParallel, "parallel", false, "read and parse files on a worker pool")
	indexCmd.Flags().IntVar(&flagWorkers, "workers", 0, "parallel worker count (0: one per CPU)")
	indexCmd.Flags().BoolVar(&flagResolve, "resolve", false, "resolve deferred calls after indexing")
	indexCmd.Flags().BoolVar(&flagForce, "force", false, "remove the existing snapshot directory first")
}

func runIndex(cmd *cobra.Command, args []string) error {
	start := time.Now()
	ctx := commandContext(cmd)

	targetDir, err := resolveTargetDir(args)
	if err != nil {
		return err
	}
	repoRoot := findRepoRoot(targetDir)
	cfg, err := loadConfig(repoRoot)
	if err != nil {
		return err
	}
	applyIndexFlags(cmd, cfg)

	snapDir := resolveSnapshotDir(repoRoot, cfg)
	if flagForce {
		if err := os.RemoveAll(snapDir); err != nil {
			return fmt.Errorf("removing snapshot for --force: %w", err)
		}
		fmt.Fprintf(os.Stderr, "Cleared snapshot: %s\n", snapDir)
	}

	opts, err := engineOptions(cfg, repoRoot)
	if err != nil {
		return err
	}
	engine, err := codemap.New(opts...)
	if err != nil {
		return fmt.Errorf("creating engine: %w", err)
	}

	extractStart := time.Now()
	if err := engine.IndexDirectory(ctx, targetDir); err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("indexing: %w", err)
		}
		// Per-file failures do not abort the run.
		fmt.Fprintf(os.Stderr, "Warning: %s\n", err)
	}
	extractDuration := time.Since(extractStart)

	resolved := 0
	if cfg.resolve {
		resolved = engine.ResolvePending()
	}

	if err := persist(ctx, engine, snapDir, resolveArchivePath(snapDir, cfg)); err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "Indexed %s in %s (extract: %s, %d files, %d entities, %d edges, %d resolved, %d pending)\n",
		targetDir,
		time.Since(start).Round(time.Millisecond),
		extractDuration.Round(time.Millisecond),
		len(engine.Files()),
		engine.Graph().NodeCount(),
		engine.Graph().EdgeCount(),
		resolved,
		len(engine.Query().PendingCalls()),
	)
	fmt.Fprintf(os.Stderr, "Snapshot: %s\n", snapDir)
	return nil
}

// cliConfig is the loaded config plus the options only the CLI knows.
type cliConfig struct {
	*config.Config
	resolve bool
}

func loadConfig(repoRoot string) (*cliConfig, error) {
	path := flagConfig
	if path == "" {
		path = filepath.Join(repoRoot, config.FileName)
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	return &cliConfig{Config: cfg}, nil
}

// applyIndexFlags overrides config values with the index flags the user
// actually set.
func applyIndexFlags(cmd *cobra.Command, cfg *cliConfig) {
	flags := cmd.Flags()
	if flags.Changed("languages") {
		cfg.Languages = flagLanguages
	}
	if flags.Changed("exclude") {
		cfg.Exclude = append(cfg.Exclude, flagExclude...)
	}
	if flags.Changed("parallel") {
		cfg.Parallel = flagParallel
	}
	if flags.Changed("workers") {
		cfg.Workers = flagWorkers
	}
	cfg.resolve = flagResolve
}

// engineOptions translates configuration into Engine options.
func engineOptions(cfg *cliConfig, repoRoot string) ([]codemap.Option, error) {
	opts := []codemap.Option{
		codemap.WithLogger(newLogger(os.Stderr)),
		codemap.WithParallel(cfg.Parallel),
		codemap.WithWorkers(cfg.Workers),
	}
	if len(cfg.Languages) > 0 {
		opts = append(opts, codemap.WithLanguages(cfg.Languages...))
	}
	if len(cfg.Exclude) > 0 {
		opts = append(opts, codemap.WithExclude(cfg.Exclude...))
	}
	naming, err := cfg.NamingPolicies()
	if err != nil {
		return nil, err
	}
	for lang, policy := range naming {
		opts = append(opts, codemap.WithNaming(lang, policy))
	}
	if cfg.ScriptsDir != "" {
		opts = append(opts, codemap.WithScriptsDir(resolveAgainst(repoRoot, cfg.ScriptsDir)))
	}
	return opts, nil
}

// newLogger returns a text logger on w at debug level with --verbose, and
// a warnings-only logger otherwise.
func newLogger(w io.Writer) *slog.Logger {
	level := slog.LevelWarn
	if flagVerbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// persist writes the snapshot and the archive.
func persist(ctx context.Context, engine *codemap.Engine, snapDir, archivePath string) error {
	if err := engine.Save(ctx, snapDir); err != nil {
		return fmt.Errorf("saving snapshot: %w", err)
	}
	if err := engine.Export(ctx, archivePath); err != nil {
		return fmt.Errorf("writing archive: %w", err)
	}
	return nil
}

// errNoIndex is returned when neither an archive nor a snapshot exists.
var errNoIndex = errors.New("no index found (run 'codemap index' first)")

// openEngine builds an engine from the config at the repo root of the
// working directory and loads the index into it: the archive when present,
// since it also carries deferred calls, otherwise the snapshot.
func openEngine(ctx context.Context, extra ...codemap.Option) (*codemap.Engine, *indexPaths, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, nil, fmt.Errorf("getting cwd: %w", err)
	}
	repoRoot := findRepoRoot(cwd)
	cfg, err := loadConfig(repoRoot)
	if err != nil {
		return nil, nil, err
	}
	opts, err := engineOptions(cfg, repoRoot)
	if err != nil {
		return nil, nil, err
	}
	engine, err := codemap.New(append(opts, extra...)...)
	if err != nil {
		return nil, nil, fmt.Errorf("creating engine: %w", err)
	}

	paths := &indexPaths{snapshot: resolveSnapshotDir(repoRoot, cfg)}
	paths.archive = resolveArchivePath(paths.snapshot, cfg)
	if _, err := os.Stat(paths.archive); err == nil {
		if err := engine.Import(ctx, paths.archive); err != nil {
			return nil, nil, err
		}
		return engine, paths, nil
	}
	if engine.Load(ctx, paths.snapshot) {
		return engine, paths, nil
	}
	return nil, nil, fmt.Errorf("%w: %s", errNoIndex, paths.snapshot)
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// indexPaths locates the persisted index.
type indexPaths struct {
	snapshot string
	archive  string
}

// resolveTargetDir returns the absolute path of the directory to index.
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

// resolveSnapshotDir returns the snapshot directory from --snapshot or the
// config, relative to the repo root.
func resolveSnapshotDir(repoRoot string, cfg *cliConfig) string {
	if flagSnapshot != "" {
		return resolveAgainst(repoRoot, flagSnapshot)
	}
	return resolveAgainst(repoRoot, cfg.SnapshotDir)
}

// resolveArchivePath places the archive inside the snapshot directory
// unless the config names an absolute path.
func resolveArchivePath(snapDir string, cfg *cliConfig) string {
	return resolveAgainst(snapDir, cfg.Database)
}

func resolveAgainst(base, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(base, path)
}
