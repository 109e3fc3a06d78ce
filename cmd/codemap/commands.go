package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jward/codemap"
	"github.com/jward/codemap/scripts"
	"github.com/spf13/cobra"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve",
	Short: "Retry deferred calls against the whole index",
	Long:  "Indexing records calls whose callee was not known yet. This pass turns the ones that now resolve to a unique entity into calls edges and saves the index.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := commandContext(cmd)
		engine, paths, err := openEngine(ctx)
		if err != nil {
			return outputError("resolve", err)
		}
		resolved := engine.ResolvePending()
		if err := persist(ctx, engine, paths.snapshot, paths.archive); err != nil {
			return outputError("resolve", err)
		}
		return outputResult(CLIResult{Command: "resolve", Results: CLIResolve{
			Resolved:  resolved,
			Remaining: len(engine.Query().PendingCalls()),
		}})
	},
}

var exportCmd = &cobra.Command{
	Use:   "export <db>",
	Short: "Write the index to a standalone SQLite archive",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := commandContext(cmd)
		engine, _, err := openEngine(ctx)
		if err != nil {
			return outputError("export", err)
		}
		dbPath, err := resolveFilePath(args[0])
		if err != nil {
			return outputError("export", err)
		}
		if err := engine.Export(ctx, dbPath); err != nil {
			return outputError("export", err)
		}
		return outputResult(CLIResult{Command: "export", Results: archiveResult(dbPath, engine)})
	},
}

var importCmd = &cobra.Command{
	Use:   "import <db>",
	Short: "Replace the index with the contents of a SQLite archive",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := commandContext(cmd)
		dbPath, err := resolveFilePath(args[0])
		if err != nil {
			return outputError("import", err)
		}
		cwd, err := os.Getwd()
		if err != nil {
			return outputError("import", err)
		}
		repoRoot := findRepoRoot(cwd)
		cfg, err := loadConfig(repoRoot)
		if err != nil {
			return outputError("import", err)
		}
		opts, err := engineOptions(cfg, repoRoot)
		if err != nil {
			return outputError("import", err)
		}
		engine, err := codemap.New(opts...)
		if err != nil {
			return outputError("import", err)
		}
		if err := engine.Import(ctx, dbPath); err != nil {
			return outputError("import", err)
		}
		snapDir := resolveSnapshotDir(repoRoot, cfg)
		if err := persist(ctx, engine, snapDir, resolveArchivePath(snapDir, cfg)); err != nil {
			return outputError("import", err)
		}
		return outputResult(CLIResult{Command: "import", Results: archiveResult(dbPath, engine)})
	},
}

func archiveResult(path string, engine *codemap.Engine) CLIArchive {
	return CLIArchive{
		Path:     path,
		Entities: engine.Graph().NodeCount(),
		Edges:    engine.Graph().EdgeCount(),
		Pending:  len(engine.Query().PendingCalls()),
	}
}

var (
	flagScriptArgs []string
	flagEval       string
	flagScriptsDir string
)

var scriptCmd = &cobra.Command{
	Use:   "script [name|path]",
	Short: "Run a Risor script against the index",
	Long: "Runs a Risor script with the graph host functions (query_symbol, enclosing, node, out_edges, in_edges, nodes, pending_calls) and prints the value of its last expression. " +
		"A path to an existing file runs that file; any other name is looked up in --scripts-dir, then among the bundled scripts. " +
		"--arg key=value pairs are visible to the script as the args map.",
	Args: cobra.MaximumNArgs(1),
	RunE: runScript,
}

func init() {
	scriptCmd.Flags().StringArrayVar(&flagScriptArgs, "arg", nil, "key=value passed to the script in args (repeatable)")
	scriptCmd.Flags().StringVar(&flagEval, "eval", "", "evaluate this source instead of a script file")
	scriptCmd.Flags().StringVar(&flagScriptsDir, "scripts-dir", "", "directory scripts and their imports load from")
}

func runScript(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)
	if (len(args) == 0) == (flagEval == "") {
		return outputError("script", fmt.Errorf("give either a script name or --eval"))
	}
	scriptArgs, err := parseScriptArgs(flagScriptArgs)
	if err != nil {
		return outputError("script", err)
	}

	name := ""
	var opts []codemap.Option
	if len(args) == 1 {
		var opt codemap.Option
		name, opt = locateScript(args[0], flagScriptsDir)
		opts = append(opts, opt)
	}

	engine, _, err := openEngine(ctx, opts...)
	if err != nil {
		return outputError("script", err)
	}
	globals := map[string]any{"args": scriptArgs}

	var result any
	if flagEval != "" {
		result, err = engine.RunSource(ctx, flagEval, globals)
	} else {
		result, err = engine.RunScript(ctx, name, globals)
	}
	if err != nil {
		return outputError("script", err)
	}
	return outputResult(CLIResult{Command: "script", Results: result})
}

// locateScript decides where a script is loaded from and returns its name
// relative to that source.
func locateScript(arg, scriptsDir string) (string, codemap.Option) {
	if info, err := os.Stat(arg); err == nil && !info.IsDir() {
		abs, err := filepath.Abs(arg)
		if err == nil {
			return filepath.Base(abs), codemap.WithScriptsDir(filepath.Dir(abs))
		}
	}
	name := arg
	if filepath.Ext(name) == "" {
		name += ".risor"
	}
	if scriptsDir != "" {
		if _, err := os.Stat(filepath.Join(scriptsDir, name)); err == nil {
			return name, codemap.WithScriptsDir(scriptsDir)
		}
	}
	return name, codemap.WithScriptsFS(scripts.FS)
}

// parseScriptArgs turns key=value pairs into the args map.
func parseScriptArgs(pairs []string) (map[string]any, error) {
	out := make(map[string]any, len(pairs))
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid --arg %q: want key=value", p)
		}
		out[k] = v
	}
	return out, nil
}
