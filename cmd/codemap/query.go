package main

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/jward/codemap"
	"github.com/spf13/cobra"
)

var (
	flagDepth      int
	flagTop        int
	flagSearchKind []string
	flagSearchFile string
)

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Query the indexed graph",
	Long:  "Run queries against an indexed codebase. Lines are 1-based. Entity ids are <file>:<name>; a relative file part is resolved against the working directory.",
}

func init() {
	callersCmd.Flags().IntVar(&flagDepth, "depth", 0, "follow callers transitively up to this depth (0: direct callers only)")
	calleesCmd.Flags().IntVar(&flagDepth, "depth", 0, "follow callees transitively up to this depth (0: direct callees only)")
	summaryCmd.Flags().IntVar(&flagTop, "top", 10, "number of most-called entities to list")
	searchCmd.Flags().StringSliceVar(&flagSearchKind, "kind", nil, "only entities of these kinds")
	searchCmd.Flags().StringVar(&flagSearchFile, "file", "", "only entities declared in this file")

	queryCmd.AddCommand(enclosingCmd)
	queryCmd.AddCommand(symbolCmd)
	queryCmd.AddCommand(locateCmd)
	queryCmd.AddCommand(childrenCmd)
	queryCmd.AddCommand(callersCmd)
	queryCmd.AddCommand(calleesCmd)
	queryCmd.AddCommand(parentsCmd)
	queryCmd.AddCommand(subtypesCmd)
	queryCmd.AddCommand(hierarchyCmd)
	queryCmd.AddCommand(depsCmd)
	queryCmd.AddCommand(dependentsCmd)
	queryCmd.AddCommand(pendingCmd)
	queryCmd.AddCommand(searchCmd)
	queryCmd.AddCommand(summaryCmd)
}

// --- Helpers ---

// resolveFilePath converts a file argument to an absolute path.
func resolveFilePath(file string) (string, error) {
	if filepath.IsAbs(file) {
		return file, nil
	}
	abs, err := filepath.Abs(file)
	if err != nil {
		return "", fmt.Errorf("resolving file path %q: %w", file, err)
	}
	return abs, nil
}

// resolveID returns id as stored in the graph. Ids are taken verbatim when
// they exist; otherwise a relative file part is made absolute.
func resolveID(q *codemap.QueryBuilder, id string) (string, error) {
	if q.Node(id) != nil {
		return id, nil
	}
	file, rest, hasRest := strings.Cut(id, ":")
	abs, err := resolveFilePath(file)
	if err != nil {
		return "", err
	}
	candidate := abs
	if hasRest {
		candidate += ":" + rest
	}
	if q.Node(candidate) == nil {
		return "", fmt.Errorf("no entity with id %q", id)
	}
	return candidate, nil
}

// parseIntArg parses a positional argument as a positive line number.
func parseIntArg(value, name string) (int, error) {
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: must be an integer", name, value)
	}
	if n < 1 {
		return 0, fmt.Errorf("invalid %s %q: must be at least 1", name, value)
	}
	return n, nil
}

// runQuery opens the index and hands its query builder to fn, writing
// whatever fn returns as the command's result.
func runQuery(cmd *cobra.Command, command string, fn func(q *codemap.QueryBuilder) (any, error)) error {
	engine, _, err := openEngine(commandContext(cmd))
	if err != nil {
		return outputError(command, err)
	}
	results, err := fn(engine.Query())
	if err != nil {
		return outputError(command, err)
	}
	return outputResult(CLIResult{Command: command, Results: results})
}

// idCommand builds a query command taking a single entity id.
func idCommand(use, short string, fn func(q *codemap.QueryBuilder, id string) (any, error)) *cobra.Command {
	name := strings.Fields(use)[0]
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(cmd, name, func(q *codemap.QueryBuilder) (any, error) {
				id, err := resolveID(q, args[0])
				if err != nil {
					return nil, err
				}
				return fn(q, id)
			})
		},
	}
}

// --- Position and name lookup ---

var enclosingCmd = &cobra.Command{
	Use:   "enclosing <file> <line>",
	Short: "Find the innermost entity containing a line",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runQuery(cmd, "enclosing", func(q *codemap.QueryBuilder) (any, error) {
			file, err := resolveFilePath(args[0])
			if err != nil {
				return nil, err
			}
			line, err := parseIntArg(args[1], "line")
			if err != nil {
				return nil, err
			}
			e := q.EnclosingEntity(file, line)
			if e == nil {
				return nil, nil
			}
			return entityToCLI(e, q), nil
		})
	},
}

var symbolCmd = &cobra.Command{
	Use:   "symbol <name> [file]",
	Short: "Look a name up, in file first when given",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runQuery(cmd, "symbol", func(q *codemap.QueryBuilder) (any, error) {
			file := ""
			if len(args) == 2 {
				var err error
				if file, err = resolveFilePath(args[1]); err != nil {
					return nil, err
				}
			}
			e := q.Symbol(args[0], file)
			if e == nil {
				return nil, nil
			}
			return entityToCLI(e, q), nil
		})
	},
}

var locateCmd = idCommand("locate <id>", "Show an entity and where it is declared",
	func(q *codemap.QueryBuilder, id string) (any, error) {
		return entityToCLI(q.Node(id), q), nil
	})

// --- Relations ---

var childrenCmd = idCommand("children <id>", "List the entities an entity contains",
	func(q *codemap.QueryBuilder, id string) (any, error) {
		return entitiesToCLI(q.Children(id), q), nil
	})

var callersCmd = idCommand("callers <id>", "List the entities calling an entity",
	func(q *codemap.QueryBuilder, id string) (any, error) {
		if flagDepth > 0 {
			cg, err := q.TransitiveCallers(id, flagDepth)
			if err != nil {
				return nil, err
			}
			return callGraphToCLI(cg, q), nil
		}
		return entitiesToCLI(q.Callers(id), q), nil
	})

var calleesCmd = idCommand("callees <id>", "List the entities an entity calls",
	func(q *codemap.QueryBuilder, id string) (any, error) {
		if flagDepth > 0 {
			cg, err := q.TransitiveCallees(id, flagDepth)
			if err != nil {
				return nil, err
			}
			return callGraphToCLI(cg, q), nil
		}
		return entitiesToCLI(q.Callees(id), q), nil
	})

var parentsCmd = idCommand("parents <id>", "List the types an entity inherits from or implements",
	func(q *codemap.QueryBuilder, id string) (any, error) {
		return entitiesToCLI(q.Parents(id), q), nil
	})

var subtypesCmd = idCommand("subtypes <id>", "List the types inheriting from or implementing an entity",
	func(q *codemap.QueryBuilder, id string) (any, error) {
		return entitiesToCLI(q.Subtypes(id), q), nil
	})

var hierarchyCmd = idCommand("hierarchy <id>", "Show the direct type hierarchy of an entity",
	func(q *codemap.QueryBuilder, id string) (any, error) {
		return hierarchyToCLI(q.TypeHierarchy(id), q), nil
	})

var depsCmd = &cobra.Command{
	Use:   "deps <file>",
	Short: "List the modules a file imports",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runQuery(cmd, "deps", func(q *codemap.QueryBuilder) (any, error) {
			file, err := resolveFilePath(args[0])
			if err != nil {
				return nil, err
			}
			return nonNil(q.Dependencies(file)), nil
		})
	},
}

var dependentsCmd = &cobra.Command{
	Use:   "dependents <module>",
	Short: "List the files importing a module",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runQuery(cmd, "dependents", func(q *codemap.QueryBuilder) (any, error) {
			return nonNil(q.Dependents(args[0])), nil
		})
	},
}

var pendingCmd = &cobra.Command{
	Use:   "pending",
	Short: "List deferred calls still waiting for a callee",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runQuery(cmd, "pending", func(q *codemap.QueryBuilder) (any, error) {
			return pendingToCLI(q.PendingCalls()), nil
		})
	},
}

// --- Discovery ---

var searchCmd = &cobra.Command{
	Use:   "search <pattern>",
	Short: "Find entities whose name matches a glob pattern",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runQuery(cmd, "search", func(q *codemap.QueryBuilder) (any, error) {
			var filter codemap.SymbolFilter
			for _, k := range flagSearchKind {
				filter.Kinds = append(filter.Kinds, codemap.Kind(k))
			}
			if flagSearchFile != "" {
				file, err := resolveFilePath(flagSearchFile)
				if err != nil {
					return nil, err
				}
				filter.File = file
			}
			found, err := q.SearchSymbols(args[0], filter)
			if err != nil {
				return nil, err
			}
			return entitiesToCLI(found, q), nil
		})
	},
}

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Count files, entities and edges and list the most-called entities",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runQuery(cmd, "summary", func(q *codemap.QueryBuilder) (any, error) {
			return summaryToCLI(q.Summary(flagTop), q), nil
		})
	},
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
