package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
)

// stdout is where results are written. Tests swap it for a buffer.
var stdout io.Writer = os.Stdout

// formatEntitiesText formats entities as aligned columns.
func formatEntitiesText(w io.Writer, entities []CLIEntity) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tKIND\tNAME\tLINES")
	for _, e := range entities {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d-%d\n", e.ID, e.Kind, e.Name, e.StartLine, e.EndLine)
	}
	tw.Flush()
}

// formatCallGraphText indents each node by its depth.
func formatCallGraphText(w io.Writer, cg CLICallGraph) {
	for _, n := range cg.Nodes {
		fmt.Fprintf(w, "%s%s (%s)\n", strings.Repeat("  ", n.Depth), n.Entity.ID, n.Entity.Kind)
	}
	fmt.Fprintf(w, "\n%d nodes, %d edges, depth %d\n", len(cg.Nodes), len(cg.Edges), cg.Depth)
}

func formatHierarchyText(w io.Writer, h CLIHierarchy) {
	fmt.Fprintf(w, "%s (%s)\n", h.Entity.ID, h.Entity.Kind)
	sections := []struct {
		title    string
		entities []CLIEntity
	}{
		{"Extends", h.Extends},
		{"Implements", h.Implements},
		{"Extended by", h.ExtendedBy},
		{"Implemented by", h.ImplementedBy},
	}
	for _, s := range sections {
		if len(s.entities) == 0 {
			continue
		}
		fmt.Fprintf(w, "%s:\n", s.title)
		for _, e := range s.entities {
			fmt.Fprintf(w, "  %s\n", e.ID)
		}
	}
}

func formatPendingText(w io.Writer, pending []CLIPendingCall) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SOURCE\tCALLEE")
	for _, pc := range pending {
		fmt.Fprintf(tw, "%s\t%s\n", pc.Source, pc.Callee)
	}
	tw.Flush()
}

func formatSummaryText(w io.Writer, s CLISummary) {
	fmt.Fprintln(w, "Graph Summary")
	fmt.Fprintln(w, "=============")
	fmt.Fprintf(w, "Files: %d\n", s.Files)
	fmt.Fprintf(w, "Entities: %d\n", s.Entities)
	fmt.Fprintf(w, "Edges: %d\n", s.Edges)
	fmt.Fprintf(w, "Pending calls: %d\n", s.PendingCalls)

	if len(s.Kinds) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Kinds:")
		for _, kc := range s.Kinds {
			fmt.Fprintf(w, "  %s: %d\n", kc.Kind, kc.Count)
		}
	}
	if len(s.TopCalled) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Most called:")
		for _, e := range s.TopCalled {
			fmt.Fprintf(w, "  %s (%s)\n", e.ID, e.Kind)
		}
	}
}

// outputResultText dispatches to the text formatter for the result type.
func outputResultText(w io.Writer, result CLIResult) error {
	switch v := result.Results.(type) {
	case []CLIEntity:
		formatEntitiesText(w, v)
	case CLIEntity:
		formatEntitiesText(w, []CLIEntity{v})
	case CLICallGraph:
		formatCallGraphText(w, v)
	case CLIHierarchy:
		formatHierarchyText(w, v)
	case []CLIPendingCall:
		formatPendingText(w, v)
	case CLISummary:
		formatSummaryText(w, v)
	case []string:
		for _, s := range v {
			fmt.Fprintln(w, s)
		}
	case CLIResolve:
		fmt.Fprintf(w, "Resolved %d deferred call(s), %d remaining\n", v.Resolved, v.Remaining)
	case CLIArchive:
		fmt.Fprintf(w, "%s: %d entities, %d edges, %d pending\n", v.Path, v.Entities, v.Edges, v.Pending)
	case nil:
		// No output for nil results (e.g., enclosing with no match).
	default:
		// Script results and other free-form values.
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return fmt.Errorf("unsupported result type for text format: %T", v)
		}
		fmt.Fprintln(w, string(data))
	}
	return nil
}

// outputResult writes a CLIResult in the selected format.
func outputResult(result CLIResult) error {
	if flagFormat == "text" {
		return outputResultText(stdout, result)
	}
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

// outputError writes an error in the selected format and returns it so RunE
// can propagate it to Cobra. In JSON mode the error is written to stdout as a
// CLIResult envelope. In text mode it goes to stderr.
func outputError(command string, err error) error {
	errorHandled = true
	if flagFormat == "text" {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		return err
	}
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(CLIResult{Command: command, Error: err.Error()})
	return err
}

// validFormats lists accepted values for --format.
var validFormats = []string{"json", "text"}

// validateFormat checks that the --format flag value is recognized.
func validateFormat(format string) error {
	for _, f := range validFormats {
		if format == f {
			return nil
		}
	}
	return fmt.Errorf("invalid format %q: must be %s", format, strings.Join(validFormats, " or "))
}
