package output

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/ritzau/coupling-analyzer/pkg/coupling"
)

// Summary is the data shown after a single analysis run
type Summary struct {
	Project     string
	Types       int
	Methods     int
	Invocations int
	Nodes       int // Call graph nodes
	OwnNodes    int // Nodes declared in the project
	Links       int
	Pairs       []coupling.Pair
	Dropped     int
	Written     []string // Artifacts written to disk
}

// PrintSummary prints a nicely formatted analysis summary with colors
func PrintSummary(w io.Writer, s Summary, top int) {
	// Color definitions
	bold := color.New(color.Bold)
	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)
	cyan := color.New(color.FgCyan)

	// Header
	bold.Fprintln(w, "Class Coupling Analyzer - Summary")
	bold.Fprintln(w, "=================================")
	if s.Project != "" {
		fmt.Fprintf(w, "Project: %s\n", s.Project)
	}
	fmt.Fprintf(w, "Scanned: %d types, %d methods, %d invocations\n", s.Types, s.Methods, s.Invocations)
	fmt.Fprintf(w, "Call graph: %d nodes (%d in project), %d links\n", s.Nodes, s.OwnNodes, s.Links)
	fmt.Fprintln(w)

	if len(s.Pairs) == 0 {
		green.Fprintln(w, "No coupling between project types")
	} else {
		bold.Fprintln(w, "STRONGEST COUPLINGS:")
		pairs := s.Pairs
		if top > 0 && len(pairs) > top {
			pairs = pairs[:top]
		}
		for _, p := range pairs {
			if p.A == p.B {
				cyan.Fprintf(w, "  %s (self)", p.A)
			} else {
				cyan.Fprintf(w, "  %s <-> %s", p.A, p.B)
			}
			fmt.Fprintf(w, "  %d\n", p.Strength)
		}
	}
	fmt.Fprintln(w)

	if s.Dropped > 0 {
		yellow.Fprintf(w, "Skipped: %d call(s) to types outside the project\n", s.Dropped)
	}
	for _, path := range s.Written {
		green.Fprintf(w, "✓ Wrote %s\n", path)
	}
}
