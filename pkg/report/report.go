package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/ritzau/coupling-analyzer/pkg/coupling"
	"github.com/ritzau/coupling-analyzer/pkg/graph"
)

// Report is everything rendered into the markdown document
type Report struct {
	Project   string
	GraphFile string // Name of the written call graph artifact, empty if none
	Matrix    *coupling.Matrix
	Table     *coupling.Table
	TopPairs  int // Number of strongest pairs listed, 0 for all
}

// WriteGraph writes the call graph document as indented JSON
func WriteGraph(path string, doc graph.Document) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding call graph: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("writing call graph: %w", err)
	}
	return nil
}

// WriteMarkdown renders the report into the file at path
func WriteMarkdown(path string, r Report) error {
	var buf bytes.Buffer
	if err := Render(&buf, r); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	return nil
}

// Render writes the markdown report
func Render(w io.Writer, r Report) error {
	if r.Table == nil {
		return fmt.Errorf("report has no coupling table")
	}

	md := &writer{w: w}

	title := "Class coupling analysis"
	if r.Project != "" {
		title += " of " + r.Project
	}
	md.printf("# %s\n\n", title)

	if r.GraphFile != "" {
		md.printf("## ClassCall Json graph\n\n")
		md.printf("> written in `%s`\n\n", r.GraphFile)
	}

	md.printf("## Class coupling matrix\n\n")
	labels := r.Table.Labels()
	if len(labels) == 0 {
		md.printf("_No types._\n\n")
	} else {
		md.printf("%s\n\n", Table(labels, r.Table.Rows()))
	}

	md.printf("## Strongest couplings\n\n")
	pairs := r.Table.Pairs()
	if r.TopPairs > 0 && len(pairs) > r.TopPairs {
		pairs = pairs[:r.TopPairs]
	}
	if len(pairs) == 0 {
		md.printf("_No coupling between types._\n\n")
	}
	for i, p := range pairs {
		if p.A == p.B {
			md.printf("%d. `%s` (self) %d\n", i+1, p.A, p.Strength)
		} else {
			md.printf("%d. `%s` / `%s` %d\n", i+1, p.A, p.B, p.Strength)
		}
	}
	if len(pairs) > 0 {
		md.printf("\n")
	}

	if r.Matrix != nil && r.Matrix.Size() > 0 {
		md.printf("## Directed call counts\n\n")
		md.printf("> rows call columns\n\n")
		md.printf("%s\n\n", Table(r.Matrix.Labels(), directedRows(r.Matrix)))
		if n := r.Matrix.Dropped(); n > 0 {
			md.printf("> %d call(s) to types outside the analyzed set were not counted\n\n", n)
		}
	}

	return md.err
}

// Table renders a square labelled matrix as a markdown table
func Table(labels []string, rows [][]int) string {
	headers := append([]string{""}, labels...)

	t := table.New().
		Border(lipgloss.MarkdownBorder()).
		BorderTop(false).
		BorderBottom(false).
		StyleFunc(func(row, col int) lipgloss.Style {
			return lipgloss.NewStyle().Padding(0, 1)
		}).
		Headers(headers...)

	for i, row := range rows {
		cells := make([]string, 0, len(row)+1)
		cells = append(cells, labels[i])
		for _, v := range row {
			cells = append(cells, strconv.Itoa(v))
		}
		t.Row(cells...)
	}

	return t.Render()
}

func directedRows(m *coupling.Matrix) [][]int {
	labels := m.Labels()
	rows := make([][]int, len(labels))
	for i, row := range labels {
		rows[i] = make([]int, len(labels))
		for j, col := range labels {
			rows[i][j] = m.Count(row, col)
		}
	}
	return rows
}

// writer keeps the first write error
type writer struct {
	w   io.Writer
	err error
}

func (m *writer) printf(format string, args ...any) {
	if m.err != nil {
		return
	}
	_, m.err = fmt.Fprintf(m.w, format, args...)
}
