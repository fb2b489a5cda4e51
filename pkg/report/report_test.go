package report

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ritzau/coupling-analyzer/pkg/coupling"
	"github.com/ritzau/coupling-analyzer/pkg/graph"
)

func sampleMatrix(t *testing.T) *coupling.Matrix {
	t.Helper()
	m := coupling.NewMatrix([]string{"A", "B"})
	for _, cell := range [][2]string{{"A", "B"}, {"A", "B"}, {"B", "A"}, {"A", "A"}} {
		if err := m.Increment(cell[0], cell[1]); err != nil {
			t.Fatal(err)
		}
	}
	return m
}

func TestRender(t *testing.T) {
	m := sampleMatrix(t)

	var buf bytes.Buffer
	err := Render(&buf, Report{
		Project:   "shop",
		GraphFile: "class-call-output.json",
		Matrix:    m,
		Table:     m.Finalize(),
	})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}

	out := buf.String()
	for _, want := range []string{
		"# Class coupling analysis of shop",
		"## ClassCall Json graph",
		"> written in `class-call-output.json`",
		"## Class coupling matrix",
		"## Strongest couplings",
		"1. `A` / `B` 3",
		"2. `A` (self) 1",
		"## Directed call counts",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("report missing %q:\n%s", want, out)
		}
	}
}

func TestRenderWithoutTable(t *testing.T) {
	if err := Render(&bytes.Buffer{}, Report{}); err == nil {
		t.Error("Expected error without a table")
	}
}

func TestTable(t *testing.T) {
	out := Table([]string{"A", "B"}, [][]int{{0, 3}, {3, 1}})

	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 4 {
		t.Fatalf("Expected header, separator and 2 rows, got %d lines:\n%s", len(lines), out)
	}
	if !strings.Contains(lines[1], "---") {
		t.Errorf("Expected markdown separator, got %q", lines[1])
	}
	for i, want := range []string{"A", "B"} {
		row := lines[i+2]
		if !strings.HasPrefix(strings.TrimSpace(row), "|") || !strings.Contains(row, want) {
			t.Errorf("row %d = %q", i, row)
		}
	}
	if !strings.Contains(lines[2], "3") {
		t.Errorf("Expected coupling value in row A: %q", lines[2])
	}
}

func TestWriteGraph(t *testing.T) {
	b := graph.NewBuilder()
	a, _ := b.AddCaller("A")
	_, _ = b.AddCallee(a, "B")

	path := filepath.Join(t.TempDir(), "graph.json")
	if err := WriteGraph(path, graph.NewDocument(b.Graph())); err != nil {
		t.Fatalf("WriteGraph: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var doc graph.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(doc.Nodes) != 2 || len(doc.Links) != 1 {
		t.Errorf("Expected 2 nodes and 1 link, got %+v", doc)
	}
}

func TestWriteMarkdown(t *testing.T) {
	m := sampleMatrix(t)
	path := filepath.Join(t.TempDir(), "results.md")

	if err := WriteMarkdown(path, Report{Matrix: m, Table: m.Finalize()}); err != nil {
		t.Fatalf("WriteMarkdown: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), "# Class coupling analysis\n") {
		t.Errorf("Unexpected report start: %q", string(data)[:40])
	}
}
