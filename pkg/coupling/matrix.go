// Package coupling counts method invocations between pairs of types.
package coupling

import (
	"errors"
	"fmt"
	"sync"

	"gonum.org/v1/gonum/mat"
)

// ErrOutOfSetLabel is returned when a count targets a label that is not part
// of the matrix label set.
var ErrOutOfSetLabel = errors.New("label not in matrix")

// Matrix holds directed invocation counts: row = invoking type, column = invoked type
type Matrix struct {
	mu      sync.Mutex
	labels  []string
	index   map[string]int
	counts  *mat.Dense
	dropped int
}

// NewMatrix creates a matrix over the given ordered labels with all cells at 0.
// Repeated labels keep their first position.
func NewMatrix(labels []string) *Matrix {
	m := &Matrix{index: make(map[string]int, len(labels))}
	for _, label := range labels {
		if _, exists := m.index[label]; exists {
			continue
		}
		m.index[label] = len(m.labels)
		m.labels = append(m.labels, label)
	}
	m.counts = newSquare(len(m.labels))
	return m
}

// newSquare returns an n x n zero matrix; gonum rejects zero-sized dense matrices
func newSquare(n int) *mat.Dense {
	if n == 0 {
		return &mat.Dense{}
	}
	return mat.NewDense(n, n, nil)
}

// Labels returns the ordered label set
func (m *Matrix) Labels() []string {
	labels := make([]string, len(m.labels))
	copy(labels, m.labels)
	return labels
}

// Size returns the number of labels
func (m *Matrix) Size() int {
	return len(m.labels)
}

// Has reports whether label is part of the label set
func (m *Matrix) Has(label string) bool {
	_, ok := m.index[label]
	return ok
}

// Increment adds 1 to the directed cell (row, col)
func (m *Matrix) Increment(row, col string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	i, ok := m.index[row]
	if !ok {
		return fmt.Errorf("%w: row %q", ErrOutOfSetLabel, row)
	}
	j, ok := m.index[col]
	if !ok {
		return fmt.Errorf("%w: column %q", ErrOutOfSetLabel, col)
	}

	m.counts.Set(i, j, m.counts.At(i, j)+1)
	return nil
}

// AddLabel appends a label, growing the matrix by one row and one column.
// Existing counts are kept. Adding a known label is a no-op.
func (m *Matrix) AddLabel(label string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.index[label]; exists {
		return
	}

	n := len(m.labels)
	grown := newSquare(n + 1)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			grown.Set(i, j, m.counts.At(i, j))
		}
	}

	m.index[label] = n
	m.labels = append(m.labels, label)
	m.counts = grown
}

// drop records a count that was skipped because of an out-of-set label
func (m *Matrix) drop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dropped++
}

// Dropped returns the number of counts skipped because a label was out of set
func (m *Matrix) Dropped() int {
	return m.dropped
}

// Count returns the directed count for (row, col), 0 for unknown labels
func (m *Matrix) Count(row, col string) int {
	i, ok := m.index[row]
	if !ok {
		return 0
	}
	j, ok := m.index[col]
	if !ok {
		return 0
	}
	return int(m.counts.At(i, j))
}

// Raw returns a read-only view of the directed counts, indexed like Labels
func (m *Matrix) Raw() mat.Matrix {
	if len(m.labels) == 0 {
		return &mat.Dense{}
	}
	return mat.DenseCopyOf(m.counts)
}

// Total returns the sum of all directed counts
func (m *Matrix) Total() int {
	if len(m.labels) == 0 {
		return 0
	}
	return int(mat.Sum(m.counts))
}

// Finalize derives the undirected coupling table. The directed counts stay
// available through Count and Raw.
func (m *Matrix) Finalize() *Table {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := len(m.labels)
	t := &Table{
		labels: m.Labels(),
		index:  make(map[string]int, n),
	}
	for label, i := range m.index {
		t.index[label] = i
	}
	if n == 0 {
		t.values = &mat.SymDense{}
		return t
	}

	t.values = mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		t.values.SetSym(i, i, m.counts.At(i, i))
		for j := i + 1; j < n; j++ {
			t.values.SetSym(i, j, m.counts.At(i, j)+m.counts.At(j, i))
		}
	}
	return t
}
