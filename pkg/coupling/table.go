package coupling

import (
	"sort"

	"gonum.org/v1/gonum/mat"
)

// Table is the undirected presentation of a coupling matrix: the value for
// {A, B} is the number of invocations from A into B plus those from B into A.
// The diagonal holds the self-invocation count of each type.
type Table struct {
	labels []string
	index  map[string]int
	values *mat.SymDense
}

// Pair is one unordered type pair with its coupling strength
type Pair struct {
	A        string `json:"a"`
	B        string `json:"b"`
	Strength int    `json:"strength"`
}

// Labels returns the ordered labels of the table
func (t *Table) Labels() []string {
	labels := make([]string, len(t.labels))
	copy(labels, t.labels)
	return labels
}

// Coupling returns the coupling strength of the unordered pair {a, b}
func (t *Table) Coupling(a, b string) int {
	i, ok := t.index[a]
	if !ok {
		return 0
	}
	j, ok := t.index[b]
	if !ok {
		return 0
	}
	return int(t.values.At(i, j))
}

// At returns the value at row i, column j
func (t *Table) At(i, j int) int {
	return int(t.values.At(i, j))
}

// Rows returns the table as a square slice of counts, indexed like Labels
func (t *Table) Rows() [][]int {
	n := len(t.labels)
	rows := make([][]int, n)
	for i := 0; i < n; i++ {
		rows[i] = make([]int, n)
		for j := 0; j < n; j++ {
			rows[i][j] = int(t.values.At(i, j))
		}
	}
	return rows
}

// Pairs returns every non-zero unordered pair, strongest first.
// Ties keep label order.
func (t *Table) Pairs() []Pair {
	var pairs []Pair
	n := len(t.labels)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			v := int(t.values.At(i, j))
			if v == 0 {
				continue
			}
			pairs = append(pairs, Pair{A: t.labels[i], B: t.labels[j], Strength: v})
		}
	}

	sort.SliceStable(pairs, func(i, j int) bool {
		return pairs[i].Strength > pairs[j].Strength
	})
	return pairs
}
