package graph

import (
	"sort"
)

// Membership tracks whether a node belongs to the analyzed project.
// States only move forward: Unseen -> CalleeOnly -> Confirmed, or Unseen -> Confirmed.
type Membership uint8

const (
	Unseen     Membership = iota // Not discovered yet
	CalleeOnly                   // Only ever seen as an invocation target
	Confirmed                    // Seen as a caller, part of the project
)

func (m Membership) String() string {
	switch m {
	case Unseen:
		return "unseen"
	case CalleeOnly:
		return "callee-only"
	case Confirmed:
		return "confirmed"
	default:
		return "unknown"
	}
}

// promote returns the state after observing the node in the given role.
// A confirmed node is never demoted.
func (m Membership) promote(to Membership) Membership {
	if to > m {
		return to
	}
	return m
}

// Graph is a directed call graph over node identities.
// Ids are dense and assigned in first-discovery order starting at 0.
type Graph struct {
	ids          map[string]int       // identity -> id
	names        []string             // id -> identity
	membership   []Membership         // id -> project membership
	multiplicity []int                // id -> number of call sites targeting the node
	links        map[int]map[int]bool // caller id -> set of callee ids
}

func newGraph() *Graph {
	return &Graph{
		ids:   make(map[string]int),
		links: make(map[int]map[int]bool),
	}
}

// Len returns the number of nodes
func (g *Graph) Len() int {
	return len(g.names)
}

// ID returns the id assigned to an identity
func (g *Graph) ID(name string) (int, bool) {
	id, ok := g.ids[name]
	return id, ok
}

// Name returns the identity of a node id
func (g *Graph) Name(id int) string {
	if id < 0 || id >= len(g.names) {
		return ""
	}
	return g.names[id]
}

// State returns the membership state of a node id
func (g *Graph) State(id int) Membership {
	if id < 0 || id >= len(g.membership) {
		return Unseen
	}
	return g.membership[id]
}

// Own reports whether the node belongs to the analyzed project
func (g *Graph) Own(id int) bool {
	return g.State(id) == Confirmed
}

// Multiplicity returns how many call sites target the node, repeats included
func (g *Graph) Multiplicity(id int) int {
	if id < 0 || id >= len(g.multiplicity) {
		return 0
	}
	return g.multiplicity[id]
}

// Callers returns the ids that have an adjacency set, ascending
func (g *Graph) Callers() []int {
	callers := make([]int, 0, len(g.links))
	for id := range g.links {
		callers = append(callers, id)
	}
	sort.Ints(callers)
	return callers
}

// Callees returns the distinct callee ids of a caller, ascending
func (g *Graph) Callees(id int) []int {
	set := g.links[id]
	callees := make([]int, 0, len(set))
	for callee := range set {
		callees = append(callees, callee)
	}
	sort.Ints(callees)
	return callees
}

// EdgeCount returns the number of distinct (caller, callee) pairs
func (g *Graph) EdgeCount() int {
	count := 0
	for _, set := range g.links {
		count += len(set)
	}
	return count
}
