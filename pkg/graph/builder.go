// Package graph builds weighted call graphs from parent/child relations.
package graph

import (
	"errors"
	"fmt"
	"sync"
)

// ErrMalformedIdentity is returned when a node identity resolves to an empty string
var ErrMalformedIdentity = errors.New("malformed identity")

// Identity maps a value to its node identity
type Identity[T any] func(T) (string, error)

// Builder owns the tables of a graph under construction.
// Lookup-or-create of ids happens under one lock so an identity is never
// allocated twice.
type Builder struct {
	mu    sync.Mutex
	graph *Graph
}

// NewBuilder creates a builder for an empty graph
func NewBuilder() *Builder {
	return &Builder{graph: newGraph()}
}

// lookupOrCreate returns the id of name, allocating the next id if needed.
// Callers must hold b.mu.
func (b *Builder) lookupOrCreate(name string) (int, bool) {
	g := b.graph
	if id, ok := g.ids[name]; ok {
		return id, false
	}

	id := len(g.names)
	g.ids[name] = id
	g.names = append(g.names, name)
	g.membership = append(g.membership, Unseen)
	g.multiplicity = append(g.multiplicity, 0)
	return id, true
}

// AddCaller records name as a caller and returns its id.
// Discovery as a caller always confirms project membership, even if the node
// was first seen as a callee.
func (b *Builder) AddCaller(name string) (int, error) {
	if name == "" {
		return 0, fmt.Errorf("%w: empty caller identity", ErrMalformedIdentity)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	id, _ := b.lookupOrCreate(name)
	b.graph.membership[id] = b.graph.membership[id].promote(Confirmed)
	if b.graph.links[id] == nil {
		b.graph.links[id] = make(map[int]bool)
	}
	return id, nil
}

// AddCallee records one call site from caller to name and returns the callee id.
// Every call site counts toward multiplicity; the edge itself is stored once.
func (b *Builder) AddCallee(caller int, name string) (int, error) {
	if name == "" {
		return 0, fmt.Errorf("%w: empty callee identity", ErrMalformedIdentity)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	callees, ok := b.graph.links[caller]
	if !ok {
		return 0, fmt.Errorf("caller %d has not been added", caller)
	}

	id, _ := b.lookupOrCreate(name)
	b.graph.membership[id] = b.graph.membership[id].promote(CalleeOnly)
	b.graph.multiplicity[id]++
	callees[id] = true
	return id, nil
}

// Graph returns the graph built so far
func (b *Builder) Graph() *Graph {
	return b.graph
}

// Build creates a graph by iterating parents in order and linking each one to
// its children. Identity errors stop the build and are returned wrapped.
func Build[P, C any](parents []P, children func(P) []C, parentID Identity[P], childID Identity[C]) (*Graph, error) {
	b := NewBuilder()

	for _, parent := range parents {
		parentName, err := parentID(parent)
		if err != nil {
			return nil, fmt.Errorf("parent identity: %w", err)
		}

		callerID, err := b.AddCaller(parentName)
		if err != nil {
			return nil, err
		}

		for _, child := range children(parent) {
			childName, err := childID(child)
			if err != nil {
				return nil, fmt.Errorf("child identity of %s: %w", parentName, err)
			}

			if _, err := b.AddCallee(callerID, childName); err != nil {
				return nil, fmt.Errorf("child of %s: %w", parentName, err)
			}
		}
	}

	return b.Graph(), nil
}
