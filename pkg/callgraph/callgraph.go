// Package callgraph builds the type-level call graph of a project.
package callgraph

import (
	"fmt"

	"github.com/ritzau/coupling-analyzer/pkg/graph"
	"github.com/ritzau/coupling-analyzer/pkg/model"
	"github.com/ritzau/coupling-analyzer/pkg/resolve"
)

// ClassGraph builds a graph whose nodes are types: every method links its
// declaring type to the receiver type of each invocation in its body.
func ClassGraph(methods []*model.Method, chain resolve.Chain) (*graph.Graph, error) {
	g, err := graph.Build(methods,
		func(m *model.Method) []*model.Invocation {
			return m.Invocations
		},
		func(m *model.Method) (string, error) {
			return m.DeclaringType, nil
		},
		chain.Resolve,
	)
	if err != nil {
		return nil, fmt.Errorf("building class call graph: %w", err)
	}
	return g, nil
}
