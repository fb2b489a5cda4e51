package lens

import (
	"errors"
	"strings"

	"github.com/ritzau/coupling-analyzer/pkg/graph"
)

// Infinite is the distance of nodes not connected to the selection
const Infinite = -1

// ErrNoSelection is returned when no selector matches a node
var ErrNoSelection = errors.New("selection matches no node")

// View is a call graph restricted to the neighbourhood of a selection.
// Node ids are those of the full graph.
type View struct {
	graph.Document
	Selected  []int       `json:"selected"`
	Distances map[int]int `json:"distances"` // Node id -> hops from the selection
}

// Expand resolves selectors to node ids. A selector naming a node selects
// it; otherwise it selects every node in that package, e.g. "com.example"
// selects "com.example.Order" and "com.example.web.Cart".
func Expand(g *graph.Graph, selectors []string) []int {
	selected := make(map[int]bool)

	for _, sel := range selectors {
		if id, ok := g.ID(sel); ok {
			selected[id] = true
			continue
		}
		prefix := strings.TrimSuffix(sel, ".") + "."
		for id := 0; id < g.Len(); id++ {
			if strings.HasPrefix(g.Name(id), prefix) {
				selected[id] = true
			}
		}
	}

	// Ascending, like node ids
	ids := make([]int, 0, len(selected))
	for id := 0; id < g.Len(); id++ {
		if selected[id] {
			ids = append(ids, id)
		}
	}
	return ids
}

// Distances calculates the shortest distance from each node to the nearest
// selected node, ignoring edge direction. Unreached nodes are Infinite.
func Distances(g *graph.Graph, selected []int) []int {
	distances := make([]int, g.Len())
	for i := range distances {
		distances[i] = Infinite
	}

	adjacency := buildAdjacency(g)

	// Initialize BFS queue with selected nodes at distance 0
	queue := make([]int, 0, len(selected))
	for _, id := range selected {
		if distances[id] == Infinite {
			distances[id] = 0
			queue = append(queue, id)
		}
	}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		for _, neighbor := range adjacency[current] {
			if distances[neighbor] == Infinite {
				distances[neighbor] = distances[current] + 1
				queue = append(queue, neighbor)
			}
		}
	}

	return distances
}

// buildAdjacency creates an undirected adjacency list from the call edges
func buildAdjacency(g *graph.Graph) [][]int {
	adjacency := make([][]int, g.Len())
	for _, caller := range g.Callers() {
		for _, callee := range g.Callees(caller) {
			if caller == callee {
				continue
			}
			adjacency[caller] = append(adjacency[caller], callee)
			adjacency[callee] = append(adjacency[callee], caller)
		}
	}
	return adjacency
}

// Focus returns the nodes within depth hops of the selection and the links
// between them. A negative depth keeps every connected node.
func Focus(g *graph.Graph, selectors []string, depth int) (*View, error) {
	selected := Expand(g, selectors)
	if len(selected) == 0 {
		return nil, ErrNoSelection
	}

	distances := Distances(g, selected)
	visible := func(id int) bool {
		d := distances[id]
		return d != Infinite && (depth < 0 || d <= depth)
	}

	view := &View{
		Document: graph.Document{
			Nodes: []graph.NodeRecord{},
			Links: []graph.LinkRecord{},
		},
		Selected:  selected,
		Distances: make(map[int]int),
	}

	for _, node := range graph.Nodes(g) {
		if visible(node.ID) {
			view.Nodes = append(view.Nodes, node)
			view.Distances[node.ID] = distances[node.ID]
		}
	}
	for _, link := range graph.Links(g) {
		if visible(link.Source) && visible(link.Target) {
			view.Links = append(view.Links, link)
		}
	}

	return view, nil
}
