package graph

// NodeRecord is the serialized form of a graph node
type NodeRecord struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	Own  bool   `json:"own"` // Belongs to the analyzed project
}

// LinkRecord is the serialized form of a call edge.
// The strength is written under "str" for compatibility with existing renderers.
type LinkRecord struct {
	Source   int     `json:"source"`
	Target   int     `json:"target"`
	Strength float64 `json:"str"`
}

// Document holds the node and link records emitted together as one artifact
type Document struct {
	Nodes []NodeRecord `json:"nodes"`
	Links []LinkRecord `json:"links"`
}

// Weight down-weights edges into heavily invoked nodes so hubs do not
// dominate force-directed layouts. A link target is invoked at least once,
// so link weights are at most Weight(1) == 1.
func Weight(multiplicity int) float64 {
	return 1 / (0.5*float64(multiplicity) + 0.5)
}

// Nodes returns one record per known identity, ascending by id
func Nodes(g *Graph) []NodeRecord {
	nodes := make([]NodeRecord, 0, g.Len())
	for id, name := range g.names {
		nodes = append(nodes, NodeRecord{
			ID:   id,
			Name: name,
			Own:  g.Own(id),
		})
	}
	return nodes
}

// Links returns one record per (caller, callee) pair, ordered by source then target
func Links(g *Graph) []LinkRecord {
	links := make([]LinkRecord, 0, g.EdgeCount())
	for _, caller := range g.Callers() {
		for _, callee := range g.Callees(caller) {
			links = append(links, LinkRecord{
				Source:   caller,
				Target:   callee,
				Strength: Weight(g.Multiplicity(callee)),
			})
		}
	}
	return links
}

// NewDocument serializes a graph into its node and link records
func NewDocument(g *Graph) Document {
	return Document{
		Nodes: Nodes(g),
		Links: Links(g),
	}
}
