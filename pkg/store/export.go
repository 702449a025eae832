package store

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/coolbeans/skosgraph/pkg/vocab"
)

// GraphNode represents a node in the graph visualization.
type GraphNode struct {
	ID       string            `json:"id"`
	Label    string            `json:"label"`
	Type     string            `json:"type"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// GraphEdge represents an edge in the graph visualization.
type GraphEdge struct {
	Source string `json:"source"`
	Target string `json:"target"`
	Label  string `json:"label"`
	Type   string `json:"type"`
}

// GraphExport represents the complete graph for visualization.
type GraphExport struct {
	Nodes []GraphNode `json:"nodes"`
	Edges []GraphEdge `json:"edges"`
	Stats GraphStats  `json:"stats"`
}

// GraphStats contains summary statistics for the graph.
type GraphStats struct {
	TotalNodes  int            `json:"total_nodes"`
	TotalEdges  int            `json:"total_edges"`
	NodesByType map[string]int `json:"nodes_by_type"`
	EdgesByType map[string]int `json:"edges_by_type"`
}

var relationshipPredicates = map[string]bool{
	vocab.SKOSBroader:       true,
	vocab.SKOSNarrower:      true,
	vocab.SKOSRelated:       true,
	vocab.SKOSBroadMatch:    true,
	vocab.SKOSNarrowMatch:   true,
	vocab.SKOSRelatedMatch:  true,
	vocab.SKOSExactMatch:    true,
	vocab.SKOSCloseMatch:    true,
	vocab.SKOSInScheme:      true,
	vocab.SKOSHasTopConcept: true,
	vocab.SKOSTopConceptOf:  true,
	vocab.SKOSMember:        true,
}

// ExportGraph exports the relationship edges of the triples as a graph
// structure for visualization. Literal-valued properties of each node
// become metadata; preferred labels in lang are used as node labels.
func ExportGraph(triples []Triple, lang string) *GraphExport {
	export := &GraphExport{
		Nodes: make([]GraphNode, 0),
		Edges: make([]GraphEdge, 0),
		Stats: GraphStats{
			NodesByType: make(map[string]int),
			EdgesByType: make(map[string]int),
		},
	}

	bySubject := make(map[string][]Triple)
	for _, t := range triples {
		bySubject[t.Subject] = append(bySubject[t.Subject], t)
	}

	nodeSet := make(map[string]bool)
	for _, t := range triples {
		if !relationshipPredicates[t.Predicate] || !t.Object.IsIRI() {
			continue
		}

		nodeSet[t.Subject] = true
		nodeSet[t.Object.Value] = true

		label := vocab.LocalName(t.Predicate)
		export.Edges = append(export.Edges, GraphEdge{
			Source: t.Subject,
			Target: t.Object.Value,
			Label:  label,
			Type:   t.Predicate,
		})
		export.Stats.EdgesByType[label]++
	}

	// Resources with a type but no edges still appear.
	for subject, subjectTriples := range bySubject {
		for _, t := range subjectTriples {
			if t.Predicate == vocab.RDFType && strings.HasPrefix(t.Object.Value, vocab.NamespaceSKOS) {
				nodeSet[subject] = true
			}
		}
	}

	for _, uri := range sortedKeys(nodeSet) {
		node := createNode(uri, bySubject[uri], lang)
		export.Nodes = append(export.Nodes, node)
		export.Stats.NodesByType[node.Type]++
	}

	sort.Slice(export.Edges, func(i, j int) bool {
		if export.Edges[i].Source != export.Edges[j].Source {
			return export.Edges[i].Source < export.Edges[j].Source
		}
		if export.Edges[i].Type != export.Edges[j].Type {
			return export.Edges[i].Type < export.Edges[j].Type
		}
		return export.Edges[i].Target < export.Edges[j].Target
	})

	export.Stats.TotalNodes = len(export.Nodes)
	export.Stats.TotalEdges = len(export.Edges)

	return export
}

// createNode creates a GraphNode from a URI and the triples it is subject of.
func createNode(uri string, triples []Triple, lang string) GraphNode {
	node := GraphNode{
		ID:       uri,
		Label:    vocab.LocalName(uri),
		Type:     "External",
		Metadata: make(map[string]string),
	}

	var fallbackLabel string
	for _, t := range triples {
		switch {
		case t.Predicate == vocab.RDFType && t.Object.IsIRI():
			node.Type = vocab.LocalName(t.Object.Value)
		case t.Predicate == vocab.SKOSPrefLabel:
			if t.Object.Lang == lang {
				node.Label = t.Object.Value
			} else if fallbackLabel == "" {
				fallbackLabel = t.Object.Value
			}
		case t.Object.IsLiteral() && len(t.Object.Value) < 100:
			node.Metadata[vocab.LocalName(t.Predicate)] = t.Object.Value
		}
	}

	if node.Label == vocab.LocalName(uri) && fallbackLabel != "" {
		node.Label = fallbackLabel
	}
	if node.Type == "External" && len(triples) > 0 {
		node.Type = "Node"
	}

	return node
}

// ToJSON serializes the graph export to JSON.
func (g *GraphExport) ToJSON() ([]byte, error) {
	return json.MarshalIndent(g, "", "  ")
}

// ToDOT exports the graph in DOT format for Graphviz.
func (g *GraphExport) ToDOT() string {
	var sb strings.Builder

	sb.WriteString("digraph ConceptGraph {\n")
	sb.WriteString("  rankdir=BT;\n")
	sb.WriteString("  node [shape=box];\n\n")

	typeColors := map[string]string{
		"Concept":           "lightblue",
		"ConceptScheme":     "gold",
		"Collection":        "lightgreen",
		"OrderedCollection": "lightgreen",
		"External":          "lightgray",
	}

	for _, node := range g.Nodes {
		color := typeColors[node.Type]
		if color == "" {
			color = "white"
		}
		label := strings.ReplaceAll(node.Label, "\"", "\\\"")
		if len(label) > 30 {
			label = label[:30] + "..."
		}
		sb.WriteString(fmt.Sprintf("  \"%s\" [label=\"%s\" style=filled fillcolor=%s];\n",
			node.ID, label, color))
	}

	sb.WriteString("\n")

	edgeColors := map[string]string{
		"broader":      "blue",
		"narrower":     "blue",
		"related":      "red",
		"exactMatch":   "purple",
		"closeMatch":   "purple",
		"broadMatch":   "purple",
		"narrowMatch":  "purple",
		"relatedMatch": "purple",
		"member":       "green",
	}

	for _, edge := range g.Edges {
		color := edgeColors[edge.Label]
		if color == "" {
			color = "gray"
		}
		sb.WriteString(fmt.Sprintf("  \"%s\" -> \"%s\" [label=\"%s\" color=%s];\n",
			edge.Source, edge.Target, edge.Label, color))
	}

	sb.WriteString("}\n")
	return sb.String()
}
