// Package viz renders stack graphs and paths as JSON for downstream
// visualizers.  The output shape is stable: nodes carry their typed ID and
// kind, edges carry precedence and optional debug info, and paths carry their
// node endpoints, edges and stacks.
package viz

import (
	"encoding/json"

	"github.com/stackb/stackgraph/pkg/graph"
	"github.com/stackb/stackgraph/pkg/paths"
)

// NodeID names a node by file and local ID.
type NodeID struct {
	File    string `json:"file,omitempty"`
	LocalID uint32 `json:"local_id"`
}

// Node is the rendered form of a graph node.
type Node struct {
	ID           NodeID            `json:"id"`
	Type         string            `json:"type"`
	Symbol       string            `json:"symbol,omitempty"`
	Scope        *NodeID           `json:"scope,omitempty"`
	IsReference  bool              `json:"is_reference,omitempty"`
	IsDefinition bool              `json:"is_definition,omitempty"`
	IsExported   bool              `json:"is_exported,omitempty"`
	DebugInfo    map[string]string `json:"debug_info,omitempty"`
}

// Edge is the rendered form of a graph edge.
type Edge struct {
	Source     NodeID            `json:"source"`
	Sink       NodeID            `json:"sink"`
	Precedence int32             `json:"precedence"`
	DebugInfo  map[string]string `json:"debug_info,omitempty"`
}

// ScopedSymbol is one element of a rendered symbol stack.
type ScopedSymbol struct {
	Symbol string   `json:"symbol"`
	Scopes []NodeID `json:"scopes,omitempty"`
}

// Path is the rendered form of a concrete path.
type Path struct {
	StartNode   NodeID         `json:"start_node"`
	EndNode     NodeID         `json:"end_node"`
	Edges       []Edge         `json:"edges"`
	SymbolStack []ScopedSymbol `json:"symbol_stack"`
	ScopeStack  []NodeID       `json:"scope_stack"`
}

// Graph is the rendered form of a stack graph plus any paths found over it.
type Graph struct {
	Files []string `json:"files,omitempty"`
	Nodes []Node   `json:"nodes"`
	Edges []Edge   `json:"edges"`
	Paths []Path   `json:"paths,omitempty"`
}

// Render builds the JSON document for a graph and a set of paths.
func Render(g *graph.StackGraph, ps *paths.Paths, pathList []paths.Path) ([]byte, error) {
	doc := Build(g, ps, pathList)
	return json.MarshalIndent(doc, "", "  ")
}

// Build assembles the rendered document without marshaling it.
func Build(g *graph.StackGraph, ps *paths.Paths, pathList []paths.Path) *Graph {
	doc := &Graph{}
	for _, file := range g.Files() {
		doc.Files = append(doc.Files, g.FileName(file))
	}
	for _, handle := range g.Nodes() {
		doc.Nodes = append(doc.Nodes, renderNode(g, handle))
	}
	for _, handle := range g.Nodes() {
		for _, edge := range g.OutgoingEdges(handle) {
			doc.Edges = append(doc.Edges, renderEdge(g, edge))
		}
	}
	for i := range pathList {
		doc.Paths = append(doc.Paths, renderPath(g, ps, &pathList[i]))
	}
	return doc
}

func renderNodeID(g *graph.StackGraph, id graph.NodeID) NodeID {
	out := NodeID{LocalID: id.LocalID}
	if id.File != graph.NoFile {
		out.File = g.FileName(id.File)
	}
	return out
}

func renderNode(g *graph.StackGraph, handle graph.NodeHandle) Node {
	node := g.MustNode(handle)
	out := Node{
		ID:           renderNodeID(g, node.ID),
		Type:         node.Kind.String(),
		IsReference:  node.IsReference,
		IsDefinition: node.IsDefinition,
		IsExported:   node.IsExported,
	}
	switch node.Kind {
	case graph.KindPushSymbol, graph.KindPushScopedSymbol, graph.KindPopSymbol, graph.KindPopScopedSymbol:
		if name, err := g.SymbolName(node.Symbol); err == nil {
			out.Symbol = name
		}
	}
	if node.Kind == graph.KindPushScopedSymbol {
		scope := renderNodeID(g, node.Scope)
		out.Scope = &scope
	}
	if info := g.NodeDebugInfo(handle); info != nil {
		out.DebugInfo = renderDebugInfo(g, info)
	}
	return out
}

func renderEdge(g *graph.StackGraph, edge graph.Edge) Edge {
	out := Edge{
		Source:     renderNodeID(g, g.MustNode(edge.Source).ID),
		Sink:       renderNodeID(g, g.MustNode(edge.Sink).ID),
		Precedence: edge.Precedence,
	}
	if info := g.EdgeDebugInfo(edge.Source, edge.Sink); info != nil {
		out.DebugInfo = renderDebugInfo(g, info)
	}
	return out
}

func renderDebugInfo(g *graph.StackGraph, info *graph.DebugInfo) map[string]string {
	out := make(map[string]string, len(info.Entries))
	for _, entry := range info.Entries {
		out[g.StringValue(entry.Key)] = g.StringValue(entry.Value)
	}
	return out
}

func renderPath(g *graph.StackGraph, ps *paths.Paths, path *paths.Path) Path {
	out := Path{
		StartNode:   renderNodeID(g, g.MustNode(path.StartNode).ID),
		EndNode:     renderNodeID(g, g.MustNode(path.EndNode).ID),
		Edges:       []Edge{},
		SymbolStack: []ScopedSymbol{},
		ScopeStack:  []NodeID{},
	}
	for _, edge := range path.Edges {
		out.Edges = append(out.Edges, renderEdge(g, edge))
	}
	for _, symbol := range ps.SymbolStackSymbols(path.SymbolStack) {
		rendered := ScopedSymbol{}
		if name, err := g.SymbolName(symbol.Symbol); err == nil {
			rendered.Symbol = name
		}
		if symbol.HasScopes {
			for _, scope := range ps.ScopeStackScopes(symbol.Scopes) {
				rendered.Scopes = append(rendered.Scopes, renderNodeID(g, g.MustNode(scope).ID))
			}
		}
		out.SymbolStack = append(out.SymbolStack, rendered)
	}
	for _, scope := range ps.ScopeStackScopes(path.ScopeStack) {
		out.ScopeStack = append(out.ScopeStack, renderNodeID(g, g.MustNode(scope).ID))
	}
	return out
}
