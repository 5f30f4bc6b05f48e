package index

import (
	"bytes"
	"encoding/json"
	"sort"

	"github.com/stackb/stackgraph/pkg/graph"
	"github.com/stackb/stackgraph/pkg/partial"
)

// FromFile builds the index of one file from a graph, the partial paths
// computed for the file, and the file's local nodes.  The sha256 argument
// keys the index to the content it was computed from.
func FromFile(g *graph.StackGraph, file graph.File, pathList []partial.PartialPath, localNodes []graph.NodeHandle, sha256 string) (*FileIndex, error) {
	spec := &FileIndex{
		Filename: g.FileName(file),
		Sha256:   sha256,
	}

	nodes := g.NodesForFile(file)
	inFile := make(map[graph.NodeHandle]bool, len(nodes))
	for _, node := range nodes {
		inFile[node] = true
	}

	for _, handle := range nodes {
		node := g.MustNode(handle)
		nodeSpec := &NodeSpec{
			LocalID:      node.ID.LocalID,
			Type:         node.Kind.String(),
			IsReference:  node.IsReference,
			IsDefinition: node.IsDefinition,
			IsExported:   node.IsExported,
		}
		switch node.Kind {
		case graph.KindPushSymbol, graph.KindPushScopedSymbol, graph.KindPopSymbol, graph.KindPopScopedSymbol:
			name, err := g.SymbolName(node.Symbol)
			if err != nil {
				return nil, err
			}
			nodeSpec.Symbol = name
		}
		if node.Kind == graph.KindPushScopedSymbol {
			scope := nodeIDSpec(g, node.Scope)
			nodeSpec.Scope = &scope
		}
		if info := g.SourceInfo(handle); info != nil {
			nodeSpec.SourceInfo = sourceInfoSpec(g, info)
		}
		if info := g.NodeDebugInfo(handle); info != nil {
			nodeSpec.DebugInfo = debugInfoSpec(g, info)
		}
		spec.Nodes = append(spec.Nodes, nodeSpec)
	}
	sort.Slice(spec.Nodes, func(i, j int) bool { return spec.Nodes[i].LocalID < spec.Nodes[j].LocalID })

	// Edges from file nodes, plus the edges from root into the file.
	sources := append([]graph.NodeHandle{graph.RootNode}, nodes...)
	for _, source := range sources {
		for _, edge := range g.OutgoingEdges(source) {
			if source == graph.RootNode && !inFile[edge.Sink] {
				continue
			}
			edgeSpec := &EdgeSpec{
				Source:     nodeIDSpec(g, g.MustNode(edge.Source).ID),
				Sink:       nodeIDSpec(g, g.MustNode(edge.Sink).ID),
				Precedence: edge.Precedence,
			}
			if info := g.EdgeDebugInfo(edge.Source, edge.Sink); info != nil {
				edgeSpec.DebugInfo = debugInfoSpec(g, info)
			}
			spec.Edges = append(spec.Edges, edgeSpec)
		}
	}
	sort.Slice(spec.Edges, func(i, j int) bool {
		a, b := spec.Edges[i], spec.Edges[j]
		if a.Source != b.Source {
			return lessNodeID(a.Source, b.Source)
		}
		return lessNodeID(a.Sink, b.Sink)
	})

	for i := range pathList {
		pathSpec, err := partialPathSpec(g, &pathList[i])
		if err != nil {
			return nil, err
		}
		spec.PartialPaths = append(spec.PartialPaths, pathSpec)
	}
	sort.Slice(spec.PartialPaths, func(i, j int) bool {
		return lessPartialPathSpec(spec.PartialPaths[i], spec.PartialPaths[j])
	})

	for _, node := range localNodes {
		id := g.MustNode(node).ID
		if id.File == file {
			spec.LocalNodes = append(spec.LocalNodes, id.LocalID)
		}
	}
	sort.Slice(spec.LocalNodes, func(i, j int) bool { return spec.LocalNodes[i] < spec.LocalNodes[j] })

	return spec, nil
}

func nodeIDSpec(g *graph.StackGraph, id graph.NodeID) NodeIDSpec {
	spec := NodeIDSpec{LocalID: id.LocalID}
	if id.File != graph.NoFile {
		spec.File = g.FileName(id.File)
	}
	return spec
}

func lessNodeID(a, b NodeIDSpec) bool {
	if a.File != b.File {
		return a.File < b.File
	}
	return a.LocalID < b.LocalID
}

func sourceInfoSpec(g *graph.StackGraph, info *graph.SourceInfo) *SourceInfoSpec {
	spec := &SourceInfoSpec{}
	if !info.Span.IsEmpty() {
		spec.Span = spanSpec(info.Span)
	}
	if info.HasSyntaxType {
		spec.SyntaxType = g.StringValue(info.SyntaxType)
	}
	if info.HasContainingLine {
		spec.ContainingLine = g.StringValue(info.ContainingLine)
	}
	if !info.DefiniensSpan.IsEmpty() {
		spec.DefiniensSpan = spanSpec(info.DefiniensSpan)
	}
	if info.HasFullyQualifiedName {
		spec.FullyQualifiedName = g.StringValue(info.FullyQualifiedName)
	}
	return spec
}

func spanSpec(span graph.Span) *SpanSpec {
	return &SpanSpec{
		Start: PositionSpec{
			Line:           span.Start.Line,
			Utf8Offset:     span.Start.Utf8Offset,
			Utf16Offset:    span.Start.Utf16Offset,
			GraphemeOffset: span.Start.GraphemeOffset,
		},
		End: PositionSpec{
			Line:           span.End.Line,
			Utf8Offset:     span.End.Utf8Offset,
			Utf16Offset:    span.End.Utf16Offset,
			GraphemeOffset: span.End.GraphemeOffset,
		},
	}
}

func debugInfoSpec(g *graph.StackGraph, info *graph.DebugInfo) []*DebugEntrySpec {
	out := make([]*DebugEntrySpec, len(info.Entries))
	for i, entry := range info.Entries {
		out[i] = &DebugEntrySpec{
			Key:   g.StringValue(entry.Key),
			Value: g.StringValue(entry.Value),
		}
	}
	return out
}

func partialPathSpec(g *graph.StackGraph, p *partial.PartialPath) (*PartialPathSpec, error) {
	symbolPre, err := symbolStackSpec(g, p.SymbolStackPrecondition)
	if err != nil {
		return nil, err
	}
	symbolPost, err := symbolStackSpec(g, p.SymbolStackPostcondition)
	if err != nil {
		return nil, err
	}
	spec := &PartialPathSpec{
		StartNode:                nodeIDSpec(g, g.MustNode(p.StartNode).ID),
		EndNode:                  nodeIDSpec(g, g.MustNode(p.EndNode).ID),
		SymbolStackPrecondition:  *symbolPre,
		SymbolStackPostcondition: *symbolPost,
		ScopeStackPrecondition:   scopeStackSpec(g, p.ScopeStackPrecondition),
		ScopeStackPostcondition:  scopeStackSpec(g, p.ScopeStackPostcondition),
	}
	for _, edge := range p.Edges {
		spec.Edges = append(spec.Edges, &PathEdgeSpec{
			Source:     nodeIDSpec(g, edge.SourceNodeID),
			Precedence: edge.Precedence,
		})
	}
	return spec, nil
}

func symbolStackSpec(g *graph.StackGraph, stack partial.PartialSymbolStack) (*SymbolStackSpec, error) {
	spec := &SymbolStackSpec{Variable: uint32(stack.Variable())}
	for _, symbol := range stack.Symbols() {
		name, err := g.SymbolName(symbol.Symbol)
		if err != nil {
			return nil, err
		}
		symbolSpec := &ScopedSymbolSpec{Symbol: name}
		if symbol.HasScopes {
			scopes := scopeStackSpec(g, symbol.Scopes)
			symbolSpec.Scopes = &scopes
		}
		spec.Symbols = append(spec.Symbols, symbolSpec)
	}
	return spec, nil
}

func scopeStackSpec(g *graph.StackGraph, stack partial.PartialScopeStack) ScopeStackSpec {
	spec := ScopeStackSpec{Variable: uint32(stack.Variable())}
	for _, scope := range stack.Scopes() {
		spec.Scopes = append(spec.Scopes, nodeIDSpec(g, g.MustNode(scope).ID))
	}
	return spec
}

// lessPartialPathSpec orders partial path specs for canonical output.
func lessPartialPathSpec(a, b *PartialPathSpec) bool {
	if a.StartNode != b.StartNode {
		return lessNodeID(a.StartNode, b.StartNode)
	}
	if a.EndNode != b.EndNode {
		return lessNodeID(a.EndNode, b.EndNode)
	}
	aKey, _ := json.Marshal(a)
	bKey, _ := json.Marshal(b)
	return bytes.Compare(aKey, bKey) < 0
}
