package index

import (
	"fmt"

	"github.com/stackb/stackgraph/pkg/graph"
	"github.com/stackb/stackgraph/pkg/partial"
	"github.com/stackb/stackgraph/pkg/stitching"
)

// LoadGraph recreates a file's nodes and edges in a graph from its index.
func LoadGraph(g *graph.StackGraph, spec *FileIndex) (graph.File, error) {
	file, err := g.AddFile(spec.Filename)
	if err != nil {
		return 0, err
	}

	for _, nodeSpec := range spec.Nodes {
		id := graph.NodeID{File: file, LocalID: nodeSpec.LocalID}
		var handle graph.NodeHandle
		var addErr error
		switch nodeSpec.Type {
		case graph.KindScope.String():
			handle, addErr = g.AddScopeNode(id, nodeSpec.IsExported)
		case graph.KindPushSymbol.String():
			handle, addErr = g.AddPushSymbolNode(id, g.AddSymbol(nodeSpec.Symbol), nodeSpec.IsReference)
		case graph.KindPushScopedSymbol.String():
			if nodeSpec.Scope == nil {
				return 0, fmt.Errorf("push_scoped_symbol node %d has no scope", nodeSpec.LocalID)
			}
			scope, err := resolveNodeID(g, *nodeSpec.Scope)
			if err != nil {
				return 0, err
			}
			handle, addErr = g.AddPushScopedSymbolNode(id, g.AddSymbol(nodeSpec.Symbol), scope, nodeSpec.IsReference)
		case graph.KindPopSymbol.String():
			handle, addErr = g.AddPopSymbolNode(id, g.AddSymbol(nodeSpec.Symbol), nodeSpec.IsDefinition)
		case graph.KindPopScopedSymbol.String():
			handle, addErr = g.AddPopScopedSymbolNode(id, g.AddSymbol(nodeSpec.Symbol), nodeSpec.IsDefinition)
		case graph.KindDropScopes.String():
			handle, addErr = g.AddDropScopesNode(id)
		default:
			return 0, fmt.Errorf("unknown node type: %q", nodeSpec.Type)
		}
		if addErr != nil {
			return 0, addErr
		}

		if nodeSpec.SourceInfo != nil {
			g.SetSourceInfo(handle, loadSourceInfo(g, nodeSpec.SourceInfo))
		}
		for _, entry := range nodeSpec.DebugInfo {
			g.NodeDebugInfoMut(handle).Add(g.AddString(entry.Key), g.AddString(entry.Value))
		}
	}

	for _, edgeSpec := range spec.Edges {
		source, err := resolveNodeHandle(g, edgeSpec.Source)
		if err != nil {
			return 0, err
		}
		sink, err := resolveNodeHandle(g, edgeSpec.Sink)
		if err != nil {
			return 0, err
		}
		if err := g.AddEdge(source, sink, edgeSpec.Precedence); err != nil {
			return 0, err
		}
		for _, entry := range edgeSpec.DebugInfo {
			g.EdgeDebugInfoMut(source, sink).Add(g.AddString(entry.Key), g.AddString(entry.Value))
		}
	}

	return file, nil
}

// LoadPartialPaths recreates a file's partial paths from its index and adds
// them to a database, marking the file's local nodes.  LoadGraph must have
// been called for the index (and for any files its scope stacks reference)
// first.
func LoadPartialPaths(g *graph.StackGraph, db *stitching.Database, spec *FileIndex) error {
	for _, pathSpec := range spec.PartialPaths {
		path, err := loadPartialPath(g, pathSpec)
		if err != nil {
			return err
		}
		db.Add(g, *path)
	}
	file, ok := g.GetFile(spec.Filename)
	if !ok {
		return fmt.Errorf("file not loaded: %q", spec.Filename)
	}
	for _, localID := range spec.LocalNodes {
		handle, ok := g.NodeForID(graph.NodeID{File: file, LocalID: localID})
		if !ok {
			return fmt.Errorf("unknown local node: %d", localID)
		}
		db.MarkLocalNode(handle)
	}
	return nil
}

func resolveNodeID(g *graph.StackGraph, spec NodeIDSpec) (graph.NodeID, error) {
	if spec.File == "" {
		switch spec.LocalID {
		case graph.RootLocalID:
			return graph.RootNodeID(), nil
		case graph.JumpToLocalID:
			return graph.JumpToNodeID(), nil
		}
		return graph.NodeID{}, fmt.Errorf("node %d has no file", spec.LocalID)
	}
	file := g.GetOrCreateFile(spec.File)
	return graph.NodeID{File: file, LocalID: spec.LocalID}, nil
}

func resolveNodeHandle(g *graph.StackGraph, spec NodeIDSpec) (graph.NodeHandle, error) {
	id, err := resolveNodeID(g, spec)
	if err != nil {
		return 0, err
	}
	handle, ok := g.NodeForID(id)
	if !ok {
		return 0, fmt.Errorf("unknown node: %s/%d", spec.File, spec.LocalID)
	}
	return handle, nil
}

func loadSourceInfo(g *graph.StackGraph, spec *SourceInfoSpec) *graph.SourceInfo {
	info := &graph.SourceInfo{}
	if spec.Span != nil {
		info.Span = loadSpan(spec.Span)
	}
	if spec.SyntaxType != "" {
		info.SyntaxType = g.AddString(spec.SyntaxType)
		info.HasSyntaxType = true
	}
	if spec.ContainingLine != "" {
		info.ContainingLine = g.AddString(spec.ContainingLine)
		info.HasContainingLine = true
	}
	if spec.DefiniensSpan != nil {
		info.DefiniensSpan = loadSpan(spec.DefiniensSpan)
	}
	if spec.FullyQualifiedName != "" {
		info.FullyQualifiedName = g.AddString(spec.FullyQualifiedName)
		info.HasFullyQualifiedName = true
	}
	return info
}

func loadSpan(spec *SpanSpec) graph.Span {
	return graph.Span{
		Start: graph.Position{
			Line:           spec.Start.Line,
			Utf8Offset:     spec.Start.Utf8Offset,
			Utf16Offset:    spec.Start.Utf16Offset,
			GraphemeOffset: spec.Start.GraphemeOffset,
		},
		End: graph.Position{
			Line:           spec.End.Line,
			Utf8Offset:     spec.End.Utf8Offset,
			Utf16Offset:    spec.End.Utf16Offset,
			GraphemeOffset: spec.End.GraphemeOffset,
		},
	}
}

func loadPartialPath(g *graph.StackGraph, spec *PartialPathSpec) (*partial.PartialPath, error) {
	startNode, err := resolveNodeHandle(g, spec.StartNode)
	if err != nil {
		return nil, err
	}
	endNode, err := resolveNodeHandle(g, spec.EndNode)
	if err != nil {
		return nil, err
	}
	symbolPre, err := loadSymbolStack(g, &spec.SymbolStackPrecondition)
	if err != nil {
		return nil, err
	}
	symbolPost, err := loadSymbolStack(g, &spec.SymbolStackPostcondition)
	if err != nil {
		return nil, err
	}
	scopePre, err := loadScopeStack(g, &spec.ScopeStackPrecondition)
	if err != nil {
		return nil, err
	}
	scopePost, err := loadScopeStack(g, &spec.ScopeStackPostcondition)
	if err != nil {
		return nil, err
	}
	path := &partial.PartialPath{
		StartNode:                startNode,
		EndNode:                  endNode,
		SymbolStackPrecondition:  symbolPre,
		SymbolStackPostcondition: symbolPost,
		ScopeStackPrecondition:   scopePre,
		ScopeStackPostcondition:  scopePost,
	}
	for _, edgeSpec := range spec.Edges {
		id, err := resolveNodeID(g, edgeSpec.Source)
		if err != nil {
			return nil, err
		}
		path.Edges = append(path.Edges, partial.PathEdge{
			SourceNodeID: id,
			Precedence:   edgeSpec.Precedence,
		})
	}
	return path, nil
}

func loadSymbolStack(g *graph.StackGraph, spec *SymbolStackSpec) (partial.PartialSymbolStack, error) {
	stack := partial.SymbolStackFromVariable(partial.SymbolStackVariable(spec.Variable))
	for _, symbolSpec := range spec.Symbols {
		symbol := partial.PartialScopedSymbol{Symbol: g.AddSymbol(symbolSpec.Symbol)}
		if symbolSpec.Scopes != nil {
			scopes, err := loadScopeStack(g, symbolSpec.Scopes)
			if err != nil {
				return partial.PartialSymbolStack{}, err
			}
			symbol.Scopes = scopes
			symbol.HasScopes = true
		}
		stack = stack.PushBack(symbol)
	}
	return stack, nil
}

func loadScopeStack(g *graph.StackGraph, spec *ScopeStackSpec) (partial.PartialScopeStack, error) {
	stack := partial.ScopeStackFromVariable(partial.ScopeStackVariable(spec.Variable))
	for _, scopeSpec := range spec.Scopes {
		handle, err := resolveNodeHandle(g, scopeSpec)
		if err != nil {
			return partial.PartialScopeStack{}, err
		}
		stack = stack.PushBack(handle)
	}
	return stack, nil
}
