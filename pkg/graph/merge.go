package graph

// AddFromGraph copies the files, nodes and edges of another stack graph into
// this one, re-interning symbols and strings as it goes.  It fails with a
// DuplicateFileError if any of the other graph's files already exist here.
// Returns the handles of the files created in this graph.
func (g *StackGraph) AddFromGraph(other *StackGraph) ([]File, error) {
	files := make(map[File]File)
	for _, otherFile := range other.Files() {
		file, err := g.AddFile(other.FileName(otherFile))
		if err != nil {
			return nil, err
		}
		files[otherFile] = file
	}

	mapID := func(id NodeID) NodeID {
		if id.File == NoFile {
			return id
		}
		return NodeID{File: files[id.File], LocalID: id.LocalID}
	}

	nodes := make(map[NodeHandle]NodeHandle)
	nodes[RootNode] = RootNode
	nodes[JumpToNode] = JumpToNode

	for _, otherFile := range other.Files() {
		for _, otherNode := range other.NodesForFile(otherFile) {
			src := other.MustNode(otherNode)
			copied := Node{
				ID:           mapID(src.ID),
				Kind:         src.Kind,
				Scope:        mapID(src.Scope),
				IsReference:  src.IsReference,
				IsDefinition: src.IsDefinition,
				IsExported:   src.IsExported,
			}
			switch src.Kind {
			case KindPushSymbol, KindPushScopedSymbol, KindPopSymbol, KindPopScopedSymbol:
				name, err := other.SymbolName(src.Symbol)
				if err != nil {
					return nil, err
				}
				copied.Symbol = g.AddSymbol(name)
			}
			node, err := g.addNode(copied)
			if err != nil {
				return nil, err
			}
			nodes[otherNode] = node

			if info := other.SourceInfo(otherNode); info != nil {
				mapped := &SourceInfo{
					Span:          info.Span,
					DefiniensSpan: info.DefiniensSpan,
				}
				if info.HasSyntaxType {
					mapped.SyntaxType = g.AddString(other.StringValue(info.SyntaxType))
					mapped.HasSyntaxType = true
				}
				if info.HasContainingLine {
					mapped.ContainingLine = g.AddString(other.StringValue(info.ContainingLine))
					mapped.HasContainingLine = true
				}
				if info.HasFullyQualifiedName {
					mapped.FullyQualifiedName = g.AddString(other.StringValue(info.FullyQualifiedName))
					mapped.HasFullyQualifiedName = true
				}
				g.SetSourceInfo(node, mapped)
			}
			if info := other.NodeDebugInfo(otherNode); info != nil {
				dst := g.NodeDebugInfoMut(node)
				for _, e := range info.Entries {
					dst.Add(g.AddString(other.StringValue(e.Key)), g.AddString(other.StringValue(e.Value)))
				}
			}
		}
	}

	for otherNode := range nodes {
		for _, edge := range other.OutgoingEdges(otherNode) {
			source, ok := nodes[edge.Source]
			if !ok {
				continue
			}
			sink, ok := nodes[edge.Sink]
			if !ok {
				continue
			}
			if err := g.AddEdge(source, sink, edge.Precedence); err != nil {
				return nil, err
			}
		}
	}

	created := make([]File, 0, len(files))
	for _, file := range files {
		created = append(created, file)
	}
	return created, nil
}
