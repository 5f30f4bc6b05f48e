// Package graph defines the structure of a stack graph: the interned symbol,
// string and file tables, the nodes, and the edges that connect them.
//
// The graph as a whole lives in a StackGraph.  Values are only ever added to a
// graph; nothing can be removed.  Handles are dense integers, so comparing two
// symbols, files or nodes is a plain integer comparison, and handles sort in a
// stable, deterministic order.
package graph

import (
	"sort"
)

// Symbol is a handle to an interned symbol in a StackGraph.  Two symbols with
// the same content always have the same handle within one graph.
type Symbol uint32

// String is a handle to an interned string in a StackGraph.  Interned strings
// carry auxiliary content such as syntax types and debug values.
type String uint32

// File is a handle to a file in a StackGraph.  The zero value means "no
// file", which is how the singleton root and jump-to-scope nodes are marked.
type File uint32

// NoFile is the File handle used for nodes that do not belong to any file.
const NoFile File = 0

// NodeHandle is a handle to a node in a StackGraph.
type NodeHandle uint32

// Handles of the two singleton nodes, present in every graph.
const (
	RootNode   NodeHandle = 0
	JumpToNode NodeHandle = 1
)

// Local IDs of the two singleton nodes.
const (
	RootLocalID   uint32 = 1
	JumpToLocalID uint32 = 2
)

// NodeID uniquely identifies a node.  Each node except the singleton root and
// jump-to-scope nodes lives in a file and has a local ID that must be unique
// within that file.
type NodeID struct {
	File    File
	LocalID uint32
}

// RootNodeID returns the ID of the singleton root node.
func RootNodeID() NodeID { return NodeID{File: NoFile, LocalID: RootLocalID} }

// JumpToNodeID returns the ID of the singleton jump-to-scope node.
func JumpToNodeID() NodeID { return NodeID{File: NoFile, LocalID: JumpToLocalID} }

// IsRoot returns whether this ID refers to the singleton root node.
func (id NodeID) IsRoot() bool { return id.File == NoFile && id.LocalID == RootLocalID }

// IsJumpTo returns whether this ID refers to the singleton jump-to-scope node.
func (id NodeID) IsJumpTo() bool { return id.File == NoFile && id.LocalID == JumpToLocalID }

// IsInFile returns whether the node belongs to the given file.  The singleton
// nodes belong to every file.
func (id NodeID) IsInFile(file File) bool {
	if id.File == NoFile {
		return true
	}
	return id.File == file
}

// NodeKind discriminates the closed set of node variants.
type NodeKind uint8

const (
	// KindRoot is the global entry/exit point for cross-file resolution.
	KindRoot NodeKind = iota
	// KindJumpToScope pops a scope off the scope stack and continues from it.
	KindJumpToScope
	// KindScope is a plain routing node.
	KindScope
	// KindPushSymbol pushes a symbol onto the symbol stack.
	KindPushSymbol
	// KindPushScopedSymbol pushes a symbol with an attached scope stack.
	KindPushScopedSymbol
	// KindPopSymbol pops a matching symbol off the symbol stack.
	KindPopSymbol
	// KindPopScopedSymbol pops a matching scoped symbol off the symbol stack.
	KindPopScopedSymbol
	// KindDropScopes clears the scope stack.
	KindDropScopes
)

func (k NodeKind) String() string {
	switch k {
	case KindRoot:
		return "root"
	case KindJumpToScope:
		return "jump_to_scope"
	case KindScope:
		return "scope"
	case KindPushSymbol:
		return "push_symbol"
	case KindPushScopedSymbol:
		return "push_scoped_symbol"
	case KindPopSymbol:
		return "pop_symbol"
	case KindPopScopedSymbol:
		return "pop_scoped_symbol"
	case KindDropScopes:
		return "drop_scopes"
	}
	return "unknown"
}

// Node is a node in a stack graph.  The variant set is closed; Kind selects
// which of the payload fields are meaningful.
type Node struct {
	ID   NodeID
	Kind NodeKind
	// Symbol is set for push-symbol, push-scoped-symbol, pop-symbol and
	// pop-scoped-symbol nodes.
	Symbol Symbol
	// Scope is the ID of the exported scope attached by a push-scoped-symbol
	// node.
	Scope NodeID
	// IsReference is set for push nodes that represent references in the
	// source language.
	IsReference bool
	// IsDefinition is set for pop nodes that represent definitions in the
	// source language.
	IsDefinition bool
	// IsExported marks a scope node as usable inside a scoped symbol.
	IsExported bool
}

// IsExportedScope returns whether the node is an exported scope node.
func (n *Node) IsExportedScope() bool { return n.Kind == KindScope && n.IsExported }

// IsRoot returns whether the node is the singleton root node.
func (n *Node) IsRoot() bool { return n.Kind == KindRoot }

// IsJumpTo returns whether the node is the singleton jump-to-scope node.
func (n *Node) IsJumpTo() bool { return n.Kind == KindJumpToScope }

// IsEndpoint reports whether the node can start or end a partial path stored
// in a database: references, definitions, exported scopes, and the root.
func (n *Node) IsEndpoint() bool {
	return n.IsDefinition || n.IsReference || n.IsExportedScope() || n.IsRoot()
}

// Degree is an abstract count of edges or paths: zero, one, or more than one.
type Degree uint8

const (
	DegreeZero Degree = iota
	DegreeOne
	DegreeMultiple
)

// Add combines two degrees.
func (d Degree) Add(rhs Degree) Degree {
	if d == DegreeZero {
		return rhs
	}
	if rhs == DegreeZero {
		return d
	}
	return DegreeMultiple
}

// Edge connects two nodes in a stack graph.
type Edge struct {
	Source     NodeHandle
	Sink       NodeHandle
	Precedence int32
}

type outgoingEdge struct {
	sink       NodeHandle
	precedence int32
}

// StackGraph contains all of the nodes and edges of a stack graph, along with
// the interners that back them.  A StackGraph is not safe for concurrent
// mutation; once construction is complete it may be shared read-only.
type StackGraph struct {
	symbols       []string
	symbolHandles map[string]Symbol

	strings       []string
	stringHandles map[string]String

	files       []string
	fileHandles map[string]File

	nodes       []Node
	nodeHandles map[NodeID]NodeHandle
	fileNodes   map[File][]NodeHandle
	nextLocalID map[File]uint32

	outgoingEdges  map[NodeHandle][]outgoingEdge
	incomingDegree map[NodeHandle]Degree

	sourceInfo    map[NodeHandle]*SourceInfo
	nodeDebugInfo map[NodeHandle]*DebugInfo
	edgeDebugInfo map[edgeKey]*DebugInfo
}

type edgeKey struct {
	source NodeHandle
	sink   NodeHandle
}

// NewStackGraph creates a new, initially empty stack graph containing only
// the singleton root and jump-to-scope nodes.
func NewStackGraph() *StackGraph {
	g := &StackGraph{
		symbolHandles:  make(map[string]Symbol),
		stringHandles:  make(map[string]String),
		fileHandles:    make(map[string]File),
		nodeHandles:    make(map[NodeID]NodeHandle),
		fileNodes:      make(map[File][]NodeHandle),
		nextLocalID:    make(map[File]uint32),
		outgoingEdges:  make(map[NodeHandle][]outgoingEdge),
		incomingDegree: make(map[NodeHandle]Degree),
		sourceInfo:     make(map[NodeHandle]*SourceInfo),
		nodeDebugInfo:  make(map[NodeHandle]*DebugInfo),
		edgeDebugInfo:  make(map[edgeKey]*DebugInfo),
	}
	g.nodes = append(g.nodes,
		Node{ID: RootNodeID(), Kind: KindRoot},
		Node{ID: JumpToNodeID(), Kind: KindJumpToScope},
	)
	g.nodeHandles[RootNodeID()] = RootNode
	g.nodeHandles[JumpToNodeID()] = JumpToNode
	return g
}

// AddSymbol interns a symbol, ensuring that there is only ever one copy of a
// particular symbol stored in the graph.
func (g *StackGraph) AddSymbol(symbol string) Symbol {
	if handle, ok := g.symbolHandles[symbol]; ok {
		return handle
	}
	handle := Symbol(len(g.symbols))
	g.symbols = append(g.symbols, symbol)
	g.symbolHandles[symbol] = handle
	return handle
}

// SymbolName returns the content of an interned symbol.
func (g *StackGraph) SymbolName(symbol Symbol) (string, error) {
	if int(symbol) >= len(g.symbols) {
		return "", &UninternedSymbolError{Symbol: symbol}
	}
	return g.symbols[symbol], nil
}

// Symbols returns the handles of all interned symbols, in interning order.
func (g *StackGraph) Symbols() []Symbol {
	handles := make([]Symbol, len(g.symbols))
	for i := range g.symbols {
		handles[i] = Symbol(i)
	}
	return handles
}

// AddString interns an auxiliary string.
func (g *StackGraph) AddString(value string) String {
	if handle, ok := g.stringHandles[value]; ok {
		return handle
	}
	handle := String(len(g.strings))
	g.strings = append(g.strings, value)
	g.stringHandles[value] = handle
	return handle
}

// StringValue returns the content of an interned string.
func (g *StackGraph) StringValue(handle String) string {
	return g.strings[handle]
}

// AddFile adds a file to the stack graph.  There can only ever be one file
// with a particular name; adding a second returns a DuplicateFileError along
// with the existing handle.
func (g *StackGraph) AddFile(name string) (File, error) {
	if handle, ok := g.fileHandles[name]; ok {
		return handle, &DuplicateFileError{Name: name}
	}
	handle := File(len(g.files) + 1)
	g.files = append(g.files, name)
	g.fileHandles[name] = handle
	return handle, nil
}

// GetOrCreateFile adds a file to the stack graph, returning the existing
// handle if the file is already present.
func (g *StackGraph) GetOrCreateFile(name string) File {
	handle, _ := g.AddFile(name)
	return handle
}

// GetFile returns the file with a particular name, if it exists.
func (g *StackGraph) GetFile(name string) (File, bool) {
	handle, ok := g.fileHandles[name]
	return handle, ok
}

// FileName returns the name of a file.
func (g *StackGraph) FileName(file File) string {
	return g.files[file-1]
}

// Files returns the handles of all files, in creation order.
func (g *StackGraph) Files() []File {
	handles := make([]File, len(g.files))
	for i := range g.files {
		handles[i] = File(i + 1)
	}
	return handles
}

// NewNodeID returns an unused NodeID in the given file.
func (g *StackGraph) NewNodeID(file File) NodeID {
	next := g.nextLocalID[file]
	if next < JumpToLocalID+1 {
		next = JumpToLocalID + 1
	}
	g.nextLocalID[file] = next + 1
	return NodeID{File: file, LocalID: next}
}

func (g *StackGraph) addNode(node Node) (NodeHandle, error) {
	if node.ID.File == NoFile {
		return 0, &InvalidNodeError{ID: node.ID, Reason: "node must belong to a file"}
	}
	if _, ok := g.nodeHandles[node.ID]; ok {
		return 0, &DuplicateNodeError{ID: node.ID}
	}
	handle := NodeHandle(len(g.nodes))
	g.nodes = append(g.nodes, node)
	g.nodeHandles[node.ID] = handle
	g.fileNodes[node.ID.File] = append(g.fileNodes[node.ID.File], handle)
	if next := g.nextLocalID[node.ID.File]; node.ID.LocalID >= next {
		g.nextLocalID[node.ID.File] = node.ID.LocalID + 1
	}
	return handle, nil
}

// AddScopeNode adds a scope node to the stack graph.
func (g *StackGraph) AddScopeNode(id NodeID, isExported bool) (NodeHandle, error) {
	return g.addNode(Node{ID: id, Kind: KindScope, IsExported: isExported})
}

// AddPushSymbolNode adds a push-symbol node to the stack graph.
func (g *StackGraph) AddPushSymbolNode(id NodeID, symbol Symbol, isReference bool) (NodeHandle, error) {
	return g.addNode(Node{ID: id, Kind: KindPushSymbol, Symbol: symbol, IsReference: isReference})
}

// AddPushScopedSymbolNode adds a push-scoped-symbol node to the stack graph.
// The scope ID must refer to an exported scope node.
func (g *StackGraph) AddPushScopedSymbolNode(id NodeID, symbol Symbol, scope NodeID, isReference bool) (NodeHandle, error) {
	return g.addNode(Node{ID: id, Kind: KindPushScopedSymbol, Symbol: symbol, Scope: scope, IsReference: isReference})
}

// AddPopSymbolNode adds a pop-symbol node to the stack graph.
func (g *StackGraph) AddPopSymbolNode(id NodeID, symbol Symbol, isDefinition bool) (NodeHandle, error) {
	return g.addNode(Node{ID: id, Kind: KindPopSymbol, Symbol: symbol, IsDefinition: isDefinition})
}

// AddPopScopedSymbolNode adds a pop-scoped-symbol node to the stack graph.
func (g *StackGraph) AddPopScopedSymbolNode(id NodeID, symbol Symbol, isDefinition bool) (NodeHandle, error) {
	return g.addNode(Node{ID: id, Kind: KindPopScopedSymbol, Symbol: symbol, IsDefinition: isDefinition})
}

// AddDropScopesNode adds a drop-scopes node to the stack graph.
func (g *StackGraph) AddDropScopesNode(id NodeID) (NodeHandle, error) {
	return g.addNode(Node{ID: id, Kind: KindDropScopes})
}

// Node returns the node for a handle.
func (g *StackGraph) Node(handle NodeHandle) (*Node, error) {
	if int(handle) >= len(g.nodes) {
		return nil, &UnknownNodeError{Handle: handle}
	}
	return &g.nodes[handle], nil
}

// MustNode returns the node for a handle that is known to be valid.  It
// panics on an unknown handle; use Node when the handle comes from outside
// the graph.
func (g *StackGraph) MustNode(handle NodeHandle) *Node {
	node, err := g.Node(handle)
	if err != nil {
		panic(err)
	}
	return node
}

// NodeForID returns the handle of the node with a particular ID, if it exists.
func (g *StackGraph) NodeForID(id NodeID) (NodeHandle, bool) {
	handle, ok := g.nodeHandles[id]
	return handle, ok
}

// Nodes returns the handles of all nodes, singletons first, then file nodes
// in creation order.
func (g *StackGraph) Nodes() []NodeHandle {
	handles := make([]NodeHandle, len(g.nodes))
	for i := range g.nodes {
		handles[i] = NodeHandle(i)
	}
	return handles
}

// NodesForFile returns the nodes belonging to a file, in creation order.  The
// singleton root and jump-to-scope nodes are not included.
func (g *StackGraph) NodesForFile(file File) []NodeHandle {
	nodes := g.fileNodes[file]
	out := make([]NodeHandle, len(nodes))
	copy(out, nodes)
	return out
}

// AddEdge adds a new edge to the stack graph.  Both endpoints must exist, and
// an edge between nodes of two different files must touch the root node on at
// least one end.  Adding the same (source, sink) pair again is a no-op.
func (g *StackGraph) AddEdge(source, sink NodeHandle, precedence int32) error {
	src, err := g.Node(source)
	if err != nil {
		return err
	}
	snk, err := g.Node(sink)
	if err != nil {
		return err
	}
	if src.ID.File != NoFile && snk.ID.File != NoFile && src.ID.File != snk.ID.File {
		return &InvalidEdgeError{Source: source, Sink: sink, Reason: "cross-file edge must touch the root node"}
	}
	edges := g.outgoingEdges[source]
	i := sort.Search(len(edges), func(i int) bool { return edges[i].sink >= sink })
	if i < len(edges) && edges[i].sink == sink {
		return nil
	}
	edges = append(edges, outgoingEdge{})
	copy(edges[i+1:], edges[i:])
	edges[i] = outgoingEdge{sink: sink, precedence: precedence}
	g.outgoingEdges[source] = edges
	g.incomingDegree[sink] = g.incomingDegree[sink].Add(DegreeOne)
	return nil
}

// SetEdgePrecedence updates the precedence of an existing edge.
func (g *StackGraph) SetEdgePrecedence(source, sink NodeHandle, precedence int32) {
	edges := g.outgoingEdges[source]
	i := sort.Search(len(edges), func(i int) bool { return edges[i].sink >= sink })
	if i < len(edges) && edges[i].sink == sink {
		edges[i].precedence = precedence
	}
}

// OutgoingEdges returns the edges that begin at a source node, ordered by
// precedence descending, then sink handle ascending.
func (g *StackGraph) OutgoingEdges(source NodeHandle) []Edge {
	stored := g.outgoingEdges[source]
	edges := make([]Edge, len(stored))
	for i, o := range stored {
		edges[i] = Edge{Source: source, Sink: o.sink, Precedence: o.precedence}
	}
	sort.SliceStable(edges, func(i, j int) bool {
		if edges[i].Precedence != edges[j].Precedence {
			return edges[i].Precedence > edges[j].Precedence
		}
		return edges[i].Sink < edges[j].Sink
	})
	return edges
}

// IncomingEdgeDegree returns the number of edges that end at a sink node, as
// a Degree.
func (g *StackGraph) IncomingEdgeDegree(sink NodeHandle) Degree {
	return g.incomingDegree[sink]
}
