// Package index persists the per-file output of the indexing phase: the
// node/edge set of a file's graph and the partial paths computed from it,
// keyed by the sha256 of the file content they were derived from.  The
// encoding is canonical JSON: loading a file and writing it back reproduces
// the same bytes.
package index

// FileIndex describes everything the engine derived from a single source
// file.
type FileIndex struct {
	// Filename is the name of the source file.
	Filename string `json:"filename,omitempty"`
	// Sha256 is the sha256 hash of the file contents the index was computed
	// from.  A stored index is stale when the hash no longer matches.
	Sha256 string `json:"sha256,omitempty"`
	// Nodes is the list of stack graph nodes in the file.
	Nodes []*NodeSpec `json:"nodes,omitempty"`
	// Edges is the list of edges whose source is in the file, plus the edges
	// from the root node into the file.
	Edges []*EdgeSpec `json:"edges,omitempty"`
	// PartialPaths is the list of partial paths computed for the file.
	PartialPaths []*PartialPathSpec `json:"partialPaths,omitempty"`
	// LocalNodes is the list of local IDs of nodes that no partial path
	// connects to the root node.
	LocalNodes []uint32 `json:"localNodes,omitempty"`
}

// NodeIDSpec names a node by file and local ID.  An empty file denotes the
// singleton root (local ID 1) and jump-to-scope (local ID 2) nodes.
type NodeIDSpec struct {
	File    string `json:"file,omitempty"`
	LocalID uint32 `json:"localId"`
}

// NodeSpec describes one node.
type NodeSpec struct {
	// LocalID is the node's ID within its file.
	LocalID uint32 `json:"localId"`
	// Type is the node kind, e.g. "push_symbol" or "scope".
	Type string `json:"type"`
	// Symbol is the node's symbol, for push and pop nodes.
	Symbol string `json:"symbol,omitempty"`
	// Scope is the attached scope of a push-scoped-symbol node.
	Scope *NodeIDSpec `json:"scope,omitempty"`
	// IsReference marks push nodes that represent references.
	IsReference bool `json:"isReference,omitempty"`
	// IsDefinition marks pop nodes that represent definitions.
	IsDefinition bool `json:"isDefinition,omitempty"`
	// IsExported marks exported scope nodes.
	IsExported bool `json:"isExported,omitempty"`
	// SourceInfo is the node's source info, if any.
	SourceInfo *SourceInfoSpec `json:"sourceInfo,omitempty"`
	// DebugInfo is the node's debug info, if any.
	DebugInfo []*DebugEntrySpec `json:"debugInfo,omitempty"`
}

// EdgeSpec describes one edge.
type EdgeSpec struct {
	Source     NodeIDSpec        `json:"source"`
	Sink       NodeIDSpec        `json:"sink"`
	Precedence int32             `json:"precedence,omitempty"`
	DebugInfo  []*DebugEntrySpec `json:"debugInfo,omitempty"`
}

// PositionSpec describes a position within a source file.
type PositionSpec struct {
	Line           int `json:"line"`
	Utf8Offset     int `json:"utf8Offset"`
	Utf16Offset    int `json:"utf16Offset"`
	GraphemeOffset int `json:"graphemeOffset"`
}

// SpanSpec describes a source range.
type SpanSpec struct {
	Start PositionSpec `json:"start"`
	End   PositionSpec `json:"end"`
}

// SourceInfoSpec describes a node's source info.
type SourceInfoSpec struct {
	Span               *SpanSpec `json:"span,omitempty"`
	SyntaxType         string    `json:"syntaxType,omitempty"`
	ContainingLine     string    `json:"containingLine,omitempty"`
	DefiniensSpan      *SpanSpec `json:"definiensSpan,omitempty"`
	FullyQualifiedName string    `json:"fullyQualifiedName,omitempty"`
}

// DebugEntrySpec is one key-value debug pair.
type DebugEntrySpec struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// PartialPathSpec describes one partial path.
type PartialPathSpec struct {
	StartNode                NodeIDSpec      `json:"startNode"`
	EndNode                  NodeIDSpec      `json:"endNode"`
	SymbolStackPrecondition  SymbolStackSpec `json:"symbolStackPrecondition"`
	SymbolStackPostcondition SymbolStackSpec `json:"symbolStackPostcondition"`
	ScopeStackPrecondition   ScopeStackSpec  `json:"scopeStackPrecondition"`
	ScopeStackPostcondition  ScopeStackSpec  `json:"scopeStackPostcondition"`
	Edges                    []*PathEdgeSpec `json:"edges,omitempty"`
}

// SymbolStackSpec describes a partial symbol stack pattern.
type SymbolStackSpec struct {
	Symbols []*ScopedSymbolSpec `json:"symbols,omitempty"`
	// Variable is the trailing symbol stack variable; zero means none.
	Variable uint32 `json:"variable,omitempty"`
}

// ScopedSymbolSpec describes one element of a symbol stack pattern.
type ScopedSymbolSpec struct {
	Symbol string `json:"symbol"`
	// Scopes is the attached scope stack pattern, or nil for a plain symbol.
	Scopes *ScopeStackSpec `json:"scopes,omitempty"`
}

// ScopeStackSpec describes a partial scope stack pattern.
type ScopeStackSpec struct {
	Scopes []NodeIDSpec `json:"scopes,omitempty"`
	// Variable is the trailing scope stack variable; zero means none.
	Variable uint32 `json:"variable,omitempty"`
}

// PathEdgeSpec describes one step of a partial path.
type PathEdgeSpec struct {
	Source     NodeIDSpec `json:"source"`
	Precedence int32      `json:"precedence,omitempty"`
}
