package graph

// Position is a location within a source file, tracking the several column
// representations that editors and protocols disagree on.
type Position struct {
	// Line is the zero-based line number.
	Line int
	// Utf8Offset is the zero-based byte offset within the line.
	Utf8Offset int
	// Utf16Offset is the zero-based UTF-16 code unit offset within the line.
	Utf16Offset int
	// GraphemeOffset is the zero-based grapheme offset within the line.
	GraphemeOffset int
}

// Span is a range of positions within a source file.
type Span struct {
	Start Position
	End   Position
}

// IsEmpty returns whether both the start and end positions are the zero
// position.
func (s Span) IsEmpty() bool {
	return s.Start == Position{} && s.End == Position{}
}

// SourceInfo records information about the source code that a node
// represents.  The engine treats all of it as opaque.
type SourceInfo struct {
	// Span is the location of the source code this node represents.
	Span Span
	// SyntaxType is the kind of syntax entity this node represents (e.g.
	// "function", "class").  Zero if unset; check HasSyntaxType.
	SyntaxType    String
	HasSyntaxType bool
	// ContainingLine is the full content of the line containing this node.
	ContainingLine    String
	HasContainingLine bool
	// DefiniensSpan is the location of this node's definiens, e.g. the body
	// of a function rather than its name.
	DefiniensSpan Span
	// FullyQualifiedName captures the symbol's name with its embedded
	// context (e.g. "foo.bar" for "bar" defined in module "foo").
	FullyQualifiedName    String
	HasFullyQualifiedName bool
}

// SourceInfo returns the source info attached to a node, if any.
func (g *StackGraph) SourceInfo(node NodeHandle) *SourceInfo {
	return g.sourceInfo[node]
}

// SetSourceInfo attaches source info to a node, replacing any existing info.
func (g *StackGraph) SetSourceInfo(node NodeHandle, info *SourceInfo) {
	g.sourceInfo[node] = info
}

// DebugEntry is a key-value pair of interned strings.
type DebugEntry struct {
	Key   String
	Value String
}

// DebugInfo carries debug entries about a node or edge as opaque key-value
// pairs.
type DebugInfo struct {
	Entries []DebugEntry
}

// Add appends a debug entry.
func (d *DebugInfo) Add(key, value String) {
	d.Entries = append(d.Entries, DebugEntry{Key: key, Value: value})
}

// NodeDebugInfo returns the debug info attached to a node, if any.
func (g *StackGraph) NodeDebugInfo(node NodeHandle) *DebugInfo {
	return g.nodeDebugInfo[node]
}

// NodeDebugInfoMut returns the debug info attached to a node, creating it if
// necessary.
func (g *StackGraph) NodeDebugInfoMut(node NodeHandle) *DebugInfo {
	info := g.nodeDebugInfo[node]
	if info == nil {
		info = &DebugInfo{}
		g.nodeDebugInfo[node] = info
	}
	return info
}

// EdgeDebugInfo returns the debug info attached to an edge, if any.
func (g *StackGraph) EdgeDebugInfo(source, sink NodeHandle) *DebugInfo {
	return g.edgeDebugInfo[edgeKey{source: source, sink: sink}]
}

// EdgeDebugInfoMut returns the debug info attached to an edge, creating it if
// necessary.
func (g *StackGraph) EdgeDebugInfoMut(source, sink NodeHandle) *DebugInfo {
	key := edgeKey{source: source, sink: sink}
	info := g.edgeDebugInfo[key]
	if info == nil {
		info = &DebugInfo{}
		g.edgeDebugInfo[key] = info
	}
	return info
}
