package graph

import "fmt"

// DuplicateNodeError is returned when a node with the same (file, local ID)
// pair already exists in the graph.
type DuplicateNodeError struct {
	ID NodeID
}

func (e *DuplicateNodeError) Error() string {
	return fmt.Sprintf("duplicate node: file=%d local_id=%d", e.ID.File, e.ID.LocalID)
}

// DuplicateFileError is returned when a file with the same name already
// exists in the graph.
type DuplicateFileError struct {
	Name string
}

func (e *DuplicateFileError) Error() string {
	return fmt.Sprintf("duplicate file: %q", e.Name)
}

// UnknownNodeError is returned when a node handle does not refer to any node
// in the graph.
type UnknownNodeError struct {
	Handle NodeHandle
}

func (e *UnknownNodeError) Error() string {
	return fmt.Sprintf("unknown node: %d", e.Handle)
}

// InvalidNodeError is returned when a node cannot be added to the graph.
type InvalidNodeError struct {
	ID     NodeID
	Reason string
}

func (e *InvalidNodeError) Error() string {
	return fmt.Sprintf("invalid node (file=%d local_id=%d): %s", e.ID.File, e.ID.LocalID, e.Reason)
}

// InvalidEdgeError is returned when an edge violates a graph invariant.
type InvalidEdgeError struct {
	Source NodeHandle
	Sink   NodeHandle
	Reason string
}

func (e *InvalidEdgeError) Error() string {
	return fmt.Sprintf("invalid edge %d -> %d: %s", e.Source, e.Sink, e.Reason)
}

// UninternedSymbolError is returned when a symbol handle does not refer to
// any interned symbol.
type UninternedSymbolError struct {
	Symbol Symbol
}

func (e *UninternedSymbolError) Error() string {
	return fmt.Sprintf("uninterned symbol: %d", e.Symbol)
}
