package stitching

import (
	"github.com/stackb/stackgraph/pkg/graph"
	"github.com/stackb/stackgraph/pkg/partial"
)

// Appendable is something that can be appended to a partial path: a graph
// edge, or another partial path.
type Appendable interface {
	// AppendTo extends a path with this appendable.  Resolving pending jump
	// nodes and renaming overlapping variables is part of this method's
	// responsibility.
	AppendTo(g *graph.StackGraph, path partial.PartialPath) (partial.PartialPath, error)
	// StartNode returns the node this appendable starts at.
	StartNode() graph.NodeHandle
	// EndNode returns the node this appendable ends at.
	EndNode() graph.NodeHandle
}

// EdgeAppendable wraps a graph edge as an Appendable.
type EdgeAppendable struct {
	Edge graph.Edge
}

// AppendTo implements Appendable.
func (e EdgeAppendable) AppendTo(g *graph.StackGraph, path partial.PartialPath) (partial.PartialPath, error) {
	resolved, err := path.ResolveToNode(g, e.Edge.Source)
	if err != nil {
		return partial.PartialPath{}, err
	}
	return resolved.Append(g, e.Edge)
}

// StartNode implements Appendable.
func (e EdgeAppendable) StartNode() graph.NodeHandle { return e.Edge.Source }

// EndNode implements Appendable.
func (e EdgeAppendable) EndNode() graph.NodeHandle { return e.Edge.Sink }

// PathAppendable wraps a database partial path as an Appendable.
type PathAppendable struct {
	Path *partial.PartialPath
}

// AppendTo implements Appendable.
func (a PathAppendable) AppendTo(g *graph.StackGraph, path partial.PartialPath) (partial.PartialPath, error) {
	resolved, err := path.ResolveToNode(g, a.Path.StartNode)
	if err != nil {
		return partial.PartialPath{}, err
	}
	resolved.EnsureNoOverlappingVariables(a.Path)
	return resolved.Concatenate(g, a.Path)
}

// StartNode implements Appendable.
func (a PathAppendable) StartNode() graph.NodeHandle { return a.Path.StartNode }

// EndNode implements Appendable.
func (a PathAppendable) EndNode() graph.NodeHandle { return a.Path.EndNode }

// ForwardCandidates finds the candidates that could extend a partial path
// during stitching.
type ForwardCandidates interface {
	// GetForwardCandidates returns the appendables compatible with the
	// given path's end state.
	GetForwardCandidates(path *partial.PartialPath) []Appendable
	// GetJoiningCandidateDegree returns how many candidates share the
	// path's end node as their own end node.
	GetJoiningCandidateDegree(path *partial.PartialPath) graph.Degree
	// Graph returns the stack graph backing this candidates instance.
	Graph() *graph.StackGraph
}

// GraphEdgeCandidates produces candidates straight from the graph's edges,
// optionally restricted to a single file.  Used when computing the partial
// paths of one file.
type GraphEdgeCandidates struct {
	graph *graph.StackGraph
	file  graph.File
}

// NewGraphEdgeCandidates creates a candidates instance over a graph's edges.
// A zero file means no file restriction.
func NewGraphEdgeCandidates(g *graph.StackGraph, file graph.File) *GraphEdgeCandidates {
	return &GraphEdgeCandidates{graph: g, file: file}
}

// GetForwardCandidates implements ForwardCandidates.
func (c *GraphEdgeCandidates) GetForwardCandidates(path *partial.PartialPath) []Appendable {
	edges := c.graph.OutgoingEdges(path.EndNode)
	out := make([]Appendable, 0, len(edges))
	for _, edge := range edges {
		if c.file != graph.NoFile && !c.graph.MustNode(edge.Sink).ID.IsInFile(c.file) {
			continue
		}
		out = append(out, EdgeAppendable{Edge: edge})
	}
	return out
}

// GetJoiningCandidateDegree implements ForwardCandidates.
func (c *GraphEdgeCandidates) GetJoiningCandidateDegree(path *partial.PartialPath) graph.Degree {
	return c.graph.IncomingEdgeDegree(path.EndNode)
}

// Graph implements ForwardCandidates.
func (c *GraphEdgeCandidates) Graph() *graph.StackGraph { return c.graph }

// DatabaseCandidates produces candidates from a database of partial paths.
// Used at query time.
type DatabaseCandidates struct {
	graph *graph.StackGraph
	db    *Database
}

// NewDatabaseCandidates creates a candidates instance over a database.
func NewDatabaseCandidates(g *graph.StackGraph, db *Database) *DatabaseCandidates {
	return &DatabaseCandidates{graph: g, db: db}
}

// GetForwardCandidates implements ForwardCandidates.
func (c *DatabaseCandidates) GetForwardCandidates(path *partial.PartialPath) []Appendable {
	handles := c.db.FindCandidatePaths(c.graph, path)
	out := make([]Appendable, 0, len(handles))
	for _, handle := range handles {
		candidate, err := c.db.Path(handle)
		if err != nil {
			continue
		}
		out = append(out, PathAppendable{Path: candidate})
	}
	return out
}

// GetJoiningCandidateDegree implements ForwardCandidates.
func (c *DatabaseCandidates) GetJoiningCandidateDegree(path *partial.PartialPath) graph.Degree {
	return c.db.IncomingPathDegree(path.EndNode)
}

// Graph implements ForwardCandidates.
func (c *DatabaseCandidates) Graph() *graph.StackGraph { return c.graph }
