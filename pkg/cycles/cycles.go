// Package cycles detects and avoids cycles in the path-finding algorithms.
//
// Cycles in a stack graph can indicate many things: mutually recursive
// imports, recursion through function calls, or genuine infinite loops.  The
// search algorithms make cyclic graphs safe at the walk level, not the graph
// level: a concrete walk is cut off when it revisits a state it has already
// been in, and partial-path stitching is cut off when it keeps producing
// paths with identical pre- and postconditions.
package cycles

import (
	"github.com/stackb/stackgraph/pkg/graph"
	"github.com/stackb/stackgraph/pkg/partial"
)

// PathKey buckets partial paths that are candidates for being "similar": the
// same endpoints and the same pre- and postcondition shapes.
type PathKey struct {
	StartNode               graph.NodeHandle
	EndNode                 graph.NodeHandle
	SymbolPreconditionLen   int
	ScopePreconditionLen    int
	SymbolPostconditionLen  int
	ScopePostconditionLen   int
}

// KeyForPartialPath returns the similarity bucket for a partial path.
func KeyForPartialPath(p *partial.PartialPath) PathKey {
	return PathKey{
		StartNode:              p.StartNode,
		EndNode:                p.EndNode,
		SymbolPreconditionLen:  p.SymbolStackPrecondition.Len(),
		ScopePreconditionLen:   p.ScopeStackPrecondition.Len(),
		SymbolPostconditionLen: p.SymbolStackPostcondition.Len(),
		ScopePostconditionLen:  p.ScopeStackPostcondition.Len(),
	}
}

// SimilarPathDetector remembers the partial paths processed so far and
// rejects new paths that revisit old ground.  A path is rejected when an
// equal path (same endpoints, same pre- and postconditions) has already been
// processed, and also when too many shorter paths with smaller conditions
// exist between the same endpoints; the latter cuts off cycles that grow
// their conditions on every lap and so never produce an equal path.
type SimilarPathDetector struct {
	paths   map[PathKey][]*partial.PartialPath
	records map[NodePair][]partialRecord
}

type partialRecord struct {
	edgeCount    int
	conditionLen int
}

// NewSimilarPathDetector creates a new, empty detector.
func NewSimilarPathDetector() *SimilarPathDetector {
	return &SimilarPathDetector{
		paths:   make(map[PathKey][]*partial.PartialPath),
		records: make(map[NodePair][]partialRecord),
	}
}

// AddPath registers a path and reports whether the path-finding algorithm
// should skip it.  If the path is equal to one already seen it is skipped,
// unless it shadows the old one, in which case the old path is evicted and
// the new one kept.
func (d *SimilarPathDetector) AddPath(p *partial.PartialPath) bool {
	key := KeyForPartialPath(p)
	bucket := d.paths[key]
	i := 0
	for i < len(bucket) {
		other := bucket[i]
		if !p.Equals(other) {
			i++
			continue
		}
		if p.Shadows(other) {
			// The new path is better; evict the old one and keep scanning.
			bucket = append(bucket[:i], bucket[i+1:]...)
			continue
		}
		// The new path is equal or worse; skip it.
		d.paths[key] = bucket
		return true
	}
	d.paths[key] = append(bucket, p)

	pair := NodePair{StartNode: p.StartNode, EndNode: p.EndNode}
	record := partialRecord{
		edgeCount:    len(p.Edges),
		conditionLen: p.SymbolStackPrecondition.Len() + p.SymbolStackPostcondition.Len(),
	}
	similar := 0
	for _, other := range d.records[pair] {
		if other.edgeCount < record.edgeCount && other.conditionLen <= record.conditionLen {
			similar++
		}
	}
	d.records[pair] = append(d.records[pair], record)
	return similar > maxSimilarPathCount
}
