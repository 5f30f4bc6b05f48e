package cycles

import (
	"github.com/stackb/stackgraph/pkg/graph"
	"github.com/stackb/stackgraph/pkg/paths"
)

// maxSimilarPathCount bounds how many "similar but longer" walks between the
// same pair of nodes the search will process.  A cycle that keeps growing the
// symbol stack produces a fresh state on every lap, so exact state keys alone
// cannot terminate it; this heuristic cuts such walks off.
const maxSimilarPathCount = 4

// NodePair buckets walks by their endpoints.
type NodePair struct {
	StartNode graph.NodeHandle
	EndNode   graph.NodeHandle
}

type pathRecord struct {
	edgeCount int
	symbolLen int
}

// PathDetector decides whether a concrete walk is worth processing, cutting
// off walks that have too many shorter siblings with smaller symbol stacks
// between the same endpoints.
type PathDetector struct {
	paths map[NodePair][]pathRecord
}

// NewPathDetector creates a new, empty detector.
func NewPathDetector() *PathDetector {
	return &PathDetector{paths: make(map[NodePair][]pathRecord)}
}

// ShouldProcess registers a walk and reports whether the path-finding
// algorithm should continue extending it.
func (d *PathDetector) ShouldProcess(p *paths.Path, ps *paths.Paths) bool {
	key := NodePair{StartNode: p.StartNode, EndNode: p.EndNode}
	record := pathRecord{
		edgeCount: len(p.Edges),
		symbolLen: ps.SymbolStackLen(p.SymbolStack),
	}
	bucket := d.paths[key]
	similar := 0
	for _, other := range bucket {
		if other.edgeCount < record.edgeCount && other.symbolLen <= record.symbolLen {
			similar++
		}
	}
	d.paths[key] = append(bucket, record)
	return similar <= maxSimilarPathCount
}
