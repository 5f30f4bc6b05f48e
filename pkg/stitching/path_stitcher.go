package stitching

import (
	"github.com/stackb/stackgraph/pkg/cancellation"
	"github.com/stackb/stackgraph/pkg/cycles"
	"github.com/stackb/stackgraph/pkg/graph"
	"github.com/stackb/stackgraph/pkg/paths"
)

// ForwardPathStitcher finds concrete paths by walking graph edges one at a
// time, starting from a set of seed nodes.  It is the ground-truth semantics
// that the partial-path stitcher must agree with.
//
// The algorithm runs in phases.  Each phase pops up to MaxWorkPerPhase walks
// from the queue and computes their legal single-edge extensions; extensions
// land on the queue for the next phase.  Between phases the caller can
// inspect the discovered paths, cancel, or simply keep going.
type ForwardPathStitcher struct {
	graph *graph.StackGraph
	paths *paths.Paths

	queue           []pathWalk
	detector        *cycles.PathDetector
	maxWorkPerPhase int
}

type pathWalk struct {
	path paths.Path
	// seen holds the cycle keys of every state this walk has been in.
	seen []paths.CycleKey
}

// NewForwardPathStitcher seeds a stitcher with length-0 walks at the given
// nodes.  Nodes that cannot start a path (anything but push nodes) are
// skipped.
func NewForwardPathStitcher(g *graph.StackGraph, ps *paths.Paths, nodes []graph.NodeHandle) *ForwardPathStitcher {
	s := &ForwardPathStitcher{graph: g, paths: ps, detector: cycles.NewPathDetector()}
	for _, node := range nodes {
		if path, ok := paths.PathFromNode(g, ps, node); ok {
			s.queue = append(s.queue, newPathWalk(path))
		}
	}
	return s
}

// NewForwardPathStitcherFromPaths seeds a stitcher with preconstructed
// paths, used for qualified-name queries where the seed carries a non-empty
// symbol stack to resolve.
func NewForwardPathStitcherFromPaths(g *graph.StackGraph, ps *paths.Paths, seeds []paths.Path) *ForwardPathStitcher {
	s := &ForwardPathStitcher{graph: g, paths: ps, detector: cycles.NewPathDetector()}
	for _, seed := range seeds {
		s.queue = append(s.queue, newPathWalk(seed))
	}
	return s
}

func newPathWalk(path paths.Path) pathWalk {
	return pathWalk{path: path, seen: []paths.CycleKey{path.Key()}}
}

// SetMaxWorkPerPhase bounds the number of walks processed during each phase.
// Zero or negative means no artificial bound.
func (s *ForwardPathStitcher) SetMaxWorkPerPhase(n int) {
	s.maxWorkPerPhase = n
}

// IsComplete returns whether the search space is exhausted.
func (s *ForwardPathStitcher) IsComplete() bool {
	return len(s.queue) == 0
}

// RunOnePhase processes up to MaxWorkPerPhase walks and returns every path
// discovered during the phase, in discovery order.  The cancellation flag is
// checked before each walk; once observed set, the phase returns early with a
// *cancellation.Error and the queue is left intact so the search can resume.
func (s *ForwardPathStitcher) RunOnePhase(cancel cancellation.Flag) ([]paths.Path, error) {
	work := len(s.queue)
	if s.maxWorkPerPhase > 0 && work > s.maxWorkPerPhase {
		work = s.maxWorkPerPhase
	}

	var discovered []paths.Path
	for i := 0; i < work; i++ {
		if err := cancel.Check("stitching paths"); err != nil {
			return discovered, err
		}
		w := s.queue[0]
		s.queue = s.queue[1:]
		extensions, err := s.extend(&w)
		if err != nil {
			return discovered, err
		}
		for _, ext := range extensions {
			discovered = append(discovered, ext.path)
			s.queue = append(s.queue, ext)
		}
	}
	return discovered, nil
}

// extend computes the legal, non-cyclic, non-shadowed extensions of a walk.
func (s *ForwardPathStitcher) extend(w *pathWalk) ([]pathWalk, error) {
	extensions, err := w.path.Extend(s.graph, s.paths)
	if err != nil {
		return nil, err
	}

	// Shadowing: among extensions that agree on the resulting stacks, only
	// those whose first divergent edge has the maximum precedence survive.
	// Edges are enumerated precedence-descending, so the first extension
	// seen for a state carries the winning precedence.
	type stateKey struct {
		symbolStack paths.SymbolStack
		scopeStack  paths.ScopeStack
	}
	best := make(map[stateKey]int32)
	var out []pathWalk
	for _, ext := range extensions {
		first := ext.Edges[len(w.path.Edges)]
		key := stateKey{symbolStack: ext.SymbolStack, scopeStack: ext.ScopeStack}
		if winner, ok := best[key]; ok && first.Precedence < winner {
			continue
		} else if !ok {
			best[key] = first.Precedence
		}

		if w.seenKey(ext.Key()) {
			continue
		}
		if !s.detector.ShouldProcess(&ext, s.paths) {
			continue
		}
		seen := make([]paths.CycleKey, len(w.seen)+1)
		copy(seen, w.seen)
		seen[len(w.seen)] = ext.Key()
		out = append(out, pathWalk{path: ext, seen: seen})
	}
	return out, nil
}

func (w *pathWalk) seenKey(key paths.CycleKey) bool {
	for _, k := range w.seen {
		if k == key {
			return true
		}
	}
	return false
}

// FindAllPaths finds every path reachable from the seed nodes, calling visit
// for each one, seeds included.  The graph must be fully built; the function
// runs phases until the search space is exhausted or the flag cancels it.
func FindAllPaths(g *graph.StackGraph, ps *paths.Paths, nodes []graph.NodeHandle, cancel cancellation.Flag, visit func(paths.Path)) error {
	stitcher := NewForwardPathStitcher(g, ps, nodes)
	for _, w := range stitcher.queue {
		visit(w.path)
	}
	for !stitcher.IsComplete() {
		discovered, err := stitcher.RunOnePhase(cancel)
		for _, path := range discovered {
			visit(path)
		}
		if err != nil {
			return err
		}
	}
	return nil
}
