package stitching

import (
	"github.com/stackb/stackgraph/pkg/cancellation"
	"github.com/stackb/stackgraph/pkg/cycles"
	"github.com/stackb/stackgraph/pkg/graph"
	"github.com/stackb/stackgraph/pkg/partial"
)

// Stats collects counters about a stitching run.
type Stats struct {
	// InitialPaths is the number of seed paths.
	InitialPaths int
	// Phases is the number of phases run.
	Phases int
	// ProcessedPaths is the number of paths popped from the queue.
	ProcessedPaths int
	// Candidates is the number of candidates considered.
	Candidates int
	// Extensions is the number of successful extensions.
	Extensions int
	// AcceptedPaths is the number of paths accepted by the run-to-completion
	// drivers.
	AcceptedPaths int
}

// ForwardPartialPathStitcher extends partial paths by concatenating
// compatible partial paths (or graph edges) onto their ends, in bounded
// phases.
//
// At the start of each phase there is a current set of partial paths to
// process.  Extensions found while processing them become the next phase's
// set.  Between phases the caller can inspect the new paths with
// PreviousPhasePartialPaths, which is also the opportunity to load any
// additional partial paths into the database that the next phase might need.
type ForwardPartialPathStitcher struct {
	queue []partialWalk
	next  []partialWalk

	similar            *cycles.SimilarPathDetector
	checkOnlyJoinNodes bool
	maxWorkPerPhase    int
	initialPathsQueued int
	stats              Stats
}

type partialWalk struct {
	path partial.PartialPath
	// hasSplit records whether any ancestor of this walk had more than one
	// extension; similarity checking only matters after a split.
	hasSplit bool
}

// NewForwardPartialPathStitcher seeds a stitcher with a set of initial
// partial paths.  If the stitcher is used to find complete paths, the caller
// is responsible for eliminating precondition stack variables on the seeds.
func NewForwardPartialPathStitcher(g *graph.StackGraph, seeds []partial.PartialPath) *ForwardPartialPathStitcher {
	s := &ForwardPartialPathStitcher{
		similar: cycles.NewSimilarPathDetector(),
	}
	for _, seed := range seeds {
		s.next = append(s.next, partialWalk{path: seed})
	}
	s.initialPathsQueued = len(s.next)
	s.stats.InitialPaths = len(s.next)
	return s
}

// SetSimilarPathDetection enables or disables similar path detection.
// Similar paths (same endpoints and conditions) can lead to exponential
// blow-up during stitching; detection is enabled by default.
func (s *ForwardPartialPathStitcher) SetSimilarPathDetection(detect bool) {
	if !detect {
		s.similar = nil
	} else if s.similar == nil {
		s.similar = cycles.NewSimilarPathDetector()
	}
}

// SetCheckOnlyJoinNodes restricts similarity checking to nodes with multiple
// incoming candidates.  This is only safe when the database is stable across
// all phases; with paths loaded dynamically between phases it can lead to
// non-termination.
func (s *ForwardPartialPathStitcher) SetCheckOnlyJoinNodes(checkOnlyJoinNodes bool) {
	s.checkOnlyJoinNodes = checkOnlyJoinNodes
}

// SetMaxWorkPerPhase bounds the work done during each phase, counted as the
// number of candidates considered: the phase stops after the path whose
// candidates bring the count to n or more.  Zero or negative means no
// artificial bound.
func (s *ForwardPartialPathStitcher) SetMaxWorkPerPhase(n int) {
	s.maxWorkPerPhase = n
}

// Stats returns the counters collected so far.
func (s *ForwardPartialPathStitcher) Stats() Stats { return s.stats }

// IsComplete returns whether the search space is exhausted.
func (s *ForwardPartialPathStitcher) IsComplete() bool {
	return len(s.queue) == 0 && len(s.next) == 0
}

// PreviousPhasePartialPaths returns the partial paths discovered during the
// most recent phase; they will be processed in the next phase.
func (s *ForwardPartialPathStitcher) PreviousPhasePartialPaths() []partial.PartialPath {
	out := make([]partial.PartialPath, len(s.next))
	for i, w := range s.next {
		out[i] = w.path
	}
	return out
}

// RunOnePhase runs the next phase of the algorithm.  Before calling, the
// candidates instance must already cover every appendable that the paths
// from the previous phase might extend with.  The extendWhile callback
// controls whether a non-seed path is extended further; the flag is checked
// before each path and cancels the phase early, leaving the queue intact.
func (s *ForwardPartialPathStitcher) RunOnePhase(c ForwardCandidates, cancel cancellation.Flag, extendWhile func(*partial.PartialPath) bool) error {
	if err := cancel.Check("stitching partial paths"); err != nil {
		return err
	}
	s.queue = append(s.queue, s.next...)
	s.next = nil
	s.stats.Phases++

	workPerformed := 0
	for len(s.queue) > 0 {
		if err := cancel.Check("stitching partial paths"); err != nil {
			return err
		}
		w := s.queue[0]
		s.queue = s.queue[1:]
		s.stats.ProcessedPaths++

		if s.initialPathsQueued > 0 {
			s.initialPathsQueued--
		} else if extendWhile != nil && !extendWhile(&w.path) {
			continue
		}

		workPerformed += s.extend(c, &w)
		if s.maxWorkPerPhase > 0 && workPerformed >= s.maxWorkPerPhase {
			break
		}
	}
	return nil
}

// extend appends every compatible candidate to the walk's path, queueing the
// successful extensions for the next phase.  Returns the number of
// candidates considered.
func (s *ForwardPartialPathStitcher) extend(c ForwardCandidates, w *partialWalk) int {
	g := c.Graph()
	candidates := c.GetForwardCandidates(&w.path)
	s.stats.Candidates += len(candidates)

	extensions := make([]partial.PartialPath, 0, len(candidates))
	for _, candidate := range candidates {
		// An extension that fails to append or unify is not a fatal error;
		// the candidate simply does not apply.
		extended, err := candidate.AppendTo(g, w.path)
		if err != nil {
			continue
		}
		extensions = append(extensions, extended)
	}
	s.stats.Extensions += len(extensions)

	hasSplit := w.hasSplit || len(extensions) > 1
	for i := range extensions {
		ext := extensions[i]
		// Cyclic walks can bypass split points entirely, so the detector is
		// also consulted for paths that return to their own start node or
		// end at a join node.
		checkSimilar := hasSplit ||
			ext.StartNode == ext.EndNode ||
			!s.checkOnlyJoinNodes ||
			c.GetJoiningCandidateDegree(&ext) == graph.DegreeMultiple
		if checkSimilar && s.similar != nil && s.similar.AddPath(&ext) {
			continue
		}
		s.next = append(s.next, partialWalk{path: ext, hasSplit: hasSplit})
	}
	return len(candidates)
}

// asCompleteAsNecessary reports whether a partial path is one of the
// join-relevant fragments worth storing in a database: it starts at an
// endpoint and ends at an endpoint or in a pending jump.
func asCompleteAsNecessary(g *graph.StackGraph, p *partial.PartialPath) bool {
	return p.StartsAtEndpoint(g) && (p.EndsAtEndpoint(g) || p.EndsInJump(g))
}

// ComputePartialPathsForFile enumerates a minimal set of partial paths for
// one file, calling visit for each.  The set is minimal in that no element
// can be built by stitching other elements together, and it covers every
// complete path through the file when used for stitching.  Edges that leave
// the file are not followed.
func ComputePartialPathsForFile(g *graph.StackGraph, file graph.File, cancel cancellation.Flag, visit func(*partial.PartialPath)) (Stats, error) {
	var seeds []partial.PartialPath
	nodes := append(g.NodesForFile(file), graph.RootNode)
	for _, node := range nodes {
		if !g.MustNode(node).IsEndpoint() {
			continue
		}
		seed, err := partial.FromNode(g, node)
		if err != nil {
			return Stats{}, err
		}
		seeds = append(seeds, seed)
	}

	stitcher := NewForwardPartialPathStitcher(g, seeds)
	stitcher.SetCheckOnlyJoinNodes(true)
	candidates := NewGraphEdgeCandidates(g, file)

	for !stitcher.IsComplete() {
		if err := cancel.Check("finding file partial paths"); err != nil {
			return stitcher.Stats(), err
		}
		err := stitcher.RunOnePhase(candidates, cancel, func(p *partial.PartialPath) bool {
			return !asCompleteAsNecessary(g, p)
		})
		if err != nil {
			return stitcher.Stats(), err
		}
		for i := range stitcher.next {
			path := &stitcher.next[i].path
			if asCompleteAsNecessary(g, path) {
				stitcher.stats.AcceptedPaths++
				visit(path)
			}
		}
	}
	return stitcher.Stats(), nil
}

// FindAllCompletePartialPaths finds every complete partial path reachable
// from the starting nodes by stitching together candidates, calling visit
// for each that no other complete path shadows; shadowed paths are not
// visited.  The candidates instance must already contain every partial path
// that might be needed; for lazy loading, drive RunOnePhase manually
// instead.
func FindAllCompletePartialPaths(c ForwardCandidates, startingNodes []graph.NodeHandle, cancel cancellation.Flag, visit func(*partial.PartialPath)) (Stats, error) {
	g := c.Graph()
	var seeds []partial.PartialPath
	for _, node := range startingNodes {
		if !g.MustNode(node).IsReference {
			continue
		}
		seed, err := partial.FromNode(g, node)
		if err != nil {
			return Stats{}, err
		}
		seed.EliminatePreconditionStackVariables()
		seeds = append(seeds, seed)
	}

	stitcher := NewForwardPartialPathStitcher(g, seeds)
	stitcher.SetCheckOnlyJoinNodes(true)

	var complete []partial.PartialPath
	for !stitcher.IsComplete() {
		if err := cancel.Check("finding complete partial paths"); err != nil {
			return stitcher.Stats(), err
		}
		if err := stitcher.RunOnePhase(c, cancel, nil); err != nil {
			return stitcher.Stats(), err
		}
		for i := range stitcher.next {
			path := &stitcher.next[i].path
			if path.IsComplete(g) {
				complete = append(complete, *path)
			}
		}
	}

	// Shadowing: a complete path whose first divergent edge lost on
	// precedence is eclipsed by the winner.
	for i := range complete {
		shadowed := false
		for j := range complete {
			if i != j && complete[j].Shadows(&complete[i]) {
				shadowed = true
				break
			}
		}
		if shadowed {
			continue
		}
		stitcher.stats.AcceptedPaths++
		visit(&complete[i])
	}
	return stitcher.Stats(), nil
}
