// Package assert checks resolution expectations against a stack graph: that
// a reference resolves to an expected set of definitions.  Language test
// harnesses build assertions from annotated source files and run them against
// the graph and a partial-path database.
package assert

import (
	"fmt"
	"sort"
	"strings"

	"github.com/stackb/stackgraph/pkg/cancellation"
	"github.com/stackb/stackgraph/pkg/graph"
	"github.com/stackb/stackgraph/pkg/partial"
	"github.com/stackb/stackgraph/pkg/stitching"
)

// Assertion expects a reference to resolve to a particular set of
// definitions.
type Assertion struct {
	// Source is the reference node to resolve.
	Source graph.NodeHandle
	// ExpectedDefinitions are the definition nodes the reference must
	// resolve to, in any order.
	ExpectedDefinitions []graph.NodeHandle
}

// Error describes a failed assertion.
type Error struct {
	Source   graph.NodeHandle
	Expected []graph.NodeHandle
	Actual   []graph.NodeHandle
}

func (e *Error) Error() string {
	format := func(nodes []graph.NodeHandle) string {
		parts := make([]string, len(nodes))
		for i, node := range nodes {
			parts[i] = fmt.Sprintf("%d", node)
		}
		return "[" + strings.Join(parts, " ") + "]"
	}
	return fmt.Sprintf("reference %d resolved to %s, expected %s",
		e.Source, format(e.Actual), format(e.Expected))
}

// Run resolves the assertion's reference through the database and compares
// the resulting definitions against the expectation.
func (a *Assertion) Run(g *graph.StackGraph, db *stitching.Database, cancel cancellation.Flag) error {
	candidates := stitching.NewDatabaseCandidates(g, db)
	seen := make(map[graph.NodeHandle]bool)
	var actual []graph.NodeHandle
	_, err := stitching.FindAllCompletePartialPaths(candidates, []graph.NodeHandle{a.Source}, cancel, func(p *partial.PartialPath) {
		if !seen[p.EndNode] {
			seen[p.EndNode] = true
			actual = append(actual, p.EndNode)
		}
	})
	if err != nil {
		return err
	}

	expected := make([]graph.NodeHandle, len(a.ExpectedDefinitions))
	copy(expected, a.ExpectedDefinitions)
	sort.Slice(expected, func(i, j int) bool { return expected[i] < expected[j] })
	sort.Slice(actual, func(i, j int) bool { return actual[i] < actual[j] })

	if len(expected) != len(actual) {
		return &Error{Source: a.Source, Expected: expected, Actual: actual}
	}
	for i := range expected {
		if expected[i] != actual[i] {
			return &Error{Source: a.Source, Expected: expected, Actual: actual}
		}
	}
	return nil
}

// RunAll runs a set of assertions, returning every failure.
func RunAll(g *graph.StackGraph, db *stitching.Database, cancel cancellation.Flag, assertions []Assertion) []error {
	var failures []error
	for i := range assertions {
		if err := assertions[i].Run(g, db, cancel); err != nil {
			failures = append(failures, err)
		}
	}
	return failures
}
