// Package testutil carries helpers shared by the package tests.
package testutil

import (
	"testing"

	"github.com/davecgh/go-spew/spew"

	"github.com/stackb/stackgraph/pkg/graph"
	"github.com/stackb/stackgraph/pkg/partial"
)

// EqualError reports whether errors a and b are considered equal.
// They're equal if both are nil, or both are not nil and a.Error() == b.Error().
func EqualError(a, b error) bool {
	return a == nil && b == nil || a != nil && b != nil && a.Error() == b.Error()
}

// DumpPartialPath logs a spewed dump of a partial path, for debugging
// failing tests.
func DumpPartialPath(t *testing.T, p *partial.PartialPath) {
	t.Helper()
	t.Log(spew.Sdump(p))
}

// MustAddFile adds a file to a graph, failing the test on error.
func MustAddFile(t *testing.T, g *graph.StackGraph, name string) graph.File {
	t.Helper()
	file, err := g.AddFile(name)
	if err != nil {
		t.Fatal(err)
	}
	return file
}

// MustAddEdge adds an edge to a graph, failing the test on error.
func MustAddEdge(t *testing.T, g *graph.StackGraph, source, sink graph.NodeHandle, precedence int32) {
	t.Helper()
	if err := g.AddEdge(source, sink, precedence); err != nil {
		t.Fatal(err)
	}
}
