package paths

import (
	"errors"
	"testing"

	"github.com/stackb/stackgraph/pkg/graph"
)

func TestStackInterning(t *testing.T) {
	g := graph.NewStackGraph()
	ps := NewPaths()
	x := ScopedSymbol{Symbol: g.AddSymbol("x")}
	y := ScopedSymbol{Symbol: g.AddSymbol("y")}

	s1 := ps.PushSymbol(EmptySymbolStack, x)
	s2 := ps.PushSymbol(EmptySymbolStack, x)
	if s1 != s2 {
		t.Errorf("pushing equal symbols onto equal stacks: got %d and %d", s1, s2)
	}

	t1 := ps.PushSymbol(s1, y)
	t2 := ps.PushSymbol(s2, y)
	if t1 != t2 {
		t.Errorf("cons onto equal tails: got %d and %d", t1, t2)
	}

	u := ps.PushSymbol(ps.PushSymbol(EmptySymbolStack, y), x)
	if u == t1 {
		t.Errorf("different stacks interned to the same handle: %d", u)
	}

	if got := ps.SymbolStackLen(t1); got != 2 {
		t.Errorf("SymbolStackLen: got %d, want 2", got)
	}
	head, tail, ok := ps.PopSymbol(t1)
	if !ok || head != y || tail != s1 {
		t.Errorf("PopSymbol: got %+v, %d, %v", head, tail, ok)
	}
	if _, _, ok := ps.PopSymbol(EmptySymbolStack); ok {
		t.Error("PopSymbol on empty stack: want !ok")
	}
}

func TestScopeStackInterning(t *testing.T) {
	ps := NewPaths()

	s1 := ps.PushScope(EmptyScopeStack, graph.NodeHandle(3))
	s2 := ps.PushScope(EmptyScopeStack, graph.NodeHandle(3))
	if s1 != s2 {
		t.Errorf("pushing equal scopes: got %d and %d", s1, s2)
	}
	scope, tail, ok := ps.PopScope(s1)
	if !ok || scope != graph.NodeHandle(3) || tail != EmptyScopeStack {
		t.Errorf("PopScope: got %d, %d, %v", scope, tail, ok)
	}
}

// buildKernelGraph returns a graph with one node of each kind, wired so that
// the append semantics of each kind can be checked in isolation.
type kernelGraph struct {
	g     *graph.StackGraph
	ps    *Paths
	file  graph.File
	x     graph.Symbol
	ref   graph.NodeHandle // push "x", reference
	def   graph.NodeHandle // pop "x", definition
	scope graph.NodeHandle // plain scope
}

func buildKernelGraph(t *testing.T) *kernelGraph {
	t.Helper()
	g := graph.NewStackGraph()
	file, err := g.AddFile("test.py")
	if err != nil {
		t.Fatal(err)
	}
	k := &kernelGraph{g: g, ps: NewPaths(), file: file, x: g.AddSymbol("x")}
	if k.ref, err = g.AddPushSymbolNode(g.NewNodeID(file), k.x, true); err != nil {
		t.Fatal(err)
	}
	if k.def, err = g.AddPopSymbolNode(g.NewNodeID(file), k.x, true); err != nil {
		t.Fatal(err)
	}
	if k.scope, err = g.AddScopeNode(g.NewNodeID(file), false); err != nil {
		t.Fatal(err)
	}
	return k
}

func TestPathFromNode(t *testing.T) {
	k := buildKernelGraph(t)

	path, ok := PathFromNode(k.g, k.ps, k.ref)
	if !ok {
		t.Fatal("PathFromNode on push node: want ok")
	}
	if path.StartNode != k.ref || path.EndNode != k.ref {
		t.Errorf("endpoints: %d -> %d", path.StartNode, path.EndNode)
	}
	symbols := k.ps.SymbolStackSymbols(path.SymbolStack)
	if len(symbols) != 1 || symbols[0].Symbol != k.x || symbols[0].HasScopes {
		t.Errorf("seeded symbol stack: %+v", symbols)
	}
	if path.ScopeStack != EmptyScopeStack {
		t.Errorf("seeded scope stack not empty: %d", path.ScopeStack)
	}

	if _, ok := PathFromNode(k.g, k.ps, k.scope); ok {
		t.Error("PathFromNode on scope node: want !ok")
	}
}

func TestAppendPop(t *testing.T) {
	k := buildKernelGraph(t)
	k.g.AddEdge(k.ref, k.def, 0)

	path, _ := PathFromNode(k.g, k.ps, k.ref)
	extended, err := path.Append(k.g, k.ps, graph.Edge{Source: k.ref, Sink: k.def})
	if err != nil {
		t.Fatal(err)
	}
	if extended.SymbolStack != EmptySymbolStack {
		t.Errorf("symbol stack after pop: %d", extended.SymbolStack)
	}
	if !extended.IsComplete(k.g) {
		t.Error("path is not complete")
	}

	// Popping with an empty symbol stack is a dead end.
	if _, err := extended.Append(k.g, k.ps, graph.Edge{Source: k.def, Sink: k.def}); !errors.Is(err, ErrEmptySymbolStack) {
		t.Errorf("popping an empty symbol stack: got %v, want ErrEmptySymbolStack", err)
	}
	// An edge whose source is not the end node is rejected outright.
	if _, err := path.Append(k.g, k.ps, graph.Edge{Source: k.def, Sink: k.ref}); !errors.Is(err, ErrIncorrectSourceNode) {
		t.Errorf("append with wrong source: got %v, want ErrIncorrectSourceNode", err)
	}
}

func TestAppendPopMismatch(t *testing.T) {
	k := buildKernelGraph(t)
	y := k.g.AddSymbol("y")
	defY, _ := k.g.AddPopSymbolNode(k.g.NewNodeID(k.file), y, true)

	path, _ := PathFromNode(k.g, k.ps, k.ref)
	if _, err := path.Append(k.g, k.ps, graph.Edge{Source: k.ref, Sink: defY}); !errors.Is(err, ErrIncorrectPoppedSymbol) {
		t.Errorf("popping mismatched symbol: got %v, want ErrIncorrectPoppedSymbol", err)
	}
}

func TestAppendScopeAndDropScopes(t *testing.T) {
	k := buildKernelGraph(t)
	drop, _ := k.g.AddDropScopesNode(k.g.NewNodeID(k.file))

	path, _ := PathFromNode(k.g, k.ps, k.ref)
	viaScope, err := path.Append(k.g, k.ps, graph.Edge{Source: k.ref, Sink: k.scope})
	if err != nil {
		t.Fatal(err)
	}
	if viaScope.SymbolStack != path.SymbolStack || viaScope.ScopeStack != path.ScopeStack {
		t.Error("scope node changed the stacks")
	}

	dropped, err := viaScope.Append(k.g, k.ps, graph.Edge{Source: k.scope, Sink: drop})
	if err != nil {
		t.Fatal(err)
	}
	if dropped.ScopeStack != EmptyScopeStack {
		t.Error("drop-scopes left a non-empty scope stack")
	}
}

func TestScopedSymbolRoundTrip(t *testing.T) {
	g := graph.NewStackGraph()
	ps := NewPaths()
	file, _ := g.AddFile("test.py")
	f := g.AddSymbol("f")

	s1ID := g.NewNodeID(file)
	s1, _ := g.AddScopeNode(s1ID, true)
	ref, _ := g.AddPushScopedSymbolNode(g.NewNodeID(file), f, s1ID, true)
	def, _ := g.AddPopScopedSymbolNode(g.NewNodeID(file), f, true)

	path, ok := PathFromNode(g, ps, ref)
	if !ok {
		t.Fatal("PathFromNode failed")
	}
	symbols := ps.SymbolStackSymbols(path.SymbolStack)
	if len(symbols) != 1 || !symbols[0].HasScopes {
		t.Fatalf("seeded scoped symbol: %+v", symbols)
	}
	if got := ps.ScopeStackScopes(symbols[0].Scopes); len(got) != 1 || got[0] != s1 {
		t.Fatalf("attached scopes: %v", got)
	}

	popped, err := path.Append(g, ps, graph.Edge{Source: ref, Sink: def})
	if err != nil {
		t.Fatal(err)
	}
	if popped.SymbolStack != EmptySymbolStack {
		t.Error("symbol stack not empty after scoped pop")
	}
	if got := ps.ScopeStackScopes(popped.ScopeStack); len(got) != 1 || got[0] != s1 {
		t.Errorf("scope stack after scoped pop: %v", got)
	}

	// A jump-to-scope resolves to the attached scope.
	jumped, err := popped.Append(g, ps, graph.Edge{Source: def, Sink: graph.JumpToNode})
	if err != nil {
		t.Fatal(err)
	}
	jumped, err = jumped.Resolve(g, ps)
	if err != nil {
		t.Fatal(err)
	}
	if jumped.EndNode != s1 {
		t.Errorf("jump landed on %d, want %d", jumped.EndNode, s1)
	}
	if jumped.ScopeStack != EmptyScopeStack {
		t.Error("scope stack not empty after jump")
	}
}

func TestResolveEmptyScopeStack(t *testing.T) {
	k := buildKernelGraph(t)
	path, _ := PathFromNode(k.g, k.ps, k.ref)
	appended, err := path.Append(k.g, k.ps, graph.Edge{Source: k.ref, Sink: graph.JumpToNode})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := appended.Resolve(k.g, k.ps); !errors.Is(err, ErrEmptyScopeStack) {
		t.Errorf("jump with empty scope stack: got %v, want ErrEmptyScopeStack", err)
	}
}

func TestCycleKey(t *testing.T) {
	k := buildKernelGraph(t)
	path, _ := PathFromNode(k.g, k.ps, k.ref)
	other, _ := PathFromNode(k.g, k.ps, k.ref)
	if path.Key() != other.Key() {
		t.Error("identical states produced different cycle keys")
	}

	extended, err := path.Append(k.g, k.ps, graph.Edge{Source: k.ref, Sink: k.scope})
	if err != nil {
		t.Fatal(err)
	}
	if extended.Key() == path.Key() {
		t.Error("different end nodes produced the same cycle key")
	}
}

func TestPushScopedRequiresExportedScope(t *testing.T) {
	k := buildKernelGraph(t)
	// k.scope is not exported; pushing it as an attached scope is invalid.
	ref2, _ := k.g.AddPushScopedSymbolNode(k.g.NewNodeID(k.file), k.x, k.g.MustNode(k.scope).ID, true)

	path, _ := PathFromNode(k.g, k.ps, k.ref)
	if _, err := path.Append(k.g, k.ps, graph.Edge{Source: k.ref, Sink: ref2}); !errors.Is(err, ErrUnexportedScope) {
		t.Errorf("pushing unexported scope: got %v, want ErrUnexportedScope", err)
	}

	// An attached scope that doesn't exist at all is fatal.
	bogus, _ := k.g.AddPushScopedSymbolNode(k.g.NewNodeID(k.file), k.x, graph.NodeID{File: k.file, LocalID: 999}, true)
	_, err := path.Append(k.g, k.ps, graph.Edge{Source: k.ref, Sink: bogus})
	if !IsFatal(err) {
		t.Errorf("unknown attached scope: got %v, want fatal", err)
	}
}
