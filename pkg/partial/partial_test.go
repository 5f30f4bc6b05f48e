package partial

import (
	"errors"
	"testing"

	"github.com/stackb/stackgraph/pkg/graph"
)

type testGraph struct {
	g    *graph.StackGraph
	file graph.File
	x    graph.Symbol
	ref  graph.NodeHandle // push "x", reference
	def  graph.NodeHandle // pop "x", definition
}

func buildTestGraph(t *testing.T) *testGraph {
	t.Helper()
	g := graph.NewStackGraph()
	file, err := g.AddFile("test.py")
	if err != nil {
		t.Fatal(err)
	}
	tg := &testGraph{g: g, file: file, x: g.AddSymbol("x")}
	if tg.ref, err = g.AddPushSymbolNode(g.NewNodeID(file), tg.x, true); err != nil {
		t.Fatal(err)
	}
	if tg.def, err = g.AddPopSymbolNode(g.NewNodeID(file), tg.x, true); err != nil {
		t.Fatal(err)
	}
	return tg
}

func TestFromNodePush(t *testing.T) {
	tg := buildTestGraph(t)

	p, err := FromNode(tg.g, tg.ref)
	if err != nil {
		t.Fatal(err)
	}
	// The precondition stays fully open; the postcondition carries the
	// pushed symbol.
	if !p.SymbolStackPrecondition.HasVariable() || p.SymbolStackPrecondition.ContainsSymbols() {
		t.Errorf("precondition: %+v", p.SymbolStackPrecondition)
	}
	post := p.SymbolStackPostcondition.Symbols()
	if len(post) != 1 || post[0].Symbol != tg.x || post[0].HasScopes {
		t.Errorf("postcondition symbols: %+v", post)
	}
	if !p.SymbolStackPostcondition.HasVariable() {
		t.Error("postcondition lost its variable")
	}
}

func TestFromNodePop(t *testing.T) {
	tg := buildTestGraph(t)

	p, err := FromNode(tg.g, tg.def)
	if err != nil {
		t.Fatal(err)
	}
	// Popping from an open postcondition pushes the requirement into the
	// precondition instead.
	pre := p.SymbolStackPrecondition.Symbols()
	if len(pre) != 1 || pre[0].Symbol != tg.x {
		t.Errorf("precondition symbols: %+v", pre)
	}
	if p.SymbolStackPostcondition.ContainsSymbols() {
		t.Errorf("postcondition symbols: %+v", p.SymbolStackPostcondition.Symbols())
	}
}

func TestAppendPushThenPop(t *testing.T) {
	tg := buildTestGraph(t)
	tg.g.AddEdge(tg.ref, tg.def, 0)

	p, err := FromNode(tg.g, tg.ref)
	if err != nil {
		t.Fatal(err)
	}
	extended, err := p.Append(tg.g, graph.Edge{Source: tg.ref, Sink: tg.def})
	if err != nil {
		t.Fatal(err)
	}
	if extended.SymbolStackPostcondition.ContainsSymbols() {
		t.Errorf("postcondition after push/pop: %+v", extended.SymbolStackPostcondition.Symbols())
	}
	if len(extended.Edges) != 1 {
		t.Errorf("edges: %+v", extended.Edges)
	}
	// The original path is untouched.
	if !p.SymbolStackPostcondition.ContainsSymbols() {
		t.Error("append modified its receiver")
	}
}

func TestAppendPopMismatch(t *testing.T) {
	tg := buildTestGraph(t)
	y := tg.g.AddSymbol("y")
	defY, _ := tg.g.AddPopSymbolNode(tg.g.NewNodeID(tg.file), y, true)

	p, _ := FromNode(tg.g, tg.ref)
	if _, err := p.Append(tg.g, graph.Edge{Source: tg.ref, Sink: defY}); !errors.Is(err, ErrIncorrectPoppedSymbol) {
		t.Errorf("mismatched pop: got %v, want ErrIncorrectPoppedSymbol", err)
	}
}

func TestIsCompleteAfterEliminatingVariables(t *testing.T) {
	tg := buildTestGraph(t)

	p, _ := FromNode(tg.g, tg.ref)
	p.EliminatePreconditionStackVariables()
	if !p.SymbolStackPrecondition.CanOnlyMatchEmpty() {
		t.Errorf("precondition after elimination: %+v", p.SymbolStackPrecondition)
	}

	extended, err := p.Append(tg.g, graph.Edge{Source: tg.ref, Sink: tg.def})
	if err != nil {
		t.Fatal(err)
	}
	if !extended.IsComplete(tg.g) {
		t.Error("push/pop path with closed precondition is not complete")
	}
}

func TestIsDivergent(t *testing.T) {
	tg := buildTestGraph(t)

	root, err := FromNode(tg.g, graph.RootNode)
	if err != nil {
		t.Fatal(err)
	}
	if !root.IsDivergent(tg.g) {
		t.Error("bare root path is not divergent")
	}

	// A root path that consumes a symbol has the symbol in its
	// precondition, so it is not divergent.
	viaDef, err := root.Append(tg.g, graph.Edge{Source: graph.RootNode, Sink: tg.def})
	if err != nil {
		t.Fatal(err)
	}
	if viaDef.IsDivergent(tg.g) {
		t.Error("root path with symbol precondition is divergent")
	}

	// A file-local path is never divergent.
	refPath, _ := FromNode(tg.g, tg.ref)
	if refPath.IsDivergent(tg.g) {
		t.Error("file-local path is divergent")
	}
}

func TestShadows(t *testing.T) {
	id := func(local uint32) graph.NodeID { return graph.NodeID{File: 1, LocalID: local} }
	strong := &PartialPath{Edges: []PathEdge{{SourceNodeID: id(3), Precedence: 1}}}
	weak := &PartialPath{Edges: []PathEdge{{SourceNodeID: id(3), Precedence: 0}}}
	other := &PartialPath{Edges: []PathEdge{{SourceNodeID: id(4), Precedence: 5}}}

	if !strong.Shadows(weak) {
		t.Error("higher precedence does not shadow")
	}
	if weak.Shadows(strong) {
		t.Error("lower precedence shadows")
	}
	if strong.Shadows(other) {
		t.Error("paths from different nodes shadow")
	}
}

func TestEnsureNoOverlappingVariables(t *testing.T) {
	tg := buildTestGraph(t)

	a, _ := FromNode(tg.g, tg.ref)
	b, _ := FromNode(tg.g, tg.def)
	b.EnsureNoOverlappingVariables(&a)

	if a.SymbolStackPrecondition.Variable() == b.SymbolStackPrecondition.Variable() {
		t.Error("symbol stack variables still overlap")
	}
	if a.ScopeStackPrecondition.Variable() == b.ScopeStackPrecondition.Variable() {
		t.Error("scope stack variables still overlap")
	}
}

func TestResolveToNode(t *testing.T) {
	g := graph.NewStackGraph()
	file, _ := g.AddFile("test.py")
	f := g.AddSymbol("f")

	s1ID := g.NewNodeID(file)
	s1, _ := g.AddScopeNode(s1ID, true)
	def, _ := g.AddPopScopedSymbolNode(g.NewNodeID(file), f, true)

	// A path through a scoped pop ends with an open attached-scope
	// variable; jumping leaves a pending jump until the scope is known.
	p, err := FromNode(g, def)
	if err != nil {
		t.Fatal(err)
	}
	jumped, err := p.Append(g, graph.Edge{Source: def, Sink: graph.JumpToNode})
	if err != nil {
		t.Fatal(err)
	}
	if !jumped.EndsInJump(g) {
		t.Fatal("jump resolved without a concrete scope")
	}

	resolved, err := jumped.ResolveToNode(g, s1)
	if err != nil {
		t.Fatal(err)
	}
	if resolved.EndNode != s1 {
		t.Errorf("resolved end node: %d, want %d", resolved.EndNode, s1)
	}
	// The precondition now requires s1 on the attached scope stack.
	pre := resolved.SymbolStackPrecondition.Symbols()
	if len(pre) != 1 || !pre[0].HasScopes {
		t.Fatalf("precondition symbols: %+v", pre)
	}
	scopes := pre[0].Scopes.Scopes()
	if len(scopes) != 1 || scopes[0] != s1 {
		t.Errorf("attached scope precondition: %v", scopes)
	}
}
