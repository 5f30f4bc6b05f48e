package graph

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestAddSymbol(t *testing.T) {
	g := NewStackGraph()

	a1 := g.AddSymbol("a")
	a2 := g.AddSymbol("a")
	b := g.AddSymbol("b")

	if a1 != a2 {
		t.Errorf("interning the same content twice: got %d and %d", a1, a2)
	}
	if a1 == b {
		t.Errorf("interning different content: both got %d", a1)
	}
	name, err := g.SymbolName(a1)
	if err != nil {
		t.Fatal(err)
	}
	if name != "a" {
		t.Errorf("SymbolName: got %q, want %q", name, "a")
	}
	if _, err := g.SymbolName(Symbol(99)); err == nil {
		t.Error("SymbolName with unknown handle: want error")
	}
}

func TestAddFile(t *testing.T) {
	g := NewStackGraph()

	file, err := g.AddFile("test.py")
	if err != nil {
		t.Fatal(err)
	}
	if got := g.FileName(file); got != "test.py" {
		t.Errorf("FileName: got %q", got)
	}

	again, err := g.AddFile("test.py")
	var dup *DuplicateFileError
	if !errors.As(err, &dup) {
		t.Errorf("adding duplicate file: got %v, want DuplicateFileError", err)
	}
	if again != file {
		t.Errorf("duplicate add returned different handle: %d vs %d", again, file)
	}

	if got := g.GetOrCreateFile("test.py"); got != file {
		t.Errorf("GetOrCreateFile: got %d, want %d", got, file)
	}
}

func TestSingletonNodes(t *testing.T) {
	g := NewStackGraph()

	root := g.MustNode(RootNode)
	if !root.IsRoot() {
		t.Error("root node is not root")
	}
	jump := g.MustNode(JumpToNode)
	if !jump.IsJumpTo() {
		t.Error("jump-to node is not jump-to")
	}
	if handle, ok := g.NodeForID(RootNodeID()); !ok || handle != RootNode {
		t.Errorf("NodeForID(root): got %d, %v", handle, ok)
	}
}

func TestAddNode(t *testing.T) {
	g := NewStackGraph()
	file, _ := g.AddFile("test.py")
	sym := g.AddSymbol("x")

	id := g.NewNodeID(file)
	handle, err := g.AddPushSymbolNode(id, sym, true)
	if err != nil {
		t.Fatal(err)
	}
	node := g.MustNode(handle)
	if node.Kind != KindPushSymbol || !node.IsReference || node.Symbol != sym {
		t.Errorf("unexpected node: %+v", node)
	}

	// Same ID again must fail.
	_, err = g.AddScopeNode(id, false)
	var dup *DuplicateNodeError
	if !errors.As(err, &dup) {
		t.Errorf("adding duplicate node: got %v, want DuplicateNodeError", err)
	}

	// Nodes must belong to a file.
	_, err = g.AddScopeNode(NodeID{}, false)
	var invalid *InvalidNodeError
	if !errors.As(err, &invalid) {
		t.Errorf("adding node without file: got %v, want InvalidNodeError", err)
	}

	if got := g.NodesForFile(file); len(got) != 1 || got[0] != handle {
		t.Errorf("NodesForFile: got %v", got)
	}
}

func TestNewNodeIDSkipsSingletons(t *testing.T) {
	g := NewStackGraph()
	file, _ := g.AddFile("test.py")

	id := g.NewNodeID(file)
	if id.LocalID <= JumpToLocalID {
		t.Errorf("NewNodeID returned a singleton local ID: %d", id.LocalID)
	}
	next := g.NewNodeID(file)
	if next.LocalID == id.LocalID {
		t.Errorf("NewNodeID returned the same ID twice: %d", id.LocalID)
	}
}

func TestAddEdge(t *testing.T) {
	g := NewStackGraph()
	file, _ := g.AddFile("test.py")
	sym := g.AddSymbol("x")
	a, _ := g.AddPushSymbolNode(g.NewNodeID(file), sym, true)
	b, _ := g.AddPopSymbolNode(g.NewNodeID(file), sym, true)

	if err := g.AddEdge(a, b, 0); err != nil {
		t.Fatal(err)
	}
	// Unknown endpoints are structural errors.
	var unknown *UnknownNodeError
	if err := g.AddEdge(a, NodeHandle(99), 0); !errors.As(err, &unknown) {
		t.Errorf("edge to unknown node: got %v, want UnknownNodeError", err)
	}

	if got := g.IncomingEdgeDegree(b); got != DegreeOne {
		t.Errorf("IncomingEdgeDegree: got %v, want one", got)
	}

	// Re-adding an edge is a no-op.
	if err := g.AddEdge(a, b, 0); err != nil {
		t.Fatal(err)
	}
	if got := g.OutgoingEdges(a); len(got) != 1 {
		t.Errorf("re-added edge duplicated: %v", got)
	}
}

func TestCrossFileEdgeInvariant(t *testing.T) {
	g := NewStackGraph()
	fileX, _ := g.AddFile("x.py")
	fileY, _ := g.AddFile("y.py")
	sym := g.AddSymbol("x")
	a, _ := g.AddPushSymbolNode(g.NewNodeID(fileX), sym, true)
	b, _ := g.AddPopSymbolNode(g.NewNodeID(fileY), sym, true)

	var invalid *InvalidEdgeError
	if err := g.AddEdge(a, b, 0); !errors.As(err, &invalid) {
		t.Errorf("cross-file edge: got %v, want InvalidEdgeError", err)
	}
	// Edges through root are fine.
	if err := g.AddEdge(a, RootNode, 0); err != nil {
		t.Fatal(err)
	}
	if err := g.AddEdge(RootNode, b, 0); err != nil {
		t.Fatal(err)
	}
}

func TestOutgoingEdgeOrder(t *testing.T) {
	g := NewStackGraph()
	file, _ := g.AddFile("test.py")
	sym := g.AddSymbol("x")
	a, _ := g.AddPushSymbolNode(g.NewNodeID(file), sym, true)
	b, _ := g.AddPopSymbolNode(g.NewNodeID(file), sym, true)
	c, _ := g.AddPopSymbolNode(g.NewNodeID(file), sym, true)
	d, _ := g.AddScopeNode(g.NewNodeID(file), false)

	g.AddEdge(a, d, 0)
	g.AddEdge(a, c, 0)
	g.AddEdge(a, b, 1)

	want := []Edge{
		{Source: a, Sink: b, Precedence: 1},
		{Source: a, Sink: c, Precedence: 0},
		{Source: a, Sink: d, Precedence: 0},
	}
	if diff := cmp.Diff(want, g.OutgoingEdges(a)); diff != "" {
		t.Errorf("OutgoingEdges (-want +got):\n%s", diff)
	}
}

func TestSetEdgePrecedence(t *testing.T) {
	g := NewStackGraph()
	file, _ := g.AddFile("test.py")
	sym := g.AddSymbol("x")
	a, _ := g.AddPushSymbolNode(g.NewNodeID(file), sym, true)
	b, _ := g.AddPopSymbolNode(g.NewNodeID(file), sym, true)

	g.AddEdge(a, b, 0)
	g.SetEdgePrecedence(a, b, 7)
	if got := g.OutgoingEdges(a)[0].Precedence; got != 7 {
		t.Errorf("precedence after update: got %d, want 7", got)
	}
}

func TestDegreeAdd(t *testing.T) {
	for _, tc := range []struct {
		a, b, want Degree
	}{
		{DegreeZero, DegreeZero, DegreeZero},
		{DegreeZero, DegreeOne, DegreeOne},
		{DegreeOne, DegreeZero, DegreeOne},
		{DegreeOne, DegreeOne, DegreeMultiple},
		{DegreeMultiple, DegreeOne, DegreeMultiple},
	} {
		if got := tc.a.Add(tc.b); got != tc.want {
			t.Errorf("%v + %v: got %v, want %v", tc.a, tc.b, got, tc.want)
		}
	}
}

func TestSourceAndDebugInfo(t *testing.T) {
	g := NewStackGraph()
	file, _ := g.AddFile("test.py")
	sym := g.AddSymbol("x")
	a, _ := g.AddPushSymbolNode(g.NewNodeID(file), sym, true)

	if g.SourceInfo(a) != nil {
		t.Error("fresh node has source info")
	}
	g.SetSourceInfo(a, &SourceInfo{
		Span:          Span{Start: Position{Line: 1}, End: Position{Line: 1, Utf8Offset: 3}},
		SyntaxType:    g.AddString("identifier"),
		HasSyntaxType: true,
	})
	info := g.SourceInfo(a)
	if info == nil || g.StringValue(info.SyntaxType) != "identifier" {
		t.Errorf("source info round trip: %+v", info)
	}

	g.NodeDebugInfoMut(a).Add(g.AddString("k"), g.AddString("v"))
	if got := g.NodeDebugInfo(a); len(got.Entries) != 1 {
		t.Errorf("debug info round trip: %+v", got)
	}

	g.AddEdge(a, RootNode, 0)
	g.EdgeDebugInfoMut(a, RootNode).Add(g.AddString("ek"), g.AddString("ev"))
	if got := g.EdgeDebugInfo(a, RootNode); got == nil || len(got.Entries) != 1 {
		t.Errorf("edge debug info round trip: %+v", got)
	}
}

func TestAddFromGraph(t *testing.T) {
	other := NewStackGraph()
	file, _ := other.AddFile("test.py")
	sym := other.AddSymbol("x")
	a, _ := other.AddPushSymbolNode(other.NewNodeID(file), sym, true)
	b, _ := other.AddPopSymbolNode(other.NewNodeID(file), sym, true)
	other.AddEdge(a, b, 1)
	other.AddEdge(b, RootNode, 0)

	g := NewStackGraph()
	g.AddSymbol("unrelated")
	files, err := g.AddFromGraph(other)
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 1 {
		t.Fatalf("AddFromGraph files: got %v", files)
	}
	nodes := g.NodesForFile(files[0])
	if len(nodes) != 2 {
		t.Fatalf("copied nodes: got %d, want 2", len(nodes))
	}
	copied := g.MustNode(nodes[0])
	name, _ := g.SymbolName(copied.Symbol)
	if name != "x" {
		t.Errorf("copied symbol: got %q, want %q", name, "x")
	}
	if got := g.OutgoingEdges(nodes[0]); len(got) != 1 || got[0].Precedence != 1 {
		t.Errorf("copied edges: %v", got)
	}

	// Copying again must fail on the duplicate file.
	if _, err := g.AddFromGraph(other); err == nil {
		t.Error("second AddFromGraph: want duplicate file error")
	}
}
