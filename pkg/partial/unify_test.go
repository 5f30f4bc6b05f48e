package partial

import (
	"errors"
	"testing"

	"github.com/stackb/stackgraph/pkg/graph"
)

func symbols(g *graph.StackGraph, names ...string) []PartialScopedSymbol {
	out := make([]PartialScopedSymbol, len(names))
	for i, name := range names {
		out[i] = PartialScopedSymbol{Symbol: g.AddSymbol(name)}
	}
	return out
}

func stackOf(variable SymbolStackVariable, syms ...PartialScopedSymbol) PartialSymbolStack {
	stack := SymbolStackFromVariable(variable)
	for _, sym := range syms {
		stack = stack.PushBack(sym)
	}
	return stack
}

func TestSymbolStackUnify(t *testing.T) {
	g := graph.NewStackGraph()
	xy := symbols(g, "x", "y")
	x, y := xy[0], xy[1]

	for name, tc := range map[string]struct {
		lhs     PartialSymbolStack
		rhs     PartialSymbolStack
		wantErr error
		// wantBound maps variables to the length of the stack they must be
		// bound to after a successful unification.
		wantBound map[SymbolStackVariable]int
	}{
		"both empty": {
			lhs: stackOf(0),
			rhs: stackOf(0),
		},
		"equal concrete": {
			lhs: stackOf(0, x, y),
			rhs: stackOf(0, x, y),
		},
		"symbol mismatch": {
			lhs:     stackOf(0, x),
			rhs:     stackOf(0, y),
			wantErr: ErrSymbolStackUnsatisfied,
		},
		"length mismatch no variable": {
			lhs:     stackOf(0, x, y),
			rhs:     stackOf(0, x),
			wantErr: ErrSymbolStackUnsatisfied,
		},
		"variable absorbs suffix": {
			lhs:       stackOf(0, x, y),
			rhs:       stackOf(2, x),
			wantBound: map[SymbolStackVariable]int{2: 1},
		},
		"variable binds empty": {
			lhs:       stackOf(0, x),
			rhs:       stackOf(2, x),
			wantBound: map[SymbolStackVariable]int{2: 0},
		},
		"variable on both sides": {
			lhs:       stackOf(1, x),
			rhs:       stackOf(2, x),
			wantBound: map[SymbolStackVariable]int{2: 0},
		},
		"same variable both sides": {
			lhs:     stackOf(1, x),
			rhs:     stackOf(1),
			wantErr: ErrOccursCheck,
		},
		"kind mismatch": {
			lhs: stackOf(0, PartialScopedSymbol{Symbol: x.Symbol, Scopes: EmptyPartialScopeStack(), HasScopes: true}),
			rhs: stackOf(0, x),
			wantErr: ErrSymbolStackUnsatisfied,
		},
	} {
		t.Run(name, func(t *testing.T) {
			symbolBindings := NewSymbolStackBindings()
			scopeBindings := NewScopeStackBindings()
			_, err := tc.lhs.Unify(tc.rhs, symbolBindings, scopeBindings)
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("got %v, want %v", err, tc.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			for variable, wantLen := range tc.wantBound {
				bound, ok := symbolBindings.Get(variable)
				if !ok {
					t.Fatalf("variable %d not bound", variable)
				}
				if bound.Len() != wantLen {
					t.Errorf("variable %d bound to %d symbols, want %d", variable, bound.Len(), wantLen)
				}
			}
		})
	}
}

func TestScopeStackUnify(t *testing.T) {
	a, b := graph.NodeHandle(10), graph.NodeHandle(11)

	for name, tc := range map[string]struct {
		lhs     PartialScopeStack
		rhs     PartialScopeStack
		wantErr error
	}{
		"both empty": {
			lhs: EmptyPartialScopeStack(),
			rhs: EmptyPartialScopeStack(),
		},
		"equal concrete": {
			lhs: EmptyPartialScopeStack().PushBack(a).PushBack(b),
			rhs: EmptyPartialScopeStack().PushBack(a).PushBack(b),
		},
		"scope mismatch": {
			lhs:     EmptyPartialScopeStack().PushBack(a),
			rhs:     EmptyPartialScopeStack().PushBack(b),
			wantErr: ErrScopeStackUnsatisfied,
		},
		"length mismatch both concrete": {
			lhs:     EmptyPartialScopeStack().PushBack(a).PushBack(b),
			rhs:     EmptyPartialScopeStack().PushBack(a),
			wantErr: ErrScopeStackUnsatisfied,
		},
		"variable absorbs suffix": {
			lhs: EmptyPartialScopeStack().PushBack(a).PushBack(b),
			rhs: ScopeStackFromVariable(2).PushFront(a),
		},
		"same variable both sides": {
			lhs:     ScopeStackFromVariable(1).PushFront(a),
			rhs:     ScopeStackFromVariable(1),
			wantErr: ErrOccursCheck,
		},
	} {
		t.Run(name, func(t *testing.T) {
			bindings := NewScopeStackBindings()
			_, err := tc.lhs.Unify(tc.rhs, bindings)
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("got %v, want %v", err, tc.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
		})
	}
}

// TestConcatenate joins ref -> root with root -> def across two files.
func TestConcatenate(t *testing.T) {
	g := graph.NewStackGraph()
	fileX, _ := g.AddFile("x.py")
	fileY, _ := g.AddFile("y.py")
	x := g.AddSymbol("x")
	ref, _ := g.AddPushSymbolNode(g.NewNodeID(fileX), x, true)
	def, _ := g.AddPopSymbolNode(g.NewNodeID(fileY), x, true)
	g.AddEdge(ref, graph.RootNode, 0)
	g.AddEdge(graph.RootNode, def, 0)

	// Left: ref -> root in file X, precondition closed.
	left, err := FromNode(g, ref)
	if err != nil {
		t.Fatal(err)
	}
	left.EliminatePreconditionStackVariables()
	left, err = left.Append(g, graph.Edge{Source: ref, Sink: graph.RootNode})
	if err != nil {
		t.Fatal(err)
	}

	// Right: root -> def in file Y, fully open.
	right, err := FromNode(g, graph.RootNode)
	if err != nil {
		t.Fatal(err)
	}
	right, err = right.Append(g, graph.Edge{Source: graph.RootNode, Sink: def})
	if err != nil {
		t.Fatal(err)
	}

	left.EnsureNoOverlappingVariables(&right)
	joined, err := left.Concatenate(g, &right)
	if err != nil {
		t.Fatal(err)
	}
	if joined.StartNode != ref || joined.EndNode != def {
		t.Errorf("joined endpoints: %d -> %d", joined.StartNode, joined.EndNode)
	}
	if !joined.IsComplete(g) {
		t.Error("joined path is not complete")
	}
	if len(joined.Edges) != len(left.Edges)+len(right.Edges) {
		t.Errorf("joined edges: %d", len(joined.Edges))
	}
}

func TestConcatenateNodeMismatch(t *testing.T) {
	tg := buildTestGraph(t)
	a, _ := FromNode(tg.g, tg.ref)
	b, _ := FromNode(tg.g, tg.def)
	// a ends at ref; b starts at def.
	if _, err := a.Concatenate(tg.g, &b); !errors.Is(err, ErrIncorrectSourceNode) {
		t.Errorf("concatenating misaligned paths: got %v, want ErrIncorrectSourceNode", err)
	}
}

// TestConcatenateAssociative checks that (P∘Q)∘R and P∘(Q∘R) agree on a
// three-segment chain.
func TestConcatenateAssociative(t *testing.T) {
	g := graph.NewStackGraph()
	file, _ := g.AddFile("test.py")
	x := g.AddSymbol("x")
	ref, _ := g.AddPushSymbolNode(g.NewNodeID(file), x, true)
	scope, _ := g.AddScopeNode(g.NewNodeID(file), false)
	def, _ := g.AddPopSymbolNode(g.NewNodeID(file), x, true)

	seg := func(from, to graph.NodeHandle) PartialPath {
		p, err := FromNode(g, from)
		if err != nil {
			t.Fatal(err)
		}
		p, err = p.Append(g, graph.Edge{Source: from, Sink: to})
		if err != nil {
			t.Fatal(err)
		}
		return p
	}

	concat := func(lhs, rhs PartialPath) PartialPath {
		lhs.EnsureNoOverlappingVariables(&rhs)
		out, err := lhs.Concatenate(g, &rhs)
		if err != nil {
			t.Fatal(err)
		}
		return out
	}

	p := seg(ref, scope)
	q := seg(scope, def)
	r := seg(def, graph.RootNode)

	leftAssoc := concat(concat(p, q), r)
	rightAssoc := concat(p, concat(q, r))

	if leftAssoc.StartNode != rightAssoc.StartNode || leftAssoc.EndNode != rightAssoc.EndNode {
		t.Errorf("endpoints disagree: %d->%d vs %d->%d",
			leftAssoc.StartNode, leftAssoc.EndNode, rightAssoc.StartNode, rightAssoc.EndNode)
	}
	if got, want := len(leftAssoc.Edges), len(rightAssoc.Edges); got != want {
		t.Errorf("edge counts disagree: %d vs %d", got, want)
	}
	// The conditions must agree modulo variable renaming; both sides here
	// reduce to a single open variable on each stack, so shape checks
	// suffice.
	if leftAssoc.SymbolStackPrecondition.Len() != rightAssoc.SymbolStackPrecondition.Len() {
		t.Error("preconditions disagree")
	}
	if leftAssoc.SymbolStackPostcondition.Len() != rightAssoc.SymbolStackPostcondition.Len() {
		t.Error("postconditions disagree")
	}
}
