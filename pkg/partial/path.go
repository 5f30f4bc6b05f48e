package partial

import (
	"github.com/stackb/stackgraph/pkg/graph"
)

// PathEdge is one step of a partial path: the ID of the node the step left
// from, and the precedence of the edge that was taken.
type PathEdge struct {
	SourceNodeID graph.NodeID
	Precedence   int32
}

// Shadows returns whether this edge shadows another edge leaving the same
// node.
func (e PathEdge) Shadows(other PathEdge) bool {
	return e.Precedence > other.Precedence
}

// PartialPath is a portion of a name-binding path with symbolic pre- and
// postconditions.  The precondition describes the symbol and scope stacks
// that must be in effect when entering the start node; the postcondition
// describes the stacks in effect after leaving the end node.
//
// Pre- and postconditions are closed: the effect of the start node is part of
// the precondition and the effect of the end node is part of the
// postcondition.
type PartialPath struct {
	StartNode                graph.NodeHandle
	EndNode                  graph.NodeHandle
	SymbolStackPrecondition  PartialSymbolStack
	SymbolStackPostcondition PartialSymbolStack
	ScopeStackPrecondition   PartialScopeStack
	ScopeStackPostcondition  PartialScopeStack
	Edges                    []PathEdge
}

// FromNode creates a partial path containing a single node, whose pre- and
// postconditions start out as fully open patterns.
func FromNode(g *graph.StackGraph, node graph.NodeHandle) (PartialPath, error) {
	p := PartialPath{
		StartNode:                node,
		EndNode:                  node,
		SymbolStackPrecondition:  SymbolStackFromVariable(initialSymbolStackVariable),
		SymbolStackPostcondition: SymbolStackFromVariable(initialSymbolStackVariable),
		ScopeStackPrecondition:   ScopeStackFromVariable(initialScopeStackVariable),
		ScopeStackPostcondition:  ScopeStackFromVariable(initialScopeStackVariable),
	}
	n, err := g.Node(node)
	if err != nil {
		return PartialPath{}, err
	}
	if err := p.appendNode(g, n); err != nil {
		return PartialPath{}, err
	}
	return p, nil
}

// appendNode updates the pre- and postconditions with the effect of
// traversing into a node.
func (p *PartialPath) appendNode(g *graph.StackGraph, n *graph.Node) error {
	switch n.Kind {
	case graph.KindDropScopes:
		p.ScopeStackPostcondition = EmptyPartialScopeStack()

	case graph.KindJumpToScope, graph.KindRoot, graph.KindScope:
		// No stack effect.

	case graph.KindPopScopedSymbol:
		if top, rest, ok := p.SymbolStackPostcondition.PopFront(); ok {
			if top.Symbol != n.Symbol {
				return ErrIncorrectPoppedSymbol
			}
			if !top.HasScopes {
				return ErrMissingAttachedScopes
			}
			p.SymbolStackPostcondition = rest
			p.ScopeStackPostcondition = top.Scopes
		} else if p.SymbolStackPostcondition.HasVariable() {
			// The postcondition is an open pattern, so the pop constrains
			// the precondition instead: the incoming symbol stack must carry
			// this scoped symbol.
			scopeVariable := p.freshScopeStackVariable()
			p.SymbolStackPrecondition = p.SymbolStackPrecondition.PushBack(PartialScopedSymbol{
				Symbol:    n.Symbol,
				Scopes:    ScopeStackFromVariable(scopeVariable),
				HasScopes: true,
			})
			p.ScopeStackPostcondition = ScopeStackFromVariable(scopeVariable)
		} else {
			return ErrSymbolStackUnsatisfied
		}

	case graph.KindPopSymbol:
		if top, rest, ok := p.SymbolStackPostcondition.PopFront(); ok {
			if top.Symbol != n.Symbol {
				return ErrIncorrectPoppedSymbol
			}
			if top.HasScopes {
				return ErrUnexpectedAttachedScopes
			}
			p.SymbolStackPostcondition = rest
		} else if p.SymbolStackPostcondition.HasVariable() {
			p.SymbolStackPrecondition = p.SymbolStackPrecondition.PushBack(PartialScopedSymbol{
				Symbol: n.Symbol,
			})
		} else {
			return ErrSymbolStackUnsatisfied
		}

	case graph.KindPushScopedSymbol:
		scope, ok := g.NodeForID(n.Scope)
		if !ok {
			return &UnknownAttachedScopeError{ID: n.Scope}
		}
		if !g.MustNode(scope).IsExportedScope() {
			return ErrUnexportedScope
		}
		p.SymbolStackPostcondition = p.SymbolStackPostcondition.PushFront(PartialScopedSymbol{
			Symbol:    n.Symbol,
			Scopes:    p.ScopeStackPostcondition.PushFront(scope),
			HasScopes: true,
		})

	case graph.KindPushSymbol:
		p.SymbolStackPostcondition = p.SymbolStackPostcondition.PushFront(PartialScopedSymbol{
			Symbol: n.Symbol,
		})
	}
	return nil
}

// Append attempts to extend the partial path with an edge.  The receiver is
// not modified; the extended path is returned.
func (p PartialPath) Append(g *graph.StackGraph, edge graph.Edge) (PartialPath, error) {
	if edge.Source != p.EndNode {
		return PartialPath{}, ErrIncorrectSourceNode
	}
	if _, err := g.Node(edge.Source); err != nil {
		return PartialPath{}, err
	}
	sink, err := g.Node(edge.Sink)
	if err != nil {
		return PartialPath{}, err
	}
	if err := p.appendNode(g, sink); err != nil {
		return PartialPath{}, err
	}
	p.Edges = appendEdge(p.Edges, PathEdge{
		SourceNodeID: g.MustNode(edge.Source).ID,
		Precedence:   edge.Precedence,
	})
	p.EndNode = edge.Sink
	return p.ResolveFromPostcondition(g)
}

// ResolveFromPostcondition resolves a jump-to-scope node at the end of the
// path using the postcondition scope stack.  If the scope stack pattern does
// not name a concrete scope yet, the jump is left pending.
func (p PartialPath) ResolveFromPostcondition(g *graph.StackGraph) (PartialPath, error) {
	end, err := g.Node(p.EndNode)
	if err != nil {
		return PartialPath{}, err
	}
	if !end.IsJumpTo() {
		return p, nil
	}
	if p.ScopeStackPostcondition.CanOnlyMatchEmpty() {
		return PartialPath{}, ErrEmptyScopeStack
	}
	if !p.ScopeStackPostcondition.ContainsScopes() {
		return p, nil
	}
	top, rest, _ := p.ScopeStackPostcondition.PopFront()
	p.ScopeStackPostcondition = rest
	p.Edges = appendEdge(p.Edges, PathEdge{SourceNodeID: end.ID})
	p.EndNode = top
	return p, nil
}

// ResolveToNode resolves a pending jump-to-scope node at the end of the path
// to a specific node, strengthening the precondition accordingly.  If the
// path does not end in a jump-to-scope node this is a no-op.
func (p PartialPath) ResolveToNode(g *graph.StackGraph, node graph.NodeHandle) (PartialPath, error) {
	end, err := g.Node(p.EndNode)
	if err != nil {
		return PartialPath{}, err
	}
	if !end.IsJumpTo() {
		return p, nil
	}
	scopeVariable := p.ScopeStackPostcondition.Variable()
	if scopeVariable == 0 {
		return PartialPath{}, ErrScopeStackUnsatisfied
	}

	scopeBindings := NewScopeStackBindings()
	if err := scopeBindings.Add(scopeVariable, ScopeStackFromVariable(scopeVariable).PushFront(node)); err != nil {
		return PartialPath{}, err
	}
	symbolBindings := NewSymbolStackBindings()

	pre, err := p.SymbolStackPrecondition.ApplyBindings(symbolBindings, scopeBindings)
	if err != nil {
		return PartialPath{}, err
	}
	p.SymbolStackPrecondition = pre
	scopePre, err := p.ScopeStackPrecondition.ApplyBindings(scopeBindings)
	if err != nil {
		return PartialPath{}, err
	}
	p.ScopeStackPrecondition = scopePre
	p.EndNode = node
	return p, nil
}

// StartsAtReference returns whether the path starts a name binding: its start
// node is a reference and its precondition can hold on empty stacks.
func (p *PartialPath) StartsAtReference(g *graph.StackGraph) bool {
	return g.MustNode(p.StartNode).IsReference &&
		p.SymbolStackPrecondition.CanMatchEmpty() &&
		p.ScopeStackPrecondition.CanMatchEmpty()
}

// EndsAtDefinition returns whether the path ends a name binding.
func (p *PartialPath) EndsAtDefinition(g *graph.StackGraph) bool {
	return g.MustNode(p.EndNode).IsDefinition && p.SymbolStackPostcondition.CanMatchEmpty()
}

// IsComplete returns whether the path represents a full name binding from a
// reference to a definition.
func (p *PartialPath) IsComplete(g *graph.StackGraph) bool {
	return p.StartsAtReference(g) && p.EndsAtDefinition(g)
}

// StartsAtEndpoint returns whether the path starts at a join-relevant node.
func (p *PartialPath) StartsAtEndpoint(g *graph.StackGraph) bool {
	return g.MustNode(p.StartNode).IsEndpoint()
}

// EndsAtEndpoint returns whether the path ends at a join-relevant node.
func (p *PartialPath) EndsAtEndpoint(g *graph.StackGraph) bool {
	return g.MustNode(p.EndNode).IsEndpoint()
}

// EndsInJump returns whether the path ends at the jump-to-scope node.
func (p *PartialPath) EndsInJump(g *graph.StackGraph) bool {
	return g.MustNode(p.EndNode).IsJumpTo()
}

// IsDivergent returns whether the path starts at the root node with a bare
// variable as its symbol stack precondition.  Divergent paths accept any
// symbol stack at root, so storing one in a database would allow unbounded
// self-concatenation.
func (p *PartialPath) IsDivergent(g *graph.StackGraph) bool {
	return g.MustNode(p.StartNode).IsRoot() &&
		!p.SymbolStackPrecondition.ContainsSymbols() &&
		p.SymbolStackPrecondition.HasVariable()
}

// Equals returns whether two partial paths have the same endpoints and the
// same pre- and postconditions.  The edge lists are not compared.
func (p *PartialPath) Equals(other *PartialPath) bool {
	return p.StartNode == other.StartNode &&
		p.EndNode == other.EndNode &&
		p.SymbolStackPrecondition.Equals(other.SymbolStackPrecondition) &&
		p.SymbolStackPostcondition.Equals(other.SymbolStackPostcondition) &&
		p.ScopeStackPrecondition.Equals(other.ScopeStackPrecondition) &&
		p.ScopeStackPostcondition.Equals(other.ScopeStackPostcondition)
}

// Shadows returns whether this path shadows another: they diverge at an edge
// with strictly higher precedence on this path's side.  Shadowing is not
// commutative.
func (p *PartialPath) Shadows(other *PartialPath) bool {
	for i, edge := range p.Edges {
		if i >= len(other.Edges) {
			return false
		}
		otherEdge := other.Edges[i]
		if edge.SourceNodeID != otherEdge.SourceNodeID {
			return false
		}
		if edge.Shadows(otherEdge) {
			return true
		}
	}
	return false
}

// LargestSymbolStackVariable returns the largest symbol stack variable used
// anywhere in the path.  Only the precondition needs checking: the
// postcondition cannot name a variable that the precondition does not.
func (p *PartialPath) LargestSymbolStackVariable() uint32 {
	return p.SymbolStackPrecondition.LargestSymbolStackVariable()
}

// LargestScopeStackVariable returns the largest scope stack variable used
// anywhere in the path.
func (p *PartialPath) LargestScopeStackVariable() uint32 {
	largest := p.SymbolStackPrecondition.LargestScopeStackVariable()
	if v := p.ScopeStackPrecondition.LargestScopeStackVariable(); v > largest {
		largest = v
	}
	// The postconditions can carry fresh variables minted while appending
	// pop nodes, so they count too.
	if v := p.SymbolStackPostcondition.LargestScopeStackVariable(); v > largest {
		largest = v
	}
	if v := p.ScopeStackPostcondition.LargestScopeStackVariable(); v > largest {
		largest = v
	}
	return largest
}

func (p *PartialPath) freshScopeStackVariable() ScopeStackVariable {
	return ScopeStackVariable(p.LargestScopeStackVariable() + 1)
}

// EnsureNoOverlappingVariables renames this path's variables so that it has
// none in common with another path.
func (p *PartialPath) EnsureNoOverlappingVariables(other *PartialPath) {
	symbolOffset := other.LargestSymbolStackVariable()
	scopeOffset := other.LargestScopeStackVariable()
	p.SymbolStackPrecondition = p.SymbolStackPrecondition.WithOffset(symbolOffset, scopeOffset)
	p.SymbolStackPostcondition = p.SymbolStackPostcondition.WithOffset(symbolOffset, scopeOffset)
	p.ScopeStackPrecondition = p.ScopeStackPrecondition.WithOffset(scopeOffset)
	p.ScopeStackPostcondition = p.ScopeStackPostcondition.WithOffset(scopeOffset)
}

// EliminatePreconditionStackVariables replaces the precondition's stack
// variables with empty stacks, turning an open path into one that only
// matches empty incoming stacks.  Used on query seeds.
func (p *PartialPath) EliminatePreconditionStackVariables() {
	symbolBindings := NewSymbolStackBindings()
	scopeBindings := NewScopeStackBindings()
	if v := p.SymbolStackPrecondition.Variable(); v != 0 {
		symbolBindings.Add(v, EmptyPartialSymbolStack(), scopeBindings)
	}
	if v := p.ScopeStackPrecondition.Variable(); v != 0 {
		scopeBindings.Add(v, EmptyPartialScopeStack())
	}

	p.SymbolStackPrecondition, _ = p.SymbolStackPrecondition.ApplyBindings(symbolBindings, scopeBindings)
	p.ScopeStackPrecondition, _ = p.ScopeStackPrecondition.ApplyBindings(scopeBindings)
	p.SymbolStackPostcondition, _ = p.SymbolStackPostcondition.ApplyBindings(symbolBindings, scopeBindings)
	p.ScopeStackPostcondition, _ = p.ScopeStackPostcondition.ApplyBindings(scopeBindings)
}

func appendEdge(edges []PathEdge, edge PathEdge) []PathEdge {
	out := make([]PathEdge, len(edges)+1)
	copy(out, edges)
	out[len(edges)] = edge
	return out
}
