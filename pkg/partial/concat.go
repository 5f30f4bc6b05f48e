package partial

import (
	"github.com/stackb/stackgraph/pkg/graph"
)

// Concatenate attempts to append another partial path onto the end of this
// one.  The left path's postcondition is unified against the right path's
// precondition; if that succeeds, the substitution is applied and the two
// edge lists are joined.  The receiver is not modified.
//
// If the two paths have any stack variables in common, those variables are
// required to bind to the same values on both sides.  Call
// EnsureNoOverlappingVariables first if that is not what you want.
func (p PartialPath) Concatenate(g *graph.StackGraph, rhs *PartialPath) (PartialPath, error) {
	join, err := computeJoin(g, &p, rhs)
	if err != nil {
		return PartialPath{}, err
	}

	pre, err := p.SymbolStackPrecondition.ApplyBindings(join.symbolBindings, join.scopeBindings)
	if err != nil {
		return PartialPath{}, err
	}
	post, err := rhs.SymbolStackPostcondition.ApplyBindings(join.symbolBindings, join.scopeBindings)
	if err != nil {
		return PartialPath{}, err
	}
	scopePre, err := p.ScopeStackPrecondition.ApplyBindings(join.scopeBindings)
	if err != nil {
		return PartialPath{}, err
	}
	scopePost, err := rhs.ScopeStackPostcondition.ApplyBindings(join.scopeBindings)
	if err != nil {
		return PartialPath{}, err
	}

	p.SymbolStackPrecondition = pre
	p.SymbolStackPostcondition = post
	p.ScopeStackPrecondition = scopePre
	p.ScopeStackPostcondition = scopePost

	edges := make([]PathEdge, 0, len(p.Edges)+len(rhs.Edges))
	edges = append(edges, p.Edges...)
	edges = append(edges, rhs.Edges...)
	p.Edges = edges
	p.EndNode = rhs.EndNode

	return p.ResolveFromPostcondition(g)
}

type join struct {
	unifiedSymbolStack PartialSymbolStack
	unifiedScopeStack  PartialScopeStack
	symbolBindings     *SymbolStackBindings
	scopeBindings      *ScopeStackBindings
}

// computeJoin unifies the left postcondition with the right precondition.
//
// Pre- and postconditions are closed, so the effect of the join node (the
// node the two paths share) is present on both sides: a join at a pop node
// has the popped symbol in the right precondition but not in the left
// postcondition anymore, and a join at a push node has the pushed symbol in
// the left postcondition but not in the right precondition.  Before unifying
// we make both sides half-open by undoing the join node's effect on the side
// that still carries it.
func computeJoin(g *graph.StackGraph, lhs, rhs *PartialPath) (*join, error) {
	if lhs.EndNode != rhs.StartNode {
		return nil, ErrIncorrectSourceNode
	}

	lhsSymbolPost := lhs.SymbolStackPostcondition
	lhsScopePost := lhs.ScopeStackPostcondition
	rhsSymbolPre := rhs.SymbolStackPrecondition
	rhsScopePre := rhs.ScopeStackPrecondition

	var err error
	if lhsSymbolPost, err = halfopenPostcondition(g, lhs.EndNode, lhsSymbolPost); err != nil {
		return nil, err
	}
	if rhsSymbolPre, rhsScopePre, err = halfopenPrecondition(g, rhs.StartNode, rhsSymbolPre, rhsScopePre); err != nil {
		return nil, err
	}

	symbolBindings := NewSymbolStackBindings()
	scopeBindings := NewScopeStackBindings()
	unifiedSymbols, err := lhsSymbolPost.Unify(rhsSymbolPre, symbolBindings, scopeBindings)
	if err != nil {
		return nil, err
	}
	unifiedScopes, err := lhsScopePost.Unify(rhsScopePre, scopeBindings)
	if err != nil {
		return nil, err
	}

	return &join{
		unifiedSymbolStack: unifiedSymbols,
		unifiedScopeStack:  unifiedScopes,
		symbolBindings:     symbolBindings,
		scopeBindings:      scopeBindings,
	}, nil
}

// halfopenPrecondition undoes the effect of a path's start node on its
// precondition: a path starting at a pop node carries the popped symbol in
// its precondition, which the joining path's postcondition no longer has.
func halfopenPrecondition(g *graph.StackGraph, start graph.NodeHandle, symbols PartialSymbolStack, scopes PartialScopeStack) (PartialSymbolStack, PartialScopeStack, error) {
	n, err := g.Node(start)
	if err != nil {
		return PartialSymbolStack{}, PartialScopeStack{}, err
	}
	switch n.Kind {
	case graph.KindPopScopedSymbol:
		top, rest, ok := symbols.PopFront()
		if !ok {
			return PartialSymbolStack{}, PartialScopeStack{}, ErrEmptySymbolStack
		}
		if top.Symbol != n.Symbol {
			return PartialSymbolStack{}, PartialScopeStack{}, ErrIncorrectPoppedSymbol
		}
		if !top.HasScopes {
			return PartialSymbolStack{}, PartialScopeStack{}, ErrMissingAttachedScopes
		}
		return rest, top.Scopes, nil
	case graph.KindPopSymbol:
		top, rest, ok := symbols.PopFront()
		if !ok {
			return PartialSymbolStack{}, PartialScopeStack{}, ErrEmptySymbolStack
		}
		if top.Symbol != n.Symbol {
			return PartialSymbolStack{}, PartialScopeStack{}, ErrIncorrectPoppedSymbol
		}
		return rest, scopes, nil
	}
	return symbols, scopes, nil
}

// halfopenPostcondition undoes the effect of a path's end node on its
// postcondition: a path ending at a push node carries the pushed symbol in
// its postcondition, which the joining path's precondition does not expect.
func halfopenPostcondition(g *graph.StackGraph, end graph.NodeHandle, symbols PartialSymbolStack) (PartialSymbolStack, error) {
	n, err := g.Node(end)
	if err != nil {
		return PartialSymbolStack{}, err
	}
	switch n.Kind {
	case graph.KindPushScopedSymbol, graph.KindPushSymbol:
		top, rest, ok := symbols.PopFront()
		if !ok {
			return PartialSymbolStack{}, ErrEmptySymbolStack
		}
		if top.Symbol != n.Symbol {
			return PartialSymbolStack{}, ErrIncorrectPoppedSymbol
		}
		return rest, nil
	}
	return symbols, nil
}
