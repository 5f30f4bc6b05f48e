package paths

import (
	"errors"
	"fmt"

	"github.com/stackb/stackgraph/pkg/graph"
)

// Errors that describe why an edge is not a valid extension of a path.  All
// of them cause the extension to be pruned, not the search to fail, except
// for UnknownAttachedScopeError which signals a corrupted graph.
var (
	// ErrEmptyScopeStack means a jump-to-scope node was reached with no
	// scopes left to jump to.
	ErrEmptyScopeStack = errors.New("empty scope stack")
	// ErrEmptySymbolStack means a pop node was reached with nothing left to
	// pop.
	ErrEmptySymbolStack = errors.New("empty symbol stack")
	// ErrIncorrectPoppedSymbol means the top of the symbol stack does not
	// match a pop node's symbol.
	ErrIncorrectPoppedSymbol = errors.New("incorrect popped symbol")
	// ErrIncorrectSourceNode means an edge's source is not the path's
	// current end node.
	ErrIncorrectSourceNode = errors.New("incorrect source node")
	// ErrMissingAttachedScopes means a pop-scoped-symbol node found a plain
	// symbol on top of the symbol stack.
	ErrMissingAttachedScopes = errors.New("missing attached scope list")
	// ErrUnexpectedAttachedScopes means a pop-symbol node found a scoped
	// symbol on top of the symbol stack.
	ErrUnexpectedAttachedScopes = errors.New("unexpected attached scope list")
	// ErrUnexportedScope means a push-scoped-symbol node attached a scope
	// that is not an exported scope node.
	ErrUnexportedScope = errors.New("attached scope is not exported")
)

// UnknownAttachedScopeError means a push-scoped-symbol node refers to a scope
// ID that does not exist in the graph.  Unlike the pruning errors above, this
// is fatal for the current search.
type UnknownAttachedScopeError struct {
	ID graph.NodeID
}

func (e *UnknownAttachedScopeError) Error() string {
	return fmt.Sprintf("unknown attached scope: file=%d local_id=%d", e.ID.File, e.ID.LocalID)
}

// IsFatal reports whether a path extension error indicates a corrupted graph
// rather than an ordinary dead end.
func IsFatal(err error) bool {
	var unknownScope *UnknownAttachedScopeError
	return errors.As(err, &unknownScope)
}

// Path is a sequence of edges through a stack graph.  A complete path
// represents a full name binding in a source language.
type Path struct {
	StartNode   graph.NodeHandle
	EndNode     graph.NodeHandle
	Edges       []graph.Edge
	SymbolStack SymbolStack
	ScopeStack  ScopeStack
}

// CycleKey is the state that determines whether extending a path revisits
// ground it has already covered.
type CycleKey struct {
	EndNode     graph.NodeHandle
	SymbolStack SymbolStack
	ScopeStack  ScopeStack
}

// Key returns the path's cycle key.
func (p *Path) Key() CycleKey {
	return CycleKey{EndNode: p.EndNode, SymbolStack: p.SymbolStack, ScopeStack: p.ScopeStack}
}

// PathFromNode creates a new path starting at a push-symbol or
// push-scoped-symbol node, seeding the stacks with the node's own effect.
// Returns false for any other kind of node.
func PathFromNode(g *graph.StackGraph, ps *Paths, node graph.NodeHandle) (Path, bool) {
	n, err := g.Node(node)
	if err != nil {
		return Path{}, false
	}
	var scoped ScopedSymbol
	switch n.Kind {
	case graph.KindPushSymbol:
		scoped = ScopedSymbol{Symbol: n.Symbol}
	case graph.KindPushScopedSymbol:
		scope, ok := g.NodeForID(n.Scope)
		if !ok {
			return Path{}, false
		}
		scoped = ScopedSymbol{
			Symbol:    n.Symbol,
			Scopes:    ps.PushScope(EmptyScopeStack, scope),
			HasScopes: true,
		}
	default:
		return Path{}, false
	}
	return Path{
		StartNode:   node,
		EndNode:     node,
		SymbolStack: ps.PushSymbol(EmptySymbolStack, scoped),
		ScopeStack:  EmptyScopeStack,
	}, true
}

// IsComplete reports whether the path is a full name binding: it starts at a
// reference, ends at a definition, and leaves both stacks empty.
func (p *Path) IsComplete(g *graph.StackGraph) bool {
	start := g.MustNode(p.StartNode)
	end := g.MustNode(p.EndNode)
	return start.IsReference &&
		end.IsDefinition &&
		p.SymbolStack == EmptySymbolStack &&
		p.ScopeStack == EmptyScopeStack
}

// Append attempts to extend the path with an edge, applying the sink node's
// stack semantics.  The receiver is not modified; the extended path is
// returned.  If the edge is not a valid extension, an error describes why.
func (p Path) Append(g *graph.StackGraph, ps *Paths, edge graph.Edge) (Path, error) {
	if edge.Source != p.EndNode {
		return Path{}, ErrIncorrectSourceNode
	}

	sink, err := g.Node(edge.Sink)
	if err != nil {
		return Path{}, err
	}
	switch sink.Kind {
	case graph.KindPushSymbol:
		scoped := ScopedSymbol{Symbol: sink.Symbol}
		p.SymbolStack = ps.PushSymbol(p.SymbolStack, scoped)

	case graph.KindPushScopedSymbol:
		scope, ok := g.NodeForID(sink.Scope)
		if !ok {
			return Path{}, &UnknownAttachedScopeError{ID: sink.Scope}
		}
		if !g.MustNode(scope).IsExportedScope() {
			return Path{}, ErrUnexportedScope
		}
		scoped := ScopedSymbol{
			Symbol:    sink.Symbol,
			Scopes:    ps.PushScope(p.ScopeStack, scope),
			HasScopes: true,
		}
		p.SymbolStack = ps.PushSymbol(p.SymbolStack, scoped)

	case graph.KindPopSymbol:
		top, rest, ok := ps.PopSymbol(p.SymbolStack)
		if !ok {
			return Path{}, ErrEmptySymbolStack
		}
		if top.Symbol != sink.Symbol {
			return Path{}, ErrIncorrectPoppedSymbol
		}
		if top.HasScopes {
			return Path{}, ErrUnexpectedAttachedScopes
		}
		p.SymbolStack = rest

	case graph.KindPopScopedSymbol:
		top, rest, ok := ps.PopSymbol(p.SymbolStack)
		if !ok {
			return Path{}, ErrEmptySymbolStack
		}
		if top.Symbol != sink.Symbol {
			return Path{}, ErrIncorrectPoppedSymbol
		}
		if !top.HasScopes {
			return Path{}, ErrMissingAttachedScopes
		}
		p.SymbolStack = rest
		p.ScopeStack = top.Scopes

	case graph.KindDropScopes:
		p.ScopeStack = EmptyScopeStack
	}

	p.EndNode = edge.Sink
	edges := make([]graph.Edge, len(p.Edges)+1)
	copy(edges, p.Edges)
	edges[len(p.Edges)] = edge
	p.Edges = edges
	return p, nil
}

// Resolve attempts to resolve a jump-to-scope node at the end of the path by
// popping the top scope and continuing from it.  If the path does not end in
// a jump-to-scope node this is a no-op.
func (p Path) Resolve(g *graph.StackGraph, ps *Paths) (Path, error) {
	end, err := g.Node(p.EndNode)
	if err != nil {
		return Path{}, err
	}
	if !end.IsJumpTo() {
		return p, nil
	}
	top, rest, ok := ps.PopScope(p.ScopeStack)
	if !ok {
		return Path{}, ErrEmptyScopeStack
	}
	edges := make([]graph.Edge, len(p.Edges)+1)
	copy(edges, p.Edges)
	edges[len(p.Edges)] = graph.Edge{Source: p.EndNode, Sink: top}
	p.Edges = edges
	p.EndNode = top
	p.ScopeStack = rest
	return p, nil
}

// Extend computes all legal single-edge extensions of the path, resolving any
// jump-to-scope node each extension lands on.  Extensions that fail are
// skipped, unless the failure is fatal, in which case it is returned.
func (p *Path) Extend(g *graph.StackGraph, ps *Paths) ([]Path, error) {
	var out []Path
	for _, edge := range g.OutgoingEdges(p.EndNode) {
		appended, err := p.Append(g, ps, edge)
		if err != nil {
			if IsFatal(err) {
				return nil, err
			}
			continue
		}
		resolved, err := appended.Resolve(g, ps)
		if err != nil {
			if IsFatal(err) {
				return nil, err
			}
			continue
		}
		out = append(out, resolved)
	}
	return out, nil
}
