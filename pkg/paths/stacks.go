// Package paths implements concrete name-binding paths over a stack graph.
//
// Each edge appended to a path must leave the symbol and scope stacks in a
// valid state; otherwise some name binding rule of the source language has
// been violated.  Both stacks are hash-consed: every distinct stack value has
// exactly one handle within a Paths arena, so stack comparison is a plain
// integer comparison and prefix sharing is free.
package paths

import (
	"github.com/stackb/stackgraph/pkg/graph"
)

// SymbolStack is a handle to an interned symbol stack.  The zero value is the
// empty stack.
type SymbolStack uint32

// ScopeStack is a handle to an interned scope stack.  The zero value is the
// empty stack.
type ScopeStack uint32

// EmptySymbolStack is the handle of the empty symbol stack.
const EmptySymbolStack SymbolStack = 0

// EmptyScopeStack is the handle of the empty scope stack.
const EmptyScopeStack ScopeStack = 0

// ScopedSymbol is a symbol with an optional attached scope stack.  Having no
// attached stack is different from having an empty attached stack.
type ScopedSymbol struct {
	Symbol graph.Symbol
	// Scopes is the attached scope stack; only meaningful if HasScopes.
	Scopes    ScopeStack
	HasScopes bool
}

type symbolCell struct {
	head ScopedSymbol
	tail SymbolStack
}

type scopeCell struct {
	head graph.NodeHandle
	tail ScopeStack
}

// Paths is the arena that owns the interned stack cells used while finding
// paths.  Cells are created on first use and never destroyed.
type Paths struct {
	symbolCells []symbolCell
	symbolIndex map[symbolCell]SymbolStack

	scopeCells []scopeCell
	scopeIndex map[scopeCell]ScopeStack
}

// NewPaths creates a new, empty path arena.
func NewPaths() *Paths {
	return &Paths{
		symbolIndex: make(map[symbolCell]SymbolStack),
		scopeIndex:  make(map[scopeCell]ScopeStack),
	}
}

// PushSymbol returns the stack obtained by pushing a scoped symbol onto the
// front of a stack.  Identical stacks share a handle.
func (p *Paths) PushSymbol(stack SymbolStack, symbol ScopedSymbol) SymbolStack {
	cell := symbolCell{head: symbol, tail: stack}
	if handle, ok := p.symbolIndex[cell]; ok {
		return handle
	}
	p.symbolCells = append(p.symbolCells, cell)
	handle := SymbolStack(len(p.symbolCells))
	p.symbolIndex[cell] = handle
	return handle
}

// PopSymbol removes and returns the scoped symbol at the front of a stack.
// Returns false if the stack is empty.
func (p *Paths) PopSymbol(stack SymbolStack) (ScopedSymbol, SymbolStack, bool) {
	if stack == EmptySymbolStack {
		return ScopedSymbol{}, EmptySymbolStack, false
	}
	cell := p.symbolCells[stack-1]
	return cell.head, cell.tail, true
}

// SymbolStackLen returns the number of symbols in a stack.
func (p *Paths) SymbolStackLen(stack SymbolStack) int {
	n := 0
	for stack != EmptySymbolStack {
		stack = p.symbolCells[stack-1].tail
		n++
	}
	return n
}

// SymbolStackSymbols returns the symbols of a stack, front first.
func (p *Paths) SymbolStackSymbols(stack SymbolStack) []ScopedSymbol {
	var out []ScopedSymbol
	for stack != EmptySymbolStack {
		cell := p.symbolCells[stack-1]
		out = append(out, cell.head)
		stack = cell.tail
	}
	return out
}

// PushScope returns the stack obtained by pushing a scope node onto the front
// of a stack.  The node must be an exported scope node.
func (p *Paths) PushScope(stack ScopeStack, scope graph.NodeHandle) ScopeStack {
	cell := scopeCell{head: scope, tail: stack}
	if handle, ok := p.scopeIndex[cell]; ok {
		return handle
	}
	p.scopeCells = append(p.scopeCells, cell)
	handle := ScopeStack(len(p.scopeCells))
	p.scopeIndex[cell] = handle
	return handle
}

// PopScope removes and returns the scope at the front of a stack.  Returns
// false if the stack is empty.
func (p *Paths) PopScope(stack ScopeStack) (graph.NodeHandle, ScopeStack, bool) {
	if stack == EmptyScopeStack {
		return 0, EmptyScopeStack, false
	}
	cell := p.scopeCells[stack-1]
	return cell.head, cell.tail, true
}

// ScopeStackLen returns the number of scopes in a stack.
func (p *Paths) ScopeStackLen(stack ScopeStack) int {
	n := 0
	for stack != EmptyScopeStack {
		stack = p.scopeCells[stack-1].tail
		n++
	}
	return n
}

// ScopeStackScopes returns the scopes of a stack, front first.
func (p *Paths) ScopeStackScopes(stack ScopeStack) []graph.NodeHandle {
	var out []graph.NodeHandle
	for stack != EmptyScopeStack {
		cell := p.scopeCells[stack-1]
		out = append(out, cell.head)
		stack = cell.tail
	}
	return out
}
