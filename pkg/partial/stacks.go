// Package partial implements partial paths: symbolic path fragments whose
// preconditions and postconditions may contain stack variables, together with
// the unification algebra used to join them.
//
// All of the stack types in this package have value semantics.  Operations
// return new values and never modify the arrays backing their inputs, so
// partial paths can be copied and extended freely.
package partial

import (
	"github.com/stackb/stackgraph/pkg/graph"
)

// SymbolStackVariable identifies a symbol stack variable.  The zero value
// means "no variable".
type SymbolStackVariable uint32

// ScopeStackVariable identifies a scope stack variable.  The zero value means
// "no variable".
type ScopeStackVariable uint32

// The variable used for the pre- and postconditions of a freshly created
// partial path.
const (
	initialSymbolStackVariable SymbolStackVariable = 1
	initialScopeStackVariable  ScopeStackVariable  = 1
)

// WithOffset renames the variable by adding an offset, used to keep the
// variables of two partial paths disjoint.
func (v SymbolStackVariable) WithOffset(offset uint32) SymbolStackVariable {
	if v == 0 {
		return 0
	}
	return v + SymbolStackVariable(offset)
}

// WithOffset renames the variable by adding an offset.
func (v ScopeStackVariable) WithOffset(offset uint32) ScopeStackVariable {
	if v == 0 {
		return 0
	}
	return v + ScopeStackVariable(offset)
}

//-------------------------------------------------------------------------------------------------
// Partial scope stacks

// PartialScopeStack is a pattern that might match against a scope stack: a
// possibly empty list of exported scope nodes, optionally followed by a scope
// stack variable that matches the rest of the stack.
type PartialScopeStack struct {
	scopes   []graph.NodeHandle
	variable ScopeStackVariable
}

// EmptyPartialScopeStack returns a partial scope stack matching only the
// empty stack.
func EmptyPartialScopeStack() PartialScopeStack {
	return PartialScopeStack{}
}

// ScopeStackFromVariable returns a partial scope stack containing only a
// variable.
func ScopeStackFromVariable(variable ScopeStackVariable) PartialScopeStack {
	return PartialScopeStack{variable: variable}
}

// CanMatchEmpty returns whether this pattern can match the empty stack.
func (s PartialScopeStack) CanMatchEmpty() bool { return len(s.scopes) == 0 }

// CanOnlyMatchEmpty returns whether this pattern matches only the empty
// stack.
func (s PartialScopeStack) CanOnlyMatchEmpty() bool {
	return len(s.scopes) == 0 && s.variable == 0
}

// ContainsScopes returns whether the pattern names any concrete scopes.
func (s PartialScopeStack) ContainsScopes() bool { return len(s.scopes) > 0 }

// HasVariable returns whether the pattern ends in a variable.
func (s PartialScopeStack) HasVariable() bool { return s.variable != 0 }

// Variable returns the trailing variable, or zero.
func (s PartialScopeStack) Variable() ScopeStackVariable { return s.variable }

// Len returns the number of concrete scopes in the pattern.
func (s PartialScopeStack) Len() int { return len(s.scopes) }

// Scopes returns the concrete scopes, front first.
func (s PartialScopeStack) Scopes() []graph.NodeHandle {
	out := make([]graph.NodeHandle, len(s.scopes))
	copy(out, s.scopes)
	return out
}

// PushFront returns the stack with a scope prepended.
func (s PartialScopeStack) PushFront(scope graph.NodeHandle) PartialScopeStack {
	scopes := make([]graph.NodeHandle, len(s.scopes)+1)
	scopes[0] = scope
	copy(scopes[1:], s.scopes)
	return PartialScopeStack{scopes: scopes, variable: s.variable}
}

// PushBack returns the stack with a scope appended before the variable.
func (s PartialScopeStack) PushBack(scope graph.NodeHandle) PartialScopeStack {
	scopes := make([]graph.NodeHandle, len(s.scopes)+1)
	copy(scopes, s.scopes)
	scopes[len(s.scopes)] = scope
	return PartialScopeStack{scopes: scopes, variable: s.variable}
}

// PopFront removes and returns the scope at the front of the stack.
func (s PartialScopeStack) PopFront() (graph.NodeHandle, PartialScopeStack, bool) {
	if len(s.scopes) == 0 {
		return 0, s, false
	}
	return s.scopes[0], PartialScopeStack{scopes: s.scopes[1:], variable: s.variable}, true
}

// WithOffset renames every variable in the pattern by adding an offset.
func (s PartialScopeStack) WithOffset(scopeVariableOffset uint32) PartialScopeStack {
	return PartialScopeStack{scopes: s.scopes, variable: s.variable.WithOffset(scopeVariableOffset)}
}

// Matches returns whether two patterns are identical: same scopes and same
// variable.
func (s PartialScopeStack) Matches(other PartialScopeStack) bool {
	return s.Equals(other)
}

// Equals returns whether two patterns are identical.
func (s PartialScopeStack) Equals(other PartialScopeStack) bool {
	if len(s.scopes) != len(other.scopes) || s.variable != other.variable {
		return false
	}
	for i := range s.scopes {
		if s.scopes[i] != other.scopes[i] {
			return false
		}
	}
	return true
}

// Compare defines a total order over patterns, used for deterministic
// output.
func (s PartialScopeStack) Compare(other PartialScopeStack) int {
	for i := 0; i < len(s.scopes) && i < len(other.scopes); i++ {
		if s.scopes[i] != other.scopes[i] {
			if s.scopes[i] < other.scopes[i] {
				return -1
			}
			return 1
		}
	}
	if len(s.scopes) != len(other.scopes) {
		if len(s.scopes) < len(other.scopes) {
			return -1
		}
		return 1
	}
	if s.variable != other.variable {
		if s.variable < other.variable {
			return -1
		}
		return 1
	}
	return 0
}

// ApplyBindings substitutes any bound trailing variable, producing a new
// pattern.
func (s PartialScopeStack) ApplyBindings(scopeBindings *ScopeStackBindings) (PartialScopeStack, error) {
	result := EmptyPartialScopeStack()
	if s.variable != 0 {
		if bound, ok := scopeBindings.Get(s.variable); ok {
			result = bound
		} else {
			result = ScopeStackFromVariable(s.variable)
		}
	}
	for i := len(s.scopes) - 1; i >= 0; i-- {
		result = result.PushFront(s.scopes[i])
	}
	return result, nil
}

// Unify computes the most general pattern that satisfies both inputs,
// updating the bindings with whatever constraints are needed.  Unification is
// commutative; concatenation of partial paths is not.
func (s PartialScopeStack) Unify(rhs PartialScopeStack, bindings *ScopeStackBindings) (PartialScopeStack, error) {
	lhs := s
	original := s
	originalRHS := rhs

	// Compare the shortest common prefix.
	for lhs.ContainsScopes() && rhs.ContainsScopes() {
		var lhsFront, rhsFront graph.NodeHandle
		lhsFront, lhs, _ = lhs.PopFront()
		rhsFront, rhs, _ = rhs.PopFront()
		if lhsFront != rhsFront {
			return PartialScopeStack{}, ErrScopeStackUnsatisfied
		}
	}

	// Both sides exhausted: bind any variables that are present.
	if !lhs.ContainsScopes() && !rhs.ContainsScopes() {
		switch {
		case lhs.variable == 0 && rhs.variable == 0:
			return original, nil
		case lhs.variable == 0:
			if err := bindings.Add(rhs.variable, EmptyPartialScopeStack()); err != nil {
				return PartialScopeStack{}, err
			}
			return originalRHS, nil
		case rhs.variable == 0:
			if err := bindings.Add(lhs.variable, EmptyPartialScopeStack()); err != nil {
				return PartialScopeStack{}, err
			}
			return original, nil
		default:
			if err := bindings.Add(rhs.variable, ScopeStackFromVariable(lhs.variable)); err != nil {
				return PartialScopeStack{}, err
			}
			return original, nil
		}
	}

	// One side still has scopes and the empty side has no variable to
	// capture them.
	if !lhs.ContainsScopes() && lhs.variable == 0 {
		return PartialScopeStack{}, ErrScopeStackUnsatisfied
	}
	if !rhs.ContainsScopes() && rhs.variable == 0 {
		return PartialScopeStack{}, ErrScopeStackUnsatisfied
	}

	// The empty side's variable captures the remainder of the other side.
	if lhs.variable != 0 && lhs.variable == rhs.variable {
		return PartialScopeStack{}, ErrOccursCheck
	}
	if lhs.ContainsScopes() {
		if err := bindings.Add(rhs.variable, lhs); err != nil {
			return PartialScopeStack{}, err
		}
		return original, nil
	}
	if err := bindings.Add(lhs.variable, rhs); err != nil {
		return PartialScopeStack{}, err
	}
	return originalRHS, nil
}

// LargestScopeStackVariable returns the largest variable in the pattern.
func (s PartialScopeStack) LargestScopeStackVariable() uint32 {
	return uint32(s.variable)
}

//-------------------------------------------------------------------------------------------------
// Partial scoped symbols

// PartialScopedSymbol is a symbol with an unknown, but possibly empty, list
// of exported scopes attached to it.  Not having an attached scope stack is
// different from having an empty one.
type PartialScopedSymbol struct {
	Symbol graph.Symbol
	// Scopes is the attached scope stack pattern; only meaningful if
	// HasScopes.
	Scopes    PartialScopeStack
	HasScopes bool
}

// WithOffset renames the scope variables of the attached scope stack.
func (s PartialScopedSymbol) WithOffset(scopeVariableOffset uint32) PartialScopedSymbol {
	if s.HasScopes {
		s.Scopes = s.Scopes.WithOffset(scopeVariableOffset)
	}
	return s
}

// Unify matches this symbol against another, unifying any attached scope
// stacks into the bindings.
func (s PartialScopedSymbol) Unify(rhs PartialScopedSymbol, scopeBindings *ScopeStackBindings) (PartialScopedSymbol, error) {
	if s.Symbol != rhs.Symbol {
		return PartialScopedSymbol{}, ErrSymbolStackUnsatisfied
	}
	if s.HasScopes != rhs.HasScopes {
		return PartialScopedSymbol{}, ErrSymbolStackUnsatisfied
	}
	if s.HasScopes {
		unified, err := s.Scopes.Unify(rhs.Scopes, scopeBindings)
		if err != nil {
			return PartialScopedSymbol{}, err
		}
		s.Scopes = unified
	}
	return s, nil
}

// Matches returns whether two partial scoped symbols are identical.
func (s PartialScopedSymbol) Matches(other PartialScopedSymbol) bool {
	return s.Equals(other)
}

// Equals returns whether two partial scoped symbols are identical.
func (s PartialScopedSymbol) Equals(other PartialScopedSymbol) bool {
	if s.Symbol != other.Symbol || s.HasScopes != other.HasScopes {
		return false
	}
	if s.HasScopes && !s.Scopes.Equals(other.Scopes) {
		return false
	}
	return true
}

// ApplyBindings substitutes bound variables in the attached scope stack.
func (s PartialScopedSymbol) ApplyBindings(scopeBindings *ScopeStackBindings) (PartialScopedSymbol, error) {
	if s.HasScopes {
		scopes, err := s.Scopes.ApplyBindings(scopeBindings)
		if err != nil {
			return PartialScopedSymbol{}, err
		}
		s.Scopes = scopes
	}
	return s, nil
}

//-------------------------------------------------------------------------------------------------
// Partial symbol stacks

// PartialSymbolStack is a pattern that might match against a symbol stack: a
// possibly empty list of partial scoped symbols, optionally followed by a
// symbol stack variable.
type PartialSymbolStack struct {
	symbols  []PartialScopedSymbol
	variable SymbolStackVariable
}

// EmptyPartialSymbolStack returns a partial symbol stack matching only the
// empty stack.
func EmptyPartialSymbolStack() PartialSymbolStack {
	return PartialSymbolStack{}
}

// SymbolStackFromVariable returns a partial symbol stack containing only a
// variable.
func SymbolStackFromVariable(variable SymbolStackVariable) PartialSymbolStack {
	return PartialSymbolStack{variable: variable}
}

// CanMatchEmpty returns whether this pattern can match the empty stack.
func (s PartialSymbolStack) CanMatchEmpty() bool { return len(s.symbols) == 0 }

// CanOnlyMatchEmpty returns whether this pattern matches only the empty
// stack.
func (s PartialSymbolStack) CanOnlyMatchEmpty() bool {
	return len(s.symbols) == 0 && s.variable == 0
}

// ContainsSymbols returns whether the pattern names any concrete symbols.
func (s PartialSymbolStack) ContainsSymbols() bool { return len(s.symbols) > 0 }

// HasVariable returns whether the pattern ends in a variable.
func (s PartialSymbolStack) HasVariable() bool { return s.variable != 0 }

// Variable returns the trailing variable, or zero.
func (s PartialSymbolStack) Variable() SymbolStackVariable { return s.variable }

// Len returns the number of concrete symbols in the pattern.
func (s PartialSymbolStack) Len() int { return len(s.symbols) }

// Symbols returns the concrete symbols, front first.
func (s PartialSymbolStack) Symbols() []PartialScopedSymbol {
	out := make([]PartialScopedSymbol, len(s.symbols))
	copy(out, s.symbols)
	return out
}

// PushFront returns the stack with a symbol prepended.
func (s PartialSymbolStack) PushFront(symbol PartialScopedSymbol) PartialSymbolStack {
	symbols := make([]PartialScopedSymbol, len(s.symbols)+1)
	symbols[0] = symbol
	copy(symbols[1:], s.symbols)
	return PartialSymbolStack{symbols: symbols, variable: s.variable}
}

// PushBack returns the stack with a symbol appended before the variable.
func (s PartialSymbolStack) PushBack(symbol PartialScopedSymbol) PartialSymbolStack {
	symbols := make([]PartialScopedSymbol, len(s.symbols)+1)
	copy(symbols, s.symbols)
	symbols[len(s.symbols)] = symbol
	return PartialSymbolStack{symbols: symbols, variable: s.variable}
}

// PopFront removes and returns the symbol at the front of the stack.
func (s PartialSymbolStack) PopFront() (PartialScopedSymbol, PartialSymbolStack, bool) {
	if len(s.symbols) == 0 {
		return PartialScopedSymbol{}, s, false
	}
	return s.symbols[0], PartialSymbolStack{symbols: s.symbols[1:], variable: s.variable}, true
}

// WithOffset renames every variable in the pattern by adding the offsets.
func (s PartialSymbolStack) WithOffset(symbolVariableOffset, scopeVariableOffset uint32) PartialSymbolStack {
	symbols := make([]PartialScopedSymbol, len(s.symbols))
	for i, sym := range s.symbols {
		symbols[i] = sym.WithOffset(scopeVariableOffset)
	}
	return PartialSymbolStack{symbols: symbols, variable: s.variable.WithOffset(symbolVariableOffset)}
}

// Matches returns whether two patterns are identical.
func (s PartialSymbolStack) Matches(other PartialSymbolStack) bool {
	return s.Equals(other)
}

// Equals returns whether two patterns are identical.
func (s PartialSymbolStack) Equals(other PartialSymbolStack) bool {
	if len(s.symbols) != len(other.symbols) || s.variable != other.variable {
		return false
	}
	for i := range s.symbols {
		if !s.symbols[i].Equals(other.symbols[i]) {
			return false
		}
	}
	return true
}

// ApplyBindings substitutes bound variables throughout the pattern.
func (s PartialSymbolStack) ApplyBindings(symbolBindings *SymbolStackBindings, scopeBindings *ScopeStackBindings) (PartialSymbolStack, error) {
	result := EmptyPartialSymbolStack()
	if s.variable != 0 {
		if bound, ok := symbolBindings.Get(s.variable); ok {
			result = bound
		} else {
			result = SymbolStackFromVariable(s.variable)
		}
	}
	for i := len(s.symbols) - 1; i >= 0; i-- {
		symbol, err := s.symbols[i].ApplyBindings(scopeBindings)
		if err != nil {
			return PartialSymbolStack{}, err
		}
		result = result.PushFront(symbol)
	}
	return result, nil
}

// Unify computes the most general pattern that satisfies both inputs,
// updating the bindings with whatever constraints are needed.
func (s PartialSymbolStack) Unify(rhs PartialSymbolStack, symbolBindings *SymbolStackBindings, scopeBindings *ScopeStackBindings) (PartialSymbolStack, error) {
	lhs := s

	// Compare the shortest common prefix, unifying attached scope stacks
	// element by element.
	var head []PartialScopedSymbol
	for lhs.ContainsSymbols() && rhs.ContainsSymbols() {
		var lhsFront, rhsFront PartialScopedSymbol
		lhsFront, lhs, _ = lhs.PopFront()
		rhsFront, rhs, _ = rhs.PopFront()
		unified, err := lhsFront.Unify(rhsFront, scopeBindings)
		if err != nil {
			return PartialSymbolStack{}, err
		}
		head = append(head, unified)
	}

	prepend := func(tail PartialSymbolStack) PartialSymbolStack {
		for i := len(head) - 1; i >= 0; i-- {
			tail = tail.PushFront(head[i])
		}
		return tail
	}

	// Both sides exhausted: bind any variables that are present.
	if !lhs.ContainsSymbols() && !rhs.ContainsSymbols() {
		switch {
		case lhs.variable == 0 && rhs.variable == 0:
			return prepend(lhs), nil
		case lhs.variable == 0:
			if err := symbolBindings.Add(rhs.variable, EmptyPartialSymbolStack(), scopeBindings); err != nil {
				return PartialSymbolStack{}, err
			}
			return prepend(rhs), nil
		case rhs.variable == 0:
			if err := symbolBindings.Add(lhs.variable, EmptyPartialSymbolStack(), scopeBindings); err != nil {
				return PartialSymbolStack{}, err
			}
			return prepend(lhs), nil
		default:
			if err := symbolBindings.Add(rhs.variable, SymbolStackFromVariable(lhs.variable), scopeBindings); err != nil {
				return PartialSymbolStack{}, err
			}
			return prepend(lhs), nil
		}
	}

	// One side still has symbols and the empty side has no variable to
	// capture them.
	if !lhs.ContainsSymbols() && lhs.variable == 0 {
		return PartialSymbolStack{}, ErrSymbolStackUnsatisfied
	}
	if !rhs.ContainsSymbols() && rhs.variable == 0 {
		return PartialSymbolStack{}, ErrSymbolStackUnsatisfied
	}

	// The empty side's variable captures the remainder of the other side.
	if lhs.variable != 0 && lhs.variable == rhs.variable {
		return PartialSymbolStack{}, ErrOccursCheck
	}
	if lhs.ContainsSymbols() {
		if err := symbolBindings.Add(rhs.variable, lhs, scopeBindings); err != nil {
			return PartialSymbolStack{}, err
		}
		return prepend(lhs), nil
	}
	if err := symbolBindings.Add(lhs.variable, rhs, scopeBindings); err != nil {
		return PartialSymbolStack{}, err
	}
	return prepend(rhs), nil
}

// LargestSymbolStackVariable returns the largest symbol stack variable in the
// pattern.
func (s PartialSymbolStack) LargestSymbolStackVariable() uint32 {
	return uint32(s.variable)
}

// LargestScopeStackVariable returns the largest scope stack variable attached
// to any symbol in the pattern.
func (s PartialSymbolStack) LargestScopeStackVariable() uint32 {
	var largest uint32
	for _, sym := range s.symbols {
		if sym.HasScopes {
			if v := sym.Scopes.LargestScopeStackVariable(); v > largest {
				largest = v
			}
		}
	}
	return largest
}

//-------------------------------------------------------------------------------------------------
// Bindings

// SymbolStackBindings records what partial symbol stack each symbol stack
// variable matched during a unification.
type SymbolStackBindings struct {
	bindings map[SymbolStackVariable]PartialSymbolStack
}

// NewSymbolStackBindings creates an empty set of bindings.
func NewSymbolStackBindings() *SymbolStackBindings {
	return &SymbolStackBindings{bindings: make(map[SymbolStackVariable]PartialSymbolStack)}
}

// Get returns the stack bound to a variable.
func (b *SymbolStackBindings) Get(variable SymbolStackVariable) (PartialSymbolStack, bool) {
	bound, ok := b.bindings[variable]
	return bound, ok
}

// IsBound returns whether the variable has a binding.
func (b *SymbolStackBindings) IsBound(variable SymbolStackVariable) bool {
	_, ok := b.bindings[variable]
	return ok
}

// Add binds a variable to a stack.  Rebinding unifies the new stack with the
// existing binding.
func (b *SymbolStackBindings) Add(variable SymbolStackVariable, symbols PartialSymbolStack, scopeBindings *ScopeStackBindings) error {
	if old, ok := b.bindings[variable]; ok {
		unified, err := symbols.Unify(old, b, scopeBindings)
		if err != nil {
			return err
		}
		symbols = unified
	}
	b.bindings[variable] = symbols
	return nil
}

// ScopeStackBindings records what partial scope stack each scope stack
// variable matched during a unification.
type ScopeStackBindings struct {
	bindings map[ScopeStackVariable]PartialScopeStack
}

// NewScopeStackBindings creates an empty set of bindings.
func NewScopeStackBindings() *ScopeStackBindings {
	return &ScopeStackBindings{bindings: make(map[ScopeStackVariable]PartialScopeStack)}
}

// Get returns the stack bound to a variable.
func (b *ScopeStackBindings) Get(variable ScopeStackVariable) (PartialScopeStack, bool) {
	bound, ok := b.bindings[variable]
	return bound, ok
}

// IsBound returns whether the variable has a binding.
func (b *ScopeStackBindings) IsBound(variable ScopeStackVariable) bool {
	_, ok := b.bindings[variable]
	return ok
}

// Add binds a variable to a stack.  Rebinding unifies the new stack with the
// existing binding.
func (b *ScopeStackBindings) Add(variable ScopeStackVariable, scopes PartialScopeStack) error {
	if old, ok := b.bindings[variable]; ok {
		unified, err := scopes.Unify(old, b)
		if err != nil {
			return err
		}
		scopes = unified
	}
	b.bindings[variable] = scopes
	return nil
}
