package partial

import (
	"errors"
	"fmt"

	"github.com/stackb/stackgraph/pkg/graph"
)

// Errors that prune a partial-path extension or concatenation.  None of them
// escape the stitching algorithms.
var (
	// ErrSymbolStackUnsatisfied means two partial symbol stacks cannot be
	// unified: a symbol mismatched, the kinds (plain vs scoped) disagreed,
	// or the lengths disagreed with no variable to absorb the difference.
	ErrSymbolStackUnsatisfied = errors.New("symbol stack unsatisfied")
	// ErrScopeStackUnsatisfied means two partial scope stacks cannot be
	// unified.
	ErrScopeStackUnsatisfied = errors.New("scope stack unsatisfied")
	// ErrOccursCheck means the same stack variable appears on both sides of
	// a unification with conflicting content.
	ErrOccursCheck = errors.New("occurs check violation")
	// ErrIncorrectPoppedSymbol means the top of a symbol stack does not
	// match a pop node's symbol.
	ErrIncorrectPoppedSymbol = errors.New("incorrect popped symbol")
	// ErrMissingAttachedScopes means a pop-scoped-symbol node found a plain
	// symbol on top of the symbol stack.
	ErrMissingAttachedScopes = errors.New("missing attached scope list")
	// ErrUnexpectedAttachedScopes means a pop-symbol node found a scoped
	// symbol on top of the symbol stack.
	ErrUnexpectedAttachedScopes = errors.New("unexpected attached scope list")
	// ErrEmptySymbolStack means a symbol stack ran out while undoing the
	// effect of a join node.
	ErrEmptySymbolStack = errors.New("empty symbol stack")
	// ErrEmptyScopeStack means a jump-to-scope node was reached with a
	// scope stack that can only be empty.
	ErrEmptyScopeStack = errors.New("empty scope stack")
	// ErrIncorrectSourceNode means two paths cannot be joined because the
	// left path's end node is not the right path's start node.
	ErrIncorrectSourceNode = errors.New("incorrect source node")
	// ErrUnexportedScope means a push-scoped-symbol node attached a scope
	// that is not an exported scope node.
	ErrUnexportedScope = errors.New("attached scope is not exported")
)

// UnknownAttachedScopeError means a push-scoped-symbol node refers to a scope
// ID that does not exist in the graph.  This is fatal for the current search.
type UnknownAttachedScopeError struct {
	ID graph.NodeID
}

func (e *UnknownAttachedScopeError) Error() string {
	return fmt.Sprintf("unknown attached scope: file=%d local_id=%d", e.ID.File, e.ID.LocalID)
}

// IsFatal reports whether an error indicates a corrupted graph rather than an
// ordinary dead end.
func IsFatal(err error) bool {
	var unknownScope *UnknownAttachedScopeError
	return errors.As(err, &unknownScope)
}
