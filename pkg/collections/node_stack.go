// stack of node handles
package collections

import "github.com/stackb/stackgraph/pkg/graph"

type NodeStack []graph.NodeHandle

// IsEmpty checks if the stack is empty
func (s *NodeStack) IsEmpty() bool {
	return len(*s) == 0
}

// Push a new node handle onto the stack
func (s *NodeStack) Push(x graph.NodeHandle) {
	*s = append(*s, x)
}

// Pop: remove and return top element of stack, return false if stack is empty
func (s *NodeStack) Pop() (graph.NodeHandle, bool) {
	if s.IsEmpty() {
		return 0, false
	}

	i := len(*s) - 1
	x := (*s)[i]
	*s = (*s)[:i]

	return x, true
}

// Peek: return top element of stack, return false if stack is empty
func (s *NodeStack) Peek() (graph.NodeHandle, bool) {
	if s.IsEmpty() {
		return 0, false
	}

	i := len(*s) - 1
	x := (*s)[i]

	return x, true
}
