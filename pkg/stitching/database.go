// Package stitching joins partial paths together to produce name-binding
// paths.
//
// The Database type holds a collection of partial paths, indexed so that the
// stitching algorithm can quickly find every path that could extend a given
// incomplete path: by start node for file-local paths, and by symbol stack
// precondition for paths starting at the root node.  The stitchers run in
// bounded phases so that the CPU-bound search can be interrupted and resumed.
package stitching

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dghubble/trie"
	"github.com/rs/zerolog"

	"github.com/stackb/stackgraph/pkg/collections"
	"github.com/stackb/stackgraph/pkg/graph"
	"github.com/stackb/stackgraph/pkg/partial"
)

// PathHandle is a handle to a partial path stored in a Database.
type PathHandle uint32

// Database contains a collection of partial paths, typically the output of
// indexing one or more files.  It is meant to be a view into a proper
// storage layer: the stitching algorithm gives the caller a chance to load
// only the partial paths that are actually needed.
//
// Partial paths that start at the root node are indexed by their symbol stack
// precondition in a path trie, keyed by the interned symbol handles.  That
// gives the three lookups the root join needs: paths whose precondition
// exactly matches a symbol stack, paths whose open precondition is a prefix
// of it, and paths whose precondition extends it.
type Database struct {
	log zerolog.Logger

	paths            []partial.PartialPath
	pathsByStartNode map[graph.NodeHandle][]PathHandle

	rootPathsExact        *trie.PathTrie
	rootPathsWithVariable *trie.PathTrie
	rootPathsPrefix       *trie.PathTrie

	incomingPaths map[graph.NodeHandle]graph.Degree
	localNodes    map[graph.NodeHandle]bool
}

// symbolKeySegmenter segments database keys of the form ".5.9.12" produced
// by symbolStackKey, one segment per interned symbol handle.
func symbolKeySegmenter(path string, start int) (segment string, next int) {
	if len(path) == 0 || start < 0 || start > len(path)-1 {
		return "", -1
	}
	end := strings.IndexRune(path[start+1:], '.')
	if end == -1 {
		return path[start:], -1
	}
	return path[start : start+end+1], start + end + 1
}

func newSymbolKeyTrie() *trie.PathTrie {
	return trie.NewPathTrieWithConfig(&trie.PathTrieConfig{Segmenter: symbolKeySegmenter})
}

// NewDatabase creates a new, empty database.
func NewDatabase(log zerolog.Logger) *Database {
	return &Database{
		log:                   log,
		pathsByStartNode:      make(map[graph.NodeHandle][]PathHandle),
		rootPathsExact:        newSymbolKeyTrie(),
		rootPathsWithVariable: newSymbolKeyTrie(),
		rootPathsPrefix:       newSymbolKeyTrie(),
		incomingPaths:         make(map[graph.NodeHandle]graph.Degree),
		localNodes:            make(map[graph.NodeHandle]bool),
	}
}

// symbolStackKey renders the concrete symbols of a partial symbol stack as a
// trie key.  Only the symbol handles participate; attached scopes are checked
// during unification anyway.
func symbolStackKey(stack partial.PartialSymbolStack) string {
	var sb strings.Builder
	for _, symbol := range stack.Symbols() {
		sb.WriteByte('.')
		sb.WriteString(strconv.FormatUint(uint64(symbol.Symbol), 10))
	}
	return sb.String()
}

// keyPrefixes returns every nonempty proper prefix of a symbol stack key.
func keyPrefixes(key string) []string {
	var out []string
	for i := 1; i < len(key); i++ {
		if key[i] == '.' {
			out = append(out, key[:i])
		}
	}
	return out
}

func appendToTrie(t *trie.PathTrie, key string, handle PathHandle) {
	if existing := t.Get(key); existing != nil {
		t.Put(key, append(existing.([]PathHandle), handle))
		return
	}
	t.Put(key, []PathHandle{handle})
}

// Add adds a partial path to the database.  Divergent paths (root start, bare
// symbol stack variable precondition) are dropped: storing one would allow it
// to concatenate with itself indefinitely.  Paths are not deduplicated; it is
// the caller's responsibility to add each path once.
func (db *Database) Add(g *graph.StackGraph, path partial.PartialPath) (PathHandle, bool) {
	if path.IsDivergent(g) {
		db.log.Debug().
			Uint32("start_node", uint32(path.StartNode)).
			Uint32("end_node", uint32(path.EndNode)).
			Msg("dropping divergent partial path")
		return 0, false
	}

	handle := PathHandle(len(db.paths))
	db.paths = append(db.paths, path)

	if g.MustNode(path.StartNode).IsRoot() {
		key := symbolStackKey(path.SymbolStackPrecondition)
		if key != "" {
			if path.SymbolStackPrecondition.HasVariable() {
				appendToTrie(db.rootPathsWithVariable, key, handle)
			} else {
				appendToTrie(db.rootPathsExact, key, handle)
			}
			for _, prefix := range keyPrefixes(key) {
				appendToTrie(db.rootPathsPrefix, prefix, handle)
			}
		}
	} else {
		db.pathsByStartNode[path.StartNode] = append(db.pathsByStartNode[path.StartNode], handle)
	}

	db.incomingPaths[path.EndNode] = db.incomingPaths[path.EndNode].Add(graph.DegreeOne)
	return handle, true
}

// Len returns the number of partial paths in the database.
func (db *Database) Len() int { return len(db.paths) }

// Path returns the partial path for a handle.
func (db *Database) Path(handle PathHandle) (*partial.PartialPath, error) {
	if int(handle) >= len(db.paths) {
		return nil, fmt.Errorf("unknown partial path handle: %d", handle)
	}
	return &db.paths[handle], nil
}

// Paths returns the handles of all partial paths, in insertion order.
func (db *Database) Paths() []PathHandle {
	out := make([]PathHandle, len(db.paths))
	for i := range db.paths {
		out[i] = PathHandle(i)
	}
	return out
}

// FindCandidatePaths finds the partial paths that could extend the given
// path: paths starting at its end node, or, when the path ends at root, paths
// whose symbol stack precondition is compatible with the path's symbol stack
// postcondition.
func (db *Database) FindCandidatePaths(g *graph.StackGraph, path *partial.PartialPath) []PathHandle {
	if g.MustNode(path.EndNode).IsRoot() {
		stack := path.SymbolStackPostcondition
		return db.FindCandidatePathsFromRoot(g, &stack)
	}
	return db.FindCandidatePathsFromNode(g, path.EndNode)
}

// FindCandidatePathsFromRoot finds the partial paths that start at the root
// node and whose symbol stack precondition is compatible with the given
// symbol stack.  A nil stack returns every root path.
func (db *Database) FindCandidatePathsFromRoot(g *graph.StackGraph, symbolStack *partial.PartialSymbolStack) []PathHandle {
	var result []PathHandle
	if symbolStack == nil {
		collect := func(key string, value interface{}) error {
			result = append(result, value.([]PathHandle)...)
			return nil
		}
		db.rootPathsWithVariable.Walk(collect)
		db.rootPathsExact.Walk(collect)
		return result
	}

	key := symbolStackKey(*symbolStack)

	// Paths whose precondition is exactly this symbol stack.
	if key != "" {
		if exact := db.rootPathsExact.Get(key); exact != nil {
			result = append(result, exact.([]PathHandle)...)
		}
	}
	// Paths whose precondition extends this symbol stack; only possible if
	// the stack is open.
	if symbolStack.HasVariable() && key != "" {
		if extensions := db.rootPathsPrefix.Get(key); extensions != nil {
			result = append(result, extensions.([]PathHandle)...)
		}
	}
	// Paths with an open precondition that is a prefix of this symbol stack.
	if key != "" {
		db.rootPathsWithVariable.WalkPath(key, func(_ string, value interface{}) error {
			result = append(result, value.([]PathHandle)...)
			return nil
		})
	}
	return result
}

// FindCandidatePathsFromNode finds the partial paths that start at the given
// node.  No precondition filtering happens here; each candidate is checked
// during concatenation anyway, and non-root nodes typically have few
// candidates.
func (db *Database) FindCandidatePathsFromNode(g *graph.StackGraph, startNode graph.NodeHandle) []PathHandle {
	stored := db.pathsByStartNode[startNode]
	out := make([]PathHandle, len(stored))
	copy(out, stored)
	return out
}

// IncomingPathDegree returns the number of paths that share the given end
// node.
func (db *Database) IncomingPathDegree(endNode graph.NodeHandle) graph.Degree {
	return db.incomingPaths[endNode]
}

// FindLocalNodes determines which nodes are local: no partial path in this
// database connects them to the root node in either direction, so they
// cannot participate in any path that leaves the file.  Meant to be called
// at index time, right after computing a file's partial paths.
func (db *Database) FindLocalNodes() {
	db.localNodes = make(map[graph.NodeHandle]bool)
	for i := range db.paths {
		db.localNodes[db.paths[i].StartNode] = true
		db.localNodes[db.paths[i].EndNode] = true
	}

	nonlocalStart := map[graph.NodeHandle]bool{graph.RootNode: true, graph.JumpToNode: true}
	nonlocalEnd := map[graph.NodeHandle]bool{graph.RootNode: true, graph.JumpToNode: true}
	delete(db.localNodes, graph.RootNode)
	delete(db.localNodes, graph.JumpToNode)

	var work collections.NodeStack
	work.Push(graph.RootNode)
	work.Push(graph.JumpToNode)
	for {
		node, ok := work.Pop()
		if !ok {
			break
		}
		for i := range db.paths {
			start := db.paths[i].StartNode
			end := db.paths[i].EndNode
			// Non-localness propagates forwards from start nodes and
			// backwards from end nodes.
			if start == node && nonlocalStart[node] && !nonlocalStart[end] {
				nonlocalStart[end] = true
				delete(db.localNodes, end)
				work.Push(end)
			}
			if end == node && nonlocalEnd[node] && !nonlocalEnd[start] {
				nonlocalEnd[start] = true
				delete(db.localNodes, start)
				work.Push(start)
			}
		}
	}
}

// MarkLocalNode records that a node is local.  Meant to be called at query
// time, when loading precalculated local-node sets from storage.
func (db *Database) MarkLocalNode(node graph.NodeHandle) {
	db.localNodes[node] = true
}

// NodeIsLocal returns whether a node is local according to this database.
// Call FindLocalNodes or MarkLocalNode first.
func (db *Database) NodeIsLocal(node graph.NodeHandle) bool {
	return db.localNodes[node]
}

// LocalNodes returns the nodes currently marked local.
func (db *Database) LocalNodes() []graph.NodeHandle {
	var out []graph.NodeHandle
	for node, local := range db.localNodes {
		if local {
			out = append(out, node)
		}
	}
	return out
}
