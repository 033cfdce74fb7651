package archive

import (
	"sort"
	"strings"
)

// Node is one directory or file in a Tree.
type Node struct {
	Name     string
	Path     string // Full slash-separated path from the root
	IsDir    bool
	Entry    *Entry  // nil for directories synthesized from path segments
	Children []*Node // nil for files
}

// Tree is a forest of nodes built once from a flat entry list and
// immutable thereafter. Directories sort before files at every level,
// each group case-sensitive alphabetical.
type Tree struct {
	Roots []*Node

	nodes map[string]*Node // Keyed by full path prefix
}

// Build assembles entries into a tree. Entries may arrive in any order;
// intermediate directories missing from the entry list are synthesized
// exactly once, keyed by full path prefix so same-named directories at
// different depths stay distinct.
func Build(entries []*Entry) *Tree {
	t := &Tree{nodes: make(map[string]*Node, 2*len(entries))}

	for _, e := range entries {
		segs := strings.Split(e.Path, "/")
		var parent *Node
		prefix := ""
		for _, seg := range segs[:len(segs)-1] {
			if prefix == "" {
				prefix = seg
			} else {
				prefix += "/" + seg
			}
			n, ok := t.nodes[prefix]
			if !ok {
				n = &Node{Name: seg, Path: prefix, IsDir: true}
				t.nodes[prefix] = n
				t.attach(parent, n)
			}
			parent = n
		}

		name := segs[len(segs)-1]
		n, ok := t.nodes[e.Path]
		switch {
		case !ok:
			n = &Node{Name: name, Path: e.Path, IsDir: e.IsDir, Entry: e}
			t.nodes[e.Path] = n
			t.attach(parent, n)
		case n.IsDir == e.IsDir:
			// Explicit record for an already-synthesized node, or a
			// duplicate path. The explicit entry wins.
			n.Entry = e
		default:
			// A file colliding with an established directory (or the
			// reverse). Directory evidence from deeper paths wins.
		}
	}

	t.sortChildren()
	return t
}

func (t *Tree) attach(parent, n *Node) {
	if parent == nil {
		t.Roots = append(t.Roots, n)
		return
	}
	parent.Children = append(parent.Children, n)
}

// sortChildren orders every level: directories first, then files, each
// group alphabetical. Iterative so pathologically deep archives cannot
// exhaust the stack.
func (t *Tree) sortChildren() {
	sortLevel(t.Roots)
	stack := append([]*Node(nil), t.Roots...)
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if len(n.Children) == 0 {
			continue
		}
		sortLevel(n.Children)
		stack = append(stack, n.Children...)
	}
}

func sortLevel(nodes []*Node) {
	sort.SliceStable(nodes, func(i, j int) bool {
		if nodes[i].IsDir != nodes[j].IsDir {
			return nodes[i].IsDir
		}
		return nodes[i].Name < nodes[j].Name
	})
}

// Lookup returns the node at the given full path.
func (t *Tree) Lookup(path string) (*Node, bool) {
	n, ok := t.nodes[NormalizePath(path)]
	return n, ok
}

// Len returns the number of nodes in the tree, synthesized directories
// included.
func (t *Tree) Len() int {
	return len(t.nodes)
}

// Walk visits every node depth-first in sorted order.
func (t *Tree) Walk(fn func(*Node)) {
	walkNodes(t.Roots, fn)
}

func walkNodes(nodes []*Node, fn func(*Node)) {
	// Explicit stack, preserving sorted order at each level.
	type frame struct {
		nodes []*Node
		idx   int
	}
	stack := []frame{{nodes: nodes}}
	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		if top.idx >= len(top.nodes) {
			stack = stack[:len(stack)-1]
			continue
		}
		n := top.nodes[top.idx]
		top.idx++
		fn(n)
		if len(n.Children) > 0 {
			stack = append(stack, frame{nodes: n.Children})
		}
	}
}

// Files returns every file node at or beneath n, in tree order.
func (n *Node) Files() []*Node {
	if !n.IsDir {
		return []*Node{n}
	}
	var files []*Node
	walkNodes(n.Children, func(c *Node) {
		if !c.IsDir {
			files = append(files, c)
		}
	})
	return files
}
