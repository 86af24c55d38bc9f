// Package relation tracks the transient-for relationships between managed
// windows: which window logically owns which dialogs. The graph is keyed by
// window id so it never holds client objects alive, and every edge insert
// is cycle-checked so the modal and focus searches always terminate.
package relation

import (
	"errors"
	"sort"

	"github.com/BurntSushi/xgb/xproto"
)

// ErrCycle is returned when a transient-for edge would make a window its
// own ancestor. The graph is left unchanged.
var ErrCycle = errors.New("transient-for relation would create a cycle")

// Graph holds the transient-for back-references and the reverse
// transient-children sets. The zero value is not usable; call New.
type Graph struct {
	parent   map[xproto.Window]xproto.Window
	children map[xproto.Window]map[xproto.Window]struct{}
}

// New returns an empty relation graph.
func New() *Graph {
	return &Graph{
		parent:   make(map[xproto.Window]xproto.Window),
		children: make(map[xproto.Window]map[xproto.Window]struct{}),
	}
}

// Parent returns the window child is transient for, if any.
func (g *Graph) Parent(child xproto.Window) (xproto.Window, bool) {
	p, ok := g.parent[child]
	return p, ok
}

// Children returns the transient children of w in ascending window-id order.
func (g *Graph) Children(w xproto.Window) []xproto.Window {
	set := g.children[w]
	if len(set) == 0 {
		return nil
	}
	out := make([]xproto.Window, 0, len(set))
	for c := range set {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// SetTransientFor records that child is transient for parent, replacing any
// previous relation. A parent of 0 clears the relation. The edge is
// rejected with ErrCycle when parent is child itself or already a
// descendant of child.
func (g *Graph) SetTransientFor(child, parent xproto.Window) error {
	if parent == child {
		return ErrCycle
	}
	if parent != 0 && g.isDescendant(parent, child) {
		return ErrCycle
	}

	g.clearParent(child)
	if parent == 0 {
		return nil
	}

	g.parent[child] = parent
	set := g.children[parent]
	if set == nil {
		set = make(map[xproto.Window]struct{})
		g.children[parent] = set
	}
	set[child] = struct{}{}
	return nil
}

// Search walks root's transient subtree depth-first and returns the first
// descendant for which match is true. The root itself and skip are never
// returned. The traversal keeps a visited set, so it terminates even if a
// cyclic edge ever slipped in.
func (g *Graph) Search(root, skip xproto.Window, match func(xproto.Window) bool) (xproto.Window, bool) {
	visited := map[xproto.Window]struct{}{root: {}}
	stack := g.Children(root)

	for len(stack) > 0 {
		w := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if _, seen := visited[w]; seen {
			continue
		}
		visited[w] = struct{}{}

		if w != skip && match(w) {
			return w, true
		}
		stack = append(stack, g.Children(w)...)
	}
	return 0, false
}

// DetachOnDestroy removes w from the graph, re-parenting its transient
// children to w's own parent, or orphaning them when w had none. Called
// before the client is released so the graph never references a dead
// window.
func (g *Graph) DetachOnDestroy(w xproto.Window) {
	newParent := g.parent[w] // zero when w had no parent

	for child := range g.children[w] {
		delete(g.parent, child)
		if newParent != 0 {
			g.parent[child] = newParent
			set := g.children[newParent]
			if set == nil {
				set = make(map[xproto.Window]struct{})
				g.children[newParent] = set
			}
			set[child] = struct{}{}
		}
	}
	delete(g.children, w)
	g.clearParent(w)
}

// isDescendant reports whether w is inside root's transient subtree.
func (g *Graph) isDescendant(w, root xproto.Window) bool {
	found := false
	g.Search(root, 0, func(n xproto.Window) bool {
		if n == w {
			found = true
		}
		return found
	})
	return found
}

func (g *Graph) clearParent(child xproto.Window) {
	p, ok := g.parent[child]
	if !ok {
		return
	}
	delete(g.parent, child)
	if set := g.children[p]; set != nil {
		delete(set, child)
		if len(set) == 0 {
			delete(g.children, p)
		}
	}
}
