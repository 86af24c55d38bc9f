package relation

import (
	"errors"
	"testing"

	"github.com/BurntSushi/xgb/xproto"
)

func TestSetTransientFor_Basic(t *testing.T) {
	g := New()
	if err := g.SetTransientFor(2, 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	p, ok := g.Parent(2)
	if !ok || p != 1 {
		t.Fatalf("expected parent 1, got %d (%v)", p, ok)
	}
	kids := g.Children(1)
	if len(kids) != 1 || kids[0] != 2 {
		t.Fatalf("expected children [2], got %v", kids)
	}
}

func TestSetTransientFor_Replace(t *testing.T) {
	g := New()
	if err := g.SetTransientFor(3, 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := g.SetTransientFor(3, 2); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if kids := g.Children(1); len(kids) != 0 {
		t.Fatalf("old parent still has children: %v", kids)
	}
	if p, _ := g.Parent(3); p != 2 {
		t.Fatalf("expected parent 2, got %d", p)
	}
}

func TestSetTransientFor_ClearWithZero(t *testing.T) {
	g := New()
	if err := g.SetTransientFor(2, 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := g.SetTransientFor(2, 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := g.Parent(2); ok {
		t.Fatalf("expected relation cleared")
	}
}

func TestSetTransientFor_RejectsSelf(t *testing.T) {
	g := New()
	if err := g.SetTransientFor(1, 1); !errors.Is(err, ErrCycle) {
		t.Fatalf("expected ErrCycle, got %v", err)
	}
}

func TestSetTransientFor_RejectsCycleAndLeavesGraphUnchanged(t *testing.T) {
	g := New()
	// 3 -> 2 -> 1
	if err := g.SetTransientFor(2, 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := g.SetTransientFor(3, 2); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// 1 -> 3 would close the loop.
	if err := g.SetTransientFor(1, 3); !errors.Is(err, ErrCycle) {
		t.Fatalf("expected ErrCycle, got %v", err)
	}

	if _, ok := g.Parent(1); ok {
		t.Fatalf("rejected edge modified the graph")
	}
	if p, _ := g.Parent(2); p != 1 {
		t.Fatalf("existing edges disturbed")
	}
}

func TestSearch_SkipsAndStaysInSubtree(t *testing.T) {
	g := New()
	// Tree: 1 -> {2, 3}, 2 -> {4}; separate tree: 10 -> {11}.
	mustSet(t, g, 2, 1)
	mustSet(t, g, 3, 1)
	mustSet(t, g, 4, 2)
	mustSet(t, g, 11, 10)

	modal := map[xproto.Window]bool{4: true, 11: true}
	match := func(w xproto.Window) bool { return modal[w] }

	got, ok := g.Search(1, 0, match)
	if !ok || got != 4 {
		t.Fatalf("expected 4, got %d (%v)", got, ok)
	}

	// Node 11 is modal but outside 1's subtree.
	modal[4] = false
	if w, ok := g.Search(1, 0, match); ok {
		t.Fatalf("search escaped the subtree, found %d", w)
	}

	// The skip node is never returned even when it matches.
	modal[3] = true
	if w, ok := g.Search(1, 3, match); ok {
		t.Fatalf("expected skip to hide 3, found %d", w)
	}
}

func TestSearch_NeverReturnsRoot(t *testing.T) {
	g := New()
	mustSet(t, g, 2, 1)

	got, ok := g.Search(1, 0, func(xproto.Window) bool { return true })
	if !ok || got != 2 {
		t.Fatalf("expected child 2, got %d (%v)", got, ok)
	}
}

func TestSearch_SurvivesCyclicEdges(t *testing.T) {
	g := New()
	mustSet(t, g, 2, 1)
	// Force a cycle behind the API's back to exercise the visited guard.
	g.parent[1] = 2
	g.children[2] = map[xproto.Window]struct{}{1: {}}

	if _, ok := g.Search(1, 0, func(xproto.Window) bool { return false }); ok {
		t.Fatalf("expected no match")
	}
}

func TestDetachOnDestroy_ReparentsToGrandparent(t *testing.T) {
	g := New()
	// 3,4 -> 2 -> 1
	mustSet(t, g, 2, 1)
	mustSet(t, g, 3, 2)
	mustSet(t, g, 4, 2)

	g.DetachOnDestroy(2)

	for _, w := range []xproto.Window{3, 4} {
		if p, ok := g.Parent(w); !ok || p != 1 {
			t.Fatalf("expected %d re-parented to 1, got %d (%v)", w, p, ok)
		}
	}
	if kids := g.Children(1); len(kids) != 2 {
		t.Fatalf("expected two grandchildren under 1, got %v", kids)
	}
	if _, ok := g.Parent(2); ok {
		t.Fatalf("destroyed window still has a parent")
	}
}

func TestDetachOnDestroy_OrphansWithoutGrandparent(t *testing.T) {
	g := New()
	mustSet(t, g, 2, 1)
	mustSet(t, g, 3, 1)

	g.DetachOnDestroy(1)

	for _, w := range []xproto.Window{2, 3} {
		if _, ok := g.Parent(w); ok {
			t.Fatalf("expected %d orphaned", w)
		}
	}
}

func mustSet(t *testing.T, g *Graph, child, parent xproto.Window) {
	t.Helper()
	if err := g.SetTransientFor(child, parent); err != nil {
		t.Fatalf("SetTransientFor(%d, %d): %v", child, parent, err)
	}
}
