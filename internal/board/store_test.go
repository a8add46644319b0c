/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package board

import (
	"fmt"
	"testing"

	"inkboard/internal/domain"
)

func newTestStore() *Store {
	s := New()
	s.SetReporter(func(string) {})
	return s
}

func addRect(s *Store, x, y float64) domain.Item {
	it := domain.NewRect(x, y, 50, 40, domain.ShapeAttrs{Fill: "#336699"})
	s.AddItem(it)
	return it
}

func ids(items []domain.Item) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}

func TestAddAndRemove(t *testing.T) {
	s := newTestStore()
	a := addRect(s, 0, 0)
	b := addRect(s, 10, 10)
	if len(s.Items()) != 2 {
		t.Fatalf("items = %d", len(s.Items()))
	}
	s.SelectItem(b.ID, false)
	s.RemoveItem(b.ID)
	if len(s.Items()) != 1 || s.Items()[0].ID != a.ID {
		t.Fatalf("unexpected items %v", ids(s.Items()))
	}
	if len(s.Selection()) != 0 {
		t.Fatal("removed item should leave the selection")
	}
	// unknown id is a silent no-op
	s.RemoveItem("nope")
	if len(s.Items()) != 1 {
		t.Fatal("no-op remove changed state")
	}
}

func TestAddRejectsDuplicateID(t *testing.T) {
	s := New()
	var msgs []string
	s.SetReporter(func(m string) { msgs = append(msgs, m) })
	a := addRect(s, 0, 0)
	s.AddItem(a)
	if len(s.Items()) != 1 {
		t.Fatal("duplicate id was appended")
	}
	if len(msgs) != 1 {
		t.Fatalf("expected one reported condition, got %v", msgs)
	}
}

func TestUndoRedoSymmetry(t *testing.T) {
	s := newTestStore()
	addRect(s, 0, 0)
	addRect(s, 10, 0)
	c := addRect(s, 20, 0)
	s.UpdateItem(c.ID, ItemPatch{X: Float(100), Y: Float(100)})

	before := s.Items()
	for k := 1; k <= 4; k++ {
		for i := 0; i < k; i++ {
			if !s.Undo() {
				t.Fatalf("undo %d/%d failed", i+1, k)
			}
		}
		for i := 0; i < k; i++ {
			if !s.Redo() {
				t.Fatalf("redo %d/%d failed", i+1, k)
			}
		}
		got := s.Items()
		if len(got) != len(before) {
			t.Fatalf("k=%d: %d items, want %d", k, len(got), len(before))
		}
		for i := range before {
			if got[i] != before[i] {
				t.Fatalf("k=%d item %d differs: %+v vs %+v", k, i, got[i], before[i])
			}
		}
	}
}

func TestHistoryCap(t *testing.T) {
	s := newTestStore()
	it := addRect(s, 0, 0)
	for i := 0; i < 80; i++ {
		s.UpdateItem(it.ID, ItemPatch{X: Float(float64(i))})
	}
	undos := 0
	for s.Undo() {
		undos++
	}
	if undos != 49 {
		t.Fatalf("undo depth = %d, want 49 (cap 50)", undos)
	}
}

func TestBranchPruning(t *testing.T) {
	s := newTestStore()
	it := addRect(s, 0, 0)
	s.UpdateItem(it.ID, ItemPatch{X: Float(10)})
	s.UpdateItem(it.ID, ItemPatch{X: Float(20)})

	s.Undo()
	s.Undo()
	s.UpdateItem(it.ID, ItemPatch{X: Float(99)})
	if s.Redo() {
		t.Fatal("redo after a branching mutation must be a no-op")
	}
}

func TestGroupRigidMove(t *testing.T) {
	s := newTestStore()
	a := addRect(s, 0, 0)
	b := addRect(s, 100, 0)
	c := addRect(s, 200, 0)

	s.SelectItem(a.ID, false)
	s.SelectItem(b.ID, true)
	s.SelectItem(c.ID, true)
	if _, ok := s.CreateGroup(); !ok {
		t.Fatal("CreateGroup failed")
	}

	s.UpdateItem(b.ID, ItemPatch{X: Float(130), Y: Float(40)})

	for _, want := range []struct {
		id   string
		x, y float64
	}{{a.ID, 30, 40}, {b.ID, 130, 40}, {c.ID, 230, 40}} {
		got, _ := s.ItemByID(want.id)
		if got.X != want.x || got.Y != want.y {
			t.Errorf("%s at (%v,%v), want (%v,%v)", want.id, got.X, got.Y, want.x, want.y)
		}
	}

	// the whole group move is one history entry
	s.Undo()
	got, _ := s.ItemByID(a.ID)
	if got.X != 0 || got.Y != 0 {
		t.Fatalf("undo did not restore all members at once: %+v", got)
	}
}

func TestNonPositionUpdateOnGroupedItemIsLocal(t *testing.T) {
	s := newTestStore()
	a := addRect(s, 0, 0)
	b := addRect(s, 100, 0)
	s.SelectItem(a.ID, false)
	s.SelectItem(b.ID, true)
	s.CreateGroup()

	s.UpdateItem(a.ID, ItemPatch{Fill: String("#ff0000"), Rotation: Float(45)})
	ga, _ := s.ItemByID(a.ID)
	gb, _ := s.ItemByID(b.ID)
	if ga.Fill != "#ff0000" || ga.Rotation != 45 {
		t.Fatalf("target not updated: %+v", ga)
	}
	if gb.Fill == "#ff0000" || gb.Rotation != 0 {
		t.Fatalf("non-position update leaked to group member: %+v", gb)
	}
}

func TestGroupingPreconditions(t *testing.T) {
	s := New()
	var msgs []string
	s.SetReporter(func(m string) { msgs = append(msgs, m) })

	a := addRect(s, 0, 0)
	s.SelectItem(a.ID, false)
	if _, ok := s.CreateGroup(); ok {
		t.Fatal("grouping a single item must fail")
	}
	if len(s.Groups()) != 0 || len(msgs) != 1 {
		t.Fatalf("groups=%d msgs=%v", len(s.Groups()), msgs)
	}

	b := addRect(s, 10, 0)
	s.SelectItem(a.ID, false)
	s.SelectItem(b.ID, true)
	g, ok := s.CreateGroup()
	if !ok {
		t.Fatal("grouping two items failed")
	}
	if g.Name != "Group 1" {
		t.Fatalf("name = %q", g.Name)
	}
	if len(g.ItemIDs) != 2 || !g.Contains(a.ID) || !g.Contains(b.ID) {
		t.Fatalf("membership = %v", g.ItemIDs)
	}
	if len(s.Selection()) != 0 {
		t.Fatal("CreateGroup must clear the selection")
	}

	// second group gets the next sequential name
	c := addRect(s, 20, 0)
	d := addRect(s, 30, 0)
	s.SelectItem(c.ID, false)
	s.SelectItem(d.ID, true)
	g2, _ := s.CreateGroup()
	if g2.Name != "Group 2" {
		t.Fatalf("second group name = %q", g2.Name)
	}
}

func TestSelectionExpansion(t *testing.T) {
	s := newTestStore()
	a := addRect(s, 0, 0)
	b := addRect(s, 10, 0)
	c := addRect(s, 20, 0)
	s.SelectItem(a.ID, false)
	s.SelectItem(b.ID, true)
	g, _ := s.CreateGroup()

	s.SelectItem(b.ID, false)
	sel := s.Selection()
	if len(sel) != 2 {
		t.Fatalf("selection = %v, want full group %v", sel, g.ItemIDs)
	}
	for _, id := range g.ItemIDs {
		if !containsID(sel, id) {
			t.Fatalf("selection %v missing member %s", sel, id)
		}
	}

	s.SelectItem(c.ID, false)
	if sel := s.Selection(); len(sel) != 1 || sel[0] != c.ID {
		t.Fatalf("ungrouped select = %v", sel)
	}
}

func TestAdditiveSelectionToggles(t *testing.T) {
	s := newTestStore()
	a := addRect(s, 0, 0)
	b := addRect(s, 10, 0)
	s.SelectItem(a.ID, false)
	s.SelectItem(b.ID, true)
	if len(s.Selection()) != 2 {
		t.Fatal("additive select failed")
	}
	s.SelectItem(a.ID, true)
	if sel := s.Selection(); len(sel) != 1 || sel[0] != b.ID {
		t.Fatalf("toggle out failed: %v", sel)
	}
	s.SelectItem("", false)
	if len(s.Selection()) != 0 {
		t.Fatal("empty id must clear selection")
	}
}

func TestSetToolClearsSelection(t *testing.T) {
	s := newTestStore()
	a := addRect(s, 0, 0)
	s.SelectItem(a.ID, false)
	s.SetTool(ToolHand)
	if len(s.Selection()) != 0 {
		t.Fatal("tool change must clear selection")
	}
	if s.Tool() != ToolHand {
		t.Fatal("tool not set")
	}
}

func TestUngroupPreconditions(t *testing.T) {
	s := New()
	var msgs []string
	s.SetReporter(func(m string) { msgs = append(msgs, m) })
	a := addRect(s, 0, 0)
	s.SelectItem(a.ID, false)
	s.UngroupItems()
	if len(msgs) != 1 {
		t.Fatalf("expected a reported condition, got %v", msgs)
	}

	b := addRect(s, 10, 0)
	s.SelectItem(a.ID, false)
	s.SelectItem(b.ID, true)
	s.CreateGroup()
	s.SelectItem(a.ID, false) // expands to the group
	s.UngroupItems()
	if len(s.Groups()) != 0 {
		t.Fatal("ungroup left the group alive")
	}
}

func TestRemoveAutoDissolvesUndersizedGroup(t *testing.T) {
	s := newTestStore()
	a := addRect(s, 0, 0)
	b := addRect(s, 10, 0)
	s.SelectItem(a.ID, false)
	s.SelectItem(b.ID, true)
	s.CreateGroup()

	s.RemoveItem(a.ID)
	if len(s.Groups()) != 0 {
		t.Fatal("group with one member should dissolve")
	}
	if _, ok := s.GroupOf(b.ID); ok {
		t.Fatal("survivor still reports a group")
	}
}

func TestReorderSemantics(t *testing.T) {
	mk := func() (*Store, []string) {
		s := newTestStore()
		a := addRect(s, 0, 0)
		b := addRect(s, 1, 0)
		c := addRect(s, 2, 0)
		return s, []string{a.ID, b.ID, c.ID}
	}
	check := func(t *testing.T, s *Store, want []string) {
		t.Helper()
		got := ids(s.Items())
		if fmt.Sprint(got) != fmt.Sprint(want) {
			t.Fatalf("order = %v, want %v", got, want)
		}
	}

	s, abc := mk()
	s.ReorderItem(abc[0], ToFront)
	check(t, s, []string{abc[1], abc[2], abc[0]})

	s, abc = mk()
	s.ReorderItem(abc[2], ToBack)
	check(t, s, []string{abc[2], abc[0], abc[1]})

	s, abc = mk()
	s.ReorderItem(abc[1], Forward)
	check(t, s, []string{abc[0], abc[2], abc[1]})

	s, abc = mk()
	s.ReorderItem(abc[1], Backward)
	check(t, s, []string{abc[1], abc[0], abc[2]})

	// clamped at the ends, and no history entry for a no-op move
	s, abc = mk()
	s.ReorderItem(abc[2], Forward)
	check(t, s, abc)

	s.ReorderItem("missing", ToFront)
	check(t, s, abc)
}

func TestSnapToGrid(t *testing.T) {
	s := newTestStore()
	g := s.Grid()
	g.Snap = true
	g.Spacing = 20
	s.SetGrid(g)

	it := addRect(s, 0, 0)
	s.UpdateItem(it.ID, ItemPatch{X: Float(33), Y: Float(51)})
	got, _ := s.ItemByID(it.ID)
	if got.X != 40 || got.Y != 60 {
		t.Fatalf("snapped to (%v,%v), want (40,60)", got.X, got.Y)
	}

	// snap applies to the group-propagated path via the target's delta
	b := addRect(s, 100, 0)
	s.SelectItem(it.ID, false)
	s.SelectItem(b.ID, true)
	s.CreateGroup()
	s.UpdateItem(it.ID, ItemPatch{X: Float(87)})
	t1, _ := s.ItemByID(it.ID)
	t2, _ := s.ItemByID(b.ID)
	if t1.X != 80 {
		t.Fatalf("target snapped to %v, want 80", t1.X)
	}
	if t2.X != 140 {
		t.Fatalf("member moved to %v, want 140", t2.X)
	}
}

func TestUndoPrunesDeadSelection(t *testing.T) {
	s := newTestStore()
	addRect(s, 0, 0)
	b := addRect(s, 10, 0)
	s.SelectItem(b.ID, false)
	s.Undo() // rolls back the add of b
	if _, ok := s.ItemByID(b.ID); ok {
		t.Fatal("undo did not remove the item")
	}
	if containsID(s.Selection(), b.ID) {
		t.Fatal("selection still references an item absent after undo")
	}
}

func TestUndoRestoresGroups(t *testing.T) {
	s := newTestStore()
	a := addRect(s, 0, 0)
	b := addRect(s, 10, 0)
	s.SelectItem(a.ID, false)
	s.SelectItem(b.ID, true)
	s.CreateGroup()

	s.Undo() // back to pre-group state
	if len(s.Groups()) != 0 {
		t.Fatal("undo kept the group")
	}
	s.Redo()
	if len(s.Groups()) != 1 {
		t.Fatal("redo lost the group")
	}
}

func TestTransientUpdatesDoNotSnapshot(t *testing.T) {
	s := newTestStore()
	it := addRect(s, 0, 0)
	before := s.Items()

	s.UpdateItem(it.ID, ItemPatch{Width: Float(300), Rotation: Float(15)})
	s.Undo() // should roll back the AddItem, not the resize
	if len(s.Items()) != 0 {
		t.Fatalf("resize produced a snapshot: %v (before %v)", ids(s.Items()), ids(before))
	}
}

func TestLoadDocumentFallsBackToActiveConfig(t *testing.T) {
	s := newTestStore()
	grid := s.Grid()
	grid.Spacing = 35
	s.SetGrid(grid)

	s.LoadDocument(domain.Document{Scale: 2, Items: []domain.Item{domain.NewText(0, 0, 10, 10, domain.TextAttrs{Content: "x"})}})
	if s.Grid().Spacing != 35 {
		t.Fatal("missing gridConfig must keep the active grid")
	}
	if s.Transform().Scale != 2 {
		t.Fatal("scale not loaded")
	}
	if s.CanUndo() {
		t.Fatal("history should restart on load")
	}
}
