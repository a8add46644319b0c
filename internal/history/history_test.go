/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package history

import (
	"fmt"
	"testing"

	"inkboard/internal/domain"
)

func itemsNamed(names ...string) []domain.Item {
	out := make([]domain.Item, len(names))
	for i, n := range names {
		out[i] = domain.Item{ID: n, Type: domain.ItemText, Content: n}
	}
	return out
}

func TestUndoRedoSymmetry(t *testing.T) {
	l := New(0)
	states := [][]domain.Item{
		itemsNamed("a"),
		itemsNamed("a", "b"),
		itemsNamed("a", "b", "c"),
		itemsNamed("a", "c"),
	}
	for _, s := range states {
		l.Record(s, nil)
	}

	for k := 1; k < len(states); k++ {
		// undo k times then redo k times
		for i := 0; i < k; i++ {
			if _, ok := l.Undo(); !ok {
				t.Fatalf("undo %d/%d failed", i+1, k)
			}
		}
		var got Snapshot
		for i := 0; i < k; i++ {
			s, ok := l.Redo()
			if !ok {
				t.Fatalf("redo %d/%d failed", i+1, k)
			}
			got = s
		}
		want := states[len(states)-1]
		if len(got.Items) != len(want) {
			t.Fatalf("k=%d: got %d items, want %d", k, len(got.Items), len(want))
		}
		for i := range want {
			if got.Items[i] != want[i] {
				t.Fatalf("k=%d item %d: %+v != %+v", k, i, got.Items[i], want[i])
			}
		}
	}
}

func TestCapEvictsOldestFirst(t *testing.T) {
	l := New(50)
	for i := 0; i < 75; i++ {
		l.Record(itemsNamed(fmt.Sprintf("s%d", i)), nil)
	}
	if l.Len() != 50 {
		t.Fatalf("len = %d, want 50", l.Len())
	}
	// walk back to the oldest surviving entry
	var last Snapshot
	for {
		s, ok := l.Undo()
		if !ok {
			break
		}
		last = s
	}
	if last.Items[0].ID != "s25" {
		t.Fatalf("oldest surviving snapshot = %s, want s25", last.Items[0].ID)
	}
}

func TestBranchPruning(t *testing.T) {
	l := New(0)
	l.Record(itemsNamed("a"), nil)
	l.Record(itemsNamed("a", "b"), nil)
	l.Record(itemsNamed("a", "b", "c"), nil)

	l.Undo()
	l.Undo()
	l.Record(itemsNamed("a", "x"), nil)

	if _, ok := l.Redo(); ok {
		t.Fatal("redo after branching mutation must be a no-op")
	}
	if l.Len() != 2 {
		t.Fatalf("len = %d, want 2 after pruning", l.Len())
	}
}

func TestUndoAtStartIsNoop(t *testing.T) {
	l := New(0)
	if _, ok := l.Undo(); ok {
		t.Fatal("undo on empty log")
	}
	l.Record(itemsNamed("a"), nil)
	if _, ok := l.Undo(); ok {
		t.Fatal("undo with a single snapshot should be a no-op")
	}
	if _, ok := l.Redo(); ok {
		t.Fatal("redo at tail should be a no-op")
	}
}

func TestSnapshotsAreIsolated(t *testing.T) {
	l := New(0)
	live := itemsNamed("a")
	groups := []domain.Group{{ID: "g", Name: "Group 1", ItemIDs: []string{"a", "b"}}}
	l.Record(live, groups)
	l.Record(itemsNamed("a", "b"), groups)

	// mutate what the caller holds; snapshot must not change
	live[0].Content = "mutated"
	groups[0].ItemIDs[0] = "z"

	s, ok := l.Undo()
	if !ok {
		t.Fatal("undo failed")
	}
	if s.Items[0].Content != "a" {
		t.Fatal("snapshot shares item storage with caller")
	}
	if s.Groups[0].ItemIDs[0] != "a" {
		t.Fatal("snapshot shares group storage with caller")
	}
	// mutating the returned copy must not poison the log
	s.Items[0].Content = "poison"
	s2, _ := l.Redo()
	if s2.Items[0].Content == "poison" {
		t.Fatal("returned snapshot shares storage with the log")
	}
}
