/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package history keeps the bounded, linear undo/redo log of board
// snapshots. Snapshots are full deep copies of the item list and groups:
// whole-state snapshots stay correct under arbitrary mutation shapes
// (including group-propagated multi-item moves) at the cost of memory,
// which the cap bounds.
package history

import (
	"time"

	"inkboard/internal/domain"
)

// DefaultCap is the default maximum number of snapshots kept.
const DefaultCap = 50

// Snapshot is an immutable deep copy of the live board state at a point
// in time. Selection is deliberately not captured; see the Log docs.
type Snapshot struct {
	Items  []domain.Item
	Groups []domain.Group
	TS     time.Time
}

// Log is a finite ordered sequence of snapshots with a cursor. The zero
// value is not usable; call New.
//
// The log is owned by a single board store and is not safe for concurrent
// use on its own; the store serializes all access.
type Log struct {
	cap     int
	entries []Snapshot
	cursor  int // index of the snapshot representing current state
}

// New returns an empty log holding at most max snapshots. A non-positive
// max falls back to DefaultCap.
func New(max int) *Log {
	if max <= 0 {
		max = DefaultCap
	}
	return &Log{cap: max, cursor: -1}
}

// Len returns the number of snapshots currently held.
func (l *Log) Len() int { return len(l.entries) }

// Cursor returns the current cursor index, or -1 when the log is empty.
func (l *Log) Cursor() int { return l.cursor }

// CanUndo reports whether a backward move is possible.
func (l *Log) CanUndo() bool { return l.cursor > 0 }

// CanRedo reports whether a forward move is possible.
func (l *Log) CanRedo() bool { return l.cursor >= 0 && l.cursor < len(l.entries)-1 }

// Record deep-copies the given state, truncates everything after the
// cursor (classic branch-pruning), appends the new snapshot, and evicts
// from the front when over the cap. The cursor ends at the new tail.
func (l *Log) Record(items []domain.Item, groups []domain.Group) {
	s := Snapshot{
		Items:  domain.CloneItems(items),
		Groups: domain.CloneGroups(groups),
		TS:     time.Now(),
	}
	// Any mutation while not at the tail makes the pruned future unreachable.
	l.entries = append(l.entries[:l.cursor+1], s)
	if len(l.entries) > l.cap {
		drop := len(l.entries) - l.cap
		l.entries = append([]Snapshot(nil), l.entries[drop:]...)
	}
	l.cursor = len(l.entries) - 1
}

// Undo moves the cursor backward and returns a deep copy of the snapshot
// now pointed to. It reports false (and leaves the log untouched) when
// already at the oldest entry.
func (l *Log) Undo() (Snapshot, bool) {
	if !l.CanUndo() {
		return Snapshot{}, false
	}
	l.cursor--
	return l.copyAt(l.cursor), true
}

// Redo moves the cursor forward and returns a deep copy of the snapshot
// now pointed to. It reports false when already at the tail.
func (l *Log) Redo() (Snapshot, bool) {
	if !l.CanRedo() {
		return Snapshot{}, false
	}
	l.cursor++
	return l.copyAt(l.cursor), true
}

func (l *Log) copyAt(i int) Snapshot {
	e := l.entries[i]
	return Snapshot{
		Items:  domain.CloneItems(e.Items),
		Groups: domain.CloneGroups(e.Groups),
		TS:     e.TS,
	}
}
