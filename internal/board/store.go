/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package board implements the mutable board aggregate: the ordered item
// list, groups, selection, viewport transform, and the undo/redo log.
// All mutation goes through the Store; collaborators never hold a
// separate mutable copy of this state.
//
// The Store is designed for a single-threaded, event-driven caller: every
// operation runs to completion before the next begins, so each
// significant mutation fully applies (including its history entry) with
// no interleaving.
package board

import (
	"log/slog"

	applog "inkboard/internal/log"
	"inkboard/internal/domain"
	"inkboard/internal/geom"
	"inkboard/internal/history"
)

// Tool is the active editing tool. Switching tools always clears the
// selection.
type Tool string

const (
	ToolPointer Tool = "pointer"
	ToolHand    Tool = "hand"
	ToolText    Tool = "text"
	ToolSticky  Tool = "sticky"
	ToolShape   Tool = "shape"
	ToolImage   Tool = "image"
)

// ReorderAction names the z-order moves for ReorderItem.
type ReorderAction string

const (
	ToFront  ReorderAction = "front"
	ToBack   ReorderAction = "back"
	Forward  ReorderAction = "forward"
	Backward ReorderAction = "backward"
)

// Reporter receives user-facing condition messages (precondition
// failures such as grouping with a single item). These are not errors:
// the operation aborts, state stays unchanged, and the message is shown
// to the user.
type Reporter func(msg string)

// ItemPatch is a partial attribute update. Nil fields are left
// untouched. Type and ID are immutable and cannot be patched.
type ItemPatch struct {
	X        *float64
	Y        *float64
	Width    *float64
	Height   *float64
	Rotation *float64

	Content    *string
	Fill       *string
	Color      *string
	FontSize   *float64
	FontFamily *string
	Align      *string

	Stroke      *string
	StrokeWidth *float64
}

// significant reports whether applying the patch warrants a history
// snapshot: content/style changes and any position change do, transient
// geometry tweaks (size, rotation, stroke) do not.
func (p ItemPatch) significant() bool {
	return p.Content != nil || p.Color != nil || p.Fill != nil || p.FontSize != nil ||
		p.X != nil || p.Y != nil
}

func (p ItemPatch) movesPosition() bool { return p.X != nil || p.Y != nil }

// Float returns a pointer to v, for building patches.
func Float(v float64) *float64 { return &v }

// String returns a pointer to s, for building patches.
func String(s string) *string { return &s }

// Store is the board aggregate. Construct with New; the zero value is
// not usable.
type Store struct {
	items      []domain.Item
	reg        *registry
	selection  []string
	transform  domain.Transform
	grid       domain.GridConfig
	background domain.BackgroundConfig
	tool       Tool

	hist   *history.Log
	report Reporter
	log    *slog.Logger
}

// New returns an empty board with default configuration. The empty state
// is recorded as the first history snapshot so the very first mutation
// can be undone.
func New() *Store {
	s := &Store{
		reg:        newRegistry(),
		transform:  domain.Transform{Scale: 1},
		grid:       domain.DefaultGrid(),
		background: domain.DefaultBackground(),
		tool:       ToolPointer,
		hist:       history.New(history.DefaultCap),
		log:        applog.WithComponent("board"),
	}
	s.hist.Record(s.items, nil)
	return s
}

// SetReporter installs the user-facing message sink. A nil reporter
// silences messages.
func (s *Store) SetReporter(r Reporter) { s.report = r }

func (s *Store) notify(msg string) {
	s.log.Info("condition reported", slog.String("msg", msg))
	if s.report != nil {
		s.report(msg)
	}
}

// commit records the post-mutation state. Exactly one commit happens per
// significant operation, regardless of how many items it touched.
func (s *Store) commit() { s.hist.Record(s.items, s.reg.groups) }

// Items returns a copy of the live item list in paint order.
func (s *Store) Items() []domain.Item { return domain.CloneItems(s.items) }

// ItemByID returns the live item with the given id.
func (s *Store) ItemByID(id string) (domain.Item, bool) {
	if i := s.indexOf(id); i >= 0 {
		return s.items[i], true
	}
	return domain.Item{}, false
}

// Groups returns a copy of the current group collection.
func (s *Store) Groups() []domain.Group { return s.reg.all() }

// GroupOf returns the group containing the item, if any.
func (s *Store) GroupOf(itemID string) (domain.Group, bool) { return s.reg.groupOf(itemID) }

// Selection returns the selected item ids in insertion order; the last
// entry is the primary selection.
func (s *Store) Selection() []string { return append([]string(nil), s.selection...) }

// Transform returns the current viewport transform.
func (s *Store) Transform() domain.Transform { return s.transform }

// Grid returns the active grid configuration.
func (s *Store) Grid() domain.GridConfig { return s.grid }

// Background returns the active background configuration.
func (s *Store) Background() domain.BackgroundConfig { return s.background }

// Tool returns the active tool.
func (s *Store) Tool() Tool { return s.tool }

// CanUndo reports whether Undo would change state.
func (s *Store) CanUndo() bool { return s.hist.CanUndo() }

// CanRedo reports whether Redo would change state.
func (s *Store) CanRedo() bool { return s.hist.CanRedo() }

// AddItem appends the item to the top of the paint order. Id uniqueness
// is the caller's responsibility via the domain constructors; an id that
// collides with a live item is rejected and reported.
func (s *Store) AddItem(item domain.Item) {
	if !domain.KnownType(item.Type) {
		s.notify("Cannot add item of unknown type.")
		return
	}
	if s.indexOf(item.ID) >= 0 {
		s.notify("An item with this id already exists.")
		return
	}
	s.items = append(s.items, item)
	s.commit()
	s.log.Debug("item added", slog.String("id", item.ID), slog.String("type", string(item.Type)))
}

// UpdateItem applies a partial attribute update. Unknown ids are a
// silent no-op. Position changes on a grouped item translate every
// member of the group by the same delta (group-rigid move); all other
// attribute changes touch only the target. When grid snapping is on, the
// target position is quantized to the grid before the delta is computed.
// A significant patch produces exactly one history entry no matter how
// many items move.
func (s *Store) UpdateItem(id string, p ItemPatch) {
	idx := s.indexOf(id)
	if idx < 0 {
		return
	}

	if p.movesPosition() {
		target := s.items[idx]
		nx, ny := target.X, target.Y
		if p.X != nil {
			nx = *p.X
		}
		if p.Y != nil {
			ny = *p.Y
		}
		if s.grid.Snap {
			snapped := geom.SnapPt(geom.Pt{X: nx, Y: ny}, s.grid.Spacing)
			nx, ny = snapped.X, snapped.Y
		}
		dx, dy := nx-target.X, ny-target.Y

		if g, ok := s.reg.groupOf(id); ok {
			for i := range s.items {
				if g.Contains(s.items[i].ID) {
					s.items[i].X += dx
					s.items[i].Y += dy
				}
			}
		} else {
			s.items[idx].X = nx
			s.items[idx].Y = ny
		}
	}

	s.applyNonPositional(idx, p)

	if p.significant() {
		s.commit()
	}
}

func (s *Store) applyNonPositional(idx int, p ItemPatch) {
	it := &s.items[idx]
	if p.Width != nil {
		it.Width = *p.Width
	}
	if p.Height != nil {
		it.Height = *p.Height
	}
	if p.Rotation != nil {
		it.Rotation = *p.Rotation
	}
	if p.Content != nil {
		it.Content = *p.Content
	}
	if p.Fill != nil {
		it.Fill = *p.Fill
	}
	if p.Color != nil {
		it.Color = *p.Color
	}
	if p.FontSize != nil {
		it.FontSize = *p.FontSize
	}
	if p.FontFamily != nil {
		it.FontFamily = *p.FontFamily
	}
	if p.Align != nil {
		it.Align = *p.Align
	}
	if p.Stroke != nil {
		it.Stroke = *p.Stroke
	}
	if p.StrokeWidth != nil {
		it.StrokeWidth = *p.StrokeWidth
	}
}

// RemoveItem deletes the item, drops it from the selection, and
// dissolves its group when fewer than two members remain.
func (s *Store) RemoveItem(id string) {
	idx := s.indexOf(id)
	if idx < 0 {
		return
	}
	s.items = append(s.items[:idx], s.items[idx+1:]...)
	s.selection = removeID(s.selection, id)
	s.reg.removeMember(id)
	s.commit()
	s.log.Debug("item removed", slog.String("id", id))
}

// SelectItem drives the selection state. An empty id clears the
// selection. With additive set, the id is toggled in or out. Otherwise
// selecting a grouped item expands the selection to the whole group;
// selecting an ungrouped item selects just that item.
func (s *Store) SelectItem(id string, additive bool) {
	if id == "" {
		s.selection = nil
		return
	}
	if s.indexOf(id) < 0 {
		return
	}
	if additive {
		if containsID(s.selection, id) {
			s.selection = removeID(s.selection, id)
		} else {
			s.selection = append(s.selection, id)
		}
		return
	}
	if g, ok := s.reg.groupOf(id); ok {
		s.selection = append([]string(nil), g.ItemIDs...)
		return
	}
	s.selection = []string{id}
}

// SetTool switches the active tool and clears the selection.
func (s *Store) SetTool(t Tool) {
	s.tool = t
	s.selection = nil
}

// SetTransform replaces the viewport transform. Pan/zoom is transient
// interaction state and never snapshots.
func (s *Store) SetTransform(t domain.Transform) {
	if t.Scale <= 0 {
		t.Scale = s.transform.Scale
	}
	s.transform = t
}

// SetGrid replaces the grid configuration.
func (s *Store) SetGrid(g domain.GridConfig) { s.grid = g }

// SetBackground replaces the background configuration.
func (s *Store) SetBackground(b domain.BackgroundConfig) { s.background = b }

// CreateGroup forms a group from the current selection, names it
// sequentially, and clears the selection. Fewer than two selected items
// is a reported precondition failure; state stays unchanged.
func (s *Store) CreateGroup() (domain.Group, bool) {
	g, ok := s.reg.create(s.selection)
	if !ok {
		s.notify("Select at least 2 items to group.")
		return domain.Group{}, false
	}
	s.selection = nil
	s.commit()
	s.log.Debug("group created", slog.String("id", g.ID), slog.String("name", g.Name))
	return g, true
}

// UngroupItems dissolves every group intersecting the current selection.
// No intersecting group is a reported precondition failure.
func (s *Store) UngroupItems() {
	if s.reg.ungroup(s.selection) == 0 {
		s.notify("No grouped items selected.")
		return
	}
	s.commit()
}

// ReorderItem moves the item within the paint order: front/back jump to
// the ends, forward/backward step one position with clamping. Unknown
// ids are a silent no-op.
func (s *Store) ReorderItem(id string, action ReorderAction) {
	idx := s.indexOf(id)
	if idx < 0 {
		return
	}
	var to int
	switch action {
	case ToFront:
		to = len(s.items) - 1
	case ToBack:
		to = 0
	case Forward:
		to = min(idx+1, len(s.items)-1)
	case Backward:
		to = max(idx-1, 0)
	default:
		return
	}
	if to == idx {
		return
	}
	it := s.items[idx]
	rest := append(s.items[:idx], s.items[idx+1:]...)
	s.items = append(rest[:to], append([]domain.Item{it}, rest[to:]...)...)
	s.commit()
}

// Undo rolls items and groups back one snapshot. Selection is pruned of
// ids that no longer exist but is otherwise not rolled back.
func (s *Store) Undo() bool {
	snap, ok := s.hist.Undo()
	if !ok {
		return false
	}
	s.restore(snap.Items, snap.Groups)
	return true
}

// Redo advances items and groups one snapshot forward.
func (s *Store) Redo() bool {
	snap, ok := s.hist.Redo()
	if !ok {
		return false
	}
	s.restore(snap.Items, snap.Groups)
	return true
}

func (s *Store) restore(items []domain.Item, groups []domain.Group) {
	s.items = items
	s.reg.replace(groups)
	kept := s.selection[:0]
	for _, id := range s.selection {
		if s.indexOf(id) >= 0 {
			kept = append(kept, id)
		}
	}
	s.selection = kept
}

// Document captures the persistable board state.
func (s *Store) Document() domain.Document {
	grid := s.grid
	bg := s.background
	return domain.Document{
		Scale:            s.transform.Scale,
		Position:         s.transform.Position,
		Items:            domain.CloneItems(s.items),
		Groups:           s.reg.all(),
		GridConfig:       &grid,
		BackgroundConfig: &bg,
	}
}

// LoadDocument replaces the board state with the loaded document. Absent
// optional configs keep the currently active configuration. The history
// log restarts with the loaded state as its first snapshot, and the
// selection is cleared.
func (s *Store) LoadDocument(doc domain.Document) {
	scale := doc.Scale
	if scale <= 0 {
		scale = 1
	}
	s.transform = domain.Transform{Scale: scale, Position: doc.Position}
	s.items = domain.CloneItems(doc.Items)
	s.reg.replace(doc.Groups)
	if doc.GridConfig != nil {
		s.grid = *doc.GridConfig
	}
	if doc.BackgroundConfig != nil {
		s.background = *doc.BackgroundConfig
	}
	s.selection = nil
	s.hist = history.New(history.DefaultCap)
	s.hist.Record(s.items, s.reg.groups)
}

func (s *Store) indexOf(id string) int {
	for i := range s.items {
		if s.items[i].ID == id {
			return i
		}
	}
	return -1
}

func containsID(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func removeID(ids []string, id string) []string {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
