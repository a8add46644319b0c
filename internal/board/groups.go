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

	"github.com/google/uuid"

	"inkboard/internal/domain"
)

// registry maps items to named groups. Membership lookups go through a
// reverse index (item id -> group id) kept in sync on every mutation, so
// GroupOf is O(1) instead of a scan over all groups.
type registry struct {
	groups []domain.Group
	byItem map[string]string
}

func newRegistry() *registry {
	return &registry{byItem: make(map[string]string)}
}

// create forms a new group over ids. It reports false when fewer than two
// ids are given. Ids already grouped elsewhere are reassigned to the new
// group (an item belongs to at most one group).
func (r *registry) create(ids []string) (domain.Group, bool) {
	if len(ids) < 2 {
		return domain.Group{}, false
	}
	for _, id := range ids {
		r.removeMember(id)
	}
	g := domain.Group{
		ID:      uuid.NewString(),
		Name:    fmt.Sprintf("Group %d", len(r.groups)+1),
		ItemIDs: append([]string(nil), ids...),
	}
	r.groups = append(r.groups, g)
	for _, id := range ids {
		r.byItem[id] = g.ID
	}
	return g.Clone(), true
}

// groupOf returns the group containing itemID, if any.
func (r *registry) groupOf(itemID string) (domain.Group, bool) {
	gid, ok := r.byItem[itemID]
	if !ok {
		return domain.Group{}, false
	}
	for _, g := range r.groups {
		if g.ID == gid {
			return g.Clone(), true
		}
	}
	return domain.Group{}, false
}

// ungroup removes every group that has a non-empty intersection with ids
// and returns how many groups were dissolved.
func (r *registry) ungroup(ids []string) int {
	hit := map[string]bool{}
	for _, id := range ids {
		if gid, ok := r.byItem[id]; ok {
			hit[gid] = true
		}
	}
	if len(hit) == 0 {
		return 0
	}
	kept := r.groups[:0]
	for _, g := range r.groups {
		if hit[g.ID] {
			for _, m := range g.ItemIDs {
				delete(r.byItem, m)
			}
			continue
		}
		kept = append(kept, g)
	}
	r.groups = kept
	return len(hit)
}

// removeMember drops itemID from whatever group holds it. Groups that
// fall below two members are dissolved; a single leftover item is not a
// group.
func (r *registry) removeMember(itemID string) {
	gid, ok := r.byItem[itemID]
	if !ok {
		return
	}
	delete(r.byItem, itemID)
	for i := range r.groups {
		if r.groups[i].ID != gid {
			continue
		}
		members := r.groups[i].ItemIDs[:0]
		for _, m := range r.groups[i].ItemIDs {
			if m != itemID {
				members = append(members, m)
			}
		}
		r.groups[i].ItemIDs = members
		if len(members) < 2 {
			for _, m := range members {
				delete(r.byItem, m)
			}
			r.groups = append(r.groups[:i], r.groups[i+1:]...)
		}
		return
	}
}

// all returns a deep copy of the group collection.
func (r *registry) all() []domain.Group { return domain.CloneGroups(r.groups) }

// replace swaps in a new group collection (undo/redo, document load) and
// rebuilds the reverse index.
func (r *registry) replace(groups []domain.Group) {
	r.groups = domain.CloneGroups(groups)
	r.byItem = make(map[string]string, len(r.byItem))
	for _, g := range r.groups {
		for _, m := range g.ItemIDs {
			r.byItem[m] = g.ID
		}
	}
}
