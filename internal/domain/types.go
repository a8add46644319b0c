/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

// This file defines the core data model for the inkboard document: the
// items placed on the canvas, groups, the viewport transform, and the
// persisted board document. Items serialize to the flat JSON record the
// board file format uses; construction goes through the typed helpers
// below so each item kind carries exactly its own attribute set.

import "github.com/google/uuid"

// ItemType tags the five kinds of placeable items. The tag is fixed at
// creation and never mutated.
type ItemType string

const (
	ItemText   ItemType = "text"
	ItemSticky ItemType = "sticky"
	ItemRect   ItemType = "rect"
	ItemCircle ItemType = "circle"
	ItemImage  ItemType = "image"
)

// Item is a single placed object on the board. X/Y are world coordinates
// anchored at the top-left corner; Rotation is in degrees.
//
// Only the attribute fields matching Type are meaningful; the rest stay
// zero and are omitted from JSON. Item is a pure value: copying an Item
// copies all of its state, which the history log relies on.
type Item struct {
	ID       string   `json:"id"`
	Type     ItemType `json:"type"`
	X        float64  `json:"x"`
	Y        float64  `json:"y"`
	Width    float64  `json:"width"`
	Height   float64  `json:"height"`
	Rotation float64  `json:"rotation"`

	// text and sticky
	Content    string  `json:"content,omitempty"` // text body, or asset reference for images
	Fill       string  `json:"fill,omitempty"`
	Color      string  `json:"color,omitempty"`
	FontSize   float64 `json:"fontSize,omitempty"`
	FontFamily string  `json:"fontFamily,omitempty"`
	Align      string  `json:"align,omitempty"`

	// rect and circle
	Stroke      string  `json:"stroke,omitempty"`
	StrokeWidth float64 `json:"strokeWidth,omitempty"`
}

// TextAttrs are the attributes specific to text and sticky items.
type TextAttrs struct {
	Content    string
	Fill       string // sticky background; unused for plain text
	Color      string
	FontSize   float64
	FontFamily string
	Align      string
}

// ShapeAttrs are the attributes specific to rect and circle items.
type ShapeAttrs struct {
	Fill        string
	Stroke      string
	StrokeWidth float64
}

// NewID returns a fresh collision-free item identifier.
func NewID() string { return uuid.NewString() }

// NewText constructs a text item with a fresh id.
func NewText(x, y, w, h float64, a TextAttrs) Item {
	return Item{
		ID: NewID(), Type: ItemText, X: x, Y: y, Width: w, Height: h,
		Content: a.Content, Color: a.Color,
		FontSize: a.FontSize, FontFamily: a.FontFamily, Align: a.Align,
	}
}

// NewSticky constructs a sticky-note item with a fresh id.
func NewSticky(x, y, w, h float64, a TextAttrs) Item {
	return Item{
		ID: NewID(), Type: ItemSticky, X: x, Y: y, Width: w, Height: h,
		Content: a.Content, Fill: a.Fill, Color: a.Color,
		FontSize: a.FontSize, FontFamily: a.FontFamily, Align: a.Align,
	}
}

// NewRect constructs a rectangle shape item with a fresh id.
func NewRect(x, y, w, h float64, a ShapeAttrs) Item {
	return Item{
		ID: NewID(), Type: ItemRect, X: x, Y: y, Width: w, Height: h,
		Fill: a.Fill, Stroke: a.Stroke, StrokeWidth: a.StrokeWidth,
	}
}

// NewCircle constructs a circle/ellipse shape item with a fresh id.
func NewCircle(x, y, w, h float64, a ShapeAttrs) Item {
	return Item{
		ID: NewID(), Type: ItemCircle, X: x, Y: y, Width: w, Height: h,
		Fill: a.Fill, Stroke: a.Stroke, StrokeWidth: a.StrokeWidth,
	}
}

// NewImage constructs an image item with a fresh id. content is an
// external asset reference (file path, URL, or "asset:<id>" for the
// asset library).
func NewImage(x, y, w, h float64, content string) Item {
	return Item{ID: NewID(), Type: ItemImage, X: x, Y: y, Width: w, Height: h, Content: content}
}

// KnownType reports whether t is one of the five item kinds. The switch is
// exhaustive on purpose: adding a kind without extending it fails review.
func KnownType(t ItemType) bool {
	switch t {
	case ItemText, ItemSticky, ItemRect, ItemCircle, ItemImage:
		return true
	}
	return false
}

// Group is a named, non-nested set of item ids that move together. An item
// belongs to at most one group; groups never have fewer than two members.
type Group struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	ItemIDs []string `json:"itemIds"`
}

// Contains reports whether id is a member of the group.
func (g Group) Contains(id string) bool {
	for _, m := range g.ItemIDs {
		if m == id {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of the group.
func (g Group) Clone() Group {
	c := g
	c.ItemIDs = append([]string(nil), g.ItemIDs...)
	return c
}

// Pt is a 2D point/offset in either world or screen space.
type Pt struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Transform is the viewport transform: a uniform zoom factor and the pan
// offset translating world coordinates onto the screen.
type Transform struct {
	Scale    float64 `json:"scale"`
	Position Pt      `json:"position"`
}

// GridConfig holds the background grid settings. Spacing is in world units.
type GridConfig struct {
	Spacing float64 `json:"spacing"`
	Opacity float64 `json:"opacity"`
	Color   string  `json:"color"`
	Snap    bool    `json:"snap"`
}

// BackgroundConfig holds the canvas background settings.
type BackgroundConfig struct {
	Color string `json:"color"`
}

// DefaultGrid returns the grid settings used for new boards.
func DefaultGrid() GridConfig {
	return GridConfig{Spacing: 20, Opacity: 0.15, Color: "#888888", Snap: false}
}

// DefaultBackground returns the background used for new boards.
func DefaultBackground() BackgroundConfig { return BackgroundConfig{Color: "#1e1e1e"} }

// Document is the persisted board file contents. GridConfig and
// BackgroundConfig are optional on disk; loaders fall back to the active
// in-memory configuration when they are absent.
type Document struct {
	Scale            float64           `json:"scale"`
	Position         Pt                `json:"position"`
	Items            []Item            `json:"items"`
	Groups           []Group           `json:"groups,omitempty"`
	GridConfig       *GridConfig       `json:"gridConfig,omitempty"`
	BackgroundConfig *BackgroundConfig `json:"backgroundConfig,omitempty"`
}

// CloneItems returns a deep copy of an item slice. Item is a flat value
// type, so a slice copy is a deep copy.
func CloneItems(items []Item) []Item {
	if items == nil {
		return nil
	}
	return append([]Item(nil), items...)
}

// CloneGroups returns a deep copy of a group slice.
func CloneGroups(groups []Group) []Group {
	if groups == nil {
		return nil
	}
	out := make([]Group, len(groups))
	for i, g := range groups {
		out[i] = g.Clone()
	}
	return out
}
