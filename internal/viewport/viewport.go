/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package viewport converts between screen pixels and world (document)
// coordinates and derives the crop rectangle handed to the rasterizer
// for region exports.
package viewport

import (
	"errors"

	"inkboard/internal/domain"
	"inkboard/internal/geom"
)

const (
	// DefaultRegionFraction shrinks the full-viewport export to a
	// centered sub-rectangle so edge content is not clipped by UI chrome.
	DefaultRegionFraction = 0.7

	// MinRegionPx is the smallest accepted export region edge, in screen
	// pixels. Anything below is a degenerate export and is rejected.
	MinRegionPx = 5.0

	// DefaultPixelRatio is the oversampling factor for raster exports
	// (roughly 300 DPI on a standard display).
	DefaultPixelRatio = 3.0
)

// ErrRegionTooSmall is returned for regions under MinRegionPx in either
// dimension. It is a reportable user condition, not an internal fault.
var ErrRegionTooSmall = errors.New("export region is too small")

// StageSize is the render surface size in screen pixels.
type StageSize struct{ Width, Height float64 }

// Region is the rasterizer input rectangle. X/Y/Width/Height are screen
// pixels relative to the render surface's top-left at the current zoom;
// PixelRatio scales the output resolution.
type Region struct {
	X, Y          float64
	Width, Height float64
	PixelRatio    float64
}

// ScreenToWorld maps a surface-relative pixel point into world space.
func ScreenToWorld(t domain.Transform, p geom.Pt) geom.Pt {
	return geom.Pt{X: (p.X - t.Position.X) / t.Scale, Y: (p.Y - t.Position.Y) / t.Scale}
}

// WorldToScreen maps a world point onto the surface in pixels.
func WorldToScreen(t domain.Transform, p geom.Pt) geom.Pt {
	return geom.Pt{X: p.X*t.Scale + t.Position.X, Y: p.Y*t.Scale + t.Position.Y}
}

// Visible returns the fully visible world-space rectangle for the given
// transform and stage size.
func Visible(t domain.Transform, stage StageSize) geom.Rect {
	return geom.Rect{
		X: -t.Position.X / t.Scale,
		Y: -t.Position.Y / t.Scale,
		W: stage.Width / t.Scale,
		H: stage.Height / t.Scale,
	}
}

// DefaultRegion derives the export rectangle when the user drew no
// explicit selection: the visible world viewport shrunk to a centered
// DefaultRegionFraction of each dimension, mapped back to surface
// pixels for the rasterizer.
func DefaultRegion(t domain.Transform, stage StageSize, pixelRatio float64) (Region, error) {
	world := Visible(t, stage).CenterFraction(DefaultRegionFraction)
	min := WorldToScreen(t, world.Min())
	return clampRegion(Region{
		X:          min.X,
		Y:          min.Y,
		Width:      world.W * t.Scale,
		Height:     world.H * t.Scale,
		PixelRatio: normalizeRatio(pixelRatio),
	})
}

// PixelRegion derives the export rectangle from a user-dragged screen
// selection. sel must already be surface-relative (the surface's
// top-left subtracted out); width/height pass through unchanged since
// the rasterizer crops in on-screen pixels at the current zoom.
func PixelRegion(sel geom.Rect, pixelRatio float64) (Region, error) {
	sel = sel.Normalize()
	return clampRegion(Region{
		X:          sel.X,
		Y:          sel.Y,
		Width:      sel.W,
		Height:     sel.H,
		PixelRatio: normalizeRatio(pixelRatio),
	})
}

// WorldRect maps a region back into world space. Renderers that draw in
// document coordinates (SVG, PDF) consume this.
func WorldRect(t domain.Transform, r Region) geom.Rect {
	min := ScreenToWorld(t, geom.Pt{X: r.X, Y: r.Y})
	return geom.Rect{X: min.X, Y: min.Y, W: r.Width / t.Scale, H: r.Height / t.Scale}
}

func clampRegion(r Region) (Region, error) {
	if r.Width < MinRegionPx || r.Height < MinRegionPx {
		return Region{}, ErrRegionTooSmall
	}
	return r, nil
}

func normalizeRatio(ratio float64) float64 {
	if ratio <= 0 {
		return DefaultPixelRatio
	}
	return ratio
}
