/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package export renders a board region to PNG, PDF, or SVG. The raster
// path draws into an RGBA buffer oversampled by the region's pixel
// ratio; the vector paths (PDF, SVG) draw in world coordinates.
package export

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	_ "image/gif"
	_ "image/jpeg"
	"math"
	"strings"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"inkboard/internal/domain"
	"inkboard/internal/geom"
	"inkboard/internal/storage"
	"inkboard/internal/viewport"
)

// AssetResolver loads image payloads for image items whose content is an
// asset reference. *storage.AssetStore satisfies it.
type AssetResolver interface {
	Get(ctx context.Context, id string) (mime string, data []byte, err error)
}

// Defaults applied when an item carries no explicit style.
const (
	defaultStickyFill = "#FFF9C4"
	defaultShapeFill  = "#E3F2FD"
	defaultStroke     = "#333333"
	defaultTextColor  = "#1A1A1A"
	defaultBackground = "#FFFFFF"
)

// Render rasterizes the given region of the document. The document's
// Scale/Position define the world-to-screen mapping; the region selects
// a surface-pixel crop and the oversampling factor. Items draw in slice
// order, so later items appear on top.
func Render(ctx context.Context, doc domain.Document, region viewport.Region, assets AssetResolver) (*image.RGBA, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ratio := region.PixelRatio
	if ratio <= 0 {
		ratio = viewport.DefaultPixelRatio
	}
	pixW := int(math.Round(region.Width * ratio))
	pixH := int(math.Round(region.Height * ratio))
	if pixW < 1 || pixH < 1 {
		return nil, viewport.ErrRegionTooSmall
	}

	t := domain.Transform{Scale: doc.Scale, Position: doc.Position}
	if t.Scale == 0 {
		t.Scale = 1
	}
	// World point -> output pixel.
	px := func(p geom.Pt) (float64, float64) {
		s := viewport.WorldToScreen(t, p)
		return (s.X - region.X) * ratio, (s.Y - region.Y) * ratio
	}

	img := image.NewRGBA(image.Rect(0, 0, pixW, pixH))

	// Background
	bg := defaultBackground
	if doc.BackgroundConfig != nil && doc.BackgroundConfig.Color != "" {
		bg = doc.BackgroundConfig.Color
	}
	bgc := parseHexColor(bg, color.RGBA{255, 255, 255, 255})
	draw.Draw(img, img.Bounds(), &image.Uniform{C: bgc}, image.Point{}, draw.Src)

	// Grid
	if doc.GridConfig != nil && doc.GridConfig.Spacing > 0 {
		drawGrid(img, t, region, ratio, *doc.GridConfig, bgc)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	for _, it := range doc.Items {
		x0, y0 := px(geom.Pt{X: it.X, Y: it.Y})
		x1, y1 := px(geom.Pt{X: it.X + it.Width, Y: it.Y + it.Height})
		r := pixelRect(x0, y0, x1, y1)
		if !r.Overlaps(img.Bounds()) {
			continue
		}
		switch it.Type {
		case domain.ItemRect:
			drawShape(img, r, it, false, ratio, t.Scale)
		case domain.ItemCircle:
			drawShape(img, r, it, true, ratio, t.Scale)
		case domain.ItemSticky:
			fill := it.Fill
			if fill == "" {
				fill = defaultStickyFill
			}
			fillRect(img, r, parseHexColor(fill, color.RGBA{255, 249, 196, 255}))
			drawItemText(img, r, it)
		case domain.ItemText:
			drawItemText(img, r, it)
		case domain.ItemImage:
			drawImageItem(ctx, img, r, it, assets)
		}
	}
	return img, nil
}

func drawGrid(img *image.RGBA, t domain.Transform, region viewport.Region, ratio float64, g domain.GridConfig, bg color.RGBA) {
	gc := parseHexColor(g.Color, color.RGBA{136, 136, 136, 255})
	op := g.Opacity
	if op <= 0 || op > 1 {
		op = 0.3
	}
	line := blend(bg, gc, op)
	b := img.Bounds()

	world := viewport.WorldRect(t, region)
	step := g.Spacing * t.Scale * ratio
	if step < 2 {
		return // too dense to be useful at this zoom
	}
	// First grid line at or after the region's left/top edge.
	startX := (math.Ceil(world.X/g.Spacing)*g.Spacing - world.X) * t.Scale * ratio
	for fx := startX; fx < float64(b.Dx()); fx += step {
		x := int(math.Round(fx))
		for y := b.Min.Y; y < b.Max.Y; y++ {
			img.SetRGBA(x, y, line)
		}
	}
	startY := (math.Ceil(world.Y/g.Spacing)*g.Spacing - world.Y) * t.Scale * ratio
	for fy := startY; fy < float64(b.Dy()); fy += step {
		y := int(math.Round(fy))
		for x := b.Min.X; x < b.Max.X; x++ {
			img.SetRGBA(x, y, line)
		}
	}
}

func drawShape(img *image.RGBA, r image.Rectangle, it domain.Item, ellipse bool, ratio, scale float64) {
	fill := it.Fill
	if fill == "" {
		fill = defaultShapeFill
	}
	fc := parseHexColor(fill, color.RGBA{227, 242, 253, 255})
	if ellipse {
		fillEllipse(img, r, fc)
	} else {
		fillRect(img, r, fc)
	}
	if it.Stroke != "" || it.StrokeWidth > 0 {
		stroke := it.Stroke
		if stroke == "" {
			stroke = defaultStroke
		}
		sw := it.StrokeWidth
		if sw <= 0 {
			sw = 1
		}
		w := int(math.Round(sw * scale * ratio))
		if w < 1 {
			w = 1
		}
		sc := parseHexColor(stroke, color.RGBA{51, 51, 51, 255})
		if ellipse {
			strokeEllipse(img, r, sc, w)
		} else {
			strokeRect(img, r, sc, w)
		}
	}
}

func drawItemText(img *image.RGBA, r image.Rectangle, it domain.Item) {
	if strings.TrimSpace(it.Content) == "" {
		return
	}
	col := it.Color
	if col == "" {
		col = defaultTextColor
	}
	face := basicfont.Face7x13
	d := &font.Drawer{
		Dst:  img,
		Src:  &image.Uniform{C: parseHexColor(col, color.RGBA{26, 26, 26, 255})},
		Face: face,
	}
	pad := 4
	lineH := face.Metrics().Height.Ceil()
	maxChars := (r.Dx() - 2*pad) / face.Advance
	if maxChars < 1 {
		return
	}
	y := r.Min.Y + pad + face.Metrics().Ascent.Ceil()
	for _, line := range wrapText(it.Content, maxChars) {
		if y > r.Max.Y-pad {
			break
		}
		d.Dot = fixed.P(r.Min.X+pad, y)
		d.DrawString(line)
		y += lineH
	}
}

func drawImageItem(ctx context.Context, img *image.RGBA, r image.Rectangle, it domain.Item, assets AssetResolver) {
	id, ok := storage.ParseAssetRef(it.Content)
	if !ok || assets == nil {
		// External paths/URLs are not resolved here; draw a placeholder.
		fillRect(img, r, color.RGBA{238, 238, 238, 255})
		strokeRect(img, r, color.RGBA{170, 170, 170, 255}, 1)
		return
	}
	_, data, err := assets.Get(ctx, id)
	if err != nil {
		fillRect(img, r, color.RGBA{238, 238, 238, 255})
		strokeRect(img, r, color.RGBA{170, 170, 170, 255}, 1)
		return
	}
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		fillRect(img, r, color.RGBA{238, 238, 238, 255})
		return
	}
	xdraw.ApproxBiLinear.Scale(img, r, src, src.Bounds(), draw.Over, nil)
}

func wrapText(s string, maxChars int) []string {
	var out []string
	for _, para := range strings.Split(s, "\n") {
		words := strings.Fields(para)
		if len(words) == 0 {
			out = append(out, "")
			continue
		}
		line := words[0]
		for _, w := range words[1:] {
			if len(line)+1+len(w) <= maxChars {
				line += " " + w
			} else {
				out = append(out, line)
				line = w
			}
		}
		out = append(out, line)
	}
	return out
}

func pixelRect(x0, y0, x1, y1 float64) image.Rectangle {
	return image.Rect(int(math.Round(x0)), int(math.Round(y0)), int(math.Round(x1)), int(math.Round(y1)))
}

// parseHexColor accepts #RGB and #RRGGBB; anything else yields fallback.
func parseHexColor(s string, fallback color.RGBA) color.RGBA {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "#") {
		return fallback
	}
	hex := s[1:]
	var r, g, b uint8
	switch len(hex) {
	case 3:
		if _, err := fmt.Sscanf(hex, "%1x%1x%1x", &r, &g, &b); err != nil {
			return fallback
		}
		return color.RGBA{r * 17, g * 17, b * 17, 255}
	case 6:
		if _, err := fmt.Sscanf(hex, "%02x%02x%02x", &r, &g, &b); err != nil {
			return fallback
		}
		return color.RGBA{r, g, b, 255}
	}
	return fallback
}

func blend(under, over color.RGBA, alpha float64) color.RGBA {
	mix := func(u, o uint8) uint8 {
		return uint8(math.Round(float64(u)*(1-alpha) + float64(o)*alpha))
	}
	return color.RGBA{mix(under.R, over.R), mix(under.G, over.G), mix(under.B, over.B), 255}
}

func fillRect(img *image.RGBA, r image.Rectangle, c color.RGBA) {
	r = r.Intersect(img.Bounds())
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			img.SetRGBA(x, y, c)
		}
	}
}

// strokeRect draws an inward border of the given pixel width.
func strokeRect(img *image.RGBA, r image.Rectangle, c color.RGBA, w int) {
	for i := 0; i < w; i++ {
		rr := r.Inset(i)
		if rr.Empty() {
			return
		}
		for x := rr.Min.X; x < rr.Max.X; x++ {
			setClamped(img, x, rr.Min.Y, c)
			setClamped(img, x, rr.Max.Y-1, c)
		}
		for y := rr.Min.Y; y < rr.Max.Y; y++ {
			setClamped(img, rr.Min.X, y, c)
			setClamped(img, rr.Max.X-1, y, c)
		}
	}
}

func fillEllipse(img *image.RGBA, r image.Rectangle, c color.RGBA) {
	cx := float64(r.Min.X+r.Max.X) / 2
	cy := float64(r.Min.Y+r.Max.Y) / 2
	rx := float64(r.Dx()) / 2
	ry := float64(r.Dy()) / 2
	if rx <= 0 || ry <= 0 {
		return
	}
	clip := r.Intersect(img.Bounds())
	for y := clip.Min.Y; y < clip.Max.Y; y++ {
		dy := (float64(y) + 0.5 - cy) / ry
		if dy*dy > 1 {
			continue
		}
		half := rx * math.Sqrt(1-dy*dy)
		x0 := int(math.Ceil(cx - half))
		x1 := int(math.Floor(cx + half))
		for x := x0; x <= x1; x++ {
			setClamped(img, x, y, c)
		}
	}
}

func strokeEllipse(img *image.RGBA, r image.Rectangle, c color.RGBA, w int) {
	cx := float64(r.Min.X+r.Max.X) / 2
	cy := float64(r.Min.Y+r.Max.Y) / 2
	rx := float64(r.Dx()) / 2
	ry := float64(r.Dy()) / 2
	if rx <= 0 || ry <= 0 {
		return
	}
	steps := int(2 * math.Pi * math.Max(rx, ry))
	if steps < 16 {
		steps = 16
	}
	for i := 0; i < steps; i++ {
		a := 2 * math.Pi * float64(i) / float64(steps)
		x := cx + rx*math.Cos(a)
		y := cy + ry*math.Sin(a)
		for dx := 0; dx < w; dx++ {
			for dy := 0; dy < w; dy++ {
				setClamped(img, int(x)+dx, int(y)+dy, c)
			}
		}
	}
}

func setClamped(img *image.RGBA, x, y int, c color.RGBA) {
	if (image.Point{X: x, Y: y}).In(img.Bounds()) {
		img.SetRGBA(x, y, c)
	}
}
