/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"inkboard/internal/domain"
	"inkboard/internal/geom"
	"inkboard/internal/viewport"
)

// ExportSVG writes the region as a vector SVG. Coordinates stay in
// world units with a viewBox on the region's world rectangle; width and
// height attributes carry the output pixel size so viewers open it at
// the raster export's resolution. Image items are referenced by their
// content string; asset-library payloads are not inlined.
func ExportSVG(ctx context.Context, doc domain.Document, region viewport.Region, outPath string, opt Options) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if strings.TrimSpace(outPath) == "" {
		return "", fmt.Errorf("output path is required")
	}
	if !strings.EqualFold(filepath.Ext(outPath), ".svg") {
		outPath += ".svg"
	}
	ratio := region.PixelRatio
	if ratio <= 0 {
		ratio = viewport.DefaultPixelRatio
	}
	t := domain.Transform{Scale: doc.Scale, Position: doc.Position}
	if t.Scale == 0 {
		t.Scale = 1
	}
	world := viewport.WorldRect(t, region)
	pxW := int(math.Round(region.Width * ratio))
	pxH := int(math.Round(region.Height * ratio))
	if pxW < 1 || pxH < 1 {
		return "", viewport.ErrRegionTooSmall
	}

	var buf bytes.Buffer
	var werr error
	wf := func(format string, args ...any) {
		if werr != nil {
			return
		}
		_, werr = fmt.Fprintf(&buf, format, args...)
	}

	wf("<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n")
	wf("<svg xmlns=\"http://www.w3.org/2000/svg\" xmlns:xlink=\"http://www.w3.org/1999/xlink\" version=\"1.1\" width=\"%dpx\" height=\"%dpx\" viewBox=\"%g %g %g %g\">\n",
		pxW, pxH, world.X, world.Y, world.W, world.H)

	bg := defaultBackground
	if doc.BackgroundConfig != nil && doc.BackgroundConfig.Color != "" {
		bg = doc.BackgroundConfig.Color
	}
	wf("  <rect x=\"%g\" y=\"%g\" width=\"%g\" height=\"%g\" fill=\"%s\"/>\n", world.X, world.Y, world.W, world.H, escAttr(bg))

	if doc.GridConfig != nil && doc.GridConfig.Spacing > 0 {
		writeSVGGrid(wf, world, *doc.GridConfig)
	}

	for _, it := range doc.Items {
		ir := geom.Rect{X: it.X, Y: it.Y, W: it.Width, H: it.Height}
		if !ir.Intersects(world) {
			continue
		}
		switch it.Type {
		case domain.ItemRect:
			fill, stroke, sw := shapeStyle(it)
			wf("  <rect x=\"%g\" y=\"%g\" width=\"%g\" height=\"%g\" fill=\"%s\" stroke=\"%s\" stroke-width=\"%g\"/>\n",
				it.X, it.Y, it.Width, it.Height, escAttr(fill), escAttr(stroke), sw)
		case domain.ItemCircle:
			fill, stroke, sw := shapeStyle(it)
			wf("  <ellipse cx=\"%g\" cy=\"%g\" rx=\"%g\" ry=\"%g\" fill=\"%s\" stroke=\"%s\" stroke-width=\"%g\"/>\n",
				it.X+it.Width/2, it.Y+it.Height/2, it.Width/2, it.Height/2, escAttr(fill), escAttr(stroke), sw)
		case domain.ItemSticky:
			fill := it.Fill
			if fill == "" {
				fill = defaultStickyFill
			}
			wf("  <rect x=\"%g\" y=\"%g\" width=\"%g\" height=\"%g\" fill=\"%s\"/>\n",
				it.X, it.Y, it.Width, it.Height, escAttr(fill))
			writeSVGText(wf, it)
		case domain.ItemText:
			writeSVGText(wf, it)
		case domain.ItemImage:
			wf("  <image x=\"%g\" y=\"%g\" width=\"%g\" height=\"%g\" xlink:href=\"%s\" preserveAspectRatio=\"none\"/>\n",
				it.X, it.Y, it.Width, it.Height, escAttr(it.Content))
		}
	}
	wf("</svg>\n")

	if werr != nil {
		return "", fmt.Errorf("build svg: %w", werr)
	}
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return "", fmt.Errorf("ensure out dir: %w", err)
	}
	if err := os.WriteFile(outPath, buf.Bytes(), 0o644); err != nil {
		return "", fmt.Errorf("write svg: %w", err)
	}
	return outPath, nil
}

func writeSVGGrid(wf func(string, ...any), world geom.Rect, g domain.GridConfig) {
	op := g.Opacity
	if op <= 0 || op > 1 {
		op = 0.3
	}
	col := g.Color
	if col == "" {
		col = "#888888"
	}
	wf("  <g stroke=\"%s\" stroke-opacity=\"%g\" stroke-width=\"0.5\">\n", escAttr(col), op)
	for x := math.Ceil(world.X/g.Spacing) * g.Spacing; x <= world.X+world.W; x += g.Spacing {
		wf("    <line x1=\"%g\" y1=\"%g\" x2=\"%g\" y2=\"%g\"/>\n", x, world.Y, x, world.Y+world.H)
	}
	for y := math.Ceil(world.Y/g.Spacing) * g.Spacing; y <= world.Y+world.H; y += g.Spacing {
		wf("    <line x1=\"%g\" y1=\"%g\" x2=\"%g\" y2=\"%g\"/>\n", world.X, y, world.X+world.W, y)
	}
	wf("  </g>\n")
}

func writeSVGText(wf func(string, ...any), it domain.Item) {
	if strings.TrimSpace(it.Content) == "" {
		return
	}
	col := it.Color
	if col == "" {
		col = defaultTextColor
	}
	fsz := it.FontSize
	if fsz <= 0 {
		fsz = 14
	}
	font := it.FontFamily
	if font == "" {
		font = "Helvetica, Arial, sans-serif"
	}
	pad := 4.0
	y := it.Y + pad + fsz
	for _, line := range strings.Split(it.Content, "\n") {
		if y > it.Y+it.Height {
			break
		}
		wf("  <text x=\"%g\" y=\"%g\" font-family=\"%s\" font-size=\"%g\" fill=\"%s\">%s</text>\n",
			it.X+pad, y, escAttr(font), fsz, escAttr(col), escText(line))
		y += fsz * 1.2
	}
}

func shapeStyle(it domain.Item) (fill, stroke string, sw float64) {
	fill = it.Fill
	if fill == "" {
		fill = defaultShapeFill
	}
	stroke = it.Stroke
	sw = it.StrokeWidth
	if stroke == "" && sw > 0 {
		stroke = defaultStroke
	}
	if stroke == "" {
		stroke = "none"
		sw = 0
	} else if sw <= 0 {
		sw = 1
	}
	return fill, stroke, sw
}

func escAttr(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		ch := s[i]
		switch ch {
		case '"':
			out = append(out, '&', 'q', 'u', 'o', 't', ';')
		case '&':
			out = append(out, '&', 'a', 'm', 'p', ';')
		case '\n':
			out = append(out, ' ')
		case '\r':
			// skip
		default:
			out = append(out, ch)
		}
	}
	return string(out)
}

func escText(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		ch := s[i]
		switch ch {
		case '&':
			out = append(out, '&', 'a', 'm', 'p', ';')
		case '<':
			out = append(out, '&', 'l', 't', ';')
		case '>':
			out = append(out, '&', 'g', 't', ';')
		default:
			out = append(out, ch)
		}
	}
	return string(out)
}
