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
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"inkboard/internal/domain"
	"inkboard/internal/geom"
	"inkboard/internal/storage"
	"inkboard/internal/viewport"
)

// ExportPDF writes the region as a single-page PDF. Shapes and text are
// drawn as vectors in world units (1 world unit = 1pt); image items are
// embedded as PNG when the asset resolves, otherwise drawn as
// placeholder boxes. Built-in Helvetica keeps text vector without font
// embedding.
func ExportPDF(ctx context.Context, doc domain.Document, region viewport.Region, outPath string, opt Options) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if strings.TrimSpace(outPath) == "" {
		return "", fmt.Errorf("output path is required")
	}
	if !strings.EqualFold(filepath.Ext(outPath), ".pdf") {
		outPath += ".pdf"
	}
	t := domain.Transform{Scale: doc.Scale, Position: doc.Position}
	if t.Scale == 0 {
		t.Scale = 1
	}
	world := viewport.WorldRect(t, region)
	if world.W < 1 || world.H < 1 {
		return "", viewport.ErrRegionTooSmall
	}

	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		UnitStr:        "pt",
		Size:           gofpdf.SizeType{Wd: world.W, Ht: world.H},
		OrientationStr: "",
	})
	pdf.SetTitle("Board export", false)
	pdf.SetFont("Helvetica", "", 12)
	pdf.AddPageFormat("", gofpdf.SizeType{Wd: world.W, Ht: world.H})

	// Background
	bg := defaultBackground
	if doc.BackgroundConfig != nil && doc.BackgroundConfig.Color != "" {
		bg = doc.BackgroundConfig.Color
	}
	setPDFFill(pdf, bg)
	pdf.Rect(0, 0, world.W, world.H, "F")

	// Shift world coordinates so the region's top-left is the page origin.
	ox, oy := world.X, world.Y

	if doc.GridConfig != nil && doc.GridConfig.Spacing > 0 {
		drawPDFGrid(pdf, world, *doc.GridConfig)
	}

	imgIndex := 0
	for _, it := range doc.Items {
		ir := geom.Rect{X: it.X, Y: it.Y, W: it.Width, H: it.Height}
		if !ir.Intersects(world) {
			continue
		}
		x, y := it.X-ox, it.Y-oy
		switch it.Type {
		case domain.ItemRect, domain.ItemCircle:
			fill, stroke, sw := shapeStyle(it)
			setPDFFill(pdf, fill)
			style := "F"
			if stroke != "none" {
				setPDFDraw(pdf, stroke)
				pdf.SetLineWidth(sw)
				style = "FD"
			}
			if it.Type == domain.ItemCircle {
				pdf.Ellipse(x+it.Width/2, y+it.Height/2, it.Width/2, it.Height/2, 0, style)
			} else {
				pdf.Rect(x, y, it.Width, it.Height, style)
			}
		case domain.ItemSticky:
			fill := it.Fill
			if fill == "" {
				fill = defaultStickyFill
			}
			setPDFFill(pdf, fill)
			pdf.Rect(x, y, it.Width, it.Height, "F")
			drawPDFText(pdf, it, x, y)
		case domain.ItemText:
			drawPDFText(pdf, it, x, y)
		case domain.ItemImage:
			if id, ok := storage.ParseAssetRef(it.Content); ok && opt.Assets != nil {
				if _, data, err := opt.Assets.Get(ctx, id); err == nil {
					if embedPDFImage(pdf, data, fmt.Sprintf("asset-%d", imgIndex), x, y, it.Width, it.Height) {
						imgIndex++
						continue
					}
				}
			}
			setPDFFill(pdf, "#EEEEEE")
			setPDFDraw(pdf, "#AAAAAA")
			pdf.SetLineWidth(0.5)
			pdf.Rect(x, y, it.Width, it.Height, "FD")
		}
	}

	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return "", fmt.Errorf("ensure out dir: %w", err)
	}
	if err := pdf.OutputFileAndClose(outPath); err != nil {
		return "", fmt.Errorf("write pdf: %w", err)
	}
	return outPath, nil
}

func drawPDFGrid(pdf *gofpdf.Fpdf, world geom.Rect, g domain.GridConfig) {
	col := g.Color
	if col == "" {
		col = "#888888"
	}
	setPDFDraw(pdf, col)
	pdf.SetLineWidth(0.2)
	for x := math.Ceil(world.X/g.Spacing) * g.Spacing; x <= world.X+world.W; x += g.Spacing {
		pdf.Line(x-world.X, 0, x-world.X, world.H)
	}
	for y := math.Ceil(world.Y/g.Spacing) * g.Spacing; y <= world.Y+world.H; y += g.Spacing {
		pdf.Line(0, y-world.Y, world.W, y-world.Y)
	}
}

func drawPDFText(pdf *gofpdf.Fpdf, it domain.Item, x, y float64) {
	if strings.TrimSpace(it.Content) == "" {
		return
	}
	fsz := it.FontSize
	if fsz <= 0 {
		fsz = 14
	}
	col := it.Color
	if col == "" {
		col = defaultTextColor
	}
	r, g, b := hexComponents(col)
	pdf.SetTextColor(r, g, b)
	pdf.SetFont("Helvetica", "", fsz)
	pad := 4.0
	cy := y + pad + fsz
	for _, line := range strings.Split(it.Content, "\n") {
		if cy > y+it.Height {
			break
		}
		pdf.Text(x+pad, cy, line)
		cy += fsz * 1.2
	}
}

func embedPDFImage(pdf *gofpdf.Fpdf, data []byte, name string, x, y, w, h float64) bool {
	// gofpdf needs a registered image type; re-encode anything decodable
	// as PNG so JPEG and GIF assets embed the same way.
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return false
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return false
	}
	pdf.RegisterImageOptionsReader(name, gofpdf.ImageOptions{ImageType: "PNG"}, &buf)
	if pdf.Err() {
		return false
	}
	pdf.ImageOptions(name, x, y, w, h, false, gofpdf.ImageOptions{ImageType: "PNG"}, 0, "")
	return !pdf.Err()
}

func setPDFFill(pdf *gofpdf.Fpdf, hex string) {
	r, g, b := hexComponents(hex)
	pdf.SetFillColor(r, g, b)
}

func setPDFDraw(pdf *gofpdf.Fpdf, hex string) {
	r, g, b := hexComponents(hex)
	pdf.SetDrawColor(r, g, b)
}

func hexComponents(hex string) (int, int, int) {
	c := parseHexColor(hex, color.RGBA{0, 0, 0, 255})
	return int(c.R), int(c.G), int(c.B)
}
