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
	"image"
	"image/color"
	"image/draw"
	"log/slog"
	"math"
	"os"
	"time"

	xdraw "golang.org/x/image/draw"

	applog "inkboard/internal/log"
)

const (
	// watermarkMaxPx caps the watermark width in output pixels;
	// watermarkFraction caps it relative to the export width. The
	// smaller of the two wins.
	watermarkMaxPx    = 80.0
	watermarkFraction = 0.12

	watermarkMargin = 16

	// watermarkLoadTimeout bounds reading the watermark source so a
	// slow disk or network mount cannot stall the export.
	watermarkLoadTimeout = 2 * time.Second

	watermarkShadowAlpha = 64
)

// WatermarkSource yields the watermark image. A file-backed source is
// the common case; tests substitute in-memory images.
type WatermarkSource func(ctx context.Context) (image.Image, error)

// FileWatermark returns a source that reads and decodes path.
func FileWatermark(path string) WatermarkSource {
	return func(ctx context.Context) (image.Image, error) {
		type result struct {
			img image.Image
			err error
		}
		ch := make(chan result, 1)
		go func() {
			data, err := os.ReadFile(path)
			if err != nil {
				ch <- result{nil, err}
				return
			}
			img, _, err := image.Decode(bytes.NewReader(data))
			ch <- result{img, err}
		}()
		select {
		case r := <-ch:
			return r.img, r.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// ApplyWatermark stamps the watermark into the bottom-right corner of
// dst: a translucent shadow pass offset down-right, then the image
// itself. Sizing takes the smaller of watermarkFraction of the export
// width and watermarkMaxPx scaled by pixelRatio. A missing or unreadable
// watermark degrades to the unstamped export; it never fails the run.
func ApplyWatermark(ctx context.Context, dst *image.RGBA, src WatermarkSource, pixelRatio float64) {
	if src == nil {
		return
	}
	l := applog.WithOperation(applog.WithComponent("export"), "watermark")
	lctx, cancel := context.WithTimeout(ctx, watermarkLoadTimeout)
	defer cancel()
	wm, err := src(lctx)
	if err != nil || wm == nil {
		l.Warn("watermark unavailable, exporting without it", slog.Any("err", err))
		return
	}
	if pixelRatio <= 0 {
		pixelRatio = 1
	}

	b := dst.Bounds()
	sb := wm.Bounds()
	if sb.Dx() < 1 || sb.Dy() < 1 {
		return
	}
	targetW := math.Min(float64(b.Dx())*watermarkFraction, watermarkMaxPx*pixelRatio)
	if targetW < 1 {
		return
	}
	targetH := targetW * float64(sb.Dy()) / float64(sb.Dx())

	scaled := image.NewRGBA(image.Rect(0, 0, int(math.Round(targetW)), int(math.Round(targetH))))
	xdraw.ApproxBiLinear.Scale(scaled, scaled.Bounds(), wm, sb, draw.Src, nil)

	margin := int(math.Round(watermarkMargin * pixelRatio))
	pos := image.Pt(b.Max.X-scaled.Bounds().Dx()-margin, b.Max.Y-scaled.Bounds().Dy()-margin)
	if pos.X < b.Min.X {
		pos.X = b.Min.X
	}
	if pos.Y < b.Min.Y {
		pos.Y = b.Min.Y
	}

	offset := int(math.Max(1, math.Round(2*pixelRatio/3)))
	shadowRect := scaled.Bounds().Add(pos).Add(image.Pt(offset, offset))
	shadowMask := &image.Uniform{C: color.Alpha{A: watermarkShadowAlpha}}
	draw.DrawMask(dst, shadowRect, shadow(scaled), image.Point{}, shadowMask, image.Point{}, draw.Over)

	draw.Draw(dst, scaled.Bounds().Add(pos), scaled, image.Point{}, draw.Over)
}

// shadow darkens the watermark for the shadow pass while keeping its
// alpha shape.
func shadow(src *image.RGBA) image.Image {
	out := image.NewRGBA(src.Bounds())
	for y := src.Bounds().Min.Y; y < src.Bounds().Max.Y; y++ {
		for x := src.Bounds().Min.X; x < src.Bounds().Max.X; x++ {
			a := src.RGBAAt(x, y).A
			out.SetRGBA(x, y, color.RGBA{0, 0, 0, a})
		}
	}
	return out
}
