/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"context"
	"fmt"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"inkboard/internal/domain"
	applog "inkboard/internal/log"
	"inkboard/internal/viewport"
)

// Options carries the optional collaborators of an export run.
type Options struct {
	// Assets resolves "asset:<id>" image item content. Nil renders
	// placeholders for such items.
	Assets AssetResolver

	// Watermark, when set, is stamped onto raster output after
	// rendering. Load failures degrade to unstamped output.
	Watermark WatermarkSource
}

// ExportPNG renders the region and writes it as a PNG file. A missing
// .png extension is appended; the final path is returned.
func ExportPNG(ctx context.Context, doc domain.Document, region viewport.Region, outPath string, opt Options) (string, error) {
	l := applog.WithOperation(applog.WithComponent("export"), "png")
	if strings.TrimSpace(outPath) == "" {
		return "", fmt.Errorf("output path is required")
	}
	if !strings.EqualFold(filepath.Ext(outPath), ".png") {
		outPath += ".png"
	}
	img, err := Render(ctx, doc, region, opt.Assets)
	if err != nil {
		return "", fmt.Errorf("render region: %w", err)
	}
	ApplyWatermark(ctx, img, opt.Watermark, region.PixelRatio)

	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return "", fmt.Errorf("ensure out dir: %w", err)
	}
	f, err := os.Create(outPath)
	if err != nil {
		return "", fmt.Errorf("create png: %w", err)
	}
	if err := png.Encode(f, img); err != nil {
		_ = f.Close()
		return "", fmt.Errorf("encode png: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close png: %w", err)
	}
	l.Info("png exported",
		slog.String("path", outPath),
		slog.Int("width", img.Bounds().Dx()),
		slog.Int("height", img.Bounds().Dy()))
	return outPath, nil
}
