/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"

	"inkboard/internal/backend"
	"inkboard/internal/config"
	"inkboard/internal/crash"
	"inkboard/internal/domain"
	"inkboard/internal/export"
	"inkboard/internal/genimage"
	"inkboard/internal/geom"
	applog "inkboard/internal/log"
	"inkboard/internal/storage"
	"inkboard/internal/telemetry"
	"inkboard/internal/version"
	"inkboard/internal/viewport"
)

func usage() {
	fmt.Println("Inkboard — infinite canvas board")
	fmt.Printf("Version: %s\n", version.String())
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  inkboard version|-v|--version                 Show version")
	fmt.Println("  inkboard init <file>                          Create an empty board file")
	fmt.Println("  inkboard info <file>                          Print a board summary")
	fmt.Println("  inkboard export <file> [flags]                Export a board (png|svg|pdf)")
	fmt.Println("  inkboard generate <file> [flags]              Generate an AI panel onto the board")
	fmt.Println("  inkboard push <file> [flags]                  Upload a board snapshot to the sync server")
	fmt.Println("  inkboard pull <file> [flags]                  Download the latest snapshot from the sync server")
	fmt.Println("  inkboard serve                                Run the sync server")
}

// openBoard tracks the board the crash handler should autosave.
var openBoard struct {
	path string
	doc  domain.Document
	ok   bool
}

func crashSnapshot() (domain.Document, string, bool) {
	return openBoard.doc, openBoard.path, openBoard.ok
}

func main() {
	// .env is a developer convenience; absence is not an error.
	_ = godotenv.Load()
	applog.Init(applog.FromEnv())
	cfg, _ := config.Load()
	telemetry.InitWithOptIn(cfg.General.TelemetryOptIn)
	l := applog.WithComponent("cli")
	defer crash.Recover(crashSnapshot)

	args := os.Args
	l.Debug("start", slog.Int("args", len(args)))
	if len(args) < 2 {
		usage()
		return
	}
	switch args[1] {
	case "version", "--version", "-v":
		fmt.Println("Inkboard — infinite canvas board")
		fmt.Println(version.String())
	case "init":
		cmdInit(l, args[2:])
	case "info":
		cmdInfo(l, args[2:])
	case "export":
		cmdExport(l, args[2:])
	case "generate":
		cmdGenerate(l, args[2:])
	case "push":
		cmdPush(l, args[2:])
	case "pull":
		cmdPull(l, args[2:])
	case "serve":
		l.Info("starting sync server")
		if err := backend.Start(); err != nil {
			fail(l, "serve failed", err)
		}
	default:
		usage()
		os.Exit(2)
	}
}

func fail(l *slog.Logger, msg string, err error) {
	l.Error(msg, slog.Any("err", err))
	fmt.Println("Error:", err)
	os.Exit(1)
}

func cmdInit(l *slog.Logger, args []string) {
	if len(args) < 1 {
		fmt.Println("init requires <file>")
		usage()
		os.Exit(2)
	}
	cfg, _ := config.Load()
	abs, _ := filepath.Abs(args[0])
	doc := domain.Document{
		Scale: 1,
		Items: []domain.Item{},
		GridConfig: &domain.GridConfig{
			Spacing: cfg.Board.GridSpacing,
			Opacity: cfg.Board.GridOpacity,
			Color:   cfg.Board.GridColor,
			Snap:    cfg.Board.SnapToGrid,
		},
		BackgroundConfig: &domain.BackgroundConfig{Color: cfg.Board.BackgroundColor},
	}
	path, err := storage.SaveBoard(abs, doc)
	if err != nil {
		fail(l, "init failed", err)
	}
	fmt.Println("Created board at", path)
}

func cmdInfo(l *slog.Logger, args []string) {
	if len(args) < 1 {
		fmt.Println("info requires <file>")
		usage()
		os.Exit(2)
	}
	doc := mustLoad(l, args[0])
	fmt.Printf("Items: %d\n", len(doc.Items))
	fmt.Printf("Groups: %d\n", len(doc.Groups))
	fmt.Printf("Scale: %g  Position: (%g, %g)\n", doc.Scale, doc.Position.X, doc.Position.Y)
	counts := map[domain.ItemType]int{}
	for _, it := range doc.Items {
		counts[it.Type]++
	}
	for _, t := range []domain.ItemType{domain.ItemText, domain.ItemSticky, domain.ItemRect, domain.ItemCircle, domain.ItemImage} {
		if counts[t] > 0 {
			fmt.Printf("  %s: %d\n", t, counts[t])
		}
	}
}

func cmdExport(l *slog.Logger, args []string) {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	format := fs.String("format", "png", "output format: png|svg|pdf")
	out := fs.String("out", "", "output path (default: board path with new extension)")
	ratio := fs.Float64("ratio", 0, "pixel ratio for raster output (0 = config default)")
	watermark := fs.String("watermark", "", "watermark image path (raster only)")
	if len(args) < 1 {
		fmt.Println("export requires <file>")
		usage()
		os.Exit(2)
	}
	boardPath := args[0]
	_ = fs.Parse(args[1:])

	cfg, _ := config.Load()
	doc := mustLoad(l, boardPath)

	pixelRatio := *ratio
	if pixelRatio <= 0 {
		pixelRatio = cfg.Export.PixelRatio
	}
	region, err := contentRegion(doc, pixelRatio)
	if err != nil {
		fail(l, "derive export region", err)
	}

	outPath := *out
	if outPath == "" {
		outPath = strings.TrimSuffix(boardPath, filepath.Ext(boardPath))
	}
	opt := export.Options{}
	if dir := filepath.Dir(boardPath); dir != "" {
		if assets, err := storage.OpenAssets(dir); err == nil {
			defer func() { _ = assets.Close() }()
			opt.Assets = assets
		}
	}
	wmPath := *watermark
	if wmPath == "" {
		wmPath = cfg.Export.WatermarkPath
	}
	if wmPath != "" {
		opt.Watermark = export.FileWatermark(wmPath)
	}

	ctx := context.Background()
	var final string
	switch strings.ToLower(*format) {
	case "png":
		final, err = export.ExportPNG(ctx, doc, region, outPath, opt)
	case "svg":
		final, err = export.ExportSVG(ctx, doc, region, outPath, opt)
	case "pdf":
		final, err = export.ExportPDF(ctx, doc, region, outPath, opt)
	default:
		fail(l, "export failed", fmt.Errorf("unknown format %q", *format))
	}
	if err != nil {
		fail(l, "export failed", err)
	}
	telemetry.Event("board_exported", map[string]any{"format": strings.ToLower(*format)})
	fmt.Println("Exported", final)
}

func cmdGenerate(l *slog.Logger, args []string) {
	fs := flag.NewFlagSet("generate", flag.ExitOnError)
	prompt := fs.String("prompt", "", "image prompt (required)")
	aspect := fs.String("aspect", "", "aspect ratio: 1:1|16:9|9:16|4:3|3:4")
	ref := fs.String("ref", "", "optional reference image path")
	noEnhance := fs.Bool("no-enhance", false, "skip prompt enhancement")
	if len(args) < 1 {
		fmt.Println("generate requires <file>")
		usage()
		os.Exit(2)
	}
	boardPath := args[0]
	_ = fs.Parse(args[1:])
	if strings.TrimSpace(*prompt) == "" {
		fmt.Println("generate requires -prompt")
		os.Exit(2)
	}

	cfg, _ := config.Load()
	doc := mustLoad(l, boardPath)

	aspectToken := *aspect
	if aspectToken == "" {
		aspectToken = cfg.Generation.DefaultAspect
	}
	ar, err := genimage.ParseAspect(aspectToken)
	if err != nil {
		fail(l, "generate failed", err)
	}

	ctx := context.Background()
	client, err := genimage.New(ctx, config.GeminiAPIKey())
	if err != nil {
		fail(l, "generate failed", err)
	}
	client.SetModels(cfg.Generation.TextModel, cfg.Generation.ImageModel)

	req := genimage.PanelRequest{
		Prompt:  *prompt,
		Aspect:  ar,
		Enhance: cfg.Generation.EnhancePrompt && !*noEnhance,
	}
	if *ref != "" {
		data, err := os.ReadFile(*ref)
		if err != nil {
			fail(l, "read reference image", err)
		}
		req.Reference = data
	}

	panel, err := client.GeneratePanel(ctx, req)
	if err != nil {
		fail(l, "generate failed", err)
	}

	assets, err := storage.OpenAssets(filepath.Dir(boardPath))
	if err != nil {
		fail(l, "open asset library", err)
	}
	defer func() { _ = assets.Close() }()

	// Place the panel at the center of the current viewport.
	t := domain.Transform{Scale: doc.Scale, Position: doc.Position}
	if t.Scale == 0 {
		t.Scale = 1
	}
	vis := viewport.Visible(t, viewport.StageSize{Width: 1920, Height: 1080})
	center := domain.Pt{X: vis.X + vis.W/2, Y: vis.Y + vis.H/2}
	item, err := genimage.PlacePanel(ctx, assets, panel, ar, center)
	if err != nil {
		fail(l, "place panel", err)
	}
	doc.Items = append(doc.Items, item)
	openBoard.doc = doc
	if _, err := storage.SaveBoard(boardPath, doc); err != nil {
		fail(l, "save board", err)
	}
	telemetry.Event("panel_generated", map[string]any{"aspect": string(ar)})
	fmt.Println("Generated panel", item.ID)
}

func cmdPush(l *slog.Logger, args []string) {
	fs := flag.NewFlagSet("push", flag.ExitOnError)
	id := fs.String("id", "", "stable board id on the server (default: file name)")
	name := fs.String("name", "", "board display name")
	if len(args) < 1 {
		fmt.Println("push requires <file>")
		usage()
		os.Exit(2)
	}
	boardPath := args[0]
	_ = fs.Parse(args[1:])

	cfg, _ := config.Load()
	if !cfg.General.EnableSync {
		fail(l, "push failed", fmt.Errorf("sync is disabled; set general.enable_sync or %s", config.EnvEnableSync))
	}
	doc := mustLoad(l, boardPath)
	stableID := *id
	if stableID == "" {
		stableID = strings.TrimSuffix(filepath.Base(boardPath), filepath.Ext(boardPath))
	}
	client := backend.NewClient(cfg.Backend.BaseURL, config.BackendToken())
	ver, err := client.PushBoard(context.Background(), stableID, *name, doc)
	if err != nil {
		fail(l, "push failed", err)
	}
	fmt.Printf("Pushed %s as version %d\n", stableID, ver)
}

func cmdPull(l *slog.Logger, args []string) {
	fs := flag.NewFlagSet("pull", flag.ExitOnError)
	id := fs.String("id", "", "stable board id on the server (default: file name)")
	if len(args) < 1 {
		fmt.Println("pull requires <file>")
		usage()
		os.Exit(2)
	}
	boardPath := args[0]
	_ = fs.Parse(args[1:])

	cfg, _ := config.Load()
	if !cfg.General.EnableSync {
		fail(l, "pull failed", fmt.Errorf("sync is disabled; set general.enable_sync or %s", config.EnvEnableSync))
	}
	stableID := *id
	if stableID == "" {
		stableID = strings.TrimSuffix(filepath.Base(boardPath), filepath.Ext(boardPath))
	}
	client := backend.NewClient(cfg.Backend.BaseURL, config.BackendToken())
	doc, ver, err := client.FetchBoard(context.Background(), stableID)
	if err != nil {
		fail(l, "pull failed", err)
	}
	path, err := storage.SaveBoard(boardPath, doc)
	if err != nil {
		fail(l, "save pulled board", err)
	}
	fmt.Printf("Pulled %s version %d into %s\n", stableID, ver, path)
}

func mustLoad(l *slog.Logger, path string) domain.Document {
	abs, _ := filepath.Abs(path)
	doc, err := storage.LoadBoard(abs)
	if err != nil {
		fail(l, "load board", err)
	}
	openBoard.path = abs
	openBoard.doc = doc
	openBoard.ok = true
	return doc
}

// contentRegion derives the export rectangle for headless exports: the
// bounding box of all items with a margin, mapped to surface pixels. An
// empty board falls back to the default centered region on a standard
// stage.
func contentRegion(doc domain.Document, pixelRatio float64) (viewport.Region, error) {
	t := domain.Transform{Scale: doc.Scale, Position: doc.Position}
	if t.Scale == 0 {
		t.Scale = 1
	}
	if len(doc.Items) == 0 {
		return viewport.DefaultRegion(t, viewport.StageSize{Width: 1920, Height: 1080}, pixelRatio)
	}
	bbox := geom.Rect{X: doc.Items[0].X, Y: doc.Items[0].Y, W: doc.Items[0].Width, H: doc.Items[0].Height}
	for _, it := range doc.Items[1:] {
		bbox = bbox.Union(geom.Rect{X: it.X, Y: it.Y, W: it.Width, H: it.Height})
	}
	const margin = 40 // world units around the content
	bbox = bbox.Inset(-margin, -margin)
	min := viewport.WorldToScreen(t, bbox.Min())
	sel := geom.Rect{X: min.X, Y: min.Y, W: bbox.W * t.Scale, H: bbox.H * t.Scale}
	return viewport.PixelRegion(sel, pixelRatio)
}
