/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package genimage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"google.golang.org/genai"

	"inkboard/internal/domain"
	applog "inkboard/internal/log"
	"inkboard/internal/storage"
)

const (
	// DefaultTextModel handles prompt enhancement and the vision bridge.
	DefaultTextModel = "gemini-2.5-flash"
	// DefaultImageModel synthesizes the panel.
	DefaultImageModel = "imagen-4.0-fast-generate-001"

	textTimeout  = 60 * time.Second
	imageTimeout = 120 * time.Second

	enhanceSystemPrompt = "You are an expert Prompt Engineer for AI Image Generators. " +
		"Rewrite the user's prompt to be more descriptive, artistic, and detailed. " +
		"Focus on lighting, texture, mood, and composition. Keep it under 40 words. " +
		"Output ONLY the optimized prompt."
	describeSystemPrompt = "Describe the artistic style, color palette, composition, " +
		"and key elements of this image in detail. This description will be used to " +
		"generate a similar image."
)

// ErrAPIKeyMissing is the reportable precondition for generation without
// a configured Gemini key.
var ErrAPIKeyMissing = errors.New("gemini api key is not configured")

// Client wraps the Gemini API for panel generation.
type Client struct {
	gc         *genai.Client
	textModel  string
	imageModel string
	log        *slog.Logger
}

// New builds a client for the given API key. The key comes from the
// configured credential store; an empty key is rejected up front so the
// caller can surface ErrAPIKeyMissing before any network work.
func New(ctx context.Context, apiKey string) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, ErrAPIKeyMissing
	}
	gc, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("genai.NewClient: %w", err)
	}
	return &Client{
		gc:         gc,
		textModel:  DefaultTextModel,
		imageModel: DefaultImageModel,
		log:        applog.WithComponent("genimage"),
	}, nil
}

// SetModels overrides the default model ids. Empty values keep the
// current setting.
func (c *Client) SetModels(text, image string) {
	if text != "" {
		c.textModel = text
	}
	if image != "" {
		c.imageModel = image
	}
}

// EnhancePrompt rewrites the prompt through the text model. Any failure
// falls back to the original prompt; enhancement is best effort.
func (c *Client) EnhancePrompt(ctx context.Context, prompt string) string {
	ctx, cancel := context.WithTimeout(ctx, textTimeout)
	defer cancel()
	out, err := c.generateText(ctx, enhanceSystemPrompt, []*genai.Part{{Text: prompt}})
	if err != nil || strings.TrimSpace(out) == "" {
		c.log.Warn("prompt enhancement failed, using original", slog.Any("err", err))
		return prompt
	}
	return strings.TrimSpace(out)
}

// DescribeReference runs the vision bridge: the text model describes a
// reference image so its style can be folded into the image prompt.
func (c *Client) DescribeReference(ctx context.Context, mime string, data []byte) (string, error) {
	if len(data) == 0 {
		return "", errors.New("reference image is empty")
	}
	if mime == "" {
		mime = sniffImageMIME(data)
	}
	ctx, cancel := context.WithTimeout(ctx, textTimeout)
	defer cancel()
	parts := []*genai.Part{
		{Text: "Describe this image"},
		{InlineData: &genai.Blob{MIMEType: mime, Data: data}},
	}
	out, err := c.generateText(ctx, describeSystemPrompt, parts)
	if err != nil {
		return "", fmt.Errorf("describe reference: %w", err)
	}
	return strings.TrimSpace(out), nil
}

// PanelRequest describes one generation run.
type PanelRequest struct {
	Prompt        string
	Aspect        AspectRatio
	Enhance       bool
	Reference     []byte // optional style reference image
	ReferenceMIME string
}

// Panel is a generated image ready to store and place.
type Panel struct {
	Data   []byte
	MIME   string
	Prompt string // the final prompt actually sent
}

// GeneratePanel runs the full flow: optional enhancement, optional
// vision bridge, then image generation.
func (c *Client) GeneratePanel(ctx context.Context, req PanelRequest) (Panel, error) {
	if strings.TrimSpace(req.Prompt) == "" {
		return Panel{}, errors.New("prompt is required")
	}
	aspect := req.Aspect
	if aspect == "" {
		aspect = DefaultAspect
	}
	if !aspect.Valid() {
		return Panel{}, fmt.Errorf("unsupported aspect ratio %q", aspect)
	}

	prompt := req.Prompt
	if req.Enhance {
		prompt = c.EnhancePrompt(ctx, prompt)
	}
	if len(req.Reference) > 0 {
		// A failed bridge drops the reference, not the generation.
		if desc, err := c.DescribeReference(ctx, req.ReferenceMIME, req.Reference); err == nil && desc != "" {
			prompt = fmt.Sprintf("%s. (Style Reference: %s)", prompt, desc)
		} else if err != nil {
			c.log.Warn("vision bridge failed, ignoring reference", slog.Any("err", err))
		}
	}

	ictx, cancel := context.WithTimeout(ctx, imageTimeout)
	defer cancel()
	c.log.Info("generating panel",
		slog.String("model", c.imageModel),
		slog.String("aspect", string(aspect)))
	resp, err := c.gc.Models.GenerateImages(ictx, c.imageModel, prompt, &genai.GenerateImagesConfig{
		NumberOfImages: 1,
		AspectRatio:    string(aspect),
	})
	if err != nil {
		return Panel{}, fmt.Errorf("generate image: %w", err)
	}
	if resp == nil || len(resp.GeneratedImages) == 0 || resp.GeneratedImages[0].Image == nil {
		return Panel{}, errors.New("image model returned no images")
	}
	img := resp.GeneratedImages[0].Image
	mime := img.MIMEType
	if mime == "" {
		mime = "image/png"
	}
	return Panel{Data: img.ImageBytes, MIME: mime, Prompt: prompt}, nil
}

// PlacePanel stores a generated panel in the asset library and returns
// an image item centered on the given world point, sized by the
// request's aspect ratio.
func PlacePanel(ctx context.Context, assets *storage.AssetStore, p Panel, aspect AspectRatio, center domain.Pt) (domain.Item, error) {
	if !aspect.Valid() {
		aspect = DefaultAspect
	}
	id := domain.NewID()
	if err := assets.Put(ctx, id, p.MIME, p.Data); err != nil {
		return domain.Item{}, fmt.Errorf("store panel: %w", err)
	}
	w, h := aspect.Size()
	return domain.NewImage(center.X-w/2, center.Y-h/2, w, h, storage.AssetRef(id)), nil
}

// sniffImageMIME detects the reference image's content type from its
// leading bytes; callers rarely know it up front.
func sniffImageMIME(data []byte) string {
	return http.DetectContentType(data)
}

func (c *Client) generateText(ctx context.Context, system string, parts []*genai.Part) (string, error) {
	cfg := &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: system}}},
	}
	contents := []*genai.Content{{Role: "user", Parts: parts}}
	resp, err := c.gc.Models.GenerateContent(ctx, c.textModel, contents, cfg)
	if err != nil {
		return "", err
	}
	if resp == nil || len(resp.Candidates) == 0 {
		return "", errors.New("model returned no candidates")
	}
	var sb strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if part.Text != "" {
				sb.WriteString(part.Text)
			}
		}
	}
	return sb.String(), nil
}
