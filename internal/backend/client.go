/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"inkboard/internal/domain"
)

// Client is the desktop-side HTTP client for the sync server, used
// under a feature flag.
type Client struct {
	BaseURL string
	Token   string // bearer token
	client  *http.Client
}

// NewClient creates a sync client. baseURL may carry a trailing slash.
func NewClient(baseURL, token string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Token:   token,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *Client) doJSON(ctx context.Context, method, p string, body, dest any) error {
	u, err := url.Parse(c.BaseURL + p)
	if err != nil {
		return err
	}
	var rd *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rd = bytes.NewReader(b)
	} else {
		rd = bytes.NewReader(nil)
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), rd)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("server %s %s: %s", method, u.Path, resp.Status)
	}
	if dest == nil {
		return nil
	}
	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	return dec.Decode(dest)
}

// Board is the listing projection served by the sync server.
type Board struct {
	ID        int64     `json:"id"`
	StableID  string    `json:"stable_id"`
	Name      string    `json:"name"`
	Version   int64     `json:"version"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ListBoards returns the boards known to the server.
func (c *Client) ListBoards(ctx context.Context) ([]Board, error) {
	var list []Board
	if err := c.doJSON(ctx, http.MethodGet, "/api/boards", nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// SnapshotEnvelope is the latest-snapshot response for one board.
type SnapshotEnvelope struct {
	StableID  string          `json:"stable_id"`
	Version   int64           `json:"version"`
	CreatedAt string          `json:"created_at"`
	Document  json.RawMessage `json:"document"`
}

// FetchBoard pulls the latest snapshot and decodes the document.
func (c *Client) FetchBoard(ctx context.Context, stableID string) (domain.Document, int64, error) {
	var env SnapshotEnvelope
	p := fmt.Sprintf("/api/boards/%s/snapshot", url.PathEscape(stableID))
	if err := c.doJSON(ctx, http.MethodGet, p, nil, &env); err != nil {
		return domain.Document{}, 0, err
	}
	var doc domain.Document
	if err := json.Unmarshal(env.Document, &doc); err != nil {
		return domain.Document{}, 0, fmt.Errorf("decode board document: %w", err)
	}
	if doc.Items == nil {
		doc.Items = []domain.Item{}
	}
	return doc, env.Version, nil
}

// PushBoard uploads a snapshot of the document and returns the new
// server-side version.
func (c *Client) PushBoard(ctx context.Context, stableID, name string, doc domain.Document) (int64, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return 0, fmt.Errorf("encode board document: %w", err)
	}
	body := map[string]any{"name": name, "document": json.RawMessage(raw)}
	var resp struct {
		StableID string `json:"stable_id"`
		Version  int64  `json:"version"`
	}
	p := fmt.Sprintf("/api/boards/%s/snapshot", url.PathEscape(stableID))
	if err := c.doJSON(ctx, http.MethodPost, p, body, &resp); err != nil {
		return 0, err
	}
	return resp.Version, nil
}
