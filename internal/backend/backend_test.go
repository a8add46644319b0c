/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"inkboard/internal/domain"
)

func TestTokenRoundTrip(t *testing.T) {
	tok, err := signToken("s3cret", "alice", time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("signToken: %v", err)
	}
	sub, err := verifyToken("s3cret", tok)
	if err != nil {
		t.Fatalf("verifyToken: %v", err)
	}
	if sub != "alice" {
		t.Fatalf("subject: got %q", sub)
	}
}

func TestTokenRejectsTampering(t *testing.T) {
	tok, err := signToken("s3cret", "alice", time.Now().Add(time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := verifyToken("other-secret", tok); err == nil {
		t.Fatal("wrong secret must fail")
	}
	if _, err := verifyToken("s3cret", tok+"x"); err == nil {
		t.Fatal("mangled signature must fail")
	}
	if _, err := verifyToken("s3cret", "not-a-token"); err == nil {
		t.Fatal("malformed token must fail")
	}
}

func TestTokenExpiry(t *testing.T) {
	tok, err := signToken("s3cret", "alice", time.Now().Add(-time.Minute))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := verifyToken("s3cret", tok); err == nil {
		t.Fatal("expired token must fail")
	}
}

func TestParseVersion(t *testing.T) {
	v, err := parseVersion("0001_init.sql")
	if err != nil || v != 1 {
		t.Fatalf("got %d %v", v, err)
	}
	if _, err := parseVersion("init.sql"); err == nil {
		t.Fatal("expected error for missing numeric prefix")
	}
}

func TestWithAuthRejectsMissingToken(t *testing.T) {
	h := withAuth("s3cret", func(w http.ResponseWriter, r *http.Request, sub string) {
		w.WriteHeader(http.StatusOK)
	})
	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodGet, "/api/boards", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestClientFetchAndPush(t *testing.T) {
	doc := domain.Document{
		Scale: 1,
		Items: []domain.Item{{ID: "a", Type: domain.ItemRect, Width: 10, Height: 10}},
	}
	raw, _ := json.Marshal(doc)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/api/boards/my-board/snapshot":
			writeJSON(w, http.StatusOK, map[string]any{
				"stable_id": "my-board",
				"version":   int64(3),
				"document":  json.RawMessage(raw),
			})
		case r.Method == http.MethodPost && r.URL.Path == "/api/boards/my-board/snapshot":
			var req struct {
				Name     string          `json:"name"`
				Document json.RawMessage `json:"document"`
			}
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.Document) == 0 {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			writeJSON(w, http.StatusCreated, map[string]any{"stable_id": "my-board", "version": int64(4)})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/", "tok")
	got, ver, err := c.FetchBoard(context.Background(), "my-board")
	if err != nil {
		t.Fatalf("FetchBoard: %v", err)
	}
	if ver != 3 || len(got.Items) != 1 || got.Items[0].ID != "a" {
		t.Fatalf("fetched %d items at v%d", len(got.Items), ver)
	}
	newVer, err := c.PushBoard(context.Background(), "my-board", "My Board", doc)
	if err != nil {
		t.Fatalf("PushBoard: %v", err)
	}
	if newVer != 4 {
		t.Fatalf("push version: got %d", newVer)
	}
}
