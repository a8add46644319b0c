/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"bytes"
	"context"
	"errors"
	"testing"
)

func TestAssetRoundTrip(t *testing.T) {
	store, err := OpenAssets(t.TempDir())
	if err != nil {
		t.Fatalf("OpenAssets: %v", err)
	}
	defer func() { _ = store.Close() }()
	ctx := context.Background()

	payload := []byte{0x89, 'P', 'N', 'G', 1, 2, 3}
	if err := store.Put(ctx, "img-1", "image/png", payload); err != nil {
		t.Fatalf("Put: %v", err)
	}
	mime, data, err := store.Get(ctx, "img-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if mime != "image/png" || !bytes.Equal(data, payload) {
		t.Fatalf("round trip mismatch: %s %v", mime, data)
	}
}

func TestAssetPutReplaces(t *testing.T) {
	store, err := OpenAssets(t.TempDir())
	if err != nil {
		t.Fatalf("OpenAssets: %v", err)
	}
	defer func() { _ = store.Close() }()
	ctx := context.Background()

	if err := store.Put(ctx, "a", "image/png", []byte("one")); err != nil {
		t.Fatal(err)
	}
	if err := store.Put(ctx, "a", "image/jpeg", []byte("two")); err != nil {
		t.Fatal(err)
	}
	mime, data, err := store.Get(ctx, "a")
	if err != nil {
		t.Fatal(err)
	}
	if mime != "image/jpeg" || string(data) != "two" {
		t.Fatalf("replace failed: %s %s", mime, data)
	}
	infos, err := store.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(infos) != 1 {
		t.Fatalf("expected 1 asset after replace, got %d", len(infos))
	}
}

func TestAssetGetMissing(t *testing.T) {
	store, err := OpenAssets(t.TempDir())
	if err != nil {
		t.Fatalf("OpenAssets: %v", err)
	}
	defer func() { _ = store.Close() }()

	_, _, err = store.Get(context.Background(), "nope")
	if !errors.Is(err, ErrAssetNotFound) {
		t.Fatalf("expected ErrAssetNotFound, got %v", err)
	}
}

func TestAssetDelete(t *testing.T) {
	store, err := OpenAssets(t.TempDir())
	if err != nil {
		t.Fatalf("OpenAssets: %v", err)
	}
	defer func() { _ = store.Close() }()
	ctx := context.Background()

	if err := store.Put(ctx, "gone", "image/png", []byte("x")); err != nil {
		t.Fatal(err)
	}
	if err := store.Delete(ctx, "gone"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, _, err := store.Get(ctx, "gone"); !errors.Is(err, ErrAssetNotFound) {
		t.Fatalf("expected asset gone, got %v", err)
	}
	// Deleting again is a no-op.
	if err := store.Delete(ctx, "gone"); err != nil {
		t.Fatalf("second Delete: %v", err)
	}
}

func TestAssetRefHelpers(t *testing.T) {
	ref := AssetRef("abc-123")
	if ref != "asset:abc-123" {
		t.Fatalf("AssetRef: %s", ref)
	}
	id, ok := ParseAssetRef(ref)
	if !ok || id != "abc-123" {
		t.Fatalf("ParseAssetRef: %s %v", id, ok)
	}
	if _, ok := ParseAssetRef("/tmp/pic.png"); ok {
		t.Fatal("plain path should not parse as asset ref")
	}
	if _, ok := ParseAssetRef("https://example.com/pic.png"); ok {
		t.Fatal("URL should not parse as asset ref")
	}
}
