/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	applog "inkboard/internal/log"
	"inkboard/internal/version"

	// Pure-Go SQLite driver (CGO-free)
	_ "modernc.org/sqlite"
)

const (
	// AssetsFileName is the embedded asset database next to the board file.
	AssetsFileName = "assets.sqlite"

	// assetRefPrefix marks image item content strings that resolve
	// through the asset library rather than the filesystem.
	assetRefPrefix = "asset:"

	// assetSchemaVersion tracks the local SQLite schema. Bump on
	// breaking changes and migrate in ensureAssetSchema.
	assetSchemaVersion = 1
)

// ErrAssetNotFound is returned when a referenced asset id is absent.
var ErrAssetNotFound = errors.New("asset not found")

// AssetRef builds the content string that points an image item at a
// stored asset.
func AssetRef(id string) string { return assetRefPrefix + id }

// ParseAssetRef extracts the asset id from a content string, reporting
// false for plain paths/URLs.
func ParseAssetRef(content string) (string, bool) {
	if strings.HasPrefix(content, assetRefPrefix) {
		return content[len(assetRefPrefix):], true
	}
	return "", false
}

// AssetInfo describes a stored asset without its payload.
type AssetInfo struct {
	ID        string
	MIME      string
	Size      int
	CreatedAt time.Time
}

// AssetStore is the embedded SQLite library holding image blobs
// (generated panels, imported pictures) referenced by image items.
type AssetStore struct {
	db  *sql.DB
	log *slog.Logger
}

// OpenAssets opens (or creates) the asset database under dir, enables
// WAL mode, and ensures the schema exists.
func OpenAssets(dir string) (*AssetStore, error) {
	l := applog.WithOperation(applog.WithComponent("storage"), "assets_open").With(slog.String("dir", dir))
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("asset dir is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create asset dir: %w", err)
	}
	path := filepath.Join(dir, AssetsFileName)
	dsn := fmt.Sprintf("file:%s?cache=shared&_pragma=busy_timeout(5000)", filepath.ToSlash(path))
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		l.Error("sqlite open failed", slog.Any("err", err))
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL;"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable WAL: %w", err)
	}
	if err := ensureAssetSchema(ctx, db); err != nil {
		_ = db.Close()
		l.Error("ensure asset schema failed", slog.Any("err", err))
		return nil, err
	}
	l.Info("asset library ready", slog.String("path", path))
	return &AssetStore{db: db, log: applog.WithComponent("assets")}, nil
}

// Close releases the underlying database.
func (a *AssetStore) Close() error { return a.db.Close() }

// Put stores (or replaces) an asset blob.
func (a *AssetStore) Put(ctx context.Context, id, mime string, data []byte) error {
	if id == "" {
		return errors.New("asset id is required")
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err := a.db.ExecContext(ctx,
		`INSERT INTO assets(id, mime, data, created_at) VALUES(?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET mime=excluded.mime, data=excluded.data`,
		id, mime, data, now)
	if err != nil {
		return fmt.Errorf("store asset %s: %w", id, err)
	}
	a.log.Debug("asset stored", slog.String("id", id), slog.Int("bytes", len(data)))
	return nil
}

// Get returns an asset's MIME type and payload.
func (a *AssetStore) Get(ctx context.Context, id string) (string, []byte, error) {
	var mime string
	var data []byte
	err := a.db.QueryRowContext(ctx, `SELECT mime, data FROM assets WHERE id = ?`, id).Scan(&mime, &data)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil, ErrAssetNotFound
	}
	if err != nil {
		return "", nil, fmt.Errorf("load asset %s: %w", id, err)
	}
	return mime, data, nil
}

// Delete removes an asset. Deleting an absent id is not an error.
func (a *AssetStore) Delete(ctx context.Context, id string) error {
	_, err := a.db.ExecContext(ctx, `DELETE FROM assets WHERE id = ?`, id)
	return err
}

// List returns metadata for all stored assets, newest first.
func (a *AssetStore) List(ctx context.Context) ([]AssetInfo, error) {
	rows, err := a.db.QueryContext(ctx,
		`SELECT id, mime, length(data), created_at FROM assets ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var out []AssetInfo
	for rows.Next() {
		var info AssetInfo
		var ts string
		if err := rows.Scan(&info.ID, &info.MIME, &info.Size, &ts); err != nil {
			return nil, err
		}
		info.CreatedAt, _ = time.Parse(time.RFC3339Nano, ts)
		out = append(out, info)
	}
	return out, rows.Err()
}

func ensureAssetSchema(ctx context.Context, db *sql.DB) error {
	ddl := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS version (
			id         INTEGER PRIMARY KEY CHECK(id=1),
			schema     INTEGER NOT NULL,
			app        TEXT,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS assets (
			id         TEXT PRIMARY KEY,
			mime       TEXT NOT NULL,
			data       BLOB NOT NULL,
			created_at TEXT NOT NULL
		);`,
	}
	for _, q := range ddl {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("create table: %w", err)
		}
	}
	now := time.Now().UTC().Format(time.RFC3339)
	var cur int
	err := db.QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&cur)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		_, err := db.ExecContext(ctx,
			`INSERT INTO version (id, schema, app, created_at, updated_at) VALUES(1, ?, ?, ?, ?)`,
			assetSchemaVersion, version.String(), now, now)
		if err != nil {
			return fmt.Errorf("insert version: %w", err)
		}
	case err != nil:
		return fmt.Errorf("read schema version: %w", err)
	default:
		if cur != assetSchemaVersion {
			_, err := db.ExecContext(ctx,
				`UPDATE version SET schema=?, app=?, updated_at=? WHERE id=1`,
				assetSchemaVersion, version.String(), now)
			if err != nil {
				return fmt.Errorf("update version: %w", err)
			}
		}
	}
	return nil
}
