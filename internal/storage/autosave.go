/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"inkboard/internal/domain"
	applog "inkboard/internal/log"
)

// AutosaveCrashSnapshot writes the current document next to the board
// file under backups/autosave-<stamp>.json. Called from the crash
// handler, so it must not panic and must tolerate a half-broken state.
func AutosaveCrashSnapshot(boardPath string, doc domain.Document) (string, error) {
	l := applog.WithOperation(applog.WithComponent("storage"), "autosave")
	dir := filepath.Dir(boardPath)
	backups := filepath.Join(dir, BackupsDirName)
	if err := os.MkdirAll(backups, 0o755); err != nil {
		return "", fmt.Errorf("create backups dir: %w", err)
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal autosave: %w", err)
	}
	stamp := time.Now().UTC().Format("20060102-150405")
	path := filepath.Join(backups, "autosave-"+stamp+".json")
	if err := writeFileSync(path, data); err != nil {
		return "", fmt.Errorf("write autosave: %w", err)
	}
	l.Info("autosave written", slog.String("path", path))
	return path, nil
}
