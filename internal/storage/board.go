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
	"errors"
	"fmt"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"inkboard/internal/domain"
)

const (
	// BoardFileExt is appended to save paths that lack it.
	BoardFileExt = ".json"

	// BackupsDirName holds timestamped copies of replaced board files,
	// next to the board file itself.
	BackupsDirName = "backups"
)

// EnsureExt appends the board file extension when absent.
func EnsureExt(path string) string {
	if strings.EqualFold(filepath.Ext(path), BoardFileExt) {
		return path
	}
	return path + BoardFileExt
}

// SaveBoard writes the document to path with transactional semantics: a
// timestamped backup of any previous file, then a temp-file write,
// fsync, and rename. The final path (with extension applied) is
// returned. On any failure the previous file is left intact.
func SaveBoard(path string, doc domain.Document) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", errors.New("board path is required")
	}
	path = EnsureExt(path)

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal board: %w", err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("ensure board dir: %w", err)
	}

	// Copy the current file to a timestamped backup before replacing.
	if _, statErr := os.Stat(path); statErr == nil {
		bdir := filepath.Join(dir, BackupsDirName)
		if err := os.MkdirAll(bdir, 0o755); err != nil {
			return "", fmt.Errorf("ensure backups dir: %w", err)
		}
		stamp := time.Now().Format("20060102-150405")
		bpath := filepath.Join(bdir, fmt.Sprintf("%s.%s.bak", filepath.Base(path), stamp))
		if cerr := copyFile(path, bpath); cerr != nil {
			return "", fmt.Errorf("backup current board: %w", cerr)
		}
	}

	temp := filepath.Join(dir, fmt.Sprintf(".%s.tmp-%d-%d", filepath.Base(path), os.Getpid(), rand.Int()))
	if werr := writeFileSync(temp, data); werr != nil {
		return "", fmt.Errorf("write temp board: %w", werr)
	}
	// On Windows, rename over an existing file needs the destination gone.
	if _, err := os.Stat(path); err == nil {
		_ = os.Remove(path)
	}
	if rerr := os.Rename(temp, path); rerr != nil {
		_ = os.Remove(temp)
		return "", fmt.Errorf("replace board: %w", rerr)
	}
	return path, nil
}

// LoadBoard reads and validates a board document. A file that cannot be
// read, fails schema validation, or fails to parse falls back to the
// latest backup. Optional fields (gridConfig, backgroundConfig, groups)
// stay nil when absent; the caller keeps its active configuration.
func LoadBoard(path string) (domain.Document, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		doc, berr := loadFromLatestBackup(path)
		if berr != nil {
			return domain.Document{}, fmt.Errorf("open board: %w; backup attempt: %v", err, berr)
		}
		return doc, nil
	}
	doc, perr := parseBoard(b)
	if perr != nil {
		bdoc, berr := loadFromLatestBackup(path)
		if berr != nil {
			return domain.Document{}, fmt.Errorf("parse board: %w; backup attempt: %v", perr, berr)
		}
		return bdoc, nil
	}
	return doc, nil
}

func parseBoard(data []byte) (domain.Document, error) {
	if err := ValidateBoard(data); err != nil {
		return domain.Document{}, err
	}
	var doc domain.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return domain.Document{}, err
	}
	if doc.Items == nil {
		doc.Items = []domain.Item{}
	}
	return doc, nil
}

func loadFromLatestBackup(path string) (domain.Document, error) {
	bdir := filepath.Join(filepath.Dir(path), BackupsDirName)
	entries, err := os.ReadDir(bdir)
	if err != nil {
		return domain.Document{}, err
	}
	base := filepath.Base(path)
	var candidates []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasPrefix(e.Name(), base+".") && strings.HasSuffix(e.Name(), ".bak") {
			candidates = append(candidates, e.Name())
		}
	}
	if len(candidates) == 0 {
		return domain.Document{}, errors.New("no backups found")
	}
	// Timestamps sort lexicographically; newest last.
	sort.Strings(candidates)
	for i := len(candidates) - 1; i >= 0; i-- {
		b, err := os.ReadFile(filepath.Join(bdir, candidates[i]))
		if err != nil {
			continue
		}
		if doc, perr := parseBoard(b); perr == nil {
			return doc, nil
		}
	}
	return domain.Document{}, errors.New("all backups unreadable")
}

// writeFileSync writes data to a file and flushes it to disk.
func writeFileSync(path string, data []byte) (err error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	if _, err := f.Write(data); err != nil {
		return err
	}
	return f.Sync()
}

// copyFile copies src to dst, overwriting dst if it exists.
func copyFile(src, dst string) (err error) {
	sf, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := sf.Close(); err == nil {
			err = cerr
		}
	}()
	df, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := df.Close(); err == nil {
			err = cerr
		}
	}()
	_, err = io.Copy(df, sf)
	return err
}
