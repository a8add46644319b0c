/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package crash turns an uncaught panic into a crash report file plus a
// crash-safe autosave of the open board.
package crash

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"time"

	"inkboard/internal/domain"
	applog "inkboard/internal/log"
	"inkboard/internal/storage"
	"inkboard/internal/telemetry"
	"inkboard/internal/version"
)

// exitFn allows testing Recover without terminating the test process.
var exitFn = os.Exit

// Snapshot yields the document to autosave. ok=false means no board is
// open and only the report is written.
type Snapshot func() (doc domain.Document, boardPath string, ok bool)

// Recover captures a panic, logs it with a stacktrace, writes a crash
// report, and autosaves the open board when snap provides one.
//
// Usage: defer crash.Recover(snap)
func Recover(snap Snapshot) {
	if r := recover(); r != nil {
		l := applog.WithComponent("crash")
		stack := debug.Stack()
		l.Error("panic recovered", slog.Any("panic", r), slog.String("stack", string(stack)))

		var doc domain.Document
		var boardPath string
		haveBoard := false
		if snap != nil {
			doc, boardPath, haveBoard = snap()
		}

		reportPath, _ := writeReport(boardPath, r, stack)
		if haveBoard && boardPath != "" {
			if path, err := storage.AutosaveCrashSnapshot(boardPath, doc); err != nil {
				l.Error("autosave crash snapshot failed", slog.Any("err", err))
			} else {
				l.Info("autosave crash snapshot written", slog.String("path", path))
			}
		}

		if _, err := fmt.Fprintf(os.Stderr, "A fatal error occurred. A crash report was saved to: %s\n", reportPath); err != nil {
			l.Error("failed to write crash message to stderr", slog.Any("err", err))
		}
		if _, err := fmt.Fprintf(os.Stderr, "Version: %s\nOS/Arch: %s/%s\n", version.String(), runtime.GOOS, runtime.GOARCH); err != nil {
			l.Error("failed to write version info to stderr", slog.Any("err", err))
		}
		exitFn(2)
	}
}

func writeReport(boardPath string, panicVal any, stack []byte) (string, error) {
	dir := os.TempDir()
	if boardPath != "" {
		dir = filepath.Join(filepath.Dir(boardPath), storage.BackupsDirName)
		_ = os.MkdirAll(dir, 0o755)
	}
	stamp := time.Now().Format("20060102-150405")
	path := filepath.Join(dir, fmt.Sprintf("crash-%s.log", stamp))

	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return path, err
	}
	defer func() {
		if err := f.Close(); err != nil {
			applog.WithComponent("crash").Error("failed to close crash report file", slog.Any("err", err), slog.String("path", path))
		}
	}()

	var buf bytes.Buffer
	_, _ = fmt.Fprintf(&buf, "Inkboard Crash Report\n")
	_, _ = fmt.Fprintf(&buf, "Timestamp: %s\n", time.Now().Format(time.RFC3339))
	_, _ = fmt.Fprintf(&buf, "Version: %s\n", version.String())
	_, _ = fmt.Fprintf(&buf, "OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
	if boardPath != "" {
		_, _ = fmt.Fprintf(&buf, "Board: %s\n", boardPath)
	}
	_, _ = fmt.Fprintf(&buf, "\nPanic: %v\n\n", panicVal)
	_, _ = fmt.Fprintf(&buf, "Stack:\n%s\n", string(stack))

	if _, err := f.Write(buf.Bytes()); err != nil {
		return path, err
	}
	_ = f.Sync()

	// optional anonymized crash upload (opt-in via env)
	telemetry.UploadCrash(buf.Bytes())
	return path, nil
}
