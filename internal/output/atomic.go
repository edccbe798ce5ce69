// Gamescout - Steam Catalog and Review Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/gamescout

// Package output writes collection snapshots to durable files.
//
// Every file is replaced atomically: content goes to a temporary file in the
// destination directory, is synced, then renamed over the target. A reader
// (or a crash) sees either the previous complete file or the new one.
package output

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/tomtom215/gamescout/internal/logging"
)

// WriteFileAtomic replaces path with whatever write produces. If write or any
// filesystem step fails, path is left untouched and the temp file is removed.
func WriteFileAtomic(path string, write func(w io.Writer) error) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			_ = tmp.Close() // already failing; close error adds nothing
			removeQuietly(tmpName)
		}
	}()

	bw := bufio.NewWriterSize(tmp, 256*1024)
	if err = write(bw); err != nil {
		return fmt.Errorf("failed to write %s: %w", filepath.Base(path), err)
	}
	if err = bw.Flush(); err != nil {
		return fmt.Errorf("failed to flush %s: %w", filepath.Base(path), err)
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("failed to sync %s: %w", filepath.Base(path), err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", filepath.Base(path), err)
	}
	return commit(tmpName, path)
}

// commit renames a finished temp file over path and syncs the directory.
func commit(tmpName, path string) error {
	if err := os.Chmod(tmpName, 0o644); err != nil {
		removeQuietly(tmpName)
		return fmt.Errorf("failed to chmod temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		removeQuietly(tmpName)
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	syncDir(filepath.Dir(path))
	return nil
}

// syncFile flushes a file written by another process or library to stable
// storage.
func syncFile(path string) error {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return err
	}
	if err := f.Sync(); err != nil {
		_ = f.Close() // sync error is the one worth reporting
		return err
	}
	return f.Close()
}

// syncDir makes the rename durable. Not every platform supports syncing a
// directory, so failures are only logged.
func syncDir(dir string) {
	d, err := os.Open(dir)
	if err != nil {
		return
	}
	defer d.Close()
	if err := d.Sync(); err != nil {
		logging.Debug().Err(err).Str("dir", dir).Msg("Directory sync not supported")
	}
}

func removeQuietly(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		logging.Warn().Err(err).Str("path", path).Msg("Failed to remove temp file")
	}
}
