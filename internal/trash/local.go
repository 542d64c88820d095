// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package trash

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/apex/log"
)

// Trash moves deleted files into a local recycle directory. With Info set it
// follows the freedesktop layout: payloads under Root/files and a .trashinfo
// record under Root/info so desktop tools can restore them.
type Trash struct {
	Root string
	Info bool

	now func() time.Time
}

func (t *Trash) Delete(_ context.Context, path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if _, err := os.Lstat(abs); err != nil {
		return err
	}

	filesDir := t.Root
	if t.Info {
		filesDir = filepath.Join(t.Root, "files")
	}
	if err := os.MkdirAll(filesDir, 0o700); err != nil { //nolint:mnd
		return fmt.Errorf("failed to create trash directory: %w", err)
	}

	name, err := t.reserve(filesDir, filepath.Base(abs), abs)
	if err != nil {
		return err
	}

	// Rename fails across filesystems; the caller's fallback takes over then.
	if err := os.Rename(abs, filepath.Join(filesDir, name)); err != nil {
		if t.Info {
			_ = os.Remove(t.infoPath(name))
		}
		return fmt.Errorf("failed to move %s to trash: %w", abs, err)
	}

	log.Debugf("moved %s to %s", abs, filepath.Join(filesDir, name))
	return nil
}

// reserve picks a name that is free in filesDir and, with Info set, claims it
// by creating the matching .trashinfo exclusively.
func (t *Trash) reserve(filesDir, base, abs string) (string, error) {
	if t.Info {
		if err := os.MkdirAll(filepath.Join(t.Root, "info"), 0o700); err != nil { //nolint:mnd
			return "", fmt.Errorf("failed to create trash info directory: %w", err)
		}
	}

	for i := 0; i < 1000; i++ {
		name := base
		if i > 0 {
			name = base + "." + strconv.Itoa(i)
		}
		if _, err := os.Lstat(filepath.Join(filesDir, name)); err == nil {
			continue
		}
		if !t.Info {
			return name, nil
		}

		f, err := os.OpenFile(t.infoPath(name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
		if err != nil {
			if errors.Is(err, fs.ErrExist) {
				continue
			}
			return "", fmt.Errorf("failed to create trash info: %w", err)
		}
		_, werr := fmt.Fprintf(f, "[Trash Info]\nPath=%s\nDeletionDate=%s\n",
			(&url.URL{Path: abs}).EscapedPath(),
			t.clock().Format("2006-01-02T15:04:05"))
		cerr := f.Close()
		if err := errors.Join(werr, cerr); err != nil {
			_ = os.Remove(t.infoPath(name))
			return "", fmt.Errorf("failed to write trash info: %w", err)
		}
		return name, nil
	}
	return "", fmt.Errorf("no free trash name for %s", base)
}

func (t *Trash) infoPath(name string) string {
	return filepath.Join(t.Root, "info", name+".trashinfo")
}

func (t *Trash) clock() time.Time {
	if t.now != nil {
		return t.now()
	}
	return time.Now()
}
