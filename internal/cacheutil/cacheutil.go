// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package cacheutil

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/apex/log"

	"github.com/staranto/fsmemo/internal/config"
	"github.com/staranto/fsmemo/internal/staleness"
	"github.com/staranto/fsmemo/internal/storage"
	"github.com/staranto/fsmemo/internal/trash"
)

const (
	// DirEnv overrides the cache root.
	DirEnv = "FSMEMO_CACHE_DIR"
	// EnabledEnv disables cache use by the CLI when "0" or "false".
	EnabledEnv = "FSMEMO_CACHE"
)

// Entry is one cached artifact on disk. Name is the computation, Key the
// artifact's file name without its format extension.
type Entry struct {
	Name     string    `json:"name"`
	Key      string    `json:"key"`
	Format   string    `json:"format"`
	Size     int64     `json:"size"`
	Modified time.Time `json:"modified"`
	Path     string    `json:"path"`
}

// Dir resolves the base cache directory.
// Precedence:
//  1. FSMEMO_CACHE_DIR, if set and non-empty
//  2. cache.dir from fsmemo.yaml
//  3. <os temp dir>/cache
func Dir() string {
	if c, ok := os.LookupEnv(DirEnv); ok && c != "" {
		return staleness.ExpandUser(c)
	}
	if c, _ := config.GetString("cache.dir", ""); c != "" {
		return staleness.ExpandUser(c)
	}
	return filepath.Join(os.TempDir(), "cache")
}

// Enabled returns true unless FSMEMO_CACHE explicitly disables it ("0"/"false").
func Enabled() bool {
	enabled, _ := os.LookupEnv(EnabledEnv)
	return enabled == "" || (enabled != "0" && enabled != "false")
}

// Entries lists the artifacts under root, restricted to the given
// computation names when any are given. Files that are not artifacts, such
// as in-progress temp files, are skipped. A missing root yields no entries.
func Entries(root string, names ...string) ([]Entry, error) {
	if len(names) == 0 {
		dirs, err := os.ReadDir(root)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, nil
			}
			return nil, fmt.Errorf("failed to read cache root: %w", err)
		}
		for _, d := range dirs {
			if d.IsDir() {
				names = append(names, d.Name())
			}
		}
	}

	var entries []Entry
	for _, name := range names {
		files, err := os.ReadDir(filepath.Join(root, name))
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("failed to read cache for %s: %w", name, err)
		}

		for _, f := range files {
			format := storage.FormatOf(f.Name())
			if f.IsDir() || format == storage.None {
				continue
			}
			info, err := f.Info()
			if err != nil {
				// Removed since ReadDir.
				continue
			}
			entries = append(entries, Entry{
				Name:     name,
				Key:      strings.TrimSuffix(f.Name(), format.Ext()),
				Format:   format.String(),
				Size:     info.Size(),
				Modified: info.ModTime().UTC(),
				Path:     filepath.Join(root, name, f.Name()),
			})
		}
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Name != entries[j].Name {
			return entries[i].Name < entries[j].Name
		}
		return entries[i].Key < entries[j].Key
	})
	return entries, nil
}

// Purge deletes files under root older than the provided number of hours,
// then removes computation directories left empty. It returns how many files
// were deleted. If hours <= 0 it is a no-op.
func Purge(ctx context.Context, root string, hours int, d trash.Deleter) (int, error) {
	if hours <= 0 {
		log.Debug("cache cleaning disabled")
		return 0, nil
	}
	if d == nil {
		d = trash.Unlinker{}
	}

	maxAge := time.Duration(hours) * time.Hour
	var removed int
	var dirs []string

	err := filepath.WalkDir(root, func(path string, de fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if de.IsDir() {
			if path != root {
				dirs = append(dirs, path)
			}
			return nil
		}

		info, err := de.Info()
		if err != nil || time.Since(info.ModTime()) <= maxAge {
			return nil
		}
		if err := d.Delete(ctx, path); err != nil {
			log.WithError(err).Warnf("failed to remove cache file %s", path)
			return nil
		}
		log.Debugf("removed cache file %s", path)
		removed++
		return nil
	})
	if err != nil {
		return removed, fmt.Errorf("failed to purge cache: %w", err)
	}

	// Deepest first so parents empty out after their children.
	for i := len(dirs) - 1; i >= 0; i-- {
		if err := os.Remove(dirs[i]); err == nil {
			log.Debugf("removed empty cache directory %s", dirs[i])
		}
	}
	return removed, nil
}
