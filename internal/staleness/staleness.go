// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package staleness

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/apex/log"
)

// ErrInputMissing is wrapped by IsStale when a declared source does not exist
// and the policy is FailOnMissing.
var ErrInputMissing = errors.New("declared input does not exist")

// Policy decides what a missing declared source means.
type Policy int

const (
	// FailOnMissing treats a missing source as a fatal input error.
	FailOnMissing Policy = iota
	// IgnoreMissing skips missing sources. They cannot be compared, so they
	// never make an artifact stale.
	IgnoreMissing
)

func (p Policy) String() string {
	switch p {
	case FailOnMissing:
		return "fail"
	case IgnoreMissing:
		return "ignore"
	default:
		return fmt.Sprintf("Policy(%d)", int(p))
	}
}

// IsStale reports whether artifact must be recomputed from sources.
//
// A missing artifact is always stale. With no sources the artifact never
// expires. Otherwise the artifact is stale when its modification time is
// strictly earlier than that of any source; equal times favor the cache.
func IsStale(artifact string, sources []string, policy Policy) (bool, error) {
	return isStale(artifact, sources, policy, false)
}

// IsStaleDeep is IsStale where a directory source contributes the newest
// modification time found anywhere beneath it rather than its own.
func IsStaleDeep(artifact string, sources []string, policy Policy) (bool, error) {
	return isStale(artifact, sources, policy, true)
}

func isStale(artifact string, sources []string, policy Policy, deep bool) (bool, error) {
	info, err := os.Stat(ExpandUser(artifact))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return true, nil
		}
		return false, fmt.Errorf("failed to stat artifact %s: %w", artifact, err)
	}

	if len(sources) == 0 {
		return false, nil
	}

	derived := info.ModTime()
	for _, src := range sources {
		mtime, err := modTime(ExpandUser(src), deep)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				if policy == IgnoreMissing {
					log.Debugf("ignoring missing input %s", src)
					continue
				}
				return false, fmt.Errorf("%w: %s", ErrInputMissing, src)
			}
			return false, fmt.Errorf("failed to stat input %s: %w", src, err)
		}
		if mtime.After(derived) {
			log.Debugf("%s is newer than %s", src, artifact)
			return true, nil
		}
	}

	return false, nil
}

// Newest returns the latest modification time among paths. Missing paths are
// reported as errors wrapping fs.ErrNotExist.
func Newest(paths []string, deep bool) (time.Time, error) {
	var newest time.Time
	for _, p := range paths {
		mtime, err := modTime(ExpandUser(p), deep)
		if err != nil {
			return time.Time{}, err
		}
		if mtime.After(newest) {
			newest = mtime
		}
	}
	return newest, nil
}

func modTime(path string, deep bool) (time.Time, error) {
	info, err := os.Stat(path)
	if err != nil {
		return time.Time{}, err
	}
	if !deep || !info.IsDir() {
		return info.ModTime(), nil
	}

	newest := info.ModTime()
	err = filepath.WalkDir(path, func(_ string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		fi, err := d.Info()
		if err != nil {
			return err
		}
		if fi.ModTime().After(newest) {
			newest = fi.ModTime()
		}
		return nil
	})
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to walk %s: %w", path, err)
	}
	return newest, nil
}

// ExpandUser replaces a leading ~ with the current user's home directory.
func ExpandUser(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
