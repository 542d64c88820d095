// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package trash

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/apex/log"
)

// Deleter removes a cache artifact, possibly somewhere it can be recovered
// from.
type Deleter interface {
	Delete(ctx context.Context, path string) error
}

// DeleterFunc adapts a function to the Deleter interface.
type DeleterFunc func(ctx context.Context, path string) error

func (f DeleterFunc) Delete(ctx context.Context, path string) error {
	return f(ctx, path)
}

// Unlinker deletes permanently. Deleting a path that does not exist is not
// an error.
type Unlinker struct{}

func (Unlinker) Delete(_ context.Context, path string) error {
	if err := os.RemoveAll(path); err != nil {
		return fmt.Errorf("failed to remove %s: %w", path, err)
	}
	return nil
}

// Fallback tries Primary and, when that fails, deletes permanently.
type Fallback struct {
	Primary Deleter
}

// WithFallback wraps d so that a failed recoverable delete still removes the
// file. Unlinker and Fallback values are returned unchanged.
func WithFallback(d Deleter) Deleter {
	switch d.(type) {
	case nil:
		return Unlinker{}
	case Unlinker, *Fallback, Fallback:
		return d
	}
	return &Fallback{Primary: d}
}

func (f Fallback) Delete(ctx context.Context, path string) error {
	if f.Primary != nil {
		err := f.Primary.Delete(ctx, path)
		if err == nil {
			return nil
		}
		log.WithError(err).Warnf("recoverable delete failed, removing %s permanently", path)
	}
	return Unlinker{}.Delete(ctx, path)
}

// Platform returns the recycle location of the current OS: the freedesktop
// trash on Linux and BSD, ~/.Trash on macOS. Platforms without a supported
// trash get an Unlinker.
func Platform() Deleter {
	switch runtime.GOOS {
	case "windows", "plan9", "js", "wasip1":
		return Unlinker{}
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return Unlinker{}
		}
		return &Trash{Root: filepath.Join(home, ".Trash")}
	default:
		root, err := xdgTrashRoot()
		if err != nil {
			return Unlinker{}
		}
		return &Trash{Root: root, Info: true}
	}
}

// xdgTrashRoot resolves the home trash directory per the freedesktop spec.
func xdgTrashRoot() (string, error) {
	if d := os.Getenv("XDG_DATA_HOME"); d != "" && filepath.IsAbs(d) {
		return filepath.Join(d, "Trash"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".local", "share", "Trash"), nil
}

// ParseMode maps a config value to a Deleter. s3 is only called for the "s3"
// mode, so callers can defer building an AWS client until it is needed.
func ParseMode(mode string, s3 func() (Deleter, error)) (Deleter, error) {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "", "trash":
		return WithFallback(Platform()), nil
	case "unlink", "delete":
		return Unlinker{}, nil
	case "s3":
		if s3 == nil {
			return nil, fmt.Errorf("s3 trash mode is not configured")
		}
		d, err := s3()
		if err != nil {
			return nil, err
		}
		return WithFallback(d), nil
	default:
		return nil, fmt.Errorf("unsupported trash mode %q (want trash, unlink or s3)", mode)
	}
}
