// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package memo

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/apex/log"
	"golang.org/x/sync/singleflight"

	"github.com/staranto/fsmemo/internal/cacheutil"
	"github.com/staranto/fsmemo/internal/key"
	"github.com/staranto/fsmemo/internal/slotlock"
	"github.com/staranto/fsmemo/internal/staleness"
	"github.com/staranto/fsmemo/internal/storage"
	"github.com/staranto/fsmemo/internal/trash"
)

// Aliases so callers outside this module can name the collaborator types.
type (
	Format   = storage.Format
	Strategy = storage.Strategy
	Deleter  = trash.Deleter
	Digest   = key.Digest
	Policy   = staleness.Policy
	Arg      = key.Arg
)

const (
	FormatNone    = storage.None
	FormatParquet = storage.Parquet
	FormatGob     = storage.Gob

	DigestMD5     = key.MD5
	DigestBLAKE2b = key.BLAKE2b

	FailOnMissing = staleness.FailOnMissing
	IgnoreMissing = staleness.IgnoreMissing
)

// CacheDirEnv overrides the default cache root.
const CacheDirEnv = cacheutil.DirEnv

// Runtime is the shared context of every memoized computation: where slots
// live, the per-path lock table, how artifacts are stored and deleted.
// Wrappers sharing a cache root should share a Runtime so that their locks
// are shared too.
type Runtime struct {
	root     string
	locks    *slotlock.Table
	strategy storage.Strategy
	deleter  trash.Deleter
	digest   key.Digest
	flights  singleflight.Group
}

// Option configures a Runtime.
type Option func(*Runtime)

// WithRoot sets the cache root directory.
func WithRoot(dir string) Option {
	return func(rt *Runtime) { rt.root = dir }
}

// WithStrategy replaces the storage strategy.
func WithStrategy(s Strategy) Option {
	return func(rt *Runtime) { rt.strategy = s }
}

// WithDeleter sets how artifacts are deleted. Failures of d fall back to a
// permanent delete.
func WithDeleter(d Deleter) Option {
	return func(rt *Runtime) { rt.deleter = trash.WithFallback(d) }
}

// WithDigest selects the hash used to shorten keys.
func WithDigest(d Digest) Option {
	return func(rt *Runtime) { rt.digest = d }
}

// NewRuntime returns a Runtime rooted at DefaultRoot, storing with
// storage.Auto and deleting to the platform trash, unless overridden.
func NewRuntime(opts ...Option) *Runtime {
	rt := &Runtime{
		locks:    slotlock.New(),
		strategy: storage.Auto{},
		deleter:  trash.WithFallback(trash.Platform()),
		digest:   key.MD5,
	}
	for _, opt := range opts {
		opt(rt)
	}
	if rt.root == "" {
		rt.root = DefaultRoot()
	}
	if abs, err := filepath.Abs(rt.root); err == nil {
		rt.root = abs
	}
	return rt
}

// DefaultRoot is the cache root shared with the command line: $FSMEMO_CACHE_DIR
// when set, then cache.dir from fsmemo.yaml, then <tmp>/cache.
func DefaultRoot() string {
	return cacheutil.Dir()
}

var (
	defaultOnce    sync.Once
	defaultRuntime *Runtime
)

// Default returns the process-wide Runtime used by wrappers that are not
// given one. It is built on first use.
func Default() *Runtime {
	defaultOnce.Do(func() {
		defaultRuntime = NewRuntime()
	})
	return defaultRuntime
}

// Root returns the cache root directory.
func (rt *Runtime) Root() string {
	return rt.root
}

// SlotInfo describes where a call's result lives. Format and Path are empty
// when no artifact exists yet.
type SlotInfo struct {
	Format   Format
	Path     string
	Inputs   []string
	Stem     string
	Material string
}

// Slot resolves the slot of computation name for the given key material
// without touching the computation or checking staleness.
func (rt *Runtime) Slot(name, material string, shorten bool) SlotInfo {
	b := key.Builder{Shorten: shorten, Digest: rt.digest}
	stem := filepath.Join(rt.root, name, b.Key(material))
	format, path := rt.strategy.Probe(stem)
	return SlotInfo{Format: format, Path: path, Stem: stem, Material: material}
}

// Resolve is Slot for a name that has not been checked yet, such as one
// given on a command line.
func (rt *Runtime) Resolve(name, material string, shorten bool) (SlotInfo, error) {
	if err := validName(name); err != nil {
		return SlotInfo{}, err
	}
	return rt.Slot(name, material, shorten), nil
}

// EvictAll removes every slot of computation name. It is a no-op when the
// computation has nothing cached. Concurrent calls of that computation may
// recreate slots right away.
func (rt *Runtime) EvictAll(ctx context.Context, name string) error {
	dir, err := rt.nameDir(name)
	if err != nil {
		return err
	}
	if _, err := os.Stat(dir); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("failed to evict cache for %s: %w", name, err)
	}
	log.WithField("name", name).Debug("evicted all slots")
	return nil
}

// EvictAllCacheFor removes every slot of computation name from the default
// runtime's cache root.
func EvictAllCacheFor(name string) error {
	return Default().EvictAll(context.Background(), name)
}

func (rt *Runtime) nameDir(name string) (string, error) {
	if err := validName(name); err != nil {
		return "", err
	}
	return filepath.Join(rt.root, name), nil
}

func validName(name string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("invalid computation name %q", name)
	}
	return nil
}

// evictStem deletes the artifacts of every format for stem and reports
// whether anything existed.
func (rt *Runtime) evictStem(ctx context.Context, stem string) (bool, error) {
	var deleted bool
	var errs []error
	for _, f := range storage.ProbeOrder {
		p := stem + f.Ext()
		err := rt.locks.With(p, func() error {
			if _, err := os.Lstat(p); err != nil {
				if errors.Is(err, fs.ErrNotExist) {
					return nil
				}
				return err
			}
			deleted = true
			return rt.deleter.Delete(ctx, p)
		})
		if err != nil {
			errs = append(errs, err)
		}
	}
	return deleted, errors.Join(errs...)
}

// discard removes a broken or stale artifact. The caller must hold the lock
// for path. Failures are logged; the call is already failing.
func (rt *Runtime) discard(ctx context.Context, path string) {
	if path == "" {
		return
	}
	if _, err := os.Lstat(path); err != nil {
		return
	}
	if err := rt.deleter.Delete(ctx, path); err != nil {
		log.WithError(err).Warnf("failed to delete artifact %s", path)
		return
	}
	log.Debugf("deleted artifact %s", path)
}
