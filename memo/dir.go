// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package memo

import (
	"context"
)

// DirConfig configures a Dir wrapper.
type DirConfig[A, R any] struct {
	// Name is the computation's cache subdirectory. Defaults to the
	// function's name.
	Name string
	// Dir extracts the directory the result depends on. Required.
	Dir func(A) string
	// Deep compares against the newest modification time anywhere in the
	// tree instead of the directory's own, which only changes when entries
	// are added, removed or renamed.
	Deep bool
	// KeyFunc renders the arguments other than the directory. The key
	// material is dir + "/" + KeyFunc(args). Defaults to "", so only the
	// directory identifies the slot.
	KeyFunc func(A) string
	// RawKey uses the key material as the file name instead of its digest.
	RawKey       bool
	Cacheable    func(R) bool
	Missing      Policy
	SingleFlight bool
	Runtime      *Runtime
}

// Dir memoizes a computation whose result depends on one directory plus
// optional arguments.
type Dir[A, R any] struct {
	cfg  DirConfig[A, R]
	slot slot[A, R]
}

// NewDir wraps compute.
func NewDir[A, R any](compute Computation[A, R], cfg DirConfig[A, R]) (*Dir[A, R], error) {
	if cfg.Dir == nil {
		return nil, errMissingDir
	}
	if cfg.Name == "" {
		cfg.Name = funcName(compute)
	}
	if err := validName(cfg.Name); err != nil {
		return nil, err
	}
	if cfg.KeyFunc == nil {
		cfg.KeyFunc = func(A) string { return "" }
	}
	if cfg.Cacheable == nil {
		cfg.Cacheable = alwaysCacheable[R]
	}
	if cfg.Runtime == nil {
		cfg.Runtime = Default()
	}

	m := &Dir[A, R]{cfg: cfg}
	m.slot = slot[A, R]{
		rt:        cfg.Runtime,
		name:      cfg.Name,
		compute:   compute,
		cacheable: cfg.Cacheable,
		policy:    cfg.Missing,
		deep:      cfg.Deep,
		single:    cfg.SingleFlight,
		resolve:   m.CacheFile,
	}
	return m, nil
}

// MustDir is NewDir that panics on an invalid configuration.
func MustDir[A, R any](compute Computation[A, R], cfg DirConfig[A, R]) *Dir[A, R] {
	m, err := NewDir(compute, cfg)
	if err != nil {
		panic(err)
	}
	return m
}

// Name returns the computation's name.
func (m *Dir[A, R]) Name() string {
	return m.cfg.Name
}

// Call returns the cached result for args, recomputing it when the directory
// changed after the artifact was written.
func (m *Dir[A, R]) Call(ctx context.Context, args A) (R, error) {
	return m.slot.call(ctx, args)
}

// CacheFile resolves the slot for args without computing anything.
func (m *Dir[A, R]) CacheFile(args A) SlotInfo {
	dir := m.cfg.Dir(args)
	info := m.cfg.Runtime.Slot(m.cfg.Name, dir+"/"+m.cfg.KeyFunc(args), !m.cfg.RawKey)
	info.Inputs = []string{dir}
	return info
}

// Evict deletes the slot for args and reports whether there was one.
func (m *Dir[A, R]) Evict(ctx context.Context, args A) (bool, error) {
	return m.cfg.Runtime.evictStem(ctx, m.CacheFile(args).Stem)
}

// EvictAll deletes every slot of this computation.
func (m *Dir[A, R]) EvictAll(ctx context.Context) error {
	return m.cfg.Runtime.EvictAll(ctx, m.cfg.Name)
}
