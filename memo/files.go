// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package memo

import (
	"context"

	"github.com/staranto/fsmemo/internal/key"
)

// FilesConfig configures a Files wrapper. The zero value memoizes on the
// textual form of the arguments with no declared inputs.
type FilesConfig[A, R any] struct {
	// Name is the computation's cache subdirectory. Defaults to the
	// function's name, which is ambiguous for closures.
	Name string
	// Inputs extracts the declared input files from the arguments. Nil or
	// an empty result means the slot only expires by eviction.
	Inputs func(A) []string
	// KeyFunc renders the cache-relevant part of the arguments. It must be
	// deterministic. Defaults to key.Of, which includes the input list.
	KeyFunc func(A) string
	// RawKey uses the key material itself as the file name instead of its
	// digest. The material must then be a safe file name.
	RawKey bool
	// Cacheable vetoes persisting a particular result. Defaults to always.
	Cacheable func(R) bool
	// Missing decides what a missing declared input means. Defaults to
	// FailOnMissing.
	Missing Policy
	// SingleFlight collapses concurrent calls for the same slot into one
	// computation. Without it concurrent cold calls each compute and the last
	// writer wins.
	SingleFlight bool
	// Runtime defaults to Default().
	Runtime *Runtime
}

// Files memoizes a computation whose result depends on a list of files plus
// other arguments.
type Files[A, R any] struct {
	cfg  FilesConfig[A, R]
	slot slot[A, R]
}

// NewFiles wraps compute.
func NewFiles[A, R any](compute Computation[A, R], cfg FilesConfig[A, R]) (*Files[A, R], error) {
	if cfg.Name == "" {
		cfg.Name = funcName(compute)
	}
	if err := validName(cfg.Name); err != nil {
		return nil, err
	}
	if cfg.KeyFunc == nil {
		cfg.KeyFunc = func(a A) string { return key.Of(a) }
	}
	if cfg.Cacheable == nil {
		cfg.Cacheable = alwaysCacheable[R]
	}
	if cfg.Runtime == nil {
		cfg.Runtime = Default()
	}

	m := &Files[A, R]{cfg: cfg}
	m.slot = slot[A, R]{
		rt:        cfg.Runtime,
		name:      cfg.Name,
		compute:   compute,
		cacheable: cfg.Cacheable,
		policy:    cfg.Missing,
		single:    cfg.SingleFlight,
		resolve:   m.CacheFile,
	}
	return m, nil
}

// MustFiles is NewFiles that panics on an invalid configuration.
func MustFiles[A, R any](compute Computation[A, R], cfg FilesConfig[A, R]) *Files[A, R] {
	m, err := NewFiles(compute, cfg)
	if err != nil {
		panic(err)
	}
	return m
}

// Name returns the computation's name.
func (m *Files[A, R]) Name() string {
	return m.cfg.Name
}

// Call returns the cached result for args, computing and storing it first
// when there is none or it is older than any declared input. Errors are
// *Error values.
func (m *Files[A, R]) Call(ctx context.Context, args A) (R, error) {
	return m.slot.call(ctx, args)
}

// CacheFile resolves the slot for args without computing anything.
func (m *Files[A, R]) CacheFile(args A) SlotInfo {
	info := m.cfg.Runtime.Slot(m.cfg.Name, m.cfg.KeyFunc(args), !m.cfg.RawKey)
	if m.cfg.Inputs != nil {
		info.Inputs = m.cfg.Inputs(args)
	}
	return info
}

// Evict deletes the slot for args and reports whether there was one.
func (m *Files[A, R]) Evict(ctx context.Context, args A) (bool, error) {
	return m.cfg.Runtime.evictStem(ctx, m.CacheFile(args).Stem)
}

// EvictAll deletes every slot of this computation.
func (m *Files[A, R]) EvictAll(ctx context.Context) error {
	return m.cfg.Runtime.EvictAll(ctx, m.cfg.Name)
}
