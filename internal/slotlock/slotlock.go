// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

// Package slotlock serializes access to individual cache files within one
// process. It does not protect against other processes sharing the same
// cache directory.
package slotlock

import (
	"path/filepath"
	"sync"
)

// Table maps cache file paths to their mutexes. Entries are created on first
// use and kept for the life of the table. The zero value is ready to use.
type Table struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// New returns an empty Table.
func New() *Table {
	return &Table{}
}

// With runs fn while holding the lock for path. The lock is released on every
// exit path, including a panic in fn.
func (t *Table) With(path string, fn func() error) error {
	l := t.lockFor(path)
	l.Lock()
	defer l.Unlock()
	return fn()
}

// Len returns the number of distinct paths that have been locked.
func (t *Table) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.locks)
}

func (t *Table) lockFor(path string) *sync.Mutex {
	key := normalize(path)

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.locks == nil {
		t.locks = make(map[string]*sync.Mutex)
	}
	l, ok := t.locks[key]
	if !ok {
		l = &sync.Mutex{}
		t.locks[key] = l
	}
	return l
}

func normalize(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return filepath.Clean(path)
}
