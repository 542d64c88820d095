// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package memo

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type listing struct {
	Dir    string
	Suffix string
}

func newLister(t *testing.T, rt *Runtime, deep bool) (*int, *Dir[listing, []string]) {
	t.Helper()
	calls := new(int)
	m, err := NewDir(func(_ context.Context, l listing) ([]string, error) {
		*calls++
		entries, err := os.ReadDir(l.Dir)
		if err != nil {
			return nil, err
		}
		var out []string
		for _, e := range entries {
			if strings.HasSuffix(e.Name(), l.Suffix) {
				out = append(out, e.Name())
			}
		}
		return out, nil
	}, DirConfig[listing, []string]{
		Name:    "list_dir",
		Dir:     func(l listing) string { return l.Dir },
		KeyFunc: func(l listing) string { return l.Suffix },
		Deep:    deep,
		Runtime: rt,
	})
	require.NoError(t, err)
	return calls, m
}

func TestDir_RecomputesWhenEntriesChange(t *testing.T) {
	rt := newRuntime(t)
	calls, m := newLister(t, rt, false)
	dir := t.TempDir()
	writeInput(t, filepath.Join(dir, "a.txt"), "a")

	args := listing{Dir: dir, Suffix: ".txt"}
	v, err := m.Call(ctx, args)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.txt"}, v)

	_, err = m.Call(ctx, args)
	require.NoError(t, err)
	assert.Equal(t, 1, *calls)

	info := m.CacheFile(args)
	assert.Equal(t, []string{dir}, info.Inputs)
	assert.Equal(t, dir+"/.txt", info.Material)

	writeInput(t, filepath.Join(dir, "b.txt"), "b")
	advance(t, dir, info.Path)

	v, err = m.Call(ctx, args)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.txt", "b.txt"}, v)
	assert.Equal(t, 2, *calls)
}

func TestDir_SuffixIsPartOfKey(t *testing.T) {
	rt := newRuntime(t)
	calls, m := newLister(t, rt, false)
	dir := t.TempDir()
	writeInput(t, filepath.Join(dir, "a.txt"), "a")
	writeInput(t, filepath.Join(dir, "b.md"), "b")

	txt, err := m.Call(ctx, listing{Dir: dir, Suffix: ".txt"})
	require.NoError(t, err)
	md, err := m.Call(ctx, listing{Dir: dir, Suffix: ".md"})
	require.NoError(t, err)

	assert.Equal(t, []string{"a.txt"}, txt)
	assert.Equal(t, []string{"b.md"}, md)
	assert.Equal(t, 2, *calls)
	assert.NotEqual(t, m.CacheFile(listing{Dir: dir, Suffix: ".txt"}).Stem,
		m.CacheFile(listing{Dir: dir, Suffix: ".md"}).Stem)
}

func TestDir_Deep(t *testing.T) {
	dir := t.TempDir()
	nested := filepath.Join(dir, "sub", "n.txt")
	writeInput(t, nested, "1")

	for _, tt := range []struct {
		name  string
		deep  bool
		calls int
	}{
		{"shallow ignores nested edits", false, 1},
		{"deep sees nested edits", true, 2},
	} {
		t.Run(tt.name, func(t *testing.T) {
			rt := newRuntime(t)
			calls, m := newLister(t, rt, tt.deep)
			args := listing{Dir: dir}

			_, err := m.Call(ctx, args)
			require.NoError(t, err)

			// Only the nested file moves forward; dir itself stays older.
			advance(t, nested, m.CacheFile(args).Path)

			_, err = m.Call(ctx, args)
			require.NoError(t, err)
			assert.Equal(t, tt.calls, *calls)
		})
	}
}

func TestDir_EvictAndMissingDir(t *testing.T) {
	rt := newRuntime(t)
	calls, m := newLister(t, rt, false)
	dir := filepath.Join(t.TempDir(), "d")
	writeInput(t, filepath.Join(dir, "a.txt"), "a")
	args := listing{Dir: dir}

	_, err := m.Call(ctx, args)
	require.NoError(t, err)

	deleted, err := m.Evict(ctx, args)
	require.NoError(t, err)
	assert.True(t, deleted)

	_, err = m.Call(ctx, args)
	require.NoError(t, err)
	assert.Equal(t, 2, *calls)

	require.NoError(t, m.EvictAll(ctx))
	assert.NoDirExists(t, filepath.Join(rt.Root(), "list_dir"))

	require.NoError(t, os.RemoveAll(dir))
	_, err = m.Call(ctx, args)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrComputation)
}

func TestNewDir_RequiresExtractor(t *testing.T) {
	_, err := NewDir(func(context.Context, string) (int, error) { return 0, nil },
		DirConfig[string, int]{Name: "x", Runtime: newRuntime(t)})
	assert.ErrorIs(t, err, errMissingDir)
	assert.Panics(t, func() {
		MustDir(func(context.Context, string) (int, error) { return 0, nil },
			DirConfig[string, int]{Name: "x", Runtime: newRuntime(t)})
	})
}

func TestFuncName(t *testing.T) {
	var s sumFile
	assert.Equal(t, "namedComputation", funcName(namedComputation))
	assert.Equal(t, "sumFile.compute", funcName(s.compute))
	assert.Equal(t, "", funcName(nil))
	assert.Equal(t, "", funcName(42))
	assert.True(t, strings.HasPrefix(funcName(func() {}), "TestFuncName.func"))
}
