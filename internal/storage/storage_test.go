// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type numberRow struct {
	Number int64  `parquet:"number"`
	Parity string `parquet:"parity"`
}

type summary struct {
	Total int
	Files []string
	Seen  map[string]bool
}

type eventRow struct {
	Name string    `parquet:"name"`
	When time.Time `parquet:"when"`
	Tags []string  `parquet:"tags"`
}

func TestFormatOf(t *testing.T) {
	assert.Equal(t, Parquet, FormatOf("/c/f/abc.parquet"))
	assert.Equal(t, Gob, FormatOf("/c/f/abc.gob"))
	assert.Equal(t, None, FormatOf("/c/f/abc.pickle"))
	assert.Equal(t, None, FormatOf("/c/f/abc"))
	assert.Equal(t, ".gob", Gob.Ext())
	assert.Equal(t, "", None.Ext())
	assert.Equal(t, "none", None.String())
}

func TestIsTabular(t *testing.T) {
	assert.True(t, IsTabular([]numberRow{}))
	assert.True(t, IsTabular([]numberRow{{Number: 1}}))
	assert.False(t, IsTabular(nil))
	assert.False(t, IsTabular(42))
	assert.False(t, IsTabular([]int{1, 2}))
	assert.False(t, IsTabular(summary{}))
	assert.False(t, IsTabular([]struct{ hidden int }{}))
}

func TestPathFor(t *testing.T) {
	var s Auto
	f, p := s.PathFor([]numberRow{{Number: 1}}, "/c/f/k")
	assert.Equal(t, Parquet, f)
	assert.Equal(t, "/c/f/k.parquet", p)

	f, p = s.PathFor(42, "/c/f/k")
	assert.Equal(t, Gob, f)
	assert.Equal(t, "/c/f/k.gob", p)

	f, _ = s.PathFor([]eventRow{{Name: "a"}}, "/c/f/k")
	assert.Equal(t, Gob, f, "a zero time cannot be stored as parquet")
}

func TestIsParquetSafe(t *testing.T) {
	when := time.Date(2025, 3, 14, 15, 9, 26, 535, time.UTC)
	tests := []struct {
		name  string
		value any
		want  bool
	}{
		{"rows", []numberRow{{1, "odd"}}, true},
		{"no rows", []numberRow{}, true},
		{"nil table", []numberRow(nil), false},
		{"not a table", 42, false},
		{"utc time with tags", []eventRow{{"a", when, []string{"x"}}}, true},
		{"empty tags", []eventRow{{"a", when, []string{}}}, true},
		{"zero time", []eventRow{{"a", time.Time{}, []string{"x"}}}, false},
		{"time past nanosecond range", []eventRow{{"a", time.Date(2300, 1, 1, 0, 0, 0, 0, time.UTC), []string{"x"}}}, false},
		{"local time", []eventRow{{"a", when.In(time.FixedZone("x", 3600)), []string{"x"}}}, false},
		{"nil tags", []eventRow{{"a", when, nil}}, false},
		{"interface field", []struct{ V any }{{1}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsParquetSafe(tt.value))
		})
	}
}

// roundTrip stores in the way a memoized call does and reads it back.
func roundTrip[T any](t *testing.T, in T) (Format, T) {
	t.Helper()
	var s Auto
	stem := filepath.Join(t.TempDir(), "f", "k")
	f, p := s.PathFor(in, stem)
	require.NoError(t, s.Persist(&in, p))
	var out T
	require.NoError(t, s.Load(p, &out))
	return f, out
}

func TestRoundTrip_Values(t *testing.T) {
	when := time.Date(2025, 3, 14, 15, 9, 26, 535, time.UTC)

	t.Run("zero int", func(t *testing.T) {
		_, got := roundTrip(t, 0)
		assert.Equal(t, 0, got)
	})

	t.Run("empty string", func(t *testing.T) {
		_, got := roundTrip(t, "")
		assert.Equal(t, "", got)
	})

	t.Run("nil pointer", func(t *testing.T) {
		f, got := roundTrip[*summary](t, nil)
		assert.Equal(t, Gob, f)
		assert.Nil(t, got)
	})

	t.Run("pointer", func(t *testing.T) {
		_, got := roundTrip(t, &summary{Total: 3})
		require.NotNil(t, got)
		assert.Equal(t, 3, got.Total)
	})

	t.Run("empty slice stays non-nil", func(t *testing.T) {
		_, got := roundTrip(t, []int{})
		assert.NotNil(t, got)
		assert.Empty(t, got)
	})

	t.Run("nil slice stays nil", func(t *testing.T) {
		_, got := roundTrip[[]int](t, nil)
		assert.Nil(t, got)
	})

	t.Run("empty map stays non-nil", func(t *testing.T) {
		_, got := roundTrip(t, map[string]int{})
		assert.NotNil(t, got)
		assert.Empty(t, got)
	})

	t.Run("zero struct", func(t *testing.T) {
		_, got := roundTrip(t, summary{})
		assert.Equal(t, summary{}, got)
	})

	t.Run("interface", func(t *testing.T) {
		_, got := roundTrip[any](t, 7)
		assert.Equal(t, 7, got)
	})

	t.Run("nil interface", func(t *testing.T) {
		_, got := roundTrip[any](t, nil)
		assert.Nil(t, got)
	})

	t.Run("rows with zero time and nil tags", func(t *testing.T) {
		in := []eventRow{{"a", when, []string{"x"}}, {"b", time.Time{}, nil}}
		f, got := roundTrip(t, in)
		assert.Equal(t, Gob, f)
		assert.Equal(t, in, got)
	})

	t.Run("rows with utc times", func(t *testing.T) {
		in := []eventRow{{"a", when, []string{"x", "y"}}, {"b", when.Add(time.Hour), []string{"z"}}}
		f, got := roundTrip(t, in)
		assert.Equal(t, Parquet, f)
		require.Len(t, got, len(in))
		for i := range in {
			assert.Equal(t, in[i].Name, got[i].Name)
			assert.Equal(t, in[i].Tags, got[i].Tags)
			assert.True(t, in[i].When.Equal(got[i].When), "%v != %v", in[i].When, got[i].When)
		}
	})
}

func TestPersist_ParquetRefusesLossyRows(t *testing.T) {
	var s Auto
	dir := t.TempDir()
	p := filepath.Join(dir, "k.parquet")

	err := s.Persist([]eventRow{{Name: "b"}}, p)
	assert.ErrorIs(t, err, errLossyTable)
	assert.NoFileExists(t, p)
}

func TestPersist_GobPanicIsAnError(t *testing.T) {
	var s Auto
	dir := t.TempDir()
	p := filepath.Join(dir, "k.gob")

	var inner *int
	outer := &inner
	assert.Error(t, s.Persist(&outer, p))
	assert.NoFileExists(t, p)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, e := range entries {
		assert.False(t, strings.HasSuffix(e.Name(), ".tmp"), "left behind %s", e.Name())
	}
}

func TestRoundTrip_Gob(t *testing.T) {
	var s Auto
	stem := filepath.Join(t.TempDir(), "f", "k")

	t.Run("int", func(t *testing.T) {
		_, p := s.PathFor(42, stem)
		require.NoError(t, s.Persist(42, p))
		var got int
		require.NoError(t, s.Load(p, &got))
		assert.Equal(t, 42, got)
	})

	t.Run("struct", func(t *testing.T) {
		in := summary{Total: 7, Files: []string{"a", "b"}, Seen: map[string]bool{"a": true}}
		_, p := s.PathFor(in, stem)
		require.NoError(t, s.Persist(in, p))
		var got summary
		require.NoError(t, s.Load(p, &got))
		assert.Equal(t, in, got)
	})

	t.Run("string", func(t *testing.T) {
		_, p := s.PathFor("26['a.txt']", stem)
		require.NoError(t, s.Persist("26['a.txt']", p))
		var got string
		require.NoError(t, s.Load(p, &got))
		assert.Equal(t, "26['a.txt']", got)
	})
}

func TestRoundTrip_Parquet(t *testing.T) {
	var s Auto
	stem := filepath.Join(t.TempDir(), "f", "k")

	in := []numberRow{{1, "odd"}, {2, "even"}, {3, "odd"}}
	format, p := s.PathFor(in, stem)
	require.Equal(t, Parquet, format)
	require.NoError(t, s.Persist(in, p))

	var got []numberRow
	require.NoError(t, s.Load(p, &got))
	assert.Equal(t, in, got)

	empty := []numberRow{}
	require.NoError(t, s.Persist(empty, p))
	got = nil
	require.NoError(t, s.Load(p, &got))
	assert.Empty(t, got)
}

func TestProbe(t *testing.T) {
	var s Auto
	stem := filepath.Join(t.TempDir(), "f", "k")

	f, p := s.Probe(stem)
	assert.Equal(t, None, f)
	assert.Equal(t, "", p)

	require.NoError(t, s.Persist(1, stem+".gob"))
	f, p = s.Probe(stem)
	assert.Equal(t, Gob, f)
	assert.Equal(t, stem+".gob", p)

	// A parquet artifact supersedes the gob one, which is removed.
	require.NoError(t, s.Persist([]numberRow{{Number: 1}}, stem+".parquet"))
	f, p = s.Probe(stem)
	assert.Equal(t, Parquet, f)
	assert.Equal(t, stem+".parquet", p)
	assert.NoFileExists(t, stem+".gob")

	// And the other way around.
	require.NoError(t, s.Persist(2, stem+".gob"))
	f, _ = s.Probe(stem)
	assert.Equal(t, Gob, f)
	assert.NoFileExists(t, stem+".parquet")
}

func TestProbe_PriorityOrder(t *testing.T) {
	var s Auto
	stem := filepath.Join(t.TempDir(), "k")
	require.NoError(t, os.WriteFile(stem+".gob", []byte("x"), 0o600))
	require.NoError(t, os.WriteFile(stem+".parquet", []byte("x"), 0o600))

	f, _ := s.Probe(stem)
	assert.Equal(t, Parquet, f)
}

func TestLoad_DispatchesOnExtension(t *testing.T) {
	var s Auto
	dir := t.TempDir()

	// A gob payload behind a parquet extension is read as parquet and fails.
	gobPath := filepath.Join(dir, "k.gob")
	require.NoError(t, s.Persist(1, gobPath))
	disguised := filepath.Join(dir, "k.parquet")
	require.NoError(t, os.Rename(gobPath, disguised))

	var rows []numberRow
	assert.Error(t, s.Load(disguised, &rows))

	var n int
	assert.ErrorIs(t, s.Load(filepath.Join(dir, "k.pickle"), &n), ErrUnknownFormat)
}

func TestLoad_Corrupt(t *testing.T) {
	var s Auto
	p := filepath.Join(t.TempDir(), "k.gob")
	require.NoError(t, os.WriteFile(p, []byte("definitely not gob"), 0o600))

	var n int
	assert.Error(t, s.Load(p, &n))
}

func TestPersist_Errors(t *testing.T) {
	var s Auto
	dir := t.TempDir()

	assert.ErrorIs(t, s.Persist(1, filepath.Join(dir, "k.txt")), ErrUnknownFormat)

	// gob cannot encode functions; nothing may be left behind.
	p := filepath.Join(dir, "k.gob")
	assert.Error(t, s.Persist(func() {}, p))
	assert.NoFileExists(t, p)
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "temporary files must be cleaned up")
}
