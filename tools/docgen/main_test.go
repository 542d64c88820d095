// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sumDoc = "# fsmemo sum\n\n" +
	"## Short description\n\n" +
	"Sum the integer lines of files,\ncaching the result.\n\n" +
	"## Quick examples\n\n" +
	"```sh\n" +
	"# Sum two files\n" +
	"fsmemo sum   a.txt b.txt\n\n" +
	"# Recompute\n" +
	"fsmemo sum --refresh <file>\n" +
	"```\n"

func TestExtractTitleAndShortDesc(t *testing.T) {
	title, short := extractTitleAndShortDesc(sumDoc)
	assert.Equal(t, "fsmemo sum", title)
	assert.Equal(t, "Sum the integer lines of files, caching the result.", short)

	title, short = extractTitleAndShortDesc("# fsmemo ls\n\nNo sections.\n")
	assert.Equal(t, "fsmemo ls", title)
	assert.Equal(t, "fsmemo ls.", short)
}

func TestExtractQuickExamples(t *testing.T) {
	exs := extractQuickExamples(sumDoc)
	require.Len(t, exs, 2)
	assert.Equal(t, example{Desc: "Sum two files", Cmd: "fsmemo sum   a.txt b.txt"}, exs[0])
	assert.Equal(t, "Recompute", exs[1].Desc)

	assert.Nil(t, extractQuickExamples("# nothing here\n"))
}

func TestBuildTLDR(t *testing.T) {
	got := buildTLDR("sum", "fsmemo sum", "Sum files.", extractQuickExamples(sumDoc))
	assert.Contains(t, got, "# fsmemo-sum\n\n> Sum files.\n")
	assert.Contains(t, got, "`fsmemo sum a.txt b.txt`")
	assert.Contains(t, got, "`fsmemo sum --refresh {{file}}`")

	got = buildTLDR("ls", "", "", nil)
	assert.Contains(t, got, "> fsmemo ls\n")
	assert.Contains(t, got, "`fsmemo ls --help`")
}

func TestGenerate(t *testing.T) {
	root := t.TempDir()
	_, err := generate(root, true)
	assert.ErrorContains(t, err, "reading commands dir")

	cmds := filepath.Join(root, "docs", "commands")
	require.NoError(t, os.MkdirAll(cmds, 0o755))
	_, err = generate(root, true)
	assert.ErrorContains(t, err, "no command markdown")

	require.NoError(t, os.WriteFile(filepath.Join(cmds, "sum.md"), []byte(sumDoc), 0o644))
	n, err := generate(root, true)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	assert.FileExists(t, filepath.Join(root, "docs", "man", "share", "man1", "fsmemo-sum.1"))
	tldr, err := os.ReadFile(filepath.Join(root, "docs", "tldr", "fsmemo-sum.md"))
	require.NoError(t, err)
	assert.Contains(t, string(tldr), "# fsmemo-sum")

	// Unchanged content is left alone.
	info, err := os.Stat(filepath.Join(root, "docs", "tldr", "fsmemo-sum.md"))
	require.NoError(t, err)
	_, err = generate(root, true)
	require.NoError(t, err)
	again, err := os.Stat(filepath.Join(root, "docs", "tldr", "fsmemo-sum.md"))
	require.NoError(t, err)
	assert.Equal(t, info.ModTime(), again.ModTime())
}
