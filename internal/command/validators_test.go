// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStringValidators(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "cache")
	require.NoError(t, os.WriteFile(file, nil, 0o600))

	output := All[string](NotJammed, OneOf(outputFormats...))
	cacheDir := All[string](NotJammed, NotAFile)

	tests := []struct {
		name    string
		value   string
		check   Validator[string]
		wantErr string
	}{
		{"output text", "text", output, ""},
		{"output yaml", "yaml", output, ""},
		{"output csv", "csv", output, "must be one of"},
		{"output jammed", "--sort", output, "must not begin with '--'"},
		{"cache dir", dir, cacheDir, ""},
		{"cache dir not yet created", filepath.Join(dir, "later"), cacheDir, ""},
		{"cache dir is a file", file, cacheDir, "is a file"},
		{"cache dir jammed", "--sort", cacheDir, "must not begin with '--'"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.check(tt.value)
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				assert.ErrorContains(t, err, tt.wantErr)
			}
		})
	}
}

func TestNonNegative(t *testing.T) {
	assert.NoError(t, NonNegative(0))
	assert.NoError(t, NonNegative(24))
	assert.Error(t, NonNegative(-3))
}
