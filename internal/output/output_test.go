// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

package output

import (
	"bytes"
	"context"
	"encoding/json"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"

	"github.com/staranto/fsmemo/internal/attrs"
	"github.com/staranto/fsmemo/internal/config"
)

func TestSortDataset(t *testing.T) {
	testData := []map[string]interface{}{
		{"name": "sum_file", "size": 300.0, "format": "gob"},
		{"name": "My_filter", "size": 1000.0, "format": "parquet"},
		{"name": "list_dir", "size": 20.0, "format": "gob"},
	}

	tests := []struct {
		name      string
		spec      string
		wantOrder []string
	}{
		{"ascending by name", "name", []string{"list_dir", "My_filter", "sum_file"}},
		{"descending by name", "-name", []string{"sum_file", "My_filter", "list_dir"}},
		{"case sensitive", "!name", []string{"My_filter", "list_dir", "sum_file"}},
		{"numeric not lexical", "size", []string{"list_dir", "sum_file", "My_filter"}},
		{"descending numeric", "-size", []string{"My_filter", "sum_file", "list_dir"}},
		{"multiple fields", "format,-size", []string{"sum_file", "list_dir", "My_filter"}},
		{"empty spec keeps order", "", []string{"sum_file", "My_filter", "list_dir"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := make([]map[string]interface{}, len(testData))
			copy(data, testData)
			SortDataset(data, tt.spec)
			for i, expectedName := range tt.wantOrder {
				assert.Equal(t, expectedName, data[i]["name"], "at index %d", i)
			}
		})
	}
}

func TestSortDataset_NilFirst(t *testing.T) {
	data := []map[string]interface{}{
		{"name": "b", "key": "x"},
		{"name": "a"},
	}
	SortDataset(data, "key")
	assert.Equal(t, "a", data[0]["name"])
}

func TestInterfaceToString(t *testing.T) {
	tests := []struct {
		name     string
		value    interface{}
		emptyVal []string
		want     string
	}{
		{"string", "gob", nil, "gob"},
		{"int", 42, nil, "42"},
		{"float rounds", 42.7, nil, "43"},
		{"bool", true, nil, "true"},
		{"false is empty", false, nil, ""},
		{"nil default", nil, nil, ""},
		{"nil custom", nil, []string{"-"}, "-"},
		{"slice", []string{"a.txt", "b.txt"}, nil, `["a.txt","b.txt"]`},
		{"map", map[string]int{"x": 1}, nil, `{"x":1}`},
		{"zero custom", 0, []string{"N/A"}, "N/A"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, InterfaceToString(tt.value, tt.emptyVal...))
		})
	}
}

type schemaRow struct {
	Name     string    `json:"name"`
	Size     int64     `json:"size"`
	Modified time.Time `json:"modified"`
	Inputs   []string  `json:"inputs,omitempty"`
	Owner    *struct {
		ID string `json:"id"`
	} `json:"owner"`
	Skipped string `json:"-"`
	hidden  string //nolint:unused
}

func TestDumpSchemaWalker(t *testing.T) {
	tags := DumpSchemaWalker("", reflect.TypeOf(schemaRow{}), 0)

	names := make([]string, 0, len(tags))
	for _, tag := range tags {
		names = append(names, tag.Name)
	}
	assert.Equal(t, []string{"name", "size", "modified", "inputs", "owner", "owner.id"}, names)
	assert.Equal(t, "number", tags[1].Type)
	assert.Equal(t, "timestamp", tags[2].Type)
	assert.Equal(t, "list", tags[3].Type)

	assert.Empty(t, DumpSchemaWalker("", reflect.TypeOf(42), 0))
}

func TestDumpSchema(t *testing.T) {
	var buf bytes.Buffer
	DumpSchema(&buf, reflect.TypeOf(&schemaRow{}))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 7)
	assert.Equal(t, "Schema for schemaRow --", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "inputs"))
}

func TestNewTag(t *testing.T) {
	str := reflect.TypeOf("")
	assert.Equal(t, Tag{Name: "key", Type: "string"}, NewTag("", "key", str))
	assert.Equal(t, Tag{Name: "slot.key", Type: "string"}, NewTag("slot", "key,omitempty", str))
	assert.Equal(t, Tag{}, NewTag("", "-", str))
	assert.Equal(t, Tag{}, NewTag("", ",omitempty", str))
	assert.Equal(t, "key", Tag{Name: "key"}.Print())
}

const dataset = `{"slots": [
	{"name": "sum_file", "key": "0f3c", "size": 1500, "path": "/c/sum_file/0f3c.gob"},
	{"name": "my_filter", "key": "odd", "size": 90, "path": "/c/my_filter/odd.parquet"}
]}`

// spit runs SliceDiceSpit inside a real command so flags are parsed the way
// the CLI parses them.
func spit(t *testing.T, al attrs.AttrList, args ...string) string {
	t.Helper()
	t.Setenv(config.PathEnv, "/nonexistent/fsmemo.yaml")
	config.Config = config.Type{}

	var buf bytes.Buffer
	cmd := &cli.Command{
		Name: "ls",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "output", Value: "text"},
			&cli.StringFlag{Name: "filter"},
			&cli.StringFlag{Name: "sort"},
			&cli.BoolFlag{Name: "titles"},
			&cli.BoolFlag{Name: "color"},
		},
		Action: func(_ context.Context, c *cli.Command) error {
			return SliceDiceSpit(*bytes.NewBufferString(dataset), al, c, "slots", &buf)
		},
	}
	require.NoError(t, cmd.Run(context.Background(), append([]string{"ls"}, args...)))
	return buf.String()
}

func defaultAttrs() attrs.AttrList {
	return attrs.AttrList{
		{Key: "name", OutputKey: "name", Include: true},
		{Key: "key", OutputKey: "key", Include: true},
		{Key: "size", OutputKey: "size", Include: true, TransformSpec: "b"},
		{Key: "path", OutputKey: "path", Include: false},
	}
}

func TestSliceDiceSpit_JSON(t *testing.T) {
	out := spit(t, defaultAttrs(), "--output", "json", "--sort", "size")

	var rows []map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &rows))
	require.Len(t, rows, 2)
	assert.Equal(t, "my_filter", rows[0]["name"])
	assert.Equal(t, "1.5 kB", rows[1]["size"])
	assert.NotContains(t, rows[0], "path")
}

func TestSliceDiceSpit_YAMLFiltered(t *testing.T) {
	out := spit(t, defaultAttrs(), "--output", "yaml", "--filter", "path^/c/sum")

	var rows []map[string]interface{}
	require.NoError(t, yaml.Unmarshal([]byte(out), &rows))
	require.Len(t, rows, 1)
	assert.Equal(t, "0f3c", rows[0]["key"])
}

func TestSliceDiceSpit_Raw(t *testing.T) {
	assert.Equal(t, dataset, spit(t, defaultAttrs(), "--output", "raw"))
}

func TestSliceDiceSpit_Text(t *testing.T) {
	out := spit(t, defaultAttrs(), "--titles", "--sort", "name")
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "name")
	assert.Contains(t, lines[0], "size")
	assert.NotContains(t, lines[0], "path")
	assert.Contains(t, lines[1], "my_filter")
	assert.Contains(t, lines[2], "1.5 kB")

	assert.Empty(t, spit(t, defaultAttrs(), "--filter", "name=none"))
}

func TestGetColors(t *testing.T) {
	t.Setenv(config.PathEnv, "/nonexistent/fsmemo.yaml")
	config.Config = config.Type{}

	header, even, odd := getColors("colors")
	assert.Equal(t, "#f6be00", header)
	assert.Equal(t, "#ffffff", even)
	assert.Equal(t, "#00c8f0", odd)
}
