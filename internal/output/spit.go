// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package output

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/apex/log"
	"github.com/charmbracelet/lipgloss/v2"
	"github.com/charmbracelet/lipgloss/v2/table"
	"github.com/tidwall/gjson"
	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"

	"github.com/staranto/fsmemo/internal/attrs"
	"github.com/staranto/fsmemo/internal/config"
	"github.com/staranto/fsmemo/internal/filters"
)

// Tag is one attribute discovered from a struct's json tags when emitting
// schema information (--schema flag).
type Tag struct {
	Name string
	Type string
}

// NewTag constructs a Tag from a raw json tag value and an optional holder
// prefix used to build hierarchical attribute names. Fields tagged "-" or
// without a name yield the zero Tag.
func NewTag(h string, s string, typ reflect.Type) Tag {
	name, _, _ := strings.Cut(s, ",")
	if name == "" || name == "-" {
		return Tag{}
	}
	if h != "" {
		name = h + "." + name
	}
	return Tag{Name: name, Type: typeName(typ)}
}

// Print renders the tag into its display form.
func (t Tag) Print() string {
	if t.Type == "" {
		return t.Name
	}
	return fmt.Sprintf("%-20s %s", t.Name, t.Type)
}

func typeName(typ reflect.Type) string {
	if typ == nil {
		return ""
	}
	switch typ.String() {
	case "time.Time":
		return "timestamp"
	}
	switch typ.Kind() {
	case reflect.Slice, reflect.Array:
		return "list"
	case reflect.Map, reflect.Struct:
		return "object"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return "number"
	default:
		return typ.Kind().String()
	}
}

// DumpSchema prints a sorted list of the attributes available to --attrs,
// --filter and --sort for rows of typ.
func DumpSchema(w io.Writer, typ reflect.Type) {
	for typ.Kind() == reflect.Pointer {
		typ = typ.Elem()
	}
	tags := DumpSchemaWalker("", typ, 0)
	if len(tags) == 0 {
		log.Debugf("No tags found for type: %s", typ.Name())
		return
	}

	sort.Slice(tags, func(i, j int) bool {
		return tags[i].Name < tags[j].Name
	})

	fmt.Fprintln(w, "Schema for", typ.Name(), "--")
	for _, tag := range tags {
		fmt.Fprintln(w, tag.Print())
	}
}

const maxSchemaDepth = 1

// DumpSchemaWalker recursively walks a struct type discovering json tags.
func DumpSchemaWalker(holder string, typ reflect.Type, depth int) []Tag {
	for typ.Kind() == reflect.Pointer {
		typ = typ.Elem()
	}
	if typ.Kind() != reflect.Struct {
		return nil
	}

	tags := make([]Tag, 0, typ.NumField())
	for i := 0; i < typ.NumField(); i++ {
		field := typ.Field(i)
		if !field.IsExported() {
			continue
		}

		tag := NewTag(holder, field.Tag.Get("json"), field.Type)
		if tag.Name == "" {
			continue
		}
		tags = append(tags, tag)

		ft := field.Type
		if ft.Kind() == reflect.Pointer {
			ft = ft.Elem()
		}
		if depth < maxSchemaDepth && ft.Kind() == reflect.Struct && ft.String() != "time.Time" {
			tags = append(tags, DumpSchemaWalker(tag.Name, ft, depth+1)...)
		}
	}

	return tags
}

// SliceDiceSpit orchestrates filtering, transforming, sorting and rendering
// of a JSON dataset according to command flags and attribute specifications.
// parent, when set, selects the array within raw holding the rows.
func SliceDiceSpit(raw bytes.Buffer,
	attrs attrs.AttrList,
	cmd *cli.Command,
	parent string,
	w io.Writer) error {

	if w == nil {
		w = os.Stdout
	}

	// If raw, just dump it and go home.
	output := cmd.String("output")
	if output == "raw" {
		_, err := w.Write(raw.Bytes())
		return err
	}

	fullDataset := gjson.Parse(raw.String())
	if parent != "" {
		fullDataset = fullDataset.Get(parent)
	}

	// Filter out the rows we don't want first so that the following steps work
	// on a smaller dataset.
	filteredDataset := filters.FilterDataset(fullDataset, attrs, cmd.String("filter"))

	SortDataset(filteredDataset, cmd.String("sort"))

	// Transform after sorting so sizes and times sort on their raw values.
	for _, row := range filteredDataset {
		for i := range attrs {
			if attrs[i].TransformSpec != "" {
				row[attrs[i].OutputKey] = attrs[i].Transform(row[attrs[i].OutputKey])
			}
		}
	}

	switch output {
	case "json":
		// TODO Figure out how to maintain key order in the JSON document.
		jsonOutput, err := json.Marshal(project(filteredDataset, attrs))
		if err != nil {
			return fmt.Errorf("failed to marshal json: %w", err)
		}
		_, err = fmt.Fprintln(w, string(jsonOutput))
		return err
	case "yaml":
		yamlOutput, err := yaml.Marshal(project(filteredDataset, attrs))
		if err != nil {
			return fmt.Errorf("failed to marshal yaml: %w", err)
		}
		_, err = w.Write(yamlOutput)
		return err
	default:
		TableWriter(filteredDataset, attrs, cmd, w)
		return nil
	}
}

// project drops the attrs that were only wanted for filtering and sorting.
func project(rows []map[string]interface{}, attrs attrs.AttrList) []map[string]interface{} {
	out := make([]map[string]interface{}, 0, len(rows))
	for _, row := range rows {
		r := make(map[string]interface{}, len(attrs))
		for _, attr := range attrs {
			if attr.Include {
				r[attr.OutputKey] = row[attr.OutputKey]
			}
		}
		out = append(out, r)
	}
	return out
}

// SortDataset sorts rows in place by a comma-separated list of keys. A key
// prefixed with - sorts descending; one prefixed with ! compares strings
// case sensitively. Numbers compare numerically. Rows comparing equal keep
// their order.
func SortDataset(rows []map[string]interface{}, spec string) {
	if spec == "" {
		return
	}

	type sortKey struct {
		name          string
		descending    bool
		caseSensitive bool
	}

	var keys []sortKey
	for _, s := range strings.Split(spec, ",") {
		k := sortKey{name: strings.TrimSpace(s)}
		for len(k.name) > 0 && (k.name[0] == '-' || k.name[0] == '!') {
			if k.name[0] == '-' {
				k.descending = true
			} else {
				k.caseSensitive = true
			}
			k.name = k.name[1:]
		}
		if k.name != "" {
			keys = append(keys, k)
		}
	}

	sort.SliceStable(rows, func(i, j int) bool {
		for _, k := range keys {
			c := compareValues(rows[i][k.name], rows[j][k.name], k.caseSensitive)
			if c == 0 {
				continue
			}
			if k.descending {
				return c > 0
			}
			return c < 0
		}
		return false
	})
}

// compareValues orders nil first, then numbers, then everything else as
// strings.
func compareValues(a, b interface{}, caseSensitive bool) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}

	fa, aNum := a.(float64)
	fb, bNum := b.(float64)
	if aNum && bNum {
		switch {
		case fa < fb:
			return -1
		case fa > fb:
			return 1
		default:
			return 0
		}
	}

	sa, sb := InterfaceToString(a), InterfaceToString(b)
	if !caseSensitive {
		sa, sb = strings.ToLower(sa), strings.ToLower(sb)
	}
	return strings.Compare(sa, sb)
}

// TableWriter renders the result set in a tabular form honoring color,
// titles and padding options.
func TableWriter(
	resultSet []map[string]interface{},
	attrs attrs.AttrList,
	cmd *cli.Command,
	w io.Writer) {

	if len(resultSet) == 0 {
		return
	}

	var (
		headerStyle  = lipgloss.NewStyle().Align(lipgloss.Left)
		cellStyle    = lipgloss.NewStyle().Padding(0, 0).Align(lipgloss.Left)
		evenRowStyle = cellStyle
		oddRowStyle  = cellStyle
	)

	if cmd.Bool("color") {
		headerColor, evenColor, oddColor := getColors("colors")

		headerStyle = headerStyle.Foreground(lipgloss.Color(headerColor))
		evenRowStyle = evenRowStyle.Foreground(lipgloss.Color(evenColor))
		oddRowStyle = oddRowStyle.Foreground(lipgloss.Color(oddColor))
	}

	rows := make([][]string, 0, len(resultSet))
	for _, result := range resultSet {
		row := make([]string, 0, len(result))
		for _, attr := range attrs {
			if !attr.Include {
				continue
			}
			row = append(row, InterfaceToString(result[attr.OutputKey], "-"))
		}
		rows = append(rows, row)
	}

	pad, _ := config.GetInt("padding", 1)
	log.Debugf("padding: %v", pad)

	t := table.New().
		BorderBottom(false).
		BorderTop(false).
		BorderLeft(false).
		BorderRight(false).
		Border(lipgloss.HiddenBorder()).
		StyleFunc(func(row, col int) lipgloss.Style {
			var style lipgloss.Style
			switch {
			case row == table.HeaderRow:
				style = headerStyle
			case row%2 == 0:
				style = evenRowStyle
			default:
				style = oddRowStyle
			}

			if col > 0 {
				style = style.PaddingLeft(pad)
			}

			return style
		}).
		Headers().
		Rows(rows...)

	if cmd.Bool("titles") {
		var headers []string
		for _, attr := range attrs {
			if attr.Include {
				headers = append(headers, attr.OutputKey)
			}
		}

		// https://github.com/charmbracelet/lipgloss/issues/261
		t = t.Headers(headers...).BorderHeader(false)
	}
	fmt.Fprintln(w, t)
}

// getColors returns configured color values for table rendering.
func getColors(key string) (header string, even string, odd string) {
	header, _ = config.GetString(key+".title", "#f6be00")
	even, _ = config.GetString(key+".even", "#ffffff")
	odd, _ = config.GetString(key+".odd", "#00c8f0")
	return
}

// InterfaceToString converts supported primitive or composite values to a
// string. A custom empty value may be provided.
func InterfaceToString(value interface{}, emptyValue ...string) string {
	if len(emptyValue) == 0 {
		emptyValue = []string{""}
	}

	if value == nil || reflect.ValueOf(value).IsZero() {
		return emptyValue[0]
	}

	switch value := value.(type) {
	case string:
		return value
	case int:
		return strconv.Itoa(value)
	case float64:
		// Sizes and counts are whole numbers.
		return fmt.Sprintf("%.0f", value)
	case bool:
		return strconv.FormatBool(value)
	default:
		jsonBytes, err := json.Marshal(value)
		if err != nil {
			return fmt.Sprintf("%v", value)
		}
		return string(jsonBytes)
	}
}
