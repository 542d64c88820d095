// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package filters

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/apex/log"
	"github.com/dustin/go-humanize"
	"github.com/tidwall/gjson"

	"github.com/staranto/fsmemo/internal/attrs"
	"github.com/staranto/fsmemo/internal/driller"
)

// exprRegex splits a filter expression into key, operator and target. The
// operator is one of = ^ ~ < > @ / and may be negated with a leading '!'.
var exprRegex = regexp.MustCompile(`^(.*?)(!?[=^~<>@/])(.*)$`)

// DelimEnv overrides the "," separating filter expressions, for targets
// that contain commas.
const DelimEnv = "FSMEMO_FILTER_DELIM"

// now is the reference for duration targets.
var now = time.Now

// Filter is one parsed --filter expression.
//
// How Target is read depends on the value it is compared with:
//
//   - numbers take a number or a byte size, so size>1MiB works
//   - timestamps take an RFC 3339 time, a UTC date or a duration, where a
//     duration d means d ago: modified<24h matches entries older than a day
//   - lists match with @ when an element equals Target, objects when they
//     have Target as a key
//   - everything else compares as a string
type Filter struct {
	Key     string
	Negate  bool
	Operand string
	Target  string
}

// Parse reads a single filter expression.
func Parse(expr string) (Filter, error) {
	m := exprRegex.FindStringSubmatch(expr)
	if m == nil {
		return Filter{}, fmt.Errorf("invalid filter: %s", expr)
	}
	op, negate := strings.CutPrefix(m[2], "!")
	return Filter{Key: m[1], Negate: negate, Operand: op, Target: m[3]}, nil
}

// BuildFilters parses a comma separated list of filter expressions. Invalid
// expressions are logged and skipped.
func BuildFilters(spec string) []Filter {
	if spec == "" {
		return nil
	}

	delim := ","
	if d := os.Getenv(DelimEnv); d != "" {
		delim = d
	}

	var filters []Filter //nolint:prealloc
	for _, expr := range strings.Split(spec, delim) {
		f, err := Parse(expr)
		if err != nil {
			log.Error(err.Error())
			continue
		}
		filters = append(filters, f)
	}
	return filters
}

// Match reports whether value satisfies f. Null values and targets that
// cannot be read for the value's type never match, negated or not.
func (f Filter) Match(value gjson.Result) bool {
	var matched, valid bool
	switch value.Type {
	case gjson.Null:
		return false
	case gjson.Number:
		matched, valid = f.matchNumber(value.Float())
	case gjson.String:
		if t, err := time.Parse(time.RFC3339Nano, value.Str); err == nil {
			if matched, valid = f.matchTime(t); valid {
				break
			}
		}
		matched, valid = f.matchString(value.Str)
	case gjson.True, gjson.False:
		matched, valid = f.matchString(value.String())
	case gjson.JSON:
		matched, valid = f.matchCollection(value)
	}

	if !valid {
		return false
	}
	return matched != f.Negate
}

func (f Filter) matchNumber(v float64) (bool, bool) {
	tgt, err := strconv.ParseFloat(strings.TrimSpace(f.Target), 64)
	if err != nil {
		n, berr := humanize.ParseBytes(strings.TrimSpace(f.Target))
		if berr != nil {
			log.Errorf("invalid numeric target: %s", f.Target)
			return false, false
		}
		tgt = float64(n)
	}

	switch f.Operand {
	case "=":
		return v == tgt, true
	case "<":
		return v < tgt, true
	case ">":
		return v > tgt, true
	}
	log.Errorf("unsupported numeric operand: %s", f.Operand)
	return false, false
}

// matchTime is only valid for the ordering operators and a target that reads
// as a point in time. Otherwise the caller falls back to a string match.
func (f Filter) matchTime(v time.Time) (bool, bool) {
	if f.Operand != "=" && f.Operand != "<" && f.Operand != ">" {
		return false, false
	}
	tgt, ok := parseTime(strings.TrimSpace(f.Target))
	if !ok {
		return false, false
	}

	switch f.Operand {
	case "<":
		return v.Before(tgt), true
	case ">":
		return v.After(tgt), true
	default:
		return v.Equal(tgt), true
	}
}

func parseTime(s string) (time.Time, bool) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, true
	}
	if d, err := time.ParseDuration(s); err == nil {
		return now().Add(-d), true
	}
	return time.Time{}, false
}

func (f Filter) matchString(v string) (bool, bool) {
	switch f.Operand {
	case "=":
		return v == f.Target, true
	case "~":
		return strings.EqualFold(v, f.Target), true
	case "^":
		return strings.HasPrefix(v, f.Target), true
	case "<":
		return v < f.Target, true
	case ">":
		return v > f.Target, true
	case "@":
		return strings.Contains(v, f.Target), true
	case "/":
		re, err := regexp.Compile(f.Target)
		if err != nil {
			log.Errorf("invalid regex: %s", f.Target)
			return false, false
		}
		return re.MatchString(v), true
	}
	log.Errorf("unsupported filtering operand: %s", f.Operand)
	return false, false
}

func (f Filter) matchCollection(v gjson.Result) (bool, bool) {
	if f.Operand != "@" {
		log.Errorf("only @ applies to lists and objects, got %s", f.Operand)
		return false, false
	}
	if v.IsObject() {
		_, ok := v.Map()[f.Target]
		return ok, true
	}
	found := false
	v.ForEach(func(_, item gjson.Result) bool {
		found = item.String() == f.Target
		return !found
	})
	return found, true
}

// FilterDataset returns the rows of candidates matching every filter in spec,
// projected onto attrs. Transforms are left to the output phase.
func FilterDataset(candidates gjson.Result, attrs attrs.AttrList, spec string) []map[string]interface{} {
	filters := BuildFilters(spec)

	var rows []map[string]interface{} //nolint:prealloc
	for _, candidate := range candidates.Array() {
		if !applyFilters(candidate, attrs, filters) {
			continue
		}
		row := make(map[string]interface{}, len(attrs))
		for _, attr := range attrs {
			row[attr.OutputKey] = driller.Driller(candidate.Raw, attr.Key).Value()
		}
		rows = append(rows, row)
	}
	return rows
}

// applyFilters reports whether candidate matches every filter. A filter key
// names an attr's output key or, failing that, a path in the row. A key that
// resolves to nothing is warned about and that filter skipped.
func applyFilters(candidate gjson.Result, attrs attrs.AttrList, filters []Filter) bool {
	for _, f := range filters {
		path, known := f.Key, false
		for _, attr := range attrs {
			if attr.OutputKey == f.Key {
				path, known = attr.Key, true
				break
			}
		}

		value := driller.Driller(candidate.Raw, path)
		if !value.Exists() && !known {
			msg := fmt.Sprintf("filter key not found: %s", f.Key)
			log.Warn(msg)
			fmt.Fprintf(os.Stderr, "warning: %s\n", msg)
			continue
		}
		if !f.Match(value) {
			return false
		}
	}
	return true
}
