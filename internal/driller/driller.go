// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package driller

import (
	"regexp"
	"strings"

	"github.com/tidwall/gjson"
)

var indexRegex = regexp.MustCompile(`\[(\d+)\]`)

// Driller resolves a dotted path against a JSON document. Explicit indexes
// are written items[0]. A single element array is drilled through as if it
// were the element itself, so items.id reaches [{"id": ...}].
func Driller(json string, path string) gjson.Result {
	segments := strings.Split(indexRegex.ReplaceAllString(path, ".$1"), ".")

	current := gjson.Parse(json)
	for _, seg := range segments {
		if seg == "" {
			continue
		}
		if current.IsArray() && !isIndex(seg) {
			arr := current.Array()
			if len(arr) != 1 {
				return gjson.Result{}
			}
			current = arr[0]
		}
		current = current.Get(gjson.Escape(seg))
		if !current.Exists() {
			return current
		}
	}

	if current.IsArray() {
		if arr := current.Array(); len(arr) == 1 {
			return arr[0]
		}
	}
	return current
}

func isIndex(seg string) bool {
	for _, r := range seg {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
