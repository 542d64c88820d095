// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package attrs

import (
	"fmt"
	"math"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/apex/log"
	"github.com/dustin/go-humanize"

	"github.com/staranto/fsmemo/internal/config"
)

var lengthRegex = regexp.MustCompile(`-?\d+`)

// Attr represents each of the keys to be included in the output. These are
// typically identified by the JSON attributes key, thus the name.
type Attr struct {
	// The JSON key to extract from each row.
	Key string `yaml:"key"`
	// Should this Attr be included in output or is it just
	// intended for filtering and sorting?
	Include bool `yaml:"include"`
	// The key to use in the output. This is also the column title when
	// output=text.
	OutputKey string `yaml:"outputKey"`
	// Transformation spec to apply to the output value.
	TransformSpec string `yaml:"transformSpec"`
}

// Transform applies the TransformSpec to value. Supported specs:
//
//	b    byte counts as a human readable size (1.2 MB)
//	r    RFC3339 timestamps relative to now (3 hours ago)
//	t/T  RFC3339 timestamps converted to the configured timezone
//	l/u  lower or upper case; the last one wins
//	N    truncate to N characters
//	-N   elide the middle down to N characters
func (a *Attr) Transform(value interface{}) interface{} {
	if a.TransformSpec == "" {
		return value
	}

	if strings.Contains(a.TransformSpec, "b") {
		if n, ok := value.(float64); ok && n >= 0 {
			return humanize.Bytes(uint64(n))
		}
	}

	result, ok := value.(string)
	if !ok {
		return value
	}

	if strings.Contains(a.TransformSpec, "r") {
		if t, err := time.Parse(time.RFC3339Nano, result); err == nil {
			return humanize.Time(t)
		}
	}

	// Convert UTC time to local.
	if strings.ContainsAny(a.TransformSpec, "tT") {
		result = a.localTime(result)
	}

	// We need to know which case transformation appears last. This covers the
	// case where there has been a global case transformation prepended to the
	// attrs transformation and, thus, allows the attr's to carry more weight.
	// IOW... --attrs '*::U,name::l' will be lower case.
	lastL := strings.LastIndexAny(a.TransformSpec, "lL")
	lastU := strings.LastIndexAny(a.TransformSpec, "uU")

	if lastL > lastU {
		result = strings.ToLower(result)
	} else if lastU > lastL {
		result = strings.ToUpper(result)
	}

	// Same logic as above re: case. A more specific length transformation
	// overrides a global one.
	match := lengthRegex.FindAllString(a.TransformSpec, -1)
	if len(match) != 0 {
		l, _ := strconv.Atoi(match[len(match)-1])
		abs := int(math.Abs(float64(l)))
		if len(result) > abs {
			if l < 0 {
				lr := abs/2 - 1
				if lr < 0 {
					lr = 0
				}
				result = result[0:lr] + ".." + result[len(result)-lr:]
			} else {
				result = result[:l]
			}
		}
	}

	return result
}

// localTime converts an RFC3339 timestamp into the timezone named by the
// config "timezone" key or TZ. Without either, value is returned unchanged.
func (a *Attr) localTime(value string) string {
	tz, _ := config.GetString("timezone", "")
	if tz == "" {
		tz = os.Getenv("TZ")
	}
	if tz == "" {
		return value
	}

	loc, err := time.LoadLocation(tz)
	if err != nil {
		log.WithError(err).Debugf("unknown timezone %s", tz)
		return value
	}

	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		log.Error("failed to parse time: " + value)
		a.TransformSpec = strings.NewReplacer("t", "", "T", "").Replace(a.TransformSpec)
		return value
	}
	return t.In(loc).Format("2006-01-02T15:04:05MST")
}

type AttrList []Attr

// String returns a representation of the AttrList. This should match the
// format of the original --attrs flag.
func (a *AttrList) String() string {
	result := make([]string, 0, len(*a))
	for _, attr := range *a {
		result = append(result, fmt.Sprintf("%s:%s:%s", attr.Key, attr.OutputKey, attr.TransformSpec))
	}
	return strings.Join(result, ",")
}

// Set parses each spec from the --attrs flag and adds it to the AttrList.
func (a *AttrList) Set(value string) error {
	if value == "" || value == "*" {
		return nil
	}

	const (
		jsonIdx = iota
		outputIdx
		transformIdx
	)

	// There are three : delimited fields in each spec. The first is the key to
	// extract from the row. The second is the key to use in the output. The
	// third is the transformation spec to apply to the output value. The latter
	// two are optional. The output key defaults to the last section of the key.
specloop:
	for _, spec := range strings.Split(value, ",") {
		attr := Attr{
			Include: true,
		}

		fields := strings.Split(spec, ":")

		// A leading ! keeps the attribute for filtering and sorting only.
		attr.Key = strings.TrimPrefix(strings.TrimSpace(fields[jsonIdx]), ".")
		if strings.HasPrefix(attr.Key, "!") {
			attr.Include = false
			attr.Key = strings.TrimPrefix(attr.Key[1:], ".")
		}
		if attr.Key == "" {
			return fmt.Errorf("empty attribute in %q", value)
		}

		if attr.Key == "*" {
			attr.Include = false
		}

		if len(fields) == 1 || fields[outputIdx] == "" {
			segments := strings.Split(attr.Key, ".")
			attr.OutputKey = segments[len(segments)-1]
		} else {
			attr.OutputKey = strings.TrimSpace(fields[outputIdx])
		}

		if len(fields) > transformIdx {
			attr.TransformSpec = strings.TrimSpace(fields[transformIdx])
		}

		// If the attr already exists in the list (because it's one of the
		// defaults for cmd or the user double-entered it) just apply the
		// OutputKey, Include and TransformSpec to the existing Attr.
		for i := range *a {
			if (*a)[i].Key == attr.Key || (*a)[i].OutputKey == attr.Key {
				(*a)[i].Include = attr.Include
				(*a)[i].OutputKey = attr.OutputKey
				(*a)[i].TransformSpec = attr.TransformSpec
				continue specloop
			}
		}

		*a = append(*a, attr)
	}

	return nil
}

// SetGlobalTransformSpec inserts a global transform spec into the front of all
// attrs in the list.
func (a *AttrList) SetGlobalTransformSpec() {
	spec := ""

	// Find the global transform spec. If there is more than one, we're not
	// dealing with it and just taking the first.
	for i := range *a {
		if (*a)[i].Key == "*" {
			spec = (*a)[i].TransformSpec
			break
		}
	}

	if spec == "" {
		return
	}

	for i := range *a {
		(*a)[i].TransformSpec = spec + "," + (*a)[i].TransformSpec
	}
}

func (a *AttrList) Type() string {
	return "list"
}
