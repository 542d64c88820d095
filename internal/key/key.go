// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package key

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"hash"
	"reflect"
	"strconv"
	"strings"

	"golang.org/x/crypto/blake2b"
)

// Arg is one argument of a call. Positional arguments have an empty Name.
type Arg struct {
	Name  string
	Value any
}

// Render joins args into key material. Positional args are rendered with
// Repr, named args as name=value, in the order given.
func Render(args ...Arg) string {
	parts := make([]string, 0, len(args))
	for _, a := range args {
		if a.Name == "" {
			parts = append(parts, Repr(a.Value))
			continue
		}
		parts = append(parts, a.Name+"="+Repr(a.Value))
	}
	return strings.Join(parts, ", ")
}

// Repr returns a canonical debug representation of v. Strings are quoted and
// maps are printed with sorted keys, so equal values give equal strings.
// Pointers print as addresses and should be kept out of key material.
func Repr(v any) string {
	switch v := v.(type) {
	case nil:
		return "nil"
	case string:
		return strconv.Quote(v)
	case []string:
		quoted := make([]string, len(v))
		for i, s := range v {
			quoted[i] = strconv.Quote(s)
		}
		return "[" + strings.Join(quoted, ", ") + "]"
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprintf("%#v", v)
	}
}

// Of is the default key function. A struct renders its exported fields as
// named args in declaration order, a []Arg renders through Render and any
// other value through Repr.
func Of(v any) string {
	switch v := v.(type) {
	case []Arg:
		return Render(v...)
	case Arg:
		return Render(v)
	}

	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer && !rv.IsNil() {
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return Repr(v)
	}

	rt := rv.Type()
	args := make([]Arg, 0, rt.NumField())
	for i := 0; i < rt.NumField(); i++ {
		f := rt.Field(i)
		if !f.IsExported() || f.Tag.Get("key") == "-" {
			continue
		}
		args = append(args, Arg{Name: fieldName(f), Value: rv.Field(i).Interface()})
	}
	return Render(args...)
}

// fieldName honors a `key:"name"` tag. Fields tagged `key:"-"` are skipped by
// the caller.
func fieldName(f reflect.StructField) string {
	if tag := f.Tag.Get("key"); tag != "" {
		return tag
	}
	return f.Name
}

// Digest names the hash used to shorten key material.
type Digest string

const (
	MD5     Digest = "md5"
	BLAKE2b Digest = "blake2b"
)

// ParseDigest maps a config value to a Digest. Empty means MD5.
func ParseDigest(s string) (Digest, error) {
	switch Digest(strings.ToLower(strings.TrimSpace(s))) {
	case "", MD5:
		return MD5, nil
	case BLAKE2b:
		return BLAKE2b, nil
	default:
		return "", fmt.Errorf("unsupported key digest %q (want md5 or blake2b)", s)
	}
}

// Sum returns the 128-bit hex fingerprint of material.
func (d Digest) Sum(material string) string {
	var h hash.Hash
	switch d {
	case BLAKE2b:
		// Only fails for sizes outside 1..64 or keys longer than 64 bytes.
		h, _ = blake2b.New(16, nil)
	default:
		h = md5.New()
	}
	_, _ = h.Write([]byte(material))
	return hex.EncodeToString(h.Sum(nil))
}

// Builder turns key material into the key component of a slot path.
type Builder struct {
	// Shorten replaces the material with its fingerprint. The raw material
	// is only safe when it contains no filesystem-unsafe characters.
	Shorten bool
	Digest  Digest
}

// Key returns the slot key for material.
func (b Builder) Key(material string) string {
	if !b.Shorten {
		return material
	}
	return b.Digest.Sum(material)
}
