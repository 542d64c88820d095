// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/apex/log"
)

// Format identifies how an artifact is serialized. Its value is the file
// extension without the leading dot.
type Format string

const (
	None    Format = ""
	Parquet Format = "parquet"
	Gob     Format = "gob"
)

// Ext returns the file extension for f, including the dot.
func (f Format) Ext() string {
	if f == None {
		return ""
	}
	return "." + string(f)
}

func (f Format) String() string {
	if f == None {
		return "none"
	}
	return string(f)
}

// ProbeOrder is the order in which Probe looks for an existing artifact.
var ProbeOrder = []Format{Parquet, Gob}

// FormatOf returns the format implied by path's extension, or None.
func FormatOf(path string) Format {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	for _, f := range ProbeOrder {
		if string(f) == ext {
			return f
		}
	}
	return None
}

// ErrUnknownFormat is returned by Load for an unrecognized extension.
var ErrUnknownFormat = errors.New("unknown artifact format")

// Strategy chooses, writes and reads artifact formats.
type Strategy interface {
	// Probe returns the first format with an artifact on disk for stem, or
	// (None, "") when there is none.
	Probe(stem string) (Format, string)
	// PathFor picks the format for value and returns the resulting path.
	PathFor(value any, stem string) (Format, string)
	// Persist writes value to path. The format follows the extension. value
	// may be a pointer to the result, which keeps interface types intact.
	Persist(value any, path string) error
	// Load reads path into out, which must be a pointer. The format follows
	// the extension only.
	Load(path string, out any) error
}

type codec interface {
	write(f *os.File, value any) error
	read(f *os.File, out any) error
}

var codecs = map[Format]codec{
	Parquet: parquetCodec{},
	Gob:     gobCodec{},
}

// Auto is the default Strategy. Tables (slices of structs) that parquet
// gives back unchanged are stored as parquet, everything else as gob.
type Auto struct{}

var _ Strategy = Auto{}

func (Auto) Probe(stem string) (Format, string) {
	for _, f := range ProbeOrder {
		p := stem + f.Ext()
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return f, p
		}
	}
	return None, ""
}

func (Auto) PathFor(value any, stem string) (Format, string) {
	f := Gob
	if IsParquetSafe(value) {
		f = Parquet
	}
	return f, stem + f.Ext()
}

// Persist writes through a temporary file renamed into place, so readers never
// see a partial artifact. Artifacts of other formats for the same stem are
// removed so that Probe cannot find a superseded result.
func (Auto) Persist(value any, path string) error {
	format := FormatOf(path)
	c, ok := codecs[format]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownFormat, path)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil { //nolint:mnd
		return fmt.Errorf("failed to create cache directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary artifact: %w", err)
	}
	tmpPath := tmp.Name()

	if err := c.write(tmp, value); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to encode %s artifact: %w", format, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to write artifact: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to rename artifact: %w", err)
	}

	stem := strings.TrimSuffix(path, format.Ext())
	for _, other := range ProbeOrder {
		if other == format {
			continue
		}
		if err := os.Remove(stem + other.Ext()); err != nil && !errors.Is(err, fs.ErrNotExist) {
			log.WithError(err).Warnf("failed to remove superseded artifact %s", stem+other.Ext())
		}
	}
	return nil
}

func (Auto) Load(path string, out any) error {
	format := FormatOf(path)
	c, ok := codecs[format]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownFormat, path)
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open artifact: %w", err)
	}
	defer f.Close()

	if err := c.read(f, out); err != nil {
		return fmt.Errorf("failed to decode %s artifact: %w", format, err)
	}
	return nil
}
