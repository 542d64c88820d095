// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package storage

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"reflect"
	"time"

	"github.com/parquet-go/parquet-go"
)

// IsTabular reports whether value is a table: a slice of structs with at
// least one exported field. Each element is one row.
func IsTabular(value any) bool {
	if value == nil {
		return false
	}
	return isTableType(reflect.TypeOf(value))
}

func isTableType(t reflect.Type) bool {
	if t.Kind() != reflect.Slice || t.Elem().Kind() != reflect.Struct {
		return false
	}
	row := t.Elem()
	for i := 0; i < row.NumField(); i++ {
		if row.Field(i).IsExported() {
			return true
		}
	}
	return false
}

var (
	timeType = reflect.TypeOf(time.Time{})

	// Timestamps are stored as int64 nanoseconds since the epoch.
	minNanoTime = time.Unix(0, math.MinInt64).UTC()
	maxNanoTime = time.Unix(0, math.MaxInt64).UTC()
)

// errLossyTable is returned for a table that parquet would not give back
// unchanged.
var errLossyTable = errors.New("table does not survive a parquet round trip")

// IsParquetSafe reports whether value is a table whose every row reads back
// from parquet exactly as written. Nil slices and maps come back empty, so
// they are refused, as are interfaces, times in a zone other than UTC and
// times outside the nanosecond timestamp range.
func IsParquetSafe(value any) bool {
	if !IsTabular(value) {
		return false
	}
	v := reflect.ValueOf(value)
	if v.IsNil() {
		return false
	}
	for i := 0; i < v.Len(); i++ {
		if !lossless(v.Index(i)) {
			return false
		}
	}
	return schemaOK(v.Type().Elem())
}

func lossless(v reflect.Value) bool {
	if v.Type() == timeType {
		t := v.Interface().(time.Time) //nolint:forcetypeassert
		return t.Location() == time.UTC && !t.Before(minNanoTime) && !t.After(maxNanoTime)
	}

	switch v.Kind() {
	case reflect.Pointer:
		return v.IsNil() || lossless(v.Elem())
	case reflect.Interface, reflect.Chan, reflect.Func, reflect.UnsafePointer:
		return false
	case reflect.Map:
		if v.IsNil() {
			return false
		}
		iter := v.MapRange()
		for iter.Next() {
			if !lossless(iter.Key()) || !lossless(iter.Value()) {
				return false
			}
		}
	case reflect.Slice:
		if v.IsNil() {
			return false
		}
		fallthrough
	case reflect.Array:
		for i := 0; i < v.Len(); i++ {
			if !lossless(v.Index(i)) {
				return false
			}
		}
	case reflect.Struct:
		t := v.Type()
		for i := 0; i < t.NumField(); i++ {
			if t.Field(i).IsExported() && !lossless(v.Field(i)) {
				return false
			}
		}
	}
	return true
}

// schemaOK reports whether parquet can derive a schema for row. SchemaOf
// panics on types it cannot represent.
func schemaOK(row reflect.Type) (ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()
	parquet.SchemaOf(reflect.Zero(row).Interface())
	return true
}

// parquetCodec stores tables column by column. The schema is derived from
// the row struct, including its `parquet` tags. value may be the table or a
// pointer to it.
type parquetCodec struct{}

func (parquetCodec) write(f *os.File, value any) (err error) {
	rv := reflect.ValueOf(value)
	if rv.Kind() == reflect.Pointer && !rv.IsNil() {
		rv = rv.Elem()
	}
	if !rv.IsValid() || !isTableType(rv.Type()) {
		return fmt.Errorf("parquet needs a slice of structs, got %T", value)
	}
	if !IsParquetSafe(rv.Interface()) {
		return errLossyTable
	}
	defer recoverInto("parquet", &err)

	schema := parquet.SchemaOf(reflect.Zero(rv.Type().Elem()).Interface())
	w := parquet.NewWriter(f, schema)
	for i := 0; i < rv.Len(); i++ {
		if err := w.Write(rv.Index(i).Interface()); err != nil {
			return fmt.Errorf("row %d: %w", i, err)
		}
	}
	return w.Close()
}

func (parquetCodec) read(f *os.File, out any) (err error) {
	ov := reflect.ValueOf(out)
	if ov.Kind() != reflect.Pointer || ov.IsNil() || !isTableType(ov.Elem().Type()) {
		return fmt.Errorf("parquet decodes into a pointer to a slice of structs, got %T", out)
	}
	defer recoverInto("parquet", &err)

	info, err := f.Stat()
	if err != nil {
		return err
	}
	// Validates the footer before the reader is built; NewReader panics on
	// malformed input.
	if _, err := parquet.OpenFile(f, info.Size()); err != nil {
		return err
	}

	r := parquet.NewReader(f)
	defer r.Close()

	sliceType := ov.Elem().Type()
	rowType := sliceType.Elem()
	rows := reflect.MakeSlice(sliceType, 0, int(r.NumRows()))
	for {
		row := reflect.New(rowType)
		if err := r.Read(row.Interface()); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return err
		}
		rows = reflect.Append(rows, row.Elem())
	}
	ov.Elem().Set(rows)
	return nil
}

func recoverInto(format string, err *error) {
	if r := recover(); r != nil {
		*err = fmt.Errorf("%s: %v", format, r)
	}
}
