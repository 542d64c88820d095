// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package storage

import (
	"bufio"
	"encoding/gob"
	"fmt"
	"os"
	"reflect"
)

// gobShape is the header written ahead of every gob payload. gob has no
// encoding for a nil top-level value and decodes an empty slice or map as
// nil, so both are recorded here and their payload is omitted.
type gobShape struct {
	Shape uint8
}

const (
	shapeValue uint8 = iota
	shapeNil
	shapeEmpty
)

// gobCodec is the generic binary format for any value gob can encode.
//
// Pass a pointer to the result on both sides so that interface-typed results
// are sent as interfaces. Their concrete types need gob.Register, as do the
// concrete types behind interface-typed fields. Empty slices and maps nested
// inside a value still come back as nil.
type gobCodec struct{}

func (gobCodec) write(f *os.File, value any) (err error) {
	defer recoverInto("gob", &err)

	w := bufio.NewWriter(f)
	enc := gob.NewEncoder(w)
	shape := shapeOf(value)
	if err := enc.Encode(gobShape{Shape: shape}); err != nil {
		return err
	}
	if shape == shapeValue {
		if err := enc.Encode(value); err != nil {
			return err
		}
	}
	return w.Flush()
}

func (gobCodec) read(f *os.File, out any) (err error) {
	ov := reflect.ValueOf(out)
	if ov.Kind() != reflect.Pointer || ov.IsNil() {
		return fmt.Errorf("gob decodes into a non-nil pointer, got %T", out)
	}
	defer recoverInto("gob", &err)

	dec := gob.NewDecoder(bufio.NewReader(f))
	var hdr gobShape
	if err := dec.Decode(&hdr); err != nil {
		return err
	}

	target := ov.Elem()
	switch hdr.Shape {
	case shapeValue:
		return dec.Decode(out)
	case shapeNil:
		target.Set(reflect.Zero(target.Type()))
	case shapeEmpty:
		switch target.Kind() {
		case reflect.Slice:
			target.Set(reflect.MakeSlice(target.Type(), 0, 0))
		case reflect.Map:
			target.Set(reflect.MakeMap(target.Type()))
		default:
			return fmt.Errorf("empty collection cannot be decoded into %s", target.Type())
		}
	default:
		return fmt.Errorf("unknown gob shape %d", hdr.Shape)
	}
	return nil
}

// shapeOf looks through at most one pointer, the one added by the caller to
// carry the static type.
func shapeOf(value any) uint8 {
	v := reflect.ValueOf(value)
	if !v.IsValid() {
		return shapeNil
	}
	if v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return shapeNil
		}
		v = v.Elem()
	}
	switch v.Kind() {
	case reflect.Pointer, reflect.Interface:
		if v.IsNil() {
			return shapeNil
		}
	case reflect.Slice, reflect.Map:
		if v.IsNil() {
			return shapeNil
		}
		if v.Len() == 0 {
			return shapeEmpty
		}
	}
	return shapeValue
}
