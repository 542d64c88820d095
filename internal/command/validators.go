// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
)

// Validator checks a flag value. It fits the Validator field of the typed
// urfave/cli flags.
type Validator[T any] func(T) error

// All runs checks in order and returns the first failure.
func All[T any](checks ...Validator[T]) Validator[T] {
	return func(value T) error {
		for _, check := range checks {
			if err := check(value); err != nil {
				return err
			}
		}
		return nil
	}
}

// NotJammed rejects a value that is really the next flag, as when
// "--cache-dir --sort name" leaves --cache-dir without its argument.
func NotJammed(value string) error {
	if strings.HasPrefix(value, "--") {
		return errors.New("must not begin with '--'")
	}
	return nil
}

// NotAFile rejects a cache root that names an existing regular file. A
// missing directory is fine; it is created on first write.
func NotAFile(value string) error {
	info, err := os.Stat(value)
	if err == nil && !info.IsDir() {
		return fmt.Errorf("%s is a file, not a directory", value)
	}
	return nil
}

// NonNegative rejects an age below zero.
func NonNegative(value int) error {
	if value < 0 {
		return errors.New("must not be negative")
	}
	return nil
}

// OneOf accepts only the listed values.
func OneOf(allowed ...string) Validator[string] {
	return func(value string) error {
		if !slices.Contains(allowed, value) {
			return fmt.Errorf("must be one of %v", allowed)
		}
		return nil
	}
}

var outputFormats = []string{"text", "json", "raw", "yaml"}
