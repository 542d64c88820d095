// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package memo

import (
	"context"
	"errors"
	"reflect"
	"runtime"
	"strings"

	"github.com/apex/log"

	"github.com/staranto/fsmemo/internal/staleness"
	"github.com/staranto/fsmemo/internal/storage"
)

// Computation is the function being memoized. It must be deterministic for a
// given set of declared inputs and key material.
type Computation[A, R any] func(ctx context.Context, args A) (R, error)

// slot drives one memoized call through absent/stale -> fresh, or to an
// error that leaves the slot absent.
type slot[A, R any] struct {
	rt        *Runtime
	name      string
	compute   Computation[A, R]
	cacheable func(R) bool
	policy    staleness.Policy
	deep      bool
	single    bool
	resolve   func(A) SlotInfo
}

func (s *slot[A, R]) call(ctx context.Context, args A) (R, error) {
	var zero R
	info := s.resolve(args)

	var res filled[R]
	var err error
	if s.single {
		var v any
		var shared bool
		v, err, shared = s.rt.flights.Do(info.Stem, func() (any, error) {
			return s.fill(ctx, args, info)
		})
		if shared {
			log.WithField("name", s.name).Debug("joined in-flight call")
		}
		res, _ = v.(filled[R])
	} else {
		res, err = s.fill(ctx, args, info)
	}
	if err != nil {
		return zero, err
	}
	if res.direct {
		return res.value, nil
	}
	return s.load(ctx, res.path)
}

// filled is the outcome of bringing a slot up to date. Either path names a
// fresh artifact, or direct is set and value was not cached.
type filled[R any] struct {
	path   string
	value  R
	direct bool
}

// fill leaves the slot fresh, recomputing and persisting when it is absent or
// stale. It does not read the artifact; every caller does that itself.
func (s *slot[A, R]) fill(ctx context.Context, args A, info SlotInfo) (filled[R], error) {
	var none filled[R]
	logger := log.WithFields(log.Fields{"name": s.name, "stem": info.Stem})

	stale := info.Format == storage.None
	if !stale {
		var err error
		stale, err = s.isStale(info.Path, info.Inputs)
		if err != nil {
			kind := KindStat
			if errors.Is(err, staleness.ErrInputMissing) {
				kind = KindInputMissing
			}
			return none, &Error{Kind: kind, Name: s.name, Path: info.Path, Err: err}
		}
	}

	if !stale {
		logger.WithField("path", info.Path).Debug("cache hit")
		return filled[R]{path: info.Path}, nil
	}

	logger.Debug("cache miss")
	value, err := s.compute(ctx, args)
	if err != nil {
		if info.Path != "" {
			_ = s.rt.locks.With(info.Path, func() error {
				s.rt.discard(ctx, info.Path)
				return nil
			})
		}
		return none, &Error{Kind: KindComputation, Name: s.name, Path: info.Path, Err: err}
	}

	if !s.cacheable(value) {
		logger.Debug("result is not cacheable")
		return filled[R]{value: value, direct: true}, nil
	}

	_, path := s.rt.strategy.PathFor(value, info.Stem)
	err = s.rt.locks.With(path, func() error {
		if err := s.rt.strategy.Persist(&value, path); err != nil {
			s.rt.discard(ctx, path)
			return err
		}
		return nil
	})
	if err != nil {
		return none, &Error{Kind: KindPersist, Name: s.name, Path: path, Err: err}
	}
	logger.WithField("path", path).Debug("persisted result")
	return filled[R]{path: path}, nil
}

// load reads the artifact at path. Results are always read back, even right
// after writing, so every caller gets its own copy through the same
// serialization path.
func (s *slot[A, R]) load(ctx context.Context, path string) (R, error) {
	var out R
	err := s.rt.locks.With(path, func() error {
		if err := s.rt.strategy.Load(path, &out); err != nil {
			s.rt.discard(ctx, path)
			return err
		}
		return nil
	})
	if err != nil {
		var zero R
		return zero, &Error{Kind: KindRead, Name: s.name, Path: path, Err: err}
	}
	return out, nil
}

func (s *slot[A, R]) isStale(path string, inputs []string) (bool, error) {
	if s.deep {
		return staleness.IsStaleDeep(path, inputs, s.policy)
	}
	return staleness.IsStale(path, inputs, s.policy)
}

func alwaysCacheable[R any](R) bool { return true }

// funcName derives a computation name from fn's symbol: the package path and
// receiver decorations are dropped, so pkg.sumFile becomes "sumFile" and a
// closure pkg.TestX.func1 becomes "TestX.func1".
func funcName(fn any) string {
	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func || v.IsNil() {
		return ""
	}
	f := runtime.FuncForPC(v.Pointer())
	if f == nil {
		return ""
	}
	name := f.Name()
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	if i := strings.Index(name, "."); i >= 0 {
		name = name[i+1:]
	}
	name = strings.NewReplacer("(", "", ")", "", "*", "", "[...]", "").Replace(name)
	return strings.TrimSuffix(name, "-fm")
}
