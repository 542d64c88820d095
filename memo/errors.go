// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package memo

import (
	"errors"
	"fmt"

	"github.com/staranto/fsmemo/internal/staleness"
)

// Sentinels matched by errors.Is against an *Error of the same kind.
var (
	// ErrInputMissing is also returned by the staleness check itself.
	ErrInputMissing = staleness.ErrInputMissing
	ErrComputation  = errors.New("computation failed")
	ErrPersist      = errors.New("failed to persist result")
	ErrRead         = errors.New("failed to read cached result")
	ErrStat         = errors.New("failed to check inputs")

	errMissingDir = errors.New("dir config needs a Dir extractor")
)

// Kind classifies an Error.
type Kind int

const (
	KindInputMissing Kind = iota + 1
	KindComputation
	KindPersist
	KindRead
	KindStat
)

func (k Kind) String() string {
	switch k {
	case KindInputMissing:
		return "input missing"
	case KindComputation:
		return "computation"
	case KindPersist:
		return "persist"
	case KindRead:
		return "read"
	case KindStat:
		return "stat"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

func (k Kind) sentinel() error {
	switch k {
	case KindInputMissing:
		return ErrInputMissing
	case KindComputation:
		return ErrComputation
	case KindPersist:
		return ErrPersist
	case KindRead:
		return ErrRead
	case KindStat:
		return ErrStat
	default:
		return nil
	}
}

// Error is returned by a memoized call that could not produce a value. Name
// is the computation's name and Err the underlying cause. For KindComputation,
// KindPersist and KindRead the artifact involved has been deleted by the time
// the error is returned. KindInputMissing and KindStat leave it in place.
type Error struct {
	Kind Kind
	Name string
	Path string
	Err  error
}

func (e *Error) Error() string {
	var msg string
	switch e.Kind {
	case KindInputMissing:
		msg = "missing declared input for " + e.Name
	case KindComputation:
		msg = "error invoking " + e.Name
	case KindPersist:
		msg = "error persisting result of " + e.Name
	case KindRead:
		msg = "error reading previous result of " + e.Name
	case KindStat:
		msg = "error checking inputs of " + e.Name
	default:
		msg = "error in " + e.Name
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is lets errors.Is(err, ErrRead) and friends match on Kind.
func (e *Error) Is(target error) bool {
	s := e.Kind.sentinel()
	return s != nil && target == s
}
