// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package log

import (
	"bytes"
	"testing"
	"time"

	"github.com/apex/log"
	"github.com/stretchr/testify/assert"
)

func TestCustomHandler(t *testing.T) {
	var buf bytes.Buffer
	h := &CustomHandler{
		Out: &buf,
		now: func() time.Time { return time.Date(2025, 3, 4, 5, 6, 7, 0, time.UTC) },
	}

	e := log.NewEntry(log.Log.(*log.Logger)).WithFields(log.Fields{"stem": "/c/f/x", "name": "f"})
	e.Level = log.DebugLevel
	e.Message = "cache hit"

	assert.NoError(t, h.HandleLog(e))
	assert.Equal(t, "2025-03-04 05:06:07 D cache hit name=f stem=/c/f/x\n", buf.String())
}

func TestInitLogger(t *testing.T) {
	t.Setenv(LevelEnv, "debug")
	InitLogger()
	assert.Equal(t, log.DebugLevel, log.Log.(*log.Logger).Level)

	t.Setenv(LevelEnv, "")
	InitLogger()
	assert.Equal(t, log.ErrorLevel, log.Log.(*log.Logger).Level)

	t.Setenv(LevelEnv, "chatty")
	InitLogger()
	assert.Equal(t, log.ErrorLevel, log.Log.(*log.Logger).Level)
}
