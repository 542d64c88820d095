// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package log

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/apex/log"
)

// LevelEnv names the variable holding the log level.
const LevelEnv = "FSMEMO_LOG"

// InitLogger sets up Apex with a custom handler and a log level from the
// FSMEMO_LOG env variable.
func InitLogger() {
	level, err := log.ParseLevel(strings.ToLower(os.Getenv(LevelEnv)))
	if err != nil {
		level = log.ErrorLevel
	}
	log.SetHandler(&CustomHandler{})
	log.SetLevel(level)
}

// CustomHandler formats log messages as a single line, fields sorted by
// name, and writes them to stderr so command output stays clean.
type CustomHandler struct {
	mu  sync.Mutex
	Out io.Writer
	now func() time.Time
}

// HandleLog implements the log.Handler interface
func (h *CustomHandler) HandleLog(e *log.Entry) error {
	now := time.Now
	if h.now != nil {
		now = h.now
	}
	out := h.Out
	if out == nil {
		out = os.Stderr
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s %.1s %s", now().Format("2006-01-02 15:04:05"), strings.ToUpper(e.Level.String()), e.Message)

	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(&b, " %s=%v", name, e.Fields[name])
	}
	b.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(out, b.String())
	return err
}
