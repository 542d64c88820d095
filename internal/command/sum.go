// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/apex/log"
	"github.com/urfave/cli/v3"

	"github.com/staranto/fsmemo/internal/cacheutil"
	"github.com/staranto/fsmemo/internal/meta"
	"github.com/staranto/fsmemo/memo"
)

// sumName is the computation name sums are cached under.
const sumName = "sum_file"

// SumCommandBuilder constructs the sum command: a memoized sum of the integer
// lines in a set of files.
func SumCommandBuilder(m meta.Meta) *cli.Command {
	return (&CommandBuilder{
		Name:      "sum",
		Usage:     "sum the integer lines of files, caching the result",
		UsageText: "fsmemo sum <file>... [options]",
		Meta:      m,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "refresh",
				Aliases: []string{"r"},
				Usage:   "evict the cached sum before computing",
			},
		},
		Action: sumAction,
	}).Build()
}

func sumAction(ctx context.Context, cmd *cli.Command) error {
	if ShortCircuitTLDR(ctx, cmd, "sum") {
		return nil
	}

	files := cmd.Args().Slice()
	if len(files) == 0 {
		return errors.New("sum needs at least one file")
	}

	start := time.Now()
	var computed atomic.Bool
	compute := func(ctx context.Context, files []string) (int64, error) {
		computed.Store(true)
		return sumFiles(ctx, files)
	}

	var (
		total int64
		err   error
	)
	if !cacheutil.Enabled() {
		log.Debug("cache disabled, computing directly")
		total, err = compute(ctx, files)
	} else {
		total, err = cachedSum(ctx, cmd, compute, files)
	}
	if err != nil {
		return err
	}

	status := "hit"
	if computed.Load() {
		status = "miss"
	}
	fmt.Fprintf(writer(cmd), "%d\t%s\t%s\n", total, time.Since(start).Round(time.Microsecond), status)
	return nil
}

func cachedSum(ctx context.Context, cmd *cli.Command, compute memo.Computation[[]string, int64], files []string) (int64, error) {
	rt, err := NewRuntime(ctx, cmd)
	if err != nil {
		return 0, err
	}

	m, err := memo.NewFiles(compute, memo.FilesConfig[[]string, int64]{
		Name:    sumName,
		Inputs:  func(files []string) []string { return files },
		Runtime: rt,
	})
	if err != nil {
		return 0, err
	}

	if cmd.Bool("refresh") {
		if _, err := m.Evict(ctx, files); err != nil {
			return 0, err
		}
	}

	log.WithField("slot", m.CacheFile(files).Stem).Debug("sum")
	return m.Call(ctx, files)
}

// sumFiles adds up every non-blank line of files as a base 10 integer.
func sumFiles(ctx context.Context, files []string) (int64, error) {
	var total int64
	for _, name := range files {
		if err := ctx.Err(); err != nil {
			return 0, err
		}

		n, err := sumFile(name)
		if err != nil {
			return 0, err
		}
		total += n
	}
	return total, nil
}

func sumFile(name string) (int64, error) {
	f, err := os.Open(name)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	var total int64
	scanner := bufio.NewScanner(f)
	for line := 1; scanner.Scan(); line++ {
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		n, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("%s:%d: %w", name, line, err)
		}
		total += n
	}
	return total, scanner.Err()
}
