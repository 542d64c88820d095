// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"errors"
	"fmt"

	"github.com/apex/log"
	"github.com/urfave/cli/v3"

	"github.com/staranto/fsmemo/internal/meta"
)

// EvictCommandBuilder constructs the evict command, which removes every slot
// of the named computations.
func EvictCommandBuilder(m meta.Meta) *cli.Command {
	return (&CommandBuilder{
		Name:      "evict",
		Usage:     "remove every slot of the named computations",
		UsageText: "fsmemo evict <name>... [options]",
		Meta:      m,
		Action:    evictAction,
	}).Build()
}

func evictAction(ctx context.Context, cmd *cli.Command) error {
	if ShortCircuitTLDR(ctx, cmd, "evict") {
		return nil
	}

	names := cmd.Args().Slice()
	if len(names) == 0 {
		return errors.New("evict needs at least one computation name")
	}

	rt, err := NewRuntime(ctx, cmd)
	if err != nil {
		return err
	}

	var errs []error
	for _, name := range names {
		if err := rt.EvictAll(ctx, name); err != nil {
			errs = append(errs, err)
			continue
		}
		log.WithField("name", name).Info("evicted")
		fmt.Fprintf(writer(cmd), "evicted %s\n", name)
	}
	return errors.Join(errs...)
}
