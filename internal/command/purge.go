// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"fmt"

	altsrc "github.com/urfave/cli-altsrc/v3"
	yaml "github.com/urfave/cli-altsrc/v3/yaml"
	"github.com/urfave/cli/v3"

	"github.com/staranto/fsmemo/internal/cacheutil"
	"github.com/staranto/fsmemo/internal/meta"
)

// PurgeCommandBuilder constructs the purge command, which removes artifacts
// older than --hours.
func PurgeCommandBuilder(m meta.Meta) *cli.Command {
	src := cfgSource()

	return (&CommandBuilder{
		Name:      "purge",
		Usage:     "remove cached artifacts older than a number of hours",
		UsageText: "fsmemo purge [--hours N] [options]",
		Meta:      m,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "hours",
				Usage: "age in hours past which artifacts are removed",
				Sources: cli.NewValueSourceChain(
					yaml.YAML("purge.hours", altsrc.StringSourcer(src)),
					yaml.YAML("cache.clean", altsrc.StringSourcer(src)),
				),
				Value: 24,
				Validator: NonNegative,
			},
		},
		Action: purgeAction,
	}).Build()
}

func purgeAction(ctx context.Context, cmd *cli.Command) error {
	if ShortCircuitTLDR(ctx, cmd, "purge") {
		return nil
	}

	deleter, err := NewDeleter(ctx)
	if err != nil {
		return err
	}

	n, err := cacheutil.Purge(ctx, cmd.String("cache-dir"), cmd.Int("hours"), deleter)
	fmt.Fprintf(writer(cmd), "purged %d artifacts\n", n)
	return err
}
