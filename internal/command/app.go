// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"os"
	"sort"
	"strings"

	"github.com/apex/log"
	"github.com/urfave/cli/v3"

	"github.com/staranto/fsmemo/internal/cacheutil"
	"github.com/staranto/fsmemo/internal/config"
	"github.com/staranto/fsmemo/internal/meta"
	"github.com/staranto/fsmemo/internal/version"
)

// InitApp builds the fsmemo command tree for args.
func InitApp(ctx context.Context, args []string) (*cli.Command, error) {
	sd, _ := os.Getwd()

	// The arg immediately following the binary is the subcommand and also the
	// namespace used when retrieving config values. It could be -h/--help, so
	// ignore it if it appears to be a flag.
	var ns string
	if len(args) > 1 && !strings.HasPrefix(args[1], "-") {
		ns = args[1]
	}

	cfg, err := config.Load()
	if err != nil {
		// Running without a config file is normal.
		log.WithError(err).Debug("no config")
	}
	config.Config.Namespace = ns
	cfg.Namespace = ns

	m := meta.Meta{
		Args:        args,
		Config:      cfg,
		Context:     ctx,
		CacheRoot:   cacheutil.Dir(),
		StartingDir: sd,
	}

	app := &cli.Command{
		Name:  "fsmemo",
		Usage: "filesystem-backed function result cache",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "version",
				Aliases:     []string{"v"},
				Usage:       "fsmemo version info (" + version.Version + ")",
				HideDefault: true,
			},
		},
	}

	app.Commands = append(app.Commands,
		LsCommandBuilder(m),
		EvictCommandBuilder(m),
		PurgeCommandBuilder(m),
		SumCommandBuilder(m),
		SlotCommandBuilder(m),
		CompletionCommandBuilder(m),
	)

	// Make sure flags are sorted for the --help text.
	for _, cmd := range app.Commands {
		sort.Slice(cmd.Flags, func(i, j int) bool {
			return cmd.Flags[i].Names()[0] < cmd.Flags[j].Names()[0]
		})
	}

	return app, nil
}
