// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"os"
	"os/exec"

	altsrc "github.com/urfave/cli-altsrc/v3"
	yaml "github.com/urfave/cli-altsrc/v3/yaml"
	"github.com/urfave/cli/v3"
	"golang.org/x/term"

	"github.com/staranto/fsmemo/internal/cacheutil"
	"github.com/staranto/fsmemo/internal/config"
)

func newSchemaFlag() *cli.BoolFlag {
	return &cli.BoolFlag{
		Name:        "schema",
		Usage:       "dump the schema",
		HideDefault: true,
	}
}

func newTldrFlag() *cli.BoolFlag {
	return &cli.BoolFlag{
		Name:        "tldr",
		Usage:       "show tldr page",
		Hidden:      !pathHas("tldr"),
		HideDefault: true,
	}
}

// cfgSource is the config file the altsrc sources read. An empty path makes
// every yaml source a miss.
func cfgSource() string {
	if config.Config.Source == "" {
		_, _ = config.Load()
	}
	return config.Config.Source
}

// NewGlobalFlags returns the output shaping flags shared by the listing
// commands. Values not given on the command line come from ns.<flag>, then
// <flag>, in fsmemo.yaml.
func NewGlobalFlags(ns string) []cli.Flag {
	src := cfgSource()

	return []cli.Flag{
		&cli.StringFlag{
			Name:    "attrs",
			Aliases: []string{"a"},
			Usage:   "comma-separated list of attributes to include in results",
		},
		&cli.BoolWithInverseFlag{
			Name:    "color",
			Aliases: []string{"c"},
			Usage:   "enable colored text output",
			Sources: cli.NewValueSourceChain(
				yaml.YAML(ns+".color", altsrc.StringSourcer(src)),
				yaml.YAML("color", altsrc.StringSourcer(src)),
			),
			Value: term.IsTerminal(int(os.Stdout.Fd())),
		},
		&cli.StringFlag{
			Name:    "filter",
			Aliases: []string{"f"},
			Usage:   "comma-separated list of filters to apply to results",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "output format",
			Sources: cli.NewValueSourceChain(
				yaml.YAML(ns+".output", altsrc.StringSourcer(src)),
				yaml.YAML("output", altsrc.StringSourcer(src)),
			),
			Value: "text",
			Validator: All[string](NotJammed, OneOf(outputFormats...)),
		},
		&cli.StringFlag{
			Name:    "sort",
			Aliases: []string{"s"},
			Usage:   "comma-separated list of attributes to sort the results by",
			Sources: cli.NewValueSourceChain(
				yaml.YAML(ns+".sort", altsrc.StringSourcer(src)),
			),
		},
		&cli.BoolWithInverseFlag{
			Name:    "titles",
			Aliases: []string{"t"},
			Usage:   "show titles with text output",
			Sources: cli.NewValueSourceChain(
				yaml.YAML(ns+".titles", altsrc.StringSourcer(src)),
				yaml.YAML("titles", altsrc.StringSourcer(src)),
			),
			Value: false,
		},
	}
}

// NewCacheDirFlag is the cache root, defaulting to cacheutil.Dir.
func NewCacheDirFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:    "cache-dir",
		Aliases: []string{"d"},
		Usage:   "cache root directory",
		Sources: cli.NewValueSourceChain(
			cli.EnvVar(cacheutil.DirEnv),
			yaml.YAML("cache.dir", altsrc.StringSourcer(cfgSource())),
		),
		Value: cacheutil.Dir(),
		Validator: All[string](NotJammed, NotAFile),
	}
}

// pathHas reports whether target is on the PATH.
func pathHas(target string) bool {
	_, err := exec.LookPath(target)
	return err == nil
}
