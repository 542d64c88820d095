// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"errors"
	"reflect"

	"github.com/urfave/cli/v3"

	"github.com/staranto/fsmemo/internal/meta"
)

// SlotRow is how the slot command reports a resolved slot.
type SlotRow struct {
	Name     string `json:"name"`
	Material string `json:"material"`
	Stem     string `json:"stem"`
	Format   string `json:"format"`
	Path     string `json:"path"`
	Exists   bool   `json:"exists"`
}

var slotDefaultAttrs = []string{"name,material,stem,format,exists"}

// SlotCommandBuilder constructs the slot command, which shows where a call
// with the given key material is cached.
func SlotCommandBuilder(m meta.Meta) *cli.Command {
	runner := &ListingActionRunner[SlotRow]{
		CommandName:  "slot",
		SchemaType:   reflect.TypeOf(SlotRow{}),
		DefaultAttrs: slotDefaultAttrs,
		FetchFn:      slotFetch,
	}

	return (&CommandBuilder{
		Name:      "slot",
		Usage:     "resolve the slot for a computation name and key material",
		UsageText: "fsmemo slot <name> <material> [options]",
		Meta:      m,
		Listing:   true,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "raw",
				Usage: "use the material as the file name instead of its digest",
			},
		},
		Action: runner.Run,
	}).Build()
}

func slotFetch(ctx context.Context, cmd *cli.Command) ([]SlotRow, error) {
	if cmd.Args().Len() != 2 {
		return nil, errors.New("slot needs a computation name and key material")
	}
	name, material := cmd.Args().Get(0), cmd.Args().Get(1)

	rt, err := NewRuntime(ctx, cmd)
	if err != nil {
		return nil, err
	}
	info, err := rt.Resolve(name, material, !cmd.Bool("raw"))
	if err != nil {
		return nil, err
	}

	return []SlotRow{{
		Name:     name,
		Material: material,
		Stem:     info.Stem,
		Format:   info.Format.String(),
		Path:     info.Path,
		Exists:   info.Path != "",
	}}, nil
}
