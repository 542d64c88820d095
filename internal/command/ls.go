// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"reflect"

	"github.com/apex/log"
	"github.com/urfave/cli/v3"

	"github.com/staranto/fsmemo/internal/cacheutil"
	"github.com/staranto/fsmemo/internal/meta"
)

var lsDefaultAttrs = []string{"name,key,format,size::b,modified::r,!path"}

// LsCommandBuilder constructs the ls command, listing cached slots.
func LsCommandBuilder(m meta.Meta) *cli.Command {
	runner := &ListingActionRunner[cacheutil.Entry]{
		CommandName:  "ls",
		SchemaType:   reflect.TypeOf(cacheutil.Entry{}),
		DefaultAttrs: lsDefaultAttrs,
		FetchFn:      lsFetch,
	}

	return (&CommandBuilder{
		Name:      "ls",
		Usage:     "list cached slots",
		UsageText: "fsmemo ls [name...] [options]",
		Meta:      m,
		Listing:   true,
		Action:    runner.Run,
	}).Build()
}

func lsFetch(_ context.Context, cmd *cli.Command) ([]cacheutil.Entry, error) {
	root := cmd.String("cache-dir")
	entries, err := cacheutil.Entries(root, cmd.Args().Slice()...)
	if err != nil {
		return nil, err
	}
	log.Debugf("ls: %d entries under %s", len(entries), root)
	return entries, nil
}
