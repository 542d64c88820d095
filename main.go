// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/apex/log"

	"github.com/staranto/fsmemo/internal/command"
	"github.com/staranto/fsmemo/internal/config"
	mylog "github.com/staranto/fsmemo/internal/log"
	"github.com/staranto/fsmemo/internal/version"
)

var ctx = context.Background()

func main() {
	os.Exit(realMain())
}

func realMain() int {
	mylog.InitLogger()

	args := os.Args

	if len(args) < 2 {
		fmt.Fprintln(os.Stderr, "No command specified.")
		args = append(args, "--help")
	} else {
		args = mangleArguments(args)
	}

	// Short-circuit --version/-v.
	for _, a := range args {
		if a == "--version" || a == "-v" {
			fmt.Println(version.Version)
			return 0
		}
	}

	app, err := command.InitApp(ctx, args)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	if err := app.Run(ctx, args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	return 0
}

// mangleArguments expands an @set argument into the flags listed under
// <command>.<set> in fsmemo.yaml. Without an @set, <command>.defaults is
// used when present.
func mangleArguments(args []string) []string {
	// We know the first two args are going to be the executable and command.
	if strings.HasPrefix(args[1], "-") {
		return args
	}

	// Short-circuit for --help/-h. If help is requested, just keep the preamble
	// and add --help flag.
	for _, a := range args {
		if a == "--help" || a == "-h" {
			return []string{args[0], args[1], "--help"}
		}
	}

	out := make([]string, 2, len(args)+4)
	copy(out, args[:2])
	rest := args[2:]

	// If there is a @set, that becomes our insertion point and the @set entry
	// is removed from args.
	set := "defaults"
	idx := 0
	for i, a := range rest {
		if strings.HasPrefix(a, "@") && len(a) > 1 {
			set = a[1:]
			idx = i
			rest = append(append([]string{}, rest[:i]...), rest[i+1:]...)
			break
		}
	}

	var setArgs []string
	for _, arg := range configSet(args[1], set) {
		setArgs = append(setArgs, strings.Fields(arg)...)
	}

	out = append(out, rest[:idx]...)
	out = append(out, setArgs...)
	out = append(out, rest[idx:]...)

	log.Debugf("set=%s, args=%v", set, out)
	return out
}

func configSet(cmd, set string) []string {
	setArgs, err := config.GetStringSlice(cmd + "." + set)
	if err != nil {
		log.Debugf("no %s.%s set: %v", cmd, set, err)
		return nil
	}
	return setArgs
}
