// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"reflect"

	"github.com/apex/log"
	"github.com/urfave/cli/v3"

	"github.com/staranto/fsmemo/internal/attrs"
	"github.com/staranto/fsmemo/internal/aws"
	"github.com/staranto/fsmemo/internal/config"
	"github.com/staranto/fsmemo/internal/key"
	"github.com/staranto/fsmemo/internal/meta"
	"github.com/staranto/fsmemo/internal/output"
	"github.com/staranto/fsmemo/internal/trash"
	"github.com/staranto/fsmemo/memo"
)

// ShortCircuitTLDR checks the --tldr flag and, if present and available,
// runs `tldr fsmemo <subcmd>` and returns true so the caller can exit early.
func ShortCircuitTLDR(ctx context.Context, cmd *cli.Command, subcmd string) bool {
	if cmd.Bool("tldr") {
		if _, err := exec.LookPath("tldr"); err == nil {
			c := exec.CommandContext(ctx, "tldr", "fsmemo", subcmd)
			c.Stdout = writer(cmd)
			c.Stderr = os.Stderr
			_ = c.Run()
		}
		return true
	}
	return false
}

// DumpSchemaIfRequested prints the attributes of the provided type when
// --schema is set, and returns true if it handled the request.
func DumpSchemaIfRequested(cmd *cli.Command, t reflect.Type) bool {
	if cmd.Bool("schema") {
		output.DumpSchema(writer(cmd), t)
		return true
	}
	return false
}

// BuildAttrs constructs an AttrList with defaults and optional extras from
// --attrs, then applies the global transform spec.
func BuildAttrs(cmd *cli.Command, defaults ...string) (al attrs.AttrList, err error) {
	for _, d := range defaults {
		if err = al.Set(d); err != nil {
			return nil, err
		}
	}
	if extras := cmd.String("attrs"); extras != "" {
		if err = al.Set(extras); err != nil {
			return nil, fmt.Errorf("invalid --attrs: %w", err)
		}
	}
	al.SetGlobalTransformSpec()
	return al, nil
}

// EmitJSON marshals rows as a JSON array and passes it to the common output
// routine.
func EmitJSON(rows any, al attrs.AttrList, cmd *cli.Command) error {
	b, err := json.Marshal(rows)
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	return output.SliceDiceSpit(*bytes.NewBuffer(b), al, cmd, "", writer(cmd))
}

// GetMeta returns the meta.Meta stored in the command's Metadata. If missing
// or of an unexpected type, it returns the zero value.
func GetMeta(cmd *cli.Command) meta.Meta {
	if cmd == nil || cmd.Metadata == nil {
		return meta.Meta{}
	}
	if m, ok := cmd.Metadata["meta"].(meta.Meta); ok {
		return m
	}
	return meta.Meta{}
}

// writer is where command output goes. Subcommands inherit the root's so
// tests can capture it.
func writer(cmd *cli.Command) io.Writer {
	if cmd != nil {
		if w := cmd.Root().Writer; w != nil {
			return w
		}
	}
	return os.Stdout
}

// NewRuntime builds the memo runtime the commands work against: --cache-dir
// for the root, key.digest for shortening and trash.mode for deletion.
func NewRuntime(ctx context.Context, cmd *cli.Command) (*memo.Runtime, error) {
	root := cmd.String("cache-dir")
	if root == "" {
		root = GetMeta(cmd).CacheRoot
	}

	digest, _ := config.GetString("key.digest", "")
	d, err := key.ParseDigest(digest)
	if err != nil {
		return nil, err
	}

	deleter, err := NewDeleter(ctx)
	if err != nil {
		return nil, err
	}

	return memo.NewRuntime(
		memo.WithRoot(root),
		memo.WithDigest(d),
		memo.WithDeleter(deleter),
	), nil
}

// NewDeleter maps trash.mode to a Deleter. The S3 client is only built for
// the s3 mode.
func NewDeleter(ctx context.Context) (trash.Deleter, error) {
	mode, _ := config.GetString("trash.mode", "")
	return trash.ParseMode(mode, func() (trash.Deleter, error) {
		return newS3Deleter(ctx)
	})
}

func newS3Deleter(ctx context.Context) (trash.Deleter, error) {
	bucket, _ := config.GetString("trash.bucket", "")
	if bucket == "" {
		return nil, errors.New("trash.bucket is required when trash.mode is s3")
	}

	var opts []aws.Option
	if v, _ := config.GetString("trash.profile", ""); v != "" {
		opts = append(opts, aws.WithProfile(v))
	}
	if v, _ := config.GetString("trash.region", ""); v != "" {
		opts = append(opts, aws.WithRegion(v))
	}
	if v, _ := config.GetString("trash.endpoint", ""); v != "" {
		opts = append(opts, aws.WithEndpoint(v))
	}

	client, err := aws.NewS3Client(ctx, opts...)
	if err != nil {
		return nil, err
	}
	prefix, _ := config.GetString("trash.prefix", "")
	log.Debugf("s3 trash: bucket=%s prefix=%s", bucket, prefix)

	return &trash.S3{Client: client, Bucket: bucket, Prefix: prefix}, nil
}

// CommandBuilder constructs a cli.Command for fsmemo subcommands using a
// consistent pattern. Listing commands get the global output flags and
// --schema; every command gets --tldr and --cache-dir.
type CommandBuilder struct {
	Name      string
	Usage     string
	UsageText string
	Flags     []cli.Flag
	Action    func(context.Context, *cli.Command) error
	Meta      meta.Meta
	Listing   bool
}

// Build returns a configured cli.Command from the builder.
func (cb *CommandBuilder) Build() *cli.Command {
	flags := append([]cli.Flag{}, cb.Flags...)
	flags = append(flags, newTldrFlag(), NewCacheDirFlag())
	if cb.Listing {
		flags = append(flags, newSchemaFlag())
		flags = append(flags, NewGlobalFlags(cb.Name)...)
	}

	return &cli.Command{
		Name:      cb.Name,
		Usage:     cb.Usage,
		UsageText: cb.UsageText,
		Metadata: map[string]any{
			"meta": cb.Meta,
		},
		Flags: flags,
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			config.Config.Namespace = cb.Name
			return ctx, nil
		},
		Action: cb.Action,
	}
}

// ListingActionRunner[T] encapsulates the common pattern of the listing
// commands: short-circuits, attrs, fetching and output. FetchFn supplies the
// rows.
type ListingActionRunner[T any] struct {
	CommandName  string
	SchemaType   reflect.Type
	DefaultAttrs []string
	FetchFn      func(context.Context, *cli.Command) ([]T, error)
}

// Run executes the listing action with the provided context and command.
func (lar *ListingActionRunner[T]) Run(ctx context.Context, cmd *cli.Command) error {
	m := GetMeta(cmd)
	if len(m.Args) > 1 {
		log.Debugf("Executing action for %v", m.Args[1:])
	}

	if ShortCircuitTLDR(ctx, cmd, lar.CommandName) {
		return nil
	}
	if DumpSchemaIfRequested(cmd, lar.SchemaType) {
		return nil
	}

	al, err := BuildAttrs(cmd, lar.DefaultAttrs...)
	if err != nil {
		return err
	}
	log.Debugf("attrs: %v", al)

	rows, err := lar.FetchFn(ctx, cmd)
	if err != nil {
		return err
	}

	return EmitJSON(rows, al, cmd)
}
