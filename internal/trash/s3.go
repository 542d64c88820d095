// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package trash

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/apex/log"
	awsv2 "github.com/aws/aws-sdk-go-v2/aws"
	s3v2 "github.com/aws/aws-sdk-go-v2/service/s3"
)

// PutObjectAPI is the part of the S3 client S3 needs.
type PutObjectAPI interface {
	PutObject(ctx context.Context, params *s3v2.PutObjectInput, optFns ...func(*s3v2.Options)) (*s3v2.PutObjectOutput, error)
}

// S3 uploads a copy of the artifact to a bucket before removing it locally.
// Objects are keyed <Prefix>/<timestamp>/<computation>/<file>.
type S3 struct {
	Client PutObjectAPI
	Bucket string
	Prefix string

	now func() time.Time
}

func (s *S3) Delete(ctx context.Context, p string) error {
	if s.Client == nil || s.Bucket == "" {
		return fmt.Errorf("s3 trash needs a client and a bucket")
	}

	f, err := os.Open(p)
	if err != nil {
		return err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}
	if info.IsDir() {
		return fmt.Errorf("s3 trash only accepts files, %s is a directory", p)
	}

	key := s.objectKey(p)
	if _, err := s.Client.PutObject(ctx, &s3v2.PutObjectInput{
		Bucket:        awsv2.String(s.Bucket),
		Key:           awsv2.String(key),
		Body:          f,
		ContentLength: awsv2.Int64(info.Size()),
	}); err != nil {
		return fmt.Errorf("failed to upload %s to s3://%s/%s: %w", p, s.Bucket, key, err)
	}
	log.Debugf("uploaded %s to s3://%s/%s", p, s.Bucket, key)

	if err := os.Remove(p); err != nil {
		return fmt.Errorf("failed to remove %s after upload: %w", p, err)
	}
	return nil
}

func (s *S3) objectKey(p string) string {
	now := time.Now
	if s.now != nil {
		now = s.now
	}
	clean := filepath.ToSlash(filepath.Clean(p))
	name := path.Join(path.Base(path.Dir(clean)), path.Base(clean))
	return path.Join(strings.Trim(s.Prefix, "/"), now().UTC().Format("20060102T150405Z"), name)
}
