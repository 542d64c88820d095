// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

// Package memo caches the results of file-derived computations on disk.
//
// A wrapped computation's result is stored under
// <root>/<name>/<key>.<format> and reused until one of the call's declared
// inputs is modified after the artifact was written. Only modification times
// are compared; content is never hashed.
//
//	sum := memo.MustFiles(sumFiles, memo.FilesConfig[[]string, int]{
//		Name:   "sum_files",
//		Inputs: func(files []string) []string { return files },
//	})
//	total, err := sum.Call(ctx, []string{"a.txt", "b.txt"})
//
// Tables (slices of structs) are stored as parquet when every row reads back
// unchanged, and everything else as gob. Concrete types behind an
// interface-typed result or field must be registered with gob.Register.
//
// Access to a single artifact is serialized within a process only. Several
// processes sharing one cache root may race.
package memo
