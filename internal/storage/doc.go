// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

// Package storage persists computed values as cache artifacts. The format of
// an artifact is encoded in its file extension: tables go to parquet, all
// other values to gob.
package storage
