// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

// Package trash deletes cache artifacts. Recoverable deleters move files to
// the platform trash or an S3 bucket; Unlinker deletes permanently and is
// always the last resort.
package trash
