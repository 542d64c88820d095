// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

// Package key renders call arguments into stable key material and shortens
// it into fixed-length fingerprints used as cache file names.
package key
