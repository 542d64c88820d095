// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

// Package driller resolves dotted paths, with optional [n] indexes, inside
// JSON rows.
package driller
