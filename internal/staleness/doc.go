// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

// Package staleness decides whether a derived artifact is older than the
// files it was computed from. Only modification times are compared.
package staleness
