// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

// Package output filters, sorts and renders datasets for commands as text
// tables, json or yaml.
package output
