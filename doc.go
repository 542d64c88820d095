// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

// fsmemo inspects and maintains a filesystem memoization cache, and runs a
// small memoized demo. It wires the CLI and delegates to internal packages.
package main
