// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the main chat view for the TUI: a thread
// sidebar, the active thread's message log, and the input line.
//
// The view is a plain Bubble Tea model. It never talks to the document
// store directly; thread and message state arrives as sync events
// (forwarded into the program as messages), and sends go through the
// pipeline. Everything on screen is a render of the last pushed state.
package chat
