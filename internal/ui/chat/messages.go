// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"github.com/Onrion/t3-cloneathon/internal/chatsync"
	"github.com/Onrion/t3-cloneathon/internal/config"
)

// =============================================================================
// BUBBLE TEA MESSAGES
// =============================================================================

// SyncMsg carries a sync event into the Bubble Tea update loop. The
// app wiring forwards chatsync notifications with program.Send.
type SyncMsg struct {
	Event chatsync.Event
}

// sendResultMsg reports the outcome of a send command. The resulting
// turns arrive separately through the message subscription; this only
// clears the in-flight UI state and surfaces rejections.
type sendResultMsg struct {
	err error
}

// watchResultMsg reports a failed message subscription switch.
type watchResultMsg struct {
	threadID string
	err      error
}

// threadOpMsg reports the outcome of a create or delete operation.
type threadOpMsg struct {
	op  string
	err error
}

// ConfigReloadedMsg carries a hot-reloaded configuration.
type ConfigReloadedMsg struct {
	Config *config.Config
}
