// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package store

import "strings"

// Path locates a collection or a single document inside the store.
// The partition shape is two-level: first by identity, then by thread.
type Path string

// ChatsPath returns the thread collection for an identity:
// tenant/{appID}/users/{identityID}/chats
func ChatsPath(appID, identityID string) Path {
	return Path("tenant/" + appID + "/users/" + identityID + "/chats")
}

// MessagesPath returns the message collection for one thread:
// tenant/{appID}/users/{identityID}/chats/{chatID}/messages
func MessagesPath(appID, identityID, chatID string) Path {
	return Path("tenant/" + appID + "/users/" + identityID + "/chats/" + chatID + "/messages")
}

// Doc returns the path of a single document within this collection.
func (p Path) Doc(id string) Path {
	return p + Path("/"+id)
}

// Split separates a document path into its parent collection and
// document id. Calling Split on a collection path returns the enclosing
// document path and the collection name, so only call it on document paths.
func (p Path) Split() (parent Path, id string) {
	s := string(p)
	i := strings.LastIndexByte(s, '/')
	if i < 0 {
		return "", s
	}
	return Path(s[:i]), s[i+1:]
}
