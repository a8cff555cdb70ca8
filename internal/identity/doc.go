// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package identity establishes who the client is acting for.
//
// A Session starts Unresolved and makes a single transition to Resolved
// once the identity provider returns (or creates) an identity. Nothing
// else in the system (thread sync, message sync, the send pipeline)
// may proceed while the session is Unresolved.
//
// Providers are injected (never ambient singletons) so tests can
// substitute fakes. The shipped RESTProvider talks to a hosted
// anonymous-auth endpoint; MemProvider hands out process-local
// identities for --offline mode and tests.
package identity
