// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat runs exchanges between the conversation and a remote chat
// capability.
//
// # Key Types
//
//   - Backend: creates a Session from a history snapshot
//   - Session: streams the reply to one message as text deltas
//   - Controller: the exchange state machine; accumulates deltas into the
//     placeholder and rebuilds the session from the full history afterwards
//   - StreamFailure: the single error an exchange can end with
//
// # Usage
//
//	ctrl := chat.NewController(conv, backend, logger)
//	_ = ctrl.Init(ctx)
//	if ex, ok := ctrl.Begin(ctx, "hello"); ok {
//	    for ev := range ctrl.Stream(ctx, ex) {
//	        ctrl.Apply(ctx, ev)
//	    }
//	}
//
// Stream may run on any goroutine; Begin and Apply must run on the one that
// owns the conversation.
package chat
