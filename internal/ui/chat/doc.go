// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the Bubble Tea chat view: a viewport transcript,
// a textarea input, and a live streaming segment fed by response patches
// arriving from the session controller's sink.
package chat
