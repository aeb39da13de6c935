// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package passes provides reusable framegraph passes built on the gogpu HAL.
//
// Passes take their resources as *framegraph.TextureHandle and
// *framegraph.BufferHandle so that a handle produced by an earlier pass's
// Setup is read at Setup time, not when the pass is constructed. Setup
// runs in insertion order, so add the pass that creates a handle before
// the passes that consume it. A pass whose handle does not resolve at
// Execute time records nothing.
package passes
