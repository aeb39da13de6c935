// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package cache provides a small generic LRU cache for compiled GPU
// artifacts such as SPIR-V modules.
//
//	modules := cache.New[string, []uint32](64)
//	words, err := modules.GetOrCreate(src, func() ([]uint32, error) {
//	    return compile(src)
//	})
//
// Cache is safe for concurrent use and must not be copied after creation.
package cache
