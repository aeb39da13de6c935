// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package framegraph

import (
	"fmt"

	"github.com/gogpu/framegraph/internal/deletion"
	"github.com/gogpu/framegraph/internal/pool"
)

// PoolStats reports transient pool occupancy and allocation counters.
type PoolStats = pool.Stats

// DeletionStats reports deferred deletion counters.
type DeletionStats = deletion.Stats

// Stats is a snapshot of the graph for the current frame.
type Stats struct {
	Frame uint64

	// Passes counts every added pass; Scheduled only those in the
	// execution order after a successful Compile.
	Passes    int
	Scheduled int

	Resources int
	Transient int
	Imported  int

	Pool      PoolStats
	Deletions DeletionStats
}

// String returns a human-readable string of graph stats.
func (s Stats) String() string {
	return fmt.Sprintf("Frame[%d: %d/%d passes, %d resources (%d transient, %d imported)] %s %s",
		s.Frame, s.Scheduled, s.Passes, s.Resources, s.Transient, s.Imported,
		s.Pool, s.Deletions)
}

// Stats returns a snapshot of the current frame, pool and deletion queue.
func (g *Graph) Stats() Stats {
	s := Stats{
		Frame:     g.frame,
		Passes:    len(g.passes),
		Scheduled: len(g.order),
		Resources: len(g.resources),
		Pool:      g.pool.Stats(),
		Deletions: g.deletions.Stats(),
	}
	for i := range g.resources {
		if g.resources[i].lifetime == Imported {
			s.Imported++
		} else {
			s.Transient++
		}
	}
	return s
}
