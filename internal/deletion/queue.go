// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package deletion delays the destruction of GPU objects until the frames
// that may still reference them have left the device.
//
// A resource released on the CPU in frame F can still be read by command
// buffers submitted in earlier frames. The queue holds it until frame
// F + DeferFrames begins and only then runs its destroy callback.
package deletion

import "fmt"

// DefaultDeferFrames is the default number of frames a deletion is held.
// It must be at least the number of command buffers the device keeps in
// flight.
const DefaultDeferFrames = 3

// Config holds configuration for creating a Queue.
type Config struct {
	// DeferFrames is how many frames pass between Enqueue and destruction.
	// Defaults to DefaultDeferFrames if zero.
	DeferFrames uint64
}

// Stats contains deletion queue statistics.
type Stats struct {
	// Pending is the number of entries waiting for their deadline.
	Pending int

	// Destroyed is the total number of entries destroyed so far.
	Destroyed uint64

	// Flushed is the number of entries destroyed by Flush rather than
	// by reaching their deadline.
	Flushed uint64
}

// String returns a human-readable string of deletion stats.
func (s Stats) String() string {
	return fmt.Sprintf("Deletions[%d pending, %d destroyed, %d flushed]",
		s.Pending, s.Destroyed, s.Flushed)
}

type entry struct {
	label    string
	destroy  func()
	deadline uint64
}

// Queue is a frame-latency deletion queue.
//
// Queue is not safe for concurrent use. It is owned by a single frame graph
// and driven from the thread that records frames.
type Queue struct {
	frame       uint64
	deferFrames uint64
	pending     []entry

	destroyed uint64
	flushed   uint64
}

// New creates an empty deletion queue.
func New(cfg Config) *Queue {
	d := cfg.DeferFrames
	if d == 0 {
		d = DefaultDeferFrames
	}
	return &Queue{deferFrames: d}
}

// DeferFrames returns the configured frame latency.
func (q *Queue) DeferFrames() uint64 { return q.deferFrames }

// Frame returns the frame index passed to the last BeginFrame.
func (q *Queue) Frame() uint64 { return q.frame }

// Len returns the number of pending entries.
func (q *Queue) Len() int { return len(q.pending) }

// BeginFrame records the current frame index and destroys every entry whose
// deadline has been reached. It returns the number of entries destroyed.
func (q *Queue) BeginFrame(frame uint64) int {
	q.frame = frame
	if len(q.pending) == 0 {
		return 0
	}

	// Destroy callbacks may enqueue more work; those land in q.pending
	// while we walk the snapshot.
	snapshot := q.pending
	q.pending = nil

	kept := make([]entry, 0, len(snapshot))
	n := 0
	for _, e := range snapshot {
		if frame < e.deadline {
			kept = append(kept, e)
			continue
		}
		q.run(e)
		n++
	}
	q.pending = append(kept, q.pending...)

	if n > 0 {
		slogger().Debug("deletion: released resources",
			"frame", frame, "count", n, "pending", len(q.pending))
	}
	return n
}

// Enqueue schedules destroy to run once the current frame plus DeferFrames
// has begun. A nil destroy is ignored.
func (q *Queue) Enqueue(label string, destroy func()) {
	if destroy == nil {
		return
	}
	q.pending = append(q.pending, entry{
		label:    label,
		destroy:  destroy,
		deadline: q.frame + q.deferFrames,
	})
}

// Flush destroys every pending entry immediately, regardless of deadline.
// Only call it when the device is known to be idle, e.g. at shutdown.
// It returns the number of entries destroyed.
func (q *Queue) Flush() int {
	n := 0
	for len(q.pending) > 0 {
		snapshot := q.pending
		q.pending = nil
		for _, e := range snapshot {
			q.run(e)
			n++
		}
	}
	q.flushed += uint64(n)
	if n > 0 {
		slogger().Debug("deletion: flushed", "count", n)
	}
	return n
}

// Stats returns current queue statistics.
func (q *Queue) Stats() Stats {
	return Stats{
		Pending:   len(q.pending),
		Destroyed: q.destroyed,
		Flushed:   q.flushed,
	}
}

func (q *Queue) run(e entry) {
	slogger().Debug("deletion: destroy", "label", e.label, "deadline", e.deadline)
	e.destroy()
	q.destroyed++
}
