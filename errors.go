// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package framegraph

import (
	"errors"
	"fmt"
	"strings"
)

// Frame graph errors.
var (
	// ErrCycle is returned when the declared dependencies of a frame form a
	// cycle. Use errors.As with *CycleError to get the passes involved.
	ErrCycle = errors.New("framegraph: dependency cycle")

	// ErrAllocation is returned when a transient resource cannot be backed.
	// Use errors.As with *AllocationError to get the resource name.
	ErrAllocation = errors.New("framegraph: transient allocation failed")

	// ErrAlreadyExecuted is returned by a second Execute in the same frame.
	ErrAlreadyExecuted = errors.New("framegraph: frame already executed")

	// ErrFrameEnded is returned when compiling or executing after EndFrame,
	// once transient resources have gone back to the pool.
	ErrFrameEnded = errors.New("framegraph: frame already ended")
)

// CycleError reports the passes that could not be ordered. Passes lists
// every pass left with unresolved dependencies, in insertion order; it is a
// superset of the cycle itself when other passes depend on it.
type CycleError struct {
	Passes []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("%v: %d passes cannot be ordered: %s",
		ErrCycle, len(e.Passes), strings.Join(e.Passes, ", "))
}

// Unwrap returns ErrCycle.
func (e *CycleError) Unwrap() error { return ErrCycle }

// AllocationError reports a transient resource that the pool could not back.
type AllocationError struct {
	Resource string
	Err      error
}

func (e *AllocationError) Error() string {
	return fmt.Sprintf("%v: resource %q: %v", ErrAllocation, e.Resource, e.Err)
}

// Unwrap returns both ErrAllocation and the underlying cause.
func (e *AllocationError) Unwrap() []error { return []error{ErrAllocation, e.Err} }
