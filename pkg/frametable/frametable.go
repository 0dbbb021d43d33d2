// Copyright 2026 The mmusim Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package frametable tracks per-frame reference counts for physical
// memory.
package frametable

import (
	"fmt"

	"mmusim.dev/mmusim/pkg/machine"
)

// FrameTable holds one reference count (mapcount) per physical frame.
//
// Invariant: a frame is free iff its count is zero. The count equals
// the number of page-table entries, across all processes, that
// currently designate the frame, whether the mapping is present or
// pending copy-on-write materialization.
type FrameTable struct {
	counts     []uint32
	maxSharers uint32
}

// New returns a FrameTable for the given number of frames, all free.
func New(frames, maxSharers int) *FrameTable {
	return &FrameTable{
		counts:     make([]uint32, frames),
		maxSharers: uint32(maxSharers),
	}
}

// Frames returns the number of physical frames tracked.
func (ft *FrameTable) Frames() int {
	return len(ft.counts)
}

// Count returns the number of claimants of pfn.
func (ft *FrameTable) Count(pfn machine.PFN) uint32 {
	return ft.counts[pfn]
}

// Incr records an additional claimant of pfn.
//
// Precondition: pfn has fewer claimants than the machine's sharer cap.
func (ft *FrameTable) Incr(pfn machine.PFN) {
	if ft.counts[pfn] >= ft.maxSharers {
		panic(fmt.Sprintf("frame %d already has the maximum %d sharers", pfn, ft.maxSharers))
	}
	ft.counts[pfn]++
}

// Decr releases one claim on pfn.
//
// Precondition: pfn has at least one claimant.
func (ft *FrameTable) Decr(pfn machine.PFN) {
	if ft.counts[pfn] == 0 {
		panic(fmt.Sprintf("releasing free frame %d", pfn))
	}
	ft.counts[pfn]--
}

// FindFree returns the lowest-numbered free frame. ok is false iff no
// frame is free.
func (ft *FrameTable) FindFree() (pfn machine.PFN, ok bool) {
	for i := range ft.counts {
		if ft.counts[i] == 0 {
			return machine.PFN(i), true
		}
	}
	return 0, false
}

// InUse returns the number of frames with at least one claimant.
func (ft *FrameTable) InUse() int {
	n := 0
	for i := range ft.counts {
		if ft.counts[i] != 0 {
			n++
		}
	}
	return n
}
