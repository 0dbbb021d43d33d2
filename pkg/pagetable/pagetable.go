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

// Package pagetable implements a per-process two-level sparse page
// table.
package pagetable

import (
	"fmt"

	"mmusim.dev/mmusim/pkg/machine"
)

// ShareClass records the permission intent a page was originally
// allocated with. It doubles as the liveness marker for a PTE: a PTE
// with ShareNone has never been mapped (or has been freed), while a
// non-present PTE with any other class still designates its frame and
// is pending copy-on-write materialization.
type ShareClass uint8

const (
	// ShareNone marks a PTE that maps nothing.
	ShareNone ShareClass = iota

	// ShareReadOnly marks a page allocated read-only. Such pages are
	// never writable and never split via copy-on-write.
	ShareReadOnly

	// ShareSharableWritable marks a page allocated writable. Such
	// pages may be shared read-only across forks and later split via
	// copy-on-write when written.
	ShareSharableWritable
)

// String implements fmt.Stringer.
func (c ShareClass) String() string {
	switch c {
	case ShareNone:
		return "none"
	case ShareReadOnly:
		return "read-only"
	case ShareSharableWritable:
		return "sharable-writable"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(c))
	}
}

// PTE is a page table entry: the mapping and permission state of one
// virtual page. PTEs are owned exclusively by one process's PageTable;
// fork duplicates values, never identity.
type PTE struct {
	// Present is true iff the translation is usable now. A PTE with
	// Present false but Share != ShareNone still designates Frame; the
	// mapping was revoked at fork time and is pending copy-on-write
	// materialization.
	Present bool

	// Writable is the current write permission.
	Writable bool

	// Frame is the designated physical frame. Only meaningful when
	// Share != ShareNone.
	Frame machine.PFN

	// Share is the permission intent the page was allocated with.
	Share ShareClass
}

// Maps returns true iff the PTE designates a frame, counting both
// present mappings and those pending copy-on-write materialization.
func (p *PTE) Maps() bool {
	return p.Share != ShareNone
}

// Directory is one fixed-fanout block of PTEs covering a contiguous
// VPN range.
type Directory struct {
	ptes []PTE
}

// PageTable maps a process's virtual page numbers to PTEs. Directories
// are allocated lazily on first mapping into their range; a VPN whose
// directory was never allocated has no entry at all, which the fault
// path distinguishes from a revoked mapping.
type PageTable struct {
	fanout int
	dirs   []*Directory
}

// New returns an empty PageTable for the given machine geometry.
func New(g machine.Geometry) *PageTable {
	return &PageTable{
		fanout: g.Fanout,
		dirs:   make([]*Directory, g.Fanout),
	}
}

// split decomposes vpn into directory and entry indices.
//
// Precondition: vpn is within the virtual address space.
func (pt *PageTable) split(vpn machine.VPN) (int, int) {
	di := int(vpn) / pt.fanout
	ti := int(vpn) % pt.fanout
	if di >= len(pt.dirs) {
		panic(fmt.Sprintf("vpn %d outside the %d-page address space", vpn, pt.fanout*pt.fanout))
	}
	return di, ti
}

// Entry returns the PTE for vpn, or nil if the covering directory has
// never been allocated.
func (pt *PageTable) Entry(vpn machine.VPN) *PTE {
	di, ti := pt.split(vpn)
	d := pt.dirs[di]
	if d == nil {
		return nil
	}
	return &d.ptes[ti]
}

// EnsureEntry returns the PTE for vpn, allocating the covering
// directory if needed.
func (pt *PageTable) EnsureEntry(vpn machine.VPN) *PTE {
	di, ti := pt.split(vpn)
	d := pt.dirs[di]
	if d == nil {
		d = &Directory{ptes: make([]PTE, pt.fanout)}
		pt.dirs[di] = d
	}
	return &d.ptes[ti]
}

// Clear resets the PTE for vpn to the unmapped state.
//
// Precondition: the covering directory has been allocated.
func (pt *PageTable) Clear(vpn machine.VPN) {
	di, ti := pt.split(vpn)
	d := pt.dirs[di]
	if d == nil {
		panic(fmt.Sprintf("clearing vpn %d in an unallocated directory", vpn))
	}
	d.ptes[ti] = PTE{}
}

// Walk calls f for every PTE slot in every allocated directory, in
// increasing VPN order. f may mutate the PTE through the pointer.
func (pt *PageTable) Walk(f func(vpn machine.VPN, pte *PTE)) {
	for di, d := range pt.dirs {
		if d == nil {
			continue
		}
		for ti := range d.ptes {
			f(machine.VPN(di*pt.fanout+ti), &d.ptes[ti])
		}
	}
}

// Directories returns the number of allocated directories.
func (pt *PageTable) Directories() int {
	n := 0
	for _, d := range pt.dirs {
		if d != nil {
			n++
		}
	}
	return n
}
