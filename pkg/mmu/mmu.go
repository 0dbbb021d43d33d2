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

// Package mmu emulates a memory-management unit for a toy
// multi-process machine: translation caching, per-process two-level
// page tables, physical-frame allocation with reference counting,
// copy-on-write fault resolution, and context switching with on-demand
// fork.
//
// The MMU is single-threaded: exactly one process is current and every
// operation runs to completion before the next begins. Each operation
// leaves the frame table, page tables, and TLB mutually consistent.
package mmu

import (
	"errors"
	"fmt"

	"mmusim.dev/mmusim/pkg/frametable"
	"mmusim.dev/mmusim/pkg/machine"
	"mmusim.dev/mmusim/pkg/pagetable"
	"mmusim.dev/mmusim/pkg/tlb"
)

// ErrOutOfMemory is returned by Allocate when no physical frame is
// free. It is a failure value, not a fatal condition; the caller
// decides how to proceed.
var ErrOutOfMemory = errors.New("out of physical memory")

// PID identifies a process.
type PID uint32

// Process is one schedulable address space: a pid and its page table.
// Processes are created by fork and never destroyed; a Process is
// either current or linked into the ready list.
type Process struct {
	processEntry

	// ID is the process identifier.
	ID PID

	// PageTable is the process's address space. Owned exclusively by
	// this process.
	PageTable *pagetable.PageTable
}

// MMU is the machine-wide memory-management state. The zero value is
// not usable; call New.
type MMU struct {
	geo    machine.Geometry
	frames *frametable.FrameTable
	tlb    *tlb.TLB

	// current is the running process. ptbr aliases
	// current.PageTable; it is the page-table base register every
	// translation walks.
	current *Process
	ptbr    *pagetable.PageTable

	// ready holds every non-running process in FIFO order.
	ready processList
}

// New returns an MMU for the given geometry: all frames free, all TLB
// slots invalid, and a single initial process (pid 0) current.
func New(g machine.Geometry) (*MMU, error) {
	if err := g.Validate(); err != nil {
		return nil, err
	}
	init := &Process{ID: 0, PageTable: pagetable.New(g)}
	return &MMU{
		geo:     g,
		frames:  frametable.New(g.Frames, g.MaxSharers),
		tlb:     tlb.New(g.TLBSlots),
		current: init,
		ptbr:    init.PageTable,
	}, nil
}

// Geometry returns the machine geometry the MMU was built with.
func (m *MMU) Geometry() machine.Geometry {
	return m.geo
}

// Current returns the running process.
func (m *MMU) Current() *Process {
	return m.current
}

// Processes returns the running process followed by the ready list in
// FIFO order.
func (m *MMU) Processes() []*Process {
	ps := []*Process{m.current}
	for p := m.ready.Front(); p != nil; p = p.Next() {
		ps = append(ps, p)
	}
	return ps
}

// FrameCount returns the number of claimants of pfn. Exposed for
// drivers and tests that audit reference counts.
func (m *MMU) FrameCount(pfn machine.PFN) uint32 {
	return m.frames.Count(pfn)
}

// Translate resolves vpn for the current process, or reports a fault.
//
// Read accesses may be served from the TLB. Write accesses always walk
// the page table, since TLB slots carry no permission bits and a
// cached translation must never contradict the page table's write
// protection. A successful walk populates the TLB.
func (m *MMU) Translate(vpn machine.VPN, at machine.AccessType) (machine.PFN, bool) {
	if !at.Write {
		if pfn, ok := m.tlb.Lookup(vpn); ok {
			return pfn, true
		}
	}
	pte := m.ptbr.Entry(vpn)
	if pte == nil || !pte.Present {
		return 0, false
	}
	if at.Write && !pte.Writable {
		return 0, false
	}
	m.tlb.Insert(vpn, pte.Frame)
	return pte.Frame, true
}

// Allocate maps vpn in the current process to the lowest-numbered free
// physical frame. If at requests write access the page is allocated
// writable and sharable; otherwise it is read-only and never eligible
// for copy-on-write.
//
// Allocate fails with ErrOutOfMemory when no frame is free, in which
// case no state is mutated. It never touches the TLB: a fresh mapping
// is only cached on first translation use.
func (m *MMU) Allocate(vpn machine.VPN, at machine.AccessType) (machine.PFN, error) {
	pfn, ok := m.frames.FindFree()
	if !ok {
		return 0, ErrOutOfMemory
	}
	pte := m.ptbr.EnsureEntry(vpn)
	pte.Present = true
	pte.Frame = pfn
	if at.Write {
		pte.Writable = true
		pte.Share = pagetable.ShareSharableWritable
	} else {
		pte.Writable = false
		pte.Share = pagetable.ShareReadOnly
	}
	m.frames.Incr(pfn)
	return pfn, nil
}

// Free unmaps vpn in the current process: the designated frame loses
// one claimant, the PTE is reset, and any cached translation is
// dropped. Sharers of the frame in other processes are unaffected.
//
// Precondition: vpn is mapped in the current process.
func (m *MMU) Free(vpn machine.VPN) {
	pte := m.ptbr.Entry(vpn)
	if pte == nil || !pte.Maps() {
		panic(fmt.Sprintf("freeing unmapped vpn %d in pid %d", vpn, m.current.ID))
	}
	m.frames.Decr(pte.Frame)
	m.ptbr.Clear(vpn)
	m.tlb.Invalidate(vpn)
}

// HandleFault resolves a faulting access to vpn for the current
// process. It returns true iff the fault was resolved and the
// translation is now usable.
//
// Faults are classified in order:
//
//  1. The covering directory was never allocated: the VPN was never
//     touched by this process. Unrecoverable.
//
//  2. The PTE designates a frame but is not present. This state only
//     arises from fork-time copy-on-write setup. If this process is
//     the frame's sole remaining claimant the mapping is revalidated
//     in place; otherwise the claim is released and a private frame is
//     bound instead (copy-on-write materialization).
//
//  3. The PTE is present but write-protected, the page was allocated
//     sharable-writable, and the access is a write. If this process is
//     the sole claimant the PTE is promoted writable in place;
//     otherwise the claim is released and a private writable frame is
//     bound.
//
// Anything else is not a recoverable fault. Whenever resolution
// rebinds the PTE to a new frame the VPN's cached translation is
// invalidated first.
func (m *MMU) HandleFault(vpn machine.VPN, at machine.AccessType) bool {
	pte := m.ptbr.Entry(vpn)
	if pte == nil {
		return false
	}

	if !pte.Present {
		if !pte.Maps() {
			// Never mapped, or freed: nothing to materialize.
			return false
		}
		if m.frames.Count(pte.Frame) == 1 {
			// Sole claimant: the frame is already private.
			pte.Present = true
			return true
		}
		return m.materialize(vpn, pte, at)
	}

	if !pte.Writable && pte.Share == pagetable.ShareSharableWritable && at.Write {
		if m.frames.Count(pte.Frame) == 1 {
			// Sole claimant: promote in place.
			pte.Writable = true
			return true
		}
		return m.materialize(vpn, pte, at)
	}

	return false
}

// materialize performs the copy-on-write split: the current process
// releases its claim on pte's shared frame and binds a fresh private
// one. The sibling claimants keep the old frame.
func (m *MMU) materialize(vpn machine.VPN, pte *pagetable.PTE, at machine.AccessType) bool {
	old := pte.Frame
	m.frames.Decr(old)
	m.tlb.Invalidate(vpn)
	if _, err := m.Allocate(vpn, at); err != nil {
		// No private frame available. Restore the claim on the shared
		// frame and report the fault unresolved.
		m.frames.Incr(old)
		return false
	}
	return true
}

// SwitchOrFork makes pid the running process. If pid is on the ready
// list this is a plain context switch: the previous current goes to
// the tail of the ready list. Otherwise pid names a new child forked
// from the running process, with copy-on-write sharing set up across
// both page tables.
//
// The TLB is flushed unconditionally: translations are never valid
// across a context change.
func (m *MMU) SwitchOrFork(pid PID) {
	m.tlb.Flush()

	for p := m.ready.Front(); p != nil; p = p.Next() {
		if p.ID == pid {
			m.ready.Remove(p)
			m.ready.PushBack(m.current)
			m.current = p
			m.ptbr = p.PageTable
			return
		}
	}

	m.fork(pid)
}

// fork creates a child of the running process and makes it current.
//
// Every present PTE is value-copied into the child and the designated
// frame gains the child as a claimant. Sharable-writable pages are
// write-protected on both sides so that the first write on either side
// triggers materialization; read-only pages are copied as-is.
func (m *MMU) fork(pid PID) {
	parent := m.current
	child := &Process{ID: pid, PageTable: pagetable.New(m.geo)}

	parent.PageTable.Walk(func(vpn machine.VPN, pte *pagetable.PTE) {
		if !pte.Present {
			return
		}
		cpte := child.PageTable.EnsureEntry(vpn)
		*cpte = *pte
		if pte.Share == pagetable.ShareSharableWritable {
			pte.Writable = false
			cpte.Writable = false
		}
		m.frames.Incr(pte.Frame)
	})

	m.ready.PushBack(parent)
	m.current = child
	m.ptbr = child.PageTable
}
