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

// Package tlb implements a fixed-capacity associative translation
// cache.
package tlb

import (
	"mmusim.dev/mmusim/pkg/machine"
)

type slot struct {
	valid bool
	vpn   machine.VPN
	pfn   machine.PFN
}

// TLB caches VPN to PFN translations for the running process.
//
// The TLB is not address-space tagged: entries are only meaningful for
// the process that populated them, so the owner must Flush on every
// context change. There is no replacement policy; Insert into a full
// TLB is dropped. Capacity is expected to comfortably exceed the
// working set.
type TLB struct {
	slots []slot
}

// New returns a TLB with the given number of slots, all invalid.
func New(slots int) *TLB {
	return &TLB{slots: make([]slot, slots)}
}

// Lookup returns the cached frame for vpn, if any. There are no
// ordering or recency semantics; any valid matching slot serves the
// translation.
func (t *TLB) Lookup(vpn machine.VPN) (machine.PFN, bool) {
	for i := range t.slots {
		s := &t.slots[i]
		if s.valid && s.vpn == vpn {
			return s.pfn, true
		}
	}
	return 0, false
}

// Insert caches the translation vpn -> pfn. A valid slot already
// holding vpn is refreshed in place so a VPN never occupies two slots;
// otherwise the first invalid slot is used. If every slot is valid the
// insertion is dropped.
func (t *TLB) Insert(vpn machine.VPN, pfn machine.PFN) {
	free := -1
	for i := range t.slots {
		s := &t.slots[i]
		if s.valid && s.vpn == vpn {
			s.pfn = pfn
			return
		}
		if !s.valid && free < 0 {
			free = i
		}
	}
	if free < 0 {
		return
	}
	t.slots[free] = slot{valid: true, vpn: vpn, pfn: pfn}
}

// Invalidate drops any cached translation for vpn.
func (t *TLB) Invalidate(vpn machine.VPN) {
	for i := range t.slots {
		s := &t.slots[i]
		if s.valid && s.vpn == vpn {
			s.valid = false
		}
	}
}

// Flush invalidates every slot. Must be called on every context
// switch: the same VPN names different frames across processes.
func (t *TLB) Flush() {
	for i := range t.slots {
		t.slots[i].valid = false
	}
}

// Valid returns the number of valid slots.
func (t *TLB) Valid() int {
	n := 0
	for i := range t.slots {
		if t.slots[i].valid {
			n++
		}
	}
	return n
}
