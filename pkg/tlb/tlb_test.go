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

package tlb

import (
	"testing"

	"mmusim.dev/mmusim/pkg/machine"
)

func TestLookupMiss(t *testing.T) {
	tl := New(4)
	if pfn, ok := tl.Lookup(3); ok {
		t.Errorf("Lookup(3) on empty TLB: got (%d, true), want miss", pfn)
	}
}

func TestInsertLookup(t *testing.T) {
	tl := New(4)
	tl.Insert(3, 7)
	pfn, ok := tl.Lookup(3)
	if !ok || pfn != 7 {
		t.Errorf("Lookup(3): got (%d, %t), want (7, true)", pfn, ok)
	}
	// Lookup must be idempotent: no recency bookkeeping, no eviction.
	pfn, ok = tl.Lookup(3)
	if !ok || pfn != 7 {
		t.Errorf("second Lookup(3): got (%d, %t), want (7, true)", pfn, ok)
	}
}

func TestInsertRefreshesExisting(t *testing.T) {
	tl := New(4)
	tl.Insert(3, 7)
	tl.Insert(3, 9)
	if pfn, _ := tl.Lookup(3); pfn != 9 {
		t.Errorf("Lookup(3) after refresh: got %d, want 9", pfn)
	}
	if got := tl.Valid(); got != 1 {
		t.Errorf("valid slots after refresh: got %d, want 1", got)
	}
}

func TestInsertFullDropped(t *testing.T) {
	tl := New(2)
	tl.Insert(0, 10)
	tl.Insert(1, 11)
	tl.Insert(2, 12)
	if _, ok := tl.Lookup(2); ok {
		t.Error("Lookup(2): insertion into a full TLB should have been dropped")
	}
	if pfn, ok := tl.Lookup(0); !ok || pfn != 10 {
		t.Errorf("Lookup(0): got (%d, %t), want (10, true)", pfn, ok)
	}
}

func TestInvalidate(t *testing.T) {
	tl := New(4)
	tl.Insert(3, 7)
	tl.Insert(4, 8)
	tl.Invalidate(3)
	if _, ok := tl.Lookup(3); ok {
		t.Error("Lookup(3) after Invalidate(3): want miss")
	}
	if pfn, ok := tl.Lookup(4); !ok || pfn != 8 {
		t.Errorf("Lookup(4): got (%d, %t), want (8, true)", pfn, ok)
	}
	// The invalidated slot is reusable.
	tl.Insert(5, 9)
	if pfn, ok := tl.Lookup(5); !ok || pfn != 9 {
		t.Errorf("Lookup(5): got (%d, %t), want (9, true)", pfn, ok)
	}
}

func TestFlush(t *testing.T) {
	tl := New(4)
	for i := 0; i < 4; i++ {
		tl.Insert(machine.VPN(i), machine.PFN(i+10))
	}
	tl.Flush()
	if got := tl.Valid(); got != 0 {
		t.Errorf("valid slots after Flush: got %d, want 0", got)
	}
	for i := 0; i < 4; i++ {
		if _, ok := tl.Lookup(machine.VPN(i)); ok {
			t.Errorf("Lookup(%d) after Flush: want miss", i)
		}
	}
}
