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

package pagetable

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"mmusim.dev/mmusim/pkg/machine"
)

func testGeometry() machine.Geometry {
	g := machine.Default()
	g.Fanout = 4 // 16 virtual pages
	return g
}

func TestEntryBeforeDirectoryAllocation(t *testing.T) {
	pt := New(testGeometry())
	if pte := pt.Entry(5); pte != nil {
		t.Errorf("Entry(5) before any mapping: got %+v, want nil", pte)
	}
	if got := pt.Directories(); got != 0 {
		t.Errorf("Directories: got %d, want 0", got)
	}
}

func TestEnsureEntryAllocatesLazily(t *testing.T) {
	pt := New(testGeometry())
	pte := pt.EnsureEntry(5)
	if pte == nil {
		t.Fatal("EnsureEntry(5) returned nil")
	}
	if diff := cmp.Diff(PTE{}, *pte); diff != "" {
		t.Errorf("fresh PTE is not zero (-want +got):\n%s", diff)
	}
	// VPN 5 lives in directory 1; directory 0 must stay unallocated.
	if got := pt.Directories(); got != 1 {
		t.Errorf("Directories: got %d, want 1", got)
	}
	if pte := pt.Entry(0); pte != nil {
		t.Errorf("Entry(0): got %+v, want nil (directory 0 untouched)", pte)
	}
	// Same slot on repeat.
	if again := pt.EnsureEntry(5); again != pte {
		t.Error("EnsureEntry(5) returned a different slot on repeat")
	}
}

func TestEntriesAreIndependent(t *testing.T) {
	pt := New(testGeometry())
	a := pt.EnsureEntry(4)
	b := pt.EnsureEntry(5) // same directory, adjacent slot
	a.Present = true
	a.Frame = 9
	a.Share = ShareReadOnly
	if b.Present || b.Share != ShareNone {
		t.Errorf("mutating vpn 4 leaked into vpn 5: %+v", *b)
	}
}

func TestClear(t *testing.T) {
	pt := New(testGeometry())
	pte := pt.EnsureEntry(7)
	pte.Present = true
	pte.Writable = true
	pte.Frame = 3
	pte.Share = ShareSharableWritable
	pt.Clear(7)
	if diff := cmp.Diff(PTE{}, *pt.Entry(7)); diff != "" {
		t.Errorf("PTE after Clear (-want +got):\n%s", diff)
	}
}

func TestWalkOrder(t *testing.T) {
	pt := New(testGeometry())
	for _, vpn := range []machine.VPN{14, 2, 7} {
		pte := pt.EnsureEntry(vpn)
		pte.Present = true
		pte.Share = ShareReadOnly
	}
	var got []machine.VPN
	pt.Walk(func(vpn machine.VPN, pte *PTE) {
		if pte.Present {
			got = append(got, vpn)
		}
	})
	want := []machine.VPN{2, 7, 14}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Walk order (-want +got):\n%s", diff)
	}
}

func TestOutOfRangePanics(t *testing.T) {
	pt := New(testGeometry())
	defer func() {
		if recover() == nil {
			t.Error("Entry outside the address space did not panic")
		}
	}()
	pt.Entry(16)
}
