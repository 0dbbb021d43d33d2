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

// Package machine defines the geometry of the emulated machine and the
// basic address and access types shared by the memory-management
// packages.
package machine

import (
	"fmt"

	"github.com/BurntSushi/toml"
)

// Geometry describes the fixed shape of the emulated machine. It is
// established once at startup and never changes while the machine runs.
type Geometry struct {
	// Fanout is the number of entries per page-table directory. The
	// page table has two levels with the same fanout, so the virtual
	// address space spans Fanout*Fanout pages.
	Fanout int `toml:"fanout"`

	// Frames is the number of physical page frames.
	Frames int `toml:"frames"`

	// TLBSlots is the number of translation cache slots.
	TLBSlots int `toml:"tlb_slots"`

	// MaxSharers is the largest number of page-table entries that may
	// designate a single physical frame at once.
	MaxSharers int `toml:"max_sharers"`
}

// Default returns the reference machine: 16-way page tables (256
// virtual pages), 128 physical frames, a 256-slot TLB, and at most 16
// sharers per frame.
func Default() Geometry {
	return Geometry{
		Fanout:     16,
		Frames:     128,
		TLBSlots:   256,
		MaxSharers: 16,
	}
}

// Load reads a Geometry from the TOML file at path. Fields absent from
// the file keep their Default() values.
func Load(path string) (Geometry, error) {
	g := Default()
	if _, err := toml.DecodeFile(path, &g); err != nil {
		return Geometry{}, fmt.Errorf("decoding machine geometry %q: %w", path, err)
	}
	if err := g.Validate(); err != nil {
		return Geometry{}, fmt.Errorf("invalid machine geometry %q: %w", path, err)
	}
	return g, nil
}

// Validate checks that every dimension is usable.
func (g Geometry) Validate() error {
	if g.Fanout <= 0 {
		return fmt.Errorf("fanout must be positive, got %d", g.Fanout)
	}
	if g.Frames <= 0 {
		return fmt.Errorf("frames must be positive, got %d", g.Frames)
	}
	if g.TLBSlots <= 0 {
		return fmt.Errorf("tlb_slots must be positive, got %d", g.TLBSlots)
	}
	if g.MaxSharers <= 0 {
		return fmt.Errorf("max_sharers must be positive, got %d", g.MaxSharers)
	}
	return nil
}

// NumPages returns the number of virtual pages each process can map.
func (g Geometry) NumPages() int {
	return g.Fanout * g.Fanout
}
