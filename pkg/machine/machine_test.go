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

package machine

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestDefaultValid(t *testing.T) {
	g := Default()
	if err := g.Validate(); err != nil {
		t.Errorf("Default().Validate() = %v, want nil", err)
	}
	if got := g.NumPages(); got != 256 {
		t.Errorf("Default().NumPages() = %d, want 256", got)
	}
}

func TestValidate(t *testing.T) {
	for _, test := range []struct {
		name   string
		mutate func(*Geometry)
	}{
		{"zero fanout", func(g *Geometry) { g.Fanout = 0 }},
		{"negative frames", func(g *Geometry) { g.Frames = -1 }},
		{"zero tlb slots", func(g *Geometry) { g.TLBSlots = 0 }},
		{"zero max sharers", func(g *Geometry) { g.MaxSharers = 0 }},
	} {
		t.Run(test.name, func(t *testing.T) {
			g := Default()
			test.mutate(&g)
			if err := g.Validate(); err == nil {
				t.Errorf("Validate() on %+v = nil, want error", g)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "machine.toml")
	const data = `
fanout = 8
frames = 32
max_sharers = 4
`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := Geometry{
		Fanout:     8,
		Frames:     32,
		TLBSlots:   256, // unset, keeps the default
		MaxSharers: 4,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Load (-want +got):\n%s", diff)
	}
}

func TestLoadInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "machine.toml")
	if err := os.WriteFile(path, []byte("frames = 0\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("Load with frames = 0: want error, got nil")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
		t.Error("Load of a missing file: want error, got nil")
	}
}

func TestAccessTypeString(t *testing.T) {
	for _, test := range []struct {
		at   AccessType
		want string
	}{
		{NoAccess, "--"},
		{Read, "r-"},
		{Write, "-w"},
		{ReadWrite, "rw"},
	} {
		if got := test.at.String(); got != test.want {
			t.Errorf("%#v.String() = %q, want %q", test.at, got, test.want)
		}
	}
}
