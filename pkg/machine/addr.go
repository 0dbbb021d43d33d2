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

// VPN is a virtual page number, an index into a process's virtual
// address space. VPNs are only meaningful relative to a process's page
// table; the same VPN names different frames in different processes.
type VPN uint32

// PFN is a physical frame number, an index into the machine's physical
// memory.
type PFN uint32

// AccessType specifies memory access types. This is used for
// permission intents on allocation as well as for classifying faulting
// accesses.
type AccessType struct {
	// Read is read access.
	Read bool

	// Write is write access.
	Write bool
}

// String implements fmt.Stringer.
func (a AccessType) String() string {
	bits := [2]byte{'-', '-'}
	if a.Read {
		bits[0] = 'r'
	}
	if a.Write {
		bits[1] = 'w'
	}
	return string(bits[:])
}

// Any returns true iff at least one of a's access types is requested.
func (a AccessType) Any() bool {
	return a.Read || a.Write
}

// Convenient access types.
var (
	NoAccess  = AccessType{}
	Read      = AccessType{Read: true}
	Write     = AccessType{Write: true}
	ReadWrite = AccessType{Read: true, Write: true}
)
