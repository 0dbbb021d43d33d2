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

package mmu

// ElementMapper provides an identity mapping by default.
//
// This can be replaced to provide a struct that maps elements to linker
// objects, if they are not the same. An ElementMapper is not typically
// required if: Linker is left as is, Element is left as is, or Linker and
// Element are the same type.
type processElementMapper struct{}

// linkerFor maps an Element to a Linker.
//
// This default implementation should be inlined.
//
//go:nosplit
func (processElementMapper) linkerFor(elem *Process) *Process { return elem }

// List is an intrusive list. Entries can be added to or removed from the list
// in O(1) time and with no additional memory allocations.
//
// The zero value for List is an empty list ready to use.
//
// To iterate over a list (where l is a List):
//      for e := l.Front(); e != nil; e = e.Next() {
// 		// do something with e.
//      }
type processList struct {
	head *Process
	tail *Process
}

// Reset resets list l to the empty state.
func (l *processList) Reset() {
	l.head = nil
	l.tail = nil
}

// Empty returns true iff the list is empty.
func (l *processList) Empty() bool {
	return l.head == nil
}

// Front returns the first element of list l or nil.
func (l *processList) Front() *Process {
	return l.head
}

// Back returns the last element of list l or nil.
func (l *processList) Back() *Process {
	return l.tail
}

// Len returns the number of elements in the list.
//
// NOTE: This is an O(n) operation.
func (l *processList) Len() (count int) {
	for e := l.Front(); e != nil; e = (processElementMapper{}.linkerFor(e)).Next() {
		count++
	}
	return count
}

// PushFront inserts the element e at the front of list l.
func (l *processList) PushFront(e *Process) {
	processElementMapper{}.linkerFor(e).SetNext(l.head)
	processElementMapper{}.linkerFor(e).SetPrev(nil)

	if l.head != nil {
		processElementMapper{}.linkerFor(l.head).SetPrev(e)
	} else {
		l.tail = e
	}

	l.head = e
}

// PushBack inserts the element e at the back of list l.
func (l *processList) PushBack(e *Process) {
	processElementMapper{}.linkerFor(e).SetNext(nil)
	processElementMapper{}.linkerFor(e).SetPrev(l.tail)

	if l.tail != nil {
		processElementMapper{}.linkerFor(l.tail).SetNext(e)
	} else {
		l.head = e
	}

	l.tail = e
}

// PushBackList inserts list m at the end of list l, emptying m.
func (l *processList) PushBackList(m *processList) {
	if l.head == nil {
		l.head = m.head
		l.tail = m.tail
	} else if m.head != nil {
		processElementMapper{}.linkerFor(l.tail).SetNext(m.head)
		processElementMapper{}.linkerFor(m.head).SetPrev(l.tail)

		l.tail = m.tail
	}

	m.head = nil
	m.tail = nil
}

// InsertAfter inserts e after b.
func (l *processList) InsertAfter(b, e *Process) {
	a := processElementMapper{}.linkerFor(b).Next()
	processElementMapper{}.linkerFor(e).SetNext(a)
	processElementMapper{}.linkerFor(e).SetPrev(b)
	processElementMapper{}.linkerFor(b).SetNext(e)

	if a != nil {
		processElementMapper{}.linkerFor(a).SetPrev(e)
	} else {
		l.tail = e
	}
}

// InsertBefore inserts e before a.
func (l *processList) InsertBefore(a, e *Process) {
	b := processElementMapper{}.linkerFor(a).Prev()
	processElementMapper{}.linkerFor(e).SetNext(a)
	processElementMapper{}.linkerFor(e).SetPrev(b)
	processElementMapper{}.linkerFor(a).SetPrev(e)

	if b != nil {
		processElementMapper{}.linkerFor(b).SetNext(e)
	} else {
		l.head = e
	}
}

// Remove removes e from l.
func (l *processList) Remove(e *Process) {
	prev := processElementMapper{}.linkerFor(e).Prev()
	next := processElementMapper{}.linkerFor(e).Next()

	if prev != nil {
		processElementMapper{}.linkerFor(prev).SetNext(next)
	} else {
		l.head = next
	}

	if next != nil {
		processElementMapper{}.linkerFor(next).SetPrev(prev)
	} else {
		l.tail = prev
	}

	processElementMapper{}.linkerFor(e).SetNext(nil)
	processElementMapper{}.linkerFor(e).SetPrev(nil)
}

// Entry is a default implementation of Linker. Users can add anonymous fields
// of this type to their structs to make them automatically implement the
// methods needed by List.
type processEntry struct {
	next *Process
	prev *Process
}

// Next returns the entry that follows e in the list.
func (e *processEntry) Next() *Process {
	return e.next
}

// Prev returns the entry that precedes e in the list.
func (e *processEntry) Prev() *Process {
	return e.prev
}

// SetNext assigns 'entry' as the entry that follows e in the list.
func (e *processEntry) SetNext(elem *Process) {
	e.next = elem
}

// SetPrev assigns 'entry' as the entry that precedes e in the list.
func (e *processEntry) SetPrev(elem *Process) {
	e.prev = elem
}
