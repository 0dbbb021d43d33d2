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

package main

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"mmusim.dev/mmusim/pkg/machine"
	"mmusim.dev/mmusim/pkg/mmu"
)

type opKind int

const (
	opAlloc opKind = iota
	opFree
	opAccess
	opSwitch
)

// op is one parsed trace operation.
type op struct {
	kind opKind
	vpn  machine.VPN
	pid  mmu.PID
	at   machine.AccessType
	line int
}

// parseTrace reads a trace, one operation per line. Blank lines and
// lines starting with '#' are skipped. The grammar:
//
//	alloc <vpn> <r|w>
//	free <vpn>
//	read <vpn>
//	write <vpn>
//	switch <pid>
func parseTrace(r io.Reader) ([]op, error) {
	var ops []op
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
			continue
		}
		o, err := parseOp(fields)
		if err != nil {
			return nil, fmt.Errorf("trace line %d: %w", line, err)
		}
		o.line = line
		ops = append(ops, o)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading trace: %w", err)
	}
	return ops, nil
}

func parseOp(fields []string) (op, error) {
	arg := func() (uint32, error) {
		if len(fields) < 2 {
			return 0, fmt.Errorf("%s: missing argument", fields[0])
		}
		n, err := strconv.ParseUint(fields[1], 10, 32)
		if err != nil {
			return 0, fmt.Errorf("%s: bad argument %q", fields[0], fields[1])
		}
		return uint32(n), nil
	}

	switch fields[0] {
	case "alloc":
		n, err := arg()
		if err != nil {
			return op{}, err
		}
		if len(fields) != 3 {
			return op{}, fmt.Errorf("alloc: want \"alloc <vpn> <r|w>\", got %q", strings.Join(fields, " "))
		}
		o := op{kind: opAlloc, vpn: machine.VPN(n)}
		switch fields[2] {
		case "r":
			o.at = machine.Read
		case "w":
			o.at = machine.ReadWrite
		default:
			return op{}, fmt.Errorf("alloc: bad intent %q, want r or w", fields[2])
		}
		return o, nil
	case "free":
		n, err := arg()
		if err != nil {
			return op{}, err
		}
		if len(fields) != 2 {
			return op{}, fmt.Errorf("free: want \"free <vpn>\"")
		}
		return op{kind: opFree, vpn: machine.VPN(n)}, nil
	case "read", "write":
		n, err := arg()
		if err != nil {
			return op{}, err
		}
		if len(fields) != 2 {
			return op{}, fmt.Errorf("%s: want \"%s <vpn>\"", fields[0], fields[0])
		}
		o := op{kind: opAccess, vpn: machine.VPN(n), at: machine.Read}
		if fields[0] == "write" {
			o.at = machine.Write
		}
		return o, nil
	case "switch":
		n, err := arg()
		if err != nil {
			return op{}, err
		}
		if len(fields) != 2 {
			return op{}, fmt.Errorf("switch: want \"switch <pid>\"")
		}
		return op{kind: opSwitch, pid: mmu.PID(n)}, nil
	default:
		return op{}, fmt.Errorf("unknown operation %q", fields[0])
	}
}

// execute runs ops against m, logging each step. Allocation failures
// and unresolvable faults are reported and the remainder of the trace
// continues.
func execute(m *mmu.MMU, ops []op, log *logrus.Logger) {
	for _, o := range ops {
		entry := log.WithFields(logrus.Fields{
			"line": o.line,
			"pid":  m.Current().ID,
		})
		switch o.kind {
		case opAlloc:
			pfn, err := m.Allocate(o.vpn, o.at)
			if err != nil {
				entry.WithField("vpn", o.vpn).Warnf("alloc failed: %v", err)
				continue
			}
			entry.WithFields(logrus.Fields{"vpn": o.vpn, "pfn": pfn}).Debug("alloc")
		case opFree:
			m.Free(o.vpn)
			entry.WithField("vpn", o.vpn).Debug("free")
		case opAccess:
			pfn, ok := m.Translate(o.vpn, o.at)
			if !ok {
				if !m.HandleFault(o.vpn, o.at) {
					entry.WithFields(logrus.Fields{"vpn": o.vpn, "access": o.at.String()}).Error("unresolvable fault")
					continue
				}
				pfn, ok = m.Translate(o.vpn, o.at)
				if !ok {
					entry.WithFields(logrus.Fields{"vpn": o.vpn, "access": o.at.String()}).Error("translation failed after fault resolution")
					continue
				}
			}
			entry.WithFields(logrus.Fields{"vpn": o.vpn, "pfn": pfn, "access": o.at.String()}).Debug("access")
		case opSwitch:
			m.SwitchOrFork(o.pid)
			entry.WithField("next", o.pid).Debug("switch")
		}
	}
}
