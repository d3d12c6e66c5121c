// Copyright © 2019 mg
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.

package cpustate

import (
	"fmt"
	"sort"
	"strings"

	"github.com/master-g/tracedbg/pkg/tracelog"
)

// SentinelByte is returned for any memory address never written.
const SentinelByte = 0xCA

// State is the fixed register file and sparse memory of one replay
// session. It is owned exclusively by the session's handler; nothing in
// this package is safe for concurrent use without external locking.
type State struct {
	profile Profile
	regs    []uint64
	mem     map[uint64]byte
	verbose bool
}

// New constructs a State for profile, with PC set to initPC and all other
// registers zeroed, per spec.md's "register file is zero-initialized; PC
// is set at construction."
func New(profile Profile, initPC uint64, verbose bool) *State {
	s := &State{
		profile: profile,
		regs:    make([]uint64, profile.NumReg),
		mem:     make(map[uint64]byte),
		verbose: verbose,
	}
	s.regs[profile.PCReg] = initPC
	return s
}

// Profile returns the machine profile this state was constructed with.
func (s *State) Profile() Profile { return s.profile }

// PC returns the current program counter.
func (s *State) PC() uint64 { return s.regs[s.profile.PCReg] }

// SetPC sets the program counter directly (used by P<PCReg>= writes and by
// ApplyDelta).
func (s *State) SetPC(v uint64) { s.regs[s.profile.PCReg] = v }

// ReadReg returns register i, or 0 with a warning if i is out of range.
func (s *State) ReadReg(i int) uint64 {
	if i < 0 || i >= len(s.regs) {
		tracelog.Warnf("cpustate: read of out-of-range register %d", i)
		return 0
	}
	return s.regs[i]
}

// WriteReg writes register i, or warns and drops the write if i is out of
// range.
func (s *State) WriteReg(i int, v uint64) {
	if i < 0 || i >= len(s.regs) {
		tracelog.Warnf("cpustate: write to out-of-range register %d dropped", i)
		return
	}
	s.regs[i] = v
}

// NumReg returns the register file length.
func (s *State) NumReg() int { return len(s.regs) }

// ReadMem reads n bytes starting at addr. Bytes never written read back as
// SentinelByte; if any are missing and verbose is set, one coalesced
// diagnostic is logged collapsing consecutive missing addresses into
// lo..hi ranges.
func (s *State) ReadMem(addr uint64, n int) []byte {
	out := make([]byte, n)
	var missing []uint64
	for i := 0; i < n; i++ {
		a := addr + uint64(i)
		if b, ok := s.mem[a]; ok {
			out[i] = b
		} else {
			out[i] = SentinelByte
			missing = append(missing, a)
		}
	}
	if s.verbose && len(missing) > 0 {
		tracelog.Infof("cpustate: accessing un-init addr: %s", formatRanges(missing))
	}
	return out
}

// WriteMem writes data starting at addr, creating entries as needed.
// Memory is never shrunk.
func (s *State) WriteMem(addr uint64, data []byte) {
	for i, b := range data {
		s.mem[addr+uint64(i)] = b
	}
}

// formatRanges collapses a sorted-by-construction list of addresses into
// "lo..hi" / "addr" comma-separated hex ranges, mirroring
// cpu_state.py's _format_non_init.
func formatRanges(addrs []uint64) string {
	sort.Slice(addrs, func(i, j int) bool { return addrs[i] < addrs[j] })
	var parts []string
	base, run := addrs[0], uint64(0)
	emit := func() {
		if run >= 1 {
			parts = append(parts, fmt.Sprintf("%x..%x", base, base+run))
		} else {
			parts = append(parts, fmt.Sprintf("%x", base))
		}
	}
	prev := addrs[0]
	for _, a := range addrs[1:] {
		if a == prev+1 {
			run++
		} else {
			emit()
			base, run = a, 0
		}
		prev = a
	}
	emit()
	return strings.Join(parts, ", ")
}

// ApplyDelta updates PC, then each register write in rec.RW, then each
// memory span in rec.MW, in that order. It returns a reverse delta built
// from the pre-images captured before each write commits: old PC, each
// old register value, and the exact bytes previously occupying every
// written memory span (including SentinelByte where untouched). Applying
// the returned reverse delta restores s to its pre-call state bit for
// bit.
func (s *State) ApplyDelta(rec Record) Record {
	rev := Record{PC: s.PC()}
	s.SetPC(rec.PC)

	if len(rec.RW) > 0 {
		rev.RW = make(map[int]uint64, len(rec.RW))
		for reg, val := range rec.RW {
			rev.RW[reg] = s.ReadReg(reg)
			s.WriteReg(reg, val)
		}
	}

	if len(rec.MW) > 0 {
		rev.MW = make([]MemWrite, 0, len(rec.MW))
		for _, mw := range rec.MW {
			old := s.ReadMem(mw.Addr, len(mw.Bytes))
			rev.MW = append(rev.MW, MemWrite{Addr: mw.Addr, Bytes: old})
			s.WriteMem(mw.Addr, mw.Bytes)
		}
	}

	return rev
}
