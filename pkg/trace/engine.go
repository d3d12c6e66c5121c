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

// Package trace implements the bidirectional replay engine: a cursor over
// a finite trace that mutates cpustate.State forward and reconstructs
// prior state exactly on reverse motion, using the reverse delta each
// forward step records.
package trace

import "github.com/master-g/tracedbg/pkg/cpustate"

// StopReason is why a run_forward/run_reverse loop stopped.
type StopReason int

const (
	// Trap means execution stopped at a breakpoint (or a single step
	// completed); report S05.
	Trap StopReason = iota
	// Exit means the trace was exhausted in this direction; report W00.
	Exit
)

// Engine owns the trace, its parallel reverse-delta buffer, the cursor,
// the breakpoint set, and the CPU state it mutates. It is the sole owner
// of all of these for the duration of a session.
type Engine struct {
	records     []cpustate.Record
	reverse     []cpustate.Record
	idx         int
	breakpoints map[uint64]struct{}
	cpu         *cpustate.State
	running     bool
}

// NewEngine constructs an Engine over records, driving cpu. The cursor
// starts at 0, matching "idx = 0 is the initial state."
func NewEngine(records []cpustate.Record, cpu *cpustate.State) *Engine {
	return &Engine{
		records:     records,
		reverse:     make([]cpustate.Record, len(records)),
		idx:         0,
		breakpoints: make(map[uint64]struct{}),
		cpu:         cpu,
		running:     true,
	}
}

// CPU returns the CPU state this engine drives.
func (e *Engine) CPU() *cpustate.State { return e.cpu }

// Index returns the current cursor position, in [0, len(trace)].
func (e *Engine) Index() int { return e.idx }

// Len returns the trace length T.
func (e *Engine) Len() int { return len(e.records) }

// Running reports whether the session is still active (cleared on detach
// or end-of-trace).
func (e *Engine) Running() bool { return e.running }

// Stop clears the running flag.
func (e *Engine) Stop() { e.running = false }

// SetBreakpoint adds addr to the breakpoint set. Breakpoint kind/type
// bytes from Z/z packets are accepted by callers but not distinguished
// here: all breakpoints are PC-address matches.
func (e *Engine) SetBreakpoint(addr uint64) { e.breakpoints[addr] = struct{}{} }

// ClearBreakpoint removes addr from the breakpoint set.
func (e *Engine) ClearBreakpoint(addr uint64) { delete(e.breakpoints, addr) }

func (e *Engine) hitBreakpoint() bool {
	_, ok := e.breakpoints[e.cpu.PC()]
	return ok
}

// StepForward applies records[idx] to the CPU, stores its reverse delta,
// and advances idx. It returns false (and stops the session) if idx is
// already at the end of the trace.
func (e *Engine) StepForward() bool {
	if e.idx == len(e.records) {
		e.Stop()
		return false
	}
	rev := e.cpu.ApplyDelta(e.records[e.idx])
	e.reverse[e.idx] = rev
	e.idx++
	return true
}

// StepReverse decrements idx and applies the reverse delta stored at the
// new idx (structurally the same apply_delta operation as forward
// motion). It returns false (and stops the session) if idx is already 0.
func (e *Engine) StepReverse() bool {
	if e.idx == 0 {
		e.Stop()
		return false
	}
	e.idx--
	e.cpu.ApplyDelta(e.reverse[e.idx])
	return true
}

// RunForward repeats StepForward until either the post-step PC matches a
// breakpoint (Trap) or the trace is exhausted (Exit). The breakpoint is
// checked after the step is applied, against the new PC, so a breakpoint
// on the current PC does not fire until execution leaves and returns.
func (e *Engine) RunForward() StopReason {
	for e.StepForward() {
		if e.hitBreakpoint() {
			return Trap
		}
	}
	return Exit
}

// RunReverse is the symmetric reverse-motion counterpart of RunForward.
func (e *Engine) RunReverse() StopReason {
	for e.StepReverse() {
		if e.hitBreakpoint() {
			return Trap
		}
	}
	return Exit
}
