package trace

import (
	"testing"

	"github.com/master-g/tracedbg/pkg/cpustate"
)

func twoStepTrace() []cpustate.Record {
	return []cpustate.Record{
		{PC: 0x1004, RW: map[int]uint64{5: 0x1000}},
		{PC: 0x1008, RW: map[int]uint64{11: 0x1020}},
	}
}

func newEngine() (*Engine, *cpustate.State) {
	cpu := cpustate.New(cpustate.RISCV64(), 0x1000, false)
	return NewEngine(twoStepTrace(), cpu), cpu
}

func TestSingleStep(test *testing.T) {
	e, cpu := newEngine()

	if !e.StepForward() {
		test.Fatal("StepForward returned false on first step")
	}
	if cpu.PC() != 0x1004 || cpu.ReadReg(5) != 0x1000 {
		test.Fatalf("after step 1: pc=%x x5=%x", cpu.PC(), cpu.ReadReg(5))
	}

	if !e.StepForward() {
		test.Fatal("StepForward returned false on second step")
	}
	if cpu.PC() != 0x1008 || cpu.ReadReg(11) != 0x1020 {
		test.Fatalf("after step 2: pc=%x x11=%x", cpu.PC(), cpu.ReadReg(11))
	}
}

func TestContinueToBreakpoint(test *testing.T) {
	e, cpu := newEngine()
	e.SetBreakpoint(0x1008)

	reason := e.RunForward()
	if reason != Trap {
		test.Fatalf("RunForward reason = %v, want Trap", reason)
	}
	if e.Index() != 2 {
		test.Fatalf("idx = %d, want 2", e.Index())
	}
	if cpu.PC() != 0x1008 {
		test.Fatalf("pc = %x, want 0x1008", cpu.PC())
	}
}

func TestContinuePastEnd(test *testing.T) {
	e, _ := newEngine()

	reason := e.RunForward()
	if reason != Exit {
		test.Fatalf("RunForward reason = %v, want Exit", reason)
	}
	if e.Index() != 2 {
		test.Fatalf("idx = %d, want 2", e.Index())
	}
	if e.Running() {
		test.Error("engine still running after end-of-trace")
	}
}

func TestReverseStepRestoresRegister(test *testing.T) {
	e, cpu := newEngine()

	e.StepForward()
	if cpu.ReadReg(5) != 0x1000 {
		test.Fatalf("x5 after forward step = %x, want 0x1000", cpu.ReadReg(5))
	}

	if !e.StepReverse() {
		test.Fatal("StepReverse returned false")
	}
	if cpu.ReadReg(5) != 0 {
		test.Errorf("x5 after reverse step = %x, want 0", cpu.ReadReg(5))
	}
	if cpu.PC() != 0x1000 {
		test.Errorf("pc after reverse step = %x, want 0x1000", cpu.PC())
	}
	if e.Index() != 0 {
		test.Errorf("idx after reverse step = %d, want 0", e.Index())
	}
}

func TestMemoryReplayAndReverse(test *testing.T) {
	cpu := cpustate.New(cpustate.RISCV64(), 0, false)
	records := []cpustate.Record{
		{PC: 0x2000, MW: []cpustate.MemWrite{{Addr: 0x80000000, Bytes: []byte{0xde, 0xad, 0xbe, 0xef}}}},
	}
	e := NewEngine(records, cpu)

	e.StepForward()
	if got := cpu.ReadMem(0x80000000, 4); string(got) != "\xde\xad\xbe\xef" {
		test.Fatalf("mem after forward = %x", got)
	}

	e.StepReverse()
	if got := cpu.ReadMem(0x80000000, 4); string(got) != "\xca\xca\xca\xca" {
		test.Fatalf("mem after reverse = %x, want sentinel", got)
	}
}

func TestBoundaryStepsAreNoOps(test *testing.T) {
	e, _ := newEngine()

	if e.StepReverse() {
		test.Error("StepReverse at idx=0 should return false")
	}
	if e.Index() != 0 {
		test.Errorf("idx moved on reverse no-op: %d", e.Index())
	}

	e.StepForward()
	e.StepForward()
	if e.StepForward() {
		test.Error("StepForward at idx=T should return false")
	}
	if e.Index() != 2 {
		test.Errorf("idx moved on forward no-op: %d", e.Index())
	}
}

func TestBreakpointDoesNotFireOnCurrentPC(test *testing.T) {
	e, cpu := newEngine()
	e.SetBreakpoint(cpu.PC()) // breakpoint on the starting PC

	reason := e.RunForward()
	// must not stop immediately; it only fires once execution returns to it
	if reason != Exit {
		test.Fatalf("breakpoint on start PC fired prematurely, reason=%v idx=%d", reason, e.Index())
	}
}
