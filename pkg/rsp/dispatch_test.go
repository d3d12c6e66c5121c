package rsp

import (
	"testing"

	"github.com/master-g/tracedbg/pkg/cpustate"
	"github.com/master-g/tracedbg/pkg/hexcodec"
	"github.com/master-g/tracedbg/pkg/trace"
)

func newDispatcher(records []cpustate.Record, initPC uint64) *Dispatcher {
	cpu := cpustate.New(cpustate.RISCV64(), initPC, false)
	engine := trace.NewEngine(records, cpu)
	return NewDispatcher(engine)
}

func TestUnknownCommand(t *testing.T) {
	d := newDispatcher(nil, 0)
	resp, send := d.Handle("qFoo")
	if !send || resp != "" {
		t.Errorf("Handle(qFoo) = (%q, %v), want (\"\", true)", resp, send)
	}
}

func TestQSupported(t *testing.T) {
	d := newDispatcher(nil, 0)
	resp, _ := d.Handle("qSupported:multiprocess+")
	if resp != qSupportedReply {
		t.Errorf("qSupported reply = %q", resp)
	}
}

func TestRegisterEcho(t *testing.T) {
	d := newDispatcher(nil, 0)
	v := uint64(0xdeadbeefcafef00d)
	write := "P5=" + hexcodec.FormatRegHex(v)
	if resp, _ := d.Handle(write); resp != "OK" {
		t.Fatalf("P5 write reply = %q", resp)
	}
	if resp, _ := d.Handle("p5"); resp != hexcodec.FormatRegHex(v) {
		t.Errorf("p5 read = %q, want %q", resp, hexcodec.FormatRegHex(v))
	}
}

func TestMemoryRoundTrip(t *testing.T) {
	d := newDispatcher(nil, 0)
	data := "deadbeef"
	if resp, _ := d.Handle("M80000000,4:" + data); resp != "OK" {
		t.Fatalf("M write reply = %q", resp)
	}
	if resp, _ := d.Handle("m80000000,4"); resp != data {
		t.Errorf("m read = %q, want %q", resp, data)
	}
}

func twoStepTrace() []cpustate.Record {
	return []cpustate.Record{
		{PC: 0x1004, RW: map[int]uint64{5: 0x1000}},
		{PC: 0x1008, RW: map[int]uint64{11: 0x1020}},
	}
}

func TestSingleStepScenario(t *testing.T) {
	d := newDispatcher(twoStepTrace(), 0x1000)

	resp, _ := d.Handle("s")
	if resp != "S05" {
		t.Fatalf("first step reply = %q", resp)
	}
	if d.engine.CPU().PC() != 0x1004 {
		t.Fatalf("pc after first step = %x", d.engine.CPU().PC())
	}

	resp, _ = d.Handle("s")
	if resp != "S05" {
		t.Fatalf("second step reply = %q", resp)
	}
	if d.engine.CPU().PC() != 0x1008 {
		t.Fatalf("pc after second step = %x", d.engine.CPU().PC())
	}
}

func TestContinueToBreakpointScenario(t *testing.T) {
	d := newDispatcher(twoStepTrace(), 0x1000)
	if resp, _ := d.Handle("Z0,1008,0"); resp != "OK" {
		t.Fatalf("Z reply = %q", resp)
	}
	resp, _ := d.Handle("c")
	if resp != "S05" {
		t.Fatalf("c reply = %q, want S05", resp)
	}
	if d.engine.Index() != 2 {
		t.Fatalf("idx = %d, want 2", d.engine.Index())
	}
}

func TestContinuePastEndScenario(t *testing.T) {
	d := newDispatcher(twoStepTrace(), 0x1000)
	resp, _ := d.Handle("c")
	if resp != "W00" {
		t.Fatalf("c reply = %q, want W00", resp)
	}
	if d.engine.Running() {
		t.Error("engine still running after W00")
	}
}

func TestVContBatched(t *testing.T) {
	d := newDispatcher(twoStepTrace(), 0x1000)
	resp, _ := d.Handle("vCont;s;s")
	if resp != "S05" {
		t.Fatalf("vCont reply = %q", resp)
	}
	if d.engine.Index() != 2 {
		t.Fatalf("idx = %d, want 2", d.engine.Index())
	}
}

func TestQCEchoesContThread(t *testing.T) {
	d := newDispatcher(nil, 0)
	d.Handle("Hc5")
	if resp, _ := d.Handle("qC"); resp != "5" {
		t.Errorf("qC reply = %q, want 5", resp)
	}
}
