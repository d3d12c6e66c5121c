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

package rsp

import (
	"strconv"
	"strings"

	"github.com/master-g/tracedbg/pkg/hexcodec"
	"github.com/master-g/tracedbg/pkg/trace"
	"github.com/master-g/tracedbg/pkg/tracelog"
)

// qSupportedReply advertises exactly what spec.md §4.5 calls for:
// hwbreak, vCont batching, and reverse execution, and explicitly not
// QStartNoAckMode/swbreak/multiprocess. The exact feature string follows
// minimal_rsp_server.py's handle_command.
const qSupportedReply = "qXfer:features:read-;swbreak-;hwbreak+;vContSupported+;" +
	"multiprocess-;QStartNoAckMode-;ReverseContinue+;ReverseStep+"

// Dispatcher decodes RSP command payloads into cpustate/trace.Engine
// operations and formats the replies. One Dispatcher serves one session;
// it borrows the Engine for the duration of each call to Handle.
type Dispatcher struct {
	engine *trace.Engine

	contThread       int64
	stateQueryThread int64

	// OnCommand, if set, is invoked after every handled command with the
	// raw payload — used by an optional live-state monitor. It must not
	// block.
	OnCommand func(payload string)
}

// NewDispatcher constructs a Dispatcher driving engine.
func NewDispatcher(engine *trace.Engine) *Dispatcher {
	return &Dispatcher{
		engine:           engine,
		contThread:       -1,
		stateQueryThread: -1,
	}
}

// Handle decodes one packet payload and returns the response to frame and
// send, and whether to send anything at all (false means "no reply",
// distinct from an empty-but-framed packet).
func (d *Dispatcher) Handle(payload string) (response string, send bool) {
	if d.OnCommand != nil {
		defer d.OnCommand(payload)
	}

	switch {
	case strings.HasPrefix(payload, "qSupported"):
		return qSupportedReply, true

	case payload == "?":
		return "S05", true

	case payload == "g":
		return d.readAllRegs(), true

	case strings.HasPrefix(payload, "G"):
		return d.writeAllRegs(payload[1:]), true

	case strings.HasPrefix(payload, "p"):
		return d.readReg(payload[1:]), true

	case strings.HasPrefix(payload, "P"):
		return d.writeReg(payload[1:]), true

	case strings.HasPrefix(payload, "m"):
		return d.readMem(payload[1:]), true

	case strings.HasPrefix(payload, "M"):
		return d.writeMem(payload[1:]), true

	case payload == "c":
		return d.stopReplyOf(d.engine.RunForward()), true

	case payload == "s":
		if !d.engine.StepForward() {
			return "W00", true // already at the end of the trace
		}
		return "S05", true // single-step always reports trap regardless of breakpoints

	case payload == "bc":
		return d.stopReplyOf(d.engine.RunReverse()), true

	case payload == "bs":
		if !d.engine.StepReverse() {
			return "W00", true // already at the start of the trace
		}
		return "S05", true

	case payload == "D":
		d.engine.Stop()
		return "OK", true

	case strings.HasPrefix(payload, "H"):
		return d.setThread(payload[1:]), true

	case payload == "qC":
		return strconv.FormatInt(d.contThread, 10), true

	case strings.HasPrefix(payload, "Z"):
		return d.insertBreakpoint(payload[1:]), true

	case strings.HasPrefix(payload, "z"):
		return d.removeBreakpoint(payload[1:]), true

	case payload == "qSymbol::":
		return "OK", true

	case payload == "qAttached":
		return "1", true

	case payload == "vMustReplyEmpty":
		return "", true

	case payload == "vCont?":
		return "vCont;c;s", true

	case strings.HasPrefix(payload, "vCont;"):
		return d.handleVCont(payload), true

	default:
		tracelog.Warnf("rsp: unknown command: %s", payload)
		return "", true
	}
}

func (d *Dispatcher) stopReplyOf(reason trace.StopReason) string {
	if reason == trace.Exit {
		return "W00"
	}
	return "S05"
}

func (d *Dispatcher) readAllRegs() string {
	cpu := d.engine.CPU()
	var sb strings.Builder
	for i := 0; i < cpu.NumReg(); i++ {
		sb.WriteString(hexcodec.FormatRegHex(cpu.ReadReg(i)))
	}
	return sb.String()
}

func (d *Dispatcher) writeAllRegs(hexBlob string) string {
	cpu := d.engine.CPU()
	for i := 0; i < cpu.NumReg(); i++ {
		if (i+1)*16 > len(hexBlob) {
			break
		}
		word := hexBlob[i*16 : (i+1)*16]
		v, err := hexcodec.ParseRegHex(word)
		if err != nil {
			tracelog.Warnf("rsp: G: bad register word %q: %v", word, err)
			continue
		}
		cpu.WriteReg(i, v)
	}
	return "OK"
}

func (d *Dispatcher) readReg(rest string) string {
	n, err := strconv.ParseUint(rest, 16, 64)
	if err != nil {
		tracelog.Warnf("rsp: p: bad register number %q", rest)
		return hexcodec.FormatRegHex(0)
	}
	return hexcodec.FormatRegHex(d.engine.CPU().ReadReg(int(n)))
}

func (d *Dispatcher) writeReg(rest string) string {
	parts := strings.SplitN(rest, "=", 2)
	if len(parts) != 2 {
		tracelog.Warnf("rsp: P: malformed payload %q", rest)
		return "OK"
	}
	n, err := strconv.ParseUint(parts[0], 16, 64)
	if err != nil {
		tracelog.Warnf("rsp: P: bad register number %q", parts[0])
		return "OK"
	}
	v, err := hexcodec.ParseRegHex(parts[1])
	if err != nil {
		tracelog.Warnf("rsp: P: bad register value %q", parts[1])
		return "OK"
	}
	d.engine.CPU().WriteReg(int(n), v)
	return "OK"
}

func (d *Dispatcher) readMem(rest string) string {
	addrHex, lenHex, ok := splitOnComma(rest)
	if !ok {
		tracelog.Warnf("rsp: m: malformed payload %q", rest)
		return ""
	}
	addr, err := strconv.ParseUint(addrHex, 16, 64)
	if err != nil {
		tracelog.Warnf("rsp: m: bad address %q", addrHex)
		return ""
	}
	length, err := strconv.ParseUint(lenHex, 16, 64)
	if err != nil {
		tracelog.Warnf("rsp: m: bad length %q", lenHex)
		return ""
	}
	data := d.engine.CPU().ReadMem(addr, int(length))
	return hexcodec.EncodeBytes(data)
}

func (d *Dispatcher) writeMem(rest string) string {
	head, dataHex, ok := splitOnColon(rest)
	if !ok {
		tracelog.Warnf("rsp: M: malformed payload %q", rest)
		return "OK"
	}
	addrHex, _, ok := splitOnComma(head)
	if !ok {
		tracelog.Warnf("rsp: M: malformed header %q", head)
		return "OK"
	}
	addr, err := strconv.ParseUint(addrHex, 16, 64)
	if err != nil {
		tracelog.Warnf("rsp: M: bad address %q", addrHex)
		return "OK"
	}
	data, err := hexcodec.DecodeBytes(dataHex)
	if err != nil {
		tracelog.Warnf("rsp: M: bad data %q: %v", dataHex, err)
		return "OK"
	}
	d.engine.CPU().WriteMem(addr, data)
	return "OK"
}

func (d *Dispatcher) setThread(rest string) string {
	if len(rest) < 1 {
		tracelog.Warnf("rsp: H: malformed payload %q", rest)
		return "OK"
	}
	op := rest[0]
	tid, err := strconv.ParseInt(rest[1:], 10, 64)
	if err != nil {
		tracelog.Warnf("rsp: H: bad thread id %q", rest[1:])
		return "OK"
	}
	switch op {
	case 'c':
		d.contThread = tid
	case 'g':
		d.stateQueryThread = tid
	}
	return "OK"
}

func (d *Dispatcher) insertBreakpoint(rest string) string {
	addr, ok := parseBreakpointAddr(rest)
	if !ok {
		tracelog.Warnf("rsp: Z: malformed payload %q", rest)
		return "OK"
	}
	d.engine.SetBreakpoint(addr)
	return "OK"
}

func (d *Dispatcher) removeBreakpoint(rest string) string {
	addr, ok := parseBreakpointAddr(rest)
	if !ok {
		tracelog.Warnf("rsp: z: malformed payload %q", rest)
		return "OK"
	}
	d.engine.ClearBreakpoint(addr)
	return "OK"
}

// parseBreakpointAddr extracts addr from "<type>,<addr>,<kind>". Type and
// kind are accepted but not distinguished, per spec.md §3.
func parseBreakpointAddr(rest string) (uint64, bool) {
	parts := strings.Split(rest, ",")
	if len(parts) != 3 {
		return 0, false
	}
	addr, err := strconv.ParseUint(parts[1], 16, 64)
	if err != nil {
		return 0, false
	}
	return addr, true
}

func (d *Dispatcher) handleVCont(payload string) string {
	actions := strings.Split(payload[len("vCont;"):], ";")
	response := "OK"
	for _, action := range actions {
		if action == "" {
			continue
		}
		kind := action
		if idx := strings.Index(action, ":"); idx >= 0 {
			kind = action[:idx]
		}
		switch kind {
		case "s":
			if d.engine.StepForward() {
				response = "S05"
			} else {
				response = "W00"
			}
		case "c":
			response = d.stopReplyOf(d.engine.RunForward())
		}
	}
	return response
}

func splitOnComma(s string) (a, b string, ok bool) {
	i := strings.Index(s, ",")
	if i < 0 {
		return "", "", false
	}
	return s[:i], s[i+1:], true
}

func splitOnColon(s string) (a, b string, ok bool) {
	i := strings.Index(s, ":")
	if i < 0 {
		return "", "", false
	}
	return s[:i], s[i+1:], true
}
