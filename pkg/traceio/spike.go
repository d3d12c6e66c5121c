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

package traceio

import (
	"bufio"
	"fmt"
	"os"
	"regexp"

	"github.com/master-g/tracedbg/pkg/cpustate"
	"github.com/master-g/tracedbg/pkg/tracelog"
)

// LoadSpike parses a spike ISS commit log. Each retired instruction is
// two lines: a disassembly line ("core N: pc (ins) asm") and a status
// line ("core N: <seq> pc (ins) [reg val] [mem addr [val]]"). Grounded
// line-for-line on trace_utils/spike_trace.py.
//
//	core   0: 0x0000000000001000 (0x00000297) auipc   t0, 0x0
//	core   0: 3 0x0000000000001000 (0x00000297) x5  0x0000000000001000
func LoadSpike(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("traceio: %w", err)
	}
	defer f.Close()

	var (
		reDiss       = regexp.MustCompile(`^core +(\d+): (0x[0-9a-fA-F]+) \((0x[0-9a-fA-F]+)\) (.*)$`)
		reStatus     = regexp.MustCompile(`^core +(\d+): \d+ (0x[0-9a-fA-F]+) \((0x[0-9a-fA-F]+)\)(.*)$`)
		reMemWrite   = regexp.MustCompile(`^ *mem (0x[0-9a-fA-F]+) (0x[0-9a-fA-F]+)`)
		reMemRead    = regexp.MustCompile(`^ *mem (0x[0-9a-fA-F]+)`)
		reRegWrite   = regexp.MustCompile(`^ *([a-z][_0-9a-zA-Z]+) +(0x[0-9a-fA-F]+)`)
		lastPCHasDis bool
		lastPC       string
	)

	var out []Record
	scanner := bufio.NewScanner(f)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Text()

		if m := reDiss.FindStringSubmatch(line); m != nil {
			lastPC = m[2]
			lastPCHasDis = true
			continue
		}

		m := reStatus.FindStringSubmatch(line)
		if m == nil {
			continue // skip lines spike emits that aren't retirement records
		}
		pcHex := m[2]
		if !lastPCHasDis || lastPC != pcHex {
			tracelog.Warnf("traceio: spike line %d: status without matching disassembly", lineNum)
		}
		lastPCHasDis = false

		var pc uint64
		if _, err := fmt.Sscanf(pcHex, "0x%x", &pc); err != nil {
			return nil, fmt.Errorf("traceio: %s:%d: bad pc %q", path, lineNum, pcHex)
		}
		rec := cpustate.Record{PC: pc}

		rest := m[4]
		for len(rest) > 0 {
			trimmed := trimLeadingSpace(rest)
			if trimmed == "" {
				break
			}
			rest = trimmed

			if mw := reMemWrite.FindStringSubmatch(rest); mw != nil {
				addr, val, err := parseHexPair(mw[1], mw[2])
				if err != nil {
					return nil, fmt.Errorf("traceio: %s:%d: %w", path, lineNum, err)
				}
				rec.MW = append(rec.MW, cpustate.MemWrite{Addr: addr, Bytes: val})
				rest = rest[len(mw[0]):]
				continue
			}
			if mr := reMemRead.FindStringSubmatch(rest); mr != nil {
				// memory reads are informational only; the core does not
				// model them (spec.md §3, "mr" key).
				rest = rest[len(mr[0]):]
				continue
			}
			if rw := reRegWrite.FindStringSubmatch(rest); rw != nil {
				if m := xRegName.FindStringSubmatch(rw[1]); m != nil {
					var regNum int
					fmt.Sscanf(m[1], "%d", &regNum)
					var v uint64
					fmt.Sscanf(rw[2], "0x%x", &v)
					if rec.RW == nil {
						rec.RW = make(map[int]uint64)
					}
					rec.RW[regNum] = v
				} else {
					tracelog.Debugf("traceio: ignoring update to register %s", rw[1])
				}
				rest = rest[len(rw[0]):]
				continue
			}
			return nil, fmt.Errorf("traceio: %s:%d: could not parse remainder %q", path, lineNum, rest)
		}
		out = append(out, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("traceio: %s: %w", path, err)
	}
	return out, nil
}

func trimLeadingSpace(s string) string {
	i := 0
	for i < len(s) && s[i] == ' ' {
		i++
	}
	return s[i:]
}

func parseHexPair(addrHex, valHex string) (uint64, []byte, error) {
	var addr uint64
	if _, err := fmt.Sscanf(addrHex, "0x%x", &addr); err != nil {
		return 0, nil, fmt.Errorf("bad address %q", addrHex)
	}
	var v uint64
	if _, err := fmt.Sscanf(valHex, "0x%x", &v); err != nil {
		return 0, nil, fmt.Errorf("bad value %q", valHex)
	}
	// spike reports a 4-byte store value regardless of the real access
	// width; keep the low 4 bytes, little-endian, matching hex_fmt_sized
	// usage in spike_trace.py.
	return addr, []byte{byte(v), byte(v >> 8), byte(v >> 16), byte(v >> 24)}, nil
}
