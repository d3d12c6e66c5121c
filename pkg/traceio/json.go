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
	"encoding/json"
	"fmt"
	"os"
	"regexp"

	"github.com/master-g/tracedbg/pkg/cpustate"
)

// jsonRecord is the on-disk shape: pc is already an integer (not a hex
// string), rw maps register name to integer value, mw is an ordered list
// of [address_hex, data_hex] pairs. Other keys (ins, asm, mr, ...) are
// accepted and ignored, per spec.md §3.
type jsonRecord struct {
	PC *uint64           `json:"pc"`
	RW map[string]uint64 `json:"rw"`
	MW [][2]string       `json:"mw"`
}

var xRegName = regexp.MustCompile(`^x([0-9]+)$`)

// LoadJSON reads a JSON array of jsonRecord objects, grounded on
// read_trace.py's "json" branch which loads the file as-is (no further
// normalization needed: the json format already matches the normalized
// shape).
func LoadJSON(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("traceio: %w", err)
	}
	defer f.Close()

	var raw []json.RawMessage
	if err := json.NewDecoder(f).Decode(&raw); err != nil {
		return nil, fmt.Errorf("traceio: %s: %w", path, err)
	}

	out := make([]Record, 0, len(raw))
	for i, msg := range raw {
		var jr jsonRecord
		if err := json.Unmarshal(msg, &jr); err != nil {
			return nil, fmt.Errorf("traceio: %s: entry %d: %w", path, i, err)
		}
		if jr.PC == nil {
			return nil, fmt.Errorf("traceio: %s: entry %d: missing required field %q", path, i, "pc")
		}
		rec := cpustate.Record{PC: *jr.PC}
		if len(jr.RW) > 0 {
			rec.RW = make(map[int]uint64, len(jr.RW))
			for name, val := range jr.RW {
				m := xRegName.FindStringSubmatch(name)
				if m == nil {
					continue // reserved CSR/FPR name, not modeled
				}
				var regNum int
				if _, err := fmt.Sscanf(m[1], "%d", &regNum); err != nil {
					return nil, fmt.Errorf("traceio: %s: entry %d: bad register name %q", path, i, name)
				}
				rec.RW[regNum] = val
			}
		}
		for _, pair := range jr.MW {
			addrHex, dataHex := pair[0], pair[1]
			var addr uint64
			if _, err := fmt.Sscanf(addrHex, "%x", &addr); err != nil {
				return nil, fmt.Errorf("traceio: %s: entry %d: bad mw address %q", path, i, addrHex)
			}
			if len(dataHex)%2 != 0 {
				return nil, fmt.Errorf("traceio: %s: entry %d: odd-length mw data %q", path, i, dataHex)
			}
			data := make([]byte, len(dataHex)/2)
			for j := range data {
				if _, err := fmt.Sscanf(dataHex[j*2:j*2+2], "%02x", &data[j]); err != nil {
					return nil, fmt.Errorf("traceio: %s: entry %d: bad mw data %q", path, i, dataHex)
				}
			}
			rec.MW = append(rec.MW, cpustate.MemWrite{Addr: addr, Bytes: data})
		}
		out = append(out, rec)
	}
	return out, nil
}
