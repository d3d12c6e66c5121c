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

// LoadSifiveRTL parses a SiFive RTL simulation trace, one retirement per
// line. Grounded on trace_utils/sifive_rtl_trace.py.
//
//	S0C0:  41 [1] pc=[0000000048000000] W[r 0=0000000000000000][0] R[...] inst=[0000a801] c.j pc + 16
func LoadSifiveRTL(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("traceio: %w", err)
	}
	defer f.Close()

	rePrefix := regexp.MustCompile(`^S\d+C\d+: +\d+ \[\d+\] +pc=\[([0-9a-fA-F]+)\] +(.*)$`)
	reOther := regexp.MustCompile(`^S\d+C\d+.*`)
	reRegWr := regexp.MustCompile(`^W\[([a-z]+ *[_0-9a-zA-Z]*)=([0-9a-fA-F]+)\]`)
	reRegName := regexp.MustCompile(`^r *(\d+)$`)

	var out []Record
	scanner := bufio.NewScanner(f)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Text()

		m := rePrefix.FindStringSubmatch(line)
		if m == nil {
			if reOther.MatchString(line) {
				tracelog.Warnf("traceio: sifive-rtl line %d: unexpected format", lineNum)
			}
			continue
		}

		var pc uint64
		if _, err := fmt.Sscanf(m[1], "%x", &pc); err != nil {
			return nil, fmt.Errorf("traceio: %s:%d: bad pc %q", path, lineNum, m[1])
		}
		rec := cpustate.Record{PC: pc}

		rest := m[2]
		if rw := reRegWr.FindStringSubmatch(rest); rw != nil {
			name := cleanRegName(rw[1])
			if rn := reRegName.FindStringSubmatch(name); rn != nil {
				var regNum int
				fmt.Sscanf(rn[1], "%d", &regNum)
				var v uint64
				if _, err := fmt.Sscanf(rw[2], "%x", &v); err != nil {
					return nil, fmt.Errorf("traceio: %s:%d: bad register value %q", path, lineNum, rw[2])
				}
				rec.RW = map[int]uint64{regNum: v}
			}
		}
		out = append(out, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("traceio: %s: %w", path, err)
	}
	return out, nil
}

// cleanRegName turns "r 3" / "r13" into "r3" / "r13", matching
// sifive_rtl_trace.py's clean_reg_name (there: re.sub("^r *", "x", name)
// produces "x3"; we keep the "r<N>" spelling here and recognize it with
// reRegName above, which is equivalent).
func cleanRegName(name string) string {
	i := 0
	for i < len(name) && name[i] == ' ' {
		i++
	}
	name = name[i:]
	j := 1
	for j < len(name) && name[j] == ' ' {
		j++
	}
	return name[:1] + name[j:]
}
