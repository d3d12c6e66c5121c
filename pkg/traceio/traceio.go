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

// Package traceio is the trace-ingestion collaborator the replay engine
// depends on: it turns a vendor-specific textual log into the normalized
// []cpustate.Record sequence spec.md §3 describes. The core never sees a
// raw log line; it only ever sees Records.
package traceio

import (
	"fmt"

	"github.com/master-g/tracedbg/pkg/cpustate"
)

// Record is the normalized trace record type the replay engine consumes;
// it is exactly cpustate.Record, since a loaded trace entry and a reverse
// delta share one shape (spec.md §3).
type Record = cpustate.Record

// Load reads path as format ("json", "spike", or "sifive-rtl") and returns
// the normalized trace. Malformed records (missing pc, odd-length mw hex)
// are reported here as loader errors, per spec.md §7 item 4 — they never
// surface during replay.
func Load(path, format string) ([]Record, error) {
	switch format {
	case "json", "":
		return LoadJSON(path)
	case "spike":
		return LoadSpike(path)
	case "sifive-rtl":
		return LoadSifiveRTL(path)
	default:
		return nil, fmt.Errorf("traceio: unhandled trace format %q", format)
	}
}
