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

// MemWrite is one (address, bytes) span written by a trace record, bytes
// in ascending-address order.
type MemWrite struct {
	Addr  uint64
	Bytes []byte
}

// Record is the architectural effect of one retired instruction: the PC it
// retires to, the register writes it makes, and the memory spans it
// touches. A reverse delta (see State.ApplyDelta) is structurally the same
// type, holding the pre-images ApplyDelta overwrote.
type Record struct {
	PC uint64
	RW map[int]uint64
	MW []MemWrite
}

// Clone returns a deep copy, so a caller can safely mutate RW/MW maps and
// slices it owns without aliasing the original.
func (r Record) Clone() Record {
	out := Record{PC: r.PC}
	if r.RW != nil {
		out.RW = make(map[int]uint64, len(r.RW))
		for k, v := range r.RW {
			out.RW[k] = v
		}
	}
	if r.MW != nil {
		out.MW = make([]MemWrite, len(r.MW))
		for i, mw := range r.MW {
			b := make([]byte, len(mw.Bytes))
			copy(b, mw.Bytes)
			out.MW[i] = MemWrite{Addr: mw.Addr, Bytes: b}
		}
	}
	return out
}
