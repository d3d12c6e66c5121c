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

// Package cpustate models the architectural state a trace implies: a fixed
// register file and a sparse byte-addressed memory, plus the single
// operation that both a forward trace record and its reverse delta share.
package cpustate

// Profile describes the register layout of a concrete machine. Concrete
// profiles parameterize NumReg/PCReg; the state machinery itself is
// profile-agnostic.
type Profile struct {
	Name   string
	NumReg int
	PCReg  int
}

// RISCV64 returns the profile shipped for the RISC-V 64 target: x0..x31
// plus PC at index 32.
func RISCV64() Profile {
	return Profile{
		Name:   "riscv-64",
		NumReg: 33,
		PCReg:  32,
	}
}
