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

// Package hexcodec implements the small set of byte/hex conversions the GDB
// Remote Serial Protocol needs: the mod-256 packet checksum and the
// byte-swapped hex encoding used for register values.
package hexcodec

import (
	"encoding/hex"
	"fmt"
)

// Checksum returns the RSP packet checksum: the unsigned sum of the payload
// bytes, modulo 256.
func Checksum(payload []byte) uint8 {
	var sum uint8
	for _, b := range payload {
		sum += b
	}
	return sum
}

// ChecksumHex returns the checksum formatted as the two lowercase hex digits
// RSP expects after '#'.
func ChecksumHex(payload []byte) string {
	return fmt.Sprintf("%02x", Checksum(payload))
}

// SwapEndian reverses the byte-pairs of a hex string, e.g. "ABCDEF01" ->
// "01EFCDAB". It is its own inverse. hexWord must have an even number of
// digits.
func SwapEndian(hexWord string) (string, error) {
	if len(hexWord)%2 != 0 {
		return "", fmt.Errorf("hexcodec: odd-length hex string %q", hexWord)
	}
	out := make([]byte, len(hexWord))
	n := len(hexWord)
	for i := 0; i < n; i += 2 {
		src := n - i - 2
		out[i], out[i+1] = hexWord[src], hexWord[src+1]
	}
	return string(out), nil
}

// FormatRegHex formats v as a 16-digit hex word, byte-swapped, as required
// for the 'g'/'p'/'G'/'P' register packets.
func FormatRegHex(v uint64) string {
	be := fmt.Sprintf("%016x", v)
	swapped, err := SwapEndian(be)
	if err != nil {
		// unreachable: %016x always produces an even-length string
		panic(err)
	}
	return swapped
}

// ParseRegHex parses a 16-digit byte-swapped hex word back into a register
// value, the inverse of FormatRegHex.
func ParseRegHex(hexWord string) (uint64, error) {
	be, err := SwapEndian(hexWord)
	if err != nil {
		return 0, err
	}
	var v uint64
	if _, err := fmt.Sscanf(be, "%016x", &v); err != nil {
		return 0, fmt.Errorf("hexcodec: invalid register hex %q: %w", hexWord, err)
	}
	return v, nil
}

// EncodeBytes renders bytes as ascending two-hex-digit-per-byte text, the
// encoding RSP uses for 'm' memory reads (no byte-swap).
func EncodeBytes(data []byte) string {
	return hex.EncodeToString(data)
}

// DecodeBytes parses an even-length hex string into raw bytes in the order
// given, the encoding RSP uses for the 'M' write-memory payload.
func DecodeBytes(hexStr string) ([]byte, error) {
	if len(hexStr)%2 != 0 {
		return nil, fmt.Errorf("hexcodec: odd-length hex string %q", hexStr)
	}
	return hex.DecodeString(hexStr)
}
