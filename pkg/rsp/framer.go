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

// Package rsp implements the wire-level GDB Remote Serial Protocol: byte
// framing with ack/nak and mod-256 checksums (Framer), and decoding
// packet payloads into semantic operations (Dispatcher).
package rsp

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/master-g/tracedbg/pkg/hexcodec"
	"github.com/master-g/tracedbg/pkg/tracelog"
)

// Framer implements the `$payload#cc` packet grammar over a byte stream.
// It is oblivious to payload semantics. No-Ack mode is never negotiated;
// ack discipline (+/-) is always on, per spec.md §4.4.
type Framer struct {
	r *bufio.Reader
	w *bufio.Writer
}

// NewFramer wraps rw (typically a net.Conn) for packet-level I/O.
func NewFramer(rw io.ReadWriter) *Framer {
	return &Framer{
		r: bufio.NewReader(rw),
		w: bufio.NewWriter(rw),
	}
}

// Recv reads the next packet payload, replying '+' on a checksum match or
// '-' (and retrying) on a mismatch. It returns io.EOF when the underlying
// stream is closed.
func (f *Framer) Recv() (string, error) {
	for {
		payload, err := f.readOnePacket()
		if err != nil {
			return "", err
		}
		if payload == nil {
			continue // checksum mismatch, '-' already sent; read the retransmit
		}
		if err := f.w.WriteByte('+'); err != nil {
			return "", err
		}
		if err := f.w.Flush(); err != nil {
			return "", err
		}
		return *payload, nil
	}
}

// readOnePacket reads up to and including one packet's checksum bytes.
// It returns (nil, nil) on checksum mismatch after sending '-', so the
// caller loops for the retransmit.
func (f *Framer) readOnePacket() (*string, error) {
	// skip bytes until the start-of-packet marker
	for {
		b, err := f.r.ReadByte()
		if err != nil {
			return nil, err
		}
		if b == '$' {
			break
		}
	}

	var payload []byte
	for {
		b, err := f.r.ReadByte()
		if err != nil {
			return nil, err
		}
		if b == '#' {
			break
		}
		payload = append(payload, b)
	}

	checksumHex := make([]byte, 2)
	if _, err := io.ReadFull(f.r, checksumHex); err != nil {
		return nil, err
	}

	want := hexcodec.ChecksumHex(payload)
	if !strings.EqualFold(want, string(checksumHex)) {
		tracelog.Warnf("rsp: checksum mismatch: got %s want %s", checksumHex, want)
		if err := f.w.WriteByte('-'); err != nil {
			return nil, err
		}
		if err := f.w.Flush(); err != nil {
			return nil, err
		}
		return nil, nil
	}

	s := string(payload)
	return &s, nil
}

// Send frames payload as `$payload#cc` and writes it as a single write.
func (f *Framer) Send(payload string) error {
	packet := fmt.Sprintf("$%s#%s", payload, hexcodec.ChecksumHex([]byte(payload)))
	if _, err := f.w.WriteString(packet); err != nil {
		return err
	}
	return f.w.Flush()
}
