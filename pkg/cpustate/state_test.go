package cpustate

import (
	"reflect"
	"testing"
)

func TestSentinelOnUnwrittenRead(t *testing.T) {
	s := New(RISCV64(), 0x1000, false)
	got := s.ReadMem(0x80000000, 4)
	want := []byte{SentinelByte, SentinelByte, SentinelByte, SentinelByte}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ReadMem on unwritten range = %x, want %x", got, want)
	}
}

func TestMemoryRoundTrip(t *testing.T) {
	s := New(RISCV64(), 0, false)
	data := []byte{0xde, 0xad, 0xbe, 0xef}
	s.WriteMem(0x80000000, data)
	got := s.ReadMem(0x80000000, 4)
	if !reflect.DeepEqual(got, data) {
		t.Errorf("ReadMem after WriteMem = %x, want %x", got, data)
	}
}

func TestRegOutOfRange(t *testing.T) {
	s := New(RISCV64(), 0, false)
	if v := s.ReadReg(99); v != 0 {
		t.Errorf("out-of-range ReadReg = %d, want 0", v)
	}
	s.WriteReg(99, 0xff) // must not panic
}

func TestApplyDeltaAndReverseIsIdentity(t *testing.T) {
	s := New(RISCV64(), 0x1000, false)

	fwd := Record{
		PC: 0x1004,
		RW: map[int]uint64{5: 0x1000},
		MW: []MemWrite{{Addr: 0x80000000, Bytes: []byte{0xde, 0xad, 0xbe, 0xef}}},
	}

	rev := s.ApplyDelta(fwd)

	if s.PC() != 0x1004 {
		t.Fatalf("PC after forward = %x, want 0x1004", s.PC())
	}
	if s.ReadReg(5) != 0x1000 {
		t.Fatalf("x5 after forward = %x, want 0x1000", s.ReadReg(5))
	}
	if got := s.ReadMem(0x80000000, 4); !reflect.DeepEqual(got, fwd.MW[0].Bytes) {
		t.Fatalf("mem after forward = %x, want %x", got, fwd.MW[0].Bytes)
	}

	s.ApplyDelta(rev)

	if s.PC() != 0x1000 {
		t.Errorf("PC after reverse = %x, want 0x1000", s.PC())
	}
	if s.ReadReg(5) != 0 {
		t.Errorf("x5 after reverse = %x, want 0", s.ReadReg(5))
	}
	want := []byte{SentinelByte, SentinelByte, SentinelByte, SentinelByte}
	if got := s.ReadMem(0x80000000, 4); !reflect.DeepEqual(got, want) {
		t.Errorf("mem after reverse = %x, want %x (sentinel)", got, want)
	}
}
