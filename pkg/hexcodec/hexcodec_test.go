package hexcodec

import "testing"

func TestChecksum(t *testing.T) {
	cases := []struct {
		payload string
		want    uint8
	}{
		{"", 0},
		{"OK", 'O' + 'K'},
		{"qSupported", uint8(('q' + 'S' + 'u' + 'p' + 'p' + 'o' + 'r' + 't' + 'e' + 'd') % 256)},
	}
	for _, c := range cases {
		if got := Checksum([]byte(c.payload)); got != c.want {
			t.Errorf("Checksum(%q) = %d, want %d", c.payload, got, c.want)
		}
	}
}

func TestSwapEndian(t *testing.T) {
	got, err := SwapEndian("ABCDEF01")
	if err != nil {
		t.Fatal(err)
	}
	if got != "01EFCDAB" {
		t.Errorf("SwapEndian = %q, want %q", got, "01EFCDAB")
	}

	// its own inverse
	back, err := SwapEndian(got)
	if err != nil {
		t.Fatal(err)
	}
	if back != "ABCDEF01" {
		t.Errorf("round trip = %q, want %q", back, "ABCDEF01")
	}
}

func TestSwapEndianOddLength(t *testing.T) {
	if _, err := SwapEndian("ABC"); err == nil {
		t.Error("expected error on odd-length input")
	}
}

func TestRegHexRoundTrip(t *testing.T) {
	for _, v := range []uint64{0, 1, 0x1000, 0xdeadbeefcafef00d, ^uint64(0)} {
		enc := FormatRegHex(v)
		if len(enc) != 16 {
			t.Fatalf("FormatRegHex(%x) length = %d, want 16", v, len(enc))
		}
		got, err := ParseRegHex(enc)
		if err != nil {
			t.Fatal(err)
		}
		if got != v {
			t.Errorf("round trip %x -> %q -> %x", v, enc, got)
		}
	}
}

func TestEncodeDecodeBytes(t *testing.T) {
	data := []byte{0xde, 0xad, 0xbe, 0xef}
	enc := EncodeBytes(data)
	if enc != "deadbeef" {
		t.Errorf("EncodeBytes = %q, want %q", enc, "deadbeef")
	}
	dec, err := DecodeBytes(enc)
	if err != nil {
		t.Fatal(err)
	}
	if string(dec) != string(data) {
		t.Errorf("DecodeBytes = %x, want %x", dec, data)
	}
}
