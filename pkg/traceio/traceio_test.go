package traceio

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTemp(t *testing.T, name, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadJSON(t *testing.T) {
	path := writeTemp(t, "trace.json", `[
		{"pc": 4100, "rw": {"x5": 4096}},
		{"pc": 4104, "rw": {"x11": 4128}},
		{"pc": 8192, "mw": [["80000000", "deadbeef"]]}
	]`)

	recs, err := LoadJSON(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 3 {
		t.Fatalf("len = %d, want 3", len(recs))
	}
	if recs[0].PC != 0x1004 || recs[0].RW[5] != 0x1000 {
		t.Errorf("entry 0 = %+v", recs[0])
	}
	if recs[2].MW[0].Addr != 0x80000000 {
		t.Errorf("entry 2 addr = %x", recs[2].MW[0].Addr)
	}
	if string(recs[2].MW[0].Bytes) != "\xde\xad\xbe\xef" {
		t.Errorf("entry 2 bytes = %x", recs[2].MW[0].Bytes)
	}
}

func TestLoadJSONMissingPC(t *testing.T) {
	path := writeTemp(t, "bad.json", `[{"rw": {"x5": 1}}]`)
	if _, err := LoadJSON(path); err == nil {
		t.Error("expected error for missing pc")
	}
}

func TestLoadJSONIgnoresReservedRegisters(t *testing.T) {
	path := writeTemp(t, "trace.json", `[{"pc": 0, "rw": {"mstatus": 1, "x1": 2}}]`)
	recs, err := LoadJSON(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(recs[0].RW) != 1 || recs[0].RW[1] != 2 {
		t.Errorf("RW = %+v, want only x1", recs[0].RW)
	}
}

func TestLoadSpike(t *testing.T) {
	path := writeTemp(t, "trace.log", `core   0: 0x0000000000001000 (0x00000297) auipc   t0, 0x0
core   0: 3 0x0000000000001000 (0x00000297) x5  0x0000000000001000
core   0: 0x000000000000100c (0x0182b283) ld      t0, 24(t0)
core   0: 3 0x000000000000100c (0x0182b283) x5  0x0000000080000000 mem 0x0000000000001018
core   0: 0x0000000080004628 (0x0000c8dc) c.sw    a5, 20(s1)
core   0: 3 0x0000000080004628 (0xc8dc) mem 0x0000000080010dac 0x00000002
`)
	recs, err := LoadSpike(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 3 {
		t.Fatalf("len = %d, want 3", len(recs))
	}
	if recs[0].PC != 0x1000 || recs[0].RW[5] != 0x1000 {
		t.Errorf("entry 0 = %+v", recs[0])
	}
	if recs[1].PC != 0x100c || recs[1].RW[5] != 0x80000000 {
		t.Errorf("entry 1 = %+v", recs[1])
	}
	if recs[2].PC != 0x80004628 || len(recs[2].MW) != 1 || recs[2].MW[0].Addr != 0x80010dac {
		t.Errorf("entry 2 = %+v", recs[2])
	}
}

func TestLoadSifiveRTL(t *testing.T) {
	path := writeTemp(t, "trace.log", `S0C0:         41 [1] pc=[0000000048000000] W[r 0=0000000000000000][0] R[r 0=0000000000000000] R[r 0=0000000000000000] inst=[0000a801] c.j     pc + 16
S0C0:         44 [1] pc=[0000000048000010] W[r 3=0000000048000010][1] R[r 0=0000000000000000] R[r 0=0000000000000000] inst=[00000197] auipc   gp, 0x0
S0C0:        152 [1] pc=[0000000048000038] W[r13=ffffffffffffffff][1] R[r 0=0000000000000000] R[r 0=0000000000000000] inst=[000056fd] c.li    a3, -1
`)
	recs, err := LoadSifiveRTL(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 3 {
		t.Fatalf("len = %d, want 3", len(recs))
	}
	if recs[1].PC != 0x48000010 || recs[1].RW[3] != 0x48000010 {
		t.Errorf("entry 1 = %+v", recs[1])
	}
	if recs[2].RW[13] != 0xffffffffffffffff {
		t.Errorf("entry 2 = %+v", recs[2])
	}
}
