package websocket

import "testing"

func TestWriteFrameHeader_FirstVsContinuation(t *testing.T) {
	cases := []struct {
		name       string
		opcode     OpCode
		first      bool
		wantOpcode byte
	}{
		{"first text frame carries the real opcode", OpText, true, 0x1},
		{"continuation frame always carries opcode 0", OpText, false, 0x0},
		{"first binary frame carries the real opcode", OpBinary, true, 0x2},
		{"continuation of a binary message carries opcode 0", OpBinary, false, 0x0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var buf [maxHeaderSize]byte
			n, err := writeFrameHeader(buf[:], tc.opcode, 5, tc.first, true, false, [4]byte{})
			if err != nil {
				t.Fatalf("writeFrameHeader: %v", err)
			}
			if n < 2 {
				t.Fatalf("header too short: %d bytes", n)
			}
			gotOpcode := buf[0] & 0x0F
			if gotOpcode != tc.wantOpcode {
				t.Errorf("opcode nibble = 0x%X, want 0x%X", gotOpcode, tc.wantOpcode)
			}
			if buf[0]&0x80 == 0 {
				t.Error("FIN bit not set despite last=true")
			}
		})
	}
}

func TestWriteFrameHeader_LengthEncoding(t *testing.T) {
	cases := []struct {
		name       string
		payloadLen int
		wantFirst  byte // low 7 bits of byte[1]
		wantLen    int  // total header length, unmasked
	}{
		{"empty payload", 0, 0, 2},
		{"boundary of single-byte length", 125, 125, 2},
		{"smallest 16-bit length", 126, 126, 4},
		{"largest 16-bit length", 65535, 126, 4},
		{"smallest 64-bit length", 65536, 127, 10},
		{"well above 16-bit range", 131072, 127, 10},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var buf [maxHeaderSize]byte
			n, err := writeFrameHeader(buf[:], OpBinary, tc.payloadLen, true, true, false, [4]byte{})
			if err != nil {
				t.Fatalf("writeFrameHeader: %v", err)
			}
			if n != tc.wantLen {
				t.Errorf("header length = %d, want %d", n, tc.wantLen)
			}
			if buf[1]&0x7F != tc.wantFirst {
				t.Errorf("length-prefix byte = %d, want %d", buf[1]&0x7F, tc.wantFirst)
			}
			if buf[1]&0x80 != 0 {
				t.Error("mask bit set despite masked=false")
			}
		})
	}
}

func TestWriteFrameHeader_MaskBitAndKey(t *testing.T) {
	var buf [maxHeaderSize]byte
	mask := [4]byte{0x12, 0x34, 0x56, 0x78}
	n, err := writeFrameHeader(buf[:], OpText, 5, true, true, true, mask)
	if err != nil {
		t.Fatalf("writeFrameHeader: %v", err)
	}
	if buf[1]&0x80 == 0 {
		t.Fatal("mask bit not set despite masked=true")
	}
	if n != 2+4 {
		t.Fatalf("header length = %d, want 6", n)
	}
	gotMask := buf[2:6]
	for i, b := range mask {
		if gotMask[i] != b {
			t.Errorf("mask byte %d = 0x%X, want 0x%X", i, gotMask[i], b)
		}
	}
}
