package websocket

import "testing"

func TestGenerateMask_ConsecutiveMasksDiffer(t *testing.T) {
	// A CSPRNG producing an all-zero key isn't a correctness bug, but a
	// run of the same zero key across many calls would be, and is easy
	// to catch: generate two and make sure they aren't identical.
	m1 := generateMask()
	m2 := generateMask()
	if m1 == m2 {
		t.Errorf("two consecutive masks were identical: %v", m1)
	}
}

func TestMaskCopy_XOR(t *testing.T) {
	// RFC 6455 Section 5.3 worked example: masking "Hello" with key
	// 0x37, 0xfa, 0x21, 0x3d produces the well-known masked bytes.
	src := []byte("Hello")
	mask := [4]byte{0x37, 0xfa, 0x21, 0x3d}
	want := []byte{0x7f, 0x9f, 0x4d, 0x51, 0x58}

	dst := make([]byte, len(src))
	maskCopy(dst, src, mask, 0)

	for i := range want {
		if dst[i] != want[i] {
			t.Errorf("byte %d = 0x%X, want 0x%X", i, dst[i], want[i])
		}
	}
}

func TestMaskCopy_ResumesAcrossChunks(t *testing.T) {
	src := []byte("Hello, WebSocket!")
	mask := [4]byte{0x11, 0x22, 0x33, 0x44}

	whole := make([]byte, len(src))
	maskCopy(whole, src, mask, 0)

	// Split the same payload into two chunks, masking each in sequence
	// starting from where the previous chunk left off, and check that
	// the result matches masking it all at once.
	split := 6
	chunked := make([]byte, len(src))
	pos := maskCopy(chunked[:split], src[:split], mask, 0)
	maskCopy(chunked[split:], src[split:], mask, pos)

	for i := range whole {
		if chunked[i] != whole[i] {
			t.Errorf("byte %d = 0x%X, want 0x%X (chunked masking diverged)", i, chunked[i], whole[i])
		}
	}
}
