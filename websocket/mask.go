package websocket

import (
	"crypto/rand"

	"github.com/gobwas/ws"
)

// generateMask returns a fresh 4-byte masking key from a CSPRNG.
//
// ws.NewMask (the same library's own helper) is backed by a
// non-cryptographic PRNG, which spec.md §4.2 explicitly rules out for
// this purpose ("any CSPRNG source"); crypto/rand is used directly
// instead.
func generateMask() [4]byte {
	var m [4]byte
	// crypto/rand.Read on a fixed-size slice never returns a short read
	// or a non-nil error from the OS CSPRNG in practice; if it ever did,
	// an all-zero mask is still a structurally valid (if predictable)
	// masking key, so there is nothing useful to do with the error here.
	_, _ = rand.Read(m[:])
	return m
}

// maskCopy copies src into dst and XORs the copy in place with mask,
// treating pos as the cumulative payload byte index carried over from
// any prior chunk of the same frame. It returns the updated index so the
// caller (the output-buffer pump) can resume masking correctly across a
// suspended doWrite.
//
// ws.Cipher implements the RFC 6455 Section 5.3 algorithm
// (transformed[i] = original[i] XOR mask[(pos+i) % 4]) and is used here
// unmodified; maskCopy only adds the copy-then-cipher composition the
// pump needs because it must leave the caller's original payload
// buffer unmodified.
func maskCopy(dst, src []byte, mask [4]byte, pos int) int {
	n := copy(dst, src)
	ws.Cipher(dst[:n], mask, pos)
	return pos + n
}
