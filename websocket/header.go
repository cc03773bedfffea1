package websocket

import (
	"bytes"

	"github.com/gobwas/ws"
)

// maxHeaderSize is the largest a single frame header can be: 2 base bytes
// + 8 extended-length bytes + 4 mask bytes.
const maxHeaderSize = 14

// writeFrameHeader is a pure function that emits the header of a single
// frame into dst, which must have at least maxHeaderSize bytes of
// capacity. It returns the number of bytes written.
//
// first indicates whether this is the first frame of a logical message:
// non-first frames always carry opcode 0 (continuation) on the wire,
// regardless of the logical opcode passed in. last is the FIN bit.
//
// Control frames (opcode 0x8-0xF) are expected by convention to be
// written with first=true, last=true and payload <= 125 bytes; this
// function does not itself enforce that — the sender state machine and
// the public API validate it before a MessagePart is ever built.
func writeFrameHeader(dst []byte, opcode OpCode, payloadLen int, first, last, masked bool, mask [4]byte) (int, error) {
	wire := ws.OpContinuation
	if first {
		wire = wireOpCode(opcode)
	}

	h := ws.Header{
		Fin:    last,
		OpCode: wire,
		Masked: masked,
		Mask:   mask,
		Length: int64(payloadLen),
	}

	var buf bytes.Buffer
	buf.Grow(maxHeaderSize)
	if err := ws.WriteHeader(&buf, h); err != nil {
		return 0, err
	}

	n := copy(dst, buf.Bytes())
	return n, nil
}
