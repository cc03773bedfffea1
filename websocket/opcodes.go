// Package websocket implements the send side of an RFC 6455 WebSocket
// remote endpoint: fragmentation, header construction, masking,
// output-buffer spooling, the sender state machine, the message-part
// queue, and the blocking/future/completion send facades.
//
// The inbound receive path, session lifecycle, and user object encoders
// are external collaborators, described here only by the narrow
// interfaces the sender needs from them (Transport, MaskPolicy, the four
// encoder capabilities). handshake.go adds an HTTP upgrade (Upgrade)
// that builds a server-side Endpoint over a net.Conn.
//
// RFC Reference: https://datatracker.ietf.org/doc/html/rfc6455
package websocket

import "github.com/gobwas/ws"

// OpCode is the frame operation code. It widens ws.OpCode (a byte, 4 bits
// of wire space) so that an internal, never-on-the-wire sentinel can live
// outside the 0x0-0xF range without any chance of colliding with a
// RFC 6455-defined value.
type OpCode uint16

// Wire opcodes defined in RFC 6455 Section 5.2.
const (
	OpContinuation = OpCode(ws.OpContinuation)
	OpText         = OpCode(ws.OpText)
	OpBinary       = OpCode(ws.OpBinary)
	OpClose        = OpCode(ws.OpClose)
	OpPing         = OpCode(ws.OpPing)
	OpPong         = OpCode(ws.OpPong)

	// opFlush is an internal sentinel recognized only by writeMessagePart.
	// It must never reach the frame header writer. 0x100 is outside the
	// 4-bit wire opcode space, so it can never be mistaken for one.
	opFlush OpCode = 0x100
)

// isControlFrame reports whether opcode is a control frame (0x8-0xF).
// Control frames must not be fragmented and may interleave between data
// frames of a fragmented message.
func isControlFrame(opcode OpCode) bool {
	return opcode >= 0x8 && opcode <= 0xF
}

// isDataFrame reports whether opcode is a data frame (0x0-0x2).
func isDataFrame(opcode OpCode) bool {
	return opcode == OpContinuation || opcode == OpText || opcode == OpBinary
}

// isValidWireOpcode reports whether opcode is defined by RFC 6455 and is
// not the internal FLUSH sentinel.
func isValidWireOpcode(opcode OpCode) bool {
	switch opcode {
	case OpContinuation, OpText, OpBinary, OpClose, OpPing, OpPong:
		return true
	default:
		return false
	}
}

// wireOpCode converts a validated OpCode to the ws.OpCode the header
// writer consumes. Callers must never pass opFlush here.
func wireOpCode(opcode OpCode) ws.OpCode {
	return ws.OpCode(opcode)
}
