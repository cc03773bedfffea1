package websocket

import "unicode/utf8"

// textEncodePump implements spec.md §4.6: encodes a rune sequence into
// UTF-8 through the endpoint's fixed 8192-byte encode buffer, one text
// (or continuation) frame per bufferful, so an arbitrarily long string
// never needs a second allocation proportional to its length.
//
// No library in the retrieval pack offers a streaming, step-resumable
// UTF-8 encoder (they all take a whole string and return a whole
// []byte); stdlib unicode/utf8's EncodeRune is the natural fit and is
// what the teacher's own frame.go already imports for validation.
type textEncodePump struct {
	ep      *Endpoint
	handler SendHandler

	runes []rune
	pos   int // next rune to encode
}

func newTextEncodePump(ep *Endpoint, s string, handler SendHandler) *textEncodePump {
	return &textEncodePump{ep: ep, runes: []rune(s), handler: handler}
}

// run encodes as many runes fit in encodeBuf, then starts a message part
// for that chunk, resuming itself from onResult until the whole string
// is sent.
func (p *textEncodePump) run() {
	n := 0
	for p.pos < len(p.runes) {
		r := p.runes[p.pos]
		if !utf8.ValidRune(r) {
			r = utf8.RuneError
		}
		size := utf8.RuneLen(r)
		if n+size > len(p.ep.encodeBuf) {
			break
		}
		n += utf8.EncodeRune(p.ep.encodeBuf[n:], r)
		p.pos++
	}

	last := p.pos >= len(p.runes)

	chunk := make([]byte, n)
	copy(chunk, p.ep.encodeBuf[:n])

	// Always the logical opcode: writeMessagePartLocked derives the wire
	// continuation bit from the endpoint's fragmentation state via the
	// first flag, the pump must never flip this itself.
	p.ep.startMessage(OpText, chunk, last, SendHandlerFunc(func(r SendResult) {
		p.onResult(r, last)
	}))
}

func (p *textEncodePump) onResult(r SendResult, last bool) {
	if !r.ok {
		p.handler.OnResult(r)
		return
	}
	if last {
		p.handler.OnResult(okResult())
		return
	}
	p.run()
}
