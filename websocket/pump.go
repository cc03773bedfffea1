package websocket

// outputBufferPump implements spec.md §4.5: it copies a frame header
// and payload through the endpoint's fixed 8192-byte output buffer,
// masking as it goes, and flushes to the transport either because the
// buffer filled or because flushRequired was set (batching disabled,
// or an explicit FlushBatch/close). It suspends across transport
// writes by keeping its own cursors and re-entering run from onResult.
type outputBufferPump struct {
	ep      *Endpoint
	handler SendHandler

	header  []byte
	payload []byte

	masked bool
	mask   [4]byte
	maskAt int // cumulative position into the logical masked stream

	flushRequired bool

	headerDone bool
	sentHeader int
	sentPayload int
}

// run drives the pump until either the payload is exhausted and no
// flush is pending (synchronous success), or a write has been handed
// to the transport (asynchronous continuation via onResult).
func (p *outputBufferPump) run() {
	for {
		if !p.headerDone {
			n := p.fill(p.header[p.sentHeader:])
			p.sentHeader += n
			if p.sentHeader == len(p.header) {
				p.headerDone = true
			}
			if p.ep.outputLen == len(p.ep.outputBuf) {
				p.flush()
				return
			}
			if !p.headerDone {
				continue
			}
		}

		if p.sentPayload < len(p.payload) {
			n := p.fillMasked(p.payload[p.sentPayload:])
			p.sentPayload += n
			if p.ep.outputLen == len(p.ep.outputBuf) {
				p.flush()
				return
			}
			if p.sentPayload < len(p.payload) {
				continue
			}
		}

		break
	}

	if p.flushRequired {
		p.flush()
		return
	}

	// Batched entirely into the output buffer with room to spare:
	// complete synchronously. Safe because run() is only ever invoked
	// from launchPendingPart or onResult, strictly outside partsMu.
	p.handler.OnResult(okResult())
}

// fill copies unmasked bytes (the header) into the output buffer.
func (p *outputBufferPump) fill(src []byte) int {
	room := len(p.ep.outputBuf) - p.ep.outputLen
	n := room
	if n > len(src) {
		n = len(src)
	}
	copy(p.ep.outputBuf[p.ep.outputLen:], src[:n])
	p.ep.outputLen += n
	return n
}

// fillMasked copies payload bytes into the output buffer, masking as it
// goes, preserving the masking cipher's position across suspensions.
func (p *outputBufferPump) fillMasked(src []byte) int {
	room := len(p.ep.outputBuf) - p.ep.outputLen
	n := room
	if n > len(src) {
		n = len(src)
	}
	if p.masked {
		p.maskAt = maskCopy(p.ep.outputBuf[p.ep.outputLen:p.ep.outputLen+n], src[:n], p.mask, p.maskAt)
	} else {
		copy(p.ep.outputBuf[p.ep.outputLen:], src[:n])
	}
	p.ep.outputLen += n
	return n
}

// flush hands the current contents of the output buffer to the
// transport and resets it. The handler fires from onResult once the
// transport completes.
func (p *outputBufferPump) flush() {
	if p.ep.outputLen == 0 {
		p.handler.OnResult(okResult())
		return
	}
	buf := make([]byte, p.ep.outputLen)
	copy(buf, p.ep.outputBuf[:p.ep.outputLen])
	p.ep.outputLen = 0
	p.ep.transport.Write(&pumpCompletionHandler{pump: p}, buf)
}

// pumpCompletionHandler resumes a suspended pump when its flush
// completes.
type pumpCompletionHandler struct {
	pump *outputBufferPump
}

func (h *pumpCompletionHandler) OnResult(r SendResult) {
	if !r.ok {
		h.pump.handler.OnResult(r)
		return
	}
	h.pump.run()
}

// flushOutputBuffer forces out whatever is currently batched, used by
// FlushBatch and by the synthetic opFlush part (batching.go).
func (ep *Endpoint) flushOutputBuffer(handler SendHandler) {
	pump := &outputBufferPump{ep: ep, handler: handler, headerDone: true, flushRequired: true}
	pump.flush()
}
