package websocket

// This file is the fragmentation engine (spec.md §4.7): the code that
// ties the state machine, the message-part queue and the output pumps
// together. It is the one place that decides, for every part, whether
// it is the first frame of a logical message and what the FIN bit
// should be.
//
// writeMessagePartLocked runs under partsMu (messagePartLock) with
// parts.inProgress already true. It never performs I/O and never calls a
// SendHandler itself: Go's sync.Mutex is not reentrant the way the
// teacher's monitor-based original is, and a synchronously-completing
// transport could otherwise call back into endMessage — which needs the
// very same lock — before writeMessagePartLocked ever returns. Instead
// it fully resolves the part's header inputs (first/last/mask) and
// stashes them on the endpoint; launchPendingPart, called by every
// caller immediately after releasing partsMu, performs the actual
// write. This preserves every invariant in spec.md §4.7 while being
// safe under a plain mutex.

// enqueueOrDispatchLocked is the single place that decides whether a
// part starts writing now or waits behind the one already in flight
// (spec.md §4.4's queue invariant: at most one data part queued, any
// number of control parts, and control parts drain ahead of queued data).
func (ep *Endpoint) enqueueOrDispatchLocked(part *MessagePart) {
	if ep.parts.inProgress {
		if isControlFrame(part.opcode) {
			ep.parts.pendingControl.Add(part)
		} else {
			ep.parts.pendingData.Add(part)
		}
		return
	}
	ep.parts.inProgress = true
	ep.writeMessagePartLocked(part)
}

// popPendingLocked removes and returns the next part to write, control
// frames always winning over a queued data part.
func (ep *Endpoint) popPendingLocked() *MessagePart {
	if ep.parts.pendingControl.Length() > 0 {
		v := ep.parts.pendingControl.Peek()
		ep.parts.pendingControl.Remove()
		next, _ := v.(*MessagePart)
		return next
	}
	if ep.parts.pendingData.Length() > 0 {
		v := ep.parts.pendingData.Peek()
		ep.parts.pendingData.Remove()
		next, _ := v.(*MessagePart)
		return next
	}
	return nil
}

// writeMessagePartLocked implements spec.md §4.7 steps 1-6; step 7
// (dispatch to the pump or the scatter-write bypass) happens in
// launchPendingPart, after partsMu is released.
func (ep *Endpoint) writeMessagePartLocked(part *MessagePart) {
	if ep.parts.closed {
		ep.pendingPart = part
		ep.pendingErr = wrapErrorf(ErrIllegalState, "write attempted after close")
		return
	}

	if part.opcode == opFlush {
		ep.parts.nextFragmented = ep.parts.fragmented
		ep.parts.nextText = ep.parts.text
		ep.pendingPart = part
		return
	}

	var first bool

	if isControlFrame(part.opcode) {
		first = true
		if part.opcode == OpClose {
			ep.parts.closed = true
		}
	} else {
		isText := part.opcode == OpText

		if ep.parts.fragmented {
			if isText != ep.parts.text {
				ep.pendingPart = part
				ep.pendingErr = wrapErrorf(ErrIllegalState, "cannot change message type mid-fragment")
				return
			}
			first = false
			ep.parts.nextFragmented = !part.last
			ep.parts.nextText = ep.parts.text
		} else {
			first = true
			if part.last {
				ep.parts.nextFragmented = false
			} else {
				ep.parts.nextFragmented = true
				ep.parts.nextText = isText
			}
		}
	}

	masked := ep.maskPolicy.IsMasked()
	var mask [4]byte
	if masked {
		mask = generateMask()
	}

	ep.pendingPart = part
	ep.pendingFirst = first
	ep.pendingMasked = masked
	ep.pendingMask = mask
}

// launchPendingPart performs the actual write for whatever
// writeMessagePartLocked just prepared. Callers invoke it exactly once,
// immediately after releasing partsMu. It is a no-op if nothing is
// pending (e.g. the part was merely enqueued behind one already
// writing).
func (ep *Endpoint) launchPendingPart() {
	part := ep.pendingPart
	if part == nil {
		return
	}

	err := ep.pendingErr
	first := ep.pendingFirst
	masked := ep.pendingMasked
	mask := ep.pendingMask

	ep.pendingPart = nil
	ep.pendingErr = nil
	ep.pendingFirst = false
	ep.pendingMasked = false
	ep.pendingMask = [4]byte{}

	if err != nil {
		part.handler.OnResult(failResult(err))
		return
	}

	if part.opcode == opFlush {
		ep.flushOutputBuffer(part.handler)
		return
	}

	ep.dispatchWrite(part, first, masked, mask)
}

// dispatchWrite is spec.md §4.7 step 7: either the output-buffer pump
// (when batching or masking is in play) or the direct scatter-write
// bypass (unmasked, non-batching — saves a copy).
func (ep *Endpoint) dispatchWrite(part *MessagePart, first, masked bool, mask [4]byte) {
	batching := ep.IsBatchingAllowed()

	n, err := writeFrameHeader(ep.headerBuf[:], part.opcode, len(part.payload), first, part.last, masked, mask)
	if err != nil {
		part.handler.OnResult(failResult(wrapErrorf(ErrIO, "build frame header: %v", err)))
		return
	}
	header := ep.headerBuf[:n]
	ep.recordFrame(part, n)

	if !batching && !masked {
		ep.transport.Write(&scatterCompletionHandler{handler: part.handler}, header, part.payload)
		return
	}

	pump := &outputBufferPump{
		ep:            ep,
		handler:       part.handler,
		header:        header,
		payload:       part.payload,
		masked:        masked,
		mask:          mask,
		flushRequired: !batching,
	}
	pump.run()
}

// scatterCompletionHandler adapts a raw transport write to a SendResult,
// used by the bypass path where no pump state needs tracking.
type scatterCompletionHandler struct {
	handler SendHandler
}

func (h *scatterCompletionHandler) OnResult(r SendResult) {
	h.handler.OnResult(r)
}
