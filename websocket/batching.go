package websocket

import "sync/atomic"

// batching.go implements spec.md §4.11: an endpoint may opt into
// batching outgoing frames into its output buffer instead of writing
// each one straight to the transport, trading latency for fewer
// syscalls. Disabling batching, or an explicit FlushBatch, forces out
// whatever is currently buffered ahead of anything queued after it —
// implemented as a synthetic opFlush part so it goes through the same
// ordering guarantees as every other part (spec.md §5).

// IsBatchingAllowed reports whether the endpoint is currently permitted
// to batch frames into its output buffer rather than writing them
// immediately.
func (ep *Endpoint) IsBatchingAllowed() bool {
	return atomic.LoadInt32(&ep.batching) != 0
}

// SetBatchingAllowed toggles batching. Disabling it flushes whatever is
// currently buffered before the toggle takes effect for new parts.
func (ep *Endpoint) SetBatchingAllowed(allowed bool) {
	if allowed {
		atomic.StoreInt32(&ep.batching, 1)
		return
	}

	ep.partsMu.Lock()
	ep.disableBatchingLocked(noopHandler)
	ep.partsMu.Unlock()

	ep.launchPendingPart()
}

// disableBatchingLocked flips the flag and, if batching was on, enqueues
// a flush part, all under partsMu so the flag change and the flush are
// ordered atomically with respect to concurrently queued sends. handler
// is notified of the flush's own outcome; callers that have no
// completion interest of their own pass noopHandler.
func (ep *Endpoint) disableBatchingLocked(handler SendHandler) {
	if atomic.SwapInt32(&ep.batching, 0) == 0 {
		return
	}
	ep.enqueueOrDispatchLocked(&MessagePart{opcode: opFlush, handler: &endOfMessageHandler{ep: ep, user: handler}})
}

// FlushBatch forces out any bytes currently sitting in the output
// buffer without disabling batching for subsequent sends.
func (ep *Endpoint) FlushBatch() {
	ep.partsMu.Lock()
	ep.enqueueOrDispatchLocked(&MessagePart{opcode: opFlush, handler: &endOfMessageHandler{ep: ep, user: noopHandler}})
	ep.partsMu.Unlock()

	ep.launchPendingPart()
}
