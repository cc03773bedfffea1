package websocket

import (
	"reflect"
	"time"

	"github.com/eapache/queue"
)

// MessagePart is one frame queued for emission. It is immutable after
// construction; the handler stored on it is always the end-of-message
// wrapper, never the caller's handler directly, so that completion
// always drives the queue regardless of which public facade built the
// part (spec.md §3).
type MessagePart struct {
	opcode  OpCode
	payload []byte
	last    bool
	handler SendHandler
}

// EncoderEntry pairs a user encoder with the concrete source type it
// declared at registration. Declaration order carries semantics: the
// first entry whose Type is assignable from the object's type wins
// (spec.md §3, §9 — preserved, not "most specific wins").
type EncoderEntry struct {
	Type    reflect.Type
	Encoder any
}

// accepts reports whether e's declared type is assignable from v's
// runtime type.
func (e EncoderEntry) accepts(v reflect.Type) bool {
	return v.AssignableTo(e.Type)
}

// messagePartQueue is the FIFO described in spec.md §4.4: a single mutex
// guards messagePartInProgress, the pending queues, the closed flag,
// and the fragmentation flags, because every one of them must be
// observed and updated atomically with respect to startMessage and
// endMessage.
//
// Control frames (ping/pong/close) queue separately from data parts and
// always drain first: a control frame queued behind an in-flight data
// part must not wait for every other queued data part ahead of it, only
// for the one part currently writing. pendingData holds at most one
// entry by construction (callers serialize data sends through the
// state machine or the blocking facades), but is kept as a queue for
// robustness against completion-style callers that don't wait.
//
// eapache/queue.Queue is a ring-buffer FIFO; it backs both pending
// lists here instead of a hand-rolled slice deque.
type messagePartQueue struct {
	pendingControl *queue.Queue
	pendingData    *queue.Queue

	inProgress bool
	closed     bool

	fragmented     bool
	text           bool
	nextFragmented bool
	nextText       bool
}

func newMessagePartQueue() *messagePartQueue {
	return &messagePartQueue{pendingControl: queue.New(), pendingData: queue.New()}
}

// startMessage is the entry point every public send call funnels
// through. op/payload/last describe the first part of the (possibly
// multi-part) message; userHandler is notified once the whole part
// completes.
func (ep *Endpoint) startMessage(opcode OpCode, payload []byte, last bool, userHandler SendHandler) {
	ep.touchLastActive()

	wrapped := &endOfMessageHandler{ep: ep, user: userHandler}
	part := &MessagePart{opcode: opcode, payload: payload, last: last, handler: wrapped}

	ep.partsMu.Lock()

	if opcode == OpClose {
		// Disable batching synchronously so any bytes sitting in the
		// output buffer are flushed ahead of the close frame, not
		// trapped behind it. A failure here is logged and swallowed
		// (spec.md §7): it must never stop the close frame itself from
		// being sent.
		ep.disableBatchingLocked(&logAndSwallowHandler{ep: ep, context: "pre-close flush"})
	}

	ep.enqueueOrDispatchLocked(part)

	ep.partsMu.Unlock()

	ep.launchPendingPart()
}

// endMessage is invoked by endOfMessageHandler.OnResult when a part
// finishes writing. It commits the staged fragmentation flags, pops and
// starts the next queued part (once the endpoint has closed, that part
// is failed with ErrIllegalState instead of written), and finally
// invokes the caller's handler outside the lock so a user callback can
// never deadlock against a concurrent send.
func (ep *Endpoint) endMessage(userHandler SendHandler, result SendResult) {
	ep.partsMu.Lock()

	ep.parts.fragmented = ep.parts.nextFragmented
	ep.parts.text = ep.parts.nextText

	next := ep.popPendingLocked()

	if next != nil {
		ep.writeMessagePartLocked(next)
	} else {
		ep.parts.inProgress = false
	}

	ep.partsMu.Unlock()

	ep.launchPendingPart()

	ep.touchLastActive()

	userHandler.OnResult(result)
}

func (ep *Endpoint) touchLastActive() {
	ep.lastActiveMu.Lock()
	ep.lastActive = time.Now()
	ep.lastActiveMu.Unlock()
}

// LastActive returns the time of the most recent send activity on this
// endpoint (used by the owning session only, per spec.md §3).
func (ep *Endpoint) LastActive() time.Time {
	ep.lastActiveMu.Lock()
	defer ep.lastActiveMu.Unlock()
	return ep.lastActive
}
