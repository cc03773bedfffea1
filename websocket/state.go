package websocket

import "sync"

// senderState is one of the nine states a sender can occupy (spec.md §3).
type senderState int

const (
	stateOpen senderState = iota
	stateStreamWriting
	stateWriterWriting
	stateBinaryPartialWriting
	stateBinaryPartialReady
	stateBinaryFullWriting
	stateTextPartialWriting
	stateTextPartialReady
	stateTextFullWriting
)

func (s senderState) String() string {
	switch s {
	case stateOpen:
		return "OPEN"
	case stateStreamWriting:
		return "STREAM_WRITING"
	case stateWriterWriting:
		return "WRITER_WRITING"
	case stateBinaryPartialWriting:
		return "BINARY_PARTIAL_WRITING"
	case stateBinaryPartialReady:
		return "BINARY_PARTIAL_READY"
	case stateBinaryFullWriting:
		return "BINARY_FULL_WRITING"
	case stateTextPartialWriting:
		return "TEXT_PARTIAL_WRITING"
	case stateTextPartialReady:
		return "TEXT_PARTIAL_READY"
	case stateTextFullWriting:
		return "TEXT_FULL_WRITING"
	default:
		return "UNKNOWN"
	}
}

// stateMachine is a strictly synchronous gate on every public send entry
// point (spec.md §4.3). It is advisory across calls but authoritative
// within one: it rejects illegal interleavings such as beginning a new
// full message while a fragmented one is in flight, or switching
// fragmented message type mid-stream.
type stateMachine struct {
	mu      sync.Mutex
	current senderState
}

// illegalTransition reports the current state as part of an
// ErrIllegalState so callers can see what they attempted and from where.
func (sm *stateMachine) illegalTransition(op string) error {
	return wrapErrorf(ErrIllegalState, "%s: illegal from state %s", op, sm.current)
}

func (sm *stateMachine) streamStart() error {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	if sm.current != stateOpen {
		return sm.illegalTransition("streamStart")
	}
	sm.current = stateStreamWriting
	return nil
}

func (sm *stateMachine) writeStart() error {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	if sm.current != stateOpen {
		return sm.illegalTransition("writeStart")
	}
	sm.current = stateWriterWriting
	return nil
}

func (sm *stateMachine) binaryStart() error {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	if sm.current != stateOpen {
		return sm.illegalTransition("binaryStart")
	}
	sm.current = stateBinaryFullWriting
	return nil
}

func (sm *stateMachine) textStart() error {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	if sm.current != stateOpen {
		return sm.illegalTransition("textStart")
	}
	sm.current = stateTextFullWriting
	return nil
}

func (sm *stateMachine) binaryPartialStart() error {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	if sm.current != stateOpen && sm.current != stateBinaryPartialReady {
		return sm.illegalTransition("binaryPartialStart")
	}
	sm.current = stateBinaryPartialWriting
	return nil
}

func (sm *stateMachine) textPartialStart() error {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	if sm.current != stateOpen && sm.current != stateTextPartialReady {
		return sm.illegalTransition("textPartialStart")
	}
	sm.current = stateTextPartialWriting
	return nil
}

// complete advances the state machine after a part finishes writing.
// last reports whether that part carried the FIN bit.
func (sm *stateMachine) complete(last bool) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	switch sm.current {
	case stateStreamWriting, stateWriterWriting:
		if last {
			sm.current = stateOpen
		}
		// complete(false) leaves stream/writer states unchanged: they
		// emit many partial frames before the adapter's Close() call.
		return nil
	case stateBinaryPartialWriting:
		if last {
			sm.current = stateOpen
		} else {
			sm.current = stateBinaryPartialReady
		}
		return nil
	case stateTextPartialWriting:
		if last {
			sm.current = stateOpen
		} else {
			sm.current = stateTextPartialReady
		}
		return nil
	case stateBinaryFullWriting, stateTextFullWriting:
		if !last {
			return sm.illegalTransition("complete(false)")
		}
		sm.current = stateOpen
		return nil
	default:
		return sm.illegalTransition("complete")
	}
}

// snapshot returns the current state for diagnostics/tests.
func (sm *stateMachine) snapshot() senderState {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	return sm.current
}
