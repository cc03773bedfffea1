package websocket

import "testing"

func TestStateMachine_FullMessageRejectsConcurrentStart(t *testing.T) {
	sm := &stateMachine{}

	if err := sm.binaryStart(); err != nil {
		t.Fatalf("binaryStart: %v", err)
	}
	if err := sm.textStart(); err == nil {
		t.Error("expected textStart to fail while a binary full message is in flight")
	}
	if err := sm.complete(true); err != nil {
		t.Fatalf("complete(true): %v", err)
	}
	if err := sm.textStart(); err != nil {
		t.Errorf("textStart after completing previous message: %v", err)
	}
}

func TestStateMachine_FullMessageRejectsNonFinalComplete(t *testing.T) {
	sm := &stateMachine{}
	if err := sm.binaryStart(); err != nil {
		t.Fatalf("binaryStart: %v", err)
	}
	if err := sm.complete(false); err == nil {
		t.Error("expected complete(false) to be illegal for a full (non-fragmented) message")
	}
}

func TestStateMachine_PartialMessageSequence(t *testing.T) {
	sm := &stateMachine{}

	if err := sm.binaryPartialStart(); err != nil {
		t.Fatalf("binaryPartialStart: %v", err)
	}
	if err := sm.complete(false); err != nil {
		t.Fatalf("complete(false): %v", err)
	}
	if sm.snapshot() != stateBinaryPartialReady {
		t.Fatalf("state = %v, want BINARY_PARTIAL_READY", sm.snapshot())
	}

	// A second fragment continues the same message.
	if err := sm.binaryPartialStart(); err != nil {
		t.Fatalf("binaryPartialStart (continuation): %v", err)
	}
	if err := sm.complete(true); err != nil {
		t.Fatalf("complete(true): %v", err)
	}
	if sm.snapshot() != stateOpen {
		t.Fatalf("state = %v, want OPEN after final fragment", sm.snapshot())
	}
}

func TestStateMachine_StreamWritingToleratesManyNonFinalCompletes(t *testing.T) {
	sm := &stateMachine{}
	if err := sm.streamStart(); err != nil {
		t.Fatalf("streamStart: %v", err)
	}
	for i := 0; i < 5; i++ {
		if err := sm.complete(false); err != nil {
			t.Fatalf("complete(false) #%d: %v", i, err)
		}
		if sm.snapshot() != stateStreamWriting {
			t.Fatalf("state drifted out of STREAM_WRITING after non-final complete #%d", i)
		}
	}
	if err := sm.complete(true); err != nil {
		t.Fatalf("complete(true): %v", err)
	}
	if sm.snapshot() != stateOpen {
		t.Fatalf("state = %v, want OPEN after stream close", sm.snapshot())
	}
}

func TestStateMachine_RejectsStartFromWrongState(t *testing.T) {
	sm := &stateMachine{}
	if err := sm.streamStart(); err != nil {
		t.Fatalf("streamStart: %v", err)
	}
	if err := sm.binaryStart(); err == nil {
		t.Error("expected binaryStart to be illegal while a stream is open")
	}
	if err := sm.textPartialStart(); err == nil {
		t.Error("expected textPartialStart to be illegal while a stream is open")
	}
}
