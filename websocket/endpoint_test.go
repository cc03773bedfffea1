package websocket

import (
	"sync"
	"testing"
)

// fakeTransport is a synchronous, in-memory Transport: it hands each
// written frame straight to the recorded list and completes the
// handler before Write returns, which is enough to exercise every
// ordering and state-machine guarantee without a real socket.
type fakeTransport struct {
	mu       sync.Mutex
	frames   [][]byte
	failNext bool
	closed   bool
}

func (t *fakeTransport) Write(handler SendHandler, bufs ...[]byte) {
	t.mu.Lock()
	if t.failNext {
		t.failNext = false
		t.mu.Unlock()
		handler.OnResult(failResult(wrapErrorf(ErrIO, "fake transport failure")))
		return
	}
	var frame []byte
	for _, b := range bufs {
		frame = append(frame, b...)
	}
	t.frames = append(t.frames, frame)
	t.mu.Unlock()
	handler.OnResult(okResult())
}

func (t *fakeTransport) Close() error {
	t.mu.Lock()
	t.closed = true
	t.mu.Unlock()
	return nil
}

func (t *fakeTransport) frameCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.frames)
}

func newTestEndpoint() (*Endpoint, *fakeTransport) {
	ft := &fakeTransport{}
	ep := NewEndpoint(ft, ServerRole, nil)
	ep.SetBatchingAllowed(false)
	return ep, ft
}

func TestEndpoint_SendBytesRoundTrip(t *testing.T) {
	ep, ft := newTestEndpoint()

	if err := ep.SendBytes([]byte("hello")); err != nil {
		t.Fatalf("SendBytes: %v", err)
	}
	if ft.frameCount() != 1 {
		t.Fatalf("frames written = %d, want 1", ft.frameCount())
	}

	stats := ep.Stats()
	if stats.MessagesSent != 1 {
		t.Errorf("MessagesSent = %d, want 1", stats.MessagesSent)
	}
	if stats.FramesSent != 1 {
		t.Errorf("FramesSent = %d, want 1", stats.FramesSent)
	}
}

func TestEndpoint_HandlerFiresExactlyOnce(t *testing.T) {
	ep, _ := newTestEndpoint()

	var calls int
	var mu sync.Mutex
	ep.SendBytesByCompletion([]byte("x"), SendHandlerFunc(func(SendResult) {
		mu.Lock()
		calls++
		mu.Unlock()
	}))

	mu.Lock()
	defer mu.Unlock()
	if calls != 1 {
		t.Errorf("handler fired %d times, want exactly 1", calls)
	}
}

func TestEndpoint_PartialSequenceCarriesOpcodeThenContinuation(t *testing.T) {
	ep, ft := newTestEndpoint()

	if err := ep.SendBytesPartial([]byte("part1"), false); err != nil {
		t.Fatalf("SendBytesPartial #1: %v", err)
	}
	if err := ep.SendBytesPartial([]byte("part2"), true); err != nil {
		t.Fatalf("SendBytesPartial #2: %v", err)
	}

	if ft.frameCount() != 2 {
		t.Fatalf("frames written = %d, want 2", ft.frameCount())
	}

	// First frame must carry the real opcode (binary), the continuation
	// must carry opcode 0.
	if ft.frames[0][0]&0x0F != byte(OpBinary) {
		t.Errorf("first frame opcode nibble = 0x%X, want 0x%X", ft.frames[0][0]&0x0F, OpBinary)
	}
	if ft.frames[1][0]&0x0F != 0x0 {
		t.Errorf("second frame opcode nibble = 0x%X, want 0 (continuation)", ft.frames[1][0]&0x0F)
	}
}

func TestEndpoint_MixingMessageTypeMidFragmentIsRejected(t *testing.T) {
	ep, _ := newTestEndpoint()

	if err := ep.SendBytesPartial([]byte("part1"), false); err != nil {
		t.Fatalf("SendBytesPartial: %v", err)
	}
	if err := ep.SendTextPartial("oops", true); err == nil {
		t.Error("expected switching message type mid-fragment to fail")
	}
}

func TestEndpoint_ControlFrameInterleavesDuringFragmentedMessage(t *testing.T) {
	ep, ft := newTestEndpoint()

	if err := ep.SendBytesPartial([]byte("part1"), false); err != nil {
		t.Fatalf("SendBytesPartial: %v", err)
	}
	if err := ep.SendPing([]byte("ping")); err != nil {
		t.Fatalf("SendPing mid-fragment: %v", err)
	}
	if err := ep.SendBytesPartial([]byte("part2"), true); err != nil {
		t.Fatalf("SendBytesPartial final: %v", err)
	}

	if ft.frameCount() != 3 {
		t.Fatalf("frames written = %d, want 3", ft.frameCount())
	}
	if ft.frames[1][0]&0x0F != byte(OpPing) {
		t.Errorf("middle frame opcode nibble = 0x%X, want ping", ft.frames[1][0]&0x0F)
	}
}

func TestEndpoint_SendAfterCloseIsIllegalState(t *testing.T) {
	ep, _ := newTestEndpoint()

	if err := ep.Close(CloseNormalClosure, ""); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := ep.SendBytes([]byte("too late")); err == nil {
		t.Error("expected send after close to fail")
	}
}

func TestEndpoint_TransportFailureSurfacesAsIOError(t *testing.T) {
	ep, ft := newTestEndpoint()
	ft.failNext = true

	err := ep.SendBytes([]byte("x"))
	if err == nil {
		t.Fatal("expected transport failure to surface")
	}
}

func TestEndpoint_SendStreamEmitsZeroLengthFrameOnEmptyClose(t *testing.T) {
	ep, ft := newTestEndpoint()

	stream, err := ep.GetSendStream()
	if err != nil {
		t.Fatalf("GetSendStream: %v", err)
	}
	if err := stream.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	if ft.frameCount() != 1 {
		t.Fatalf("frames written = %d, want 1 (the empty closing frame)", ft.frameCount())
	}
}

func TestEndpoint_SendStringFragmentsAcrossEncodeBuffer(t *testing.T) {
	ep, ft := newTestEndpoint()

	long := make([]byte, 8192*2+10)
	for i := range long {
		long[i] = 'a'
	}

	if err := ep.SendString(string(long)); err != nil {
		t.Fatalf("SendString: %v", err)
	}
	if ft.frameCount() < 3 {
		t.Fatalf("frames written = %d, want at least 3 for a string spanning three encode-buffer chunks", ft.frameCount())
	}
}
