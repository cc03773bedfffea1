package websocket

import "testing"

func TestBatching_FlushBatchForcesPendingOutput(t *testing.T) {
	ep, ft := newTestEndpoint()
	ep.SetBatchingAllowed(true)

	done := make(chan struct{})
	ep.SendBytesByCompletion([]byte("x"), SendHandlerFunc(func(SendResult) {
		close(done)
	}))

	if ft.frameCount() != 0 {
		t.Fatalf("frames written before flush = %d, want 0 (still batched)", ft.frameCount())
	}

	ep.FlushBatch()
	<-done

	if ft.frameCount() != 1 {
		t.Fatalf("frames written after flush = %d, want 1", ft.frameCount())
	}
}

func TestBatching_DisablingFlushesBufferedOutput(t *testing.T) {
	ep, ft := newTestEndpoint()
	ep.SetBatchingAllowed(true)

	done := make(chan struct{})
	ep.SendBytesByCompletion([]byte("x"), SendHandlerFunc(func(SendResult) {
		close(done)
	}))

	ep.SetBatchingAllowed(false)
	<-done

	if ft.frameCount() != 1 {
		t.Fatalf("frames written = %d, want 1", ft.frameCount())
	}
	if ep.IsBatchingAllowed() {
		t.Error("batching still reports allowed after SetBatchingAllowed(false)")
	}
}

func TestBatching_DisabledByDefaultHelperWritesImmediately(t *testing.T) {
	ep, ft := newTestEndpoint()

	if err := ep.SendBytes([]byte("x")); err != nil {
		t.Fatalf("SendBytes: %v", err)
	}
	if ft.frameCount() != 1 {
		t.Fatalf("frames written = %d, want 1", ft.frameCount())
	}
}
