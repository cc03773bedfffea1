package websocket

import (
	"context"
	"sync"
)

// SendResult is the outcome of one asynchronous send: either ok, or
// failed with a cause that wraps one of the error kinds in errors.go.
type SendResult struct {
	ok    bool
	cause error
}

// OK reports whether the send completed successfully.
func (r SendResult) OK() bool {
	return r.ok
}

// Err returns the failure cause, or nil if the send succeeded.
func (r SendResult) Err() error {
	return r.cause
}

func okResult() SendResult {
	return SendResult{ok: true}
}

func failResult(cause error) SendResult {
	return SendResult{ok: false, cause: cause}
}

// SendHandler is notified exactly once when an asynchronous send
// completes.
type SendHandler interface {
	OnResult(SendResult)
}

// SendHandlerFunc adapts a plain function to a SendHandler, mirroring
// teacher's preference for small function-shaped callbacks over
// always requiring a named type (see handshake.go's CheckOrigin).
type SendHandlerFunc func(SendResult)

// OnResult implements SendHandler.
func (f SendHandlerFunc) OnResult(r SendResult) { f(r) }

// noopHandler discards the result; used where the caller has no
// completion interest of its own (e.g. the flush part issued by
// SetBatchingAllowed(false) and FlushBatch).
var noopHandler SendHandler = SendHandlerFunc(func(SendResult) {})

// logAndSwallowHandler logs a failure through the endpoint's logger and
// otherwise discards the result (spec.md §7: "errors during CLOSE's
// pre-flush are logged and swallowed" — the close frame must still go
// out even if the flush ahead of it failed).
type logAndSwallowHandler struct {
	ep      *Endpoint
	context string
}

func (h *logAndSwallowHandler) OnResult(r SendResult) {
	if !r.ok {
		h.ep.logger.Warn(h.context+" failed", "error", r.cause, "endpoint", h.ep.id)
	}
}

// SendFuture is a SendHandler that is also a future: OnResult latches the
// result exactly once and releases any waiter blocked in Get. Used by
// every blocking and future-returning facade (spec.md §4.10, §5).
type SendFuture struct {
	once sync.Once
	done chan struct{}

	mu     sync.Mutex
	result SendResult
}

func newSendFuture() *SendFuture {
	return &SendFuture{done: make(chan struct{})}
}

// OnResult implements SendHandler. Only the first call has any effect;
// a SendHandler must fire exactly once per spec.md §8 invariant 1, so a
// second call is silently dropped rather than panicking on a closed
// channel.
func (f *SendFuture) OnResult(r SendResult) {
	f.once.Do(func() {
		f.mu.Lock()
		f.result = r
		f.mu.Unlock()
		close(f.done)
	})
}

// Get blocks until the send completes or ctx is done, whichever comes
// first. A nil ctx.Done() channel (context.Background) blocks forever.
func (f *SendFuture) Get(ctx context.Context) (SendResult, error) {
	select {
	case <-f.done:
		f.mu.Lock()
		defer f.mu.Unlock()
		return f.result, nil
	case <-ctx.Done():
		return SendResult{}, ctx.Err()
	}
}

// endOfMessageHandler wraps a user-supplied SendHandler so that its
// completion drives the message-part queue (endMessage) before the
// user ever sees the result (spec.md §4.4).
type endOfMessageHandler struct {
	ep   *Endpoint
	user SendHandler
}

func (h *endOfMessageHandler) OnResult(r SendResult) {
	h.ep.endMessage(h.user, r)
}

// stateUpdateHandler wraps a user-supplied SendHandler for sends where
// nothing else in the call chain already advances the state machine on
// completion (spec.md §4.10). On success it calls complete(last) before
// forwarding; last must match the FIN bit of the part this handler is
// attached to, not just true, since a non-final fragment's completion
// leaves BINARY_PARTIAL_WRITING/TEXT_PARTIAL_WRITING at the *_READY
// state rather than OPEN.
type stateUpdateHandler struct {
	sm   *stateMachine
	user SendHandler
	last bool
}

func (h *stateUpdateHandler) OnResult(r SendResult) {
	if r.ok {
		if err := h.sm.complete(h.last); err != nil {
			h.user.OnResult(failResult(err))
			return
		}
	}
	h.user.OnResult(r)
}
