package websocket

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// EndpointOptions configures an Endpoint. All fields are optional; zero
// values use sensible defaults, mirroring handshake.go's UpgradeOptions.
type EndpointOptions struct {
	// Logger receives structured diagnostic events (currently only a
	// failed flush ahead of a close frame). nil uses slog.Default().
	Logger *slog.Logger

	// SendTimeout bounds every blocking send facade (SendBytes,
	// SendString, SendStream.Close, ...). Zero uses
	// defaultSendTimeout; a negative value means no timeout.
	SendTimeout time.Duration
}

// defaultSendTimeout applies when EndpointOptions.SendTimeout is zero.
const defaultSendTimeout = 20 * time.Second

// Endpoint is one RFC 6455 WebSocket remote endpoint's send side: the
// state machine, message-part queue, output buffer and encode buffer
// described in opcodes.go's package doc all live here. An Endpoint is
// safe for exactly one sending goroutine's logical stream of calls at a
// time — see messagePartQueue in messagepart.go for what that does and
// does not guarantee under true concurrent callers.
type Endpoint struct {
	id     uuid.UUID
	logger *slog.Logger

	transport  Transport
	maskPolicy MaskPolicy

	sm *stateMachine

	partsMu sync.Mutex
	parts   *messagePartQueue

	// Staged by writeMessagePartLocked under partsMu, consumed by
	// launchPendingPart strictly after partsMu is released. See
	// fragmentation.go's package comment for why.
	pendingPart   *MessagePart
	pendingErr    error
	pendingFirst  bool
	pendingMasked bool
	pendingMask   [4]byte

	headerBuf [maxHeaderSize]byte
	outputBuf [8192]byte
	outputLen int
	encodeBuf [8192]byte

	batching int32 // atomic bool

	sendTimeoutMu sync.RWMutex
	sendTimeout   time.Duration

	lastActiveMu sync.Mutex
	lastActive   time.Time

	encoders []EncoderEntry

	bytesSent    atomic.Int64
	messagesSent atomic.Int64
	framesSent   atomic.Int64
}

// NewEndpoint builds an Endpoint over transport, masking outgoing
// frames according to maskPolicy (ServerRole or ClientRole).
func NewEndpoint(transport Transport, maskPolicy MaskPolicy, opts *EndpointOptions) *Endpoint {
	if opts == nil {
		opts = &EndpointOptions{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	sendTimeout := opts.SendTimeout
	if sendTimeout == 0 {
		sendTimeout = defaultSendTimeout
	}

	return &Endpoint{
		id:          uuid.New(),
		logger:      logger,
		transport:   transport,
		maskPolicy:  maskPolicy,
		sm:          &stateMachine{},
		parts:       newMessagePartQueue(),
		sendTimeout: sendTimeout,
		batching:    1,
	}
}

// ID uniquely identifies this endpoint for correlation in logs and
// session registries (spec.md's session lifecycle is an external
// collaborator; this is the handle it keys off of).
func (ep *Endpoint) ID() uuid.UUID {
	return ep.id
}

// SendTimeout returns the duration blocking send facades wait before
// giving up. Zero or a negative value means wait forever.
func (ep *Endpoint) SendTimeout() time.Duration {
	ep.sendTimeoutMu.RLock()
	defer ep.sendTimeoutMu.RUnlock()
	return ep.sendTimeout
}

// SetSendTimeout changes the blocking-facade timeout.
func (ep *Endpoint) SetSendTimeout(d time.Duration) {
	ep.sendTimeoutMu.Lock()
	ep.sendTimeout = d
	ep.sendTimeoutMu.Unlock()
}

// Stats is a snapshot of this endpoint's lifetime send activity.
type Stats struct {
	BytesSent    int64
	MessagesSent int64
	FramesSent   int64
	LastActive   time.Time
}

// Stats returns the endpoint's current send counters.
func (ep *Endpoint) Stats() Stats {
	return Stats{
		BytesSent:    ep.bytesSent.Load(),
		MessagesSent: ep.messagesSent.Load(),
		FramesSent:   ep.framesSent.Load(),
		LastActive:   ep.LastActive(),
	}
}

func (ep *Endpoint) recordFrame(part *MessagePart, headerLen int) {
	ep.framesSent.Add(1)
	ep.bytesSent.Add(int64(headerLen + len(part.payload)))
	if part.last {
		ep.messagesSent.Add(1)
	}
}

// blockingWait turns handler completion into a blocking call bounded by
// the endpoint's configured send timeout.
func (ep *Endpoint) blockingWait(future *SendFuture) error {
	ctx := context.Background()
	if d := ep.SendTimeout(); d > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d)
		defer cancel()
	}
	result, err := future.Get(ctx)
	if err != nil {
		return wrapErrorf(ErrIO, "send timed out: %v", err)
	}
	return result.Err()
}

// --- Binary sends (spec.md §4.10) ---

func (ep *Endpoint) sendBytesByCompletion(b []byte, handler SendHandler) {
	if err := ep.sm.binaryStart(); err != nil {
		handler.OnResult(failResult(err))
		return
	}
	ep.startMessage(OpBinary, b, true, &stateUpdateHandler{sm: ep.sm, user: handler, last: true})
}

// SendBytes sends b as a complete binary message, blocking until it
// completes or the send timeout elapses.
func (ep *Endpoint) SendBytes(b []byte) error {
	future := newSendFuture()
	ep.sendBytesByCompletion(b, future)
	return ep.blockingWait(future)
}

// SendBytesByCompletion sends b as a complete binary message, invoking
// handler exactly once when it completes.
func (ep *Endpoint) SendBytesByCompletion(b []byte, handler SendHandler) {
	ep.sendBytesByCompletion(b, handler)
}

// SendBytesByFuture sends b as a complete binary message, returning
// immediately with a future the caller can block on.
func (ep *Endpoint) SendBytesByFuture(b []byte) *SendFuture {
	future := newSendFuture()
	ep.sendBytesByCompletion(b, future)
	return future
}

// SendBytesPartial sends one fragment of a binary message. The first
// call in a sequence must set last=false (or true, for a single-frame
// message); every call up to and including the one with last=true must
// use this same method — mixing with SendBytes mid-fragment is an
// illegal-state error.
func (ep *Endpoint) SendBytesPartial(b []byte, last bool) error {
	if err := ep.sm.binaryPartialStart(); err != nil {
		return err
	}
	future := newSendFuture()
	ep.startMessage(OpBinary, b, last, &stateUpdateHandler{sm: ep.sm, user: future, last: last})
	return ep.blockingWait(future)
}

// --- Text sends (spec.md §4.6, §4.10) ---

func (ep *Endpoint) sendStringByCompletion(s string, handler SendHandler) {
	if err := ep.sm.textStart(); err != nil {
		handler.OnResult(failResult(err))
		return
	}
	pump := newTextEncodePump(ep, s, &stateUpdateHandler{sm: ep.sm, user: handler, last: true})
	pump.run()
}

// SendString sends s as a complete text message, blocking until it
// completes or the send timeout elapses. s is encoded to UTF-8 through
// the endpoint's encode buffer, transparently fragmenting into
// multiple frames if it does not fit in one.
func (ep *Endpoint) SendString(s string) error {
	future := newSendFuture()
	ep.sendStringByCompletion(s, future)
	return ep.blockingWait(future)
}

// SendStringByCompletion sends s as a complete text message, invoking
// handler exactly once when it completes.
func (ep *Endpoint) SendStringByCompletion(s string, handler SendHandler) {
	ep.sendStringByCompletion(s, handler)
}

// SendStringByFuture sends s as a complete text message, returning
// immediately with a future the caller can block on.
func (ep *Endpoint) SendStringByFuture(s string) *SendFuture {
	future := newSendFuture()
	ep.sendStringByCompletion(s, future)
	return future
}

// SendTextPartial sends one fragment of a text message, analogous to
// SendBytesPartial.
func (ep *Endpoint) SendTextPartial(s string, last bool) error {
	if err := ep.sm.textPartialStart(); err != nil {
		return err
	}
	future := newSendFuture()
	ep.startMessage(OpText, []byte(s), last, &stateUpdateHandler{sm: ep.sm, user: future, last: last})
	return ep.blockingWait(future)
}

// --- Control frames (spec.md §4.7: never gated by the state machine;
// they may interleave between the parts of a fragmented message) ---

const maxControlPayload = 125

// SendPing sends a ping control frame, blocking until it completes.
func (ep *Endpoint) SendPing(payload []byte) error {
	return ep.sendControl(OpPing, payload)
}

// SendPong sends a pong control frame, blocking until it completes.
func (ep *Endpoint) SendPong(payload []byte) error {
	return ep.sendControl(OpPong, payload)
}

func (ep *Endpoint) sendControl(opcode OpCode, payload []byte) error {
	if len(payload) > maxControlPayload {
		return wrapErrorf(ErrIllegalArgument, "%s payload %d bytes: %w", opcodeName(opcode), len(payload), ErrControlTooLarge)
	}
	future := newSendFuture()
	ep.startMessage(opcode, payload, true, future)
	return ep.blockingWait(future)
}

func opcodeName(opcode OpCode) string {
	switch opcode {
	case OpPing:
		return "ping"
	case OpPong:
		return "pong"
	case OpClose:
		return "close"
	default:
		return "control"
	}
}

// Close sends a close control frame with code and reason, then tears
// down the underlying transport. Safe to call more than once; later
// calls after the first successful close return ErrClosed.
func (ep *Endpoint) Close(code CloseCode, reason string) error {
	ep.partsMu.Lock()
	closed := ep.parts.closed
	ep.partsMu.Unlock()
	if closed {
		return ErrClosed
	}

	payload := make([]byte, 2+len(reason))
	payload[0] = byte(code >> 8)
	payload[1] = byte(code)
	copy(payload[2:], reason)
	if len(payload) > maxControlPayload {
		payload = payload[:maxControlPayload]
	}

	future := newSendFuture()
	ep.startMessage(OpClose, payload, true, future)
	sendErr := ep.blockingWait(future)

	closeErr := ep.transport.Close()
	if sendErr != nil {
		return sendErr
	}
	return closeErr
}

// --- Stream/Writer adapters (spec.md §4.8) ---

// GetSendStream returns a binary, byte-oriented partial-message writer.
// Only one stream or writer may be open on an endpoint at a time; it
// must be Close()d before any other send call is made.
func (ep *Endpoint) GetSendStream() (*SendStream, error) {
	if err := ep.sm.streamStart(); err != nil {
		return nil, err
	}
	return &SendStream{ep: ep}, nil
}

// GetSendWriter returns a text, char-oriented partial-message writer.
func (ep *Endpoint) GetSendWriter() (*SendWriter, error) {
	if err := ep.sm.writeStart(); err != nil {
		return nil, err
	}
	return &SendWriter{ep: ep}, nil
}
