package websocket

import (
	"context"
	"unicode/utf8"
)

// streamwriter.go implements spec.md §4.8: the byte-oriented SendStream
// and char-oriented SendWriter adapters returned by GetSendStream and
// GetSendWriter. Both buffer into a private 8192-byte chunk, flushing a
// binary or text partial frame whenever the chunk fills, and send a
// final (possibly zero-length) frame with FIN set when Close is
// called — even an adapter that was never written to still emits one
// empty frame on Close, the documented flush-on-close behavior
// (spec.md §9 open question 1, preserved rather than special-cased
// away).
//
// Both adapters block the calling goroutine until each chunk's write
// completes (or the endpoint's configured send timeout elapses),
// mirroring the blocking send facades in endpoint.go.

// SendStream is a binary, byte-oriented partial-message writer. Obtain
// one via Endpoint.GetSendStream; exactly one may be open at a time.
type SendStream struct {
	ep     *Endpoint
	buf    [8192]byte
	n      int
	closed bool
}

// Write buffers p, flushing full chunks as binary partial frames as
// needed. It blocks until any chunk it had to flush completes.
func (s *SendStream) Write(p []byte) (int, error) {
	if s.closed {
		return 0, wrapErrorf(ErrIllegalState, "write to closed stream")
	}
	total := 0
	for len(p) > 0 {
		room := len(s.buf) - s.n
		c := room
		if c > len(p) {
			c = len(p)
		}
		copy(s.buf[s.n:], p[:c])
		s.n += c
		p = p[c:]
		total += c
		if s.n == len(s.buf) {
			if err := s.flush(false); err != nil {
				return total, err
			}
		}
	}
	return total, nil
}

// Close flushes any buffered bytes as the final (FIN) frame of the
// message, sending a zero-length frame if nothing was ever written.
func (s *SendStream) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	return s.flush(true)
}

func (s *SendStream) flush(last bool) error {
	payload := make([]byte, s.n)
	copy(payload, s.buf[:s.n])
	s.n = 0

	// Always the logical opcode: writeMessagePartLocked derives the wire
	// continuation bit from the endpoint's fragmentation state via the
	// first flag, the caller must never flip this itself.
	return s.ep.blockingSend(OpBinary, payload, last)
}

// SendWriter is a text, char-oriented partial-message writer. Obtain
// one via Endpoint.GetSendWriter; exactly one may be open at a time.
type SendWriter struct {
	ep      *Endpoint
	buf     [8192]byte
	n       int
	pending [utf8.UTFMax]byte // bytes of a rune split across Write calls
	pendN   int
	closed  bool
}

// Write accepts UTF-8 bytes, which may split a multi-byte rune across
// calls; WriteString is the simpler entry point for whole strings.
func (w *SendWriter) Write(p []byte) (int, error) {
	if w.closed {
		return 0, wrapErrorf(ErrIllegalState, "write to closed stream")
	}
	total := len(p)

	for len(p) > 0 {
		if w.pendN > 0 {
			prev := w.pendN
			need := utf8.UTFMax - prev
			if need > len(p) {
				need = len(p)
			}
			copy(w.pending[prev:], p[:need])

			r, size := utf8.DecodeRune(w.pending[:prev+need])
			if r == utf8.RuneError && size <= 1 {
				if prev+need < utf8.UTFMax {
					w.pendN = prev + need
					p = p[need:]
					continue // still need more bytes
				}
				return total - len(p), wrapErrorf(ErrIllegalArgument, "invalid UTF-8 in stream write")
			}
			if err := w.appendRune(r); err != nil {
				return total - len(p), err
			}
			// Only the bytes that completed the rune leave p; the rest
			// are decoded from p itself on the next iteration.
			p = p[size-prev:]
			w.pendN = 0
			continue
		}

		r, size := utf8.DecodeRune(p)
		if r == utf8.RuneError && size <= 1 {
			if len(p) < utf8.UTFMax {
				copy(w.pending[:], p)
				w.pendN = len(p)
				p = nil
				continue
			}
			return total - len(p), wrapErrorf(ErrIllegalArgument, "invalid UTF-8 in stream write")
		}
		if err := w.appendRune(r); err != nil {
			return total - len(p), err
		}
		p = p[size:]
	}

	return total, nil
}

// WriteString is the char-oriented entry point: an entire string at
// once, avoiding the split-rune bookkeeping Write needs for partial
// byte slices.
func (w *SendWriter) WriteString(s string) error {
	for _, r := range s {
		if err := w.appendRune(r); err != nil {
			return err
		}
	}
	return nil
}

func (w *SendWriter) appendRune(r rune) error {
	size := utf8.RuneLen(r)
	if size < 0 {
		size = utf8.RuneLen(utf8.RuneError)
		r = utf8.RuneError
	}
	if w.n+size > len(w.buf) {
		if err := w.flush(false); err != nil {
			return err
		}
	}
	w.n += utf8.EncodeRune(w.buf[w.n:], r)
	return nil
}

// Close flushes any buffered characters as the final frame, sending a
// zero-length frame if nothing was ever written.
func (w *SendWriter) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	return w.flush(true)
}

func (w *SendWriter) flush(last bool) error {
	payload := make([]byte, w.n)
	copy(payload, w.buf[:w.n])
	w.n = 0

	// Always the logical opcode: see SendStream.flush.
	return w.ep.blockingSend(OpText, payload, last)
}

// blockingSend is the shared primitive behind every adapter flush (the
// blocking public facades use blockingWait): it starts a part, wraps it so success
// advances the state machine, and blocks until it completes or the
// endpoint's send timeout elapses.
func (ep *Endpoint) blockingSend(opcode OpCode, payload []byte, last bool) error {
	future := newSendFuture()
	ep.startMessage(opcode, payload, last, &stateUpdateHandler{sm: ep.sm, user: future, last: last})

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
