package websocket

import (
	"context"
	"fmt"
	"reflect"
)

// dispatch.go implements spec.md §4.9: turning SendObject(v) into a call
// against whichever encoder capability the first matching registered
// encoder implements.
//
// Declaration order, not specificity, decides ties (spec.md §9 open
// question 2, preserved): if two registered types both match an
// object's runtime type, the one registered first wins, even if the
// other is a narrower type. This matches the teacher's own
// first-match-wins route table in hub.go's subscription matching.

// RegisterEncoder associates enc with every object assignable to a
// value of type sample's type. enc must implement at least one of
// BinaryEncoder, TextEncoder, StreamEncoder or WriterEncoder.
func (ep *Endpoint) RegisterEncoder(sample any, enc any) {
	ep.encoders = append(ep.encoders, EncoderEntry{
		Type:    reflect.TypeOf(sample),
		Encoder: enc,
	})
}

func (ep *Endpoint) findEncoder(v any) (EncoderEntry, bool) {
	t := reflect.TypeOf(v)
	for _, e := range ep.encoders {
		if e.accepts(t) {
			return e, true
		}
	}
	return EncoderEntry{}, false
}

// isScalar reports whether v is a primitive-ish scalar (numeric,
// boolean, or character) that should bypass encoder lookup entirely
// and go straight out as text.
func isScalar(v any) bool {
	switch reflect.ValueOf(v).Kind() {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64:
		return true
	default:
		return false
	}
}

// sendObjectByCompletion is the core of every SendObject* facade: it
// looks up the encoder, runs it, and reports the outcome to handler.
func (ep *Endpoint) sendObjectByCompletion(v any, handler SendHandler) {
	if isScalar(v) {
		ep.sendStringByCompletion(fmt.Sprint(v), handler)
		return
	}

	entry, ok := ep.findEncoder(v)
	if !ok {
		handler.OnResult(failResult(wrapErrorf(ErrEncode, "no encoder registered for %T", v)))
		return
	}

	switch enc := entry.Encoder.(type) {
	case BinaryEncoder:
		b, err := enc.EncodeBinary(v)
		if err != nil {
			handler.OnResult(failResult(wrapErrorf(ErrEncode, "encode %T: %v", v, err)))
			return
		}
		ep.sendBytesByCompletion(b, handler)

	case TextEncoder:
		s, err := enc.EncodeText(v)
		if err != nil {
			handler.OnResult(failResult(wrapErrorf(ErrEncode, "encode %T: %v", v, err)))
			return
		}
		ep.sendStringByCompletion(s, handler)

	case StreamEncoder:
		stream, err := ep.GetSendStream()
		if err != nil {
			handler.OnResult(failResult(err))
			return
		}
		if err := enc.EncodeStream(v, stream); err != nil {
			_ = stream.Close()
			handler.OnResult(failResult(wrapErrorf(ErrEncode, "encode %T: %v", v, err)))
			return
		}
		if err := stream.Close(); err != nil {
			handler.OnResult(failResult(err))
			return
		}
		handler.OnResult(okResult())

	case WriterEncoder:
		writer, err := ep.GetSendWriter()
		if err != nil {
			handler.OnResult(failResult(err))
			return
		}
		if err := enc.EncodeWriter(v, writer); err != nil {
			_ = writer.Close()
			handler.OnResult(failResult(wrapErrorf(ErrEncode, "encode %T: %v", v, err)))
			return
		}
		if err := writer.Close(); err != nil {
			handler.OnResult(failResult(err))
			return
		}
		handler.OnResult(okResult())

	default:
		handler.OnResult(failResult(wrapErrorf(ErrDeployment, "encoder for %T implements no known capability", v)))
	}
}

// SendObject encodes v with its registered encoder and sends it,
// blocking until the send completes or the endpoint's send timeout
// elapses.
func (ep *Endpoint) SendObject(v any) error {
	future := newSendFuture()
	ep.sendObjectByCompletion(v, future)

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

// SendObjectByCompletion encodes v and sends it, invoking handler
// exactly once when the send completes.
func (ep *Endpoint) SendObjectByCompletion(v any, handler SendHandler) {
	ep.sendObjectByCompletion(v, handler)
}

// SendObjectByFuture encodes v and sends it, returning immediately with
// a future the caller can block on.
func (ep *Endpoint) SendObjectByFuture(v any) *SendFuture {
	future := newSendFuture()
	ep.sendObjectByCompletion(v, future)
	return future
}
