package websocket

// encoder.go declares the four encoder capabilities an application
// object may implement (spec.md §4.9). Each is a narrow interface; an
// object registered against Endpoint.RegisterEncoder only needs to
// satisfy the one capability its send path requires. The sender never
// constructs these itself — they are the "user object encoders"
// external collaborator spec.md §1 keeps outside the sender's scope.

// BinaryEncoder encodes a registered object to a binary message
// payload.
type BinaryEncoder interface {
	EncodeBinary(v any) ([]byte, error)
}

// TextEncoder encodes a registered object to a text message payload.
type TextEncoder interface {
	EncodeText(v any) (string, error)
}

// StreamEncoder encodes a registered object directly onto a SendStream,
// for objects whose encoding is itself naturally chunked (e.g. a large
// attachment read from disk).
type StreamEncoder interface {
	EncodeStream(v any, dst *SendStream) error
}

// WriterEncoder encodes a registered object directly onto a SendWriter.
type WriterEncoder interface {
	EncodeWriter(v any, dst *SendWriter) error
}
