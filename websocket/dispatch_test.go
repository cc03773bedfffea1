package websocket

import (
	"errors"
	"testing"
)

type stringyBinaryEncoder struct{}

func (stringyBinaryEncoder) EncodeBinary(v any) ([]byte, error) {
	return []byte(v.(string)), nil
}

type intTextEncoder struct{}

func (intTextEncoder) EncodeText(v any) (string, error) {
	return "int", nil
}

type failingEncoder struct{}

func (failingEncoder) EncodeBinary(v any) ([]byte, error) {
	return nil, errors.New("boom")
}

func TestDispatch_FirstAssignableEncoderWins(t *testing.T) {
	ep, ft := newTestEndpoint()

	// Two encoders both registered against the exact same sample type:
	// declaration order must decide, not any notion of specificity.
	ep.RegisterEncoder("", stringyBinaryEncoder{})
	ep.RegisterEncoder("", intTextEncoder{})

	if err := ep.SendObject("hello"); err != nil {
		t.Fatalf("SendObject: %v", err)
	}
	if ft.frameCount() != 1 {
		t.Fatalf("frames written = %d, want 1", ft.frameCount())
	}
	if ft.frames[0][0]&0x0F != byte(OpBinary) {
		t.Errorf("opcode nibble = 0x%X, want binary (the encoder registered first)", ft.frames[0][0]&0x0F)
	}
}

type unregisteredThing struct{ X int }

func TestDispatch_NoEncoderRegisteredFails(t *testing.T) {
	ep, _ := newTestEndpoint()

	if err := ep.SendObject(unregisteredThing{X: 1}); err == nil {
		t.Error("expected SendObject of a non-scalar with no registered encoder to fail")
	}
}

func TestDispatch_ScalarBypassesEncoderLookup(t *testing.T) {
	ep, ft := newTestEndpoint()

	// No encoder registered at all: scalars must still succeed by
	// routing straight to sendStringByCompletion.
	if err := ep.SendObject(42); err != nil {
		t.Fatalf("SendObject(42): %v", err)
	}
	if ft.frameCount() != 1 {
		t.Fatalf("frames written = %d, want 1", ft.frameCount())
	}
	if ft.frames[0][0]&0x0F != byte(OpText) {
		t.Errorf("opcode nibble = 0x%X, want text (scalar fast path)", ft.frames[0][0]&0x0F)
	}
}

func TestDispatch_EncoderFailureSurfacesAsEncodeError(t *testing.T) {
	ep, _ := newTestEndpoint()
	ep.RegisterEncoder("", failingEncoder{})

	err := ep.SendObject("x")
	if err == nil {
		t.Fatal("expected encoder failure to surface")
	}
	if !errors.Is(err, ErrEncode) {
		t.Errorf("err = %v, want wrapping ErrEncode", err)
	}
}
