package wsproto_test

import (
	"bytes"
	"testing"

	"github.com/corehttpd/corehttpd/api"
	"github.com/corehttpd/corehttpd/wsproto"
)

func TestWriteReadFrameRoundTrip(t *testing.T) {
	payload := []byte("hello")
	var buf bytes.Buffer
	mask := []byte{1, 2, 3, 4}
	if err := wsproto.WriteFrame(&buf, wsproto.OpText, payload, true, mask); err != nil {
		t.Fatal(err)
	}
	frame, err := wsproto.ReadFrame(&buf, true)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(frame.Payload, payload) {
		t.Errorf("payload mismatch: got %q want %q", frame.Payload, payload)
	}
	if frame.Opcode != wsproto.OpText || !frame.Fin {
		t.Errorf("unexpected frame: %+v", frame)
	}
}

func TestReadFrameRejectsUnmaskedFromClient(t *testing.T) {
	var buf bytes.Buffer
	if err := wsproto.WriteFrame(&buf, wsproto.OpText, []byte("x"), true, nil); err != nil {
		t.Fatal(err)
	}
	_, err := wsproto.ReadFrame(&buf, true)
	if err == nil {
		t.Fatal("expected mask-discipline violation, got nil error")
	}
	pe, ok := err.(*api.ProtocolError)
	if !ok || pe.CloseCode != wsproto.CloseProtocolError {
		t.Errorf("expected ProtocolError(1002), got %v", err)
	}
}

func TestReadFrameRejectsFragmentedControlFrame(t *testing.T) {
	var buf bytes.Buffer
	if err := wsproto.WriteFrame(&buf, wsproto.OpPing, []byte("x"), false, []byte{0, 0, 0, 0}); err != nil {
		t.Fatal(err)
	}
	_, err := wsproto.ReadFrame(&buf, true)
	if err == nil {
		t.Fatal("expected fragmented control frame rejection")
	}
}

func TestCloseFrameRoundTrip(t *testing.T) {
	payload := wsproto.EncodeCloseFrame(wsproto.CloseNormal, "bye")
	code, reason := wsproto.DecodeCloseFrame(payload)
	if code != wsproto.CloseNormal || reason != "bye" {
		t.Errorf("got (%d, %q)", code, reason)
	}
}

func TestDecodeCloseFrameShortPayload(t *testing.T) {
	code, reason := wsproto.DecodeCloseFrame(nil)
	if code != 0 || reason != "" {
		t.Errorf("expected zero value for short payload, got (%d, %q)", code, reason)
	}
}
