// Author: momentics <momentics@gmail.com>
package wsproto

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/corehttpd/corehttpd/api"
)

// Opcodes (RFC 6455 §5.2).
const (
	OpContinuation = 0x0
	OpText         = 0x1
	OpBinary       = 0x2
	OpClose        = 0x8
	OpPing         = 0x9
	OpPong         = 0xA
)

// Close status codes (spec §4.4, §7). ReadFrame and the server receive loop
// emit CloseNormal, CloseProtocolError and CloseMessageTooBig; the other
// two are defined but not emitted by this package or conn.
const (
	CloseNormal         = 1000
	CloseProtocolError  = 1002
	CloseUnsupportedData = 1003
	CloseInvalidPayload = 1007
	CloseMessageTooBig  = 1009
)

// MaxControlPayload is the control-frame payload cap (spec §4.4).
const MaxControlPayload = 125

// MaxFramePayload bounds any single frame's payload, protecting against
// resource exhaustion (grounded on the teacher's
// core/protocol/frame_codec.go MaxFramePayload constant).
const MaxFramePayload = 1 << 20 // 1 MiB

// OpcodeName labels an opcode for metrics/logging, falling back to its hex
// value for anything outside the six opcodes this implementation dispatches
// (reserved opcodes never reach here: ReadFrame already rejects them).
func OpcodeName(op byte) string {
	switch op {
	case OpContinuation:
		return "continuation"
	case OpText:
		return "text"
	case OpBinary:
		return "binary"
	case OpClose:
		return "close"
	case OpPing:
		return "ping"
	case OpPong:
		return "pong"
	default:
		return fmt.Sprintf("0x%x", op)
	}
}

// Frame is one decoded WebSocket frame.
type Frame struct {
	Fin     bool
	RSV     byte // bits 1-3, must be 0 (no extensions negotiated)
	Opcode  byte
	Masked  bool
	Payload []byte
}

// ReadFrame decodes exactly one frame from r, enforcing the RSV/mask/size
// rules of spec §4.4. Server-reading context (fromClient=true) requires
// masked frames; client-reading context (fromClient=false) requires
// unmasked frames — violating the expected mask discipline is a protocol
// violation closing with 1002.
func ReadFrame(r io.Reader, fromClient bool) (*Frame, error) {
	hdr := make([]byte, 2)
	if _, err := io.ReadFull(r, hdr); err != nil {
		return nil, err
	}
	fin := hdr[0]&0x80 != 0
	rsv := (hdr[0] >> 4) & 0x7
	opcode := hdr[0] & 0x0F
	masked := hdr[1]&0x80 != 0
	length := int64(hdr[1] & 0x7F)

	if rsv != 0 {
		return nil, api.NewProtocolError(CloseProtocolError, fmt.Errorf("%w: nonzero RSV bits", api.ErrProtocolViolation))
	}
	if masked != fromClient {
		return nil, api.NewProtocolError(CloseProtocolError, fmt.Errorf("%w: mask discipline violated", api.ErrProtocolViolation))
	}
	if opcode >= 0x8 && (!fin || length > MaxControlPayload) {
		return nil, api.NewProtocolError(CloseProtocolError, fmt.Errorf("%w: fragmented or oversized control frame", api.ErrProtocolViolation))
	}
	switch opcode {
	case OpContinuation, OpText, OpBinary, OpClose, OpPing, OpPong:
	default:
		return nil, api.NewProtocolError(CloseProtocolError, fmt.Errorf("%w: reserved opcode 0x%x", api.ErrProtocolViolation, opcode))
	}

	switch length {
	case 126:
		ext := make([]byte, 2)
		if _, err := io.ReadFull(r, ext); err != nil {
			return nil, err
		}
		length = int64(binary.BigEndian.Uint16(ext))
	case 127:
		ext := make([]byte, 8)
		if _, err := io.ReadFull(r, ext); err != nil {
			return nil, err
		}
		length = int64(binary.BigEndian.Uint64(ext))
	}
	if length > MaxFramePayload {
		return nil, api.NewProtocolError(CloseMessageTooBig, fmt.Errorf("%w: payload %d exceeds max", api.ErrProtocolViolation, length))
	}

	var maskKey [4]byte
	if masked {
		if _, err := io.ReadFull(r, maskKey[:]); err != nil {
			return nil, err
		}
	}

	payload := make([]byte, length)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, err
	}
	if masked {
		for i := range payload {
			payload[i] ^= maskKey[i%4]
		}
	}

	return &Frame{Fin: fin, RSV: rsv, Opcode: opcode, Masked: masked, Payload: payload}, nil
}

// WriteFrame encodes one frame (opcode, payload, FIN bit) to w. A nil
// maskKey writes an unmasked frame, as server-to-client frames must be
// (spec §4.4); a non-nil 4-byte maskKey masks the payload, as a client
// writing to a server must.
func WriteFrame(w io.Writer, opcode byte, payload []byte, fin bool, maskKey []byte) error {
	if len(payload) > MaxFramePayload {
		return fmt.Errorf("wsproto: payload %d exceeds max", len(payload))
	}
	b0 := opcode & 0x0F
	if fin {
		b0 |= 0x80
	}
	masked := maskKey != nil

	var hdr []byte
	switch {
	case len(payload) <= 125:
		hdr = []byte{b0, byte(len(payload))}
	case len(payload) <= 0xFFFF:
		hdr = make([]byte, 4)
		hdr[0] = b0
		hdr[1] = 126
		binary.BigEndian.PutUint16(hdr[2:], uint16(len(payload)))
	default:
		hdr = make([]byte, 10)
		hdr[0] = b0
		hdr[1] = 127
		binary.BigEndian.PutUint64(hdr[2:], uint64(len(payload)))
	}
	if masked {
		hdr[1] |= 0x80
	}
	if _, err := w.Write(hdr); err != nil {
		return err
	}
	if masked {
		if _, err := w.Write(maskKey); err != nil {
			return err
		}
		masked := make([]byte, len(payload))
		for i := range payload {
			masked[i] = payload[i] ^ maskKey[i%4]
		}
		_, err := w.Write(masked)
		return err
	}
	_, err := w.Write(payload)
	return err
}

// EncodeCloseFrame builds a close frame's payload: 2-byte big-endian code
// followed by an optional UTF-8 reason.
func EncodeCloseFrame(code int, reason string) []byte {
	buf := make([]byte, 2+len(reason))
	binary.BigEndian.PutUint16(buf, uint16(code))
	copy(buf[2:], reason)
	return buf
}

// DecodeCloseFrame extracts the code and reason from a close frame payload.
// A payload shorter than 2 bytes yields code 0 (no status given).
func DecodeCloseFrame(payload []byte) (code int, reason string) {
	if len(payload) < 2 {
		return 0, ""
	}
	return int(binary.BigEndian.Uint16(payload)), string(payload[2:])
}
