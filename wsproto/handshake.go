// Package wsproto implements the WebSocket framing engine (spec §4.4):
// RFC 6455 upgrade, masked/unmasked frame codec, ping/pong, and the close
// handshake.
//
// Grounded directly on the teacher's protocol.DoHandshakeCore
// (core/protocol/handshake.go) and protocol.WebSocketFrame /
// DecodeFrameFromBytes / EncodeFrameToBytes (core/protocol/frame_codec.go),
// adapted from "read a full net/http Request" to "validate headers already
// parsed by httpproto" since upgrade happens mid-pipeline, not as a
// standalone HTTP round trip.
//
// Author: momentics <momentics@gmail.com>
package wsproto

import (
	"crypto/sha1"
	"encoding/base64"
	"strings"

	"github.com/corehttpd/corehttpd/api"
)

const webSocketGUID = "258EAFA5-E914-47DA-95CA-C5AB0DC85B11"

// RequiredVersion is the only Sec-WebSocket-Version this implementation
// accepts (spec §4.4).
const RequiredVersion = "13"

// IsUpgradeRequest reports whether req carries the Upgrade: websocket
// signal the registry needs to check before consulting a websocket binding
// (spec §4.3 step 2).
func IsUpgradeRequest(req *api.Request) bool {
	upg, _ := req.Header("Upgrade")
	return containsToken(upg, "websocket")
}

// ValidateUpgrade checks the remaining upgrade preconditions (spec §4.4)
// and computes the Sec-WebSocket-Accept value. Returns an error describing
// which precondition failed; the caller responds 400 (or the most specific
// status it cares to pick) and does not upgrade.
func ValidateUpgrade(req *api.Request) (accept string, err error) {
	conn, _ := req.Header("Connection")
	if !containsToken(conn, "Upgrade") {
		return "", api.ErrBadRequest
	}
	ver, _ := req.Header("Sec-WebSocket-Version")
	if ver != RequiredVersion {
		return "", api.ErrUnsupported
	}
	key, ok := req.Header("Sec-WebSocket-Key")
	if !ok || len(mustDecodeKey(key)) != 16 {
		return "", api.ErrBadRequest
	}
	return computeAccept(key), nil
}

func computeAccept(key string) string {
	h := sha1.New()
	h.Write([]byte(key + webSocketGUID))
	return base64.StdEncoding.EncodeToString(h.Sum(nil))
}

func mustDecodeKey(key string) []byte {
	b, err := base64.StdEncoding.DecodeString(key)
	if err != nil {
		return nil
	}
	return b
}

func containsToken(header, token string) bool {
	token = strings.ToLower(token)
	for _, part := range strings.Split(header, ",") {
		if strings.ToLower(strings.TrimSpace(part)) == token {
			return true
		}
	}
	return false
}

// UpgradeResponseHead renders the 101 Switching Protocols head.
func UpgradeResponseHead(accept string) []byte {
	var b strings.Builder
	b.WriteString("HTTP/1.1 101 Switching Protocols\r\n")
	b.WriteString("Upgrade: websocket\r\n")
	b.WriteString("Connection: Upgrade\r\n")
	b.WriteString("Sec-WebSocket-Accept: ")
	b.WriteString(accept)
	b.WriteString("\r\n\r\n")
	return []byte(b.String())
}
