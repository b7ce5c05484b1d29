// Author: momentics <momentics@gmail.com>
package wsproto

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"strings"
)

// NewClientKey generates a fresh Sec-WebSocket-Key (16 random bytes,
// base64-encoded), the client-side half of the RFC 6455 handshake.
func NewClientKey() string {
	var raw [16]byte
	_, _ = rand.Read(raw[:])
	return base64.StdEncoding.EncodeToString(raw[:])
}

// UpgradeRequestHead renders the client's handshake request (spec §6
// "connect_websocket_client").
func UpgradeRequestHead(host, path, key string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "GET %s HTTP/1.1\r\n", path)
	fmt.Fprintf(&b, "Host: %s\r\n", host)
	b.WriteString("Upgrade: websocket\r\n")
	b.WriteString("Connection: Upgrade\r\n")
	fmt.Fprintf(&b, "Sec-WebSocket-Key: %s\r\n", key)
	b.WriteString("Sec-WebSocket-Version: 13\r\n")
	b.WriteString("\r\n")
	return []byte(b.String())
}

// VerifyServerAccept checks a server's Sec-WebSocket-Accept value against
// the key the client sent.
func VerifyServerAccept(key, accept string) bool {
	return computeAccept(key) == accept
}

// NewMaskKey generates a fresh 4-byte client-to-server masking key
// (spec §4.4: "client-to-server frames MUST be masked").
func NewMaskKey() []byte {
	var key [4]byte
	_, _ = rand.Read(key[:])
	return key[:]
}
