package conn_test

import (
	"bufio"
	"crypto/sha1"
	"encoding/base64"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/corehttpd/corehttpd/api"
	"github.com/corehttpd/corehttpd/conn"
	"github.com/corehttpd/corehttpd/registry"
	"github.com/corehttpd/corehttpd/wsproto"
)

const wsTestGUID = "258EAFA5-E914-47DA-95CA-C5AB0DC85B11"

func wsAccept(key string) string {
	h := sha1.New()
	h.Write([]byte(key + wsTestGUID))
	return base64.StdEncoding.EncodeToString(h.Sum(nil))
}

func TestServeOneWebSocketUpgrade(t *testing.T) {
	server, client := net.Pipe()
	defer client.Close()

	reg := registry.New()
	var gotData []byte
	reg.Set(api.Binding{
		Pattern: "/ws",
		Kind:    api.KindWebSocket,
		Data: func(c api.Conn, opcode int, data []byte) int {
			gotData = data
			c.WebSocketWrite(wsproto.OpText, []byte("echo:"+string(data)))
			return 0
		},
	})

	deps := newTestDeps(reg, &api.Callbacks{})
	c := conn.New(server, deps, false)

	done := make(chan struct{})
	var keepAlive, upgraded bool
	go func() {
		keepAlive, upgraded = c.ServeOne(true)
		close(done)
	}()

	key := "dGhlIHNhbXBsZSBub25jZQ=="
	req := "GET /ws HTTP/1.1\r\n" +
		"Host: x\r\n" +
		"Upgrade: websocket\r\n" +
		"Connection: Upgrade\r\n" +
		"Sec-WebSocket-Key: " + key + "\r\n" +
		"Sec-WebSocket-Version: 13\r\n\r\n"
	client.Write([]byte(req))

	reader := bufio.NewReader(client)
	statusLine, err := reader.ReadString('\n')
	if err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(statusLine) != "HTTP/1.1 101 Switching Protocols" {
		t.Fatalf("unexpected status line: %q", statusLine)
	}
	var acceptValue string
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			t.Fatal(err)
		}
		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			break
		}
		if strings.HasPrefix(strings.ToLower(line), "sec-websocket-accept:") {
			acceptValue = strings.TrimSpace(line[len("sec-websocket-accept:"):])
		}
	}
	if acceptValue != wsAccept(key) {
		t.Fatalf("expected accept %q, got %q", wsAccept(key), acceptValue)
	}

	maskKey := []byte{0x01, 0x02, 0x03, 0x04}
	payload := []byte("hi")
	if err := wsproto.WriteFrame(client, wsproto.OpText, payload, true, maskKey); err != nil {
		t.Fatal(err)
	}

	frame, err := wsproto.ReadFrame(reader, false)
	if err != nil {
		t.Fatal(err)
	}
	if string(frame.Payload) != "echo:hi" {
		t.Errorf("expected echo reply, got %q", frame.Payload)
	}
	if string(gotData) != "hi" {
		t.Errorf("expected handler to observe %q, got %q", "hi", gotData)
	}

	if err := wsproto.WriteFrame(client, wsproto.OpClose, wsproto.EncodeCloseFrame(wsproto.CloseNormal, ""), true, maskKey); err != nil {
		t.Fatal(err)
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("ServeOne did not return after close handshake")
	}
	if !upgraded {
		t.Error("expected upgraded=true")
	}
	if keepAlive {
		t.Error("expected keepAlive=false for a completed websocket session")
	}
}
