package conn_test

import (
	"bufio"
	"io"
	"net"
	"testing"
	"time"

	"github.com/corehttpd/corehttpd/api"
	"github.com/corehttpd/corehttpd/conn"
	"github.com/corehttpd/corehttpd/control"
	"github.com/corehttpd/corehttpd/log"
	"github.com/corehttpd/corehttpd/registry"
)

func newTestDeps(reg *registry.Registry, cb *api.Callbacks) *conn.Deps {
	return &conn.Deps{
		Registry:        reg,
		Options:         mustOptions(),
		Metrics:         control.NewMetrics(),
		Logger:          log.Nop(),
		Callbacks:       cb,
		ServerName:      "test",
		RequestTimeout:  time.Second,
		KeepAliveIdle:   time.Second,
		MaxBodyDiscard:  1 << 20,
		ReadBufferSize:  4096,
		EnableKeepAlive: true,
	}
}

func mustOptions() *control.Options {
	o, err := control.NewOptions(nil)
	if err != nil {
		panic(err)
	}
	return o
}

func TestServeOneSimpleGet(t *testing.T) {
	server, client := net.Pipe()
	defer client.Close()

	reg := registry.New()
	reg.Set(api.Binding{Pattern: "/hello", Kind: api.KindRequest, Request: func(c api.Conn, req *api.Request) int {
		c.WriteStatus(200)
		c.SetHeader("Content-Length", "5")
		c.Write([]byte("hello"))
		return 200
	}})

	deps := newTestDeps(reg, &api.Callbacks{})
	c := conn.New(server, deps, false)

	done := make(chan struct{})
	go func() {
		c.ServeOne(true)
		close(done)
	}()

	client.Write([]byte("GET /hello HTTP/1.1\r\nHost: x\r\nConnection: close\r\n\r\n"))

	reader := bufio.NewReader(client)
	line, err := reader.ReadString('\n')
	if err != nil {
		t.Fatal(err)
	}
	if line != "HTTP/1.1 200 OK\r\n" {
		t.Errorf("unexpected status line: %q", line)
	}
	<-done
}

func TestServeOneDefaultNotFound(t *testing.T) {
	server, client := net.Pipe()
	defer client.Close()

	deps := newTestDeps(registry.New(), &api.Callbacks{})
	c := conn.New(server, deps, false)

	done := make(chan struct{})
	go func() {
		c.ServeOne(true)
		close(done)
	}()

	client.Write([]byte("GET /missing HTTP/1.1\r\nHost: x\r\nConnection: close\r\n\r\n"))

	reader := bufio.NewReader(client)
	line, _ := reader.ReadString('\n')
	if line != "HTTP/1.1 404 Not Found\r\n" {
		t.Errorf("unexpected status line: %q", line)
	}
	<-done
}

func TestServeOneAuthDenies(t *testing.T) {
	server, client := net.Pipe()
	defer client.Close()

	reg := registry.New()
	reg.Set(api.Binding{Pattern: "/private", Kind: api.KindAuth, Auth: func(c api.Conn, req *api.Request) int {
		return 0
	}})
	reg.Set(api.Binding{Pattern: "/private", Kind: api.KindRequest, Request: func(c api.Conn, req *api.Request) int {
		t.Error("request handler must not run when auth denies")
		return 200
	}})

	deps := newTestDeps(reg, &api.Callbacks{})
	c := conn.New(server, deps, false)

	done := make(chan struct{})
	go func() {
		c.ServeOne(true)
		close(done)
	}()

	client.Write([]byte("GET /private HTTP/1.1\r\nHost: x\r\nConnection: close\r\n\r\n"))

	reader := bufio.NewReader(client)
	line, _ := reader.ReadString('\n')
	if line != "HTTP/1.1 401 Unauthorized\r\n" {
		t.Errorf("unexpected status line: %q", line)
	}
	<-done
}

func TestServeOneKeepAliveAllowsPipelining(t *testing.T) {
	server, client := net.Pipe()
	defer client.Close()

	reg := registry.New()
	reg.Set(api.Binding{Pattern: "/", Kind: api.KindRequest, Request: func(c api.Conn, req *api.Request) int {
		c.WriteStatus(200)
		c.SetHeader("Content-Length", "2")
		c.Write([]byte("ok"))
		return 200
	}})

	deps := newTestDeps(reg, &api.Callbacks{})
	c := conn.New(server, deps, false)

	go client.Write([]byte("GET / HTTP/1.1\r\nHost: x\r\n\r\n"))
	// Drain the response so the server's writes on the pipe do not block
	// until the deadline and mark the connection dirty.
	go io.Copy(io.Discard, client)

	keepAlive, upgraded := c.ServeOne(true)
	if upgraded {
		t.Fatal("did not expect websocket upgrade")
	}
	if !keepAlive {
		t.Fatal("expected keep-alive to remain true for HTTP/1.1 with no Connection: close")
	}
}
