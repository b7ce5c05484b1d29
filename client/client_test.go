package client_test

import (
	"io"
	"net"
	"testing"
	"time"

	"github.com/corehttpd/corehttpd/client"
)

func fakeServer(t *testing.T, handle func(conn net.Conn)) (addr string, stop func()) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		handle(conn)
	}()
	return ln.Addr().String(), func() { ln.Close() }
}

func splitHostPort(t *testing.T, addr string) (string, int) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		t.Fatal(err)
	}
	var port int
	for _, c := range portStr {
		port = port*10 + int(c-'0')
	}
	return host, port
}

func TestDownloadGetResponseContentLength(t *testing.T) {
	addr, stop := fakeServer(t, func(conn net.Conn) {
		defer conn.Close()
		buf := make([]byte, 1024)
		conn.Read(buf)
		conn.Write([]byte("HTTP/1.1 200 OK\r\nContent-Length: 5\r\n\r\nhello"))
	})
	defer stop()

	host, port := splitHostPort(t, addr)
	c, err := client.Download(host, port, false, "GET / HTTP/1.1\r\nHost: %s\r\n\r\n", host)
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	info, body, err := c.GetResponse(2 * time.Second)
	if err != nil {
		t.Fatal(err)
	}
	if info.Status != 200 {
		t.Fatalf("expected status 200, got %d", info.Status)
	}
	data, err := io.ReadAll(body)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "hello" {
		t.Errorf("expected body %q, got %q", "hello", data)
	}
}

func TestGetResponseReadsUntilEOFWhenLengthUnknown(t *testing.T) {
	addr, stop := fakeServer(t, func(conn net.Conn) {
		defer conn.Close()
		buf := make([]byte, 1024)
		conn.Read(buf)
		conn.Write([]byte("HTTP/1.1 200 OK\r\n\r\nwithout-length"))
	})
	defer stop()

	host, port := splitHostPort(t, addr)
	c, err := client.Connect(host, port, false)
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	if _, err := c.Printf("GET / HTTP/1.1\r\nHost: %s\r\n\r\n", host); err != nil {
		t.Fatal(err)
	}

	info, body, err := c.GetResponse(2 * time.Second)
	if err != nil {
		t.Fatal(err)
	}
	if info.ContentLength != -1 || info.Chunked {
		t.Fatalf("expected unknown length, got contentLength=%d chunked=%v", info.ContentLength, info.Chunked)
	}
	data, err := io.ReadAll(body)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "without-length" {
		t.Errorf("got %q", data)
	}
}

func TestGetResponseChunked(t *testing.T) {
	addr, stop := fakeServer(t, func(conn net.Conn) {
		defer conn.Close()
		buf := make([]byte, 1024)
		conn.Read(buf)
		conn.Write([]byte("HTTP/1.1 200 OK\r\nTransfer-Encoding: chunked\r\n\r\n5\r\nhello\r\n0\r\n\r\n"))
	})
	defer stop()

	host, port := splitHostPort(t, addr)
	c, err := client.Connect(host, port, false)
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	c.Printf("GET / HTTP/1.1\r\nHost: %s\r\n\r\n", host)
	info, body, err := c.GetResponse(2 * time.Second)
	if err != nil {
		t.Fatal(err)
	}
	if !info.Chunked {
		t.Fatal("expected chunked response to be detected")
	}
	data, err := io.ReadAll(body)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "hello" {
		t.Errorf("got %q", data)
	}
}
