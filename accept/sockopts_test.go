package accept_test

import (
	"net"
	"testing"
	"time"

	"github.com/corehttpd/corehttpd/accept"
)

func TestApplySocketOptionsOnTCPConn(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer ln.Close()

	accepted := make(chan net.Conn, 1)
	go func() {
		c, err := ln.Accept()
		if err == nil {
			accepted <- c
		}
	}()

	client, err := net.Dial("tcp", ln.Addr().String())
	if err != nil {
		t.Fatal(err)
	}
	defer client.Close()

	server := <-accepted
	defer server.Close()

	accept.ApplySocketOptions(server, true, 30*time.Second)
}

func TestApplySocketOptionsIgnoresNonTCPConn(t *testing.T) {
	server, client := net.Pipe()
	defer server.Close()
	defer client.Close()

	accept.ApplySocketOptions(server, true, time.Second)
}
