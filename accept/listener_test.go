package accept_test

import (
	"net"
	"testing"
	"time"

	"github.com/corehttpd/corehttpd/accept"
)

func TestListenerBindAndAccept(t *testing.T) {
	l := &accept.Listener{Addr: "127.0.0.1:0"}
	if err := l.Bind(); err != nil {
		t.Fatal(err)
	}
	defer l.Close()

	addr := l.BoundAddr().String()

	go func() {
		conn, err := net.Dial("tcp", addr)
		if err != nil {
			return
		}
		defer conn.Close()
		conn.Write([]byte("ping"))
	}()

	var got net.Conn
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		c, err := l.Accept()
		if err != nil {
			t.Fatal(err)
		}
		if c != nil {
			got = c
			break
		}
	}
	if got == nil {
		t.Fatal("expected a connection to be accepted")
	}
	got.Close()
}

func TestListenerAcceptTimesOutWithNilConn(t *testing.T) {
	l := &accept.Listener{Addr: "127.0.0.1:0"}
	if err := l.Bind(); err != nil {
		t.Fatal(err)
	}
	defer l.Close()

	c, err := l.Accept()
	if err != nil {
		t.Fatal(err)
	}
	if c != nil {
		t.Fatal("expected nil conn on idle timeout")
	}
}

func TestSetBindFailureUndoesPriorBinds(t *testing.T) {
	good := &accept.Listener{Addr: "127.0.0.1:0"}
	bad := &accept.Listener{Addr: "bogus-addr"}

	_, err := accept.NewSet([]*accept.Listener{good, bad})
	if err == nil {
		t.Fatal("expected NewSet to fail on the bad listener")
	}
	if _, err := good.Accept(); err == nil {
		t.Error("expected the already-bound listener to be closed after the failure")
	}
}

func TestSetCloseAll(t *testing.T) {
	l1 := &accept.Listener{Addr: "127.0.0.1:0"}
	l2 := &accept.Listener{Addr: "127.0.0.1:0"}
	set, err := accept.NewSet([]*accept.Listener{l1, l2})
	if err != nil {
		t.Fatal(err)
	}
	set.CloseAll()

	if _, err := l1.Accept(); err == nil {
		t.Error("expected Accept to fail after CloseAll")
	}
}
