package httpproto_test

import (
	"io"
	"net"
	"testing"

	"github.com/corehttpd/corehttpd/httpproto"
	"github.com/corehttpd/corehttpd/ioc"
)

func TestChunkedReaderDecodesMultipleChunks(t *testing.T) {
	server, client := net.Pipe()
	go func() {
		_, _ = client.Write(httpproto.EncodeChunk([]byte("hello ")))
		_, _ = client.Write(httpproto.EncodeChunk([]byte("world")))
		_, _ = client.Write(httpproto.EncodeFinalChunk())
		client.Close()
	}()
	defer server.Close()

	ch := ioc.New(server, ioc.DefaultBufferSize)
	r := httpproto.NewChunkedReader(ch)
	got, err := io.ReadAll(r)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "hello world" {
		t.Errorf("got %q", got)
	}
}

func TestEncodeFinalChunk(t *testing.T) {
	if string(httpproto.EncodeFinalChunk()) != "0\r\n\r\n" {
		t.Errorf("unexpected final chunk encoding: %q", httpproto.EncodeFinalChunk())
	}
}
