// Author: momentics <momentics@gmail.com>
package httpproto

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/corehttpd/corehttpd/api"
	"github.com/corehttpd/corehttpd/ioc"
)

// ChunkedReader decodes an RFC 7230 chunked body read from a Channel
// (spec §4.2 "Chunked decoder").
type ChunkedReader struct {
	ch        *ioc.Channel
	remaining int64
	done      bool
}

// NewChunkedReader wraps ch for chunked body decoding.
func NewChunkedReader(ch *ioc.Channel) *ChunkedReader {
	return &ChunkedReader{ch: ch}
}

// Read implements io.Reader, transparently crossing chunk boundaries.
func (r *ChunkedReader) Read(p []byte) (int, error) {
	if r.done {
		return 0, io.EOF
	}
	if r.remaining == 0 {
		size, err := r.readChunkSize()
		if err != nil {
			return 0, err
		}
		if size == 0 {
			if err := r.readTrailers(); err != nil {
				return 0, err
			}
			r.done = true
			return 0, io.EOF
		}
		r.remaining = size
	}
	if int64(len(p)) > r.remaining {
		p = p[:r.remaining]
	}
	n, err := r.ch.ReadBody(p)
	r.remaining -= int64(n)
	if err != nil {
		return n, fmt.Errorf("%w: %v", api.ErrIOError, err)
	}
	if r.remaining == 0 {
		if err := r.readCRLF(); err != nil {
			return n, err
		}
	}
	return n, nil
}

func (r *ChunkedReader) readLine() (string, error) {
	var line bytes.Buffer
	buf := make([]byte, 1)
	for {
		n, err := r.ch.ReadBody(buf)
		if n == 1 {
			if buf[0] == '\n' {
				s := line.String()
				return strings.TrimSuffix(s, "\r"), nil
			}
			line.WriteByte(buf[0])
		}
		if err != nil {
			return "", fmt.Errorf("%w: %v", api.ErrIOError, err)
		}
	}
}

func (r *ChunkedReader) readCRLF() error {
	_, err := r.readLine()
	return err
}

func (r *ChunkedReader) readChunkSize() (int64, error) {
	line, err := r.readLine()
	if err != nil {
		return 0, err
	}
	if idx := strings.IndexByte(line, ';'); idx >= 0 {
		line = line[:idx]
	}
	line = strings.TrimSpace(line)
	size, err := strconv.ParseInt(line, 16, 64)
	if err != nil || size < 0 {
		return 0, fmt.Errorf("%w: bad chunk size %q", api.ErrBadRequest, line)
	}
	return size, nil
}

func (r *ChunkedReader) readTrailers() error {
	for {
		line, err := r.readLine()
		if err != nil {
			return err
		}
		if line == "" {
			return nil
		}
	}
}

// EncodeChunk wraps data as a single chunked-transfer chunk.
func EncodeChunk(data []byte) []byte {
	var b bytes.Buffer
	fmt.Fprintf(&b, "%x\r\n", len(data))
	b.Write(data)
	b.WriteString("\r\n")
	return b.Bytes()
}

// EncodeFinalChunk is the terminating zero-length chunk with no trailers.
func EncodeFinalChunk() []byte {
	return []byte("0\r\n\r\n")
}
