// Author: momentics <momentics@gmail.com>
package httpproto

import (
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"

	"github.com/corehttpd/corehttpd/api"
	"github.com/corehttpd/corehttpd/ioc"
)

var crlfcrlf = []byte("\r\n\r\n")

// ParseHead reads and parses one request head off ch (spec §4.2). On
// success it returns a Request whose string fields are copied out of ch's
// buffer (so they survive a later ResetBuffer) and the number of bytes in
// the head, including the terminating blank line.
func ParseHead(ch *ioc.Channel) (*api.Request, int, error) {
	// Step 1: skip leading stray CRLFs (spec §4.2 step 1).
	for {
		buffered := ch.Buffered()
		if len(buffered) >= 2 && buffered[0] == '\r' && buffered[1] == '\n' {
			ch.Consume(2)
			continue
		}
		if len(buffered) >= 1 && buffered[0] != '\r' {
			break
		}
		if _, err := pullMore(ch); err != nil {
			return nil, 0, err
		}
		if len(ch.Buffered()) == 0 {
			break
		}
	}

	end, ok, err := ch.PullUntil(crlfcrlf)
	if err != nil {
		return nil, 0, wrapIOError(err)
	}
	if !ok {
		return nil, 0, api.ErrHeadTooLarge
	}

	head := make([]byte, end)
	copy(head, ch.Buffered()[:end])
	lines := strings.Split(strings.TrimSuffix(string(head), "\r\n\r\n"), "\r\n")
	if len(lines) == 0 || lines[0] == "" {
		return nil, 0, api.ErrBadRequest
	}

	req, err := parseRequestLine(lines[0])
	if err != nil {
		return nil, 0, err
	}

	if len(lines)-1 > api.MaxHeaders {
		return nil, 0, api.ErrTooManyHeaders
	}
	for _, line := range lines[1:] {
		if line == "" {
			continue
		}
		h, err := parseHeaderLine(line)
		if err != nil {
			return nil, 0, err
		}
		req.Headers = append(req.Headers, h)
	}

	if ct, ok := req.Header("Content-Type"); ok {
		req.IsForm = strings.HasPrefix(strings.ToLower(ct), "application/x-www-form-urlencoded")
	}

	req.ContentLen = -1
	if te, ok := req.Header("Transfer-Encoding"); ok && strings.EqualFold(strings.TrimSpace(te), "chunked") {
		req.Chunked = true
	} else if cl, ok := req.Header("Content-Length"); ok {
		n, err := strconv.ParseInt(strings.TrimSpace(cl), 10, 64)
		if err != nil || n < 0 {
			return nil, 0, api.ErrBadRequest
		}
		req.ContentLen = n
	}

	path, query := SplitTarget(req.RequestURI)
	local, err := NormalizePath(path)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", api.ErrBadRequest, err)
	}
	req.LocalURI = local
	req.Query = query

	ch.Consume(end)
	return req, end, nil
}

func pullMore(ch *ioc.Channel) (int, error) {
	n, err := ch.Pull()
	if err != nil {
		return n, wrapIOError(err)
	}
	return n, nil
}

// wrapIOError classifies a raw socket error from ioc.Channel into one of
// the three I/O sentinels a caller can act on distinctly: a deadline that
// fired with no new request arriving (the ordinary end of a keep-alive
// session, not worth a response or an access-log line), a peer that hung
// up first, or anything else.
func wrapIOError(err error) error {
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return fmt.Errorf("%w: %v", api.ErrTimeout, err)
	}
	if errors.Is(err, net.ErrClosed) || errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: %v", api.ErrIOClosed, err)
	}
	return fmt.Errorf("%w: %v", api.ErrIOError, err)
}

var validVersions = map[string]bool{"HTTP/1.0": true, "HTTP/1.1": true}

func parseRequestLine(line string) (*api.Request, error) {
	parts := strings.SplitN(line, " ", 3)
	if len(parts) != 3 {
		return nil, api.ErrBadRequest
	}
	method, target, version := parts[0], parts[1], parts[2]
	if method == "" || !isValidMethod(method) {
		return nil, api.ErrBadRequest
	}
	if target == "" {
		return nil, api.ErrBadRequest
	}
	if !validVersions[version] {
		return nil, fmt.Errorf("%w: %s", api.ErrUnsupported, version)
	}
	return &api.Request{Method: method, RequestURI: target, Version: version}, nil
}

func isValidMethod(m string) bool {
	for i := 0; i < len(m); i++ {
		c := m[i]
		if c <= 0x20 || c == 0x7f || strings.ContainsRune("()<>@,;:\\\"/[]?={}", rune(c)) {
			return false
		}
	}
	return true
}

func parseHeaderLine(line string) (api.Header, error) {
	idx := strings.IndexByte(line, ':')
	if idx <= 0 {
		return api.Header{}, api.ErrBadRequest
	}
	name := line[:idx]
	value := strings.TrimSpace(line[idx+1:])
	return api.Header{Name: name, Value: value}, nil
}
