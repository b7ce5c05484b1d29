// Author: momentics <momentics@gmail.com>
package httpproto

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/corehttpd/corehttpd/api"
	"github.com/corehttpd/corehttpd/ioc"
)

// ResponseInfo is a parsed response head, the client-side mirror of
// api.Request (spec §6 "Client side": connect_client / get_response).
type ResponseInfo struct {
	Status        int
	Reason        string
	Version       string
	Headers       []api.Header
	ContentLength int64 // -1 if unknown
	Chunked       bool
}

// Header returns the first header value matching name, case-insensitively.
func (r *ResponseInfo) Header(name string) (string, bool) {
	for _, h := range r.Headers {
		if strings.EqualFold(h.Name, name) {
			return h.Value, true
		}
	}
	return "", false
}

// ParseResponseHead reads and parses one response head off ch, the
// client-side counterpart to ParseHead.
func ParseResponseHead(ch *ioc.Channel) (*ResponseInfo, error) {
	end, ok, err := ch.PullUntil(crlfcrlf)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", api.ErrIOError, err)
	}
	if !ok {
		return nil, api.ErrHeadTooLarge
	}

	head := make([]byte, end)
	copy(head, ch.Buffered()[:end])
	lines := strings.Split(strings.TrimSuffix(string(head), "\r\n\r\n"), "\r\n")
	if len(lines) == 0 || lines[0] == "" {
		return nil, api.ErrBadRequest
	}

	info, err := parseStatusLine(lines[0])
	if err != nil {
		return nil, err
	}

	for _, line := range lines[1:] {
		if line == "" {
			continue
		}
		h, err := parseHeaderLine(line)
		if err != nil {
			return nil, err
		}
		info.Headers = append(info.Headers, h)
	}

	info.ContentLength = -1
	if te, ok := info.Header("Transfer-Encoding"); ok && strings.EqualFold(strings.TrimSpace(te), "chunked") {
		info.Chunked = true
	} else if cl, ok := info.Header("Content-Length"); ok {
		n, err := strconv.ParseInt(strings.TrimSpace(cl), 10, 64)
		if err == nil && n >= 0 {
			info.ContentLength = n
		}
	}

	ch.Consume(end)
	return info, nil
}

func parseStatusLine(line string) (*ResponseInfo, error) {
	parts := strings.SplitN(line, " ", 3)
	if len(parts) < 2 {
		return nil, api.ErrBadRequest
	}
	if !validVersions[parts[0]] {
		return nil, fmt.Errorf("%w: %s", api.ErrUnsupported, parts[0])
	}
	status, err := strconv.Atoi(parts[1])
	if err != nil {
		return nil, api.ErrBadRequest
	}
	reason := ""
	if len(parts) == 3 {
		reason = parts[2]
	}
	return &ResponseInfo{Version: parts[0], Status: status, Reason: reason}, nil
}
