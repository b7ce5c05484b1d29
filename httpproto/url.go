// Package httpproto implements the header codec (spec §4.2): request-line
// and header parsing, URI normalization and percent-decoding, chunked
// transfer-coding, and response-head emission.
//
// Author: momentics <momentics@gmail.com>
package httpproto

import (
	"fmt"
	"strings"
)

// URLDecode percent-decodes s. When isForm is true, '+' decodes to space
// (RFC 1866); otherwise '+' passes through literally (spec §6 "Wire
// formats").
func URLDecode(s string, isForm bool) (string, error) {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '+':
			if isForm {
				b.WriteByte(' ')
			} else {
				b.WriteByte('+')
			}
		case '%':
			if i+2 >= len(s) {
				return "", fmt.Errorf("httpproto: truncated percent-escape")
			}
			hi, ok1 := hexVal(s[i+1])
			lo, ok2 := hexVal(s[i+2])
			if !ok1 || !ok2 {
				return "", fmt.Errorf("httpproto: invalid percent-escape")
			}
			b.WriteByte(byte(hi<<4 | lo))
			i += 2
		default:
			b.WriteByte(c)
		}
	}
	return b.String(), nil
}

func hexVal(c byte) (int, bool) {
	switch {
	case '0' <= c && c <= '9':
		return int(c - '0'), true
	case 'a' <= c && c <= 'f':
		return int(c-'a') + 10, true
	case 'A' <= c && c <= 'F':
		return int(c-'A') + 10, true
	default:
		return 0, false
	}
}

// URLEncode percent-encodes s, leaving ASCII-printable unreserved characters
// (RFC 3986 unreserved set) untouched.
func URLEncode(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isUnreserved(c) {
			b.WriteByte(c)
		} else {
			fmt.Fprintf(&b, "%%%02X", c)
		}
	}
	return b.String()
}

func isUnreserved(c byte) bool {
	switch {
	case 'A' <= c && c <= 'Z', 'a' <= c && c <= 'z', '0' <= c && c <= '9':
		return true
	case c == '-' || c == '_' || c == '.' || c == '~':
		return true
	default:
		return false
	}
}

// SplitTarget splits a raw request-target into its path and raw query
// string at the first '?' (spec §4.2 step 4).
func SplitTarget(target string) (path, query string) {
	if idx := strings.IndexByte(target, '?'); idx >= 0 {
		return target[:idx], target[idx+1:]
	}
	return target, ""
}

// NormalizePath percent-decodes and resolves "." / ".." segments in path,
// rejecting any escape above root (spec §4.2 step 4, §8 invariant 1).
func NormalizePath(path string) (string, error) {
	decoded, err := URLDecode(path, false)
	if err != nil {
		return "", err
	}
	if decoded == "" || decoded[0] != '/' {
		decoded = "/" + decoded
	}
	segments := strings.Split(decoded, "/")
	out := make([]string, 0, len(segments))
	for _, seg := range segments {
		switch seg {
		case "", ".":
			continue
		case "..":
			if len(out) == 0 {
				return "", fmt.Errorf("httpproto: path traversal above root")
			}
			out = out[:len(out)-1]
		default:
			out = append(out, seg)
		}
	}
	normalized := "/" + strings.Join(out, "/")
	if strings.HasSuffix(decoded, "/") && normalized != "/" {
		normalized += "/"
	}
	return normalized, nil
}
