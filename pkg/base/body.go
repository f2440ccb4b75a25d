package base

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
)

const (
	// MaxContentLength is the maximum body size accepted from a peer.
	MaxContentLength = 512 * 1024
)

var (
	headerTerminator = []byte("\r\n\r\n")
	lineTerminator   = []byte("\r\n")
	responsePrefix   = []byte(rtspProtocol10 + " ")
)

// HeaderEnd returns the position of the first byte after the blank line
// that terminates headers, or -1 if the blank line is not present.
func HeaderEnd(byts []byte) int {
	i := bytes.Index(byts, headerTerminator)
	if i < 0 {
		return -1
	}
	return i + len(headerTerminator)
}

// ContentLength returns the value of the Content-Length header
// contained in a header block, and whether the header is present.
func ContentLength(head []byte) (int, bool, error) {
	for _, line := range strings.Split(string(head), "\r\n") {
		key, val, ok := strings.Cut(line, ":")
		if !ok || !strings.EqualFold(strings.TrimSpace(key), "Content-Length") {
			continue
		}

		cl, err := strconv.ParseInt(strings.TrimSpace(val), 10, 64)
		if err != nil || cl < 0 {
			return 0, true, fmt.Errorf("invalid Content-Length")
		}

		if cl > MaxContentLength {
			return 0, true, fmt.Errorf("Content-Length exceeds %d (it's %d)",
				MaxContentLength, cl)
		}

		return int(cl), true, nil
	}

	return 0, false, nil
}

// IsMessageStart checks whether bytes begin with a complete
// request line or status line.
func IsMessageStart(byts []byte) bool {
	line, _, ok := bytes.Cut(byts, lineTerminator)
	if !ok {
		return false
	}

	if bytes.HasPrefix(line, responsePrefix) {
		return true
	}

	method, rest, ok := strings.Cut(string(line), " ")
	return ok && isMethodToken(method) && strings.HasSuffix(rest, " "+rtspProtocol10)
}
