// Package base contains the primitives of the RTSP protocol.
package base

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
)

const (
	rtspProtocol10         = "RTSP/1.0"
	requestMaxMethodLength = 64
)

// Method is the method of a RTSP request.
type Method string

// methods.
const (
	Announce     Method = "ANNOUNCE"
	Flush        Method = "FLUSH"
	GetParameter Method = "GET_PARAMETER"
	Options      Method = "OPTIONS"
	Pause        Method = "PAUSE"
	Post         Method = "POST"
	Record       Method = "RECORD"
	Setup        Method = "SETUP"
	SetParameter Method = "SET_PARAMETER"
	Teardown     Method = "TEARDOWN"
)

func isMethodToken(s string) bool {
	if len(s) == 0 || len(s) > requestMaxMethodLength {
		return false
	}

	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < 'A' || c > 'Z') && c != '_' {
			return false
		}
	}

	return true
}

// Request is a RTSP request.
type Request struct {
	// request method.
	// It is empty when the accumulated bytes do not start with a request line
	// (i.e. binary FairPlay messages).
	Method Method

	// request target, as sent by the client (either an absolute URL or a path)
	URL string

	// map of header values
	Header Header

	// optional body
	Body []byte

	// whether the blank line separating headers from body was found
	HasSeparator bool

	// error encountered while decoding Content-Length.
	// The body then holds everything that follows the blank line.
	ContentLengthErr error

	// bytes the request has been decoded from
	Raw []byte
}

// Unmarshal decodes a request from the bytes accumulated for it.
// Header correctness is not validated: the only structural element
// that is located is the boundary between headers and body.
func (req *Request) Unmarshal(byts []byte) error {
	if len(byts) == 0 {
		return fmt.Errorf("empty request")
	}

	req.Raw = byts
	req.Method = ""
	req.URL = ""
	req.Header = make(Header)
	req.Body = nil
	req.HasSeparator = false
	req.ContentLengthErr = nil

	head := byts
	if i := HeaderEnd(byts); i >= 0 {
		head = byts[:i-2]
		req.HasSeparator = true
		if i < len(byts) {
			req.Body = byts[i:]
		}
		_, _, req.ContentLengthErr = ContentLength(head)
	}

	lines := strings.Split(string(head), "\r\n")

	parts := strings.SplitN(lines[0], " ", 3)
	if !isMethodToken(parts[0]) {
		return nil
	}

	req.Method = Method(parts[0])
	if len(parts) >= 2 {
		req.URL = parts[1]
	}

	req.Header.unmarshalLines(lines[1:])

	return nil
}

// Path returns the path of the request target.
func (req Request) Path() string {
	u := req.URL

	if i := strings.Index(u, "://"); i >= 0 {
		u = u[i+len("://"):]
		j := strings.IndexByte(u, '/')
		if j < 0 {
			return "/"
		}
		u = u[j:]
	}

	if i := strings.IndexByte(u, '?'); i >= 0 {
		u = u[:i]
	}

	return u
}

// Marshal encodes a Request.
func (req Request) Marshal() ([]byte, error) {
	if !isMethodToken(string(req.Method)) {
		return nil, fmt.Errorf("invalid method '%s'", req.Method)
	}

	var buf bytes.Buffer

	buf.WriteString(string(req.Method) + " " + req.URL + " " + rtspProtocol10 + "\r\n")

	h := req.Header.clone()
	if len(req.Body) != 0 {
		h["Content-Length"] = HeaderValue{strconv.FormatInt(int64(len(req.Body)), 10)}
	}

	h.marshalTo(&buf)
	buf.Write(req.Body)

	return buf.Bytes(), nil
}

// String implements fmt.Stringer.
func (req Request) String() string {
	buf, _ := req.Marshal()
	return string(buf)
}
