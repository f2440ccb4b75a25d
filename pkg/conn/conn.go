// Package conn contains a RTSP connection implementation.
package conn

import (
	"bytes"
	"errors"
	"net"
	"os"
	"time"

	"github.com/bluenviron/airsink/pkg/base"
	"github.com/bluenviron/airsink/pkg/liberrors"
)

const (
	readBufferSize = 4096

	// DefaultAssemblyTimeout is the default AssemblyTimeout.
	DefaultAssemblyTimeout = 100 * time.Millisecond

	// MaxMessageSize is the maximum number of bytes accumulated for a single message.
	MaxMessageSize = 1024 * 1024
)

var responsePrefix = []byte("RTSP/1.0 ")

// Conn is a RTSP connection.
// Bytes are accumulated until they form a logical message:
// either headers terminated by a blank line followed by the announced body,
// or whatever has been received when the peer stops sending
// before the end of the message can be determined.
type Conn struct {
	nconn net.Conn

	// time to wait for further bytes when the accumulated ones
	// do not contain the blank line that terminates headers,
	// or when the body is not delimited by a Content-Length.
	AssemblyTimeout time.Duration

	buf []byte
	tmp []byte
}

// NewConn allocates a Conn.
func NewConn(nconn net.Conn) *Conn {
	return &Conn{
		nconn:           nconn,
		AssemblyTimeout: DefaultAssemblyTimeout,
		tmp:             make([]byte, readBufferSize),
	}
}

func isTimeout(err error) bool {
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

// frame returns the length of the first complete message contained in buf,
// or zero if more bytes are needed.
// quiet is true when the end of the message can only be detected
// by waiting for the peer to stop sending, which happens when headers are not
// terminated or when the body is not delimited by a valid Content-Length.
// When flush is true, such a message is closed at the end of buf.
func (c *Conn) frame(flush bool) (n int, quiet bool) {
	i := base.HeaderEnd(c.buf)
	if i < 0 {
		if flush {
			return len(c.buf), true
		}
		return 0, true
	}

	cl, ok, err := base.ContentLength(c.buf[:i])
	if ok && err == nil {
		if len(c.buf) < i+cl {
			return 0, false
		}
		return i + cl, false
	}

	// the body is whatever follows the blank line,
	// unless another message follows it immediately.
	if len(c.buf) > i && base.IsMessageStart(c.buf[i:]) {
		return i, true
	}

	if flush {
		return len(c.buf), true
	}
	return 0, true
}

func (c *Conn) fill(assembling bool) (bool, error) {
	if assembling {
		c.nconn.SetReadDeadline(time.Now().Add(c.AssemblyTimeout)) //nolint:errcheck
	} else {
		c.nconn.SetReadDeadline(time.Time{}) //nolint:errcheck
	}

	n, err := c.nconn.Read(c.tmp)
	if n > 0 {
		c.buf = append(c.buf, c.tmp[:n]...)
		if len(c.buf) > MaxMessageSize {
			return false, liberrors.ErrServerRequestTooLarge{Limit: MaxMessageSize}
		}
	}

	if err != nil {
		if assembling && isTimeout(err) {
			return true, nil
		}
		return false, err
	}

	return false, nil
}

func (c *Conn) take(n int) []byte {
	msg := make([]byte, n)
	copy(msg, c.buf[:n])
	c.buf = c.buf[n:]
	return msg
}

func (c *Conn) readMessage() ([]byte, error) {
	for {
		assembling := false

		if len(c.buf) != 0 {
			var n int
			n, assembling = c.frame(false)
			if n != 0 {
				return c.take(n), nil
			}
		}

		// the end of the message is not known: wait for the rest for a bounded time,
		// then hand over what has been received.
		timedOut, err := c.fill(assembling)
		if err != nil {
			return nil, err
		}

		if timedOut {
			n, _ := c.frame(true)
			return c.take(n), nil
		}
	}
}

// Read reads a Request or a Response.
func (c *Conn) Read() (interface{}, error) {
	byts, err := c.readMessage()
	if err != nil {
		return nil, err
	}

	if bytes.HasPrefix(byts, responsePrefix) {
		var res base.Response
		err = res.Unmarshal(byts)
		return &res, err
	}

	var req base.Request
	err = req.Unmarshal(byts)
	return &req, err
}

// ReadRequest reads a Request.
func (c *Conn) ReadRequest() (*base.Request, error) {
	byts, err := c.readMessage()
	if err != nil {
		return nil, err
	}

	var req base.Request
	err = req.Unmarshal(byts)
	return &req, err
}

// ReadResponse reads a Response.
func (c *Conn) ReadResponse() (*base.Response, error) {
	byts, err := c.readMessage()
	if err != nil {
		return nil, err
	}

	var res base.Response
	err = res.Unmarshal(byts)
	return &res, err
}

// WriteRequest writes a request.
func (c *Conn) WriteRequest(req *base.Request) error {
	buf, err := req.Marshal()
	if err != nil {
		return err
	}
	_, err = c.nconn.Write(buf)
	return err
}

// WriteResponse writes a response.
func (c *Conn) WriteResponse(res *base.Response) error {
	buf, err := res.Marshal()
	if err != nil {
		return err
	}
	_, err = c.nconn.Write(buf)
	return err
}
