package conn

import (
	"net"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/bluenviron/airsink/pkg/base"
	"github.com/bluenviron/airsink/pkg/liberrors"
)

func writeChunks(t *testing.T, nconn net.Conn, chunks ...string) {
	go func() {
		for _, c := range chunks {
			_, err := nconn.Write([]byte(c))
			if err != nil {
				return
			}
			time.Sleep(10 * time.Millisecond)
		}
	}()
}

func TestReadRequestSplitBody(t *testing.T) {
	server, client := net.Pipe()
	defer server.Close()
	defer client.Close()

	writeChunks(t, client,
		"POST /pair-verify RTSP/1.0\r\nCSeq: 3\r\nContent-Length: 11\r\n\r\n",
		`{"a":`,
		`"bcd"}`)

	conn := NewConn(server)

	req, err := conn.ReadRequest()
	require.NoError(t, err)
	require.Equal(t, base.Post, req.Method)
	require.Equal(t, "/pair-verify", req.URL)
	require.Equal(t, true, req.HasSeparator)
	require.Equal(t, []byte(`{"a":"bcd"}`), req.Body)
}

func TestReadRequestPipelined(t *testing.T) {
	server, client := net.Pipe()
	defer server.Close()
	defer client.Close()

	writeChunks(t, client,
		"OPTIONS * RTSP/1.0\r\nCSeq: 1\r\n\r\n"+
			"SETUP rtsp://127.0.0.1/1 RTSP/1.0\r\nCSeq: 2\r\n\r\n")

	conn := NewConn(server)

	req, err := conn.ReadRequest()
	require.NoError(t, err)
	require.Equal(t, base.Options, req.Method)
	require.Equal(t, base.HeaderValue{"1"}, req.Header["CSeq"])

	req, err = conn.ReadRequest()
	require.NoError(t, err)
	require.Equal(t, base.Setup, req.Method)
	require.Equal(t, base.HeaderValue{"2"}, req.Header["CSeq"])
}

func TestReadRequestWithoutSeparator(t *testing.T) {
	server, client := net.Pipe()
	defer server.Close()
	defer client.Close()

	writeChunks(t, client,
		"POST /pair-verify RTSP/1.0\r\n",
		"CSeq: 3\r\n"+`{"publicKey":"AAA=","signature":"BBB="}`)

	conn := NewConn(server)
	conn.AssemblyTimeout = 50 * time.Millisecond

	req, err := conn.ReadRequest()
	require.NoError(t, err)
	require.Equal(t, base.Post, req.Method)
	require.Equal(t, false, req.HasSeparator)
	require.Nil(t, req.Body)
	require.Equal(t, base.HeaderValue{"3"}, req.Header["CSeq"])
}

func TestReadRequestBodyWithoutContentLength(t *testing.T) {
	server, client := net.Pipe()
	defer server.Close()
	defer client.Close()

	writeChunks(t, client,
		"POST /pair-verify RTSP/1.0\r\nCSeq: 1\r\n\r\n",
		`{"publicKey":"AAA=",`,
		`"signature":"BBB="}`)

	conn := NewConn(server)
	conn.AssemblyTimeout = 50 * time.Millisecond

	req, err := conn.ReadRequest()
	require.NoError(t, err)
	require.Equal(t, base.Post, req.Method)
	require.Equal(t, true, req.HasSeparator)
	require.Equal(t, []byte(`{"publicKey":"AAA=","signature":"BBB="}`), req.Body)
}

func TestReadRequestInvalidContentLength(t *testing.T) {
	for _, ca := range []struct {
		name string
		cl   string
		err  string
	}{
		{"invalid", "abc", "invalid Content-Length"},
		{"too large", "100000000", "Content-Length exceeds 524288 (it's 100000000)"},
	} {
		t.Run(ca.name, func(t *testing.T) {
			server, client := net.Pipe()
			defer server.Close()
			defer client.Close()

			writeChunks(t, client,
				"POST /pair-verify RTSP/1.0\r\nCSeq: 1\r\nContent-Length: "+ca.cl+"\r\n\r\n{}")

			conn := NewConn(server)
			conn.AssemblyTimeout = 50 * time.Millisecond

			req, err := conn.ReadRequest()
			require.NoError(t, err)
			require.Equal(t, base.Post, req.Method)
			require.Equal(t, []byte("{}"), req.Body)
			require.EqualError(t, req.ContentLengthErr, ca.err)
		})
	}
}

func TestReadBinaryWithSeparator(t *testing.T) {
	server, client := net.Pipe()
	defer server.Close()
	defer client.Close()

	payload := "FPLY\x03\x01\x02\x00\x00\x00\x00\x82\x02\x00\r\n\r\n\x11\x22"
	writeChunks(t, client, payload)

	conn := NewConn(server)
	conn.AssemblyTimeout = 20 * time.Millisecond

	req, err := conn.ReadRequest()
	require.NoError(t, err)
	require.Equal(t, base.Method(""), req.Method)
	require.Equal(t, []byte(payload), req.Raw)
}

func TestReadBinary(t *testing.T) {
	server, client := net.Pipe()
	defer server.Close()
	defer client.Close()

	payload := "FPLY\x03\x01\x01\x00\x00\x00\x00\x04\x02\x00\x02\xbb"
	writeChunks(t, client, payload)

	conn := NewConn(server)
	conn.AssemblyTimeout = 20 * time.Millisecond

	what, err := conn.Read()
	require.NoError(t, err)
	req, ok := what.(*base.Request)
	require.True(t, ok)
	require.Equal(t, base.Method(""), req.Method)
	require.Equal(t, []byte(payload), req.Raw)
}

func TestReadResponse(t *testing.T) {
	server, client := net.Pipe()
	defer server.Close()
	defer client.Close()

	go func() {
		c := NewConn(server)
		c.WriteResponse(&base.Response{ //nolint:errcheck
			StatusCode: base.StatusOK,
			Header: base.Header{
				"CSeq": base.HeaderValue{"1"},
			},
			Body: []byte("abc"),
		})
	}()

	conn := NewConn(client)

	what, err := conn.Read()
	require.NoError(t, err)
	res, ok := what.(*base.Response)
	require.True(t, ok)
	require.Equal(t, base.StatusOK, res.StatusCode)
	require.Equal(t, []byte("abc"), res.Body)
}

func TestReadTooLarge(t *testing.T) {
	server, client := net.Pipe()
	defer server.Close()
	defer client.Close()

	go func() {
		chunk := "SET_PARAMETER rtsp://127.0.0.1/1 RTSP/1.0\r\n" + strings.Repeat("X", readBufferSize)
		for {
			_, err := client.Write([]byte(chunk))
			if err != nil {
				return
			}
		}
	}()

	conn := NewConn(server)
	conn.AssemblyTimeout = time.Second

	_, err := conn.ReadRequest()
	require.ErrorAs(t, err, &liberrors.ErrServerRequestTooLarge{})
}

func TestWriteRequest(t *testing.T) {
	server, client := net.Pipe()
	defer server.Close()
	defer client.Close()

	go func() {
		c := NewConn(server)
		c.WriteRequest(&base.Request{ //nolint:errcheck
			Method: base.Teardown,
			URL:    "rtsp://127.0.0.1/",
			Header: base.Header{
				"CSeq": base.HeaderValue{"1"},
			},
		})
	}()

	conn := NewConn(client)

	req, err := conn.ReadRequest()
	require.NoError(t, err)
	require.Equal(t, base.Teardown, req.Method)
}
