package base

import (
	"testing"

	"github.com/stretchr/testify/require"
)

var casesRequest = []struct {
	name string
	byts []byte
	req  Request
}{
	{
		"options",
		[]byte("OPTIONS * RTSP/1.0\r\n" +
			"CSeq: 1\r\n" +
			"User-Agent: AirPlay/409.16\r\n" +
			"\r\n"),
		Request{
			Method: Options,
			URL:    "*",
			Header: Header{
				"CSeq":       HeaderValue{"1"},
				"User-Agent": HeaderValue{"AirPlay/409.16"},
			},
			HasSeparator: true,
		},
	},
	{
		"pair-verify",
		[]byte("POST /pair-verify RTSP/1.0\r\n" +
			"CSeq: 3\r\n" +
			"Content-Length: 40\r\n" +
			"\r\n" +
			`{"publicKey":"AAA=","signature":"BBB="}` + "\n"),
		Request{
			Method: Post,
			URL:    "/pair-verify",
			Header: Header{
				"CSeq":           HeaderValue{"3"},
				"Content-Length": HeaderValue{"40"},
			},
			Body:         []byte(`{"publicKey":"AAA=","signature":"BBB="}` + "\n"),
			HasSeparator: true,
		},
	},
	{
		"without separator",
		[]byte("SETUP rtsp://192.168.1.10/3413821438 RTSP/1.0\r\n" +
			"CSeq: 4\r\n" +
			"dacp-id: 14413BE4996FEA4D"),
		Request{
			Method: Setup,
			URL:    "rtsp://192.168.1.10/3413821438",
			Header: Header{
				"CSeq":    HeaderValue{"4"},
				"DACP-ID": HeaderValue{"14413BE4996FEA4D"},
			},
		},
	},
	{
		"binary",
		[]byte("FPLY\x03\x01\x01\x00\x00\x00\x00\x04\x02\x00\x02\xbb"),
		Request{
			Header: Header{},
		},
	},
}

func TestRequestUnmarshal(t *testing.T) {
	for _, ca := range casesRequest {
		t.Run(ca.name, func(t *testing.T) {
			var req Request
			err := req.Unmarshal(ca.byts)
			require.NoError(t, err)

			ca.req.Raw = ca.byts
			require.Equal(t, ca.req, req)
		})
	}
}

func TestRequestUnmarshalInvalidContentLength(t *testing.T) {
	var req Request
	err := req.Unmarshal([]byte("POST /pair-verify RTSP/1.0\r\n" +
		"CSeq: 3\r\n" +
		"Content-Length: abc\r\n" +
		"\r\n" +
		"{}"))
	require.NoError(t, err)
	require.Equal(t, Post, req.Method)
	require.Equal(t, []byte("{}"), req.Body)
	require.EqualError(t, req.ContentLengthErr, "invalid Content-Length")
}

func TestRequestUnmarshalEmpty(t *testing.T) {
	var req Request
	err := req.Unmarshal(nil)
	require.Error(t, err)
}

func TestRequestPath(t *testing.T) {
	for _, ca := range []struct {
		url  string
		path string
	}{
		{"/pair-setup", "/pair-setup"},
		{"rtsp://192.168.1.10/3413821438", "/3413821438"},
		{"rtsp://192.168.1.10", "/"},
		{"/fp-setup?x=1", "/fp-setup"},
		{"*", "*"},
	} {
		t.Run(ca.url, func(t *testing.T) {
			require.Equal(t, ca.path, Request{URL: ca.url}.Path())
		})
	}
}

func TestRequestMarshal(t *testing.T) {
	req := Request{
		Method: Teardown,
		URL:    "rtsp://127.0.0.1:7000/",
		Header: Header{
			"CSeq":    HeaderValue{"1"},
			"Session": HeaderValue{"abc"},
		},
	}

	byts, err := req.Marshal()
	require.NoError(t, err)
	require.Equal(t, "TEARDOWN rtsp://127.0.0.1:7000/ RTSP/1.0\r\n"+
		"CSeq: 1\r\n"+
		"Session: abc\r\n"+
		"\r\n", string(byts))

	_, err = Request{Method: "fp setup"}.Marshal()
	require.Error(t, err)
}
