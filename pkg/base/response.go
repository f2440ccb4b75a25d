package base

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
)

// StatusCode is the status code of a RTSP response.
type StatusCode int

// standard status codes
const (
	StatusContinue                        StatusCode = 100
	StatusOK                              StatusCode = 200
	StatusBadRequest                      StatusCode = 400
	StatusUnauthorized                    StatusCode = 401
	StatusForbidden                       StatusCode = 403
	StatusNotFound                        StatusCode = 404
	StatusMethodNotAllowed                StatusCode = 405
	StatusRequestEntityTooLarge           StatusCode = 413
	StatusUnsupportedMediaType            StatusCode = 415
	StatusParameterNotUnderstood          StatusCode = 451
	StatusNotEnoughBandwidth              StatusCode = 453
	StatusSessionNotFound                 StatusCode = 454
	StatusMethodNotValidInThisState       StatusCode = 455
	StatusUnsupportedTransport            StatusCode = 461
	StatusConnectionAuthorizationRequired StatusCode = 470
	StatusInternalServerError             StatusCode = 500
	StatusNotImplemented                  StatusCode = 501
	StatusServiceUnavailable              StatusCode = 503
	StatusRTSPVersionNotSupported         StatusCode = 505
	StatusOptionNotSupported              StatusCode = 551
)

// StatusMessages contains the status messages associated with each status code.
var StatusMessages = statusMessages

var statusMessages = map[StatusCode]string{
	StatusContinue: "Continue",

	StatusOK: "OK",

	StatusBadRequest:                      "Bad Request",
	StatusUnauthorized:                    "Unauthorized",
	StatusForbidden:                       "Forbidden",
	StatusNotFound:                        "Not Found",
	StatusMethodNotAllowed:                "Method Not Allowed",
	StatusRequestEntityTooLarge:           "Request Entity Too Large",
	StatusUnsupportedMediaType:            "Unsupported Media Type",
	StatusParameterNotUnderstood:          "Parameter Not Understood",
	StatusNotEnoughBandwidth:              "Not Enough Bandwidth",
	StatusSessionNotFound:                 "Session Not Found",
	StatusMethodNotValidInThisState:       "Method Not Valid In This State",
	StatusUnsupportedTransport:            "Unsupported Transport",
	StatusConnectionAuthorizationRequired: "Connection Authorization Required",

	StatusInternalServerError:     "Internal Server Error",
	StatusNotImplemented:          "Not Implemented",
	StatusServiceUnavailable:      "Service Unavailable",
	StatusRTSPVersionNotSupported: "RTSP Version Not Supported",
	StatusOptionNotSupported:      "Option Not Supported",
}

// Response is a RTSP response.
type Response struct {
	// numeric status code
	StatusCode StatusCode

	// status message
	StatusMessage string

	// map of header values
	Header Header

	// optional body
	Body []byte
}

// Unmarshal decodes a response from a complete message.
func (res *Response) Unmarshal(byts []byte) error {
	i := HeaderEnd(byts)
	if i < 0 {
		return fmt.Errorf("headers are not terminated")
	}

	lines := strings.Split(string(byts[:i-2]), "\r\n")

	parts := strings.SplitN(lines[0], " ", 3)
	if len(parts) != 3 {
		return fmt.Errorf("invalid status line (%v)", lines[0])
	}

	if parts[0] != rtspProtocol10 {
		return fmt.Errorf("expected '%s', got '%s'", rtspProtocol10, parts[0])
	}

	statusCode64, err := strconv.ParseInt(parts[1], 10, 32)
	if err != nil {
		return fmt.Errorf("unable to parse status code")
	}
	res.StatusCode = StatusCode(statusCode64)

	res.StatusMessage = parts[2]
	if len(res.StatusMessage) == 0 {
		return fmt.Errorf("empty status")
	}

	res.Header = make(Header)
	res.Header.unmarshalLines(lines[1:])

	res.Body = nil
	if i < len(byts) {
		res.Body = byts[i:]
	}

	return nil
}

// Marshal encodes a Response.
// Content-Length is always computed from the body.
func (res Response) Marshal() ([]byte, error) {
	if res.StatusMessage == "" {
		if status, ok := statusMessages[res.StatusCode]; ok {
			res.StatusMessage = status
		}
	}

	var buf bytes.Buffer

	buf.WriteString(rtspProtocol10 + " " + strconv.FormatInt(int64(res.StatusCode), 10) +
		" " + res.StatusMessage + "\r\n")

	h := res.Header.clone()
	delete(h, "Content-Length")
	if _, ok := h["Content-Type"]; ok || len(res.Body) != 0 {
		h["Content-Length"] = HeaderValue{strconv.FormatInt(int64(len(res.Body)), 10)}
	}

	h.marshalTo(&buf)
	buf.Write(res.Body)

	return buf.Bytes(), nil
}

// String implements fmt.Stringer.
func (res Response) String() string {
	buf, _ := res.Marshal()
	return string(buf)
}
