package base

import (
	"bytes"
	"net/http"
	"sort"
	"strings"
)

func headerKeyNormalize(in string) string {
	switch strings.ToLower(in) {
	case "rtp-info":
		return "RTP-Info"

	case "www-authenticate":
		return "WWW-Authenticate"

	case "cseq":
		return "CSeq"

	case "dacp-id":
		return "DACP-ID"
	}
	return http.CanonicalHeaderKey(in)
}

// HeaderValue is an header value.
type HeaderValue []string

// Header is a RTSP reader, present in both Requests and Responses.
type Header map[string]HeaderValue

func (h Header) unmarshalLines(lines []string) {
	for _, line := range lines {
		key, val, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}

		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		key = headerKeyNormalize(key)

		// https://tools.ietf.org/html/rfc2616
		// The field value MAY be preceded by any amount of spaces
		val = strings.TrimLeft(val, " ")

		h[key] = append(h[key], val)
	}
}

func (h Header) clone() Header {
	out := make(Header, len(h))
	for k, v := range h {
		out[k] = append(HeaderValue(nil), v...)
	}
	return out
}

func (h Header) marshalTo(buf *bytes.Buffer) {
	// sort headers by key
	// in order to obtain deterministic results
	keys := make([]string, 0, len(h))
	for key := range h {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		for _, val := range h[key] {
			buf.WriteString(key + ": " + val + "\r\n")
		}
	}

	buf.WriteString("\r\n")
}
