// Package description contains the description of streams announced by senders.
package description

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"

	psdp "github.com/pion/sdp/v3"
)

func getFormatAttribute(md *psdp.MediaDescription, payloadType uint8, key string) string {
	for _, attr := range md.Attributes {
		if attr.Key == key {
			v := strings.TrimSpace(attr.Value)
			if parts := strings.SplitN(v, " ", 2); len(parts) == 2 {
				if tmp, err := strconv.ParseUint(parts[0], 10, 8); err == nil && uint8(tmp) == payloadType {
					return parts[1]
				}
			}
		}
	}
	return ""
}

func decodeBase64(v string) ([]byte, error) {
	return base64.RawStdEncoding.DecodeString(strings.TrimRight(strings.TrimSpace(v), "="))
}

// Audio is the description of an audio stream.
type Audio struct {
	// name of the session.
	SessionName string

	// address of the sender, as advertised by the connection line.
	ConnectionAddress string

	// RTP payload type.
	PayloadType uint8

	// encoding name, for instance AppleLossless or mpeg4-generic.
	Encoding string

	// clock rate. It is zero when not advertised.
	ClockRate int

	// channel count. It is zero when not advertised.
	ChannelCount int

	// raw format parameters.
	FMTP string

	// ALAC parameters. They are filled only when Encoding is AppleLossless.
	ALAC *ALACConfig

	// encrypted AES key and initialization vector (optional).
	RSAAESKey []byte
	AESIV     []byte
}

// Unmarshal decodes the description from SDP.
func (a *Audio) Unmarshal(byts []byte) error {
	var sd psdp.SessionDescription
	err := sd.Unmarshal(byts)
	if err != nil {
		return err
	}

	a.SessionName = string(sd.SessionName)

	if sd.ConnectionInformation != nil && sd.ConnectionInformation.Address != nil {
		a.ConnectionAddress = sd.ConnectionInformation.Address.Address
	}

	var md *psdp.MediaDescription
	for _, m := range sd.MediaDescriptions {
		if m.MediaName.Media == "audio" {
			md = m
			break
		}
	}
	if md == nil {
		return fmt.Errorf("audio media not found")
	}

	if len(md.MediaName.Formats) == 0 {
		return fmt.Errorf("no formats provided")
	}

	tmp, err := strconv.ParseUint(md.MediaName.Formats[0], 10, 8)
	if err != nil {
		return fmt.Errorf("invalid payload type: %v", md.MediaName.Formats[0])
	}
	a.PayloadType = uint8(tmp)

	if rtpMap := getFormatAttribute(md, a.PayloadType, "rtpmap"); rtpMap != "" {
		err = a.unmarshalRTPMap(rtpMap)
		if err != nil {
			return err
		}
	}

	a.FMTP = getFormatAttribute(md, a.PayloadType, "fmtp")

	if a.Encoding == "AppleLossless" && a.FMTP != "" {
		var conf ALACConfig
		err = conf.Unmarshal(a.FMTP)
		if err != nil {
			return fmt.Errorf("invalid ALAC parameters: %w", err)
		}
		a.ALAC = &conf

		if a.ClockRate == 0 {
			a.ClockRate = int(conf.SampleRate)
		}
		if a.ChannelCount == 0 {
			a.ChannelCount = int(conf.ChannelCount)
		}
	}

	if v, ok := md.Attribute("rsaaeskey"); ok {
		a.RSAAESKey, err = decodeBase64(v)
		if err != nil {
			return fmt.Errorf("invalid rsaaeskey: %w", err)
		}
	}

	if v, ok := md.Attribute("aesiv"); ok {
		a.AESIV, err = decodeBase64(v)
		if err != nil {
			return fmt.Errorf("invalid aesiv: %w", err)
		}
	}

	return nil
}

func (a *Audio) unmarshalRTPMap(rtpMap string) error {
	parts := strings.Split(rtpMap, "/")
	a.Encoding = parts[0]

	if len(parts) >= 2 {
		v, err := strconv.ParseUint(parts[1], 10, 31)
		if err != nil {
			return fmt.Errorf("invalid clock rate: %v", parts[1])
		}
		a.ClockRate = int(v)
	}

	if len(parts) >= 3 {
		v, err := strconv.ParseUint(parts[2], 10, 31)
		if err != nil {
			return fmt.Errorf("invalid channel count: %v", parts[2])
		}
		a.ChannelCount = int(v)
	}

	return nil
}
