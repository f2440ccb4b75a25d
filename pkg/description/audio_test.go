package description

import (
	"testing"

	"github.com/stretchr/testify/require"
)

var casesAudio = []struct {
	name string
	in   string
	dec  Audio
}{
	{
		"alac",
		"v=0\r\n" +
			"o=iTunes 3413821438 0 IN IP4 192.168.1.10\r\n" +
			"s=iTunes\r\n" +
			"c=IN IP4 192.168.1.20\r\n" +
			"t=0 0\r\n" +
			"m=audio 0 RTP/AVP 96\r\n" +
			"a=rtpmap:96 AppleLossless\r\n" +
			"a=fmtp:96 352 0 16 40 10 14 2 255 0 0 44100\r\n",
		Audio{
			SessionName:       "iTunes",
			ConnectionAddress: "192.168.1.20",
			PayloadType:       96,
			Encoding:          "AppleLossless",
			ClockRate:         44100,
			ChannelCount:      2,
			FMTP:              "352 0 16 40 10 14 2 255 0 0 44100",
			ALAC: &ALACConfig{
				FrameLength:  352,
				BitDepth:     16,
				PB:           40,
				MB:           10,
				KB:           14,
				ChannelCount: 2,
				MaxRun:       255,
				SampleRate:   44100,
			},
		},
	},
	{
		"alac encrypted",
		"v=0\r\n" +
			"o=AirTunes 2 0 IN IP4 192.168.1.2\r\n" +
			"s=AirTunes\r\n" +
			"c=IN IP4 192.168.1.2\r\n" +
			"t=0 0\r\n" +
			"m=audio 0 RTP/AVP 96\r\n" +
			"a=rtpmap:96 AppleLossless\r\n" +
			"a=fmtp:96 4096 0 16 40 10 14 2 255 0 0 44100\r\n" +
			"a=rsaaeskey:AQID\r\n" +
			"a=aesiv:BAUGBw\r\n",
		Audio{
			SessionName:       "AirTunes",
			ConnectionAddress: "192.168.1.2",
			PayloadType:       96,
			Encoding:          "AppleLossless",
			ClockRate:         44100,
			ChannelCount:      2,
			FMTP:              "4096 0 16 40 10 14 2 255 0 0 44100",
			ALAC: &ALACConfig{
				FrameLength:  4096,
				BitDepth:     16,
				PB:           40,
				MB:           10,
				KB:           14,
				ChannelCount: 2,
				MaxRun:       255,
				SampleRate:   44100,
			},
			RSAAESKey: []byte{1, 2, 3},
			AESIV:     []byte{4, 5, 6, 7},
		},
	},
	{
		"lpcm",
		"v=0\r\n" +
			"o=- 0 0 IN IP4 127.0.0.1\r\n" +
			"s=Sender\r\n" +
			"t=0 0\r\n" +
			"m=audio 0 RTP/AVP 96\r\n" +
			"a=rtpmap:96 L16/44100/2\r\n",
		Audio{
			SessionName:  "Sender",
			PayloadType:  96,
			Encoding:     "L16",
			ClockRate:    44100,
			ChannelCount: 2,
		},
	},
}

func TestAudioUnmarshal(t *testing.T) {
	for _, ca := range casesAudio {
		t.Run(ca.name, func(t *testing.T) {
			var dec Audio
			err := dec.Unmarshal([]byte(ca.in))
			require.NoError(t, err)
			require.Equal(t, ca.dec, dec)
		})
	}
}

func TestAudioUnmarshalErrors(t *testing.T) {
	for _, ca := range []struct {
		name string
		in   string
		err  string
	}{
		{
			"no audio",
			"v=0\r\n" +
				"o=- 0 0 IN IP4 127.0.0.1\r\n" +
				"s=Sender\r\n" +
				"t=0 0\r\n" +
				"m=video 0 RTP/AVP 96\r\n",
			"audio media not found",
		},
		{
			"invalid payload type",
			"v=0\r\n" +
				"o=- 0 0 IN IP4 127.0.0.1\r\n" +
				"s=Sender\r\n" +
				"t=0 0\r\n" +
				"m=audio 0 RTP/AVP aa\r\n",
			"invalid payload type: aa",
		},
		{
			"invalid clock rate",
			"v=0\r\n" +
				"o=- 0 0 IN IP4 127.0.0.1\r\n" +
				"s=Sender\r\n" +
				"t=0 0\r\n" +
				"m=audio 0 RTP/AVP 96\r\n" +
				"a=rtpmap:96 L16/aa\r\n",
			"invalid clock rate: aa",
		},
		{
			"invalid alac parameters",
			"v=0\r\n" +
				"o=- 0 0 IN IP4 127.0.0.1\r\n" +
				"s=Sender\r\n" +
				"t=0 0\r\n" +
				"m=audio 0 RTP/AVP 96\r\n" +
				"a=rtpmap:96 AppleLossless\r\n" +
				"a=fmtp:96 352 0 16\r\n",
			"invalid ALAC parameters: expected 11 fields, got 3",
		},
	} {
		t.Run(ca.name, func(t *testing.T) {
			var dec Audio
			err := dec.Unmarshal([]byte(ca.in))
			require.EqualError(t, err, ca.err)
		})
	}
}

func TestAudioUnmarshalNotSDP(t *testing.T) {
	var dec Audio
	err := dec.Unmarshal([]byte("hello"))
	require.Error(t, err)
}

func TestALACConfigMarshal(t *testing.T) {
	conf := ALACConfig{
		FrameLength:  352,
		BitDepth:     16,
		PB:           40,
		MB:           10,
		KB:           14,
		ChannelCount: 2,
		MaxRun:       255,
		SampleRate:   44100,
	}
	require.Equal(t, "352 0 16 40 10 14 2 255 0 0 44100", conf.Marshal())

	var dec ALACConfig
	err := dec.Unmarshal(conf.Marshal())
	require.NoError(t, err)
	require.Equal(t, conf, dec)
}
