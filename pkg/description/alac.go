package description

import (
	"fmt"
	"strconv"
	"strings"
)

// ALACConfig contains the parameters of an Apple Lossless stream,
// as transmitted in the format parameters.
type ALACConfig struct {
	FrameLength       uint32
	CompatibleVersion uint8
	BitDepth          uint8
	PB                uint8
	MB                uint8
	KB                uint8
	ChannelCount      uint8
	MaxRun            uint16
	MaxFrameBytes     uint32
	AvgBitRate        uint32
	SampleRate        uint32
}

// Unmarshal decodes the parameters.
func (c *ALACConfig) Unmarshal(fmtp string) error {
	fields := strings.Fields(fmtp)
	if len(fields) != 11 {
		return fmt.Errorf("expected 11 fields, got %d", len(fields))
	}

	vals := make([]uint64, len(fields))
	sizes := []int{32, 8, 8, 8, 8, 8, 8, 16, 32, 32, 32}

	for i, f := range fields {
		v, err := strconv.ParseUint(f, 10, sizes[i])
		if err != nil {
			return fmt.Errorf("invalid field %d (%v)", i+1, f)
		}
		vals[i] = v
	}

	c.FrameLength = uint32(vals[0])
	c.CompatibleVersion = uint8(vals[1])
	c.BitDepth = uint8(vals[2])
	c.PB = uint8(vals[3])
	c.MB = uint8(vals[4])
	c.KB = uint8(vals[5])
	c.ChannelCount = uint8(vals[6])
	c.MaxRun = uint16(vals[7])
	c.MaxFrameBytes = uint32(vals[8])
	c.AvgBitRate = uint32(vals[9])
	c.SampleRate = uint32(vals[10])

	return nil
}

// Marshal encodes the parameters.
func (c ALACConfig) Marshal() string {
	return fmt.Sprintf("%d %d %d %d %d %d %d %d %d %d %d",
		c.FrameLength, c.CompatibleVersion, c.BitDepth, c.PB, c.MB, c.KB,
		c.ChannelCount, c.MaxRun, c.MaxFrameBytes, c.AvgBitRate, c.SampleRate)
}
