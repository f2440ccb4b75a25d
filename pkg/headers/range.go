package headers

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bluenviron/airsink/pkg/base"
)

// RangeNPT is a range expressed in NPT units.
// An open range has a nil End.
type RangeNPT struct {
	Start time.Duration
	End   *time.Duration
}

func unmarshalNPTTime(s string) (time.Duration, error) {
	if s == "now" {
		return 0, nil
	}

	parts := strings.Split(s, ":")
	if len(parts) > 3 {
		return 0, fmt.Errorf("invalid NPT time (%v)", s)
	}

	var hours, mins uint64
	var err error

	if len(parts) == 3 {
		hours, err = strconv.ParseUint(parts[0], 10, 64)
		if err != nil {
			return 0, err
		}
		parts = parts[1:]
	}

	if len(parts) == 2 {
		mins, err = strconv.ParseUint(parts[0], 10, 64)
		if err != nil {
			return 0, err
		}
		parts = parts[1:]
	}

	seconds, err := strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return 0, err
	}

	return time.Duration(seconds*float64(time.Second)) +
		time.Duration(mins*60+hours*3600)*time.Second, nil
}

func marshalNPTTime(d time.Duration) string {
	return strconv.FormatFloat(d.Seconds(), 'f', 3, 64)
}

// Range is a Range header.
type Range struct {
	Value RangeNPT
}

// Unmarshal decodes a Range header.
func (h *Range) Unmarshal(v base.HeaderValue) error {
	if len(v) == 0 {
		return fmt.Errorf("value not provided")
	}

	if len(v) > 1 {
		return fmt.Errorf("value provided multiple times (%v)", v)
	}

	str, ok := strings.CutPrefix(v[0], "npt=")
	if !ok {
		return fmt.Errorf("unsupported range (%v)", v[0])
	}

	start, end, ok := strings.Cut(str, "-")
	if !ok {
		return fmt.Errorf("invalid value (%v)", v[0])
	}

	var err error
	h.Value.Start, err = unmarshalNPTTime(start)
	if err != nil {
		return err
	}

	h.Value.End = nil
	if end != "" {
		var tmp time.Duration
		tmp, err = unmarshalNPTTime(end)
		if err != nil {
			return err
		}
		h.Value.End = &tmp
	}

	return nil
}

// Marshal encodes a Range header.
func (h Range) Marshal() base.HeaderValue {
	val := "npt=" + marshalNPTTime(h.Value.Start) + "-"
	if h.Value.End != nil {
		val += marshalNPTTime(*h.Value.End)
	}
	return base.HeaderValue{val}
}
