package headers

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/bluenviron/airsink/pkg/base"
)

// TransportProtocol is a transport protocol.
type TransportProtocol int

// transport protocols.
const (
	TransportProtocolUDP TransportProtocol = iota
	TransportProtocolTCP
)

// TransportDelivery is a delivery method.
type TransportDelivery int

// transport delivery methods.
const (
	TransportDeliveryUnicast TransportDelivery = iota
	TransportDeliveryMulticast
)

// TransportMode is a transport mode.
type TransportMode int

const (
	// TransportModePlay is the "play" transport mode
	TransportModePlay TransportMode = iota

	// TransportModeRecord is the "record" transport mode
	TransportModeRecord
)

// String implements fmt.Stringer.
func (tm TransportMode) String() string {
	switch tm {
	case TransportModePlay:
		return "play"

	case TransportModeRecord:
		return "record"
	}
	return "unknown"
}

// Transport is a Transport header.
type Transport struct {
	// protocol of the stream
	Protocol TransportProtocol

	// (optional) delivery method of the stream
	Delivery *TransportDelivery

	// (optional) client ports
	ClientPorts *[2]int

	// (optional) server ports
	ServerPorts *[2]int

	// (optional) interleaved frame IDs
	InterleavedIDs *[2]int

	// (optional) mode
	Mode *TransportMode

	// (optional) RAOP retransmission control port
	ControlPort *int

	// (optional) RAOP timing port
	TimingPort *int
}

func parsePorts(val string) (*[2]int, error) {
	ports := strings.Split(val, "-")
	if len(ports) == 2 {
		port1, err := strconv.ParseUint(ports[0], 10, 16)
		if err != nil {
			return nil, fmt.Errorf("invalid ports (%v)", val)
		}

		port2, err := strconv.ParseUint(ports[1], 10, 16)
		if err != nil {
			return nil, fmt.Errorf("invalid ports (%v)", val)
		}

		return &[2]int{int(port1), int(port2)}, nil
	}

	if len(ports) == 1 {
		port1, err := strconv.ParseUint(ports[0], 10, 16)
		if err != nil || port1 == 65535 {
			return nil, fmt.Errorf("invalid ports (%v)", val)
		}

		return &[2]int{int(port1), int(port1 + 1)}, nil
	}

	return nil, fmt.Errorf("invalid ports (%v)", val)
}

func parsePort(val string) (*int, error) {
	port, err := strconv.ParseUint(val, 10, 16)
	if err != nil {
		return nil, fmt.Errorf("invalid port (%v)", val)
	}
	v := int(port)
	return &v, nil
}

func marshalPorts(ports [2]int) string {
	return strconv.FormatInt(int64(ports[0]), 10) + "-" + strconv.FormatInt(int64(ports[1]), 10)
}

// Unmarshal decodes a Transport header.
func (h *Transport) Unmarshal(v base.HeaderValue) error {
	if len(v) == 0 {
		return fmt.Errorf("value not provided")
	}

	if len(v) > 1 {
		return fmt.Errorf("value provided multiple times (%v)", v)
	}

	parts := strings.Split(v[0], ";")

	switch parts[0] {
	case "RTP/AVP", "RTP/AVP/UDP":
		h.Protocol = TransportProtocolUDP

	case "RTP/AVP/TCP":
		h.Protocol = TransportProtocolTCP

	default:
		return fmt.Errorf("invalid protocol (%v)", v)
	}
	parts = parts[1:]

	for _, t := range parts {
		key, val, _ := strings.Cut(t, "=")

		var err error

		switch key {
		case "unicast":
			v := TransportDeliveryUnicast
			h.Delivery = &v

		case "multicast":
			v := TransportDeliveryMulticast
			h.Delivery = &v

		case "client_port":
			h.ClientPorts, err = parsePorts(val)

		case "server_port":
			h.ServerPorts, err = parsePorts(val)

		case "interleaved":
			h.InterleavedIDs, err = parsePorts(val)

		case "control_port":
			h.ControlPort, err = parsePort(val)

		case "timing_port":
			h.TimingPort, err = parsePort(val)

		case "mode":
			str := strings.ToLower(val)
			str = strings.TrimPrefix(str, "\"")
			str = strings.TrimSuffix(str, "\"")

			switch str {
			case "play":
				v := TransportModePlay
				h.Mode = &v

				// receive is an old alias for record
			case "record", "receive":
				v := TransportModeRecord
				h.Mode = &v

			default:
				err = fmt.Errorf("invalid transport mode: '%s'", str)
			}
		}

		// ignore non-standard keys

		if err != nil {
			return err
		}
	}

	return nil
}

// Marshal encodes a Transport header.
func (h Transport) Marshal() base.HeaderValue {
	var rets []string

	if h.Protocol == TransportProtocolUDP {
		rets = append(rets, "RTP/AVP/UDP")
	} else {
		rets = append(rets, "RTP/AVP/TCP")
	}

	if h.Delivery != nil {
		if *h.Delivery == TransportDeliveryUnicast {
			rets = append(rets, "unicast")
		} else {
			rets = append(rets, "multicast")
		}
	}

	if h.ClientPorts != nil {
		rets = append(rets, "client_port="+marshalPorts(*h.ClientPorts))
	}

	if h.ServerPorts != nil {
		rets = append(rets, "server_port="+marshalPorts(*h.ServerPorts))
	}

	if h.InterleavedIDs != nil {
		rets = append(rets, "interleaved="+marshalPorts(*h.InterleavedIDs))
	}

	if h.Mode != nil {
		rets = append(rets, "mode="+h.Mode.String())
	}

	if h.ControlPort != nil {
		rets = append(rets, "control_port="+strconv.FormatInt(int64(*h.ControlPort), 10))
	}

	if h.TimingPort != nil {
		rets = append(rets, "timing_port="+strconv.FormatInt(int64(*h.TimingPort), 10))
	}

	return base.HeaderValue{strings.Join(rets, ";")}
}
