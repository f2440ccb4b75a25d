package discovery

import (
	"encoding/hex"
	"net"
	"strconv"
	"strings"
)

// TXT record keys.
const (
	TXTKeyDeviceID        = "deviceid"
	TXTKeyFeatures        = "features"
	TXTKeyModel           = "model"
	TXTKeySourceVersion   = "srcvers"
	TXTKeyProtocolVersion = "protovers"
	TXTKeyPublicKey       = "pk"
	TXTKeySampleRate      = "sr"
	TXTKeySampleSize      = "ss"
	TXTKeyChannels        = "ch"
)

// default capability values.
const (
	DefaultFeatures        = "0x5A7FFFF7,0x1E"
	DefaultModel           = "AppleTV2,1"
	DefaultSourceVersion   = "220.68"
	DefaultProtocolVersion = "1.0"
	DefaultSampleRate      = 44100
	DefaultSampleSize      = 16
	DefaultChannels        = 2
)

// TXT is the capability record published with the service.
type TXT struct {
	// device identifier, in MAC address form (for instance 48:5D:60:7C:EE:22).
	DeviceID string

	// hex-encoded Ed25519 public key of the device.
	PublicKey string

	Features        string
	Model           string
	SourceVersion   string
	ProtocolVersion string
	SampleRate      int
	SampleSize      int
	Channels        int
}

// NewTXT returns a TXT record with default capabilities.
func NewTXT(deviceID string, publicKey string) TXT {
	return TXT{
		DeviceID:        deviceID,
		PublicKey:       publicKey,
		Features:        DefaultFeatures,
		Model:           DefaultModel,
		SourceVersion:   DefaultSourceVersion,
		ProtocolVersion: DefaultProtocolVersion,
		SampleRate:      DefaultSampleRate,
		SampleSize:      DefaultSampleSize,
		Channels:        DefaultChannels,
	}
}

// Validate checks the record.
func (t TXT) Validate() error {
	hw, err := net.ParseMAC(t.DeviceID)
	if err != nil || len(hw) != 6 {
		return ErrInvalidDeviceID
	}

	pk, err := hex.DecodeString(t.PublicKey)
	if err != nil || len(pk) != 32 {
		return ErrInvalidPublicKey
	}

	return nil
}

// DeviceIDHex returns the device identifier without separators, in uppercase.
func (t TXT) DeviceIDHex() string {
	return strings.ToUpper(strings.ReplaceAll(t.DeviceID, ":", ""))
}

// Encode encodes the record in key=value form.
func (t TXT) Encode() []string {
	return []string{
		TXTKeyDeviceID + "=" + t.DeviceID,
		TXTKeyFeatures + "=" + t.Features,
		TXTKeyModel + "=" + t.Model,
		TXTKeySourceVersion + "=" + t.SourceVersion,
		TXTKeyProtocolVersion + "=" + t.ProtocolVersion,
		TXTKeyPublicKey + "=" + t.PublicKey,
		"acl=0",
		"rsf=0x0",
		"ft=" + t.Features,
		"vs=130.14",
		"tp=TCP,UDP",
		"md=0,1,2",
		"pw=false",
		TXTKeySampleRate + "=" + strconv.Itoa(t.SampleRate),
		TXTKeySampleSize + "=" + strconv.Itoa(t.SampleSize),
		TXTKeyChannels + "=" + strconv.Itoa(t.Channels),
		"cn=0,1",
		"et=0,1",
		"ek=1",
		"sf=0x4",
		"da=true",
		"sv=false",
		"sm=false",
	}
}
