package discovery

import "errors"

// errors.
var (
	// ErrAlreadyStarted is returned when starting an advertiser that is already advertising.
	ErrAlreadyStarted = errors.New("discovery: already started")

	// ErrInvalidPort is returned when the port number is out of range.
	ErrInvalidPort = errors.New("discovery: invalid port (must be 1-65535)")

	// ErrInvalidServiceName is returned when the service name is empty.
	ErrInvalidServiceName = errors.New("discovery: invalid service name")

	// ErrInvalidDeviceID is returned when the device ID is not a MAC address.
	ErrInvalidDeviceID = errors.New("discovery: invalid device ID")

	// ErrInvalidPublicKey is returned when the public key is not a hex-encoded Ed25519 key.
	ErrInvalidPublicKey = errors.New("discovery: invalid public key")
)
