// Package pairing contains the pairing and authentication handshakes
// of an AirPlay receiver: pair-setup, pair-verify and FairPlay setup.
//
// The handshakes reproduce the behavior of a placeholder implementation:
// pair-verify does not verify the client signature and server keys are not
// bound to any identity. Responses are syntactically valid but they carry
// no cryptographic guarantee.
package pairing

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/rsa"
	"errors"
	"io"
	mrand "math/rand/v2"
)

const (
	// DefaultFairPlayKeyBits is the default size of FairPlay keys.
	DefaultFairPlayKeyBits = 2048
)

// errors.
var (
	ErrMissingSeparator = errors.New("missing header/body separator")
	ErrInvalidJSON      = errors.New("invalid JSON body")
	ErrMissingField     = errors.New("missing required field")
	ErrInvalidBase64    = errors.New("invalid base64 value")
	ErrDeviceKeyNotSet  = errors.New("device key not set")
)

// Engine performs handshakes.
// It holds no state linked to clients: every call is independent.
type Engine struct {
	// Device key.
	// It is mandatory.
	DeviceKey ed25519.PrivateKey

	// Source of cryptographic randomness.
	// It defaults to crypto/rand.Reader.
	Rand io.Reader

	// Source of PIN digits. Must return a value between 0 and 9.
	// It defaults to a non-cryptographic uniform source.
	Digit func() int

	// Size of FairPlay keys.
	// It defaults to DefaultFairPlayKeyBits.
	FairPlayKeyBits int

	// Function used to generate FairPlay keys.
	// It defaults to rsa.GenerateKey.
	GenerateKey func(random io.Reader, bits int) (*rsa.PrivateKey, error)
}

// Initialize initializes the Engine.
func (e *Engine) Initialize() error {
	if len(e.DeviceKey) != ed25519.PrivateKeySize {
		return ErrDeviceKeyNotSet
	}

	if e.Rand == nil {
		e.Rand = rand.Reader
	}
	if e.Digit == nil {
		e.Digit = func() int {
			return mrand.IntN(10)
		}
	}
	if e.FairPlayKeyBits == 0 {
		e.FairPlayKeyBits = DefaultFairPlayKeyBits
	}
	if e.GenerateKey == nil {
		e.GenerateKey = rsa.GenerateKey
	}

	return nil
}

// PublicKey returns the public part of the device key.
func (e *Engine) PublicKey() ed25519.PublicKey {
	return e.DeviceKey.Public().(ed25519.PublicKey)
}

func (e *Engine) randomBytes(n int) ([]byte, error) {
	buf := make([]byte, n)
	_, err := io.ReadFull(e.Rand, buf)
	if err != nil {
		return nil, err
	}
	return buf, nil
}
