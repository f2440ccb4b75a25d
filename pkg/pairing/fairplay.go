package pairing

import (
	"bytes"
	"crypto/x509"
	"fmt"
)

// FairPlayMagic is the tag that starts a FairPlay message.
var FairPlayMagic = []byte("FPLY")

// length of the FairPlay header echoed back to the client.
const fairPlayHeaderSize = 12

// ContainsFairPlayMessage checks whether a raw message carries a FairPlay payload.
func ContainsFairPlayMessage(raw []byte) bool {
	return bytes.Contains(raw, FairPlayMagic)
}

// FairPlaySetup generates a FairPlay key pair and returns the
// DER-encoded public key.
// The private key is discarded.
func (e *Engine) FairPlaySetup() ([]byte, error) {
	key, err := e.GenerateKey(e.Rand, e.FairPlayKeyBits)
	if err != nil {
		return nil, fmt.Errorf("unable to generate FairPlay key: %w", err)
	}

	der, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	if err != nil {
		return nil, fmt.Errorf("unable to encode FairPlay key: %w", err)
	}

	return der, nil
}

// FairPlayMessage answers a FairPlay message found inside raw.
// The reply has the same length of the payload that starts at the FPLY tag,
// echoes its header and fills the rest with random bytes.
func (e *Engine) FairPlayMessage(raw []byte) ([]byte, error) {
	i := bytes.Index(raw, FairPlayMagic)
	if i < 0 {
		return nil, fmt.Errorf("FairPlay tag not found")
	}
	payload := raw[i:]

	out := make([]byte, len(payload))
	n := copy(out, payload[:min(len(payload), fairPlayHeaderSize)])

	rnd, err := e.randomBytes(len(out) - n)
	if err != nil {
		return nil, fmt.Errorf("unable to generate FairPlay reply: %w", err)
	}
	copy(out[n:], rnd)

	return out, nil
}
