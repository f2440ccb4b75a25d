package pairing

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/x509"
	"encoding/hex"
	"encoding/pem"
	"fmt"
)

const pemTypePrivateKey = "PRIVATE KEY"

// GenerateDeviceKey generates a new device key.
func GenerateDeviceKey() (ed25519.PrivateKey, error) {
	_, key, err := ed25519.GenerateKey(rand.Reader)
	return key, err
}

// MarshalDeviceKey encodes a device key in PKCS #8, PEM form.
func MarshalDeviceKey(key ed25519.PrivateKey) ([]byte, error) {
	der, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		return nil, err
	}

	return pem.EncodeToMemory(&pem.Block{
		Type:  pemTypePrivateKey,
		Bytes: der,
	}), nil
}

// LoadDeviceKey decodes a device key in PKCS #8, PEM form.
func LoadDeviceKey(byts []byte) (ed25519.PrivateKey, error) {
	block, _ := pem.Decode(byts)
	if block == nil {
		return nil, fmt.Errorf("no PEM block found")
	}

	if block.Type != pemTypePrivateKey {
		return nil, fmt.Errorf("unsupported PEM block type: %s", block.Type)
	}

	key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, err
	}

	edKey, ok := key.(ed25519.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("device key is not an Ed25519 key (%T)", key)
	}

	return edKey, nil
}

// PublicKeyHex returns the public part of a device key, hex-encoded,
// as advertised in the pk TXT record.
func PublicKeyHex(key ed25519.PrivateKey) string {
	return hex.EncodeToString(key.Public().(ed25519.PublicKey))
}
