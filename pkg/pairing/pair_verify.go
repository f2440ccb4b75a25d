package pairing

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"

	"golang.org/x/crypto/curve25519"
)

// KeySize is the size of keys exchanged during pair-verify.
const KeySize = 32

// VerifyRequest is the body of a pair-verify request.
type VerifyRequest struct {
	PublicKey []byte
	Signature []byte
}

// Unmarshal decodes a pair-verify request body.
func (r *VerifyRequest) Unmarshal(body []byte) error {
	var raw struct {
		PublicKey *string `json:"publicKey"`
		Signature *string `json:"signature"`
	}

	err := json.Unmarshal(bytes.TrimSpace(body), &raw)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}

	if raw.PublicKey == nil {
		return fmt.Errorf("%w: publicKey", ErrMissingField)
	}
	if raw.Signature == nil {
		return fmt.Errorf("%w: signature", ErrMissingField)
	}

	r.PublicKey, err = base64.StdEncoding.DecodeString(*raw.PublicKey)
	if err != nil {
		return fmt.Errorf("%w: publicKey", ErrInvalidBase64)
	}

	r.Signature, err = base64.StdEncoding.DecodeString(*raw.Signature)
	if err != nil {
		return fmt.Errorf("%w: signature", ErrInvalidBase64)
	}

	return nil
}

// VerifyMaterial is the outcome of a pair-verify.
type VerifyMaterial struct {
	PublicKey  []byte
	SessionKey []byte
}

// Marshal encodes the material as the JSON body of a pair-verify response.
func (m VerifyMaterial) Marshal() ([]byte, error) {
	return json.Marshal(struct {
		PublicKey  string `json:"publicKey"`
		SessionKey string `json:"sessionKey"`
	}{
		PublicKey:  base64.StdEncoding.EncodeToString(m.PublicKey),
		SessionKey: base64.StdEncoding.EncodeToString(m.SessionKey),
	})
}

// PairVerify answers a pair-verify request.
// The client signature is NOT verified: any well-formed request succeeds.
func (e *Engine) PairVerify(_ *VerifyRequest) (*VerifyMaterial, error) {
	scalar, err := e.randomBytes(curve25519.ScalarSize)
	if err != nil {
		return nil, fmt.Errorf("unable to generate server key: %w", err)
	}

	publicKey, err := curve25519.X25519(scalar, curve25519.Basepoint)
	if err != nil {
		return nil, fmt.Errorf("unable to generate server key: %w", err)
	}

	sessionKey, err := e.randomBytes(KeySize)
	if err != nil {
		return nil, fmt.Errorf("unable to generate session key: %w", err)
	}

	return &VerifyMaterial{
		PublicKey:  publicKey,
		SessionKey: sessionKey,
	}, nil
}
