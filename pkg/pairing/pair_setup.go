package pairing

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
)

const (
	// SaltSize is the size of the pair-setup salt.
	SaltSize = 16

	// PINLength is the number of digits of the pair-setup PIN.
	PINLength = 8
)

// SetupAttempt is the outcome of a pair-setup.
// It lives for a single request: the PIN is not bound to the client
// and is not remembered.
type SetupAttempt struct {
	Salt []byte
	PIN  string
}

// Marshal encodes the attempt as the JSON body of a pair-setup response.
func (a SetupAttempt) Marshal() ([]byte, error) {
	return json.Marshal(struct {
		Salt string `json:"salt"`
		PIN  string `json:"pin"`
	}{
		Salt: hex.EncodeToString(a.Salt),
		PIN:  a.PIN,
	})
}

// PairSetup generates a fresh salt and PIN.
func (e *Engine) PairSetup() (*SetupAttempt, error) {
	salt, err := e.randomBytes(SaltSize)
	if err != nil {
		return nil, fmt.Errorf("unable to generate salt: %w", err)
	}

	pin := make([]byte, PINLength)
	for i := range pin {
		pin[i] = '0' + byte(e.Digit())
	}

	return &SetupAttempt{
		Salt: salt,
		PIN:  string(pin),
	}, nil
}
