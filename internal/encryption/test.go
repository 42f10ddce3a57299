package encryption

import (
	"bytes"
	"fmt"

	"keksly-go/internal/keksly"
)

// testHeader is prepended by TestSealer so sealed output is clearly
// different from plaintext while remaining deterministic and reversible.
var testHeader = []byte("KEKSLY:")

// TestSealer is a deterministic sealer for tests. It requires no keys.
type TestSealer struct{}

var _ keksly.Sealer = (*TestSealer)(nil)

func NewTestSealer() *TestSealer {
	return &TestSealer{}
}

func (TestSealer) Seal(plaintext []byte) ([]byte, error) {
	return append(append([]byte{}, testHeader...), plaintext...), nil
}

func (TestSealer) Open(ciphertext []byte) ([]byte, error) {
	if !bytes.HasPrefix(ciphertext, testHeader) {
		return nil, fmt.Errorf("invalid test seal header")
	}
	return append([]byte{}, ciphertext[len(testHeader):]...), nil
}
