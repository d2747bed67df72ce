package encryption

import (
	"bytes"
	"slices"
)

// testHeader marks data sealed by TestEncryptor.
var testHeader = []byte("KSENC\x00\x00\x00")

// TestEncryptor is a deterministic, crypto-free Encryptor for tests. Seal
// prepends a fixed header and Open strips it. Any passphrase unlocks it
// unless Passphrase is set.
type TestEncryptor struct {
	Passphrase string
	configured bool
}

var _ Encryptor = (*TestEncryptor)(nil)

// NewTestEncryptor creates a TestEncryptor that reports itself configured.
func NewTestEncryptor() *TestEncryptor {
	return &TestEncryptor{configured: true}
}

func (e *TestEncryptor) Setup(passphrase string) error {
	e.Passphrase = passphrase
	e.configured = true
	return nil
}

func (e *TestEncryptor) Seal(plaintext []byte) ([]byte, error) {
	return slices.Concat(testHeader, plaintext), nil
}

func (e *TestEncryptor) Unlock(passphrase string) (Opener, error) {
	if e.Passphrase != "" && passphrase != e.Passphrase {
		return nil, ErrWrongPassphrase
	}
	return testOpener{}, nil
}

func (e *TestEncryptor) IsConfigured() bool { return e.configured }

func (e *TestEncryptor) IsSealed(data []byte) bool { return bytes.HasPrefix(data, testHeader) }

type testOpener struct{}

func (testOpener) Open(sealed []byte) ([]byte, error) {
	if !bytes.HasPrefix(sealed, testHeader) {
		return nil, ErrNotSealed
	}
	return slices.Clone(sealed[len(testHeader):]), nil
}
