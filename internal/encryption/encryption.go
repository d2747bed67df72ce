package encryption

import "errors"

// Encryptor seals export files at rest. Sealing needs only the public key;
// opening a sealed file needs the passphrase protecting the private key.
type Encryptor interface {
	// Setup generates and stores a key pair, protecting the private key with
	// passphrase. It refuses to replace existing keys.
	Setup(passphrase string) error

	// Seal encrypts plaintext with the public key.
	Seal(plaintext []byte) ([]byte, error)

	// Unlock decrypts the private key and returns an Opener for the session.
	Unlock(passphrase string) (Opener, error)

	// IsConfigured reports whether both key files exist.
	IsConfigured() bool

	// IsSealed reports whether data looks like output of Seal.
	IsSealed(data []byte) bool
}

// Opener decrypts sealed data with an unlocked private key held in memory.
type Opener interface {
	Open(sealed []byte) ([]byte, error)
}

var (
	// ErrWrongPassphrase is returned by Unlock when the passphrase does not
	// decrypt the private key.
	ErrWrongPassphrase = errors.New("wrong passphrase")

	// ErrKeysExist is returned by Setup when a key file is already present.
	ErrKeysExist = errors.New("encryption keys already exist")

	// ErrNotSealed is returned by Open for data that was not sealed.
	ErrNotSealed = errors.New("data is not encrypted")
)
