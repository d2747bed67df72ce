package keepsake

// Backend is a byte-oriented key-value store. A KeyStore pairs a persistent
// Backend with a session-scoped one and handles JSON encoding on top.
type Backend interface {
	// Get returns the value stored under key.
	// Returns ErrKeyNotFound if the key is absent.
	Get(key string) ([]byte, error)

	// Set stores value under key, replacing any previous value.
	// Returns ErrQuotaExceeded or ErrStorageUnavailable when the write cannot
	// be accepted.
	Set(key string, value []byte) error

	// Remove deletes key. Removing an absent key is not an error.
	Remove(key string) error

	// Keys returns all stored keys in sorted order.
	Keys() ([]string, error)
}
