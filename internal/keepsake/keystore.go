package keepsake

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strconv"
)

// KeyStore stores JSON values in a persistent Backend and falls back to a
// session-scoped Backend when the persistent one rejects a write. Callers
// cannot tell which of the two accepted a value.
type KeyStore struct {
	primary  Backend
	fallback Backend
	logger   Logger
	clock    Clock
	warned   bool
}

// NewKeyStore creates a KeyStore. fallback may be nil, in which case a failed
// persistent write is returned to the caller as ErrStorageUnavailable.
func NewKeyStore(primary, fallback Backend, logger Logger, clock Clock) *KeyStore {
	return &KeyStore{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
		clock:    clock,
	}
}

// Set encodes value as JSON and stores it under key.
// Only an encoding failure, or both stores refusing the write, is returned.
func (s *KeyStore) Set(key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", key, err)
	}
	return s.SetRaw(key, data)
}

// SetRaw stores already-encoded JSON under key.
func (s *KeyStore) SetRaw(key string, data []byte) error {
	err := s.primary.Set(key, data)
	if err == nil {
		if s.fallback != nil {
			// Drop any session copy so it cannot shadow the persisted value later.
			if rerr := s.fallback.Remove(key); rerr != nil {
				s.logger.Debug("clearing session copy failed", "key", key, "error", rerr)
			}
		}
		return nil
	}

	if !s.warned {
		s.logger.Warn("persistent storage unavailable, using session storage", "key", key, "error", err)
		s.warned = true
	}
	if s.fallback == nil {
		return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	if ferr := s.fallback.Set(key, data); ferr != nil {
		s.logger.Error("session storage write failed", "key", key, "error", ferr)
		return fmt.Errorf("%w: %v", ErrStorageUnavailable, errors.Join(err, ferr))
	}

	// Reads try the persistent store first, so a stale persisted copy must go.
	if rerr := s.primary.Remove(key); rerr != nil {
		s.logger.Debug("removing stale persistent copy failed", "key", key, "error", rerr)
	}
	return nil
}

// GetRaw returns the stored bytes for key, reading the persistent store
// first and the session store second.
func (s *KeyStore) GetRaw(key string) ([]byte, bool) {
	data, err := s.primary.Get(key)
	if err == nil {
		return data, true
	}
	if !errors.Is(err, ErrKeyNotFound) {
		s.logger.Warn("reading persistent storage failed", "key", key, "error", err)
	}
	if s.fallback == nil {
		return nil, false
	}
	data, err = s.fallback.Get(key)
	if err != nil {
		if !errors.Is(err, ErrKeyNotFound) {
			s.logger.Warn("reading session storage failed", "key", key, "error", err)
		}
		return nil, false
	}
	return data, true
}

// Get decodes the value stored under key into dst. It returns false when the
// key is missing or its contents are not valid JSON for dst.
func (s *KeyStore) Get(key string, dst any) bool {
	data, ok := s.GetRaw(key)
	if !ok {
		return false
	}
	if err := decodeInto(data, dst); err != nil {
		s.logger.Warn("stored value is corrupt, treating as empty", "key", key, "error", err)
		return false
	}
	return true
}

// Has reports whether key is present in either store.
func (s *KeyStore) Has(key string) bool {
	_, ok := s.GetRaw(key)
	return ok
}

// Remove deletes key from both stores.
func (s *KeyStore) Remove(key string) error {
	var errs []error
	if err := s.primary.Remove(key); err != nil {
		errs = append(errs, err)
	}
	if s.fallback != nil {
		if err := s.fallback.Remove(key); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("removing %s: %w", key, err)
	}
	return nil
}

// Keys returns the union of keys held by both stores, sorted.
func (s *KeyStore) Keys() []string {
	var out []string
	for _, b := range []Backend{s.primary, s.fallback} {
		if b == nil {
			continue
		}
		keys, err := b.Keys()
		if err != nil {
			s.logger.Warn("listing keys failed", "error", err)
			continue
		}
		out = append(out, keys...)
	}
	slices.Sort(out)
	return slices.Compact(out)
}

// Probe writes, reads back and removes a scratch key in the persistent
// store. A nil result means persistent storage is usable.
func (s *KeyStore) Probe() error {
	key := "storage_test_" + strconv.FormatInt(s.clock.Now().UnixNano(), 36)
	want := []byte(`"test_value"`)
	if err := s.primary.Set(key, want); err != nil {
		return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	defer s.primary.Remove(key)

	got, err := s.primary.Get(key)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	if string(got) != string(want) {
		return fmt.Errorf("%w: read back %q", ErrStorageUnavailable, got)
	}
	return nil
}

// decodeInto unmarshals data into dst, reporting malformed input as ErrParse.
func decodeInto(data []byte, dst any) error {
	if !json.Valid(data) {
		return ErrParse
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("%w: %v", ErrParse, err)
	}
	return nil
}
