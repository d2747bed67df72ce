package testutil

import (
	"testing"

	"keepsake/internal/keepsake"
	"keepsake/internal/kvstore"
)

// TestEnv bundles a Manager with the stubs and backends behind it so tests
// can inspect raw storage or move the clock.
type TestEnv struct {
	Manager  *keepsake.Manager
	KeyStore *keepsake.KeyStore
	Primary  *FailingBackend
	Fallback *kvstore.MemoryBackend
	Clock    *StubClock
	IDs      *StubIDGenerator
}

// NewTestKeyStore creates a KeyStore over a FailingBackend with an
// in-memory fallback.
func NewTestKeyStore(clock keepsake.Clock) (*keepsake.KeyStore, *FailingBackend, *kvstore.MemoryBackend) {
	primary := NewFailingBackend()
	fallback := kvstore.NewMemoryBackend(0)
	return keepsake.NewKeyStore(primary, fallback, keepsake.NewNopLogger(), clock), primary, fallback
}

// NewTestManager creates an initialized Manager backed by memory, with a
// FixedClock and sequential ids.
func NewTestManager(t *testing.T) *TestEnv {
	t.Helper()
	return NewTestManagerWithConfig(t, keepsake.ManagerConfig{})
}

// NewTestManagerWithConfig is NewTestManager with explicit tunables.
func NewTestManagerWithConfig(t *testing.T, cfg keepsake.ManagerConfig) *TestEnv {
	t.Helper()

	clock := FixedClock()
	ids := NewStubIDGenerator()
	ks, primary, fallback := NewTestKeyStore(clock)

	m := keepsake.NewManager(ks, cfg, clock, ids, keepsake.NewNopLogger())
	if err := m.Init(); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	return &TestEnv{
		Manager:  m,
		KeyStore: ks,
		Primary:  primary,
		Fallback: fallback,
		Clock:    clock,
		IDs:      ids,
	}
}
