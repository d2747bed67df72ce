package keepsake_test

import (
	"errors"
	"testing"

	"keepsake/internal/keepsake"
	"keepsake/internal/testutil"
)

func TestKeyStore_SetGet(t *testing.T) {
	ks, primary, fallback := testutil.NewTestKeyStore(testutil.FixedClock())

	if err := ks.Set("greeting", map[string]string{"text": "hello"}); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	var got map[string]string
	if !ks.Get("greeting", &got) {
		t.Fatal("Get() = false, want true")
	}
	if got["text"] != "hello" {
		t.Errorf("Get() = %v", got)
	}
	if _, err := primary.Get("greeting"); err != nil {
		t.Errorf("value not in primary store: %v", err)
	}
	if _, err := fallback.Get("greeting"); !errors.Is(err, keepsake.ErrKeyNotFound) {
		t.Errorf("value unexpectedly in fallback store: %v", err)
	}
}

func TestKeyStore_GetMissing(t *testing.T) {
	ks, _, _ := testutil.NewTestKeyStore(testutil.FixedClock())

	var v []string
	if ks.Get("nothing", &v) {
		t.Error("Get() = true for missing key")
	}
	if ks.Has("nothing") {
		t.Error("Has() = true for missing key")
	}
}

func TestKeyStore_CorruptValueReadsAsAbsent(t *testing.T) {
	ks, primary, _ := testutil.NewTestKeyStore(testutil.FixedClock())
	if err := primary.Set("photoAnalyses_v1", []byte("{not json")); err != nil {
		t.Fatal(err)
	}

	var v []map[string]any
	if ks.Get("photoAnalyses_v1", &v) {
		t.Error("Get() = true for corrupt value")
	}
	if !ks.Has("photoAnalyses_v1") {
		t.Error("Has() = false, corrupt values are still present")
	}
}

func TestKeyStore_FallsBackWhenPrimaryRejectsWrites(t *testing.T) {
	ks, primary, fallback := testutil.NewTestKeyStore(testutil.FixedClock())

	// A persisted copy exists before the primary fills up.
	if err := ks.Set("k", "old"); err != nil {
		t.Fatal(err)
	}
	primary.FailWrites(keepsake.ErrQuotaExceeded)

	if err := ks.Set("k", "new"); err != nil {
		t.Fatalf("Set() error = %v, want fallback to absorb the failure", err)
	}

	var got string
	if !ks.Get("k", &got) || got != "new" {
		t.Errorf("Get() = %q, want %q", got, "new")
	}
	if _, err := fallback.Get("k"); err != nil {
		t.Errorf("value not in fallback store: %v", err)
	}
	if _, err := primary.MemoryBackend.Get("k"); !errors.Is(err, keepsake.ErrKeyNotFound) {
		t.Errorf("stale primary copy kept: %v", err)
	}

	// Once the primary recovers, a write lands there and the session copy goes.
	primary.FailWrites(nil)
	if err := ks.Set("k", "recovered"); err != nil {
		t.Fatal(err)
	}
	if _, err := fallback.Get("k"); !errors.Is(err, keepsake.ErrKeyNotFound) {
		t.Errorf("session copy kept after recovery: %v", err)
	}
	if !ks.Get("k", &got) || got != "recovered" {
		t.Errorf("Get() = %q, want %q", got, "recovered")
	}
}

func TestKeyStore_NoFallback(t *testing.T) {
	primary := testutil.NewFailingBackend()
	primary.FailWrites(keepsake.ErrQuotaExceeded)
	ks := keepsake.NewKeyStore(primary, nil, keepsake.NewNopLogger(), testutil.FixedClock())

	err := ks.Set("k", 1)
	if !errors.Is(err, keepsake.ErrStorageUnavailable) {
		t.Errorf("Set() error = %v, want ErrStorageUnavailable", err)
	}
}

func TestKeyStore_RemoveAndKeys(t *testing.T) {
	ks, primary, _ := testutil.NewTestKeyStore(testutil.FixedClock())

	if err := ks.Set("a", 1); err != nil {
		t.Fatal(err)
	}
	primary.FailWrites(keepsake.ErrStorageUnavailable)
	if err := ks.Set("b", 2); err != nil {
		t.Fatal(err)
	}
	primary.FailWrites(nil)

	keys := ks.Keys()
	if len(keys) != 2 || keys[0] != "a" || keys[1] != "b" {
		t.Errorf("Keys() = %v, want [a b]", keys)
	}

	for _, k := range []string{"a", "b"} {
		if err := ks.Remove(k); err != nil {
			t.Fatalf("Remove(%q) error = %v", k, err)
		}
		if ks.Has(k) {
			t.Errorf("Has(%q) = true after Remove", k)
		}
	}
}

func TestKeyStore_Probe(t *testing.T) {
	ks, primary, _ := testutil.NewTestKeyStore(testutil.FixedClock())

	if err := ks.Probe(); err != nil {
		t.Fatalf("Probe() error = %v", err)
	}
	if keys, _ := primary.Keys(); len(keys) != 0 {
		t.Errorf("Probe() left keys behind: %v", keys)
	}

	primary.FailWrites(keepsake.ErrQuotaExceeded)
	if err := ks.Probe(); !errors.Is(err, keepsake.ErrStorageUnavailable) {
		t.Errorf("Probe() error = %v, want ErrStorageUnavailable", err)
	}
}
