package encryption

import (
	"bytes"
	"errors"
	"path/filepath"
	"testing"

	"keepsake/internal/config"
)

func newTestAgeEncryptor(t *testing.T) *AgeEncryptor {
	t.Helper()
	dir := t.TempDir()
	return NewAgeEncryptor(config.EncryptionConfig{
		PublicKeyPath:  filepath.Join(dir, "keys", "keepsake.pub"),
		PrivateKeyPath: filepath.Join(dir, "keys", "keepsake.key"),
	})
}

func TestAgeEncryptor_Setup(t *testing.T) {
	t.Parallel()
	e := newTestAgeEncryptor(t)

	if e.IsConfigured() {
		t.Error("IsConfigured() = true before Setup, want false")
	}
	if err := e.Setup("passphrase"); err != nil {
		t.Fatalf("Setup() error = %v", err)
	}
	if !e.IsConfigured() {
		t.Error("IsConfigured() = false after Setup, want true")
	}
	if err := e.Setup("other"); !errors.Is(err, ErrKeysExist) {
		t.Errorf("second Setup() error = %v, want ErrKeysExist", err)
	}
}

func TestAgeEncryptor_SealOpenRoundTrip(t *testing.T) {
	t.Parallel()
	e := newTestAgeEncryptor(t)
	if err := e.Setup("passphrase"); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name  string
		input []byte
	}{
		{name: "export document", input: []byte(`{"metadata":{},"data":{}}`)},
		{name: "empty", input: []byte{}},
		{name: "large", input: bytes.Repeat([]byte("abcdef"), 10000)},
	}

	opener, err := e.Unlock("passphrase")
	if err != nil {
		t.Fatalf("Unlock() error = %v", err)
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sealed, err := e.Seal(tt.input)
			if err != nil {
				t.Fatalf("Seal() error = %v", err)
			}
			if !e.IsSealed(sealed) {
				t.Error("IsSealed() = false for sealed data")
			}
			if len(tt.input) > 0 && bytes.Contains(sealed, tt.input) {
				t.Error("sealed output contains plaintext")
			}

			got, err := opener.Open(sealed)
			if err != nil {
				t.Fatalf("Open() error = %v", err)
			}
			if !bytes.Equal(got, tt.input) {
				t.Errorf("Open() returned %d bytes, want %d", len(got), len(tt.input))
			}
		})
	}
}

func TestAgeEncryptor_UnlockWrongPassphrase(t *testing.T) {
	t.Parallel()
	e := newTestAgeEncryptor(t)
	if err := e.Setup("right"); err != nil {
		t.Fatal(err)
	}
	if _, err := e.Unlock("wrong"); !errors.Is(err, ErrWrongPassphrase) {
		t.Errorf("Unlock() error = %v, want ErrWrongPassphrase", err)
	}
}

func TestAgeEncryptor_BeforeSetup(t *testing.T) {
	t.Parallel()
	e := newTestAgeEncryptor(t)

	if _, err := e.Seal([]byte("data")); err == nil {
		t.Error("Seal() before Setup expected error")
	}
	if _, err := e.Unlock("passphrase"); err == nil {
		t.Error("Unlock() before Setup expected error")
	}
}

func TestAgeOpener_RejectsPlaintext(t *testing.T) {
	t.Parallel()
	e := newTestAgeEncryptor(t)
	if err := e.Setup("passphrase"); err != nil {
		t.Fatal(err)
	}
	opener, err := e.Unlock("passphrase")
	if err != nil {
		t.Fatal(err)
	}
	if e.IsSealed([]byte(`{"metadata":{}}`)) {
		t.Error("IsSealed() = true for plain JSON")
	}
	if _, err := opener.Open([]byte(`{"metadata":{}}`)); !errors.Is(err, ErrNotSealed) {
		t.Errorf("Open() error = %v, want ErrNotSealed", err)
	}
}

func TestTestEncryptor(t *testing.T) {
	e := NewTestEncryptor()
	if !e.IsConfigured() {
		t.Error("IsConfigured() = false, want true")
	}

	sealed, err := e.Seal([]byte("hello"))
	if err != nil {
		t.Fatal(err)
	}
	if !e.IsSealed(sealed) || e.IsSealed([]byte("hello")) {
		t.Error("IsSealed() does not distinguish sealed data")
	}

	again, _ := e.Seal([]byte("hello"))
	if !bytes.Equal(sealed, again) {
		t.Error("Seal() is not deterministic")
	}

	opener, err := e.Unlock("anything")
	if err != nil {
		t.Fatal(err)
	}
	got, err := opener.Open(sealed)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "hello" {
		t.Errorf("Open() = %q, want %q", got, "hello")
	}
	if _, err := opener.Open([]byte("plain")); !errors.Is(err, ErrNotSealed) {
		t.Errorf("Open(plain) error = %v, want ErrNotSealed", err)
	}

	if err := e.Setup("secret"); err != nil {
		t.Fatal(err)
	}
	if _, err := e.Unlock("wrong"); !errors.Is(err, ErrWrongPassphrase) {
		t.Errorf("Unlock() error = %v, want ErrWrongPassphrase", err)
	}
}

func TestNewEncryptorFromConfig(t *testing.T) {
	tests := []struct {
		typ     string
		want    string
		wantErr bool
	}{
		{typ: "", want: "*encryption.AgeEncryptor"},
		{typ: "age", want: "*encryption.AgeEncryptor"},
		{typ: "test", want: "*encryption.TestEncryptor"},
		{typ: "rot13", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.typ, func(t *testing.T) {
			got, err := NewEncryptorFromConfig(config.EncryptionConfig{Type: tt.typ})
			if (err != nil) != tt.wantErr {
				t.Fatalf("error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			var name string
			switch got.(type) {
			case *AgeEncryptor:
				name = "*encryption.AgeEncryptor"
			case *TestEncryptor:
				name = "*encryption.TestEncryptor"
			}
			if name != tt.want {
				t.Errorf("got %T, want %s", got, tt.want)
			}
		})
	}
}
