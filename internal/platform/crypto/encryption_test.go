package crypto

import (
	"bytes"
	"strings"
	"testing"
)

const testKey = "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"

func TestEncryptDecrypt(t *testing.T) {
	svc, err := New(testKey)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	plain := []byte(`{"id":"EMP001","basic":60000}`)
	sealed, err := svc.Encrypt(plain)
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	if bytes.Contains(sealed, []byte("EMP001")) {
		t.Fatal("ciphertext leaks plaintext")
	}
	got, err := svc.Decrypt(sealed)
	if err != nil {
		t.Fatalf("decrypt: %v", err)
	}
	if !bytes.Equal(got, plain) {
		t.Fatalf("round trip mismatch: %s", got)
	}
}

func TestDecryptPassesThroughPlainValues(t *testing.T) {
	svc, err := New(testKey)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	got, err := svc.Decrypt([]byte(`["Engineering"]`))
	if err != nil || string(got) != `["Engineering"]` {
		t.Fatalf("got %q err %v", got, err)
	}
}

func TestUnconfiguredRefusesSealedValues(t *testing.T) {
	keyed, _ := New(testKey)
	sealed, _ := keyed.Encrypt([]byte("secret"))

	plain, err := New("")
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if plain.Configured() {
		t.Fatal("empty key should not be configured")
	}
	if _, err := plain.Decrypt(sealed); err == nil || !strings.Contains(err.Error(), "DATA_ENCRYPTION_KEY") {
		t.Fatalf("expected key error, got %v", err)
	}
}

func TestNewRejectsShortKey(t *testing.T) {
	if _, err := New("short"); err == nil {
		t.Fatal("expected error for short key")
	}
}
