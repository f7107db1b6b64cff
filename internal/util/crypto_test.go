package util

import (
	"bytes"
	"testing"
)

func TestEncryptDecryptRoundTrip(t *testing.T) {
	key := "backup-secret"
	plaintext := []byte(`{"users":[],"products":[]}`)

	ciphertext, err := EncryptAES(key, plaintext)
	if err != nil {
		t.Fatalf("EncryptAES() error = %v", err)
	}
	if bytes.Contains(ciphertext, plaintext) {
		t.Error("ciphertext contains plaintext")
	}

	got, err := DecryptAES(key, ciphertext)
	if err != nil {
		t.Fatalf("DecryptAES() error = %v", err)
	}
	if !bytes.Equal(got, plaintext) {
		t.Errorf("round trip = %q, want %q", got, plaintext)
	}
}

func TestDecryptWrongKey(t *testing.T) {
	ciphertext, err := EncryptAES("right-key", []byte("ledger data"))
	if err != nil {
		t.Fatalf("EncryptAES() error = %v", err)
	}
	if _, err := DecryptAES("wrong-key", ciphertext); err == nil {
		t.Error("DecryptAES() with wrong key succeeded")
	}
}

func TestDecryptTamperedCiphertext(t *testing.T) {
	ciphertext, err := EncryptAES("key", []byte("ledger data"))
	if err != nil {
		t.Fatalf("EncryptAES() error = %v", err)
	}
	ciphertext[len(ciphertext)-1] ^= 0xff
	if _, err := DecryptAES("key", ciphertext); err == nil {
		t.Error("DecryptAES() with tampered ciphertext succeeded")
	}
}

func TestDecryptTooShort(t *testing.T) {
	if _, err := DecryptAES("key", []byte{0x01, 0x02}); err == nil {
		t.Error("DecryptAES() with truncated input succeeded")
	}
}

func TestEncryptNonceVaries(t *testing.T) {
	a, err := EncryptAES("key", []byte("same input"))
	if err != nil {
		t.Fatalf("EncryptAES() error = %v", err)
	}
	b, err := EncryptAES("key", []byte("same input"))
	if err != nil {
		t.Fatalf("EncryptAES() error = %v", err)
	}
	if bytes.Equal(a, b) {
		t.Error("two encryptions of the same input produced identical output")
	}
}

func TestRandomString(t *testing.T) {
	s, err := RandomString(24)
	if err != nil {
		t.Fatalf("RandomString() error = %v", err)
	}
	if len(s) != 24 {
		t.Errorf("len = %d, want 24", len(s))
	}

	other, err := RandomString(24)
	if err != nil {
		t.Fatalf("RandomString() error = %v", err)
	}
	if s == other {
		t.Error("two random strings are identical")
	}

	if _, err := RandomString(0); err == nil {
		t.Error("RandomString(0) succeeded")
	}
}
