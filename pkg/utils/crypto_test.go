package utils

import "testing"

func TestEncryptDecryptRoundtrip(t *testing.T) {
	key := []byte("0123456789abcdef0123456789abcdef")

	sealed, err := Encrypt([]byte("secret token"), key)
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	if sealed == "secret token" {
		t.Fatal("ciphertext equals plaintext")
	}

	plain, err := Decrypt(sealed, key)
	if err != nil {
		t.Fatalf("decrypt: %v", err)
	}
	if plain != "secret token" {
		t.Errorf("roundtrip = %q", plain)
	}
}

func TestDecryptWrongKeyFails(t *testing.T) {
	key := []byte("0123456789abcdef0123456789abcdef")
	other := []byte("fedcba9876543210fedcba9876543210")

	sealed, err := Encrypt([]byte("secret"), key)
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	if _, err := Decrypt(sealed, other); err == nil {
		t.Fatal("decrypt with the wrong key succeeded")
	}
}

func TestDecryptGarbage(t *testing.T) {
	key := []byte("0123456789abcdef0123456789abcdef")
	if _, err := Decrypt("not base64 at all!!!", key); err == nil {
		t.Fatal("expected a decode error")
	}
	if _, err := Decrypt("QUJD", key); err == nil { // too short for a nonce
		t.Fatal("expected a ciphertext-too-short error")
	}
}
