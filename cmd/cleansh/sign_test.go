package main

import (
	"crypto/ed25519"
	"os"
	"path/filepath"
	"testing"
)

func TestLoadPrivateKeyFile_RoundTrip(t *testing.T) {
	_, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}

	path := filepath.Join(t.TempDir(), "key")
	if err := os.WriteFile(path, priv, 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	got, err := loadPrivateKeyFile(path)
	if err != nil {
		t.Fatalf("loadPrivateKeyFile: %v", err)
	}
	if !got.Equal(priv) {
		t.Fatal("loaded private key does not match the one written")
	}
}

func TestLoadPrivateKeyFile_RejectsWrongLength(t *testing.T) {
	path := filepath.Join(t.TempDir(), "key")
	if err := os.WriteFile(path, []byte("too short"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	if _, err := loadPrivateKeyFile(path); err == nil {
		t.Fatal("expected an error for a malformed private key file")
	}
}
