package main

import (
	"crypto/ed25519"
	"encoding/base64"
	"os"
	"path/filepath"
	"testing"

	"sanitizer-engine/internal/config"
)

func TestResolvePublicKey_PrefersFileFlag(t *testing.T) {
	pub, _, err := ed25519.GenerateKey(nil)
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	path := filepath.Join(t.TempDir(), "pub.key")
	if err := os.WriteFile(path, pub, 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	origPath, origCfg := verifyPublicKeyPath, cfg
	defer func() { verifyPublicKeyPath, cfg = origPath, origCfg }()
	verifyPublicKeyPath = path
	cfg = &config.Config{LicensePublicKey: "irrelevant-if-file-flag-wins"}

	got, err := resolvePublicKey()
	if err != nil {
		t.Fatalf("resolvePublicKey: %v", err)
	}
	if !got.Equal(pub) {
		t.Fatal("resolvePublicKey did not return the key from --public-key")
	}
}

func TestResolvePublicKey_FallsBackToConfig(t *testing.T) {
	pub, _, err := ed25519.GenerateKey(nil)
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}

	origPath, origCfg := verifyPublicKeyPath, cfg
	defer func() { verifyPublicKeyPath, cfg = origPath, origCfg }()
	verifyPublicKeyPath = ""
	cfg = &config.Config{LicensePublicKey: base64.StdEncoding.EncodeToString(pub)}

	got, err := resolvePublicKey()
	if err != nil {
		t.Fatalf("resolvePublicKey: %v", err)
	}
	if !got.Equal(pub) {
		t.Fatal("resolvePublicKey did not return the key decoded from config")
	}
}

func TestResolvePublicKey_ErrorsWithoutAnySource(t *testing.T) {
	origPath, origCfg := verifyPublicKeyPath, cfg
	defer func() { verifyPublicKeyPath, cfg = origPath, origCfg }()
	verifyPublicKeyPath = ""
	cfg = &config.Config{}

	if _, err := resolvePublicKey(); err == nil {
		t.Fatal("expected an error when no public key source is configured")
	}
}
