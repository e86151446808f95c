package signer

import (
	"crypto/ed25519"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
)

func testSigner(t *testing.T) *Signer {
	t.Helper()
	return New(zerolog.Nop())
}

func TestSignVerify_RoundTrip(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	s := testSigner(t)

	data := json.RawMessage(`{"b":2,"a":1}`)
	env, err := s.Sign(priv, data)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	if !s.Verify(pub, env) {
		t.Fatal("Verify should succeed on an untampered envelope")
	}
}

func TestVerify_RejectsMutatedData(t *testing.T) {
	pub, priv, _ := ed25519.GenerateKey(nil)
	s := testSigner(t)

	env, err := s.Sign(priv, json.RawMessage(`{"amount":100}`))
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	env.Data = json.RawMessage(`{"amount":101}`)

	if s.Verify(pub, env) {
		t.Fatal("Verify should fail when data was mutated after signing")
	}
}

func TestVerify_RejectsMutatedSignature(t *testing.T) {
	pub, priv, _ := ed25519.GenerateKey(nil)
	s := testSigner(t)

	env, err := s.Sign(priv, json.RawMessage(`"hello world"`))
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}

	mutated := []rune(env.Signature)
	if mutated[0] == 'a' {
		mutated[0] = 'b'
	} else {
		mutated[0] = 'a'
	}
	env.Signature = string(mutated)

	if s.Verify(pub, env) {
		t.Fatal("Verify should fail when signature bytes were mutated")
	}
}

func TestVerify_RejectsWrongPublicKey(t *testing.T) {
	_, priv, _ := ed25519.GenerateKey(nil)
	otherPub, _, _ := ed25519.GenerateKey(nil)
	s := testSigner(t)

	env, err := s.Sign(priv, json.RawMessage(`{"x":1}`))
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	if s.Verify(otherPub, env) {
		t.Fatal("Verify should fail under a mismatched public key")
	}
}

func TestCanonicalDataBytes_ObjectKeysSorted(t *testing.T) {
	a, err := CanonicalDataBytes(json.RawMessage(`{"z":1,"a":{"y":2,"x":3}}`))
	if err != nil {
		t.Fatalf("CanonicalDataBytes: %v", err)
	}
	b, err := CanonicalDataBytes(json.RawMessage(`{"a":{"x":3,"y":2},"z":1}`))
	if err != nil {
		t.Fatalf("CanonicalDataBytes: %v", err)
	}
	if string(a) != string(b) {
		t.Fatalf("differently-ordered equivalent objects canonicalized differently: %q vs %q", a, b)
	}
}

func TestCanonicalDataBytes_StringPassthrough(t *testing.T) {
	got, err := CanonicalDataBytes(json.RawMessage(`"raw inner json as-is"`))
	if err != nil {
		t.Fatalf("CanonicalDataBytes: %v", err)
	}
	if string(got) != "raw inner json as-is" {
		t.Fatalf("got %q, want raw passthrough", got)
	}
}

func TestDecodePublicKeyBase64_RejectsWrongLength(t *testing.T) {
	if _, err := DecodePublicKeyBase64("aGVsbG8="); err == nil {
		t.Fatal("expected error for a non-32-byte base64 key")
	}
}
