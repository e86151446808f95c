// Package signer implements artifact signing and verification: an envelope
// of the form {"data": ..., "signature": "<hex>"} signed and checked with
// Ed25519, the way the license-verification and artifact-verification flows
// of the reference implementation do it.
package signer

import (
	"crypto/ed25519"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Envelope is the on-disk artifact shape: a data payload plus its
// hex-encoded Ed25519 signature over the payload's canonical bytes.
type Envelope struct {
	Data      json.RawMessage `json:"data"`
	Signature string          `json:"signature"`
}

// Signer signs and verifies artifact envelopes, logging each operation with
// a unique operation id for traceability without exposing signed content.
type Signer struct {
	log zerolog.Logger
}

// New returns a Signer that logs through log.
func New(log zerolog.Logger) *Signer {
	return &Signer{log: log.With().Str("component", "signer").Logger()}
}

// CanonicalDataBytes extracts the bytes an envelope's data field was (or
// must be) signed over: a JSON string's raw bytes as-is, or a JSON
// object/array re-serialized with recursively sorted keys and no
// insignificant whitespace. Go's encoding/json already serializes
// map[string]interface{} with lexicographically sorted keys at every
// nesting level, so decoding into interface{} and re-encoding is sufficient
// canonicalization; no hand-rolled sorted-map walk is needed here.
func CanonicalDataBytes(data json.RawMessage) ([]byte, error) {
	var asString string
	if err := json.Unmarshal(data, &asString); err == nil {
		return []byte(asString), nil
	}

	var v interface{}
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("parse artifact data: %w", err)
	}
	canon, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("canonicalize artifact data: %w", err)
	}
	return canon, nil
}

// Sign produces a signed envelope over data using privateKey.
func (s *Signer) Sign(privateKey ed25519.PrivateKey, data json.RawMessage) (Envelope, error) {
	opID := uuid.NewString()

	bytesToSign, err := CanonicalDataBytes(data)
	if err != nil {
		s.log.Warn().Str("op_id", opID).Err(err).Msg("sign failed: could not canonicalize data")
		return Envelope{}, err
	}

	signature := ed25519.Sign(privateKey, bytesToSign)

	s.log.Debug().Str("op_id", opID).Int("payload_bytes", len(bytesToSign)).Msg("signed artifact")
	return Envelope{Data: data, Signature: hex.EncodeToString(signature)}, nil
}

// Verify checks env's signature against publicKey, returning true only on a
// fully valid Ed25519 signature over the canonicalized data. Every failure
// path logs a generic "signature verification FAILED" without indicating
// which check failed, matching the reference's refusal to leak a more
// specific reason.
func (s *Signer) Verify(publicKey ed25519.PublicKey, env Envelope) bool {
	opID := uuid.NewString()
	fail := func(_ string) bool {
		s.log.Warn().Str("op_id", opID).Msg("signature verification FAILED")
		return false
	}

	if len(publicKey) != ed25519.PublicKeySize {
		return fail("invalid public key length")
	}

	signature, err := hex.DecodeString(env.Signature)
	if err != nil || len(signature) != ed25519.SignatureSize {
		return fail("malformed signature")
	}

	dataBytes, err := CanonicalDataBytes(env.Data)
	if err != nil {
		return fail("malformed data")
	}

	if !ed25519.Verify(publicKey, dataBytes, signature) {
		return fail("signature mismatch")
	}

	s.log.Debug().Str("op_id", opID).Msg("signature verification succeeded")
	return true
}

// LoadPublicKeyFile reads a raw 32-byte Ed25519 public key from path.
func LoadPublicKeyFile(path string) (ed25519.PublicKey, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read public key file %s: %w", path, err)
	}
	if len(raw) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("public key file %s: expected %d bytes, got %d", path, ed25519.PublicKeySize, len(raw))
	}
	return ed25519.PublicKey(raw), nil
}

// DecodePublicKeyBase64 decodes a standard-base64-encoded 32-byte Ed25519
// public key, the form CLEANSH_LICENSE_PUBLIC_KEY_BASE64 carries.
func DecodePublicKeyBase64(encoded string) (ed25519.PublicKey, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("decode base64 public key: %w", err)
	}
	if len(raw) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("base64 public key: expected %d bytes, got %d", ed25519.PublicKeySize, len(raw))
	}
	return ed25519.PublicKey(raw), nil
}
