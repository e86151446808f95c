// Package state implements an encrypted on-disk JSON state store: AES-256-GCM
// envelopes with OS-keychain-or-file key management, atomic temp-file-then-
// rename writes, and a plaintext-JSON fallback on decrypt failure, grounded
// on the reference AppState's key-sourcing chain and v1.<nonce>.<ciphertext>
// envelope format.
package state

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"golang.org/x/sys/unix"

	"sanitizer-engine/internal/logger"
)

const (
	envelopeFormat = "v1"
	keychainService = "sanitizer-engine"
	keychainAccount = "state-encryption-key"
)

// Store persists a JSON-serializable state record at path, encrypted under a
// 32-byte AES-256 key obtained from the OS keychain or a sibling key file.
type Store struct {
	path string
	key  []byte
	log  *logger.Logger
}

// Open resolves (or creates) the store's encryption key and returns a Store
// bound to path. No file is created or read until Load/Save is called.
func Open(path string, log *logger.Logger) (*Store, error) {
	key, err := loadOrCreateKey(path, log)
	if err != nil {
		return nil, err
	}
	return &Store{path: path, key: key, log: log}, nil
}

// Load reads and decrypts the state file into v. If the file does not
// exist, v is left at its zero value and no error is returned. If the file
// exists but fails to decrypt, Load falls back to parsing it as plaintext
// JSON; if that also fails, v is left at its zero value, a warning is
// logged, and no error is returned — a corrupt state file never blocks
// startup.
func (s *Store) Load(v interface{}) error {
	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("open state file %s: %w", s.path, err)
	}
	defer f.Close()

	_ = unix.Flock(int(f.Fd()), unix.LOCK_SH)
	defer func() { _ = unix.Flock(int(f.Fd()), unix.LOCK_UN) }()

	raw, err := io.ReadAll(f)
	if err != nil {
		return fmt.Errorf("read state file %s: %w", s.path, err)
	}

	plaintext, decryptErr := decodeEnvelope(s.key, strings.TrimSpace(string(raw)))
	if decryptErr != nil {
		if s.log != nil {
			s.log.Debugf("state_decrypt", "state file %s did not decrypt (%v), trying plaintext JSON fallback", s.path, decryptErr)
		}
		plaintext = raw
	}

	if err := json.Unmarshal(plaintext, v); err != nil {
		if s.log != nil {
			s.log.Warnf("state_parse", "state file %s is neither valid ciphertext nor plaintext JSON, using default state: %v", s.path, err)
		}
		return nil
	}
	return nil
}

// Save serializes v to JSON, encrypts it, and atomically replaces the state
// file: write to a sibling temp file under an exclusive lock, flush, then
// rename over the target.
func (s *Store) Save(v interface{}) error {
	plaintext, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("serialize state: %w", err)
	}

	envelope, err := encodeEnvelope(s.key, plaintext)
	if err != nil {
		return fmt.Errorf("encrypt state: %w", err)
	}

	dir := filepath.Dir(s.path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("create state directory: %w", err)
		}
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp state file: %w", err)
	}
	tmpPath := tmp.Name()
	removeTemp := true
	defer func() {
		if removeTemp {
			_ = os.Remove(tmpPath)
		}
	}()

	_ = unix.Flock(int(tmp.Fd()), unix.LOCK_EX)

	if _, err := tmp.WriteString(envelope); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp state file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp state file: %w", err)
	}
	_ = unix.Flock(int(tmp.Fd()), unix.LOCK_UN)
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp state file: %w", err)
	}

	if err := os.Chmod(tmpPath, 0o600); err != nil {
		return fmt.Errorf("chmod temp state file: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		return fmt.Errorf("rename temp state file into place: %w", err)
	}
	removeTemp = false
	return nil
}

// encodeEnvelope encrypts plaintext under key and formats it as
// "v1.<base64 nonce>.<base64 ciphertext>".
func encodeEnvelope(key, plaintext []byte) (string, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}

	ciphertext := gcm.Seal(nil, nonce, plaintext, nil)
	return fmt.Sprintf("%s.%s.%s", envelopeFormat, base64.StdEncoding.EncodeToString(nonce), base64.StdEncoding.EncodeToString(ciphertext)), nil
}

// decodeEnvelope parses and decrypts an envelope produced by encodeEnvelope.
func decodeEnvelope(key []byte, envelope string) ([]byte, error) {
	parts := strings.SplitN(envelope, ".", 3)
	if len(parts) != 3 || parts[0] != envelopeFormat {
		return nil, errors.New("state: not a recognized v1 envelope")
	}

	nonce, err := base64.StdEncoding.DecodeString(parts[1])
	if err != nil {
		return nil, fmt.Errorf("decode nonce: %w", err)
	}
	ciphertext, err := base64.StdEncoding.DecodeString(parts[2])
	if err != nil {
		return nil, fmt.Errorf("decode ciphertext: %w", err)
	}

	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("decrypt state envelope: %w", err)
	}
	return plaintext, nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("construct AES cipher: %w", err)
	}
	return cipher.NewGCM(block)
}

// loadOrCreateKey resolves the 32-byte AES-256 key for the state file at
// statePath: the OS keychain first, then a sibling key file, then a freshly
// generated key persisted to whichever of those two is available.
func loadOrCreateKey(statePath string, log *logger.Logger) ([]byte, error) {
	if key, err := loadKeyFromKeychain(); err == nil {
		return key, nil
	}

	keyPath := statePath + ".key"
	if raw, err := os.ReadFile(keyPath); err == nil {
		if key, decodeErr := decodeKeyFile(raw); decodeErr == nil {
			return key, nil
		}
		if log != nil {
			log.Warnf("state_key", "key file %s is malformed, generating a new key", keyPath)
		}
	}

	key := make([]byte, 32)
	if _, err := io.ReadFull(rand.Reader, key); err != nil {
		return nil, fmt.Errorf("generate state encryption key: %w", err)
	}

	if err := storeKeyInKeychain(key); err == nil {
		if log != nil {
			log.Debug("state_key", "generated new state encryption key, stored in OS keychain")
		}
		return key, nil
	}

	if err := os.MkdirAll(filepath.Dir(keyPath), 0o700); err != nil {
		return nil, fmt.Errorf("create key directory: %w", err)
	}
	encoded := base64.StdEncoding.EncodeToString(key)
	if err := os.WriteFile(keyPath, []byte(encoded), 0o600); err != nil {
		return nil, fmt.Errorf("persist state encryption key: %w", err)
	}
	if log != nil {
		log.Debugf("state_key", "generated new state encryption key, stored at %s", keyPath)
	}
	return key, nil
}

func decodeKeyFile(raw []byte) ([]byte, error) {
	key, err := base64.StdEncoding.DecodeString(strings.TrimSpace(string(raw)))
	if err != nil {
		return nil, err
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("key file: expected 32 bytes, got %d", len(key))
	}
	return key, nil
}

// keychainReadCommand and keychainWriteCommand return the platform-specific
// CLI invocation for reading/writing the state key, shelling out the way
// the reference secrets manager does (no keyring library exists in the
// pack). Unsupported platforms return an empty name.
func keychainReadCommand() (name string, args []string) {
	switch runtime.GOOS {
	case "darwin":
		return "security", []string{"find-generic-password", "-a", keychainAccount, "-s", keychainService, "-w"}
	case "linux":
		return "secret-tool", []string{"lookup", "service", keychainService, "account", keychainAccount}
	default:
		return "", nil
	}
}

func keychainWriteCommand(encodedKey string) (name string, args []string, stdin string) {
	switch runtime.GOOS {
	case "darwin":
		return "security", []string{"add-generic-password", "-U", "-a", keychainAccount, "-s", keychainService, "-w", encodedKey}, ""
	case "linux":
		return "secret-tool", []string{"store", "--label=" + keychainService, "service", keychainService, "account", keychainAccount}, encodedKey
	default:
		return "", nil, ""
	}
}

func loadKeyFromKeychain() ([]byte, error) {
	name, args := keychainReadCommand()
	if name == "" {
		return nil, errors.New("state: no keychain backend for this platform")
	}
	if _, err := exec.LookPath(name); err != nil {
		return nil, fmt.Errorf("state: keychain CLI %s not available: %w", name, err)
	}

	out, err := exec.Command(name, args...).Output()
	if err != nil {
		return nil, fmt.Errorf("state: keychain lookup failed: %w", err)
	}
	return decodeKeyFile(out)
}

func storeKeyInKeychain(key []byte) error {
	encoded := base64.StdEncoding.EncodeToString(key)
	name, args, stdin := keychainWriteCommand(encoded)
	if name == "" {
		return errors.New("state: no keychain backend for this platform")
	}
	if _, err := exec.LookPath(name); err != nil {
		return fmt.Errorf("state: keychain CLI %s not available: %w", name, err)
	}

	cmd := exec.Command(name, args...)
	if stdin != "" {
		cmd.Stdin = strings.NewReader(stdin)
	}
	return cmd.Run()
}
