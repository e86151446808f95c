// Package manifest implements an optional, restart-surviving record of which
// compiled rule-set fingerprints have been seen and when, for operational
// introspection. It is adapted from the teacher's Ollama value cache
// (internal/anonymizer's PersistentCache/bboltCache): the same
// open-bucket-if-missing bbolt idiom, repurposed one layer down from caching
// anonymization values to cataloguing compile-cache fingerprints.
package manifest

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	bolt "go.etcd.io/bbolt"

	"sanitizer-engine/internal/logger"
)

// Record is one fingerprint's manifest entry.
type Record struct {
	Fingerprint string `json:"fingerprint"`
	RuleCount   int    `json:"rule_count"`
	CompiledAt  string `json:"compiled_at"`
	LastUsedAt  string `json:"last_used_at"`
}

// Manifest records compile and use events for rule-set fingerprints.
// Implementations must be safe for concurrent use; every call is best-effort
// observability and never blocks or fails the compile path it accompanies.
type Manifest interface {
	RecordCompile(fingerprint string, ruleCount int)
	RecordUse(fingerprint string)
	Close() error
}

// noopManifest discards every event. Used when no manifest path is configured.
type noopManifest struct{}

func (noopManifest) RecordCompile(string, int) {}
func (noopManifest) RecordUse(string)          {}
func (noopManifest) Close() error              { return nil }

// Open returns a bbolt-backed Manifest at path, or a no-op Manifest if path
// is empty.
func Open(path string, log *logger.Logger) (Manifest, error) {
	if path == "" {
		return noopManifest{}, nil
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open compile manifest %q: %w", path, err)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketName))
		return err
	}); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create compile manifest bucket: %w", err)
	}

	if log != nil {
		log.Debugf("compile_manifest", "opened compile manifest at %s", path)
	}
	return &bboltManifest{db: db, log: log}, nil
}

const bucketName = "compile_fingerprints"

type bboltManifest struct {
	mu  sync.Mutex
	db  *bolt.DB
	log *logger.Logger
}

func (m *bboltManifest) RecordCompile(fingerprint string, ruleCount int) {
	now := time.Now().UTC().Format(time.RFC3339)
	m.update(fingerprint, func(rec Record) Record {
		rec.Fingerprint = fingerprint
		rec.RuleCount = ruleCount
		rec.CompiledAt = now
		rec.LastUsedAt = now
		return rec
	})
}

func (m *bboltManifest) RecordUse(fingerprint string) {
	now := time.Now().UTC().Format(time.RFC3339)
	m.update(fingerprint, func(rec Record) Record {
		rec.LastUsedAt = now
		return rec
	})
}

func (m *bboltManifest) update(fingerprint string, mutate func(Record) Record) {
	m.mu.Lock()
	defer m.mu.Unlock()

	err := m.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketName))
		var rec Record
		if raw := b.Get([]byte(fingerprint)); raw != nil {
			_ = json.Unmarshal(raw, &rec)
		}
		rec = mutate(rec)
		encoded, err := json.Marshal(rec)
		if err != nil {
			return err
		}
		return b.Put([]byte(fingerprint), encoded)
	})
	if err != nil && m.log != nil {
		m.log.Warnf("compile_manifest", "failed to record fingerprint %s: %v", fingerprint, err)
	}
}

func (m *bboltManifest) Close() error {
	return m.db.Close()
}
