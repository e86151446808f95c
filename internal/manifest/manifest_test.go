package manifest

import (
	"path/filepath"
	"testing"
)

func TestOpen_EmptyPathReturnsNoop(t *testing.T) {
	m, err := Open("", nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	// Must not panic and must not error on any call.
	m.RecordCompile("fp1", 3)
	m.RecordUse("fp1")
	if err := m.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func TestBboltManifest_RecordCompileThenUse(t *testing.T) {
	path := filepath.Join(t.TempDir(), "manifest.db")

	m, err := Open(path, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer m.Close()

	bm, ok := m.(*bboltManifest)
	if !ok {
		t.Fatalf("expected *bboltManifest for a non-empty path, got %T", m)
	}

	m.RecordCompile("fp-a", 7)
	rec := readRecord(t, bm, "fp-a")
	if rec.RuleCount != 7 {
		t.Fatalf("RuleCount = %d, want 7", rec.RuleCount)
	}
	if rec.CompiledAt == "" || rec.LastUsedAt == "" {
		t.Fatal("expected CompiledAt/LastUsedAt to be set after RecordCompile")
	}

	firstUsedAt := rec.LastUsedAt
	m.RecordUse("fp-a")
	rec2 := readRecord(t, bm, "fp-a")
	if rec2.CompiledAt != rec.CompiledAt {
		t.Fatal("RecordUse should not change CompiledAt")
	}
	_ = firstUsedAt // both may legitimately match if calls land within the same second
}

func TestBboltManifest_SurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "manifest.db")

	m1, err := Open(path, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	m1.RecordCompile("fp-b", 2)
	if err := m1.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	m2, err := Open(path, nil)
	if err != nil {
		t.Fatalf("Open (reopen): %v", err)
	}
	defer m2.Close()
	bm2 := m2.(*bboltManifest)
	rec := readRecord(t, bm2, "fp-b")
	if rec.RuleCount != 2 {
		t.Fatalf("RuleCount after reopen = %d, want 2", rec.RuleCount)
	}
}

func readRecord(t *testing.T, m *bboltManifest, fingerprint string) Record {
	t.Helper()
	var got Record
	m.update(fingerprint, func(rec Record) Record {
		got = rec
		return rec
	})
	return got
}
