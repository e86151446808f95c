// Package audit implements an append-only, JSON-Lines audit log of redaction
// events, grounded on the reference AuditLog type: create-parent-dirs on
// open, append-mode file handle, buffered writer flushed synchronously after
// every record so each event is durable before the caller proceeds.
package audit

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/sys/unix"
)

// Event is a single auditable redaction record, written as one JSON object
// per line.
type Event struct {
	Timestamp           string `json:"timestamp"`
	RunID               string `json:"run_id"`
	FilePath            string `json:"file_path"`
	UserID              string `json:"user_id"`
	ReasonForRedaction  string `json:"reason_for_redaction"`
	RedactionOutcome    string `json:"redaction_outcome"`
	RuleName            string `json:"rule_name"`
	InputHash           string `json:"input_hash"`
	MatchHash           string `json:"match_hash"`
	Start               int    `json:"start"`
	End                 int    `json:"end"`
}

// Log is an append-only audit log handle. A single handle may be shared by
// concurrent callers; appends are serialized by mu, matching the facade's
// "audit events are appended in the order issuing calls request" guarantee
// for a single call, with interleaving across concurrent calls left
// unspecified beyond per-record atomicity (see SPEC_FULL.md §5).
type Log struct {
	mu     sync.Mutex
	path   string
	file   *os.File
	writer *bufio.Writer
	locked bool
}

// Open creates (or appends to) the audit log file at path, creating parent
// directories as needed, and takes an advisory exclusive flock for the
// lifetime of the handle.
func Open(path string) (*Log, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("create parent directories for %s: %w", path, err)
		}
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open or create audit log at %s: %w", path, err)
	}

	locked := true
	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		// Best-effort: some filesystems (network mounts, certain container
		// overlays) don't support flock. The log remains append-safe within
		// this process even without the cross-process lock.
		locked = false
	}

	return &Log{
		path:   path,
		file:   f,
		writer: bufio.NewWriter(f),
		locked: locked,
	}, nil
}

// Append serializes event to one JSON line and flushes the buffered writer
// to the file before returning. It does not fsync the file.
func (l *Log) Append(event Event) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	line, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("serialize audit event: %w", err)
	}
	if _, err := l.writer.Write(line); err != nil {
		return fmt.Errorf("write audit entry: %w", err)
	}
	if _, err := l.writer.WriteString("\n"); err != nil {
		return fmt.Errorf("write audit newline: %w", err)
	}
	if err := l.writer.Flush(); err != nil {
		return fmt.Errorf("flush audit log: %w", err)
	}
	return nil
}

// Flush writes any buffered data to the file without closing the handle.
func (l *Log) Flush() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.writer.Flush()
}

// Path returns the audit log's file path.
func (l *Log) Path() string { return l.path }

// Close flushes any buffered data, releases the advisory lock, and closes
// the underlying file. Go has no destructors, so callers must defer Close
// explicitly rather than relying on the Rust original's Drop impl; errors
// here are returned rather than merely logged, since Close is always an
// explicit call a caller can check.
func (l *Log) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	flushErr := l.writer.Flush()
	if l.locked {
		_ = unix.Flock(int(l.file.Fd()), unix.LOCK_UN)
	}
	closeErr := l.file.Close()

	if flushErr != nil {
		return fmt.Errorf("flush audit log on close: %w", flushErr)
	}
	if closeErr != nil {
		return fmt.Errorf("close audit log: %w", closeErr)
	}
	return nil
}
