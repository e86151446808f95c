// Package engine implements the core sanitization pipeline: rule compilation
// and caching, ANSI-aware index mapping, match discovery, overlap
// resolution/rewriting, and summary aggregation, fronted by a small facade.
package engine

import "sanitizer-engine/internal/rules"

// Match is a single discovered, not-yet-necessarily-accepted redaction
// candidate, with offsets in the stripped view.
type Match struct {
	RuleName     string
	Original     string
	Sanitized    string
	Start        int
	End          int
	LineNumber   *int
	SampleHash   string
	ContextHash  string
	Timestamp    string
	Rule         rules.Rule
	SourceID     string
}

// SummaryItem aggregates all accepted matches for one rule.
type SummaryItem struct {
	RuleName       string
	Occurrences    int
	OriginalTexts  []string
	SanitizedTexts []string
}

// Options controls optional, cost-bearing engine behavior.
type Options struct {
	// NeedSampleHash requests SHA-256(original_match_bytes) be computed per match.
	NeedSampleHash bool
	// NeedContextHash requests a windowed context hash per match.
	NeedContextHash bool
	// ContextWindowBytes is the half-width of the context window, in bytes,
	// used when NeedContextHash is set.
	ContextWindowBytes int
	// RunID and EngineVersion are carried for callers; the engine does not
	// read them, and internal/samples takes its seed inputs from
	// samples.Profile.
	RunID         string
	EngineVersion string
}

// AuditContext carries the fields written into each audit event alongside a
// match. Callers without auditing requirements pass a zero-value context and
// no audit handle to the facade.
type AuditContext struct {
	RunID     string
	InputHash string
	UserID    string
	Reason    string
	Outcome   string
}
