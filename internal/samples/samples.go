// Package samples implements deterministic, seeded sample selection: given a
// pool of matches for a profile run, pick a stable, size-bounded subset for
// reporting or review.
//
// No implementation source for this component survived retrieval (the
// reference profiles.rs file was not retrieved into the pack); this package
// is grounded on cleansh-core/tests/profile_tests.rs's black-box assertions
// for compute_run_seed, sample_score_bytes, and select_samples_for_rule,
// which is the authoritative contract for the exact semantics below.
package samples

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"

	"sanitizer-engine/internal/engine"
)

// Profile configures one sample-selection run.
type Profile struct {
	Version       string
	RunID         string
	EngineVersion string

	// MaxPerRule bounds samples kept per rule name. Zero means unbounded.
	MaxPerRule int

	// MaxTotal bounds samples kept across all rules combined, enforced after
	// per-rule caps by trimming lowest-priority rules first. Zero means
	// unbounded.
	MaxTotal int
}

// Validate rejects a profile whose total cap is tighter than its per-rule
// cap, since such a profile could never let even a single rule reach its
// per-rule allowance.
func (p Profile) Validate() error {
	if p.MaxTotal > 0 && p.MaxPerRule > 0 && p.MaxTotal < p.MaxPerRule {
		return fmt.Errorf("sample profile: max_total (%d) must not be less than max_per_rule (%d)", p.MaxTotal, p.MaxPerRule)
	}
	return nil
}

// normalize trims, lowercases, folds full-width characters to their
// halfwidth equivalents, and applies Unicode NFC composition, the
// normalization applied to every run-seed input component. The width fold
// matters for run ids copy-pasted from full-width terminal sessions; without
// it, two run ids that a human would consider identical hash to different
// seeds.
func normalize(s string) string {
	s = width.Fold.String(s)
	s = norm.NFC.String(s)
	return strings.ToLower(strings.TrimSpace(s))
}

// RunSeed derives a run-scoped seed from the profile version, run id, and
// engine version. Equal inputs under normalize always produce the same
// seed, regardless of surrounding whitespace or case.
func RunSeed(profileVersion, runID, engineVersion string) string {
	h := sha256.New()
	h.Write([]byte(normalize(profileVersion)))
	h.Write([]byte(normalize(runID)))
	h.Write([]byte(normalize(engineVersion)))
	return hex.EncodeToString(h.Sum(nil))
}

// sampleScore computes a per-match score as a fixed-width hex string. Since
// every score is the hex encoding of a fixed 32-byte SHA-256 digest,
// lexicographic string comparison and numeric comparison agree, so scores
// can be sorted directly as strings.
func sampleScore(runSeed, sourceID string, start, end int) string {
	var buf [16]byte
	binary.BigEndian.PutUint64(buf[0:8], uint64(start))
	binary.BigEndian.PutUint64(buf[8:16], uint64(end))

	h := sha256.New()
	h.Write([]byte(runSeed))
	h.Write([]byte(sourceID))
	h.Write(buf[:])
	return hex.EncodeToString(h.Sum(nil))
}

// dedupeKey identifies a match for deduplication purposes: whatever
// SampleHash the producer set on it, if any, otherwise its
// source/coordinate triple.
func dedupeKey(m engine.Match) string {
	if m.SampleHash != "" {
		return m.SampleHash
	}
	return m.SourceID + "|" + strconv.Itoa(m.Start) + "|" + strconv.Itoa(m.End)
}

func dedupe(ms []engine.Match) []engine.Match {
	seen := make(map[string]struct{}, len(ms))
	out := make([]engine.Match, 0, len(ms))
	for _, m := range ms {
		key := dedupeKey(m)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, m)
	}
	return out
}

type scoredMatch struct {
	m     engine.Match
	score string
}

// Select runs dedup, per-rule capping, scoring, and (if configured) global
// capping over matches, returning a deterministic subset. Calling Select
// twice with identical matches and profile always returns an identical
// result.
func Select(matches []engine.Match, profile Profile) ([]engine.Match, error) {
	if err := profile.Validate(); err != nil {
		return nil, err
	}

	seed := RunSeed(profile.Version, profile.RunID, profile.EngineVersion)

	byRule := make(map[string][]engine.Match)
	order := make([]string, 0)
	for _, m := range matches {
		if _, ok := byRule[m.RuleName]; !ok {
			order = append(order, m.RuleName)
		}
		byRule[m.RuleName] = append(byRule[m.RuleName], m)
	}

	selectedByRule := make(map[string][]engine.Match, len(order))
	for _, name := range order {
		deduped := dedupe(byRule[name])

		scored := make([]scoredMatch, 0, len(deduped))
		for _, m := range deduped {
			scored = append(scored, scoredMatch{m: m, score: sampleScore(seed, m.SourceID, m.Start, m.End)})
		}
		sort.SliceStable(scored, func(i, j int) bool { return scored[i].score < scored[j].score })

		limit := profile.MaxPerRule
		if limit <= 0 || limit > len(scored) {
			limit = len(scored)
		}
		sel := make([]engine.Match, 0, limit)
		for i := 0; i < limit; i++ {
			sel = append(sel, scored[i].m)
		}
		selectedByRule[name] = sel
	}

	if profile.MaxTotal <= 0 {
		out := make([]engine.Match, 0)
		for _, name := range order {
			out = append(out, selectedByRule[name]...)
		}
		return out, nil
	}

	type bucket struct {
		name        string
		occurrences int
	}
	buckets := make([]bucket, 0, len(order))
	for _, name := range order {
		buckets = append(buckets, bucket{name: name, occurrences: len(byRule[name])})
	}
	sort.SliceStable(buckets, func(i, j int) bool { return buckets[i].occurrences > buckets[j].occurrences })

	out := make([]engine.Match, 0, profile.MaxTotal)
	for _, b := range buckets {
		remaining := profile.MaxTotal - len(out)
		if remaining <= 0 {
			break
		}
		sel := selectedByRule[b.name]
		if len(sel) > remaining {
			sel = sel[:remaining]
		}
		out = append(out, sel...)
	}
	return out, nil
}
