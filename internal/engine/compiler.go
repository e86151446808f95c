package engine

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"sync"

	"sanitizer-engine/internal/rules"
)

// maxCompiledPatternBytes caps the length of a rule's final pattern text
// (including any added flag prefix) after it compiles. The size of the
// compiled program itself is not measured.
const maxCompiledPatternBytes = 10 * 1024 * 1024

// CompiledRule is one rule's compiled matcher alongside the metadata the
// match engine needs at match time.
type CompiledRule struct {
	Name                   string
	Regex                  *regexp.Regexp
	ReplaceWith            string
	ProgrammaticValidation bool
}

// CompiledSet is an immutable, concurrency-safe compiled rule set shared
// across sanitization calls for one fingerprint.
type CompiledSet struct {
	Fingerprint string
	Rules       []CompiledRule
}

// compileCache is the process-wide cache mapping config fingerprint to its
// compiled set. Concurrent misses for the same fingerprint compile at most
// once via the per-key sync.Once get-or-compute pattern.
type compileCache struct {
	mu      sync.Mutex
	entries map[string]*cacheEntry
}

type cacheEntry struct {
	once sync.Once
	set  *CompiledSet
	err  error
}

var globalCache = &compileCache{entries: make(map[string]*cacheEntry)}

// ManifestRecorder receives observability events about rule-set compilation
// for an optional on-disk manifest (see internal/manifest). A nil recorder
// (the default) disables recording entirely; Compile's behavior is identical
// either way.
type ManifestRecorder interface {
	RecordCompile(fingerprint string, ruleCount int)
	RecordUse(fingerprint string)
}

var manifestRecorder ManifestRecorder

// SetManifestRecorder installs the process-wide manifest recorder Compile
// reports to. Passing nil disables recording.
func SetManifestRecorder(m ManifestRecorder) { manifestRecorder = m }

// Compile returns the compiled rule set for rs, sharing a cached compile
// with any other caller using an equal (by fingerprint) rule set.
func Compile(rs []rules.Rule) (*CompiledSet, error) {
	fp := Fingerprint(rs)

	globalCache.mu.Lock()
	entry, ok := globalCache.entries[fp]
	if !ok {
		entry = &cacheEntry{}
		globalCache.entries[fp] = entry
	}
	globalCache.mu.Unlock()

	entry.once.Do(func() {
		entry.set, entry.err = compile(fp, rs)
		if entry.err == nil && manifestRecorder != nil {
			manifestRecorder.RecordCompile(fp, len(rs))
		}
	})
	if manifestRecorder != nil {
		manifestRecorder.RecordUse(fp)
	}
	return entry.set, entry.err
}

func compile(fp string, rs []rules.Rule) (*CompiledSet, error) {
	var errs []error
	compiled := make([]CompiledRule, 0, len(rs))

	for _, r := range rs {
		if len(r.Pattern) > rules.MaxPatternLength {
			errs = append(errs, fmt.Errorf("rule %q pattern exceeds %d characters", r.Name, rules.MaxPatternLength))
			continue
		}
		pattern := r.Pattern
		if r.Multiline {
			pattern = "(?m)" + pattern
		}
		if r.DotMatchesNewLine {
			pattern = "(?s)" + pattern
		}
		re, err := regexp.Compile(pattern)
		if err != nil {
			errs = append(errs, fmt.Errorf("rule %q failed to compile: %w", r.Name, err))
			continue
		}
		if len(re.String()) > maxCompiledPatternBytes {
			errs = append(errs, fmt.Errorf("rule %q pattern text exceeds size cap", r.Name))
			continue
		}
		compiled = append(compiled, CompiledRule{
			Name:                   r.Name,
			Regex:                  re,
			ReplaceWith:            r.ReplaceWith,
			ProgrammaticValidation: r.ProgrammaticValidation,
		})
	}

	if len(errs) > 0 {
		msg := "rule compilation failed:"
		for _, e := range errs {
			msg += "\n" + e.Error()
		}
		return nil, fmt.Errorf("%s", msg)
	}

	return &CompiledSet{Fingerprint: fp, Rules: compiled}, nil
}

// Fingerprint deterministically hashes an ordered, canonicalized rule list
// so that two structurally equal rule sets share a compile regardless of
// slice identity.
func Fingerprint(rs []rules.Rule) string {
	ordered := make([]rules.Rule, len(rs))
	copy(ordered, rs)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Name < ordered[j].Name })

	h := sha256.New()
	for _, r := range ordered {
		h.Write([]byte(r.Name))
		h.Write([]byte{0})
		h.Write([]byte(r.Pattern))
		h.Write([]byte{0})
		h.Write([]byte(r.ReplaceWith))
		h.Write([]byte{0})
		h.Write([]byte(strconv.FormatBool(r.Multiline)))
		h.Write([]byte(strconv.FormatBool(r.DotMatchesNewLine)))
		h.Write([]byte(strconv.FormatBool(r.ProgrammaticValidation)))
		h.Write([]byte{1})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// resetGlobalCacheForTests clears the process-wide compile cache. It is
// unexported and only this package's tests call it; it exists because the cache is otherwise process-lifetime, which would let
// one test's compile error bleed into another test using an identical
// (by fingerprint) invalid rule set.
func resetGlobalCacheForTests() {
	globalCache.mu.Lock()
	globalCache.entries = make(map[string]*cacheEntry)
	globalCache.mu.Unlock()
}
