package engine

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"sanitizer-engine/internal/logger"
	"sanitizer-engine/internal/rules"
	"sanitizer-engine/internal/validators"
)

// redactSensitive is the default debug-log redaction for captured PII:
// short strings collapse to a generic marker, longer ones report only a
// length, and both forms are skipped entirely when the caller has opted
// into CLEANSH_ALLOW_DEBUG_PII.
func redactSensitive(s string) string {
	const maxLen = 8
	if len(s) <= maxLen {
		return "[REDACTED]"
	}
	return "[REDACTED: " + itoa(len(s)) + " chars]"
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	var b [20]byte
	i := len(b)
	for n > 0 {
		i--
		b[i] = byte('0' + n%10)
		n /= 10
	}
	return string(b[i:])
}

func loggableContent(s string, allowDebugPII bool) string {
	if allowDebugPII {
		return s
	}
	return redactSensitive(s)
}

// CanonicalSampleHash produces a rule-scoped hash of a match snippet,
// normalized by trimming, lowercasing, and collapsing internal whitespace to
// single spaces, so that case/whitespace variants of the same underlying
// value hash identically. Used by FindMatchesForUI to backfill any match
// missing SampleHash.
func CanonicalSampleHash(ruleName, snippet string) string {
	normalized := strings.Join(strings.Fields(strings.ToLower(strings.TrimSpace(snippet))), " ")
	h := sha256.New()
	h.Write([]byte(ruleName))
	h.Write([]byte(":"))
	h.Write([]byte(normalized))
	return hex.EncodeToString(h.Sum(nil))
}

// findMatches runs every active, compiled rule over content's stripped view,
// filtering candidates through each rule's programmatic validator (if any),
// and returns the surviving matches grouped by rule name. Rules with zero
// surviving matches are simply absent from the returned map.
func findMatches(compiled *CompiledSet, ruleByName map[string]rules.Rule, content, sourceID string, opts Options, log *logger.Logger, allowDebugPII bool) map[string][]Match {
	stripped := stripANSI(content)
	out := make(map[string][]Match)

	for _, cr := range compiled.Rules {
		rule, ok := ruleByName[cr.Name]
		if !ok {
			continue
		}
		if rule.Enabled != nil && !*rule.Enabled {
			continue
		}

		for _, loc := range cr.Regex.FindAllStringSubmatchIndex(stripped, -1) {
			start, end := loc[0], loc[1]
			original := stripped[start:end]

			if !runValidator(cr, original, log) {
				if log != nil {
					log.Debugf("match_rejected", "match for %q failed programmatic validation: %s", cr.Name, loggableContent(original, allowDebugPII))
				}
				continue
			}

			replacement := materializeReplacement(cr.ReplaceWith, stripped, loc)

			if log != nil {
				log.Debugf("match_captured", "captured match (original): %q for rule %q", loggableContent(original, allowDebugPII), cr.Name)
			}

			m := Match{
				RuleName:  cr.Name,
				Original:  original,
				Sanitized: replacement,
				Start:     start,
				End:       end,
				Rule:      rule,
				SourceID:  sourceID,
			}

			if opts.NeedSampleHash {
				h := sha256.Sum256([]byte(original))
				m.SampleHash = hex.EncodeToString(h[:])
			}
			if opts.NeedContextHash {
				w := opts.ContextWindowBytes
				ctxStart := start - w
				if ctxStart < 0 {
					ctxStart = 0
				}
				ctxEnd := end + w
				if ctxEnd > len(stripped) {
					ctxEnd = len(stripped)
				}
				h := sha256.Sum256([]byte(stripped[ctxStart:ctxEnd]))
				m.ContextHash = hex.EncodeToString(h[:])
			}

			out[cr.Name] = append(out[cr.Name], m)
		}
	}
	return out
}

// runValidator dispatches to the registered programmatic validator for a
// rule, if any. Rules with no registered validator accept every candidate,
// matching the reference engine's "no validator for X, redacting by
// default" fallback.
func runValidator(cr CompiledRule, original string, log *logger.Logger) bool {
	if !cr.ProgrammaticValidation {
		return true
	}
	fn, ok := validators.Lookup(cr.Name)
	if !ok {
		if log != nil {
			log.Debugf("match_validate", "no validator for %q, redacting by default", cr.Name)
		}
		return true
	}
	return fn(original)
}

// materializeReplacement substitutes $1..$9 in template with the
// corresponding capture group text from loc (a FindAllStringSubmatchIndex
// pair-list), doing literal textual substitution rather than full regexp
// expansion, per the minimal-substitution design decision (see SPEC_FULL.md
// §9 Open Questions).
func materializeReplacement(template, stripped string, loc []int) string {
	replacement := template
	numGroups := len(loc)/2 - 1
	for i := 1; i <= numGroups; i++ {
		gs, ge := loc[2*i], loc[2*i+1]
		if gs < 0 || ge < 0 {
			continue
		}
		replacement = strings.ReplaceAll(replacement, "$"+itoa(i), stripped[gs:ge])
	}
	return replacement
}
