package engine

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"

	"sanitizer-engine/internal/audit"
	"sanitizer-engine/internal/logger"
)

// resolveAndRewrite sorts matches by start ascending (ties broken by longer
// match first), drops any match fully or partially covered by a
// higher-priority prior acceptance, and rewrites the original view using the
// index mapper. It returns the rewritten text and the accepted matches in
// acceptance order. If auditLog is non-nil, one event is appended per
// accepted match before the next is processed.
func resolveAndRewrite(original string, grouped map[string][]Match, mapper *indexMapper, auditLog *audit.Log, actx AuditContext, log *logger.Logger) (string, []Match, error) {
	all := make([]Match, 0)
	for _, ms := range grouped {
		all = append(all, ms...)
	}
	sort.SliceStable(all, func(i, j int) bool {
		if all[i].Start != all[j].Start {
			return all[i].Start < all[j].Start
		}
		return (all[i].End - all[i].Start) > (all[j].End - all[j].Start)
	})

	var out strings.Builder
	out.Grow(len(original))

	lastEnd := 0
	accepted := make([]Match, 0, len(all))

	for _, m := range all {
		origStart := mapper.mapIndex(m.Start)
		origEnd := origStart
		if m.End > m.Start {
			origEnd = mapper.mapIndex(m.End-1) + 1
		}
		if origEnd > len(original) {
			origEnd = len(original)
		}

		if origStart < lastEnd {
			if log != nil {
				log.Debugf("overlap_skip", "skipping overlapping match for %q: mapped range %d..%d starts before last_end=%d", m.RuleName, origStart, origEnd, lastEnd)
			}
			continue
		}

		out.WriteString(original[lastEnd:origStart])
		out.WriteString(m.Sanitized)
		lastEnd = origEnd

		accepted = append(accepted, m)

		if auditLog != nil {
			matchHash := m.SampleHash
			if matchHash == "" {
				h := sha256.Sum256([]byte(m.Original))
				matchHash = hex.EncodeToString(h[:])
			}
			event := audit.Event{
				Timestamp:          m.Timestamp,
				RunID:              actx.RunID,
				FilePath:           m.SourceID,
				UserID:             actx.UserID,
				ReasonForRedaction: actx.Reason,
				RedactionOutcome:   actx.Outcome,
				RuleName:           m.RuleName,
				InputHash:          actx.InputHash,
				MatchHash:          matchHash,
				Start:              m.Start,
				End:                m.End,
			}
			if err := auditLog.Append(event); err != nil {
				return "", nil, err
			}
		}
	}
	out.WriteString(original[lastEnd:])

	return out.String(), accepted, nil
}
