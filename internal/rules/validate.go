package rules

import (
	"errors"
	"fmt"
	"regexp"
)

var captureGroupRefRe = regexp.MustCompile(`\$(\d+)`)

// Validate checks the structural integrity of a rule set: unique non-empty
// names, present and compilable patterns within MaxPatternLength, and
// replacement strings that only reference capture groups the pattern
// actually has. All problems are collected and returned together rather
// than failing on the first one, so a caller sees every defect in one pass.
func Validate(rs []Rule) error {
	seen := make(map[string]struct{}, len(rs))
	var errs []error

	for _, r := range rs {
		if r.Name == "" {
			errs = append(errs, errors.New("a rule has an empty `name` field"))
		} else if _, dup := seen[r.Name]; dup {
			errs = append(errs, fmt.Errorf("Duplicate rule name found: %q", r.Name))
		} else {
			seen[r.Name] = struct{}{}
		}

		if r.Pattern == "" {
			errs = append(errs, fmt.Errorf("rule %q is missing the `pattern` field", r.Name))
			continue
		}
		if len(r.Pattern) > MaxPatternLength {
			errs = append(errs, fmt.Errorf("rule %q pattern exceeds %d characters", r.Name, MaxPatternLength))
		}

		re, err := regexp.Compile(r.Pattern)
		if err != nil {
			errs = append(errs, fmt.Errorf("rule %q has an invalid regex pattern: %w", r.Name, err))
			continue // skip further validation for this rule; the pattern doesn't compile
		}
		_ = re

		groupCount := countUnescapedGroups(r.Pattern)
		for _, m := range captureGroupRefRe.FindAllStringSubmatch(r.ReplaceWith, -1) {
			var n int
			if _, scanErr := fmt.Sscanf(m[1], "%d", &n); scanErr != nil {
				continue
			}
			if n > groupCount {
				errs = append(errs, fmt.Errorf(
					"rule %q: replacement string references non-existent capture group '$%d'. Pattern has only %d capturing groups",
					r.Name, n, groupCount))
			}
		}
	}

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("rule validation failed:\n%w", errors.Join(errs...))
}

// countUnescapedGroups counts unescaped '(' characters in pattern, mirroring
// the simplified (non-AST) group-counting heuristic the reference
// implementation uses: it does not distinguish capturing from non-capturing
// groups, so "(?:...)" still counts. Back-reference validation against this
// count is therefore conservative, not exact.
func countUnescapedGroups(pattern string) int {
	count := 0
	escaped := false
	for _, c := range pattern {
		switch {
		case c == '\\':
			escaped = !escaped
		case c == '(' && !escaped:
			count++
			escaped = false
		default:
			escaped = false
		}
	}
	return count
}
