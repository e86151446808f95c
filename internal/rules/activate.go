package rules

import "sanitizer-engine/internal/logger"

// SetActive filters rs down to the active subset given explicit enable/disable
// name lists. A rule is active iff it is not explicitly disabled, and either
// it is not opt-in or it has been explicitly enabled. Explicit disable always
// wins over enable. Names in either list that don't match any rule are
// warned about via log, not treated as errors.
func SetActive(rs []Rule, enable, disable []string, log *logger.Logger) []Rule {
	enableSet := toSet(enable)
	disableSet := toSet(disable)

	allNames := make(map[string]struct{}, len(rs))
	for _, r := range rs {
		allNames[r.Name] = struct{}{}
	}
	if log != nil {
		for name := range enableSet {
			if _, ok := allNames[name]; !ok {
				log.Warnf("rule_activation", "rule %q in enable list does not exist", name)
			}
		}
		for name := range disableSet {
			if _, ok := allNames[name]; !ok {
				log.Warnf("rule_activation", "rule %q in disable list does not exist", name)
			}
		}
	}

	out := make([]Rule, 0, len(rs))
	for _, r := range rs {
		if isActive(r, enableSet, disableSet) {
			out = append(out, r)
		}
	}
	return out
}

func isActive(r Rule, enableSet, disableSet map[string]struct{}) bool {
	if _, disabled := disableSet[r.Name]; disabled {
		return false
	}
	if !r.OptIn {
		return true
	}
	_, enabled := enableSet[r.Name]
	return enabled
}

func toSet(names []string) map[string]struct{} {
	s := make(map[string]struct{}, len(names))
	for _, n := range names {
		s[n] = struct{}{}
	}
	return s
}
