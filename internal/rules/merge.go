package rules

// Merge combines defaultRules with an optional userRules set. A user rule
// overrides a default rule of the same name; user rules with new names are
// appended. The default set's rules are trusted and skip validation; the
// caller is responsible for validating userRules (and the merged result, if
// it wishes) before compiling.
func Merge(defaultRules []Rule, userRules []Rule) []Rule {
	order := make([]string, 0, len(defaultRules)+len(userRules))
	byName := make(map[string]Rule, len(defaultRules)+len(userRules))

	for _, r := range defaultRules {
		if _, exists := byName[r.Name]; !exists {
			order = append(order, r.Name)
		}
		byName[r.Name] = r
	}
	for _, r := range userRules {
		if _, exists := byName[r.Name]; !exists {
			order = append(order, r.Name)
		}
		byName[r.Name] = r
	}

	out := make([]Rule, 0, len(order))
	for _, name := range order {
		out = append(out, byName[name])
	}
	return out
}
