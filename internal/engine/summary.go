package engine

import "sort"

// buildSummary folds accepted matches into one SummaryItem per rule,
// deduplicating original/sanitized text lists and sorting everything for
// deterministic output. This enriches the reference implementation, whose
// build_summary_from_matches neither dedupes nor sorts its text vectors;
// the written specification mandates sorted-unique lists (see SPEC_FULL.md
// §4.7), so that governs here.
func buildSummary(accepted []Match) []SummaryItem {
	type acc struct {
		count          int
		originalSet    map[string]struct{}
		sanitizedSet   map[string]struct{}
	}
	byRule := make(map[string]*acc)
	order := make([]string, 0)

	for _, m := range accepted {
		a, ok := byRule[m.RuleName]
		if !ok {
			a = &acc{originalSet: map[string]struct{}{}, sanitizedSet: map[string]struct{}{}}
			byRule[m.RuleName] = a
			order = append(order, m.RuleName)
		}
		a.count++
		a.originalSet[m.Original] = struct{}{}
		a.sanitizedSet[m.Sanitized] = struct{}{}
	}

	items := make([]SummaryItem, 0, len(order))
	for _, name := range order {
		a := byRule[name]
		items = append(items, SummaryItem{
			RuleName:       name,
			Occurrences:    a.count,
			OriginalTexts:  sortedKeys(a.originalSet),
			SanitizedTexts: sortedKeys(a.sanitizedSet),
		})
	}
	sort.Slice(items, func(i, j int) bool { return items[i].RuleName < items[j].RuleName })
	return items
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
