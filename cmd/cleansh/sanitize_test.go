package main

import (
	"testing"

	"sanitizer-engine/internal/engine"
)

func TestInputHash_Deterministic(t *testing.T) {
	a := inputHash("hello world")
	b := inputHash("hello world")
	if a != b {
		t.Fatalf("inputHash not deterministic: %q vs %q", a, b)
	}
	if a == inputHash("hello World") {
		t.Fatal("inputHash should differ for different content")
	}
}

func TestCurrentUser_FallsBackWhenUnset(t *testing.T) {
	t.Setenv("USER", "")
	if got := currentUser(); got != "unknown" {
		t.Fatalf("currentUser() = %q, want \"unknown\"", got)
	}
}

func TestCurrentUser_ReadsEnv(t *testing.T) {
	t.Setenv("USER", "alice")
	if got := currentUser(); got != "alice" {
		t.Fatalf("currentUser() = %q, want \"alice\"", got)
	}
}

func TestMergeSummaryItem_AccumulatesAcrossLines(t *testing.T) {
	byRule := make(map[string]*engine.SummaryItem)
	order := make([]string, 0)

	mergeSummaryItem(byRule, &order, engine.SummaryItem{
		RuleName: "email", Occurrences: 1, OriginalTexts: []string{"a@x.com"}, SanitizedTexts: []string{"[EMAIL]"},
	})
	mergeSummaryItem(byRule, &order, engine.SummaryItem{
		RuleName: "email", Occurrences: 1, OriginalTexts: []string{"b@x.com"}, SanitizedTexts: []string{"[EMAIL]"},
	})
	mergeSummaryItem(byRule, &order, engine.SummaryItem{
		RuleName: "ipv4_address", Occurrences: 1, OriginalTexts: []string{"1.2.3.4"}, SanitizedTexts: []string{"[IPV4]"},
	})

	if len(order) != 2 || order[0] != "email" || order[1] != "ipv4_address" {
		t.Fatalf("unexpected first-seen order: %v", order)
	}
	if byRule["email"].Occurrences != 2 {
		t.Fatalf("email occurrences = %d, want 2", byRule["email"].Occurrences)
	}
	if len(byRule["email"].OriginalTexts) != 2 {
		t.Fatalf("email original texts = %v, want 2 entries", byRule["email"].OriginalTexts)
	}
}
