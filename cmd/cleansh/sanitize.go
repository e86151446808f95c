package main

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/google/uuid"
	"github.com/pmezard/go-difflib/difflib"
	"github.com/spf13/cobra"

	"sanitizer-engine/internal/audit"
	"sanitizer-engine/internal/engine"
)

// runSanitizeCmd implements the default (no subcommand) redact-and-emit
// operation: read input, sanitize, write output, optionally diff/clipboard
// it, and print a summary unless suppressed.
func runSanitizeCmd(cmd *cobra.Command, args []string) error {
	eng, err := buildEngine()
	if err != nil {
		return err
	}

	auditLog, err := openAuditLog()
	if err != nil {
		return err
	}
	if auditLog != nil {
		defer auditLog.Close()
	}

	original, err := readInput()
	if err != nil {
		return err
	}

	sourceID := flagInputFile
	if sourceID == "" {
		sourceID = "stdin"
	}

	actx := engine.AuditContext{
		RunID:     uuid.NewString(),
		InputHash: inputHash(original),
		UserID:    currentUser(),
		Reason:    "cli_sanitize",
		Outcome:   "redacted",
	}

	start := time.Now()
	var sanitized string
	var summary []engine.SummaryItem
	if flagLineBuffered {
		sanitized, summary, err = sanitizeLines(eng, original, sourceID, auditLog, actx)
	} else {
		sanitized, summary, err = eng.Sanitize(original, sourceID, auditLog, actx)
	}
	met.RecordSanitizeLatency(time.Since(start))
	met.SanitizeCalls.Add(1)
	if err != nil {
		met.AuditErrors.Add(1)
		return fmt.Errorf("sanitize: %w", err)
	}
	for _, item := range summary {
		met.MatchesRedacted.Add(int64(item.Occurrences))
	}

	if flagDiff {
		if err := printDiff(original, sanitized); err != nil {
			return err
		}
	} else if err := writeOutput(sanitized); err != nil {
		return fmt.Errorf("write output: %w", err)
	}

	if flagClipboard {
		if err := clipboard.WriteAll(sanitized); err != nil {
			log.Warnf("clipboard", "could not copy sanitized output to clipboard: %v", err)
		}
	}

	if !flagNoSummary {
		printSummary(summary)
	}
	return nil
}

// sanitizeLines runs each line through the engine independently, so no state
// (overlap resolution, index mapping) carries across a line boundary; useful
// for streaming input from a pipe one line at a time.
func sanitizeLines(eng *engine.Engine, content, sourceID string, auditLog *audit.Log, actx engine.AuditContext) (string, []engine.SummaryItem, error) {
	lines := strings.Split(content, "\n")
	sanitizedLines := make([]string, len(lines))
	byRule := make(map[string]*engine.SummaryItem)
	order := make([]string, 0)

	for i, line := range lines {
		sanitized, summary, err := eng.Sanitize(line, sourceID, auditLog, actx)
		if err != nil {
			return "", nil, fmt.Errorf("sanitize line %d: %w", i+1, err)
		}
		sanitizedLines[i] = sanitized
		for _, item := range summary {
			mergeSummaryItem(byRule, &order, item)
		}
	}

	merged := make([]engine.SummaryItem, 0, len(order))
	for _, name := range order {
		merged = append(merged, *byRule[name])
	}
	return strings.Join(sanitizedLines, "\n"), merged, nil
}

// mergeSummaryItem folds item into the running per-rule aggregate, tracking
// first-seen rule order. Unlike the facade's buildSummary, it neither dedupes
// nor sorts the text lists and does not sort items by rule name.
func mergeSummaryItem(byRule map[string]*engine.SummaryItem, order *[]string, item engine.SummaryItem) {
	existing, ok := byRule[item.RuleName]
	if !ok {
		copied := item
		byRule[item.RuleName] = &copied
		*order = append(*order, item.RuleName)
		return
	}
	existing.Occurrences += item.Occurrences
	existing.OriginalTexts = append(existing.OriginalTexts, item.OriginalTexts...)
	existing.SanitizedTexts = append(existing.SanitizedTexts, item.SanitizedTexts...)
}

func inputHash(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

func currentUser() string {
	if u := os.Getenv("USER"); u != "" {
		return u
	}
	return "unknown"
}

func printDiff(before, after string) error {
	diff := difflib.UnifiedDiff{
		A:        difflib.SplitLines(before),
		B:        difflib.SplitLines(after),
		FromFile: "original",
		ToFile:   "sanitized",
		Context:  3,
	}
	text, err := difflib.GetUnifiedDiffString(diff)
	if err != nil {
		return fmt.Errorf("generate diff: %w", err)
	}
	fmt.Fprint(os.Stdout, text)
	return nil
}

func printSummary(items []engine.SummaryItem) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintln(os.Stderr, "--- Redaction Summary ---")
	for _, item := range items {
		fmt.Fprintf(os.Stderr, "%s: %d occurrence(s)\n", item.RuleName, item.Occurrences)
	}
}
