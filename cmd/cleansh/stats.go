package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"sanitizer-engine/internal/engine"
)

var (
	statsJSONFile          string
	statsJSONStdout        bool
	statsSampleMatches     int
	statsFailOverThreshold int
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Analyze input for sensitive data and report a summary without redacting it",
	RunE:  runStatsCmd,
}

func init() {
	statsCmd.Flags().StringVar(&statsJSONFile, "json-file", "", "Export the scan summary to a JSON file")
	statsCmd.Flags().BoolVar(&statsJSONStdout, "json-stdout", false, "Print the scan summary as JSON to stdout")
	statsCmd.Flags().IntVar(&statsSampleMatches, "sample-matches", 0, "Limit the number of unique sample matches shown per rule (0 = unlimited)")
	statsCmd.Flags().IntVar(&statsFailOverThreshold, "fail-over-threshold", 0, "Exit non-zero if the total number of detected matches exceeds this count (0 = disabled)")
}

type statsReport struct {
	Rules []statsRuleReport `json:"rules"`
	Total int               `json:"total"`
}

type statsRuleReport struct {
	RuleName      string   `json:"rule_name"`
	Occurrences   int      `json:"occurrences"`
	SampleMatches []string `json:"sample_matches,omitempty"`
}

func runStatsCmd(cmd *cobra.Command, args []string) error {
	eng, err := buildEngine()
	if err != nil {
		return err
	}

	original, err := readInput()
	if err != nil {
		return err
	}
	sourceID := flagInputFile
	if sourceID == "" {
		sourceID = "stdin"
	}

	start := time.Now()
	summary, err := eng.Analyze(original, sourceID)
	met.RecordAnalyzeLatency(time.Since(start))
	met.AnalyzeCalls.Add(1)
	if err != nil {
		return fmt.Errorf("analyze: %w", err)
	}
	for _, item := range summary {
		met.MatchesFound.Add(int64(item.Occurrences))
	}

	report := buildStatsReport(summary)

	if statsJSONFile != "" {
		data, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal stats report: %w", err)
		}
		if err := os.WriteFile(statsJSONFile, data, 0o600); err != nil {
			return fmt.Errorf("write stats report to %s: %w", statsJSONFile, err)
		}
	} else if statsJSONStdout {
		data, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal stats report: %w", err)
		}
		fmt.Fprintln(os.Stdout, string(data))
	} else {
		printStatsConsole(report)
	}

	if statsFailOverThreshold > 0 && report.Total > statsFailOverThreshold {
		return fmt.Errorf("detected %d matches, exceeding --fail-over-threshold of %d", report.Total, statsFailOverThreshold)
	}
	return nil
}

func buildStatsReport(summary []engine.SummaryItem) statsReport {
	report := statsReport{Rules: make([]statsRuleReport, 0, len(summary))}
	for _, item := range summary {
		samples := item.OriginalTexts
		if statsSampleMatches > 0 && len(samples) > statsSampleMatches {
			samples = samples[:statsSampleMatches]
		}
		report.Rules = append(report.Rules, statsRuleReport{
			RuleName:      item.RuleName,
			Occurrences:   item.Occurrences,
			SampleMatches: samples,
		})
		report.Total += item.Occurrences
	}
	return report
}

func printStatsConsole(report statsReport) {
	fmt.Fprintln(os.Stdout, "--- Sensitive Data Scan Summary ---")
	for _, r := range report.Rules {
		fmt.Fprintf(os.Stdout, "%s: %d occurrence(s)\n", r.RuleName, r.Occurrences)
		for _, sample := range r.SampleMatches {
			fmt.Fprintf(os.Stdout, "  - %s\n", sample)
		}
	}
	fmt.Fprintf(os.Stdout, "Total: %d\n", report.Total)
}
