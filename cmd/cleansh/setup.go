package main

import (
	"fmt"
	"io"
	"os"

	"sanitizer-engine/internal/audit"
	"sanitizer-engine/internal/engine"
	"sanitizer-engine/internal/manifest"
	"sanitizer-engine/internal/rules"
)

// installCompileManifest opens the configured on-disk compile manifest (or a
// no-op one if unset) and installs it as the engine package's process-wide
// manifest recorder. Best-effort: a manifest that fails to open is logged
// and skipped rather than failing the whole command.
func installCompileManifest() {
	m, err := manifest.Open(cfg.CompileManifestFile, log)
	if err != nil {
		if log != nil {
			log.Warnf("compile_manifest", "could not open compile manifest: %v", err)
		}
		return
	}
	engine.SetManifestRecorder(m)
}

// loadActiveRules loads the embedded defaults, merges in an optional
// user-supplied rule file, and applies --enable/--disable overrides, the
// same default-merge-activate pipeline the facade expects to be driven by.
func loadActiveRules() ([]rules.Rule, error) {
	defaultRules, err := rules.LoadDefault()
	if err != nil {
		return nil, fmt.Errorf("load embedded default rules: %w", err)
	}

	rulesFile := flagConfigPath
	if rulesFile == "" {
		rulesFile = cfg.RulesFile
	}

	merged := defaultRules
	if rulesFile != "" {
		userRules, err := rules.LoadFile(rulesFile)
		if err != nil {
			return nil, err
		}
		merged = rules.Merge(defaultRules, userRules)
	}

	if err := rules.Validate(merged); err != nil {
		return nil, err
	}

	enable := flagEnable
	if flagProfile == "strict" {
		// The "strict" built-in profile enables every opt-in rule (card
		// numbers, API keys, phone numbers) in addition to whatever the
		// caller passed via --enable.
		for _, r := range merged {
			if r.OptIn {
				enable = append(enable, r.Name)
			}
		}
	}

	return rules.SetActive(merged, enable, flagDisable, log), nil
}

// buildEngine wires the active rule set into a compiled engine facade.
func buildEngine() (*engine.Engine, error) {
	active, err := loadActiveRules()
	if err != nil {
		return nil, err
	}

	opts := engine.Options{
		NeedSampleHash: true,
	}
	if cfg.ContextWindow > 0 {
		opts.NeedContextHash = true
		opts.ContextWindowBytes = cfg.ContextWindow
	}

	return engine.New(active, opts, log, cfg.AllowDebugPII)
}

// openAuditLog opens the configured audit log, or returns a nil handle (and
// no error) when auditing is disabled, matching the facade's contract that
// callers without audit requirements pass no handle.
func openAuditLog() (*audit.Log, error) {
	if cfg.AuditLogPath == "" {
		return nil, nil
	}
	return audit.Open(cfg.AuditLogPath)
}

// readInput reads from --input-file if set, otherwise stdin.
func readInput() (string, error) {
	if flagInputFile != "" {
		data, err := os.ReadFile(flagInputFile) //nolint:gosec // G304: operator-supplied CLI path
		if err != nil {
			return "", fmt.Errorf("read input file %s: %w", flagInputFile, err)
		}
		return string(data), nil
	}
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	return string(data), nil
}

// readInputBytes is readInput's byte-oriented counterpart, for callers (like
// sign-artifact) that operate on raw data rather than text.
func readInputBytes() ([]byte, error) {
	if flagInputFile != "" {
		data, err := os.ReadFile(flagInputFile) //nolint:gosec // G304: operator-supplied CLI path
		if err != nil {
			return nil, fmt.Errorf("read input file %s: %w", flagInputFile, err)
		}
		return data, nil
	}
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return nil, fmt.Errorf("read stdin: %w", err)
	}
	return data, nil
}

// writeOutput writes to --output if set, otherwise stdout.
func writeOutput(text string) error {
	if flagOutputPath != "" {
		return os.WriteFile(flagOutputPath, []byte(text), 0o600)
	}
	_, err := fmt.Fprint(os.Stdout, text)
	return err
}
