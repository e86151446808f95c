// Package config loads and holds the engine's ambient bootstrap configuration.
// Settings are layered: defaults → engine-config.json → environment variables
// (env vars win). This governs where the engine looks for rule files, the
// audit log, and the state store; it is distinct from the rule config itself,
// which lives under internal/rules.
package config

import (
	"encoding/json"
	"log"
	"os"
	"strconv"
)

// Config holds the engine's bootstrap configuration.
type Config struct {
	LogLevel string `json:"logLevel"`

	RulesFile      string `json:"rulesFile"`      // user rule-config YAML, merged over built-in defaults
	AuditLogPath   string `json:"auditLogPath"`   // empty disables auditing
	StateFile      string `json:"stateFile"`      // encrypted usage/state record
	CompileManifestFile string `json:"compileManifestFile"` // bbolt manifest of compiled-config fingerprints

	SampleCapPerRule int `json:"sampleCapPerRule"`
	SampleCapTotal   int `json:"sampleCapTotal"`

	ContextWindow int `json:"contextWindow"` // bytes either side of a match used for context_hash

	AllowDebugPII    bool   `json:"-"` // from CLEANSH_ALLOW_DEBUG_PII, never persisted
	LicensePublicKey string `json:"-"` // from CLEANSH_LICENSE_PUBLIC_KEY_BASE64, never persisted
}

// Load returns config with defaults overridden by engine-config.json and env vars.
func Load() *Config {
	cfg := defaults()
	loadFile(cfg, "engine-config.json")
	loadEnv(cfg)
	return cfg
}

func defaults() *Config {
	return &Config{
		LogLevel:            "info",
		RulesFile:           "",
		AuditLogPath:        "",
		StateFile:           "engine-state.bin",
		CompileManifestFile: "compile-manifest.db",
		SampleCapPerRule:    5,
		SampleCapTotal:      0, // 0 = unlimited
		ContextWindow:       0, // 0 disables context_hash
	}
}

func loadFile(cfg *Config, path string) {
	data, err := os.ReadFile(path) //nolint:gosec // G703: path is a controlled config file path, not user input
	if err != nil {
		return // file is optional
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		log.Printf("[CONFIG] Warning: could not parse %s: %v", path, err)
	} else {
		log.Printf("[CONFIG] Loaded %s", path)
	}
}

func loadEnv(cfg *Config) {
	if v := os.Getenv("ENGINE_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("ENGINE_RULES_FILE"); v != "" {
		cfg.RulesFile = v
	}
	if v := os.Getenv("ENGINE_AUDIT_LOG_PATH"); v != "" {
		cfg.AuditLogPath = v
	}
	if v := os.Getenv("ENGINE_STATE_FILE"); v != "" {
		cfg.StateFile = v
	}
	if v := os.Getenv("ENGINE_COMPILE_MANIFEST_FILE"); v != "" {
		cfg.CompileManifestFile = v
	}
	if v := os.Getenv("ENGINE_SAMPLE_CAP_PER_RULE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.SampleCapPerRule = n
		}
	}
	if v := os.Getenv("ENGINE_SAMPLE_CAP_TOTAL"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.SampleCapTotal = n
		}
	}
	if v := os.Getenv("ENGINE_CONTEXT_WINDOW"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.ContextWindow = n
		}
	}
	if v := os.Getenv("CLEANSH_ALLOW_DEBUG_PII"); v != "" {
		cfg.AllowDebugPII = isTruthy(v)
	}
	if v := os.Getenv("CLEANSH_LICENSE_PUBLIC_KEY_BASE64"); v != "" {
		cfg.LicensePublicKey = v
	}
}

func isTruthy(s string) bool {
	switch s {
	case "1", "t", "T", "true", "True", "TRUE", "yes", "Yes", "YES":
		return true
	default:
		return false
	}
}
