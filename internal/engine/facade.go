package engine

import (
	"sort"

	"sanitizer-engine/internal/audit"
	"sanitizer-engine/internal/logger"
	"sanitizer-engine/internal/rules"
)

// Engine orchestrates compilation, matching, overlap resolution, and
// summarization for one rule set. It is stateless between calls beyond its
// shared, read-only compiled set, and is safe for concurrent use: the
// reference SanitizationEngine trait (RegexEngine) is the model this
// interface generalizes.
type Engine struct {
	compiled      *CompiledSet
	ruleList      []rules.Rule
	ruleByName    map[string]rules.Rule
	options       Options
	log           *logger.Logger
	allowDebugPII bool
}

// New compiles rs (sharing the process-wide compile cache) and returns an
// Engine ready to serve Sanitize/Analyze/FindMatchesForUI calls.
func New(rs []rules.Rule, opts Options, log *logger.Logger, allowDebugPII bool) (*Engine, error) {
	if len(rs) == 0 && log != nil {
		log.Debug("engine_init", "rule set contains no rules; this engine will perform no sanitization")
	}

	compiled, err := Compile(rs)
	if err != nil {
		return nil, err
	}

	byName := make(map[string]rules.Rule, len(rs))
	for _, r := range rs {
		byName[r.Name] = r
	}

	return &Engine{
		compiled:      compiled,
		ruleList:      rs,
		ruleByName:    byName,
		options:       opts,
		log:           log,
		allowDebugPII: allowDebugPII,
	}, nil
}

// CompiledRules returns the engine's shared compiled rule set.
func (e *Engine) CompiledRules() *CompiledSet { return e.compiled }

// Rules returns the rule list this engine was constructed from.
func (e *Engine) Rules() []rules.Rule { return e.ruleList }

// Options returns the engine options this engine was constructed with.
func (e *Engine) Options() Options { return e.options }

// Sanitize runs the full pipeline: match discovery, overlap resolution,
// rewriting, and summary aggregation, appending one audit event per
// accepted match if auditLog is non-nil.
func (e *Engine) Sanitize(content, sourceID string, auditLog *audit.Log, actx AuditContext) (string, []SummaryItem, error) {
	grouped := findMatches(e.compiled, e.ruleByName, content, sourceID, e.options, e.log, e.allowDebugPII)
	_, mapper := newIndexMapper(content)

	rewritten, accepted, err := resolveAndRewrite(content, grouped, mapper, auditLog, actx, e.log)
	if err != nil {
		return "", nil, err
	}
	return rewritten, buildSummary(accepted), nil
}

// Analyze runs match discovery and summary aggregation only: no overlap
// resolution, no rewrite, no audit, matching analyze_for_stats in the
// original implementation. Every rule's raw matches are reported, including
// ones that a Sanitize call would drop as overlapping with a
// higher-priority rule's match — Analyze answers "what would match", not
// "what would be rewritten".
func (e *Engine) Analyze(content, sourceID string) ([]SummaryItem, error) {
	grouped := findMatches(e.compiled, e.ruleByName, content, sourceID, e.options, e.log, e.allowDebugPII)
	all := make([]Match, 0)
	for _, ms := range grouped {
		all = append(all, ms...)
	}
	return buildSummary(all), nil
}

// FindMatchesForUI flattens every rule's raw match list (before overlap
// resolution), backfills any missing SampleHash via CanonicalSampleHash, and
// returns them ordered by start offset. Intended for interactive review
// tooling that needs to see every candidate, not just the ones that survive
// overlap resolution.
func (e *Engine) FindMatchesForUI(content, sourceID string) []Match {
	grouped := findMatches(e.compiled, e.ruleByName, content, sourceID, e.options, e.log, e.allowDebugPII)
	out := make([]Match, 0)
	for _, ms := range grouped {
		out = append(out, ms...)
	}
	for i := range out {
		if out[i].SampleHash == "" {
			out[i].SampleHash = CanonicalSampleHash(out[i].RuleName, out[i].Original)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Start < out[j].Start })
	return out
}

// HeadlessSanitize is a convenience wrapper that compiles rs, runs Sanitize
// with no audit handle and no run/user/reason context, and returns only the
// sanitized text — mirroring headless_sanitize_string.
func HeadlessSanitize(rs []rules.Rule, opts Options, content, sourceID string) (string, error) {
	eng, err := New(rs, opts, nil, false)
	if err != nil {
		return "", err
	}
	text, _, err := eng.Sanitize(content, sourceID, nil, AuditContext{})
	return text, err
}
