// Package redact strips credentials from source files before they leave the
// process for an LLM provider.
package redact

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/zricethezav/gitleaks/v8/detect"
)

// Placeholder replaces every detected secret.
const Placeholder = "[REDACTED]"

// Engine redacts secrets found by the gitleaks default rule set.
type Engine struct {
	mu       sync.Mutex
	detector *detect.Detector
}

// NewEngine loads the default gitleaks rules.
func NewEngine() (*Engine, error) {
	detector, err := detect.NewDetectorDefaultConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load gitleaks rules: %w", err)
	}
	return &Engine{detector: detector}, nil
}

// Redact returns content with secrets replaced and the rule IDs that fired.
func (e *Engine) Redact(content string) (string, []string) {
	e.mu.Lock()
	findings := e.detector.DetectString(content)
	e.mu.Unlock()

	if len(findings) == 0 {
		return content, nil
	}

	seen := make(map[string]bool)
	var rules []string
	for _, f := range findings {
		if f.Secret == "" {
			continue
		}
		content = strings.ReplaceAll(content, f.Secret, Placeholder)
		if !seen[f.RuleID] {
			seen[f.RuleID] = true
			rules = append(rules, f.RuleID)
		}
	}
	sort.Strings(rules)
	return content, rules
}
