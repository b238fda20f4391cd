package prompts

import (
	"fmt"
	"strings"

	lcprompts "github.com/tmc/langchaingo/prompts"
)

// PromptBuilder renders per-file review prompts.
type PromptBuilder struct {
	template lcprompts.PromptTemplate
	language string
}

// NewPromptBuilder creates a builder. language is an optional response
// language hint; empty leaves the choice to the model.
func NewPromptBuilder(language string) *PromptBuilder {
	return &PromptBuilder{
		template: lcprompts.NewPromptTemplate(FileReviewTemplate, []string{"role", "focus", "language", "code"}),
		language: language,
	}
}

// BuildFileReviewPrompt embeds the file's source text in the review prompt.
func (pb *PromptBuilder) BuildFileReviewPrompt(code string) (string, error) {
	prompt, err := pb.template.Format(map[string]any{
		"role":     CodeReviewerRole,
		"focus":    joinFocus(FocusAreas),
		"language": pb.language,
		"code":     code,
	})
	if err != nil {
		return "", fmt.Errorf("render review prompt: %w", err)
	}
	return prompt, nil
}

// joinFocus renders ["a", "b", "c"] as "a, b, and c".
func joinFocus(areas []string) string {
	switch len(areas) {
	case 0:
		return ""
	case 1:
		return areas[0]
	case 2:
		return areas[0] + " and " + areas[1]
	}
	return strings.Join(areas[:len(areas)-1], ", ") + ", and " + areas[len(areas)-1]
}
