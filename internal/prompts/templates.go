package prompts

// System role definitions
const (
	// CodeReviewerRole defines the primary AI role for code review
	CodeReviewerRole = "You are an expert code reviewer"
)

// FocusAreas are the aspects every file review covers, in prompt order.
var FocusAreas = []string{"security", "performance", "readability", "potential bugs"}

// FileReviewTemplate is rendered with Go template syntax. Inputs: role,
// focus, language, code.
const FileReviewTemplate = `{{.role}}.
Please review the following code and provide suggestions for improvements in terms of {{.focus}}.
Refer to code by quoting it; keep each point short and actionable.
{{- if .language}}
Write the review in {{.language}}.
{{- end}}

Code:
{{.code}}`
