package grading

import "github.com/jonathan/rubric-grader/internal/prompts"

// BuildPrompt constructs the grading prompt for one submission. It is pure
// and deterministic: the same name and rubric always yield the same prompt.
// The prompt embeds the submission name verbatim so the model is instructed
// to echo it, demands an integer 0-100 score, and requires exactly one
// feedback section and one single-row tabular section.
func BuildPrompt(name, rubric string) string {
	template := prompts.MustGet("grading.json", "grade-submission")
	return prompts.Format(template, map[string]string{
		"Filename": name,
		"Rubric":   rubric,
	})
}
