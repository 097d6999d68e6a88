package grading

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildPrompt_Deterministic(t *testing.T) {
	p1 := BuildPrompt("hw1.pdf", "Grade out of 20 points.")
	p2 := BuildPrompt("hw1.pdf", "Grade out of 20 points.")

	assert.Equal(t, p1, p2)
}

func TestBuildPrompt_EmbedsInputsVerbatim(t *testing.T) {
	prompt := BuildPrompt("final_essay.pdf", "Thesis clarity: 40pts. Evidence: 60pts.")

	assert.Contains(t, prompt, "final_essay.pdf")
	assert.Contains(t, prompt, "Thesis clarity: 40pts. Evidence: 60pts.")
}

func TestBuildPrompt_StatesOutputContract(t *testing.T) {
	prompt := BuildPrompt("hw1.pdf", "Any rubric text here.")

	assert.Contains(t, prompt, "0-100")
	assert.Contains(t, prompt, "---FEEDBACK---")
	assert.Contains(t, prompt, "---CSV---")
	assert.Contains(t, prompt, "filename,total_score,comments")
	assert.Contains(t, prompt, "replace any commas with semicolons")
	assert.Contains(t, prompt, "EXACTLY ONE CSV row")
}
