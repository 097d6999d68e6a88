package prompts

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGet_KnownPrompt(t *testing.T) {
	template, err := Get("grading.json", "grade-submission")

	require.NoError(t, err)
	assert.Contains(t, template, "{{.Filename}}")
	assert.Contains(t, template, "{{.Rubric}}")
}

func TestGet_UnknownKey(t *testing.T) {
	_, err := Get("grading.json", "nonexistent")

	require.Error(t, err)
	assert.Contains(t, err.Error(), `prompt key "nonexistent" not found`)
}

func TestGet_UnknownFile(t *testing.T) {
	_, err := Get("missing.json", "grade-submission")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read prompt file")
}

func TestMustGet_PanicsOnMissing(t *testing.T) {
	assert.Panics(t, func() {
		MustGet("grading.json", "nonexistent")
	})
}

func TestFormat(t *testing.T) {
	out := Format("Grade {{.Filename}} with {{.Rubric}}.", map[string]string{
		"Filename": "hw1.pdf",
		"Rubric":   "the rubric text",
	})

	assert.Equal(t, "Grade hw1.pdf with the rubric text.", out)
}

func TestFormat_LeavesUnknownPlaceholders(t *testing.T) {
	out := Format("{{.Known}} and {{.Unknown}}", map[string]string{"Known": "x"})

	assert.Equal(t, "x and {{.Unknown}}", out)
}

func TestFormat_RepeatedPlaceholder(t *testing.T) {
	out := Format("{{.Name}}, again {{.Name}}", map[string]string{"Name": "a.pdf"})

	assert.Equal(t, "a.pdf, again a.pdf", out)
}

func TestGet_CachedResultStable(t *testing.T) {
	first, err := Get("grading.json", "grade-submission")
	require.NoError(t, err)
	second, err := Get("grading.json", "grade-submission")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.False(t, strings.Contains(first, "\x00"))
}
