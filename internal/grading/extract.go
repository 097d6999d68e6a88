package grading

import (
	"regexp"
	"strconv"
	"strings"
)

// Output section delimiters the model is instructed to emit.
const (
	feedbackDelimiter = "---FEEDBACK---"
	tableDelimiter    = "---CSV---"
)

// csvHeader is the fixed header of the tabular section. Models frequently
// echo it above the data row, so row selection must skip it.
const csvHeader = "filename,total_score,comments"

// maxSynthesizedComment caps the comment length when a row has to be
// synthesized from feedback text.
const maxSynthesizedComment = 500

// Score cue patterns, tried in order against the full reply and then the
// feedback text. The first hit wins. These can match unrelated numbers that
// appear before a true score (e.g. a page count); precedence is kept as-is.
var (
	scoreLabelRe  = regexp.MustCompile(`(?i)(total|score)\s*[:=]\s*(\d{1,3})`)
	scoreSlashRe  = regexp.MustCompile(`(?i)(\d{1,3})\s*/\s*100`)
	scorePointsRe = regexp.MustCompile(`(?i)(\d{1,3})\s*(?:points|pt)?\s*(?:out of|/)?\s*100`)
)

// Row is the normalized three-field record extracted from one model reply.
type Row struct {
	Name    string
	Score   int
	Comment string
}

// Extract parses a raw model reply into a feedback paragraph and a normalized
// Row. It is total: malformed input degrades to a zero-score record with a
// diagnostic comment, and any internal panic falls back to a synthesized row
// under fallbackName. Calling it twice on the same inputs yields identical
// output.
func Extract(raw, fallbackName string) (feedback string, row Row) {
	defer func() {
		if recover() != nil {
			feedback = strings.TrimSpace(raw)
			row = Row{
				Name:    fallbackName,
				Score:   0,
				Comment: sanitizeComment(truncate(strings.TrimSpace(raw), maxSynthesizedComment)),
			}
		}
	}()

	feedback, lines := segment(raw)
	candidate := selectRow(lines)
	if candidate == "" {
		candidate = fallbackName + ",," + truncate(sanitizeComment(feedback), maxSynthesizedComment)
	}

	name, scoreField, comment := splitFields(candidate)

	score, ok := resolveScore(scoreField, raw, feedback)
	if !ok {
		score = 0
		comment = strings.Trim(comment+"; score not provided", "; ")
	}
	score = clampScore(score)

	if name == "" {
		name = fallbackName
	}

	return feedback, Row{Name: name, Score: score, Comment: sanitizeComment(comment)}
}

// segment splits the reply into the feedback paragraph and the lines that may
// contain the tabular row. Without the table delimiter, the first
// paragraph-like block stands in for feedback and every line is a candidate.
func segment(raw string) (feedback string, lines []string) {
	if strings.Contains(raw, tableDelimiter) {
		parts := strings.SplitN(raw, tableDelimiter, 2)
		before, after := parts[0], parts[1]
		if strings.Contains(before, feedbackDelimiter) {
			feedback = strings.TrimSpace(strings.SplitN(before, feedbackDelimiter, 2)[1])
		} else {
			feedback = strings.TrimSpace(before)
		}
		return feedback, strings.Split(after, "\n")
	}

	for _, para := range strings.Split(raw, "\n\n") {
		if p := strings.TrimSpace(para); p != "" {
			feedback = p
			break
		}
	}
	if feedback == "" {
		feedback = strings.TrimSpace(raw)
	}
	return feedback, strings.Split(raw, "\n")
}

// selectRow picks the first non-empty line with at least two field
// separators, skipping echoes of the fixed header.
func selectRow(lines []string) string {
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" || strings.Count(line, ",") < 2 {
			continue
		}
		if strings.HasPrefix(strings.ToLower(line), csvHeader) {
			continue
		}
		return line
	}
	return ""
}

// splitFields splits the candidate row on commas, padding to three fields.
// Everything past the second separator belongs to the comment.
func splitFields(row string) (name, scoreField, comment string) {
	parts := strings.Split(row, ",")
	for len(parts) < 3 {
		parts = append(parts, "")
	}
	name = strings.TrimSpace(parts[0])
	scoreField = strings.TrimSpace(parts[1])
	comment = strings.TrimSpace(strings.Join(parts[2:], ","))
	return name, scoreField, comment
}

// resolveScore resolves the numeric score: the row field when purely digits,
// otherwise the first cue match in the full reply, then the feedback text.
func resolveScore(scoreField, raw, feedback string) (int, bool) {
	if isDigits(scoreField) {
		n, err := strconv.Atoi(scoreField)
		if err == nil {
			return n, true
		}
	}
	if n, ok := scoreFromText(raw); ok {
		return n, true
	}
	return scoreFromText(feedback)
}

// scoreFromText searches text for the numeric cues in precedence order.
func scoreFromText(text string) (int, bool) {
	if m := scoreLabelRe.FindStringSubmatch(text); m != nil {
		return atoiOrZero(m[2]), true
	}
	if m := scoreSlashRe.FindStringSubmatch(text); m != nil {
		return atoiOrZero(m[1]), true
	}
	if m := scorePointsRe.FindStringSubmatch(text); m != nil {
		return atoiOrZero(m[1]), true
	}
	return 0, false
}

// sanitizeComment replaces literal commas with semicolons. Commas are
// reserved as the tabular field separator and must not leak from
// model-authored text.
func sanitizeComment(s string) string {
	return strings.ReplaceAll(s, ",", ";")
}

func clampScore(n int) int {
	if n < 0 {
		return 0
	}
	if n > 100 {
		return 100
	}
	return n
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func atoiOrZero(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
