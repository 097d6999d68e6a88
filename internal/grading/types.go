// Package grading implements the submission grading pipeline: prompt
// construction, the scoring call with retry, extraction of a structured
// record from free-form model output, and batch scheduling.
package grading

// Submission is one document to be graded, identified by a caller-supplied
// name (typically a filename). It is immutable once assembled.
type Submission struct {
	Name string
	Data []byte
}

// Size returns the document size in bytes.
func (s Submission) Size() int {
	return len(s.Data)
}

// GradedResult is the outcome of grading one submission. Err is empty for a
// success. Name always equals the originating Submission's name; the model is
// never trusted to echo identifiers correctly.
type GradedResult struct {
	Name     string `json:"filename"`
	Score    int    `json:"total_score"`
	Comment  string `json:"comments"`
	Feedback string `json:"feedback,omitempty"`
	Err      string `json:"error,omitempty"`
}

// Failed reports whether this result records a grading failure.
func (r GradedResult) Failed() bool {
	return r.Err != ""
}

// CountResults returns the number of successes and failures in a batch.
func CountResults(batch []GradedResult) (graded, failed int) {
	for _, r := range batch {
		if r.Failed() {
			failed++
		} else {
			graded++
		}
	}
	return graded, failed
}
