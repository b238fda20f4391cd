package review

import (
	"errors"
	"fmt"
	"strings"

	"github.com/prreview/internal/apperrors"
)

// Outcome is the result of reviewing one file: either a review text or an
// error. Exactly one of Review and Err is meaningful.
type Outcome struct {
	Filename string
	Review   string
	Err      error
}

// Success builds a successful outcome.
func Success(filename, review string) Outcome {
	return Outcome{Filename: filename, Review: review}
}

// Failure builds a failed outcome; err is tagged as a per-file error.
func Failure(filename string, err error) Outcome {
	return Outcome{Filename: filename, Err: apperrors.FileReview(err, filename)}
}

// Succeeded reports whether the file was reviewed.
func (o Outcome) Succeeded() bool {
	return o.Err == nil
}

// Body is the text shown for the file in the aggregate comment.
func (o Outcome) Body() string {
	if o.Err == nil {
		return o.Review
	}
	cause := o.Err
	if inner := errors.Unwrap(o.Err); inner != nil {
		cause = inner
	}
	return fmt.Sprintf("An error occurred while reviewing `%s`: %v", o.Filename, cause)
}

const sectionSeparator = "\n\n---\n\n"

// BuildComment renders the aggregate comment: the header followed by one
// section per outcome, in order. It returns "" for no outcomes.
func BuildComment(header string, outcomes []Outcome) string {
	if len(outcomes) == 0 {
		return ""
	}

	sections := make([]string, 0, len(outcomes))
	for _, o := range outcomes {
		sections = append(sections, fmt.Sprintf("### `%s`\n\n%s", o.Filename, o.Body()))
	}

	var b strings.Builder
	b.WriteString(header)
	b.WriteString("\n\n")
	b.WriteString(strings.Join(sections, sectionSeparator))
	return b.String()
}
