package ai

import "context"

// CodeReviewer produces a free-text review of one file's full source.
type CodeReviewer interface {
	Review(ctx context.Context, source string) (string, error)
}

// CodeReviewerFunc adapts a function to CodeReviewer.
type CodeReviewerFunc func(ctx context.Context, source string) (string, error)

func (f CodeReviewerFunc) Review(ctx context.Context, source string) (string, error) {
	return f(ctx, source)
}
