package review

import (
	"context"
	"fmt"
	"sync"

	"github.com/prreview/internal/providers"
)

type postedComment struct {
	Repo   string
	Number int
	Body   string
}

// fakeRepo is an in-memory providers.RepositoryClient.
type fakeRepo struct {
	mu       sync.Mutex
	headSHA  string
	files    []providers.ChangedFile
	contents map[string]string
	fetchErr map[string]error

	prErr   error
	listErr error
	postErr error

	fetchedRefs []string
	posted      []postedComment
}

func (f *fakeRepo) Name() string { return "fake" }

func (f *fakeRepo) GetPullRequest(ctx context.Context, repo string, number int) (*providers.PullRequest, error) {
	if f.prErr != nil {
		return nil, f.prErr
	}
	return &providers.PullRequest{Number: number, HeadSHA: f.headSHA}, nil
}

func (f *fakeRepo) ListChangedFiles(ctx context.Context, repo string, number int) ([]providers.ChangedFile, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.files, nil
}

func (f *fakeRepo) GetFileContent(ctx context.Context, repo, ref, path string) ([]byte, error) {
	f.mu.Lock()
	f.fetchedRefs = append(f.fetchedRefs, ref)
	f.mu.Unlock()

	if err := f.fetchErr[path]; err != nil {
		return nil, err
	}
	content, ok := f.contents[path]
	if !ok {
		return nil, fmt.Errorf("file not found: %s", path)
	}
	return []byte(content), nil
}

func (f *fakeRepo) PostComment(ctx context.Context, repo string, number int, body string) error {
	if f.postErr != nil {
		return f.postErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.posted = append(f.posted, postedComment{Repo: repo, Number: number, Body: body})
	return nil
}

// fakeReviewer answers from a map keyed by source text and records calls.
type fakeReviewer struct {
	mu        sync.Mutex
	answers   map[string]string
	errs      map[string]error
	sources   []string
	inFlight  int
	maxFlight int
}

func (r *fakeReviewer) Review(ctx context.Context, source string) (string, error) {
	r.mu.Lock()
	r.sources = append(r.sources, source)
	r.inFlight++
	if r.inFlight > r.maxFlight {
		r.maxFlight = r.inFlight
	}
	r.mu.Unlock()

	defer func() {
		r.mu.Lock()
		r.inFlight--
		r.mu.Unlock()
	}()

	if err := r.errs[source]; err != nil {
		return "", err
	}
	if answer, ok := r.answers[source]; ok {
		return answer, nil
	}
	return "Looks good.", nil
}

type fakeRedactor struct {
	secret string
}

func (r fakeRedactor) Redact(content string) (string, []string) {
	if r.secret == "" {
		return content, nil
	}
	var rules []string
	redacted := content
	for i := 0; i+len(r.secret) <= len(redacted); i++ {
		if redacted[i:i+len(r.secret)] == r.secret {
			redacted = redacted[:i] + "[REDACTED]" + redacted[i+len(r.secret):]
			rules = []string{"fake-rule"}
		}
	}
	return redacted, rules
}
