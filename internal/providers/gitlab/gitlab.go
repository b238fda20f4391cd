package gitlab

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	gitlab "gitlab.com/gitlab-org/api/client-go"

	"github.com/prreview/internal/providers"
)

// GitLabConfig contains configuration for the GitLab provider
type GitLabConfig struct {
	URL   string
	Token string
}

// GitLabProvider implements providers.RepositoryClient for GitLab merge
// requests. Repositories are project paths such as "group/project".
type GitLabProvider struct {
	api    *apiClient
	client *gitlab.Client
}

var _ providers.RepositoryClient = (*GitLabProvider)(nil)

// New creates a new GitLabProvider
func New(config GitLabConfig) (*GitLabProvider, error) {
	if config.Token == "" {
		return nil, fmt.Errorf("GitLab token is required")
	}
	if config.URL == "" {
		config.URL = "https://gitlab.com"
	}

	// Notes go through the upstream client. Its v0.3.0 merge request and
	// diff endpoints are outdated, so those use apiClient.
	httpClient := &http.Client{Timeout: 30 * time.Second}
	client := gitlab.NewClient(httpClient, config.Token)
	if err := client.SetBaseURL(fmt.Sprintf("%s/api/v4", strings.TrimSuffix(config.URL, "/"))); err != nil {
		return nil, fmt.Errorf("failed to set GitLab API base URL: %w", err)
	}
	baseURL := strings.TrimSuffix(client.BaseURL().String(), "/")

	log.Debug().Str("url", baseURL).Msg("Initialized GitLab client")

	return &GitLabProvider{
		api: &apiClient{
			baseURL: baseURL,
			token:   config.Token,
			client:  httpClient,
		},
		client: client,
	}, nil
}

func (p *GitLabProvider) Name() string {
	return "gitlab"
}

func validateProject(repo string) error {
	if repo == "" || strings.HasPrefix(repo, "/") || strings.HasSuffix(repo, "/") || !strings.Contains(repo, "/") {
		return fmt.Errorf("invalid project path: %q", repo)
	}
	return nil
}

// GetPullRequest fetches the merge request; HeadSHA is the MR's head commit.
func (p *GitLabProvider) GetPullRequest(ctx context.Context, repo string, number int) (*providers.PullRequest, error) {
	if err := validateProject(repo); err != nil {
		return nil, err
	}

	mr, err := p.api.getMergeRequest(ctx, repo, number)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch merge request: %w", err)
	}

	return &providers.PullRequest{
		Number:  mr.IID,
		Title:   mr.Title,
		HeadSHA: mr.SHA,
		URL:     mr.WebURL,
	}, nil
}

// ListChangedFiles lists the merge request's diffs as changed files.
func (p *GitLabProvider) ListChangedFiles(ctx context.Context, repo string, number int) ([]providers.ChangedFile, error) {
	if err := validateProject(repo); err != nil {
		return nil, err
	}

	diffs, err := p.api.listMergeRequestDiffs(ctx, repo, number)
	if err != nil {
		return nil, fmt.Errorf("failed to list merge request diffs: %w", err)
	}

	files := make([]providers.ChangedFile, 0, len(diffs))
	for _, d := range diffs {
		files = append(files, convertDiff(d))
	}
	return files, nil
}

func convertDiff(d mergeRequestDiff) providers.ChangedFile {
	file := providers.ChangedFile{Filename: d.NewPath, Status: providers.FileModified}
	switch {
	case d.DeletedFile:
		file.Filename = d.OldPath
		file.Status = providers.FileRemoved
	case d.NewFile:
		file.Status = providers.FileAdded
	case d.RenamedFile:
		file.Status = providers.FileRenamed
	}
	return file
}

// GetFileContent returns the raw file at ref.
func (p *GitLabProvider) GetFileContent(ctx context.Context, repo, ref, path string) ([]byte, error) {
	if err := validateProject(repo); err != nil {
		return nil, err
	}
	return p.api.getRawFile(ctx, repo, ref, path)
}

// PostComment adds a note to the merge request.
func (p *GitLabProvider) PostComment(ctx context.Context, repo string, number int, body string) error {
	if err := validateProject(repo); err != nil {
		return err
	}

	// The v0.3.0 client takes no context.
	if err := ctx.Err(); err != nil {
		return err
	}

	note, _, err := p.client.Notes.CreateMergeRequestNote(repo, number, &gitlab.CreateMergeRequestNoteOptions{
		Body: gitlab.String(body),
	})
	if err != nil {
		return fmt.Errorf("failed to create merge request note: %w", err)
	}

	log.Info().Str("repository", repo).Int("mr_iid", number).Int("note_id", note.ID).Msg("Posted review note")
	return nil
}
