package github

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/go-github/v68/github"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"

	"github.com/prreview/internal/providers"
)

const requestTimeout = 30 * time.Second

// GitHubConfig contains configuration for the GitHub provider. Token takes
// precedence over App credentials.
type GitHubConfig struct {
	Token          string
	AppID          int64
	InstallationID int64
	PrivateKeyPEM  []byte
	// BaseURL is the REST root for GitHub Enterprise, e.g.
	// https://ghe.example.com/api/v3/. Empty means api.github.com.
	BaseURL string
}

// GitHubProvider implements providers.RepositoryClient on the GitHub REST API.
type GitHubProvider struct {
	client *github.Client
}

var _ providers.RepositoryClient = (*GitHubProvider)(nil)

// New creates an authenticated GitHub provider.
func New(ctx context.Context, config GitHubConfig) (*GitHubProvider, error) {
	baseURL, err := parseBaseURL(config.BaseURL)
	if err != nil {
		return nil, err
	}

	var ts oauth2.TokenSource
	switch {
	case config.Token != "":
		ts = oauth2.StaticTokenSource(&oauth2.Token{AccessToken: config.Token})
	case config.AppID != 0 && config.InstallationID != 0:
		its, err := newInstallationTokenSource(config.AppID, config.InstallationID, config.PrivateKeyPEM, baseURL)
		if err != nil {
			return nil, err
		}
		ts = oauth2.ReuseTokenSource(nil, its)
		log.Info().
			Int64("app_id", config.AppID).
			Int64("installation_id", config.InstallationID).
			Msg("Using GitHub App installation authentication")
	default:
		return nil, fmt.Errorf("github token or app credentials are required")
	}

	httpClient := oauth2.NewClient(ctx, ts)
	httpClient.Timeout = requestTimeout

	return NewWithClient(newClient(httpClient, baseURL)), nil
}

// NewWithClient wraps an existing go-github client.
func NewWithClient(client *github.Client) *GitHubProvider {
	return &GitHubProvider{client: client}
}

func newClient(httpClient *http.Client, baseURL *url.URL) *github.Client {
	client := github.NewClient(httpClient)
	if baseURL != nil {
		client.BaseURL = baseURL
		client.UploadURL = baseURL
	}
	return client
}

func parseBaseURL(raw string) (*url.URL, error) {
	if raw == "" {
		return nil, nil
	}
	if !strings.HasSuffix(raw, "/") {
		raw += "/"
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid github base url: %w", err)
	}
	return u, nil
}

func (p *GitHubProvider) Name() string {
	return "github"
}

// GetPullRequest fetches the pull request and its head commit.
func (p *GitHubProvider) GetPullRequest(ctx context.Context, repo string, number int) (*providers.PullRequest, error) {
	owner, name, err := providers.SplitRepository(repo)
	if err != nil {
		return nil, err
	}

	pr, _, err := p.client.PullRequests.Get(ctx, owner, name, number)
	if err != nil {
		return nil, fmt.Errorf("failed to get pull request %s#%d: %w", repo, number, err)
	}

	return &providers.PullRequest{
		Number:  pr.GetNumber(),
		Title:   pr.GetTitle(),
		HeadSHA: pr.GetHead().GetSHA(),
		URL:     pr.GetHTMLURL(),
	}, nil
}

// ListChangedFiles pages through the pull request's files.
func (p *GitHubProvider) ListChangedFiles(ctx context.Context, repo string, number int) ([]providers.ChangedFile, error) {
	owner, name, err := providers.SplitRepository(repo)
	if err != nil {
		return nil, err
	}

	var changed []providers.ChangedFile
	opts := &github.ListOptions{PerPage: 100}
	for {
		files, resp, err := p.client.PullRequests.ListFiles(ctx, owner, name, number, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to list PR files: %w", err)
		}

		for _, file := range files {
			changed = append(changed, providers.ChangedFile{
				Filename: file.GetFilename(),
				Status:   providers.FileStatus(file.GetStatus()),
			})
		}

		if resp == nil || resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	log.Debug().Str("repository", repo).Int("pr_number", number).Int("files", len(changed)).Msg("Retrieved PR files")
	return changed, nil
}

// GetFileContent retrieves a file's decoded content at ref.
func (p *GitHubProvider) GetFileContent(ctx context.Context, repo, ref, path string) ([]byte, error) {
	owner, name, err := providers.SplitRepository(repo)
	if err != nil {
		return nil, err
	}

	content, _, resp, err := p.client.Repositories.GetContents(ctx, owner, name, path,
		&github.RepositoryContentGetOptions{Ref: ref})
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusNotFound {
			return nil, fmt.Errorf("file not found: %s", path)
		}
		return nil, fmt.Errorf("failed to get file content: %w", err)
	}

	// content is nil for directories
	if content == nil {
		return nil, fmt.Errorf("no content available for %s", path)
	}

	decoded, err := content.GetContent()
	if err != nil {
		return nil, fmt.Errorf("failed to decode content: %w", err)
	}
	return []byte(decoded), nil
}

// PostComment creates an issue comment on the pull request.
func (p *GitHubProvider) PostComment(ctx context.Context, repo string, number int, body string) error {
	owner, name, err := providers.SplitRepository(repo)
	if err != nil {
		return err
	}

	comment, _, err := p.client.Issues.CreateComment(ctx, owner, name, number, &github.IssueComment{
		Body: github.Ptr(body),
	})
	if err != nil {
		return fmt.Errorf("failed to create issue comment: %w", err)
	}

	log.Info().Str("repository", repo).Int("pr_number", number).Str("url", comment.GetHTMLURL()).Msg("Posted review comment")
	return nil
}
