package providers

import (
	"context"
	"fmt"
	"strings"
)

// RepositoryClient is what the review orchestrator needs from a code hosting
// provider (GitHub, GitLab).
type RepositoryClient interface {
	// GetPullRequest returns the pull request, including its head commit.
	GetPullRequest(ctx context.Context, repo string, number int) (*PullRequest, error)
	// ListChangedFiles returns every file the pull request touches, in the
	// order the host reports them.
	ListChangedFiles(ctx context.Context, repo string, number int) ([]ChangedFile, error)
	// GetFileContent returns the raw file bytes at ref.
	GetFileContent(ctx context.Context, repo, ref, path string) ([]byte, error)
	// PostComment adds a top-level comment to the pull request.
	PostComment(ctx context.Context, repo string, number int, body string) error
	Name() string
}

// PullRequest contains the pull request fields the review needs
type PullRequest struct {
	Number  int
	Title   string
	HeadSHA string
	URL     string
}

// FileStatus is the change kind the host reports for a file.
type FileStatus string

const (
	FileAdded     FileStatus = "added"
	FileModified  FileStatus = "modified"
	FileRemoved   FileStatus = "removed"
	FileRenamed   FileStatus = "renamed"
	FileCopied    FileStatus = "copied"
	FileChanged   FileStatus = "changed"
	FileUnchanged FileStatus = "unchanged"
)

// ChangedFile is one entry of a pull request's file list.
type ChangedFile struct {
	Filename string
	Status   FileStatus
}

// SplitRepository splits "owner/name" into its parts.
func SplitRepository(fullName string) (string, string, error) {
	parts := strings.Split(fullName, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid repository full name: %q", fullName)
	}
	return parts[0], parts[1], nil
}
