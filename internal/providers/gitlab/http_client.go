package gitlab

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
)

// apiClient reads from the GitLab v4 REST API directly with a private token.
type apiClient struct {
	baseURL string
	token   string
	client  *http.Client
}

type mergeRequest struct {
	IID    int    `json:"iid"`
	Title  string `json:"title"`
	SHA    string `json:"sha"`
	WebURL string `json:"web_url"`
}

type mergeRequestDiff struct {
	OldPath     string `json:"old_path"`
	NewPath     string `json:"new_path"`
	NewFile     bool   `json:"new_file"`
	RenamedFile bool   `json:"renamed_file"`
	DeletedFile bool   `json:"deleted_file"`
}

func (c *apiClient) projectURL(project string) string {
	return fmt.Sprintf("%s/projects/%s", c.baseURL, url.PathEscape(project))
}

// do executes the request and returns the response for 2xx statuses.
// Callers close the body.
func (c *apiClient) do(ctx context.Context, method, requestURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, requestURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("PRIVATE-TOKEN", c.token)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &statusError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}
	return resp, nil
}

type statusError struct {
	StatusCode int
	Body       string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("API request failed with status %d: %s", e.StatusCode, e.Body)
}

func (c *apiClient) getJSON(ctx context.Context, requestURL string, out any) (*http.Response, error) {
	resp, err := c.do(ctx, http.MethodGet, requestURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return resp, nil
}

func (c *apiClient) getMergeRequest(ctx context.Context, project string, iid int) (*mergeRequest, error) {
	var mr mergeRequest
	if _, err := c.getJSON(ctx, fmt.Sprintf("%s/merge_requests/%d", c.projectURL(project), iid), &mr); err != nil {
		return nil, err
	}
	return &mr, nil
}

// listMergeRequestDiffs follows X-Next-Page until the last page.
func (c *apiClient) listMergeRequestDiffs(ctx context.Context, project string, iid int) ([]mergeRequestDiff, error) {
	var all []mergeRequestDiff
	page := 1
	for {
		requestURL := fmt.Sprintf("%s/merge_requests/%d/diffs?per_page=100&page=%d", c.projectURL(project), iid, page)

		var diffs []mergeRequestDiff
		resp, err := c.getJSON(ctx, requestURL, &diffs)
		if err != nil {
			return nil, err
		}
		all = append(all, diffs...)

		next, err := strconv.Atoi(resp.Header.Get("X-Next-Page"))
		if err != nil || next == 0 {
			return all, nil
		}
		page = next
	}
}

func (c *apiClient) getRawFile(ctx context.Context, project, ref, path string) ([]byte, error) {
	requestURL := fmt.Sprintf("%s/repository/files/%s/raw?ref=%s",
		c.projectURL(project), url.PathEscape(path), url.QueryEscape(ref))

	resp, err := c.do(ctx, http.MethodGet, requestURL)
	if err != nil {
		var se *statusError
		if errors.As(err, &se) && se.StatusCode == http.StatusNotFound {
			return nil, fmt.Errorf("file not found: %s", path)
		}
		return nil, fmt.Errorf("failed to get file content: %w", err)
	}
	defer resp.Body.Close()

	content, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read file content: %w", err)
	}
	return content, nil
}
