// Package gitlab implements the GitLabClient port against the GitLab REST
// API (v4) using a plain http.Client.
package gitlab

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gregjones/httpcache"

	"github.com/akn-sfu/glimps/internal/domain/model"
	"github.com/akn-sfu/glimps/internal/domain/port/driven"
)

// Compile-time interface satisfaction checks.
var (
	_ driven.GitLabClient        = (*Client)(nil)
	_ driven.GitLabClientFactory = (*Factory)(nil)
)

// Fixed page sizes. The sync engine's pagination loop assumes a page
// smaller than these means upstream is exhausted.
const (
	resourcePageSize = 10
	notesPageSize    = 50
	membersPageSize  = 100
)

// Factory builds token-bound clients. Tokens belong to users, so a fresh
// client is bound per operation; the cache transport is shared across them.
type Factory struct {
	baseURL    string
	maxRetries uint64
	transport  http.RoundTripper
}

// NewFactory creates a client factory with the following transport stack:
//  1. httpcache (ETag-based conditional request caching)
//  2. net/http default transport
func NewFactory(baseURL string, maxRetries int) *Factory {
	return &Factory{
		baseURL:    baseURL,
		maxRetries: uint64(maxRetries),
		transport:  httpcache.NewMemoryCacheTransport(),
	}
}

// ClientFor returns a client that authenticates with the given access token.
func (f *Factory) ClientFor(token string) driven.GitLabClient {
	return &Client{
		http:       &http.Client{Transport: f.transport, Timeout: 30 * time.Second},
		baseURL:    f.baseURL,
		token:      token,
		maxRetries: f.maxRetries,
	}
}

// Client implements the driven.GitLabClient port for one access token.
type Client struct {
	http       *http.Client
	baseURL    string
	token      string
	maxRetries uint64
}

// NewClientWithHTTPClient creates a Client with a custom http.Client and base
// URL. This constructor is intended for testing, allowing injection of an
// httptest server.
func NewClientWithHTTPClient(httpClient *http.Client, baseURL, token string, maxRetries int) *Client {
	return &Client{
		http:       httpClient,
		baseURL:    baseURL,
		token:      token,
		maxRetries: uint64(maxRetries),
	}
}

// FetchProjects retrieves one page of projects the token's user is a member of.
func (c *Client) FetchProjects(ctx context.Context, page int) ([]model.ProjectResource, error) {
	params := url.Values{}
	params.Set("membership", "true")
	params.Set("per_page", strconv.Itoa(resourcePageSize))
	params.Set("page", strconv.Itoa(page))

	var projects []model.ProjectResource
	if _, err := c.getJSON(ctx, "/projects", params, &projects); err != nil {
		return nil, fmt.Errorf("listing projects (page %d): %w", page, err)
	}
	return projects, nil
}

// FetchDefaultBranch retrieves the project's current default branch name.
func (c *Client) FetchDefaultBranch(ctx context.Context, projectID int64) (string, error) {
	var project model.ProjectResource
	if _, err := c.getJSON(ctx, fmt.Sprintf("/projects/%d", projectID), nil, &project); err != nil {
		return "", fmt.Errorf("fetching project %d: %w", projectID, err)
	}
	return project.DefaultBranch, nil
}

// FetchCommits retrieves one page of commits on the given branch.
func (c *Client) FetchCommits(ctx context.Context, projectID int64, branch string, page int) ([]model.CommitResource, error) {
	params := url.Values{}
	params.Set("ref_name", branch)
	params.Set("per_page", strconv.Itoa(resourcePageSize))
	params.Set("page", strconv.Itoa(page))

	var commits []model.CommitResource
	path := fmt.Sprintf("/projects/%d/repository/commits", projectID)
	if _, err := c.getJSON(ctx, path, params, &commits); err != nil {
		return nil, fmt.Errorf("listing commits for project %d (page %d): %w", projectID, page, err)
	}
	return commits, nil
}

// FetchMergeRequests retrieves one page of merged merge requests targeting
// the given branch.
func (c *Client) FetchMergeRequests(ctx context.Context, projectID int64, targetBranch string, page int) ([]model.MergeRequestResource, error) {
	params := url.Values{}
	params.Set("state", "merged")
	params.Set("target_branch", targetBranch)
	params.Set("per_page", strconv.Itoa(resourcePageSize))
	params.Set("page", strconv.Itoa(page))

	var mrs []model.MergeRequestResource
	path := fmt.Sprintf("/projects/%d/merge_requests", projectID)
	if _, err := c.getJSON(ctx, path, params, &mrs); err != nil {
		return nil, fmt.Errorf("listing merge requests for project %d (page %d): %w", projectID, page, err)
	}
	return mrs, nil
}

// FetchMergeRequestCommits retrieves one page of a merge request's commits.
// The second return value is the total page count from the X-Total-Pages
// header (0 when the header is absent).
func (c *Client) FetchMergeRequestCommits(ctx context.Context, projectID, mergeRequestIID int64, page int) ([]model.CommitResource, int, error) {
	params := url.Values{}
	params.Set("page", strconv.Itoa(page))

	var commits []model.CommitResource
	path := fmt.Sprintf("/projects/%d/merge_requests/%d/commits", projectID, mergeRequestIID)
	header, err := c.getJSON(ctx, path, params, &commits)
	if err != nil {
		return nil, 0, fmt.Errorf("listing commits for merge request %d!%d (page %d): %w", projectID, mergeRequestIID, page, err)
	}

	totalPages := 0
	if v := header.Get("X-Total-Pages"); v != "" {
		if parsed, parseErr := strconv.Atoi(v); parseErr == nil {
			totalPages = parsed
		}
	}
	return commits, totalPages, nil
}

// FetchIssues retrieves one page of issues.
func (c *Client) FetchIssues(ctx context.Context, projectID int64, page int) ([]model.IssueResource, error) {
	params := url.Values{}
	params.Set("per_page", strconv.Itoa(resourcePageSize))
	params.Set("page", strconv.Itoa(page))

	var issues []model.IssueResource
	path := fmt.Sprintf("/projects/%d/issues", projectID)
	if _, err := c.getJSON(ctx, path, params, &issues); err != nil {
		return nil, fmt.Errorf("listing issues for project %d (page %d): %w", projectID, page, err)
	}
	return issues, nil
}

// FetchMergeRequestNotes retrieves the discussion notes of a merge request.
func (c *Client) FetchMergeRequestNotes(ctx context.Context, projectID, mergeRequestIID int64) ([]model.NoteResource, error) {
	params := url.Values{}
	params.Set("per_page", strconv.Itoa(notesPageSize))

	var notes []model.NoteResource
	path := fmt.Sprintf("/projects/%d/merge_requests/%d/notes", projectID, mergeRequestIID)
	if _, err := c.getJSON(ctx, path, params, &notes); err != nil {
		return nil, fmt.Errorf("listing notes for merge request %d!%d: %w", projectID, mergeRequestIID, err)
	}
	return notes, nil
}

// FetchIssueNotes retrieves the discussion notes of an issue.
func (c *Client) FetchIssueNotes(ctx context.Context, projectID, issueIID int64) ([]model.NoteResource, error) {
	params := url.Values{}
	params.Set("per_page", strconv.Itoa(notesPageSize))

	var notes []model.NoteResource
	path := fmt.Sprintf("/projects/%d/issues/%d/notes", projectID, issueIID)
	if _, err := c.getJSON(ctx, path, params, &notes); err != nil {
		return nil, fmt.Errorf("listing notes for issue %d#%d: %w", projectID, issueIID, err)
	}
	return notes, nil
}

// FetchMembers retrieves all members of a project, including inherited ones.
func (c *Client) FetchMembers(ctx context.Context, projectID int64) ([]model.MemberResource, error) {
	params := url.Values{}
	params.Set("per_page", strconv.Itoa(membersPageSize))

	var members []model.MemberResource
	path := fmt.Sprintf("/projects/%d/members/all", projectID)
	if _, err := c.getJSON(ctx, path, params, &members); err != nil {
		return nil, fmt.Errorf("listing members for project %d: %w", projectID, err)
	}
	return members, nil
}

// FetchCommitDiffs retrieves the per-file diffs of a single commit.
func (c *Client) FetchCommitDiffs(ctx context.Context, projectID int64, sha string) ([]model.DiffResource, error) {
	var diffs []model.DiffResource
	path := fmt.Sprintf("/projects/%d/repository/commits/%s/diff", projectID, url.PathEscape(sha))
	if _, err := c.getJSON(ctx, path, nil, &diffs); err != nil {
		return nil, fmt.Errorf("listing diffs for commit %s in project %d: %w", sha, projectID, err)
	}
	return diffs, nil
}

// FetchMergeRequestDiffs retrieves the per-file diffs of a merge request.
func (c *Client) FetchMergeRequestDiffs(ctx context.Context, projectID, mergeRequestIID int64) ([]model.DiffResource, error) {
	var diffs []model.DiffResource
	path := fmt.Sprintf("/projects/%d/merge_requests/%d/diffs", projectID, mergeRequestIID)
	if _, err := c.getJSON(ctx, path, nil, &diffs); err != nil {
		return nil, fmt.Errorf("listing diffs for merge request %d!%d: %w", projectID, mergeRequestIID, err)
	}
	return diffs, nil
}

// getJSON performs a GET with the client's retry budget and decodes the JSON
// response body into out. Transient failures (network errors, 429 and 5xx
// responses) are retried with exponential backoff; other HTTP errors are
// permanent. Returns the response headers of the successful attempt.
func (c *Client) getJSON(ctx context.Context, path string, params url.Values, out any) (http.Header, error) {
	reqURL := c.baseURL + path
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	var header http.Header
	var body []byte

	attempt := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("PRIVATE-TOKEN", c.token)

		resp, err := c.http.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		logRateLimit(resp, path)

		switch {
		case resp.StatusCode == http.StatusOK:
		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
			return fmt.Errorf("gitlab responded %d for %s", resp.StatusCode, path)
		default:
			return backoff.Permanent(fmt.Errorf("gitlab responded %d for %s", resp.StatusCode, path))
		}

		body, err = io.ReadAll(resp.Body)
		if err != nil {
			return err
		}
		header = resp.Header
		return nil
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), c.maxRetries), ctx)
	if err := backoff.Retry(attempt, policy); err != nil {
		return nil, err
	}

	if err := json.Unmarshal(body, out); err != nil {
		return nil, fmt.Errorf("decoding response for %s: %w", path, err)
	}
	return header, nil
}

// logRateLimit logs the GitLab API rate limit status after each call.
func logRateLimit(resp *http.Response, endpoint string) {
	remaining := resp.Header.Get("RateLimit-Remaining")
	if remaining == "" {
		return
	}

	slog.Debug("gitlab api call", "endpoint", endpoint, "rate_remaining", remaining)

	if n, err := strconv.Atoi(remaining); err == nil && n < 100 {
		slog.Warn("gitlab rate limit low", "remaining", n)
	}
}
