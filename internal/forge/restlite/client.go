// Package restlite implements forge.Client against Bitbucket Cloud and
// Gitea's REST APIs. Neither example repo wires a dedicated SDK for either
// host, so this talks plain REST over net/http rather than reaching for an
// unrelated ecosystem client.
package restlite

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"emperror.dev/errors"

	"github.com/diamond-stack/diamond/internal/forge"
	"github.com/diamond-stack/diamond/internal/gitshell"
)

// Host distinguishes the two REST dialects this package understands.
type Host int

const (
	HostBitbucket Host = iota
	HostGitea
)

// Client talks to a single Bitbucket or Gitea repository's pull requests.
type Client struct {
	host       Host
	httpClient *http.Client
	baseURL    string
	repoSlug   string
	local      *gitshell.Repo
}

func New(host Host, token, baseURL, repoSlug string, local *gitshell.Repo) (*Client, error) {
	if token == "" {
		return nil, errors.New("no access token configured for this forge")
	}
	return &Client{
		host:    host,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout:   15 * time.Second,
			Transport: &bearerTransport{token: token, base: http.DefaultTransport},
		},
		repoSlug: repoSlug,
		local:    local,
	}, nil
}

type bearerTransport struct {
	token string
	base  http.RoundTripper
}

func (t *bearerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set("Authorization", "Bearer "+t.token)
	req.Header.Set("Accept", "application/json")
	return t.base.RoundTrip(req)
}

func (c *Client) do(ctx context.Context, method, path string, body, result any) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return errors.Wrap(err, "failed to marshal request body")
		}
		reader = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return errors.Wrap(err, "failed to build request")
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrap(err, "request failed")
	}
	defer resp.Body.Close()
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrap(err, "failed to read response body")
	}
	if resp.StatusCode >= 300 {
		if resp.StatusCode == http.StatusTooManyRequests {
			return errors.Errorf("too many requests: %s", resp.Status)
		}
		return errors.Errorf("request to %s failed: %s: %s", path, resp.Status, string(respBody))
	}
	if result == nil {
		return nil
	}
	return errors.Wrap(json.Unmarshal(respBody, result), "failed to unmarshal response")
}

func (c *Client) CheckAuth(ctx context.Context) error {
	switch c.host {
	case HostGitea:
		return c.do(ctx, http.MethodGet, "/api/v1/user", nil, nil)
	default:
		return c.do(ctx, http.MethodGet, "/2.0/user", nil, nil)
	}
}

func (c *Client) PushBranch(ctx context.Context, branch string, force bool) error {
	mode := gitshell.PushNormal
	if force {
		mode = gitshell.PushForceWithLease
	}
	return c.local.Push(ctx, branch, mode)
}

func (c *Client) pullRequestsPath() string {
	if c.host == HostGitea {
		return fmt.Sprintf("/api/v1/repos/%s/pulls", c.repoSlug)
	}
	return fmt.Sprintf("/2.0/repositories/%s/pullrequests", c.repoSlug)
}

// restPR is the subset of fields common to Bitbucket and Gitea PR payloads
// that this package's callers need.
type restPR struct {
	ID     int64  `json:"id"`
	Number int64  `json:"number"`
	Title  string `json:"title"`
	Body   string `json:"body"`
	State  string `json:"state"`
	Draft  bool   `json:"draft"`
	Head   struct {
		Ref string `json:"ref"`
	} `json:"head"`
	Base struct {
		Ref string `json:"ref"`
	} `json:"base"`
	HTMLURL string `json:"html_url"`
	Merged  bool   `json:"merged"`
}

func (r restPR) toPullRequest() *forge.PullRequest {
	number := r.Number
	if number == 0 {
		number = r.ID
	}
	state := forge.PRStateOpen
	switch {
	case r.Merged || strings.EqualFold(r.State, "merged"):
		state = forge.PRStateMerged
	case strings.EqualFold(r.State, "closed") || strings.EqualFold(r.State, "declined"):
		state = forge.PRStateClosed
	}
	return &forge.PullRequest{
		ID:          fmt.Sprintf("%d", number),
		Number:      number,
		Title:       r.Title,
		Body:        r.Body,
		State:       state,
		IsDraft:     r.Draft,
		HeadRefName: r.Head.Ref,
		BaseRefName: r.Base.Ref,
		URL:         r.HTMLURL,
	}
}

func (c *Client) findPR(ctx context.Context, branch string) (*restPR, error) {
	var results []restPR
	query := "?head=" + branch
	if c.host == HostBitbucket {
		query = fmt.Sprintf(`?q=source.branch.name="%s"`, branch)
	}
	if err := c.do(ctx, http.MethodGet, c.pullRequestsPath()+query, nil, &results); err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}
	return &results[0], nil
}

func (c *Client) PRExists(ctx context.Context, branch string) (bool, error) {
	pr, err := c.findPR(ctx, branch)
	if err != nil {
		return false, err
	}
	return pr != nil, nil
}

func (c *Client) GetPRInfo(ctx context.Context, branch string) (*forge.PullRequest, error) {
	pr, err := c.findPR(ctx, branch)
	if err != nil {
		return nil, err
	}
	if pr == nil {
		return nil, errors.Errorf("no pull request found for branch %q", branch)
	}
	return pr.toPullRequest(), nil
}

func (c *Client) GetPRFullInfo(ctx context.Context, branch string) (*forge.FullPullRequest, error) {
	pr, err := c.findPR(ctx, branch)
	if err != nil {
		return nil, err
	}
	if pr == nil {
		return nil, errors.Errorf("no pull request found for branch %q", branch)
	}
	// Neither REST API exposes a single-call review/CI rollup as cheaply as
	// GitHub/GitLab's GraphQL APIs; report pending until a merge decision
	// is observable from the PR's own state.
	return &forge.FullPullRequest{PullRequest: *pr.toPullRequest(), Review: forge.ReviewPending, CI: forge.CINone}, nil
}

func (c *Client) GetPRChain(ctx context.Context, branch string) ([]*forge.PullRequest, error) {
	var chain []*forge.PullRequest
	seen := map[string]bool{}
	for branch != "" && !seen[branch] {
		seen[branch] = true
		pr, err := c.findPR(ctx, branch)
		if err != nil {
			return nil, err
		}
		if pr == nil {
			break
		}
		converted := pr.toPullRequest()
		chain = append(chain, converted)
		branch = converted.BaseRefName
	}
	return chain, nil
}

func (c *Client) GetPRBody(ctx context.Context, branch string) (string, error) {
	pr, err := c.findPR(ctx, branch)
	if err != nil {
		return "", err
	}
	if pr == nil {
		return "", errors.Errorf("no pull request found for branch %q", branch)
	}
	return pr.Body, nil
}

func (c *Client) CreatePR(ctx context.Context, opts forge.CreatePROpts) (*forge.PullRequest, error) {
	body := map[string]any{
		"title": opts.Title,
		"body":  opts.Body,
		"head":  opts.HeadRefName,
		"base":  opts.BaseRefName,
	}
	var result restPR
	if err := c.do(ctx, http.MethodPost, c.pullRequestsPath(), body, &result); err != nil {
		return nil, errors.Wrap(err, "failed to create pull request")
	}
	return result.toPullRequest(), nil
}

func (c *Client) prPath(number int64) string {
	if c.host == HostGitea {
		return fmt.Sprintf("/api/v1/repos/%s/pulls/%d", c.repoSlug, number)
	}
	return fmt.Sprintf("/2.0/repositories/%s/pullrequests/%d", c.repoSlug, number)
}

func (c *Client) UpdatePRBody(ctx context.Context, branch, body string) error {
	pr, err := c.findPR(ctx, branch)
	if err != nil {
		return err
	}
	if pr == nil {
		return errors.Errorf("no pull request found for branch %q", branch)
	}
	return c.do(ctx, http.MethodPatch, c.prPath(pr.Number), map[string]any{"body": body}, nil)
}

func (c *Client) UpdatePRBase(ctx context.Context, branch, newBase string) error {
	pr, err := c.findPR(ctx, branch)
	if err != nil {
		return err
	}
	if pr == nil {
		return errors.Errorf("no pull request found for branch %q", branch)
	}
	return c.do(ctx, http.MethodPatch, c.prPath(pr.Number), map[string]any{"base": newBase}, nil)
}

func (c *Client) MarkPRReady(ctx context.Context, branch string) error {
	pr, err := c.findPR(ctx, branch)
	if err != nil {
		return err
	}
	if pr == nil {
		return errors.Errorf("no pull request found for branch %q", branch)
	}
	return c.do(ctx, http.MethodPatch, c.prPath(pr.Number), map[string]any{"draft": false}, nil)
}

func (c *Client) IsBranchMerged(ctx context.Context, branch, into string) (bool, error) {
	pr, err := c.findPR(ctx, branch)
	if err != nil {
		return false, err
	}
	if pr == nil {
		return false, nil
	}
	return pr.toPullRequest().State == forge.PRStateMerged && pr.Base.Ref == into, nil
}

// EnableAutoMerge has no equivalent in either REST API's public surface;
// callers should fall back to CIWait + MergePR.
func (c *Client) EnableAutoMerge(ctx context.Context, branch string, method forge.MergeMethod) error {
	return errors.New("auto-merge is not supported on this forge; wait for CI then merge directly")
}

func (c *Client) MergePR(ctx context.Context, branch string, method forge.MergeMethod, autoConfirm bool) error {
	pr, err := c.findPR(ctx, branch)
	if err != nil {
		return err
	}
	if pr == nil {
		return errors.Errorf("no pull request found for branch %q", branch)
	}
	if !autoConfirm {
		return errors.New("merge requires confirmation")
	}
	mergeMethod := "merge"
	switch method {
	case forge.MergeSquash:
		mergeMethod = "squash"
	case forge.MergeRebase:
		mergeMethod = "rebase"
	}
	path := c.prPath(pr.Number)
	if c.host == HostGitea {
		path += "/merge"
	} else {
		path += "/merge"
	}
	return c.do(ctx, http.MethodPost, path, map[string]any{"merge_method": mergeMethod}, nil)
}

func (c *Client) OpenPRInBrowser(ctx context.Context, branch string) (string, error) {
	pr, err := c.findPR(ctx, branch)
	if err != nil {
		return "", err
	}
	if pr == nil {
		return "", errors.Errorf("no pull request found for branch %q", branch)
	}
	return pr.toPullRequest().URL, nil
}
