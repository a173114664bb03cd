// Package github implements forge.Client against the GitHub GraphQL (v4)
// API.
package github

import (
	"context"
	"strings"
	"time"

	"emperror.dev/errors"
	"github.com/shurcooL/githubv4"
	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"

	"github.com/diamond-stack/diamond/internal/forge"
	"github.com/diamond-stack/diamond/internal/gitshell"
)

// Client talks to a single GitHub repository's pull requests over GraphQL,
// and delegates branch pushes to the local repo's git subprocess.
type Client struct {
	gh    *githubv4.Client
	owner string
	repo  string
	local *gitshell.Repo
}

// New builds a Client for owner/repo, authenticating with token. A baseURL
// of "https://github.com" (or empty) uses api.github.com; any other baseURL
// is treated as a GitHub Enterprise host served at <baseURL>/api/graphql.
func New(token, baseURL, repoSlug string, local *gitshell.Repo) (*Client, error) {
	if token == "" {
		return nil, errors.New("no GitHub token configured (set DIAMOND_GITHUB_TOKEN or GITHUB_TOKEN)")
	}
	owner, repo, ok := strings.Cut(repoSlug, "/")
	if !ok {
		return nil, errors.Errorf("malformed GitHub repo slug %q", repoSlug)
	}
	src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	httpClient := oauth2.NewClient(context.Background(), src)
	gh := githubv4.NewClient(httpClient)
	if baseURL != "" && baseURL != "https://github.com" {
		gh = githubv4.NewEnterpriseClient(strings.TrimSuffix(baseURL, "/")+"/api/graphql", httpClient)
	}
	return &Client{gh: gh, owner: owner, repo: repo, local: local}, nil
}

func (c *Client) query(ctx context.Context, q any, vars map[string]any) error {
	start := time.Now()
	err := c.gh.Query(ctx, q, vars)
	logrus.WithFields(logrus.Fields{"elapsed": time.Since(start)}).
		WithError(err).Debug("github graphql query")
	return err
}

func (c *Client) mutate(ctx context.Context, m any, input githubv4.Input) error {
	start := time.Now()
	err := c.gh.Mutate(ctx, m, input, nil)
	logrus.WithFields(logrus.Fields{"elapsed": time.Since(start)}).
		WithError(err).Debug("github graphql mutation")
	return err
}

func (c *Client) CheckAuth(ctx context.Context) error {
	var q struct {
		Viewer struct{ Login githubv4.String }
	}
	return forge.WithRateLimitRetry(ctx, func() error { return c.query(ctx, &q, nil) })
}

// PushBranch pushes branch to the remote. force requests --force-with-lease,
// the safe default for pushing a branch Diamond just rebased; a plain,
// non-forced push is used the first time a branch is pushed for a new PR.
func (c *Client) PushBranch(ctx context.Context, branch string, force bool) error {
	mode := gitshell.PushNormal
	if force {
		mode = gitshell.PushForceWithLease
	}
	return c.local.Push(ctx, branch, mode)
}
