// Package gitlab implements forge.Client against the GitLab GraphQL API.
package gitlab

import (
	"context"
	"time"

	"emperror.dev/errors"
	"github.com/shurcooL/graphql"
	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"

	"github.com/diamond-stack/diamond/internal/forge"
	"github.com/diamond-stack/diamond/internal/gitshell"
)

// Client talks to a single GitLab project's merge requests over GraphQL.
type Client struct {
	gl          *graphql.Client
	projectPath string
	local       *gitshell.Repo
}

// New builds a Client for projectPath ("group/project"), authenticating
// with token against baseURL (https://gitlab.com or a self-hosted instance).
func New(token, baseURL, projectPath string, local *gitshell.Repo) (*Client, error) {
	if token == "" {
		return nil, errors.New("no GitLab token configured (set DIAMOND_GITLAB_TOKEN or GITLAB_TOKEN)")
	}
	src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	httpClient := oauth2.NewClient(context.Background(), src)
	gl := graphql.NewClient(baseURL+"/api/graphql", httpClient)
	return &Client{gl: gl, projectPath: projectPath, local: local}, nil
}

func (c *Client) query(ctx context.Context, q any, vars map[string]any) error {
	start := time.Now()
	err := c.gl.Query(ctx, q, vars)
	logrus.WithFields(logrus.Fields{"elapsed": time.Since(start)}).
		WithError(err).Debug("gitlab graphql query")
	return err
}

func (c *Client) mutate(ctx context.Context, m any, vars map[string]any) error {
	start := time.Now()
	err := c.gl.Mutate(ctx, m, vars)
	logrus.WithFields(logrus.Fields{"elapsed": time.Since(start)}).
		WithError(err).Debug("gitlab graphql mutation")
	return err
}

func (c *Client) CheckAuth(ctx context.Context) error {
	var q struct {
		CurrentUser struct{ Username string }
	}
	return forge.WithRateLimitRetry(ctx, func() error { return c.query(ctx, &q, nil) })
}

// PushBranch pushes branch to the remote. force requests --force-with-lease,
// used after Diamond rebases a branch onto its new base.
func (c *Client) PushBranch(ctx context.Context, branch string, force bool) error {
	mode := gitshell.PushNormal
	if force {
		mode = gitshell.PushForceWithLease
	}
	return c.local.Push(ctx, branch, mode)
}
