package github

import (
	"context"
	"strings"

	"emperror.dev/errors"
	"github.com/shurcooL/githubv4"

	"github.com/diamond-stack/diamond/internal/forge"
)

type prFragment struct {
	ID          githubv4.ID
	Number      githubv4.Int
	Title       githubv4.String
	Body        githubv4.String
	State       githubv4.PullRequestState
	IsDraft     githubv4.Boolean
	Merged      githubv4.Boolean
	HeadRefName githubv4.String
	BaseRefName githubv4.String
	Permalink   githubv4.String
	MergeCommit struct {
		Oid githubv4.String
	}
	ReviewDecision githubv4.PullRequestReviewDecision
	Commits        struct {
		Nodes []struct {
			Commit struct {
				StatusCheckRollup struct {
					State githubv4.StatusState
				}
			}
		}
	} `graphql:"commits(last: 1)"`
}

func toPullRequest(p prFragment) *forge.PullRequest {
	return &forge.PullRequest{
		ID:          toStringID(p.ID),
		Number:      int64(p.Number),
		Title:       string(p.Title),
		Body:        string(p.Body),
		State:       toPRState(p.State, bool(p.Merged)),
		IsDraft:     bool(p.IsDraft),
		HeadRefName: strings.TrimPrefix(string(p.HeadRefName), "refs/heads/"),
		BaseRefName: strings.TrimPrefix(string(p.BaseRefName), "refs/heads/"),
		URL:         string(p.Permalink),
		MergeCommit: string(p.MergeCommit.Oid),
	}
}

func toFullPullRequest(p prFragment) *forge.FullPullRequest {
	full := &forge.FullPullRequest{
		PullRequest: *toPullRequest(p),
		Review:      toReviewState(p.ReviewDecision),
		CI:          forge.CINone,
	}
	if len(p.Commits.Nodes) > 0 {
		full.CI = toCIState(p.Commits.Nodes[0].Commit.StatusCheckRollup.State)
	}
	return full
}

func toStringID(id githubv4.ID) string {
	if s, ok := id.(string); ok {
		return s
	}
	return ""
}

func toPRState(s githubv4.PullRequestState, merged bool) forge.PRState {
	if merged {
		return forge.PRStateMerged
	}
	switch s {
	case githubv4.PullRequestStateClosed:
		return forge.PRStateClosed
	default:
		return forge.PRStateOpen
	}
}

func toReviewState(d githubv4.PullRequestReviewDecision) forge.ReviewState {
	switch d {
	case githubv4.PullRequestReviewDecisionApproved:
		return forge.ReviewApproved
	case githubv4.PullRequestReviewDecisionChangesRequested:
		return forge.ReviewChangesRequested
	case githubv4.PullRequestReviewDecisionReviewRequired:
		return forge.ReviewPending
	default:
		return forge.ReviewPending
	}
}

func toCIState(s githubv4.StatusState) forge.CIState {
	switch s {
	case githubv4.StatusStateSuccess:
		return forge.CISuccess
	case githubv4.StatusStateFailure, githubv4.StatusStateError:
		return forge.CIFailure
	case githubv4.StatusStatePending:
		return forge.CIPending
	case githubv4.StatusStateExpected:
		return forge.CIPending
	default:
		return forge.CINone
	}
}

func (c *Client) findPR(ctx context.Context, branch string) (*prFragment, error) {
	var q struct {
		Repository struct {
			PullRequests struct {
				Nodes []prFragment
			} `graphql:"pullRequests(headRefName: $branch, states: [OPEN, MERGED, CLOSED], first: 1)"`
		} `graphql:"repository(owner: $owner, name: $repo)"`
	}
	vars := map[string]any{
		"owner":  githubv4.String(c.owner),
		"repo":   githubv4.String(c.repo),
		"branch": githubv4.String(branch),
	}
	if err := forge.WithRateLimitRetry(ctx, func() error { return c.query(ctx, &q, vars) }); err != nil {
		return nil, errors.WrapIff(err, "failed to query pull request for branch %q", branch)
	}
	if len(q.Repository.PullRequests.Nodes) == 0 {
		return nil, nil
	}
	return &q.Repository.PullRequests.Nodes[0], nil
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
	return toPullRequest(*pr), nil
}

func (c *Client) GetPRFullInfo(ctx context.Context, branch string) (*forge.FullPullRequest, error) {
	pr, err := c.findPR(ctx, branch)
	if err != nil {
		return nil, err
	}
	if pr == nil {
		return nil, errors.Errorf("no pull request found for branch %q", branch)
	}
	return toFullPullRequest(*pr), nil
}

// GetPRChain returns the PR for branch and every PR upstream of it by
// following BaseRefName links until a branch with no pull request (in any
// state) is reached.
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
		full := toPullRequest(*pr)
		chain = append(chain, full)
		branch = full.BaseRefName
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
	return string(pr.Body), nil
}

func (c *Client) CreatePR(ctx context.Context, opts forge.CreatePROpts) (*forge.PullRequest, error) {
	var m struct {
		CreatePullRequest struct {
			PullRequest prFragment
		} `graphql:"createPullRequest(input: $input)"`
	}
	repoID, err := c.repositoryID(ctx)
	if err != nil {
		return nil, err
	}
	input := githubv4.CreatePullRequestInput{
		RepositoryID: repoID,
		BaseRefName:  githubv4.String(opts.BaseRefName),
		HeadRefName:  githubv4.String(opts.HeadRefName),
		Title:        githubv4.String(opts.Title),
		Body:         githubv4.NewString(githubv4.String(opts.Body)),
		Draft:        githubv4.NewBoolean(githubv4.Boolean(opts.Draft)),
	}
	if err := forge.WithRateLimitRetry(ctx, func() error { return c.mutate(ctx, &m, input) }); err != nil {
		return nil, errors.Wrap(err, "failed to create pull request")
	}
	return toPullRequest(m.CreatePullRequest.PullRequest), nil
}

func (c *Client) repositoryID(ctx context.Context) (githubv4.ID, error) {
	var q struct {
		Repository struct {
			ID githubv4.ID
		} `graphql:"repository(owner: $owner, name: $repo)"`
	}
	vars := map[string]any{"owner": githubv4.String(c.owner), "repo": githubv4.String(c.repo)}
	if err := c.query(ctx, &q, vars); err != nil {
		return nil, errors.Wrap(err, "failed to resolve repository id")
	}
	return q.Repository.ID, nil
}

func (c *Client) UpdatePRBody(ctx context.Context, branch, body string) error {
	pr, err := c.findPR(ctx, branch)
	if err != nil {
		return err
	}
	if pr == nil {
		return errors.Errorf("no pull request found for branch %q", branch)
	}
	var m struct {
		UpdatePullRequest struct {
			PullRequest prFragment
		} `graphql:"updatePullRequest(input: $input)"`
	}
	input := githubv4.UpdatePullRequestInput{
		PullRequestID: pr.ID,
		Body:          githubv4.NewString(githubv4.String(body)),
	}
	return forge.WithRateLimitRetry(ctx, func() error { return c.mutate(ctx, &m, input) })
}

func (c *Client) UpdatePRBase(ctx context.Context, branch, newBase string) error {
	pr, err := c.findPR(ctx, branch)
	if err != nil {
		return err
	}
	if pr == nil {
		return errors.Errorf("no pull request found for branch %q", branch)
	}
	var m struct {
		UpdatePullRequest struct {
			PullRequest prFragment
		} `graphql:"updatePullRequest(input: $input)"`
	}
	input := githubv4.UpdatePullRequestInput{
		PullRequestID: pr.ID,
		BaseRefName:   githubv4.NewString(githubv4.String(newBase)),
	}
	return forge.WithRateLimitRetry(ctx, func() error { return c.mutate(ctx, &m, input) })
}

func (c *Client) MarkPRReady(ctx context.Context, branch string) error {
	pr, err := c.findPR(ctx, branch)
	if err != nil {
		return err
	}
	if pr == nil {
		return errors.Errorf("no pull request found for branch %q", branch)
	}
	var m struct {
		MarkPullRequestReadyForReview struct {
			PullRequest prFragment
		} `graphql:"markPullRequestReadyForReview(input: $input)"`
	}
	input := githubv4.MarkPullRequestReadyForReviewInput{PullRequestID: pr.ID}
	return forge.WithRateLimitRetry(ctx, func() error { return c.mutate(ctx, &m, input) })
}

func (c *Client) IsBranchMerged(ctx context.Context, branch, into string) (bool, error) {
	pr, err := c.findPR(ctx, branch)
	if err != nil {
		return false, err
	}
	if pr == nil {
		return false, nil
	}
	return bool(pr.Merged) && strings.TrimPrefix(string(pr.BaseRefName), "refs/heads/") == into, nil
}

func (c *Client) EnableAutoMerge(ctx context.Context, branch string, method forge.MergeMethod) error {
	pr, err := c.findPR(ctx, branch)
	if err != nil {
		return err
	}
	if pr == nil {
		return errors.Errorf("no pull request found for branch %q", branch)
	}
	var m struct {
		EnablePullRequestAutoMerge struct {
			PullRequest prFragment
		} `graphql:"enablePullRequestAutoMerge(input: $input)"`
	}
	githubMethod := toGithubMergeMethod(method)
	input := githubv4.EnablePullRequestAutoMergeInput{
		PullRequestID: pr.ID,
		MergeMethod:   &githubMethod,
	}
	return forge.WithRateLimitRetry(ctx, func() error { return c.mutate(ctx, &m, input) })
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
	var m struct {
		MergePullRequest struct {
			PullRequest prFragment
		} `graphql:"mergePullRequest(input: $input)"`
	}
	method2 := toGithubMergeMethod(method)
	input := githubv4.MergePullRequestInput{
		PullRequestID: pr.ID,
		MergeMethod:   &method2,
	}
	return forge.WithRateLimitRetry(ctx, func() error { return c.mutate(ctx, &m, input) })
}

func (c *Client) OpenPRInBrowser(ctx context.Context, branch string) (string, error) {
	pr, err := c.findPR(ctx, branch)
	if err != nil {
		return "", err
	}
	if pr == nil {
		return "", errors.Errorf("no pull request found for branch %q", branch)
	}
	return string(pr.Permalink), nil
}

func toGithubMergeMethod(m forge.MergeMethod) githubv4.PullRequestMergeMethod {
	switch m {
	case forge.MergeMerge:
		return githubv4.PullRequestMergeMethodMerge
	case forge.MergeRebase:
		return githubv4.PullRequestMergeMethodRebase
	default:
		return githubv4.PullRequestMergeMethodSquash
	}
}
