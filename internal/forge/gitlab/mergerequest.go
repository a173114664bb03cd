package gitlab

import (
	"context"
	"strconv"

	"emperror.dev/errors"
	"github.com/shurcooL/graphql"

	"github.com/diamond-stack/diamond/internal/forge"
)

type mrState string

const (
	mrStateOpened mrState = "opened"
	mrStateClosed mrState = "closed"
	mrStateMerged mrState = "merged"
)

type mergeRequest struct {
	ID             string
	IID            string
	Title          string
	Description    string
	State          mrState
	Draft          bool
	WebURL         string
	SourceBranch   string
	TargetBranch   string
	MergeCommitSha *string
	ApprovalState  struct {
		Rules []struct {
			ApprovalsRequired int
			ApprovedBy        struct {
				Nodes []struct{ Username string }
			}
		}
	} `graphql:"approvalState"`
	HeadPipeline struct {
		Status string
	} `graphql:"headPipeline"`
}

func toPullRequest(mr mergeRequest) *forge.PullRequest {
	number, _ := strconv.ParseInt(mr.IID, 10, 64)
	pr := &forge.PullRequest{
		ID:          mr.ID,
		Number:      number,
		Title:       mr.Title,
		Body:        mr.Description,
		IsDraft:     mr.Draft,
		HeadRefName: mr.SourceBranch,
		BaseRefName: mr.TargetBranch,
		URL:         mr.WebURL,
	}
	switch mr.State {
	case mrStateMerged:
		pr.State = forge.PRStateMerged
	case mrStateClosed:
		pr.State = forge.PRStateClosed
	default:
		pr.State = forge.PRStateOpen
	}
	if mr.MergeCommitSha != nil {
		pr.MergeCommit = *mr.MergeCommitSha
	}
	return pr
}

func toReviewState(mr mergeRequest) forge.ReviewState {
	for _, rule := range mr.ApprovalState.Rules {
		if rule.ApprovalsRequired > 0 && len(rule.ApprovedBy.Nodes) >= rule.ApprovalsRequired {
			return forge.ReviewApproved
		}
	}
	return forge.ReviewPending
}

func toCIState(status string) forge.CIState {
	switch status {
	case "SUCCESS":
		return forge.CISuccess
	case "FAILED":
		return forge.CIFailure
	case "RUNNING", "PENDING", "CREATED":
		return forge.CIPending
	case "SKIPPED":
		return forge.CISkipped
	default:
		return forge.CINone
	}
}

func toFullPullRequest(mr mergeRequest) *forge.FullPullRequest {
	return &forge.FullPullRequest{
		PullRequest: *toPullRequest(mr),
		Review:      toReviewState(mr),
		CI:          toCIState(mr.HeadPipeline.Status),
	}
}

func (c *Client) findMR(ctx context.Context, branch string) (*mergeRequest, error) {
	var q struct {
		Project struct {
			MergeRequests struct {
				Nodes []mergeRequest
			} `graphql:"mergeRequests(sourceBranches: $branches, first: 1)"`
		} `graphql:"project(fullPath: $projectPath)"`
	}
	vars := map[string]any{
		"projectPath": graphql.ID(c.projectPath),
		"branches":    []string{branch},
	}
	if err := forge.WithRateLimitRetry(ctx, func() error { return c.query(ctx, &q, vars) }); err != nil {
		return nil, errors.WrapIff(err, "failed to query merge request for branch %q", branch)
	}
	if len(q.Project.MergeRequests.Nodes) == 0 {
		return nil, nil
	}
	return &q.Project.MergeRequests.Nodes[0], nil
}

func (c *Client) PRExists(ctx context.Context, branch string) (bool, error) {
	mr, err := c.findMR(ctx, branch)
	if err != nil {
		return false, err
	}
	return mr != nil, nil
}

func (c *Client) GetPRInfo(ctx context.Context, branch string) (*forge.PullRequest, error) {
	mr, err := c.findMR(ctx, branch)
	if err != nil {
		return nil, err
	}
	if mr == nil {
		return nil, errors.Errorf("no merge request found for branch %q", branch)
	}
	return toPullRequest(*mr), nil
}

func (c *Client) GetPRFullInfo(ctx context.Context, branch string) (*forge.FullPullRequest, error) {
	mr, err := c.findMR(ctx, branch)
	if err != nil {
		return nil, err
	}
	if mr == nil {
		return nil, errors.Errorf("no merge request found for branch %q", branch)
	}
	return toFullPullRequest(*mr), nil
}

func (c *Client) GetPRChain(ctx context.Context, branch string) ([]*forge.PullRequest, error) {
	var chain []*forge.PullRequest
	seen := map[string]bool{}
	for branch != "" && !seen[branch] {
		seen[branch] = true
		mr, err := c.findMR(ctx, branch)
		if err != nil {
			return nil, err
		}
		if mr == nil {
			break
		}
		pr := toPullRequest(*mr)
		chain = append(chain, pr)
		branch = pr.BaseRefName
	}
	return chain, nil
}

func (c *Client) GetPRBody(ctx context.Context, branch string) (string, error) {
	mr, err := c.findMR(ctx, branch)
	if err != nil {
		return "", err
	}
	if mr == nil {
		return "", errors.Errorf("no merge request found for branch %q", branch)
	}
	return mr.Description, nil
}

func (c *Client) CreatePR(ctx context.Context, opts forge.CreatePROpts) (*forge.PullRequest, error) {
	var m struct {
		MergeRequestCreate struct {
			MergeRequest mergeRequest
			Errors       []string
		} `graphql:"mergeRequestCreate(input: $input)"`
	}
	vars := map[string]any{
		"input": map[string]any{
			"projectPath":  c.projectPath,
			"title":        opts.Title,
			"description":  opts.Body,
			"sourceBranch": opts.HeadRefName,
			"targetBranch": opts.BaseRefName,
			"draft":        opts.Draft,
		},
	}
	if err := forge.WithRateLimitRetry(ctx, func() error { return c.mutate(ctx, &m, vars) }); err != nil {
		return nil, errors.Wrap(err, "failed to create merge request")
	}
	if len(m.MergeRequestCreate.Errors) > 0 {
		return nil, errors.Errorf("failed to create merge request: %v", m.MergeRequestCreate.Errors)
	}
	return toPullRequest(m.MergeRequestCreate.MergeRequest), nil
}

func (c *Client) updateMR(ctx context.Context, iid string, fields map[string]any) error {
	var m struct {
		MergeRequestUpdate struct {
			MergeRequest mergeRequest
			Errors       []string
		} `graphql:"mergeRequestUpdate(input: $input)"`
	}
	input := map[string]any{
		"projectPath": c.projectPath,
		"iid":         iid,
	}
	for k, v := range fields {
		input[k] = v
	}
	vars := map[string]any{"input": input}
	if err := forge.WithRateLimitRetry(ctx, func() error { return c.mutate(ctx, &m, vars) }); err != nil {
		return err
	}
	if len(m.MergeRequestUpdate.Errors) > 0 {
		return errors.Errorf("failed to update merge request: %v", m.MergeRequestUpdate.Errors)
	}
	return nil
}

func (c *Client) UpdatePRBody(ctx context.Context, branch, body string) error {
	mr, err := c.findMR(ctx, branch)
	if err != nil {
		return err
	}
	if mr == nil {
		return errors.Errorf("no merge request found for branch %q", branch)
	}
	return c.updateMR(ctx, mr.IID, map[string]any{"description": body})
}

func (c *Client) UpdatePRBase(ctx context.Context, branch, newBase string) error {
	mr, err := c.findMR(ctx, branch)
	if err != nil {
		return err
	}
	if mr == nil {
		return errors.Errorf("no merge request found for branch %q", branch)
	}
	return c.updateMR(ctx, mr.IID, map[string]any{"targetBranch": newBase})
}

func (c *Client) MarkPRReady(ctx context.Context, branch string) error {
	mr, err := c.findMR(ctx, branch)
	if err != nil {
		return err
	}
	if mr == nil {
		return errors.Errorf("no merge request found for branch %q", branch)
	}
	return c.updateMR(ctx, mr.IID, map[string]any{"draft": false})
}

func (c *Client) IsBranchMerged(ctx context.Context, branch, into string) (bool, error) {
	mr, err := c.findMR(ctx, branch)
	if err != nil {
		return false, err
	}
	if mr == nil {
		return false, nil
	}
	return mr.State == mrStateMerged && mr.TargetBranch == into, nil
}

func (c *Client) EnableAutoMerge(ctx context.Context, branch string, method forge.MergeMethod) error {
	mr, err := c.findMR(ctx, branch)
	if err != nil {
		return err
	}
	if mr == nil {
		return errors.Errorf("no merge request found for branch %q", branch)
	}
	var m struct {
		MergeRequestSetAutoMergeStatus struct {
			Errors []string
		} `graphql:"mergeRequestSetAutoMergeStatus(input: $input)"`
	}
	vars := map[string]any{
		"input": map[string]any{
			"projectPath":    c.projectPath,
			"iid":            mr.IID,
			"strategy":       "MERGE_WHEN_CHECKS_PASS",
			"mergeRequestId": mr.ID,
		},
	}
	return forge.WithRateLimitRetry(ctx, func() error { return c.mutate(ctx, &m, vars) })
}

func (c *Client) MergePR(ctx context.Context, branch string, method forge.MergeMethod, autoConfirm bool) error {
	mr, err := c.findMR(ctx, branch)
	if err != nil {
		return err
	}
	if mr == nil {
		return errors.Errorf("no merge request found for branch %q", branch)
	}
	if !autoConfirm {
		return errors.New("merge requires confirmation")
	}
	var m struct {
		MergeRequestAccept struct {
			Errors []string
		} `graphql:"mergeRequestAccept(input: $input)"`
	}
	vars := map[string]any{
		"input": map[string]any{
			"projectPath": c.projectPath,
			"iid":         mr.IID,
			"squash":      method == forge.MergeSquash,
		},
	}
	if err := forge.WithRateLimitRetry(ctx, func() error { return c.mutate(ctx, &m, vars) }); err != nil {
		return err
	}
	if len(m.MergeRequestAccept.Errors) > 0 {
		return errors.Errorf("failed to merge: %v", m.MergeRequestAccept.Errors)
	}
	return nil
}

func (c *Client) OpenPRInBrowser(ctx context.Context, branch string) (string, error) {
	mr, err := c.findMR(ctx, branch)
	if err != nil {
		return "", err
	}
	if mr == nil {
		return "", errors.Errorf("no merge request found for branch %q", branch)
	}
	return mr.WebURL, nil
}
