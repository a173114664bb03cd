// Package forge is the uniform abstraction over GitHub/GitLab/Bitbucket/
// Gitea pull-request APIs that the orchestrator and CLI drive sync/restack
// and PR-management commands through, without caring which host a
// repository's origin points at.
package forge

import (
	"context"
	"time"
)

// MergeMethod is the merge strategy used to land a pull request.
type MergeMethod string

const (
	MergeSquash MergeMethod = "squash"
	MergeMerge  MergeMethod = "merge"
	MergeRebase MergeMethod = "rebase"
)

// PRState is the lifecycle state of a pull/merge request.
type PRState string

const (
	PRStateOpen   PRState = "open"
	PRStateClosed PRState = "closed"
	PRStateMerged PRState = "merged"
)

// ReviewState summarizes a PR's review decision.
type ReviewState string

const (
	ReviewPending          ReviewState = "pending"
	ReviewApproved         ReviewState = "approved"
	ReviewChangesRequested ReviewState = "changes_requested"
	ReviewCommented        ReviewState = "commented"
)

// CIState summarizes a PR's check-run/pipeline status.
type CIState string

const (
	CINone    CIState = "none"
	CIPending CIState = "pending"
	CISuccess CIState = "success"
	CIFailure CIState = "failure"
	CISkipped CIState = "skipped"
)

// PullRequest is the host-agnostic view of a pull/merge request.
type PullRequest struct {
	ID          string
	Number      int64
	Title       string
	Body        string
	State       PRState
	IsDraft     bool
	HeadRefName string
	BaseRefName string
	URL         string
	MergeCommit string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// FullPullRequest adds draft/review/CI state on top of PullRequest, for
// get_pr_full_info and the approved-PR and CI-wait guards.
type FullPullRequest struct {
	PullRequest
	Review ReviewState
	CI     CIState
}

// CreatePROpts is the input to Client.CreatePR.
type CreatePROpts struct {
	HeadRefName string
	BaseRefName string
	Title       string
	Body        string
	Draft       bool
}

// Client is the uniform sync capability set every backend implements.
type Client interface {
	CheckAuth(ctx context.Context) error
	PRExists(ctx context.Context, branch string) (bool, error)
	CreatePR(ctx context.Context, opts CreatePROpts) (*PullRequest, error)
	GetPRInfo(ctx context.Context, branch string) (*PullRequest, error)
	GetPRFullInfo(ctx context.Context, branch string) (*FullPullRequest, error)
	GetPRChain(ctx context.Context, branch string) ([]*PullRequest, error)
	GetPRBody(ctx context.Context, branch string) (string, error)
	UpdatePRBody(ctx context.Context, branch, body string) error
	UpdatePRBase(ctx context.Context, branch, newBase string) error
	MarkPRReady(ctx context.Context, branch string) error
	IsBranchMerged(ctx context.Context, branch, into string) (bool, error)
	EnableAutoMerge(ctx context.Context, branch string, method MergeMethod) error
	MergePR(ctx context.Context, branch string, method MergeMethod, autoConfirm bool) error
	OpenPRInBrowser(ctx context.Context, branch string) (string, error)
	PushBranch(ctx context.Context, branch string, force bool) error
}

// AsyncClient is the batch superset. DefaultAsync wraps any Client with the
// naive parallel-fan-out implementation; a backend may implement AsyncClient
// directly to issue a single remote query instead.
type AsyncClient interface {
	Client
	CheckPRsExist(ctx context.Context, branches []string) (map[string]bool, error)
	GetPRsFullInfo(ctx context.Context, branches []string) (map[string]*FullPullRequest, error)
	GetPRBodies(ctx context.Context, branches []string) (map[string]string, error)
	UpdatePRBodies(ctx context.Context, updates map[string]string) error
	UpdatePRBases(ctx context.Context, updates map[string]string) error
}
