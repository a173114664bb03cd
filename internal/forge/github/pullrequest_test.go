package github

import (
	"testing"

	"github.com/shurcooL/githubv4"
	"github.com/stretchr/testify/assert"

	"github.com/diamond-stack/diamond/internal/forge"
)

func TestToPRStatePrefersMergedOverState(t *testing.T) {
	assert.Equal(t, forge.PRStateMerged, toPRState(githubv4.PullRequestStateOpen, true))
	assert.Equal(t, forge.PRStateClosed, toPRState(githubv4.PullRequestStateClosed, false))
	assert.Equal(t, forge.PRStateOpen, toPRState(githubv4.PullRequestStateOpen, false))
}

func TestToReviewStateMapsDecisions(t *testing.T) {
	assert.Equal(t, forge.ReviewApproved, toReviewState(githubv4.PullRequestReviewDecisionApproved))
	assert.Equal(t, forge.ReviewChangesRequested, toReviewState(githubv4.PullRequestReviewDecisionChangesRequested))
	assert.Equal(t, forge.ReviewPending, toReviewState(""))
}

func TestToCIStateMapsStatusRollup(t *testing.T) {
	assert.Equal(t, forge.CISuccess, toCIState(githubv4.StatusStateSuccess))
	assert.Equal(t, forge.CIFailure, toCIState(githubv4.StatusStateFailure))
	assert.Equal(t, forge.CIPending, toCIState(githubv4.StatusStatePending))
	assert.Equal(t, forge.CIPending, toCIState(githubv4.StatusStateExpected))
	assert.Equal(t, forge.CINone, toCIState(""))
}

func TestHeadAndBaseRefNamesTrimRefsPrefix(t *testing.T) {
	pr := toPullRequest(prFragment{
		HeadRefName: "refs/heads/feature",
		BaseRefName: "refs/heads/main",
	})
	assert.Equal(t, "feature", pr.HeadRefName)
	assert.Equal(t, "main", pr.BaseRefName)
}
