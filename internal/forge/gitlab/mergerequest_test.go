package gitlab

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/diamond-stack/diamond/internal/forge"
)

func TestToPullRequestMapsState(t *testing.T) {
	pr := toPullRequest(mergeRequest{IID: "42", State: mrStateMerged, SourceBranch: "feature", TargetBranch: "main"})
	assert.Equal(t, forge.PRStateMerged, pr.State)
	assert.Equal(t, int64(42), pr.Number)
	assert.Equal(t, "feature", pr.HeadRefName)
}

func TestToReviewStateRequiresEnoughApprovals(t *testing.T) {
	mr := mergeRequest{}
	mr.ApprovalState.Rules = []struct {
		ApprovalsRequired int
		ApprovedBy        struct {
			Nodes []struct{ Username string }
		}
	}{
		{ApprovalsRequired: 2, ApprovedBy: struct {
			Nodes []struct{ Username string }
		}{Nodes: []struct{ Username string }{{Username: "a"}}}},
	}
	assert.Equal(t, forge.ReviewPending, toReviewState(mr))

	mr.ApprovalState.Rules[0].ApprovedBy.Nodes = append(mr.ApprovalState.Rules[0].ApprovedBy.Nodes, struct{ Username string }{Username: "b"})
	assert.Equal(t, forge.ReviewApproved, toReviewState(mr))
}

func TestToCIStateMapsPipelineStatus(t *testing.T) {
	assert.Equal(t, forge.CISuccess, toCIState("SUCCESS"))
	assert.Equal(t, forge.CIFailure, toCIState("FAILED"))
	assert.Equal(t, forge.CIPending, toCIState("RUNNING"))
	assert.Equal(t, forge.CISkipped, toCIState("SKIPPED"))
	assert.Equal(t, forge.CINone, toCIState(""))
}
