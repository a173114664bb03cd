package orchestrator_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diamond-stack/diamond/internal/forge"
	"github.com/diamond-stack/diamond/internal/forge/forgetest"
	"github.com/diamond-stack/diamond/internal/orchestrator"
)

func TestApplyApprovedPRGuardNilClientIsNoOp(t *testing.T) {
	ctx := context.Background()
	o, _, _ := setup(t)
	plan := &orchestrator.Plan{Branches: []string{"a", "b"}}
	require.NoError(t, o.ApplyApprovedPRGuard(ctx, nil, plan, false, false))
	assert.Equal(t, []string{"a", "b"}, plan.Branches)
}

func TestApplyApprovedPRGuardFailsOnApprovedWithoutFlags(t *testing.T) {
	ctx := context.Background()
	o, _, _ := setup(t)
	m := forgetest.New()
	m.Seed("b", &forge.FullPullRequest{Review: forge.ReviewApproved})
	plan := &orchestrator.Plan{Branches: []string{"a", "b"}, NewParentOf: map[string]string{"a": "main", "b": "a"}}

	err := o.ApplyApprovedPRGuard(ctx, m, plan, false, false)
	assert.ErrorIs(t, err, orchestrator.ErrApprovedPRsInPlan)
}

func TestApplyApprovedPRGuardForceBypassesCheck(t *testing.T) {
	ctx := context.Background()
	o, _, _ := setup(t)
	m := forgetest.New()
	m.Seed("b", &forge.FullPullRequest{Review: forge.ReviewApproved})
	plan := &orchestrator.Plan{Branches: []string{"a", "b"}}

	require.NoError(t, o.ApplyApprovedPRGuard(ctx, m, plan, true, false))
	assert.Equal(t, []string{"a", "b"}, plan.Branches)
}

func TestApplyApprovedPRGuardSkipApprovedDropsBranch(t *testing.T) {
	ctx := context.Background()
	o, _, _ := setup(t)
	m := forgetest.New()
	m.Seed("b", &forge.FullPullRequest{Review: forge.ReviewApproved})
	plan := &orchestrator.Plan{Branches: []string{"a", "b"}, NewParentOf: map[string]string{"a": "main", "b": "a"}}

	require.NoError(t, o.ApplyApprovedPRGuard(ctx, m, plan, false, true))
	assert.Equal(t, []string{"a"}, plan.Branches)
	_, stillPresent := plan.NewParentOf["b"]
	assert.False(t, stillPresent)
}
